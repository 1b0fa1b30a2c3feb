package gitstatus

import "strings"

// Symbols appended after the branch name, in output order.
const (
	SymbolUnstaged  = "*"
	SymbolStaged    = "+"
	SymbolStash     = "$"
	SymbolUntracked = "%"
	SymbolOnPar     = "="
	SymbolIncoming  = "<"
	SymbolOutgoing  = ">"
)

// Encode renders the status as "<branch> <op><*><+><$><%><remote>". A clean
// status with no operation in progress renders as the bare branch name.
func Encode(s *Status, op Operation) string {
	if s.Clean() && op == OperationNone {
		return s.Branch
	}

	var b strings.Builder
	b.WriteString(s.Branch)
	b.WriteByte(' ')
	b.WriteString(op.Tag())
	if s.Unstaged {
		b.WriteString(SymbolUnstaged)
	}
	if s.Staged {
		b.WriteString(SymbolStaged)
	}
	if s.Stash {
		b.WriteString(SymbolStash)
	}
	if s.Untracked {
		b.WriteString(SymbolUntracked)
	}
	if s.Remote != nil {
		b.WriteString(s.Remote.Symbol())
	}
	return b.String()
}

// Symbol returns "=" when on par with upstream, otherwise "<", ">" or "<>".
func (r *RemoteDiff) Symbol() string {
	if !r.Incoming && !r.Outgoing {
		return SymbolOnPar
	}
	symbol := ""
	if r.Incoming {
		symbol += SymbolIncoming
	}
	if r.Outgoing {
		symbol += SymbolOutgoing
	}
	return symbol
}
