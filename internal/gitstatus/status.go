// Package gitstatus turns `git status --porcelain=v2 --branch --show-stash`
// output into a Status and encodes it as the compact symbol string shown in
// the prompt.
package gitstatus

// Status is the parsed summary of a working tree.
type Status struct {
	// Branch is the display name: the branch itself, or "(<sha7>...)" when
	// HEAD is detached. Never empty for a successfully parsed status.
	Branch string
	// Remote is nil when the branch has no upstream.
	Remote    *RemoteDiff
	Stash     bool
	Untracked bool
	Staged    bool
	Unstaged  bool
}

// RemoteDiff records whether the branch diverged from its upstream.
type RemoteDiff struct {
	Incoming bool // behind upstream
	Outgoing bool // ahead of upstream
}

// Clean reports whether the status carries nothing but the branch name.
func (s *Status) Clean() bool {
	return s.Remote == nil && !s.Stash && !s.Untracked && !s.Staged && !s.Unstaged
}

// Operation is a multi-step repository operation left in progress.
type Operation int

// Known operations. OperationNone is the zero value.
const (
	OperationNone Operation = iota
	OperationMerge
	OperationRebase
	OperationCherryPick
	OperationRevert
)

// Tag returns the single character spliced into the encoded status, or ""
// for OperationNone.
func (o Operation) Tag() string {
	switch o {
	case OperationMerge:
		return "M"
	case OperationRebase:
		return "B"
	case OperationCherryPick:
		return "H"
	case OperationRevert:
		return "V"
	default:
		return ""
	}
}

func (o Operation) String() string {
	switch o {
	case OperationMerge:
		return "merge"
	case OperationRebase:
		return "rebase"
	case OperationCherryPick:
		return "cherry-pick"
	case OperationRevert:
		return "revert"
	default:
		return "none"
	}
}
