// Package prompt renders the two-line shell prompt: the abbreviated working
// directory, the git segment when inside a repository and the prompt char.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/chmouel/zygal/internal/config"
	"github.com/chmouel/zygal/internal/theme"
)

const truncationTail = "…"

// Options describes one prompt render.
type Options struct {
	Shell string
	Dir   string
	Home  string
	// Segment is the encoded git status; empty outside a repository.
	Segment         string
	Theme           *theme.Theme
	MaxBranchLength int
	ShowIcons       bool
}

// Render builds the prompt string for opts.Shell.
func Render(opts Options) string {
	th := opts.Theme
	if th == nil {
		th = theme.GetTheme(theme.DefaultName())
	}
	shell := opts.Shell
	if shell == "" {
		shell = config.ShellZsh
	}

	dirColors := colors(shell, th.DirFg, th.DirBg)
	reset := resetColors(shell)

	dir := DirSegment(opts.Dir, opts.Home)
	if opts.ShowIcons {
		dir = iconWithSpace(dirIcon(opts.Dir)) + dir
	}

	var b strings.Builder
	b.WriteString(dirColors)
	b.WriteString(" ")
	b.WriteString(Escape(shell, dir))
	b.WriteString(" ")

	if opts.Segment != "" {
		segment := TruncateBranch(opts.Segment, opts.MaxBranchLength)
		b.WriteString(gitColors(shell, th))
		b.WriteString(" [")
		b.WriteString(Escape(shell, segment))
		b.WriteString("] ")
	}

	b.WriteString(reset)
	b.WriteString("\n")
	b.WriteString(dirColors)
	b.WriteString(" ")
	b.WriteString(promptChar(shell))
	b.WriteString(" ")
	b.WriteString(reset)
	b.WriteString(" ")
	return b.String()
}

// TruncateBranch shortens the branch part of an encoded segment to at most
// maxLen cells. Detached heads and a non-positive maxLen leave it untouched.
func TruncateBranch(segment string, maxLen int) string {
	if maxLen <= 0 {
		return segment
	}
	branch, symbols, hasSymbols := strings.Cut(segment, " ")
	if strings.HasPrefix(branch, "(") || ansi.PrintableRuneWidth(branch) <= maxLen {
		return segment
	}
	branch = truncate.StringWithTail(branch, uint(maxLen), truncationTail)
	if hasSymbols {
		return branch + " " + symbols
	}
	return branch
}

func promptChar(shell string) string {
	switch shell {
	case config.ShellZsh:
		return "%#"
	case config.ShellBash:
		return `\$`
	default:
		return "$"
	}
}

// gitColors switches to the git segment colors. zsh only changes the
// foreground when it differs from the directory segment.
func gitColors(shell string, th *theme.Theme) string {
	if shell == config.ShellZsh && th.GitFg == th.DirFg {
		return zshColor("K", th.GitBg)
	}
	return colors(shell, th.GitFg, th.GitBg)
}

func colors(shell string, fg, bg lipgloss.Color) string {
	switch shell {
	case config.ShellZsh:
		return zshColor("F", fg) + zshColor("K", bg)
	case config.ShellBash:
		return bashColor(38, fg) + bashColor(48, bg)
	default:
		return ""
	}
}

func resetColors(shell string) string {
	switch shell {
	case config.ShellZsh:
		return "%f%k"
	case config.ShellBash:
		return `\[\e[0m\]`
	default:
		return ""
	}
}

func zshColor(kind string, c lipgloss.Color) string {
	if c == "" {
		return ""
	}
	return fmt.Sprintf("%%%s{%s}", kind, string(c))
}

// bashColor wraps an SGR sequence in \[ \] so readline does not count it.
// base is 38 for foreground and 48 for background.
func bashColor(base int, c lipgloss.Color) string {
	code := sgrColor(c)
	if code == "" {
		return ""
	}
	return fmt.Sprintf(`\[\e[%d;%sm\]`, base, code)
}

// sgrColor converts an ANSI-256 index or a #rrggbb color to its SGR
// parameters, or "" when c is neither.
func sgrColor(c lipgloss.Color) string {
	value := strings.TrimSpace(string(c))
	if hex, ok := strings.CutPrefix(value, "#"); ok {
		if len(hex) != 6 {
			return ""
		}
		rgb, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("2;%d;%d;%d", rgb>>16&0xff, rgb>>8&0xff, rgb&0xff)
	}
	index, err := strconv.Atoi(value)
	if err != nil || index < 0 || index > 255 {
		return ""
	}
	return "5;" + strconv.Itoa(index)
}
