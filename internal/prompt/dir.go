package prompt

import (
	"path/filepath"
	"strings"
)

const (
	homeTilde      = "~"
	truncatedAbove = "*/"
	// maxVerbatimComponents is the deepest path shown as-is, counting the
	// root ("/" or "~") as a component.
	maxVerbatimComponents = 3
)

// DirSegment abbreviates dir for display. A dir under home is shown relative
// to "~". A lone root or home is padded, paths with up to three components
// are shown verbatim and deeper paths collapse to "*/<leaf>".
func DirSegment(dir, home string) string {
	display := HomeToTilde(filepath.Clean(dir), home)

	switch n := componentCount(display); {
	case n <= 1:
		return "  " + display + "  "
	case n <= maxVerbatimComponents:
		return display
	default:
		return truncatedAbove + filepath.Base(display)
	}
}

// HomeToTilde replaces a leading home directory with "~".
func HomeToTilde(dir, home string) string {
	if home == "" {
		return dir
	}
	home = filepath.Clean(home)
	if home == string(filepath.Separator) {
		return dir
	}
	if dir == home {
		return homeTilde
	}
	if rest, ok := strings.CutPrefix(dir, home+string(filepath.Separator)); ok {
		return homeTilde + string(filepath.Separator) + rest
	}
	return dir
}

// componentCount counts the root and every named element of path.
func componentCount(path string) int {
	count := 0
	if strings.HasPrefix(path, string(filepath.Separator)) {
		count++
	}
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part != "" {
			count++
		}
	}
	return count
}
