// Package theme provides the color palettes used to decorate the prompt.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the two prompt segments. Values are ANSI-256
// indices ("208") or hex colors ("#282A36").
type Theme struct {
	DirFg lipgloss.Color
	DirBg lipgloss.Color
	GitFg lipgloss.Color
	GitBg lipgloss.Color
}

// Theme names.
const (
	ZygalName         = "zygal"
	DraculaName       = "dracula"
	NordName          = "nord"
	GruvboxDarkName   = "gruvbox-dark"
	SolarizedDarkName = "solarized-dark"
	MonoName          = "mono"
)

// Zygal returns the default black-on-orange directory and black-on-yellow git
// segments.
func Zygal() *Theme {
	return &Theme{
		DirFg: lipgloss.Color("0"),
		DirBg: lipgloss.Color("208"),
		GitFg: lipgloss.Color("0"),
		GitBg: lipgloss.Color("220"),
	}
}

// Dracula returns a purple and pink palette.
func Dracula() *Theme {
	return &Theme{
		DirFg: lipgloss.Color("236"), // Background
		DirBg: lipgloss.Color("141"), // Purple
		GitFg: lipgloss.Color("236"),
		GitBg: lipgloss.Color("212"), // Pink
	}
}

// Nord returns a frost blue palette.
func Nord() *Theme {
	return &Theme{
		DirFg: lipgloss.Color("236"),
		DirBg: lipgloss.Color("110"), // Frost
		GitFg: lipgloss.Color("236"),
		GitBg: lipgloss.Color("108"), // Aurora green
	}
}

// GruvboxDark returns the gruvbox orange and yellow pair.
func GruvboxDark() *Theme {
	return &Theme{
		DirFg: lipgloss.Color("235"),
		DirBg: lipgloss.Color("166"),
		GitFg: lipgloss.Color("235"),
		GitBg: lipgloss.Color("172"),
	}
}

// SolarizedDark returns the solarized blue and yellow pair.
func SolarizedDark() *Theme {
	return &Theme{
		DirFg: lipgloss.Color("230"),
		DirBg: lipgloss.Color("33"),
		GitFg: lipgloss.Color("234"),
		GitBg: lipgloss.Color("136"),
	}
}

// Mono returns a grayscale palette for terminals with poor color support.
func Mono() *Theme {
	return &Theme{
		DirFg: lipgloss.Color("15"),
		DirBg: lipgloss.Color("240"),
		GitFg: lipgloss.Color("0"),
		GitBg: lipgloss.Color("250"),
	}
}

// GetTheme returns a theme by name, or Zygal if not found.
func GetTheme(name string) *Theme {
	switch name {
	case DraculaName:
		return Dracula()
	case NordName:
		return Nord()
	case GruvboxDarkName:
		return GruvboxDark()
	case SolarizedDarkName:
		return SolarizedDark()
	case MonoName:
		return Mono()
	default:
		return Zygal()
	}
}

// DefaultName returns the default theme name.
func DefaultName() string {
	return ZygalName
}

// AvailableThemes returns a list of available theme names.
func AvailableThemes() []string {
	return []string{
		ZygalName,
		DraculaName,
		NordName,
		GruvboxDarkName,
		SolarizedDarkName,
		MonoName,
	}
}

// WithOverrides returns a copy of t with every non-empty override applied.
func (t *Theme) WithOverrides(dirFg, dirBg, gitFg, gitBg string) *Theme {
	out := *t
	if dirFg != "" {
		out.DirFg = lipgloss.Color(dirFg)
	}
	if dirBg != "" {
		out.DirBg = lipgloss.Color(dirBg)
	}
	if gitFg != "" {
		out.GitFg = lipgloss.Color(gitFg)
	}
	if gitBg != "" {
		out.GitBg = lipgloss.Color(gitBg)
	}
	return &out
}

// DirStyle is the lipgloss style of the directory segment.
func (t *Theme) DirStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.DirFg).Background(t.DirBg)
}

// GitStyle is the lipgloss style of the git segment.
func (t *Theme) GitStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.GitFg).Background(t.GitBg)
}
