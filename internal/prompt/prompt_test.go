package prompt

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/chmouel/zygal/internal/config"
	"github.com/chmouel/zygal/internal/theme"
)

func TestDirSegment(t *testing.T) {
	home := "/home/user"

	tests := []struct {
		name     string
		dir      string
		expected string
	}{
		{name: "root is padded", dir: "/", expected: "  /  "},
		{name: "home is padded", dir: "/home/user", expected: "  ~  "},
		{name: "two components", dir: "/usr", expected: "/usr"},
		{name: "three components", dir: "/usr/local", expected: "/usr/local"},
		{name: "four components truncate", dir: "/current/working/directory", expected: "*/directory"},
		{name: "under home", dir: "/home/user/src", expected: "~/src"},
		{name: "three under home", dir: "/home/user/src/zygal", expected: "~/src/zygal"},
		{name: "deep under home", dir: "/home/user/src/github/zygal", expected: "*/zygal"},
		{name: "trailing slash", dir: "/usr/local/", expected: "/usr/local"},
		{name: "home prefix is not a parent", dir: "/home/username", expected: "/home/username"},
		{name: "percent is kept", dir: "/tmp/100%", expected: "/tmp/100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DirSegment(tt.dir, home))
		})
	}
}

func TestHomeToTilde(t *testing.T) {
	assert.Equal(t, "/home/user/src", HomeToTilde("/home/user/src", ""))
	assert.Equal(t, "/src", HomeToTilde("/src", "/"))
	assert.Equal(t, "~", HomeToTilde("/home/user", "/home/user/"))
	assert.Equal(t, "~/a/b", HomeToTilde("/home/user/a/b", "/home/user"))
}

func TestEscape(t *testing.T) {
	tests := []struct {
		shell    string
		input    string
		expected string
	}{
		{shell: config.ShellZsh, input: "main %", expected: "main %%"},
		{shell: config.ShellZsh, input: "main *+$", expected: "main *+$"},
		{shell: config.ShellBash, input: "main $%", expected: `main \$%`},
		{shell: config.ShellBash, input: "a\\b`c`", expected: "a\\\\b\\`c\\`"},
		{shell: config.ShellPlain, input: "main *+$%", expected: "main *+$%"},
	}

	for _, tt := range tests {
		t.Run(tt.shell+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Escape(tt.shell, tt.input))
		})
	}
}

func TestRenderZsh(t *testing.T) {
	t.Run("inside a repository", func(t *testing.T) {
		out := Render(Options{
			Shell:   config.ShellZsh,
			Dir:     "/home/user/src",
			Home:    "/home/user",
			Segment: "main *%",
		})
		assert.Equal(t, "%F{0}%K{208} ~/src %K{220} [main *%%] %f%k\n%F{0}%K{208} %# %f%k ", out)
	})

	t.Run("outside a repository", func(t *testing.T) {
		out := Render(Options{
			Shell: config.ShellZsh,
			Dir:   "/tmp",
			Home:  "/home/user",
		})
		assert.Equal(t, "%F{0}%K{208} /tmp %f%k\n%F{0}%K{208} %# %f%k ", out)
	})

	t.Run("distinct git foreground", func(t *testing.T) {
		out := Render(Options{
			Shell:   config.ShellZsh,
			Dir:     "/tmp",
			Segment: "main",
			Theme:   theme.SolarizedDark(),
		})
		assert.Contains(t, out, "%F{234}%K{136} [main] ")
		assert.True(t, strings.HasPrefix(out, "%F{230}%K{33} /tmp "))
	})

	t.Run("empty shell defaults to zsh", func(t *testing.T) {
		out := Render(Options{Dir: "/tmp"})
		assert.Contains(t, out, "%#")
	})
}

func TestRenderBash(t *testing.T) {
	out := Render(Options{
		Shell:   config.ShellBash,
		Dir:     "/srv/www",
		Segment: "main $",
	})

	expected := `\[\e[38;5;0m\]\[\e[48;5;208m\] /srv/www ` +
		`\[\e[38;5;0m\]\[\e[48;5;220m\] [main \$] \[\e[0m\]` + "\n" +
		`\[\e[38;5;0m\]\[\e[48;5;208m\] \$ \[\e[0m\] `
	assert.Equal(t, expected, out)
}

func TestRenderPlain(t *testing.T) {
	out := Render(Options{
		Shell:   config.ShellPlain,
		Dir:     "/srv/www",
		Segment: "main %",
	})
	assert.Equal(t, " /srv/www  [main %] \n $  ", out)
}

func TestRenderTruncatesBranch(t *testing.T) {
	out := Render(Options{
		Shell:           config.ShellPlain,
		Dir:             "/srv",
		Segment:         "feature/very-long-branch *",
		MaxBranchLength: 10,
	})
	assert.Contains(t, out, "[feature/v… *]")
}

func TestRenderIcons(t *testing.T) {
	out := Render(Options{
		Shell:     config.ShellPlain,
		Dir:       "/srv/www",
		ShowIcons: true,
	})
	icon := dirIcon("/srv/www")
	assert.NotEmpty(t, icon)
	assert.Equal(t, " "+icon+" /srv/www \n $  ", out)
}

func TestTruncateBranch(t *testing.T) {
	tests := []struct {
		name     string
		segment  string
		maxLen   int
		expected string
	}{
		{name: "disabled", segment: "feature/long", maxLen: 0, expected: "feature/long"},
		{name: "fits", segment: "main *", maxLen: 4, expected: "main *"},
		{name: "bare branch", segment: "feature/long", maxLen: 5, expected: "feat…"},
		{name: "keeps symbols", segment: "feature/long M*+=", maxLen: 8, expected: "feature… M*+="},
		{name: "detached head untouched", segment: "(abc1234...) *", maxLen: 4, expected: "(abc1234...) *"},
		{name: "wide runes", segment: "fonctionnalité-é", maxLen: 14, expected: "fonctionnalit…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateBranch(tt.segment, tt.maxLen))
		})
	}
}

func TestSGRColor(t *testing.T) {
	assert.Equal(t, "5;208", sgrColor(lipgloss.Color("208")))
	assert.Equal(t, "2;40;42;54", sgrColor(lipgloss.Color("#282A36")))
	assert.Empty(t, sgrColor(lipgloss.Color("#fff")))
	assert.Empty(t, sgrColor(lipgloss.Color("300")))
	assert.Empty(t, sgrColor(lipgloss.Color("red")))
	assert.Empty(t, bashColor(38, ""))
}
