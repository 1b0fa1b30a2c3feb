package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestGetThemeKnownNames(t *testing.T) {
	for _, name := range AvailableThemes() {
		t.Run(name, func(t *testing.T) {
			th := GetTheme(name)
			assert.NotEmpty(t, th.DirFg)
			assert.NotEmpty(t, th.DirBg)
			assert.NotEmpty(t, th.GitFg)
			assert.NotEmpty(t, th.GitBg)
		})
	}
}

func TestGetThemeFallsBackToZygal(t *testing.T) {
	assert.Equal(t, Zygal(), GetTheme("does-not-exist"))
	assert.Equal(t, ZygalName, DefaultName())
}

func TestZygalMatchesClassicColors(t *testing.T) {
	th := Zygal()
	assert.Equal(t, lipgloss.Color("0"), th.DirFg)
	assert.Equal(t, lipgloss.Color("208"), th.DirBg)
	assert.Equal(t, lipgloss.Color("220"), th.GitBg)
}

func TestWithOverrides(t *testing.T) {
	base := Zygal()
	out := base.WithOverrides("", "#282A36", "", "33")

	assert.Equal(t, lipgloss.Color("0"), out.DirFg)
	assert.Equal(t, lipgloss.Color("#282A36"), out.DirBg)
	assert.Equal(t, lipgloss.Color("33"), out.GitBg)
	// base is untouched
	assert.Equal(t, lipgloss.Color("208"), base.DirBg)
}
