package prompt

import (
	"strings"

	"github.com/chmouel/zygal/internal/config"
)

var (
	zshEscaper  = strings.NewReplacer("%", "%%")
	bashEscaper = strings.NewReplacer(`\`, `\\`, "$", `\$`, "`", "\\`")
)

// Escape protects s from prompt expansion in the given shell.
func Escape(shell, s string) string {
	switch shell {
	case config.ShellZsh:
		return zshEscaper.Replace(s)
	case config.ShellBash:
		return bashEscaper.Replace(s)
	default:
		return s
	}
}
