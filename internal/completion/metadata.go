// Package completion holds the flag metadata used for shell completion.
package completion

import (
	"strings"

	"github.com/chmouel/zygal/internal/config"
	"github.com/chmouel/zygal/internal/theme"
)

// GenerateFlag is the argument urfave/cli appends when asking for
// completion candidates.
const GenerateFlag = "--generate-shell-completion"

// FlagInfo contains metadata about a command-line flag for completion generation.
type FlagInfo struct {
	Name        string   // Flag name without dashes
	Short       string   // Single letter alias, if any
	Description string   // Human-readable description
	HasValue    bool     // true for string flags, false for bool flags
	ValueHint   string   // Hint for value type (e.g., "DIR", "PATH", "NAME")
	Values      []string // Enumerated values for completion (e.g., theme names)
}

// GetFlags returns metadata for all zygal global flags.
func GetFlags() []FlagInfo {
	return []FlagInfo{
		{
			Name:        "shell",
			Short:       "s",
			Description: "Prompt escape flavour",
			HasValue:    true,
			ValueHint:   "SHELL",
			Values:      shells(),
		},
		{
			Name:        "theme",
			Short:       "t",
			Description: "Override the color theme",
			HasValue:    true,
			ValueHint:   "NAME",
			Values:      theme.AvailableThemes(),
		},
		{
			Name:        "dir",
			Short:       "d",
			Description: "Directory to describe",
			HasValue:    true,
			ValueHint:   "DIR",
		},
		{
			Name:        "debug-log",
			Description: "Path to debug log file",
			HasValue:    true,
			ValueHint:   "PATH",
		},
		{
			Name:        "config-file",
			Description: "Path to configuration file",
			HasValue:    true,
			ValueHint:   "FILE",
		},
		{
			Name:        "config",
			Short:       "C",
			Description: "Override config values",
			HasValue:    true,
			ValueHint:   "KEY=VALUE",
		},
		{
			Name:        "version",
			Short:       "v",
			Description: "Print version information",
		},
	}
}

func shells() []string {
	return []string{config.ShellZsh, config.ShellBash, config.ShellPlain}
}

// configKeys lists every key accepted by the configuration layers.
var configKeys = []string{
	"shell", "theme", "dir_fg", "dir_bg", "git_fg", "git_bg", "git_timeout",
	"max_branch_length", "show_icons", "strict", "debug_log", "watch_debounce",
}

// SuggestConfigKeys returns config key suggestions matching the prefix, in
// the "zygal.key=" form expected by --config.
func SuggestConfigKeys(prefix string) []string {
	prefix = strings.TrimPrefix(prefix, "zygal.")
	var matches []string
	for _, key := range configKeys {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			matches = append(matches, "zygal."+key+"=")
		}
	}
	return matches
}

// SuggestConfigValues returns value suggestions for a given config key.
func SuggestConfigValues(key string) []string {
	switch key {
	case "theme":
		return theme.AvailableThemes()
	case "shell":
		return shells()
	case "show_icons", "strict":
		return []string{"true", "false"}
	default:
		return nil
	}
}

// Suggest returns completion candidates for a command line. args excludes
// the program name; a trailing GenerateFlag is ignored. commands are the
// subcommand names offered when no flag value is expected.
func Suggest(args []string, commands []string) []string {
	if n := len(args); n > 0 && args[n-1] == GenerateFlag {
		args = args[:n-1]
	}

	if len(args) > 0 {
		prev := args[len(args)-1]
		if prev == "init" {
			return []string{config.ShellZsh, config.ShellBash}
		}
		if flag, ok := lookupFlag(prev); ok && flag.HasValue {
			if flag.Name == "config" {
				return SuggestConfigKeys("")
			}
			return flag.Values
		}
		if key, ok := strings.CutPrefix(prev, "zygal."); ok {
			if name, _, found := strings.Cut(key, "="); found {
				return SuggestConfigValues(name)
			}
		}
	}

	suggestions := append([]string{}, commands...)
	for _, flag := range GetFlags() {
		suggestions = append(suggestions, "--"+flag.Name)
	}
	return suggestions
}

func lookupFlag(arg string) (FlagInfo, bool) {
	var name string
	switch {
	case strings.HasPrefix(arg, "--"):
		name = arg[2:]
	case strings.HasPrefix(arg, "-") && len(arg) == 2:
		name = arg[1:]
	default:
		return FlagInfo{}, false
	}
	for _, flag := range GetFlags() {
		if flag.Name == name || (flag.Short != "" && flag.Short == name) {
			return flag, true
		}
	}
	return FlagInfo{}, false
}
