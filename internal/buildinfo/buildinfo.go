// Package buildinfo holds the build metadata of the zygal binary. The linker
// injects values into cmd/zygal/main.go and main() forwards them with Set.
package buildinfo

import "runtime/debug"

const (
	unsetCommit = "none"
	unsetValue  = "unknown"
	shortCommit = 7
)

var (
	version = "dev"
	commit  = unsetCommit
	date    = unsetValue
	builtBy = unsetValue
)

// Set stores the build metadata received from linker-injected variables.
func Set(v, c, d, b string) {
	version = v
	commit = c
	date = d
	builtBy = b
}

// Version returns the build version string.
func Version() string { return version }

// Commit returns the build commit hash.
func Commit() string { return commit }

// Date returns the build date string.
func Date() string { return date }

// BuiltBy returns the build agent string.
func BuiltBy() string { return builtBy }

// Describe returns the version with the abbreviated commit, as shown by
// `zygal --version`, e.g. "1.2.0 (3f2a9c1)".
func Describe() string {
	if commit == unsetCommit || commit == "" {
		return version
	}
	c := commit
	if len(c) > shortCommit {
		c = c[:shortCommit]
	}
	return version + " (" + c + ")"
}

// Enrich fills values the linker left unset from the module build info:
// commit and date from the VCS stamp, builtBy from the Go version.
func Enrich() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	enrich(info)
}

func enrich(info *debug.BuildInfo) {
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == unsetCommit {
				commit = setting.Value
			}
		case "vcs.time":
			if date == unsetValue {
				date = setting.Value
			}
		}
	}
	if builtBy == unsetValue && info.GoVersion != "" {
		builtBy = info.GoVersion
	}
}
