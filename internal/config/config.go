// Package config loads zygal configuration from YAML, git config and
// command-line overrides.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chmouel/zygal/internal/theme"
	"gopkg.in/yaml.v3"
)

// Supported shell flavours.
const (
	ShellZsh   = "zsh"
	ShellBash  = "bash"
	ShellPlain = "plain"
)

const (
	defaultGitTimeout    = 2 * time.Second
	defaultWatchDebounce = 300 * time.Millisecond
)

// AppConfig defines the zygal configuration options.
type AppConfig struct {
	Shell           string // Prompt escape flavour: "zsh", "bash" or "plain"
	Theme           string // Theme name: see AvailableThemes in internal/theme
	DirFg           string // Color overrides, ANSI-256 index or hex
	DirBg           string
	GitFg           string
	GitBg           string
	GitTimeout      time.Duration // Upper bound for each git query
	MaxBranchLength int           // Truncate long branch names, 0 disables
	ShowIcons       bool          // Prefix the directory with a Nerd Font icon
	Strict          bool          // Fail instead of hiding the git segment when git is unusable
	DebugLog        string
	WatchDebounce   time.Duration
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Shell:         ShellZsh,
		Theme:         theme.DefaultName(),
		GitTimeout:    defaultGitTimeout,
		WatchDebounce: defaultWatchDebounce,
	}
}

// ResolvedTheme returns the configured palette with color overrides applied.
func (c *AppConfig) ResolvedTheme() *theme.Theme {
	return theme.GetTheme(c.Theme).WithOverrides(c.DirFg, c.DirBg, c.GitFg, c.GitBg)
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		text := strings.ToLower(strings.TrimSpace(v))
		switch text {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

func coerceInt(value any, defaultVal int) int {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return defaultVal
	case int:
		return v
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return defaultVal
		}
		if i, err := strconv.Atoi(text); err == nil {
			return i
		}
	}
	return defaultVal
}

// coerceDuration accepts Go duration strings ("750ms") and plain integers,
// which are read as milliseconds.
func coerceDuration(value any, defaultVal time.Duration) time.Duration {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case int:
		return time.Duration(v) * time.Millisecond
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return defaultVal
		}
		if d, err := time.ParseDuration(text); err == nil {
			return d
		}
		if ms, err := strconv.Atoi(text); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

func coerceString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		return text, text != ""
	case int:
		// yaml decodes `dir_bg: 208` as an int
		return strconv.Itoa(v), true
	}
	return "", false
}

// applyConfigMap overlays the keys present in data onto cfg. Unknown keys
// and invalid values are ignored.
func applyConfigMap(cfg *AppConfig, data map[string]any) {
	if shell, ok := coerceString(data["shell"]); ok {
		if normalized := NormalizeShell(shell); normalized != "" {
			cfg.Shell = normalized
		}
	}

	if themeName, ok := coerceString(data["theme"]); ok {
		if normalized := NormalizeThemeName(themeName); normalized != "" {
			cfg.Theme = normalized
		}
	}

	for key, dest := range map[string]*string{
		"dir_fg": &cfg.DirFg,
		"dir_bg": &cfg.DirBg,
		"git_fg": &cfg.GitFg,
		"git_bg": &cfg.GitBg,
	} {
		if color, ok := coerceString(data[key]); ok {
			*dest = color
		}
	}

	if debugLog, ok := coerceString(data["debug_log"]); ok {
		cfg.DebugLog = debugLog
	}

	cfg.GitTimeout = coerceDuration(data["git_timeout"], cfg.GitTimeout)
	cfg.WatchDebounce = coerceDuration(data["watch_debounce"], cfg.WatchDebounce)
	cfg.MaxBranchLength = coerceInt(data["max_branch_length"], cfg.MaxBranchLength)
	cfg.ShowIcons = coerceBool(data["show_icons"], cfg.ShowIcons)
	cfg.Strict = coerceBool(data["strict"], cfg.Strict)

	if cfg.GitTimeout <= 0 {
		cfg.GitTimeout = defaultGitTimeout
	}
	if cfg.WatchDebounce < 0 {
		cfg.WatchDebounce = 0
	}
	if cfg.MaxBranchLength < 0 {
		cfg.MaxBranchLength = 0
	}
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()
	applyConfigMap(cfg, data)
	return cfg
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// LoadConfig reads the YAML configuration file and then applies zygal.* keys
// from git config as seen from repoPath. An explicit configPath must exist;
// the default locations are optional.
func LoadConfig(ctx context.Context, configPath, repoPath string) (*AppConfig, error) {
	var paths []string
	if configPath != "" {
		expanded, err := ExpandPath(configPath)
		if err != nil {
			return DefaultConfig(), err
		}
		paths = []string{expanded}
	} else {
		configBase := filepath.Join(getConfigDir(), "zygal")
		paths = []string{
			filepath.Join(configBase, "config.yaml"),
			filepath.Join(configBase, "config.yml"),
		}
	}

	cfg := DefaultConfig()
	for _, path := range paths {
		// #nosec G304 -- path is the user's own configuration file
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) && configPath == "" {
				continue
			}
			return DefaultConfig(), fmt.Errorf("failed to read config %s: %w", path, err)
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		applyConfigMap(cfg, yamlData)
		break
	}

	// bounded by git_timeout, which the file layer may set
	ctx, cancel := context.WithTimeout(ctx, cfg.GitTimeout)
	defer cancel()

	gitData, err := loadGitConfig(ctx, repoPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read git config: %w", err)
	}
	applyConfigMap(cfg, gitData)

	return cfg, nil
}

// ApplyCLIOverrides applies --config=zygal.key=value overrides, which take
// precedence over every other source.
func (c *AppConfig) ApplyCLIOverrides(overrides []string) error {
	data, err := parseCLIConfigOverrides(overrides)
	if err != nil {
		return err
	}
	applyConfigMap(c, data)
	return nil
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}

// NormalizeShell returns the canonical shell flavour or "" if unsupported.
func NormalizeShell(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case ShellZsh, ShellBash, ShellPlain:
		return name
	case "none", "tmux":
		return ShellPlain
	default:
		return ""
	}
}

// NormalizeThemeName returns the canonical theme name if it is supported.
func NormalizeThemeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, known := range theme.AvailableThemes() {
		if name == known {
			return name
		}
	}
	return ""
}
