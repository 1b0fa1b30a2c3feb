package config

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const keyPrefix = "zygal."

// gitConfigMock allows tests to mock git config output.
var gitConfigMock func(args []string, repoPath string) (string, error)

// runGitConfig executes git config command and returns raw output. A
// missing git binary reads as an empty configuration.
func runGitConfig(ctx context.Context, args []string, repoPath string) (string, error) {
	if gitConfigMock != nil {
		return gitConfigMock(args, repoPath)
	}

	// #nosec G204 -- fixed git config arguments
	cmd := exec.CommandContext(ctx, "git", args...)
	if repoPath != "" {
		cmd.Dir = repoPath
	}

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git config: %w", ctx.Err())
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// 1: no matching key. 128: git could not read the configuration.
			switch exitErr.ExitCode() {
			case 1, 128:
				return "", nil
			}
		}
		return "", err
	}
	return string(output), nil
}

// parseGitConfigOutput parses git config output into multi-value map.
// Input format: "zygal.theme nord\nzygal.show-icons true\n"
func parseGitConfigOutput(output string) map[string][]string {
	configMap := make(map[string][]string)
	if strings.TrimSpace(output) == "" {
		return configMap
	}

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Values may contain spaces; keys never do.
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}

		// git lowercases keys and forbids underscores in them, so
		// zygal.git-timeout stands for git_timeout.
		key := normalizeKey(strings.TrimPrefix(parts[0], keyPrefix))
		configMap[key] = append(configMap[key], parts[1])
	}

	return configMap
}

// convertGitConfigToParseConfig keeps the last value of each key, which is
// the most specific scope since git lists system, global and local in order.
func convertGitConfigToParseConfig(gitCfg map[string][]string) map[string]any {
	result := make(map[string]any, len(gitCfg))
	for key, values := range gitCfg {
		if len(values) == 0 {
			continue
		}
		result[key] = values[len(values)-1]
	}
	return result
}

// loadGitConfig reads zygal.* values visible from repoPath.
func loadGitConfig(ctx context.Context, repoPath string) (map[string]any, error) {
	output, err := runGitConfig(ctx, []string{"config", "--get-regexp", `^zygal\.`}, repoPath)
	if err != nil {
		return nil, err
	}
	return convertGitConfigToParseConfig(parseGitConfigOutput(output)), nil
}

// parseCLIConfigOverrides parses --config=zygal.key=value format.
func parseCLIConfigOverrides(overrides []string) (map[string]any, error) {
	result := make(map[string]any, len(overrides))

	for _, override := range overrides {
		parts := strings.SplitN(override, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config override: %q, expected format: zygal.key=value (note: use = not space)", override)
		}

		fullKey := parts[0]
		if !strings.HasPrefix(fullKey, keyPrefix) {
			return nil, fmt.Errorf("config override key must start with %q: %q", keyPrefix, fullKey)
		}

		key := normalizeKey(strings.TrimPrefix(fullKey, keyPrefix))
		if key == "" {
			return nil, fmt.Errorf("empty config key in override: %q", override)
		}

		// later overrides win
		result[key] = parts[1]
	}

	return result, nil
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}
