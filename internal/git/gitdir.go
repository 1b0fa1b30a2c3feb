package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chmouel/zygal/internal/gitstatus"
)

const gitdirPrefix = "gitdir:"

// ErrNoGitDir is returned when no .git entry exists above a directory.
var ErrNoGitDir = errors.New("no git directory found")

// operationMarkers lists the files git leaves in the git directory while an
// operation is paused. The first match wins.
var operationMarkers = []struct {
	name string
	op   gitstatus.Operation
}{
	{"MERGE_HEAD", gitstatus.OperationMerge},
	{"rebase-merge", gitstatus.OperationRebase},
	{"rebase-apply", gitstatus.OperationRebase},
	{"CHERRY_PICK_HEAD", gitstatus.OperationCherryPick},
	{"REVERT_HEAD", gitstatus.OperationRevert},
}

// GitDir returns the git directory for dir without spawning git. It honours
// GIT_DIR, walks up to the nearest .git entry and follows the "gitdir:"
// indirection used by linked worktrees and submodules.
func GitDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	if env := os.Getenv("GIT_DIR"); env != "" {
		if !filepath.IsAbs(env) {
			env = filepath.Join(abs, env)
		}
		return filepath.Clean(env), nil
	}

	for current := abs; ; {
		candidate := filepath.Join(current, ".git")
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return candidate, nil
			}
			return readGitFile(candidate)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("%w: %s", ErrNoGitDir, abs)
		}
		current = parent
	}
}

func readGitFile(path string) (string, error) {
	// #nosec G304 -- path is a .git file inside the user's working tree
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, gitdirPrefix) {
		return "", fmt.Errorf("invalid git file %s", path)
	}

	target := strings.TrimSpace(strings.TrimPrefix(content, gitdirPrefix))
	if target == "" {
		return "", fmt.Errorf("invalid git file %s", path)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target), nil
}

// DetectOperation reports the operation in progress in gitDir, if any.
func DetectOperation(gitDir string) gitstatus.Operation {
	if gitDir == "" {
		return gitstatus.OperationNone
	}
	for _, marker := range operationMarkers {
		if _, err := os.Stat(filepath.Join(gitDir, marker.name)); err == nil {
			return marker.op
		}
	}
	return gitstatus.OperationNone
}
