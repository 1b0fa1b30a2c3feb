// Package git runs the git queries behind the prompt's git segment.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chmouel/zygal/internal/gitstatus"
	log "github.com/chmouel/zygal/internal/log"
)

// notARepository is the exit code git uses outside a working tree.
const notARepository = 128

// DefaultTimeout bounds a status query when none is configured.
const DefaultTimeout = 2 * time.Second

// ErrGitUnavailable is returned when the git executable cannot be started.
var ErrGitUnavailable = errors.New("git executable not available")

// LookupPath is used to find executables in PATH. It's exposed as a package variable
// so tests can mock it and avoid depending on system binaries being installed.
var LookupPath = exec.LookPath

// NotifyFn receives ongoing notifications.
type NotifyFn func(message string, severity string)

// NotifyOnceFn reports deduplicated notification messages.
type NotifyOnceFn func(key string, message string, severity string)

// Service runs git for the prompt.
type Service struct {
	notify      NotifyFn
	notifyOnce  NotifyOnceFn
	timeout     time.Duration
	mu          sync.Mutex
	notifiedSet map[string]bool
}

// NewService constructs a Service. Nil callbacks are replaced by no-ops;
// notifyOnce defaults to notify with per-key deduplication.
func NewService(notify NotifyFn, notifyOnce NotifyOnceFn) *Service {
	s := &Service{
		notify:      notify,
		notifyOnce:  notifyOnce,
		timeout:     DefaultTimeout,
		notifiedSet: make(map[string]bool),
	}
	if s.notify == nil {
		s.notify = func(string, string) {}
	}
	if s.notifyOnce == nil {
		s.notifyOnce = s.dedupNotify
	}
	return s
}

// SetTimeout sets the upper bound of a single status query. Non-positive
// values restore DefaultTimeout.
func (s *Service) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s.timeout = timeout
}

// Timeout returns the configured status query bound.
func (s *Service) Timeout() time.Duration {
	return s.timeout
}

func (s *Service) dedupNotify(key, message, severity string) {
	s.mu.Lock()
	seen := s.notifiedSet[key]
	s.notifiedSet[key] = true
	s.mu.Unlock()
	if !seen {
		s.notify(message, severity)
	}
}

func (s *Service) debugf(format string, args ...any) {
	log.Printf(format, args...)
}

// IsAvailable reports whether git can be found in PATH.
func (s *Service) IsAvailable() bool {
	_, err := LookupPath("git")
	return err == nil
}

func prepareAllowedCommand(ctx context.Context, args []string) (*exec.Cmd, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command provided")
	}

	switch args[0] {
	case "git":
		// #nosec G204 -- arguments for git command come from internal logic and are not shell interpolated
		return exec.CommandContext(ctx, "git", args[1:]...), nil
	default:
		return nil, fmt.Errorf("unsupported command %q", args[0])
	}
}

// RunGit executes a git command and optionally trims its output. Failures
// are reported through the notify callbacks and yield "".
func (s *Service) RunGit(ctx context.Context, args []string, cwd string, okReturncodes []int, strip, silent bool) string {
	command := strings.Join(args, " ")
	if command == "" {
		command = "<empty>"
	}
	s.debugf("run: %s (cwd=%s)", command, cwd)

	cmd, err := prepareAllowedCommand(ctx, args)
	if err != nil {
		key := fmt.Sprintf("unsupported_cmd:%s", command)
		s.notifyOnce(key, fmt.Sprintf("Unsupported command: %s", command), "error")
		s.debugf("error: %s (unsupported command)", command)
		return ""
	}
	if cwd != "" {
		cmd.Dir = cwd
	}

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			returnCode := exitError.ExitCode()
			if !slices.Contains(okReturncodes, returnCode) {
				if silent {
					s.debugf("error: %s (exit %d, silenced)", command, returnCode)
					return ""
				}
				suffix := fmt.Sprintf(" (exit %d)", returnCode)
				if stderr := strings.TrimSpace(string(exitError.Stderr)); stderr != "" {
					suffix = ": " + stderr
				}
				key := fmt.Sprintf("git_fail:%s:%s", cwd, command)
				s.notifyOnce(key, fmt.Sprintf("Command failed: %s%s", command, suffix), "error")
				s.debugf("error: %s%s", command, suffix)
				return ""
			}
		} else {
			if !silent {
				s.notifyOnce("cmd_missing:git", "Command not found: git", "error")
				s.debugf("error: command not found: git")
			}
			return ""
		}
	}

	out := string(output)
	if strip {
		out = strings.TrimSpace(out)
	}
	s.debugf("ok: %s", command)
	return out
}

// Status returns the raw `git status --porcelain=v2 --branch --show-stash`
// output for dir. inRepo is false, with a nil error, when dir is not inside
// a working tree.
func (s *Service) Status(ctx context.Context, dir string) (raw string, inRepo bool, err error) {
	if !s.IsAvailable() {
		s.notifyOnce("cmd_missing:git", "Command not found: git", "error")
		return "", false, fmt.Errorf("%w: git not found in PATH", ErrGitUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []string{"git", "status", "--porcelain=v2", "--branch", "--show-stash"}
	command := strings.Join(args, " ")
	s.debugf("run: %s (cwd=%s)", command, dir)

	cmd, err := prepareAllowedCommand(ctx, args)
	if err != nil {
		return "", false, err
	}
	cmd.Dir = dir
	// Status must not take index.lock or rewrite the index.
	cmd.Env = append(os.Environ(), "GIT_OPTIONAL_LOCKS=0")

	start := time.Now()
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			s.debugf("error: %s timed out after %s", command, s.timeout)
			return "", false, fmt.Errorf("git status timed out after %s: %w", s.timeout, ctx.Err())
		}
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			if exitError.ExitCode() == notARepository {
				s.debugf("not a repository: %s", dir)
				return "", false, nil
			}
			detail := strings.TrimSpace(string(exitError.Stderr))
			s.debugf("error: %s (exit %d): %s", command, exitError.ExitCode(), detail)
			return "", false, fmt.Errorf("git status failed (exit %d): %s", exitError.ExitCode(), detail)
		}
		s.notifyOnce("cmd_missing:git", "Command not found: git", "error")
		return "", false, fmt.Errorf("%w: %w", ErrGitUnavailable, err)
	}

	s.debugf("ok: %s (%s)", command, time.Since(start))
	return string(output), true, nil
}

// Segment runs the status query for dir and encodes it together with any
// operation in progress. ok is false when dir is not in a repository.
func (s *Service) Segment(ctx context.Context, dir string) (segment string, ok bool, err error) {
	raw, inRepo, err := s.Status(ctx, dir)
	if err != nil || !inRepo {
		return "", false, err
	}

	status, err := gitstatus.Parse(raw)
	if err != nil {
		s.debugf("error: %v", err)
		return "", true, err
	}

	op := gitstatus.OperationNone
	if gitDir, err := GitDir(dir); err == nil {
		op = DetectOperation(gitDir)
	} else {
		s.debugf("git dir lookup failed: %v", err)
	}

	return gitstatus.Encode(status, op), true, nil
}

// CommonDir returns the absolute git common directory for dir, or "" when
// dir is not in a repository.
func (s *Service) CommonDir(ctx context.Context, dir string) string {
	commonDir := s.RunGit(ctx, []string{"git", "rev-parse", "--git-common-dir"}, dir, []int{0}, true, true)
	if commonDir == "" {
		return ""
	}
	if filepath.IsAbs(commonDir) {
		return filepath.Clean(commonDir)
	}
	return filepath.Join(dir, commonDir)
}

// TopLevel returns the root of the working tree containing dir.
func (s *Service) TopLevel(ctx context.Context, dir string) string {
	return s.RunGit(ctx, []string{"git", "rev-parse", "--show-toplevel"}, dir, []int{0}, true, true)
}
