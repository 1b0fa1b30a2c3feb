package gitstatus

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	detachedHead   = "(detached)"
	shortSHALength = 7

	prefixAheadBehind = "# branch.ab"
	prefixStash       = "# stash"
	prefixUntracked   = "?"
)

var (
	stagedPattern   = regexp.MustCompile(`^[12u] [MTARCDU].`)
	unstagedPattern = regexp.MustCompile(`^[12u] .[MTARCDU]`)
)

// ErrMalformedStatus is the only error kind returned by Parse.
var ErrMalformedStatus = errors.New("malformed git status output")

// ParseError describes why a status text was rejected. It matches
// ErrMalformedStatus with errors.Is.
type ParseError struct {
	Cause string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedStatus, e.Cause)
}

// Is reports whether target is ErrMalformedStatus.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedStatus
}

func malformed(format string, args ...any) error {
	return &ParseError{Cause: fmt.Sprintf(format, args...)}
}

// Parse reads porcelain v2 status text. The first two lines must be the
// branch.oid and branch.head headers; every following line is inspected
// regardless of its position.
func Parse(raw string) (*Status, error) {
	lines := strings.Split(raw, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	if len(lines) < 2 {
		return nil, malformed("expected branch.oid and branch.head headers, got %d line(s)", len(lines))
	}

	sha, err := headerField(lines[0], "branch.oid")
	if err != nil {
		return nil, err
	}
	head, err := headerField(lines[1], "branch.head")
	if err != nil {
		return nil, err
	}

	branch := head
	if head == detachedHead {
		runes := []rune(sha)
		if len(runes) < shortSHALength {
			return nil, malformed("commit id %q is shorter than %d characters", sha, shortSHALength)
		}
		branch = "(" + string(runes[:shortSHALength]) + "...)"
	}

	entries := lines[2:]
	remote, err := parseRemote(entries)
	if err != nil {
		return nil, err
	}

	status := &Status{Branch: branch, Remote: remote}
	for _, line := range entries {
		switch {
		case strings.HasPrefix(line, prefixStash):
			status.Stash = true
		case strings.HasPrefix(line, prefixUntracked):
			status.Untracked = true
		default:
			if stagedPattern.MatchString(line) {
				status.Staged = true
			}
			if unstagedPattern.MatchString(line) {
				status.Unstaged = true
			}
		}
	}

	return status, nil
}

// headerField returns the value at field index 2 of a header line.
func headerField(line, name string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", malformed("%s header %q has %d field(s), want at least 3", name, line, len(fields))
	}
	return fields[2], nil
}

// parseRemote reads the first "# branch.ab +<ahead> -<behind>" line.
func parseRemote(lines []string) (*RemoteDiff, error) {
	for _, line := range lines {
		if !strings.HasPrefix(line, prefixAheadBehind) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, malformed("branch.ab header %q is missing counts", line)
		}
		ahead, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, malformed("invalid ahead count %q", fields[2])
		}
		behind, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, malformed("invalid behind count %q", fields[3])
		}

		return &RemoteDiff{
			Incoming: behind != 0,
			Outgoing: ahead != 0,
		}, nil
	}
	return nil, nil
}
