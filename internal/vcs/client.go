package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNothingToCommit = errors.New("nothing to commit")
	ErrAuthRejected    = errors.New("credentials rejected by remote")
	ErrPushRejected    = errors.New("push rejected by remote")
	ErrCommandFailed   = errors.New("version control command failed")
	ErrEmptyOutput     = errors.New("version control command produced no output")
	ErrInvalidSHA      = errors.New("version control command returned an invalid commit id")
)

// Client is the narrow set of version control operations the publisher
// needs. Every call reports the captured process result alongside an
// error classified against the sentinels above.
type Client interface {
	StageAll(ctx context.Context, paths []string) (*Result, error)
	Commit(ctx context.Context, message string) (*Result, error)
	ForcePush(ctx context.Context, remoteURL, branch string) (*Result, error)
	ResolveHeadSHA(ctx context.Context) (string, error)
}

// Result is one finished external process. Args never contain credentials.
type Result struct {
	Args     []string      `json:"args"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
}

func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// CommandError ties a classified failure to the process that produced it.
type CommandError struct {
	Op     string
	Result *Result
	Err    error
}

func (e *CommandError) Error() string {
	if e.Result == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	detail := firstLine(e.Result.Stderr)
	if detail == "" {
		detail = firstLine(e.Result.Stdout)
	}
	if detail == "" {
		return fmt.Sprintf("%s: %v (exit %d)", e.Op, e.Err, e.Result.ExitCode)
	}
	return fmt.Sprintf("%s: %v (exit %d): %s", e.Op, e.Err, e.Result.ExitCode, detail)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// ValidSHA reports whether s looks like a full SHA-1 or SHA-256 object id.
func ValidSHA(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
