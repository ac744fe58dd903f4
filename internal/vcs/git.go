package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Git drives the git binary against one working tree.
type Git struct {
	root   string
	binary string
	log    *slog.Logger
}

func NewGit(root string, log *slog.Logger) *Git {
	return &Git{
		root:   root,
		binary: "git",
		log:    log,
	}
}

func (g *Git) StageAll(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, &CommandError{Op: "git add", Err: fmt.Errorf("%w: no paths to stage", ErrCommandFailed)}
	}
	args := append([]string{"add", "--"}, paths...)
	res, err := g.run(ctx, nil, args...)
	if err != nil {
		return res, &CommandError{Op: "git add", Result: res, Err: err}
	}
	return res, nil
}

func (g *Git) Commit(ctx context.Context, message string) (*Result, error) {
	// Exit 0 means the index matches HEAD; untracked files elsewhere in the
	// repository don't count.
	if res, err := g.run(ctx, nil, "diff", "--cached", "--quiet"); err == nil {
		return res, &CommandError{Op: "git commit", Result: res, Err: ErrNothingToCommit}
	}

	res, err := g.run(ctx, nil, "commit", "-m", message)
	if err == nil {
		return res, nil
	}
	output := res.Stdout + res.Stderr
	if strings.Contains(output, "nothing to commit") ||
		strings.Contains(output, "nothing added to commit") ||
		strings.Contains(output, "no changes added to commit") {
		return res, &CommandError{Op: "git commit", Result: res, Err: ErrNothingToCommit}
	}
	return res, &CommandError{Op: "git commit", Result: res, Err: err}
}

// ForcePush overwrites branch on remoteURL with the local HEAD.
func (g *Git) ForcePush(ctx context.Context, remoteURL, branch string) (*Result, error) {
	secrets := urlSecrets(remoteURL)
	res, err := g.run(ctx, secrets, "push", "--force", remoteURL, "HEAD:refs/heads/"+branch)
	if err == nil {
		return res, nil
	}
	return res, &CommandError{Op: "git push", Result: res, Err: classifyPush(res.Stderr, err)}
}

func (g *Git) ResolveHeadSHA(ctx context.Context) (string, error) {
	res, err := g.run(ctx, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", &CommandError{Op: "git rev-parse", Result: res, Err: err}
	}
	sha := strings.TrimSpace(res.Stdout)
	if sha == "" {
		return "", &CommandError{Op: "git rev-parse", Result: res, Err: ErrEmptyOutput}
	}
	if !ValidSHA(sha) {
		return "", &CommandError{Op: "git rev-parse", Result: res, Err: ErrInvalidSHA}
	}
	return sha, nil
}

// run executes git in the working tree. Any string in secrets is masked
// in the recorded args and captured output.
func (g *Git) run(ctx context.Context, secrets []string, args ...string) (*Result, error) {
	full := append([]string{"-C", g.root}, args...)
	cmd := exec.CommandContext(ctx, g.binary, full...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()

	res := &Result{
		Args:     redactArgs(full, secrets),
		ExitCode: 0,
		Stdout:   mask(stdout.String(), secrets),
		Stderr:   mask(stderr.String(), secrets),
		Duration: time.Since(start),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		g.log.Debug("git command failed", "args", res.Args, "exit_code", res.ExitCode, "stderr", firstLine(res.Stderr))
		return res, fmt.Errorf("%w: %s", ErrCommandFailed, mask(runErr.Error(), secrets))
	}

	g.log.Debug("git command finished", "args", res.Args, "duration", res.Duration)
	return res, nil
}

func classifyPush(stderr string, err error) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "could not read username"),
		strings.Contains(lower, "could not read password"),
		strings.Contains(lower, "invalid username or password"),
		strings.Contains(lower, "permission to"),
		strings.Contains(lower, "the requested url returned error: 403"),
		strings.Contains(lower, "the requested url returned error: 401"):
		return ErrAuthRejected
	case strings.Contains(lower, "[rejected]"),
		strings.Contains(lower, "[remote rejected]"),
		strings.Contains(lower, "failed to push some refs"):
		return ErrPushRejected
	}
	return err
}

func urlSecrets(raw string) []string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return nil
	}
	if pass, ok := u.User.Password(); ok && pass != "" {
		return []string{raw, pass}
	}
	return nil
}

func redactArgs(args, secrets []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if u, err := url.Parse(a); err == nil && u.User != nil {
			out[i] = u.Redacted()
			continue
		}
		out[i] = mask(a, secrets)
	}
	return out
}

func mask(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "xxxxx")
		}
	}
	return s
}
