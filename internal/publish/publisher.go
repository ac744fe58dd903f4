package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pagesbot/internal/vcs"
)

var ErrPublish = errors.New("publish failed")

// Publisher commits the workspace and force-pushes it to one remote branch.
type Publisher struct {
	client     vcs.Client
	stagePaths []string
	remoteURL  string
	branch     string
	now        func() time.Time
	log        *slog.Logger
}

// NewPublisher stages stagePaths (relative to the repository root) on
// every run. remoteURL may carry credentials and is never logged.
func NewPublisher(client vcs.Client, stagePaths []string, remoteURL, branch string, log *slog.Logger) *Publisher {
	return &Publisher{
		client:     client,
		stagePaths: stagePaths,
		remoteURL:  remoteURL,
		branch:     branch,
		now:        time.Now,
		log:        log,
	}
}

func CommitMessage(round int, at time.Time) string {
	return fmt.Sprintf("Phase %d app update - %s", round, at.Format(time.RFC3339Nano))
}

// Publish runs stage, commit, push and resolve once each and returns the
// commit id of HEAD. "Nothing to commit" is not a failure: the existing
// HEAD is pushed and reported.
func (p *Publisher) Publish(ctx context.Context, taskID string, round int) (string, error) {
	log := p.log.With("task", taskID, "round", round)

	if _, err := p.client.StageAll(ctx, p.stagePaths); err != nil {
		log.Error("failed to stage workspace", "err", err)
		return "", fmt.Errorf("%w: stage: %w", ErrPublish, err)
	}

	message := CommitMessage(round, p.now())
	if _, err := p.client.Commit(ctx, message); err != nil {
		if !errors.Is(err, vcs.ErrNothingToCommit) {
			log.Error("failed to commit", "err", err)
			return "", fmt.Errorf("%w: commit: %w", ErrPublish, err)
		}
		log.Info("nothing to commit, pushing current head")
	}

	if _, err := p.client.ForcePush(ctx, p.remoteURL, p.branch); err != nil {
		switch {
		case errors.Is(err, vcs.ErrAuthRejected):
			log.Error("remote rejected credentials", "branch", p.branch, "err", err)
		case errors.Is(err, vcs.ErrPushRejected):
			log.Error("remote rejected push", "branch", p.branch, "err", err)
		default:
			log.Error("failed to push", "branch", p.branch, "err", err)
		}
		return "", fmt.Errorf("%w: push: %w", ErrPublish, err)
	}

	sha, err := p.client.ResolveHeadSHA(ctx)
	if err != nil {
		log.Error("failed to resolve head commit", "err", err)
		return "", fmt.Errorf("%w: resolve head: %w", ErrPublish, err)
	}
	if !vcs.ValidSHA(sha) {
		return "", fmt.Errorf("%w: resolve head: %w: %q", ErrPublish, vcs.ErrInvalidSHA, sha)
	}

	log.Info("published", "branch", p.branch, "commit_sha", sha)
	return sha, nil
}
