package gateway

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"pagesbot/internal/config"
	"pagesbot/internal/task"
)

type Builder interface {
	Build(req *task.Request) error
}

type Publisher interface {
	Publish(ctx context.Context, taskID string, round int) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, target string, payload any) error
}

// Gateway serves the publish endpoint. Builds and publishes share one
// workspace and one working tree, so at most one runs at a time.
type Gateway struct {
	secret       string
	repoURL      string
	pagesURL     string
	maxBodyBytes int64

	builder   Builder
	publisher Publisher
	notifier  Notifier

	writer *semaphore.Weighted
	log    *slog.Logger
}

func NewGateway(cfg *config.Config, builder Builder, publisher Publisher, notifier Notifier, log *slog.Logger) *Gateway {
	return &Gateway{
		secret:       cfg.Secret,
		repoURL:      cfg.GitHub.RepoURL(),
		pagesURL:     cfg.GitHub.PagesURL(),
		maxBodyBytes: cfg.HTTPServer.MaxBodyBytes,
		builder:      builder,
		publisher:    publisher,
		notifier:     notifier,
		writer:       semaphore.NewWeighted(1),
		log:          log,
	}
}
