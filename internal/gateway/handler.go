package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"pagesbot/internal/task"
)

const statusReceived = "received"

var (
	errBuild   = errors.New("build")
	errPublish = errors.New("publish")
)

func (g *Gateway) Health(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, HealthResponse{Status: "ok"})
}

// PublishSite validates the request, rebuilds the workspace, publishes it
// and relays the result to the evaluation URL when one is given.
func (g *Gateway) PublishSite(w http.ResponseWriter, r *http.Request) {
	runID := uuid.NewString()
	log := g.log.With("run_id", runID, "request_id", middleware.GetReqID(r.Context()))
	w.Header().Set("X-Run-ID", runID)

	body := r.Body
	if body != nil && g.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, body, g.maxBodyBytes)
	}

	req, err := task.Decode(body, g.secret)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		log.Warn("rejecting oversized request", "limit", tooLarge.Limit)
		respondError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	case errors.Is(err, task.ErrBadRequest):
		log.Warn("rejecting request without JSON", "err", err)
		respondError(w, r, http.StatusBadRequest, "No JSON received")
		return
	case errors.Is(err, task.ErrForbidden):
		log.Warn("rejecting request with invalid secret")
		respondError(w, r, http.StatusForbidden, "Invalid secret")
		return
	case err != nil:
		log.Error("failed to decode request", "err", err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	log = log.With("task", req.Task, "round", req.Round)
	log.Info("publish requested", "attachments", len(req.Attachments), "nonce", req.Nonce)

	if err := g.writer.Acquire(r.Context(), 1); err != nil {
		log.Warn("request cancelled while waiting for workspace", "err", err)
		respondError(w, r, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	// Past this point a client disconnect must not abort a push midway.
	ctx := context.WithoutCancel(r.Context())
	sha, err := g.runLocked(ctx, req)

	switch {
	case errors.Is(err, errBuild):
		log.Error("failed to build workspace", "err", err)
		respondError(w, r, http.StatusInternalServerError, "Failed to build workspace")
		return
	case errors.Is(err, errPublish):
		log.Error("failed to publish", "err", err)
		respondError(w, r, http.StatusInternalServerError, "Failed to publish")
		return
	}

	record := EvaluationRecord{
		Email:     req.Email,
		Task:      req.Task,
		Round:     req.Round,
		Nonce:     req.Nonce,
		RepoURL:   g.repoURL,
		CommitSHA: sha,
		PagesURL:  g.pagesURL,
	}
	g.relay(ctx, log, req.EvaluationURL, record)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, PublishResponse{
		Status:   statusReceived,
		RepoURL:  g.repoURL,
		PagesURL: g.pagesURL,
	})
}

// runLocked releases the writer lock taken by the caller, even if the
// pipeline panics.
func (g *Gateway) runLocked(ctx context.Context, req *task.Request) (string, error) {
	defer g.writer.Release(1)
	return g.buildAndPublish(ctx, req)
}

// buildAndPublish must be called with the writer lock held.
func (g *Gateway) buildAndPublish(ctx context.Context, req *task.Request) (string, error) {
	if err := g.builder.Build(req); err != nil {
		return "", fmt.Errorf("%w: %w", errBuild, err)
	}
	sha, err := g.publisher.Publish(ctx, req.Task, req.Round)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errPublish, err)
	}
	return sha, nil
}

func (g *Gateway) relay(ctx context.Context, log *slog.Logger, target string, record EvaluationRecord) {
	if target == "" {
		return
	}
	if err := g.notifier.Notify(ctx, target, record); err != nil {
		log.Warn("evaluation callback failed", "url", target, "err", err)
		return
	}
	log.Info("evaluation callback delivered", "url", target)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
