package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pagesbot/internal/config"
	"pagesbot/internal/gateway"
	"pagesbot/internal/logger"
	"pagesbot/internal/notify"
	"pagesbot/internal/publish"
	"pagesbot/internal/site"
	"pagesbot/internal/vcs"
)

func main() {
	cfg := config.MustLoad()

	log := logger.SetupLogger(cfg.Env)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"env", cfg.Env,
		"addr", cfg.HTTPServer.Address,
		"repo_root", cfg.Workspace.RepoRoot,
		"workspace", cfg.Workspace.Path(),
		"repo_url", cfg.GitHub.RepoURL(),
		"branch", cfg.GitHub.Branch,
		"token_set", cfg.GitHub.Token != "",
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder := site.NewBuilder(
		cfg.Workspace.Path(),
		cfg.GitHub.PagesURL(),
		cfg.License.OwnerOr(cfg.GitHub.Username),
		log.With("component", "site"),
	)
	stagePaths := append([]string{cfg.Workspace.Dir}, cfg.Workspace.SourcePaths...)
	publisher := publish.NewPublisher(
		vcs.NewGit(cfg.Workspace.RepoRoot, log.With("component", "git")),
		stagePaths,
		cfg.GitHub.PushURL(),
		cfg.GitHub.Branch,
		log.With("component", "publish"),
	)
	notifier := notify.NewNotifier(cfg.Callback.Timeout, log.With("component", "notify"))

	gw := gateway.NewGateway(cfg, builder, publisher, notifier, log.With("component", "gateway"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Run-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", gw.Health)
	r.Post("/api-endpoint", gw.PublishSite)

	srv := &http.Server{
		Addr:              cfg.HTTPServer.Address,
		Handler:           r,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:       cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		slog.Info("starting publisher http server", "addr", cfg.HTTPServer.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("publisher server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down publisher server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("publisher shutdown error", "err", err)
	}
}
