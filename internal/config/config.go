package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	Secret     string     `yaml:"secret" env:"SHARED_SECRET" env-required:"true"`
	HTTPServer HTTPServer `yaml:"http_server"`
	GitHub     GitHub     `yaml:"github"`
	Workspace  Workspace  `yaml:"workspace"`
	License    License    `yaml:"license"`
	Callback   Callback   `yaml:"callback"`
	CORS       CORS       `yaml:"cors"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_SERVER_ADDRESS" env-default:"0.0.0.0:8000"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"120s"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"HTTP_MAX_BODY_BYTES" env-default:"33554432"`
}

// GitHub describes the account and repository the site is pushed to.
type GitHub struct {
	Username string `yaml:"username" env:"GITHUB_USERNAME" env-required:"true"`
	Repo     string `yaml:"repo" env:"GITHUB_REPO" env-required:"true"`
	Token    string `yaml:"token" env:"GITHUB_TOKEN"`
	Branch   string `yaml:"branch" env:"GITHUB_BRANCH" env-default:"main"`
	Host     string `yaml:"host" env:"GITHUB_HOST" env-default:"github.com"`
	// Remote replaces the derived push URL when set (mirrors, local bare repos).
	Remote string `yaml:"remote" env:"GITHUB_REMOTE"`
}

type Workspace struct {
	RepoRoot    string   `yaml:"repo_root" env:"REPO_ROOT" env-default:"."`
	Dir         string   `yaml:"dir" env:"APP_FOLDER" env-default:"app_files"`
	SourcePaths []string `yaml:"source_paths" env:"STAGE_SOURCE_PATHS"`
}

type License struct {
	Owner string `yaml:"owner" env:"LICENSE_OWNER"`
}

type Callback struct {
	Timeout time.Duration `yaml:"timeout" env:"CALLBACK_TIMEOUT" env-default:"5s"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// RepoURL is the public web address of the repository.
func (g GitHub) RepoURL() string {
	return fmt.Sprintf("https://%s/%s/%s", g.Host, g.Username, g.Repo)
}

// PagesURL is where GitHub Pages serves the pushed branch.
func (g GitHub) PagesURL() string {
	return fmt.Sprintf("https://%s.github.io/%s/", g.Username, g.Repo)
}

// PushURL is the remote the publisher force-pushes to. It carries the
// access token as userinfo and must never be logged as is.
func (g GitHub) PushURL() string {
	if g.Remote != "" {
		return g.Remote
	}
	u := url.URL{
		Scheme: "https",
		Host:   g.Host,
		Path:   fmt.Sprintf("/%s/%s.git", g.Username, g.Repo),
	}
	if g.Token != "" {
		u.User = url.UserPassword(g.Username, g.Token)
	}
	return u.String()
}

// Path is the scratch directory, resolved against the repository root.
func (w Workspace) Path() string {
	return filepath.Join(w.RepoRoot, w.Dir)
}

func (l License) OwnerOr(fallback string) string {
	if l.Owner != "" {
		return l.Owner
	}
	return fallback
}

func Load(configPath string) (*Config, error) {
	var config Config

	_, err := os.Stat(configPath)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(configPath, &config); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("read env config: %w", err)
		}
	default:
		return nil, fmt.Errorf("stat config %s: %w", configPath, err)
	}

	if !filepath.IsLocal(config.Workspace.Dir) {
		return nil, fmt.Errorf("workspace dir %q must be a relative path inside the repository", config.Workspace.Dir)
	}
	return &config, nil
}

func MustLoad() *Config {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("cannot load .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	config, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	return config
}
