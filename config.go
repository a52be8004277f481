package pubqueue

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eringen/pubqueue/logger"
)

// SiteConfig holds all configuration for a pubqueue site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Content Hub")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // Content SQLite path (default "data/content.db")

	QueueBackend string `yaml:"queue_backend"` // "sqlite" (default), "badger" or "memory"
	QueuePath    string `yaml:"queue_path"`    // default "data/queue.db", or "data/queue" for badger
	QueueKey     string `yaml:"queue_key"`     // storage key of the queue snapshot

	AdminPassword string `yaml:"admin_password"` // Required: admin login password
	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	EntryCacheTTL time.Duration `yaml:"entry_cache_ttl"` // Published entry cache TTL (default 5min)

	Log logger.Config `yaml:"log"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Content Hub"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.QueueBackend == "" {
		c.QueueBackend = "sqlite"
	}
	if c.QueuePath == "" {
		c.QueuePath = "data/queue.db"
		if c.QueueBackend == "badger" {
			c.QueuePath = "data/queue"
		}
	}
	if c.EntryCacheTTL == 0 {
		c.EntryCacheTTL = 5 * time.Minute
	}
}

func (c SiteConfig) validate() error {
	if c.AdminPassword == "" {
		return errors.New("pubqueue: AdminPassword is required")
	}
	if c.SessionSecret == "" {
		return errors.New("pubqueue: SessionSecret is required")
	}
	return nil
}

// LoadConfig reads an optional YAML file, loads .env files and then applies
// PUBQUEUE_* environment overrides. Defaults are filled in by New.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("pubqueue: read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("pubqueue: parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("pubqueue: load .env: %w", err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *SiteConfig) {
	str := map[string]*string{
		"PUBQUEUE_SITE_NAME":        &cfg.Name,
		"PUBQUEUE_SITE_URL":         &cfg.URL,
		"PUBQUEUE_SITE_DESCRIPTION": &cfg.Description,
		"PUBQUEUE_SITE_AUTHOR":      &cfg.Author,
		"PUBQUEUE_ADDR":             &cfg.Addr,
		"PUBQUEUE_DATABASE_PATH":    &cfg.DatabasePath,
		"PUBQUEUE_QUEUE_BACKEND":    &cfg.QueueBackend,
		"PUBQUEUE_QUEUE_PATH":       &cfg.QueuePath,
		"PUBQUEUE_QUEUE_KEY":        &cfg.QueueKey,
		"PUBQUEUE_ADMIN_PASSWORD":   &cfg.AdminPassword,
		"PUBQUEUE_SESSION_SECRET":   &cfg.SessionSecret,
		"PUBQUEUE_LOG_LEVEL":        &cfg.Log.Level,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("PUBQUEUE_COOKIE_SECURE"); v != "" {
		cfg.CookieSecure, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("PUBQUEUE_ENTRY_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.EntryCacheTTL = d
		}
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger replaces the logger built from SiteConfig.Log.
func WithLogger(l logger.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}
