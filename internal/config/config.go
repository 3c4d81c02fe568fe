// Package config reads process-wide settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects the identity store implementation.
type Backend string

const (
	BackendSupabase Backend = "supabase"
	BackendAuth0    Backend = "auth0"
	BackendStatic   Backend = "static"
)

// Supabase holds the project URL and keys. ServiceRoleKey is elevated and server-only.
type Supabase struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
	SoftDelete     bool
}

// Auth0 holds the tenant, API audience and machine-to-machine application.
type Auth0 struct {
	Domain       string
	Audience     string
	ClientID     string
	ClientSecret string
}

type Config struct {
	ListenAddr       string
	RoutePath        string
	Backend          Backend
	Supabase         Supabase
	Auth0            Auth0
	IdentityDataPath string
	IdentityTimeout  time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int
	LogLevel         slog.Level
}

// LoadDotEnv seeds the environment from the given files (".env" when none are given).
// Missing files are ignored and existing variables are never overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }
	orDefault := func(key, fallback string) string {
		if v := get(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		ListenAddr: orDefault("LISTEN_ADDR", ":8080"),
		RoutePath:  orDefault("ROUTE_PATH", "/functions/v1/delete-user"),
		Backend:    Backend(strings.ToLower(orDefault("IDENTITY_BACKEND", string(BackendSupabase)))),
		Supabase: Supabase{
			URL:            get("SUPABASE_URL"),
			AnonKey:        get("SUPABASE_ANON_KEY"),
			ServiceRoleKey: get("SUPABASE_SERVICE_ROLE_KEY"),
			JWTSecret:      get("SUPABASE_JWT_SECRET"),
		},
		Auth0: Auth0{
			Domain:       get("AUTH0_DOMAIN"),
			Audience:     get("AUTH0_AUDIENCE"),
			ClientID:     get("AUTH0_M2M_CLIENT_ID"),
			ClientSecret: get("AUTH0_M2M_CLIENT_SECRET"),
		},
		IdentityDataPath: orDefault("IDENTITY_DATA_PATH", filepath.Join("infra", "sample-users.json")),
	}

	var err error
	if cfg.Supabase.SoftDelete, err = strconv.ParseBool(orDefault("SUPABASE_SOFT_DELETE", "false")); err != nil {
		return cfg, fmt.Errorf("config: SUPABASE_SOFT_DELETE: %w", err)
	}
	if cfg.IdentityTimeout, err = time.ParseDuration(orDefault("IDENTITY_TIMEOUT", "10s")); err != nil {
		return cfg, fmt.Errorf("config: IDENTITY_TIMEOUT: %w", err)
	}
	if cfg.IdentityTimeout <= 0 {
		return cfg, errors.New("config: IDENTITY_TIMEOUT must be positive")
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(orDefault("RATE_LIMIT_RPS", "1"), 64); err != nil {
		return cfg, fmt.Errorf("config: RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(orDefault("RATE_LIMIT_BURST", "5")); err != nil {
		return cfg, fmt.Errorf("config: RATE_LIMIT_BURST: %w", err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(orDefault("LOG_LEVEL", "info"))); err != nil {
		return cfg, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if !strings.HasPrefix(cfg.RoutePath, "/") {
		return cfg, fmt.Errorf("config: ROUTE_PATH %q must start with /", cfg.RoutePath)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendSupabase:
		if c.Supabase.URL == "" {
			return errors.New("SUPABASE_URL is required")
		}
		if c.Supabase.AnonKey == "" || c.Supabase.ServiceRoleKey == "" {
			return errors.New("SUPABASE_ANON_KEY and SUPABASE_SERVICE_ROLE_KEY are required")
		}
	case BackendAuth0:
		if c.Auth0.Domain == "" || c.Auth0.Audience == "" {
			return errors.New("AUTH0_DOMAIN and AUTH0_AUDIENCE are required")
		}
		if c.Auth0.ClientID == "" || c.Auth0.ClientSecret == "" {
			return errors.New("AUTH0_M2M_CLIENT_ID and AUTH0_M2M_CLIENT_SECRET are required")
		}
	case BackendStatic:
		if c.IdentityDataPath == "" {
			return errors.New("IDENTITY_DATA_PATH is required")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_BACKEND %q", c.Backend)
	}
	return nil
}

// LogValue omits every credential.
func (c Config) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("listen", c.ListenAddr),
		slog.String("route", c.RoutePath),
		slog.String("backend", string(c.Backend)),
		slog.Duration("identity_timeout", c.IdentityTimeout),
		slog.Float64("rate_limit_rps", c.RateLimitRPS),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
	}
	switch c.Backend {
	case BackendSupabase:
		attrs = append(attrs,
			slog.String("supabase_url", c.Supabase.URL),
			slog.Bool("local_jwt", c.Supabase.JWTSecret != ""),
			slog.Bool("soft_delete", c.Supabase.SoftDelete),
		)
	case BackendAuth0:
		attrs = append(attrs,
			slog.String("auth0_domain", c.Auth0.Domain),
			slog.String("auth0_audience", c.Auth0.Audience),
		)
	case BackendStatic:
		attrs = append(attrs, slog.String("identity_data_path", c.IdentityDataPath))
	}
	return slog.GroupValue(attrs...)
}
