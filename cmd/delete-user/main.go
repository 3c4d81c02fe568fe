package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keepjoy/account-service/internal/auth0"
	"github.com/keepjoy/account-service/internal/config"
	"github.com/keepjoy/account-service/internal/deletion"
	"github.com/keepjoy/account-service/internal/identity"
	"github.com/keepjoy/account-service/internal/server"
	"github.com/keepjoy/account-service/internal/supabase"
)

// jwtLeeway tolerates clock skew between this host and the token issuer.
const jwtLeeway = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	logger.Info("starting account deletion service", "config", cfg)

	verifier, deleter, err := buildIdentity(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialise identity store", "error", err, "backend", cfg.Backend)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := deletion.NewService(verifier, deleter,
		deletion.WithLogger(logger),
		deletion.WithMetrics(deletion.NewMetrics(reg)),
	)
	if err != nil {
		logger.Error("failed to initialise deletion service", "error", err)
		os.Exit(1)
	}

	handler := server.NewRouter(ctx, server.RouterConfig{
		Logger:    logger,
		RoutePath: cfg.RoutePath,
		Deletion:  deletion.NewHandler(svc, logger),
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Verification and deletion each get the full identity timeout.
		WriteTimeout: 2*cfg.IdentityTimeout + 5*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.ListenAddr, "route", cfg.RoutePath)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func buildIdentity(ctx context.Context, cfg config.Config) (identity.Verifier, identity.Deleter, error) {
	httpClient := &http.Client{Timeout: cfg.IdentityTimeout}

	switch cfg.Backend {
	case config.BackendSupabase:
		client, err := supabase.NewClient(supabase.Config{
			URL:            cfg.Supabase.URL,
			AnonKey:        cfg.Supabase.AnonKey,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
			SoftDelete:     cfg.Supabase.SoftDelete,
			HTTPClient:     httpClient,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Supabase.JWTSecret == "" {
			return client, client, nil
		}
		local, err := supabase.NewJWTVerifier(cfg.Supabase.JWTSecret, jwtLeeway)
		if err != nil {
			return nil, nil, err
		}
		return local, client, nil

	case config.BackendAuth0:
		discoverCtx, cancel := context.WithTimeout(ctx, cfg.IdentityTimeout)
		defer cancel()
		verifier, err := auth0.NewVerifier(discoverCtx, cfg.Auth0.Domain, cfg.Auth0.Audience, auth0.WithHTTPClient(httpClient))
		if err != nil {
			return nil, nil, err
		}
		mgmt, err := auth0.NewManagementClient(auth0.ManagementConfig{
			Domain:       cfg.Auth0.Domain,
			ClientID:     cfg.Auth0.ClientID,
			ClientSecret: cfg.Auth0.ClientSecret,
			HTTPClient:   httpClient,
		})
		if err != nil {
			return nil, nil, err
		}
		return verifier, mgmt, nil

	case config.BackendStatic:
		data, err := os.ReadFile(cfg.IdentityDataPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read identity data: %w", err)
		}
		dir, err := identity.NewStaticDirectory(data)
		if err != nil {
			return nil, nil, err
		}
		return dir, dir, nil
	}
	return nil, nil, fmt.Errorf("unknown identity backend %q", cfg.Backend)
}
