// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package main

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/embergate/embergate/internal/auth"
	authpg "github.com/embergate/embergate/internal/auth/postgres"
	"github.com/embergate/embergate/internal/character"
	charpg "github.com/embergate/embergate/internal/character/postgres"
	"github.com/embergate/embergate/internal/command"
	"github.com/embergate/embergate/internal/command/handlers"
	"github.com/embergate/embergate/internal/config"
	"github.com/embergate/embergate/internal/gateway"
	"github.com/embergate/embergate/internal/httpapi"
	"github.com/embergate/embergate/internal/logging"
	"github.com/embergate/embergate/internal/mail"
	"github.com/embergate/embergate/internal/observability"
	"github.com/embergate/embergate/internal/ratelimit"
	"github.com/embergate/embergate/internal/session"
	"github.com/embergate/embergate/internal/status"
	"github.com/embergate/embergate/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Embergate server",
		Long: `Start the HTTP API, the realtime gateway, and the observability
endpoints, all backed by one PostgreSQL pool.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, autoMigrate)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "apply pending migrations at startup")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, autoMigrate bool) error {
	logging.SetDefault("embergate", version, cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if autoMigrate {
		if err := migrateUp(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL, store.PoolOptions{})
	if err != nil {
		return err
	}
	defer pool.Close()

	// Storage and core services
	accountRepo := authpg.NewAccountRepository(pool)
	characterRepo := charpg.NewCharacterRepository(pool)
	transactor := authpg.NewTransactor(pool)
	hasher := auth.NewArgon2idHasher()

	mailer, err := buildMailer(cfg)
	if err != nil {
		return err
	}

	accountSvc := auth.NewAccountService(accountRepo, transactor, hasher, mailer)
	loginSvc := auth.NewLoginService(accountRepo, transactor, hasher)
	characterSvc := character.NewService(characterRepo)

	tokens, err := buildTokenIssuer(cfg.TokenSigningKey)
	if err != nil {
		return err
	}

	registry := session.NewRegistry()
	reporter := status.NewReporter(registry, accountRepo)

	// Observability side server
	obs := observability.NewServer(cfg.ObservabilityAddr, func() bool {
		return pool.Ping(ctx) == nil
	})
	obsErrCh, err := obs.Start()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obs.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}()

	// Command dispatch for gateway sessions
	command.RegisterMetrics(obs.Registry())
	commands := command.NewRegistry()
	handlers.RegisterAll(commands)

	cmdLimiter := ratelimit.NewWithRegistry(ratelimit.Config{}, obs.Registry())
	defer cmdLimiter.Close()

	dispatcher, err := command.NewDispatcher(commands, &command.Services{
		Sessions:   registry,
		Characters: characterSvc,
		Status:     reporter,
	}, command.WithRateLimiter(cmdLimiter))
	if err != nil {
		return err
	}

	// Realtime gateway. Authenticate shares the HTTP login rate policy.
	authLimiter := ratelimit.New(ratelimit.Config{BurstCapacity: 5, SustainedRate: 5.0 / 60})
	defer authLimiter.Close()

	gw := gateway.NewServer(cfg.GatewayAddr, registry, loginSvc, characterSvc, dispatcher, reporter,
		gateway.WithAuthLimiter(authLimiter))
	gwErrCh := make(chan error, 1)
	go func() {
		gwErrCh <- gw.Run(ctx)
	}()

	// HTTP API
	limiters := httpapi.NewLimiters()
	defer limiters.Close()

	apiHandler := httpapi.NewHandler(accountSvc, loginSvc, tokens, accountRepo, characterSvc, reporter, pool)
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(apiHandler, limiters),
		ReadHeaderTimeout: 10 * time.Second,
	}

	httpErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			httpErrCh <- err
		}
	}()

	slog.Info("embergate started",
		"http_addr", cfg.HTTPAddr,
		"gateway_addr", cfg.GatewayAddr,
		"observability_addr", cfg.ObservabilityAddr,
	)

	var runErr error
	gatewayDown := false
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-httpErrCh:
		runErr = oops.Code("HTTP_SERVER_FAILED").Wrap(err)
	case err := <-gwErrCh:
		gatewayDown = true
		if err != nil {
			runErr = oops.Code("GATEWAY_FAILED").Wrap(err)
		}
	case err := <-obsErrCh:
		if err != nil {
			runErr = oops.Code("OBSERVABILITY_FAILED").Wrap(err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("error shutting down http server", "error", err)
	}

	// The gateway drains its connections once ctx is cancelled.
	if !gatewayDown {
		if err := <-gwErrCh; err != nil && runErr == nil {
			runErr = oops.Code("GATEWAY_FAILED").Wrap(err)
		}
	}

	slog.Info("embergate stopped")
	return runErr
}

// buildMailer selects SMTP delivery when configured, console logging
// otherwise.
func buildMailer(cfg *config.Config) (mail.Sender, error) {
	if cfg.SMTP.Host == "" {
		slog.Warn("smtp not configured, verification codes will be logged")
		return mail.NewConsoleSender(), nil
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

// buildTokenIssuer decodes the configured signing key, or generates an
// ephemeral one when unset.
func buildTokenIssuer(keyHex string) (*auth.TokenIssuer, error) {
	var key []byte
	if keyHex == "" {
		slog.Warn("token signing key not configured, generating ephemeral key; tokens will not survive restart")
		generated, err := auth.GenerateSigningKey()
		if err != nil {
			return nil, err
		}
		key = generated
	} else {
		decoded, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID_SIGNING_KEY").Wrap(err)
		}
		key = decoded
	}
	return auth.NewTokenIssuer(key)
}
