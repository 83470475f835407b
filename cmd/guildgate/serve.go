// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/guildgate/guildgate/internal/audit"
	"github.com/guildgate/guildgate/internal/config"
	"github.com/guildgate/guildgate/internal/gateway"
	"github.com/guildgate/guildgate/internal/logging"
	"github.com/guildgate/guildgate/internal/observability"
	"github.com/guildgate/guildgate/internal/registry"
	regpostgres "github.com/guildgate/guildgate/internal/registry/postgres"
	"github.com/guildgate/guildgate/internal/store"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the registration service",
		Long: `Start the registration service: the interaction endpoint the
platform bridge posts to, the audit dispatcher, and the
metrics/health server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	// Flag names mirror config keys so they overlay the file directly.
	cmd.Flags().String("gateway.listen_addr", "", "interaction endpoint listen address")
	cmd.Flags().String("service.metrics_addr", "", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("service.log_format", "", "log format (json or text)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")

	return cmd
}

// runServe wires and runs every component, then blocks until a
// shutdown signal arrives.
func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.SetDefault(cfg.Service.Name, version, cfg.Service.LogFormat)
	logger := slog.Default()

	logger.Info("starting registration service",
		"listen_addr", cfg.Gateway.ListenAddr,
		"metrics_addr", cfg.Service.MetricsAddr,
		"log_format", cfg.Service.LogFormat,
	)

	// Database
	st, err := store.New(ctx, cfg.Database.URL, store.PoolConfig{
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer st.Close()

	if err := st.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Info("database ready")

	repo := regpostgres.NewUserRepository(st.Pool(), cfg.Database.OpTimeout)

	// Observability server (optional). With metrics disabled the
	// counters still exist on a private registry, they just go
	// unexported.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	var metricsReg prometheus.Registerer
	if cfg.Service.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.Service.MetricsAddr, func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return st.Pool().Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()
		metricsReg = obsServer.Registry()

		obsErrCh, obsErr := obsServer.Start()
		if obsErr != nil {
			return fmt.Errorf("failed to start observability server: %w", obsErr)
		}
		go func() {
			if serveErr := <-obsErrCh; serveErr != nil {
				logger.Error("observability server error", "error", serveErr)
			}
		}()
		logger.Info("observability server started", "addr", obsServer.Addr())
	} else {
		reg := prometheus.NewRegistry()
		metrics = observability.NewMetrics(reg)
		metricsReg = reg
	}

	// Audit delivery: channel notifications via the platform bridge
	// when configured, structured logs otherwise.
	var notifier audit.Notifier
	if cfg.Audit.BridgeURL != "" {
		sender, senderErr := gateway.NewWebhookSender(cfg.Audit.BridgeURL)
		if senderErr != nil {
			return fmt.Errorf("failed to create bridge sender: %w", senderErr)
		}
		notifier, err = gateway.NewChannelNotifier(sender,
			cfg.Audit.RegistrationChannelID, cfg.Audit.PasswordChannelID)
		if err != nil {
			return fmt.Errorf("failed to create channel notifier: %w", err)
		}
		logger.Info("audit events will be posted to channels",
			"registration_channel", cfg.Audit.RegistrationChannelID,
			"password_channel", cfg.Audit.PasswordChannelID)
	} else {
		notifier = audit.NewSlogNotifier(logger)
		logger.Info("audit events will be logged only")
	}

	dispatcher := audit.NewDispatcher(notifier, logger, cfg.Audit.QueueSize, metricsReg)
	defer dispatcher.Close()

	// Workflows
	digester := registry.NewSHA256Digester()
	gate := registry.NewGate(cfg.Gate.AllowedRoleIDs)

	registration, err := registry.NewRegistrationService(repo, digester, gate, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("failed to create registration service: %w", err)
	}
	passwords, err := registry.NewPasswordService(repo, digester, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("failed to create password service: %w", err)
	}

	// Interaction endpoint
	handler, err := gateway.NewHandler(gateway.HandlerConfig{
		Registration: registration,
		Passwords:    passwords,
		Store:        repo,
		Metrics:      metrics,
		Logger:       logger,
		LauncherURL:  cfg.Gateway.LauncherURL,
		Rules:        cfg.Gateway.Rules,
	})
	if err != nil {
		return fmt.Errorf("failed to create interaction handler: %w", err)
	}

	gwServer, err := gateway.NewServer(cfg.Gateway.ListenAddr, handler, logger)
	if err != nil {
		return fmt.Errorf("failed to create gateway server: %w", err)
	}
	gwErrCh, err := gwServer.Start()
	if err != nil {
		return fmt.Errorf("failed to start gateway server: %w", err)
	}

	cmd.Println("Registration service started")
	logger.Info("registration service ready", "addr", gwServer.Addr())

	// Wait for shutdown signal or a fatal server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case serveErr := <-gwErrCh:
		if serveErr != nil {
			logger.Error("gateway server failed", "error", serveErr)
		}
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := gwServer.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop gateway server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop observability server", "error", err)
		}
	}

	logger.Info("registration service stopped")
	return nil
}
