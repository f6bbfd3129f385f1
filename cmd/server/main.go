package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vanshika/fintrace/internal/bootstrap"
	"github.com/vanshika/fintrace/internal/config"
	"github.com/vanshika/fintrace/internal/logging"
	"github.com/vanshika/fintrace/internal/metrics"
	"github.com/vanshika/fintrace/internal/server"
	"github.com/vanshika/fintrace/internal/service"
)

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:           "fintrace-server",
		Short:         "Serve the user and transaction relationship API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (default ./fintrace.yaml)")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fintrace-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging)
	if !strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore, err := bootstrap.OpenStore(ctx, logger, cfg.Graph)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	deps := server.RouterDependencies{
		Health:           store,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: cfg.HTTP.AllowCredentials,
	}

	var rec *metrics.Recorder
	if cfg.HTTP.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec = metrics.New(reg)
		deps.Metrics = reg
	}

	svc := service.NewRelationshipService(store, bootstrap.ServiceOptions(cfg.Linkage, logger.With("component", "service"), rec))
	deps.API = server.NewAPIHandlers(logger, svc)

	srv := server.New(logger, cfg.HTTP, server.NewRouter(logger, deps))
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
