package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/fintrace/internal/bootstrap"
	"github.com/vanshika/fintrace/internal/config"
	"github.com/vanshika/fintrace/internal/generator"
	"github.com/vanshika/fintrace/internal/logging"
	"github.com/vanshika/fintrace/internal/service"
)

var errMissingDataset = errors.New("dataset not found")

type options struct {
	configPath   string
	datasetDir   string
	usersPath    string
	transactions string
	workers      int
	rate         float64
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:           "fintrace-ingest",
		Short:         "Bulk load users.json and transactions.json into the graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.datasetDir, "dataset-dir", "./seed-data", "directory containing users.json and transactions.json")
	flags.StringVar(&opts.usersPath, "users", "", "path to users.json (overrides dataset-dir)")
	flags.StringVar(&opts.transactions, "transactions", "", "path to transactions.json (overrides dataset-dir)")
	flags.IntVar(&opts.workers, "workers", 4, "number of concurrent workers")
	flags.Float64Var(&opts.rate, "rate", 0, "max store writes per second across workers (0 = unlimited)")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fintrace-ingest: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Logging).With("component", "ingest")

	userFile, txFile, err := resolveDatasetPaths(opts.datasetDir, opts.usersPath, opts.transactions)
	if err != nil {
		return err
	}
	dataset, err := generator.ReadDataset(userFile, txFile)
	if err != nil {
		return err
	}
	if len(dataset.Users) == 0 && len(dataset.Transactions) == 0 {
		return fmt.Errorf("%w: %s and %s are empty", errMissingDataset, userFile, txFile)
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

	svc := service.NewRelationshipService(store, bootstrap.ServiceOptions(cfg.Linkage, logger, nil))
	ingestor := service.NewBulkIngestor(svc, service.BulkOptions{
		Workers:       opts.workers,
		RatePerSecond: opts.rate,
		LinkLimit:     cfg.Linkage.BulkFanoutLimit,
	})

	start := time.Now()
	logger.Info("ingesting users", "count", len(dataset.Users), "workers", opts.workers)
	userStats, err := ingestor.IngestUsers(ctx, dataset.Users)
	if err != nil {
		return fmt.Errorf("user ingestion failed: %w", err)
	}

	logger.Info("ingesting transactions", "count", len(dataset.Transactions))
	txStats, err := ingestor.IngestTransactions(ctx, dataset.Transactions)
	if err != nil {
		return fmt.Errorf("transaction ingestion failed: %w", err)
	}

	logger.Info("ingestion complete",
		"duration", time.Since(start).String(),
		"users", userStats.Processed,
		"transactions", txStats.Processed,
		"linked_edges", txStats.LinkedEdges,
	)
	return nil
}

func resolveDatasetPaths(baseDir, usersPath, transactionsPath string) (string, string, error) {
	resolve := func(explicitPath, fallbackFile string) (string, error) {
		if explicitPath != "" {
			if _, err := os.Stat(explicitPath); err != nil {
				return "", fmt.Errorf("stat %s: %w", explicitPath, err)
			}
			return explicitPath, nil
		}
		path := filepath.Join(baseDir, fallbackFile)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", errMissingDataset, path)
		}
		return path, nil
	}

	usersFile, err := resolve(usersPath, generator.UsersFile)
	if err != nil {
		return "", "", err
	}
	txsFile, err := resolve(transactionsPath, generator.TransactionsFile)
	if err != nil {
		return "", "", err
	}
	return usersFile, txsFile, nil
}
