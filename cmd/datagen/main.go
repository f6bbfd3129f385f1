package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vanshika/fintrace/internal/bootstrap"
	"github.com/vanshika/fintrace/internal/config"
	"github.com/vanshika/fintrace/internal/generator"
	"github.com/vanshika/fintrace/internal/logging"
	"github.com/vanshika/fintrace/internal/service"
)

type options struct {
	preset            string
	users             int
	transactions      int
	sharedChance      float64
	ipShareChance     float64
	deviceShareChance float64
	seed              int64
	outputDir         string
	stdout            bool
	load              bool
	configPath        string
	workers           int
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:           "fintrace-datagen",
		Short:         "Generate a synthetic user and transaction dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.preset, "preset", generator.PresetSmall, "dataset preset: small or bulk")
	flags.IntVar(&opts.users, "users", 0, "number of users (overrides preset)")
	flags.IntVar(&opts.transactions, "transactions", 0, "number of transactions (overrides preset)")
	flags.Float64Var(&opts.sharedChance, "shared-attr-chance", -1, "probability of reusing an email, phone or address")
	flags.Float64Var(&opts.ipShareChance, "ip-share-chance", -1, "probability of reusing an IP address")
	flags.Float64Var(&opts.deviceShareChance, "device-share-chance", -1, "probability of reusing a device id")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed (overrides preset)")
	flags.StringVar(&opts.outputDir, "output-dir", "data", "directory to write users.json and transactions.json")
	flags.BoolVar(&opts.stdout, "stdout", false, "write the combined dataset to stdout instead of files")
	flags.BoolVar(&opts.load, "load", false, "ingest the dataset into the configured graph instead of writing files")
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file (with --load)")
	flags.IntVar(&opts.workers, "workers", 4, "concurrent workers (with --load)")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fintrace-datagen: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts options) error {
	genCfg, err := generator.Preset(opts.preset)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("users") {
		genCfg.NumUsers = opts.users
	}
	if flags.Changed("transactions") {
		genCfg.NumTransactions = opts.transactions
	}
	if flags.Changed("shared-attr-chance") {
		genCfg.SharedAttributeChance = clampProbability(opts.sharedChance)
	}
	if flags.Changed("ip-share-chance") {
		genCfg.IPShareChance = clampProbability(opts.ipShareChance)
	}
	if flags.Changed("device-share-chance") {
		genCfg.DeviceShareChance = clampProbability(opts.deviceShareChance)
	}
	if flags.Changed("seed") {
		genCfg.Seed = opts.seed
	}

	ctx := cmd.Context()
	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	switch {
	case opts.load:
		return load(ctx, opts, gen.Config().LinkLimit, dataset)
	case opts.stdout:
		return generator.EncodeDataset(dataset, cmd.OutOrStdout())
	}

	if err := generator.WriteDataset(dataset, opts.outputDir); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d users and %d transactions into %s\n", len(dataset.Users), len(dataset.Transactions), opts.outputDir)
	return nil
}

func load(ctx context.Context, opts options, linkLimit int, dataset generator.Dataset) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Logging).With("component", "datagen")

	store, closeStore, err := bootstrap.OpenStore(ctx, logger, cfg.Graph)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	if linkLimit > cfg.Linkage.BulkFanoutLimit {
		linkLimit = cfg.Linkage.BulkFanoutLimit
	}
	svc := service.NewRelationshipService(store, bootstrap.ServiceOptions(cfg.Linkage, logger, nil))
	ingestor := service.NewBulkIngestor(svc, service.BulkOptions{Workers: opts.workers, LinkLimit: linkLimit})

	if _, err := ingestor.IngestUsers(ctx, dataset.Users); err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	stats, err := ingestor.IngestTransactions(ctx, dataset.Transactions)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	logger.Info("dataset loaded",
		"users", len(dataset.Users),
		"transactions", stats.Processed,
		"linked_edges", stats.LinkedEdges,
	)
	return nil
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
