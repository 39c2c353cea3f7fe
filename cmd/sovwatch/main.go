// sovwatch: sovereign credit rating monitor for Central America and the
// Dominican Republic.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/sovwatch/internal/config"
	"github.com/seenimoa/sovwatch/internal/loader"
	"github.com/seenimoa/sovwatch/internal/rating"
	"github.com/seenimoa/sovwatch/internal/region"
	"github.com/seenimoa/sovwatch/internal/report"
	"github.com/seenimoa/sovwatch/internal/source"
	"github.com/seenimoa/sovwatch/pkg/logger"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global state, populated by the root command before any subcommand runs.
var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sovwatch",
	Short: "Sovereign rating monitor for Central America",
	Long: `sovwatch loads the Fitch, Moody's and S&P sovereign rating histories of
Costa Rica, El Salvador, Guatemala, Honduras, Nicaragua, Panamá and the
Dominican Republic, maps rating letters and outlooks onto comparable ordinal
scales and serves per-country dashboards and a regional comparison.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; the variables may come from the environment.
		_ = godotenv.Load()

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log = logger.New(logger.Config{
			Level:  cfg.Logging.Level,
			Pretty: cfg.Logging.Format == "text",
		})
		logger.SetGlobalLogger(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(countryCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(scalesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(storesCmd)
}

// app bundles the components every data command needs.
type app struct {
	catalog *rating.Catalog
	store   source.Store
	loader  *loader.Loader
	agg     *region.Aggregator
	reports *report.Builder
}

// newApp wires store, loader, aggregator and report builder from cfg. An
// inconsistent catalog is a configuration error and stops the process.
func newApp(ctx context.Context) (*app, error) {
	catalog := rating.DefaultCatalog()
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	store, err := source.New(ctx, cfg.Source.Kind, source.Options{
		BaseURL:   cfg.Source.BaseURL,
		Dir:       cfg.Source.Dir,
		Timeout:   cfg.Source.Timeout(),
		RateLimit: cfg.Source.RateLimit,
		S3: source.S3Options{
			Bucket:          cfg.Source.S3.Bucket,
			Prefix:          cfg.Source.S3.Prefix,
			Region:          cfg.Source.S3.Region,
			Endpoint:        cfg.Source.S3.Endpoint,
			AccessKeyID:     cfg.Source.S3.AccessKeyID,
			SecretAccessKey: cfg.Source.S3.SecretAccessKey,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Source.Kind, err)
	}

	l, err := loader.New(store, loader.Config{
		BuildTag: cfg.Source.BuildTag,
		Format:   cfg.Source.Format,
		Timeout:  cfg.Source.Timeout(),
	}, log)
	if err != nil {
		return nil, err
	}

	agg := region.New(l, cfg.Aggregator.Concurrency, log)
	return &app{
		catalog: catalog,
		store:   store,
		loader:  l,
		agg:     agg,
		reports: report.NewBuilder(l, agg, catalog, cfg.Source.BuildTag, log),
	}, nil
}
