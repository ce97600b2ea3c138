package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"planttracker-api/internal/config"
	"planttracker-api/internal/geo"
	"planttracker-api/internal/logging"
	"planttracker-api/internal/models"
	"planttracker-api/internal/repository"
	"planttracker-api/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	speciesPath    string
	collectionPath string
	configDir      string
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "importer",
		Short: "Load a species CSV and a collection CSV into the store",
		Long: `importer replaces the stored dataset with the contents of a species
CSV and a collection CSV, using the same parsing rules as POST /api/upload.

The store is selected by DB_DRIVER and DB_SOURCE from app.env in the config
directory or from the environment.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.speciesPath, "species", "", "Path to the species CSV file")
	cmd.Flags().StringVar(&opts.collectionPath, "collections", "", "Path to the collection CSV file")
	cmd.Flags().StringVarP(&opts.configDir, "config", "c", "configs", "Directory containing app.env")
	_ = cmd.MarkFlagRequired("species")
	_ = cmd.MarkFlagRequired("collections")

	return cmd
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.LoadConfig(opts.configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	species, err := os.Open(opts.speciesPath)
	if err != nil {
		return fmt.Errorf("open species file: %w", err)
	}
	defer species.Close()

	collections, err := os.Open(opts.collectionPath)
	if err != nil {
		return fmt.Errorf("open collection file: %w", err)
	}
	defer collections.Close()

	store, err := repository.Open(ctx, cfg.DBDriver, cfg.DBSource)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Info().Str("driver", cfg.DBDriver).Str("species", opts.speciesPath).Str("collections", opts.collectionPath).Msg("starting import")

	ctx = log.Logger.WithContext(ctx)
	summary, err := service.NewUploadService(store, nil).Ingest(ctx, species, collections)
	if err != nil {
		return err
	}

	if err := verifyImport(ctx, store, summary); err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %d collections and %d species (%d rows skipped, %d without position)\n",
		summary.Collections, summary.Species, summary.Skipped, summary.WithoutPosition)
	return nil
}

// verifyImport checks that every positioned collection is reachable through
// a whole-world marker query.
func verifyImport(ctx context.Context, store repository.Store, summary models.IngestSummary) error {
	world := geo.Bounds{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}
	_, total, err := store.ListMarkers(ctx, world, 1, 0)
	if err != nil {
		return fmt.Errorf("failed to count markers: %w", err)
	}

	expected := summary.Collections - summary.WithoutPosition
	if total != expected {
		return fmt.Errorf("marker count mismatch: expected %d, got %d", expected, total)
	}
	return nil
}
