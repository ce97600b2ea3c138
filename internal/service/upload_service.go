package service

import (
	"context"
	"fmt"
	"io"

	"planttracker-api/internal/ingest"
	"planttracker-api/internal/metrics"
	"planttracker-api/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DatasetRepository is the write side of the collection store
type DatasetRepository interface {
	ReplaceAll(ctx context.Context, species []models.Species, collections []models.Collection) error
}

// UploadService turns an uploaded species/collection CSV pair into a new dataset
type UploadService struct {
	repo  DatasetRepository
	cache Cache
}

// NewUploadService creates a new upload service. cache may be nil.
func NewUploadService(repo DatasetRepository, cache Cache) *UploadService {
	return &UploadService{repo: repo, cache: cache}
}

// Ingest parses both files and replaces the stored dataset with their contents.
// Nothing is written unless both files parse.
func (s *UploadService) Ingest(ctx context.Context, speciesCSV, collectionCSV io.Reader) (models.IngestSummary, error) {
	if speciesCSV == nil || collectionCSV == nil {
		return models.IngestSummary{}, fmt.Errorf("%w: both species and collection files are required", models.ErrInvalidUpload)
	}

	var (
		species     []models.Species
		collections []models.Collection
		skipped     int
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		species, err = ingest.ParseSpecies(speciesCSV)
		if err != nil {
			return fmt.Errorf("species_csv: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		collections, skipped, err = ingest.ParseCollections(collectionCSV)
		if err != nil {
			return fmt.Errorf("collection_csv: %w", err)
		}
		if len(collections) == 0 {
			return fmt.Errorf("collection_csv: %w: file contains no collection records", models.ErrInvalidUpload)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return models.IngestSummary{}, err
	}

	if err := s.repo.ReplaceAll(ctx, species, collections); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return models.IngestSummary{}, fmt.Errorf("service: failed to replace dataset: %w", err)
	}

	summary := models.IngestSummary{
		Species:     len(species),
		Collections: len(collections),
		Skipped:     skipped,
	}
	for _, c := range collections {
		if !c.HasPosition() {
			summary.WithoutPosition++
		}
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	metrics.RowsIngested.WithLabelValues("species").Add(float64(summary.Species))
	metrics.RowsIngested.WithLabelValues("collections").Add(float64(summary.Collections))

	logger := zerolog.Ctx(ctx)
	if s.cache != nil {
		if _, err := s.cache.Incr(ctx, generationKey); err != nil {
			logger.Warn().Err(err).Msg("failed to advance cache generation")
		}
	}

	logger.Info().
		Int("species", summary.Species).
		Int("collections", summary.Collections).
		Int("skipped", summary.Skipped).
		Int("without_position", summary.WithoutPosition).
		Msg("dataset replaced")

	return summary, nil
}
