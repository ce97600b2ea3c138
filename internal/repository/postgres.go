package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS species (
	species_code TEXT PRIMARY KEY,
	attributes   JSONB NOT NULL DEFAULT '{}'::jsonb
);

CREATE TABLE IF NOT EXISTS collections (
	collection_code TEXT PRIMARY KEY,
	species_code    TEXT,
	common_name     TEXT,
	per_ounce       DOUBLE PRECISION,
	weight          DOUBLE PRECISION,
	chaff           DOUBLE PRECISION,
	pls             DOUBLE PRECISION,
	date_collected  TEXT,
	cords           TEXT,
	year_collected  BIGINT,
	county          TEXT,
	formation       TEXT,
	elevation       TEXT,
	ran_out         TEXT,
	prairie_moon    TEXT,
	storage_code    TEXT,
	notes           TEXT,
	latitude        DOUBLE PRECISION,
	longitude       DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_collections_position ON collections (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_collections_species ON collections (species_code);
`

// PostgresRepository implements the collection store on PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the tables when they do not exist yet
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("repository: failed to create tables: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (r *PostgresRepository) Close() error {
	r.db.Close()
	return nil
}

// Ping checks that the database is reachable
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// ReplaceAll swaps the full dataset inside one transaction, bulk loading both tables with COPY
func (r *PostgresRepository) ReplaceAll(ctx context.Context, species []models.Species, collections []models.Collection) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE collections, species"); err != nil {
		return fmt.Errorf("repository: failed to clear dataset: %w", err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"species"},
		[]string{"species_code", "attributes"},
		pgx.CopyFromSlice(len(species), func(i int) ([]any, error) {
			attrs, err := encodeAttributes(species[i].Attributes)
			if err != nil {
				return nil, err
			}
			return []any{species[i].Code, string(attrs)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("repository: failed to copy species: %w", err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"collections"},
		collectionColumns,
		pgx.CopyFromSlice(len(collections), func(i int) ([]any, error) {
			return collectionValues(collections[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("repository: failed to copy collections: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit dataset: %w", err)
	}
	return nil
}

// FindCollection returns the collection with the given code joined with its species
func (r *PostgresRepository) FindCollection(ctx context.Context, code string) (*models.CollectionDetail, error) {
	sql := fmt.Sprintf(`
		SELECT %s, s.species_code, s.attributes::text
		FROM collections c
		LEFT JOIN species s ON s.species_code = c.species_code
		WHERE c.collection_code = $1
	`, qualified("c"))

	var (
		detail      models.CollectionDetail
		speciesCode *string
		attrs       *string
	)
	targets := append(collectionTargets(&detail.Collection), &speciesCode, &attrs)

	err := r.db.QueryRow(ctx, sql, code).Scan(targets...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository: %w: %s", models.ErrCollectionNotFound, code)
		}
		return nil, fmt.Errorf("repository: failed to query collection: %w", err)
	}

	var raw []byte
	if attrs != nil {
		raw = []byte(*attrs)
	}
	detail.Species, err = decodeSpecies(speciesCode, raw)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListMarkers returns one page of positioned collections inside b and the total match count
func (r *PostgresRepository) ListMarkers(ctx context.Context, b geo.Bounds, limit, offset int) ([]models.Marker, int, error) {
	where, args := boundsPredicate(b, func(n int) string { return fmt.Sprintf("$%d", n) })

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM collections WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count collections: %w", err)
	}

	sql := strings.Join([]string{
		"SELECT collection_code, common_name, latitude, longitude, county, date_collected",
		"FROM collections",
		"WHERE " + where,
		"ORDER BY collection_code",
		"LIMIT $5 OFFSET $6",
	}, "\n")

	rows, err := tx.Query(ctx, sql, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to execute marker query: %w", err)
	}
	defer rows.Close()

	markers := []models.Marker{}
	for rows.Next() {
		var m models.Marker
		if err := rows.Scan(&m.ID, &m.CommonName, &m.Latitude, &m.Longitude, &m.County, &m.DateCollected); err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan marker: %w", err)
		}
		markers = append(markers, m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return markers, total, nil
}
