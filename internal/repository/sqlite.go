package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/models"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS species (
	species_code TEXT PRIMARY KEY,
	attributes   TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS collections (
	collection_code TEXT PRIMARY KEY,
	species_code    TEXT,
	common_name     TEXT,
	per_ounce       REAL,
	weight          REAL,
	chaff           REAL,
	pls             REAL,
	date_collected  TEXT,
	cords           TEXT,
	year_collected  INTEGER,
	county          TEXT,
	formation       TEXT,
	elevation       TEXT,
	ran_out         TEXT,
	prairie_moon    TEXT,
	storage_code    TEXT,
	notes           TEXT,
	latitude        REAL,
	longitude       REAL
);

CREATE INDEX IF NOT EXISTS idx_collections_position ON collections(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_collections_species ON collections(species_code);
`

// SQLiteRepository stores collections in a local SQLite database file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating when missing) the database at dsn and
// ensures the schema exists. dsn is a file path, optionally prefixed with
// "file:" and followed by query parameters.
func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("repository: failed to create database directory: %w", err)
		}
	}

	if !strings.Contains(dsn, "busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to open sqlite: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: failed to create tables: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReplaceAll swaps the full dataset for species and collections in a single transaction.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, species []models.Species, collections []models.Collection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM collections"); err != nil {
		return fmt.Errorf("repository: failed to clear collections: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM species"); err != nil {
		return fmt.Errorf("repository: failed to clear species: %w", err)
	}

	speciesStmt, err := tx.PrepareContext(ctx, "INSERT INTO species (species_code, attributes) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("repository: failed to prepare species insert: %w", err)
	}
	defer speciesStmt.Close()

	for _, s := range species {
		attrs, err := encodeAttributes(s.Attributes)
		if err != nil {
			return err
		}
		if _, err := speciesStmt.ExecContext(ctx, s.Code, string(attrs)); err != nil {
			return fmt.Errorf("repository: failed to insert species %q: %w", s.Code, err)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(collectionColumns)), ", ")
	collectionStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO collections (%s) VALUES (%s)",
		strings.Join(collectionColumns, ", "), placeholders,
	))
	if err != nil {
		return fmt.Errorf("repository: failed to prepare collection insert: %w", err)
	}
	defer collectionStmt.Close()

	for _, c := range collections {
		if _, err := collectionStmt.ExecContext(ctx, collectionValues(c)...); err != nil {
			return fmt.Errorf("repository: failed to insert collection %q: %w", c.CollectionCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repository: failed to commit dataset: %w", err)
	}
	return nil
}

// FindCollection returns the collection with the given code joined with its species.
func (r *SQLiteRepository) FindCollection(ctx context.Context, code string) (*models.CollectionDetail, error) {
	query := fmt.Sprintf(`
		SELECT %s, s.species_code, s.attributes
		FROM collections c
		LEFT JOIN species s ON s.species_code = c.species_code
		WHERE c.collection_code = ?
	`, qualified("c"))

	var (
		detail      models.CollectionDetail
		speciesCode *string
		attrs       []byte
	)
	targets := append(collectionTargets(&detail.Collection), &speciesCode, &attrs)

	err := r.db.QueryRowContext(ctx, query, code).Scan(targets...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("repository: %w: %s", models.ErrCollectionNotFound, code)
		}
		return nil, fmt.Errorf("repository: failed to query collection: %w", err)
	}

	detail.Species, err = decodeSpecies(speciesCode, attrs)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListMarkers returns one page of positioned collections inside b, ordered by
// collection code, together with the number of matches for the whole box.
func (r *SQLiteRepository) ListMarkers(ctx context.Context, b geo.Bounds, limit, offset int) ([]models.Marker, int, error) {
	where, args := boundsPredicate(b, func(int) string { return "?" })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count collections: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT collection_code, common_name, latitude, longitude, county, date_collected
		FROM collections
		WHERE `+where+`
		ORDER BY collection_code
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
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
