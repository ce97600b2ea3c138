package repository

import (
	"context"
	"fmt"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the full collection store as the commands use it.
type Store interface {
	Ping(ctx context.Context) error
	ReplaceAll(ctx context.Context, species []models.Species, collections []models.Collection) error
	FindCollection(ctx context.Context, code string) (*models.CollectionDetail, error)
	ListMarkers(ctx context.Context, b geo.Bounds, limit, offset int) ([]models.Marker, int, error)
	Close() error
}

var (
	_ Store = (*SQLiteRepository)(nil)
	_ Store = (*PostgresRepository)(nil)
)

// Open connects to the store named by driver ("sqlite" or "postgres") and
// makes sure its schema exists.
func Open(ctx context.Context, driver, source string) (Store, error) {
	switch driver {
	case "sqlite":
		repo, err := NewSQLiteRepository(source)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("repository: cannot connect to postgres: %w", err)
		}
		repo := NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("repository: unknown driver %q", driver)
	}
}
