package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// New constructs a Repository. Timestamps read from log relations are
// normalized into loc before leaving this package.
func New(pool *pgxpool.Pool, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{pool: pool, loc: loc}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.ApplicationRepository   = (*Repository)(nil)
	_ repository.ConfigurationRepository = (*Repository)(nil)
	_ repository.LogRepository           = (*Repository)(nil)
)

// ListApplications returns every registered tenant ordered by name.
func (r *Repository) ListApplications(ctx context.Context) ([]domain.Application, error) {
	const query = `SELECT name, created_at FROM applications ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]domain.Application, 0)
	for rows.Next() {
		var app domain.Application
		if err := rows.Scan(&app.Name, &app.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// GetConfigurations returns the stored values for the requested keys.
// Missing keys are simply absent from the result map.
func (r *Repository) GetConfigurations(ctx context.Context, keys []string) (map[string]string, error) {
	const query = `SELECT key, value FROM configurations WHERE key = ANY($1)`
	rows, err := r.pool.Query(ctx, query, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

// UpsertConfiguration writes one configuration entry, creating or updating
// it under its canonical upper-cased key.
func (r *Repository) UpsertConfiguration(ctx context.Context, entry *domain.ConfigEntry) error {
	const query = `INSERT INTO configurations (key, value, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		RETURNING created_at, updated_at`
	entry.Key = domain.CanonicalKey(entry.Key)
	if entry.Key == "" {
		return fmt.Errorf("empty configuration key")
	}
	return r.pool.QueryRow(ctx, query, entry.Key, entry.Value).Scan(&entry.CreatedAt, &entry.UpdatedAt)
}
