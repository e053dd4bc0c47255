package registry

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL registry repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Upsert inserts or replaces a registry entry keyed by station ID.
func (r *PostgresRepository) Upsert(ctx context.Context, s *Station) error {
	query := `
		INSERT INTO impianti (id, nome, comune, provincia, tipo, lat, lon)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			nome = EXCLUDED.nome,
			comune = EXCLUDED.comune,
			provincia = EXCLUDED.provincia,
			tipo = EXCLUDED.tipo,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon
	`
	_, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.Municipality, s.Province, s.FuelType, s.Lat, s.Lon)
	return err
}

// Get retrieves a single entry by station ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Station, error) {
	query := `SELECT id, nome, comune, provincia, tipo, lat, lon FROM impianti WHERE id = $1`

	var s Station
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Municipality, &s.Province, &s.FuelType, &s.Lat, &s.Lon,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetAll returns every stored registry entry.
func (r *PostgresRepository) GetAll(ctx context.Context) ([]*Station, error) {
	query := `SELECT id, nome, comune, provincia, tipo, lat, lon FROM impianti`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*Station
	for rows.Next() {
		var s Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Municipality, &s.Province, &s.FuelType, &s.Lat, &s.Lon); err != nil {
			return nil, err
		}
		stations = append(stations, &s)
	}
	return stations, rows.Err()
}

// Count returns the number of stored registry entries.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM impianti`).Scan(&n)
	return n, err
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
