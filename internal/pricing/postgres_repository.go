package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL pricing repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const stateColumns = `id, nome, comune, provincia, tipo, lat, lon,
	prezzo_attuale, prezzo_precedente, variazione, aggiornato_il`

func scanState(row pgx.Row) (*State, error) {
	var s State
	err := row.Scan(
		&s.ID, &s.Name, &s.Municipality, &s.Province, &s.FuelType,
		&s.Lat, &s.Lon,
		&s.CurrentPrice, &s.PreviousPrice, &s.Changed, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get retrieves the state for a station.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*State, error) {
	query := `SELECT ` + stateColumns + ` FROM benzinai WHERE id = $1`

	s, err := scanState(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetAll returns every stored state.
func (r *PostgresRepository) GetAll(ctx context.Context) ([]*State, error) {
	query := `SELECT ` + stateColumns + ` FROM benzinai`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*State
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// List returns states matching the filter, capped at the filter limit
// (default 500, matching the read API contract).
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*State, error) {
	query := `SELECT ` + stateColumns + ` FROM benzinai WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.FuelType != "" {
		query += ` AND tipo = ` + arg(f.FuelType)
	}
	if f.Province != "" {
		query += ` AND provincia ILIKE ` + arg(f.Province)
	}
	if f.Municipality != "" {
		query += ` AND comune ILIKE ` + arg(f.Municipality)
	}
	if f.Query != "" {
		like := arg("%" + f.Query + "%")
		query += fmt.Sprintf(` AND (comune ILIKE %[1]s OR provincia ILIKE %[1]s OR nome ILIKE %[1]s)`, like)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	query += ` ORDER BY id LIMIT ` + arg(limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*State
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// Upsert inserts or replaces the state for a station. The single-statement
// ON CONFLICT upsert keeps the write atomic per station, so overlapping
// ingestion runs degrade to last-writer-wins instead of interleaved rows.
func (r *PostgresRepository) Upsert(ctx context.Context, s *State) error {
	query := `
		INSERT INTO benzinai (` + stateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			nome = EXCLUDED.nome,
			comune = EXCLUDED.comune,
			provincia = EXCLUDED.provincia,
			tipo = EXCLUDED.tipo,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			prezzo_attuale = EXCLUDED.prezzo_attuale,
			prezzo_precedente = EXCLUDED.prezzo_precedente,
			variazione = EXCLUDED.variazione,
			aggiornato_il = EXCLUDED.aggiornato_il
	`
	_, err := r.pool.Exec(ctx, query,
		s.ID, s.Name, s.Municipality, s.Province, s.FuelType,
		s.Lat, s.Lon,
		s.CurrentPrice, s.PreviousPrice, s.Changed, s.UpdatedAt,
	)
	return err
}

// AppendChange appends one history entry.
func (r *PostgresRepository) AppendChange(ctx context.Context, e *ChangeEvent) error {
	query := `INSERT INTO variazioni (id, prezzo, changed_at) VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, e.StationID, e.Price, e.ChangedAt)
	return err
}

// History returns the most recent change events for a station, newest first.
func (r *PostgresRepository) History(ctx context.Context, id string, limit int) ([]*ChangeEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, prezzo, changed_at FROM variazioni
		WHERE id = $1 ORDER BY changed_at DESC LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*ChangeEvent
	for rows.Next() {
		var e ChangeEvent
		if err := rows.Scan(&e.StationID, &e.Price, &e.ChangedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// Stats returns aggregate counts over the stored states.
func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByFuelType: make(map[string]int)}

	err := r.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE prezzo_attuale IS NULL)
		FROM benzinai
	`).Scan(&stats.States, &stats.NullPrices)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT tipo, count(*) FROM benzinai GROUP BY tipo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var fuelType string
		var n int
		if err := rows.Scan(&fuelType, &n); err != nil {
			return nil, err
		}
		stats.ByFuelType[fuelType] = n
	}
	return stats, rows.Err()
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
