package push

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL subscription repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Upsert inserts or replaces a subscription keyed by endpoint.
func (r *PostgresRepository) Upsert(ctx context.Context, s *Subscription) error {
	query := `
		INSERT INTO push_subscriptions (endpoint, p256dh, auth, filters, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (endpoint) DO UPDATE SET
			p256dh = EXCLUDED.p256dh,
			auth = EXCLUDED.auth,
			filters = EXCLUDED.filters
	`
	_, err := r.pool.Exec(ctx, query, s.Endpoint, s.Keys.P256dh, s.Keys.Auth, s.Filters, s.CreatedAt)
	return err
}

// GetAll returns every stored subscription.
func (r *PostgresRepository) GetAll(ctx context.Context) ([]*Subscription, error) {
	query := `SELECT endpoint, p256dh, auth, filters, created_at FROM push_subscriptions`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.Endpoint, &s.Keys.P256dh, &s.Keys.Auth, &s.Filters, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

// Count returns the number of stored subscriptions.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM push_subscriptions`).Scan(&n)
	return n, err
}

// Delete removes a subscription by endpoint.
func (r *PostgresRepository) Delete(ctx context.Context, endpoint string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	return err
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
