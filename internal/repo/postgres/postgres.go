package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/domain"
	"github.com/hamed0406/serverprobe/internal/repo"
)

var _ repo.UptimeStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

// Schema holds one row per key; there is no probe history.
const Schema = `
CREATE TABLE IF NOT EXISTS uptimes (
  key         TEXT PRIMARY KEY,
  uptime      DOUBLE PRECISION NULL,
  observed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
  server       TEXT PRIMARY KEY,
  last_state   BOOLEAN NOT NULL,
  last_sent_at TIMESTAMPTZ NULL
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// EnsureSchema creates the tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("postgres_schema_ready")
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- UptimeStore ----

func (s *Store) Record(ctx context.Context, key string, uptime float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO uptimes (key, uptime, observed_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key)
		 DO UPDATE SET uptime=EXCLUDED.uptime, observed_at=EXCLUDED.observed_at`,
		key, uptime, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record uptime: %w", err)
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO uptimes (key, uptime, observed_at)
		 VALUES ($1, NULL, $2)
		 ON CONFLICT (key) DO NOTHING`,
		key, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("touch uptime: %w", err)
	}
	return nil
}

func (s *Store) All(ctx context.Context) (map[string]domain.UptimeRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, uptime, observed_at FROM uptimes`)
	if err != nil {
		return nil, fmt.Errorf("list uptimes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.UptimeRecord)
	for rows.Next() {
		var (
			key        string
			uptime     sql.NullFloat64
			observedAt time.Time
		)
		if err := rows.Scan(&key, &uptime, &observedAt); err != nil {
			return nil, fmt.Errorf("scan uptime: %w", err)
		}
		rec := domain.UptimeRecord{ObservedAt: observedAt}
		if uptime.Valid {
			v := uptime.Float64
			rec.Uptime = &v
		}
		out[key] = rec
	}
	return out, rows.Err()
}
