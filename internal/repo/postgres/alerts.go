package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/serverprobe/internal/repo"
)

func (s *Store) Get(ctx context.Context, server string) (*repo.AlertRecord, error) {
	const q = `SELECT last_state, last_sent_at FROM alerts WHERE server=$1`
	r := repo.AlertRecord{Server: server}
	var lastSent *time.Time
	err := s.pool.QueryRow(ctx, q, server).Scan(&r.LastState, &lastSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	r.LastSentAt = lastSent
	return &r, nil
}

func (s *Store) Set(ctx context.Context, server string, lastState bool, sentAt time.Time) error {
	const q = `
		INSERT INTO alerts (server, last_state, last_sent_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (server)
		DO UPDATE SET last_state=EXCLUDED.last_state, last_sent_at=EXCLUDED.last_sent_at
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	if _, err := s.pool.Exec(ctx, q, server, lastState, ts); err != nil {
		return fmt.Errorf("set alert: %w", err)
	}
	return nil
}
