package repo

import (
	"context"
	"time"

	"github.com/hamed0406/serverprobe/internal/domain"
)

// UptimeStore is the uptime cache: last observed uptime per host or
// server name. Records are overwritten, never deleted.
type UptimeStore interface {
	// Record overwrites key with {uptime, now}.
	Record(ctx context.Context, key string, uptime float64) error
	// Touch writes a {null, now} placeholder only if key has no record yet.
	Touch(ctx context.Context, key string) error
	All(ctx context.Context) (map[string]domain.UptimeRecord, error)
}

// ResultStore keeps the latest background sweep outcome per server.
type ResultStore interface {
	Append(ctx context.Context, r *domain.CheckResult) error
	Latest(ctx context.Context) ([]domain.CheckResult, error)
}

// AlertRecord holds the last up/down state seen for a server and the last
// time a notification went out (used for cooldown).
type AlertRecord struct {
	Server     string
	LastState  bool
	LastSentAt *time.Time
}

type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, server string) (*AlertRecord, error)
	// Set upserts the record. A zero sentAt stores no send time.
	Set(ctx context.Context, server string, lastState bool, sentAt time.Time) error
}
