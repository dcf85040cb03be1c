package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/serverprobe/internal/domain"
	"github.com/hamed0406/serverprobe/internal/repo"
)

var (
	_ repo.UptimeStore = (*Store)(nil)
	_ repo.ResultStore = (*Store)(nil)
	_ repo.AlertStore  = (*Store)(nil)
)

// Store is the in-process implementation of every store port. Its lifetime
// is the process lifetime.
type Store struct {
	mu      sync.RWMutex
	uptimes map[string]domain.UptimeRecord
	latest  map[string]domain.CheckResult
	alerts  map[string]repo.AlertRecord

	now func() time.Time
}

func New() *Store {
	return &Store{
		uptimes: make(map[string]domain.UptimeRecord),
		latest:  make(map[string]domain.CheckResult),
		alerts:  make(map[string]repo.AlertRecord),
		now:     time.Now,
	}
}

// ---- UptimeStore ----

func (m *Store) Record(ctx context.Context, key string, uptime float64) error {
	v := uptime
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uptimes[key] = domain.UptimeRecord{Uptime: &v, ObservedAt: m.now().UTC()}
	return nil
}

func (m *Store) Touch(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.uptimes[key]; !ok {
		m.uptimes[key] = domain.UptimeRecord{ObservedAt: m.now().UTC()}
	}
	return nil
}

func (m *Store) All(ctx context.Context) (map[string]domain.UptimeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.UptimeRecord, len(m.uptimes))
	for k, v := range m.uptimes {
		out[k] = v
	}
	return out, nil
}

// ---- ResultStore ----

func (m *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CheckedAt.IsZero() {
		r.CheckedAt = m.now().UTC()
	}
	if cur, ok := m.latest[r.Server]; ok && cur.CheckedAt.After(r.CheckedAt) {
		return nil
	}
	m.latest[r.Server] = *r
	return nil
}

func (m *Store) Latest(ctx context.Context) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CheckResult, 0, len(m.latest))
	for _, r := range m.latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Server < out[j].Server })
	return out, nil
}

// ---- AlertStore ----

func (m *Store) Get(ctx context.Context, server string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[server]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, server string, lastState bool, sentAt time.Time) error {
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[server] = repo.AlertRecord{Server: server, LastState: lastState, LastSentAt: ts}
	return nil
}
