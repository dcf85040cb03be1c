package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/serverprobe/internal/domain"
)

func TestMemoryStore_RecordOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	clock := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	require.NoError(t, s.Record(ctx, "10.0.0.1", 100))
	clock = clock.Add(time.Minute)
	require.NoError(t, s.Record(ctx, "10.0.0.1", 160))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Contains(t, all, "10.0.0.1")
	assert.Equal(t, 160.0, *all["10.0.0.1"].Uptime)
	assert.Equal(t, clock, all["10.0.0.1"].ObservedAt)
}

func TestMemoryStore_TouchOnlyWhenAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Touch(ctx, "alpha"))
	all, _ := s.All(ctx)
	assert.Nil(t, all["alpha"].Uptime)

	require.NoError(t, s.Record(ctx, "alpha", 42))
	require.NoError(t, s.Touch(ctx, "alpha"))
	all, _ = s.All(ctx)
	require.NotNil(t, all["alpha"].Uptime)
	assert.Equal(t, 42.0, *all["alpha"].Uptime)
}

func TestMemoryStore_AllIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Record(ctx, "k", 1))

	all, _ := s.All(ctx)
	delete(all, "k")

	again, _ := s.All(ctx)
	assert.Len(t, again, 1)
}

func TestMemoryStore_ConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Record(ctx, "shared", float64(i))
			_ = s.Touch(ctx, "other")
			_, _ = s.All(ctx)
		}(i)
	}
	wg.Wait()

	all, _ := s.All(ctx)
	assert.Len(t, all, 2)
}

func TestMemoryStore_LatestKeepsNewestPerServer(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Now().UTC()

	require.NoError(t, s.Append(ctx, &domain.CheckResult{Server: "b", Up: true, CheckedAt: t0}))
	require.NoError(t, s.Append(ctx, &domain.CheckResult{Server: "a", Up: false, CheckedAt: t0}))
	require.NoError(t, s.Append(ctx, &domain.CheckResult{Server: "a", Up: true, CheckedAt: t0.Add(time.Second)}))
	require.NoError(t, s.Append(ctx, &domain.CheckResult{Server: "a", Up: false, CheckedAt: t0.Add(-time.Second)}))

	rows, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Server)
	assert.True(t, rows[0].Up)
	assert.Equal(t, "b", rows[1].Server)
}

func TestMemoryStore_Alerts(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec, err := s.Get(ctx, "alpha")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, s.Set(ctx, "alpha", false, time.Time{}))
	rec, _ = s.Get(ctx, "alpha")
	require.NotNil(t, rec)
	assert.False(t, rec.LastState)
	assert.Nil(t, rec.LastSentAt)

	now := time.Now()
	require.NoError(t, s.Set(ctx, "alpha", true, now))
	rec, _ = s.Get(ctx, "alpha")
	require.NotNil(t, rec.LastSentAt)
	assert.True(t, rec.LastSentAt.Equal(now))
}
