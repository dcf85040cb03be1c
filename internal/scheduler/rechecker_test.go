package scheduler

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/domain"
	"github.com/hamed0406/serverprobe/internal/probe"
	"github.com/hamed0406/serverprobe/internal/repo/memory"
)

// --- fakes ---

type staticRegistry struct {
	reg domain.Registry
	err error
}

func (s staticRegistry) Load() (domain.Registry, error) { return s.reg, s.err }

type fakeProber struct {
	mu    sync.Mutex
	hosts []string
}

func (f *fakeProber) ReachServer(ctx context.Context, host string, entry *domain.ServerEntry) (domain.ProbeResult, error) {
	f.mu.Lock()
	f.hosts = append(f.hosts, host)
	f.mu.Unlock()
	switch host {
	case "10.0.0.1":
		return domain.ProbeResult{OK: true, Port: 22, Name: entry.Name}, nil
	case "10.0.0.3":
		return domain.ProbeResult{}, domain.ErrNoPortsToProbe
	}
	return domain.ProbeResult{OK: false}, nil
}

// --- tests ---

func TestRechecker_RunOnce_RecordsLatestPerServer(t *testing.T) {
	store := memory.New()
	prober := &fakeProber{}
	reg := domain.Registry{
		{Name: "alpha", Host: "10.0.0.1"},
		{Host: "10.0.0.2"},
		{Name: "gamma", Host: "10.0.0.3"},
		{Name: "hostless"},
	}
	rc := NewRechecker(zap.NewNop(), staticRegistry{reg: reg}, store, prober, time.Minute, 2)

	rc.runOnce(context.Background())

	rows, err := store.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byServer := map[string]domain.CheckResult{}
	for _, r := range rows {
		byServer[r.Server] = r
	}
	assert.True(t, byServer["alpha"].Up)
	assert.Equal(t, 22, byServer["alpha"].Port)
	assert.False(t, byServer["10.0.0.2"].Up, "unnamed servers are keyed by host")
	assert.False(t, byServer["gamma"].Up)
	assert.Contains(t, byServer["gamma"].Reason, "no ports")

	assert.Len(t, prober.hosts, 3, "entries without a host are skipped")
}

func TestRechecker_RegistryErrorSkipsPass(t *testing.T) {
	store := memory.New()
	rc := NewRechecker(zap.NewNop(), staticRegistry{err: errors.New("boom")}, store, &fakeProber{}, time.Minute, 1)
	rc.runOnce(context.Background())

	rows, _ := store.Latest(context.Background())
	assert.Empty(t, rows)
}

func TestRechecker_RunLoopAndStop(t *testing.T) {
	store := memory.New()
	reg := domain.Registry{{Name: "alpha", Host: "10.0.0.1"}}
	rc := NewRechecker(zap.NewNop(), staticRegistry{reg: reg}, store, &fakeProber{}, 5*time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rc.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		rows, _ := store.Latest(context.Background())
		return len(rows) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRechecker_ZeroIntervalDisabled(t *testing.T) {
	rc := NewRechecker(zap.NewNop(), staticRegistry{}, memory.New(), &fakeProber{}, 0, 1)
	rc.Run(context.Background()) // returns immediately
}

func TestRechecker_SweepLeavesUptimeCacheAlone(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	store := memory.New()
	engine := probe.NewEngine(zap.NewNop(), store, probe.Options{RaceTimeout: 200 * time.Millisecond})
	engine.DiagnoseDNS = false
	engine.FallbackPorts = nil

	reg := domain.Registry{{Name: "alpha", Host: "127.0.0.1", PrimaryPort: port}}
	rc := NewRechecker(zap.NewNop(), staticRegistry{reg: reg}, store, engine, time.Minute, 1)
	rc.runOnce(context.Background())

	rows, err := store.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Up)
	assert.Equal(t, port, rows[0].Port)

	uptimes, err := store.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, uptimes)
}
