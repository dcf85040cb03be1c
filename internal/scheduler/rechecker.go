package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/domain"
	"github.com/hamed0406/serverprobe/internal/registry"
	"github.com/hamed0406/serverprobe/internal/repo"
)

// ServerProber is the multi-port reachability check the sweep runs per
// server. It must not write to the uptime cache.
type ServerProber interface {
	ReachServer(ctx context.Context, host string, entry *domain.ServerEntry) (domain.ProbeResult, error)
}

// Rechecker periodically probes every registry entry and keeps the latest
// outcome per server.
type Rechecker struct {
	Logger      *zap.Logger
	Registry    registry.Source
	Results     repo.ResultStore
	Prober      ServerProber
	Interval    time.Duration
	Concurrency int
}

func NewRechecker(
	logger *zap.Logger,
	src registry.Source,
	rs repo.ResultStore,
	prober ServerProber,
	interval time.Duration,
	concurrency int,
) *Rechecker {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 0 {
		interval = 0
	}
	return &Rechecker{
		Logger:      logger,
		Registry:    src,
		Results:     rs,
		Prober:      prober,
		Interval:    interval,
		Concurrency: concurrency,
	}
}

// Run does an immediate pass, then one per tick, until ctx is cancelled.
// A zero interval disables the loop.
func (r *Rechecker) Run(ctx context.Context) {
	if r.Interval == 0 {
		r.Logger.Info("rechecker_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("rechecker_stopped")
			return
		case <-t.C:
			r.runOnce(ctx)
		}
	}
}

// ServerKey names a server in results and alerts: its name, else its host.
func ServerKey(e domain.ServerEntry) string {
	if e.Name != "" {
		return e.Name
	}
	return e.Host
}

func (r *Rechecker) runOnce(ctx context.Context) {
	reg, err := r.Registry.Load()
	if err != nil {
		r.Logger.Warn("rechecker_registry_error", zap.Error(err))
		return
	}

	sem := make(chan struct{}, r.Concurrency)
	var wg sync.WaitGroup

	for _, entry := range reg {
		if entry.Host == "" {
			continue
		}
		e := entry
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()

			res, err := r.Prober.ReachServer(ctx, e.Host, &e)
			cr := &domain.CheckResult{
				Server:    ServerKey(e),
				Host:      e.Host,
				Up:        res.OK,
				Port:      res.Port,
				Reason:    res.Reason,
				CheckedAt: time.Now().UTC(),
			}
			if err != nil {
				cr.Reason = err.Error()
			}
			if err := r.Results.Append(ctx, cr); err != nil {
				r.Logger.Warn("rechecker_append_error", zap.String("server", cr.Server), zap.Error(err))
				return
			}
			r.Logger.Debug("rechecker_checked",
				zap.String("server", cr.Server),
				zap.Bool("up", cr.Up),
				zap.Int("port", cr.Port),
				zap.String("reason", cr.Reason),
			)
		}()
	}

	wg.Wait()
}
