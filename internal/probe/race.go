package probe

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/domain"
)

// CandidatePorts returns the ports multi-port mode tries for entry. A valid
// QueryPort is the whole set; otherwise it is the primary port, the service
// ports and the fallback ports, in that order, de-duplicated.
func CandidatePorts(entry *domain.ServerEntry, fallback []int) []int {
	if entry != nil && validPort(entry.QueryPort) {
		return []int{entry.QueryPort}
	}

	var all []int
	if entry != nil {
		all = append(all, entry.PrimaryPort)
		for _, s := range entry.Services {
			all = append(all, s.Port)
		}
	}
	all = append(all, fallback...)

	seen := make(map[int]bool, len(all))
	out := make([]int, 0, len(all))
	for _, p := range all {
		if !validPort(p) || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func validPort(p int) bool { return p > 0 && p <= 65535 }

// ProbeServer races a connection attempt per candidate port and reports the
// first port that connects. entry may be nil when host is not registered.
// A win for a named entry leaves a placeholder in the uptime cache.
func (e *Engine) ProbeServer(ctx context.Context, host string, entry *domain.ServerEntry) (domain.ProbeResult, error) {
	res, err := e.ReachServer(ctx, host, entry)
	if err != nil || !res.OK || res.Name == "" || e.Uptimes == nil {
		return res, err
	}
	if err := e.Uptimes.Touch(ctx, res.Name); err != nil {
		e.Logger.Warn("uptime_touch_error", zap.String("key", res.Name), zap.Error(err))
	}
	return res, nil
}

// ReachServer is ProbeServer without the uptime cache write.
func (e *Engine) ReachServer(ctx context.Context, host string, entry *domain.ServerEntry) (domain.ProbeResult, error) {
	ports := CandidatePorts(entry, e.FallbackPorts)
	if len(ports) == 0 {
		return domain.ProbeResult{}, fmt.Errorf("%w: %s", domain.ErrNoPortsToProbe, host)
	}
	if host == "" {
		return domain.ProbeResult{OK: false}, nil
	}

	port, ok := e.race(ctx, host, ports)
	if !ok {
		return domain.ProbeResult{OK: false}, nil
	}
	res := domain.ProbeResult{OK: true, Port: port}
	if entry != nil {
		res.Name = entry.Name
	}
	return res, nil
}

type raceResult struct {
	port int
	out  outcome
}

// race resolves on the first connected attempt or once every attempt has
// failed. Returning cancels the losers; the buffered channel lets their
// goroutines finish without a reader.
func (e *Engine) race(ctx context.Context, host string, ports []int) (int, bool) {
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceResult, len(ports))
	for _, p := range ports {
		go func(p int) {
			results <- raceResult{port: p, out: e.attempt(rctx, host, p, e.RaceTimeout)}
		}(p)
	}

	for range ports {
		r := <-results
		if r.out.state == stateConnected {
			return r.port, true
		}
		e.Logger.Debug("race_attempt_failed",
			zap.String("host", host), zap.Int("port", r.port), zap.Error(r.out.err))
	}
	return 0, false
}
