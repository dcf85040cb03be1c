// Package probe answers "is this server reachable?" with bounded TCP
// connection attempts, optionally enriched by an HTTP /health fetch.
//
// Three modes are supported:
//   - ProbePort: one connection attempt to a validated host:port, followed by
//     a health fetch on HTTP ports (80/443 by default).
//   - ProbeServer: all candidate ports of a server are tried concurrently and
//     the first successful connection wins; the losers are cancelled.
//   - ProbePort with a Target resolved by server name, so clients never see
//     the host.
//
// Connection failures are results (OK=false with a reason), not errors. A
// failed health fetch never turns a successful connection into a failure.
package probe

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/domain"
)

const (
	DefaultConnectTimeout = 2000 * time.Millisecond
	DefaultRaceTimeout    = 1500 * time.Millisecond
	DefaultHealthTimeout  = 1500 * time.Millisecond
)

// DefaultFallbackPorts are tried for every server in multi-port mode.
var DefaultFallbackPorts = []int{80, 443, 22, 8080, 25565}

// DefaultHealthPorts maps ports that get a /health fetch to their scheme.
var DefaultHealthPorts = map[int]string{80: "http", 443: "https"}

// DialFunc matches (*net.Dialer).DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// UptimeRecorder is the slice of the uptime cache the engine writes to.
type UptimeRecorder interface {
	Record(ctx context.Context, key string, uptime float64) error
	Touch(ctx context.Context, key string) error
}

// Target is a single host:port to probe. Name, when set, is the registry
// name the host belongs to; observed uptimes are cached under it too.
type Target struct {
	Host string
	Port int
	Name string
}

type Options struct {
	ConnectTimeout time.Duration
	RaceTimeout    time.Duration
	HealthTimeout  time.Duration
}

type Engine struct {
	Logger  *zap.Logger
	Uptimes UptimeRecorder
	Health  *HealthChecker
	Dial    DialFunc

	ConnectTimeout time.Duration
	RaceTimeout    time.Duration
	FallbackPorts  []int
	HealthPorts    map[int]string

	// DiagnoseDNS logs a resolver diagnosis when a connect to a DNS name fails.
	DiagnoseDNS bool
}

func NewEngine(logger *zap.Logger, uptimes UptimeRecorder, opts Options) *Engine {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.RaceTimeout <= 0 {
		opts.RaceTimeout = DefaultRaceTimeout
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = DefaultHealthTimeout
	}
	return &Engine{
		Logger:         logger,
		Uptimes:        uptimes,
		Health:         NewHealthChecker(opts.HealthTimeout),
		Dial:           (&net.Dialer{}).DialContext,
		ConnectTimeout: opts.ConnectTimeout,
		RaceTimeout:    opts.RaceTimeout,
		FallbackPorts:  DefaultFallbackPorts,
		HealthPorts:    DefaultHealthPorts,
		DiagnoseDNS:    true,
	}
}

// ProbePort makes one connection attempt to t and, on success over an HTTP
// port, fetches /health to learn the server's uptime.
func (e *Engine) ProbePort(ctx context.Context, t Target) domain.ProbeResult {
	if t.Host == "" {
		return domain.ProbeResult{OK: false, Reason: "missing host"}
	}
	log := e.Logger.With(zap.String("host", t.Host), zap.Int("port", t.Port))

	out := e.attempt(ctx, t.Host, t.Port, e.ConnectTimeout)
	switch out.state {
	case stateTimedOut:
		return domain.ProbeResult{OK: false, Reason: "timeout"}
	case stateErrored:
		if e.DiagnoseDNS {
			go e.diagnose(t.Host)
		}
		return domain.ProbeResult{OK: false, Reason: out.err.Error()}
	}

	scheme, ok := e.HealthPorts[t.Port]
	if !ok || e.Health == nil {
		return domain.ProbeResult{OK: true}
	}
	uptime, err := e.Health.Fetch(ctx, scheme, t.Host, t.Port)
	if err != nil {
		log.Debug("health_check_failed", zap.Error(err))
		return domain.ProbeResult{OK: true}
	}
	e.recordUptime(ctx, uptime, t.Host, t.Name)
	return domain.ProbeResult{OK: true, Uptime: &uptime}
}

func (e *Engine) recordUptime(ctx context.Context, uptime float64, keys ...string) {
	if e.Uptimes == nil {
		return
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if err := e.Uptimes.Record(ctx, k, uptime); err != nil {
			e.Logger.Warn("uptime_record_error", zap.String("key", k), zap.Error(err))
		}
	}
}

func (e *Engine) diagnose(host string) {
	if net.ParseIP(host) != nil {
		return
	}
	dns := CheckDNS(host)
	e.Logger.Info("dns_check",
		zap.String("domain", dns.Domain),
		zap.String("class", dns.Class),
		zap.Bool("has_a_or_aaaa", dns.HasAOrAAAA),
		zap.Strings("nameservers", dns.Nameservers),
		zap.String("cname", dns.CNAME),
		zap.String("resolver_error", dns.ResolverError),
	)
}
