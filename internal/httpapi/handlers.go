package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/domain"
	"github.com/hamed0406/serverprobe/internal/probe"
	"github.com/hamed0406/serverprobe/internal/registry"
)

// requestLogger tags every log line of one probe request with an id that
// is also returned to the client.
func (s *Server) requestLogger(w http.ResponseWriter, r *http.Request) *zap.Logger {
	id := uuid.NewString()
	w.Header().Set("X-Probe-ID", id)
	return s.Logger.With(zap.String("probe_id", id), zap.String("path", r.URL.Path))
}

// parsePort accepts a positive decimal integer.
func parsePort(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// GET /probe?host=&port= : the pair must be listed in the registry.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(w, r)
	host := r.URL.Query().Get("host")
	port, ok := parsePort(r.URL.Query().Get("port"))
	if host == "" || !ok {
		s.fail(w, log, fmt.Errorf("%w: host or port", domain.ErrMissingParameter))
		return
	}

	reg, err := s.Registry.Load()
	if err != nil {
		s.fail(w, log, err)
		return
	}
	if err := registry.Allows(reg, host, port); err != nil {
		s.fail(w, log, err)
		return
	}

	start := time.Now()
	res := s.Prober.ProbePort(r.Context(), probe.Target{Host: host, Port: port, Name: registry.NameForHost(reg, host)})
	logResult(log, "probe_done", res, start, zap.String("host", host), zap.Int("port", port))
	writeJSON(w, http.StatusOK, res)
}

// GET /probe-server?name= or ?host= : name wins when both are given.
func (s *Server) handleProbeServer(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(w, r)
	name := r.URL.Query().Get("name")
	host := r.URL.Query().Get("host")
	if name == "" && host == "" {
		s.fail(w, log, fmt.Errorf("%w: host or name", domain.ErrMissingParameter))
		return
	}

	reg, err := s.Registry.Load()
	if err != nil {
		s.fail(w, log, err)
		return
	}

	var entry *domain.ServerEntry
	if name != "" {
		e, err := registry.ByName(reg, name)
		if err != nil {
			s.fail(w, log, err)
			return
		}
		entry, host = &e, e.Host
	} else {
		entry = registry.ByHost(reg, host)
	}

	start := time.Now()
	res, err := s.Prober.ProbeServer(r.Context(), host, entry)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	logResult(log, "probe_server_done", res, start, zap.String("name", name), zap.String("host", host))
	writeJSON(w, http.StatusOK, res)
}

// GET /probe-service?name=&port= : probes a named server without exposing
// its host. The name lookup is the authorization step.
func (s *Server) handleProbeService(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(w, r)
	name := r.URL.Query().Get("name")
	port, ok := parsePort(r.URL.Query().Get("port"))
	if name == "" || !ok {
		s.fail(w, log, fmt.Errorf("%w: name or port", domain.ErrMissingParameter))
		return
	}

	reg, err := s.Registry.Load()
	if err != nil {
		s.fail(w, log, err)
		return
	}
	entry, err := registry.ByName(reg, name)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	start := time.Now()
	res := s.Prober.ProbePort(r.Context(), probe.Target{Host: entry.Host, Port: port, Name: entry.Name})
	logResult(log, "probe_service_done", res, start, zap.String("name", name), zap.Int("port", port))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	all, err := s.Uptimes.All(r.Context())
	if err != nil {
		s.fail(w, s.Logger, fmt.Errorf("read uptimes: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleLatestResults(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Results.Latest(r.Context())
	if err != nil {
		s.fail(w, s.Logger, fmt.Errorf("latest results: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func logResult(log *zap.Logger, msg string, res domain.ProbeResult, start time.Time, fields ...zap.Field) {
	fields = append(fields,
		zap.Bool("ok", res.OK),
		zap.Int("reached_port", res.Port),
		zap.String("reason", res.Reason),
		zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
	)
	if res.Uptime != nil {
		fields = append(fields, zap.Float64("uptime", *res.Uptime))
	}
	log.Info(msg, fields...)
}
