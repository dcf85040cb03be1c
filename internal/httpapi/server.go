package httpapi

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/domain"
	apimw "github.com/hamed0406/serverprobe/internal/httpapi/middleware"
	"github.com/hamed0406/serverprobe/internal/probe"
	"github.com/hamed0406/serverprobe/internal/registry"
	"github.com/hamed0406/serverprobe/internal/repo"
)

// Prober is the probe engine as seen by the handlers.
type Prober interface {
	ProbePort(ctx context.Context, t probe.Target) domain.ProbeResult
	ProbeServer(ctx context.Context, host string, entry *domain.ServerEntry) (domain.ProbeResult, error)
}

// Files are served as-is.
type Files struct {
	ConfigPath   string
	RegistryPath string
	PublicDir    string
}

type Server struct {
	Logger   *zap.Logger
	Registry registry.Source
	Prober   Prober
	Uptimes  repo.UptimeStore
	Results  repo.ResultStore
	Files    Files
}

func NewServer(l *zap.Logger, src registry.Source, p Prober, us repo.UptimeStore, rs repo.ResultStore, files Files) *Server {
	return &Server{Logger: l, Registry: src, Prober: p, Uptimes: us, Results: rs, Files: files}
}

type RouterOptions struct {
	AllowedOrigins []string // empty allows all
	ProbeRPM       int      // per-IP requests/min on probe routes, 0 disables
	ProbeBurst     int
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only set it when a proxy you control overwrites those headers.
	TrustProxy bool
}

func (s *Server) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	if len(opts.AllowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/config.json", s.serveFile(s.Files.ConfigPath))
	r.Get("/servers.json", s.serveFile(s.Files.RegistryPath))

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(opts.ProbeRPM, opts.ProbeBurst))
		r.Get("/probe", s.handleProbe)
		r.Get("/probe-server", s.handleProbeServer)
		r.Get("/probe-service", s.handleProbeService)
	})

	r.Get("/status", s.handleStatus)
	r.Get("/api/results/latest", s.handleLatestResults)

	if fi, err := os.Stat(s.Files.PublicDir); err == nil && fi.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(s.Files.PublicDir)))
	}

	return r
}

func (s *Server) serveFile(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(path); err != nil {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
			return
		}
		http.ServeFile(w, r, path)
	}
}
