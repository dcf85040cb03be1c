package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/config"
	"github.com/hamed0406/serverprobe/internal/httpapi"
	"github.com/hamed0406/serverprobe/internal/logging"
	"github.com/hamed0406/serverprobe/internal/notify"
	"github.com/hamed0406/serverprobe/internal/probe"
	"github.com/hamed0406/serverprobe/internal/registry"
	"github.com/hamed0406/serverprobe/internal/repo"
	"github.com/hamed0406/serverprobe/internal/repo/memory"
	"github.com/hamed0406/serverprobe/internal/repo/postgres"
	"github.com/hamed0406/serverprobe/internal/repo/rediscache"
	"github.com/hamed0406/serverprobe/internal/scheduler"
)

type stores struct {
	uptimes repo.UptimeStore
	alerts  repo.AlertStore
	closers []func()
}

// openStores picks the uptime cache backend: postgres, then redis, then
// memory. Sweep results always live in memory.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger, mem *memory.Store) (*stores, error) {
	s := &stores{uptimes: mem, alerts: mem}

	switch {
	case cfg.DatabaseURL != "":
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		s.uptimes, s.alerts = pg, pg
		s.closers = append(s.closers, pg.Close)
		logger.Info("uptime_store", zap.String("backend", "postgres"))

	case cfg.RedisURL != "":
		client, err := rediscache.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			_ = client.Close()
			return nil, err
		}
		s.uptimes = rediscache.New(client, rediscache.DefaultKey)
		s.closers = append(s.closers, func() { _ = client.Close() })
		logger.Info("uptime_store", zap.String("backend", "redis"))

	default:
		logger.Info("uptime_store", zap.String("backend", "memory"))
	}
	return s, nil
}

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := memory.New()
	st, err := openStores(ctx, cfg, logger, mem)
	if err != nil {
		logger.Fatal("store_open_failed", zap.Error(err))
	}
	defer func() {
		for _, c := range st.closers {
			c()
		}
	}()

	src := registry.NewLoader(cfg.RegistryPath)
	engine := probe.NewEngine(logger, st.uptimes, probe.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		RaceTimeout:    cfg.RaceTimeout,
		HealthTimeout:  cfg.HealthTimeout,
	})

	api := httpapi.NewServer(logger, src, engine, st.uptimes, mem, httpapi.Files{
		ConfigPath:   cfg.ConfigPath,
		RegistryPath: cfg.RegistryPath,
		PublicDir:    cfg.PublicDir,
	})

	rechecker := scheduler.NewRechecker(logger, src, mem, engine, cfg.CheckInterval, cfg.MaxConcurrent)
	go rechecker.Run(ctx)

	notifier := notify.Multi{notify.Log{Logger: logger}}
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		notifier = append(notifier, slack)
	}
	alerter := scheduler.NewAlerter(logger, mem, st.alerts, notifier, scheduler.AlerterConfig{
		AlertOnRecovery: cfg.AlertOnRecovery,
		Cooldown:        cfg.AlertCooldown,
		PollInterval:    cfg.CheckInterval,
	})
	go func() {
		if err := alerter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("alerter_stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(httpapi.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			ProbeRPM:       cfg.ProbeRPM,
			ProbeBurst:     cfg.ProbeBurst,
			TrustProxy:     cfg.TrustProxy,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.String("registry", cfg.RegistryPath),
		zap.Duration("check_interval", cfg.CheckInterval),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_failed", zap.Error(err))
	}
	logger.Info("api_stopped")
}
