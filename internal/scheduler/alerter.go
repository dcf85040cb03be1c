package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/notify"
	"github.com/hamed0406/serverprobe/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter turns up/down transitions in the latest sweep results into
// notifications.
type Alerter struct {
	logger   *zap.Logger
	results  repo.ResultStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(
	logger *zap.Logger,
	results repo.ResultStore,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
) *Alerter {
	return &Alerter{
		logger:   logger,
		results:  results,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	if a.cfg.PollInterval <= 0 {
		a.logger.Info("alerter_disabled")
		return nil
	}
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := a.scanOnce(ctx); err != nil {
				a.logger.Warn("alerter_scan_error", zap.Error(err))
			}
		}
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	rows, err := a.results.Latest(ctx)
	if err != nil {
		return err
	}

	now := a.now()

	for _, r := range rows {
		rec, err := a.alertDB.Get(ctx, r.Server)
		if err != nil {
			a.logger.Warn("alert_state_read_error", zap.String("server", r.Server), zap.Error(err))
			continue
		}

		stateChanged := rec == nil || rec.LastState != r.Up

		// Cooldown only suppresses repeated DOWN alerts.
		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		downAlert := stateChanged && !r.Up && cooled
		// a first sighting of an UP server is not a recovery
		recoveryAlert := stateChanged && r.Up && rec != nil && a.cfg.AlertOnRecovery

		if downAlert || recoveryAlert {
			title := "Server DOWN: " + r.Server
			if r.Up {
				title = "Server RECOVERED: " + r.Server
			}

			port := "none"
			if r.Port != 0 {
				port = fmt.Sprintf("%d", r.Port)
			}
			reason := r.Reason
			if reason == "" {
				reason = "n/a"
			}
			text := fmt.Sprintf(
				"Host: %s\nReachable port: %s\nReason: %s\nChecked: %s",
				r.Host, port, reason, r.CheckedAt.Format(time.RFC3339),
			)

			if err := a.notifier.Send(ctx, title, text); err != nil {
				a.logger.Warn("alert_send_error", zap.String("server", r.Server), zap.Error(err))
			}
			_ = a.alertDB.Set(ctx, r.Server, r.Up, now)
			continue
		}

		// Record the new state even when nothing was sent (cooldown, first
		// UP sighting, recovery alerts disabled). The last send time is kept
		// so a flapping server stays inside its cooldown.
		if stateChanged {
			var sentAt time.Time
			if rec != nil && rec.LastSentAt != nil {
				sentAt = *rec.LastSentAt
			}
			_ = a.alertDB.Set(ctx, r.Server, r.Up, sentAt)
		}
	}

	return nil
}
