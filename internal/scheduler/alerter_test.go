package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/serverprobe/internal/domain"
	"github.com/hamed0406/serverprobe/internal/repo/memory"
)

// ---- shared helpers ----

type fakeResults struct {
	rows []domain.CheckResult
}

func (f *fakeResults) Append(ctx context.Context, cr *domain.CheckResult) error {
	f.rows = append(f.rows, *cr)
	return nil
}

func (f *fakeResults) Latest(ctx context.Context) ([]domain.CheckResult, error) {
	return f.rows, nil
}

func row(server string, up bool, port int) domain.CheckResult {
	return domain.CheckResult{
		Server:    server,
		Host:      "10.0.0.1",
		Up:        up,
		Port:      port,
		CheckedAt: time.Now(),
	}
}

type memNotifier struct {
	titles []string
}

func (m *memNotifier) Send(ctx context.Context, title, text string) error {
	m.titles = append(m.titles, title)
	return nil
}

// ---- tests ----

func TestAlerter_SendsOnDown_RespectsCooldown(t *testing.T) {
	results := &fakeResults{rows: []domain.CheckResult{row("alpha", false, 0)}}
	nt := &memNotifier{}
	al := NewAlerter(zap.NewNop(), results, memory.New(), nt, AlerterConfig{
		AlertOnRecovery: true,
		Cooldown:        time.Minute,
		PollInterval:    10 * time.Millisecond,
	})

	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(nt.titles) != 1 || !strings.Contains(nt.titles[0], "DOWN") {
		t.Fatalf("want one DOWN alert, got %v", nt.titles)
	}

	// same DOWN again -> no new alert
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(nt.titles) != 1 {
		t.Fatalf("want no repeat, got %v", nt.titles)
	}

	// flip to UP -> recovery alert
	results.rows = []domain.CheckResult{row("alpha", true, 22)}
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(nt.titles) != 2 || !strings.Contains(nt.titles[1], "RECOVERED") {
		t.Fatalf("want recovery alert, got %v", nt.titles)
	}

	// DOWN again inside the cooldown -> suppressed
	results.rows = []domain.CheckResult{row("alpha", false, 0)}
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(nt.titles) != 2 {
		t.Fatalf("cooldown should suppress, got %v", nt.titles)
	}
}

func TestAlerter_FirstUpIsSilent_NoRecoveryIfDisabled(t *testing.T) {
	results := &fakeResults{rows: []domain.CheckResult{row("beta", true, 80)}}
	nt := &memNotifier{}
	al := NewAlerter(zap.NewNop(), results, memory.New(), nt, AlerterConfig{AlertOnRecovery: false})

	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(nt.titles) != 0 {
		t.Fatalf("unexpected alert: %v", nt.titles)
	}

	results.rows = []domain.CheckResult{row("beta", false, 0)}
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(nt.titles) != 1 {
		t.Fatalf("want one down alert, got %v", nt.titles)
	}

	results.rows = []domain.CheckResult{row("beta", true, 80)}
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(nt.titles) != 1 {
		t.Fatalf("recovery disabled, got %v", nt.titles)
	}
}

func TestAlerter_SilentRecoveryKeepsCooldown(t *testing.T) {
	results := &fakeResults{rows: []domain.CheckResult{row("gamma", false, 0)}}
	nt := &memNotifier{}
	al := NewAlerter(zap.NewNop(), results, memory.New(), nt, AlerterConfig{
		AlertOnRecovery: false,
		Cooldown:        time.Hour,
	})
	ctx := context.Background()

	for _, up := range []bool{false, true, false, true, false} {
		results.rows = []domain.CheckResult{row("gamma", up, 0)}
		if err := al.scanOnce(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if len(nt.titles) != 1 {
		t.Fatalf("flapping inside cooldown should alert once, got %v", nt.titles)
	}
}
