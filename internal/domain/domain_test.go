package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUptimeRecord_JSONShape(t *testing.T) {
	up := 123.0
	rec := UptimeRecord{Uptime: &up, ObservedAt: time.UnixMilli(1_700_000_000_123)}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"uptime":123,"ts":1700000000123}` {
		t.Fatalf("unexpected json: %s", b)
	}

	var got UptimeRecord
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Uptime == nil || *got.Uptime != 123 || got.ObservedAt.UnixMilli() != 1_700_000_000_123 {
		t.Fatalf("mismatch: %+v", got)
	}
}

func TestUptimeRecord_PlaceholderIsNull(t *testing.T) {
	b, err := json.Marshal(UptimeRecord{ObservedAt: time.UnixMilli(5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"uptime":null,"ts":5}` {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestProbeResult_OmitsEmptyFields(t *testing.T) {
	b, _ := json.Marshal(ProbeResult{OK: true})
	if string(b) != `{"ok":true}` {
		t.Fatalf("unexpected json: %s", b)
	}
	b, _ = json.Marshal(ProbeResult{OK: false, Reason: "timeout"})
	if string(b) != `{"ok":false,"reason":"timeout"}` {
		t.Fatalf("unexpected json: %s", b)
	}
}
