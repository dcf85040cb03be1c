package domain

import (
	"encoding/json"
	"time"
)

// Service is an additional port exposed by a server.
type Service struct {
	Port int `json:"port"`
}

// ServerEntry is one managed host from the registry, with key spellings
// already normalized. A zero port means "not set".
type ServerEntry struct {
	Name        string    `json:"name"`
	Host        string    `json:"host"`
	PrimaryPort int       `json:"port,omitempty"`
	Services    []Service `json:"services,omitempty"`
	QueryPort   int       `json:"queryPort,omitempty"`
}

// Registry is the ordered list of servers, loaded fresh per request.
type Registry []ServerEntry

// ProbeResult is what a probe reports back to the caller.
type ProbeResult struct {
	OK     bool     `json:"ok"`
	Port   int      `json:"port,omitempty"`
	Name   string   `json:"name,omitempty"`
	Uptime *float64 `json:"uptime,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// UptimeRecord is the last uptime observed for a host or server name.
// Uptime is nil for placeholders written by a multi-port probe.
type UptimeRecord struct {
	Uptime     *float64
	ObservedAt time.Time
}

type uptimeJSON struct {
	Uptime *float64 `json:"uptime"`
	TS     int64    `json:"ts"` // epoch ms
}

func (u UptimeRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(uptimeJSON{Uptime: u.Uptime, TS: u.ObservedAt.UnixMilli()})
}

func (u *UptimeRecord) UnmarshalJSON(b []byte) error {
	var v uptimeJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	u.Uptime = v.Uptime
	u.ObservedAt = time.UnixMilli(v.TS).UTC()
	return nil
}

// CheckResult is the outcome of one background sweep of a server.
type CheckResult struct {
	Server    string    `json:"server"`
	Host      string    `json:"host"`
	Up        bool      `json:"up"`
	Port      int       `json:"port,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
