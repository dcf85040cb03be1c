package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxHealthBody = 64 << 10

var errNoUptime = errors.New("health response has no numeric uptime")

// HealthChecker fetches GET /health and extracts a numeric "uptime" field.
type HealthChecker struct {
	Client *http.Client
	Path   string
}

func NewHealthChecker(timeout time.Duration) *HealthChecker {
	return &HealthChecker{
		Client: &http.Client{
			Timeout: timeout,
			// one GET only; a redirect answer is parsed as the health body
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Path: "/health",
	}
}

// Fetch returns the reported uptime. The status code is ignored; only the
// body decides.
func (h *HealthChecker) Fetch(ctx context.Context, scheme, host string, port int) (float64, error) {
	url := fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(host, strconv.Itoa(port)), h.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHealthBody))
	if err != nil {
		return 0, err
	}
	return ParseUptime(body)
}

// ParseUptime reads {"uptime": N} where N is a JSON number or a numeric
// string. The key match is exact, the body must be a single JSON document,
// and NaN and infinities are rejected.
func ParseUptime(body []byte) (float64, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode health body: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return 0, errors.New("decode health body: trailing data")
	}

	var (
		v   float64
		err error
	)
	switch u := payload["uptime"].(type) {
	case json.Number:
		v, err = u.Float64()
	case string:
		v, err = strconv.ParseFloat(strings.TrimSpace(u), 64)
	default:
		return 0, errNoUptime
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNoUptime
	}
	return v, nil
}
