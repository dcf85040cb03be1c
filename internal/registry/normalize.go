package registry

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/hamed0406/serverprobe/internal/domain"
)

// Accepted key spellings, first non-empty wins.
var (
	serversKeys   = []string{"Servers", "servers"}
	hostKeys      = []string{"IP", "ip", "Host", "host"}
	nameKeys      = []string{"Server Name", "name", "Name"}
	portKeys      = []string{"Port", "port"}
	servicesKeys  = []string{"Services", "services"}
	queryPortKeys = []string{"QueryPort", "queryPort"}
)

// Normalize maps a decoded registry document onto canonical entries.
// Anything that is not shaped like a server list yields an empty registry.
func Normalize(doc any) domain.Registry {
	top, ok := doc.(map[string]any)
	if !ok {
		return domain.Registry{}
	}
	list, ok := lookup(top, serversKeys).([]any)
	if !ok {
		return domain.Registry{}
	}

	reg := make(domain.Registry, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		reg = append(reg, normalizeEntry(m))
	}
	return reg
}

func normalizeEntry(m map[string]any) domain.ServerEntry {
	e := domain.ServerEntry{
		Name:        lookupString(m, nameKeys),
		Host:        lookupString(m, hostKeys),
		PrimaryPort: ToPort(lookup(m, portKeys)),
		QueryPort:   ToPort(lookup(m, queryPortKeys)),
	}
	if svcs, ok := lookup(m, servicesKeys).([]any); ok {
		for _, s := range svcs {
			sm, ok := s.(map[string]any)
			if !ok {
				continue
			}
			e.Services = append(e.Services, domain.Service{Port: ToPort(lookup(sm, portKeys))})
		}
	}
	return e
}

func lookup(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

func lookupString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ToPort coerces a decoded value (number or numeric string) to a TCP port.
// Non-integral or out-of-range values return 0.
func ToPort(v any) int {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = x
	default:
		return 0
	}
	if f != math.Trunc(f) || f < 1 || f > 65535 {
		return 0
	}
	return int(f)
}

// ValidPort reports whether p is a usable TCP port number.
func ValidPort(p int) bool {
	return p > 0 && p <= 65535
}
