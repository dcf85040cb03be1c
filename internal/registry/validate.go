package registry

import (
	"fmt"

	"github.com/hamed0406/serverprobe/internal/domain"
)

// ByName returns the first entry whose name equals name.
func ByName(reg domain.Registry, name string) (domain.ServerEntry, error) {
	if name != "" {
		for _, e := range reg {
			if e.Name == name {
				return e, nil
			}
		}
	}
	return domain.ServerEntry{}, fmt.Errorf("%w: %q", domain.ErrTargetNotFound, name)
}

// ByHost returns the first entry with the given host, or nil. Absence is
// not an error: multi-port probing falls back to the common ports.
func ByHost(reg domain.Registry, host string) *domain.ServerEntry {
	for i := range reg {
		if reg[i].Host == host {
			e := reg[i]
			return &e
		}
	}
	return nil
}

// Allows reports whether host:port is listed, either as an entry's primary
// port or as one of its service ports.
func Allows(reg domain.Registry, host string, port int) error {
	if host != "" && ValidPort(port) {
		for _, e := range reg {
			if e.Host != host {
				continue
			}
			if e.PrimaryPort == port {
				return nil
			}
			for _, s := range e.Services {
				if s.Port == port {
					return nil
				}
			}
		}
	}
	return fmt.Errorf("%w: %s:%d", domain.ErrTargetNotAllowed, host, port)
}

// NameForHost returns the name of the first named entry with host.
func NameForHost(reg domain.Registry, host string) string {
	for _, e := range reg {
		if e.Host == host && e.Name != "" {
			return e.Name
		}
	}
	return ""
}
