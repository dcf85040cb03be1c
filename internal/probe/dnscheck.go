package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNSStatus explains why a connect to a DNS name may have failed.
type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	IPs           []net.IP
	CNAME         string
	HasNS         bool
	Nameservers   []string
	Class         string // "NXDOMAIN" | "NO_A_RECORD" | "RESOLVES" | "SERVFAIL_or_TIMEOUT" | "INVALID_NAME"
	ResolverError string
}

var dnsTimeout = 3 * time.Second

// CheckDNS classifies host using the OS resolver. It only diagnoses; probe
// results never depend on it.
func CheckDNS(host string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(host)}
	if s.Domain == "" || strings.ContainsAny(s.Domain, ":/ ") {
		s.Class = "INVALID_NAME"
		return s
	}

	ctx, cancel := context.WithTimeout(context.Background(), dnsTimeout)
	defer cancel()
	r := &net.Resolver{}

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	switch {
	case err == nil && len(ips) > 0:
		s.HasAOrAAAA = true
		s.IPs = ips
	case err != nil:
		s.ResolverError = err.Error()
	}

	if cname, err := r.LookupCNAME(ctx, s.Domain); err == nil && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}
	if ns, err := r.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		s.HasNS = true
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
	}

	s.Class = classify(s, err)
	return s
}

func classify(s DNSStatus, lookupErr error) string {
	if s.HasAOrAAAA {
		return "RESOLVES"
	}
	if s.HasNS {
		return "NO_A_RECORD"
	}
	var de *net.DNSError
	if errors.As(lookupErr, &de) && (de.IsTemporary || de.Timeout()) {
		return "SERVFAIL_or_TIMEOUT"
	}
	if errors.As(lookupErr, &de) && de.IsNotFound {
		return "NXDOMAIN"
	}
	if s.ResolverError != "" {
		return "SERVFAIL_or_TIMEOUT"
	}
	return "NXDOMAIN"
}
