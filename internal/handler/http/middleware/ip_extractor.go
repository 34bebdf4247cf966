// Package middleware provides client IP extraction for the request
// guard. Per-IP rate limit keys are only as trustworthy as the IP they
// are derived from, so header-based extraction is opt-in and gated on
// an allow-list of proxy addresses; everything else falls back to the
// TCP peer address, which a client cannot forge.
package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"
)

// IPExtractor resolves the client IP a request should be rate limited
// under.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor uses the TCP peer address and ignores all proxy
// headers. This is the default: correct whenever the service is
// reached directly, and never spoofable.
type RemoteAddrExtractor struct{}

func (e *RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return hostOnly(r.RemoteAddr)
}

// TrustedProxyConfig is the allow-list of reverse proxies whose
// X-Forwarded-For / X-Real-IP headers may be believed.
type TrustedProxyConfig struct {
	Enabled      bool
	AllowedCIDRs []netip.Prefix
}

// IsTrusted reports whether remoteAddr (in "IP:port" or bare IP form)
// falls inside any allowed CIDR. Unparseable addresses are untrusted.
func (c *TrustedProxyConfig) IsTrusted(remoteAddr string) bool {
	host, err := hostOnly(remoteAddr)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	for _, prefix := range c.AllowedCIDRs {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// LoadTrustedProxyConfig reads RATE_LIMIT_TRUST_PROXY and
// RATE_LIMIT_TRUSTED_PROXIES (comma-separated IPs or CIDRs; bare IPs
// become /32 or /128). Enabling trust with an empty or invalid proxy
// list is a startup error: a half-configured allow-list must not
// silently degrade to trusting nobody or everybody.
func LoadTrustedProxyConfig() (*TrustedProxyConfig, error) {
	cfg := &TrustedProxyConfig{
		Enabled:      os.Getenv("RATE_LIMIT_TRUST_PROXY") == "true",
		AllowedCIDRs: []netip.Prefix{},
	}
	if !cfg.Enabled {
		return cfg, nil
	}

	raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_TRUSTED_PROXIES"))
	if raw == "" {
		return nil, fmt.Errorf("RATE_LIMIT_TRUST_PROXY is enabled but RATE_LIMIT_TRUSTED_PROXIES is empty")
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			addr, addrErr := netip.ParseAddr(entry)
			if addrErr != nil {
				return nil, fmt.Errorf("invalid IP or CIDR format '%s': must be valid IP address or CIDR notation (e.g., '192.168.1.1' or '10.0.0.0/8')", entry)
			}
			bits := 32
			if !addr.Is4() {
				bits = 128
			}
			prefix = netip.PrefixFrom(addr, bits)
		}
		cfg.AllowedCIDRs = append(cfg.AllowedCIDRs, prefix)
	}

	if len(cfg.AllowedCIDRs) == 0 {
		return nil, fmt.Errorf("RATE_LIMIT_TRUST_PROXY is enabled but no valid proxies found in RATE_LIMIT_TRUSTED_PROXIES")
	}
	return cfg, nil
}

// TrustedProxyExtractor believes forwarding headers only when the
// direct peer is on the allow-list. Header precedence for a trusted
// peer: first X-Forwarded-For entry, then X-Real-IP, then the peer
// address. An untrusted peer presenting forwarding headers is logged
// and keyed by its own address, which defeats header-rotation attempts
// against the per-IP limit.
type TrustedProxyExtractor struct {
	config TrustedProxyConfig
}

func NewTrustedProxyExtractor(config TrustedProxyConfig) *TrustedProxyExtractor {
	return &TrustedProxyExtractor{config: config}
}

func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	if !e.config.Enabled {
		return hostOnly(r.RemoteAddr)
	}

	if !e.config.IsTrusted(r.RemoteAddr) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			slog.Warn("untrusted proxy attempting to set X-Forwarded-For",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("x_forwarded_for", xff),
			)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			slog.Warn("untrusted proxy attempting to set X-Real-IP",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("x_real_ip", xri),
			)
		}
		return hostOnly(r.RemoteAddr)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := firstForwardedIP(xff); ip != "" {
			return ip, nil
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String(), nil
		}
	}
	return hostOnly(r.RemoteAddr)
}

// hostOnly strips the port from "IP:port" or "[v6]:port"; a bare IP is
// returned as-is.
func hostOnly(addr string) (string, error) {
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		return host, nil
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String(), nil
	}
	return "", fmt.Errorf("invalid address format: %s", addr)
}

// firstForwardedIP returns the leftmost entry of an X-Forwarded-For
// list ("client, proxy1, proxy2") if it parses as an IP, else "".
func firstForwardedIP(header string) string {
	first, _, _ := strings.Cut(header, ",")
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return ""
}
