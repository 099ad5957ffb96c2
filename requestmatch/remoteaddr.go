package requestmatch

import (
	"net"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ResolveRemoteAddr computes the client IP for peerAddr (the raw socket
// peer address, "host" or "host:port"), trusting the Forwarded and
// X-Forwarded-For headers only when peerAddr itself falls inside one of
// trustedProxies. Walks the forwarded chain from the end (the hop nearest
// this process) outward, skipping entries that are themselves trusted
// proxies, and returns the first one that is not; if every entry is
// trusted or unparseable, it returns the peer IP. An unparseable forwarded
// entry is logged and skipped; an unparseable peerAddr is logged and nil
// is returned. It never panics.
func ResolveRemoteAddr(peerAddr string, headers []Header, trustedProxies []*net.IPNet) net.IP {
	host := peerAddr
	if h, _, err := net.SplitHostPort(peerAddr); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		log.WithField("remoteAddr", peerAddr).Warn("failed to parse remote address")
		return nil
	}

	if !isTrusted(ip, trustedProxies) {
		return ip
	}

	chain := forwardedChain(headers)
	for i := len(chain) - 1; i >= 0; i-- {
		candidate := net.ParseIP(chain[i])
		if candidate == nil {
			log.WithField("forwardedFor", chain[i]).Warn("failed to parse forwarded-for entry")
			continue
		}
		if !isTrusted(candidate, trustedProxies) {
			return candidate
		}
	}

	return ip
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// forwardedChain extracts the ordered (left-to-right, original client
// first) list of addresses from the Forwarded header (RFC 7239, "for="
// tokens only) if present, else from X-Forwarded-For.
func forwardedChain(headers []Header) []string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, "Forwarded") {
			return parseForwarded(h.Value)
		}
	}
	for _, h := range headers {
		if strings.EqualFold(h.Name, "X-Forwarded-For") {
			return splitAndTrim(h.Value)
		}
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseForwarded(s string) []string {
	var out []string
	for _, elem := range strings.Split(s, ",") {
		for _, kv := range strings.Split(elem, ";") {
			kv = strings.TrimSpace(kv)
			const prefix = "for="
			if len(kv) > len(prefix) && strings.EqualFold(kv[:len(prefix)], prefix) {
				v := strings.Trim(kv[len(prefix):], `"`)
				v = strings.TrimPrefix(v, "[")
				if i := strings.LastIndexByte(v, ']'); i >= 0 {
					v = v[:i]
				} else if i := strings.LastIndexByte(v, ':'); i >= 0 && strings.Count(v, ":") == 1 {
					v = v[:i]
				}
				out = append(out, v)
			}
		}
	}
	return out
}
