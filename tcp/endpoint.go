package tcp

import (
	"errors"
	"net/netip"
	"strconv"
	"strings"
)

// Endpoint is a network-layer address, port and optional interface index,
// built on net/netip. This stack supports a single address family shape
// (no support for
// "multi-family address parsing beyond a single network-layer address
// shape"), modeled here as a 128-bit address — the same shape netip.Addr
// gives an IPv6 (or IPv4-in-IPv6) literal.
type Endpoint struct {
	Addr  netip.Addr
	Port  uint16
	Netif uint32 // 0 if unspecified
}

// IsUnspecified reports whether e's address is the all-zero "any" address.
func (e Endpoint) IsUnspecified() bool {
	return !e.Addr.IsValid() || e.Addr.IsUnspecified()
}

var (
	errEndpointSyntax = errors.New("tcp: malformed endpoint string")
)

// ParseEndpoint parses the "[addr%netif]:port" textual form
// ("ep_from_str"): brackets are literal, port is decimal, netif is a
// decimal interface index placed before the closing bracket. Either port
// or netif may be empty, in which case they default to zero.
func ParseEndpoint(s string) (Endpoint, error) {
	if len(s) == 0 || s[0] != '[' {
		return Endpoint{}, errEndpointSyntax
	}
	closeIdx := strings.IndexByte(s, ']')
	if closeIdx < 0 {
		return Endpoint{}, errEndpointSyntax
	}
	inner := s[1:closeIdx]
	rest := s[closeIdx+1:]

	var addrPart, netifPart string
	if pct := strings.IndexByte(inner, '%'); pct >= 0 {
		addrPart, netifPart = inner[:pct], inner[pct+1:]
	} else {
		addrPart = inner
	}

	var ep Endpoint
	if addrPart != "" {
		addr, err := netip.ParseAddr(addrPart)
		if err != nil {
			return Endpoint{}, errEndpointSyntax
		}
		ep.Addr = addr
	}
	if netifPart != "" {
		n, err := strconv.ParseUint(netifPart, 10, 32)
		if err != nil {
			return Endpoint{}, errEndpointSyntax
		}
		ep.Netif = uint32(n)
	}

	if rest != "" {
		if rest[0] != ':' {
			return Endpoint{}, errEndpointSyntax
		}
		rest = rest[1:]
		if rest != "" {
			p, err := strconv.ParseUint(rest, 10, 16)
			if err != nil {
				return Endpoint{}, errEndpointSyntax
			}
			ep.Port = uint16(p)
		}
	}
	return ep, nil
}

// String renders e in the form ParseEndpoint accepts.
func (e Endpoint) String() string {
	var b strings.Builder
	b.WriteByte('[')
	if e.Addr.IsValid() {
		b.WriteString(e.Addr.String())
	}
	if e.Netif != 0 {
		b.WriteByte('%')
		b.WriteString(strconv.FormatUint(uint64(e.Netif), 10))
	}
	b.WriteByte(']')
	if e.Port != 0 {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(e.Port), 10))
	}
	return b.String()
}
