package fetch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
)

// privateRanges lists the private and reserved CIDR blocks a fetch must
// never reach. Search results are untrusted input, so a candidate URL
// pointing at the local network is refused outright.
var privateRanges = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var parsedRanges []*net.IPNet

func init() {
	for _, cidr := range privateRanges {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %q: %v", cidr, err))
		}
		parsedRanges = append(parsedRanges, ipnet)
	}
}

// validatePublicURL rejects URLs that are not plain http/https or whose
// host is a literal private IP. Hostname resolution is left to the
// guarded dialer so validation and connection see the same addresses.
func validatePublicURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.NewDomainError("fetch.guard", domain.ErrBlockedURL, fmt.Sprintf("invalid URL: %v", err))
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return domain.NewDomainError("fetch.guard", domain.ErrBlockedURL,
			fmt.Sprintf("scheme %q not allowed", u.Scheme))
	}

	host := u.Hostname()
	if host == "" {
		return domain.NewDomainError("fetch.guard", domain.ErrBlockedURL, "empty hostname")
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return domain.NewDomainError("fetch.guard", domain.ErrBlockedURL,
			fmt.Sprintf("IP %s is private/reserved", ip))
	}
	return nil
}

// isPrivateIP reports whether ip falls inside any blocked range.
func isPrivateIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	for _, ipnet := range parsedRanges {
		if ipnet.Contains(ip) {
			return true
		}
	}
	return false
}

// guardedDialContext resolves the host once, checks every resolved IP,
// and connects directly to a validated address. Validating at dial time
// closes the rebinding window between a lookup and the connect.
func guardedDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup for %s: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, domain.NewDomainError("fetch.guard", domain.ErrBlockedURL,
			fmt.Sprintf("no IPs resolved for %s", host))
	}

	for _, ip := range ips {
		if isPrivateIP(ip.IP) {
			return nil, domain.NewDomainError("fetch.guard", domain.ErrBlockedURL,
				fmt.Sprintf("%s resolves to private IP %s", host, ip.IP))
		}
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
}
