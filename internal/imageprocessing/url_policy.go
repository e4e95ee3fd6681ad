package imageprocessing

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/rmitchellscott/bayerlab/internal/config"
)

var privateIPRanges = []*net.IPNet{
	// RFC 1918
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
	// RFC 3927 link-local
	mustParseCIDR("169.254.0.0/16"),
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("0.0.0.0/8"),
	mustParseCIDR("::1/128"),
	mustParseCIDR("fe80::/10"),
	// IPv6 unique local
	mustParseCIDR("fc00::/7"),
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse CIDR %s: %v", cidr, err))
	}
	return ipNet
}

// URLPolicy limits where remote images may be fetched from
type URLPolicy struct {
	BlockPrivateIPs bool
	BlockedDomains  []string
	MaxBytes        int64 // 0 means unlimited
}

// URLPolicyFromEnv reads BLOCK_PRIVATE_IPS and BLOCKED_DOMAINS
func URLPolicyFromEnv() URLPolicy {
	var blocked []string
	for _, domain := range strings.Split(config.Get("BLOCKED_DOMAINS", ""), ",") {
		if domain = strings.ToLower(strings.TrimSpace(domain)); domain != "" {
			blocked = append(blocked, domain)
		}
	}

	return URLPolicy{
		BlockPrivateIPs: config.GetBool("BLOCK_PRIVATE_IPS", false),
		BlockedDomains:  blocked,
	}
}

// Validate checks scheme, host and the domain blocklist. Private addresses
// are checked again when connecting, so a name that later resolves
// elsewhere is still refused.
func (p URLPolicy) Validate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", parsed.Scheme)
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return fmt.Errorf("URL missing hostname")
	}

	for _, blocked := range p.BlockedDomains {
		if hostname == blocked || strings.HasSuffix(hostname, "."+blocked) {
			return fmt.Errorf("domain %s is blocked", hostname)
		}
	}

	if p.BlockPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("private IP address %s is blocked", ip)
		}
	}
	return nil
}

func (p URLPolicy) client(timeout time.Duration) *http.Client {
	if !p.BlockPrivateIPs {
		return &http.Client{Timeout: timeout}
	}

	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
				return fmt.Errorf("private IP address %s is blocked", ip)
			}
			return nil
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	return &http.Client{Timeout: timeout, Transport: transport}
}

func isPrivateIP(ip net.IP) bool {
	for _, r := range privateIPRanges {
		if r.Contains(ip) {
			return true
		}
	}
	return false
}
