// Package geoip handles downloading, updating, and reading MaxMind GeoLite2
// databases, and resolves fleet addresses to country codes.
package geoip

import (
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Provider wraps the GeoIP2 reader. Fleet entries are usually hostnames, so
// lookups resolve DNS first; results are cached since the fleet is small and
// servers rarely move.
type Provider struct {
	db    *geoip2.Reader
	cache map[string]string
	mu    sync.Mutex
}

// Open initializes the GeoIP database reader from a specific file path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db, cache: make(map[string]string)}, nil
}

// Close closes the underlying GeoIP database reader.
func (p *Provider) Close() error {
	return p.db.Close()
}

// CountryCode looks up the ISO country code (e.g. "US", "DE") for a server
// address, resolving hostnames to their first IP. It returns an empty string
// if the address cannot be resolved or located.
func (p *Provider) CountryCode(address string) string {
	p.mu.Lock()
	if code, ok := p.cache[address]; ok {
		p.mu.Unlock()
		return code
	}
	p.mu.Unlock()

	code := p.lookup(address)

	p.mu.Lock()
	p.cache[address] = code
	p.mu.Unlock()

	return code
}

func (p *Provider) lookup(address string) string {
	ip := net.ParseIP(address)
	if ip == nil {
		ips, err := net.LookupIP(address)
		if err != nil || len(ips) == 0 {
			return ""
		}
		ip = ips[0]
	}

	record, err := p.db.Country(ip)
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}
