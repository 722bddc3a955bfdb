package router

import (
	"fmt"
	"strings"

	"github.com/latextocalc/latextocalc/pkg/config"
)

// Candidate is one (scheme, host[:port]) combination eligible for an attempt.
type Candidate struct {
	Scheme string
	Host   string
}

// BaseURL returns scheme://host.
func (c Candidate) BaseURL() string {
	return c.Scheme + "://" + c.Host
}

// URL returns the full URL for path on this candidate.
func (c Candidate) URL(path string) string {
	return c.BaseURL() + path
}

func (c Candidate) String() string {
	return c.BaseURL()
}

// Router resolves the configured endpoints into an ordered candidate list.
type Router struct {
	cfg *config.EndpointsConfig
}

// New creates a Router from the given endpoint configuration.
func New(cfg *config.EndpointsConfig) *Router {
	return &Router{cfg: cfg}
}

// Resolve returns every host × scheme combination, primary first.
// Order is host declaration order, then scheme declaration order within a
// host. Duplicate combinations are dropped, keeping the first occurrence.
func (r *Router) Resolve() ([]Candidate, error) {
	if len(r.cfg.Hosts) == 0 {
		return nil, fmt.Errorf("no endpoint hosts configured")
	}
	if len(r.cfg.Schemes) == 0 {
		return nil, fmt.Errorf("no endpoint schemes configured")
	}

	seen := make(map[Candidate]bool)
	var candidates []Candidate
	for _, host := range r.cfg.Hosts {
		host = strings.TrimSpace(host)
		if host == "" {
			continue // skip blank entries
		}
		for _, scheme := range r.cfg.Schemes {
			c := Candidate{Scheme: strings.ToLower(strings.TrimSpace(scheme)), Host: host}
			if seen[c] {
				continue
			}
			seen[c] = true
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("all endpoint hosts are blank")
	}
	return candidates, nil
}

// Split returns the primary candidate and the remaining fallbacks.
func (r *Router) Split() (Candidate, []Candidate, error) {
	all, err := r.Resolve()
	if err != nil {
		return Candidate{}, nil, err
	}
	return all[0], all[1:], nil
}
