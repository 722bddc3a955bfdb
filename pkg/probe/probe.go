// Package probe checks general internet reachability so that a total
// dispatch failure can be reported as "no internet" or "server down".
package probe

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"
)

// DefaultURL is a stable endpoint unrelated to the translation service.
const DefaultURL = "https://clients3.google.com/generate_204"

// Prober performs a single unauthenticated GET with no retry.
type Prober struct {
	url    string
	client *resty.Client
	logger *slog.Logger
}

// New creates a Prober for url. A nil client gets a default resty client.
func New(url string, client *resty.Client, logger *slog.Logger) *Prober {
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		client = resty.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{url: url, client: client, logger: logger}
}

// Probe reports whether the probe URL answered with any HTTP response.
// It applies no timeout of its own; ctx bounds the call.
func (p *Prober) Probe(ctx context.Context) bool {
	resp, err := p.client.R().SetContext(ctx).Get(p.url)
	if err != nil {
		p.logger.Debug("connectivity probe failed", "url", p.url, "error", err)
		return false
	}
	p.logger.Debug("connectivity probe answered", "url", p.url, "status", resp.StatusCode())
	return true
}
