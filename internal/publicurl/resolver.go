// Package publicurl works out the externally reachable base URL used in
// ticket links and media attachments.
package publicurl

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultNgrokAPI = "http://127.0.0.1:4040/api/tunnels"
	DefaultFallback = "http://127.0.0.1:8000"
)

// Resolver prefers the configured URL, then an https ngrok tunnel reported
// by the local ngrok agent, then the fallback.
type Resolver struct {
	configured string
	ngrokAPI   string
	fallback   string
	client     *http.Client
}

type Option func(*Resolver)

func WithNgrokAPI(url string) Option {
	return func(r *Resolver) {
		r.ngrokAPI = url
	}
}

func WithFallback(url string) Option {
	return func(r *Resolver) {
		if url != "" {
			r.fallback = strings.TrimRight(url, "/")
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		if c != nil {
			r.client = c
		}
	}
}

func NewResolver(configured string, opts ...Option) *Resolver {
	r := &Resolver{
		configured: strings.TrimRight(strings.TrimSpace(configured), "/"),
		ngrokAPI:   DefaultNgrokAPI,
		fallback:   DefaultFallback,
		client:     &http.Client{Timeout: time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) BaseURL(ctx context.Context) string {
	if r.configured != "" {
		return r.configured
	}
	if u := r.ngrokTunnel(ctx); u != "" {
		return u
	}
	return r.fallback
}

type tunnelList struct {
	Tunnels []struct {
		Proto     string `json:"proto"`
		PublicURL string `json:"public_url"`
	} `json:"tunnels"`
}

func (r *Resolver) ngrokTunnel(ctx context.Context) string {
	if r.ngrokAPI == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.ngrokAPI, nil)
	if err != nil {
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var list tunnelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return ""
	}
	for _, t := range list.Tunnels {
		if t.Proto == "https" && t.PublicURL != "" {
			return strings.TrimRight(t.PublicURL, "/")
		}
	}
	return ""
}
