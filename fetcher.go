// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package docsnake

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agentberlin/docsnake/internal/policy"
)

// Fetcher performs polite, bounded HTTP fetches for the discovery
// strategies. It enforces a minimum inter-request interval per host and
// retries transient failures through the injected Backoff policy. Safe
// for concurrent use by independent root workers.
type Fetcher struct {
	client    *http.Client
	policies  *policy.Store
	userAgent string
	timeout   time.Duration
	delay     time.Duration
	retries   int

	mu      sync.Mutex
	lastHit map[string]time.Time
}

// NewFetcher builds a fetcher from the engine config. transport may be
// nil for the default; tests inject a MockTransport.
func NewFetcher(cfg Config, policies *policy.Store, transport http.RoundTripper) *Fetcher {
	client := &http.Client{}
	if transport != nil {
		client.Transport = transport
	}
	return &Fetcher{
		client:    client,
		policies:  policies,
		userAgent: cfg.UserAgent,
		timeout:   cfg.FetchTimeout,
		delay:     cfg.Politeness,
		retries:   cfg.FetchRetries,
	}
}

// FetchText fetches a URL and returns its body and HTTP status.
// Transient failures (network errors, 429/503/5xx) are retried with
// backoff; after retries are exhausted the last status is returned with
// an empty body and a nil error — discovery treats "no data" as a
// skippable condition, not a fatal one. Gzipped payloads (compressed
// sitemaps) are transparently decompressed.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, int, error) {
	if rawURL == "" {
		return "", 0, ErrMissingURL
	}
	low := strings.ToLower(rawURL)
	if !strings.HasPrefix(low, "http://") && !strings.HasPrefix(low, "https://") {
		return "", 0, ErrBadScheme
	}
	host := hostOf(rawURL)
	if host == "" {
		return "", 0, ErrBadScheme
	}
	backoff := BackoffFromPolicy(f.policies.Get(host))

	var lastStatus int
	for attempt := 0; ; attempt++ {
		if err := f.waitPoliteness(ctx, host); err != nil {
			return "", 0, err
		}

		body, status, err := f.fetchOnce(ctx, rawURL)
		if err == nil && !Retryable(status) {
			return body, status, nil
		}
		if err != nil {
			status = 0
		}
		lastStatus = status

		if attempt >= f.retries {
			break
		}
		select {
		case <-time.After(backoff.Delay(attempt+1, status)):
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}
	return "", lastStatus, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml,text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	data = maybeGunzip(rawURL, resp.Header.Get("Content-Type"), data)
	return string(data), resp.StatusCode, nil
}

// waitPoliteness blocks until the per-host minimum interval since the
// previous request has elapsed, then claims the next slot.
func (f *Fetcher) waitPoliteness(ctx context.Context, host string) error {
	if f.delay <= 0 {
		return nil
	}
	f.mu.Lock()
	if f.lastHit == nil {
		f.lastHit = make(map[string]time.Time)
	}
	now := time.Now()
	next := f.lastHit[host].Add(f.delay)
	if next.Before(now) {
		next = now
	}
	f.lastHit[host] = next
	f.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var gzipMagic = []byte{0x1f, 0x8b}

// maybeGunzip decompresses gzipped payloads that arrived without
// transparent decoding, which happens with pre-compressed sitemap files
// served as application/gzip or fetched by extension (.xml.gz).
func maybeGunzip(rawURL, contentType string, data []byte) []byte {
	if !bytes.HasPrefix(data, gzipMagic) {
		return data
	}
	if !strings.HasSuffix(strings.ToLower(rawURL), ".gz") &&
		!strings.Contains(strings.ToLower(contentType), "gzip") {
		return data
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return data
	}
	return out
}
