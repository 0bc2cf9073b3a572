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
	"context"
	"testing"
)

func setupStaticSite(t *testing.T) *MockTransport {
	t.Helper()
	mock := NewMockTransport()
	mock.RegisterText("https://example.com/robots.txt",
		"User-agent: *\nSitemap: https://example.com/sitemap_index.xml\n")
	mock.RegisterText("https://example.com/sitemap_index.xml",
		`<?xml version="1.0"?>
<sitemapindex><sitemap><loc>https://example.com/legal-sitemap.xml</loc></sitemap></sitemapindex>`)
	mock.RegisterText("https://example.com/legal-sitemap.xml",
		`<?xml version="1.0"?>
<urlset>
  <url><loc>https://example.com/privacy</loc></url>
  <url><loc>https://example.com/terms</loc></url>
  <url><loc>https://example.com/assets/logo.png</loc></url>
  <url><loc>https://other.com/privacy</loc></url>
</urlset>`)
	mock.RegisterHTML("https://example.com/privacy",
		`<html><body>
<a href="https://example.com/privacy/children">Children</a>
<a href="https://example.com/blog">Blog</a>
</body></html>`)
	return mock
}

func newStaticStrategy(t *testing.T, mock *MockTransport) *StaticStrategy {
	t.Helper()
	fetcher := newTestFetcher(t, mock, func(cfg *Config) { cfg.FetchRetries = 0 })
	filter := newTestFilter(t)
	return NewStaticStrategy(fetcher, filter, fastPolicies(t), nil)
}

func TestStaticDiscover(t *testing.T) {
	s := newStaticStrategy(t, setupStaticSite(t))

	res, err := s.Discover(context.Background(), "https://example.com", 100)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if res.CapHit {
		t.Error("CapHit = true under a generous cap")
	}

	got := make(map[string]bool, res.Count())
	for _, u := range res.URLs {
		got[u] = true
	}
	// The sitemap URLs, the canonical guesses, and the one-level link
	// scan should all contribute.
	for _, want := range []string{
		"https://example.com/privacy",
		"https://example.com/terms",
		"https://example.com/cookie-policy",
		"https://example.com/privacy/children",
	} {
		if !got[want] {
			t.Errorf("missing %s in %v", want, res.URLs)
		}
	}
	for _, reject := range []string{
		"https://example.com/assets/logo.png",
		"https://other.com/privacy",
		"https://example.com/blog",
	} {
		if got[reject] {
			t.Errorf("filtered URL %s leaked into the result", reject)
		}
	}
}

func TestStaticDiscoverCapTruncates(t *testing.T) {
	s := newStaticStrategy(t, setupStaticSite(t))

	res, err := s.Discover(context.Background(), "https://example.com", 3)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if res.Count() != 3 {
		t.Errorf("got %d URLs under cap 3, want exactly 3", res.Count())
	}
	if !res.CapHit {
		t.Error("CapHit = false after truncation")
	}
}

func TestStaticDiscoverSurvivesMissingSite(t *testing.T) {
	// Nothing registered: every fetch 404s. The canonical guesses still
	// come back as candidates; nothing errors.
	s := newStaticStrategy(t, NewMockTransport())

	res, err := s.Discover(context.Background(), "https://example.com", 100)
	if err != nil {
		t.Fatalf("Discover on a dead site: %v", err)
	}
	if res.Count() != len(canonicalSeeds) {
		t.Errorf("got %d URLs, want the %d canonical guesses", res.Count(), len(canonicalSeeds))
	}
}

func TestStaticDiscoverBadRoot(t *testing.T) {
	s := newStaticStrategy(t, NewMockTransport())
	if _, err := s.Discover(context.Background(), "not a url", 10); err == nil {
		t.Error("expected an error for an unparseable root")
	}
}

func TestParseSitemapBoundsURLs(t *testing.T) {
	xml := `<urlset>
<url><loc>https://example.com/a</loc></url>
<url><loc>https://example.com/b</loc></url>
<url><loc>https://example.com/c</loc></url>
</urlset>`
	urls, children := parseSitemap(xml, 2)
	if len(urls) != 2 {
		t.Errorf("got %d URLs, want 2", len(urls))
	}
	if len(children) != 0 {
		t.Errorf("children = %v, want none", children)
	}
}

func TestParseSitemapMalformed(t *testing.T) {
	urls, children := parseSitemap("this is not xml <<<", 10)
	if len(urls) != 0 || len(children) != 0 {
		t.Errorf("malformed sitemap produced %v / %v", urls, children)
	}
}
