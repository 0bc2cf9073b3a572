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
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/charmbracelet/log"
	"github.com/temoto/robotstxt"

	"github.com/agentberlin/docsnake/internal/policy"
	"github.com/agentberlin/docsnake/internal/store"
)

// canonicalSeeds are well-known paths that host legal documents. They
// are probed on every root regardless of what the sitemaps say.
var canonicalSeeds = []string{
	"/privacy", "/privacy/policy",
	"/policy", "/policies",
	"/legal", "/legal/privacy-policy",
	"/terms", "/terms-of-service",
	"/cookies", "/cookie-policy",
	"/help/terms", "/help/privacy",
}

// StaticStrategy is the cheapest rung of the escalation ladder:
// robots.txt sitemap lines, default sitemap locations, canonical path
// guesses, then exactly one level of on-page link scanning over the
// surviving seeds. It never recurses past that first level.
type StaticStrategy struct {
	fetcher  *Fetcher
	filter   *Filter
	policies *policy.Store
	logger   *log.Logger
}

// NewStaticStrategy wires the static strategy.
func NewStaticStrategy(fetcher *Fetcher, filter *Filter, policies *policy.Store, logger *log.Logger) *StaticStrategy {
	if logger == nil {
		logger = log.Default()
	}
	return &StaticStrategy{fetcher: fetcher, filter: filter, policies: policies, logger: logger}
}

// Name implements Strategy.
func (s *StaticStrategy) Name() string { return store.StrategyStatic }

// Discover implements Strategy.
func (s *StaticStrategy) Discover(ctx context.Context, root string, cap int) (Result, error) {
	root = strings.TrimSuffix(root, "/")
	host := hostOf(root)
	if host == "" {
		return Result{}, ErrBadScheme
	}

	seeds := s.sitemapSeeds(ctx, root, host, cap)
	for _, p := range canonicalSeeds {
		seeds = append(seeds, root+p)
	}
	seeds = s.filter.KeepAll(seeds, host)

	// One level of page scanning: each surviving seed page is fetched
	// once and its literal links harvested. No recursion past this.
	col := newCollector(cap)
	for _, seed := range seeds {
		if !col.add(seed) {
			break
		}
		if ctx.Err() != nil {
			return col.result(), ctx.Err()
		}
		body, status, err := s.fetcher.FetchText(ctx, seed)
		if err != nil || status != 200 || body == "" {
			continue
		}
		for _, link := range ScanAbsoluteLinks(body) {
			if s.filter.Keep(link, host) && !col.add(SanitizeURL(link)) {
				break
			}
		}
		if col.full() {
			break
		}
	}
	return col.result(), nil
}

// sitemapSeeds gathers up to max raw URLs out of the root's sitemaps:
// robots.txt Sitemap lines, the default /sitemap.xml and
// /sitemap_index.xml locations, and any policy-configured hints.
// Sitemap indexes are followed one level down.
func (s *StaticStrategy) sitemapSeeds(ctx context.Context, root, host string, max int) []string {
	candidates := s.sitemapCandidates(ctx, root, host)

	var seeds []string
	var children []string
	for _, sm := range uniqPreserve(candidates) {
		if len(seeds) >= max {
			break
		}
		urls, more := s.parseSitemapAt(ctx, sm, max-len(seeds))
		seeds = append(seeds, urls...)
		children = append(children, more...)
	}
	for _, sm := range uniqPreserve(children) {
		if len(seeds) >= max {
			break
		}
		urls, _ := s.parseSitemapAt(ctx, sm, max-len(seeds))
		seeds = append(seeds, urls...)
	}
	return seeds
}

// sitemapCandidates lists the sitemap URLs worth probing for a root.
func (s *StaticStrategy) sitemapCandidates(ctx context.Context, root, host string) []string {
	var candidates []string

	body, status, err := s.fetcher.FetchText(ctx, root+"/robots.txt")
	if err == nil && status == 200 && body != "" {
		if robots, err := robotstxt.FromString(body); err == nil {
			for _, sm := range robots.Sitemaps {
				if sm = SanitizeURL(sm); sm != "" {
					candidates = append(candidates, sm)
				}
			}
		}
	}

	candidates = append(candidates, root+"/sitemap.xml", root+"/sitemap_index.xml")
	candidates = append(candidates, s.policies.Get(host).Discovery.SitemapHints...)
	return candidates
}

// parseSitemapAt fetches and parses one sitemap document, returning at
// most max page URLs plus any child sitemap locations (for indexes).
func (s *StaticStrategy) parseSitemapAt(ctx context.Context, sitemapURL string, max int) (urls, children []string) {
	body, status, err := s.fetcher.FetchText(ctx, sitemapURL)
	if err != nil || status != 200 || body == "" {
		return nil, nil
	}
	return parseSitemap(body, max)
}

// parseSitemap extracts page URLs and child sitemap locations from
// sitemap XML. Malformed XML yields nothing rather than an error: a
// broken sitemap must not abort the root's discovery pass.
func parseSitemap(xmlText string, max int) (urls, children []string) {
	doc, err := xmlquery.Parse(strings.NewReader(xmlText))
	if err != nil {
		return nil, nil
	}
	for _, n := range xmlquery.Find(doc, "//url/loc") {
		if len(urls) >= max {
			break
		}
		if loc := SanitizeURL(n.InnerText()); loc != "" {
			urls = append(urls, loc)
		}
	}
	for _, n := range xmlquery.Find(doc, "//sitemap/loc") {
		if loc := SanitizeURL(n.InnerText()); loc != "" {
			children = append(children, loc)
		}
	}
	return urls, children
}
