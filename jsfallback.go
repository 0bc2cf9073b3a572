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

	"github.com/charmbracelet/log"

	"github.com/agentberlin/docsnake/internal/store"
)

// JSFallbackStrategy is the cheap substitute for a headless browser:
// it re-fetches the root page and the canonical path guesses and scans
// the raw HTML for links. Sites that render their footer server-side
// but failed sitemap discovery often yield here.
type JSFallbackStrategy struct {
	fetcher *Fetcher
	filter  *Filter
	logger  *log.Logger
}

// NewJSFallbackStrategy wires the JS fallback strategy.
func NewJSFallbackStrategy(fetcher *Fetcher, filter *Filter, logger *log.Logger) *JSFallbackStrategy {
	if logger == nil {
		logger = log.Default()
	}
	return &JSFallbackStrategy{fetcher: fetcher, filter: filter, logger: logger}
}

// Name implements Strategy.
func (s *JSFallbackStrategy) Name() string { return store.StrategyJSFallback }

// Discover implements Strategy.
func (s *JSFallbackStrategy) Discover(ctx context.Context, root string, cap int) (Result, error) {
	root = strings.TrimSuffix(root, "/")
	host := hostOf(root)
	if host == "" {
		return Result{}, ErrBadScheme
	}

	pages := []string{root}
	for _, p := range canonicalSeeds {
		pages = append(pages, root+p)
	}

	col := newCollector(cap)
	for _, page := range uniqPreserve(pages) {
		if ctx.Err() != nil {
			return col.result(), ctx.Err()
		}
		body, status, err := s.fetcher.FetchText(ctx, page)
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
