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
	"net/url"
	"regexp"
	"strings"

	"github.com/agentberlin/docsnake/internal/policy"
)

// legalHintsRe keeps only pages that look like legal/policy/safety
// documents. Bare "ads" is deliberately absent (too broad); only
// ad-policy variants match.
var legalHintsRe = regexp.MustCompile(`(?i)(privacy|cookie(?:s|-policy)?|polic(?:y|ies)|legal|terms(?:-of-service)?|conditions|community[- ]?guidelines?|safety|moderation|consent|retention|deletion|erasure|gdpr|ccpa|coppa|child(?:ren)?|minors?|ad[- ]?polic(?:y|ies))`)

// blockExtRe hard-blocks asset files. PDF is exempt: plenty of legal
// documents are published only as PDFs.
var blockExtRe = regexp.MustCompile(`(?i)\.(?:png|jpe?g|gif|webp|svg|ico|css|js|mjs|map|woff2?|ttf|otf|eot|mp4|mov|avi|mkv|mp3|wav|flac|zip|tar|gz|rar|7z)$`)

var allowExtRe = regexp.MustCompile(`(?i)\.pdf$`)

// noisePathRe rejects generic framework/asset directories.
var noisePathRe = regexp.MustCompile(`(?i)/(_next/|static/|assets?/|images?/|fonts?/|~gitbook/)`)

// Filter is the pure keep/drop predicate applied to every candidate
// URL before it enters the frontier. It holds no I/O state and is safe
// for concurrent use.
type Filter struct {
	policies *policy.Store
}

// NewFilter returns a filter backed by the given policy store.
func NewFilter(policies *policy.Store) *Filter {
	return &Filter{policies: policies}
}

// Keep decides whether a URL discovered under rootHost belongs in the
// frontier. Rules apply in fixed order, first match wins:
//
//  1. parseable http(s) URLs only
//  2. asset extensions blocked (PDF exempt)
//  3. generic noise directories blocked
//  4. host must be the root, a subdomain, or cross-domain allowlisted
//  5. host-specific deny substrings
//  6. host-specific path allowlist (hosts without one pass through)
//  7. the URL must carry a legal-content keyword
//
// Fragments are stripped before matching; query strings are kept, since
// locale parameters can distinguish legally distinct documents.
func (f *Filter) Keep(rawURL, rootHost string) bool {
	if rawURL == "" {
		return false
	}
	rawURL = SanitizeURL(rawURL)
	low := strings.ToLower(rawURL)
	if !strings.HasPrefix(low, "http://") && !strings.HasPrefix(low, "https://") {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	u.Fragment = ""
	u.RawFragment = ""
	clean := u.String()

	if blockExtRe.MatchString(u.Path) && !allowExtRe.MatchString(u.Path) {
		return false
	}

	if noisePathRe.MatchString(u.Path) {
		return false
	}

	target := strings.ToLower(u.Hostname())
	rootPolicy := f.policies.Get(rootHost)
	// Compare with "www." collapsed on both sides so a root given as
	// www.example.com still owns example.com and its subdomains.
	targetBare := strings.TrimPrefix(target, "www.")
	rootBare := strings.TrimPrefix(strings.ToLower(rootHost), "www.")
	if !sameOrSubdomain(targetBare, rootBare) && !rootPolicy.CrossAllowed(target) {
		return false
	}

	targetPolicy := f.policies.Get(target)
	if targetPolicy.DeniedURL(clean) {
		return false
	}

	if !targetPolicy.PathAllowed(u.Path) {
		return false
	}

	return legalHintsRe.MatchString(clean)
}

// KeepAll filters a batch, preserving order and dropping duplicates.
func (f *Filter) KeepAll(urls []string, rootHost string) []string {
	var out []string
	for _, u := range urls {
		if f.Keep(u, rootHost) {
			out = append(out, SanitizeURL(u))
		}
	}
	return uniqPreserve(out)
}
