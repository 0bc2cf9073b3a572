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

// Package policy defines per-host crawl and normalization rules for the
// legal-document discovery pipeline. Policies are loaded once from YAML
// files into an immutable Store and passed around as a plain dependency.
package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Normalization controls how a URL is reduced to its canonical form.
type Normalization struct {
	// StripParams lists query parameter names to remove before
	// canonicalization. Wildcard suffixes are supported (e.g. "utm_*").
	StripParams []string `yaml:"strip_params"`
	// CollapseWWW removes a leading "www." from the host.
	CollapseWWW bool `yaml:"collapse_www"`
	// DropFragments removes the URL fragment. Defaults to true.
	DropFragments bool `yaml:"drop_fragments"`
	// StripDefaultPort removes :80 / :443 for the matching scheme.
	StripDefaultPort bool `yaml:"strip_default_port"`
	// PathAllowPrefixes restricts discovery to paths matching at least
	// one of these regexes. Empty means no restriction.
	PathAllowPrefixes []string `yaml:"path_allow_prefixes"`
	// PathDenyRegexes rejects any path matching one of these regexes.
	PathDenyRegexes []string `yaml:"path_deny_regexes"`
}

// Discovery carries per-host overrides for the discovery strategies.
type Discovery struct {
	// StaticMax overrides the engine-wide per-root cap (0 = no override).
	StaticMax int `yaml:"static_max"`
	// DynMax overrides the engine-wide high-cap retry ceiling.
	DynMax int `yaml:"dyn_max"`
	// SitemapHints lists extra sitemap URLs to probe for this host.
	SitemapHints []string `yaml:"sitemap_hints"`
}

// Backoff describes the retry pacing applied by the fetcher when this
// host responds with a transient status.
type Backoff struct {
	BaseSeconds     float64 `yaml:"base_seconds"`
	JitterSeconds   float64 `yaml:"jitter_seconds"`
	On429Multiplier float64 `yaml:"on_429_multiplier"`
}

// HostPolicy is the full per-host rule set. The zero value plus
// Defaults() is the identity policy used for hosts without a YAML file.
type HostPolicy struct {
	// Host is the policy key, e.g. "youtube.com". Subdomains of Host
	// resolve to this policy unless a more specific one exists.
	Host    string   `yaml:"host"`
	Aliases []string `yaml:"aliases"`

	Normalization Normalization `yaml:"normalization"`
	Discovery     Discovery     `yaml:"discovery"`
	Backoff       Backoff       `yaml:"backoff"`

	// CrossDomainAllow lists foreign hosts whose URLs count as "owned"
	// by this root (e.g. policies.google.com for youtube.com).
	CrossDomainAllow []string `yaml:"cross_domain_allow"`
	// DenySubstrings rejects any URL containing one of these substrings
	// (login funnels, search results, redirect traps).
	DenySubstrings []string `yaml:"deny_substrings"`

	// compiled state, populated by compile()
	allowRe  []*regexp.Regexp
	denyRe   []*regexp.Regexp
	stripGlb []glob.Glob
	identity bool
}

// DefaultPolicy returns the identity policy applied to hosts that have
// no explicit YAML file: collapse www, drop fragments, strip nothing.
func DefaultPolicy() *HostPolicy {
	p := &HostPolicy{
		Host: "default",
		Normalization: Normalization{
			CollapseWWW:      true,
			DropFragments:    true,
			StripDefaultPort: true,
		},
		Backoff: Backoff{
			BaseSeconds:     0.3,
			On429Multiplier: 2.0,
		},
		identity: true,
	}
	if err := p.compile(); err != nil {
		// no patterns to compile on the default policy
		panic(err)
	}
	return p
}

// IsDefault reports whether this is the fallback identity policy, i.e.
// the host had no explicit configuration.
func (p *HostPolicy) IsDefault() bool {
	return p.identity
}

// compile pre-builds the regex and glob matchers. Called once at load
// time so the hot paths (filtering, canonicalization) never compile.
func (p *HostPolicy) compile() error {
	p.allowRe = p.allowRe[:0]
	for _, pat := range p.Normalization.PathAllowPrefixes {
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return fmt.Errorf("policy %s: bad allow prefix %q: %w", p.Host, pat, err)
		}
		p.allowRe = append(p.allowRe, re)
	}
	p.denyRe = p.denyRe[:0]
	for _, pat := range p.Normalization.PathDenyRegexes {
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return fmt.Errorf("policy %s: bad deny regex %q: %w", p.Host, pat, err)
		}
		p.denyRe = append(p.denyRe, re)
	}
	p.stripGlb = p.stripGlb[:0]
	for _, pat := range p.Normalization.StripParams {
		g, err := glob.Compile(strings.ToLower(pat))
		if err != nil {
			return fmt.Errorf("policy %s: bad strip param %q: %w", p.Host, pat, err)
		}
		p.stripGlb = append(p.stripGlb, g)
	}
	return nil
}

// PathAllowed reports whether the path passes this policy's allow and
// deny lists. Hosts without an allowlist pass everything not denied.
func (p *HostPolicy) PathAllowed(path string) bool {
	if path == "" {
		path = "/"
	}
	for _, re := range p.denyRe {
		if re.MatchString(path) {
			return false
		}
	}
	if len(p.allowRe) == 0 {
		return true
	}
	for _, re := range p.allowRe {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// DeniedURL reports whether the full URL contains a denied substring.
func (p *HostPolicy) DeniedURL(url string) bool {
	for _, s := range p.DenySubstrings {
		if strings.Contains(url, s) {
			return true
		}
	}
	return false
}

// StripParam reports whether a query parameter should be removed during
// canonicalization. Matching is case-insensitive.
func (p *HostPolicy) StripParam(name string) bool {
	name = strings.ToLower(name)
	for _, g := range p.stripGlb {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// CrossAllowed reports whether target is one of the policy's allowed
// foreign hosts, or a subdomain of one.
func (p *HostPolicy) CrossAllowed(target string) bool {
	for _, a := range p.CrossDomainAllow {
		if target == a || strings.HasSuffix(target, "."+a) {
			return true
		}
	}
	return false
}
