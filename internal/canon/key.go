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

// Package canon maps raw discovered URLs onto canonical identities and
// merges duplicate document records under a deterministic
// winner-selection policy.
package canon

import (
	"net/url"
	"strings"

	whatwgUrl "github.com/nlnwa/whatwg-url/url"

	"github.com/agentberlin/docsnake/internal/policy"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

// Key computes the canonical identity of a URL under a host policy:
// scheme forced to https, host lowercased with "www." optionally
// collapsed, fragment dropped when the policy says to, policy-listed
// query parameters stripped, trailing slash removed (except for the
// bare root path).
//
// A URL that cannot be parsed is its own canonical key — the resolver
// must never guess.
func Key(rawURL string, p *policy.HostPolicy) string {
	parsed, err := urlParser.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	// Href normalizes percent-encoding, lowercases the host and strips
	// default ports; excludeFragment mirrors the policy's drop_fragments.
	u, err := url.Parse(parsed.Href(p.Normalization.DropFragments))
	if err != nil {
		return rawURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return rawURL
	}
	u.Scheme = "https"

	host := u.Hostname()
	if p.Normalization.CollapseWWW {
		host = strings.TrimPrefix(host, "www.")
	}
	if port := u.Port(); port != "" && !(p.Normalization.StripDefaultPort && (port == "80" || port == "443")) {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}

	u.RawQuery = stripParams(u.RawQuery, p)
	if p.Normalization.DropFragments {
		u.Fragment = ""
		u.RawFragment = ""
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	u.RawPath = ""
	u.Path = path

	out := u.String()
	// url.String renders the bare root as "https://host/"; the frontier
	// stores roots without the trailing slash.
	if path == "/" && u.RawQuery == "" {
		out = strings.TrimSuffix(out, "/")
	}
	return out
}

// stripParams removes policy-listed query parameters while preserving
// the order and encoding of the survivors. Locale parameters that a
// policy does not list stay put: they can distinguish legally distinct
// documents.
func stripParams(rawQuery string, p *policy.HostPolicy) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name := pair
		if i := strings.Index(pair, "="); i >= 0 {
			name = pair[:i]
		}
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if p.StripParam(name) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}
