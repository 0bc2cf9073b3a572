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
	"html"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	whatwgUrl "github.com/nlnwa/whatwg-url/url"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

var (
	trailingJunkRe      = regexp.MustCompile(`[\s'")\]]+$`)
	trailingBackslashRe = regexp.MustCompile(`[\\]+$`)
	trailingPunctRe     = regexp.MustCompile(`[;,]+$`)

	// absLinkRe matches literal http(s) URLs in raw HTML. Deliberately
	// a regex scan rather than a DOM parse: it tolerates malformed
	// markup and picks up URLs embedded in scripts and JSON blobs.
	absLinkRe = regexp.MustCompile(`https?://[^\s"'>)\\<]+`)
)

// SanitizeURL cleans a URL scraped out of HTML: entity-unescapes it,
// drops accidental markup tails, and trims stray quotes, backslashes
// and trailing punctuation.
func SanitizeURL(u string) string {
	if u == "" {
		return ""
	}
	u = strings.TrimSpace(html.UnescapeString(u))
	if i := strings.IndexByte(u, '<'); i >= 0 {
		u = u[:i]
	}
	u = trailingJunkRe.ReplaceAllString(u, "")
	u = trailingBackslashRe.ReplaceAllString(u, "")
	u = trailingPunctRe.ReplaceAllString(u, "")
	return u
}

// ScanAbsoluteLinks extracts literal http(s) URLs from an HTML blob.
func ScanAbsoluteLinks(htmlText string) []string {
	matches := absLinkRe.FindAllString(htmlText, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := SanitizeURL(m); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// hostOf returns the lowercased host (without port) of a URL, or ""
// if it cannot be parsed.
func hostOf(rawURL string) string {
	parsed, err := urlParser.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// sameOrSubdomain reports whether target equals root or is one of its
// subdomains.
func sameOrSubdomain(target, root string) bool {
	return target != "" && root != "" &&
		(target == root || strings.HasSuffix(target, "."+root))
}

// uniqPreserve deduplicates a slice while preserving first-seen order.
func uniqPreserve(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// URLHash returns a stable xxhash of a URL as int64 for indexing in
// SQLite, which has no unsigned 64-bit integer type.
func URLHash(u string) int64 {
	return int64(xxhash.Sum64String(u))
}
