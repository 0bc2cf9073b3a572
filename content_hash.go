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
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"
)

// Tags whose subtrees never carry policy text. Chrome around the
// document (navigation, footers) churns between fetches of the same
// page, so it is excluded from the fingerprint.
var fingerprintSkipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"svg":      true,
}

var (
	// Legal pages stamp themselves with "Last updated" / "Effective"
	// dates in a handful of formats. Two fetches of an unchanged policy
	// can still disagree on rendered dates (localization, relative
	// times), so dates are masked before hashing.
	fingerprintDateRes = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?)?`),
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`(?i)(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}`),
		regexp.MustCompile(`(?i)\d+\s+(?:second|minute|hour|day|week|month|year)s?\s+ago`),
	}

	fingerprintSpaceRe = regexp.MustCompile(`\s+`)
)

// DocumentFingerprint reduces an HTML page to a stable content hash.
// Scripts, styles, page chrome, comments, and date stamps are dropped,
// text is whitespace-collapsed, and the remainder is hashed with
// xxhash. Two fetches of the same policy text produce the same
// fingerprint even when surrounding markup differs.
func DocumentFingerprint(htmlBody string) (string, error) {
	text, err := fingerprintText(htmlBody)
	if err != nil {
		return "", err
	}
	return ContentHash(text), nil
}

// ContentHash hashes already-normalized text. Exposed separately so
// plain-text documents (PDFs run through extraction, sitemapped .txt
// policies) can be fingerprinted without an HTML pass.
func ContentHash(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

func fingerprintText(htmlBody string) (string, error) {
	root, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return "", fmt.Errorf("parsing html for fingerprint: %w", err)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			return
		case html.ElementNode:
			if fingerprintSkipTags[n.Data] {
				return
			}
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	text := b.String()
	for _, re := range fingerprintDateRes {
		text = re.ReplaceAllString(text, "")
	}
	text = fingerprintSpaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	return text, nil
}
