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
	"reflect"
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain URL untouched", "https://example.com/privacy", "https://example.com/privacy"},
		{"entity unescaped", "https://example.com/privacy?a=1&amp;b=2", "https://example.com/privacy?a=1&b=2"},
		{"markup tail cut", "https://example.com/terms</a><div>", "https://example.com/terms"},
		{"trailing quote trimmed", `https://example.com/legal"`, "https://example.com/legal"},
		{"trailing backslash trimmed", `https://example.com/legal\`, "https://example.com/legal"},
		{"trailing punctuation trimmed", "https://example.com/privacy;,", "https://example.com/privacy"},
		{"whitespace trimmed", "  https://example.com/privacy \n", "https://example.com/privacy"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.in); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScanAbsoluteLinks(t *testing.T) {
	html := `<html><body>
<a href="https://example.com/privacy">privacy</a>
<script>var u = "https://example.com/terms";</script>
plain text http://example.com/legal here
<a href="/relative/path">relative</a>
</body></html>`

	got := ScanAbsoluteLinks(html)
	want := []string{
		"https://example.com/privacy",
		"https://example.com/terms",
		"http://example.com/legal",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ScanAbsoluteLinks = %v, want %v", got, want)
	}
}

func TestHostOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/privacy", "example.com"},
		{"http://example.com:8080/x", "example.com"},
		{"not a url", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := hostOf(tt.in); got != tt.want {
			t.Errorf("hostOf(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqPreserve(t *testing.T) {
	got := uniqPreserve([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("uniqPreserve = %v, want %v", got, want)
	}
}

func TestURLHashStable(t *testing.T) {
	a := URLHash("https://example.com/privacy")
	b := URLHash("https://example.com/privacy")
	if a != b {
		t.Error("URLHash not deterministic")
	}
	if a == URLHash("https://example.com/terms") {
		t.Error("distinct URLs hashed equal")
	}
}
