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

package policy

import "testing"

func compiled(t *testing.T, p *HostPolicy) *HostPolicy {
	t.Helper()
	if err := p.compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}
	return p
}

func TestStripParamGlobs(t *testing.T) {
	p := compiled(t, &HostPolicy{
		Host: "example.com",
		Normalization: Normalization{
			StripParams: []string{"hl", "utm_*"},
		},
	})

	tests := []struct {
		param string
		want  bool
	}{
		{"hl", true},
		{"HL", true},
		{"utm_source", true},
		{"utm_campaign", true},
		{"utm", false},
		{"locale", false},
		{"hl2", false},
	}
	for _, tt := range tests {
		if got := p.StripParam(tt.param); got != tt.want {
			t.Errorf("StripParam(%q) = %v, want %v", tt.param, got, tt.want)
		}
	}
}

func TestPathAllowedDenyBeatsAllow(t *testing.T) {
	p := compiled(t, &HostPolicy{
		Host: "example.com",
		Normalization: Normalization{
			PathAllowPrefixes: []string{"^/legal"},
			PathDenyRegexes:   []string{"/archive/"},
		},
	})

	tests := []struct {
		path string
		want bool
	}{
		{"/legal/privacy", true},
		{"/LEGAL/terms", true},
		{"/legal/archive/2019", false},
		{"/blog/post", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.PathAllowed(tt.path); got != tt.want {
			t.Errorf("PathAllowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPathAllowedNoAllowlistPassesEverything(t *testing.T) {
	p := compiled(t, &HostPolicy{Host: "example.com"})
	if !p.PathAllowed("/anything/at/all") {
		t.Error("policy without allowlist rejected a path")
	}
	if !p.PathAllowed("") {
		t.Error("policy without allowlist rejected the empty path")
	}
}

func TestDeniedURL(t *testing.T) {
	p := compiled(t, &HostPolicy{
		Host:           "example.com",
		DenySubstrings: []string{"/search?", "logout"},
	})
	if !p.DeniedURL("https://example.com/search?q=privacy") {
		t.Error("deny substring not applied")
	}
	if p.DeniedURL("https://example.com/privacy") {
		t.Error("clean URL denied")
	}
}

func TestCrossAllowed(t *testing.T) {
	p := compiled(t, &HostPolicy{
		Host:             "youtube.com",
		CrossDomainAllow: []string{"policies.google.com"},
	})
	if !p.CrossAllowed("policies.google.com") {
		t.Error("listed foreign host rejected")
	}
	if !p.CrossAllowed("www.policies.google.com") {
		t.Error("subdomain of listed foreign host rejected")
	}
	if p.CrossAllowed("google.com") {
		t.Error("parent of listed foreign host accepted")
	}
}

func TestDefaultPolicyIsIdentity(t *testing.T) {
	p := DefaultPolicy()
	if !p.IsDefault() {
		t.Fatal("DefaultPolicy not marked as identity")
	}
	if p.StripParam("hl") {
		t.Error("identity policy strips parameters")
	}
	if !p.PathAllowed("/any") {
		t.Error("identity policy restricts paths")
	}
	if !p.Normalization.CollapseWWW || !p.Normalization.DropFragments {
		t.Error("identity policy should still collapse www and drop fragments")
	}
}

func TestCompileRejectsBadPatterns(t *testing.T) {
	p := &HostPolicy{
		Host: "example.com",
		Normalization: Normalization{
			PathDenyRegexes: []string{"("},
		},
	}
	if err := p.compile(); err == nil {
		t.Error("expected an error for an unbalanced regex")
	}
}
