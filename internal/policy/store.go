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

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Store is an immutable host -> HostPolicy lookup. Get is a total
// function: unknown hosts resolve to the identity default policy, so
// callers never branch on "policy missing".
type Store struct {
	policies map[string]*HostPolicy
	aliases  map[string]string
	fallback *HostPolicy
}

// NewStore builds a Store from already-constructed policies. Used by
// tests and by callers that build policies programmatically.
func NewStore(policies ...*HostPolicy) (*Store, error) {
	s := &Store{
		policies: make(map[string]*HostPolicy),
		aliases:  make(map[string]string),
		fallback: DefaultPolicy(),
	}
	for _, p := range policies {
		if err := p.compile(); err != nil {
			return nil, err
		}
		s.policies[strings.ToLower(p.Host)] = p
		for _, a := range p.Aliases {
			s.aliases[strings.ToLower(a)] = strings.ToLower(p.Host)
		}
	}
	return s, nil
}

// LoadDir reads every *.yml / *.yaml file in dir into a Store. A
// malformed file is skipped with a warning rather than failing the run;
// a missing directory yields a Store that only serves the default
// policy.
func LoadDir(dir string, logger *log.Logger) (*Store, error) {
	s := &Store{
		policies: make(map[string]*HostPolicy),
		aliases:  make(map[string]string),
		fallback: DefaultPolicy(),
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read policy dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		p, err := loadFile(path)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping malformed policy file", "path", path, "err", err)
			}
			continue
		}
		s.policies[strings.ToLower(p.Host)] = p
		for _, a := range p.Aliases {
			s.aliases[strings.ToLower(a)] = strings.ToLower(p.Host)
		}
	}
	return s, nil
}

func loadFile(path string) (*HostPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := &HostPolicy{
		Normalization: Normalization{
			CollapseWWW:      true,
			DropFragments:    true,
			StripDefaultPort: true,
		},
		Backoff: Backoff{
			BaseSeconds:     0.3,
			On429Multiplier: 2.0,
		},
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	if p.Host == "" {
		return nil, fmt.Errorf("policy file %s has no host", path)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// Get resolves the policy for a host. Lookup order: alias, exact host,
// registered parent domain (blog.example.com -> example.com), then the
// identity default. Never returns nil.
func (s *Store) Get(host string) *HostPolicy {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if h, ok := s.aliases[host]; ok {
		host = h
	}
	if p, ok := s.policies[host]; ok {
		return p
	}
	// Walk up the domain labels so subdomains inherit the parent policy.
	for i := strings.Index(host, "."); i > 0; i = strings.Index(host, ".") {
		host = host[i+1:]
		if p, ok := s.policies[host]; ok {
			return p
		}
	}
	return s.fallback
}

// GetForURL resolves the policy for the URL's host. Unparseable URLs
// resolve to the default policy.
func (s *Store) GetForURL(rawURL string) *HostPolicy {
	host := hostOf(rawURL)
	if host == "" {
		return s.fallback
	}
	return s.Get(host)
}

// Hosts returns the explicitly configured policy hosts, for reporting.
func (s *Store) Hosts() []string {
	out := make([]string, 0, len(s.policies))
	for h := range s.policies {
		out = append(out, h)
	}
	return out
}

func hostOf(rawURL string) string {
	rest, ok := strings.CutPrefix(rawURL, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(rawURL, "http://")
		if !ok {
			return ""
		}
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	if i := strings.Index(rest, ":"); i >= 0 {
		rest = rest[:i]
	}
	return strings.ToLower(rest)
}
