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

// Package seeds loads the seed file that drives discovery runs. The
// file is a JSON object mapping group keys (e.g. "social", "gaming")
// to lists of root domains or URLs.
package seeds

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Load reads every root in a seed file, across all groups. Roots are
// normalized, deduplicated, and sorted for a stable run order.
func Load(path string) ([]string, error) {
	return LoadKeys(path)
}

// LoadKeys reads the roots of the named seed groups; with no keys it
// reads every group. Naming a group the file does not contain is an
// error, a silently empty run hides typos.
func LoadKeys(path string, keys ...string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var groups map[string][]string
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	if len(keys) == 0 {
		keys = make([]string, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
	}

	seen := make(map[string]bool)
	var roots []string
	for _, key := range keys {
		entries, ok := groups[key]
		if !ok {
			return nil, fmt.Errorf("seed file %s has no group %q", path, key)
		}
		for _, entry := range entries {
			root := Normalize(entry)
			if root == "" || seen[root] {
				continue
			}
			seen[root] = true
			roots = append(roots, root)
		}
	}
	sort.Strings(roots)

	return roots, nil
}

// Normalize turns a seed entry into a root URL: whitespace trimmed,
// https assumed for bare domains, trailing slash removed. Returns ""
// for entries that cannot be a root.
func Normalize(entry string) string {
	s := strings.TrimSpace(entry)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		if strings.Contains(s, "://") {
			return ""
		}
		s = "https://" + s
	}
	return strings.TrimSuffix(s, "/")
}
