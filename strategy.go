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

import "context"

// Result is what a discovery strategy produced for one root.
type Result struct {
	// URLs are the filtered candidates, deduplicated, in discovery
	// order, never more than the cap.
	URLs []string
	// CapHit reports that the cap truncated the result before natural
	// exhaustion, signaling the orchestrator that a higher-cap pass may
	// be warranted.
	CapHit bool
}

// Count returns the number of discovered URLs.
func (r Result) Count() int { return len(r.URLs) }

// Strategy is one rung of the escalation ladder. Implementations must
// treat cap as a strict upper bound on returned URLs: reaching it
// mid-page truncates immediately and sets CapHit. Fetch-level failures
// are recovered internally (skip and continue); an error return means
// the strategy could not run at all.
type Strategy interface {
	Name() string
	Discover(ctx context.Context, root string, cap int) (Result, error)
}

// collector accumulates candidate URLs up to a cap, deduplicating as
// it goes. Strategies share it so cap semantics stay identical across
// the ladder.
type collector struct {
	cap    int
	seen   map[string]bool
	urls   []string
	capHit bool
}

func newCollector(cap int) *collector {
	if cap < 1 {
		cap = 1
	}
	return &collector{cap: cap, seen: make(map[string]bool)}
}

// add records a URL. Returns false once the cap is reached, at which
// point the caller must stop producing.
func (c *collector) add(u string) bool {
	if c.capHit {
		return false
	}
	if !c.seen[u] {
		c.seen[u] = true
		c.urls = append(c.urls, u)
		if len(c.urls) >= c.cap {
			c.capHit = true
			return false
		}
	}
	return true
}

func (c *collector) full() bool { return c.capHit }

func (c *collector) result() Result {
	return Result{URLs: c.urls, CapHit: c.capHit}
}
