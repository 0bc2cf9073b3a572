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

package canon

import "github.com/agentberlin/docsnake/internal/store"

// statusGood reports whether an HTTP status represents a complete
// fetch. 304 counts: the stored body is still the document.
func statusGood(status int) bool {
	return status == 200 || status == 304
}

// Better is the total order used to pick the surviving record of a
// canonical group. First criterion dominates, ties break on the next:
//
//  1. status in {200, 304} beats any other status
//  2. longer stored body wins
//  3. more recent fetch wins
//
// Records tying on all three criteria compare as equal; PickWinner
// then keeps the earlier row.
func Better(a, b *store.Document) bool {
	ag, bg := statusGood(a.Status), statusGood(b.Status)
	if ag != bg {
		return ag
	}
	if len(a.Body) != len(b.Body) {
		return len(a.Body) > len(b.Body)
	}
	return a.FetchedAt > b.FetchedAt
}

// PickWinner returns the index of the record that survives a merge.
func PickWinner(docs []store.Document) int {
	best := 0
	for i := 1; i < len(docs); i++ {
		if Better(&docs[i], &docs[best]) {
			best = i
		}
	}
	return best
}

// statusRank orders queue statuses from worst to best.
var statusRank = map[string]int{
	store.StatusError:    0,
	store.StatusPending:  1,
	store.StatusQueued:   2,
	store.StatusHydrated: 3,
}

// BestStatus returns the most advanced queue status among the given
// ones. An already-hydrated duplicate must not regress to queued after
// a merge. Empty input yields "queued", matching what discovery would
// have written.
func BestStatus(statuses []string) string {
	best := ""
	bestRank := -1
	for _, s := range statuses {
		r, ok := statusRank[s]
		if !ok {
			continue
		}
		if r > bestRank {
			best, bestRank = s, r
		}
	}
	if best == "" {
		return store.StatusQueued
	}
	return best
}
