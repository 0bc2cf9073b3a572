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

package store

import "encoding/json"

// Queue status values, ordered from worst to best. A merge never moves
// an entry to a worse status (see the canon package's status ranking).
const (
	StatusError    = "error"
	StatusPending  = "pending"
	StatusQueued   = "queued"
	StatusHydrated = "hydrated"
)

// Discovery strategy names recorded on raw URLs and documents.
const (
	StrategyStatic     = "static"
	StrategyRender     = "render"
	StrategyJSFallback = "js-fallback"
)

// Document is the durable record for a canonical URL. Exactly one row
// exists per canonical key after a resolver pass; maintaining that
// invariant is the resolver's job.
type Document struct {
	ID uint `gorm:"primaryKey"`
	// URL is the currently-canonical URL string.
	URL string `gorm:"uniqueIndex;not null"`
	// URLOriginal preserves the URL as first discovered, for provenance.
	URLOriginal string `gorm:"type:text"`
	// Aliases is a JSON array of prior URLs absorbed by merges.
	Aliases string `gorm:"type:text"`
	// Status is the last HTTP status seen by hydration (0 = never fetched).
	Status int `gorm:"default:0"`
	// Body is the last fetched body. Discovery inserts empty bodies;
	// hydration fills them in.
	Body        string `gorm:"type:text"`
	ContentHash string `gorm:"type:text;index"`
	RenderMode  string `gorm:"type:text"` // static, render, js-fallback
	// FetchedAt is the unix timestamp of the last fetch (0 = never).
	FetchedAt int64  `gorm:"default:0"`
	Root      string `gorm:"index"` // discovering root URL
	CreatedAt int64  `gorm:"autoCreateTime"`
	UpdatedAt int64  `gorm:"autoUpdateTime"`
}

// GetAliases deserializes the Aliases JSON to []string.
func (d *Document) GetAliases() []string {
	if d.Aliases == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(d.Aliases), &out); err != nil {
		return nil
	}
	return out
}

// AddAliases appends URLs to the alias list, skipping duplicates and
// the document's own URL.
func (d *Document) AddAliases(urls ...string) {
	existing := d.GetAliases()
	seen := make(map[string]bool, len(existing)+1)
	seen[d.URL] = true
	for _, u := range existing {
		seen[u] = true
	}
	for _, u := range urls {
		if u != "" && !seen[u] {
			existing = append(existing, u)
			seen[u] = true
		}
	}
	if len(existing) == 0 {
		return
	}
	data, err := json.Marshal(existing)
	if err != nil {
		return
	}
	d.Aliases = string(data)
}

// QueueEntry tracks the discovery/hydration lifecycle of a URL. After
// canonicalization exactly one entry exists per canonical key.
type QueueEntry struct {
	ID  uint   `gorm:"primaryKey"`
	URL string `gorm:"uniqueIndex;not null"`
	// DiscoveredFrom records which root and strategy produced the URL,
	// e.g. "https://example.com [static]".
	DiscoveredFrom string `gorm:"type:text"`
	Status         string `gorm:"not null;default:'pending';index"`
	CreatedAt      int64  `gorm:"autoCreateTime"`
	UpdatedAt      int64  `gorm:"autoUpdateTime"`
}

// RawURL is an append-only record of a URL exactly as discovery found
// it. Many raw URLs may map to one canonical document.
type RawURL struct {
	ID  uint   `gorm:"primaryKey"`
	URL string `gorm:"not null;index:idx_raw_url_root,unique"`
	// Root is the root URL whose discovery pass found this URL.
	Root string `gorm:"not null;index:idx_raw_url_root,unique"`
	// Strategy is the discovery strategy that produced the URL.
	Strategy string `gorm:"not null"`
	// URLHash is an xxhash of the URL, stored as int64 for SQLite.
	URLHash   int64 `gorm:"index"`
	CreatedAt int64 `gorm:"autoCreateTime"`
}
