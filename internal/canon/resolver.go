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

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/agentberlin/docsnake/internal/policy"
	"github.com/agentberlin/docsnake/internal/store"
)

// queueSource marks queue rows rewritten by the resolver.
const queueSource = "canonicalize"

// Changes summarizes what a resolver pass did (or, in a dry run, would
// do). A second pass over unchanged data reports all zeros.
type Changes struct {
	Documents    int // rows scanned
	Groups       int // canonical groups seen
	DupGroups    int // groups with more than one record
	Renamed      int // document rows rewritten to canonical form
	Deleted      int // document rows removed as merge losers
	QueueUpdates int // canonical groups whose queue rows were rewritten
}

// Group is one canonical identity and the document records that map
// onto it.
type Group struct {
	Key  string
	Docs []store.Document
}

// Resolver groups documents by canonical key and merges duplicates.
type Resolver struct {
	policies *policy.Store
	logger   *log.Logger
}

// NewResolver returns a resolver over the given policy store.
func NewResolver(policies *policy.Store, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{policies: policies, logger: logger}
}

// Canonicalize computes each document's canonical key and groups
// records sharing one. Group order is deterministic (sorted by key) so
// limited passes process the same prefix every run.
func (r *Resolver) Canonicalize(docs []store.Document) []Group {
	byKey := make(map[string][]store.Document)
	for _, d := range docs {
		p := r.policies.GetForURL(d.URL)
		if p.IsDefault() {
			r.logger.Debug("no explicit policy for host, using identity canonicalization", "url", d.URL)
		}
		key := Key(d.URL, p)
		byKey[key] = append(byKey[key], d)
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, Group{Key: k, Docs: byKey[k]})
	}
	return groups
}

// Plan is the dry-run entry point: it scans the store and reports what
// a Resolve would change without writing anything.
func (r *Resolver) Plan(st *store.Store, root string) (Changes, []Group, error) {
	docs, err := st.ListDocuments(root)
	if err != nil {
		return Changes{}, nil, fmt.Errorf("failed to list documents: %w", err)
	}
	groups := r.Canonicalize(docs)

	ch := Changes{Documents: len(docs), Groups: len(groups)}
	for _, g := range groups {
		if len(g.Docs) > 1 {
			ch.DupGroups++
			ch.Deleted += len(g.Docs) - 1
			ch.QueueUpdates++
			win := PickWinner(g.Docs)
			if g.Docs[win].URL != g.Key {
				ch.Renamed++
			}
			continue
		}
		if g.Docs[0].URL != g.Key {
			ch.Renamed++
			ch.QueueUpdates++
		}
	}
	return ch, groups, nil
}

// Resolve merges every canonical group inside a single transaction, so
// concurrent hydration never observes a half-merged state. limit > 0
// caps the number of groups mutated in this pass (0 = all). Returns the
// applied changes; any store error rolls back the entire pass.
func (r *Resolver) Resolve(st *store.Store, root string, limit int) (Changes, error) {
	var ch Changes
	err := st.WithTx(func(tx *store.Store) error {
		docs, err := tx.ListDocuments(root)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		groups := r.Canonicalize(docs)
		ch.Documents = len(docs)
		ch.Groups = len(groups)

		mutated := 0
		for _, g := range groups {
			if limit > 0 && mutated >= limit {
				break
			}
			changed, err := r.resolveGroup(tx, g, &ch)
			if err != nil {
				return err
			}
			if changed {
				mutated++
			}
		}
		return nil
	})
	if err != nil {
		return Changes{}, err
	}
	r.logger.Info("canonicalization pass complete",
		"documents", ch.Documents, "groups", ch.Groups, "dup_groups", ch.DupGroups,
		"renamed", ch.Renamed, "deleted", ch.Deleted, "queue_updates", ch.QueueUpdates)
	return ch, nil
}

// resolveGroup merges one canonical group. Reports whether it mutated
// anything.
func (r *Resolver) resolveGroup(tx *store.Store, g Group, ch *Changes) (bool, error) {
	if len(g.Docs) == 1 {
		doc := g.Docs[0]
		if doc.URL == g.Key {
			return false, nil
		}
		return true, r.renameSingleton(tx, doc, g.Key, ch)
	}

	ch.DupGroups++

	urls := make([]string, 0, len(g.Docs))
	for _, d := range g.Docs {
		urls = append(urls, d.URL)
	}

	win := PickWinner(g.Docs)
	winner := g.Docs[win]

	// Queue first: surviving canonical URL carries the best status seen
	// across the whole group.
	if err := r.consolidateQueue(tx, g.Key, urls); err != nil {
		return false, err
	}
	ch.QueueUpdates++

	var loserURLs []string
	for i, d := range g.Docs {
		if i == win {
			continue
		}
		if err := tx.DeleteDocument(d.ID); err != nil {
			return false, fmt.Errorf("failed to delete merge loser %s: %w", d.URL, err)
		}
		ch.Deleted++
		loserURLs = append(loserURLs, d.URL)
	}

	if winner.URL != g.Key {
		// A record whose URL literally equals the key belongs to this
		// group and was deleted above as a loser, so the slot should be
		// free. An occupant from outside the group means the invariant
		// was already broken; keep the occupant, drop the winner.
		occupant, err := tx.GetDocument(g.Key)
		if err != nil {
			return false, fmt.Errorf("failed to check canonical slot %s: %w", g.Key, err)
		}
		if occupant != nil {
			r.logger.Warn("canonical slot occupied, dropping non-canonical record",
				"canonical", g.Key, "loser", winner.URL)
			if err := tx.DeleteDocument(winner.ID); err != nil {
				return false, fmt.Errorf("failed to drop conflicting record %s: %w", winner.URL, err)
			}
			ch.Deleted++
			return true, nil
		}
		if err := tx.RenameDocument(winner.ID, winner.URL, g.Key); err != nil {
			return false, fmt.Errorf("failed to rename %s to %s: %w", winner.URL, g.Key, err)
		}
		ch.Renamed++
		loserURLs = append(loserURLs, winner.URL)
	}

	if len(loserURLs) > 0 {
		if err := tx.AbsorbAliases(winner.ID, loserURLs...); err != nil {
			return false, fmt.Errorf("failed to record aliases on %s: %w", g.Key, err)
		}
	}
	return true, nil
}

// renameSingleton moves a lone record onto its canonical URL. When a
// record from another group already occupies that slot, the occupant
// wins and the non-canonical record is deleted.
func (r *Resolver) renameSingleton(tx *store.Store, doc store.Document, key string, ch *Changes) error {
	if err := r.consolidateQueue(tx, key, []string{doc.URL}); err != nil {
		return err
	}
	ch.QueueUpdates++

	occupant, err := tx.GetDocument(key)
	if err != nil {
		return fmt.Errorf("failed to check canonical slot %s: %w", key, err)
	}
	if occupant != nil {
		if err := tx.DeleteDocument(doc.ID); err != nil {
			return fmt.Errorf("failed to delete non-canonical record %s: %w", doc.URL, err)
		}
		if err := tx.AbsorbAliases(occupant.ID, doc.URL); err != nil {
			return fmt.Errorf("failed to record alias on %s: %w", key, err)
		}
		ch.Deleted++
		return nil
	}
	if err := tx.RenameDocument(doc.ID, doc.URL, key); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", doc.URL, key, err)
	}
	ch.Renamed++
	return nil
}

// consolidateQueue rewrites the group's queue rows: one entry at the
// canonical URL carrying the best status among all members, everything
// else removed.
func (r *Resolver) consolidateQueue(tx *store.Store, key string, urls []string) error {
	all := urls
	if !contains(all, key) {
		all = append(append([]string{}, urls...), key)
	}
	entries, err := tx.ListQueueEntries(all)
	if err != nil {
		return fmt.Errorf("failed to list queue entries: %w", err)
	}
	statuses := make([]string, 0, len(entries))
	source := queueSource
	for _, e := range entries {
		statuses = append(statuses, e.Status)
		if e.URL == key && e.DiscoveredFrom != "" {
			source = e.DiscoveredFrom
		}
	}
	best := BestStatus(statuses)

	if err := tx.SetQueueStatus(key, source, best); err != nil {
		return fmt.Errorf("failed to set queue status for %s: %w", key, err)
	}
	var losers []string
	for _, u := range all {
		if u != key {
			losers = append(losers, u)
		}
	}
	if err := tx.DeleteQueueEntriesByURL(losers); err != nil {
		return fmt.Errorf("failed to remove merged queue entries: %w", err)
	}
	return nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
