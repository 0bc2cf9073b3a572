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
	"path/filepath"
	"testing"

	"github.com/agentberlin/docsnake/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "frontier.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedDoc(t *testing.T, st *store.Store, doc store.Document) {
	t.Helper()
	if err := st.UpsertDocument(&doc); err != nil {
		t.Fatalf("seeding document %s: %v", doc.URL, err)
	}
}

func seedQueue(t *testing.T, st *store.Store, url, status string) {
	t.Helper()
	err := st.UpsertQueueEntry(&store.QueueEntry{
		URL:            url,
		DiscoveredFrom: "https://example.com [static]",
		Status:         status,
	})
	if err != nil {
		t.Fatalf("seeding queue entry %s: %v", url, err)
	}
}

// Three discoveries of the same privacy policy: a locale-parameterized
// fetch that hydrated, a www variant that 404ed, and the bare canonical
// URL that was never fetched. After one pass exactly one record remains,
// at the canonical URL, holding the hydrated content.
func TestResolveMergesDuplicateGroup(t *testing.T) {
	st := openTestStore(t)
	pols := testPolicyStore(t)
	r := NewResolver(pols, nil)

	const key = "https://example.com/privacy"

	seedDoc(t, st, store.Document{URL: "https://example.com/privacy?hl=en", Status: 200, Body: "full policy text", FetchedAt: 100})
	seedDoc(t, st, store.Document{URL: "https://www.example.com/privacy", Status: 404, FetchedAt: 200})
	seedDoc(t, st, store.Document{URL: key})
	seedQueue(t, st, "https://example.com/privacy?hl=en", store.StatusHydrated)
	seedQueue(t, st, "https://www.example.com/privacy", store.StatusQueued)
	seedQueue(t, st, key, store.StatusPending)

	ch, err := r.Resolve(st, "", 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ch.DupGroups != 1 || ch.Deleted != 2 || ch.Renamed != 1 {
		t.Errorf("Changes = %+v, want 1 dup group, 2 deleted, 1 renamed", ch)
	}

	docs, err := st.ListDocuments("")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents after merge, want 1", len(docs))
	}
	winner := docs[0]
	if winner.URL != key {
		t.Errorf("surviving URL = %q, want %q", winner.URL, key)
	}
	if winner.Body != "full policy text" || winner.Status != 200 {
		t.Errorf("winner kept wrong content: status %d body %q", winner.Status, winner.Body)
	}
	aliases := winner.GetAliases()
	if len(aliases) != 2 {
		t.Errorf("winner aliases = %v, want the two merged URLs", aliases)
	}

	entries, err := st.ListQueueEntries(nil)
	if err != nil {
		t.Fatalf("ListQueueEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d queue entries after merge, want 1", len(entries))
	}
	if entries[0].URL != key || entries[0].Status != store.StatusHydrated {
		t.Errorf("queue entry = %s/%s, want %s/%s", entries[0].URL, entries[0].Status, key, store.StatusHydrated)
	}
}

func TestResolveIdempotent(t *testing.T) {
	st := openTestStore(t)
	pols := testPolicyStore(t)
	r := NewResolver(pols, nil)

	seedDoc(t, st, store.Document{URL: "https://example.com/privacy?hl=en", Status: 200, Body: "text"})
	seedDoc(t, st, store.Document{URL: "https://example.com/privacy"})
	seedQueue(t, st, "https://example.com/privacy?hl=en", store.StatusQueued)

	if _, err := r.Resolve(st, "", 0); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	ch, err := r.Resolve(st, "", 0)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if ch.Renamed != 0 || ch.Deleted != 0 || ch.DupGroups != 0 {
		t.Errorf("second pass changed data: %+v", ch)
	}
}

func TestResolveRenamesSingleton(t *testing.T) {
	st := openTestStore(t)
	pols := testPolicyStore(t)
	r := NewResolver(pols, nil)

	seedDoc(t, st, store.Document{URL: "https://www.example.com/terms/", Status: 200, Body: "terms"})
	seedQueue(t, st, "https://www.example.com/terms/", store.StatusQueued)

	ch, err := r.Resolve(st, "", 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ch.Renamed != 1 || ch.Deleted != 0 {
		t.Errorf("Changes = %+v, want 1 renamed, 0 deleted", ch)
	}

	doc, err := st.GetDocument("https://example.com/terms")
	if err != nil || doc == nil {
		t.Fatalf("canonical record missing after rename: %v", err)
	}
	if got := doc.GetAliases(); len(got) != 1 || got[0] != "https://www.example.com/terms/" {
		t.Errorf("aliases = %v, want the pre-rename URL", got)
	}
}

// Every canonical key maps to at most one record once a pass completes,
// and no queue entry points at a deleted record.
func TestResolveUniquenessInvariant(t *testing.T) {
	st := openTestStore(t)
	pols := testPolicyStore(t)
	r := NewResolver(pols, nil)

	urls := []string{
		"https://example.com/privacy",
		"https://example.com/privacy?hl=en",
		"https://example.com/privacy?hl=fr",
		"https://www.example.com/privacy/",
		"https://example.com/terms",
		"https://example.com/terms/",
		"https://example.com/cookie-policy?utm_source=footer",
	}
	for i, u := range urls {
		seedDoc(t, st, store.Document{URL: u, Status: 200, Body: u, FetchedAt: int64(i)})
		seedQueue(t, st, u, store.StatusQueued)
	}

	if _, err := r.Resolve(st, "", 0); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	docs, err := st.ListDocuments("")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	seen := make(map[string]string)
	for _, d := range docs {
		p := pols.GetForURL(d.URL)
		k := Key(d.URL, p)
		if prev, dup := seen[k]; dup {
			t.Errorf("two records share canonical key %q: %q and %q", k, prev, d.URL)
		}
		seen[k] = d.URL
	}

	entries, err := st.ListQueueEntries(nil)
	if err != nil {
		t.Fatalf("ListQueueEntries: %v", err)
	}
	byURL := make(map[string]bool, len(docs))
	for _, d := range docs {
		byURL[d.URL] = true
	}
	for _, e := range entries {
		if !byURL[e.URL] {
			t.Errorf("queue entry %q references no surviving document", e.URL)
		}
	}
}

func TestPlanIsDryRun(t *testing.T) {
	st := openTestStore(t)
	pols := testPolicyStore(t)
	r := NewResolver(pols, nil)

	seedDoc(t, st, store.Document{URL: "https://example.com/privacy?hl=en", Status: 200, Body: "text"})
	seedDoc(t, st, store.Document{URL: "https://example.com/privacy"})

	ch, groups, err := r.Plan(st, "")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if ch.DupGroups != 1 || ch.Deleted != 1 {
		t.Errorf("Plan changes = %+v, want 1 dup group, 1 deletion", ch)
	}
	if len(groups) != 1 {
		t.Errorf("Plan groups = %d, want 1", len(groups))
	}

	n, err := st.CountDocuments()
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 2 {
		t.Errorf("dry run mutated the store: %d documents, want 2", n)
	}
}

func TestResolveLimitBoundsMutations(t *testing.T) {
	st := openTestStore(t)
	pols := testPolicyStore(t)
	r := NewResolver(pols, nil)

	seedDoc(t, st, store.Document{URL: "https://example.com/privacy?hl=en"})
	seedDoc(t, st, store.Document{URL: "https://example.com/privacy"})
	seedDoc(t, st, store.Document{URL: "https://example.com/terms?hl=en"})
	seedDoc(t, st, store.Document{URL: "https://example.com/terms"})

	ch, err := r.Resolve(st, "", 1)
	if err != nil {
		t.Fatalf("Resolve with limit: %v", err)
	}
	if ch.DupGroups != 1 {
		t.Errorf("limited pass merged %d groups, want 1", ch.DupGroups)
	}

	// The second pass picks up the remaining group.
	ch, err = r.Resolve(st, "", 0)
	if err != nil {
		t.Fatalf("follow-up Resolve: %v", err)
	}
	if ch.DupGroups != 1 {
		t.Errorf("follow-up pass merged %d groups, want 1", ch.DupGroups)
	}
}
