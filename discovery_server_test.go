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
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/agentberlin/docsnake/internal/canon"
	"github.com/agentberlin/docsnake/internal/policy"
	"github.com/agentberlin/docsnake/internal/store"
	"github.com/agentberlin/docsnake/testutil"
)

// Walks the full pipeline against a live fixture site: robots.txt leads
// to a sitemap index, the legal sitemap populates the frontier, a
// hydrated duplicate with a tracking parameter gets merged away by the
// canonicalization pass.
func TestDiscoverAndCanonicalizeAgainstFixtureSite(t *testing.T) {
	srv := testutil.NewTestServer()
	defer srv.Close()
	base := srv.URL

	frontier, err := store.Open(filepath.Join(t.TempDir(), "frontier.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer frontier.Close()

	logger := log.New(io.Discard)
	pols, err := policy.NewStore()
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Politeness = 0
	cfg.FetchRetries = 1
	cfg.Parallelism = 1

	orch := NewOrchestrator(cfg, frontier, pols, logger)
	defer orch.Close()

	reports := orch.Run(context.Background(), []string{base})
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	rep := reports[0]
	if rep.Err != nil {
		t.Fatalf("discovery failed: %v", rep.Err)
	}
	if rep.Inserted == 0 {
		t.Fatal("nothing inserted into the frontier")
	}
	if len(rep.Stages) != 1 || rep.Stages[0].Strategy != store.StrategyStatic {
		t.Fatalf("stages = %+v, want a single static stage", rep.Stages)
	}

	docs, err := frontier.ListDocuments(base)
	if err != nil {
		t.Fatal(err)
	}
	found := make(map[string]bool, len(docs))
	for _, d := range docs {
		found[d.URL] = true
	}
	for _, path := range []string{"/privacy", "/terms", "/cookie-policy", "/privacy/children"} {
		if !found[base+path] {
			t.Errorf("frontier is missing %s", path)
		}
	}
	for _, path := range []string{"/assets/logo.png", "/blog/announcements"} {
		if found[base+path] {
			t.Errorf("frontier contains filtered URL %s", path)
		}
	}

	entries, err := frontier.ListQueueEntries([]string{base + "/privacy"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d queue entries for /privacy, want 1", len(entries))
	}
	if entries[0].Status != store.StatusQueued {
		t.Errorf("queue status = %q, want %q", entries[0].Status, store.StatusQueued)
	}
	if entries[0].DiscoveredFrom != base+" [static]" {
		t.Errorf("DiscoveredFrom = %q", entries[0].DiscoveredFrom)
	}

	// Hydrate the real page and a tracking-parameter duplicate of it.
	resp, err := http.Get(base + "/privacy")
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	fp, err := DocumentFingerprint(string(body))
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if err := frontier.SetDocumentContent(base+"/privacy", resp.StatusCode, string(body), fp); err != nil {
		t.Fatalf("hydrating /privacy: %v", err)
	}

	dup := base + "/privacy?utm_source=newsletter"
	if err := frontier.UpsertDocument(&store.Document{URL: dup, URLOriginal: dup, Root: base}); err != nil {
		t.Fatal(err)
	}
	if err := frontier.SetDocumentContent(dup, 200, "stub", ContentHash("stub")); err != nil {
		t.Fatal(err)
	}

	canonPols, err := policy.NewStore(&policy.HostPolicy{
		Host: "127.0.0.1",
		Normalization: policy.Normalization{
			StripParams:      []string{"utm_*"},
			DropFragments:    true,
			StripDefaultPort: true,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	resolver := canon.NewResolver(canonPols, logger)
	ch, err := resolver.Resolve(frontier, "", 0)
	if err != nil {
		t.Fatalf("canonicalization failed: %v", err)
	}
	if ch.DupGroups < 1 {
		t.Errorf("DupGroups = %d, want at least 1", ch.DupGroups)
	}
	if ch.Deleted < 1 {
		t.Errorf("Deleted = %d, want at least 1", ch.Deleted)
	}

	key := "https://" + strings.TrimPrefix(base, "http://") + "/privacy"
	winner, err := frontier.GetDocument(key)
	if err != nil {
		t.Fatal(err)
	}
	if winner == nil {
		t.Fatalf("no document at canonical URL %s", key)
	}
	if winner.Body != string(body) {
		t.Error("merge kept the stub body instead of the longer hydrated one")
	}
	aliases := winner.GetAliases()
	aliasSet := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		aliasSet[a] = true
	}
	if !aliasSet[dup] {
		t.Errorf("aliases %v do not record the merged duplicate", aliases)
	}

	for _, gone := range []string{dup, base + "/privacy"} {
		d, err := frontier.GetDocument(gone)
		if err != nil {
			t.Fatal(err)
		}
		if d != nil {
			t.Errorf("pre-merge record %s still present", gone)
		}
	}

	keyEntries, err := frontier.ListQueueEntries([]string{key})
	if err != nil {
		t.Fatal(err)
	}
	if len(keyEntries) != 1 || keyEntries[0].Status != store.StatusQueued {
		t.Errorf("queue entries at canonical URL = %+v, want one queued entry", keyEntries)
	}

	// A second pass over the merged store must change nothing.
	again, err := resolver.Resolve(frontier, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if again.Renamed != 0 || again.Deleted != 0 || again.DupGroups != 0 {
		t.Errorf("second pass not a no-op: %+v", again)
	}
}
