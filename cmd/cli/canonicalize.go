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

package main

import (
	"flag"
	"fmt"

	"github.com/agentberlin/docsnake/internal/canon"
	"github.com/agentberlin/docsnake/internal/store"
)

func runCanonicalize(args []string) error {
	fs := flag.NewFlagSet("canonicalize", flag.ExitOnError)

	var (
		db       = fs.String("db", "docsnake.db", "Path to the frontier SQLite database")
		policies = fs.String("policies", "", "Directory of per-host policy YAML files")
		root     = fs.String("root", "", "Restrict the pass to documents discovered under one root")
		limit    = fs.Int("limit", 0, "Maximum canonical groups to mutate in this pass (0 = all)")
		apply    = fs.Bool("apply", false, "Write the merges (default is a dry run)")
		verbose  = fs.Bool("verbose", false, "Print every duplicate group in the dry run")
		quiet    = fs.Bool("quiet", false, "Only log warnings and errors")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(*quiet)

	pols, err := loadPolicies(*policies, logger)
	if err != nil {
		return err
	}

	st, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer st.Close()

	resolver := canon.NewResolver(pols, logger)

	if !*apply {
		ch, groups, err := resolver.Plan(st, *root)
		if err != nil {
			return err
		}
		fmt.Printf("Dry run: %d documents in %d canonical groups\n", ch.Documents, ch.Groups)
		fmt.Printf("Would rename %d, delete %d, rewrite queue rows for %d groups (%d duplicate groups)\n",
			ch.Renamed, ch.Deleted, ch.QueueUpdates, ch.DupGroups)
		if *verbose {
			for _, g := range groups {
				if len(g.Docs) < 2 {
					continue
				}
				fmt.Printf("  %s\n", g.Key)
				for _, d := range g.Docs {
					fmt.Printf("    <- %s (status %d)\n", d.URL, d.Status)
				}
			}
		}
		fmt.Println("Re-run with --apply to write these changes.")
		return nil
	}

	ch, err := resolver.Resolve(st, *root, *limit)
	if err != nil {
		return err
	}
	fmt.Printf("Merged %d documents in %d groups: renamed %d, deleted %d, queue rewrites %d\n",
		ch.Documents, ch.Groups, ch.Renamed, ch.Deleted, ch.QueueUpdates)
	return nil
}
