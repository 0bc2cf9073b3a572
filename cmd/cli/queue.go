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
	"sort"

	"github.com/agentberlin/docsnake/internal/store"
)

func runQueue(args []string) error {
	fs := flag.NewFlagSet("queue", flag.ExitOnError)

	db := fs.String("db", "docsnake.db", "Path to the frontier SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := st.QueueCounts()
	if err != nil {
		return err
	}
	docs, err := st.CountDocuments()
	if err != nil {
		return err
	}

	fmt.Printf("Documents: %d\n", docs)
	fmt.Println("Queue:")
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	total := int64(0)
	for _, status := range statuses {
		fmt.Printf("  %-10s %d\n", status, counts[status])
		total += counts[status]
	}
	fmt.Printf("  %-10s %d\n", "total", total)
	return nil
}
