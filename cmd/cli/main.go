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

// DocSnake CLI
//
// Command-line interface for the legal-document discovery and
// canonicalization engine.
//
// Usage:
//
//	docsnake <command> [flags]
//
// Commands:
//
//	discover      Run the discovery ladder over root domains
//	canonicalize  Merge duplicate document records (dry run by default)
//	queue         Show frontier queue and document counts
//	version       Show version information
package main

import (
	"fmt"
	"os"

	"github.com/agentberlin/docsnake/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "discover":
		if err := runDiscover(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "canonicalize":
		if err := runCanonicalize(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "queue":
		if err := runQueue(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "-v", "--version":
		fmt.Printf("DocSnake CLI %s\n", version.CurrentVersion)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`DocSnake CLI - Legal document discovery and canonicalization

Usage:
  docsnake <command> [flags]

Commands:
  discover      Run the discovery ladder over root domains
  canonicalize  Merge duplicate document records (dry run by default)
  queue         Show frontier queue and document counts
  version       Show version information
  help          Show this help message

Examples:
  # Discover legal documents on a single root
  docsnake discover https://example.com

  # Discover every root listed in a seed file
  docsnake discover --seeds seeds.json --policies ./policies

  # Discover with a higher cap retry for saturated hosts
  docsnake discover https://example.com --max 400 --dyn-max 2000

  # Preview a canonicalization pass
  docsnake canonicalize --policies ./policies

  # Apply it
  docsnake canonicalize --policies ./policies --apply

  # Inspect the frontier
  docsnake queue

Use "docsnake <command> --help" for more information about a command.`)
}
