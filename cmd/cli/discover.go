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
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agentberlin/docsnake"
	"github.com/agentberlin/docsnake/internal/policy"
	"github.com/agentberlin/docsnake/internal/seeds"
	"github.com/agentberlin/docsnake/internal/store"
)

type discoverFlags struct {
	db        string
	policies  string
	seedsFile string
	seedKeys  string

	max         int
	dynMax      int
	threshold   int
	retryMode   string
	parallelism int
	scrollSteps int
	politeness  time.Duration
	timeout     time.Duration
	userAgent   string
	quiet       bool
}

func runDiscover(args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)

	defaults := docsnake.DefaultConfig()

	var flags discoverFlags
	fs.StringVar(&flags.db, "db", "docsnake.db", "Path to the frontier SQLite database")
	fs.StringVar(&flags.policies, "policies", "", "Directory of per-host policy YAML files")
	fs.StringVar(&flags.seedsFile, "seeds", "", "JSON seed file of grouped root domains (instead of positional roots)")
	fs.StringVar(&flags.seedKeys, "keys", "", "Comma-separated seed groups to run (default: all groups)")
	fs.IntVar(&flags.max, "max", defaults.Max, "Per-root URL cap for the first pass")
	fs.IntVar(&flags.dynMax, "dyn-max", defaults.DynMax, "High-cap retry ceiling (0 = no retry pass)")
	fs.IntVar(&flags.threshold, "fallback-threshold", defaults.FallbackThreshold, "Escalate when a stage yields at most this many URLs")
	fs.StringVar(&flags.retryMode, "retry-mode", string(defaults.RetryMode), "High-cap retry shape: full-ladder or capped-only")
	fs.IntVar(&flags.parallelism, "parallelism", defaults.Parallelism, "Number of roots discovered concurrently")
	fs.IntVar(&flags.parallelism, "p", defaults.Parallelism, "Number of roots discovered concurrently (shorthand)")
	fs.IntVar(&flags.scrollSteps, "scrolls", defaults.ScrollSteps, "Scroll steps for the headless render stage")
	fs.DurationVar(&flags.politeness, "politeness", defaults.Politeness, "Minimum interval between requests to one host")
	fs.DurationVar(&flags.timeout, "timeout", defaults.FetchTimeout, "Timeout for a single HTTP fetch")
	fs.StringVar(&flags.userAgent, "user-agent", defaults.UserAgent, "Custom User-Agent string")
	fs.StringVar(&flags.userAgent, "A", defaults.UserAgent, "Custom User-Agent string (shorthand)")
	fs.BoolVar(&flags.quiet, "quiet", false, "Only log warnings and errors")
	fs.BoolVar(&flags.quiet, "q", false, "Only log warnings and errors (shorthand)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(flags.quiet)

	roots := make([]string, 0, fs.NArg())
	for _, arg := range fs.Args() {
		if r := seeds.Normalize(arg); r != "" {
			roots = append(roots, r)
		}
	}
	if flags.seedsFile != "" {
		var keys []string
		for _, k := range strings.Split(flags.seedKeys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		fromFile, err := seeds.LoadKeys(flags.seedsFile, keys...)
		if err != nil {
			return err
		}
		roots = append(roots, fromFile...)
	}
	if len(roots) == 0 {
		return fmt.Errorf("no roots given: pass root URLs or --seeds")
	}

	policies, err := loadPolicies(flags.policies, logger)
	if err != nil {
		return err
	}

	frontier, err := store.Open(flags.db)
	if err != nil {
		return err
	}
	defer frontier.Close()

	cfg := defaults
	cfg.Max = flags.max
	cfg.DynMax = flags.dynMax
	cfg.FallbackThreshold = flags.threshold
	cfg.RetryMode = docsnake.RetryMode(flags.retryMode)
	cfg.Parallelism = flags.parallelism
	cfg.ScrollSteps = flags.scrollSteps
	cfg.Politeness = flags.politeness
	cfg.FetchTimeout = flags.timeout
	cfg.UserAgent = flags.userAgent

	if cfg.RetryMode != docsnake.RetryFullLadder && cfg.RetryMode != docsnake.RetryCappedOnly {
		return fmt.Errorf("unknown retry mode %q", flags.retryMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("interrupted, finishing in-flight roots")
		cancel()
	}()

	orch := docsnake.NewOrchestrator(cfg, frontier, policies, logger)
	defer orch.Close()

	start := time.Now()
	reports := orch.Run(ctx, roots)

	failed := 0
	inserted := 0
	for _, rep := range reports {
		inserted += rep.Inserted
		if rep.Err != nil {
			failed++
			logger.Error("root failed", "root", rep.Root, "err", rep.Err)
		}
	}
	logger.Info("discovery run complete",
		"roots", len(roots), "failed", failed, "inserted", inserted,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d of %d roots failed", failed, len(roots))
	}
	return nil
}

// loadPolicies returns the YAML-backed policy store, or an empty store
// (identity canonicalization for every host) when no directory is given.
func loadPolicies(dir string, logger *log.Logger) (*policy.Store, error) {
	if dir == "" {
		return policy.NewStore()
	}
	return policy.LoadDir(dir, logger)
}

func newLogger(quiet bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if quiet {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}
