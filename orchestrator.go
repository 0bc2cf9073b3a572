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
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/agentberlin/docsnake/internal/policy"
	"github.com/agentberlin/docsnake/internal/store"
)

// StageReport is the audit record for one strategy invocation on one
// root. It is logged, not persisted.
type StageReport struct {
	Strategy string
	// HighCap marks stages run during the second, higher-cap pass.
	HighCap  bool
	Found    int
	Inserted int
	CapHit   bool
	Err      error
}

// RootReport summarizes a full discovery run for one root.
type RootReport struct {
	Root   string
	Stages []StageReport
	// Retried is true when a high-cap second pass ran.
	Retried  bool
	Inserted int
	// Err is set only on hard failures (bad root URL, store write
	// failure). Individual strategy errors stay in their StageReport.
	Err error
}

// Orchestrator runs the escalation ladder per root and writes the
// results into the frontier store. Strategies are tried cheapest first;
// a stage runs only when the previous one yielded at most
// FallbackThreshold URLs.
type Orchestrator struct {
	cfg      Config
	frontier *store.Store
	policies *policy.Store
	logger   *log.Logger

	static   Strategy
	render   Strategy
	fallback Strategy
	renderer *Renderer
}

// NewOrchestrator wires the three strategies around a shared fetcher
// and filter. The headless browser is allocated lazily, on the first
// root that actually escalates to the render stage.
func NewOrchestrator(cfg Config, frontier *store.Store, policies *policy.Store, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	filter := NewFilter(policies)
	fetcher := NewFetcher(cfg, policies, nil)
	renderer := NewRenderer(cfg.UserAgent, cfg.RenderTimeout)

	return &Orchestrator{
		cfg:      cfg,
		frontier: frontier,
		policies: policies,
		logger:   logger,
		static:   NewStaticStrategy(fetcher, filter, policies, logger),
		render:   NewRenderStrategy(renderer, filter, cfg.ScrollSteps, logger),
		fallback: NewJSFallbackStrategy(fetcher, filter, logger),
		renderer: renderer,
	}
}

// Close releases the headless browser, if one was ever started.
func (o *Orchestrator) Close() {
	if o.renderer != nil {
		o.renderer.Close()
	}
}

// Run discovers all roots through a worker pool of cfg.Parallelism
// workers. Each root gets its own cancellable context, so one stuck
// root never takes down the run. The returned reports are ordered like
// the input.
func (o *Orchestrator) Run(ctx context.Context, roots []string) []RootReport {
	pool := NewWorkerPool(ctx, o.cfg.Parallelism, len(roots)+1)
	reports := make([]RootReport, len(roots))

	var wg sync.WaitGroup
	for i, root := range roots {
		i, root := i, root
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			rctx, cancel := context.WithCancel(ctx)
			defer cancel()
			reports[i] = o.DiscoverRoot(rctx, root)
		})
		if err != nil {
			reports[i] = RootReport{Root: root, Err: err}
			wg.Done()
		}
	}
	wg.Wait()
	pool.Close()

	return reports
}

// DiscoverRoot runs the full escalation ladder for one root: static,
// then render and js-fallback as gated by FallbackThreshold, then a
// single higher-cap pass when a stage saturated its cap and a larger
// DynMax is configured.
func (o *Orchestrator) DiscoverRoot(ctx context.Context, root string) RootReport {
	root = strings.TrimSuffix(SanitizeURL(root), "/")
	report := RootReport{Root: root}

	if root == "" {
		report.Err = ErrMissingURL
		return report
	}
	low := strings.ToLower(root)
	if !strings.HasPrefix(low, "http://") && !strings.HasPrefix(low, "https://") || hostOf(root) == "" {
		report.Err = ErrBadScheme
		return report
	}

	// Roots still queued when the run is cancelled come through here;
	// report the cancellation instead of attempting any fetches.
	if err := ctx.Err(); err != nil {
		report.Err = err
		return report
	}

	p := o.policies.GetForURL(root)
	max := o.cfg.Max
	if p.Discovery.StaticMax > 0 {
		max = p.Discovery.StaticMax
	}
	dynMax := o.cfg.DynMax
	if p.Discovery.DynMax > 0 {
		dynMax = p.Discovery.DynMax
	}

	report.Stages = o.runLadder(ctx, root, max, nil, false)

	capped := make(map[string]bool)
	for _, s := range report.Stages {
		if s.CapHit {
			capped[s.Strategy] = true
		}
	}

	if len(capped) > 0 && dynMax > max && ctx.Err() == nil {
		report.Retried = true
		only := capped
		if o.cfg.RetryMode == RetryFullLadder {
			only = nil
		}
		o.logger.Info("cap saturated, re-running discovery at high cap",
			"root", root, "cap", dynMax, "mode", string(o.cfg.RetryMode))
		report.Stages = append(report.Stages, o.runLadder(ctx, root, dynMax, only, true)...)
	}

	for _, s := range report.Stages {
		report.Inserted += s.Inserted
		if report.Err == nil && s.Err != nil && s.Strategy != store.StrategyRender {
			// Render failures alone are not fatal, the js-fallback
			// stage covers them.
			report.Err = s.Err
		}
	}
	if report.Err == nil {
		report.Err = ctx.Err()
	}

	return report
}

// runLadder executes one escalation pass at the given cap. When only is
// non-nil, gating is bypassed and exactly the named strategies run;
// this is the capped-only retry mode.
func (o *Orchestrator) runLadder(ctx context.Context, root string, cap int, only map[string]bool, highCap bool) []StageReport {
	var stages []StageReport

	run := func(strat Strategy) StageReport {
		res, err := strat.Discover(ctx, root, cap)
		sr := StageReport{
			Strategy: strat.Name(),
			HighCap:  highCap,
			Found:    res.Count(),
			CapHit:   res.CapHit,
			Err:      err,
		}
		if err != nil {
			o.logger.Warn("discovery strategy failed",
				"root", root, "strategy", sr.Strategy, "err", err)
		}
		if sr.Found > 0 {
			inserted, ierr := o.insertURLs(root, sr.Strategy, res.URLs)
			sr.Inserted = inserted
			if ierr != nil && sr.Err == nil {
				sr.Err = ierr
			}
		}
		o.logger.Info("discovery stage done",
			"root", root, "strategy", sr.Strategy, "found", sr.Found,
			"inserted", sr.Inserted, "capHit", sr.CapHit, "highCap", highCap)
		stages = append(stages, sr)
		return sr
	}

	if only != nil {
		for _, strat := range []Strategy{o.static, o.render, o.fallback} {
			if ctx.Err() != nil {
				break
			}
			if only[strat.Name()] {
				run(strat)
			}
		}
		return stages
	}

	st := run(o.static)
	if st.Found > o.cfg.FallbackThreshold || ctx.Err() != nil {
		return stages
	}

	rd := run(o.render)
	if rd.Err == nil && rd.Found > o.cfg.FallbackThreshold || ctx.Err() != nil {
		return stages
	}

	run(o.fallback)
	return stages
}

// insertURLs records one stage's yield in the frontier: an append-only
// RawURL row per URL, a Document shell for hydration to fill in, and a
// QueueEntry at status queued. Re-discovered URLs are no-ops. All three
// writes for a stage commit together.
func (o *Orchestrator) insertURLs(root, strategy string, urls []string) (int, error) {
	discoveredFrom := fmt.Sprintf("%s [%s]", root, strategy)

	raws := make([]store.RawURL, 0, len(urls))
	for _, u := range urls {
		raws = append(raws, store.RawURL{
			URL:      u,
			Root:     root,
			Strategy: strategy,
			URLHash:  URLHash(u),
		})
	}

	inserted := 0
	err := o.frontier.WithTx(func(tx *store.Store) error {
		n, err := tx.AddRawURLs(raws)
		if err != nil {
			return err
		}
		inserted = n

		for _, u := range urls {
			doc := store.Document{
				URL:         u,
				URLOriginal: u,
				Root:        root,
				RenderMode:  strategy,
			}
			if err := tx.UpsertDocument(&doc); err != nil {
				return err
			}
			entry := store.QueueEntry{
				URL:            u,
				DiscoveredFrom: discoveredFrom,
				Status:         store.StatusQueued,
			}
			if err := tx.UpsertQueueEntry(&entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
