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

// Package docsnake discovers legal and compliance documents (privacy
// policies, terms of service, community guidelines) published across
// third-party web properties.
//
// Discovery escalates per root from cheap static methods (robots.txt,
// sitemaps, canonical path probing, one level of link scanning) to a
// headless browser, and finally to a lightweight JS fallback, inserting
// candidates into a persistent URL frontier. A separate canonicalization
// pass (internal/canon) merges frontier records that share a canonical
// identity.
package docsnake

import (
	"errors"
	"time"
)

// Errors for permanently rejected URLs. These are dropped, never
// retried.
var (
	ErrMissingURL         = errors.New("missing URL")
	ErrBadScheme          = errors.New("URL scheme is not http or https")
	ErrBrowserUnavailable = errors.New("headless browser is not available")
)

// RetryMode selects which stages re-run during the high-cap second
// pass after a strategy saturated its cap.
type RetryMode string

const (
	// RetryFullLadder re-runs the whole escalation ladder at the higher
	// cap. This matches the conservative behavior the pipeline has
	// always had.
	RetryFullLadder RetryMode = "full-ladder"
	// RetryCappedOnly re-runs only the stages that actually hit their
	// cap on the first pass.
	RetryCappedOnly RetryMode = "capped-only"
)

// Config bundles the engine-wide discovery knobs. Per-host policies may
// override the caps.
type Config struct {
	// Max is the per-root cap on returned URLs for the first pass.
	Max int
	// DynMax, when larger than Max, enables a second pass at this cap
	// for roots where a strategy saturated its cap.
	DynMax int
	// FallbackThreshold gates escalation: a stage yielding at most this
	// many URLs triggers the next stage. The default of 0 escalates
	// only when a stage found literally nothing.
	FallbackThreshold int
	// RetryMode selects the shape of the high-cap second pass.
	RetryMode RetryMode

	// ScrollSteps is the number of scroll iterations the render
	// strategy performs to surface lazy-loaded footer navigation.
	ScrollSteps int
	// RenderTimeout bounds a single headless page load.
	RenderTimeout time.Duration

	// FetchTimeout bounds a single HTTP fetch.
	FetchTimeout time.Duration
	// Politeness is the enforced minimum interval between successive
	// requests to the same host.
	Politeness time.Duration
	// FetchRetries is how many times a transient fetch (timeout,
	// 429/503/5xx) is retried within one FetchText call.
	FetchRetries int

	// Parallelism is the number of roots discovered concurrently. Each
	// worker owns at most one browser context at a time.
	Parallelism int

	UserAgent string
}

// DefaultConfig returns the conservative defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		Max:               400,
		DynMax:            0,
		FallbackThreshold: 0,
		RetryMode:         RetryFullLadder,
		ScrollSteps:       10,
		RenderTimeout:     25 * time.Second,
		FetchTimeout:      20 * time.Second,
		Politeness:        300 * time.Millisecond,
		FetchRetries:      2,
		Parallelism:       4,
		UserAgent:         "docsnake/1.0 (+https://snake.blue)",
	}
}
