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
	"math/rand"
	"time"

	"github.com/agentberlin/docsnake/internal/policy"
)

// Backoff is the single retry-pacing policy injected into the fetcher.
// It replaces ad hoc sleeps scattered through fetch loops: every retry
// delay in the engine flows through Delay.
type Backoff struct {
	// Base is the delay before the first retry.
	Base time.Duration
	// Multiplier scales the delay when the host answered 429 or 503
	// (explicit rate-limiting signals), compounding per attempt.
	Multiplier float64
	// Jitter is an extra random duration in [0, Jitter) added to every
	// delay to avoid synchronized retries across workers.
	Jitter time.Duration
}

// BackoffFromPolicy builds a Backoff from a host policy's tuning.
func BackoffFromPolicy(p *policy.HostPolicy) Backoff {
	b := Backoff{
		Base:       time.Duration(p.Backoff.BaseSeconds * float64(time.Second)),
		Multiplier: p.Backoff.On429Multiplier,
		Jitter:     time.Duration(p.Backoff.JitterSeconds * float64(time.Second)),
	}
	if b.Base <= 0 {
		b.Base = 300 * time.Millisecond
	}
	if b.Multiplier <= 1 {
		b.Multiplier = 2.0
	}
	return b
}

// Delay returns how long to wait before retry number attempt (1-based)
// after observing the given HTTP status (0 for a network error).
func (b Backoff) Delay(attempt, status int) time.Duration {
	d := b.Base
	if status == 429 || status == 503 {
		for i := 0; i < attempt; i++ {
			d = time.Duration(float64(d) * b.Multiplier)
		}
	}
	if b.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(b.Jitter)))
	}
	return d
}

// Retryable reports whether a status is worth retrying within one
// fetch call: explicit throttling or a server-side failure.
func Retryable(status int) bool {
	return status == 429 || status >= 500
}
