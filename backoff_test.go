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
	"testing"
	"time"

	"github.com/agentberlin/docsnake/internal/policy"
)

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Base: 100 * time.Millisecond, Multiplier: 2}

	if d := b.Delay(1, 200); d != 100*time.Millisecond {
		t.Errorf("Delay on non-throttling status = %v, want base", d)
	}
	if d := b.Delay(3, 404); d != 100*time.Millisecond {
		t.Errorf("Delay must not compound on non-throttling status, got %v", d)
	}
	if d := b.Delay(1, 429); d != 200*time.Millisecond {
		t.Errorf("Delay(1, 429) = %v, want 200ms", d)
	}
	if d := b.Delay(2, 429); d != 400*time.Millisecond {
		t.Errorf("Delay(2, 429) = %v, want 400ms", d)
	}
	if d := b.Delay(2, 503); d != 400*time.Millisecond {
		t.Errorf("Delay(2, 503) = %v, want 400ms", d)
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := Backoff{Base: 10 * time.Millisecond, Multiplier: 2, Jitter: 5 * time.Millisecond}
	for i := 0; i < 50; i++ {
		d := b.Delay(1, 200)
		if d < 10*time.Millisecond || d >= 15*time.Millisecond {
			t.Fatalf("jittered delay %v outside [10ms, 15ms)", d)
		}
	}
}

func TestBackoffFromPolicy(t *testing.T) {
	b := BackoffFromPolicy(&policy.HostPolicy{
		Backoff: policy.Backoff{BaseSeconds: 0.5, On429Multiplier: 3, JitterSeconds: 0.1},
	})
	if b.Base != 500*time.Millisecond || b.Multiplier != 3 || b.Jitter != 100*time.Millisecond {
		t.Errorf("BackoffFromPolicy = %+v", b)
	}

	// Zero or nonsense tuning falls back to safe defaults.
	b = BackoffFromPolicy(&policy.HostPolicy{})
	if b.Base != 300*time.Millisecond || b.Multiplier != 2.0 {
		t.Errorf("defaulted backoff = %+v", b)
	}
}

func TestRetryable(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503} {
		if !Retryable(status) {
			t.Errorf("Retryable(%d) = false", status)
		}
	}
	for _, status := range []int{200, 304, 301, 404, 403} {
		if Retryable(status) {
			t.Errorf("Retryable(%d) = true", status)
		}
	}
}
