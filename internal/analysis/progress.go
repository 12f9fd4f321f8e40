// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file implements progress tracking for concurrent modality analyses.
// Each orchestrator owns its own tracker, so two videos analyzed at the same
// time never cross-contaminate progress state.
package analysis

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

// ProgressCallback is the optional observer hook invoked synchronously on
// every progress event. It must not block; panics are recovered and logged,
// never propagated into the analysis.
type ProgressCallback func(modality model.Modality, percent float64, status string)

// ProgressTracker maintains the latest progress event per modality behind a
// single lock. The three modality analyses write concurrently; readers take
// an immutable snapshot.
type ProgressTracker struct {
	mu       sync.Mutex
	latest   map[model.Modality]model.ProgressEvent
	callback ProgressCallback
}

// NewProgressTracker creates a tracker with an optional callback (nil is
// fine).
func NewProgressTracker(callback ProgressCallback) *ProgressTracker {
	return &ProgressTracker{
		latest:   make(map[model.Modality]model.ProgressEvent),
		callback: callback,
	}
}

// Update records the latest event for a modality and notifies the callback.
// Percent of model.ProgressFailed marks a modality-level failure.
func (t *ProgressTracker) Update(modality model.Modality, percent float64, status string) {
	event := model.ProgressEvent{
		Modality:  modality,
		Percent:   percent,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}

	t.mu.Lock()
	t.latest[modality] = event
	t.mu.Unlock()

	if t.callback == nil {
		return
	}
	// The callback runs outside the lock and inside a recover so a misbehaving
	// observer can neither deadlock nor abort an analysis.
	func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Warn("progress callback panicked", "modality", modality, "panic", r)
			}
		}()
		t.callback(modality, percent, status)
	}()
}

// Reporter returns a ProgressFunc bound to one modality, suitable for
// handing to an Analyzer.
func (t *ProgressTracker) Reporter(modality model.Modality) ProgressFunc {
	return func(percent float64, status string) {
		t.Update(modality, percent, status)
	}
}

// Snapshot returns a copy of the latest event per modality.
func (t *ProgressTracker) Snapshot() map[model.Modality]model.ProgressEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[model.Modality]model.ProgressEvent, len(t.latest))
	for k, v := range t.latest {
		out[k] = v
	}
	return out
}

// Reset clears all recorded events, typically between analysis runs.
func (t *ProgressTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = make(map[model.Modality]model.ProgressEvent)
}
