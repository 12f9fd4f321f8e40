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

// This file implements the top-level analysis orchestrator: it fans the
// audio, visual, and speech analyses out across a worker pool, collects
// their results, and assembles the aggregate AnalysisResult. A failed
// modality contributes an empty result and a log line; it never aborts its
// siblings, so the scorer can still work with whatever signal survived.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaycherian/go-media-engagement/internal/analysis"
	"github.com/jaycherian/go-media-engagement/internal/cache"
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/engine"
)

// EngagementAnalysisWorkflow coordinates the three modality analyses for a
// source video. One instance owns one progress tracker, so concurrent
// orchestrators never cross-contaminate progress state. The instance itself
// admits one analysis at a time: the modality analyzers hold per-run temp
// state and the tracker resets at the start of each run, so overlapping runs
// on a shared instance would tear down each other's work directories and
// progress. Callers that want parallel analyses build one workflow each.
type EngagementAnalysisWorkflow struct {
	config    *engine.Config
	tracker   *analysis.ProgressTracker
	workflows map[model.Modality]*ModalityAnalysisWorkflow

	// runMu serializes AnalyzeAll calls on this instance.
	runMu sync.Mutex
}

// modalityOutcome is the fan-in record for one worker's analysis.
type modalityOutcome struct {
	modality model.Modality
	result   *model.ModalityResult
	err      error
}

// NewEngagementAnalysisWorkflow builds the orchestrator, pre-wiring one
// modality analysis chain per signal source. The callback may be nil.
func NewEngagementAnalysisWorkflow(
	config *engine.Config,
	analyzers *analysis.AnalyzerSet,
	store *cache.Store,
	callback analysis.ProgressCallback) *EngagementAnalysisWorkflow {

	tracker := analysis.NewProgressTracker(callback)

	workflows := make(map[model.Modality]*ModalityAnalysisWorkflow, len(model.AllModalities()))
	for _, m := range model.AllModalities() {
		workflows[m] = NewModalityAnalysisWorkflow(m, analyzers.ForModality(m), store, tracker)
	}

	return &EngagementAnalysisWorkflow{
		config:    config,
		tracker:   tracker,
		workflows: workflows,
	}
}

// AnalyzeModality runs the cache-wrapped analysis chain for a single modality
// and returns its result, or the first error the chain recorded.
func (w *EngagementAnalysisWorkflow) AnalyzeModality(
	ctx context.Context,
	sourcePath string,
	modality model.Modality) (*model.ModalityResult, error) {

	flow, ok := w.workflows[modality]
	if !ok {
		return nil, fmt.Errorf("unknown modality: %s", modality)
	}

	request := &model.ModalityAnalysisRequest{
		SourcePath:  sourcePath,
		Modality:    modality,
		Fingerprint: cache.Fingerprint(sourcePath, modality),
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, request)
	defer chainCtx.Close()

	flow.Execute(chainCtx)

	if chainCtx.HasErrors() {
		for name, err := range chainCtx.GetErrors() {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	// The chain's flip-flop leaves the final command's output under the
	// input key.
	result, ok := chainCtx.Get(cor.CtxIn).(*model.ModalityResult)
	if !ok {
		return nil, fmt.Errorf("%s analysis produced no result", modality)
	}
	return result, nil
}

// AnalyzeAll runs all three modality analyses concurrently over a worker pool
// sized by the application thread pool setting and returns the aggregate
// result. Modality failures degrade to empty results; AnalyzeAll itself only
// fails if the parent context is already dead. Calls on the same instance are
// serialized; concurrent callers queue rather than sharing a run.
func (w *EngagementAnalysisWorkflow) AnalyzeAll(ctx context.Context, sourcePath string) (*model.AnalysisResult, error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	w.tracker.Reset()

	modalities := model.AllModalities()

	// Create buffered channels for jobs and results so no worker ever blocks
	// handing work back, then fan the modalities out across the pool.
	jobs := make(chan model.Modality, len(modalities))
	results := make(chan modalityOutcome, len(modalities))

	workers := w.config.Application.ThreadPoolSize
	if workers < 1 {
		workers = 1
	}
	if workers > len(modalities) {
		workers = len(modalities)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for modality := range jobs {
				result, err := w.AnalyzeModality(ctx, sourcePath, modality)
				results <- modalityOutcome{modality: modality, result: result, err: err}
			}
		}()
	}

	for _, m := range modalities {
		jobs <- m
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := &model.AnalysisResult{
		Audio:  model.EmptyModalityResult(),
		Visual: model.EmptyModalityResult(),
		Speech: model.EmptyModalityResult(),
		Metadata: model.AnalysisMetadata{
			RunID:      uuid.NewString(),
			SourcePath: sourcePath,
			Timestamp:  start.UTC(),
			Config:     w.config.Engagement,
		},
	}

	for outcome := range results {
		if outcome.err != nil {
			// Failure isolation: keep the empty result, log, and move on.
			slog.Error("modality analysis failed",
				"modality", outcome.modality,
				"source", sourcePath,
				"error", outcome.err)
			continue
		}
		out.SetResult(outcome.modality, outcome.result)
	}

	out.Metadata.WallClockSeconds = time.Since(start).Seconds()
	return out, nil
}

// CurrentProgress returns the latest progress event per modality.
func (w *EngagementAnalysisWorkflow) CurrentProgress() map[model.Modality]model.ProgressEvent {
	return w.tracker.Snapshot()
}
