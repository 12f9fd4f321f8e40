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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the workflow for analyzing a single modality of a source video: cache
// lookup, analyzer invocation, and cache write-back.
package workflow

import (
	"fmt"

	"github.com/jaycherian/go-media-engagement/internal/analysis"
	"github.com/jaycherian/go-media-engagement/internal/cache"
	"github.com/jaycherian/go-media-engagement/internal/core/commands"
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

// ModalityAnalysisWorkflow runs the cache-wrapped analysis chain for one
// modality. Instances are built once per orchestrator and reused across
// requests; all per-request state travels on the chain context.
type ModalityAnalysisWorkflow struct {
	cor.BaseCommand
	modality model.Modality
	chain    cor.Chain
}

// Execute runs the modality analysis chain for the request on the context.
func (w *ModalityAnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain constructs the three-command pipeline. The cache write
// stage only runs on a clean chain, so a failed analysis never pollutes the
// cache with a partial result.
func (w *ModalityAnalysisWorkflow) initializeChain(
	analyzer analysis.Analyzer,
	store *cache.Store,
	tracker *analysis.ProgressTracker) {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: check the cache; on a hit the result short-circuits the invoke.
	out.AddCommand(commands.NewCacheLookup(fmt.Sprintf("%s-cache-lookup", w.modality), store, tracker))

	// Step 2: run the analyzer for a cache miss.
	out.AddCommand(commands.NewAnalyzerInvoke(fmt.Sprintf("%s-analyzer", w.modality), analyzer, tracker))

	// Step 3: persist a fresh result under the request fingerprint.
	out.AddCommand(commands.NewCacheWrite(fmt.Sprintf("%s-cache-write", w.modality), store))

	w.chain = out
}

// NewModalityAnalysisWorkflow is the constructor for ModalityAnalysisWorkflow.
//
// Inputs:
//   - modality: which signal source this workflow analyzes.
//   - analyzer: the analyzer implementation for the modality.
//   - store: the shared analysis cache.
//   - tracker: the orchestrator's progress tracker.
//
// Returns:
//   - A pointer to a fully initialized ModalityAnalysisWorkflow.
func NewModalityAnalysisWorkflow(
	modality model.Modality,
	analyzer analysis.Analyzer,
	store *cache.Store,
	tracker *analysis.ProgressTracker) *ModalityAnalysisWorkflow {

	out := &ModalityAnalysisWorkflow{
		BaseCommand: *cor.NewBaseCommand(fmt.Sprintf("%s-analysis-workflow", modality)),
		modality:    modality,
	}
	out.initializeChain(analyzer, store, tracker)
	return out
}
