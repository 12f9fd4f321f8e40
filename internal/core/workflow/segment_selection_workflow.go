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

// This file implements the segment selection workflow: the six-stage scoring
// pipeline that turns three raw modality timelines into a ranked,
// chronologically ordered list of the most engaging segments.
package workflow

import (
	"context"
	"fmt"

	"github.com/jaycherian/go-media-engagement/internal/core/commands"
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/engine"
	"github.com/jaycherian/go-media-engagement/internal/scoring"
)

// SegmentSelectionWorkflow runs the ordered scoring pipeline over a set of
// modality timelines. The stage commands are pure functions over the piped
// pipeline state, so a single workflow instance is safe for concurrent use.
type SegmentSelectionWorkflow struct {
	cor.BaseCommand
	config *engine.Config
	chain  cor.Chain
}

// Execute runs the scoring chain against the context.
func (w *SegmentSelectionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain wires the six scoring stages in their required order. Each
// stage reads the fields its predecessors filled in, so reordering them would
// silently change the scores.
func (w *SegmentSelectionWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: normalize the modality timelines and merge them by weight.
	out.AddCommand(commands.NewTimelineCombiner("timeline-combiner"))

	// Step 2: slide the candidate window over the combined timeline.
	out.AddCommand(commands.NewCandidateGenerator("candidate-generator"))

	// Step 3: attach raw per-modality scores to each candidate.
	out.AddCommand(commands.NewModalityScorer("modality-scorer"))

	// Step 4: demote candidates crowding a stronger neighbor.
	out.AddCommand(commands.NewSeparationPenalty("separation-penalty"))

	// Step 5: reward candidates in sparsely covered regions of the source.
	out.AddCommand(commands.NewDistributionBonus("distribution-bonus"))

	// Step 6: pick the top N, rank them, and order them chronologically.
	out.AddCommand(commands.NewSegmentSelector("segment-selector"))

	w.chain = out
}

// NewSegmentSelectionWorkflow is the constructor for SegmentSelectionWorkflow.
func NewSegmentSelectionWorkflow(config *engine.Config) *SegmentSelectionWorkflow {
	out := &SegmentSelectionWorkflow{
		BaseCommand: *cor.NewBaseCommand("segment-selection-workflow"),
		config:      config,
	}
	out.initializeChain()
	return out
}

// GetBestSegments scores the timelines and returns the top count segments in
// chronological order. A positive durationSeconds overrides the configured
// segment duration for this call only; interval values at or below zero fall
// back to one-second sampling. An empty selection is a valid outcome for
// inputs too short to hold a single full segment.
func (w *SegmentSelectionWorkflow) GetBestSegments(
	ctx context.Context,
	audio, visual, speech model.Timeline,
	durationSeconds int,
	count int,
	totalDuration float64,
	interval float64) ([]model.SegmentCandidate, error) {

	cfg := w.config.Engagement
	if durationSeconds > 0 {
		cfg.SegmentDurationSeconds = durationSeconds
	}
	if interval <= 0 {
		interval = 1.0
	}

	state := &scoring.PipelineState{
		Request: scoring.Request{
			Audio:         audio,
			Visual:        visual,
			Speech:        speech,
			Interval:      interval,
			TotalDuration: totalDuration,
			Count:         count,
			Config:        cfg,
		},
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, state)
	defer chainCtx.Close()

	w.chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		for name, err := range chainCtx.GetErrors() {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	selection, ok := chainCtx.Get(commands.GetSelectionResultParameterName()).([]model.SegmentCandidate)
	if !ok {
		return nil, fmt.Errorf("segment selection produced no result")
	}
	return selection, nil
}
