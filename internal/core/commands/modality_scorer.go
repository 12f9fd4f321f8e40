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

// This file defines the per-modality scoring stage. Candidates get their
// audio, visual, and speech scores computed from the raw timelines, not the
// normalized ones, so callers see values on the original signal scale.
package commands

import (
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/scoring"
)

// ModalityScorer wraps scoring.ScorePerModality as a pipeline command.
type ModalityScorer struct {
	cor.BaseCommand
}

// NewModalityScorer creates the per-modality scoring stage command.
func NewModalityScorer(name string) *ModalityScorer {
	return &ModalityScorer{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute annotates every candidate with its raw per-modality means.
func (c *ModalityScorer) Execute(context cor.Context) {
	state := context.Get(c.GetInputParam()).(*scoring.PipelineState)

	next := *state
	next.Candidates = scoring.ScorePerModality(
		state.Candidates,
		state.Request.Audio,
		state.Request.Visual,
		state.Request.Speech,
		state.Request.Interval,
	)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, &next)
}
