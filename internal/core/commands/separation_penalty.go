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

// This file defines the separation penalty stage, which demotes candidates
// crowding a stronger neighbor so the final selection spreads out in time.
package commands

import (
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/scoring"
)

// SeparationPenalty wraps scoring.ApplySeparationPenalty as a pipeline
// command.
type SeparationPenalty struct {
	cor.BaseCommand
}

// NewSeparationPenalty creates the separation penalty stage command.
func NewSeparationPenalty(name string) *SeparationPenalty {
	return &SeparationPenalty{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute applies the penalty. The candidate list keeps its cardinality;
// crowded candidates are demoted, never dropped.
func (c *SeparationPenalty) Execute(context cor.Context) {
	state := context.Get(c.GetInputParam()).(*scoring.PipelineState)

	next := *state
	next.Candidates = scoring.ApplySeparationPenalty(state.Candidates, state.Request.Config)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, &next)
}
