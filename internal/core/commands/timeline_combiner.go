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

// This file defines the first stage of the segment scoring pipeline:
// normalizing the three modality timelines and merging them into one
// weighted engagement timeline.
package commands

import (
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/scoring"
)

// TimelineCombiner wraps scoring.Combine as a pipeline command.
type TimelineCombiner struct {
	cor.BaseCommand
}

// NewTimelineCombiner creates the combine stage command.
func NewTimelineCombiner(name string) *TimelineCombiner {
	return &TimelineCombiner{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute fills in the combined timeline. An empty combined timeline is not
// an error; the downstream stages propagate it into an empty selection.
func (c *TimelineCombiner) Execute(context cor.Context) {
	state := context.Get(c.GetInputParam()).(*scoring.PipelineState)

	next := *state
	next.Combined = scoring.Combine(state.Request.Audio, state.Request.Visual, state.Request.Speech, state.Request.Config)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, &next)
}
