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

// This file defines the final stage of the segment scoring pipeline: taking
// the top candidates by score, assigning ranks, and re-ordering the
// selection chronologically for presentation.
package commands

import (
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/scoring"
)

// SegmentSelector wraps scoring.SelectAndRank as a pipeline command.
type SegmentSelector struct {
	cor.BaseCommand
}

// NewSegmentSelector creates the selection stage command. Its output lands
// under the selection result parameter as well as the piping key.
func NewSegmentSelector(name string) *SegmentSelector {
	out := &SegmentSelector{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = GetSelectionResultParameterName()
	return out
}

// Execute produces the final chronologically ordered, ranked selection.
func (c *SegmentSelector) Execute(context cor.Context) {
	state := context.Get(c.GetInputParam()).(*scoring.PipelineState)

	selection := scoring.SelectAndRank(state.Candidates, state.Request.Count)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), selection)
	context.Add(cor.CtxOut, selection)
}
