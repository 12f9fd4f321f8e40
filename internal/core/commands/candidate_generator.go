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

// This file defines the candidate generation stage: sliding a fixed-width
// window with 50% overlap over the combined timeline.
package commands

import (
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/scoring"
)

// CandidateGenerator wraps scoring.GenerateCandidates as a pipeline command.
type CandidateGenerator struct {
	cor.BaseCommand
}

// NewCandidateGenerator creates the candidate generation stage command.
func NewCandidateGenerator(name string) *CandidateGenerator {
	return &CandidateGenerator{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute produces the initial candidate list from the combined timeline.
func (c *CandidateGenerator) Execute(context cor.Context) {
	state := context.Get(c.GetInputParam()).(*scoring.PipelineState)

	next := *state
	next.Candidates = scoring.GenerateCandidates(state.Combined, state.Request.Interval, state.Request.Config)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, &next)
}
