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

// This file defines the distribution bonus stage, which nudges the selection
// toward covering the whole source instead of clustering where the signal
// peaks. The stage is a no-op when the caller did not supply a total
// duration.
package commands

import (
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/scoring"
)

// DistributionBonus wraps scoring.ApplyDistributionBonus as a pipeline
// command.
type DistributionBonus struct {
	cor.BaseCommand
}

// NewDistributionBonus creates the distribution bonus stage command.
func NewDistributionBonus(name string) *DistributionBonus {
	return &DistributionBonus{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute applies the bonus using the request's total duration.
func (c *DistributionBonus) Execute(context cor.Context) {
	state := context.Get(c.GetInputParam()).(*scoring.PipelineState)

	next := *state
	next.Candidates = scoring.ApplyDistributionBonus(state.Candidates, state.Request.TotalDuration, state.Request.Config)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, &next)
}
