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

// This file defines the command that actually runs a modality analyzer.
// It is skipped when the cache lookup already produced a result. Analyzer
// failures are recorded on the chain context and surfaced as a -1 progress
// event; isolation across modalities happens one level up, in the
// orchestrating workflow.
package commands

import (
	"github.com/jaycherian/go-media-engagement/internal/analysis"
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

// AnalyzerInvoke runs the external modality analyzer for a request.
type AnalyzerInvoke struct {
	cor.BaseCommand
	analyzer analysis.Analyzer
	tracker  *analysis.ProgressTracker
}

// NewAnalyzerInvoke creates the analyzer invocation command.
func NewAnalyzerInvoke(name string, analyzer analysis.Analyzer, tracker *analysis.ProgressTracker) *AnalyzerInvoke {
	return &AnalyzerInvoke{
		BaseCommand: *cor.NewBaseCommand(name),
		analyzer:    analyzer,
		tracker:     tracker,
	}
}

// Execute invokes the analyzer unless a cached result short-circuits the
// chain. Cleanup always runs after an invocation, success or failure, so the
// analyzer never leaks temp files across runs.
func (c *AnalyzerInvoke) Execute(context cor.Context) {
	request := context.Get(c.GetInputParam()).(*model.ModalityAnalysisRequest)

	if cached := context.Get(GetCachedResultParameterName()); cached != nil {
		context.Add(cor.CtxOut, cached.(*model.ModalityResult))
		return
	}

	defer c.analyzer.Cleanup()
	c.tracker.Update(request.Modality, 0, "starting analysis")

	timeline, summary, err := c.analyzer.ProduceTimeline(
		context.GetContext(),
		request.SourcePath,
		c.tracker.Reporter(request.Modality),
	)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		c.tracker.Update(request.Modality, model.ProgressFailed, err.Error())
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, &model.ModalityResult{Timeline: timeline, Summary: summary})
}
