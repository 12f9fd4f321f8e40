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

// This file tests the final selection stage and the full pipeline run end
// to end over synthetic timelines.
package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/scoring"
)

func TestSelectAndRankOrdersChronologically(t *testing.T) {
	candidates := []model.SegmentCandidate{
		{StartTime: 300, CombinedScore: 0.9},
		{StartTime: 0, CombinedScore: 0.7},
		{StartTime: 150, CombinedScore: 0.8},
	}

	out := scoring.SelectAndRank(candidates, 2)

	// Top two by score are the 300s and 150s candidates, returned in
	// chronological order with their quality ranks intact.
	assert.Len(t, out, 2)
	assert.Equal(t, 150.0, out[0].StartTime)
	assert.Equal(t, 2, out[0].Rank)
	assert.Equal(t, 300.0, out[1].StartTime)
	assert.Equal(t, 1, out[1].Rank)
}

func TestSelectAndRankFewerCandidatesThanRequested(t *testing.T) {
	candidates := []model.SegmentCandidate{
		{StartTime: 0, CombinedScore: 0.5},
	}
	out := scoring.SelectAndRank(candidates, 5)
	assert.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Rank)
}

func TestSelectAndRankEmptyAndZeroCount(t *testing.T) {
	assert.Empty(t, scoring.SelectAndRank(nil, 3))
	out := scoring.SelectAndRank([]model.SegmentCandidate{{StartTime: 0, CombinedScore: 1}}, 0)
	assert.Empty(t, out)
}

func TestSelectAndRankStableOnTies(t *testing.T) {
	// Equal scores keep their input order, so the earliest candidate takes
	// rank 1.
	candidates := []model.SegmentCandidate{
		{StartTime: 0, CombinedScore: 0.5},
		{StartTime: 100, CombinedScore: 0.5},
		{StartTime: 200, CombinedScore: 0.5},
	}
	out := scoring.SelectAndRank(candidates, 2)
	assert.Equal(t, 0.0, out[0].StartTime)
	assert.Equal(t, 1, out[0].Rank)
	assert.Equal(t, 100.0, out[1].StartTime)
	assert.Equal(t, 2, out[1].Rank)
}

// runPipeline executes every stage in order, the way the selection workflow
// wires them.
func runPipeline(req scoring.Request) []model.SegmentCandidate {
	combined := scoring.Combine(req.Audio, req.Visual, req.Speech, req.Config)
	candidates := scoring.GenerateCandidates(combined, req.Interval, req.Config)
	candidates = scoring.ScorePerModality(candidates, req.Audio, req.Visual, req.Speech, req.Interval)
	candidates = scoring.ApplySeparationPenalty(candidates, req.Config)
	candidates = scoring.ApplyDistributionBonus(candidates, req.TotalDuration, req.Config)
	return scoring.SelectAndRank(candidates, req.Count)
}

func TestPipelineFlatSignalsPickEarliestSegments(t *testing.T) {
	// 120s of constant signal produces candidates at 0, 30, and 60. The 60s
	// candidate touches the first one, is demoted, and the top two are the
	// first two windows.
	cfg := model.DefaultEngagementConfig()
	req := scoring.Request{
		Audio:         constant(120, 1),
		Visual:        constant(120, 1),
		Speech:        constant(120, 1),
		Interval:      1.0,
		TotalDuration: 120,
		Count:         2,
		Config:        cfg,
	}

	out := runPipeline(req)

	assert.Len(t, out, 2)
	assert.Equal(t, 0.0, out[0].StartTime)
	assert.Equal(t, 30.0, out[1].StartTime)
}

func TestPipelineFindsThePeak(t *testing.T) {
	// A strong burst in the middle of an otherwise quiet signal should win.
	cfg := model.DefaultEngagementConfig()
	audio := constant(300, 0.1)
	for i := 120; i < 180; i++ {
		audio[i] = 1.0
	}

	req := scoring.Request{
		Audio:         audio,
		Visual:        constant(300, 0.1),
		Speech:        constant(300, 0.1),
		Interval:      1.0,
		TotalDuration: 300,
		Count:         1,
		Config:        cfg,
	}

	out := runPipeline(req)

	assert.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Rank)
	assert.Equal(t, 120.0, out[0].StartTime)
}

func TestPipelineEmptyTimelinesSelectNothing(t *testing.T) {
	req := scoring.Request{
		Interval: 1.0,
		Count:    3,
		Config:   model.DefaultEngagementConfig(),
	}
	out := runPipeline(req)
	assert.Empty(t, out)
}

func TestPipelineStagesArePure(t *testing.T) {
	// Running the pipeline twice over the same inputs yields identical
	// selections; no stage mutates its inputs.
	cfg := model.DefaultEngagementConfig()
	audio := constant(240, 0.2)
	audio[100] = 0.9
	req := scoring.Request{
		Audio:         audio,
		Visual:        constant(240, 0.3),
		Speech:        constant(240, 0.4),
		Interval:      1.0,
		TotalDuration: 240,
		Count:         2,
		Config:        cfg,
	}

	first := runPipeline(req)
	second := runPipeline(req)
	assert.Equal(t, first, second)
}
