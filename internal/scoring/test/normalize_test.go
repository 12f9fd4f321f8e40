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

// Package scoring_test verifies the normalization methods: their output
// ranges, their behavior on degenerate inputs, and their outlier handling.
package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/scoring"
)

func TestNormalizeMinMaxRange(t *testing.T) {
	in := model.Timeline{3, 7, 1, 9, 5}
	out := scoring.Normalize(in, model.NormalizeMinMax)

	assert.Len(t, out, len(in))
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	// The minimum maps to 0 and the maximum to 1.
	assert.Equal(t, 0.0, out[2])
	assert.Equal(t, 1.0, out[3])
}

func TestNormalizeConstantInputYieldsMidpoint(t *testing.T) {
	in := model.Timeline{4.2, 4.2, 4.2, 4.2}
	for _, method := range []string{model.NormalizeMinMax, model.NormalizeZScore, model.NormalizeRobust} {
		out := scoring.Normalize(in, method)
		assert.Len(t, out, len(in))
		for _, v := range out {
			assert.Equal(t, 0.5, v, "method %s", method)
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	out := scoring.Normalize(model.Timeline{}, model.NormalizeMinMax)
	assert.Empty(t, out)
}

func TestNormalizeZScoreSquashesIntoUnitInterval(t *testing.T) {
	in := model.Timeline{-100, 0, 100, 2, 3}
	out := scoring.Normalize(in, model.NormalizeZScore)

	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	// The logistic squash preserves order.
	assert.Less(t, out[0], out[1])
	assert.Less(t, out[1], out[2])
}

func TestNormalizeRobustClipsOutliers(t *testing.T) {
	// One huge outlier should not compress the rest of the distribution the
	// way minmax would; robust scaling clips it to 1 instead.
	in := model.Timeline{1, 2, 3, 4, 1000}
	out := scoring.Normalize(in, model.NormalizeRobust)

	assert.Equal(t, 1.0, out[4])
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	// The non-outlier values keep meaningful spread.
	assert.Less(t, out[0], out[3])
}

func TestNormalizeUnknownMethodFallsBackToMinMax(t *testing.T) {
	in := model.Timeline{1, 2, 3}
	expected := scoring.Normalize(in, model.NormalizeMinMax)
	got := scoring.Normalize(in, "no-such-method")
	assert.Equal(t, expected, got)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := model.Timeline{5, 1, 3}
	scoring.Normalize(in, model.NormalizeMinMax)
	assert.Equal(t, model.Timeline{5, 1, 3}, in)
}
