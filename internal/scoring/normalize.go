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

// Package scoring implements the engagement scorer: pure, synchronous
// functions that normalize per-modality timelines, combine them into one
// engagement signal, generate overlapping candidate segments, and rank the
// candidates under spacing and distribution constraints. Every stage returns
// a fresh slice; nothing in this package holds mutable global state, so a
// call with identical inputs always yields identical output.
//
// This file covers signal normalization and the small statistical helpers
// the stages share.
package scoring

import (
	"math"
	"sort"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

// degenerateValue is what every normalization method returns for a timeline
// with no spread (all values equal). 0.5 keeps the signal neutral: the
// modality contributes no differentiation but also no bias.
const degenerateValue = 0.5

// Normalize rescales a raw timeline into [0,1] using the named method.
// Unknown method names fall back to minmax. Regardless of branch, the output
// is clipped to [0,1] as a safety net against floating point drift.
func Normalize(scores model.Timeline, method string) model.Timeline {
	if len(scores) == 0 {
		return model.Timeline{}
	}

	var out model.Timeline
	switch method {
	case model.NormalizeZScore:
		out = normalizeZScore(scores)
	case model.NormalizeRobust:
		out = normalizeRobust(scores)
	default:
		out = normalizeMinMax(scores)
	}

	for i, v := range out {
		out[i] = clip01(v)
	}
	return out
}

// normalizeMinMax linearly rescales by the observed min and max. A flat
// timeline (min == max) yields the constant degenerate value.
func normalizeMinMax(scores model.Timeline) model.Timeline {
	lo, hi := scores[0], scores[0]
	for _, v := range scores {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := make(model.Timeline, len(scores))
	if hi == lo {
		for i := range out {
			out[i] = degenerateValue
		}
		return out
	}
	for i, v := range scores {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// normalizeZScore standardizes the timeline and maps it through a logistic
// squash to land in [0,1]. Zero standard deviation yields the constant
// degenerate value.
func normalizeZScore(scores model.Timeline) model.Timeline {
	m := mean(scores)
	sd := stdDev(scores, m)

	out := make(model.Timeline, len(scores))
	if sd == 0 {
		for i := range out {
			out[i] = degenerateValue
		}
		return out
	}
	for i, v := range scores {
		z := (v - m) / sd
		out[i] = 1.0 / (1.0 + math.Exp(-z))
	}
	return out
}

// normalizeRobust scales by the interquartile range, which resists outlier
// spikes better than minmax. It intentionally clips instead of squashing, so
// values beyond the IQR saturate at 0 or 1. A zero IQR yields the constant
// degenerate value.
func normalizeRobust(scores model.Timeline) model.Timeline {
	q25 := percentile(scores, 25)
	q75 := percentile(scores, 75)
	iqr := q75 - q25

	out := make(model.Timeline, len(scores))
	if iqr == 0 {
		for i := range out {
			out[i] = degenerateValue
		}
		return out
	}
	for i, v := range scores {
		out[i] = clip01((v - q25) / iqr)
	}
	return out
}

// clip01 clamps v to [0,1].
func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// mean returns the arithmetic mean of scores, or 0 for an empty slice.
func mean(scores model.Timeline) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// stdDev returns the population standard deviation around the given mean.
func stdDev(scores model.Timeline, mean float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range scores {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(scores)))
}

// percentile returns the p-th percentile of scores using linear interpolation
// between adjacent ranks on the sorted data.
func percentile(scores model.Timeline, p float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}
