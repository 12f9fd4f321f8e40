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

// This file implements the ordered pipeline stages of the engagement scorer.
// The stages must run in sequence (combine, generate, per-modality score,
// separation penalty, distribution bonus, select and rank) because each reads
// the scores the previous stage produced. Every stage takes candidates by
// value and returns a new slice, making the ordering an explicit data
// dependency instead of hidden in-place mutation.
//
// Sorting throughout uses stable sorts so candidates with equal scores keep
// their generation order, which keeps selection deterministic on flat
// signals.
package scoring

import (
	"math"
	"sort"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

// Request carries the inputs for one full scoring run.
type Request struct {
	Audio         model.Timeline         // Raw audio timeline, one value per interval.
	Visual        model.Timeline         // Raw visual timeline.
	Speech        model.Timeline         // Raw speech timeline.
	Interval      float64                // Seconds per timeline sample.
	TotalDuration float64                // Source duration in seconds; <= 0 disables the distribution bonus.
	Count         int                    // Number of segments to select.
	Config        model.EngagementConfig // Read-only scoring configuration.
}

// PipelineState is the document piped between the scoring pipeline commands.
// Each stage fills in another field.
type PipelineState struct {
	Request    Request
	Combined   model.Timeline
	Candidates []model.SegmentCandidate
}

// Combine truncates the three raw timelines to their shortest common length,
// normalizes each independently, and merges them into a single weighted
// engagement timeline. An empty input produces an empty output, which callers
// must treat as "cannot select segments".
func Combine(audio, visual, speech model.Timeline, cfg model.EngagementConfig) model.Timeline {
	minLen := len(audio)
	if len(visual) < minLen {
		minLen = len(visual)
	}
	if len(speech) < minLen {
		minLen = len(speech)
	}
	if minLen == 0 {
		return model.Timeline{}
	}

	audioNorm := Normalize(audio[:minLen], cfg.NormalizationMethod)
	visualNorm := Normalize(visual[:minLen], cfg.NormalizationMethod)
	speechNorm := Normalize(speech[:minLen], cfg.NormalizationMethod)

	combined := make(model.Timeline, minLen)
	for i := 0; i < minLen; i++ {
		combined[i] = audioNorm[i]*cfg.Weights.Audio +
			visualNorm[i]*cfg.Weights.Visual +
			speechNorm[i]*cfg.Weights.Speech
	}
	return combined
}

// GenerateCandidates slides a fixed-width window over the combined timeline
// with 50% overlap and emits one candidate per window position. The window
// width in samples is the segment duration divided by the sample interval;
// windows that would run past the end of the timeline are not emitted, so
// every candidate has the full configured duration.
func GenerateCandidates(combined model.Timeline, interval float64, cfg model.EngagementConfig) []model.SegmentCandidate {
	if interval <= 0 {
		interval = 1.0
	}
	window := int(math.Round(float64(cfg.SegmentDurationSeconds) / interval))
	if window <= 0 || window > len(combined) {
		return []model.SegmentCandidate{}
	}
	stride := window / 2
	if stride < 1 {
		stride = 1
	}

	candidates := make([]model.SegmentCandidate, 0, len(combined)/stride+1)
	for start := 0; start+window <= len(combined); start += stride {
		startTime := float64(start) * interval
		candidates = append(candidates, model.SegmentCandidate{
			StartTime:     startTime,
			EndTime:       startTime + float64(cfg.SegmentDurationSeconds),
			Duration:      float64(cfg.SegmentDurationSeconds),
			CombinedScore: mean(combined[start : start+window]),
		})
	}
	return candidates
}

// ScorePerModality fills in each candidate's audio, visual, and speech scores
// as the mean of the raw (not normalized) modality timeline over the
// candidate's index range. A modality timeline shorter than the candidate's
// window degrades gracefully: the slice is clamped to what exists, and a
// window entirely past the end scores 0.
func ScorePerModality(candidates []model.SegmentCandidate, audio, visual, speech model.Timeline, interval float64) []model.SegmentCandidate {
	if interval <= 0 {
		interval = 1.0
	}
	out := make([]model.SegmentCandidate, len(candidates))
	copy(out, candidates)

	for i := range out {
		start := int(math.Round(out[i].StartTime / interval))
		end := start + int(math.Round(out[i].Duration/interval))
		out[i].AudioScore = sliceMean(audio, start, end)
		out[i].VisualScore = sliceMean(visual, start, end)
		out[i].SpeechScore = sliceMean(speech, start, end)
	}
	return out
}

// sliceMean averages t[start:end] with the end clamped to the timeline
// length. A start at or past the end of the timeline yields 0.
func sliceMean(t model.Timeline, start, end int) float64 {
	if start >= len(t) || start < 0 {
		return 0
	}
	if end > len(t) {
		end = len(t)
	}
	return mean(t[start:end])
}

// ApplySeparationPenalty demotes candidates that sit too close to a stronger
// candidate. The list is sorted descending by combined score, then walked
// once: a candidate is accepted if its distance to every already-accepted
// candidate is at least the configured minimum separation, otherwise its
// combined score is multiplied by the overlap penalty factor. The full sorted
// list is returned; rejection demotes, it never removes.
func ApplySeparationPenalty(candidates []model.SegmentCandidate, cfg model.EngagementConfig) []model.SegmentCandidate {
	out := make([]model.SegmentCandidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})

	accepted := make([]model.SegmentCandidate, 0, len(out))
	for i := range out {
		ok := true
		for _, a := range accepted {
			gap := math.Min(
				math.Abs(out[i].StartTime-a.EndTime),
				math.Abs(a.StartTime-out[i].EndTime),
			)
			if gap < float64(cfg.MinSeparationSeconds) {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, out[i])
		} else {
			out[i].CombinedScore *= cfg.OverlapPenaltyFactor
		}
	}
	return out
}

// distributionBucketCount is the number of equal-width time buckets used by
// the distribution bonus.
const distributionBucketCount = 5

// ApplyDistributionBonus rewards candidates that start in sparsely populated
// regions of the source. The source duration is split into five equal-width
// buckets by start time; each candidate gains bonus/bucketPopulation, so a
// lone candidate in its fifth of the video gains the full bonus while
// clustered candidates split it. Bucket membership depends only on start
// times, so the bonus is idempotent for a fixed candidate set.
func ApplyDistributionBonus(candidates []model.SegmentCandidate, totalDuration float64, cfg model.EngagementConfig) []model.SegmentCandidate {
	out := make([]model.SegmentCandidate, len(candidates))
	copy(out, candidates)
	if totalDuration <= 0 || len(out) == 0 {
		return out
	}

	bucketWidth := totalDuration / distributionBucketCount
	bucketOf := func(c model.SegmentCandidate) int {
		b := int(c.StartTime / bucketWidth)
		if b >= distributionBucketCount {
			b = distributionBucketCount - 1
		}
		return b
	}

	population := make(map[int]int, distributionBucketCount)
	for _, c := range out {
		population[bucketOf(c)]++
	}
	for i := range out {
		out[i].CombinedScore += cfg.DistributionBonus / float64(population[bucketOf(out[i])])
	}
	return out
}

// SelectAndRank picks the top count candidates by final combined score,
// assigns rank 1..N in that quality order, then re-sorts the selection
// chronologically. Ranks survive the re-sort, so they are not monotonic with
// list position: rank 1 is the best segment wherever it falls in time.
func SelectAndRank(candidates []model.SegmentCandidate, count int) []model.SegmentCandidate {
	out := make([]model.SegmentCandidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})

	if count < 0 {
		count = 0
	}
	if count < len(out) {
		out = out[:count]
	}
	for i := range out {
		out[i].Rank = i + 1
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out
}
