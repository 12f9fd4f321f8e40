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

// Package model defines the transient data structures that flow through the
// engagement analysis and segment selection pipelines. These types are pure
// data carriers: they hold per-modality signal timelines, candidate segments,
// progress events, and the tunable scoring configuration. None of them own
// goroutines, locks, or I/O handles; lifecycle and concurrency concerns live
// in the workflow and analysis packages.
package model

import "time"

// Modality identifies one of the three independent signal sources the
// engagement engine understands.
type Modality string

const (
	ModalityAudio  Modality = "audio"
	ModalityVisual Modality = "visual"
	ModalitySpeech Modality = "speech"
)

// AllModalities returns the fixed set of modalities in their canonical order.
// The order matters only for deterministic logging and fan-out; the analyses
// themselves are independent.
func AllModalities() []Modality {
	return []Modality{ModalityAudio, ModalityVisual, ModalitySpeech}
}

// Timeline is an ordered sequence of non-negative scalar scores, one value per
// fixed time interval (one second by default). Lengths may differ slightly
// across modalities for the same source; the scorer reconciles by truncating
// to the shortest.
type Timeline []float64

// Summary holds the free-form descriptive record a modality analyzer produces
// alongside its timeline (durations, counts, ratios). It is persisted to the
// cache and surfaced to callers but never interpreted by the scorer.
type Summary map[string]any

// ModalityResult bundles the timeline and summary produced by a single
// modality analysis run. A failed modality is represented by an empty
// timeline and an empty summary, never by a nil result.
type ModalityResult struct {
	Timeline Timeline `json:"timeline"`
	Summary  Summary  `json:"summary"`
}

// EmptyModalityResult returns the canonical "this modality failed or produced
// nothing" value used by the orchestrator's failure isolation.
func EmptyModalityResult() *ModalityResult {
	return &ModalityResult{Timeline: Timeline{}, Summary: Summary{}}
}

// ProgressFailed is the sentinel percent value for a modality-level failure.
const ProgressFailed = -1.0

// ProgressEvent is a point-in-time report of how far a single modality
// analysis has progressed. Percent is in [0,100], or ProgressFailed when the
// modality's analyzer raised an error.
type ProgressEvent struct {
	Modality  Modality  `json:"modality"`
	Percent   float64   `json:"percent"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Weights holds the relative contribution of each normalized modality signal
// to the combined engagement timeline. The defaults favor audio slightly,
// mirroring how strongly loudness shifts track viewer attention.
type Weights struct {
	Audio  float64 `toml:"audio" json:"audio"`
	Visual float64 `toml:"visual" json:"visual"`
	Speech float64 `toml:"speech" json:"speech"`
}

// Normalization method names accepted by EngagementConfig. An unknown name
// silently falls back to minmax.
const (
	NormalizeMinMax = "minmax"
	NormalizeZScore = "zscore"
	NormalizeRobust = "robust"
)

// EngagementConfig carries every tunable knob of the segment scorer. It is
// treated as read-only for the duration of one scoring call.
type EngagementConfig struct {
	Weights                Weights `toml:"weights" json:"weights"`
	SegmentDurationSeconds int     `toml:"segment_duration_seconds" json:"segment_duration_seconds"`
	MinSeparationSeconds   int     `toml:"min_separation_seconds" json:"min_separation_seconds"`
	OverlapPenaltyFactor   float64 `toml:"overlap_penalty_factor" json:"overlap_penalty_factor"`
	DistributionBonus      float64 `toml:"distribution_bonus" json:"distribution_bonus"`
	NormalizationMethod    string  `toml:"normalization_method" json:"normalization_method"`
}

// DefaultEngagementConfig returns the standard scoring configuration:
// 60-second segments, 30-second minimum separation, a 0.5 overlap penalty,
// a 0.1 distribution bonus, and minmax normalization with 0.4/0.3/0.3 weights.
func DefaultEngagementConfig() EngagementConfig {
	return EngagementConfig{
		Weights:                Weights{Audio: 0.4, Visual: 0.3, Speech: 0.3},
		SegmentDurationSeconds: 60,
		MinSeparationSeconds:   30,
		OverlapPenaltyFactor:   0.5,
		DistributionBonus:      0.1,
		NormalizationMethod:    NormalizeMinMax,
	}
}

// SegmentCandidate is a fixed-duration sub-clip proposal produced by the
// candidate generator and refined by the later scoring stages. CombinedScore
// evolves as the penalty and bonus stages run; Rank stays zero until the
// final selection stage assigns 1..N in quality order. Candidates live for a
// single scoring call and are never persisted.
type SegmentCandidate struct {
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	Duration      float64 `json:"duration"`
	AudioScore    float64 `json:"audio_score"`
	VisualScore   float64 `json:"visual_score"`
	SpeechScore   float64 `json:"speech_score"`
	CombinedScore float64 `json:"combined_score"`
	Rank          int     `json:"rank"`
}

// AnalysisMetadata records where an aggregate analysis came from and how long
// it took, along with the scoring configuration in force at the time.
type AnalysisMetadata struct {
	RunID            string           `json:"run_id"`
	SourcePath       string           `json:"source_path"`
	WallClockSeconds float64          `json:"wall_clock_seconds"`
	Timestamp        time.Time        `json:"timestamp"`
	Config           EngagementConfig `json:"config"`
}

// AnalysisResult is the aggregate output of a full three-modality analysis.
// Every modality field is always populated; a failed modality holds the empty
// result rather than a nil pointer so downstream code never branches on nil.
type AnalysisResult struct {
	Audio    *ModalityResult  `json:"audio"`
	Visual   *ModalityResult  `json:"visual"`
	Speech   *ModalityResult  `json:"speech"`
	Metadata AnalysisMetadata `json:"metadata"`
}

// Result returns the modality result for m, or nil for an unknown modality.
func (r *AnalysisResult) Result(m Modality) *ModalityResult {
	switch m {
	case ModalityAudio:
		return r.Audio
	case ModalityVisual:
		return r.Visual
	case ModalitySpeech:
		return r.Speech
	}
	return nil
}

// SetResult stores the modality result for m. Unknown modalities are ignored.
func (r *AnalysisResult) SetResult(m Modality, result *ModalityResult) {
	switch m {
	case ModalityAudio:
		r.Audio = result
	case ModalityVisual:
		r.Visual = result
	case ModalitySpeech:
		r.Speech = result
	}
}

// TotalDurationSeconds estimates the source duration from the longest
// modality timeline, so a single failed modality never zeroes the estimate.
// A non-positive interval falls back to one second.
func (r *AnalysisResult) TotalDurationSeconds(interval float64) float64 {
	if interval <= 0 {
		interval = 1.0
	}
	longest := 0
	for _, m := range AllModalities() {
		if res := r.Result(m); res != nil && len(res.Timeline) > longest {
			longest = len(res.Timeline)
		}
	}
	return float64(longest) * interval
}

// ModalityAnalysisRequest is the input document for one trip through the
// modality analysis chain: which file, which modality, and the cache
// fingerprint computed for the pair.
type ModalityAnalysisRequest struct {
	SourcePath  string   `json:"source_path"`
	Modality    Modality `json:"modality"`
	Fingerprint string   `json:"fingerprint"`
}
