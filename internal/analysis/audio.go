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

// This file implements the audio modality analyzer. It measures per-frame
// RMS loudness with ffmpeg's astats filter, converts decibels to linear
// energy, and buckets the samples into a per-interval timeline. A second
// pass with silencedetect contributes a silence ratio to the summary.
package analysis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/engine"
)

const rmsLevelKey = "lavfi.astats.Overall.RMS_level"

// AudioAnalyzer derives an energy timeline from the source's audio track.
type AudioAnalyzer struct {
	runner   *Runner
	settings engine.AnalysisSettings
}

// NewAudioAnalyzer creates an audio analyzer backed by the shared ffmpeg
// runner.
func NewAudioAnalyzer(runner *Runner, settings engine.AnalysisSettings) *AudioAnalyzer {
	return &AudioAnalyzer{runner: runner, settings: settings}
}

// ProduceTimeline measures audio energy per interval. Loudness is sampled
// per audio frame, converted from dBFS to linear amplitude, then averaged
// within each interval bucket.
func (a *AudioAnalyzer) ProduceTimeline(ctx context.Context, sourcePath string, report ProgressFunc) (model.Timeline, model.Summary, error) {
	if err := ValidateVideo(sourcePath); err != nil {
		return nil, nil, err
	}

	report(10, "probing source duration")
	duration, err := a.runner.ProbeDuration(ctx, sourcePath)
	if err != nil {
		return nil, nil, err
	}

	report(30, "measuring loudness")
	statsOut, err := a.runner.CaptureFilterOutput(ctx, sourcePath,
		"-af", fmt.Sprintf("astats=metadata=1:reset=1,ametadata=mode=print:key=%s", rmsLevelKey),
	)
	if err != nil {
		return nil, nil, err
	}
	samples := ParseLoudnessFrames(statsOut)
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("no audio loudness samples produced for %s", sourcePath)
	}

	report(60, "detecting silence")
	silenceOut, err := a.runner.CaptureFilterOutput(ctx, sourcePath,
		"-af", fmt.Sprintf("silencedetect=noise=%gdB:d=0.5", a.settings.SilenceThresholdDb),
	)
	if err != nil {
		return nil, nil, err
	}
	silenceTotal, silenceCount := ParseSilenceDurations(silenceOut)

	report(90, "building timeline")
	interval := a.settings.IntervalSeconds
	if interval <= 0 {
		interval = 1.0
	}
	timeline := bucketSamples(samples, duration, interval)

	peak := 0.0
	for _, v := range timeline {
		peak = math.Max(peak, v)
	}
	summary := model.Summary{
		"duration":        duration,
		"sample_count":    len(samples),
		"mean_energy":     timelineMean(timeline),
		"peak_energy":     peak,
		"silence_count":   silenceCount,
		"silence_seconds": silenceTotal,
		"silence_ratio":   safeRatio(silenceTotal, duration),
	}

	report(100, "audio analysis complete")
	return timeline, summary, nil
}

// Cleanup is a no-op; the audio analyzer holds no per-run resources.
func (a *AudioAnalyzer) Cleanup() {}

// LoudnessSample is one per-frame loudness measurement: when it occurred and
// its linear (not decibel) energy.
type LoudnessSample struct {
	PtsTime float64
	Energy  float64
}

// ParseLoudnessFrames extracts loudness samples from ametadata print output.
// The filter interleaves two line shapes, a frame header carrying pts_time
// and a key=value line carrying the RMS level in dBFS:
//
//	frame:12   pts:12288   pts_time:0.278639
//	lavfi.astats.Overall.RMS_level=-25.476
//
// Silent frames report "-inf", which maps to zero energy.
func ParseLoudnessFrames(output string) []LoudnessSample {
	samples := make([]LoudnessSample, 0, 256)
	current := 0.0
	haveTime := false

	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, "pts_time:"); idx >= 0 {
			field := strings.Fields(line[idx+len("pts_time:"):])
			if len(field) == 0 {
				continue
			}
			if t, err := strconv.ParseFloat(field[0], 64); err == nil {
				current = t
				haveTime = true
			}
			continue
		}
		if idx := strings.Index(line, rmsLevelKey+"="); idx >= 0 && haveTime {
			raw := strings.TrimSpace(line[idx+len(rmsLevelKey)+1:])
			samples = append(samples, LoudnessSample{PtsTime: current, Energy: dbToEnergy(raw)})
		}
	}
	return samples
}

// ParseSilenceDurations sums the silence_duration values reported by
// silencedetect and counts the silent stretches.
func ParseSilenceDurations(output string) (total float64, count int) {
	const marker = "silence_duration:"
	for _, line := range strings.Split(output, "\n") {
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		field := strings.Fields(line[idx+len(marker):])
		if len(field) == 0 {
			continue
		}
		if d, err := strconv.ParseFloat(field[0], 64); err == nil {
			total += d
			count++
		}
	}
	return total, count
}

// dbToEnergy converts a dBFS string to linear amplitude. "-inf" (digital
// silence) becomes 0.
func dbToEnergy(raw string) float64 {
	if strings.Contains(raw, "inf") || strings.Contains(raw, "nan") {
		return 0
	}
	db, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return math.Pow(10, db/20)
}

// bucketSamples averages the samples falling into each interval-wide bucket
// across the full duration. Buckets with no samples stay at zero.
func bucketSamples(samples []LoudnessSample, duration, interval float64) model.Timeline {
	buckets := int(math.Ceil(duration / interval))
	if buckets <= 0 {
		buckets = 1
	}
	sums := make([]float64, buckets)
	counts := make([]int, buckets)

	for _, s := range samples {
		b := int(s.PtsTime / interval)
		if b < 0 || b >= buckets {
			continue
		}
		sums[b] += s.Energy
		counts[b]++
	}

	timeline := make(model.Timeline, buckets)
	for i := range timeline {
		if counts[i] > 0 {
			timeline[i] = sums[i] / float64(counts[i])
		}
	}
	return timeline
}

// safeRatio divides a by b, returning 0 for a non-positive denominator.
func safeRatio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

// timelineMean returns the arithmetic mean of a timeline, or 0 when empty.
func timelineMean(t model.Timeline) float64 {
	if len(t) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range t {
		sum += v
	}
	return sum / float64(len(t))
}
