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

// This file implements the visual modality analyzer. It samples ffmpeg's
// per-frame scene-change score (frame difference against the previous frame)
// as a motion proxy, takes the peak score within each interval, and smooths
// the result with a short moving average so single hard cuts do not dominate
// their neighbors.
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

const sceneScoreKey = "lavfi.scene_score"

// smoothingWindow is the moving-average width (in intervals) applied to the
// visual timeline.
const smoothingWindow = 3

// VisualAnalyzer derives a motion and scene-change timeline from the video
// track.
type VisualAnalyzer struct {
	runner   *Runner
	settings engine.AnalysisSettings
}

// NewVisualAnalyzer creates a visual analyzer backed by the shared ffmpeg
// runner.
func NewVisualAnalyzer(runner *Runner, settings engine.AnalysisSettings) *VisualAnalyzer {
	return &VisualAnalyzer{runner: runner, settings: settings}
}

// ProduceTimeline scores every interval by the strongest frame difference
// observed within it.
func (a *VisualAnalyzer) ProduceTimeline(ctx context.Context, sourcePath string, report ProgressFunc) (model.Timeline, model.Summary, error) {
	if err := ValidateVideo(sourcePath); err != nil {
		return nil, nil, err
	}

	report(10, "probing source duration")
	duration, err := a.runner.ProbeDuration(ctx, sourcePath)
	if err != nil {
		return nil, nil, err
	}

	report(30, "scoring frame differences")
	sceneOut, err := a.runner.CaptureFilterOutput(ctx, sourcePath,
		"-vf", fmt.Sprintf("select='gte(scene,0)',metadata=mode=print:key=%s", sceneScoreKey),
	)
	if err != nil {
		return nil, nil, err
	}
	frames := ParseSceneFrames(sceneOut)
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("no scene score samples produced for %s", sourcePath)
	}

	report(70, "building timeline")
	interval := a.settings.IntervalSeconds
	if interval <= 0 {
		interval = 1.0
	}
	buckets := int(math.Ceil(duration / interval))
	if buckets <= 0 {
		buckets = 1
	}
	timeline := make(model.Timeline, buckets)
	sceneChanges := 0
	for _, f := range frames {
		if f.Score >= a.settings.SceneThreshold {
			sceneChanges++
		}
		b := int(f.PtsTime / interval)
		if b < 0 || b >= buckets {
			continue
		}
		timeline[b] = math.Max(timeline[b], f.Score)
	}

	report(90, "smoothing timeline")
	timeline = smooth(timeline, smoothingWindow)

	summary := model.Summary{
		"duration":       duration,
		"frame_count":    len(frames),
		"scene_changes":  sceneChanges,
		"mean_intensity": timelineMean(timeline),
	}

	report(100, "visual analysis complete")
	return timeline, summary, nil
}

// Cleanup is a no-op; the visual analyzer holds no per-run resources.
func (a *VisualAnalyzer) Cleanup() {}

// SceneFrame is one per-frame difference measurement.
type SceneFrame struct {
	PtsTime float64
	Score   float64
}

// ParseSceneFrames extracts frame timestamps and scene scores from metadata
// print output. The filter emits a frame header line followed by the score:
//
//	frame:42  pts:10752  pts_time:10.752
//	lavfi.scene_score=0.184
func ParseSceneFrames(output string) []SceneFrame {
	frames := make([]SceneFrame, 0, 256)
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
		if idx := strings.Index(line, sceneScoreKey+"="); idx >= 0 && haveTime {
			raw := strings.TrimSpace(line[idx+len(sceneScoreKey)+1:])
			if score, err := strconv.ParseFloat(raw, 64); err == nil {
				frames = append(frames, SceneFrame{PtsTime: current, Score: score})
			}
		}
	}
	return frames
}

// smooth applies a centered moving average of the given width. Edges use the
// samples that exist, so the output length matches the input.
func smooth(t model.Timeline, window int) model.Timeline {
	if window <= 1 || len(t) == 0 {
		return t
	}
	half := window / 2
	out := make(model.Timeline, len(t))
	for i := range t {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > len(t) {
			hi = len(t)
		}
		sum := 0.0
		for _, v := range t[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}
