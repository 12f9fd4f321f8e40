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

// This file tests the engagement analysis orchestrator: concurrent fan-out,
// failure isolation, cache interaction, and progress reporting. Scripted
// analyzers stand in for the ffmpeg-backed ones so the tests run without any
// external tools.
package workflow_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-media-engagement/internal/analysis"
	"github.com/jaycherian/go-media-engagement/internal/cache"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/core/workflow"
	test "github.com/jaycherian/go-media-engagement/internal/testutil"
)

// newTestStore builds an enabled cache store rooted in a per-test directory.
func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.NewStore(t.TempDir(), true)
	require.NoError(t, err)
	return store
}

// writeSourceFile creates a stat-able stand-in for a video so fingerprints
// are stable across lookups.
func writeSourceFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.mp4")
	require.NoError(t, os.WriteFile(path, []byte("stand-in"), 0o644))
	return path
}

func TestAnalyzeAllMergesModalities(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "analyze-all-test")
	defer span.End()

	audio := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(10, 0.1), Summary: model.Summary{"duration": 10.0}}
	visual := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(10, 0.2), Summary: model.Summary{}}
	speech := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(10, 0.3), Summary: model.Summary{}}
	analyzers := &analysis.AnalyzerSet{Audio: audio, Visual: visual, Speech: speech}

	engagement := workflow.NewEngagementAnalysisWorkflow(config, analyzers, newTestStore(t), nil)

	result, err := engagement.AnalyzeAll(traceContext, writeSourceFile(t))
	require.NoError(t, err)

	assert.Equal(t, test.ConstantTimeline(10, 0.1), result.Audio.Timeline)
	assert.Equal(t, test.ConstantTimeline(10, 0.2), result.Visual.Timeline)
	assert.Equal(t, test.ConstantTimeline(10, 0.3), result.Speech.Timeline)
	assert.NotEmpty(t, result.Metadata.RunID)
	assert.GreaterOrEqual(t, result.Metadata.WallClockSeconds, 0.0)

	// Each analyzer ran exactly once and was cleaned up.
	assert.Equal(t, 1, audio.Calls)
	assert.Equal(t, 1, audio.Cleanups)
	assert.Equal(t, 1, visual.Calls)
	assert.Equal(t, 1, speech.Calls)
}

func TestAnalyzeAllIsolatesModalityFailure(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "failure-isolation-test")
	defer span.End()

	audio := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(10, 0.1), Summary: model.Summary{}}
	visual := &test.ScriptedAnalyzer{Err: errors.New("scene filter crashed")}
	speech := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(10, 0.3), Summary: model.Summary{}}
	analyzers := &analysis.AnalyzerSet{Audio: audio, Visual: visual, Speech: speech}

	engagement := workflow.NewEngagementAnalysisWorkflow(config, analyzers, newTestStore(t), nil)

	result, err := engagement.AnalyzeAll(traceContext, writeSourceFile(t))
	require.NoError(t, err)

	// The failed modality degrades to an empty result; its siblings are
	// untouched.
	assert.Empty(t, result.Visual.Timeline)
	assert.Equal(t, test.ConstantTimeline(10, 0.1), result.Audio.Timeline)
	assert.Equal(t, test.ConstantTimeline(10, 0.3), result.Speech.Timeline)

	// The failure shows up in progress as the sentinel percent.
	progress := engagement.CurrentProgress()
	assert.Equal(t, model.ProgressFailed, progress[model.ModalityVisual].Percent)
	assert.Equal(t, 100.0, progress[model.ModalityAudio].Percent)

	// Cleanup still ran for the failed analyzer.
	assert.Equal(t, 1, visual.Cleanups)
}

func TestAnalyzeModalityWritesThroughCache(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "cache-write-through-test")
	defer span.End()

	store := newTestStore(t)
	sourcePath := writeSourceFile(t)

	audio := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(5, 0.5), Summary: model.Summary{}}
	analyzers := &analysis.AnalyzerSet{Audio: audio, Visual: audio, Speech: audio}
	engagement := workflow.NewEngagementAnalysisWorkflow(config, analyzers, store, nil)

	result, err := engagement.AnalyzeModality(traceContext, sourcePath, model.ModalityAudio)
	require.NoError(t, err)
	assert.Equal(t, test.ConstantTimeline(5, 0.5), result.Timeline)

	// The fresh result landed in the cache under the source fingerprint.
	entry, ok := store.Get(cache.Fingerprint(sourcePath, model.ModalityAudio))
	require.True(t, ok)
	assert.Equal(t, result.Timeline, entry.Data.Timeline)

	// A second run is served from the cache without touching the analyzer.
	_, err = engagement.AnalyzeModality(traceContext, sourcePath, model.ModalityAudio)
	require.NoError(t, err)
	assert.Equal(t, 1, audio.Calls)
}

func TestAnalyzeModalityCacheHitReportsComplete(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "cache-hit-progress-test")
	defer span.End()

	store := newTestStore(t)
	sourcePath := writeSourceFile(t)
	store.Put(cache.Fingerprint(sourcePath, model.ModalitySpeech), model.ModalityResult{
		Timeline: test.ConstantTimeline(5, 0.9),
		Summary:  model.Summary{},
	})

	speech := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(5, 0.1), Summary: model.Summary{}}
	analyzers := &analysis.AnalyzerSet{Audio: speech, Visual: speech, Speech: speech}
	engagement := workflow.NewEngagementAnalysisWorkflow(config, analyzers, store, nil)

	result, err := engagement.AnalyzeModality(traceContext, sourcePath, model.ModalitySpeech)
	require.NoError(t, err)

	// The cached timeline wins and the analyzer is never invoked.
	assert.Equal(t, test.ConstantTimeline(5, 0.9), result.Timeline)
	assert.Equal(t, 0, speech.Calls)

	progress := engagement.CurrentProgress()
	assert.Equal(t, 100.0, progress[model.ModalitySpeech].Percent)
	assert.Equal(t, "loaded from cache", progress[model.ModalitySpeech].Status)
}

func TestAnalyzeAllSerializesConcurrentRuns(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "concurrent-runs-test")
	defer span.End()

	// A disabled store misses on every lookup, forcing each run through the
	// analyzers instead of the cache.
	store, err := cache.NewStore(t.TempDir(), false)
	require.NoError(t, err)

	audio := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(10, 0.1), Summary: model.Summary{}}
	visual := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(10, 0.2), Summary: model.Summary{}}
	speech := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(10, 0.3), Summary: model.Summary{}}
	analyzers := &analysis.AnalyzerSet{Audio: audio, Visual: visual, Speech: speech}

	engagement := workflow.NewEngagementAnalysisWorkflow(config, analyzers, store, nil)
	sourcePath := writeSourceFile(t)

	const runs = 4
	results := make([]*model.AnalysisResult, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engagement.AnalyzeAll(traceContext, sourcePath)
		}(i)
	}
	wg.Wait()

	// Every caller gets a complete result with its own run identity.
	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, test.ConstantTimeline(10, 0.1), results[i].Audio.Timeline)
		assert.Equal(t, test.ConstantTimeline(10, 0.2), results[i].Visual.Timeline)
		assert.Equal(t, test.ConstantTimeline(10, 0.3), results[i].Speech.Timeline)
	}
	assert.NotEqual(t, results[0].Metadata.RunID, results[1].Metadata.RunID)

	// Runs queued instead of overlapping: each analyzer saw one invocation
	// and one cleanup per run, and the last run's progress is intact.
	assert.Equal(t, runs, audio.Calls)
	assert.Equal(t, runs, audio.Cleanups)
	assert.Equal(t, runs, visual.Calls)
	assert.Equal(t, runs, speech.Calls)
	progress := engagement.CurrentProgress()
	for _, m := range model.AllModalities() {
		assert.Equal(t, 100.0, progress[m].Percent, "modality %s", m)
	}
}

func TestAnalyzeAllInvokesProgressCallback(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "progress-callback-test")
	defer span.End()

	var mu sync.Mutex
	seen := make(map[model.Modality]float64)
	callback := func(modality model.Modality, percent float64, status string) {
		mu.Lock()
		defer mu.Unlock()
		seen[modality] = percent
	}

	audio := &test.ScriptedAnalyzer{Timeline: test.ConstantTimeline(5, 0.5), Summary: model.Summary{}}
	analyzers := &analysis.AnalyzerSet{Audio: audio, Visual: audio, Speech: audio}
	engagement := workflow.NewEngagementAnalysisWorkflow(config, analyzers, newTestStore(t), callback)

	_, err := engagement.AnalyzeAll(traceContext, writeSourceFile(t))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	for _, m := range model.AllModalities() {
		assert.Equal(t, 100.0, seen[m], "modality %s", m)
	}
}
