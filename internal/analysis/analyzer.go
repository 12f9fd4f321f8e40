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

// Package analysis implements the modality analyzers: the collaborators that
// turn a source video into per-second engagement signal timelines. The audio
// and visual analyzers shell out to ffmpeg filters and parse their metadata
// output; the speech analyzer reads a sidecar subtitle file or transcribes
// via a rate-limited whisper CLI. This file defines the Analyzer contract
// and the set of analyzers built from application configuration.
package analysis

import (
	"context"
	"fmt"
	"os"

	"github.com/h2non/filetype"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/engine"
)

// ProgressFunc receives progress milestones from an analyzer while it works.
// Implementations must be cheap; analyzers call it inline.
type ProgressFunc func(percent float64, status string)

// Analyzer produces a fixed-interval signal timeline and a descriptive
// summary for one modality of a source video.
type Analyzer interface {
	// ProduceTimeline analyzes the source and returns its timeline and
	// summary. Progress milestones are reported through report, which is
	// never nil.
	ProduceTimeline(ctx context.Context, sourcePath string, report ProgressFunc) (model.Timeline, model.Summary, error)

	// Cleanup releases any resources held from the last run (temp files,
	// buffers). The orchestrator calls it after every run, success or not.
	Cleanup()
}

// AnalyzerSet bundles one analyzer per modality.
type AnalyzerSet struct {
	Audio  Analyzer
	Visual Analyzer
	Speech Analyzer
}

// NewAnalyzerSet builds the production analyzers from configuration, sharing
// a single ffmpeg runner across modalities.
func NewAnalyzerSet(cfg *engine.Config) *AnalyzerSet {
	runner := NewRunner(cfg.Tools.FFmpegPath, cfg.Tools.FFprobePath)
	transcriber := NewQuotaAwareTranscriber(cfg.Tools.WhisperPath, cfg.Tools.WhisperModel, cfg.Tools.TranscriptionsPerMinute)
	return &AnalyzerSet{
		Audio:  NewAudioAnalyzer(runner, cfg.Analysis),
		Visual: NewVisualAnalyzer(runner, cfg.Analysis),
		Speech: NewSpeechAnalyzer(runner, transcriber, cfg.Analysis),
	}
}

// ForModality returns the analyzer for m, or nil for an unknown modality.
func (s *AnalyzerSet) ForModality(m model.Modality) Analyzer {
	switch m {
	case model.ModalityAudio:
		return s.Audio
	case model.ModalityVisual:
		return s.Visual
	case model.ModalitySpeech:
		return s.Speech
	}
	return nil
}

// ValidateVideo checks that the file at sourcePath exists and sniffs its
// magic bytes to confirm it is a video container. Catching a bad path here
// produces one clear error instead of three confusing ffmpeg failures.
func ValidateVideo(sourcePath string) error {
	f, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source video %s: %w", sourcePath, err)
	}
	defer func() { _ = f.Close() }()

	// 261 bytes is the maximum header length the matchers need.
	head := make([]byte, 261)
	n, err := f.Read(head)
	if err != nil {
		return fmt.Errorf("failed to read source video header %s: %w", sourcePath, err)
	}
	if !filetype.IsVideo(head[:n]) {
		return fmt.Errorf("source file %s is not a recognized video format", sourcePath)
	}
	return nil
}
