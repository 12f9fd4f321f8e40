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

// This file implements the speech modality analyzer. It prefers a sidecar
// SRT next to the source video; when none exists it extracts the audio track
// and transcribes it through the rate-limited whisper wrapper. Each interval
// is scored by the speech density of the cues covering it, boosted by
// configured keyword weights.
package analysis

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/engine"
)

// SpeechAnalyzer derives a keyword-weighted speech density timeline from the
// source's dialogue.
type SpeechAnalyzer struct {
	runner      *Runner
	transcriber *QuotaAwareTranscriber
	settings    engine.AnalysisSettings

	// tempMu guards tempFiles; ProduceTimeline and Cleanup may be reached
	// from different goroutines.
	tempMu    sync.Mutex
	tempFiles []string
}

// NewSpeechAnalyzer creates a speech analyzer. The transcriber is only used
// when no sidecar subtitle file is found.
func NewSpeechAnalyzer(runner *Runner, transcriber *QuotaAwareTranscriber, settings engine.AnalysisSettings) *SpeechAnalyzer {
	return &SpeechAnalyzer{runner: runner, transcriber: transcriber, settings: settings}
}

// ProduceTimeline builds the speech timeline from subtitles, transcribing
// first if necessary.
func (a *SpeechAnalyzer) ProduceTimeline(ctx context.Context, sourcePath string, report ProgressFunc) (model.Timeline, model.Summary, error) {
	if err := ValidateVideo(sourcePath); err != nil {
		return nil, nil, err
	}

	report(10, "probing source duration")
	duration, err := a.runner.ProbeDuration(ctx, sourcePath)
	if err != nil {
		return nil, nil, err
	}

	srtPath, source, err := a.locateTranscript(ctx, sourcePath, report)
	if err != nil {
		return nil, nil, err
	}

	report(70, "parsing transcript")
	raw, err := os.ReadFile(srtPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read transcript %s: %w", srtPath, err)
	}
	cues := ParseSRT(string(raw))

	report(90, "building timeline")
	interval := a.settings.IntervalSeconds
	if interval <= 0 {
		interval = 1.0
	}
	timeline, wordCount, keywordHits := a.scoreCues(cues, duration, interval)

	summary := model.Summary{
		"duration":          duration,
		"cue_count":         len(cues),
		"word_count":        wordCount,
		"keyword_hits":      keywordHits,
		"transcript_source": source,
		"mean_density":      timelineMean(timeline),
	}

	report(100, "speech analysis complete")
	return timeline, summary, nil
}

// Cleanup removes the transcription work directories from the last run,
// including the extracted audio and generated transcripts inside them.
func (a *SpeechAnalyzer) Cleanup() {
	a.tempMu.Lock()
	files := a.tempFiles
	a.tempFiles = nil
	a.tempMu.Unlock()

	for _, f := range files {
		_ = os.RemoveAll(f)
	}
}

// locateTranscript returns a path to an SRT for the source, either the
// sidecar (same directory, same base name) or a fresh whisper transcription.
func (a *SpeechAnalyzer) locateTranscript(ctx context.Context, sourcePath string, report ProgressFunc) (path string, source string, err error) {
	sidecar := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".srt"
	if _, err := os.Stat(sidecar); err == nil {
		report(30, "using sidecar subtitles")
		return sidecar, "sidecar", nil
	}

	report(30, "extracting audio track")
	workDir, err := os.MkdirTemp("", "speech-analysis-")
	if err != nil {
		return "", "", fmt.Errorf("failed to create transcription work directory: %w", err)
	}
	a.tempMu.Lock()
	a.tempFiles = append(a.tempFiles, workDir)
	a.tempMu.Unlock()

	wavPath := filepath.Join(workDir, "audio.wav")
	if err := a.runner.ExtractAudio(ctx, sourcePath, wavPath); err != nil {
		return "", "", err
	}

	report(50, "transcribing audio")
	srtPath, err := a.transcriber.Transcribe(ctx, wavPath, workDir)
	if err != nil {
		return "", "", err
	}
	return srtPath, "whisper", nil
}

// scoreCues converts cues into a per-interval density timeline. Each cue
// contributes its words-per-second rate, scaled by one plus the summed
// weights of any configured keywords it contains, to every interval it
// overlaps.
func (a *SpeechAnalyzer) scoreCues(cues []SubtitleCue, duration, interval float64) (model.Timeline, int, int) {
	buckets := int(math.Ceil(duration / interval))
	if buckets <= 0 {
		buckets = 1
	}
	timeline := make(model.Timeline, buckets)
	wordCount := 0
	keywordHits := 0

	for _, cue := range cues {
		words := strings.Fields(cue.Text)
		wordCount += len(words)
		cueDur := cue.End - cue.Start
		if cueDur <= 0 || len(words) == 0 {
			continue
		}

		weight := 1.0
		for _, w := range words {
			if boost, ok := a.settings.KeywordWeights[normalizeWord(w)]; ok {
				weight += boost
				keywordHits++
			}
		}
		density := float64(len(words)) / cueDur * weight

		first := int(cue.Start / interval)
		last := int(math.Ceil(cue.End / interval))
		for b := first; b < last && b < buckets; b++ {
			if b < 0 {
				continue
			}
			timeline[b] += density
		}
	}
	return timeline, wordCount, keywordHits
}

// normalizeWord lowercases a token and strips surrounding punctuation so
// keyword matching works on natural transcript text.
func normalizeWord(w string) string {
	return strings.Trim(strings.ToLower(w), ".,!?;:\"'()[]")
}

// SubtitleCue is one parsed SRT cue.
type SubtitleCue struct {
	Index int
	Start float64 // Seconds from stream start.
	End   float64
	Text  string
}

// ParseSRT parses SubRip text into cues. Malformed blocks are skipped rather
// than failing the whole transcript; whisper output is occasionally sloppy
// around the final cue.
func ParseSRT(input string) []SubtitleCue {
	cues := make([]SubtitleCue, 0, 64)
	blocks := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n\n")

	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}
		start, end, ok := parseTimecodeLine(lines[1])
		if !ok {
			continue
		}
		cues = append(cues, SubtitleCue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], " "),
		})
	}
	return cues
}

// parseTimecodeLine parses "00:01:02,500 --> 00:01:05,000" into start and
// end seconds.
func parseTimecodeLine(line string) (start, end float64, ok bool) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok = parseTimecode(strings.TrimSpace(parts[0]))
	if !ok {
		return 0, 0, false
	}
	end, ok = parseTimecode(strings.TrimSpace(parts[1]))
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

// parseTimecode parses "HH:MM:SS,mmm" into seconds.
func parseTimecode(tc string) (float64, bool) {
	tc = strings.ReplaceAll(tc, ",", ".")
	fields := strings.Split(tc, ":")
	if len(fields) != 3 {
		return 0, false
	}
	hours, err1 := strconv.Atoi(fields[0])
	minutes, err2 := strconv.Atoi(fields[1])
	seconds, err3 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}
