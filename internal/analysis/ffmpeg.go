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

// This file wraps the ffmpeg and ffprobe executables. Filter-based analysis
// (astats, scene scoring, silencedetect) writes its measurements to stderr,
// so the runner captures stderr while discarding the null-muxed media
// output; the analyzers parse the captured text.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// Runner executes ffmpeg and ffprobe commands against a source file.
type Runner struct {
	ffmpegPath  string
	ffprobePath string
}

// NewRunner creates a runner for the given executable paths. Bare command
// names resolve through PATH.
func NewRunner(ffmpegPath, ffprobePath string) *Runner {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Runner{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// CaptureFilterOutput runs ffmpeg over the input with the given filter
// arguments, muxing the media to the null device, and returns everything
// ffmpeg wrote to stderr. Filter measurements land on stderr by ffmpeg
// convention, interleaved with the normal transcode chatter; parsers must
// match their specific line formats.
func (r *Runner) CaptureFilterOutput(ctx context.Context, input string, filterArgs ...string) (string, error) {
	args := []string{"-hide_banner", "-nostats", "-i", input}
	args = append(args, filterArgs...)
	args = append(args, "-f", "null", "-")

	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stderr.String(), fmt.Errorf("ffmpeg filter run failed for %s: %w", input, err)
	}
	return stderr.String(), nil
}

// ExtractAudio demuxes the input's audio track to a 16 kHz mono WAV at
// outputPath, the format the whisper CLI expects.
func (r *Runner) ExtractAudio(ctx context.Context, input string, outputPath string) error {
	cmd := exec.CommandContext(ctx, r.ffmpegPath,
		"-hide_banner", "-nostats", "-y",
		"-i", input,
		"-vn", "-ac", "1", "-ar", "16000",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed for %s: %w (%s)", input, err, stderr.String())
	}
	return nil
}

// probeFormat mirrors the slice of ffprobe's JSON output we care about.
type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration returns the container duration of the input in seconds.
func (r *Runner) ProbeDuration(ctx context.Context, input string) (float64, error) {
	cmd := exec.CommandContext(ctx, r.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		input,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", input, err)
	}

	var probed probeFormat
	if err := json.Unmarshal(out, &probed); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output for %s: %w", input, err)
	}
	duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe reported no usable duration for %s: %w", input, err)
	}
	return duration, nil
}
