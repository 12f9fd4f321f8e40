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

// This file implements a rate-limited wrapper around the whisper CLI.
// Transcription is by far the heaviest external call the speech analyzer
// makes, and concurrent analyzeAll runs on a shared host can easily saturate
// the CPU or a GPU-backed whisper install. The decorator throttles
// invocations through a token bucket and retries transient failures before
// giving up.
package analysis

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// MaxTranscribeRetries bounds how many times a failed whisper invocation is
// retried before the error propagates.
const MaxTranscribeRetries = 3

// QuotaAwareTranscriber decorates whisper CLI invocation with rate limiting
// and retries.
type QuotaAwareTranscriber struct {
	commandPath string
	modelName   string
	limiter     *rate.Limiter
}

// NewQuotaAwareTranscriber creates a transcriber limited to
// transcriptionsPerMinute whisper runs, with a burst of one.
func NewQuotaAwareTranscriber(commandPath, modelName string, transcriptionsPerMinute int) *QuotaAwareTranscriber {
	if commandPath == "" {
		commandPath = "whisper"
	}
	if transcriptionsPerMinute <= 0 {
		transcriptionsPerMinute = 1
	}
	return &QuotaAwareTranscriber{
		commandPath: commandPath,
		modelName:   modelName,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(transcriptionsPerMinute)), 1),
	}
}

// Transcribe runs whisper over the audio file and returns the path of the
// SRT file it wrote into outputDir. Each attempt waits for a rate limiter
// token first, so retries are throttled the same as fresh calls.
func (q *QuotaAwareTranscriber) Transcribe(ctx context.Context, audioPath string, outputDir string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxTranscribeRetries; attempt++ {
		if err := q.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("transcription cancelled while rate limited: %w", err)
		}

		cmd := exec.CommandContext(ctx, q.commandPath,
			"--model", q.modelName,
			"--output_format", "srt",
			"--output_dir", outputDir,
			audioPath,
		)
		out, err := cmd.CombinedOutput()
		if err == nil {
			base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
			return filepath.Join(outputDir, base+".srt"), nil
		}
		lastErr = fmt.Errorf("whisper run failed (attempt %d): %w (%s)", attempt+1, err, strings.TrimSpace(string(out)))
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}
