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

// Package engine defines the application configuration, its hierarchical
// TOML loader, and the JSON export of selection results. Configuration is
// split by concern: application-wide settings, the analysis cache, external
// tool paths, per-modality analysis tuning, and the engagement scoring knobs.
package engine

import "github.com/jaycherian/go-media-engagement/internal/core/model"

// CacheSettings configures the on-disk analysis cache.
type CacheSettings struct {
	Enabled bool   `toml:"enabled"` // When false, every analysis runs fresh.
	Dir     string `toml:"dir"`     // Root directory for cache entry files.
}

// Tooling holds the paths and limits for the external tools the modality
// analyzers shell out to.
type Tooling struct {
	FFmpegPath              string `toml:"ffmpeg_path"`               // Path to the ffmpeg executable.
	FFprobePath             string `toml:"ffprobe_path"`              // Path to the ffprobe executable.
	WhisperPath             string `toml:"whisper_path"`              // Path to the whisper CLI for transcription.
	WhisperModel            string `toml:"whisper_model"`             // Whisper model name (e.g., "base", "small").
	TranscriptionsPerMinute int    `toml:"transcriptions_per_minute"` // Rate limit for whisper invocations.
}

// AnalysisSettings tunes how the modality analyzers turn raw media into
// per-second timelines.
type AnalysisSettings struct {
	IntervalSeconds    float64            `toml:"interval_seconds"`     // Seconds per timeline sample.
	SceneThreshold     float64            `toml:"scene_threshold"`      // Scene score above which a frame counts as a scene change.
	SilenceThresholdDb float64            `toml:"silence_threshold_db"` // Loudness floor for silence detection.
	KeywordWeights     map[string]float64 `toml:"keyword_weights"`      // Per-keyword weight boosts for the speech analyzer.
	ExportDir          string             `toml:"export_dir"`           // Directory for selection export files; empty disables export.
}

// Config is the root application configuration, loaded from TOML files.
type Config struct {
	Application struct {
		Name           string `toml:"name"`             // Service name, used for telemetry resources.
		ThreadPoolSize int    `toml:"thread_pool_size"` // Worker pool width for parallel modality analysis.
		Port           int    `toml:"port"`             // HTTP listen port for the server binary.
	} `toml:"application"`
	Cache      CacheSettings          `toml:"cache"`
	Tools      Tooling                `toml:"tools"`
	Analysis   AnalysisSettings       `toml:"analysis"`
	Engagement model.EngagementConfig `toml:"engagement"`
}

// NewConfig returns a Config populated with working defaults, so the
// application runs sensibly even when no TOML files are present. The loader
// overlays file values on top of these.
func NewConfig() *Config {
	cfg := &Config{
		Cache: CacheSettings{
			Enabled: true,
			Dir:     ".engagement-cache",
		},
		Tools: Tooling{
			FFmpegPath:              "ffmpeg",
			FFprobePath:             "ffprobe",
			WhisperPath:             "whisper",
			WhisperModel:            "base",
			TranscriptionsPerMinute: 2,
		},
		Analysis: AnalysisSettings{
			IntervalSeconds:    1.0,
			SceneThreshold:     0.4,
			SilenceThresholdDb: -35.0,
			KeywordWeights:     make(map[string]float64),
		},
		Engagement: model.DefaultEngagementConfig(),
	}
	cfg.Application.Name = "media-engagement"
	cfg.Application.ThreadPoolSize = 3
	cfg.Application.Port = 8080
	return cfg
}
