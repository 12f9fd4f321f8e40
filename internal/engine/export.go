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

// This file writes the selection export: a JSON artifact describing which
// segments were chosen and under what configuration. The export exists for
// downstream inspection and debugging; nothing in the engine reads it back.
package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

// SelectionExport is the persisted record of one segment selection run.
type SelectionExport struct {
	RunID      string                   `json:"run_id"`
	SourcePath string                   `json:"source_path"`
	Timestamp  time.Time                `json:"timestamp"`
	Config     model.EngagementConfig   `json:"config"`
	Summary    ExportSummary            `json:"summary"`
	Segments   []model.SegmentCandidate `json:"segments"`
}

// ExportSummary aggregates the selection for readers who want the headline
// numbers without walking the segment list. CoveragePercent is how much of
// the source the selected clips span together; it stays zero when the source
// duration is unknown.
type ExportSummary struct {
	SegmentCount      int     `json:"segment_count"`
	AverageScore      float64 `json:"average_score"`
	MinScore          float64 `json:"min_score"`
	MaxScore          float64 `json:"max_score"`
	TotalClipDuration float64 `json:"total_clip_duration"`
	CoveragePercent   float64 `json:"coverage_percent"`
}

// NewSelectionExport assembles an export record with a fresh run identifier
// and a computed summary. totalDuration is the source duration in seconds;
// pass zero when unknown.
func NewSelectionExport(sourcePath string, cfg model.EngagementConfig, segments []model.SegmentCandidate, totalDuration float64) *SelectionExport {
	return &SelectionExport{
		RunID:      uuid.NewString(),
		SourcePath: sourcePath,
		Timestamp:  time.Now().UTC(),
		Config:     cfg,
		Summary:    summarizeSelection(segments, totalDuration),
		Segments:   segments,
	}
}

func summarizeSelection(segments []model.SegmentCandidate, totalDuration float64) ExportSummary {
	summary := ExportSummary{SegmentCount: len(segments)}
	if len(segments) == 0 {
		return summary
	}

	summary.MinScore = segments[0].CombinedScore
	summary.MaxScore = segments[0].CombinedScore
	sum := 0.0
	for _, s := range segments {
		sum += s.CombinedScore
		if s.CombinedScore < summary.MinScore {
			summary.MinScore = s.CombinedScore
		}
		if s.CombinedScore > summary.MaxScore {
			summary.MaxScore = s.CombinedScore
		}
		summary.TotalClipDuration += s.Duration
	}
	summary.AverageScore = sum / float64(len(segments))
	if totalDuration > 0 {
		summary.CoveragePercent = summary.TotalClipDuration / totalDuration * 100.0
	}
	return summary
}

// WriteSelectionExport serializes the export as indented JSON to
// dir/engagement_<runID>.json, creating the directory if needed, and returns
// the path written.
func WriteSelectionExport(dir string, export *SelectionExport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}
	raw, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode selection export: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("engagement_%s.json", export.RunID))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write selection export %s: %w", path, err)
	}
	return path, nil
}
