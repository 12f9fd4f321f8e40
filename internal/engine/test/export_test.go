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

// This file tests the selection export artifact: the aggregate summary the
// export carries alongside the segment list, and the JSON round trip to disk.
package engine_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/engine"
)

func exportSegments() []model.SegmentCandidate {
	return []model.SegmentCandidate{
		{StartTime: 0, EndTime: 60, Duration: 60, CombinedScore: 0.2, Rank: 3},
		{StartTime: 120, EndTime: 180, Duration: 60, CombinedScore: 0.9, Rank: 1},
		{StartTime: 300, EndTime: 360, Duration: 60, CombinedScore: 0.4, Rank: 2},
	}
}

func TestSelectionExportSummary(t *testing.T) {
	export := engine.NewSelectionExport("clip.mp4", model.DefaultEngagementConfig(), exportSegments(), 600)

	assert.NotEmpty(t, export.RunID)
	assert.Equal(t, 3, export.Summary.SegmentCount)
	assert.InDelta(t, 0.5, export.Summary.AverageScore, 1e-9)
	assert.InDelta(t, 0.2, export.Summary.MinScore, 1e-9)
	assert.InDelta(t, 0.9, export.Summary.MaxScore, 1e-9)
	assert.InDelta(t, 180.0, export.Summary.TotalClipDuration, 1e-9)
	assert.InDelta(t, 30.0, export.Summary.CoveragePercent, 1e-9)
}

func TestSelectionExportSummaryEmptySelection(t *testing.T) {
	export := engine.NewSelectionExport("clip.mp4", model.DefaultEngagementConfig(), nil, 600)

	assert.Equal(t, 0, export.Summary.SegmentCount)
	assert.Zero(t, export.Summary.AverageScore)
	assert.Zero(t, export.Summary.TotalClipDuration)
	assert.Zero(t, export.Summary.CoveragePercent)
}

func TestSelectionExportSummaryUnknownDuration(t *testing.T) {
	export := engine.NewSelectionExport("clip.mp4", model.DefaultEngagementConfig(), exportSegments(), 0)

	// Without a source duration the coverage is unknowable, not infinite.
	assert.Zero(t, export.Summary.CoveragePercent)
	assert.InDelta(t, 180.0, export.Summary.TotalClipDuration, 1e-9)
}

func TestWriteSelectionExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	export := engine.NewSelectionExport("clip.mp4", model.DefaultEngagementConfig(), exportSegments(), 600)

	path, err := engine.WriteSelectionExport(dir, export)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, fmt.Sprintf("engagement_%s.json", export.RunID)), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded engine.SelectionExport
	require.NoError(t, json.Unmarshal(raw, &loaded))
	assert.Equal(t, export.RunID, loaded.RunID)
	assert.Equal(t, export.Summary, loaded.Summary)
	assert.Len(t, loaded.Segments, 3)
}
