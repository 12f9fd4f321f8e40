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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaycherian/go-media-engagement/internal/analysis"
	"github.com/jaycherian/go-media-engagement/internal/cache"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/core/workflow"
	"github.com/jaycherian/go-media-engagement/internal/engine"
)

var (
	analyzeCount    int
	analyzeDuration int
	analyzeOutput   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <video>",
	Short: "Analyze a video and print its most engaging segments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourcePath := args[0]
		config := loadConfig()

		if err := analysis.ValidateVideo(sourcePath); err != nil {
			return err
		}

		store, err := cache.NewStore(config.Cache.Dir, config.Cache.Enabled)
		if err != nil {
			return err
		}

		analyzers := analysis.NewAnalyzerSet(config)
		// Echo per-modality milestones so long analyses show signs of life.
		progress := func(modality model.Modality, percent float64, status string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %.0f%% %s\n", modality, percent, status)
		}
		engagement := workflow.NewEngagementAnalysisWorkflow(config, analyzers, store, progress)
		selector := workflow.NewSegmentSelectionWorkflow(config)

		result, err := engagement.AnalyzeAll(cmd.Context(), sourcePath)
		if err != nil {
			return err
		}

		totalDuration := result.TotalDurationSeconds(config.Analysis.IntervalSeconds)
		segments, err := selector.GetBestSegments(
			cmd.Context(),
			result.Audio.Timeline,
			result.Visual.Timeline,
			result.Speech.Timeline,
			analyzeDuration,
			analyzeCount,
			totalDuration,
			config.Analysis.IntervalSeconds,
		)
		if err != nil {
			return err
		}

		if len(analyzeOutput) > 0 {
			export := engine.NewSelectionExport(sourcePath, config.Engagement, segments, totalDuration)
			path, err := engine.WriteSelectionExport(analyzeOutput, export)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "selection written to %s\n", path)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(segments)
	},
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeCount, "count", 3, "number of segments to select")
	analyzeCmd.Flags().IntVar(&analyzeDuration, "duration", 0, "segment duration in seconds (0 uses the configured default)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "directory to write the selection export to")
	rootCmd.AddCommand(analyzeCmd)
}
