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

// Command engagectl is the command-line front end for the engagement engine:
// it analyzes a video and prints the most engaging segments, and manages the
// analysis cache.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaycherian/go-media-engagement/internal/engine"
)

var rootCmd = &cobra.Command{
	Use:   "engagectl",
	Short: "Find the most engaging segments of a video",
	Long: `engagectl analyzes a video's audio, visual, and speech signals and
selects the segments most likely to hold a viewer's attention.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig points the loader at the configs directory and builds the
// effective configuration.
func loadConfig() *engine.Config {
	if err := os.Setenv(engine.EnvConfigFilePrefix, "configs"); err != nil {
		log.Fatalf("failed to setup env: %v\n", err)
	}
	if err := os.Setenv(engine.EnvConfigRuntime, "local"); err != nil {
		log.Fatalf("failed to setup env: %v\n", err)
	}
	config := engine.NewConfig()
	engine.LoadConfig(config)
	return config
}
