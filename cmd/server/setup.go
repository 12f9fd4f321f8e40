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
	"log"
	"os"

	"github.com/jaycherian/go-media-engagement/internal/analysis"
	"github.com/jaycherian/go-media-engagement/internal/cache"
	"github.com/jaycherian/go-media-engagement/internal/core/workflow"
	"github.com/jaycherian/go-media-engagement/internal/engine"
)

// StateManager holds the shared components for the application.
type StateManager struct {
	config     *engine.Config
	store      *cache.Store
	analyzers  *analysis.AnalyzerSet
	engagement *workflow.EngagementAnalysisWorkflow
	selector   *workflow.SegmentSelectionWorkflow
}

var state = &StateManager{}

// SetupOS points the config loader at the local configs directory and the
// "local" runtime overlay.
func SetupOS() (err error) {
	err = os.Setenv(engine.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(engine.EnvConfigRuntime, "local")
	return err
}

// GetConfig lazily loads the application configuration.
func GetConfig() *engine.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup env: %v\n", err)
		}
		// Start from defaults, then overlay the TOML files.
		config := engine.NewConfig()
		engine.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// InitState initializes the application state and dependencies: the analysis
// cache, the per-modality analyzers, and the two workflows.
func InitState() {
	config := GetConfig()

	store, err := cache.NewStore(config.Cache.Dir, config.Cache.Enabled)
	if err != nil {
		panic(err)
	}
	state.store = store

	state.analyzers = analysis.NewAnalyzerSet(config)
	state.engagement = workflow.NewEngagementAnalysisWorkflow(config, state.analyzers, store, nil)
	state.selector = workflow.NewSegmentSelectionWorkflow(config)
}
