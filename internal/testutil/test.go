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

// Package test provides utility functions and fakes to support the
// application's test suite: a cached test configuration, environment setup,
// and a scripted analyzer for exercising the workflows without ffmpeg.
package test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/jaycherian/go-media-engagement/internal/analysis"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
	"github.com/jaycherian/go-media-engagement/internal/engine"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so the TOML files are parsed once per
// test binary.
type StateManager struct {
	config *engine.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to cut
// boilerplate in tests.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS points the configuration loader at the test configuration files
// (configs/.env.toml overlaid with configs/.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(engine.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(engine.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
func GetConfig() *engine.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := engine.NewConfig()
		engine.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// ConstantTimeline returns a timeline of the given length where every sample
// holds the same value.
func ConstantTimeline(length int, value float64) model.Timeline {
	out := make(model.Timeline, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// ScriptedAnalyzer is a canned analysis.Analyzer for workflow tests. It
// returns its configured timeline, summary, and error, and records how many
// times it was invoked and cleaned up.
type ScriptedAnalyzer struct {
	Timeline model.Timeline
	Summary  model.Summary
	Err      error
	Calls    int
	Cleanups int
}

// ProduceTimeline returns the scripted result and emits a pair of progress
// milestones through report.
func (s *ScriptedAnalyzer) ProduceTimeline(_ context.Context, _ string, report analysis.ProgressFunc) (model.Timeline, model.Summary, error) {
	s.Calls++
	if s.Err != nil {
		return nil, nil, s.Err
	}
	report(50, "halfway")
	report(100, "complete")
	return s.Timeline, s.Summary, nil
}

// Cleanup records the invocation.
func (s *ScriptedAnalyzer) Cleanup() {
	s.Cleanups++
}
