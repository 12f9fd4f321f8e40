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

// This file defines the first command of the modality analysis chain: the
// cache lookup. On a hit it stores the cached result in the context and
// emits a single 100% progress event; the downstream commands then skip the
// analyzer entirely. On a miss the request simply flows onward.
package commands

import (
	"log/slog"

	"github.com/jaycherian/go-media-engagement/internal/analysis"
	"github.com/jaycherian/go-media-engagement/internal/cache"
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

// CacheLookup consults the analysis cache for a modality request.
type CacheLookup struct {
	cor.BaseCommand
	store   *cache.Store
	tracker *analysis.ProgressTracker
}

// NewCacheLookup creates the cache lookup command.
func NewCacheLookup(name string, store *cache.Store, tracker *analysis.ProgressTracker) *CacheLookup {
	return &CacheLookup{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
		tracker:     tracker,
	}
}

// Execute looks up the request's fingerprint and, on a hit, stashes the
// cached result for the rest of the chain. The request is also pinned under
// a named parameter so later commands can reach it after the piped value
// changes.
func (c *CacheLookup) Execute(context cor.Context) {
	request := context.Get(c.GetInputParam()).(*model.ModalityAnalysisRequest)
	context.Add(GetAnalysisRequestParameterName(), request)

	if entry, ok := c.store.Get(request.Fingerprint); ok {
		slog.Info("analysis cache hit",
			"modality", request.Modality,
			"source", request.SourcePath,
			"cached_at", entry.Timestamp)
		context.Add(GetCachedResultParameterName(), &entry.Data)
		c.tracker.Update(request.Modality, 100, "loaded from cache")
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, request)
}
