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

// This file defines the final command of the modality analysis chain: the
// best-effort cache write. Freshly computed results are persisted under the
// request fingerprint; results that came from the cache are not rewritten.
package commands

import (
	"github.com/jaycherian/go-media-engagement/internal/cache"
	"github.com/jaycherian/go-media-engagement/internal/core/cor"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

// CacheWrite persists a freshly computed modality result.
type CacheWrite struct {
	cor.BaseCommand
	store *cache.Store
}

// NewCacheWrite creates the cache write command.
func NewCacheWrite(name string, store *cache.Store) *CacheWrite {
	return &CacheWrite{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
	}
}

// Execute writes the result to the cache unless it was itself a cache hit.
// The store swallows write failures, so this command never fails the chain.
func (c *CacheWrite) Execute(context cor.Context) {
	result := context.Get(c.GetInputParam()).(*model.ModalityResult)
	request := context.Get(GetAnalysisRequestParameterName()).(*model.ModalityAnalysisRequest)

	if context.Get(GetCachedResultParameterName()) == nil {
		c.store.Put(request.Fingerprint, *result)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, result)
}
