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

// Package cache_test exercises the on-disk analysis cache: fingerprinting,
// round trips, corruption handling, and clearing.
package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-media-engagement/internal/cache"
	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

func writeTempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not a real video"), 0o644))
	return path
}

func TestFingerprintStableForUnchangedFile(t *testing.T) {
	path := writeTempVideo(t)
	first := cache.Fingerprint(path, model.ModalityAudio)
	second := cache.Fingerprint(path, model.ModalityAudio)
	assert.Equal(t, first, second)
}

func TestFingerprintVariesByModality(t *testing.T) {
	path := writeTempVideo(t)
	assert.NotEqual(t,
		cache.Fingerprint(path, model.ModalityAudio),
		cache.Fingerprint(path, model.ModalityVisual))
}

func TestFingerprintMissingFileNeverRepeats(t *testing.T) {
	// An unstat-able source gets a timestamped fingerprint, which guarantees
	// a cache miss rather than an error.
	first := cache.Fingerprint("/no/such/file.mp4", model.ModalityAudio)
	second := cache.Fingerprint("/no/such/file.mp4", model.ModalityAudio)
	assert.NotEqual(t, first, second)
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := cache.NewStore(t.TempDir(), true)
	require.NoError(t, err)

	result := model.ModalityResult{
		Timeline: model.Timeline{0.1, 0.2, 0.3},
		Summary:  model.Summary{"duration": 3.0},
	}
	store.Put("abc123", result)

	entry, ok := store.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, result.Timeline, entry.Data.Timeline)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestStoreMissForUnknownFingerprint(t *testing.T) {
	store, err := cache.NewStore(t.TempDir(), true)
	require.NoError(t, err)

	_, ok := store.Get("never-written")
	assert.False(t, ok)
}

func TestStoreCorruptEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := cache.NewStore(dir, true)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{truncated"), 0o644))

	_, ok := store.Get("bad")
	assert.False(t, ok)
}

func TestStoreDisabledIsAlwaysAMiss(t *testing.T) {
	store, err := cache.NewStore(filepath.Join(t.TempDir(), "never-created"), false)
	require.NoError(t, err)

	store.Put("abc", model.ModalityResult{Timeline: model.Timeline{1}})
	_, ok := store.Get("abc")
	assert.False(t, ok)
}

func TestStoreClear(t *testing.T) {
	store, err := cache.NewStore(t.TempDir(), true)
	require.NoError(t, err)

	store.Put("one", model.ModalityResult{Timeline: model.Timeline{1}})
	store.Put("two", model.ModalityResult{Timeline: model.Timeline{2}})

	removed, err := store.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok := store.Get("one")
	assert.False(t, ok)
}
