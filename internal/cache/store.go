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

// Package cache implements the on-disk analysis result cache. Entries are
// content addressed: the key is a fingerprint of the source file's identity
// (path, modality, size, modification time), so editing or replacing the
// source naturally invalidates its cached results. One JSON file per
// fingerprint; reads that fail to parse are treated as misses, and writes go
// through a temp file plus rename so a concurrent reader never observes a
// partially written entry.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaycherian/go-media-engagement/internal/core/model"
)

const entryExtension = ".json"

// Fingerprint derives the cache key for a (source file, modality) pair from
// the file's path, size, and modification time. When the file cannot be
// stat'ed the fallback key embeds the current nanosecond timestamp, which
// guarantees a miss on every lookup. That is deliberate "never cached"
// behavior, not an error.
func Fingerprint(sourcePath string, modality model.Modality) string {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Sprintf("%s_%d", modality, time.Now().UnixNano())
	}
	seed := fmt.Sprintf("%s|%s|%d|%d", sourcePath, modality, info.ModTime().UnixNano(), info.Size())
	sum := md5.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Entry is the persisted representation of one cached modality analysis.
type Entry struct {
	Timestamp time.Time            `json:"timestamp"`
	Data      model.ModalityResult `json:"data"`
}

// Store is a filesystem-backed key/value store for analysis results. A
// disabled store accepts every call and reports a miss on every lookup,
// letting callers skip cache plumbing entirely.
type Store struct {
	dir     string
	enabled bool
}

// NewStore creates a store rooted at dir, creating the directory if needed.
// A directory that cannot be created is a setup-level failure and is returned
// to the caller; it is the one cache error that is not swallowed.
func NewStore(dir string, enabled bool) (*Store, error) {
	if enabled {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
		}
	}
	return &Store{dir: dir, enabled: enabled}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Get looks up the entry for a fingerprint. Any read or parse failure is
// logged and reported as a miss; a stale or corrupt entry is simply
// recomputed by the caller.
func (s *Store) Get(fingerprint string) (*Entry, bool) {
	if !s.enabled {
		return nil, false
	}
	raw, err := os.ReadFile(s.entryPath(fingerprint))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.Warn("discarding unreadable cache entry", "fingerprint", fingerprint, "error", err)
		return nil, false
	}
	return &entry, true
}

// Put writes an entry for a fingerprint, best effort. Failures are logged
// and swallowed: caching is an optimization, never a reason to fail an
// analysis. The write lands in a temp file first and is renamed into place,
// so concurrent writers to the same fingerprint race safely (last rename
// wins) and readers never see a torn file.
func (s *Store) Put(fingerprint string, data model.ModalityResult) {
	if !s.enabled {
		return
	}
	entry := Entry{Timestamp: time.Now().UTC(), Data: data}
	raw, err := json.Marshal(&entry)
	if err != nil {
		slog.Warn("failed to encode cache entry", "fingerprint", fingerprint, "error", err)
		return
	}

	target := s.entryPath(fingerprint)
	tmp, err := os.CreateTemp(s.dir, fingerprint+".tmp-")
	if err != nil {
		slog.Warn("failed to create cache temp file", "fingerprint", fingerprint, "error", err)
		return
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		slog.Warn("failed to write cache entry", "fingerprint", fingerprint, "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		slog.Warn("failed to close cache temp file", "fingerprint", fingerprint, "error", err)
		return
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		slog.Warn("failed to publish cache entry", "fingerprint", fingerprint, "error", err)
	}
}

// Clear removes every entry in the store and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	if !s.enabled {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache directory %s: %w", s.dir, err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entryExtension) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove cache entry %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) entryPath(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+entryExtension)
}
