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

// Package commands provides the concrete Chain of Responsibility command
// implementations for the engagement engine. Two families live here: the
// modality analysis commands (cache lookup, analyzer invocation, cache
// write) and the segment scoring pipeline commands that wrap the pure
// scoring stages. This file defines the shared context parameter names
// commands use to pass values outside the default CtxIn/CtxOut piping.
package commands

// GetAnalysisRequestParameterName returns the context key holding the
// modality analysis request, kept available to every command in the chain
// even after the piped value becomes the analysis result.
func GetAnalysisRequestParameterName() string {
	return "analysis.request"
}

// GetCachedResultParameterName returns the context key a cache hit is stored
// under. Its presence tells the downstream commands to skip analyzer
// invocation and the cache write.
func GetCachedResultParameterName() string {
	return "analysis.cache.result"
}

// GetSelectionResultParameterName returns the context key holding the final
// ranked segment selection.
func GetSelectionResultParameterName() string {
	return "selection.result"
}
