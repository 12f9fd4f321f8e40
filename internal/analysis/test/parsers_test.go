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

// Package analysis_test verifies the parsers that turn raw ffmpeg filter
// output and SubRip transcripts into structured samples. The fixtures are
// pasted from real ffmpeg stderr, whitespace quirks included.
package analysis_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/go-media-engagement/internal/analysis"
)

const astatsOutput = `[Parsed_ametadata_1 @ 0x55d9] frame:0    pts:0       pts_time:0
[Parsed_ametadata_1 @ 0x55d9] lavfi.astats.Overall.RMS_level=-20.000000
[Parsed_ametadata_1 @ 0x55d9] frame:1    pts:1024    pts_time:1.024
[Parsed_ametadata_1 @ 0x55d9] lavfi.astats.Overall.RMS_level=-6.020600
[Parsed_ametadata_1 @ 0x55d9] frame:2    pts:2048    pts_time:2.048
[Parsed_ametadata_1 @ 0x55d9] lavfi.astats.Overall.RMS_level=-inf
size=N/A time=00:00:03.00 bitrate=N/A speed= 412x
`

func TestParseLoudnessFrames(t *testing.T) {
	samples := analysis.ParseLoudnessFrames(astatsOutput)

	assert.Len(t, samples, 3)
	assert.Equal(t, 0.0, samples[0].PtsTime)
	assert.InDelta(t, 0.1, samples[0].Energy, 1e-6)
	assert.InDelta(t, 1.024, samples[1].PtsTime, 1e-9)
	assert.InDelta(t, 0.5, samples[1].Energy, 1e-3)
	// Digital silence maps to zero energy, not an error.
	assert.Equal(t, 0.0, samples[2].Energy)
}

func TestParseLoudnessFramesNoSamples(t *testing.T) {
	samples := analysis.ParseLoudnessFrames("garbage output\nwith no frames\n")
	assert.Empty(t, samples)
}

const silenceOutput = `[silencedetect @ 0x5587] silence_start: 2.847
[silencedetect @ 0x5587] silence_end: 5.107 | silence_duration: 2.26
[silencedetect @ 0x5587] silence_start: 12.001
[silencedetect @ 0x5587] silence_end: 12.751 | silence_duration: 0.75
size=N/A time=00:00:14.00 bitrate=N/A speed= 389x
`

func TestParseSilenceDurations(t *testing.T) {
	total, count := analysis.ParseSilenceDurations(silenceOutput)
	assert.Equal(t, 2, count)
	assert.InDelta(t, 3.01, total, 1e-9)
}

func TestParseSilenceDurationsNoSilence(t *testing.T) {
	total, count := analysis.ParseSilenceDurations("size=N/A time=00:00:14.00\n")
	assert.Equal(t, 0, count)
	assert.Equal(t, 0.0, total)
}

const sceneOutput = `[Parsed_metadata_1 @ 0x564a] frame:0    pts:0       pts_time:0
[Parsed_metadata_1 @ 0x564a] lavfi.scene_score=0.000000
[Parsed_metadata_1 @ 0x564a] frame:24   pts:12288   pts_time:0.96
[Parsed_metadata_1 @ 0x564a] lavfi.scene_score=0.731429
[Parsed_metadata_1 @ 0x564a] frame:48   pts:24576   pts_time:1.92
[Parsed_metadata_1 @ 0x564a] lavfi.scene_score=0.102847
`

func TestParseSceneFrames(t *testing.T) {
	frames := analysis.ParseSceneFrames(sceneOutput)

	assert.Len(t, frames, 3)
	assert.InDelta(t, 0.96, frames[1].PtsTime, 1e-9)
	assert.InDelta(t, 0.731429, frames[1].Score, 1e-9)
	assert.InDelta(t, 0.102847, frames[2].Score, 1e-9)
}

const srtFixture = "1\r\n00:00:01,000 --> 00:00:03,500\r\nHello there, welcome back.\r\n\r\n2\r\n00:00:04,000 --> 00:00:06,000\r\nThis part is amazing!\r\nTruly.\r\n\r\nnot-a-number\r\n00:00:07,000 --> 00:00:08,000\r\nskipped block\r\n"

func TestParseSRT(t *testing.T) {
	cues := analysis.ParseSRT(srtFixture)

	assert.Len(t, cues, 2)
	assert.Equal(t, 1, cues[0].Index)
	assert.InDelta(t, 1.0, cues[0].Start, 1e-9)
	assert.InDelta(t, 3.5, cues[0].End, 1e-9)
	assert.Equal(t, "Hello there, welcome back.", cues[0].Text)

	// Multi-line cue text is joined with spaces.
	assert.Equal(t, "This part is amazing! Truly.", cues[1].Text)
}

func TestParseSRTHourTimecodes(t *testing.T) {
	cues := analysis.ParseSRT("1\n01:02:03,250 --> 01:02:04,000\nlate cue\n")
	assert.Len(t, cues, 1)
	assert.InDelta(t, 3723.25, cues[0].Start, 1e-9)
}

func TestParseSRTEmptyInput(t *testing.T) {
	assert.Empty(t, analysis.ParseSRT(""))
}

func TestParseLoudnessEnergyIsLinear(t *testing.T) {
	// -20 dBFS is an amplitude ratio of 10^(-1) = 0.1.
	samples := analysis.ParseLoudnessFrames(
		"frame:0 pts:0 pts_time:0\nlavfi.astats.Overall.RMS_level=-20.0\n")
	assert.Len(t, samples, 1)
	assert.InDelta(t, math.Pow(10, -1), samples[0].Energy, 1e-12)
}
