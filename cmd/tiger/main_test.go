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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
	test "github.com/jaycherian/gcp-go-true-crime/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, ctx *commandContext, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommandWith(ctx)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.txt")
	require.NoError(t, os.WriteFile(path, []byte(test.SampleScript), 0o644))
	return path
}

func TestPlatformsCommand(t *testing.T) {
	out, err := run(t, &commandContext{}, "", "platforms")
	require.NoError(t, err)
	assert.Contains(t, out, "tiktok")
	assert.Contains(t, out, "720x1280")
	assert.Contains(t, out, "1:1")

	out, err = run(t, &commandContext{}, "", "platforms", "--json")
	require.NoError(t, err)
	var specs []model.PlatformSpec
	require.NoError(t, json.Unmarshal([]byte(out), &specs))
	assert.Len(t, specs, 4)
}

func TestGenerateCommand(t *testing.T) {
	p := test.NewPipeline(test.PassVerdictJSON, test.Succeeding(1, "https://video.example.com/out.mp4"))
	ctx := &commandContext{components: p.Components}

	out, err := run(t, ctx, "", "generate", "--script", writeScript(t), "--platform", "shorts", "--json")
	require.NoError(t, err)

	var result model.EpisodeResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, model.PlatformShorts, result.Platform)
	assert.Equal(t, "https://video.example.com/out.mp4", result.Assets.Video.OutputURL)
	assert.Equal(t, "720:1280", p.Video.Submissions()[0].Ratio)
}

func TestGenerateCommand_Table(t *testing.T) {
	p := test.NewPipeline(test.PassVerdictJSON, test.Succeeding(0, "https://video.example.com/out.mp4"))
	ctx := &commandContext{components: p.Components}

	out, err := run(t, ctx, test.SampleScript, "generate", "--script", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "The Marrow Creek Diner")
	assert.Contains(t, out, "youtube")
	assert.Contains(t, out, "81")
}

func TestGenerateCommand_Rejected(t *testing.T) {
	p := test.NewPipeline(test.FailVerdictJSON, test.Succeeding(0, ""))
	ctx := &commandContext{components: p.Components}

	out, err := run(t, ctx, "", "generate", "--script", writeScript(t))
	var rejection *model.ComplianceRejection
	require.True(t, errors.As(err, &rejection))
	assert.Contains(t, out, "Tell the story from the detective's notes")
	assert.Empty(t, p.Video.Submissions())
}

func TestGenerateCommand_MissingScript(t *testing.T) {
	_, err := run(t, &commandContext{}, "", "generate")
	assert.EqualError(t, err, "--script is required")

	_, err = run(t, &commandContext{}, "   ", "generate", "--script", "-")
	assert.EqualError(t, err, "script is empty")
}

func TestAnalyzeCommand(t *testing.T) {
	p := test.NewPipeline(test.PassVerdictJSON, test.Succeeding(0, ""))
	ctx := &commandContext{components: p.Components}

	out, err := run(t, ctx, "", "analyze", "--script", writeScript(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Detective Lena Ortiz")
	assert.Contains(t, out, "74")
	assert.Empty(t, p.Images.Requests())
	assert.Equal(t, 0, p.Compliance.Calls())

	out, err = run(t, ctx, "", "analyze", "--script", writeScript(t), "--json")
	require.NoError(t, err)
	var report analysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Analysis.Segments, 3)
	assert.Equal(t, 81, report.Synthesis.SynthesizedRecommendation.QualityScore)
}

func TestStatusCommand(t *testing.T) {
	p := test.NewPipeline(test.PassVerdictJSON, test.Succeeding(0, ""))
	monitor := services.NewHealthMonitor(map[string]providers.Pinger{
		"text/review": p.Review,
		"video/stub":  p.Video,
	}, []string{"text/review", "video/stub"}, time.Second)
	ctx := &commandContext{components: p.Components, health: monitor}

	out, err := run(t, ctx, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "text/review:")
	assert.Contains(t, out, "[OK]")

	p.Video.PingErr = errors.New("connection refused")
	out, err = run(t, ctx, "", "status")
	assert.ErrorIs(t, err, errUnhealthy)
	assert.Contains(t, out, "[ERROR] connection refused")
}

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("image/pollinations", statusOK, "120ms", false)
	assert.Equal(t, "  image/pollinations:      [OK] 120ms", plain)

	colored := renderStatusLine("video/runway", statusError, "timeout", true)
	assert.True(t, strings.HasPrefix(colored, ansiRed))
	assert.True(t, strings.HasSuffix(colored, ansiReset))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
