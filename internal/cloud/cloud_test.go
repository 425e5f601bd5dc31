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

package cloud_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
)

func TestConfigFiles(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, "configs")
	t.Setenv(cloud.EnvConfigRuntime, "")
	base, runtime := cloud.ConfigFiles()
	assert.Equal(t, filepath.Join("configs", ".env.toml"), base)
	assert.Equal(t, filepath.Join("configs", ".env.test.toml"), runtime)

	t.Setenv(cloud.EnvConfigRuntime, "prod")
	_, runtime = cloud.ConfigFiles()
	assert.Equal(t, filepath.Join("configs", ".env.prod.toml"), runtime)
}

func TestLoadConfig_RuntimeOverridesBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.toml"), `
[application]
name = "studio"
port = 8080

[providers.pollinations]
kind = "pollinations"
timeout_seconds = 90

[pipeline]
max_segments = 6
`)
	writeFile(t, filepath.Join(dir, ".env.local.toml"), `
[application]
port = 9090

[pipeline]
max_segments = 2
`)
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "local")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))
	assert.Equal(t, "studio", config.Application.Name)
	assert.Equal(t, 9090, config.Application.Port)
	assert.Equal(t, 2, config.Pipeline.MaxSegments)
	assert.Equal(t, 90, config.Providers["pollinations"].TimeoutSeconds)
}

func TestLoadConfig_MissingFilesAreSkipped(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, t.TempDir())
	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))
	assert.Empty(t, config.Providers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.toml"), "[application]\nport = \"eighty\"\n")
	t.Setenv(cloud.EnvConfigFilePrefix, dir)

	err := cloud.LoadConfig(cloud.NewConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env.toml")
}

func TestLoadConfig_RepositoryConfigs(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, filepath.Join("..", "..", "configs"))
	t.Setenv(cloud.EnvConfigRuntime, "test")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))

	assert.False(t, config.Application.EnableTelemetry)
	assert.False(t, config.Queue.Enabled)
	assert.Equal(t, cloud.StorageBackendNone, config.Storage.Backend)
	assert.Equal(t, "pollinations", config.Pipeline.ImageProvider)
	assert.Equal(t, "runway", config.Pipeline.VideoProvider)
	assert.Equal(t, 5, config.Pipeline.MaxPollAttempts)
	assert.Empty(t, config.TopicSubscriptions)

	for _, key := range []string{
		config.Pipeline.AnalysisModel,
		config.Pipeline.ReviewModel,
		config.Pipeline.SynthesisModel,
		config.Pipeline.ComplianceModel,
	} {
		am, ok := config.AgentModels[key]
		require.True(t, ok, key)
		_, ok = config.Providers[am.Provider]
		assert.True(t, ok, am.Provider)
	}
	assert.NotEmpty(t, config.PromptTemplates.Analysis)
	assert.NotEmpty(t, config.PromptTemplates.Video)
}

func TestLoadConfig_RepositoryPipelineDefaults(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, filepath.Join("..", "..", "configs"))
	t.Setenv(cloud.EnvConfigRuntime, "base")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))

	p := config.Pipeline
	assert.Equal(t, 4, p.MaxSegments)
	assert.Equal(t, 1000, p.PortraitIntervalMillis)
	assert.Equal(t, 10, p.PollIntervalSeconds)
	assert.Equal(t, 60, p.MaxPollAttempts)
	assert.Equal(t, 3, p.PollRetries)
	assert.Equal(t, 5, p.PollRetryBackoffSeconds)
	assert.Equal(t, "youtube", p.DefaultPlatform)
}

type recordingArchive struct {
	key         string
	contentType string
	data        []byte
}

func (a *recordingArchive) Store(_ context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", errors.New("size mismatch")
	}
	a.key, a.contentType, a.data = key, contentType, data
	return "https://assets.example/" + key, nil
}

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestArchiveRemote_DetectsType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	archive := &recordingArchive{}
	u, err := cloud.ArchiveRemote(context.Background(), srv.Client(), archive, "ep-1/thumbnail", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "https://assets.example/ep-1/thumbnail.png", u)
	assert.Equal(t, "image/png", archive.contentType)
	assert.Equal(t, pngHeader, archive.data)
}

func TestArchiveRemote_UnknownType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain bytes"))
	}))
	defer srv.Close()

	archive := &recordingArchive{}
	_, err := cloud.ArchiveRemote(context.Background(), nil, archive, "ep-1/video.mp4", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ep-1/video.mp4", archive.key)
	assert.Contains(t, archive.contentType, "text/plain")
}

func TestArchiveRemote_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	archive := &recordingArchive{}
	_, err := cloud.ArchiveRemote(context.Background(), srv.Client(), archive, "ep-1/x", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
	assert.Empty(t, archive.key)
}

type flakyGenerator struct {
	failures int
	calls    int
}

func (g *flakyGenerator) GenerateContent(context.Context, []*genai.Content) (*genai.GenerateContentResponse, error) {
	g.calls++
	if g.calls <= g.failures {
		return nil, errors.New("resource exhausted")
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: `{"hook":`}, {Text: `"x"}`}}}},
			{Content: nil},
		},
	}, nil
}

func TestGenerateTextResponse_Retries(t *testing.T) {
	restore := cloud.RetryBackoff
	cloud.RetryBackoff = time.Millisecond
	defer func() { cloud.RetryBackoff = restore }()

	gen := &flakyGenerator{failures: 2}
	out, err := cloud.GenerateTextResponse(context.Background(), nil, gen, "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"hook":"x"}`, out)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerateTextResponse_GivesUp(t *testing.T) {
	restore := cloud.RetryBackoff
	cloud.RetryBackoff = time.Millisecond
	defer func() { cloud.RetryBackoff = restore }()

	gen := &flakyGenerator{failures: 10}
	_, err := cloud.GenerateTextResponse(context.Background(), nil, gen, "prompt")
	assert.EqualError(t, err, "resource exhausted")
	assert.Equal(t, cloud.MaxRetries+1, gen.calls)
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o600))
}
