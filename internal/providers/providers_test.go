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

package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

func noSleep(time.Duration) {}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestOpenAIChat_Generate(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": `  {"ok":true}  `}}},
		})
	}))
	defer srv.Close()

	m := NewOpenAIChat(ChatConfig{
		Name:               "analysis",
		BaseURL:            srv.URL,
		APIKey:             " sk-test ",
		Model:              "gpt-4o-mini",
		SystemInstructions: "You are a script analyst.",
		Temperature:        0.2,
		JSON:               true,
	})
	out, err := m.Generate(context.Background(), "analyze this")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "analysis", m.Name())

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "You are a script analyst."}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "analyze this"}, got.Messages[1])
	assert.Equal(t, map[string]string{"type": "json_object"}, got.ResponseFormat)
}

func TestOpenAIChat_PlainText(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "hello"}}},
		})
	}))
	defer srv.Close()

	m := NewOpenAIChat(ChatConfig{Name: "review", BaseURL: srv.URL, APIKey: "k"})
	out, err := m.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.NotContains(t, raw, "response_format")
	assert.Len(t, raw["messages"], 1)
}

func TestOpenAIChat_Refusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"refusal": "I can't help with that"}}},
		})
	}))
	defer srv.Close()

	m := NewOpenAIChat(ChatConfig{Name: "compliance", BaseURL: srv.URL, APIKey: "k"})
	_, err := m.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model refused: I can't help with that")
}

func TestOpenAIChat_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	m := NewOpenAIChat(ChatConfig{Name: "analysis", BaseURL: srv.URL, APIKey: "k"})
	_, err := m.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, errEmptyContent)
}

func TestOpenAIChat_MissingKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	m := NewOpenAIChat(ChatConfig{Name: "analysis", BaseURL: srv.URL, APIKey: "  "})
	_, err := m.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.ErrorIs(t, m.Ping(context.Background()), ErrMissingAPIKey)
	assert.Zero(t, calls.Load())
}

func TestOpenAIChat_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	m := NewOpenAIChat(ChatConfig{Name: "analysis", BaseURL: srv.URL, APIKey: "k"})
	assert.NoError(t, m.Ping(context.Background()))
}

func TestAnthropicMessages_Generate(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, defaultAnthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": `{"hook":`},
				{"type": "tool_use"},
				{"type": "text", "text": `"Open cold"}`},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer srv.Close()

	m := NewAnthropicMessages(ChatConfig{
		Name:               "review",
		BaseURL:            srv.URL,
		APIKey:             "ak-test",
		Model:              "claude-sonnet",
		SystemInstructions: "You are an editor.",
	})
	out, err := m.Generate(context.Background(), "review this")
	require.NoError(t, err)
	assert.Equal(t, `{"hook":"Open cold"}`, out)

	assert.Equal(t, "claude-sonnet", got.Model)
	assert.Equal(t, "You are an editor.", got.System)
	assert.Equal(t, int32(defaultAnthropicMaxTokens), got.MaxTokens)
	assert.Equal(t, []chatMessage{{Role: "user", Content: "review this"}}, got.Messages)
}

func TestAnthropicMessages_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"content": []any{}, "stop_reason": "max_tokens"})
	}))
	defer srv.Close()

	m := NewAnthropicMessages(ChatConfig{Name: "review", BaseURL: srv.URL, APIKey: "k"})
	_, err := m.Generate(context.Background(), "review this")
	assert.ErrorIs(t, err, errEmptyContent)
	assert.Contains(t, err.Error(), `stop_reason="max_tokens"`)
}

func TestOpenAIImages_GenerateImage(t *testing.T) {
	var got imageGenerationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"data": []map[string]string{{"b64_json": "iVBORw0KGgo="}},
		})
	}))
	defer srv.Close()

	m := NewOpenAIImages(ImageConfig{Name: "openai", BaseURL: srv.URL, APIKey: "k"})
	out, err := m.GenerateImage(context.Background(), ImageRequest{Prompt: "a diner at night", Width: 720, Height: 1280})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", out)
	assert.Equal(t, "dall-e-3", got.Model)
	assert.Equal(t, "1024x1792", got.Size)
	assert.Equal(t, 1, got.N)
}

func TestOpenAIImages_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	m := NewOpenAIImages(ImageConfig{Name: "openai", BaseURL: srv.URL, APIKey: "k"})
	_, err := m.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image returned")
}

func TestOpenAISize(t *testing.T) {
	assert.Equal(t, "1792x1024", openAISize(1280, 720))
	assert.Equal(t, "1024x1792", openAISize(720, 1280))
	assert.Equal(t, "1024x1024", openAISize(960, 960))
	assert.Equal(t, "1024x1024", openAISize(0, 0))
}

func TestPollinations_GenerateImage(t *testing.T) {
	image := strings.Repeat("x", minImageBytes)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/prompt/a diner at night", r.URL.Path)
		assert.Equal(t, "1280", r.URL.Query().Get("width"))
		assert.Equal(t, "720", r.URL.Query().Get("height"))
		assert.Equal(t, "7", r.URL.Query().Get("seed"))
		assert.Equal(t, "flux", r.URL.Query().Get("model"))
		assert.Equal(t, "true", r.URL.Query().Get("nologo"))
		_, _ = w.Write([]byte(image))
	}))
	defer srv.Close()

	m := NewPollinations(ImageConfig{Name: "pollinations", BaseURL: srv.URL + "/"})
	req := ImageRequest{Prompt: "a diner at night", Width: 1280, Height: 720, Seed: 7}
	out, err := m.GenerateImage(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, m.ImageURL(req), out)
	assert.True(t, strings.HasPrefix(out, srv.URL+"/prompt/a%20diner%20at%20night?"), out)
}

func TestPollinations_SmallBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	m := NewPollinations(ImageConfig{Name: "pollinations", BaseURL: srv.URL})
	_, err := m.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response too small (12 bytes)")

	_, err = m.GenerateImage(context.Background(), ImageRequest{Prompt: " "})
	assert.EqualError(t, err, "pollinations: prompt required")
}

func TestPollinations_ImageURLDeterministic(t *testing.T) {
	m := NewPollinations(ImageConfig{Name: "pollinations"})
	req := ImageRequest{Prompt: "Tom Varga (family), Winter 1994", Width: 720, Height: 1280, Seed: 91}
	assert.Equal(t, m.ImageURL(req), m.ImageURL(req))
	assert.Equal(t,
		"https://image.pollinations.ai/prompt/Tom%20Varga%20%28family%29%2C%20Winter%201994?height=1280&model=flux&nologo=true&seed=91&width=720",
		m.ImageURL(req))
}

func TestRunway_Submit(t *testing.T) {
	var got runwaySubmitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/image_to_video", r.URL.Path)
		assert.Equal(t, "Bearer rk", r.Header.Get("Authorization"))
		assert.Equal(t, defaultRunwayVersion, r.Header.Get("X-Runway-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]string{"id": "task-1"})
	}))
	defer srv.Close()

	m := NewRunway(VideoConfig{Name: "runway", BaseURL: srv.URL, APIKey: "rk"})
	id, err := m.Submit(context.Background(), VideoSubmission{
		PromptText:  "Cinematic opening",
		PromptImage: "https://img/thumb.png",
		Ratio:       "1280:720",
		Duration:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	assert.Equal(t, runwaySubmitRequest{
		Model:       defaultRunwayModel,
		PromptImage: "https://img/thumb.png",
		PromptText:  "Cinematic opening",
		Ratio:       "1280:720",
		Duration:    10,
	}, got)
}

func TestRunway_SubmitWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	m := NewRunway(VideoConfig{Name: "runway", BaseURL: srv.URL, APIKey: "rk"})
	_, err := m.Submit(context.Background(), VideoSubmission{PromptImage: "x"})
	require.Error(t, err)

	m = NewRunway(VideoConfig{Name: "runway", BaseURL: srv.URL})
	_, err = m.Submit(context.Background(), VideoSubmission{PromptImage: "x"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestRunway_SubmitRejected(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusBadRequest, map[string]string{"error": "promptImage must be a URL"})
	}))
	defer srv.Close()

	m := NewRunway(VideoConfig{Name: "runway", BaseURL: srv.URL, APIKey: "rk"}, WithSleeper(noSleep))
	_, err := m.Submit(context.Background(), VideoSubmission{PromptImage: "x"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "promptImage must be a URL")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunway_Task(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]any
		status model.VideoStatus
		output []string
		reason string
	}{
		{
			name:   "succeeded",
			body:   map[string]any{"id": "task-1", "status": "SUCCEEDED", "output": []string{"https://v/1.mp4"}},
			status: model.VideoSucceeded,
			output: []string{"https://v/1.mp4"},
		},
		{
			name:   "running",
			body:   map[string]any{"id": "task-1", "status": "RUNNING"},
			status: model.VideoRunning,
		},
		{
			name:   "throttled is pending",
			body:   map[string]any{"status": "THROTTLED"},
			status: model.VideoPending,
		},
		{
			name:   "failed with reason",
			body:   map[string]any{"id": "task-1", "status": "FAILED", "failure_reason": "Content moderation"},
			status: model.VideoFailed,
			reason: "Content moderation",
		},
		{
			name:   "failed with legacy field",
			body:   map[string]any{"id": "task-1", "status": "FAILED", "failure": "Out of credits"},
			status: model.VideoFailed,
			reason: "Out of credits",
		},
		{
			name:   "cancelled without reason",
			body:   map[string]any{"id": "task-1", "status": "CANCELLED"},
			status: model.VideoFailed,
			reason: "task ended with status CANCELLED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/tasks/task-1", r.URL.Path)
				writeJSON(t, w, http.StatusOK, tt.body)
			}))
			defer srv.Close()

			m := NewRunway(VideoConfig{Name: "runway", BaseURL: srv.URL, APIKey: "rk"})
			task, err := m.Task(context.Background(), "task-1")
			require.NoError(t, err)
			assert.Equal(t, "task-1", task.ID)
			assert.Equal(t, tt.status, task.Status)
			assert.Equal(t, tt.output, task.Output)
			assert.Equal(t, tt.reason, task.FailureReason)
		})
	}
}

func TestClient_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]string{"id": "ok"})
	}))
	defer srv.Close()

	var delays []time.Duration
	c := newClient(srv.URL, time.Second, nil,
		WithRetryBackoff(10*time.Millisecond, time.Second),
		WithSleeper(func(d time.Duration) { delays = append(delays, d) }))

	var out map[string]string
	require.NoError(t, c.do(context.Background(), http.MethodGet, "/", nil, &out))
	assert.Equal(t, "ok", out["id"])
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, delays)
}

func TestClient_HonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var delays []time.Duration
	c := newClient(srv.URL, time.Second, nil,
		WithRetryBackoff(10*time.Millisecond, 5*time.Second),
		WithSleeper(func(d time.Duration) { delays = append(delays, d) }))

	require.NoError(t, c.do(context.Background(), http.MethodPost, "/", map[string]int{"n": 1}, nil))
	assert.Equal(t, []time.Duration{2 * time.Second}, delays)
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(srv.URL, time.Second, nil, WithSleeper(noSleep))
	err := c.do(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(srv.URL, time.Second, nil, WithRetryMaxAttempts(3), WithSleeper(noSleep))
	err := c.do(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c := newClient(srv.URL, time.Second, nil)
	var out map[string]any
	err := c.do(context.Background(), http.MethodGet, "/", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.True(t, IsTransient(&StatusError{StatusCode: http.StatusRequestTimeout}))
	assert.True(t, IsTransient(&StatusError{StatusCode: http.StatusTooManyRequests}))
	assert.True(t, IsTransient(&StatusError{StatusCode: http.StatusBadGateway}))
	assert.False(t, IsTransient(&StatusError{StatusCode: http.StatusUnauthorized}))
}

func TestParseRetryAfter(t *testing.T) {
	d, ok := parseRetryAfter("3")
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	_, ok = parseRetryAfter("")
	assert.False(t, ok)
	_, ok = parseRetryAfter("-1")
	assert.False(t, ok)
	_, ok = parseRetryAfter("soon")
	assert.False(t, ok)

	d, ok = parseRetryAfter(time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))
	assert.True(t, ok)
	assert.InDelta(t, time.Minute.Seconds(), d.Seconds(), 2)
}

func TestBackoffDelay(t *testing.T) {
	c := newClient("http://x", 0, nil, WithRetryBackoff(time.Second, 5*time.Second))
	assert.Equal(t, time.Second, c.backoffDelay(1))
	assert.Equal(t, 2*time.Second, c.backoffDelay(2))
	assert.Equal(t, 4*time.Second, c.backoffDelay(3))
	assert.Equal(t, 5*time.Second, c.backoffDelay(4))
	assert.Equal(t, 5*time.Second, c.backoffDelay(10))
}

func TestBuild(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk")
	config := cloud.NewConfig()
	config.Providers["openai"] = cloud.Provider{Kind: cloud.ProviderOpenAI, APIKeyEnv: "TEST_OPENAI_KEY", MaxRetries: 2}
	config.Providers["anthropic"] = cloud.Provider{Kind: cloud.ProviderAnthropic}
	config.Providers["pollinations"] = cloud.Provider{Kind: cloud.ProviderPollinations}
	config.Providers["dalle"] = cloud.Provider{Kind: cloud.ProviderOpenAIImages}
	config.Providers["runway"] = cloud.Provider{Kind: cloud.ProviderRunway}
	config.AgentModels["analysis"] = cloud.AgentModel{Provider: "openai", Model: "gpt-4o-mini", OutputFormat: "application/json"}
	config.AgentModels["review"] = cloud.AgentModel{Provider: "anthropic", Model: "claude"}

	reg, err := Build(config, nil)
	require.NoError(t, err)

	analysis, err := reg.TextModel("analysis")
	require.NoError(t, err)
	require.IsType(t, &OpenAIChat{}, analysis)
	assert.True(t, analysis.(*OpenAIChat).cfg.JSON)
	assert.Equal(t, "sk", analysis.(*OpenAIChat).cfg.APIKey)
	assert.Equal(t, 3, analysis.(*OpenAIChat).client.retryMaxAttempts)

	review, err := reg.TextModel("review")
	require.NoError(t, err)
	assert.IsType(t, &AnthropicMessages{}, review)

	_, err = reg.ImageModel("pollinations")
	assert.NoError(t, err)
	_, err = reg.ImageModel("dalle")
	assert.NoError(t, err)
	_, err = reg.VideoModel("runway")
	assert.NoError(t, err)
	_, err = reg.VideoModel("pollinations")
	assert.EqualError(t, err, `no video provider named "pollinations"`)

	pingers, keys := reg.Pingers()
	assert.Equal(t, []string{
		"image/dalle",
		"image/pollinations",
		"text/analysis",
		"text/review",
		"video/runway",
	}, keys)
	assert.Len(t, pingers, 5)
}

func TestBuild_Errors(t *testing.T) {
	config := cloud.NewConfig()
	config.AgentModels["analysis"] = cloud.AgentModel{Provider: "missing"}
	_, err := Build(config, nil)
	assert.EqualError(t, err, `agent model analysis: unknown provider "missing"`)

	config = cloud.NewConfig()
	config.Providers["gemini"] = cloud.Provider{Kind: cloud.ProviderGemini}
	config.AgentModels["analysis"] = cloud.AgentModel{Provider: "gemini"}
	_, err = Build(config, nil)
	assert.EqualError(t, err, "agent model analysis: gemini client not initialized")

	config = cloud.NewConfig()
	config.Providers["runway"] = cloud.Provider{Kind: cloud.ProviderRunway}
	config.AgentModels["analysis"] = cloud.AgentModel{Provider: "runway"}
	_, err = Build(config, nil)
	assert.EqualError(t, err, `agent model analysis: provider kind "runway" cannot generate text`)
}
