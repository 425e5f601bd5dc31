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
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ChatConfig configures a chat-style text model.
type ChatConfig struct {
	Name               string
	BaseURL            string
	APIKey             string
	Model              string
	SystemInstructions string
	Temperature        float32
	MaxTokens          int32
	JSON               bool // Request a JSON object response where the API supports it.
	Timeout            time.Duration
	Version            string // API version header (Anthropic only).
}

// OpenAIChat talks to an OpenAI-compatible /chat/completions endpoint.
type OpenAIChat struct {
	cfg    ChatConfig
	client *client
}

// NewOpenAIChat creates an OpenAI-compatible chat model.
func NewOpenAIChat(cfg ChatConfig, opts ...Option) *OpenAIChat {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	headers := map[string]string{"Authorization": "Bearer " + strings.TrimSpace(cfg.APIKey)}
	return &OpenAIChat{cfg: cfg, client: newClient(cfg.BaseURL, cfg.Timeout, headers, opts...)}
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	MaxTokens      int32             `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (m *OpenAIChat) Name() string {
	return m.cfg.Name
}

func (m *OpenAIChat) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return "", fmt.Errorf("%s: %w", m.cfg.Name, ErrMissingAPIKey)
	}
	payload := chatCompletionRequest{
		Model:       m.cfg.Model,
		Temperature: m.cfg.Temperature,
		MaxTokens:   m.cfg.MaxTokens,
	}
	if m.cfg.SystemInstructions != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: m.cfg.SystemInstructions})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: prompt})
	if m.cfg.JSON {
		payload.ResponseFormat = map[string]string{"type": "json_object"}
	}

	var resp chatCompletionResponse
	if err := m.client.do(ctx, http.MethodPost, "/chat/completions", payload, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", m.cfg.Name, err)
	}
	for _, choice := range resp.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
		if choice.Message.Refusal != "" {
			return "", fmt.Errorf("%s: model refused: %s", m.cfg.Name, choice.Message.Refusal)
		}
	}
	return "", fmt.Errorf("%s: %w", m.cfg.Name, errEmptyContent)
}

// Ping lists the available models, which checks the key without spending tokens.
func (m *OpenAIChat) Ping(ctx context.Context) error {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return m.client.do(ctx, http.MethodGet, "/models", nil, nil)
}

var errEmptyContent = errors.New("empty content")
