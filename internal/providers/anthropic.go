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
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultAnthropicVersion   = "2023-06-01"
	defaultAnthropicMaxTokens = 4096
)

// AnthropicMessages talks to the Anthropic /v1/messages endpoint.
type AnthropicMessages struct {
	cfg    ChatConfig
	client *client
}

// NewAnthropicMessages creates an Anthropic text model.
func NewAnthropicMessages(cfg ChatConfig, opts ...Option) *AnthropicMessages {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.Version == "" {
		cfg.Version = defaultAnthropicVersion
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultAnthropicMaxTokens
	}
	headers := map[string]string{
		"x-api-key":         strings.TrimSpace(cfg.APIKey),
		"anthropic-version": cfg.Version,
	}
	return &AnthropicMessages{cfg: cfg, client: newClient(cfg.BaseURL, cfg.Timeout, headers, opts...)}
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int32         `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Temperature float32       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (m *AnthropicMessages) Name() string {
	return m.cfg.Name
}

func (m *AnthropicMessages) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return "", fmt.Errorf("%s: %w", m.cfg.Name, ErrMissingAPIKey)
	}
	payload := messagesRequest{
		Model:       m.cfg.Model,
		MaxTokens:   m.cfg.MaxTokens,
		System:      m.cfg.SystemInstructions,
		Temperature: m.cfg.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	}
	var resp messagesResponse
	if err := m.client.do(ctx, http.MethodPost, "/messages", payload, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", m.cfg.Name, err)
	}
	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("%s: %w (stop_reason=%q)", m.cfg.Name, errEmptyContent, resp.StopReason)
	}
	return out.String(), nil
}

func (m *AnthropicMessages) Ping(ctx context.Context) error {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return m.client.do(ctx, http.MethodGet, "/models", nil, nil)
}
