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
	"net/url"
	"strings"
	"time"
)

// ImageConfig configures an image model.
type ImageConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIImages talks to an OpenAI-compatible /images/generations endpoint.
type OpenAIImages struct {
	cfg    ImageConfig
	client *client
}

// NewOpenAIImages creates an OpenAI-compatible image model.
func NewOpenAIImages(cfg ImageConfig, opts ...Option) *OpenAIImages {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	headers := map[string]string{"Authorization": "Bearer " + strings.TrimSpace(cfg.APIKey)}
	return &OpenAIImages{cfg: cfg, client: newClient(cfg.BaseURL, cfg.Timeout, headers, opts...)}
}

type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (m *OpenAIImages) Name() string {
	return m.cfg.Name
}

func (m *OpenAIImages) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return "", fmt.Errorf("%s: %w", m.cfg.Name, ErrMissingAPIKey)
	}
	payload := imageGenerationRequest{
		Model:          m.cfg.Model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           openAISize(req.Width, req.Height),
		ResponseFormat: "url",
	}
	var resp imageGenerationResponse
	if err := m.client.do(ctx, http.MethodPost, "/images/generations", payload, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", m.cfg.Name, err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("%s: no image returned", m.cfg.Name)
	}
	if resp.Data[0].URL != "" {
		return resp.Data[0].URL, nil
	}
	if resp.Data[0].B64JSON != "" {
		return "data:image/png;base64," + resp.Data[0].B64JSON, nil
	}
	return "", fmt.Errorf("%s: image entry has neither url nor b64_json", m.cfg.Name)
}

func (m *OpenAIImages) Ping(ctx context.Context) error {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return m.client.do(ctx, http.MethodGet, "/models", nil, nil)
}

// openAISize maps a requested resolution to the closest supported size.
func openAISize(width, height int) string {
	switch {
	case width > height:
		return "1792x1024"
	case height > width:
		return "1024x1792"
	default:
		return "1024x1024"
	}
}

// Pollinations generates images by URL: the image at the returned address is
// rendered on first request. GenerateImage fetches it once so a broken render
// is reported here rather than to the end user.
type Pollinations struct {
	cfg    ImageConfig
	client *client
}

// minImageBytes rejects error pages served with a 200 status.
const minImageBytes = 100

// NewPollinations creates a Pollinations image model. No key is required.
func NewPollinations(cfg ImageConfig, opts ...Option) *Pollinations {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://image.pollinations.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "flux"
	}
	headers := map[string]string{"User-Agent": "gcp-go-true-crime/1.0"}
	return &Pollinations{cfg: cfg, client: newClient(cfg.BaseURL, cfg.Timeout, headers, opts...)}
}

func (m *Pollinations) Name() string {
	return m.cfg.Name
}

// ImageURL builds the deterministic render URL for req.
func (m *Pollinations) ImageURL(req ImageRequest) string {
	q := url.Values{}
	if req.Width > 0 {
		q.Set("width", fmt.Sprint(req.Width))
	}
	if req.Height > 0 {
		q.Set("height", fmt.Sprint(req.Height))
	}
	q.Set("model", m.cfg.Model)
	q.Set("nologo", "true")
	q.Set("seed", fmt.Sprint(req.Seed))
	return fmt.Sprintf("%s/prompt/%s?%s", m.client.baseURL, url.PathEscape(req.Prompt), q.Encode())
}

func (m *Pollinations) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("pollinations: prompt required")
	}
	u := m.ImageURL(req)
	body, err := m.client.send(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", m.cfg.Name, err)
	}
	if len(body) < minImageBytes {
		return "", fmt.Errorf("%s: response too small (%d bytes)", m.cfg.Name, len(body))
	}
	return u, nil
}

func (m *Pollinations) Ping(ctx context.Context) error {
	_, err := m.client.send(ctx, http.MethodHead, m.client.baseURL, nil)
	return err
}
