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
	"os"
	"sort"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
)

// Pinger is implemented by every provider adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Registry holds the adapters built from configuration.
type Registry struct {
	Text   map[string]TextModel  // Keyed by agent model name.
	Images map[string]ImageModel // Keyed by provider name.
	Video  map[string]VideoModel // Keyed by provider name.
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Text:   make(map[string]TextModel),
		Images: make(map[string]ImageModel),
		Video:  make(map[string]VideoModel),
	}
}

// Build creates an adapter for every configured agent model and for every
// image and video provider. Gemini agent models reuse the quota aware models
// created in clients.
func Build(config *cloud.Config, clients *cloud.ServiceClients) (*Registry, error) {
	reg := NewRegistry()
	meter := otel.Meter(cor.MeterName)

	for key, am := range config.AgentModels {
		p, ok := config.Providers[am.Provider]
		if !ok {
			return nil, fmt.Errorf("agent model %s: unknown provider %q", key, am.Provider)
		}
		chat := ChatConfig{
			Name:               key,
			BaseURL:            p.BaseURL,
			APIKey:             os.Getenv(p.APIKeyEnv),
			Model:              am.Model,
			SystemInstructions: am.SystemInstructions,
			Temperature:        am.Temperature,
			MaxTokens:          am.MaxTokens,
			JSON:               am.OutputFormat == "application/json",
			Timeout:            timeout(p),
			Version:            p.Version,
		}
		opts := options(p, am.RateLimit)
		switch p.Kind {
		case cloud.ProviderOpenAI:
			reg.Text[key] = NewOpenAIChat(chat, opts...)
		case cloud.ProviderAnthropic:
			reg.Text[key] = NewAnthropicMessages(chat, opts...)
		case cloud.ProviderGemini:
			if clients == nil || clients.AgentModels[key] == nil {
				return nil, fmt.Errorf("agent model %s: gemini client not initialized", key)
			}
			reg.Text[key] = NewGeminiText(key, clients.AgentModels[key], cloud.NewModelCounters(meter, key))
		default:
			return nil, fmt.Errorf("agent model %s: provider kind %q cannot generate text", key, p.Kind)
		}
	}

	for key, p := range config.Providers {
		opts := options(p, p.RateLimit)
		switch p.Kind {
		case cloud.ProviderOpenAIImages:
			reg.Images[key] = NewOpenAIImages(ImageConfig{
				Name: key, BaseURL: p.BaseURL, APIKey: os.Getenv(p.APIKeyEnv), Model: p.Model, Timeout: timeout(p),
			}, opts...)
		case cloud.ProviderPollinations:
			reg.Images[key] = NewPollinations(ImageConfig{
				Name: key, BaseURL: p.BaseURL, Model: p.Model, Timeout: timeout(p),
			}, opts...)
		case cloud.ProviderRunway:
			reg.Video[key] = NewRunway(VideoConfig{
				Name: key, BaseURL: p.BaseURL, APIKey: os.Getenv(p.APIKeyEnv), Model: p.Model, Version: p.Version, Timeout: timeout(p),
			}, opts...)
		}
	}
	return reg, nil
}

// TextModel returns the text model registered under key.
func (r *Registry) TextModel(key string) (TextModel, error) {
	if m, ok := r.Text[key]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no text model named %q", key)
}

// ImageModel returns the image model registered under key.
func (r *Registry) ImageModel(key string) (ImageModel, error) {
	if m, ok := r.Images[key]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no image provider named %q", key)
}

// VideoModel returns the video model registered under key.
func (r *Registry) VideoModel(key string) (VideoModel, error) {
	if m, ok := r.Video[key]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no video provider named %q", key)
}

// Pingers returns every adapter keyed by "<kind>/<name>", in a stable order
// of keys.
func (r *Registry) Pingers() (map[string]Pinger, []string) {
	out := make(map[string]Pinger)
	for k, v := range r.Text {
		out["text/"+k] = v
	}
	for k, v := range r.Images {
		out["image/"+k] = v
	}
	for k, v := range r.Video {
		out["video/"+k] = v
	}
	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return out, keys
}

func timeout(p cloud.Provider) time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func options(p cloud.Provider, rateLimit int) []Option {
	opts := []Option{WithRateLimit(rateLimit)}
	if p.MaxRetries > 0 {
		opts = append(opts, WithRetryMaxAttempts(p.MaxRetries+1))
	}
	return opts
}
