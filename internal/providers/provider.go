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

// Package providers adapts third-party generative services to the three
// contracts the pipeline depends on: TextModel, ImageModel and VideoModel.
// Each adapter is a thin translation of a vendor API; the pipeline never sees
// vendor types.
//
// Interfaces:
//   - TextModel: prompt in, text out (OpenAI chat, Anthropic messages, Gemini).
//   - ImageModel: prompt in, image URL out (OpenAI images, Pollinations).
//   - VideoModel: asynchronous job submission and task lookup (Runway).
package providers

import (
	"context"
	"errors"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

// ErrMissingAPIKey is returned when a provider that requires a key has none.
var ErrMissingAPIKey = errors.New("api key required")

// TextModel generates text from a prompt.
type TextModel interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	Ping(ctx context.Context) error
}

// ImageRequest describes a single image generation call.
type ImageRequest struct {
	Prompt string
	Width  int
	Height int
	Seed   int
}

// ImageModel generates an image and returns a URL it can be fetched from.
type ImageModel interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
	Ping(ctx context.Context) error
}

// VideoSubmission is the payload of an image-to-video job.
type VideoSubmission struct {
	PromptText  string
	PromptImage string
	Ratio       string
	Duration    int
}

// VideoTask is the provider-reported state of a video job.
type VideoTask struct {
	ID            string
	Status        model.VideoStatus
	Output        []string
	FailureReason string
}

// VideoModel submits video jobs and reports their state.
type VideoModel interface {
	Name() string
	Submit(ctx context.Context, sub VideoSubmission) (string, error)
	Task(ctx context.Context, id string) (*VideoTask, error)
	Ping(ctx context.Context) error
}
