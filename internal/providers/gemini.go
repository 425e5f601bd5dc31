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
	"strings"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
)

// GeminiText adapts a rate limited GenAI model to TextModel.
type GeminiText struct {
	name     string
	model    *cloud.QuotaAwareGenerativeAIModel
	counters *cloud.ModelCounters
}

// NewGeminiText wraps model. counters may be nil.
func NewGeminiText(name string, model *cloud.QuotaAwareGenerativeAIModel, counters *cloud.ModelCounters) *GeminiText {
	return &GeminiText{name: name, model: model, counters: counters}
}

func (m *GeminiText) Name() string {
	return m.name
}

func (m *GeminiText) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := cloud.GenerateTextResponse(ctx, m.counters, m.model, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", m.name, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%s: %w", m.name, errEmptyContent)
	}
	return out, nil
}

func (m *GeminiText) Ping(ctx context.Context) error {
	return m.model.Ping(ctx)
}
