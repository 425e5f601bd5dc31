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

package services

import (
	"context"
	"errors"
	"text/template"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
)

// Synthesizer reconciles two independently produced analyses of a script, the
// editorial review and the entity analysis, into one recommendation.
type Synthesizer struct {
	Model    providers.TextModel
	Template *template.Template
	Timeout  time.Duration
}

// SynthesisPrompt is the data the synthesis template is rendered with.
type SynthesisPrompt struct {
	Script   string
	Review   string
	Analysis string
	Example  string
}

// Compare makes exactly one reconciliation call. It never retries and never
// falls back to either input on failure.
func (s *Synthesizer) Compare(ctx context.Context, script string, review *model.ScriptReview, analysis *model.ScriptAnalysis) (*model.SynthesisResult, error) {
	if review == nil || analysis == nil {
		return nil, &model.SynthesisError{Err: errors.New("both the review and the analysis are required")}
	}
	data := SynthesisPrompt{
		Script:   script,
		Review:   model.ExampleJSON(review),
		Analysis: model.ExampleJSON(analysis),
		Example:  model.ExampleJSON(model.GetExampleSynthesis()),
	}
	result := &model.SynthesisResult{}
	if err := generateStructured(ctx, s.Model, s.Timeout, s.Template, data, result); err != nil {
		return nil, &model.SynthesisError{Err: err}
	}
	return result, nil
}
