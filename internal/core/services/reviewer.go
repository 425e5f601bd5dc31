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
	"strings"
	"text/template"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
)

// ScriptReviewer produces the editorial review of a script: its hook,
// strengths, weaknesses and an optimized rewrite.
type ScriptReviewer struct {
	Model    providers.TextModel
	Template *template.Template
	Timeout  time.Duration
}

// ReviewPrompt is the data the review template is rendered with.
type ReviewPrompt struct {
	Script  string
	Example string
}

func (r *ScriptReviewer) Review(ctx context.Context, script string) (*model.ScriptReview, error) {
	const op = "script review"
	if strings.TrimSpace(script) == "" {
		return nil, &model.AnalysisError{Op: op, Err: errEmptyScript}
	}
	review := &model.ScriptReview{}
	data := ReviewPrompt{Script: script, Example: model.ExampleJSON(model.GetExampleReview())}
	if err := generateStructured(ctx, r.Model, r.Timeout, r.Template, data, review); err != nil {
		return nil, &model.AnalysisError{Op: op, Err: err}
	}
	return review, nil
}
