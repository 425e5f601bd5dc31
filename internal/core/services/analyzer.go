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
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
)

var errEmptyScript = errors.New("script is empty")

// ScriptAnalyzer turns a narrative script into a ScriptAnalysis.
type ScriptAnalyzer struct {
	Model       providers.TextModel
	Template    *template.Template
	MaxSegments int
	Timeout     time.Duration
}

// AnalysisPrompt is the data the analysis template is rendered with.
type AnalysisPrompt struct {
	Script      string
	MaxSegments int
	Example     string
}

// Analyze extracts the episode entities from script with a single model call.
// The title is truncated and the cast capped before returning; an empty script
// fails without calling the model.
func (a *ScriptAnalyzer) Analyze(ctx context.Context, script string) (*model.ScriptAnalysis, error) {
	const op = "script analysis"
	if strings.TrimSpace(script) == "" {
		return nil, &model.AnalysisError{Op: op, Err: errEmptyScript}
	}
	maxSegments := a.MaxSegments
	if maxSegments <= 0 {
		maxSegments = model.DefaultMaxSegments
	}

	analysis := &model.ScriptAnalysis{}
	data := AnalysisPrompt{Script: script, MaxSegments: maxSegments, Example: model.ExampleJSON(model.GetExampleAnalysis())}
	if err := generateStructured(ctx, a.Model, a.Timeout, a.Template, data, analysis); err != nil {
		return nil, &model.AnalysisError{Op: op, Err: err}
	}

	if dropped := analysis.Normalize(maxSegments); dropped > 0 {
		slog.InfoContext(ctx, "dropped segments over the cap", "dropped", dropped, "max_segments", maxSegments)
	}
	return analysis, nil
}
