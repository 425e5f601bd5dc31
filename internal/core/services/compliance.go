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

// ComplianceGate reviews a script and its image descriptions against platform
// content policies. It should be backed by a low temperature model.
type ComplianceGate struct {
	Model    providers.TextModel
	Template *template.Template
	Timeout  time.Duration
}

// CompliancePrompt is the data the compliance template is rendered with.
type CompliancePrompt struct {
	Script            string
	ImageDescriptions []string
	Platforms         []model.PlatformSpec
	Example           string
}

// AnalyzeCompliance returns the verdict. A "fail" verdict is returned as a
// value, not an error: deciding what to do with it is the caller's business.
func (g *ComplianceGate) AnalyzeCompliance(ctx context.Context, script string, imageDescriptions []string) (*model.ComplianceVerdict, error) {
	const op = "compliance review"
	if strings.TrimSpace(script) == "" {
		return nil, &model.AnalysisError{Op: op, Err: errEmptyScript}
	}
	data := CompliancePrompt{
		Script:            script,
		ImageDescriptions: imageDescriptions,
		Platforms:         model.Platforms(),
		Example:           model.ExampleJSON(model.GetExampleVerdict()),
	}
	verdict := &model.ComplianceVerdict{}
	if err := generateStructured(ctx, g.Model, g.Timeout, g.Template, data, verdict); err != nil {
		return nil, &model.AnalysisError{Op: op, Err: err}
	}
	return verdict, nil
}
