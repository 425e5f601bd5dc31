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

// Package services implements the stages of the episode pipeline. Every
// service receives its provider adapters and prompt templates by injection and
// holds no per-run state, so one instance serves any number of concurrent runs.
//
// Structs:
//   - ScriptAnalyzer: Extracts title, location, timeframe and cast from a script.
//   - ScriptReviewer: Produces the editorial review of a script.
//   - ImageSetGenerator: Builds the background, thumbnail and portrait set.
//   - Pacer: Runs tasks sequentially with a minimum interval between starts.
//   - Synthesizer: Reconciles the review and the analysis into one recommendation.
//   - ComplianceGate: Produces the pass / warning / fail verdict.
//   - VideoJobPoller: Submits a render job and polls it to a terminal state.
//   - HealthMonitor: Caches provider health probes on a cron schedule.
//   - BigQueryEventSink: Records and reads back episode analytics events.
package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/extract"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
)

// DefaultCallTimeout bounds a provider call when a service has no timeout configured.
const DefaultCallTimeout = 2 * time.Minute

// Render executes a prompt template.
func Render(t *template.Template, data any) (string, error) {
	if t == nil {
		return "", fmt.Errorf("prompt template not configured")
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// withTimeout applies d, or DefaultCallTimeout when d is not positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultCallTimeout
	}
	return context.WithTimeout(ctx, d)
}

// generateStructured renders the prompt, calls the text model once under a
// timeout and decodes the response into target.
func generateStructured(ctx context.Context, m providers.TextModel, timeout time.Duration, t *template.Template, data any, target extract.Validatable) error {
	prompt, err := Render(t, data)
	if err != nil {
		return err
	}
	callCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	raw, err := m.Generate(callCtx, prompt)
	if err != nil {
		return err
	}
	if err := extract.Decode(raw, target); err != nil {
		slog.WarnContext(ctx, "model response rejected", "model", m.Name(), "error", err, "snippet", extract.Snippet(raw))
		return err
	}
	return nil
}

// ParseTemplate parses a named prompt template, panicking on a syntax error.
// Templates come from configuration, so a bad one is a startup failure.
func ParseTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}
