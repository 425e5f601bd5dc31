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

package test

import (
	"context"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/workflow"
)

// RecordingSink captures emitted analytics events.
type RecordingSink struct {
	mu     sync.Mutex
	events []*model.EpisodeEvent
}

func (s *RecordingSink) Emit(_ context.Context, event *model.EpisodeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns the events emitted so far.
func (s *RecordingSink) Events() []*model.EpisodeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.EpisodeEvent(nil), s.events...)
}

// Pipeline is a full set of pipeline components wired to in-memory providers.
type Pipeline struct {
	Analysis   *StubText
	Review     *StubText
	Synthesis  *StubText
	Compliance *StubText
	Images     *StubImages
	Video      *StubVideo
	Events     *RecordingSink
	Components *workflow.Components
}

// NoSleep replaces the poller's sleep so tests run instantly.
func NoSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// NewPipeline builds components answering with the sample responses and the
// given compliance verdict.
func NewPipeline(verdict string, video *StubVideo) *Pipeline {
	p := &Pipeline{
		Analysis:   NewStubText("analysis", SampleAnalysisJSON),
		Review:     NewStubText("review", SampleReviewJSON),
		Synthesis:  NewStubText("synthesis", SampleSynthesisJSON),
		Compliance: NewStubText("compliance", verdict),
		Images:     &StubImages{},
		Video:      video,
		Events:     &RecordingSink{},
	}
	analyzer := &services.ScriptAnalyzer{
		Model:    p.Analysis,
		Template: services.ParseTemplate("analysis", "Analyze: {{.Script}} (max {{.MaxSegments}})"),
	}
	p.Components = &workflow.Components{
		Analyzer: analyzer,
		Reviewer: &services.ScriptReviewer{
			Model:    p.Review,
			Template: services.ParseTemplate("review", "Review: {{.Script}}"),
		},
		Images: &services.ImageSetGenerator{
			Analyzer:           analyzer,
			Images:             p.Images,
			BackgroundTemplate: services.ParseTemplate("background", "{{.Location}}, {{.Timeframe}}"),
			ThumbnailTemplate:  services.ParseTemplate("thumbnail", "{{.Title}} at {{.Location}}"),
			PortraitTemplate:   services.ParseTemplate("portrait", "{{.Name}}, {{.Role}}, {{.Timeframe}}"),
		},
		Synthesizer: &services.Synthesizer{
			Model:    p.Synthesis,
			Template: services.ParseTemplate("synthesis", "Reconcile {{.Review}} with {{.Analysis}}"),
		},
		Compliance: &services.ComplianceGate{
			Model:    p.Compliance,
			Template: services.ParseTemplate("compliance", "Check {{.Script}} {{range .ImageDescriptions}}[{{.}}]{{end}}"),
		},
		Poller: &services.VideoJobPoller{
			Model:       video,
			MaxAttempts: 5,
			Sleep:       NoSleep,
		},
		VideoTemplate:   services.ParseTemplate("video", "{{.Title}}: {{.Script}}"),
		Events:          p.Events,
		DefaultPlatform: model.DefaultPlatform,
	}
	return p
}
