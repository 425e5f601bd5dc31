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

// Package workflow assembles the episode pipeline from its services and
// commands. This file builds the services from configuration.
package workflow

import (
	"fmt"
	"net/http"
	"text/template"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
)

// Components holds every service a pipeline run needs. The HTTP handlers use
// the services directly for the single-stage endpoints.
type Components struct {
	Analyzer        *services.ScriptAnalyzer
	Reviewer        *services.ScriptReviewer
	Images          *services.ImageSetGenerator
	Synthesizer     *services.Synthesizer
	Compliance      *services.ComplianceGate
	Poller          *services.VideoJobPoller
	VideoTemplate   *template.Template
	Archive         cloud.AssetArchive
	ArchiveClient   *http.Client
	Events          services.EventSink
	History         services.EpisodeHistory
	DefaultPlatform model.Platform
}

// NewComponents wires the services named by config.Pipeline to the models in
// registry. Templates are parsed here, so a broken prompt stops the process at
// startup.
func NewComponents(config *cloud.Config, registry *providers.Registry, clients *cloud.ServiceClients) (*Components, error) {
	p := config.Pipeline
	if p.MaxSegments > model.DefaultMaxSegments {
		return nil, fmt.Errorf("max_segments %d exceeds the cap of %d", p.MaxSegments, model.DefaultMaxSegments)
	}

	analysisModel, err := registry.TextModel(p.AnalysisModel)
	if err != nil {
		return nil, fmt.Errorf("analysis model: %w", err)
	}
	reviewModel, err := registry.TextModel(p.ReviewModel)
	if err != nil {
		return nil, fmt.Errorf("review model: %w", err)
	}
	synthesisModel, err := registry.TextModel(p.SynthesisModel)
	if err != nil {
		return nil, fmt.Errorf("synthesis model: %w", err)
	}
	complianceModel, err := registry.TextModel(p.ComplianceModel)
	if err != nil {
		return nil, fmt.Errorf("compliance model: %w", err)
	}
	imageModel, err := registry.ImageModel(p.ImageProvider)
	if err != nil {
		return nil, fmt.Errorf("image provider: %w", err)
	}
	videoModel, err := registry.VideoModel(p.VideoProvider)
	if err != nil {
		return nil, fmt.Errorf("video provider: %w", err)
	}

	defaultPlatform := model.DefaultPlatform
	if p.DefaultPlatform != "" {
		spec, err := model.LookupPlatform(model.Platform(p.DefaultPlatform))
		if err != nil {
			return nil, fmt.Errorf("default platform: %w", err)
		}
		defaultPlatform = spec.Platform
	}

	t := config.PromptTemplates
	analyzer := &services.ScriptAnalyzer{
		Model:       analysisModel,
		Template:    services.ParseTemplate("analysis", t.Analysis),
		MaxSegments: p.MaxSegments,
		Timeout:     modelTimeout(config, p.AnalysisModel),
	}

	out := &Components{
		Analyzer: analyzer,
		Reviewer: &services.ScriptReviewer{
			Model:    reviewModel,
			Template: services.ParseTemplate("review", t.Review),
			Timeout:  modelTimeout(config, p.ReviewModel),
		},
		Images: &services.ImageSetGenerator{
			Analyzer:           analyzer,
			Images:             imageModel,
			BackgroundTemplate: services.ParseTemplate("background", t.Background),
			ThumbnailTemplate:  services.ParseTemplate("thumbnail", t.Thumbnail),
			PortraitTemplate:   services.ParseTemplate("portrait", t.Portrait),
			PortraitInterval:   time.Duration(p.PortraitIntervalMillis) * time.Millisecond,
			Timeout:            providerTimeout(config, p.ImageProvider),
		},
		Synthesizer: &services.Synthesizer{
			Model:    synthesisModel,
			Template: services.ParseTemplate("synthesis", t.Synthesis),
			Timeout:  modelTimeout(config, p.SynthesisModel),
		},
		Compliance: &services.ComplianceGate{
			Model:    complianceModel,
			Template: services.ParseTemplate("compliance", t.Compliance),
			Timeout:  modelTimeout(config, p.ComplianceModel),
		},
		Poller: &services.VideoJobPoller{
			Model:        videoModel,
			Interval:     time.Duration(p.PollIntervalSeconds) * time.Second,
			MaxAttempts:  p.MaxPollAttempts,
			PollRetries:  p.PollRetries,
			RetryBackoff: time.Duration(p.PollRetryBackoffSeconds) * time.Second,
			Timeout:      providerTimeout(config, p.VideoProvider),
		},
		VideoTemplate:   services.ParseTemplate("video", t.Video),
		ArchiveClient:   &http.Client{Timeout: 5 * time.Minute},
		Events:          services.LogEventSink{},
		DefaultPlatform: defaultPlatform,
	}

	if clients != nil {
		out.Archive = clients.Archive
		if config.Analytics.Enabled && clients.BiqQueryClient != nil {
			sink := &services.BigQueryEventSink{
				BigqueryClient: clients.BiqQueryClient,
				DatasetName:    config.Analytics.Dataset,
				EventsTable:    config.Analytics.EventsTable,
			}
			out.Events = sink
			out.History = sink
		}
	}
	return out, nil
}

func providerTimeout(config *cloud.Config, key string) time.Duration {
	if p, ok := config.Providers[key]; ok && p.TimeoutSeconds > 0 {
		return time.Duration(p.TimeoutSeconds) * time.Second
	}
	return services.DefaultCallTimeout
}

func modelTimeout(config *cloud.Config, agentModel string) time.Duration {
	return providerTimeout(config, config.AgentModels[agentModel].Provider)
}
