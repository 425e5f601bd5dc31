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
	"text/template"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
)

// Image dimensions requested from the image provider.
const (
	LandscapeWidth  = 1280
	LandscapeHeight = 720
	PortraitWidth   = 768
	PortraitHeight  = 1024
)

// Analyzer is the part of ScriptAnalyzer the image generator depends on.
type Analyzer interface {
	Analyze(ctx context.Context, script string) (*model.ScriptAnalysis, error)
}

// ImageSetGenerator produces the fixed-shape image bundle of an episode.
type ImageSetGenerator struct {
	Analyzer           Analyzer
	Images             providers.ImageModel
	BackgroundTemplate *template.Template
	ThumbnailTemplate  *template.Template
	PortraitTemplate   *template.Template
	PortraitInterval   time.Duration // Minimum spacing between portrait calls.
	Timeout            time.Duration // Per image call.
}

// BackgroundPrompt is the data the background template is rendered with.
type BackgroundPrompt struct {
	Location  string
	Timeframe string
}

// ThumbnailPrompt is the data the thumbnail template is rendered with.
type ThumbnailPrompt struct {
	Title     string
	Location  string
	Timeframe string
}

// PortraitPrompt is the data the portrait template is rendered with.
type PortraitPrompt struct {
	model.CharacterProfile
	Timeframe string
}

// GenerateEpisodeImageSet analyzes script and generates its images. Only a
// failed analysis or a cancelled ctx is fatal; individual image failures leave
// gaps in the set.
func (g *ImageSetGenerator) GenerateEpisodeImageSet(ctx context.Context, script string) (*model.ImageSet, error) {
	analysis, err := g.Analyzer.Analyze(ctx, script)
	if err != nil {
		return nil, err
	}
	set, _ := g.GenerateFromAnalysis(ctx, analysis)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// GenerateFromAnalysis generates the background, the thumbnail and one portrait
// per segment. Portraits are generated strictly in order through a Pacer. The
// returned errors are the GenerationErrors of the images that were skipped.
func (g *ImageSetGenerator) GenerateFromAnalysis(ctx context.Context, analysis *model.ScriptAnalysis) (*model.ImageSet, []error) {
	start := time.Now()
	set := &model.ImageSet{Analysis: analysis, Portraits: make([]model.GeneratedImage, 0, len(analysis.Segments))}
	var failures []error

	record := func(err error) {
		slog.WarnContext(ctx, "image generation skipped", "error", err)
		failures = append(failures, err)
	}

	background, err := g.generate(ctx, model.ImageTypeMasterBackground, "", g.BackgroundTemplate,
		BackgroundPrompt{Location: analysis.MasterLocation, Timeframe: analysis.Timeframe},
		LandscapeWidth, LandscapeHeight, 0)
	if err != nil {
		record(err)
	} else {
		background.Location = analysis.MasterLocation
		set.MasterBackground = background
	}

	thumbnail, err := g.generate(ctx, model.ImageTypeThumbnail, "", g.ThumbnailTemplate,
		ThumbnailPrompt{Title: analysis.EpisodeTitle, Location: analysis.MasterLocation, Timeframe: analysis.Timeframe},
		LandscapeWidth, LandscapeHeight, 1)
	if err != nil {
		record(err)
	} else {
		thumbnail.Subject = analysis.EpisodeTitle
		set.Thumbnail = thumbnail
	}

	pacer := NewPacer(g.PortraitInterval)
	errs := pacer.Each(ctx, len(analysis.Segments), func(ctx context.Context, i int) error {
		segment := analysis.Segments[i]
		portrait, err := g.generate(ctx, model.ImageTypePortrait, segment.Name, g.PortraitTemplate,
			PortraitPrompt{CharacterProfile: segment, Timeframe: analysis.Timeframe},
			PortraitWidth, PortraitHeight, i+2)
		if err != nil {
			return err
		}
		portrait.Subject = segment.Name
		portrait.Role = segment.Role
		set.Portraits = append(set.Portraits, *portrait)
		return nil
	})
	for i, err := range errs {
		if err == nil {
			continue
		}
		var genErr *model.GenerationError
		if !errors.As(err, &genErr) {
			err = &model.GenerationError{Kind: model.ImageTypePortrait, Subject: analysis.Segments[i].Name, Err: err}
		}
		record(err)
	}

	set.Metadata = model.ImageSetMetadata{
		TotalImages:    set.CountImages(),
		GenerationTime: time.Since(start).Milliseconds(),
	}
	return set, failures
}

func (g *ImageSetGenerator) generate(ctx context.Context, kind model.ImageType, subject string, t *template.Template, data any, width, height, seed int) (*model.GeneratedImage, error) {
	prompt, err := Render(t, data)
	if err != nil {
		return nil, &model.GenerationError{Kind: kind, Subject: subject, Err: err}
	}
	callCtx, cancel := withTimeout(ctx, g.Timeout)
	defer cancel()

	url, err := g.Images.GenerateImage(callCtx, providers.ImageRequest{Prompt: prompt, Width: width, Height: height, Seed: seed*42 + 7})
	if err != nil {
		return nil, &model.GenerationError{Kind: kind, Subject: subject, Err: err}
	}
	return &model.GeneratedImage{URL: url, Type: kind, Prompt: prompt}, nil
}
