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

package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/extract"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	test "github.com/jaycherian/gcp-go-true-crime/internal/testutil"
	"github.com/zeebo/assert"
)

func TestAnalyze(t *testing.T) {
	analyzer, stub := newAnalyzer(test.SampleAnalysisJSON)

	analysis, err := analyzer.Analyze(context.Background(), test.SampleScript)
	assert.NoError(t, err)
	assert.Equal(t, "The Marrow Creek Diner", analysis.EpisodeTitle)
	assert.Equal(t, "Winter 1994", analysis.Timeframe)
	assert.Equal(t, 3, len(analysis.Segments))
	assert.Equal(t, model.RoleDetective, analysis.Segments[2].Role)
	assert.That(t, strings.Contains(stub.Prompts()[0], "max 4"))
}

func TestAnalyze_SameResponseSameAnalysis(t *testing.T) {
	analyzer, _ := newAnalyzer(test.SampleAnalysisJSON)

	first, err := analyzer.Analyze(context.Background(), test.SampleScript)
	assert.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), test.SampleScript)
	assert.NoError(t, err)
	assert.DeepEqual(t, first, second)
}

func TestAnalyze_CapsSegmentsAndTitle(t *testing.T) {
	title := strings.Repeat("The Long Night ", 6)
	analyzer, _ := newAnalyzer(segmentsJSON(title, 6))

	analysis, err := analyzer.Analyze(context.Background(), test.SampleScript)
	assert.NoError(t, err)
	assert.Equal(t, model.DefaultMaxSegments, len(analysis.Segments))
	assert.Equal(t, "Person A", analysis.Segments[0].Name)
	assert.That(t, utf8.RuneCountInString(analysis.EpisodeTitle) <= model.MaxTitleLength)

	analyzer.MaxSegments = 2
	analysis, err = analyzer.Analyze(context.Background(), test.SampleScript)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(analysis.Segments))
}

func TestAnalyze_EmptyScript(t *testing.T) {
	analyzer, stub := newAnalyzer(test.SampleAnalysisJSON)

	_, err := analyzer.Analyze(context.Background(), "  \n ")
	var analysisErr *model.AnalysisError
	assert.That(t, errors.As(err, &analysisErr))
	assert.Equal(t, 0, stub.Calls())
}

func TestAnalyze_InvalidResponse(t *testing.T) {
	for name, response := range map[string]string{
		"not json":      "I could not find any people in this script.",
		"missing title": `{"masterLocation": "x", "timeframe": "y", "segments": []}`,
		"unknown role":  `{"episodeTitle": "t", "masterLocation": "x", "timeframe": "y", "segments": [{"name": "n", "role": "narrator"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			analyzer, stub := newAnalyzer(response)

			_, err := analyzer.Analyze(context.Background(), test.SampleScript)
			var analysisErr *model.AnalysisError
			assert.That(t, errors.As(err, &analysisErr))
			assert.Equal(t, "analysis_failed", model.ReasonOf(err))
			assert.Equal(t, 1, stub.Calls())
		})
	}
}

func TestAnalyze_FieldErrors(t *testing.T) {
	analyzer, _ := newAnalyzer(`{"episodeTitle": "", "masterLocation": "x", "segments": [{"name": "", "role": "victim"}]}`)

	_, err := analyzer.Analyze(context.Background(), test.SampleScript)
	var validation *extract.ValidationError
	assert.That(t, errors.As(err, &validation))
	fields := make([]string, 0, len(validation.Fields))
	for _, f := range validation.Fields {
		fields = append(fields, f.Field)
	}
	assert.DeepEqual(t, []string{"episodeTitle", "segments[0].name", "timeframe"}, fields)
}

func TestReview(t *testing.T) {
	stub := test.NewStubText("review", test.SampleReviewJSON)
	reviewer := &services.ScriptReviewer{Model: stub, Template: services.ParseTemplate("review", "{{.Script}}")}

	review, err := reviewer.Review(context.Background(), test.SampleScript)
	assert.NoError(t, err)
	assert.Equal(t, 74, review.Score)
	assert.Equal(t, 2, len(review.Strengths))
	assert.Equal(t, test.SampleScript, stub.Prompts()[0])
}
