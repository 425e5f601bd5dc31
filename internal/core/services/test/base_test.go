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

// Package services_test contains the test suite for the services package. The
// services run against the in-memory providers of the testutil package.
package services_test

import (
	"strings"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	test "github.com/jaycherian/gcp-go-true-crime/internal/testutil"
)

func newAnalyzer(responses ...string) (*services.ScriptAnalyzer, *test.StubText) {
	stub := test.NewStubText("analysis", responses...)
	return &services.ScriptAnalyzer{
		Model:    stub,
		Template: services.ParseTemplate("analysis", "Analyze (max {{.MaxSegments}}): {{.Script}}"),
	}, stub
}

func newImageGenerator(analyzer services.Analyzer, images *test.StubImages) *services.ImageSetGenerator {
	return &services.ImageSetGenerator{
		Analyzer:           analyzer,
		Images:             images,
		BackgroundTemplate: services.ParseTemplate("background", "{{.Location}}, {{.Timeframe}}"),
		ThumbnailTemplate:  services.ParseTemplate("thumbnail", "{{.Title}}"),
		PortraitTemplate:   services.ParseTemplate("portrait", "{{.Name}} ({{.Role}}), {{.Timeframe}}"),
	}
}

// segmentsJSON builds an analysis response with n witnesses.
func segmentsJSON(title string, n int) string {
	segments := make([]string, n)
	for i := range segments {
		segments[i] = `{"name": "Person ` + string(rune('A'+i)) + `", "role": "witness", "description": "d", "ageRange": "30-40", "gender": "female"}`
	}
	return `{"episodeTitle": "` + title + `", "masterLocation": "A farmhouse", "timeframe": "1970s", "segments": [` +
		strings.Join(segments, ",") + `]}`
}
