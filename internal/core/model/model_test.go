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

package model_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/extract"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

func TestLookupPlatform(t *testing.T) {
	spec, err := model.LookupPlatform("TikTok")
	assert.NoError(t, err)
	assert.Equal(t, spec.Ratio(), "720:1280")
	assert.Equal(t, spec.Resolution(), "720x1280")
	assert.Equal(t, spec.AspectRatio, "9:16")

	_, err = model.LookupPlatform("myspace")
	assert.That(t, errors.Is(err, model.ErrUnknownPlatform))
}

func TestPlatforms(t *testing.T) {
	var names []string
	for _, p := range model.Platforms() {
		names = append(names, string(p.Platform))
	}
	assert.DeepEqual(t, names, []string{"instagram", "shorts", "tiktok", "youtube"})
}

func TestEpisodeRequest_WithDefaults(t *testing.T) {
	req := model.EpisodeRequest{Script: "s"}
	assert.Equal(t, req.WithDefaults(model.PlatformShorts).Platform, model.PlatformShorts)
	assert.Equal(t, req.Platform, model.Platform(""))

	req.Platform = model.PlatformTikTok
	assert.Equal(t, req.WithDefaults(model.PlatformShorts).Platform, model.PlatformTikTok)
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, model.TruncateTitle("  The Case  "), "The Case")

	long := strings.Repeat("ü", model.MaxTitleLength+10)
	got := model.TruncateTitle(long)
	assert.Equal(t, len([]rune(got)), model.MaxTitleLength)
}

func TestScriptAnalysis_Normalize(t *testing.T) {
	analysis := &model.ScriptAnalysis{EpisodeTitle: "t"}
	for i := 0; i < 7; i++ {
		analysis.Segments = append(analysis.Segments, model.CharacterProfile{Name: fmt.Sprint(i), Role: model.RoleWitness})
	}
	assert.Equal(t, analysis.Normalize(0), 3)
	assert.Equal(t, len(analysis.Segments), model.DefaultMaxSegments)
	assert.Equal(t, analysis.Normalize(10), 0)
}

func TestScriptAnalysis_Validate(t *testing.T) {
	var analysis model.ScriptAnalysis
	err := extract.Decode(`{"episodeTitle":"T","masterLocation":"L","timeframe":"1990","segments":[{"name":"A","role":"bystander"}]}`, &analysis)

	var validationErr *extract.ValidationError
	assert.That(t, errors.As(err, &validationErr))
	assert.Equal(t, len(validationErr.Fields), 1)
	assert.Equal(t, validationErr.Fields[0].Field, "segments[0].role")
}

func TestImageSet(t *testing.T) {
	var empty *model.ImageSet
	assert.Equal(t, empty.CountImages(), 0)
	assert.Nil(t, empty.KeyImage())

	set := &model.ImageSet{
		Portraits: []model.GeneratedImage{{URL: "p1", Prompt: "portrait one"}, {URL: "p2", Prompt: "portrait two"}},
	}
	assert.Equal(t, set.CountImages(), 2)
	assert.Equal(t, set.KeyImage().URL, "p1")
	assert.DeepEqual(t, set.PortraitDescriptions(), []string{"portrait one", "portrait two"})

	set.MasterBackground = &model.GeneratedImage{URL: "bg"}
	assert.Equal(t, set.KeyImage().URL, "bg")
	set.Thumbnail = &model.GeneratedImage{URL: "thumb"}
	assert.Equal(t, set.KeyImage().URL, "thumb")
	assert.Equal(t, set.CountImages(), 4)
}

func TestComplianceVerdict_Validate(t *testing.T) {
	var verdict model.ComplianceVerdict
	err := extract.Decode(`{"overallCompliance":"fail","requiredChanges":[],"alternativeApproaches":[]}`, &verdict)

	var validationErr *extract.ValidationError
	assert.That(t, errors.As(err, &validationErr))
	assert.Equal(t, validationErr.Fields[0].Field, "alternativeApproaches")

	verdict = model.ComplianceVerdict{}
	err = extract.Decode(`{"overallCompliance":"warning","platformCompliance":{"tiktok":"maybe"},"requiredChanges":[],"alternativeApproaches":[]}`, &verdict)
	assert.That(t, errors.As(err, &validationErr))
	assert.Equal(t, validationErr.Fields[0].Field, "platformCompliance.tiktok")
	assert.False(t, verdict.Failed())
}

func TestVideoStatus_Terminal(t *testing.T) {
	assert.False(t, model.VideoPending.Terminal())
	assert.False(t, model.VideoRunning.Terminal())
	assert.True(t, model.VideoSucceeded.Terminal())
	assert.True(t, model.VideoFailed.Terminal())
}

func TestExamplesValidate(t *testing.T) {
	for _, example := range []extract.Validatable{
		model.GetExampleAnalysis(),
		model.GetExampleReview(),
		model.GetExampleSynthesis(),
		model.GetExampleVerdict(),
	} {
		assert.Equal(t, len(example.Validate()), 0)
		assert.That(t, strings.HasPrefix(model.ExampleJSON(example), "{"))
	}
}

func TestReasonOf(t *testing.T) {
	assert.Equal(t, model.ReasonOf(errors.New("x")), "internal")
	assert.Equal(t, model.ReasonOf(&model.RequestError{Err: errors.New("x")}), "invalid_request")

	failure := &model.EpisodeFailure{
		EpisodeID: "ep-1",
		Stage:     model.StageVideo,
		Err:       &model.RenderFailure{JobID: "job-1", FailureReason: "Content moderation"},
	}
	wrapped := fmt.Errorf("run: %w", failure)
	assert.Equal(t, model.ReasonOf(wrapped), "video_render_failed")
	assert.Equal(t, failure.Error(), "episode ep-1 failed at video: video job job-1 failed: Content moderation")

	var render *model.RenderFailure
	assert.That(t, errors.As(wrapped, &render))
	assert.Equal(t, render.FailureReason, "Content moderation")
}

func TestComplianceRejection(t *testing.T) {
	rejection := &model.ComplianceRejection{Verdict: &model.ComplianceVerdict{
		OverallCompliance:     model.ComplianceFail,
		AlternativeApproaches: []string{"Use silhouettes"},
	}}
	assert.DeepEqual(t, rejection.Suggestions(), []string{"Use silhouettes"})
	assert.Nil(t, (&model.ComplianceRejection{}).Suggestions())
}

func TestPollingTimeoutError(t *testing.T) {
	err := &model.PollingTimeoutError{JobID: "job-1", Attempts: 60, Elapsed: 301 * time.Second}
	assert.That(t, strings.Contains(err.Error(), "did not finish after 60 polls (5m1s)"))
	assert.Equal(t, err.Reason(), "video_polling_timeout")
}

func TestEpisodeEvents(t *testing.T) {
	result := &model.EpisodeResult{
		EpisodeID: "ep-1",
		Platform:  model.PlatformYouTube,
		UserID:    "u-1",
		Analysis: model.EpisodeAnalysis{
			Synthesis:  &model.SynthesisResult{SynthesizedRecommendation: model.Recommendation{QualityScore: 81}},
			Compliance: &model.ComplianceVerdict{OverallCompliance: model.CompliancePass},
		},
		Assets: model.EpisodeAssets{
			Images: &model.ImageSet{Analysis: &model.ScriptAnalysis{EpisodeTitle: "The Case"}, Thumbnail: &model.GeneratedImage{}},
			Video:  &model.VideoJob{OutputURL: "https://v/1.mp4"},
		},
	}
	event := model.NewSuccessEvent(result, 1500*time.Millisecond)
	assert.Equal(t, event.Outcome, string(model.OutcomeSucceeded))
	assert.Equal(t, event.EpisodeTitle, "The Case")
	assert.Equal(t, event.TotalImages, 1)
	assert.Equal(t, event.QualityScore, 81)
	assert.Equal(t, event.Compliance, "pass")
	assert.Equal(t, event.VideoURL, "https://v/1.mp4")
	assert.Equal(t, event.DurationMillis, int64(1500))

	req := model.EpisodeRequest{Platform: model.PlatformTikTok, UserID: "u-2"}
	rejected := model.NewFailureEvent("ep-2", req, model.StageCompliance, &model.ComplianceRejection{}, time.Second)
	assert.Equal(t, rejected.Outcome, string(model.OutcomeRejected))
	assert.Equal(t, rejected.Reason, "compliance_rejected")

	failed := model.NewFailureEvent("ep-3", req, model.StageVideo, &model.SubmissionError{Platform: model.PlatformTikTok, Err: errors.New("402")}, time.Second)
	assert.Equal(t, failed.Outcome, string(model.OutcomeFailed))
	assert.Equal(t, failed.Stage, "video")
	assert.Equal(t, failed.Reason, "video_submission_failed")
}
