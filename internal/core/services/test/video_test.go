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
	"net/http"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
	test "github.com/jaycherian/gcp-go-true-crime/internal/testutil"
	"github.com/zeebo/assert"
)

func newPoller(video *test.StubVideo) *services.VideoJobPoller {
	return &services.VideoJobPoller{Model: video, MaxAttempts: 4, Sleep: test.NoSleep}
}

func TestGenerateVideo(t *testing.T) {
	video := test.Succeeding(2, "https://cdn.example.com/v.mp4")

	job, err := newPoller(video).Generate(context.Background(), "prompt", "https://images.example.com/1.png", model.PlatformTikTok)
	assert.NoError(t, err)
	assert.Equal(t, model.VideoSucceeded, job.Status)
	assert.Equal(t, "https://cdn.example.com/v.mp4", job.OutputURL)
	assert.Equal(t, 3, job.Attempts)
	assert.Equal(t, model.PlatformTikTok, job.Platform)

	sub := video.Submissions()[0]
	assert.Equal(t, "720:1280", sub.Ratio)
	assert.Equal(t, 10, sub.Duration)
	assert.Equal(t, "prompt", sub.PromptText)
}

func TestGenerateVideo_UnknownPlatform(t *testing.T) {
	video := test.Succeeding(0, "x")
	_, err := newPoller(video).Generate(context.Background(), "prompt", "https://images.example.com/1.png", "vine")
	assert.That(t, errors.Is(err, model.ErrUnknownPlatform))
	assert.Equal(t, 0, len(video.Submissions()))
}

func TestSubmit_Rejected(t *testing.T) {
	spec, _ := model.LookupPlatform(model.PlatformYouTube)

	video := test.Succeeding(0, "x")
	_, err := newPoller(video).Submit(context.Background(), "prompt", "", spec)
	var submissionErr *model.SubmissionError
	assert.That(t, errors.As(err, &submissionErr))
	assert.Equal(t, 0, len(video.Submissions()))

	video.SubmitErr = &providers.StatusError{StatusCode: http.StatusBadRequest, Body: "promptImage is not reachable"}
	_, err = newPoller(video).Submit(context.Background(), "prompt", "https://images.example.com/1.png", spec)
	assert.That(t, errors.As(err, &submissionErr))
	assert.Equal(t, model.PlatformYouTube, submissionErr.Platform)
	assert.Equal(t, "video_submission_failed", model.ReasonOf(err))
}

func TestPoll_Failed(t *testing.T) {
	video := &test.StubVideo{Tasks: []providers.VideoTask{
		{ID: "j", Status: model.VideoRunning},
		{ID: "j", Status: model.VideoFailed, FailureReason: "Content moderation: graphic violence"},
	}}

	job, err := newPoller(video).Poll(context.Background(), "j", model.PlatformYouTube)
	var failure *model.RenderFailure
	assert.That(t, errors.As(err, &failure))
	assert.Equal(t, "Content moderation: graphic violence", failure.FailureReason)
	assert.Equal(t, model.VideoFailed, job.Status)
	assert.Equal(t, "Content moderation: graphic violence", job.FailureReason)
	assert.Equal(t, 2, job.Attempts)
}

func TestPoll_SucceededWithoutOutput(t *testing.T) {
	video := &test.StubVideo{Tasks: []providers.VideoTask{{ID: "j", Status: model.VideoSucceeded}}}

	job, err := newPoller(video).Poll(context.Background(), "j", model.PlatformYouTube)
	var failure *model.RenderFailure
	assert.That(t, errors.As(err, &failure))
	assert.Equal(t, model.VideoFailed, job.Status)
}

func TestPoll_Timeout(t *testing.T) {
	video := &test.StubVideo{Tasks: []providers.VideoTask{{ID: "j", Status: model.VideoRunning}}}

	job, err := newPoller(video).Poll(context.Background(), "j", model.PlatformYouTube)
	var timeout *model.PollingTimeoutError
	assert.That(t, errors.As(err, &timeout))
	assert.Equal(t, 4, timeout.Attempts)
	assert.Equal(t, 4, video.Polls())
	assert.Equal(t, model.VideoRunning, job.Status)
}

func TestPoll_TransientErrorsAreRetried(t *testing.T) {
	video := test.Succeeding(0, "https://cdn.example.com/v.mp4")
	video.TaskErrs = []error{
		&providers.StatusError{StatusCode: http.StatusServiceUnavailable},
		&providers.StatusError{StatusCode: http.StatusTooManyRequests},
	}
	poller := newPoller(video)
	poller.PollRetries = 2

	job, err := poller.Poll(context.Background(), "job-1", model.PlatformYouTube)
	assert.NoError(t, err)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, 3, video.Polls())
}

func TestPoll_ExhaustedRetriesCountAsAttempt(t *testing.T) {
	video := test.Succeeding(0, "https://cdn.example.com/v.mp4")
	video.TaskErrs = []error{errors.New("malformed status body")}

	job, err := newPoller(video).Poll(context.Background(), "job-1", model.PlatformYouTube)
	assert.NoError(t, err)
	assert.Equal(t, 2, job.Attempts)
	assert.Equal(t, model.VideoSucceeded, job.Status)
}

func TestPoll_Cancelled(t *testing.T) {
	video := &test.StubVideo{Tasks: []providers.VideoTask{{ID: "j", Status: model.VideoRunning}}}
	poller := &services.VideoJobPoller{Model: video, Interval: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	job, err := poller.Poll(ctx, "j", model.PlatformYouTube)
	assert.That(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, job.Attempts)
	assert.Equal(t, 0, video.Polls())
}
