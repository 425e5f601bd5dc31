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
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
)

// Poller defaults.
const (
	DefaultPollInterval     = 10 * time.Second
	DefaultMaxPollAttempts  = 60
	DefaultPollRetries      = 3
	DefaultPollRetryBackoff = 5 * time.Second
)

// VideoJobPoller drives a render job through its lifecycle:
//
//	SUBMITTED -> RUNNING -> SUCCEEDED | FAILED
//	                     -> TIMED_OUT (poll ceiling reached)
//
// A transient poll error is retried a few times with a short backoff; when the
// retries run out the attempt counts as failed but the job is never failed by
// polling errors alone.
type VideoJobPoller struct {
	Model        providers.VideoModel
	Interval     time.Duration
	MaxAttempts  int
	PollRetries  int
	RetryBackoff time.Duration
	Timeout      time.Duration // Per provider call.

	// Sleep waits for d or until ctx ends. Tests replace it to run instantly.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Generate looks up the platform spec, submits the job and polls it.
func (p *VideoJobPoller) Generate(ctx context.Context, prompt, imageURL string, platform model.Platform) (*model.VideoJob, error) {
	spec, err := model.LookupPlatform(platform)
	if err != nil {
		return nil, err
	}
	id, err := p.Submit(ctx, prompt, imageURL, spec)
	if err != nil {
		return nil, err
	}
	return p.Poll(ctx, id, spec.Platform)
}

// Submit creates the render job. A synchronous rejection is a SubmissionError.
func (p *VideoJobPoller) Submit(ctx context.Context, prompt, imageURL string, spec model.PlatformSpec) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", &model.SubmissionError{Platform: spec.Platform, Err: errors.New("a key image is required")}
	}
	callCtx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	id, err := p.Model.Submit(callCtx, providers.VideoSubmission{
		PromptText:  prompt,
		PromptImage: imageURL,
		Ratio:       spec.Ratio(),
		Duration:    spec.MaxDuration,
	})
	if err != nil {
		return "", &model.SubmissionError{Platform: spec.Platform, Err: err}
	}
	slog.InfoContext(ctx, "video job submitted", "job_id", id, "platform", spec.Platform)
	return id, nil
}

// Poll waits for the job to reach a terminal state. On FAILED the job is
// returned together with a RenderFailure; when the attempts run out a
// PollingTimeoutError is returned.
func (p *VideoJobPoller) Poll(ctx context.Context, jobID string, platform model.Platform) (*model.VideoJob, error) {
	start := time.Now()
	job := &model.VideoJob{ID: jobID, Status: model.VideoPending, Platform: platform}

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPollAttempts
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for job.Attempts < maxAttempts {
		if err := p.sleep(ctx, interval); err != nil {
			return job, err
		}
		job.Attempts++

		task, err := p.pollWithRetries(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return job, ctx.Err()
			}
			slog.WarnContext(ctx, "video poll attempt failed", "job_id", jobID, "attempt", job.Attempts, "error", err)
			continue
		}

		job.Status = task.Status
		switch task.Status {
		case model.VideoSucceeded:
			if len(task.Output) == 0 || task.Output[0] == "" {
				job.Status = model.VideoFailed
				job.FailureReason = "job succeeded without output"
				return job, &model.RenderFailure{JobID: jobID, FailureReason: job.FailureReason}
			}
			job.OutputURL = task.Output[0]
			slog.InfoContext(ctx, "video job succeeded", "job_id", jobID, "attempts", job.Attempts)
			return job, nil
		case model.VideoFailed:
			job.FailureReason = task.FailureReason
			return job, &model.RenderFailure{JobID: jobID, FailureReason: task.FailureReason}
		}
	}

	return job, &model.PollingTimeoutError{JobID: jobID, Attempts: job.Attempts, Elapsed: time.Since(start)}
}

func (p *VideoJobPoller) pollWithRetries(ctx context.Context, jobID string) (*providers.VideoTask, error) {
	retries := p.PollRetries
	if retries < 0 {
		retries = 0
	}
	backoff := p.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultPollRetryBackoff
	}

	var lastErr error
	for try := 0; try <= retries; try++ {
		if try > 0 {
			if err := p.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}
		callCtx, cancel := withTimeout(ctx, p.Timeout)
		task, err := p.Model.Task(callCtx, jobID)
		cancel()
		if err == nil {
			return task, nil
		}
		lastErr = err
		if !providers.IsTransient(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (p *VideoJobPoller) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
