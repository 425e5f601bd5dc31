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

// Package model also defines the error taxonomy of the pipeline. Every error
// type carries a stable, machine-checkable reason code through Reason() so
// callers (and HTTP clients) can branch without parsing messages. Callers
// should match these with errors.As.
package model

import (
	"errors"
	"fmt"
	"time"
)

// Stage names a step of the episode pipeline.
type Stage string

const (
	StageRequest    Stage = "request"
	StageAnalysis   Stage = "analysis"
	StageImages     Stage = "images"
	StageSynthesis  Stage = "synthesis"
	StageCompliance Stage = "compliance"
	StageVideo      Stage = "video"
	StageAssembly   Stage = "assembly"
)

// Reasoned is implemented by every pipeline error.
type Reasoned interface {
	error
	Reason() string
}

// ReasonOf returns the reason code of the first Reasoned error in err's chain,
// or "internal" if there is none.
func ReasonOf(err error) string {
	var r Reasoned
	if errors.As(err, &r) {
		return r.Reason()
	}
	return "internal"
}

// RequestError is returned for a request that cannot enter the pipeline: an
// empty script, an unknown platform or an undecodable body.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string  { return fmt.Sprintf("invalid request: %v", e.Err) }
func (e *RequestError) Unwrap() error  { return e.Err }
func (e *RequestError) Reason() string { return "invalid_request" }

// AnalysisError is returned when the analyzer cannot produce a valid analysis,
// either because the provider call failed or because the response did not
// match the expected schema.
type AnalysisError struct {
	Op  string
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *AnalysisError) Unwrap() error  { return e.Err }
func (e *AnalysisError) Reason() string { return "analysis_failed" }

// GenerationError is returned when a single image generation call fails. It is
// recoverable at the image set level.
type GenerationError struct {
	Kind    ImageType
	Subject string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s generation for %q failed: %v", e.Kind, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error  { return e.Err }
func (e *GenerationError) Reason() string { return "generation_failed" }

// SynthesisError is returned when the reconciliation call fails or returns a
// malformed response. It is never retried.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string  { return fmt.Sprintf("synthesis failed: %v", e.Err) }
func (e *SynthesisError) Unwrap() error  { return e.Err }
func (e *SynthesisError) Reason() string { return "synthesis_failed" }

// ComplianceRejection is the terminal business outcome of a failed compliance
// gate. It is not a system error.
type ComplianceRejection struct {
	Verdict *ComplianceVerdict
}

func (e *ComplianceRejection) Error() string {
	return "episode rejected by compliance review"
}

func (e *ComplianceRejection) Reason() string { return "compliance_rejected" }

// Suggestions returns the alternative approaches offered by the verdict.
func (e *ComplianceRejection) Suggestions() []string {
	if e.Verdict == nil {
		return nil
	}
	return e.Verdict.AlternativeApproaches
}

// SubmissionError is returned when the video provider rejects a job synchronously.
type SubmissionError struct {
	Platform Platform
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("video submission for %s rejected: %v", e.Platform, e.Err)
}

func (e *SubmissionError) Unwrap() error  { return e.Err }
func (e *SubmissionError) Reason() string { return "video_submission_failed" }

// PollingTimeoutError is returned when a video job does not reach a terminal
// state within the poll ceiling. The job may still complete on the provider side.
type PollingTimeoutError struct {
	JobID    string
	Attempts int
	Elapsed  time.Duration
}

func (e *PollingTimeoutError) Error() string {
	return fmt.Sprintf("video job %s did not finish after %d polls (%s); check the video provider dashboard for its final state",
		e.JobID, e.Attempts, e.Elapsed.Round(time.Second))
}

func (e *PollingTimeoutError) Reason() string { return "video_polling_timeout" }

// RenderFailure is returned when the video provider reports the job as failed.
// FailureReason is the provider's message, verbatim.
type RenderFailure struct {
	JobID         string
	FailureReason string
}

func (e *RenderFailure) Error() string {
	return fmt.Sprintf("video job %s failed: %s", e.JobID, e.FailureReason)
}

func (e *RenderFailure) Reason() string { return "video_render_failed" }

// PartialEpisode carries whatever artifacts were produced before a failure.
type PartialEpisode struct {
	Review     *ScriptReview      `json:"review,omitempty"`
	Images     *ImageSet          `json:"images,omitempty"`
	Synthesis  *SynthesisResult   `json:"synthesis,omitempty"`
	Compliance *ComplianceVerdict `json:"compliance,omitempty"`
	Video      *VideoJob          `json:"video,omitempty"`
}

// EpisodeFailure is the structured failure of a pipeline run. It names the
// stage that failed and keeps the partial artifacts.
type EpisodeFailure struct {
	EpisodeID string
	Stage     Stage
	Err       error
	Partial   *PartialEpisode
}

func (e *EpisodeFailure) Error() string {
	return fmt.Sprintf("episode %s failed at %s: %v", e.EpisodeID, e.Stage, e.Err)
}

func (e *EpisodeFailure) Unwrap() error { return e.Err }

// Reason reports the reason code of the underlying stage error.
func (e *EpisodeFailure) Reason() string { return ReasonOf(e.Err) }
