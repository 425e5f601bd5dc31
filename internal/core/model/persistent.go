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

// Package model defines the data structures for the application. This file
// holds the records that outlive a pipeline run: the analytics event emitted
// once per episode, which is written to BigQuery and read back by the episode
// history endpoint.
package model

import (
	"errors"
	"time"
)

// Outcome is the terminal result of a pipeline run, as recorded in analytics.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// EpisodeEvent is the analytics record of one pipeline run. The bigquery tags
// map the struct onto the events table schema.
type EpisodeEvent struct {
	EpisodeID      string    `json:"episodeId" bigquery:"episode_id"`
	UserID         string    `json:"userId" bigquery:"user_id"`
	Platform       string    `json:"platform" bigquery:"platform"`
	Outcome        string    `json:"outcome" bigquery:"outcome"`
	Stage          string    `json:"stage,omitempty" bigquery:"stage"`
	Reason         string    `json:"reason,omitempty" bigquery:"reason"`
	EpisodeTitle   string    `json:"episodeTitle,omitempty" bigquery:"episode_title"`
	TotalImages    int       `json:"totalImages" bigquery:"total_images"`
	QualityScore   int       `json:"qualityScore" bigquery:"quality_score"`
	Compliance     string    `json:"compliance,omitempty" bigquery:"compliance"`
	VideoURL       string    `json:"videoUrl,omitempty" bigquery:"video_url"`
	DurationMillis int64     `json:"durationMillis" bigquery:"duration_millis"`
	CreatedAt      time.Time `json:"createdAt" bigquery:"created_at"`
}

// NewSuccessEvent builds the analytics event for a completed episode.
func NewSuccessEvent(result *EpisodeResult, elapsed time.Duration) *EpisodeEvent {
	event := &EpisodeEvent{
		EpisodeID:      result.EpisodeID,
		UserID:         result.UserID,
		Platform:       string(result.Platform),
		Outcome:        string(OutcomeSucceeded),
		TotalImages:    result.Assets.Images.CountImages(),
		DurationMillis: elapsed.Milliseconds(),
		CreatedAt:      result.CreatedAt,
	}
	if result.Assets.Images != nil && result.Assets.Images.Analysis != nil {
		event.EpisodeTitle = result.Assets.Images.Analysis.EpisodeTitle
	}
	if result.Analysis.Synthesis != nil {
		event.QualityScore = result.Analysis.Synthesis.SynthesizedRecommendation.QualityScore
	}
	if result.Analysis.Compliance != nil {
		event.Compliance = string(result.Analysis.Compliance.OverallCompliance)
	}
	if result.Assets.Video != nil {
		event.VideoURL = result.Assets.Video.OutputURL
	}
	return event
}

// NewFailureEvent builds the analytics event for a rejected or failed episode.
func NewFailureEvent(episodeID string, req EpisodeRequest, stage Stage, err error, elapsed time.Duration) *EpisodeEvent {
	outcome := OutcomeFailed
	var rejection *ComplianceRejection
	if errors.As(err, &rejection) {
		outcome = OutcomeRejected
	}
	return &EpisodeEvent{
		EpisodeID:      episodeID,
		UserID:         req.UserID,
		Platform:       string(req.Platform),
		Outcome:        string(outcome),
		Stage:          string(stage),
		Reason:         ReasonOf(err),
		DurationMillis: elapsed.Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	}
}
