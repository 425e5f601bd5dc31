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

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

const (
	defaultRunwayVersion = "2024-11-06"
	defaultRunwayModel   = "gen4_turbo"
)

// VideoConfig configures a video model.
type VideoConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Version string
	Timeout time.Duration
}

// Runway submits image-to-video jobs to the Runway API and reads their tasks.
type Runway struct {
	cfg    VideoConfig
	client *client
}

// NewRunway creates a Runway video model.
func NewRunway(cfg VideoConfig, opts ...Option) *Runway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.dev.runwayml.com/v1"
	}
	if cfg.Version == "" {
		cfg.Version = defaultRunwayVersion
	}
	if cfg.Model == "" {
		cfg.Model = defaultRunwayModel
	}
	headers := map[string]string{
		"Authorization":    "Bearer " + strings.TrimSpace(cfg.APIKey),
		"X-Runway-Version": cfg.Version,
	}
	return &Runway{cfg: cfg, client: newClient(cfg.BaseURL, cfg.Timeout, headers, opts...)}
}

type runwaySubmitRequest struct {
	Model       string `json:"model"`
	PromptImage string `json:"promptImage"`
	PromptText  string `json:"promptText,omitempty"`
	Ratio       string `json:"ratio"`
	Duration    int    `json:"duration,omitempty"`
}

type runwaySubmitResponse struct {
	ID string `json:"id"`
}

type runwayTaskResponse struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	Output        []string `json:"output"`
	Failure       string   `json:"failure"`
	FailureReason string   `json:"failure_reason"`
	FailureCode   string   `json:"failureCode"`
}

func (m *Runway) Name() string {
	return m.cfg.Name
}

// Submit creates an image-to-video task. Any error here is a synchronous
// rejection; the caller never polls a job that was not accepted.
func (m *Runway) Submit(ctx context.Context, sub VideoSubmission) (string, error) {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return "", ErrMissingAPIKey
	}
	payload := runwaySubmitRequest{
		Model:       m.cfg.Model,
		PromptImage: sub.PromptImage,
		PromptText:  sub.PromptText,
		Ratio:       sub.Ratio,
		Duration:    sub.Duration,
	}
	var resp runwaySubmitResponse
	if err := m.client.do(ctx, http.MethodPost, "/image_to_video", payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New("runway accepted the job without returning an id")
	}
	return resp.ID, nil
}

// Task reads the current state of a task.
func (m *Runway) Task(ctx context.Context, id string) (*VideoTask, error) {
	var resp runwayTaskResponse
	if err := m.client.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	task := &VideoTask{
		ID:            resp.ID,
		Status:        runwayStatus(resp.Status),
		Output:        resp.Output,
		FailureReason: resp.FailureReason,
	}
	if task.ID == "" {
		task.ID = id
	}
	if task.FailureReason == "" {
		task.FailureReason = resp.Failure
	}
	if task.Status == model.VideoFailed && task.FailureReason == "" {
		task.FailureReason = fmt.Sprintf("task ended with status %s", resp.Status)
	}
	return task, nil
}

func (m *Runway) Ping(ctx context.Context) error {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return m.client.do(ctx, http.MethodGet, "/organization", nil, nil)
}

// runwayStatus maps Runway task states onto the pipeline's four states.
func runwayStatus(status string) model.VideoStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCEEDED":
		return model.VideoSucceeded
	case "FAILED", "CANCELLED":
		return model.VideoFailed
	case "RUNNING":
		return model.VideoRunning
	default:
		return model.VideoPending
	}
}
