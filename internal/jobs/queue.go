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

// Package jobs runs episode generation in the background on an asynq (Redis)
// queue. A job is one full pipeline run; its outcome is stored as the asynq
// task result and read back through Queue.Status.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

// TypeGenerateEpisode is the asynq task type of an episode job.
const TypeGenerateEpisode = "episode:generate"

// DefaultQueue is the asynq queue episode jobs are placed on.
const DefaultQueue = "episodes"

// ErrJobNotFound is returned by Status for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// EpisodePayload is the payload of an episode job.
type EpisodePayload struct {
	Request model.EpisodeRequest `json:"request"`
}

// JobStatus is the externally visible state of a job.
type JobStatus struct {
	ID          string          `json:"id"`
	State       string          `json:"state"`
	Retried     int             `json:"retried"`
	MaxRetry    int             `json:"maxRetry"`
	LastError   string          `json:"lastError,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Terminal reports whether the job will not change state again.
func (s *JobStatus) Terminal() bool {
	return s.State == asynq.TaskStateCompleted.String() || s.State == asynq.TaskStateArchived.String()
}

// Enqueuer submits episode jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, req model.EpisodeRequest) (string, error)
}

// StatusReader reads the state of a job.
type StatusReader interface {
	Status(ctx context.Context, id string) (*JobStatus, error)
}

// RedisOpt builds the asynq Redis connection from config. The password is read
// from the environment variable the config names.
func RedisOpt(cfg cloud.Queue) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	if cfg.RedisPasswordEnv != "" {
		opt.Password = os.Getenv(cfg.RedisPasswordEnv)
	}
	return opt
}

// Queue enqueues episode jobs and inspects their state.
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	maxRetry  int
	timeout   time.Duration
	retention time.Duration
}

// NewQueue connects to the Redis instance named by cfg.
func NewQueue(cfg cloud.Queue) *Queue {
	opt := RedisOpt(cfg)
	q := &Queue{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		maxRetry:  cfg.MaxRetry,
		timeout:   time.Duration(cfg.TimeoutMinutes) * time.Minute,
		retention: time.Duration(cfg.RetentionHours) * time.Hour,
	}
	if q.timeout <= 0 {
		q.timeout = 30 * time.Minute
	}
	if q.retention <= 0 {
		q.retention = 24 * time.Hour
	}
	return q
}

// NewTask builds the asynq task for req. Every call gets a fresh id, so a
// re-submitted request always starts a new run.
func NewTask(req model.EpisodeRequest, maxRetry int, timeout, retention time.Duration) (*asynq.Task, string, error) {
	payload, err := json.Marshal(EpisodePayload{Request: req})
	if err != nil {
		return nil, "", fmt.Errorf("marshal payload failed: %w", err)
	}
	id := uuid.NewString()
	task := asynq.NewTask(TypeGenerateEpisode, payload,
		asynq.TaskID(id),
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeout),
		asynq.Retention(retention),
	)
	return task, id, nil
}

func (q *Queue) Enqueue(ctx context.Context, req model.EpisodeRequest) (string, error) {
	task, id, err := NewTask(req, q.maxRetry, q.timeout, q.retention)
	if err != nil {
		return "", err
	}
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueue failed: %w", err)
	}
	slog.InfoContext(ctx, "episode job enqueued", "job_id", info.ID, "queue", info.Queue)
	return id, nil
}

func (q *Queue) Status(_ context.Context, id string) (*JobStatus, error) {
	info, err := q.inspector.GetTaskInfo(DefaultQueue, id)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return StatusFromInfo(info), nil
}

// Close releases the Redis connections.
func (q *Queue) Close() error {
	return errors.Join(q.client.Close(), q.inspector.Close())
}

// StatusFromInfo converts asynq task info into a JobStatus.
func StatusFromInfo(info *asynq.TaskInfo) *JobStatus {
	out := &JobStatus{
		ID:        info.ID,
		State:     info.State.String(),
		Retried:   info.Retried,
		MaxRetry:  info.MaxRetry,
		LastError: info.LastErr,
	}
	if !info.CompletedAt.IsZero() {
		completed := info.CompletedAt
		out.CompletedAt = &completed
	}
	if len(info.Result) > 0 && json.Valid(info.Result) {
		out.Result = json.RawMessage(info.Result)
	}
	return out
}
