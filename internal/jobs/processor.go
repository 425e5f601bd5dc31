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

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

// EpisodeGenerator runs the episode pipeline.
type EpisodeGenerator interface {
	GenerateEpisode(ctx context.Context, req model.EpisodeRequest) (*model.EpisodeResult, error)
}

// JobError is the failure recorded in a job result.
type JobError struct {
	Reason      string                   `json:"reason"`
	Message     string                   `json:"message"`
	Stage       model.Stage              `json:"stage,omitempty"`
	Compliance  *model.ComplianceVerdict `json:"compliance,omitempty"`
	Suggestions []string                 `json:"suggestions,omitempty"`
	Partial     *model.PartialEpisode    `json:"partial,omitempty"`
}

// JobResult is written as the asynq task result once a run ends.
type JobResult struct {
	Episode *model.EpisodeResult `json:"episode,omitempty"`
	Error   *JobError            `json:"error,omitempty"`
}

// NewJobError describes err for a job result.
func NewJobError(err error) *JobError {
	out := &JobError{Reason: model.ReasonOf(err), Message: err.Error()}
	var rejection *model.ComplianceRejection
	var failure *model.EpisodeFailure
	switch {
	case errors.As(err, &rejection):
		out.Stage = model.StageCompliance
		out.Compliance = rejection.Verdict
		out.Suggestions = rejection.Suggestions()
	case errors.As(err, &failure):
		out.Stage = failure.Stage
		out.Partial = failure.Partial
	}
	return out
}

// Processor is the asynq handler of episode jobs.
type Processor struct {
	generator EpisodeGenerator
}

func NewProcessor(generator EpisodeGenerator) *Processor {
	return &Processor{generator: generator}
}

// ProcessTask implements asynq.Handler. Rejections and invalid requests are
// final: they are recorded and never retried. Any other failure is returned
// so asynq retries the job, which reruns the pipeline from the start.
func (p *Processor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload EpisodePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid episode payload: %v: %w", err, asynq.SkipRetry)
	}

	episode, err := p.generator.GenerateEpisode(ctx, payload.Request)
	if err == nil {
		return p.writeResult(task, &JobResult{Episode: episode})
	}

	jobErr := NewJobError(err)
	if writeErr := p.writeResult(task, &JobResult{Error: jobErr}); writeErr != nil {
		slog.WarnContext(ctx, "failed to write job result", "error", writeErr)
	}

	var rejection *model.ComplianceRejection
	var reqErr *model.RequestError
	switch {
	case errors.As(err, &rejection):
		return nil
	case errors.As(err, &reqErr):
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

func (p *Processor) writeResult(task *asynq.Task, result *JobResult) error {
	w := task.ResultWriter()
	if w == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Worker consumes episode jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker creates a worker for the queue in cfg. It does not start it.
func NewWorker(cfg cloud.Queue, processor *Processor) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	server := asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{DefaultQueue: 1},
	})
	mux := asynq.NewServeMux()
	mux.Handle(TypeGenerateEpisode, processor)
	return &Worker{server: server, mux: mux}
}

// Start begins processing in the background.
func (w *Worker) Start() error {
	slog.Info("starting episode worker", "queue", DefaultQueue)
	return w.server.Start(w.mux)
}

// Shutdown waits for active jobs and stops the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
