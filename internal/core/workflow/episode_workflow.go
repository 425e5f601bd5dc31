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

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/commands"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

// Command names of the episode pipeline.
const (
	CmdRequestReader = "episode-request-reader"
	CmdAnalysis      = "episode-analysis"
	CmdReview        = "script-review"
	CmdImageSet      = "image-set-generation"
	CmdSynthesis     = "synthesis"
	CmdCompliance    = "compliance-check"
	CmdVideo         = "video-render"
	CmdArchive       = "archive-assets"
	CmdAssembly      = "episode-assembly"
)

// stages maps each failing command to the stage reported to callers, in the
// order the commands run.
var stages = []struct {
	command string
	stage   model.Stage
}{
	{CmdRequestReader, model.StageRequest},
	{CmdReview, model.StageAnalysis},
	{CmdImageSet, model.StageImages},
	{CmdSynthesis, model.StageSynthesis},
	{CmdCompliance, model.StageCompliance},
	{CmdVideo, model.StageVideo},
	{CmdAssembly, model.StageAssembly},
}

// EpisodeWorkflow turns a script into a finished episode:
//
//  1. script review and image set generation, concurrently
//  2. synthesis of the review and the analysis
//  3. compliance gate; a "fail" verdict ends the run
//  4. video render from the best script and the key image
//  5. asset archiving (best effort) and assembly
//
// Each run gets its own cor.Context, so one EpisodeWorkflow serves any number
// of concurrent requests.
type EpisodeWorkflow struct {
	cor.BaseCommand
	components *Components
	chain      cor.Chain
}

// NewEpisodeWorkflow builds the command chain over components.
func NewEpisodeWorkflow(components *Components) *EpisodeWorkflow {
	w := &EpisodeWorkflow{
		BaseCommand: *cor.NewBaseCommand("episode-workflow"),
		components:  components,
	}
	w.initializeChain()
	return w
}

func (w *EpisodeWorkflow) initializeChain() {
	c := w.components
	out := cor.NewBaseChain(w.GetName())

	out.AddCommand(commands.NewEpisodeRequestReader(CmdRequestReader, c.DefaultPlatform))

	analysis := cor.NewParallelChain(CmdAnalysis)
	analysis.AddCommand(commands.NewScriptReview(CmdReview, c.Reviewer))
	analysis.AddCommand(commands.NewImageSetGeneration(CmdImageSet, c.Images))
	out.AddCommand(analysis)

	out.AddCommand(commands.NewSynthesis(CmdSynthesis, c.Synthesizer))
	out.AddCommand(commands.NewComplianceCheck(CmdCompliance, c.Compliance))
	out.AddCommand(commands.NewVideoRender(CmdVideo, c.Poller, c.VideoTemplate))
	out.AddCommand(commands.NewArchiveAssets(CmdArchive, c.Archive, c.ArchiveClient))
	out.AddCommand(commands.NewEpisodeAssembly(CmdAssembly))

	w.chain = out
}

// Chain exposes the underlying command chain.
func (w *EpisodeWorkflow) Chain() cor.Chain {
	return w.chain
}

// GenerateEpisode runs the pipeline for req. On failure the error is a
// *model.RequestError, a *model.ComplianceRejection or a *model.EpisodeFailure.
func (w *EpisodeWorkflow) GenerateEpisode(ctx context.Context, req model.EpisodeRequest) (*model.EpisodeResult, error) {
	return w.run(ctx, req)
}

// Execute runs the pipeline for the request in CtxIn, typically the JSON body
// of a Pub/Sub message. A compliance rejection is a handled outcome and is not
// recorded as an error.
func (w *EpisodeWorkflow) Execute(context cor.Context) {
	result, err := w.run(context.GetContext(), context.Get(w.GetInputParam()))
	var rejection *model.ComplianceRejection
	switch {
	case errors.As(err, &rejection):
		context.Add(w.GetOutputParam(), rejection.Verdict)
	case err != nil:
		w.Fail(context, err)
	default:
		w.Succeed(context, result)
	}
}

func (w *EpisodeWorkflow) run(ctx context.Context, in interface{}) (*model.EpisodeResult, error) {
	start := time.Now()
	episodeID := uuid.NewString()

	chCtx := cor.NewBaseContextWith(ctx)
	chCtx.Add(cor.CtxIn, in)
	chCtx.Add(commands.ParamEpisodeID, episodeID)

	w.chain.Execute(chCtx)

	req, _ := chCtx.Get(commands.ParamRequest).(model.EpisodeRequest)
	logger := slog.With("episode_id", episodeID, "platform", req.Platform)

	if chCtx.HasErrors() {
		stage, stageErr := failedStage(chCtx)
		if stage == model.StageRequest {
			return nil, &model.RequestError{Err: stageErr}
		}

		var rejection *model.ComplianceRejection
		if errors.As(stageErr, &rejection) {
			logger.InfoContext(ctx, "episode rejected", "reason", rejection.Reason())
			w.emit(ctx, model.NewFailureEvent(episodeID, req, stage, stageErr, time.Since(start)))
			return nil, rejection
		}

		failure := &model.EpisodeFailure{
			EpisodeID: episodeID,
			Stage:     stage,
			Err:       stageErr,
			Partial:   commands.Partial(chCtx),
		}
		logger.ErrorContext(ctx, "episode failed", "stage", stage, "reason", failure.Reason(), "error", stageErr)
		w.emit(ctx, model.NewFailureEvent(episodeID, req, stage, stageErr, time.Since(start)))
		return nil, failure
	}

	result, ok := chCtx.Get(commands.ParamResult).(*model.EpisodeResult)
	if !ok {
		err := &model.EpisodeFailure{
			EpisodeID: episodeID,
			Stage:     model.StageAssembly,
			Err:       fmt.Errorf("pipeline finished without a result"),
			Partial:   commands.Partial(chCtx),
		}
		w.emit(ctx, model.NewFailureEvent(episodeID, req, model.StageAssembly, err.Err, time.Since(start)))
		return nil, err
	}

	logger.InfoContext(ctx, "episode generated",
		"total_images", result.Assets.Images.CountImages(),
		"duration_millis", time.Since(start).Milliseconds())
	w.emit(ctx, model.NewSuccessEvent(result, time.Since(start)))
	return result, nil
}

// failedStage returns the earliest stage with a recorded error.
func failedStage(chCtx cor.Context) (model.Stage, error) {
	for _, s := range stages {
		if err := chCtx.GetError(s.command); err != nil {
			return s.stage, err
		}
	}
	for name, err := range chCtx.GetErrors() {
		return model.Stage(name), err
	}
	return model.StageAssembly, nil
}

func (w *EpisodeWorkflow) emit(ctx context.Context, event *model.EpisodeEvent) {
	if w.components.Events == nil {
		return
	}
	if err := w.components.Events.Emit(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to emit episode event", "episode_id", event.EpisodeID, "error", err)
	}
}
