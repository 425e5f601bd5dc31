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

package commands

import (
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

// EpisodeAssembly builds the EpisodeResult from the artifacts in the Context.
type EpisodeAssembly struct {
	cor.BaseCommand
}

func NewEpisodeAssembly(name string) *EpisodeAssembly {
	out := &EpisodeAssembly{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamVideo
	out.OutputParamName = ParamResult
	return out
}

func (c *EpisodeAssembly) Execute(context cor.Context) {
	req := context.Get(ParamRequest).(model.EpisodeRequest)
	review, _ := context.Get(ParamReview).(*model.ScriptReview)
	synthesis, _ := context.Get(ParamSynthesis).(*model.SynthesisResult)
	verdict, _ := context.Get(ParamCompliance).(*model.ComplianceVerdict)
	set, _ := context.Get(ParamImageSet).(*model.ImageSet)
	job, _ := context.Get(ParamVideo).(*model.VideoJob)
	episodeID, _ := context.Get(ParamEpisodeID).(string)

	result := &model.EpisodeResult{
		EpisodeID: episodeID,
		Script: model.EpisodeScript{
			Original:  req.Script,
			Optimized: SelectScript(req.Script, review, synthesis),
		},
		Analysis:  model.EpisodeAnalysis{Review: review, Synthesis: synthesis, Compliance: verdict},
		Assets:    model.EpisodeAssets{Images: set, Video: job},
		Platform:  req.Platform,
		UserID:    req.UserID,
		CreatedAt: time.Now().UTC(),
	}
	c.Succeed(context, result)
	context.Add(cor.CtxOut, result)
}

// Partial collects whatever artifacts are present in the Context.
func Partial(context cor.Context) *model.PartialEpisode {
	out := &model.PartialEpisode{}
	out.Review, _ = context.Get(ParamReview).(*model.ScriptReview)
	out.Images, _ = context.Get(ParamImageSet).(*model.ImageSet)
	out.Synthesis, _ = context.Get(ParamSynthesis).(*model.SynthesisResult)
	out.Compliance, _ = context.Get(ParamCompliance).(*model.ComplianceVerdict)
	out.Video, _ = context.Get(ParamVideo).(*model.VideoJob)
	return out
}
