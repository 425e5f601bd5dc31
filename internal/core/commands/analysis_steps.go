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
	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
)

// ScriptReview runs the editorial review of the request's script. It is one of
// the two branches of the parallel analysis step.
type ScriptReview struct {
	cor.BaseCommand
	reviewer *services.ScriptReviewer
}

func NewScriptReview(name string, reviewer *services.ScriptReviewer) *ScriptReview {
	out := &ScriptReview{BaseCommand: *cor.NewBaseCommand(name), reviewer: reviewer}
	out.InputParamName = ParamRequest
	out.OutputParamName = ParamReview
	return out
}

func (c *ScriptReview) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(model.EpisodeRequest)
	review, err := c.reviewer.Review(context.GetContext(), req.Script)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context, review)
}

// ImageSetGeneration analyzes the script and generates its images. It is the
// other branch of the parallel analysis step.
type ImageSetGeneration struct {
	cor.BaseCommand
	generator *services.ImageSetGenerator
}

func NewImageSetGeneration(name string, generator *services.ImageSetGenerator) *ImageSetGeneration {
	out := &ImageSetGeneration{BaseCommand: *cor.NewBaseCommand(name), generator: generator}
	out.InputParamName = ParamRequest
	out.OutputParamName = ParamImageSet
	return out
}

func (c *ImageSetGeneration) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(model.EpisodeRequest)
	set, err := c.generator.GenerateEpisodeImageSet(context.GetContext(), req.Script)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context, set)
}

// Synthesis reconciles the review with the analysis behind the image set.
type Synthesis struct {
	cor.BaseCommand
	synthesizer *services.Synthesizer
}

func NewSynthesis(name string, synthesizer *services.Synthesizer) *Synthesis {
	out := &Synthesis{BaseCommand: *cor.NewBaseCommand(name), synthesizer: synthesizer}
	out.InputParamName = ParamReview
	out.OutputParamName = ParamSynthesis
	return out
}

func (c *Synthesis) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && context.Get(ParamImageSet) != nil && context.Get(ParamRequest) != nil
}

func (c *Synthesis) Execute(context cor.Context) {
	req := context.Get(ParamRequest).(model.EpisodeRequest)
	review := context.Get(ParamReview).(*model.ScriptReview)
	set := context.Get(ParamImageSet).(*model.ImageSet)

	result, err := c.synthesizer.Compare(context.GetContext(), req.Script, review, set.Analysis)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context, result)
}
