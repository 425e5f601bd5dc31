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
	"strings"
	"text/template"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
)

// MaxVideoPromptRunes is the longest prompt text sent to the video provider.
const MaxVideoPromptRunes = 1000

// VideoPrompt is the data the video template is rendered with.
type VideoPrompt struct {
	Script   string
	Title    string
	Location string
	Platform model.PlatformSpec
}

// VideoRender renders the episode video from the best available script and
// the key image of the image set.
type VideoRender struct {
	cor.BaseCommand
	poller   *services.VideoJobPoller
	template *template.Template
}

func NewVideoRender(name string, poller *services.VideoJobPoller, videoTemplate *template.Template) *VideoRender {
	out := &VideoRender{BaseCommand: *cor.NewBaseCommand(name), poller: poller, template: videoTemplate}
	out.InputParamName = ParamCompliance
	out.OutputParamName = ParamVideo
	return out
}

func (c *VideoRender) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && context.Get(ParamRequest) != nil
}

func (c *VideoRender) Execute(context cor.Context) {
	req := context.Get(ParamRequest).(model.EpisodeRequest)
	review, _ := context.Get(ParamReview).(*model.ScriptReview)
	synthesis, _ := context.Get(ParamSynthesis).(*model.SynthesisResult)
	set, _ := context.Get(ParamImageSet).(*model.ImageSet)

	spec, err := model.LookupPlatform(req.Platform)
	if err != nil {
		c.Fail(context, err)
		return
	}

	prompt, err := RenderVideoPrompt(c.template, SelectScript(req.Script, review, synthesis), set, spec)
	if err != nil {
		c.Fail(context, err)
		return
	}

	var imageURL string
	if key := set.KeyImage(); key != nil {
		imageURL = key.URL
	}

	ctx := context.GetContext()
	id, err := c.poller.Submit(ctx, prompt, imageURL, spec)
	if err != nil {
		c.Fail(context, err)
		return
	}
	job, err := c.poller.Poll(ctx, id, spec.Platform)
	if job != nil {
		context.Add(c.GetOutputParam(), job)
	}
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context, job)
}

// RenderVideoPrompt renders the video template for script and the analysis
// behind set, cut to MaxVideoPromptRunes.
func RenderVideoPrompt(t *template.Template, script string, set *model.ImageSet, spec model.PlatformSpec) (string, error) {
	data := VideoPrompt{Script: script, Platform: spec}
	if set != nil && set.Analysis != nil {
		data.Title = set.Analysis.EpisodeTitle
		data.Location = set.Analysis.MasterLocation
	}
	prompt, err := services.Render(t, data)
	if err != nil {
		return "", err
	}
	return truncateRunes(strings.TrimSpace(prompt), MaxVideoPromptRunes), nil
}

// SelectScript picks the script the video is rendered from: the synthesized
// final script, then the optimized rewrite, then the original.
func SelectScript(original string, review *model.ScriptReview, synthesis *model.SynthesisResult) string {
	if synthesis != nil && strings.TrimSpace(synthesis.SynthesizedRecommendation.FinalScript) != "" {
		return synthesis.SynthesizedRecommendation.FinalScript
	}
	if review != nil && strings.TrimSpace(review.OptimizedScript) != "" {
		return review.OptimizedScript
	}
	return original
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
