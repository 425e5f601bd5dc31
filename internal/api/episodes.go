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

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/commands"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"golang.org/x/sync/errgroup"
)

// ScriptBody is the body of the single-stage endpoints.
type ScriptBody struct {
	Script            string          `json:"script"`
	Platform          model.Platform  `json:"platform,omitempty"`
	UserID            string          `json:"userId,omitempty"`
	ImageSet          *model.ImageSet `json:"imageSet,omitempty"`
	ImageDescriptions []string        `json:"imageDescriptions,omitempty"`
}

// AnalyzeResponse is the body returned by /analyze-script: the editorial
// review, the entity analysis and their synthesis.
type AnalyzeResponse struct {
	Claude    *model.ScriptReview    `json:"claude"`
	Basic     *model.ScriptAnalysis  `json:"basic"`
	Synthesis *model.SynthesisResult `json:"synthesis"`
}

// JobAccepted is the body of an accepted asynchronous request.
type JobAccepted struct {
	JobID     string `json:"jobId"`
	StatusURL string `json:"statusUrl"`
}

func bindScript(c *gin.Context) (*ScriptBody, bool) {
	var body ScriptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "request body must be JSON: "+err.Error())
		return nil, false
	}
	if strings.TrimSpace(body.Script) == "" {
		badRequest(c, commands.ErrEmptyScript.Error())
		return nil, false
	}
	return &body, true
}

// GenerateEpisode handles POST /generate-episode. With ?async=true the run is
// queued and 202 is returned with the job id.
func (h *Handlers) GenerateEpisode(c *gin.Context) {
	var body model.EpisodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "request body must be JSON: "+err.Error())
		return
	}
	req, err := commands.ParseEpisodeRequest(body, h.Components.DefaultPlatform)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		if h.Jobs == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "background jobs are disabled"})
			return
		}
		id, err := h.Jobs.Enqueue(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, JobAccepted{JobID: id, StatusURL: "/api/tiger/jobs/" + id})
		return
	}

	result, err := h.Episodes.GenerateEpisode(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GenerateImages handles POST /generate-images.
func (h *Handlers) GenerateImages(c *gin.Context) {
	body, ok := bindScript(c)
	if !ok {
		return
	}
	set, err := h.Components.Images.GenerateEpisodeImageSet(c.Request.Context(), body.Script)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// AnalyzeScript handles POST /analyze-script. The review and the analysis run
// concurrently and are then reconciled.
func (h *Handlers) AnalyzeScript(c *gin.Context) {
	body, ok := bindScript(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var out AnalyzeResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Claude, err = h.Components.Reviewer.Review(gctx, body.Script)
		return err
	})
	g.Go(func() (err error) {
		out.Basic, err = h.Components.Analyzer.Analyze(gctx, body.Script)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(c, err)
		return
	}

	synthesis, err := h.Components.Synthesizer.Compare(ctx, body.Script, out.Claude, out.Basic)
	if err != nil {
		respondError(c, err)
		return
	}
	out.Synthesis = synthesis
	c.JSON(http.StatusOK, out)
}

// GenerateVideo handles POST /generate-video from a script and a previously
// generated image set.
func (h *Handlers) GenerateVideo(c *gin.Context) {
	body, ok := bindScript(c)
	if !ok {
		return
	}
	platform := body.Platform
	if platform == "" {
		platform = h.Components.DefaultPlatform
	}
	spec, err := model.LookupPlatform(platform)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	key := body.ImageSet.KeyImage()
	if key == nil || key.URL == "" {
		badRequest(c, "imageSet with at least one image is required")
		return
	}

	prompt, err := commands.RenderVideoPrompt(h.Components.VideoTemplate, body.Script, body.ImageSet, spec)
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	id, err := h.Components.Poller.Submit(ctx, prompt, key.URL, spec)
	if err != nil {
		respondError(c, err)
		return
	}
	job, err := h.Components.Poller.Poll(ctx, id, spec.Platform)
	if err != nil {
		respondError(c, &model.EpisodeFailure{Stage: model.StageVideo, Err: err, Partial: &model.PartialEpisode{Video: job}})
		return
	}
	c.JSON(http.StatusOK, job)
}

// CheckCompliance handles POST /check-compliance. A failing verdict is a
// normal 200 response here; only the full pipeline turns it into a rejection.
func (h *Handlers) CheckCompliance(c *gin.Context) {
	body, ok := bindScript(c)
	if !ok {
		return
	}
	descriptions := body.ImageDescriptions
	if len(descriptions) == 0 && body.ImageSet != nil {
		descriptions = body.ImageSet.PortraitDescriptions()
	}
	verdict, err := h.Components.Compliance.AnalyzeCompliance(c.Request.Context(), body.Script, descriptions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}
