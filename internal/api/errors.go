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
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/commands"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

// ErrorResponse is the body of every 4xx and 5xx response except compliance
// rejections.
type ErrorResponse struct {
	Error     string                `json:"error"`
	Message   string                `json:"message"`
	Timestamp time.Time             `json:"timestamp"`
	Stage     model.Stage           `json:"stage,omitempty"`
	Reason    string                `json:"reason,omitempty"`
	Partial   *model.PartialEpisode `json:"partial,omitempty"`
}

// RejectionResponse is the body of a compliance rejection.
type RejectionResponse struct {
	Error       string                   `json:"error"`
	Compliance  *model.ComplianceVerdict `json:"compliance"`
	Suggestions []string                 `json:"suggestions"`
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     "Invalid request",
		Message:   message,
		Timestamp: time.Now().UTC(),
		Reason:    "invalid_request",
	})
}

// isInvalidRequest reports whether err was caused by the caller's input.
func isInvalidRequest(err error) bool {
	var reqErr *model.RequestError
	return errors.As(err, &reqErr) ||
		errors.Is(err, model.ErrUnknownPlatform) ||
		errors.Is(err, commands.ErrEmptyScript)
}

// respondError maps a pipeline error onto the HTTP response.
func respondError(c *gin.Context, err error) {
	var rejection *model.ComplianceRejection
	if errors.As(err, &rejection) {
		suggestions := rejection.Suggestions()
		if suggestions == nil {
			suggestions = []string{}
		}
		c.JSON(http.StatusBadRequest, RejectionResponse{
			Error:       "Content failed compliance review",
			Compliance:  rejection.Verdict,
			Suggestions: suggestions,
		})
		return
	}
	if isInvalidRequest(err) {
		badRequest(c, err.Error())
		return
	}

	body := ErrorResponse{
		Error:     "Episode generation failed",
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		Reason:    model.ReasonOf(err),
	}
	var failure *model.EpisodeFailure
	if errors.As(err, &failure) {
		body.Stage = failure.Stage
		body.Partial = failure.Partial
	}
	slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "reason", body.Reason, "error", err)
	c.JSON(http.StatusInternalServerError, body)
}
