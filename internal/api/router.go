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

// Package api defines the HTTP routes of the episode studio. Every route lives
// under /api/tiger; the handlers translate JSON bodies into pipeline calls and
// pipeline errors into structured responses.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/workflow"
	"github.com/jaycherian/gcp-go-true-crime/internal/jobs"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// DefaultStreamInterval is how often a job stream checks the job state.
const DefaultStreamInterval = time.Second

// Handlers holds the dependencies of the routes. Jobs, JobStatus, History and
// Health may be nil when the corresponding feature is disabled.
type Handlers struct {
	Episodes       jobs.EpisodeGenerator
	Components     *workflow.Components
	Health         *services.HealthMonitor
	Jobs           jobs.Enqueuer
	JobStatus      jobs.StatusReader
	History        services.EpisodeHistory
	StreamInterval time.Duration
}

// NewRouter builds the gin engine with tracing, CORS and the /api routes.
func NewRouter(serviceName string, h *Handlers) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())

	api := r.Group("/api")
	{
		TigerRouter(api, h)
	}
	return r
}

// TigerRouter registers the episode routes under /tiger.
func TigerRouter(r *gin.RouterGroup, h *Handlers) {
	tiger := r.Group("/tiger")
	{
		tiger.POST("/generate-episode", h.GenerateEpisode)
		tiger.POST("/generate-images", h.GenerateImages)
		tiger.POST("/analyze-script", h.AnalyzeScript)
		tiger.POST("/generate-video", h.GenerateVideo)
		tiger.POST("/check-compliance", h.CheckCompliance)

		tiger.GET("/jobs/:id", h.GetJob)
		tiger.GET("/jobs/:id/stream", h.StreamJob)
	}
	Dashboard(tiger, h)
}
