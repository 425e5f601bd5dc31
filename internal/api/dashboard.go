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
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	"github.com/jaycherian/gcp-go-true-crime/internal/jobs"
)

// MaxHistoryLimit caps the rows returned by /episodes.
const MaxHistoryLimit = 100

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Dashboard registers the read-only routes: provider health and episode
// history.
func Dashboard(r *gin.RouterGroup, h *Handlers) {
	r.GET("/status", h.Status)
	r.GET("/episodes", h.RecentEpisodes)
}

// Status handles GET /status. The cached report is returned unless it has
// never been filled or ?refresh=true is given.
func (h *Handlers) Status(c *gin.Context) {
	if h.Health == nil {
		c.JSON(http.StatusOK, services.HealthReport{Status: services.HealthUnknown, Providers: []services.ProviderHealth{}})
		return
	}
	report := h.Health.Report()
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh || report.Status == services.HealthUnknown {
		report = h.Health.Refresh(c.Request.Context())
	}
	c.JSON(http.StatusOK, report)
}

// RecentEpisodes handles GET /episodes?userId=&limit=.
func (h *Handlers) RecentEpisodes(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics are disabled"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultHistoryLimit)))
	if err != nil || limit <= 0 {
		badRequest(c, "limit must be a positive integer")
		return
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	events, err := h.History.Recent(c.Request.Context(), c.Query("userId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetJob handles GET /jobs/:id.
func (h *Handlers) GetJob(c *gin.Context) {
	if h.JobStatus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "background jobs are disabled"})
		return
	}
	status, err := h.JobStatus.Status(c.Request.Context(), c.Param("id"))
	if errors.Is(err, jobs.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// StreamJob handles GET /jobs/:id/stream. It upgrades to a websocket, pushes
// the job state whenever it changes and closes once the job is terminal.
func (h *Handlers) StreamJob(c *gin.Context) {
	if h.JobStatus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "background jobs are disabled"})
		return
	}
	id := c.Param("id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "websocket upgrade failed", "job_id", id, "error", err)
		return
	}
	defer conn.Close()

	interval := h.StreamInterval
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	var previous string
	for {
		status, err := h.JobStatus.Status(ctx, id)
		switch {
		case errors.Is(err, jobs.ErrJobNotFound):
			_ = conn.WriteJSON(gin.H{"error": err.Error()})
			closeStream(conn)
			return
		case err != nil:
			slog.WarnContext(ctx, "job status lookup failed", "job_id", id, "error", err)
		default:
			if current := status.State + "/" + strconv.Itoa(status.Retried); current != previous {
				if err := conn.WriteJSON(status); err != nil {
					return
				}
				previous = current
			}
			if status.Terminal() {
				closeStream(conn)
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func closeStream(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
