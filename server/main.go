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

// Package main is the entry point for the true crime episode server.
//
// This application sets up and runs a web server using the Gin framework. It
// exposes the episode pipeline under /api/tiger: full episode generation
// (synchronous or queued), the single-stage endpoints, job status, provider
// health and episode history. The server is instrumented with OpenTelemetry
// for logging, tracing, and metrics.
//
// Pub/Sub listeners and the asynq worker run the same episode workflow in the
// background when they are configured.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaycherian/gcp-go-true-crime/internal/api"
	"github.com/jaycherian/gcp-go-true-crime/internal/telemetry"
)

// An episode run waits on several models and a video render, so writes get a
// long deadline.
const (
	defaultPort  = 8080
	writeTimeout = 15 * time.Minute
)

func main() {
	config := GetConfig()

	closeLog := telemetry.SetupLogging(config.Application.LogFile, telemetry.ParseLevel(os.Getenv("LOG_LEVEL")))
	defer func() { _ = closeLog() }()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	if err := InitState(ctx); err != nil {
		slog.Error("Failed to initialize state", "error", err)
		log.Fatal(err)
	}
	defer CloseState()
	slog.Info("Initialized State")

	handlers := &api.Handlers{
		Episodes:   state.episodes,
		Components: state.components,
		Health:     state.health,
		History:    state.components.History,
	}
	// Assigned only when set: a nil *jobs.Queue in the interface would not be nil.
	if state.queue != nil {
		handlers.Jobs = state.queue
		handlers.JobStatus = state.queue
	}
	r := api.NewRouter(config.Application.Name, handlers)

	port := config.Application.Port
	if port == 0 {
		port = defaultPort
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: writeTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server ready", "port", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	cancel()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown failed", "error", err)
	}

	log.Println("Server exiting")
}
