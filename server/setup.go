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

// Package main contains the setup and initialization logic for the application's state.
// This file is responsible for creating and managing a centralized state manager
// that holds all shared dependencies: configuration, external service clients,
// the episode pipeline and the optional background job queue.
//
// Functions:
//   - SetupOS: Loads a local .env file and points the configuration loader at
//     the configs directory.
//   - GetConfig: A singleton function that loads the application's configuration
//     from TOML files. It ensures the configuration is loaded only once.
//   - InitState: Creates all clients and services, and starts the background
//     processes (health checks, Pub/Sub listeners, job worker).
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/workflow"
	"github.com/jaycherian/gcp-go-true-crime/internal/jobs"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
	"github.com/joho/godotenv"
)

// StateManager holds all the shared dependencies for the application.
type StateManager struct {
	config     *cloud.Config
	cloud      *cloud.ServiceClients
	components *workflow.Components
	episodes   *workflow.EpisodeWorkflow
	health     *services.HealthMonitor
	queue      *jobs.Queue
	worker     *jobs.Worker
}

// state is a package-level variable that holds the single instance of StateManager.
var state = &StateManager{}

// SetupOS loads provider credentials from a local .env file, if present, and
// sets the configuration environment unless the caller already has.
func SetupOS() (err error) {
	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig provides a singleton instance of the application configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState initializes the entire application state.
//
// This function performs the following steps:
//  1. Initializes the external service clients enabled by configuration.
//  2. Builds the provider registry and the pipeline components.
//  3. Schedules the provider health checks.
//  4. Starts the Pub/Sub listeners and, when enabled, the episode job worker.
func InitState(ctx context.Context) error {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	registry, err := providers.Build(config, cloudClients)
	if err != nil {
		return fmt.Errorf("build providers: %w", err)
	}
	state.components, err = workflow.NewComponents(config, registry, cloudClients)
	if err != nil {
		return err
	}
	state.episodes = workflow.NewEpisodeWorkflow(state.components)

	pingers, keys := registry.Pingers()
	state.health = services.NewHealthMonitor(pingers, keys, services.DefaultCallTimeout)
	if spec := config.Scheduler.HealthCheckCron; spec != "" {
		if err := state.health.Start(spec); err != nil {
			return fmt.Errorf("schedule health checks: %w", err)
		}
	}

	SetupListeners(config, cloudClients, state.episodes, ctx)

	if config.Queue.Enabled {
		state.queue = jobs.NewQueue(config.Queue)
		state.worker = jobs.NewWorker(config.Queue, jobs.NewProcessor(state.episodes))
		if err := state.worker.Start(); err != nil {
			return fmt.Errorf("start episode worker: %w", err)
		}
	} else {
		slog.Info("background jobs disabled")
	}
	return nil
}

// CloseState stops the background processes and releases the clients.
func CloseState() {
	if state.worker != nil {
		state.worker.Shutdown()
	}
	if state.queue != nil {
		if err := state.queue.Close(); err != nil {
			slog.Warn("failed to close job queue", "error", err)
		}
	}
	if state.health != nil {
		state.health.Stop()
	}
	if state.cloud != nil {
		state.cloud.Close()
	}
}
