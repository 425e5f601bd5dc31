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

// Package main contains the logic for setting up and starting the Pub/Sub message listeners.
// Each configured subscription delivers episode requests as JSON; the listener
// runs the episode workflow for every message.
package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/workflow"
)

// SetupListeners attaches the episode workflow to every configured
// subscription and starts the listeners as background goroutines.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, episodes *workflow.EpisodeWorkflow, ctx context.Context) {
	for name, listener := range cloudClients.PubSubListeners {
		listener.SetCommand(episodes)
		listener.Listen(ctx)
		slog.Info("episode listener started", "name", name, "subscription", config.TopicSubscriptions[name].Name)
	}
}
