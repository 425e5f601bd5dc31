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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/workflow"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
	"github.com/joho/godotenv"
)

type commandContext struct {
	configDir string
	runtime   string

	configOnce sync.Once
	config     *cloud.Config
	configErr  error

	componentsOnce sync.Once
	components     *workflow.Components
	health         *services.HealthMonitor
	componentsErr  error
}

func (c *commandContext) ensureConfig() (*cloud.Config, error) {
	c.configOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.configErr = fmt.Errorf("load .env: %w", err)
			return
		}
		setEnv(cloud.EnvConfigFilePrefix, strings.TrimSpace(c.configDir), "configs")
		setEnv(cloud.EnvConfigRuntime, strings.TrimSpace(c.runtime), "local")

		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			c.configErr = err
			return
		}
		c.config = config
	})
	return c.config, c.configErr
}

// ensureComponents builds the pipeline once. Components set beforehand are
// used as they are.
func (c *commandContext) ensureComponents(ctx context.Context) (*workflow.Components, error) {
	c.componentsOnce.Do(func() {
		if c.components != nil {
			return
		}
		config, err := c.ensureConfig()
		if err != nil {
			c.componentsErr = err
			return
		}
		clients, err := cloud.NewCloudServiceClients(ctx, config)
		if err != nil {
			c.componentsErr = err
			return
		}
		registry, err := providers.Build(config, clients)
		if err != nil {
			c.componentsErr = fmt.Errorf("build providers: %w", err)
			return
		}
		c.components, c.componentsErr = workflow.NewComponents(config, registry, clients)
		if c.health == nil {
			pingers, keys := registry.Pingers()
			c.health = services.NewHealthMonitor(pingers, keys, services.DefaultCallTimeout)
		}
	})
	return c.components, c.componentsErr
}

func (c *commandContext) ensureHealth(ctx context.Context) (*services.HealthMonitor, error) {
	if _, err := c.ensureComponents(ctx); err != nil {
		return nil, err
	}
	if c.health == nil {
		return nil, errors.New("no providers configured")
	}
	return c.health, nil
}

// setEnv applies a flag value, keeps an existing environment value, and falls
// back to def.
func setEnv(key, flag, def string) {
	switch {
	case flag != "":
		_ = os.Setenv(key, flag)
	case os.Getenv(key) == "":
		_ = os.Setenv(key, def)
	}
}

// readScript reads the script from path, or from in when path is "-".
func readScript(path string, in io.Reader) (string, error) {
	var data []byte
	var err error
	switch strings.TrimSpace(path) {
	case "":
		return "", errors.New("--script is required")
	case "-":
		data, err = io.ReadAll(in)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	script := strings.TrimSpace(string(data))
	if script == "" {
		return "", errors.New("script is empty")
	}
	return script, nil
}
