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

// Package test provides utility functions and fixtures for the test suite: the
// cached test configuration, a sample script with canned model responses, and
// in-memory stand-ins for the text, image and video providers.
package test

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
)

// StateManager caches the configuration across the tests of a package.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS points the configuration loader at the repository's configs
// directory and the "test" runtime. Tests run from their package directory, so
// the module root is found by walking up to go.mod.
func SetupOS() (err error) {
	root, err := ModuleRoot()
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigFilePrefix, filepath.Join(root, "configs"))
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// ModuleRoot returns the closest parent directory holding a go.mod file.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found")
		}
		dir = parent
	}
}

// GetConfig loads the test configuration once and caches it.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}
