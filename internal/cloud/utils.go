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

// Package cloud provides components for interacting with Google Cloud services.
// This file holds the hierarchical configuration loader and the shared helper
// that turns a prompt into text through a GenAI model.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	MaxRetries          = 3                   // The maximum number of times to retry a failed model call.
)

// RetryBackoff is the base delay between model call retries. It doubles on
// every attempt.
var RetryBackoff = 2 * time.Second

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime-specific configuration file names
// derived from GCP_CONFIG_PREFIX and GCP_RUNTIME. The runtime defaults to "test".
func ConfigFiles() (base string, runtime string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}
	base = prefix + ConfigFileBaseName + ConfigFileExtension
	runtime = prefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	return base, runtime
}

// LoadConfig decodes the base configuration file and then the runtime file over
// it, so values in the runtime file win. Missing files are skipped.
func LoadConfig(baseConfig interface{}) error {
	baseConfigFileName, envConfigFileName := ConfigFiles()
	for _, name := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(name) {
			slog.Debug("configuration file not found, skipping", "file", name)
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
		slog.Debug("loaded configuration file", "file", name)
	}
	return nil
}

// ModelCounters are the metrics recorded for every model call.
type ModelCounters struct {
	InputTokens  metric.Int64Counter
	OutputTokens metric.Int64Counter
	Retries      metric.Int64Counter
}

// NewModelCounters registers the token and retry counters for a named model.
func NewModelCounters(meter metric.Meter, name string) *ModelCounters {
	in, _ := meter.Int64Counter(fmt.Sprintf("%s.tokens.input", name))
	out, _ := meter.Int64Counter(fmt.Sprintf("%s.tokens.output", name))
	retries, _ := meter.Int64Counter(fmt.Sprintf("%s.retries", name))
	return &ModelCounters{InputTokens: in, OutputTokens: out, Retries: retries}
}

// GenerateTextResponse sends prompt to model and concatenates the text parts of
// every candidate. Failed calls are retried up to MaxRetries times with an
// exponential backoff that stops early when ctx ends.
func GenerateTextResponse(ctx context.Context, counters *ModelCounters, model ContentGenerator, prompt string) (string, error) {
	content := NewTextPart(prompt)
	backoff := RetryBackoff

	var resp *genai.GenerateContentResponse
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = model.GenerateContent(ctx, content)
		if err == nil {
			break
		}
		if attempt >= MaxRetries || ctx.Err() != nil {
			return "", err
		}
		if counters != nil && counters.Retries != nil {
			counters.Retries.Add(ctx, 1)
		}
		slog.WarnContext(ctx, "model call failed, retrying", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if resp.UsageMetadata != nil && counters != nil {
		if counters.InputTokens != nil {
			counters.InputTokens.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		}
		if counters.OutputTokens != nil {
			counters.OutputTokens.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
	}

	var value strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			value.WriteString(part.Text)
		}
	}
	return value.String(), nil
}

// NewTextPart wraps a string as a single user content.
func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}
