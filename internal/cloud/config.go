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

// Package cloud provides components for interacting with Google Cloud and the
// other external services the episode pipeline depends on. This file defines
// the structure of the application configuration, decoded from TOML files by
// LoadConfig.
//
// Structs:
//   - Config: The root configuration struct.
//   - Provider: A generative AI provider endpoint (text, image or video).
//   - AgentModel: A named text model configuration bound to a provider.
//   - PromptTemplates: Go text/template sources for every prompt.
//   - Pipeline: Orchestration settings (model keys, pacing and polling).
//   - Storage: Asset archive settings (GCS or MinIO).
//   - Analytics: BigQuery analytics sink settings.
//   - Queue: asynq background job settings.
//   - Scheduler: cron schedules.
//   - TopicSubscription: A Pub/Sub subscription that triggers episodes.
package cloud

import "google.golang.org/genai"

// Provider kinds understood by the provider registry.
const (
	ProviderGemini       = "gemini"
	ProviderOpenAI       = "openai"
	ProviderAnthropic    = "anthropic"
	ProviderOpenAIImages = "openai-images"
	ProviderPollinations = "pollinations"
	ProviderRunway       = "runway"
)

// Storage backends for the asset archive.
const (
	StorageBackendNone  = ""
	StorageBackendGCS   = "gcs"
	StorageBackendMinio = "minio"
)

var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
}

// Provider describes a third-party generative endpoint. Credentials are never
// stored in configuration: APIKeyEnv names the environment variable holding
// the key.
type Provider struct {
	Kind           string `toml:"kind"`            // One of the Provider* constants.
	BaseURL        string `toml:"base_url"`        // API root, e.g. "https://api.openai.com/v1".
	Model          string `toml:"model"`           // Default model for image and video providers.
	APIKeyEnv      string `toml:"api_key_env"`     // Environment variable holding the API key.
	TimeoutSeconds int    `toml:"timeout_seconds"` // Per-call timeout.
	RateLimit      int    `toml:"rate_limit"`      // Requests per second; 0 disables limiting.
	MaxRetries     int    `toml:"max_retries"`     // Retries on transient HTTP failures.
	Version        string `toml:"version"`         // API version header, where the provider requires one.
}

// AgentModel is a named text model configuration.
type AgentModel struct {
	Provider           string  `toml:"provider"`            // Key into Config.Providers.
	Model              string  `toml:"model"`               // Provider model name.
	SystemInstructions string  `toml:"system_instructions"` // System prompt.
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"` // e.g. "application/json".
	RateLimit          int     `toml:"rate_limit"`    // Requests per second for this model.
}

// PromptTemplates holds the text/template source of every prompt.
type PromptTemplates struct {
	Analysis   string `toml:"analysis"`
	Review     string `toml:"review"`
	Synthesis  string `toml:"synthesis"`
	Compliance string `toml:"compliance"`
	Background string `toml:"background"`
	Thumbnail  string `toml:"thumbnail"`
	Portrait   string `toml:"portrait"`
	Video      string `toml:"video"`
}

// Pipeline configures the episode orchestrator.
type Pipeline struct {
	AnalysisModel           string `toml:"analysis_model"`   // Key into AgentModels for entity extraction.
	ReviewModel             string `toml:"review_model"`     // Key into AgentModels for the editorial review.
	SynthesisModel          string `toml:"synthesis_model"`  // Key into AgentModels for reconciliation.
	ComplianceModel         string `toml:"compliance_model"` // Key into AgentModels for the compliance gate.
	ImageProvider           string `toml:"image_provider"`   // Key into Providers.
	VideoProvider           string `toml:"video_provider"`   // Key into Providers.
	MaxSegments             int    `toml:"max_segments"`
	PortraitIntervalMillis  int    `toml:"portrait_interval_millis"`
	PollIntervalSeconds     int    `toml:"poll_interval_seconds"`
	MaxPollAttempts         int    `toml:"max_poll_attempts"`
	PollRetries             int    `toml:"poll_retries"`
	PollRetryBackoffSeconds int    `toml:"poll_retry_backoff_seconds"`
	DefaultPlatform         string `toml:"default_platform"`
}

// Storage configures the asset archive. An empty Backend disables archiving.
type Storage struct {
	Backend          string `toml:"backend"`
	Bucket           string `toml:"bucket"`
	Prefix           string `toml:"prefix"`
	SignedURLMinutes int    `toml:"signed_url_minutes"`
	MinioEndpoint    string `toml:"minio_endpoint"`
	MinioAccessKey   string `toml:"minio_access_key_env"` // Environment variable holding the access key.
	MinioSecretKey   string `toml:"minio_secret_key_env"` // Environment variable holding the secret key.
	MinioUseSSL      bool   `toml:"minio_use_ssl"`
}

// Analytics configures the BigQuery event sink.
type Analytics struct {
	Enabled     bool   `toml:"enabled"`
	Dataset     string `toml:"dataset"`
	EventsTable string `toml:"events_table"`
}

// Queue configures asynchronous episode jobs.
type Queue struct {
	Enabled          bool   `toml:"enabled"`
	RedisAddr        string `toml:"redis_addr"`
	RedisPasswordEnv string `toml:"redis_password_env"`
	Concurrency      int    `toml:"concurrency"`
	MaxRetry         int    `toml:"max_retry"`
	TimeoutMinutes   int    `toml:"timeout_minutes"`
	RetentionHours   int    `toml:"retention_hours"`
}

// Scheduler holds cron expressions (with seconds) for background jobs.
type Scheduler struct {
	HealthCheckCron string `toml:"health_check_cron"`
}

type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Processing deadline for a single message.
}

type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`                         // The name of the application.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account email used for signing GCS URLs.
		Port                      int    `toml:"port"`                         // HTTP listen port.
		EnableTelemetry           bool   `toml:"enable_telemetry"`             // Export traces and metrics to Google Cloud.
		LogFile                   string `toml:"log_file"`                     // Optional file the JSON log is mirrored to.
	} `toml:"application"`
	Providers          map[string]Provider          `toml:"providers"`
	AgentModels        map[string]AgentModel        `toml:"agent_models"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	Pipeline           Pipeline                     `toml:"pipeline"`
	Storage            Storage                      `toml:"storage"`
	Analytics          Analytics                    `toml:"analytics"`
	Queue              Queue                        `toml:"queue"`
	Scheduler          Scheduler                    `toml:"scheduler"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name (e.g., "EpisodeRequests").
}

// NewConfig returns a Config with initialized maps so the TOML decoder can merge
// multiple files into it.
func NewConfig() *Config {
	return &Config{
		Providers:          make(map[string]Provider),
		AgentModels:        make(map[string]AgentModel),
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
}
