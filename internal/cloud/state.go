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
// This file initializes and holds every external client the application needs.
// ServiceClients acts as a small dependency injection container built once at
// startup from Config and passed to the workflows, API handlers and jobs.
//
// Only the clients the configuration actually enables are created: a local run
// with no bucket, no analytics and no topics never touches Google Cloud
// credentials.
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/minio/minio-go/v7"
	"google.golang.org/genai"
)

// ServiceClients is the central container for external service clients.
type ServiceClients struct {
	StorageClient   *storage.Client                         // GCS, when the archive backend is gcs.
	PubsubClient    *pubsub.Client                          // Pub/Sub, when topic subscriptions are configured.
	GenAIClient     *genai.Client                           // GenAI, when any provider is of kind gemini.
	BiqQueryClient  *bigquery.Client                        // BigQuery, when analytics is enabled.
	IAMClient       *credentials.IamCredentialsClient       // IAM Credentials, used to sign GCS URLs.
	MinioClient     *minio.Client                           // MinIO, when the archive backend is minio.
	Archive         AssetArchive                            // The configured asset archive, or nil.
	PubSubListeners map[string]*PubSubListener              // Keyed by the logical name from config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Gemini-backed agent models, keyed by config name.
}

// Close releases every client that was created.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients creates the clients enabled by config.
// Inputs:
//   - ctx: The root context of the application.
//   - config: The loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The initialized clients.
//   - error: The first client initialization failure.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}

	if gp, ok := geminiProvider(config); ok {
		cc := &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		}
		if key := os.Getenv(gp.APIKeyEnv); gp.APIKeyEnv != "" && key != "" {
			cc = &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI}
		}
		cloud.GenAIClient, err = genai.NewClient(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		for key, values := range config.AgentModels {
			if config.Providers[values.Provider].Kind != ProviderGemini {
				continue
			}
			cloud.AgentModels[key] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, cloud.GenAIClient.Models, values.RateLimit)
		}
	}

	switch config.Storage.Backend {
	case StorageBackendGCS:
		if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		if config.Application.SignerServiceAccountEmail != "" {
			if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
				return nil, fmt.Errorf("create iam client: %w", err)
			}
		}
		cloud.Archive = &GCSArchive{
			StorageClient: cloud.StorageClient,
			IAMClient:     cloud.IAMClient,
			SignerEmail:   config.Application.SignerServiceAccountEmail,
			Bucket:        config.Storage.Bucket,
			Prefix:        config.Storage.Prefix,
			Expires:       signedURLTTL(config),
		}
	case StorageBackendMinio:
		cloud.MinioClient, err = NewMinioClient(
			config.Storage.MinioEndpoint,
			os.Getenv(config.Storage.MinioAccessKey),
			os.Getenv(config.Storage.MinioSecretKey),
			config.Storage.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
		archive := &MinioArchive{
			Client:  cloud.MinioClient,
			Bucket:  config.Storage.Bucket,
			Prefix:  config.Storage.Prefix,
			Expires: signedURLTTL(config),
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			slog.Warn("minio bucket unavailable, archiving will fail until it exists", "error", err)
		}
		cloud.Archive = archive
	case StorageBackendNone:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}

	if config.Analytics.Enabled {
		if cloud.BiqQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return nil, fmt.Errorf("create bigquery client: %w", err)
		}
	}

	if len(config.TopicSubscriptions) > 0 {
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return nil, fmt.Errorf("create pubsub client: %w", err)
		}
		for subKey, values := range config.TopicSubscriptions {
			actual, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
			if err != nil {
				return nil, err
			}
			actual.SetTimeout(time.Duration(values.TimeoutInSeconds) * time.Second)
			cloud.PubSubListeners[subKey] = actual
		}
	}

	return cloud, nil
}

// NewGenerateContentConfig maps an agent model configuration onto GenAI settings.
func NewGenerateContentConfig(values AgentModel) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](values.Temperature),
		TopP:             genai.Ptr[float32](values.TopP),
		MaxOutputTokens:  values.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: values.OutputFormat,
	}
	if values.TopK > 0 {
		out.TopK = genai.Ptr[float32](values.TopK)
	}
	if values.SystemInstructions != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	return out
}

func geminiProvider(config *Config) (Provider, bool) {
	for _, p := range config.Providers {
		if p.Kind == ProviderGemini {
			return p, true
		}
	}
	return Provider{}, false
}

func signedURLTTL(config *Config) time.Duration {
	if config.Storage.SignedURLMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(config.Storage.SignedURLMinutes) * time.Minute
}
