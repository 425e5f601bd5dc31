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
// This file implements the asset archive: provider-hosted images and videos
// expire, so finished assets are copied into a bucket the application owns and
// served through signed URLs.
//
// Structs:
//   - GCSArchive: Stores assets in Google Cloud Storage, signing URLs through the
//     IAM Credentials API.
//   - MinioArchive: Stores assets in an S3-compatible MinIO bucket with presigned URLs.
//
// Functions:
//   - ArchiveRemote: Downloads a remote asset, detects its type and stores it.
package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxArchiveBytes caps the size of a single archived asset.
const MaxArchiveBytes = 512 << 20

// AssetArchive stores a blob and returns a URL a client can fetch it from.
type AssetArchive interface {
	Store(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// ArchiveRemote downloads sourceURL and stores it under key in archive. The
// file extension and content type are detected from the payload itself since
// providers frequently serve assets as application/octet-stream.
func ArchiveRemote(ctx context.Context, client *http.Client, archive AssetArchive, key string, sourceURL string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download %s: unexpected status %d", key, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxArchiveBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if len(data) > MaxArchiveBytes {
		return "", fmt.Errorf("asset %s exceeds %d bytes", key, MaxArchiveBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	kind, _ := filetype.Match(data)
	if kind != filetype.Unknown {
		contentType = kind.MIME.Value
		if path.Ext(key) == "" {
			key = key + "." + kind.Extension
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return archive.Store(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

func objectName(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}

// GCSArchive writes assets to a GCS bucket. When a signer is configured, the
// returned URLs are V4 signed through IAM SignBlob so no private key is needed
// on the host.
type GCSArchive struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	SignerEmail   string
	Bucket        string
	Prefix        string
	Expires       time.Duration
}

func (a *GCSArchive) Store(ctx context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	name := objectName(a.Prefix, key)
	wc := a.StorageClient.Bucket(a.Bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, body); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", a.Bucket, name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close gs://%s/%s: %w", a.Bucket, name, err)
	}
	return a.SignedURL(ctx, name)
}

// SignedURL returns a time-limited GET URL for an object, or its public URL when
// no signer is configured.
func (a *GCSArchive) SignedURL(ctx context.Context, name string) (string, error) {
	if a.IAMClient == nil || a.SignerEmail == "" {
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", a.Bucket, name), nil
	}
	opts := &storage.SignedURLOptions{
		GoogleAccessID: a.SignerEmail,
		Scheme:         storage.SigningSchemeV4,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(a.Expires),
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := a.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", a.SignerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}
	u, err := a.StorageClient.Bucket(a.Bucket).SignedURL(name, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", a.Bucket, name, err)
	}
	return u, nil
}

// MinioArchive writes assets to an S3-compatible bucket.
type MinioArchive struct {
	Client  *minio.Client
	Bucket  string
	Prefix  string
	Expires time.Duration
}

// NewMinioClient creates a MinIO client with static credentials.
func NewMinioClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (a *MinioArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.Client.BucketExists(ctx, a.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.Client.MakeBucket(ctx, a.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.Bucket, err)
	}
	return nil
}

func (a *MinioArchive) Store(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	name := objectName(a.Prefix, key)
	if _, err := a.Client.PutObject(ctx, a.Bucket, name, body, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", a.Bucket, name, err)
	}
	u, err := a.Client.PresignedGetObject(ctx, a.Bucket, name, a.Expires, nil)
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", a.Bucket, name, err)
	}
	return u.String(), nil
}
