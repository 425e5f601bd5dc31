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

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

// DefaultHistoryLimit caps the rows returned by the episode history.
const DefaultHistoryLimit = 20

// EventSink receives one analytics event per pipeline run.
type EventSink interface {
	Emit(ctx context.Context, event *model.EpisodeEvent) error
}

// EpisodeHistory reads back recent analytics events.
type EpisodeHistory interface {
	Recent(ctx context.Context, userID string, limit int) ([]*model.EpisodeEvent, error)
}

// LogEventSink writes events to the structured log. It is the sink used when
// BigQuery analytics are disabled.
type LogEventSink struct{}

func (LogEventSink) Emit(ctx context.Context, event *model.EpisodeEvent) error {
	slog.InfoContext(ctx, "episode event",
		"episode_id", event.EpisodeID,
		"outcome", event.Outcome,
		"stage", event.Stage,
		"reason", event.Reason,
		"platform", event.Platform,
		"total_images", event.TotalImages,
		"duration_millis", event.DurationMillis)
	return nil
}

// BigQueryEventSink streams events into a BigQuery table.
type BigQueryEventSink struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	EventsTable    string
}

// GetFQN returns the table name in the dotted form used in standard SQL.
func (s *BigQueryEventSink) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.EventsTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

func (s *BigQueryEventSink) Emit(ctx context.Context, event *model.EpisodeEvent) error {
	inserter := s.BigqueryClient.Dataset(s.DatasetName).Table(s.EventsTable).Inserter()
	if err := inserter.Put(ctx, event); err != nil {
		return fmt.Errorf("insert episode event %s: %w", event.EpisodeID, err)
	}
	return nil
}

// Recent returns up to limit events, newest first. An empty userID matches every user.
func (s *BigQueryEventSink) Recent(ctx context.Context, userID string, limit int) ([]*model.EpisodeEvent, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(QryRecentEpisodes, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "limit", Value: limit},
	}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.EpisodeEvent, 0, limit)
	for {
		event := &model.EpisodeEvent{}
		err := itr.Next(event)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, nil
}
