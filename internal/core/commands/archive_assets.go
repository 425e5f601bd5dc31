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

package commands

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jaycherian/gcp-go-true-crime/internal/cloud"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

// ArchiveAssets copies the generated images and video into the asset archive
// and swaps the provider URLs for archive URLs. It never fails the run: an
// asset that cannot be archived keeps its provider URL.
type ArchiveAssets struct {
	cor.BaseCommand
	archive    cloud.AssetArchive
	httpClient *http.Client
}

func NewArchiveAssets(name string, archive cloud.AssetArchive, httpClient *http.Client) *ArchiveAssets {
	out := &ArchiveAssets{BaseCommand: *cor.NewBaseCommand(name), archive: archive, httpClient: httpClient}
	out.InputParamName = ParamEpisodeID
	return out
}

func (c *ArchiveAssets) Execute(context cor.Context) {
	if c.archive == nil {
		return
	}
	episodeID := context.Get(ParamEpisodeID).(string)
	archived, failed := 0, 0

	store := func(key, source string) string {
		if source == "" || strings.HasPrefix(source, "data:") {
			return source
		}
		u, err := cloud.ArchiveRemote(context.GetContext(), c.httpClient, c.archive, fmt.Sprintf("episodes/%s/%s", episodeID, key), source)
		if err != nil {
			failed++
			slog.WarnContext(context.GetContext(), "asset not archived", "episode_id", episodeID, "asset", key, "error", err)
			return source
		}
		archived++
		return u
	}

	if set, ok := context.Get(ParamImageSet).(*model.ImageSet); ok {
		if set.MasterBackground != nil {
			set.MasterBackground.URL = store("background", set.MasterBackground.URL)
		}
		if set.Thumbnail != nil {
			set.Thumbnail.URL = store("thumbnail", set.Thumbnail.URL)
		}
		for i := range set.Portraits {
			set.Portraits[i].URL = store(fmt.Sprintf("portrait-%d", i+1), set.Portraits[i].URL)
		}
	}
	if job, ok := context.Get(ParamVideo).(*model.VideoJob); ok {
		job.OutputURL = store("video", job.OutputURL)
	}

	if failed > 0 {
		c.GetErrorCounter().Add(context.GetContext(), int64(failed))
	}
	c.GetSuccessCounter().Add(context.GetContext(), int64(archived))
}
