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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
)

// ErrEmptyScript is returned for a request without a script.
var ErrEmptyScript = errors.New("script is required")

// EpisodeRequestReader validates the request at the head of the pipeline. Its
// input is either a model.EpisodeRequest or the JSON text of one, as delivered
// by Pub/Sub.
type EpisodeRequestReader struct {
	cor.BaseCommand
	defaultPlatform model.Platform
}

func NewEpisodeRequestReader(name string, defaultPlatform model.Platform) *EpisodeRequestReader {
	out := &EpisodeRequestReader{BaseCommand: *cor.NewBaseCommand(name), defaultPlatform: defaultPlatform}
	out.OutputParamName = ParamRequest
	return out
}

func (r *EpisodeRequestReader) Execute(context cor.Context) {
	req, err := ParseEpisodeRequest(context.Get(r.GetInputParam()), r.defaultPlatform)
	if err != nil {
		r.Fail(context, err)
		return
	}
	r.Succeed(context, req)
	context.Add(cor.CtxOut, req)
}

// ParseEpisodeRequest decodes and validates a request, applying the default
// platform. Platform names are case-insensitive.
func ParseEpisodeRequest(in interface{}, defaultPlatform model.Platform) (model.EpisodeRequest, error) {
	var req model.EpisodeRequest
	switch v := in.(type) {
	case model.EpisodeRequest:
		req = v
	case *model.EpisodeRequest:
		req = *v
	case string:
		if err := json.Unmarshal([]byte(v), &req); err != nil {
			return req, fmt.Errorf("invalid episode request: %w", err)
		}
	case []byte:
		if err := json.Unmarshal(v, &req); err != nil {
			return req, fmt.Errorf("invalid episode request: %w", err)
		}
	default:
		return req, fmt.Errorf("unsupported episode request type %T", in)
	}

	if strings.TrimSpace(req.Script) == "" {
		return req, ErrEmptyScript
	}
	if defaultPlatform == "" {
		defaultPlatform = model.DefaultPlatform
	}
	req = req.WithDefaults(defaultPlatform)
	spec, err := model.LookupPlatform(req.Platform)
	if err != nil {
		return req, err
	}
	req.Platform = spec.Platform
	return req, nil
}
