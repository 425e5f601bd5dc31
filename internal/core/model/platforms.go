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

package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Platform is a distribution target for a rendered episode.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformShorts    Platform = "shorts"
)

// DefaultPlatform is used when a request does not name one.
const DefaultPlatform = PlatformYouTube

// ErrUnknownPlatform is returned when a platform has no render parameters.
var ErrUnknownPlatform = errors.New("unknown platform")

// PlatformSpec holds the render parameters for a platform.
type PlatformSpec struct {
	Platform    Platform `json:"platform"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	AspectRatio string   `json:"aspectRatio"`
	MaxDuration int      `json:"maxDurationSeconds"`
	FPS         int      `json:"fps"`
}

// Resolution renders the spec as WIDTHxHEIGHT.
func (p PlatformSpec) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Ratio renders the spec as WIDTH:HEIGHT, the form video providers accept.
func (p PlatformSpec) Ratio() string {
	return fmt.Sprintf("%d:%d", p.Width, p.Height)
}

var platformSpecs = map[Platform]PlatformSpec{
	PlatformYouTube:   {Platform: PlatformYouTube, Width: 1280, Height: 720, AspectRatio: "16:9", MaxDuration: 10, FPS: 24},
	PlatformTikTok:    {Platform: PlatformTikTok, Width: 720, Height: 1280, AspectRatio: "9:16", MaxDuration: 10, FPS: 30},
	PlatformInstagram: {Platform: PlatformInstagram, Width: 960, Height: 960, AspectRatio: "1:1", MaxDuration: 10, FPS: 30},
	PlatformShorts:    {Platform: PlatformShorts, Width: 720, Height: 1280, AspectRatio: "9:16", MaxDuration: 5, FPS: 30},
}

// LookupPlatform returns the render spec for p. Unknown platforms are a
// configuration error and never fall back to a default.
func LookupPlatform(p Platform) (PlatformSpec, error) {
	spec, ok := platformSpecs[Platform(strings.ToLower(string(p)))]
	if !ok {
		return PlatformSpec{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
	return spec, nil
}

// Platforms lists every supported platform in a stable order.
func Platforms() []PlatformSpec {
	out := make([]PlatformSpec, 0, len(platformSpecs))
	for _, v := range platformSpecs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out
}
