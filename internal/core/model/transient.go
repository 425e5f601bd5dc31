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

// Package model defines the data structures that flow through the episode
// generation pipeline. The types in this file are transient: they live for the
// duration of a single pipeline run and are owned exclusively by that run.
//
// Structs:
//   - EpisodeRequest: The immutable input to a pipeline run.
//   - CharacterProfile / ScriptAnalysis: Structured entities extracted from a script.
//   - GeneratedImage / ImageSet: The image bundle produced for an episode.
//   - ScriptReview: The editorial critique of the script.
//   - SynthesisResult: The reconciliation of two independent analyses.
//   - ComplianceVerdict: The outcome of the compliance gate.
//   - VideoJob: The asynchronous rendering job and its state.
//   - EpisodeResult: The final, assembled output of a successful run.
package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/extract"
)

// MaxTitleLength is the maximum number of characters allowed in an episode title.
const MaxTitleLength = 60

// DefaultMaxSegments caps the number of character segments carried forward from
// an analysis, which in turn caps the number of portrait provider calls.
const DefaultMaxSegments = 4

// Role identifies the part a person plays in the narrative.
type Role string

const (
	RoleVictim    Role = "victim"
	RoleSuspect   Role = "suspect"
	RoleDetective Role = "detective"
	RoleWitness   Role = "witness"
	RoleFamily    Role = "family"
)

// Valid reports whether the role is one of the known narrative roles.
func (r Role) Valid() bool {
	switch r {
	case RoleVictim, RoleSuspect, RoleDetective, RoleWitness, RoleFamily:
		return true
	}
	return false
}

// ImageType classifies a generated image within an ImageSet.
type ImageType string

const (
	ImageTypeMasterBackground ImageType = "master_background"
	ImageTypeThumbnail        ImageType = "youtube_thumbnail"
	ImageTypePortrait         ImageType = "subject_portrait"
)

// EpisodeRequest is the input to the pipeline. It is never mutated once submitted.
type EpisodeRequest struct {
	Script   string   `json:"script"`
	Platform Platform `json:"platform,omitempty"`
	UserID   string   `json:"userId,omitempty"`
}

// WithDefaults returns a copy of the request with an empty platform replaced by
// the given default.
func (r EpisodeRequest) WithDefaults(platform Platform) EpisodeRequest {
	if r.Platform == "" {
		r.Platform = platform
	}
	return r
}

// CharacterProfile describes a single person extracted from the script.
type CharacterProfile struct {
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	Description string `json:"description"`
	AgeRange    string `json:"ageRange"`
	Gender      string `json:"gender"`
}

// ScriptAnalysis is the structured view of a script used to drive image generation.
type ScriptAnalysis struct {
	EpisodeTitle   string             `json:"episodeTitle"`
	MasterLocation string             `json:"masterLocation"`
	Timeframe      string             `json:"timeframe"`
	Segments       []CharacterProfile `json:"segments"`
}

// RequiredFields implements extract.Schema.
func (a *ScriptAnalysis) RequiredFields() []string {
	return []string{"episodeTitle", "masterLocation", "timeframe", "segments"}
}

// Validate checks every required field of the analysis and reports all problems
// at once.
func (a *ScriptAnalysis) Validate() []extract.FieldError {
	var out []extract.FieldError
	out = extract.Required(out, "episodeTitle", a.EpisodeTitle)
	out = extract.Required(out, "masterLocation", a.MasterLocation)
	out = extract.Required(out, "timeframe", a.Timeframe)
	if a.Segments == nil {
		out = append(out, extract.Missing("segments"))
	}
	for i, s := range a.Segments {
		prefix := extract.Index("segments", i)
		out = extract.Required(out, prefix+".name", s.Name)
		if !s.Role.Valid() {
			out = append(out, extract.Malformed(prefix+".role", "unknown role %q", s.Role))
		}
	}
	return out
}

// Normalize enforces the title length limit and the segment cap. It returns the
// number of segments that were dropped.
func (a *ScriptAnalysis) Normalize(maxSegments int) (dropped int) {
	a.EpisodeTitle = TruncateTitle(a.EpisodeTitle)
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}
	if len(a.Segments) > maxSegments {
		dropped = len(a.Segments) - maxSegments
		a.Segments = a.Segments[:maxSegments]
	}
	return dropped
}

// TruncateTitle trims whitespace and cuts the title to MaxTitleLength runes.
func TruncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	return strings.TrimSpace(string([]rune(title)[:MaxTitleLength]))
}

// GeneratedImage is the product of a single image provider call.
type GeneratedImage struct {
	URL      string    `json:"url"`
	Type     ImageType `json:"type"`
	Prompt   string    `json:"prompt"`
	Subject  string    `json:"subject,omitempty"`
	Role     Role      `json:"role,omitempty"`
	Location string    `json:"location,omitempty"`
}

// ImageSetMetadata summarizes an ImageSet. GenerationTime is in milliseconds.
type ImageSetMetadata struct {
	TotalImages    int   `json:"totalImages"`
	GenerationTime int64 `json:"generationTime"`
}

// ImageSet is the fixed-shape bundle of images generated for one episode. Any of
// its images may be absent when the corresponding provider call failed.
type ImageSet struct {
	Analysis         *ScriptAnalysis  `json:"analysis"`
	MasterBackground *GeneratedImage  `json:"masterBackground,omitempty"`
	Thumbnail        *GeneratedImage  `json:"thumbnail,omitempty"`
	Portraits        []GeneratedImage `json:"portraits"`
	Metadata         ImageSetMetadata `json:"metadata"`
}

// CountImages returns the number of images that actually exist in the set.
func (s *ImageSet) CountImages() int {
	if s == nil {
		return 0
	}
	total := len(s.Portraits)
	if s.MasterBackground != nil {
		total++
	}
	if s.Thumbnail != nil {
		total++
	}
	return total
}

// PortraitDescriptions returns a short textual description of every portrait,
// as consumed by the compliance gate.
func (s *ImageSet) PortraitDescriptions() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Portraits))
	for _, p := range s.Portraits {
		out = append(out, p.Prompt)
	}
	return out
}

// KeyImage returns the image used to seed video generation: the thumbnail if
// present, then the background, then the first portrait.
func (s *ImageSet) KeyImage() *GeneratedImage {
	if s == nil {
		return nil
	}
	if s.Thumbnail != nil {
		return s.Thumbnail
	}
	if s.MasterBackground != nil {
		return s.MasterBackground
	}
	if len(s.Portraits) > 0 {
		return &s.Portraits[0]
	}
	return nil
}

// ScriptReview is the editorial analysis of a script produced by the review model.
type ScriptReview struct {
	Hook            string   `json:"hook"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	OptimizedScript string   `json:"optimizedScript"`
	Score           int      `json:"score"`
}

// RequiredFields implements extract.Schema.
func (r *ScriptReview) RequiredFields() []string {
	return []string{"hook", "optimizedScript", "score"}
}

// Validate implements extract.Validatable.
func (r *ScriptReview) Validate() []extract.FieldError {
	var out []extract.FieldError
	out = extract.Required(out, "hook", r.Hook)
	out = extract.Required(out, "optimizedScript", r.OptimizedScript)
	out = extract.InRange(out, "score", r.Score, 0, 100)
	return out
}

// BestElement is a single element selected from one of the analyses.
type BestElement struct {
	Element string `json:"element"`
	Source  string `json:"source"`
	Reason  string `json:"reason,omitempty"`
}

// Discrepancy records a disagreement between the two analyses and how it was resolved.
type Discrepancy struct {
	Aspect     string `json:"aspect"`
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Resolution string `json:"resolution"`
}

// Recommendation is the synthesized output script and its quality estimate.
type Recommendation struct {
	FinalScript  string `json:"finalScript"`
	QualityScore int    `json:"qualityScore"`
}

// SynthesisResult reconciles two independent analyses into one recommendation.
type SynthesisResult struct {
	BestElements              []BestElement  `json:"bestElements"`
	Discrepancies             []Discrepancy  `json:"discrepancies"`
	SynthesizedRecommendation Recommendation `json:"synthesizedRecommendation"`
	ConfidenceLevel           string         `json:"confidenceLevel"`
}

// RequiredFields implements extract.Schema.
func (s *SynthesisResult) RequiredFields() []string {
	return []string{"bestElements", "synthesizedRecommendation", "confidenceLevel"}
}

// Validate implements extract.Validatable.
func (s *SynthesisResult) Validate() []extract.FieldError {
	var out []extract.FieldError
	if s.BestElements == nil {
		out = append(out, extract.Missing("bestElements"))
	}
	for i, e := range s.BestElements {
		out = extract.Required(out, extract.Index("bestElements", i)+".source", e.Source)
	}
	out = extract.InRange(out, "synthesizedRecommendation.qualityScore", s.SynthesizedRecommendation.QualityScore, 0, 100)
	switch s.ConfidenceLevel {
	case "low", "medium", "high":
	case "":
		out = append(out, extract.Missing("confidenceLevel"))
	default:
		out = append(out, extract.Malformed("confidenceLevel", "expected low, medium or high, got %q", s.ConfidenceLevel))
	}
	return out
}

// Compliance is the outcome of a compliance check.
type Compliance string

const (
	CompliancePass    Compliance = "pass"
	ComplianceWarning Compliance = "warning"
	ComplianceFail    Compliance = "fail"
)

// Valid reports whether c is a known compliance outcome.
func (c Compliance) Valid() bool {
	return c == CompliancePass || c == ComplianceWarning || c == ComplianceFail
}

// ComplianceVerdict is the result of the compliance gate.
type ComplianceVerdict struct {
	OverallCompliance     Compliance            `json:"overallCompliance"`
	PlatformCompliance    map[string]Compliance `json:"platformCompliance,omitempty"`
	RequiredChanges       []string              `json:"requiredChanges"`
	AlternativeApproaches []string              `json:"alternativeApproaches"`
	Explanation           string                `json:"explanation,omitempty"`
}

// RequiredFields implements extract.Schema.
func (v *ComplianceVerdict) RequiredFields() []string {
	return []string{"overallCompliance", "requiredChanges", "alternativeApproaches"}
}

// Validate implements extract.Validatable.
func (v *ComplianceVerdict) Validate() []extract.FieldError {
	var out []extract.FieldError
	switch {
	case v.OverallCompliance == "":
		out = append(out, extract.Missing("overallCompliance"))
	case !v.OverallCompliance.Valid():
		out = append(out, extract.Malformed("overallCompliance", "unknown verdict %q", v.OverallCompliance))
	}
	for platform, c := range v.PlatformCompliance {
		if !c.Valid() {
			out = append(out, extract.Malformed("platformCompliance."+platform, "unknown verdict %q", c))
		}
	}
	if v.OverallCompliance == ComplianceFail && len(v.AlternativeApproaches) == 0 {
		out = append(out, extract.Missing("alternativeApproaches"))
	}
	return out
}

// Failed reports whether the verdict is a hard stop.
func (v *ComplianceVerdict) Failed() bool {
	return v != nil && v.OverallCompliance == ComplianceFail
}

// VideoStatus is the provider-reported state of a rendering job.
type VideoStatus string

const (
	VideoPending   VideoStatus = "PENDING"
	VideoRunning   VideoStatus = "RUNNING"
	VideoSucceeded VideoStatus = "SUCCEEDED"
	VideoFailed    VideoStatus = "FAILED"
)

// Terminal reports whether no further transitions are possible.
func (s VideoStatus) Terminal() bool {
	return s == VideoSucceeded || s == VideoFailed
}

// VideoJob is a video rendering job. It only changes state through polling.
type VideoJob struct {
	ID            string      `json:"id"`
	Status        VideoStatus `json:"status"`
	OutputURL     string      `json:"outputUrl,omitempty"`
	FailureReason string      `json:"failureReason,omitempty"`
	Platform      Platform    `json:"platform"`
	Attempts      int         `json:"attempts"`
}

// EpisodeScript holds the original and optimized script text.
type EpisodeScript struct {
	Original  string `json:"original"`
	Optimized string `json:"optimized"`
}

// EpisodeAnalysis bundles the analytical artifacts of a run.
type EpisodeAnalysis struct {
	Review     *ScriptReview      `json:"review,omitempty"`
	Synthesis  *SynthesisResult   `json:"synthesis,omitempty"`
	Compliance *ComplianceVerdict `json:"compliance,omitempty"`
}

// EpisodeAssets bundles the generated media of a run.
type EpisodeAssets struct {
	Images *ImageSet `json:"images,omitempty"`
	Video  *VideoJob `json:"video,omitempty"`
}

// EpisodeResult is the final output of a successful pipeline run.
type EpisodeResult struct {
	EpisodeID string          `json:"episodeId"`
	Script    EpisodeScript   `json:"script"`
	Analysis  EpisodeAnalysis `json:"analysis"`
	Assets    EpisodeAssets   `json:"assets"`
	Platform  Platform        `json:"platform"`
	UserID    string          `json:"userId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
