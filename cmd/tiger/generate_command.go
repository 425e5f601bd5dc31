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

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/workflow"
	"github.com/spf13/cobra"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string
	var platform string
	var userID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a full episode: analysis, images, compliance and video",
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(scriptPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}

			episodes := workflow.NewEpisodeWorkflow(components)
			result, err := episodes.GenerateEpisode(cmd.Context(), model.EpisodeRequest{
				Script:   script,
				Platform: model.Platform(platform),
				UserID:   userID,
			})
			if err != nil {
				return explainFailure(cmd, err, asJSON)
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEpisode(result))
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Path to the script file, or - for stdin")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Target platform (youtube, tiktok, instagram, shorts)")
	cmd.Flags().StringVar(&userID, "user", "", "User id recorded with the episode")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the episode as JSON")
	return cmd
}

func renderEpisode(result *model.EpisodeResult) string {
	rows := [][]string{
		{"Episode", result.EpisodeID},
		{"Platform", string(result.Platform)},
	}
	if images := result.Assets.Images; images != nil {
		if images.Analysis != nil {
			rows = append(rows, []string{"Title", images.Analysis.EpisodeTitle})
		}
		rows = append(rows, []string{"Images", strconv.Itoa(images.CountImages())})
	}
	if s := result.Analysis.Synthesis; s != nil {
		rows = append(rows,
			[]string{"Quality score", strconv.Itoa(s.SynthesizedRecommendation.QualityScore)},
			[]string{"Confidence", s.ConfidenceLevel})
	}
	if c := result.Analysis.Compliance; c != nil {
		rows = append(rows, []string{"Compliance", string(c.OverallCompliance)})
	}
	if v := result.Assets.Video; v != nil {
		rows = append(rows, []string{"Video", v.OutputURL})
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

// explainFailure prints what is known about a failed run and returns the error
// so the exit status is non-zero.
func explainFailure(cmd *cobra.Command, err error, asJSON bool) error {
	var rejection *model.ComplianceRejection
	if errors.As(err, &rejection) {
		if asJSON {
			_ = writeJSON(cmd, map[string]any{"compliance": rejection.Verdict, "suggestions": rejection.Suggestions()})
			return err
		}
		rows := make([][]string, 0, len(rejection.Suggestions()))
		for _, s := range rejection.Suggestions() {
			rows = append(rows, []string{s})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Suggested approach"}, rows, nil))
		return err
	}

	var failure *model.EpisodeFailure
	if errors.As(err, &failure) && failure.Partial != nil && failure.Partial.Images != nil {
		rows := make([][]string, 0)
		for _, img := range []*model.GeneratedImage{failure.Partial.Images.MasterBackground, failure.Partial.Images.Thumbnail} {
			if img != nil {
				rows = append(rows, []string{string(img.Type), img.URL})
			}
		}
		for _, img := range failure.Partial.Images.Portraits {
			rows = append(rows, []string{img.Subject, img.URL})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Failed at %s (%s). Images kept:\n%s\n", failure.Stage, failure.Reason(), renderTable([]string{"Image", "URL"}, rows, nil))
	}
	return err
}
