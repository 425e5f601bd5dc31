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
	"fmt"
	"strconv"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type analysisReport struct {
	Review    *model.ScriptReview    `json:"review"`
	Analysis  *model.ScriptAnalysis  `json:"analysis"`
	Synthesis *model.SynthesisResult `json:"synthesis"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Review and analyze a script, then reconcile both analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(scriptPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}

			var report analysisReport
			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(func() (err error) {
				report.Review, err = components.Reviewer.Review(gctx, script)
				return err
			})
			g.Go(func() (err error) {
				report.Analysis, err = components.Analyzer.Analyze(gctx, script)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}
			report.Synthesis, err = components.Synthesizer.Compare(cmd.Context(), script, report.Review, report.Analysis)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReport(&report))
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Path to the script file, or - for stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	return cmd
}

func renderReport(r *analysisReport) string {
	summary := renderTable([]string{"Field", "Value"}, [][]string{
		{"Title", r.Analysis.EpisodeTitle},
		{"Location", r.Analysis.MasterLocation},
		{"Timeframe", r.Analysis.Timeframe},
		{"Review score", strconv.Itoa(r.Review.Score)},
		{"Quality score", strconv.Itoa(r.Synthesis.SynthesizedRecommendation.QualityScore)},
		{"Confidence", r.Synthesis.ConfidenceLevel},
		{"Hook", truncate(r.Review.Hook, 80)},
	}, nil)

	rows := make([][]string, 0, len(r.Analysis.Segments))
	for _, s := range r.Analysis.Segments {
		rows = append(rows, []string{s.Name, string(s.Role), s.AgeRange, truncate(s.Description, 60)})
	}
	cast := renderTable([]string{"Name", "Role", "Age", "Description"}, rows, nil)
	return summary + "\n" + cast
}
