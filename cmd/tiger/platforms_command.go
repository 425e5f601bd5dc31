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
)

func newPlatformsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List the supported platforms and their render settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			platforms := model.Platforms()
			if asJSON {
				return writeJSON(cmd, platforms)
			}
			rows := make([][]string, 0, len(platforms))
			for _, p := range platforms {
				rows = append(rows, []string{
					string(p.Platform),
					p.Resolution(),
					p.AspectRatio,
					strconv.Itoa(p.MaxDuration) + "s",
					strconv.Itoa(p.FPS),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Platform", "Resolution", "Aspect", "Max duration", "FPS"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the platforms as JSON")
	return cmd
}
