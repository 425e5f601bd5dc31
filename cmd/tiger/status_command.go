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

	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
	"github.com/spf13/cobra"
)

var errUnhealthy = errors.New("one or more providers are unhealthy")

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe every configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor, err := ctx.ensureHealth(cmd.Context())
			if err != nil {
				return err
			}
			report := monitor.Refresh(cmd.Context())
			if asJSON {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, p := range report.Providers {
					kind, message := statusOK, fmt.Sprintf("%dms", p.LatencyMillis)
					if !p.Healthy {
						kind, message = statusError, p.Error
					}
					fmt.Fprintln(out, renderStatusLine(p.Name, kind, message, colorize))
				}
			}
			if report.Status != services.HealthOK {
				return errUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
