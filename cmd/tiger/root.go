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
	"os"

	"github.com/jaycherian/gcp-go-true-crime/internal/telemetry"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&commandContext{})
}

func newRootCommandWith(ctx *commandContext) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "tiger",
		Short:         "True crime episode studio CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			telemetry.SetupLoggingTo(os.Stderr, telemetry.ParseLevel(logLevel))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.configDir, "config-dir", "", "Directory holding the .env TOML files (default: $GCP_CONFIG_PREFIX or ./configs)")
	rootCmd.PersistentFlags().StringVar(&ctx.runtime, "runtime", "", "Configuration runtime overlay (default: $GCP_RUNTIME or local)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newPlatformsCommand())

	return rootCmd
}
