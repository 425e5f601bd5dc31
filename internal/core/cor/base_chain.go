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

// Package cor (Chain of Responsibility) provides the building blocks the
// episode pipeline is assembled from. This file defines `BaseChain`, the
// default implementation of the `Chain` interface.
//
// A `BaseChain` is itself a `Command`, so chains nest inside other chains. It
// runs its commands strictly in order and pipes the output of each one into
// the next.
//
// Logic Flow:
//  1. **Telemetry**: A span is opened for the chain and a child span for each command.
//  2. **Error Handling**: Once the Context holds an error, the remaining commands
//     are skipped unless `continueOnFailure` is set. A failed stage, or a
//     compliance rejection, stops the pipeline before later stages spend
//     provider budget.
//  3. **Context Management**: Each command runs with the Go context of its own
//     span, and the chain's context is restored afterwards.
//  4. **Data Piping**: After each command the value in `CtxOut` is moved to
//     `CtxIn` ("flip-flop"), so the output of one command is the input of the next.
package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BaseChain is the default implementation of the Chain interface. It holds the
// commands to be executed sequentially.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool      // Keep running commands after one of them records an error.
	commands          []Command // The ordered list of commands this chain executes.
}

// NewBaseChain is the constructor for BaseChain.
//
// Inputs:
//   - name: The chain name, used for logging and telemetry.
//
// Outputs:
//   - *BaseChain: An empty chain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure sets the error handling behavior of the chain. When true,
// every command runs even if earlier ones recorded errors.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends command to the end of the execution sequence.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// Commands returns the commands of the chain in execution order.
func (c *BaseChain) Commands() []Command {
	return c.commands
}

// IsExecutable only needs a Go context; each command checks its own inputs.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute runs the commands in order against chCtx.
//
// Inputs:
//   - chCtx: The Context shared by the whole pipeline run.
func (c *BaseChain) Execute(chCtx Context) {
	// Keep the Go context this chain started with, so it can be handed back to
	// the caller once the chain is done.
	parentCtx := chCtx.GetContext()

	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	for _, command := range c.commands {
		// A previous stage failed; stop unless told to carry on.
		if chCtx.HasErrors() && !c.continueOnFailure {
			slog.DebugContext(outerCtx, "skipping command after earlier failure", "chain", c.GetName(), "command", command.GetName())
			break
		}

		// Child span per command, so each stage shows up on its own in the trace.
		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		commandSpan.SetAttributes(attribute.String("chain", c.GetName()))

		if command.IsExecutable(chCtx) {
			// Run the command under its own span.
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)

			// Reset to the chain's context. Without this the next command's span
			// would become a grandchild of this one.
			chCtx.SetContext(outerCtx)
		} else {
			slog.WarnContext(outerCtx, "command not executable", "chain", c.GetName(), "command", command.GetName())
			commandSpan.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", command.GetName()))
		}

		// Only this command's own error marks its span; earlier failures belong
		// to the spans that produced them.
		if err := chCtx.GetError(command.GetName()); err != nil {
			commandSpan.RecordError(err)
			commandSpan.SetStatus(codes.Error, err.Error())
		} else {
			commandSpan.SetStatus(codes.Ok, "")
		}
		commandSpan.End()

		// --- Data Piping Logic ---
		// The value the command placed in CtxOut...
		outputValue := chCtx.Get(CtxOut)
		// ...becomes CtxIn for the next command.
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	// Final status for the whole chain.
	if chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	} else {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	}
}
