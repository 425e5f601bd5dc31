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

package cor

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// ParallelChain runs a small, fixed set of independent commands concurrently
// and joins them before returning. Commands in a ParallelChain must write to
// distinct, named output params: there is no CtxIn/CtxOut piping between them.
//
// Every command runs to completion even when a sibling fails, so the partial
// artifacts of the successful branches remain in the Context.
type ParallelChain struct {
	BaseCommand
	commands []Command
}

// NewParallelChain creates an empty parallel chain named name.
func NewParallelChain(name string) *ParallelChain {
	return &ParallelChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure is a no-op: branches never cancel each other.
func (c *ParallelChain) ContinueOnFailure(bool) Chain {
	return c
}

func (c *ParallelChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

func (c *ParallelChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute starts every executable command in its own goroutine and waits for
// all of them.
func (c *ParallelChain) Execute(chCtx Context) {
	outerCtx, chainSpan := c.Tracer.Start(chCtx.GetContext(), fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()

	var g errgroup.Group
	for _, command := range c.commands {
		if !command.IsExecutable(chCtx) {
			chCtx.AddError(command.GetName(), fmt.Errorf("command not executable: %s", command.GetName()))
			continue
		}

		g.Go(func() error {
			commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
			defer commandSpan.End()

			branchCtx := chCtx
			if base, ok := chCtx.(*BaseContext); ok {
				branchCtx = base.branch(commandContext)
			}
			command.Execute(branchCtx)

			if err := chCtx.GetError(command.GetName()); err != nil {
				commandSpan.RecordError(err)
				commandSpan.SetStatus(codes.Error, err.Error())
			} else {
				commandSpan.SetStatus(codes.Ok, "")
			}
			return nil
		})
	}
	_ = g.Wait()

	if chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Error, "parallel chain failed")
	} else {
		chainSpan.SetStatus(codes.Ok, "parallel chain completed successfully")
	}
}
