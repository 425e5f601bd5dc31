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
// episode pipeline is assembled from. A pipeline stage is a Command, a sequence
// of stages is a Chain, and all of them read and write a shared Context that
// belongs to exactly one pipeline run. By using interfaces, the stages can be
// tested on their own and combined into sequential or parallel chains freely.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe data between the commands of a
// BaseChain.
const (
	// CtxIn holds the primary input of a command. BaseChain fills it with the
	// output of the previous command.
	CtxIn = "__IN__"
	// CtxOut is where a command places its primary output. BaseChain picks it
	// up from here and hands it to the next command as CtxIn.
	CtxOut = "__OUT__"
)

// Context is the shared state of a single pipeline run. Implementations must
// be safe for concurrent use, since a ParallelChain executes several commands
// against the same Context at once.
type Context interface {
	// SetContext sets the Go context. It carries request cancellation and the
	// OpenTelemetry span of the command currently executing.
	SetContext(context context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a value under key. This is the primary way commands share
	// data. It returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error. The key should be the name of the command
	// that failed; EpisodeWorkflow uses it to tell which stage broke.
	AddError(key string, err error)

	// GetErrors returns a copy of all recorded errors.
	GetErrors() map[string]error

	// GetError returns the error recorded under key, if any.
	GetError(key string) error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool
}

// Executable is anything with core execution logic.
type Executable interface {
	// Execute contains the business logic. It reads its inputs from the
	// Context and writes its outputs back to it.
	Execute(context Context)
}

// Command is an atomic, testable unit of work. One Command instance may serve
// many concurrent runs, so it must keep per-run state in the Context only.
type Command interface {
	Executable // Embeds the Execute method.

	// GetName returns the unique name used in traces, metrics and errors.
	GetName() string

	// GetInputParam returns the Context key of the primary input.
	GetInputParam() string

	// GetOutputParam returns the Context key of the primary output.
	GetOutputParam() string

	// IsExecutable checks whether the command can run against the current
	// state of the Context. BaseChain calls it before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer of the command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter used to create metrics.
	GetMeter() metric.Meter

	// GetSuccessCounter counts successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter counts failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. It is itself a Command, so chains nest
// inside other chains (Composite Pattern). The Chain orchestrates the execution
// of its child commands.
type Chain interface {
	Command // A Chain is a Command.

	// ContinueOnFailure tells the chain whether to keep executing after one of
	// its commands adds an error to the Context.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}
