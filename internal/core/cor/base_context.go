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

// Package cor (Chain of Responsibility). This file defines `BaseContext`, the
// default implementation of the `Context` interface.
//
// The Context is the "property bag" passed through the whole episode pipeline.
// Each command reads its inputs from it, does its work and writes its results
// back for the commands that follow.
//
// This implementation includes:
//   - A map of arbitrary data (`data`).
//   - A map of errors recorded by commands, keyed by command name (`errors`).
//   - The Go `context.Context` carrying cancellation and the current span.
//   - A read/write mutex shared by every branch view of the Context.
package cor

import (
	"context"
	"sync"
)

// BaseContext is the default, mutex-guarded implementation of Context. The Go
// context is guarded too: a ParallelChain hands each branch its own copy of the
// BaseContext view (see branch) so spans of concurrent commands do not clash.
type BaseContext struct {
	mu      *sync.RWMutex          // Shared with branch views; guards every field below.
	data    map[string]interface{} // Arbitrary key-value data.
	errors  map[string]error       // Errors keyed by the name of the command that produced them.
	context context.Context        // Cancellation and request-scoped values such as spans.
}

// NewBaseContext is the constructor for BaseContext. It initializes the maps
// so the Context is ready for use.
//
// Outputs:
//   - Context: A new, empty Context with no Go context set.
func NewBaseContext() Context {
	return &BaseContext{
		mu:     &sync.RWMutex{},
		data:   make(map[string]interface{}),
		errors: make(map[string]error),
	}
}

// NewBaseContextWith returns an empty Context bound to ctx.
func NewBaseContextWith(ctx context.Context) Context {
	out := NewBaseContext()
	out.SetContext(ctx)
	return out
}

// branch returns a view that shares data and errors with c but carries its own
// Go context.
func (c *BaseContext) branch(ctx context.Context) *BaseContext {
	return &BaseContext{mu: c.mu, data: c.data, errors: c.errors, context: ctx}
}

// SetContext sets the underlying Go context. BaseChain uses it to scope each
// command to its own span.
func (c *BaseContext) SetContext(context context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = context
}

// GetContext returns the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.context
}

// Add stores value under key and returns the Context for chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return c
}

// AddError records err under key, normally the name of the failing command.
func (c *BaseContext) AddError(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[key] = err
}

// GetErrors returns a copy of the recorded errors, so callers can range over
// it while other commands keep writing.
func (c *BaseContext) GetErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]error, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

func (c *BaseContext) GetError(key string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errors[key]
}

func (c *BaseContext) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// HasErrors reports whether any command recorded an error.
func (c *BaseContext) HasErrors() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.errors) > 0
}
