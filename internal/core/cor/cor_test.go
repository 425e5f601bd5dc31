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

package cor_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
)

// appendCommand appends its suffix to the string under its input key.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	err    error
	runs   *atomic.Int32
}

func newAppend(name, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix, runs: &atomic.Int32{}}
}

func (c *appendCommand) Execute(context cor.Context) {
	c.runs.Add(1)
	if c.err != nil {
		c.Fail(context, c.err)
		return
	}
	in, _ := context.Get(c.GetInputParam()).(string)
	c.Succeed(context, in+c.suffix)
}

func TestBaseChain_PipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("letters")
	chain.AddCommand(newAppend("a", "a")).AddCommand(newAppend("b", "b")).AddCommand(newAppend("c", "c"))

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(cor.CtxIn, ">")
	chain.Execute(chCtx)

	assert.False(t, chCtx.HasErrors())
	assert.Equal(t, chCtx.Get(cor.CtxIn), ">abc")
	assert.Nil(t, chCtx.Get(cor.CtxOut))
}

func TestBaseChain_StopsAfterFailure(t *testing.T) {
	failing := newAppend("b", "b")
	failing.err = errors.New("boom")
	last := newAppend("c", "c")

	chain := cor.NewBaseChain("letters")
	chain.AddCommand(newAppend("a", "a")).AddCommand(failing).AddCommand(last)

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(cor.CtxIn, ">")
	chain.Execute(chCtx)

	assert.Equal(t, chCtx.GetError("b").Error(), "boom")
	assert.Equal(t, last.runs.Load(), int32(0))
}

func TestBaseChain_ContinueOnFailure(t *testing.T) {
	failing := newAppend("a", "a")
	failing.err = errors.New("boom")
	last := newAppend("b", "b")

	chain := cor.NewBaseChain("letters").ContinueOnFailure(true)
	chain.AddCommand(failing).AddCommand(last)

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(cor.CtxIn, ">")
	chain.Execute(chCtx)

	assert.Equal(t, last.runs.Load(), int32(1))
	assert.Equal(t, len(chCtx.GetErrors()), 1)
}

func TestBaseChain_SkipsNonExecutable(t *testing.T) {
	cmd := newAppend("a", "a")
	chain := cor.NewBaseChain("letters")
	chain.AddCommand(cmd)

	chCtx := cor.NewBaseContextWith(context.Background())
	chain.Execute(chCtx)

	assert.Equal(t, cmd.runs.Load(), int32(0))
	assert.False(t, chCtx.HasErrors())
}

func TestParallelChain_RunsEveryBranch(t *testing.T) {
	left := newAppend("left", "L")
	left.OutputParamName = "left"
	right := newAppend("right", "R")
	right.OutputParamName = "right"
	right.err = errors.New("right failed")
	other := newAppend("other", "O")
	other.OutputParamName = "other"

	chain := cor.NewParallelChain("fan_out")
	chain.AddCommand(left).AddCommand(right).AddCommand(other)

	chCtx := cor.NewBaseContextWith(context.Background())
	chCtx.Add(cor.CtxIn, "x")
	chain.Execute(chCtx)

	assert.Equal(t, chCtx.Get("left"), "xL")
	assert.Equal(t, chCtx.Get("other"), "xO")
	assert.Nil(t, chCtx.Get("right"))
	assert.Equal(t, chCtx.GetError("right").Error(), "right failed")
	assert.Equal(t, left.runs.Load()+right.runs.Load()+other.runs.Load(), int32(3))
}

func TestParallelChain_NotExecutable(t *testing.T) {
	cmd := newAppend("needs_input", "x")
	chain := cor.NewParallelChain("fan_out")
	chain.AddCommand(cmd)

	chCtx := cor.NewBaseContextWith(context.Background())
	chain.Execute(chCtx)

	assert.Equal(t, cmd.runs.Load(), int32(0))
	assert.Error(t, chCtx.GetError("needs_input"))
}

func TestBaseContext(t *testing.T) {
	chCtx := cor.NewBaseContext()
	assert.Nil(t, chCtx.GetContext())
	chCtx.SetContext(context.Background())
	assert.NotNil(t, chCtx.GetContext())

	chCtx.Add("k", 1).Add("j", 2)
	assert.Equal(t, chCtx.Get("k"), 1)
	chCtx.Remove("k")
	assert.Nil(t, chCtx.Get("k"))

	chCtx.AddError("cmd", errors.New("bad"))
	errs := chCtx.GetErrors()
	delete(errs, "cmd")
	assert.True(t, chCtx.HasErrors())
}
