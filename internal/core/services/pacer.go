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

package services

import (
	"context"
	"time"
)

// Pacer runs tasks strictly one after another and waits a fixed interval
// after each task completes before the next one begins. It is the throttle in
// front of the image provider for portrait generation.
type Pacer struct {
	interval time.Duration
}

// NewPacer creates a Pacer. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Each runs task for i in [0, n) sequentially and returns one error slot per
// task. Tasks that never started because ctx ended get ctx's error.
func (p *Pacer) Each(ctx context.Context, n int, task func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			fill(errs[i:], err)
			return errs
		}
		errs[i] = task(ctx, i)
		if i == n-1 || p.interval <= 0 {
			continue
		}
		if err := p.wait(ctx); err != nil {
			fill(errs[i+1:], err)
			return errs
		}
	}
	return errs
}

func (p *Pacer) wait(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func fill(errs []error, err error) {
	for i := range errs {
		errs[i] = err
	}
}
