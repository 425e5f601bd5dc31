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
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
)

// Health statuses.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthUnknown  = "unknown"
)

// ProviderHealth is the result of the last probe of one provider.
type ProviderHealth struct {
	Name          string    `json:"name"`
	Healthy       bool      `json:"healthy"`
	Error         string    `json:"error,omitempty"`
	LatencyMillis int64     `json:"latencyMillis"`
	CheckedAt     time.Time `json:"checkedAt"`
}

// HealthReport aggregates the probes of every provider.
type HealthReport struct {
	Status    string           `json:"status"`
	Providers []ProviderHealth `json:"providers"`
	CheckedAt time.Time        `json:"checkedAt,omitempty"`
}

// HealthMonitor probes the configured providers and caches the results. It
// implements cron.Job so it can be refreshed on a schedule.
type HealthMonitor struct {
	pingers map[string]providers.Pinger
	keys    []string
	timeout time.Duration

	mu      sync.RWMutex
	results map[string]ProviderHealth
	checked time.Time

	cron *cron.Cron
}

// NewHealthMonitor creates a monitor for pingers, probed in the order of keys.
func NewHealthMonitor(pingers map[string]providers.Pinger, keys []string, timeout time.Duration) *HealthMonitor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HealthMonitor{
		pingers: pingers,
		keys:    keys,
		timeout: timeout,
		results: make(map[string]ProviderHealth),
	}
}

// Run implements cron.Job.
func (m *HealthMonitor) Run() {
	report := m.Refresh(context.Background())
	slog.Info("provider health refreshed", "status", report.Status)
}

// Refresh probes every provider concurrently and returns the new report.
func (m *HealthMonitor) Refresh(ctx context.Context) HealthReport {
	results := make([]ProviderHealth, len(m.keys))
	var g errgroup.Group
	for i, key := range m.keys {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()
			start := time.Now()
			err := m.pingers[key].Ping(probeCtx)
			results[i] = ProviderHealth{
				Name:          key,
				Healthy:       err == nil,
				LatencyMillis: time.Since(start).Milliseconds(),
				CheckedAt:     time.Now().UTC(),
			}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	m.mu.Lock()
	for _, r := range results {
		m.results[r.Name] = r
	}
	m.checked = time.Now().UTC()
	m.mu.Unlock()
	return m.Report()
}

// Report returns the cached probe results without probing.
func (m *HealthMonitor) Report() HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := HealthReport{Status: HealthOK, Providers: make([]ProviderHealth, 0, len(m.keys)), CheckedAt: m.checked}
	for _, key := range m.keys {
		r, ok := m.results[key]
		if !ok {
			report.Status = HealthUnknown
			report.Providers = append(report.Providers, ProviderHealth{Name: key})
			continue
		}
		if !r.Healthy && report.Status == HealthOK {
			report.Status = HealthDegraded
		}
		report.Providers = append(report.Providers, r)
	}
	return report
}

// Start schedules Refresh with a cron expression that includes seconds.
func (m *HealthMonitor) Start(spec string) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddJob(spec, m); err != nil {
		return err
	}
	c.Start()
	m.cron = c
	slog.Info("provider health checks scheduled", "spec", spec)
	return nil
}

// Stop stops the schedule and waits up to ten seconds for a running probe.
func (m *HealthMonitor) Stop() {
	if m.cron == nil {
		return
	}
	ctx := m.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		slog.Warn("health check scheduler did not stop in time")
	}
}
