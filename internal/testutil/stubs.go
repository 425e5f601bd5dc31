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

package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/providers"
)

// StubText is an in-memory providers.TextModel. Each call returns the next
// response; the last one repeats.
type StubText struct {
	ModelName string
	Responses []string
	Err       error
	PingErr   error

	mu      sync.Mutex
	prompts []string
}

// NewStubText returns a StubText answering with responses in order.
func NewStubText(name string, responses ...string) *StubText {
	return &StubText{ModelName: name, Responses: responses}
}

func (s *StubText) Name() string { return s.ModelName }

func (s *StubText) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "", fmt.Errorf("%s: no response configured", s.ModelName)
	}
	if n >= len(s.Responses) {
		n = len(s.Responses) - 1
	}
	return s.Responses[n], nil
}

func (s *StubText) Ping(ctx context.Context) error { return s.PingErr }

// Prompts returns every prompt received so far.
func (s *StubText) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Calls returns the number of Generate calls.
func (s *StubText) Calls() int {
	return len(s.Prompts())
}

// StubImages is an in-memory providers.ImageModel returning a URL derived from
// the seed. Fail, when set, decides per request whether the call errors.
type StubImages struct {
	BaseURL string
	Fail    func(req providers.ImageRequest) error
	PingErr error

	mu       sync.Mutex
	requests []providers.ImageRequest
}

func (s *StubImages) Name() string { return "stub-images" }

func (s *StubImages) GenerateImage(ctx context.Context, req providers.ImageRequest) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.Fail != nil {
		if err := s.Fail(req); err != nil {
			return "", err
		}
	}
	base := s.BaseURL
	if base == "" {
		base = "https://images.example.com"
	}
	return fmt.Sprintf("%s/%d.png", base, req.Seed), nil
}

func (s *StubImages) Ping(ctx context.Context) error { return s.PingErr }

// Requests returns every request received so far.
func (s *StubImages) Requests() []providers.ImageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]providers.ImageRequest(nil), s.requests...)
}

// StubVideo is an in-memory providers.VideoModel. Task walks through Tasks and
// repeats the last entry; TaskErrs, when set, is consumed first.
type StubVideo struct {
	JobID     string
	SubmitErr error
	Tasks     []providers.VideoTask
	TaskErrs  []error
	PingErr   error

	mu          sync.Mutex
	submissions []providers.VideoSubmission
	polls       int
}

// Succeeding returns a StubVideo that reports RUNNING running times and then
// SUCCEEDED with url.
func Succeeding(running int, url string) *StubVideo {
	tasks := make([]providers.VideoTask, 0, running+1)
	for i := 0; i < running; i++ {
		tasks = append(tasks, providers.VideoTask{ID: "job-1", Status: model.VideoRunning})
	}
	tasks = append(tasks, providers.VideoTask{ID: "job-1", Status: model.VideoSucceeded, Output: []string{url}})
	return &StubVideo{JobID: "job-1", Tasks: tasks}
}

func (s *StubVideo) Name() string { return "stub-video" }

func (s *StubVideo) Submit(ctx context.Context, sub providers.VideoSubmission) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)
	if s.SubmitErr != nil {
		return "", s.SubmitErr
	}
	return s.JobID, nil
}

func (s *StubVideo) Task(ctx context.Context, id string) (*providers.VideoTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if len(s.TaskErrs) > 0 {
		err := s.TaskErrs[0]
		s.TaskErrs = s.TaskErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(s.Tasks) == 0 {
		return &providers.VideoTask{ID: id, Status: model.VideoPending}, nil
	}
	task := s.Tasks[0]
	if len(s.Tasks) > 1 {
		s.Tasks = s.Tasks[1:]
	}
	return &task, nil
}

func (s *StubVideo) Ping(ctx context.Context) error { return s.PingErr }

// Polls returns the number of Task calls.
func (s *StubVideo) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// Submissions returns every submission received so far.
func (s *StubVideo) Submissions() []providers.VideoSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]providers.VideoSubmission(nil), s.submissions...)
}
