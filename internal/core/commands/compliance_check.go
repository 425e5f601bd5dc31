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

package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/model"
	"github.com/jaycherian/gcp-go-true-crime/internal/core/services"
)

// ComplianceCheck runs the compliance gate over the original script and the
// portrait descriptions. A "fail" verdict is stored and recorded as a
// ComplianceRejection, which stops the chain before any video is requested.
type ComplianceCheck struct {
	cor.BaseCommand
	gate *services.ComplianceGate
}

func NewComplianceCheck(name string, gate *services.ComplianceGate) *ComplianceCheck {
	out := &ComplianceCheck{BaseCommand: *cor.NewBaseCommand(name), gate: gate}
	out.InputParamName = ParamRequest
	out.OutputParamName = ParamCompliance
	return out
}

func (c *ComplianceCheck) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(model.EpisodeRequest)
	var descriptions []string
	if set, ok := context.Get(ParamImageSet).(*model.ImageSet); ok {
		descriptions = set.PortraitDescriptions()
	}

	verdict, err := c.gate.AnalyzeCompliance(context.GetContext(), req.Script, descriptions)
	if err != nil {
		c.Fail(context, err)
		return
	}
	if verdict.Failed() {
		slog.InfoContext(context.GetContext(), "episode rejected by compliance gate",
			"required_changes", len(verdict.RequiredChanges))
		context.Add(c.GetOutputParam(), verdict)
		c.Fail(context, &model.ComplianceRejection{Verdict: verdict})
		return
	}
	c.Succeed(context, verdict)
}
