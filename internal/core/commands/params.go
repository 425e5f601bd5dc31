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

// Package commands provides the concrete cor.Command implementations that make
// up the episode pipeline. Each command wraps one service call, reads its
// inputs from named Context params and writes its artifact to its own param,
// so a failed run still carries every artifact produced before the failure.
package commands

// Context params shared by the episode pipeline commands.
const (
	ParamRequest    = "__REQUEST__"
	ParamEpisodeID  = "__EPISODE_ID__"
	ParamReview     = "__REVIEW__"
	ParamImageSet   = "__IMAGE_SET__"
	ParamSynthesis  = "__SYNTHESIS__"
	ParamCompliance = "__COMPLIANCE__"
	ParamVideo      = "__VIDEO__"
	ParamResult     = "__RESULT__"
)
