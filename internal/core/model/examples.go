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

// Package model defines the data structures for the application. This file,
// `examples.go`, provides hardcoded example instances of the structured
// responses the text models are asked to produce.
//
// The examples are rendered into the prompt templates as EXAMPLE_JSON. Giving
// the model a concrete instance of the expected document ("few-shot"
// prompting) keeps its output close to the schema the extraction adapter
// validates against.
package model

import "encoding/json"

// GetExampleAnalysis returns a sample ScriptAnalysis for the analysis prompt.
func GetExampleAnalysis() *ScriptAnalysis {
	return &ScriptAnalysis{
		EpisodeTitle:   "The Lighthouse Keeper's Last Night",
		MasterLocation: "Coastal lighthouse on a fog-bound island",
		Timeframe:      "Autumn 1987",
		Segments: []CharacterProfile{
			{
				Name:        "Margaret Hale",
				Role:        RoleVictim,
				Description: "Reserved lighthouse keeper known for meticulous logbooks",
				AgeRange:    "50-60",
				Gender:      "female",
			},
			{
				Name:        "Detective Ray Okafor",
				Role:        RoleDetective,
				Description: "Mainland investigator who reopened the case a decade later",
				AgeRange:    "35-45",
				Gender:      "male",
			},
		},
	}
}

// GetExampleReview returns a sample ScriptReview for the review prompt.
func GetExampleReview() *ScriptReview {
	return &ScriptReview{
		Hook:            "Open on the final logbook entry, written in a hand that was not hers.",
		Strengths:       []string{"Clear timeline", "Restrained tone"},
		Weaknesses:      []string{"The detective appears too late"},
		OptimizedScript: "The last entry in the logbook was dated October 12th...",
		Score:           72,
	}
}

// GetExampleSynthesis returns a sample SynthesisResult for the synthesis prompt.
func GetExampleSynthesis() *SynthesisResult {
	return &SynthesisResult{
		BestElements: []BestElement{
			{Element: "Cold open on the logbook", Source: "review", Reason: "Strongest hook"},
			{Element: "Island setting as a recurring visual", Source: "analysis", Reason: "Ties the images together"},
		},
		Discrepancies: []Discrepancy{
			{
				Aspect:     "timeframe",
				Primary:    "late 1980s",
				Secondary:  "Autumn 1987",
				Resolution: "Use Autumn 1987",
			},
		},
		SynthesizedRecommendation: Recommendation{
			FinalScript:  "The last entry in the logbook was dated October 12th, 1987...",
			QualityScore: 80,
		},
		ConfidenceLevel: "high",
	}
}

// GetExampleVerdict returns a sample ComplianceVerdict for the compliance prompt.
func GetExampleVerdict() *ComplianceVerdict {
	return &ComplianceVerdict{
		OverallCompliance: ComplianceWarning,
		PlatformCompliance: map[string]Compliance{
			string(PlatformYouTube): CompliancePass,
			string(PlatformTikTok):  ComplianceWarning,
		},
		RequiredChanges:       []string{"Remove the full name of the surviving witness"},
		AlternativeApproaches: []string{"Refer to the witness by role only"},
		Explanation:           "Documentary tone; one identifying detail about a private individual.",
	}
}

// ExampleJSON marshals an example for inclusion in a prompt.
func ExampleJSON(example any) string {
	out, _ := json.Marshal(example)
	return string(out)
}
