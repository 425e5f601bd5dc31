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

// SampleScript is a short script with three people and a single location.
const SampleScript = `In the winter of 1994, the town of Marrow Creek woke to find its only
diner dark. Owner Ellen Varga, 52, had not opened the doors for the first time
in twenty years. Her nephew, Tom Varga, told police she had argued with a
supplier the night before. Detective Lena Ortiz spent three weeks in that diner
before she noticed the walk-in freezer had been moved.`

// SampleAnalysisJSON is a valid analysis of SampleScript, fenced the way
// models commonly answer.
const SampleAnalysisJSON = "```json\n" + `{
  "episodeTitle": "The Marrow Creek Diner",
  "masterLocation": "Small-town diner in Marrow Creek",
  "timeframe": "Winter 1994",
  "segments": [
    {"name": "Ellen Varga", "role": "victim", "description": "Diner owner, 52", "ageRange": "50-55", "gender": "female"},
    {"name": "Tom Varga", "role": "family", "description": "Her nephew", "ageRange": "25-35", "gender": "male"},
    {"name": "Detective Lena Ortiz", "role": "detective", "description": "Lead investigator", "ageRange": "35-45", "gender": "female"}
  ]
}` + "\n```"

// SampleReviewJSON is a valid editorial review of SampleScript.
const SampleReviewJSON = `{
  "hook": "Open on the dark windows of a diner that never closed.",
  "strengths": ["Concrete setting", "A single strong clue"],
  "weaknesses": ["The supplier is never named"],
  "optimizedScript": "For twenty years the lights of the Marrow Creek diner came on at five.",
  "score": 74
}`

// SampleSynthesisJSON is a valid synthesis for SampleScript.
const SampleSynthesisJSON = `{
  "bestElements": [
    {"element": "Dark diner cold open", "source": "review", "reason": "Strongest hook"},
    {"element": "Three-person cast", "source": "analysis"}
  ],
  "discrepancies": [],
  "synthesizedRecommendation": {
    "finalScript": "For twenty years the lights came on at five. Then, one winter morning, they did not.",
    "qualityScore": 81
  },
  "confidenceLevel": "high"
}`

// PassVerdictJSON is a passing compliance verdict.
const PassVerdictJSON = `{
  "overallCompliance": "pass",
  "platformCompliance": {"youtube": "pass", "tiktok": "pass"},
  "requiredChanges": [],
  "alternativeApproaches": [],
  "explanation": "Documentary tone, no graphic detail."
}`

// FailVerdictJSON is a failing compliance verdict.
const FailVerdictJSON = `{
  "overallCompliance": "fail",
  "platformCompliance": {"youtube": "fail"},
  "requiredChanges": ["Remove the description of the body"],
  "alternativeApproaches": ["Tell the story from the detective's notes", "Focus on the search for the victim"],
  "explanation": "Graphic description of violence."
}`
