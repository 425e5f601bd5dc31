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

// Package extract turns natural-language-adjacent model output into validated
// Go structs. Model responses often arrive wrapped in markdown code fences or
// preceded by a sentence of prose; Decode strips those wrappers, decodes the
// JSON document and then checks it against the target's schema.
//
// A target describes its schema in two ways:
//   - Schema.RequiredFields lists the top-level keys that must be present in
//     the document, so a missing number is never silently read as zero.
//   - Validatable.Validate reports semantic problems (empty strings, unknown
//     enum values, out-of-range scores).
//
// Every problem is collected into a ValidationError that names each field, so
// callers can report exactly what the model got wrong.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoJSON is returned when the response does not contain a JSON document.
var ErrNoJSON = errors.New("response contains no JSON document")

// Validatable is implemented by every extraction target.
type Validatable interface {
	Validate() []FieldError
}

// Schema is optionally implemented by targets that require top-level keys.
type Schema interface {
	RequiredFields() []string
}

// FieldError describes one missing or malformed field.
type FieldError struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

func (f FieldError) String() string {
	return f.Field + " " + f.Problem
}

// Missing reports a required field that is absent or empty.
func Missing(field string) FieldError {
	return FieldError{Field: field, Problem: "missing"}
}

// Malformed reports a field whose value does not match the schema.
func Malformed(field string, format string, args ...any) FieldError {
	return FieldError{Field: field, Problem: "malformed: " + fmt.Sprintf(format, args...)}
}

// Required appends a Missing error when value is blank.
func Required(out []FieldError, field, value string) []FieldError {
	if strings.TrimSpace(value) == "" {
		return append(out, Missing(field))
	}
	return out
}

// InRange appends a Malformed error when value is outside [lo, hi].
func InRange(out []FieldError, field string, value, lo, hi int) []FieldError {
	if value < lo || value > hi {
		return append(out, Malformed(field, "%d is outside %d-%d", value, lo, hi))
	}
	return out
}

// Index renders an element path such as segments[2].
func Index(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "invalid response: " + strings.Join(parts, "; ")
}

// DecodeError wraps a JSON syntax failure with a snippet of the payload.
type DecodeError struct {
	Err     error
	Snippet string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v (payload snippet: %s)", e.Err, e.Snippet)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode extracts a JSON document from raw and decodes it into target, then
// validates it. The returned error is a *DecodeError when the payload is not
// JSON and a *ValidationError when it does not match the schema.
func Decode(raw string, target Validatable) error {
	payload := Sanitize(raw)
	if payload == "" {
		return &DecodeError{Err: ErrNoJSON, Snippet: Snippet(raw)}
	}

	var fields []FieldError
	if schema, ok := target.(Schema); ok {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal([]byte(payload), &keys); err != nil {
			return decodeFailure(err, payload)
		}
		for _, key := range schema.RequiredFields() {
			if v, ok := keys[key]; !ok || string(v) == "null" {
				fields = append(fields, Missing(key))
			}
		}
	}

	if err := json.Unmarshal([]byte(payload), target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return decodeFailure(err, payload)
		}
		fields = append(fields, Malformed(typeErr.Field, "expected %s, got %s", typeErr.Type, typeErr.Value))
	}

	fields = append(fields, target.Validate()...)
	if len(fields) > 0 {
		return &ValidationError{Fields: dedupe(fields)}
	}
	return nil
}

func decodeFailure(err error, payload string) error {
	return &DecodeError{Err: err, Snippet: Snippet(payload)}
}

// dedupe keeps the first problem reported for each field, ordered by field.
func dedupe(fields []FieldError) []FieldError {
	seen := make(map[string]bool, len(fields))
	out := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		if seen[f.Field] {
			continue
		}
		seen[f.Field] = true
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Sanitize strips a surrounding code fence and any prose around the first JSON
// object or array.
func Sanitize(content string) string {
	trimmed := StripCodeFence(content)
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return ""
}

// StripCodeFence removes a leading ``` or ```json fence and its closing fence.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// Snippet condenses a payload to a single line of at most 160 runes for logs
// and error messages.
func Snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
