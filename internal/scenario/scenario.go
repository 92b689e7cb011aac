// Licensed to Apache Software Foundation (ASF) under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Apache Software Foundation (ASF) licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package scenario

import (
	"fmt"
	"strings"
)

// TraceScenario is the reproducible story of one trace.
type TraceScenario struct {
	TraceID          string          `json:"traceId"`
	EntryPoint       EntryPoint      `json:"entryPoint"`
	ExecutionFlow    []ExecutionStep `json:"executionFlow"`
	ErrorContext     ErrorContext    `json:"errorContext"`
	RelevantData     *RelevantData   `json:"relevantData"`
	InvolvedServices []string        `json:"involvedServices"`
}

func (s TraceScenario) HasError() bool {
	return s.ErrorContext.HasError()
}

func (s TraceScenario) HasEntryPoint() bool {
	return s.EntryPoint.IsValid()
}

func (s TraceScenario) StepCount() int {
	return len(s.ExecutionFlow)
}

// ErrorStep returns the first failing step on the timeline.
func (s TraceScenario) ErrorStep() (ExecutionStep, bool) {
	for _, step := range s.ExecutionFlow {
		if step.IsError {
			return step, true
		}
	}
	return ExecutionStep{}, false
}

// TotalDurationMs is the duration of the first root step, or zero.
func (s TraceScenario) TotalDurationMs() int64 {
	for _, step := range s.ExecutionFlow {
		if step.IsRoot() {
			return step.DurationMs
		}
	}
	return 0
}

// SuggestedTestScenario builds given/when/then hints for a regression test.
// The map is empty when the trace has no error.
func (s TraceScenario) SuggestedTestScenario() map[string]string {
	if !s.HasError() {
		return map[string]string{}
	}

	var given strings.Builder
	if s.RelevantData.Len() > 0 {
		given.WriteString("Data: ")
		for i, k := range s.RelevantData.Keys() {
			if i > 0 {
				given.WriteString(", ")
			}
			v, _ := s.RelevantData.Get(k)
			fmt.Fprintf(&given, "%s=%s", k, v)
		}
	}

	var when string
	if s.HasEntryPoint() {
		when = "Request: " + s.EntryPoint.RequestLine()
		if s.EntryPoint.HasBody() {
			when += " with body"
		}
	} else {
		when = fmt.Sprintf("Calling %s.%s", s.ErrorContext.Service, s.ErrorContext.Operation)
	}

	then := s.ErrorContext.SimpleExceptionType() + " is thrown"
	if !isBlank(s.ErrorContext.Message) {
		then += fmt.Sprintf(" with message '%s'", s.ErrorContext.Message)
	}

	return map[string]string{
		"given": given.String(),
		"when":  when,
		"then":  then,
	}
}
