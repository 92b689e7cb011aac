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

// Package scenario turns a trace and its correlated logs into an ordered,
// classified execution timeline with the context a test author needs to
// reproduce the failure.
package scenario

import (
	"fmt"
)

// StepType is the classified kind of work a span performed.
type StepType string

const (
	StepHTTP     StepType = "http"
	StepDB       StepType = "db"
	StepCache    StepType = "cache"
	StepQueue    StepType = "queue"
	StepExternal StepType = "external"
	StepInternal StepType = "internal"
)

// ExecutionStep is one span placed on the chronological timeline.
type ExecutionStep struct {
	Order        int      `json:"order"`
	SpanID       string   `json:"spanId"`
	ParentSpanID string   `json:"parentSpanId,omitempty"`
	Service      string   `json:"service"`
	Operation    string   `json:"operation"`
	Type         StepType `json:"type"`
	Detail       string   `json:"detail,omitempty"`
	DurationMs   int64    `json:"durationMs"`
	IsError      bool     `json:"isError,omitempty"`
}

func (s ExecutionStep) IsRoot() bool {
	return isBlank(s.ParentSpanID) || s.ParentSpanID == "0"
}

// FormattedDuration renders whole milliseconds below one second, else seconds.
func (s ExecutionStep) FormattedDuration() string {
	if s.DurationMs < 1000 {
		return fmt.Sprintf("%dms", s.DurationMs)
	}
	return fmt.Sprintf("%.2fs", float64(s.DurationMs)/1000.0)
}

// ToSummary renders "1. svc → op (12ms)" with an " [ERROR]" marker on failures.
func (s ExecutionStep) ToSummary() string {
	marker := ""
	if s.IsError {
		marker = " [ERROR]"
	}
	return fmt.Sprintf("%d. %s → %s (%s)%s", s.Order, s.Service, s.Operation, s.FormattedDuration(), marker)
}
