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

package domain

import (
	"fmt"
	"time"
)

// SpanDetail is one timed operation within a trace.
type SpanDetail struct {
	SpanID        string            `json:"spanId"`
	ParentSpanID  string            `json:"parentSpanId,omitempty"`
	Service       string            `json:"service"`
	OperationName string            `json:"operationName"`
	ResourceName  string            `json:"resourceName"`
	StartTime     time.Time         `json:"startTime"`
	Duration      time.Duration     `json:"duration"`
	IsError       bool              `json:"isError"`
	ErrorMessage  string            `json:"errorMessage,omitempty"`
	ErrorType     string            `json:"errorType,omitempty"`
	ErrorStack    string            `json:"errorStack,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// NewSpanDetail validates the span identity and copies the tag map so the
// returned value does not alias the caller's data.
func NewSpanDetail(span SpanDetail) (SpanDetail, error) {
	if isBlank(span.SpanID) {
		return SpanDetail{}, invalidf("spanId must not be blank")
	}
	if isBlank(span.Service) {
		return SpanDetail{}, invalidf("service must not be blank")
	}
	if span.Duration < 0 {
		return SpanDetail{}, invalidf("duration must be non-negative")
	}
	span.Tags = copyTags(span.Tags)
	return span, nil
}

// IsRoot reports whether the span has no parent.
func (s SpanDetail) IsRoot() bool {
	return isBlank(s.ParentSpanID) || s.ParentSpanID == "0"
}

func (s SpanDetail) FormattedDuration() string {
	return formatNanos(s.Duration.Nanoseconds())
}

// ErrorSummary is empty for spans that are not in error.
func (s SpanDetail) ErrorSummary() string {
	if !s.IsError {
		return ""
	}
	switch {
	case !isBlank(s.ErrorType) && !isBlank(s.ErrorMessage):
		return fmt.Sprintf("%s: %s", s.ErrorType, s.ErrorMessage)
	case !isBlank(s.ErrorMessage):
		return s.ErrorMessage
	case !isBlank(s.ErrorType):
		return s.ErrorType
	}
	return "Unknown error"
}
