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
	"sort"
	"time"
)

// TraceDetail is the full set of spans sharing one trace id.
type TraceDetail struct {
	TraceID      string        `json:"traceId"`
	Service      string        `json:"service"`
	Env          string        `json:"env"`
	ResourceName string        `json:"resourceName"`
	StartTime    time.Time     `json:"startTime"`
	Duration     time.Duration `json:"duration"`
	Spans        []SpanDetail  `json:"spans"`
}

func NewTraceDetail(trace TraceDetail) (*TraceDetail, error) {
	if isBlank(trace.TraceID) {
		return nil, invalidf("traceId must not be blank")
	}
	if isBlank(trace.Service) {
		return nil, invalidf("service must not be blank")
	}
	if trace.Duration < 0 {
		return nil, invalidf("duration must be non-negative")
	}
	trace.Spans = append([]SpanDetail(nil), trace.Spans...)
	return &trace, nil
}

// InvolvedServices returns the distinct span services in ascending order.
func (t *TraceDetail) InvolvedServices() []string {
	seen := make(map[string]struct{}, len(t.Spans))
	services := make([]string, 0, len(t.Spans))
	for _, span := range t.Spans {
		if _, ok := seen[span.Service]; ok {
			continue
		}
		seen[span.Service] = struct{}{}
		services = append(services, span.Service)
	}
	sort.Strings(services)
	return services
}

// ErrorSpans keeps input order.
func (t *TraceDetail) ErrorSpans() []SpanDetail {
	var errs []SpanDetail
	for _, span := range t.Spans {
		if span.IsError {
			errs = append(errs, span)
		}
	}
	return errs
}

// RootSpan returns the first parentless span, if any.
func (t *TraceDetail) RootSpan() (SpanDetail, bool) {
	for _, span := range t.Spans {
		if span.IsRoot() {
			return span, true
		}
	}
	return SpanDetail{}, false
}

func (t *TraceDetail) HasErrors() bool {
	for _, span := range t.Spans {
		if span.IsError {
			return true
		}
	}
	return false
}

func (t *TraceDetail) SpanCount() int {
	return len(t.Spans)
}

func (t *TraceDetail) FormattedDuration() string {
	return formatNanos(t.Duration.Nanoseconds())
}

// TraceSummary is one row of an error-trace search.
type TraceSummary struct {
	TraceID      string        `json:"traceId"`
	Service      string        `json:"service"`
	ResourceName string        `json:"resourceName"`
	ErrorMessage string        `json:"errorMessage"`
	Timestamp    time.Time     `json:"timestamp"`
	Duration     time.Duration `json:"duration"`
}

func NewTraceSummary(summary TraceSummary) (TraceSummary, error) {
	if isBlank(summary.TraceID) {
		return TraceSummary{}, invalidf("traceId must not be blank")
	}
	if isBlank(summary.Service) {
		return TraceSummary{}, invalidf("service must not be blank")
	}
	if summary.Duration < 0 {
		return TraceSummary{}, invalidf("duration must be non-negative")
	}
	return summary, nil
}

func (s TraceSummary) FormattedDuration() string {
	return formatNanos(s.Duration.Nanoseconds())
}
