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
	"time"
)

// ServiceErrorView groups the error spans of one service within a trace.
type ServiceErrorView struct {
	ServiceName  string       `json:"serviceName"`
	ErrorSpans   []SpanDetail `json:"errorSpans"`
	RelatedLogs  []LogEntry   `json:"relatedLogs,omitempty"`
	PrimaryError string       `json:"primaryError"`
	Timestamp    time.Time    `json:"timestamp"`
}

func NewServiceErrorView(serviceName string, errorSpans []SpanDetail, logs []LogEntry, primaryError string, timestamp time.Time) (ServiceErrorView, error) {
	if isBlank(serviceName) {
		return ServiceErrorView{}, invalidf("serviceName must not be blank")
	}
	return ServiceErrorView{
		ServiceName:  serviceName,
		ErrorSpans:   append([]SpanDetail(nil), errorSpans...),
		RelatedLogs:  append([]LogEntry(nil), logs...),
		PrimaryError: primaryError,
		Timestamp:    timestamp,
	}, nil
}

func (v ServiceErrorView) HasLogs() bool {
	return len(v.RelatedLogs) > 0
}

func (v ServiceErrorView) ErrorCount() int {
	return len(v.ErrorSpans)
}

// UniqueErrorTypes lists non-blank error types in first-seen order.
func (v ServiceErrorView) UniqueErrorTypes() []string {
	seen := make(map[string]struct{})
	types := make([]string, 0)
	for _, span := range v.ErrorSpans {
		if isBlank(span.ErrorType) {
			continue
		}
		if _, ok := seen[span.ErrorType]; ok {
			continue
		}
		seen[span.ErrorType] = struct{}{}
		types = append(types, span.ErrorType)
	}
	return types
}

// DiagnosticResult is the outcome of inspecting one error trace.
type DiagnosticResult struct {
	TraceDetail   *TraceDetail       `json:"traceDetail"`
	ServiceErrors []ServiceErrorView `json:"serviceErrors"`
	Workflow      string             `json:"workflow"`
	GeneratedAt   time.Time          `json:"generatedAt"`
}

func (r *DiagnosticResult) TraceID() string {
	return r.TraceDetail.TraceID
}

func (r *DiagnosticResult) Service() string {
	return r.TraceDetail.Service
}

func (r *DiagnosticResult) InvolvedServices() []string {
	return r.TraceDetail.InvolvedServices()
}

func (r *DiagnosticResult) TotalErrorCount() int {
	total := 0
	for _, view := range r.ServiceErrors {
		total += view.ErrorCount()
	}
	return total
}

// IsDistributedError reports whether more than one service failed.
func (r *DiagnosticResult) IsDistributedError() bool {
	return len(r.ServiceErrors) > 1
}
