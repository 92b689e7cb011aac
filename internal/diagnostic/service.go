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

// Package diagnostic inspects error traces and renders a markdown debugging
// workflow for them.
package diagnostic

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fanki/datadog-mcp/internal/domain"
)

// TraceSource is the subset of the Datadog client the service needs.
type TraceSource interface {
	SearchErrorTraces(ctx context.Context, query domain.TraceQuery) ([]domain.TraceSummary, error)
	GetTraceDetail(ctx context.Context, traceID, service, env string) (*domain.TraceDetail, error)
	SearchLogsForTrace(ctx context.Context, traceID string, query domain.TraceQuery) ([]domain.LogEntry, error)
}

type Service struct {
	source TraceSource
	appURL string
	now    func() time.Time
}

// NewService renders links against appURL, e.g. https://app.datadoghq.com.
func NewService(source TraceSource, appURL string) *Service {
	return &Service{source: source, appURL: appURL, now: time.Now}
}

func (s *Service) ListErrorTraces(ctx context.Context, query domain.TraceQuery) ([]domain.TraceSummary, error) {
	return s.source.SearchErrorTraces(ctx, query)
}

// InspectErrorTrace fetches a trace and its logs, groups the failing spans
// by service and renders the workflow.
func (s *Service) InspectErrorTrace(ctx context.Context, traceID string, query domain.TraceQuery) (*domain.DiagnosticResult, error) {
	trace, err := s.source.GetTraceDetail(ctx, traceID, query.Service, query.Env)
	if err != nil {
		return nil, err
	}
	logs, err := s.source.SearchLogsForTrace(ctx, traceID, query)
	if err != nil {
		return nil, err
	}

	views, err := buildServiceErrorViews(trace, logs)
	if err != nil {
		return nil, err
	}
	log.Debugf("trace %s: %d spans, %d failing services, %d logs", traceID, trace.SpanCount(), len(views), len(logs))

	result := &domain.DiagnosticResult{
		TraceDetail:   trace,
		ServiceErrors: views,
		GeneratedAt:   s.now().UTC(),
	}
	result.Workflow = GenerateWorkflow(result, s.appURL)
	return result, nil
}

// buildServiceErrorViews groups error spans by service in order of first
// appearance. Every view carries all trace logs.
func buildServiceErrorViews(trace *domain.TraceDetail, logs []domain.LogEntry) ([]domain.ServiceErrorView, error) {
	var order []string
	byService := make(map[string][]domain.SpanDetail)
	for _, span := range trace.ErrorSpans() {
		if _, ok := byService[span.Service]; !ok {
			order = append(order, span.Service)
		}
		byService[span.Service] = append(byService[span.Service], span)
	}

	views := make([]domain.ServiceErrorView, 0, len(order))
	for _, service := range order {
		spans := byService[service]
		view, err := domain.NewServiceErrorView(service, spans, logs, primaryError(spans), earliestStart(spans))
		if err != nil {
			return nil, fmt.Errorf("failed to group errors of %q: %w", service, err)
		}
		views = append(views, view)
	}
	return views, nil
}

func primaryError(spans []domain.SpanDetail) string {
	for _, span := range spans {
		if summary := span.ErrorSummary(); summary != "" {
			return summary
		}
	}
	return ""
}

func earliestStart(spans []domain.SpanDetail) time.Time {
	var earliest time.Time
	for i, span := range spans {
		if i == 0 || span.StartTime.Before(earliest) {
			earliest = span.StartTime
		}
	}
	return earliest
}
