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

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fanki/datadog-mcp/internal/domain"
)

// AddTraceTools registers trace-related tools with the MCP server
func AddTraceTools(s *server.MCPServer) {
	ListErrorTracesTool.Register(s)
	InspectErrorTraceTool.Register(s)
	ExtractScenarioTool.Register(s)
}

const (
	actionListTraces   = "list traces"
	actionInspectTrace = "inspect trace"
)

// ListErrorTracesRequest defines the parameters for trace.list_error_traces
type ListErrorTracesRequest struct {
	TimeWindow
	Limit int `json:"limit,omitempty"`
}

// InspectErrorTraceRequest defines the parameters for trace.inspect_error_trace
type InspectErrorTraceRequest struct {
	TimeWindow
	TraceID string `json:"traceId"`
}

type errorTraceView struct {
	TraceID      string `json:"traceId"`
	Service      string `json:"service"`
	ResourceName string `json:"resourceName"`
	ErrorMessage string `json:"errorMessage"`
	Timestamp    string `json:"timestamp"`
	Duration     string `json:"duration"`
}

type listErrorTracesResult struct {
	Success bool             `json:"success"`
	Count   int              `json:"count"`
	Traces  []errorTraceView `json:"traces"`
}

type traceSummaryView struct {
	Duration       string `json:"duration"`
	SpanCount      int    `json:"spanCount"`
	ErrorSpanCount int    `json:"errorSpanCount"`
	StartTime      string `json:"startTime"`
}

type serviceErrorSummary struct {
	ServiceName  string   `json:"serviceName"`
	ErrorCount   int      `json:"errorCount"`
	PrimaryError string   `json:"primaryError"`
	ErrorTypes   []string `json:"errorTypes"`
}

type inspectErrorTraceResult struct {
	Success            bool                  `json:"success"`
	TraceID            string                `json:"traceId"`
	Service            string                `json:"service"`
	InvolvedServices   []string              `json:"involvedServices"`
	TotalErrors        int                   `json:"totalErrors"`
	IsDistributedError bool                  `json:"isDistributedError"`
	TraceSummary       traceSummaryView      `json:"traceSummary"`
	ServiceErrors      []serviceErrorSummary `json:"serviceErrors"`
	Workflow           string                `json:"workflow"`
}

func listErrorTraces(ctx context.Context, req *ListErrorTracesRequest) (*mcp.CallToolResult, error) {
	rt, err := RuntimeFromContext(ctx)
	if err != nil {
		return failure(actionListTraces, err), nil
	}
	query, err := req.traceQuery(rt, req.Limit)
	if err != nil {
		return failure(actionListTraces, err), nil
	}

	traces, err := rt.diagnostics(ctx).ListErrorTraces(ctx, query)
	if err != nil {
		return failure(actionListTraces, err), nil
	}
	return jsonResult(newListErrorTracesResult(traces)), nil
}

func newListErrorTracesResult(traces []domain.TraceSummary) listErrorTracesResult {
	views := make([]errorTraceView, 0, len(traces))
	for _, t := range traces {
		views = append(views, errorTraceView{
			TraceID:      t.TraceID,
			Service:      t.Service,
			ResourceName: t.ResourceName,
			ErrorMessage: t.ErrorMessage,
			Timestamp:    formatInstant(t.Timestamp),
			Duration:     t.FormattedDuration(),
		})
	}
	return listErrorTracesResult{Success: true, Count: len(views), Traces: views}
}

func inspectErrorTrace(ctx context.Context, req *InspectErrorTraceRequest) (*mcp.CallToolResult, error) {
	rt, err := RuntimeFromContext(ctx)
	if err != nil {
		return failure(actionInspectTrace, err), nil
	}
	query, err := req.traceQuery(rt, 0)
	if err != nil {
		return failure(actionInspectTrace, err), nil
	}
	if err := requireString("traceId", req.TraceID); err != nil {
		return failure(actionInspectTrace, err), nil
	}

	result, err := rt.diagnostics(ctx).InspectErrorTrace(ctx, req.TraceID, query)
	if err != nil {
		return failure(actionInspectTrace, err), nil
	}
	return jsonResult(newInspectErrorTraceResult(result)), nil
}

func newInspectErrorTraceResult(r *domain.DiagnosticResult) inspectErrorTraceResult {
	errs := make([]serviceErrorSummary, 0, len(r.ServiceErrors))
	for _, view := range r.ServiceErrors {
		errs = append(errs, serviceErrorSummary{
			ServiceName:  view.ServiceName,
			ErrorCount:   view.ErrorCount(),
			PrimaryError: view.PrimaryError,
			ErrorTypes:   view.UniqueErrorTypes(),
		})
	}
	return inspectErrorTraceResult{
		Success:            true,
		TraceID:            r.TraceID(),
		Service:            r.Service(),
		InvolvedServices:   r.InvolvedServices(),
		TotalErrors:        r.TotalErrorCount(),
		IsDistributedError: r.IsDistributedError(),
		TraceSummary: traceSummaryView{
			Duration:       r.TraceDetail.FormattedDuration(),
			SpanCount:      r.TraceDetail.SpanCount(),
			ErrorSpanCount: len(r.TraceDetail.ErrorSpans()),
			StartTime:      formatInstant(r.TraceDetail.StartTime),
		},
		ServiceErrors: errs,
		Workflow:      r.Workflow,
	}
}

// ListErrorTracesTool lists the recent error traces of a service
var ListErrorTracesTool = NewTool[ListErrorTracesRequest, *mcp.CallToolResult](
	"trace.list_error_traces",
	`Lists error traces of a service in a time window, newest first.

Workflow:
1. Start here when a service is failing and you do not have a trace id yet
2. Pick a trace id from the result
3. Call trace.inspect_error_trace for a diagnostic workflow, or
   trace.extract_scenario to build a regression test

Examples:
- {"service": "checkout", "from": "2024-01-15T10:00:00Z", "to": "2024-01-15T11:00:00Z"}
- {"service": "checkout", "env": "staging", "from": "...", "to": "...", "limit": 5}`,
	listErrorTraces,
	mcp.WithTitleAnnotation("List error traces"),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("service", mcp.Required(),
		mcp.Description("Service name as reported to Datadog APM."),
	),
	mcp.WithString("env",
		mcp.Description("Environment tag. Defaults to the server's configured environment."),
	),
	mcp.WithString("from", mcp.Required(),
		mcp.Description("Start of the window, ISO-8601 (e.g. 2024-01-15T10:00:00Z)."),
	),
	mcp.WithString("to", mcp.Required(),
		mcp.Description("End of the window, ISO-8601. Must be after 'from'."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of traces, 1-100. Default 20."),
	),
)

// InspectErrorTraceTool renders a markdown debugging workflow for one trace
var InspectErrorTraceTool = NewTool[InspectErrorTraceRequest, *mcp.CallToolResult](
	"trace.inspect_error_trace",
	`Inspects one error trace and returns a markdown debugging workflow.

The result groups the error spans by service, lists the related logs, a span
timeline, recommended actions and links to the Datadog UI. 'isDistributedError'
is true when more than one service failed.

Workflow:
1. Get a trace id from trace.list_error_traces or from a log line
2. Read 'workflow' and follow its recommended actions
3. Use log.correlate to read every log of the trace

Examples:
- {"service": "checkout", "traceId": "1234567890", "from": "2024-01-15T10:00:00Z", "to": "2024-01-15T11:00:00Z"}`,
	inspectErrorTrace,
	mcp.WithTitleAnnotation("Inspect an error trace"),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("service", mcp.Required(),
		mcp.Description("Service the trace was found in."),
	),
	mcp.WithString("env",
		mcp.Description("Environment tag. Defaults to the server's configured environment."),
	),
	mcp.WithString("from", mcp.Required(),
		mcp.Description("Start of the window used to find the trace logs, ISO-8601."),
	),
	mcp.WithString("to", mcp.Required(),
		mcp.Description("End of the window, ISO-8601."),
	),
	mcp.WithString("traceId", mcp.Required(),
		mcp.Description("The Datadog trace id."),
	),
)
