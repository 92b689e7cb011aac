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

	"github.com/fanki/datadog-mcp/internal/scenario"
)

const actionExtractScenario = "extract scenario"

// ExtractScenarioRequest defines the parameters for trace.extract_scenario
type ExtractScenarioRequest struct {
	TraceID string `json:"traceId"`
	TimeWindow
}

type testScenarioView struct {
	Given string `json:"given"`
	When  string `json:"when"`
	Then  string `json:"then"`
}

type extractScenarioResult struct {
	Success               bool                     `json:"success"`
	TraceID               string                   `json:"traceId"`
	EntryPoint            *scenario.EntryPoint     `json:"entryPoint,omitempty"`
	ExecutionFlow         []scenario.ExecutionStep `json:"executionFlow"`
	StepCount             int                      `json:"stepCount"`
	ErrorContext          *scenario.ErrorContext   `json:"errorContext,omitempty"`
	RelevantData          *scenario.RelevantData   `json:"relevantData,omitempty"`
	InvolvedServices      []string                 `json:"involvedServices"`
	SuggestedTestScenario *testScenarioView        `json:"suggestedTestScenario,omitempty"`
	TotalDurationMs       int64                    `json:"totalDurationMs"`
}

func extractScenario(ctx context.Context, req *ExtractScenarioRequest) (*mcp.CallToolResult, error) {
	rt, err := RuntimeFromContext(ctx)
	if err != nil {
		return failure(actionExtractScenario, err), nil
	}
	if err := requireString("traceId", req.TraceID); err != nil {
		return failure(actionExtractScenario, err), nil
	}
	query, err := req.traceQuery(rt, 0)
	if err != nil {
		return failure(actionExtractScenario, err), nil
	}

	trace, err := rt.Client.GetTraceDetail(ctx, req.TraceID, query.Service, query.Env)
	if err != nil {
		return failure(actionExtractScenario, err), nil
	}
	logs, err := rt.Client.SearchLogsForTrace(ctx, req.TraceID, query)
	if err != nil {
		return failure(actionExtractScenario, err), nil
	}

	return jsonResult(newExtractScenarioResult(scenario.Extract(trace, logs))), nil
}

func newExtractScenarioResult(s scenario.TraceScenario) extractScenarioResult {
	res := extractScenarioResult{
		Success:          true,
		TraceID:          s.TraceID,
		ExecutionFlow:    s.ExecutionFlow,
		StepCount:        s.StepCount(),
		InvolvedServices: s.InvolvedServices,
		TotalDurationMs:  s.TotalDurationMs(),
	}
	if res.ExecutionFlow == nil {
		res.ExecutionFlow = []scenario.ExecutionStep{}
	}
	if res.InvolvedServices == nil {
		res.InvolvedServices = []string{}
	}
	if s.HasEntryPoint() {
		entry := s.EntryPoint
		res.EntryPoint = &entry
	}
	if s.HasError() {
		errCtx := s.ErrorContext
		if !errCtx.HasLocation() {
			errCtx.Location = nil
		}
		res.ErrorContext = &errCtx

		suggested := s.SuggestedTestScenario()
		res.SuggestedTestScenario = &testScenarioView{
			Given: suggested["given"],
			When:  suggested["when"],
			Then:  suggested["then"],
		}
	}
	if s.RelevantData.Len() > 0 {
		res.RelevantData = s.RelevantData
	}
	return res
}

// ExtractScenarioTool turns a trace into a reproducible test scenario
var ExtractScenarioTool = NewTool[ExtractScenarioRequest, *mcp.CallToolResult](
	"trace.extract_scenario",
	`Extracts a test scenario from a trace: the entry request, the ordered
execution flow, the error with its source location, and the business
identifiers (user, order, product, session...) found in span tags and logs.

Each step of 'executionFlow' is classified as http, db, cache, queue, external
or internal. 'suggestedTestScenario' gives given/when/then hints when the
trace failed.

Workflow:
1. Find a failing trace with trace.list_error_traces
2. Extract its scenario
3. Write a regression test from 'entryPoint', 'relevantData' and
   'suggestedTestScenario', then open 'errorContext.location' to fix the bug

Examples:
- {"traceId": "1234567890", "service": "checkout", "from": "2024-01-15T10:00:00Z", "to": "2024-01-15T11:00:00Z"}`,
	extractScenario,
	mcp.WithTitleAnnotation("Extract a test scenario from a trace"),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("traceId", mcp.Required(),
		mcp.Description("The Datadog trace id."),
	),
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
)
