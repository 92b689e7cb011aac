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

package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Constants for common values
const (
	defaultEnvHint = "the server's default environment"
	defaultWindow  = "the last hour"
	defaultLevel   = "ERROR"
)

// Analysis execution chains for different types of analysis
var analysisChains = map[string][]struct {
	Tool    string
	Purpose string
}{
	"error_diagnosis": {
		{Tool: "filter.configure", Purpose: "Check with action='status' that stack trace filters are set up"},
		{Tool: "trace.list_error_traces", Purpose: "Find the recent failing traces of the service"},
		{Tool: "trace.inspect_error_trace", Purpose: "Get the diagnostic workflow of the most relevant trace"},
		{Tool: "log.correlate", Purpose: "Read every log written while serving that trace"},
	},
	"test_generation": {
		{Tool: "trace.extract_scenario", Purpose: "Extract entry point, execution flow, error context and test data"},
		{Tool: "log.correlate", Purpose: "Confirm the data values seen in the logs"},
	},
	"log_patterns": {
		{Tool: "filter.configure", Purpose: "Check with action='status' that stack trace filters are set up"},
		{Tool: "log.search_logs", Purpose: "Group the logs by pattern with outputMode='summarize'"},
		{Tool: "log.search_logs", Purpose: "Drill into the dominant pattern with a 'query' and stackTraceDetail='relevant'"},
		{Tool: "log.correlate", Purpose: "Follow the traceId of a representative log"},
	},
}

// AddPrompts registers all Datadog diagnostic prompts
func AddPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.Prompt{
		Name:        "diagnose-error-trace",
		Description: "Diagnose recent errors of a service from its traces and logs",
		Arguments: []mcp.PromptArgument{
			{Name: "service", Description: "The service to diagnose", Required: true},
			{Name: "env", Description: "Environment tag, e.g. prod or staging", Required: false},
			{Name: "window", Description: "Time window to search, e.g. 'last 2 hours' or " +
				"'2024-01-15T10:00:00Z to 2024-01-15T11:00:00Z'", Required: false},
		},
	}, diagnoseErrorTraceHandler)

	s.AddPrompt(mcp.Prompt{
		Name:        "generate-test-from-trace",
		Description: "Write a regression test that reproduces a failing trace",
		Arguments: []mcp.PromptArgument{
			{Name: "traceId", Description: "The Datadog trace id", Required: true},
			{Name: "service", Description: "The service the trace was found in", Required: true},
			{Name: "framework", Description: "Test framework to use, e.g. JUnit 5 or Go testing", Required: false},
		},
	}, generateTestFromTraceHandler)

	s.AddPrompt(mcp.Prompt{
		Name:        "analyze-log-patterns",
		Description: "Find the dominant log patterns of a service",
		Arguments: []mcp.PromptArgument{
			{Name: "service", Description: "The service whose logs to analyze", Required: true},
			{Name: "level", Description: "Log level to analyze (default ERROR)", Required: false},
			{Name: "window", Description: "Time window to search", Required: false},
		},
	}, analyzeLogPatternsHandler)
}

// Helper function to generate tool usage instructions
func generateToolInstructions(analysisType string) string {
	chain := analysisChains[analysisType]
	if len(chain) == 0 {
		return "No specific tools defined for this analysis type."
	}

	var sb strings.Builder
	sb.WriteString("**Recommended Workflow:**\n")
	for i, step := range chain {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, step.Tool, step.Purpose)
	}
	return sb.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}

func diagnoseErrorTraceHandler(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	service := args["service"]
	if strings.TrimSpace(service) == "" {
		return nil, fmt.Errorf("missing required argument: service")
	}
	env := orDefault(args["env"], defaultEnvHint)
	window := orDefault(args["window"], defaultWindow)

	prompt := fmt.Sprintf(`Diagnose the errors of service '%s' in %s over %s.

%s
**Analysis Steps:**

**Pick the trace**
- Convert the window to ISO-8601 'from' and 'to' instants
- List the error traces and pick the most recent one, or the one whose
  errorMessage repeats most often

**Inspect it**
- Read the 'workflow' markdown of trace.inspect_error_trace
- If 'isDistributedError' is true, find the service where the failure started:
  the earliest error span is usually the root cause, the others propagate it

**Read the logs**
- Correlate the logs of the trace with stackTraceDetail='relevant'
- Point at the first application frame of each stack trace

Summarize the root cause, the affected services and a concrete fix.`, service, env, window, generateToolInstructions("error_diagnosis"))

	return userPrompt("Error diagnosis using trace and log tools", prompt), nil
}

func generateTestFromTraceHandler(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	traceID := args["traceId"]
	service := args["service"]
	if strings.TrimSpace(traceID) == "" || strings.TrimSpace(service) == "" {
		return nil, fmt.Errorf("missing required arguments: traceId and service")
	}
	framework := orDefault(args["framework"], "the project's existing test framework")

	prompt := fmt.Sprintf(`Write a regression test for trace '%s' of service '%s' using %s.

%s
**Building the test:**

**Given**
- Use 'relevantData' for the identifiers and values the test must set up
- Stub every 'db', 'cache', 'queue' and 'external' step of 'executionFlow'
  that happens before the failing step

**When**
- Replay 'entryPoint': method, path, the listed headers and the body

**Then**
- Assert that 'errorContext.exceptionType' is raised with 'errorContext.message'
- Open 'errorContext.location' (file and line) to see the failing code

Start from 'suggestedTestScenario' and keep the test focused on the failing step.`, traceID, service, framework, generateToolInstructions("test_generation"))

	return userPrompt("Regression test generation from a trace", prompt), nil
}

func analyzeLogPatternsHandler(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	service := args["service"]
	if strings.TrimSpace(service) == "" {
		return nil, fmt.Errorf("missing required argument: service")
	}
	level := strings.ToUpper(orDefault(args["level"], defaultLevel))
	window := orDefault(args["window"], defaultWindow)

	prompt := fmt.Sprintf(`Analyze the %s logs of service '%s' over %s.

%s
**Analysis Steps:**
- Numbers, UUIDs, IP addresses, hex ids and timestamps are replaced by
  placeholders in the patterns, so each group is one kind of event
- Rank the groups by count and note when each started (firstOccurrence)
- For the top patterns, search again with a 'query' matching the pattern text

Report the top patterns, whether they are new or recurring, and which one to fix first.`, level, service, window, generateToolInstructions("log_patterns"))

	return userPrompt("Log pattern analysis using log tools", prompt), nil
}
