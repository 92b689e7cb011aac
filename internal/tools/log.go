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
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fanki/datadog-mcp/internal/domain"
)

// AddLogTools registers log-related tools with the MCP server
func AddLogTools(s *server.MCPServer) {
	SearchLogsTool.Register(s)
	CorrelateLogsTool.Register(s)
}

const (
	actionSearchLogs    = "search logs"
	actionCorrelateLogs = "correlate logs"
)

// SearchLogsRequest defines the parameters for log.search_logs
type SearchLogsRequest struct {
	TimeWindow
	Query            string      `json:"query,omitempty"`
	Level            string      `json:"level,omitempty"`
	Limit            int         `json:"limit,omitempty"`
	OutputMode       string      `json:"outputMode,omitempty"`
	MaxMessageLength int         `json:"maxMessageLength,omitempty"`
	RelevantPackages *StringList `json:"relevantPackages,omitempty"`
	StackTraceDetail string      `json:"stackTraceDetail,omitempty"`
}

// CorrelateLogsRequest defines the parameters for log.correlate
type CorrelateLogsRequest struct {
	TraceID string `json:"traceId"`
	TimeWindow
	IncludeTrace     *bool       `json:"includeTrace,omitempty"`
	RelevantPackages *StringList `json:"relevantPackages,omitempty"`
	StackTraceDetail string      `json:"stackTraceDetail,omitempty"`
}

type logLineView struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service"`
	Message   string `json:"message"`
	Host      string `json:"host"`
	TraceID   string `json:"traceId,omitempty"`
}

type searchLogsResult struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Logs    []logLineView `json:"logs"`
}

type logGroupView struct {
	Pattern         string `json:"pattern"`
	Level           string `json:"level"`
	Count           int    `json:"count"`
	FirstOccurrence string `json:"firstOccurrence"`
	LastOccurrence  string `json:"lastOccurrence"`
}

type summarizedLogsResult struct {
	Success        bool           `json:"success"`
	TotalLogs      int            `json:"totalLogs"`
	UniquePatterns int            `json:"uniquePatterns"`
	Groups         []logGroupView `json:"groups"`
}

type correlatedTraceView struct {
	Service      string   `json:"service"`
	ResourceName string   `json:"resourceName"`
	Duration     string   `json:"duration"`
	SpanCount    int      `json:"spanCount"`
	Services     []string `json:"services"`
	HasErrors    bool     `json:"hasErrors"`
}

type correlatedLogView struct {
	Timestamp  string            `json:"timestamp"`
	Level      string            `json:"level"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type correlateLogsResult struct {
	Success  bool                 `json:"success"`
	TraceID  string               `json:"traceId"`
	Trace    *correlatedTraceView `json:"trace,omitempty"`
	Logs     []correlatedLogView  `json:"logs"`
	LogCount int                  `json:"logCount"`
}

func searchLogs(ctx context.Context, req *SearchLogsRequest) (*mcp.CallToolResult, error) {
	rt, err := RuntimeFromContext(ctx)
	if err != nil {
		return failure(actionSearchLogs, err), nil
	}
	env, from, to, err := req.resolve(rt)
	if err != nil {
		return failure(actionSearchLogs, err), nil
	}
	query, err := domain.NewLogQuery(req.Service, env, from, to, req.Query, req.Level, req.Limit)
	if err != nil {
		return failure(actionSearchLogs, err), nil
	}

	packages := rt.Filters.RelevantPackages(rt.project(ctx))
	if req.RelevantPackages != nil {
		packages = *req.RelevantPackages
	}
	filter := domain.NewStackTraceFilter(packages)
	detail := domain.ParseStackTraceDetail(req.StackTraceDetail)

	logs, err := rt.Client.SearchLogs(ctx, query)
	if err != nil {
		return failure(actionSearchLogs, err), nil
	}

	if strings.EqualFold(req.OutputMode, OutputModeSummarize) {
		return jsonResult(newSummarizedLogsResult(logs)), nil
	}
	maxLength := req.MaxMessageLength
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	return jsonResult(newSearchLogsResult(logs, filter, detail, maxLength)), nil
}

func newSearchLogsResult(logs []domain.LogSummary, filter *domain.StackTraceFilter, detail domain.StackTraceDetail, maxLength int) searchLogsResult {
	views := make([]logLineView, 0, len(logs))
	for _, l := range logs {
		view := logLineView{
			Timestamp: l.FormattedTimestamp(),
			Level:     l.Level,
			Service:   l.Service,
			Message:   domain.Truncate(filter.Filter(l.Message, detail), maxLength),
			Host:      l.Host,
		}
		if l.HasTrace() {
			view.TraceID = l.TraceID
		}
		views = append(views, view)
	}
	return searchLogsResult{Success: true, Count: len(views), Logs: views}
}

func newSummarizedLogsResult(logs []domain.LogSummary) summarizedLogsResult {
	groups := domain.GroupLogs(logs)
	views := make([]logGroupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, logGroupView{
			Pattern:         g.Pattern,
			Level:           g.Level,
			Count:           g.Count,
			FirstOccurrence: formatInstant(g.FirstOccurrence),
			LastOccurrence:  formatInstant(g.LastOccurrence),
		})
	}
	return summarizedLogsResult{
		Success:        true,
		TotalLogs:      len(logs),
		UniquePatterns: len(views),
		Groups:         views,
	}
}

func correlateLogs(ctx context.Context, req *CorrelateLogsRequest) (*mcp.CallToolResult, error) {
	rt, err := RuntimeFromContext(ctx)
	if err != nil {
		return failure(actionCorrelateLogs, err), nil
	}
	if err := requireString("traceId", req.TraceID); err != nil {
		return failure(actionCorrelateLogs, err), nil
	}
	query, err := req.traceQuery(rt, 0)
	if err != nil {
		return failure(actionCorrelateLogs, err), nil
	}

	packages := rt.Filters.GlobalPackages()
	if req.RelevantPackages != nil {
		packages = *req.RelevantPackages
	}
	filter := domain.NewStackTraceFilter(packages)
	detail := domain.ParseStackTraceDetail(req.StackTraceDetail)

	res := correlateLogsResult{Success: true, TraceID: req.TraceID}
	if req.IncludeTrace == nil || *req.IncludeTrace {
		trace, err := rt.Client.GetTraceDetail(ctx, req.TraceID, query.Service, query.Env)
		if err != nil {
			return failure(actionCorrelateLogs, err), nil
		}
		if trace != nil {
			res.Trace = &correlatedTraceView{
				Service:      trace.Service,
				ResourceName: trace.ResourceName,
				Duration:     trace.FormattedDuration(),
				SpanCount:    trace.SpanCount(),
				Services:     trace.InvolvedServices(),
				HasErrors:    trace.HasErrors(),
			}
		}
	}

	logs, err := rt.Client.SearchLogsForTrace(ctx, req.TraceID, query)
	if err != nil {
		return failure(actionCorrelateLogs, err), nil
	}
	res.Logs = make([]correlatedLogView, 0, len(logs))
	for _, l := range logs {
		view := correlatedLogView{
			Timestamp: formatInstant(l.Timestamp),
			Level:     l.Level,
			Message:   l.Message,
		}
		if len(l.Attributes) > 0 {
			view.Attributes = filter.FilterAttributes(l.Attributes, detail)
		}
		res.Logs = append(res.Logs, view)
	}
	res.LogCount = len(logs)
	return jsonResult(res), nil
}

// SearchLogsTool searches the logs of a service
var SearchLogsTool = NewTool[SearchLogsRequest, *mcp.CallToolResult](
	"log.search_logs",
	`Searches the logs of a service in a time window, newest first.

Stack traces in messages are filtered with the package prefixes configured
through filter.configure unless 'relevantPackages' is given:
- 'full': (Default) leave stack traces untouched
- 'relevant': keep frames of the relevant packages and collapse the rest into
  "... N frames omitted (framework) ..." lines
- 'minimal': keep only the exception header and its "Caused by" lines

Output modes:
- 'full': (Default) one entry per log, messages truncated to 'maxMessageLength'
- 'summarize': group near-duplicate messages by normalized pattern and count them

Workflow:
1. Call filter.configure with action 'status' once per project
2. Search with outputMode 'summarize' to see which errors dominate
3. Narrow down with 'query' and 'level', then follow traceIds with log.correlate

Examples:
- {"service": "checkout", "from": "2024-01-15T10:00:00Z", "to": "2024-01-15T11:00:00Z", "level": "ERROR"}
- {"service": "checkout", "from": "...", "to": "...", "outputMode": "summarize"}
- {"service": "checkout", "from": "...", "to": "...", "query": "@http.status_code:500", "stackTraceDetail": "relevant"}`,
	searchLogs,
	mcp.WithTitleAnnotation("Search service logs"),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("service", mcp.Required(),
		mcp.Description("Service name."),
	),
	mcp.WithString("env",
		mcp.Description("Environment tag. Defaults to the server's configured environment."),
	),
	mcp.WithString("from", mcp.Required(),
		mcp.Description("Start of the window, ISO-8601."),
	),
	mcp.WithString("to", mcp.Required(),
		mcp.Description("End of the window, ISO-8601."),
	),
	mcp.WithString("query",
		mcp.Description("Additional Datadog log query, appended to the service and env filters."),
	),
	mcp.WithString("level",
		mcp.Description("Log status to keep, e.g. ERROR or WARN."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of logs, 1-1000. Default 100."),
	),
	mcp.WithString("outputMode",
		mcp.Enum(OutputModeFull, OutputModeSummarize),
		mcp.DefaultString(DefaultOutputMode),
		mcp.Description("'full' (default) or 'summarize'."),
	),
	mcp.WithNumber("maxMessageLength",
		mcp.Description("Messages longer than this are truncated with '...'. Default 500."),
	),
	mcp.WithArray("relevantPackages",
		mcp.WithStringItems(),
		mcp.Description("Package prefixes of application code, e.g. ['com.mycompany']."),
	),
	mcp.WithString("stackTraceDetail",
		mcp.Enum(string(domain.StackTraceFull), string(domain.StackTraceRelevant), string(domain.StackTraceMinimal)),
		mcp.Description("'full' (default), 'relevant' or 'minimal'."),
	),
)

// CorrelateLogsTool returns every log of a trace
var CorrelateLogsTool = NewTool[CorrelateLogsRequest, *mcp.CallToolResult](
	"log.correlate",
	`Returns the logs written while serving one trace, oldest first, together
with a short summary of the trace.

Stack traces found in log attributes are filtered with 'stackTraceDetail';
without 'relevantPackages' the global package prefixes are used.

Examples:
- {"traceId": "1234567890", "service": "checkout", "from": "2024-01-15T10:00:00Z", "to": "2024-01-15T11:00:00Z"}
- {"traceId": "1234567890", "service": "checkout", "from": "...", "to": "...", "includeTrace": false, "stackTraceDetail": "minimal"}`,
	correlateLogs,
	mcp.WithTitleAnnotation("Correlate logs with a trace"),
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
		mcp.Description("Start of the window, ISO-8601."),
	),
	mcp.WithString("to", mcp.Required(),
		mcp.Description("End of the window, ISO-8601."),
	),
	mcp.WithBoolean("includeTrace",
		mcp.Description("Also fetch the trace summary. Default true."),
	),
	mcp.WithArray("relevantPackages",
		mcp.WithStringItems(),
		mcp.Description("Package prefixes of application code."),
	),
	mcp.WithString("stackTraceDetail",
		mcp.Enum(string(domain.StackTraceFull), string(domain.StackTraceRelevant), string(domain.StackTraceMinimal)),
		mcp.Description("'full' (default), 'relevant' or 'minimal'."),
	),
)
