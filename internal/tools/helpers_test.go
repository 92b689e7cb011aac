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
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/fanki/datadog-mcp/internal/domain"
	"github.com/fanki/datadog-mcp/internal/filterconfig"
)

var t0 = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

const (
	windowFrom = "2024-01-15T10:00:00Z"
	windowTo   = "2024-01-15T11:00:00Z"
)

type fakeClient struct {
	traces    []domain.TraceSummary
	trace     *domain.TraceDetail
	traceLogs []domain.LogEntry
	logs      []domain.LogSummary
	err       error

	traceQueries []domain.TraceQuery
	logQueries   []domain.LogQuery
	traceFetches int
}

func (f *fakeClient) SearchErrorTraces(_ context.Context, q domain.TraceQuery) ([]domain.TraceSummary, error) {
	f.traceQueries = append(f.traceQueries, q)
	return f.traces, f.err
}

func (f *fakeClient) GetTraceDetail(context.Context, string, string, string) (*domain.TraceDetail, error) {
	f.traceFetches++
	return f.trace, f.err
}

func (f *fakeClient) SearchLogsForTrace(_ context.Context, _ string, q domain.TraceQuery) ([]domain.LogEntry, error) {
	f.traceQueries = append(f.traceQueries, q)
	return f.traceLogs, f.err
}

func (f *fakeClient) SearchLogs(_ context.Context, q domain.LogQuery) ([]domain.LogSummary, error) {
	f.logQueries = append(f.logQueries, q)
	return f.logs, f.err
}

func newRuntime(t *testing.T, client *fakeClient) *Runtime {
	t.Helper()
	return &Runtime{
		Client:     client,
		Filters:    filterconfig.Open(filepath.Join(t.TempDir(), "filter-config.json")),
		DefaultEnv: "prod",
		Site:       "datadoghq.eu",
		DetectProject: func(context.Context) string {
			return "checkout"
		},
	}
}

func call[T any, R any](t *testing.T, rt *Runtime, tool *Tool[T, R], args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	if rt != nil {
		ctx = WithRuntime(ctx, rt)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = tool.Name
	req.Params.Arguments = args
	res, err := tool.Handle(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text
}

func decode(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	return out
}

func requireToolError(t *testing.T, res *mcp.CallToolResult, want string) {
	t.Helper()
	require.True(t, res.IsError)
	require.Equal(t, want, resultText(t, res))
}

func window(extra map[string]any) map[string]any {
	args := map[string]any{
		"service": "checkout",
		"from":    windowFrom,
		"to":      windowTo,
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}
