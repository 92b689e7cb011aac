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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanki/datadog-mcp/internal/domain"
)

const nestedStack = "java.lang.IllegalStateException: boom\n" +
	"\tat com.acme.OrderService.place(OrderService.java:10)\n" +
	"Caused by: java.io.IOException: disk full\n" +
	"\tat java.io.FileOutputStream.write(FileOutputStream.java:326)"

const minimalStack = "java.lang.IllegalStateException: boom\n" +
	"Caused by: java.io.IOException: disk full"

func TestSearchLogsFull(t *testing.T) {
	client := &fakeClient{logs: []domain.LogSummary{
		{Timestamp: t0, Level: "ERROR", Service: "checkout", Message: nestedStack, Host: "web-1", TraceID: "abc"},
		{Timestamp: t0, Level: "INFO", Service: "checkout", Message: "0123456789abcdef", Host: "web-2"},
	}}
	args := window(map[string]any{
		"query":            "@http.status_code:500",
		"level":            "ERROR",
		"limit":            50,
		"maxMessageLength": 10,
		"relevantPackages": []any{"com.acme"},
		"stackTraceDetail": "MINIMAL",
	})
	out := decode(t, call(t, newRuntime(t, client), SearchLogsTool, args))

	assert.Equal(t, float64(2), out["count"])
	logs := out["logs"].([]any)
	require.Len(t, logs, 2)
	assert.Equal(t, map[string]any{
		"timestamp": "2024-01-15T10:00:00Z",
		"level":     "ERROR",
		"service":   "checkout",
		"message":   domain.Truncate(minimalStack, 10),
		"host":      "web-1",
		"traceId":   "abc",
	}, logs[0])
	assert.Equal(t, "0123456...", logs[1].(map[string]any)["message"])
	assert.NotContains(t, logs[1].(map[string]any), "traceId")

	require.Len(t, client.logQueries, 1)
	q := client.logQueries[0]
	assert.Equal(t, 50, q.Limit)
	assert.Equal(t, "service:checkout env:prod status:error @http.status_code:500", q.DatadogQuery())
}

func TestSearchLogsFiltersBeforeTruncating(t *testing.T) {
	client := &fakeClient{logs: []domain.LogSummary{
		{Timestamp: t0, Level: "ERROR", Service: "checkout", Message: nestedStack},
	}}
	args := window(map[string]any{"relevantPackages": "com.acme", "stackTraceDetail": "minimal"})
	out := decode(t, call(t, newRuntime(t, client), SearchLogsTool, args))

	logs := out["logs"].([]any)
	assert.Equal(t, minimalStack, logs[0].(map[string]any)["message"])
}

func TestSearchLogsUsesStoredPackages(t *testing.T) {
	client := &fakeClient{logs: []domain.LogSummary{
		{Timestamp: t0, Level: "ERROR", Service: "checkout", Message: nestedStack},
	}}
	rt := newRuntime(t, client)
	require.NoError(t, rt.Filters.SetGlobalPackages([]string{"com.acme"}))

	out := decode(t, call(t, rt, SearchLogsTool, window(map[string]any{"stackTraceDetail": "minimal"})))
	assert.Equal(t, minimalStack, out["logs"].([]any)[0].(map[string]any)["message"])

	require.NoError(t, rt.Filters.SetProjectNoFilter("checkout"))
	out = decode(t, call(t, rt, SearchLogsTool, window(map[string]any{"stackTraceDetail": "minimal"})))
	assert.Equal(t, nestedStack, out["logs"].([]any)[0].(map[string]any)["message"])
}

func TestSearchLogsSummarize(t *testing.T) {
	client := &fakeClient{logs: []domain.LogSummary{
		{Timestamp: t0.Add(time.Minute), Level: "ERROR", Service: "checkout", Message: "Order 67890 failed"},
		{Timestamp: t0.Add(30 * time.Second), Level: "WARN", Service: "checkout", Message: "slow request"},
		{Timestamp: t0, Level: "ERROR", Service: "checkout", Message: "Order 12345 failed"},
	}}
	out := decode(t, call(t, newRuntime(t, client), SearchLogsTool, window(map[string]any{"outputMode": "summarize"})))

	assert.Equal(t, float64(3), out["totalLogs"])
	assert.Equal(t, float64(2), out["uniquePatterns"])
	groups := out["groups"].([]any)
	require.Len(t, groups, 2)
	assert.Equal(t, map[string]any{
		"pattern":         "Order <ID> failed",
		"level":           "ERROR",
		"count":           float64(2),
		"firstOccurrence": "2024-01-15T10:00:00Z",
		"lastOccurrence":  "2024-01-15T10:01:00Z",
	}, groups[0])
	assert.Equal(t, "slow request", groups[1].(map[string]any)["pattern"])
}

func TestSearchLogsErrors(t *testing.T) {
	requireToolError(t, call(t, newRuntime(t, &fakeClient{}), SearchLogsTool, window(map[string]any{"limit": 1001})),
		"Invalid arguments: limit must be between 1 and 1000")
	requireToolError(t, call(t, newRuntime(t, &fakeClient{err: errors.New("rate limited")}), SearchLogsTool, window(nil)),
		"Failed to search logs: rate limited")
}

func TestCorrelateLogs(t *testing.T) {
	client := &fakeClient{
		trace: checkoutTrace(),
		traceLogs: []domain.LogEntry{
			domain.NewLogEntry(t0, "ERROR", "reservation failed", map[string]string{
				domain.StackTraceAttribute: nestedStack,
				"user_id":                  "u-9",
			}),
			domain.NewLogEntry(t0.Add(time.Millisecond), "", "done", nil),
		},
	}
	args := window(map[string]any{
		"traceId":          "trace-1",
		"relevantPackages": []any{"com.acme"},
		"stackTraceDetail": "minimal",
	})
	out := decode(t, call(t, newRuntime(t, client), CorrelateLogsTool, args))

	assert.Equal(t, "trace-1", out["traceId"])
	assert.Equal(t, float64(2), out["logCount"])
	assert.Equal(t, map[string]any{
		"service":      "checkout",
		"resourceName": "POST /api/orders",
		"duration":     "250.00ms",
		"spanCount":    float64(3),
		"services":     []any{"checkout", "inventory"},
		"hasErrors":    true,
	}, out["trace"])

	logs := out["logs"].([]any)
	require.Len(t, logs, 2)
	assert.Equal(t, map[string]any{
		"timestamp": "2024-01-15T10:00:00Z",
		"level":     "ERROR",
		"message":   "reservation failed",
		"attributes": map[string]any{
			domain.StackTraceAttribute: minimalStack,
			"user_id":                  "u-9",
		},
	}, logs[0])
	assert.Equal(t, map[string]any{
		"timestamp": "2024-01-15T10:00:00.001Z",
		"level":     domain.DefaultLogLevel,
		"message":   "done",
	}, logs[1])
}

func TestCorrelateLogsWithoutTrace(t *testing.T) {
	client := &fakeClient{trace: checkoutTrace()}
	args := window(map[string]any{"traceId": "trace-1", "includeTrace": false})
	out := decode(t, call(t, newRuntime(t, client), CorrelateLogsTool, args))

	assert.NotContains(t, out, "trace")
	assert.Equal(t, []any{}, out["logs"])
	assert.Equal(t, float64(0), out["logCount"])
	assert.Zero(t, client.traceFetches)
}

func TestCorrelateLogsUsesGlobalPackages(t *testing.T) {
	client := &fakeClient{traceLogs: []domain.LogEntry{
		domain.NewLogEntry(t0, "ERROR", "failed", map[string]string{domain.StackTraceAttribute: nestedStack}),
	}}
	rt := newRuntime(t, client)
	require.NoError(t, rt.Filters.SetGlobalPackages([]string{"com.acme"}))
	require.NoError(t, rt.Filters.SetProjectNoFilter("checkout"))

	args := window(map[string]any{"traceId": "trace-1", "includeTrace": false, "stackTraceDetail": "minimal"})
	out := decode(t, call(t, rt, CorrelateLogsTool, args))

	attrs := out["logs"].([]any)[0].(map[string]any)["attributes"].(map[string]any)
	assert.Equal(t, minimalStack, attrs[domain.StackTraceAttribute])
}
