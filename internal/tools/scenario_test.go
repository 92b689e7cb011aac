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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanki/datadog-mcp/internal/domain"
)

func TestExtractScenario(t *testing.T) {
	client := &fakeClient{
		trace: checkoutTrace(),
		traceLogs: []domain.LogEntry{
			domain.NewLogEntry(t0.Add(time.Millisecond), "INFO", "placing order", map[string]string{"user_id": "u-9"}),
		},
	}
	res := call(t, newRuntime(t, client), ExtractScenarioTool, window(map[string]any{"traceId": "trace-1"}))
	out := decode(t, res)

	assert.Equal(t, "trace-1", out["traceId"])
	assert.Equal(t, map[string]any{
		"method":  "POST",
		"path":    "/api/orders",
		"headers": map[string]any{"x-tenant": "acme"},
	}, out["entryPoint"])
	assert.Equal(t, float64(3), out["stepCount"])
	assert.Equal(t, float64(250), out["totalDurationMs"])
	assert.Equal(t, []any{"checkout", "inventory"}, out["involvedServices"])

	flow := out["executionFlow"].([]any)
	require.Len(t, flow, 3)
	assert.Equal(t, map[string]any{
		"order":        float64(2),
		"spanId":       "3",
		"parentSpanId": "1",
		"service":      "checkout",
		"operation":    "SELECT * FROM orders",
		"type":         "db",
		"detail":       "SELECT * FROM orders",
		"durationMs":   float64(3),
		"isError":      true,
	}, flow[1])
	assert.NotContains(t, flow[0].(map[string]any), "isError")

	errCtx := out["errorContext"].(map[string]any)
	assert.Equal(t, "inventory", errCtx["service"])
	assert.Equal(t, "com.acme.OutOfStockException", errCtx["exceptionType"])
	assert.Equal(t, map[string]any{
		"className":  "com.acme.inventory.InventoryService",
		"methodName": "reserve",
		"fileName":   "InventoryService.java",
		"lineNumber": float64(88),
	}, errCtx["location"])
	assert.Equal(t, map[string]any{"order_id": "A-1"}, errCtx["spanTags"])

	assert.Equal(t, map[string]any{
		"given": "Data: order_id=A-1, db_type=postgresql, user_id=u-9",
		"when":  "Request: POST /api/orders",
		"then":  "OutOfStockException is thrown with message 'sku 42 unavailable'",
	}, out["suggestedTestScenario"])

	// relevant data keeps insertion order on the wire
	assert.Contains(t, resultText(t, res), `"relevantData":{"order_id":"A-1","db_type":"postgresql","user_id":"u-9"}`)
}

func TestExtractScenarioWithoutErrorsOrSpans(t *testing.T) {
	client := &fakeClient{trace: &domain.TraceDetail{TraceID: "trace-2", Service: "checkout", StartTime: t0}}
	out := decode(t, call(t, newRuntime(t, client), ExtractScenarioTool, window(map[string]any{"traceId": "trace-2"})))

	assert.Equal(t, []any{}, out["executionFlow"])
	assert.Equal(t, float64(0), out["stepCount"])
	assert.Equal(t, float64(0), out["totalDurationMs"])
	for _, key := range []string{"entryPoint", "errorContext", "relevantData", "suggestedTestScenario"} {
		assert.NotContains(t, out, key)
	}
}

func TestExtractScenarioChecksTraceIDFirst(t *testing.T) {
	requireToolError(t, call(t, newRuntime(t, &fakeClient{}), ExtractScenarioTool, map[string]any{}),
		"Invalid arguments: Missing required parameter: traceId")
}
