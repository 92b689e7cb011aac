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

package datadog

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanki/datadog-mcp/internal/domain"
)

const logsPayload = `{"data":[{"id":"AAA","type":"log","attributes":{
	"message":"Order rejected","status":"error","service":"orders","host":"host-1",
	"attributes":{"trace_id":"abc123"}}}]}`

const spansPayload = `{"data":[{"id":"BBB","type":"spans","attributes":{
	"trace_id":"abc123","service":"orders","resource_name":"POST /api/orders",
	"custom":{"error.message":"Not enough stock"}}}]}`

func logQuery(t *testing.T) domain.LogQuery {
	t.Helper()
	from := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	q, err := domain.NewLogQuery("orders", "prod", from, from.Add(time.Hour), "", "", 0)
	require.NoError(t, err)
	return q
}

func TestSearchLogsRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/logs/events/search", r.URL.Path)
		assert.Equal(t, "api-key", r.Header.Get("DD-API-KEY"))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(logsPayload))
	})

	logs, err := client.SearchLogs(context.Background(), logQuery(t))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "abc123", logs[0].TraceID)
	assert.Equal(t, "ERROR", logs[0].Level)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchLogsForbiddenIsPermanent(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":["Forbidden"]}`))
	})

	_, err := client.SearchLogs(context.Background(), logQuery(t))
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Forbidden")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchErrorTracesGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/spans/events/search", r.URL.Path)
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	from := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	q, err := domain.NewTraceQuery("orders", "prod", from, from.Add(time.Hour), 0)
	require.NoError(t, err)

	_, err = client.SearchErrorTraces(context.Background(), q)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchErrorTraces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(spansPayload))
	})

	from := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	q, err := domain.NewTraceQuery("orders", "prod", from, from.Add(time.Hour), 0)
	require.NoError(t, err)

	traces, err := client.SearchErrorTraces(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, "abc123", traces[0].TraceID)
	assert.Equal(t, "Not enough stock", traces[0].ErrorMessage)
}
