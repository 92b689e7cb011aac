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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpanDetail(t *testing.T) {
	tags := map[string]string{"http.method": "POST"}
	span, err := NewSpanDetail(SpanDetail{SpanID: "1", Service: "orders", Duration: 1500 * time.Millisecond, Tags: tags})
	require.NoError(t, err)
	tags["http.method"] = "GET"
	assert.Equal(t, "POST", span.Tags["http.method"])
	assert.Equal(t, "1.50s", span.FormattedDuration())
	assert.True(t, span.IsRoot())

	_, err = NewSpanDetail(SpanDetail{SpanID: " ", Service: "orders"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewSpanDetail(SpanDetail{SpanID: "1"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewSpanDetail(SpanDetail{SpanID: "1", Service: "orders", Duration: -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSpanDetailHelpers(t *testing.T) {
	assert.True(t, SpanDetail{ParentSpanID: "0"}.IsRoot())
	assert.False(t, SpanDetail{ParentSpanID: "17"}.IsRoot())
	assert.Equal(t, "12.35ms", SpanDetail{Duration: 12345678}.FormattedDuration())

	assert.Equal(t, "", SpanDetail{ErrorMessage: "boom"}.ErrorSummary())
	assert.Equal(t, "java.lang.X: boom", SpanDetail{IsError: true, ErrorType: "java.lang.X", ErrorMessage: "boom"}.ErrorSummary())
	assert.Equal(t, "boom", SpanDetail{IsError: true, ErrorMessage: "boom"}.ErrorSummary())
	assert.Equal(t, "java.lang.X", SpanDetail{IsError: true, ErrorType: "java.lang.X"}.ErrorSummary())
	assert.Equal(t, "Unknown error", SpanDetail{IsError: true}.ErrorSummary())
}

func TestTraceDetail(t *testing.T) {
	trace, err := NewTraceDetail(TraceDetail{
		TraceID:  "abc",
		Service:  "gateway",
		Duration: 250 * time.Millisecond,
		Spans: []SpanDetail{
			{SpanID: "2", ParentSpanID: "1", Service: "orders", IsError: true},
			{SpanID: "1", Service: "gateway"},
			{SpanID: "3", ParentSpanID: "2", Service: "inventory", IsError: true},
			{SpanID: "4", ParentSpanID: "2", Service: "orders"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"gateway", "inventory", "orders"}, trace.InvolvedServices())
	assert.Equal(t, 4, trace.SpanCount())
	assert.True(t, trace.HasErrors())
	errs := trace.ErrorSpans()
	require.Len(t, errs, 2)
	assert.Equal(t, "2", errs[0].SpanID)
	assert.Equal(t, "3", errs[1].SpanID)

	root, ok := trace.RootSpan()
	require.True(t, ok)
	assert.Equal(t, "1", root.SpanID)
	assert.Equal(t, "250.00ms", trace.FormattedDuration())

	_, err = NewTraceDetail(TraceDetail{Service: "gateway"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewTraceDetail(TraceDetail{TraceID: "abc"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestQueries(t *testing.T) {
	from := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	tq, err := NewTraceQuery("orders", "prod", from, to, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTraceLimit, tq.Limit)
	assert.Equal(t, "service:orders env:prod status:error", tq.DatadogQuery())

	_, err = NewTraceQuery("orders", "prod", to, from, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewTraceQuery("orders", "prod", from, to, MaxTraceLimit+1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewTraceQuery("", "prod", from, to, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	lq, err := NewLogQuery("orders", "prod", from, to, "@user_id:42", "ERROR", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLimit, lq.Limit)
	assert.Equal(t, "service:orders env:prod status:error @user_id:42", lq.DatadogQuery())

	plain, err := NewLogQuery("orders", "prod", from, to, "", "", MaxLogLimit)
	require.NoError(t, err)
	assert.Equal(t, "service:orders env:prod", plain.DatadogQuery())

	_, err = NewLogQuery("orders", " ", from, to, "", "", 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewLogQuery("orders", "prod", from, to, "", "", -5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLogHelpers(t *testing.T) {
	entry := NewLogEntry(time.Unix(0, 0), "", "hello", nil)
	assert.Equal(t, DefaultLogLevel, entry.Level)
	assert.NotNil(t, entry.Attributes)

	summary := LogSummary{Timestamp: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), Message: "abcdefghij"}
	assert.Equal(t, "2024-01-15T10:00:00Z", summary.FormattedTimestamp())
	assert.False(t, summary.HasTrace())
	assert.Equal(t, "abcd...", summary.TruncatedMessage(7))
	assert.Equal(t, "abcdefghij", summary.TruncatedMessage(10))
}

func TestDiagnosticResult(t *testing.T) {
	trace := &TraceDetail{TraceID: "abc", Service: "gateway", Spans: []SpanDetail{{SpanID: "1", Service: "gateway"}}}
	orders, err := NewServiceErrorView("orders", []SpanDetail{
		{SpanID: "2", ErrorType: "java.lang.IllegalStateException"},
		{SpanID: "3", ErrorType: "java.lang.IllegalStateException"},
		{SpanID: "4"},
	}, nil, "boom", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"java.lang.IllegalStateException"}, orders.UniqueErrorTypes())
	assert.False(t, orders.HasLogs())

	result := &DiagnosticResult{TraceDetail: trace, ServiceErrors: []ServiceErrorView{orders}}
	assert.Equal(t, "abc", result.TraceID())
	assert.Equal(t, 3, result.TotalErrorCount())
	assert.False(t, result.IsDistributedError())

	_, err = NewServiceErrorView("", nil, nil, "", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
