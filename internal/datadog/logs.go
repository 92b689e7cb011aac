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
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	log "github.com/sirupsen/logrus"

	"github.com/fanki/datadog-mcp/internal/domain"
)

const traceLogLimit = 100

// SearchLogsForTrace returns the logs tagged with a trace id, oldest first.
func (c *Client) SearchLogsForTrace(ctx context.Context, traceID string, query domain.TraceQuery) ([]domain.LogEntry, error) {
	body := newLogsRequest(query.From, query.To, "trace_id:"+traceID, traceLogLimit, datadogV2.LOGSSORT_TIMESTAMP_ASCENDING)
	logs, err := c.listLogs(ctx, body)
	if err != nil {
		return nil, err
	}
	return mapLogEntries(logs), nil
}

// SearchLogs returns the logs of a service, newest first.
func (c *Client) SearchLogs(ctx context.Context, query domain.LogQuery) ([]domain.LogSummary, error) {
	body := newLogsRequest(query.From, query.To, query.DatadogQuery(), query.Limit, datadogV2.LOGSSORT_TIMESTAMP_DESCENDING)
	logs, err := c.listLogs(ctx, body)
	if err != nil {
		return nil, err
	}
	return mapLogSummaries(logs), nil
}

func newLogsRequest(from, to time.Time, query string, limit int, order datadogV2.LogsSort) datadogV2.LogsListRequest {
	return datadogV2.LogsListRequest{
		Filter: &datadogV2.LogsQueryFilter{
			From:  datadog.PtrString(from.UTC().Format(time.RFC3339)),
			To:    datadog.PtrString(to.UTC().Format(time.RFC3339)),
			Query: datadog.PtrString(query),
		},
		Page: &datadogV2.LogsListRequestPage{
			Limit: datadog.PtrInt32(int32(limit)),
		},
		Sort: order.Ptr(),
	}
}

func (c *Client) listLogs(ctx context.Context, body datadogV2.LogsListRequest) ([]datadogV2.Log, error) {
	apiCtx, _, err := c.apiContext(ctx)
	if err != nil {
		return nil, err
	}
	params := *datadogV2.NewListLogsOptionalParameters().WithBody(body)
	var resp datadogV2.LogsListResponse
	err = c.withRetry(ctx, "log search", func() error {
		var httpResp *http.Response
		var callErr error
		resp, httpResp, callErr = c.logs.ListLogs(apiCtx, params)
		if callErr != nil {
			return sdkError(ctx, httpResp, callErr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search logs: %w", err)
	}
	log.Debugf("log search %q returned %d logs", body.Filter.GetQuery(), len(resp.Data))
	return resp.Data, nil
}

func mapLogEntries(logs []datadogV2.Log) []domain.LogEntry {
	entries := make([]domain.LogEntry, 0, len(logs))
	for _, l := range logs {
		attrs, ok := l.GetAttributesOk()
		if !ok || attrs == nil {
			continue
		}
		entries = append(entries, domain.NewLogEntry(
			logTimestamp(attrs),
			logLevel(attrs),
			attrs.GetMessage(),
			flattenAttributes(attrs.GetAttributes()),
		))
	}
	return entries
}

func mapLogSummaries(logs []datadogV2.Log) []domain.LogSummary {
	summaries := make([]domain.LogSummary, 0, len(logs))
	for _, l := range logs {
		attrs, ok := l.GetAttributesOk()
		if !ok || attrs == nil {
			continue
		}
		summaries = append(summaries, domain.LogSummary{
			Timestamp: logTimestamp(attrs),
			Level:     logLevel(attrs),
			Service:   attrs.GetService(),
			Message:   attrs.GetMessage(),
			Host:      attrs.GetHost(),
			TraceID:   logTraceID(attrs.GetAttributes()),
		})
	}
	return summaries
}

func logLevel(attrs *datadogV2.LogAttributes) string {
	if status := attrs.GetStatus(); status != "" {
		return strings.ToUpper(status)
	}
	return domain.DefaultLogLevel
}

func logTimestamp(attrs *datadogV2.LogAttributes) time.Time {
	if ts := attrs.GetTimestamp(); !ts.IsZero() {
		return ts
	}
	return time.Now()
}

func logTraceID(attrs map[string]interface{}) string {
	for _, key := range []string{"trace_id", "dd.trace_id"} {
		if v, ok := attrs[key]; ok && v != nil {
			return attributeString(v)
		}
	}
	if dd, ok := attrs["dd"].(map[string]interface{}); ok {
		if v, ok := dd["trace_id"]; ok && v != nil {
			return attributeString(v)
		}
	}
	return ""
}

// attributeString renders a decoded JSON value. Numbers are written in
// plain decimal so large ids do not come out in exponent form; objects and
// arrays are written back as JSON.
func attributeString(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		return value.String()
	case map[string]interface{}, []interface{}:
		if b, err := json.Marshal(value); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// flattenAttributes renders every non-nil top-level attribute as a string.
func flattenAttributes(attrs map[string]interface{}) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if v != nil {
			out[k] = attributeString(v)
		}
	}
	return out
}
