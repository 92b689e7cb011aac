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
	"fmt"
	"net/http"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	log "github.com/sirupsen/logrus"

	"github.com/fanki/datadog-mcp/internal/domain"
)

// SearchErrorTraces lists the most recent error spans of a service.
func (c *Client) SearchErrorTraces(ctx context.Context, query domain.TraceQuery) ([]domain.TraceSummary, error) {
	apiCtx, _, err := c.apiContext(ctx)
	if err != nil {
		return nil, err
	}

	body := datadogV2.SpansListRequest{
		Data: &datadogV2.SpansListRequestData{
			Attributes: &datadogV2.SpansListRequestAttributes{
				Filter: &datadogV2.SpansQueryFilter{
					From:  datadog.PtrString(query.From.UTC().Format(time.RFC3339)),
					To:    datadog.PtrString(query.To.UTC().Format(time.RFC3339)),
					Query: datadog.PtrString(query.DatadogQuery()),
				},
				Page: &datadogV2.SpansListRequestPage{
					Limit: datadog.PtrInt32(int32(query.Limit)),
				},
				Sort: datadogV2.SPANSSORT_TIMESTAMP_DESCENDING.Ptr(),
			},
			Type: datadogV2.SPANSLISTREQUESTTYPE_SEARCH_REQUEST.Ptr(),
		},
	}

	var resp datadogV2.SpansListResponse
	err = c.withRetry(ctx, "span search", func() error {
		var httpResp *http.Response
		var callErr error
		resp, httpResp, callErr = c.spans.ListSpans(apiCtx, body)
		if callErr != nil {
			return sdkError(ctx, httpResp, callErr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search spans: %w", err)
	}
	log.Debugf("span search %q returned %d spans", query.DatadogQuery(), len(resp.Data))
	return mapTraceSummaries(resp.Data), nil
}

func mapTraceSummaries(spans []datadogV2.Span) []domain.TraceSummary {
	summaries := make([]domain.TraceSummary, 0, len(spans))
	for _, span := range spans {
		attrs, ok := span.GetAttributesOk()
		if !ok || attrs == nil {
			continue
		}
		start := attrs.GetStartTimestamp()
		var duration time.Duration
		if end := attrs.GetEndTimestamp(); !start.IsZero() && end.After(start) {
			duration = end.Sub(start)
		}
		summary, err := domain.NewTraceSummary(domain.TraceSummary{
			TraceID:      attrs.GetTraceId(),
			Service:      attrs.GetService(),
			ResourceName: attrs.GetResourceName(),
			ErrorMessage: spanErrorMessage(attrs),
			Timestamp:    start,
			Duration:     duration,
		})
		if err != nil {
			log.WithError(err).Warn("skipping span without trace identity")
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// spanErrorMessage looks for error.message then error.msg, both as flat keys
// and as a nested "error" object, in the span attributes and custom tags.
func spanErrorMessage(attrs *datadogV2.SpansAttributes) string {
	for _, source := range []map[string]interface{}{attrs.GetAttributes(), attrs.GetCustom()} {
		for _, key := range []string{"message", "msg"} {
			if v, ok := source["error."+key]; ok && v != nil {
				return attributeString(v)
			}
			if nested, ok := source["error"].(map[string]interface{}); ok {
				if v, ok := nested[key]; ok && v != nil {
					return attributeString(v)
				}
			}
		}
	}
	return ""
}
