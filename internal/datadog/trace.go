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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/fanki/datadog-mcp/internal/domain"
)

type traceResponse struct {
	Data *struct {
		Attributes *traceAttributes `json:"attributes"`
	} `json:"data"`
}

// flexibleID accepts ids sent either as JSON strings or as bare numbers.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = flexibleID(n.String())
	return nil
}

type traceAttributes struct {
	TraceID      flexibleID  `json:"trace_id"`
	Service      string      `json:"service"`
	Env          string      `json:"env"`
	Start        *int64      `json:"start"`
	End          *int64      `json:"end"`
	Duration     *int64      `json:"duration"`
	ResourceName string      `json:"resource_name"`
	Spans        []traceSpan `json:"spans"`
}

type traceSpan struct {
	SpanID   flexibleID         `json:"span_id"`
	ParentID flexibleID         `json:"parent_id"`
	TraceID  flexibleID         `json:"trace_id"`
	Service  string             `json:"service"`
	Name     string             `json:"name"`
	Resource string             `json:"resource"`
	Start    *int64             `json:"start"`
	Duration *int64             `json:"duration"`
	Error    int                `json:"error"`
	Meta     map[string]string  `json:"meta"`
	Metrics  map[string]float64 `json:"metrics"`
}

func (s traceSpan) errorMessage() string {
	if msg, ok := s.Meta["error.message"]; ok {
		return msg
	}
	return s.Meta["error.msg"]
}

// GetTraceDetail fetches every span of a trace. Traces with spans are cached;
// an empty trace is returned without error and is not cached, since spans may
// still be arriving.
func (c *Client) GetTraceDetail(ctx context.Context, traceID, service, env string) (*domain.TraceDetail, error) {
	creds, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}

	cacheKey := creds.site() + "/" + traceID
	if trace, ok := c.traces.Get(cacheKey); ok {
		log.Debugf("trace %s served from cache", traceID)
		return trace, nil
	}

	endpoint := c.traceBaseURL(creds) + "/api/v1/trace/" + url.PathEscape(traceID)
	var payload []byte
	err = c.withRetry(ctx, "trace "+traceID, func() error {
		var fetchErr error
		payload, fetchErr = c.get(ctx, endpoint, creds)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trace %s: %w", traceID, err)
	}

	var resp traceResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode trace %s: %w", traceID, err)
	}
	trace, err := mapTraceDetail(resp, traceID, service, env)
	if err != nil {
		return nil, err
	}
	if trace.SpanCount() > 0 && c.traces != nil && !c.traces.Set(cacheKey, trace) {
		log.Debugf("trace %s was not admitted to the cache", traceID)
	}
	return trace, nil
}

// get performs one attempt. Errors that should not be retried are wrapped
// with backoff.Permanent.
func (c *Client) get(ctx context.Context, endpoint string, creds Credentials) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", creds.APIKey)
	req.Header.Set("DD-APPLICATION-KEY", creds.AppKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		if apiErr.Retryable() {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}
	return body, nil
}

func mapTraceDetail(resp traceResponse, traceID, service, env string) (*domain.TraceDetail, error) {
	if resp.Data == nil || resp.Data.Attributes == nil {
		return domain.NewTraceDetail(domain.TraceDetail{
			TraceID:   traceID,
			Service:   service,
			Env:       env,
			StartTime: time.Now(),
		})
	}

	attrs := resp.Data.Attributes
	spans := make([]domain.SpanDetail, 0, len(attrs.Spans))
	for _, s := range attrs.Spans {
		span, err := domain.NewSpanDetail(domain.SpanDetail{
			SpanID:        string(s.SpanID),
			ParentSpanID:  string(s.ParentID),
			Service:       s.Service,
			OperationName: s.Name,
			ResourceName:  s.Resource,
			StartTime:     nanosToTime(s.Start),
			Duration:      time.Duration(valueOr(s.Duration, 0)),
			IsError:       s.Error != 0,
			ErrorMessage:  s.errorMessage(),
			ErrorType:     s.Meta["error.type"],
			ErrorStack:    s.Meta["error.stack"],
			Tags:          s.Meta,
		})
		if err != nil {
			log.WithError(err).Warnf("skipping malformed span in trace %s", traceID)
			continue
		}
		spans = append(spans, span)
	}

	return domain.NewTraceDetail(domain.TraceDetail{
		TraceID:      firstNonEmpty(string(attrs.TraceID), traceID),
		Service:      firstNonEmpty(attrs.Service, service),
		Env:          firstNonEmpty(attrs.Env, env),
		ResourceName: attrs.ResourceName,
		StartTime:    nanosToTime(attrs.Start),
		Duration:     time.Duration(valueOr(attrs.Duration, 0)),
		Spans:        spans,
	})
}

func nanosToTime(nanos *int64) time.Time {
	if nanos == nil {
		return time.Now()
	}
	return time.Unix(0, *nanos).UTC()
}

func valueOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
