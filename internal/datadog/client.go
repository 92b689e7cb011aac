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

// Package datadog fetches spans, traces and logs from the Datadog API and
// maps them onto the domain types.
package datadog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const requestTimeout = 30 * time.Second

// RetryPolicy is the exponential backoff applied to retryable failures.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy makes three attempts, waiting 500ms then 1s.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	Multiplier:      2,
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.Multiplier = p.Multiplier
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Client talks to one Datadog site. Credentials come from the request context
// when present, else from the defaults the client was built with.
type Client struct {
	api        *datadog.APIClient
	spans      *datadogV2.SpansApi
	logs       *datadogV2.LogsApi
	httpClient *http.Client
	defaults   Credentials
	baseURL    string
	retry      RetryPolicy
	traces     *TraceCache
}

type Option func(*Client)

// WithHTTPClient replaces the client used for the raw trace endpoint.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points every endpoint at a different host.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithTraceCache enables caching of fetched traces.
func WithTraceCache(cache *TraceCache) Option {
	return func(c *Client) {
		c.traces = cache
	}
}

func NewClient(defaults Credentials, opts ...Option) *Client {
	c := &Client{
		defaults:   defaults,
		httpClient: &http.Client{Timeout: requestTimeout},
		retry:      DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := datadog.NewConfiguration()
	cfg.HTTPClient = c.httpClient
	// Retries go through withRetry so every call shares one policy.
	cfg.RetryConfiguration.EnableRetry = false
	if c.baseURL != "" {
		cfg.Servers = datadog.ServerConfigurations{{URL: c.baseURL, Description: "override"}}
	}

	c.api = datadog.NewAPIClient(cfg)
	c.spans = datadogV2.NewSpansApi(c.api)
	c.logs = datadogV2.NewLogsApi(c.api)
	return c
}

// credentials merges the request credentials over the client defaults.
func (c *Client) credentials(ctx context.Context) (Credentials, error) {
	creds := c.defaults
	if override, ok := CredentialsFromContext(ctx); ok {
		if override.APIKey != "" {
			creds.APIKey = override.APIKey
		}
		if override.AppKey != "" {
			creds.AppKey = override.AppKey
		}
		if override.Site != "" {
			creds.Site = override.Site
		}
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// apiContext carries the keys and site the SDK reads from the context.
func (c *Client) apiContext(ctx context.Context) (context.Context, Credentials, error) {
	creds, err := c.credentials(ctx)
	if err != nil {
		return nil, Credentials{}, err
	}
	ctx = context.WithValue(ctx, datadog.ContextAPIKeys, map[string]datadog.APIKey{
		"apiKeyAuth": {Key: creds.APIKey},
		"appKeyAuth": {Key: creds.AppKey},
	})
	ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{
		"site": creds.site(),
	})
	return ctx, creds, nil
}

func (c *Client) traceBaseURL(creds Credentials) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return creds.BaseURL()
}

// withRetry runs op under the client's retry policy. op marks errors that
// must not be retried with backoff.Permanent.
func (c *Client) withRetry(ctx context.Context, what string, op func() error) error {
	return backoff.RetryNotify(op, c.retry.backOff(ctx), func(err error, wait time.Duration) {
		log.WithError(err).Warnf("retrying %s in %s", what, wait)
	})
}

// sdkError classifies an SDK failure like a raw response: retryable statuses
// and transport errors are retried, everything else is permanent.
func sdkError(ctx context.Context, httpResp *http.Response, err error) error {
	if httpResp == nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	if httpResp.StatusCode < http.StatusBadRequest {
		return backoff.Permanent(err)
	}

	apiErr := &APIError{StatusCode: httpResp.StatusCode}
	var openAPIErr datadog.GenericOpenAPIError
	if errors.As(err, &openAPIErr) {
		apiErr.Body = string(openAPIErr.Body())
	}
	if apiErr.Retryable() {
		return apiErr
	}
	return backoff.Permanent(apiErr)
}
