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
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTraceLimit = 20
	MaxTraceLimit     = 100
	DefaultLogLimit   = 100
	MaxLogLimit       = 1000
)

// TraceQuery selects error traces of one service in a time window.
type TraceQuery struct {
	Service string
	Env     string
	From    time.Time
	To      time.Time
	Limit   int
}

// NewTraceQuery validates the window and limit. A zero limit means the default.
func NewTraceQuery(service, env string, from, to time.Time, limit int) (TraceQuery, error) {
	if limit == 0 {
		limit = DefaultTraceLimit
	}
	if err := validateWindow(service, env, from, to, limit, MaxTraceLimit); err != nil {
		return TraceQuery{}, err
	}
	return TraceQuery{Service: service, Env: env, From: from, To: to, Limit: limit}, nil
}

// DatadogQuery renders the span search query string.
func (q TraceQuery) DatadogQuery() string {
	return fmt.Sprintf("service:%s env:%s status:error", q.Service, q.Env)
}

// LogQuery selects logs of one service in a time window.
type LogQuery struct {
	Service string
	Env     string
	From    time.Time
	To      time.Time
	Query   string
	Level   string
	Limit   int
}

// NewLogQuery validates the window and limit. A zero limit means the default.
func NewLogQuery(service, env string, from, to time.Time, query, level string, limit int) (LogQuery, error) {
	if limit == 0 {
		limit = DefaultLogLimit
	}
	if err := validateWindow(service, env, from, to, limit, MaxLogLimit); err != nil {
		return LogQuery{}, err
	}
	return LogQuery{
		Service: service,
		Env:     env,
		From:    from,
		To:      to,
		Query:   query,
		Level:   level,
		Limit:   limit,
	}, nil
}

// DatadogQuery renders the log search query string.
func (q LogQuery) DatadogQuery() string {
	var sb strings.Builder
	sb.WriteString("service:")
	sb.WriteString(q.Service)
	sb.WriteString(" env:")
	sb.WriteString(q.Env)
	if !isBlank(q.Level) {
		sb.WriteString(" status:")
		sb.WriteString(strings.ToLower(q.Level))
	}
	if !isBlank(q.Query) {
		sb.WriteString(" ")
		sb.WriteString(q.Query)
	}
	return sb.String()
}

func validateWindow(service, env string, from, to time.Time, limit, maxLimit int) error {
	if isBlank(service) {
		return invalidf("service must not be blank")
	}
	if isBlank(env) {
		return invalidf("env must not be blank")
	}
	if !to.After(from) {
		return invalidf("to must be after from")
	}
	if limit <= 0 || limit > maxLimit {
		return invalidf("limit must be between 1 and %d", maxLimit)
	}
	return nil
}
