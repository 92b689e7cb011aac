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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fanki/datadog-mcp/internal/domain"
)

// Default values
const (
	DefaultMaxMessageLength = 500
	DefaultOutputMode       = OutputModeFull
)

// Output modes of log.search_logs
const (
	OutputModeFull      = "full"
	OutputModeSummarize = "summarize"
)

// Error messages
const (
	ErrInvalidArguments = "Invalid arguments: %v"
	ErrMarshalFailed    = "failed to marshal result: %v"
	ErrMissingParameter = "Missing required parameter: %s"
	ErrInvalidTimestamp = "Invalid timestamp format. Expected ISO-8601: %s"
	ErrRuntimeMissing   = "datadog runtime is not configured"
	ErrUnknownAction    = "Unknown action: %s"
)

func invalidArgs(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// failure maps a handler error to a tool error result. Argument problems
// are reported as "Invalid arguments", everything else as "Failed to <action>".
func failure(action string, err error) *mcp.CallToolResult {
	if errors.Is(err, domain.ErrInvalidArgument) {
		msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidArgument.Error()+": ")
		return mcp.NewToolResultError(fmt.Sprintf(ErrInvalidArguments, msg))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

func requireString(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidArgs(ErrMissingParameter, name)
	}
	return nil
}

// parseTimestamp reads an RFC3339 instant such as 2024-01-15T10:00:00Z.
func parseTimestamp(name, value string) (time.Time, error) {
	if err := requireString(name, value); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, invalidArgs(ErrInvalidTimestamp, value)
	}
	return t, nil
}

// formatInstant renders t in UTC with as many fractional digits as needed.
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// StringList accepts either a JSON array of strings or a single string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []any
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	out := make(StringList, 0, len(many))
	for _, item := range many {
		if item == nil {
			continue
		}
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(item))
	}
	*l = out
	return nil
}

// TimeWindow is the service/env/from/to selector shared by the trace and log tools.
type TimeWindow struct {
	Service string `json:"service"`
	Env     string `json:"env,omitempty"`
	From    string `json:"from"`
	To      string `json:"to"`
}

func (w TimeWindow) resolve(rt *Runtime) (env string, from, to time.Time, err error) {
	if err = requireString("service", w.Service); err != nil {
		return
	}
	if from, err = parseTimestamp("from", w.From); err != nil {
		return
	}
	if to, err = parseTimestamp("to", w.To); err != nil {
		return
	}
	return rt.env(w.Env), from, to, nil
}

func (w TimeWindow) traceQuery(rt *Runtime, limit int) (domain.TraceQuery, error) {
	env, from, to, err := w.resolve(rt)
	if err != nil {
		return domain.TraceQuery{}, err
	}
	return domain.NewTraceQuery(w.Service, env, from, to, limit)
}
