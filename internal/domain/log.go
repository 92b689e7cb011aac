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
	"time"
)

// DefaultLogLevel is used when the backend reports no status.
const DefaultLogLevel = "INFO"

// LogEntry is a log line correlated to a trace by the upstream query.
type LogEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Level      string            `json:"level"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NewLogEntry fills in the default level and copies the attributes.
func NewLogEntry(timestamp time.Time, level, message string, attributes map[string]string) LogEntry {
	if level == "" {
		level = DefaultLogLevel
	}
	return LogEntry{
		Timestamp:  timestamp,
		Level:      level,
		Message:    message,
		Attributes: copyTags(attributes),
	}
}

// LogSummary is one row of a service log search.
type LogSummary struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Service   string    `json:"service"`
	Message   string    `json:"message"`
	Host      string    `json:"host"`
	TraceID   string    `json:"traceId,omitempty"`
}

func (l LogSummary) FormattedTimestamp() string {
	return l.Timestamp.UTC().Format(time.RFC3339Nano)
}

func (l LogSummary) HasTrace() bool {
	return !isBlank(l.TraceID)
}

// TruncatedMessage cuts the message to maxLength runes, the last three being "...".
func (l LogSummary) TruncatedMessage(maxLength int) string {
	return Truncate(l.Message, maxLength)
}

// Truncate shortens s to maxLength runes, replacing the tail with "...".
func Truncate(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 0 {
		return ""
	}
	if maxLength < 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
