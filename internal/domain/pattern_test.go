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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPattern(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "precedence of uuid and timestamp over digit runs",
			message: "Order 550e8400-e29b-41d4-a716-446655440000 processed at 2024-01-15T10:00:00Z for user 12345",
			want:    "Order <UUID> processed at <TS> for user <ID>",
		},
		{
			name:    "timestamp with space and fraction",
			message: "2024-01-15 10:00:00.123 job started",
			want:    "<TS> job started",
		},
		{
			name:    "ip address",
			message: "connection to 10.0.12.7 refused",
			want:    "connection to <IP> refused",
		},
		{
			name:    "hex blob",
			message: "token deadbeef12 rejected",
			want:    "token <HEX> rejected",
		},
		{
			name:    "short numbers are kept",
			message: "retry 3 of 5",
			want:    "retry 3 of 5",
		},
		{
			name:    "blank",
			message: "   ",
			want:    "[empty]",
		},
		{
			name:    "surrounding whitespace",
			message: "  user 1234 logged in  ",
			want:    "user <ID> logged in",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPattern(tt.message))
		})
	}
}

func TestExtractPatternTruncation(t *testing.T) {
	exact := strings.Repeat("x", 80)
	assert.Equal(t, exact, ExtractPattern(exact))

	got := ExtractPattern(strings.Repeat("x", 81))
	assert.Len(t, got, 80)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("x", 77)+"...", got)
}

func TestExtractPatternDeterministic(t *testing.T) {
	msg := "Payment 9f8e7d6c failed for 192.168.0.1 at 2024-02-02T12:00:00.5Z"
	first := ExtractPattern(msg)
	assert.Equal(t, first, ExtractPattern(msg))
	assert.Equal(t, ExtractPattern(first), ExtractPattern(first))
}

func TestGroupLogs(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	logs := []LogSummary{
		{Timestamp: base.Add(time.Minute), Level: "INFO", Service: "orders", Message: "Started"},
		{Timestamp: base.Add(2 * time.Minute), Level: "ERROR", Service: "orders", Message: "User 12345 not found"},
		{Timestamp: base, Level: "ERROR", Service: "orders", Message: "User 67890 not found"},
		{Timestamp: base, Level: "WARN", Service: "orders", Message: "User 67890 not found"},
	}

	groups := GroupLogs(logs)
	require.Len(t, groups, 3)

	top := groups[0]
	assert.Equal(t, "User <ID> not found", top.Pattern)
	assert.Equal(t, "ERROR", top.Level)
	assert.Equal(t, 2, top.Count)
	assert.Equal(t, base, top.FirstOccurrence)
	assert.Equal(t, base.Add(2*time.Minute), top.LastOccurrence)
	assert.Equal(t, "User 12345 not found", top.SampleMessage)
	assert.Equal(t, "2024-01-15T10:00:00Z - 2024-01-15T10:02:00Z", top.TimeRange())

	assert.Equal(t, "Started", groups[1].Pattern)
	assert.Equal(t, "WARN", groups[2].Level)

	assert.Empty(t, GroupLogs(nil))
}
