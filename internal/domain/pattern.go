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
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	maxPatternLength = 80
	emptyPattern     = "[empty]"
)

// Substitutions run in this order. Timestamps, UUIDs, addresses and hex
// blobs must be consumed before the generic digit-run rule.
var patternSubstitutions = []struct {
	re          *regexp.Regexp
	placeholder string
}{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}[.\d]*Z?`), "<TS>"},
	{regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`), "<UUID>"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "<IP>"},
	{regexp.MustCompile(`\b[0-9a-fA-F]{8,}\b`), "<HEX>"},
	{regexp.MustCompile(`\b\d{4,}\b`), "<ID>"},
}

// ExtractPattern replaces volatile tokens in a log message with placeholders
// so near-duplicate lines share a grouping key.
func ExtractPattern(message string) string {
	if isBlank(message) {
		return emptyPattern
	}
	pattern := message
	for _, sub := range patternSubstitutions {
		pattern = sub.re.ReplaceAllLiteralString(pattern, sub.placeholder)
	}
	pattern = Truncate(pattern, maxPatternLength)
	return strings.TrimSpace(pattern)
}

// LogGroupSummary aggregates the logs sharing one level and pattern.
type LogGroupSummary struct {
	Pattern         string    `json:"pattern"`
	Level           string    `json:"level"`
	Service         string    `json:"service"`
	Count           int       `json:"count"`
	FirstOccurrence time.Time `json:"firstOccurrence"`
	LastOccurrence  time.Time `json:"lastOccurrence"`
	SampleMessage   string    `json:"sampleMessage"`
}

func (g LogGroupSummary) TimeRange() string {
	return g.FirstOccurrence.UTC().Format(time.RFC3339Nano) + " - " + g.LastOccurrence.UTC().Format(time.RFC3339Nano)
}

// GroupLogs buckets logs by level and normalized pattern. Groups are ordered
// by descending count; ties keep first-seen order.
func GroupLogs(logs []LogSummary) []LogGroupSummary {
	index := make(map[string]int)
	var groups []LogGroupSummary
	for _, log := range logs {
		pattern := ExtractPattern(log.Message)
		key := log.Level + "|" + pattern
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, LogGroupSummary{
				Pattern:         pattern,
				Level:           log.Level,
				Service:         log.Service,
				SampleMessage:   log.Message,
				FirstOccurrence: log.Timestamp,
				LastOccurrence:  log.Timestamp,
			})
		}
		g := &groups[i]
		g.Count++
		if log.Timestamp.Before(g.FirstOccurrence) {
			g.FirstOccurrence = log.Timestamp
		}
		if log.Timestamp.After(g.LastOccurrence) {
			g.LastOccurrence = log.Timestamp
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}
