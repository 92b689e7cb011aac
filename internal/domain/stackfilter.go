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
	"strconv"
	"strings"
)

// StackTraceDetail selects how much of a stack trace is kept.
type StackTraceDetail string

const (
	StackTraceFull     StackTraceDetail = "full"
	StackTraceRelevant StackTraceDetail = "relevant"
	StackTraceMinimal  StackTraceDetail = "minimal"
)

// StackTraceAttribute is the log attribute holding a stack trace.
const StackTraceAttribute = "stack_trace"

// ParseStackTraceDetail is lenient: anything unknown means full.
func ParseStackTraceDetail(s string) StackTraceDetail {
	switch strings.ToLower(s) {
	case string(StackTraceRelevant):
		return StackTraceRelevant
	case string(StackTraceMinimal):
		return StackTraceMinimal
	default:
		return StackTraceFull
	}
}

var (
	framePattern    = regexp.MustCompile(`^\s*at\s+([a-zA-Z0-9_$.]+)\.([a-zA-Z0-9_$<>]+)\((.+)\)\s*$`)
	causedByPattern = regexp.MustCompile(`^\s*Caused by:\s*(.+)$`)
)

// frameworkBuckets is checked in order; the first matching prefix wins.
var frameworkBuckets = []struct {
	prefix string
	label  string
}{
	{"java.", "java"},
	{"javax.", "java"},
	{"jakarta.", "java"},
	{"sun.", "java"},
	{"jdk.", "java"},
	{"org.springframework.", "spring"},
	{"org.apache.", "apache"},
	{"org.hibernate.", "hibernate"},
	{"org.eclipse.", "orgeclipse"},
	{"com.zaxxer.", "comzaxxer"},
	{"com.fasterxml.", "jackson"},
	{"io.netty.", "ionetty"},
	{"reactor.", "reactor"},
	{"feign.", "feign"},
	{"datadog.trace.", "datadog"},
}

const otherFramework = "other"

// StackTraceFilter removes framework noise from stack traces, keeping the
// frames whose class belongs to one of the relevant package prefixes.
type StackTraceFilter struct {
	relevantPackages []string
}

func NewStackTraceFilter(relevantPackages []string) *StackTraceFilter {
	return &StackTraceFilter{relevantPackages: append([]string(nil), relevantPackages...)}
}

// Filter rewrites stackTrace according to detail. Blank input and the full
// level are returned unchanged, as is everything when no package is configured.
func (f *StackTraceFilter) Filter(stackTrace string, detail StackTraceDetail) string {
	if isBlank(stackTrace) {
		return stackTrace
	}
	if detail == StackTraceFull || len(f.relevantPackages) == 0 {
		return stackTrace
	}
	if detail == StackTraceMinimal {
		return f.minimal(stackTrace)
	}
	return f.relevant(stackTrace)
}

// FilterAttributes applies Filter to the stack_trace entry only. The input
// map is never modified; a copy is returned when the entry was rewritten.
func (f *StackTraceFilter) FilterAttributes(attributes map[string]string, detail StackTraceDetail) map[string]string {
	stackTrace, ok := attributes[StackTraceAttribute]
	if !ok {
		return attributes
	}
	out := copyTags(attributes)
	out[StackTraceAttribute] = f.Filter(stackTrace, detail)
	return out
}

func (f *StackTraceFilter) minimal(stackTrace string) string {
	lines := splitLines(stackTrace)
	var sb strings.Builder
	if len(lines) > 0 {
		sb.WriteString(lines[0])
	}
	for _, line := range lines {
		if causedByPattern.MatchString(line) {
			sb.WriteString("\n")
			sb.WriteString(line)
		}
	}
	return sb.String()
}

type omission struct {
	count      int
	frameworks []string
}

func (o *omission) track(className string) {
	label := otherFramework
	for _, b := range frameworkBuckets {
		if strings.HasPrefix(className, b.prefix) {
			label = b.label
			break
		}
	}
	for _, existing := range o.frameworks {
		if existing == label {
			return
		}
	}
	o.frameworks = append(o.frameworks, label)
}

func (o *omission) flush(sb *strings.Builder) {
	if o.count == 0 {
		return
	}
	sb.WriteString("  ... ")
	sb.WriteString(strconv.Itoa(o.count))
	sb.WriteString(" framework frames omitted")
	if len(o.frameworks) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(o.frameworks, ", "))
		sb.WriteString(")")
	}
	sb.WriteString("\n")
	o.count = 0
	o.frameworks = o.frameworks[:0]
}

func (f *StackTraceFilter) relevant(stackTrace string) string {
	var sb strings.Builder
	var pending omission
	for _, line := range splitLines(stackTrace) {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "at ") && !strings.HasPrefix(trimmed, "...") {
			pending.flush(&sb)
			sb.WriteString(line)
			sb.WriteString("\n")
			continue
		}
		if m := framePattern.FindStringSubmatch(line); m != nil {
			className := m[1]
			if !f.isRelevant(className) {
				pending.count++
				pending.track(className)
				continue
			}
			pending.flush(&sb)
			sb.WriteString(strings.ReplaceAll(line, className+".", simpleName(className)+"."))
			sb.WriteString("\n")
			continue
		}
		if strings.HasPrefix(trimmed, "...") {
			pending.flush(&sb)
			sb.WriteString(line)
			sb.WriteString("\n")
			continue
		}
		pending.count++
	}
	pending.flush(&sb)
	return strings.TrimRight(sb.String(), " \t\r\n")
}

func (f *StackTraceFilter) isRelevant(className string) bool {
	for _, pkg := range f.relevantPackages {
		if strings.HasPrefix(className, pkg) {
			return true
		}
	}
	return false
}

// splitLines splits on newlines and drops trailing empty lines.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
