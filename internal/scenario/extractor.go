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

package scenario

import (
	"sort"
	"strings"

	"github.com/fanki/datadog-mcp/internal/domain"
)

var (
	httpTags = []string{
		"http.method", "http.url", "http.route", "http.path",
		"http.status_code", "http.request.body", "http.request.headers",
	}
	dbTags = []string{
		"db.type", "db.statement", "db.instance", "db.name",
		"db.operation", "sql.query",
	}
	cacheTags = []string{"cache.type", "redis.command", "memcached.command"}
	queueTags = []string{"kafka.topic", "rabbitmq.queue", "sqs.queue", "message.type"}

	relevantDataFragments = []string{
		"user_id", "user.id", "customer_id", "order_id", "product_id",
		"request_id", "correlation_id", "session_id", "tenant_id",
		"amount", "quantity", "status", "type",
	}
)

const maxStatementLength = 80

// Extract builds the scenario of a trace. An empty span list yields an
// empty scenario that still carries the trace id.
func Extract(trace *domain.TraceDetail, logs []domain.LogEntry) TraceScenario {
	spans := trace.Spans
	if len(spans) == 0 {
		return TraceScenario{
			TraceID:          trace.TraceID,
			ExecutionFlow:    []ExecutionStep{},
			RelevantData:     NewRelevantData(),
			InvolvedServices: []string{},
		}
	}
	return TraceScenario{
		TraceID:          trace.TraceID,
		EntryPoint:       ExtractEntryPoint(spans),
		ExecutionFlow:    BuildExecutionFlow(spans),
		ErrorContext:     ExtractErrorContext(spans),
		RelevantData:     ExtractRelevantData(spans, logs),
		InvolvedServices: ExtractInvolvedServices(spans),
	}
}

// FindRootSpan returns the first parentless span, falling back to the first
// span in input order.
func FindRootSpan(spans []domain.SpanDetail) (domain.SpanDetail, bool) {
	if len(spans) == 0 {
		return domain.SpanDetail{}, false
	}
	for _, span := range spans {
		if span.IsRoot() {
			return span, true
		}
	}
	return spans[0], true
}

// ExtractEntryPoint reads the inbound request from the root span's tags.
func ExtractEntryPoint(spans []domain.SpanDetail) EntryPoint {
	root, ok := FindRootSpan(spans)
	if !ok {
		return EntryPoint{}
	}
	tags := root.Tags
	return EntryPoint{
		Method:  firstMatch(tags, "http.method", "http.request.method"),
		Path:    firstMatch(tags, "http.url", "http.route", "http.path", "http.target"),
		Headers: extractHeaders(tags),
		Body:    firstMatch(tags, "http.request.body", "request.body"),
	}
}

func extractHeaders(tags map[string]string) map[string]string {
	headers := make(map[string]string)
	for key, value := range tags {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "http.request.headers.") || strings.HasPrefix(lower, "http.header.") {
			headers[lower[strings.LastIndex(lower, ".")+1:]] = value
		}
	}
	if v := firstMatch(tags, "http.content_type"); v != "" {
		headers["content-type"] = v
	}
	if v := firstMatch(tags, "http.user_agent"); v != "" {
		headers["user-agent"] = v
	}
	return headers
}

// BuildExecutionFlow orders spans by start time, keeping input order among
// ties, and numbers them from 1.
func BuildExecutionFlow(spans []domain.SpanDetail) []ExecutionStep {
	sorted := append([]domain.SpanDetail(nil), spans...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	steps := make([]ExecutionStep, 0, len(sorted))
	for i, span := range sorted {
		kind := Classify(span)
		steps = append(steps, ExecutionStep{
			Order:        i + 1,
			SpanID:       span.SpanID,
			ParentSpanID: span.ParentSpanID,
			Service:      span.Service,
			Operation:    BuildOperationDescription(span, kind),
			Type:         kind,
			Detail:       ExtractDetail(span, kind),
			DurationMs:   span.Duration.Nanoseconds() / 1_000_000,
			IsError:      span.IsError,
		})
	}
	return steps
}

// Classify checks tag key prefixes in http, db, cache, queue order, then
// span.kind=client for external calls.
func Classify(span domain.SpanDetail) StepType {
	switch {
	case hasAnyTag(span.Tags, httpTags):
		return StepHTTP
	case hasAnyTag(span.Tags, dbTags):
		return StepDB
	case hasAnyTag(span.Tags, cacheTags):
		return StepCache
	case hasAnyTag(span.Tags, queueTags):
		return StepQueue
	case strings.EqualFold(span.Tags["span.kind"], "client"):
		return StepExternal
	}
	return StepInternal
}

// BuildOperationDescription names what the span did. Type specific tags win,
// then resource name, operation name and service.
func BuildOperationDescription(span domain.SpanDetail, kind StepType) string {
	tags := span.Tags
	switch kind {
	case StepHTTP:
		method := firstMatch(tags, "http.method")
		path := firstMatch(tags, "http.route", "http.url", "http.path")
		if method != "" && path != "" {
			return method + " " + path
		}
	case StepDB:
		if op := firstMatch(tags, "db.operation"); op != "" {
			return op
		}
		if stmt := firstMatch(tags, "db.statement", "sql.query"); stmt != "" {
			return domain.Truncate(stmt, maxStatementLength)
		}
	}
	switch {
	case !isBlank(span.ResourceName):
		return span.ResourceName
	case !isBlank(span.OperationName):
		return span.OperationName
	}
	return span.Service
}

// ExtractDetail returns the type specific supplementary field of a span.
func ExtractDetail(span domain.SpanDetail, kind StepType) string {
	tags := span.Tags
	switch kind {
	case StepDB:
		return firstMatch(tags, "db.statement", "sql.query")
	case StepHTTP:
		return firstMatch(tags, "http.status_code")
	case StepCache:
		return firstMatch(tags, "redis.command", "cache.key")
	case StepQueue:
		return firstMatch(tags, "kafka.topic", "rabbitmq.queue")
	}
	return ""
}

// ExtractErrorContext describes the first error span in input order.
func ExtractErrorContext(spans []domain.SpanDetail) ErrorContext {
	for _, span := range spans {
		if !span.IsError {
			continue
		}
		ctx := ErrorContext{
			Service:       span.Service,
			Operation:     BuildOperationDescription(span, Classify(span)),
			ExceptionType: span.ErrorType,
			Message:       span.ErrorMessage,
			StackTrace:    span.ErrorStack,
			SpanTags:      filterRelevantTags(span.Tags),
		}
		if loc, ok := domain.ParseFirstLocation(span.ErrorStack); ok {
			ctx.Location = &loc
		}
		return ctx
	}
	return ErrorContext{}
}

// ExtractRelevantData collects business identifiers from span tags and then
// log attributes under normalized keys. Later writes win.
func ExtractRelevantData(spans []domain.SpanDetail, logs []domain.LogEntry) *RelevantData {
	data := NewRelevantData()
	for _, span := range spans {
		collectRelevant(data, span.Tags)
	}
	for _, log := range logs {
		collectRelevant(data, log.Attributes)
	}
	return data
}

func collectRelevant(data *RelevantData, attrs map[string]string) {
	for _, key := range sortedKeys(attrs) {
		if isRelevantDataKey(key) {
			data.Set(normalizeKey(key), attrs[key])
		}
	}
}

// ExtractInvolvedServices returns the distinct services in ascending order.
func ExtractInvolvedServices(spans []domain.SpanDetail) []string {
	seen := make(map[string]struct{}, len(spans))
	services := make([]string, 0, len(spans))
	for _, span := range spans {
		if _, ok := seen[span.Service]; ok {
			continue
		}
		seen[span.Service] = struct{}{}
		services = append(services, span.Service)
	}
	sort.Strings(services)
	return services
}

func filterRelevantTags(tags map[string]string) map[string]string {
	filtered := make(map[string]string)
	for key, value := range tags {
		if isRelevantDataKey(key) {
			filtered[key] = value
		}
	}
	return filtered
}

func isRelevantDataKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range relevantDataFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

var keyNormalizer = strings.NewReplacer(".", "_", "-", "_")

func normalizeKey(key string) string {
	return keyNormalizer.Replace(strings.ToLower(key))
}

func firstMatch(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if v, ok := tags[key]; ok && !isBlank(v) {
			return v
		}
	}
	return ""
}

func hasAnyTag(tags map[string]string, prefixes []string) bool {
	for key := range tags {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				return true
			}
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
