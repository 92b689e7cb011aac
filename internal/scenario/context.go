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
	"fmt"
	"strings"

	"github.com/fanki/datadog-mcp/internal/domain"
)

// EntryPoint is the inbound request that started the trace.
type EntryPoint struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

func (e EntryPoint) IsValid() bool {
	return !isBlank(e.Method) && !isBlank(e.Path)
}

// RequestLine is "METHOD PATH", or empty for an invalid entry point.
func (e EntryPoint) RequestLine() string {
	if !e.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s %s", e.Method, e.Path)
}

func (e EntryPoint) HasBody() bool {
	return !isBlank(e.Body)
}

// ErrorContext describes the first failing span of a trace.
type ErrorContext struct {
	Service       string                     `json:"service"`
	Operation     string                     `json:"operation"`
	ExceptionType string                     `json:"exceptionType"`
	Message       string                     `json:"message"`
	StackTrace    string                     `json:"stackTrace,omitempty"`
	Location      *domain.StackTraceLocation `json:"location,omitempty"`
	SpanTags      map[string]string          `json:"spanTags,omitempty"`
}

func (c ErrorContext) HasError() bool {
	return !isBlank(c.ExceptionType) || !isBlank(c.Message)
}

func (c ErrorContext) HasLocation() bool {
	return c.Location != nil && c.Location.IsValid()
}

// SimpleExceptionType strips the package from the exception type.
func (c ErrorContext) SimpleExceptionType() string {
	if isBlank(c.ExceptionType) {
		return ""
	}
	if i := strings.LastIndex(c.ExceptionType, "."); i >= 0 {
		return c.ExceptionType[i+1:]
	}
	return c.ExceptionType
}

func (c ErrorContext) Summary() string {
	switch {
	case !isBlank(c.ExceptionType) && !isBlank(c.Message):
		return fmt.Sprintf("%s: %s", c.ExceptionType, c.Message)
	case !isBlank(c.Message):
		return c.Message
	case !isBlank(c.ExceptionType):
		return c.ExceptionType
	}
	return "Unknown error"
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
