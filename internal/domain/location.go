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
	"regexp"
	"strconv"
	"strings"
)

var locationPattern = regexp.MustCompile(`\s*at\s+([\w.$]+)\.([\w$]+)\(([\w.]+):(\d+)\)`)

// StackTraceLocation is the source position of one stack frame.
type StackTraceLocation struct {
	ClassName  string `json:"className"`
	MethodName string `json:"methodName"`
	FileName   string `json:"fileName"`
	LineNumber int    `json:"lineNumber"`
}

// ParseLocation extracts the location from a single frame line such as
// "at com.example.OrderService.validateStock(OrderService.java:142)".
func ParseLocation(line string) (StackTraceLocation, bool) {
	m := locationPattern.FindStringSubmatch(line)
	if m == nil {
		return StackTraceLocation{}, false
	}
	lineNumber, err := strconv.Atoi(m[4])
	if err != nil {
		return StackTraceLocation{}, false
	}
	return StackTraceLocation{
		ClassName:  m[1],
		MethodName: m[2],
		FileName:   m[3],
		LineNumber: lineNumber,
	}, true
}

// ParseFirstLocation returns the first parseable frame of a multi-line trace.
func ParseFirstLocation(stackTrace string) (StackTraceLocation, bool) {
	if isBlank(stackTrace) {
		return StackTraceLocation{}, false
	}
	for _, line := range strings.Split(stackTrace, "\n") {
		if loc, ok := ParseLocation(line); ok {
			return loc, true
		}
	}
	return StackTraceLocation{}, false
}

func (l StackTraceLocation) IsValid() bool {
	return l.LineNumber > 0 && !isBlank(l.FileName)
}

// NavigationString renders "File.java:42" for editor navigation, or "" when
// the location is not valid.
func (l StackTraceLocation) NavigationString() string {
	if !l.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.FileName, l.LineNumber)
}

func (l StackTraceLocation) SimpleClassName() string {
	return simpleName(l.ClassName)
}

func simpleName(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
