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

package diagnostic

import (
	"fmt"
	"strings"
	"time"

	"github.com/fanki/datadog-mcp/internal/domain"
)

const maxStackLines = 20

// GenerateWorkflow renders the diagnostic report of an inspected trace.
func GenerateWorkflow(result *domain.DiagnosticResult, appURL string) string {
	var md strings.Builder
	writeHeader(&md, result)
	writeSummary(&md, result)
	writeServicesInvolved(&md, result)
	writeErrorDetails(&md, result)
	writeSpanTimeline(&md, result.TraceDetail)
	writeLogs(&md, result.ServiceErrors)
	writeActions(&md, result)
	writeLinks(&md, result, appURL)
	return md.String()
}

func writeHeader(md *strings.Builder, r *domain.DiagnosticResult) {
	md.WriteString("# Error Trace Diagnostic Report\n\n")
	fmt.Fprintf(md, "**Trace ID:** `%s`\n", r.TraceID())
	fmt.Fprintf(md, "**Service:** %s\n", r.Service())
	fmt.Fprintf(md, "**Generated:** %s\n\n", r.GeneratedAt.UTC().Format(time.RFC3339))
}

func writeSummary(md *strings.Builder, r *domain.DiagnosticResult) {
	md.WriteString("## Summary\n\n")
	fmt.Fprintf(md, "- **Duration:** %s\n", r.TraceDetail.FormattedDuration())
	fmt.Fprintf(md, "- **Total Spans:** %d\n", r.TraceDetail.SpanCount())
	fmt.Fprintf(md, "- **Error Spans:** %d\n", r.TotalErrorCount())
	fmt.Fprintf(md, "- **Services Involved:** %d\n", len(r.InvolvedServices()))
	if r.IsDistributedError() {
		md.WriteString("- **Type:** Distributed error across multiple services\n")
	} else {
		md.WriteString("- **Type:** Single-service error\n")
	}
	md.WriteString("\n")
}

func writeServicesInvolved(md *strings.Builder, r *domain.DiagnosticResult) {
	failing := make(map[string]bool, len(r.ServiceErrors))
	for _, view := range r.ServiceErrors {
		failing[view.ServiceName] = true
	}
	md.WriteString("## Services Involved\n\n")
	for _, service := range r.InvolvedServices() {
		status := "OK"
		if failing[service] {
			status = "ERROR"
		}
		fmt.Fprintf(md, "- **%s**: %s\n", service, status)
	}
	md.WriteString("\n")
}

func writeErrorDetails(md *strings.Builder, r *domain.DiagnosticResult) {
	md.WriteString("## Error Details\n\n")
	for _, view := range r.ServiceErrors {
		fmt.Fprintf(md, "### %s\n\n", view.ServiceName)
		if strings.TrimSpace(view.PrimaryError) != "" {
			fmt.Fprintf(md, "**Primary Error:** %s\n\n", view.PrimaryError)
		}
		fmt.Fprintf(md, "**Error Count:** %d\n\n", view.ErrorCount())
		if types := view.UniqueErrorTypes(); len(types) > 0 {
			md.WriteString("**Error Types:**\n")
			for _, t := range types {
				fmt.Fprintf(md, "- `%s`\n", t)
			}
			md.WriteString("\n")
		}
		for _, span := range view.ErrorSpans {
			writeErrorSpan(md, span)
		}
	}
}

func writeErrorSpan(md *strings.Builder, span domain.SpanDetail) {
	fmt.Fprintf(md, "#### Span: %s\n\n", span.OperationName)
	fmt.Fprintf(md, "- **Resource:** %s\n", span.ResourceName)
	fmt.Fprintf(md, "- **Duration:** %s\n", span.FormattedDuration())
	if strings.TrimSpace(span.ErrorType) != "" {
		fmt.Fprintf(md, "- **Exception:** `%s`\n", span.ErrorType)
	}
	if strings.TrimSpace(span.ErrorMessage) != "" {
		fmt.Fprintf(md, "- **Message:** %s\n", span.ErrorMessage)
	}
	if loc, ok := domain.ParseFirstLocation(span.ErrorStack); ok && loc.IsValid() {
		fmt.Fprintf(md, "- **Location:** `%s.%s` (%s)\n", loc.ClassName, loc.MethodName, loc.NavigationString())
	}
	if strings.TrimSpace(span.ErrorStack) != "" {
		md.WriteString("\n**Stack Trace:**\n```\n")
		md.WriteString(truncateStack(span.ErrorStack, maxStackLines))
		md.WriteString("\n```\n")
	}
	md.WriteString("\n")
}

func writeSpanTimeline(md *strings.Builder, trace *domain.TraceDetail) {
	md.WriteString("## Span Timeline\n\n")
	md.WriteString("| Service | Operation | Duration | Status |\n")
	md.WriteString("|---------|-----------|----------|--------|\n")
	for _, span := range trace.Spans {
		status := "OK"
		if span.IsError {
			status = "ERROR"
		}
		fmt.Fprintf(md, "| %s | %s | %s | %s |\n", span.Service, span.OperationName, span.FormattedDuration(), status)
	}
	md.WriteString("\n")
}

func writeLogs(md *strings.Builder, views []domain.ServiceErrorView) {
	hasLogs := false
	for _, view := range views {
		if view.HasLogs() {
			hasLogs = true
			break
		}
	}
	if !hasLogs {
		return
	}
	md.WriteString("## Related Logs\n\n")
	for _, view := range views {
		if !view.HasLogs() {
			continue
		}
		fmt.Fprintf(md, "### %s Logs\n\n", view.ServiceName)
		for _, entry := range view.RelatedLogs {
			fmt.Fprintf(md, "**[%s]** _%s_\n", entry.Level, entry.Timestamp.UTC().Format(time.RFC3339Nano))
			fmt.Fprintf(md, "```\n%s\n```\n\n", entry.Message)
		}
	}
}

func writeActions(md *strings.Builder, r *domain.DiagnosticResult) {
	md.WriteString("## Recommended Actions\n\n")
	step := 1
	for _, view := range r.ServiceErrors {
		fmt.Fprintf(md, "%d. **Investigate %s:**\n", step, view.ServiceName)
		step++
		for _, t := range view.UniqueErrorTypes() {
			fmt.Fprintf(md, "   - Check for `%s` root cause\n", t)
		}
		if strings.TrimSpace(view.PrimaryError) != "" {
			fmt.Fprintf(md, "   - Primary error: \"%s\"\n", view.PrimaryError)
		}
		md.WriteString("\n")
	}

	fmt.Fprintf(md, "%d. **Review recent deployments** to identify potential causes\n\n", step)
	step++
	if r.IsDistributedError() {
		fmt.Fprintf(md, "%d. **Check service communication** between:\n", step)
		step++
		for _, service := range r.InvolvedServices() {
			fmt.Fprintf(md, "   - %s\n", service)
		}
		md.WriteString("\n")
	}
	fmt.Fprintf(md, "%d. **Monitor for recurrence** after applying fixes\n\n", step)
}

func writeLinks(md *strings.Builder, r *domain.DiagnosticResult, appURL string) {
	md.WriteString("## Datadog Links\n\n")
	fmt.Fprintf(md, "- [View Trace in Datadog](%s/apm/trace/%s)\n", appURL, r.TraceID())
	fmt.Fprintf(md, "- [Service Dashboard](%s/apm/service/%s)\n\n", appURL, r.Service())
}

// truncateStack keeps the first maxLines lines and notes how many were cut.
func truncateStack(stack string, maxLines int) string {
	lines := strings.Split(stack, "\n")
	if len(lines) <= maxLines {
		return stack
	}
	var sb strings.Builder
	for _, line := range lines[:maxLines] {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "... (%d more lines truncated)", len(lines)-maxLines)
	return sb.String()
}
