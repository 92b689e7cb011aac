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

package resources

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fanki/datadog-mcp/internal/tools"
)

const (
	QuerySyntaxURI      = "docs://datadog/query-syntax"
	StackTraceFilterURI = "docs://stack-trace-filter"
	FilterConfigURI     = "filters://config/current"
)

//go:embed query_syntax.md
var querySyntaxDoc string

//go:embed stack_trace_filter.md
var stackTraceFilterDoc string

// AddDocResources registers the embedded documentation and the live filter configuration
func AddDocResources(s *server.MCPServer) {
	s.AddResource(mcp.Resource{
		URI:         QuerySyntaxURI,
		Name:        "Datadog Query Syntax",
		Description: "How the tools build Datadog span and log queries, and the search syntax accepted by log.search_logs",
		MIMEType:    "text/markdown",
	}, markdown(QuerySyntaxURI, querySyntaxDoc))

	s.AddResource(mcp.Resource{
		URI:         StackTraceFilterURI,
		Name:        "Stack Trace Filter",
		Description: "The full, relevant and minimal stack trace levels and how to configure package filters",
		MIMEType:    "text/markdown",
	}, markdown(StackTraceFilterURI, stackTraceFilterDoc))

	s.AddResource(mcp.Resource{
		URI:         FilterConfigURI,
		Name:        "Current Filter Configuration",
		Description: "Global and per-project package prefixes currently used to filter stack traces",
		MIMEType:    "application/json",
	}, ReadFilterConfig)
}

func markdown(uri, text string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     text,
			},
		}, nil
	}
}

type filterConfigView struct {
	Path             string              `json:"path"`
	Configured       bool                `json:"configured"`
	GlobalPackages   []string            `json:"globalPackages"`
	ProjectPackages  map[string][]string `json:"projectPackages"`
	NoFilterProjects []string            `json:"noFilterProjects"`
}

// ReadFilterConfig renders the filter store of the request runtime.
func ReadFilterConfig(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	rt, err := tools.RuntimeFromContext(ctx)
	if err != nil {
		return nil, err
	}
	store := rt.Filters

	view := filterConfigView{
		Path:             store.Path(),
		Configured:       store.IsConfigured(),
		GlobalPackages:   store.GlobalPackages(),
		ProjectPackages:  make(map[string][]string),
		NoFilterProjects: store.NoFilterProjects(),
	}
	for _, project := range store.ConfiguredProjects() {
		if store.IsProjectConfigured(project) && !slices.Contains(view.NoFilterProjects, project) {
			view.ProjectPackages[project] = store.ProjectPackages(project)
		}
	}

	formatted, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to format filter configuration: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FilterConfigURI,
			MIMEType: "application/json",
			Text:     string(formatted),
		},
	}, nil
}

