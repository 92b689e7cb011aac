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
	"context"
	"errors"
	"strings"

	"github.com/fanki/datadog-mcp/internal/datadog"
	"github.com/fanki/datadog-mcp/internal/diagnostic"
	"github.com/fanki/datadog-mcp/internal/domain"
	"github.com/fanki/datadog-mcp/internal/filterconfig"
)

// DatadogClient is the part of the Datadog API the tools use.
type DatadogClient interface {
	diagnostic.TraceSource
	SearchLogs(ctx context.Context, query domain.LogQuery) ([]domain.LogSummary, error)
}

// Runtime carries the collaborators shared by every tool invocation.
type Runtime struct {
	Client     DatadogClient
	Filters    *filterconfig.Store
	DefaultEnv string
	Site       string

	// DetectProject names the project the assistant is working in.
	// Nil means filterconfig.DetectCurrentProject.
	DetectProject func(ctx context.Context) string
}

type runtimeKey struct{}

// WithRuntime stores rt in ctx for the tool handlers.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// RuntimeFromContext returns the runtime stored by WithRuntime.
func RuntimeFromContext(ctx context.Context) (*Runtime, error) {
	rt, ok := ctx.Value(runtimeKey{}).(*Runtime)
	if !ok || rt == nil || rt.Client == nil || rt.Filters == nil {
		return nil, errors.New(ErrRuntimeMissing)
	}
	return rt, nil
}

func (rt *Runtime) env(requested string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return rt.DefaultEnv
}

func (rt *Runtime) project(ctx context.Context) string {
	if rt.DetectProject != nil {
		return rt.DetectProject(ctx)
	}
	return filterconfig.DetectCurrentProject(ctx)
}

// appURL follows the site of the request credentials when one is set.
func (rt *Runtime) appURL(ctx context.Context) string {
	creds := datadog.Credentials{Site: rt.Site}
	if override, ok := datadog.CredentialsFromContext(ctx); ok && override.Site != "" {
		creds.Site = override.Site
	}
	return creds.AppURL()
}

func (rt *Runtime) diagnostics(ctx context.Context) *diagnostic.Service {
	return diagnostic.NewService(rt.Client, rt.appURL(ctx))
}
