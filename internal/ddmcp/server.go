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

// Package ddmcp wires the Datadog tools, prompts and resources into an MCP
// server and runs it over stdio or streamable HTTP.
package ddmcp

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/fanki/datadog-mcp/internal/config"
	"github.com/fanki/datadog-mcp/internal/datadog"
	"github.com/fanki/datadog-mcp/internal/filterconfig"
	"github.com/fanki/datadog-mcp/internal/prompts"
	"github.com/fanki/datadog-mcp/internal/resources"
	"github.com/fanki/datadog-mcp/internal/tools"
)

const (
	serverName    = "datadog-mcp"
	serverVersion = "0.1.0"
)

// Request headers that override the process credentials on the streamable transport.
const (
	HeaderAPIKey = "DD-API-KEY"
	HeaderAppKey = "DD-APPLICATION-KEY"
	HeaderSite   = "DD-SITE"
)

// newMcpServer creates a new MCP server instance with the Datadog tools,
// prompts and resources. Read-only servers omit the tools that write.
func newMcpServer(readOnly bool) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithLogging())

	tools.AddTraceTools(mcpServer)
	tools.AddLogTools(mcpServer)
	if !readOnly {
		tools.AddFilterTools(mcpServer)
	}
	prompts.AddPrompts(mcpServer)
	resources.AddDocResources(mcpServer)

	return mcpServer
}

// initLogger routes logrus output to logFilePath, or leaves it on stderr when
// the path is empty. Stdout belongs to the stdio transport.
func initLogger(logFilePath string) (*logrus.Logger, error) {
	logger := logrus.StandardLogger()
	if logFilePath == "" {
		return logger, nil
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger.SetFormatter(&logrus.TextFormatter{})
	logger.SetLevel(logrus.DebugLevel)
	logger.SetOutput(file)

	return logger, nil
}

// newRuntime builds the Datadog client, trace cache and filter store shared
// by every request. The returned func releases the cache.
func newRuntime(cfg config.DatadogConfig) (*tools.Runtime, func(), error) {
	cfg = cfg.WithDefaults()

	cache, err := datadog.NewTraceCache(cfg.CacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace cache: %w", err)
	}
	client := datadog.NewClient(datadog.Credentials{
		APIKey: cfg.APIKey,
		AppKey: cfg.AppKey,
		Site:   cfg.Site,
	}, datadog.WithTraceCache(cache))

	path := cfg.FilterConfigPath
	if path == "" {
		path = filterconfig.DefaultPath()
	}
	store := filterconfig.Open(path)
	logrus.WithFields(logrus.Fields{
		"site":         cfg.Site,
		"env":          cfg.DefaultEnv,
		"filterConfig": store.Path(),
		"cacheSize":    cfg.CacheSize,
	}).Info("datadog runtime initialized")

	return &tools.Runtime{
		Client:     client,
		Filters:    store,
		DefaultEnv: cfg.DefaultEnv,
		Site:       cfg.Site,
	}, cache.Close, nil
}

// credentialsFromHeaders reads the per-request overrides. Missing headers
// fall back to the environment through the client defaults.
func credentialsFromHeaders(req *http.Request) (datadog.Credentials, bool) {
	creds := datadog.Credentials{
		APIKey: req.Header.Get(HeaderAPIKey),
		AppKey: req.Header.Get(HeaderAppKey),
		Site:   req.Header.Get(HeaderSite),
	}
	return creds, creds != (datadog.Credentials{})
}

// EnhanceStdioContextFunc returns a StdioContextFunc that injects the runtime.
func EnhanceStdioContextFunc(rt *tools.Runtime) server.StdioContextFunc {
	return func(ctx context.Context) context.Context {
		return tools.WithRuntime(ctx, rt)
	}
}

// EnhanceHTTPContextFunc returns a HTTPContextFunc that injects the runtime
// and the Datadog credentials found in the request headers.
func EnhanceHTTPContextFunc(rt *tools.Runtime) server.HTTPContextFunc {
	return func(ctx context.Context, req *http.Request) context.Context {
		ctx = tools.WithRuntime(ctx, rt)
		if creds, ok := credentialsFromHeaders(req); ok {
			ctx = datadog.WithCredentials(ctx, creds)
		}
		return ctx
	}
}
