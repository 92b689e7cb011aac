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
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
)

// Tool binds a typed request to an MCP tool definition.
type Tool[T any, R any] struct {
	Name        string
	Description string
	Handler     func(ctx context.Context, req *T) (R, error)
	Options     []mcp.ToolOption
}

// NewTool declares a tool whose arguments are decoded into T.
func NewTool[T any, R any](
	name, description string,
	handler func(ctx context.Context, req *T) (R, error),
	options ...mcp.ToolOption,
) *Tool[T, R] {
	return &Tool[T, R]{
		Name:        name,
		Description: description,
		Handler:     handler,
		Options:     options,
	}
}

// Definition is the tool schema advertised to clients.
func (t *Tool[T, R]) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{mcp.WithDescription(t.Description)}, t.Options...)
	return mcp.NewTool(t.Name, opts...)
}

// Register adds the tool to the server.
func (t *Tool[T, R]) Register(s *server.MCPServer) {
	s.AddTool(t.Definition(), t.Handle)
}

// Handle decodes the arguments, runs the handler and converts its result.
// Results that are not already a *mcp.CallToolResult are sent as JSON text.
func (t *Tool[T, R]) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entry := log.WithFields(log.Fields{
		"tool":       t.Name,
		"invocation": uuid.NewString(),
	})
	start := time.Now()

	var req T
	if err := request.BindArguments(&req); err != nil {
		entry.WithError(err).Warn("could not decode tool arguments")
		return mcp.NewToolResultError(fmt.Sprintf(ErrInvalidArguments, err)), nil
	}

	res, err := t.Handler(ctx, &req)
	entry = entry.WithField("elapsed", time.Since(start))
	if err != nil {
		entry.WithError(err).Error("tool invocation failed")
		return nil, err
	}
	entry.Debug("tool invocation completed")

	if result, ok := any(res).(*mcp.CallToolResult); ok {
		return result, nil
	}
	return jsonResult(res), nil
}

func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(ErrMarshalFailed, err))
	}
	return mcp.NewToolResultText(string(b))
}
