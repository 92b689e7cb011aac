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

package ddmcp

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanki/datadog-mcp/internal/config"
	"github.com/fanki/datadog-mcp/internal/datadog"
	"github.com/fanki/datadog-mcp/internal/tools"
)

func listToolNames(t *testing.T, readOnly bool) []string {
	t.Helper()
	srv := newMcpServer(readOnly)
	msg := srv.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))

	names := make([]string, 0, len(resp.Result.Tools))
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestNewMcpServerRegistersTools(t *testing.T) {
	names := listToolNames(t, false)
	assert.ElementsMatch(t, []string{
		tools.ListErrorTracesTool.Name,
		tools.InspectErrorTraceTool.Name,
		tools.ExtractScenarioTool.Name,
		tools.SearchLogsTool.Name,
		tools.CorrelateLogsTool.Name,
		tools.ConfigureFilterTool.Name,
	}, names)
}

func TestNewMcpServerReadOnlyOmitsFilterTool(t *testing.T) {
	names := listToolNames(t, true)
	assert.NotContains(t, names, tools.ConfigureFilterTool.Name)
	assert.Contains(t, names, tools.ExtractScenarioTool.Name)
}

func TestCredentialsFromHeaders(t *testing.T) {
	req := httptest.NewRequest("POST", "/mcp", nil)
	_, ok := credentialsFromHeaders(req)
	assert.False(t, ok)

	req.Header.Set(HeaderAPIKey, "api")
	req.Header.Set(HeaderSite, "datadoghq.eu")
	creds, ok := credentialsFromHeaders(req)
	require.True(t, ok)
	assert.Equal(t, datadog.Credentials{APIKey: "api", Site: "datadoghq.eu"}, creds)
}

func TestNewRuntime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	rt, release, err := newRuntime(config.DatadogConfig{
		APIKey:           "api",
		AppKey:           "app",
		FilterConfigPath: path,
	})
	require.NoError(t, err)
	defer release()

	assert.Equal(t, config.DefaultEnv, rt.DefaultEnv)
	assert.Equal(t, config.DefaultSite, rt.Site)
	assert.Equal(t, path, rt.Filters.Path())
	assert.NotNil(t, rt.Client)
}

func TestEnhanceHTTPContextFunc(t *testing.T) {
	rt := &tools.Runtime{}
	fn := EnhanceHTTPContextFunc(rt)

	req := httptest.NewRequest("POST", "/mcp", nil)
	req.Header.Set(HeaderAppKey, "app")
	ctx := fn(context.Background(), req)

	creds, ok := datadog.CredentialsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "app", creds.AppKey)

	ctx = fn(context.Background(), httptest.NewRequest("POST", "/mcp", nil))
	_, ok = datadog.CredentialsFromContext(ctx)
	assert.False(t, ok)
}

func TestEnhanceStdioContextFunc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	rt, release, err := newRuntime(config.DatadogConfig{APIKey: "api", AppKey: "app", FilterConfigPath: path})
	require.NoError(t, err)
	defer release()

	ctx := EnhanceStdioContextFunc(rt)(context.Background())
	got, err := tools.RuntimeFromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, rt, got)
}
