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

package config

import (
	"errors"
	"strings"
)

// Environment variables read by the server.
const (
	EnvAPIKey       = "DATADOG_API_KEY"
	EnvAppKey       = "DATADOG_APP_KEY"
	EnvSite         = "DATADOG_SITE"
	EnvDefaultEnv   = "DATADOG_ENV_DEFAULT"
	EnvFilterConfig = "DATADOG_FILTER_CONFIG"
)

const (
	DefaultSite      = "datadoghq.com"
	DefaultEnv       = "prod"
	DefaultCacheSize = 256
)

// ErrMissingKeys is returned by Validate when either key is blank.
var ErrMissingKeys = errors.New(EnvAPIKey + " and " + EnvAppKey + " environment variables are required")

// DatadogConfig holds the process-wide Datadog settings. Streamable requests
// may override the keys and site with headers.
type DatadogConfig struct {
	APIKey           string
	AppKey           string
	Site             string
	DefaultEnv       string
	FilterConfigPath string
	CacheSize        int64
}

// Validate checks that both keys are present.
func (c *DatadogConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.AppKey) == "" {
		return ErrMissingKeys
	}
	return nil
}

// WithDefaults fills blank optional fields.
func (c DatadogConfig) WithDefaults() DatadogConfig {
	if strings.TrimSpace(c.Site) == "" {
		c.Site = DefaultSite
	}
	if strings.TrimSpace(c.DefaultEnv) == "" {
		c.DefaultEnv = DefaultEnv
	}
	if c.CacheSize < 0 {
		c.CacheSize = 0
	}
	return c
}

// BaseURL is the REST endpoint of the configured site.
func (c *DatadogConfig) BaseURL() string {
	site := c.Site
	if site == "" {
		site = DefaultSite
	}
	return "https://api." + site
}

// StdioServerConfig is the configuration for the stdio transport.
type StdioServerConfig struct {
	Datadog DatadogConfig

	// ReadOnly hides the tools that write the filter preferences.
	ReadOnly bool

	// LogFilePath is empty for stderr.
	LogFilePath string

	// LogCommands logs every JSON-RPC message read and written.
	LogCommands bool
}

// StreamableServerConfig is the configuration for the streamable HTTP transport.
type StreamableServerConfig struct {
	Datadog DatadogConfig

	ReadOnly bool

	// Address is host:port to listen on.
	Address string

	// EndpointPath is the path of the MCP endpoint, e.g. /mcp.
	EndpointPath string
}
