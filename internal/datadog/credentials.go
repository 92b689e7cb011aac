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

package datadog

import (
	"context"
	"errors"
	"strings"
)

// DefaultSite is the Datadog US1 site.
const DefaultSite = "datadoghq.com"

// ErrMissingCredentials is returned when no API or application key is available.
var ErrMissingCredentials = errors.New("datadog API key and application key are required")

// Credentials select the Datadog organization and site a request runs against.
type Credentials struct {
	APIKey string
	AppKey string
	Site   string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.AppKey) == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (c Credentials) site() string {
	if c.Site == "" {
		return DefaultSite
	}
	return c.Site
}

// BaseURL is the REST endpoint of the site, e.g. https://api.datadoghq.com.
func (c Credentials) BaseURL() string {
	return "https://api." + c.site()
}

// AppURL is the web UI of the site, e.g. https://app.datadoghq.com.
func (c Credentials) AppURL() string {
	return "https://app." + c.site()
}

type credentialsKey struct{}

// WithCredentials stores per-request credentials in ctx. Fields left empty
// fall back to the client defaults.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFromContext returns the credentials stored by WithCredentials.
func CredentialsFromContext(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(Credentials)
	return creds, ok
}
