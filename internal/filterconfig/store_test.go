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

package filterconfig

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "nested", "filter-config.json"))
}

func TestStoreStartsEmpty(t *testing.T) {
	s := newStore(t)
	assert.False(t, s.IsConfigured())
	assert.Empty(t, s.GlobalPackages())
	assert.NotNil(t, s.RelevantPackages("orders"))
	assert.Empty(t, s.ConfiguredProjects())
	assert.False(t, s.IsProjectConfigured(""))
}

func TestStoreResolution(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetGlobalPackages([]string{"co.fanki"}))
	assert.True(t, s.IsConfigured())

	assert.Equal(t, []string{"co.fanki"}, s.RelevantPackages("orders"))
	assert.Equal(t, []string{"co.fanki"}, s.RelevantPackages(""))

	require.NoError(t, s.SetProjectPackages("orders", []string{"co.fanki.orders"}))
	assert.Equal(t, []string{"co.fanki.orders"}, s.RelevantPackages("orders"))
	assert.Equal(t, []string{"co.fanki.orders"}, s.ProjectPackages("orders"))
	assert.True(t, s.IsProjectConfigured("orders"))

	require.NoError(t, s.SetProjectNoFilter("orders"))
	assert.Empty(t, s.RelevantPackages("orders"))
	assert.Empty(t, s.ProjectPackages("orders"))
	assert.True(t, s.IsProjectConfigured("orders"))

	require.NoError(t, s.SetProjectPackages("orders", []string{"co.fanki.orders"}))
	assert.Equal(t, []string{"co.fanki.orders"}, s.RelevantPackages("orders"))

	require.NoError(t, s.SetProjectNoFilter("billing"))
	assert.Equal(t, []string{"billing", "orders"}, s.ConfiguredProjects())

	require.NoError(t, s.ClearProject("orders"))
	assert.False(t, s.IsProjectConfigured("orders"))
	assert.Equal(t, []string{"co.fanki"}, s.RelevantPackages("orders"))
}

func TestStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "filter-config.json")
	s := Open(path)
	require.NoError(t, s.SetGlobalPackages([]string{"co.fanki"}))
	require.NoError(t, s.SetProjectPackages("My-Project", []string{"com.acme"}))
	require.NoError(t, s.SetProjectNoFilter("legacy"))

	reopened := Open(path)
	assert.Equal(t, []string{"co.fanki"}, reopened.GlobalPackages())
	assert.Equal(t, []string{"com.acme"}, reopened.ProjectPackages("My-Project"))
	assert.Empty(t, reopened.RelevantPackages("legacy"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"globalPackages"`)
	assert.Contains(t, string(raw), `"noFilterProjects"`)
	assert.Contains(t, string(raw), "\n  ")
}

func TestStoreUnreadableFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter-config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := Open(path)
	assert.True(t, s.IsConfigured())
	assert.Empty(t, s.GlobalPackages())
}

func TestStoreConcurrentUse(t *testing.T) {
	s := newStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetGlobalPackages([]string{"co.fanki"})
		}()
		go func() {
			defer wg.Done()
			_ = s.RelevantPackages("orders")
		}()
	}
	wg.Wait()
	assert.Equal(t, []string{"co.fanki"}, s.GlobalPackages())
}

func TestRepoName(t *testing.T) {
	tests := map[string]string{
		"https://github.com/fanki/order-service.git\n": "order-service",
		"git@github.com:fanki/inventory.git":           "inventory",
		"git@github.com:standalone.git":                "standalone",
		"ssh://git@host:7999/team/payments":            "payments",
		"":                                             "",
	}
	for remote, want := range tests {
		assert.Equal(t, want, RepoName(remote), remote)
	}
}

func TestDetectProjectFallsBackToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkout-service")
	require.NoError(t, os.Mkdir(dir, 0o755))
	assert.Equal(t, "checkout-service", DetectProject(context.Background(), dir))
}
