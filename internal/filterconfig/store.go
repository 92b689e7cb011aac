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

// Package filterconfig persists which application packages the stack-trace
// filter keeps, globally and per project.
package filterconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	configDirName  = "datadog-mcp"
	configFileName = "filter-config.json"
)

// DefaultPath is <user config dir>/datadog-mcp/filter-config.json.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, configDirName, configFileName)
}

type fileFormat struct {
	GlobalPackages   []string            `json:"globalPackages"`
	ProjectPackages  map[string][]string `json:"projectPackages"`
	NoFilterProjects []string            `json:"noFilterProjects"`
}

// Store is safe for concurrent use. Every mutation is written to disk.
type Store struct {
	mu       sync.RWMutex
	path     string
	global   []string
	projects map[string][]string
	noFilter map[string]struct{}
}

// Open loads the file at path. A missing file starts empty; an unreadable
// one is logged and also starts empty.
func Open(path string) *Store {
	s := &Store{
		path:     path,
		projects: make(map[string][]string),
		noFilter: make(map[string]struct{}),
	}
	if err := s.load(); err != nil {
		log.WithError(err).Warnf("could not load filter config from %s", path)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	s.global = append([]string(nil), f.GlobalPackages...)
	for project, pkgs := range f.ProjectPackages {
		s.projects[project] = append([]string(nil), pkgs...)
	}
	for _, project := range f.NoFilterProjects {
		s.noFilter[project] = struct{}{}
	}
	return nil
}

// save must be called with the write lock held.
func (s *Store) save() error {
	f := fileFormat{
		GlobalPackages:   nonNil(s.global),
		ProjectPackages:  s.projects,
		NoFilterProjects: s.noFilterList(),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode filter config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create filter config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write filter config: %w", err)
	}
	return nil
}

// IsConfigured reports whether the config file exists.
func (s *Store) IsConfigured() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// IsProjectConfigured reports whether the project has packages or opted out.
func (s *Store) IsProjectConfigured(project string) bool {
	if project == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, noFilter := s.noFilter[project]
	_, hasPackages := s.projects[project]
	return noFilter || hasPackages
}

// RelevantPackages resolves the packages for a project: none when the
// project opted out, its own packages when set, else the global list.
func (s *Store) RelevantPackages(project string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if project != "" {
		if _, ok := s.noFilter[project]; ok {
			return []string{}
		}
		if pkgs := s.projects[project]; len(pkgs) > 0 {
			return append([]string(nil), pkgs...)
		}
	}
	return nonNil(append([]string(nil), s.global...))
}

func (s *Store) GlobalPackages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nonNil(append([]string(nil), s.global...))
}

func (s *Store) ProjectPackages(project string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nonNil(append([]string(nil), s.projects[project]...))
}

func (s *Store) SetGlobalPackages(packages []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = append([]string(nil), packages...)
	return s.save()
}

// SetProjectPackages also clears a previous opt-out.
func (s *Store) SetProjectPackages(project string, packages []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project] = append([]string(nil), packages...)
	delete(s.noFilter, project)
	return s.save()
}

// SetProjectNoFilter opts the project out of filtering and drops its packages.
func (s *Store) SetProjectNoFilter(project string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, project)
	s.noFilter[project] = struct{}{}
	return s.save()
}

func (s *Store) ClearProject(project string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, project)
	delete(s.noFilter, project)
	return s.save()
}

// ConfiguredProjects lists projects with packages or an opt-out, sorted.
func (s *Store) ConfiguredProjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{}, len(s.projects)+len(s.noFilter))
	for p := range s.projects {
		seen[p] = struct{}{}
	}
	for p := range s.noFilter {
		seen[p] = struct{}{}
	}
	projects := make([]string, 0, len(seen))
	for p := range seen {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	return projects
}

// NoFilterProjects lists the projects that opted out of filtering, sorted.
func (s *Store) NoFilterProjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.noFilterList()
}

func (s *Store) noFilterList() []string {
	list := make([]string, 0, len(s.noFilter))
	for p := range s.noFilter {
		list = append(list, p)
	}
	sort.Strings(list)
	return list
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
