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
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// UnknownProject is returned when neither git nor the working directory
// yields a name.
const UnknownProject = "unknown-project"

// DetectCurrentProject names the project of the working directory.
func DetectCurrentProject(ctx context.Context) string {
	dir, err := os.Getwd()
	if err != nil {
		return UnknownProject
	}
	return DetectProject(ctx, dir)
}

// DetectProject prefers the repository name of the origin remote and falls
// back to the directory name.
func DetectProject(ctx context.Context, dir string) string {
	cmd := exec.CommandContext(ctx, "git", "remote", "get-url", "origin")
	cmd.Dir = dir
	if out, err := cmd.Output(); err == nil {
		line, _ := bufio.NewReader(bytes.NewReader(out)).ReadString('\n')
		if name := RepoName(line); name != "" {
			return name
		}
	}
	if base := filepath.Base(dir); base != "." && base != string(filepath.Separator) && base != "" {
		return base
	}
	return UnknownProject
}

// RepoName extracts "repo" from remotes such as
// https://github.com/org/repo.git and git@github.com:org/repo.git.
func RepoName(remote string) string {
	name := strings.TrimSpace(remote)
	name = strings.TrimSuffix(name, ".git")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}
