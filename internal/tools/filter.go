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
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AddFilterTools registers the tools that write the filter preferences
func AddFilterTools(s *server.MCPServer) {
	ConfigureFilterTool.Register(s)
}

const actionConfigureFilter = "configure filters"

// Filter actions
const (
	FilterActionStatus      = "status"
	FilterActionSetGlobal   = "set_global"
	FilterActionSetProject  = "set_project"
	FilterActionSetNoFilter = "set_no_filter"
	FilterActionClear       = "clear_project"
)

// ConfigureFilterRequest defines the parameters for filter.configure
type ConfigureFilterRequest struct {
	Action      string      `json:"action"`
	Packages    *StringList `json:"packages,omitempty"`
	ProjectName string      `json:"projectName,omitempty"`
}

type filterStatusResult struct {
	Success            bool     `json:"success"`
	Configured         bool     `json:"configured"`
	CurrentProject     string   `json:"currentProject"`
	ProjectConfigured  bool     `json:"projectConfigured"`
	GlobalPackages     []string `json:"globalPackages,omitempty"`
	ProjectPackages    []string `json:"projectPackages,omitempty"`
	EffectivePackages  []string `json:"effectivePackages,omitempty"`
	ConfiguredProjects []string `json:"configuredProjects,omitempty"`
	SetupRequired      bool     `json:"setupRequired"`
	Message            string   `json:"message,omitempty"`
}

type filterChangeResult struct {
	Success     bool     `json:"success"`
	Action      string   `json:"action"`
	ProjectName string   `json:"projectName,omitempty"`
	Packages    []string `json:"packages,omitempty"`
	Message     string   `json:"message"`
}

func configureFilter(ctx context.Context, req *ConfigureFilterRequest) (*mcp.CallToolResult, error) {
	rt, err := RuntimeFromContext(ctx)
	if err != nil {
		return failure(actionConfigureFilter, err), nil
	}
	if err := requireString("action", req.Action); err != nil {
		return failure(actionConfigureFilter, err), nil
	}

	switch req.Action {
	case FilterActionStatus:
		return jsonResult(filterStatus(ctx, rt, req)), nil
	case FilterActionSetGlobal:
		packages, err := req.packages()
		if err != nil {
			return failure(actionConfigureFilter, err), nil
		}
		if err := rt.Filters.SetGlobalPackages(packages); err != nil {
			return failure(actionConfigureFilter, err), nil
		}
		return jsonResult(filterChangeResult{
			Success:  true,
			Action:   FilterActionSetGlobal,
			Packages: packages,
			Message: "Global filters configured. These will apply to all projects " +
				"unless overridden with project-specific settings.",
		}), nil
	case FilterActionSetProject:
		project := req.project(ctx, rt)
		packages, err := req.packages()
		if err != nil {
			return failure(actionConfigureFilter, err), nil
		}
		if err := rt.Filters.SetProjectPackages(project, packages); err != nil {
			return failure(actionConfigureFilter, err), nil
		}
		return jsonResult(filterChangeResult{
			Success:     true,
			Action:      FilterActionSetProject,
			ProjectName: project,
			Packages:    packages,
			Message: fmt.Sprintf("Filters configured for project '%s'. "+
				"These settings will be used for future log searches in this project.", project),
		}), nil
	case FilterActionSetNoFilter:
		project := req.project(ctx, rt)
		if err := rt.Filters.SetProjectNoFilter(project); err != nil {
			return failure(actionConfigureFilter, err), nil
		}
		return jsonResult(filterChangeResult{
			Success:     true,
			Action:      FilterActionSetNoFilter,
			ProjectName: project,
			Message: fmt.Sprintf("Project '%s' configured to show full stack traces without filtering. "+
				"This setting will be remembered for future log searches.", project),
		}), nil
	case FilterActionClear:
		project := req.project(ctx, rt)
		if err := rt.Filters.ClearProject(project); err != nil {
			return failure(actionConfigureFilter, err), nil
		}
		return jsonResult(filterChangeResult{
			Success:     true,
			Action:      FilterActionClear,
			ProjectName: project,
			Message: fmt.Sprintf("Project-specific configuration cleared for '%s'. "+
				"Global filters will be used instead.", project),
		}), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf(ErrUnknownAction, req.Action)), nil
	}
}

func filterStatus(ctx context.Context, rt *Runtime, req *ConfigureFilterRequest) filterStatusResult {
	project := req.project(ctx, rt)
	store := rt.Filters
	res := filterStatusResult{
		Success:           true,
		Configured:        store.IsConfigured(),
		CurrentProject:    project,
		ProjectConfigured: store.IsProjectConfigured(project),
	}
	if res.Configured {
		res.GlobalPackages = store.GlobalPackages()
		res.ProjectPackages = store.ProjectPackages(project)
		res.EffectivePackages = store.RelevantPackages(project)
		res.ConfiguredProjects = store.ConfiguredProjects()
	}

	switch {
	case !res.Configured:
		res.SetupRequired = true
		res.Message = fmt.Sprintf("No filter configuration found. Ask the user if they want to: "+
			"(1) Set global filters that apply to all projects, "+
			"(2) Set project-specific filters for '%s', or "+
			"(3) Show full stack traces without any filtering.", project)
	case !res.ProjectConfigured && len(res.GlobalPackages) == 0:
		res.SetupRequired = true
		res.Message = fmt.Sprintf("No filters configured for project '%s' and no global filters set. "+
			"Ask the user if they want to configure filters.", project)
	}
	return res
}

func (r *ConfigureFilterRequest) project(ctx context.Context, rt *Runtime) string {
	if strings.TrimSpace(r.ProjectName) != "" {
		return r.ProjectName
	}
	return rt.project(ctx)
}

func (r *ConfigureFilterRequest) packages() ([]string, error) {
	if r.Packages == nil {
		return nil, invalidArgs(ErrMissingParameter, "packages")
	}
	return []string(*r.Packages), nil
}

// ConfigureFilterTool manages the stack trace filter preferences
var ConfigureFilterTool = NewTool[ConfigureFilterRequest, *mcp.CallToolResult](
	"filter.configure",
	`Configures the stack trace filters used by the log tools.

IMPORTANT: before searching logs, check the configuration with action 'status'.
If 'setupRequired' is true, ask the user whether they want to:
(1) set global filters, (2) set project-specific filters, or
(3) show full stack traces without filtering.

Actions:
- 'status': current configuration and whether setup is needed
- 'set_global': package prefixes applied to every project
- 'set_project': package prefixes for the current project only
- 'set_no_filter': never filter stack traces of the current project
- 'clear_project': drop the project settings and fall back to the global ones

The project is detected from the git remote of the working directory unless
'projectName' is given.

Examples:
- {"action": "status"}
- {"action": "set_global", "packages": ["com.mycompany"]}
- {"action": "set_project", "projectName": "checkout-service", "packages": ["com.mycompany.checkout"]}`,
	configureFilter,
	mcp.WithTitleAnnotation("Configure stack trace filters"),
	mcp.WithString("action", mcp.Required(),
		mcp.Enum(FilterActionStatus, FilterActionSetGlobal, FilterActionSetProject, FilterActionSetNoFilter, FilterActionClear),
		mcp.Description("Action to perform."),
	),
	mcp.WithArray("packages",
		mcp.WithStringItems(),
		mcp.Description("Package prefixes to keep in stack traces (e.g. ['co.fanki', 'com.mycompany']). "+
			"Required for 'set_global' and 'set_project'."),
	),
	mcp.WithString("projectName",
		mcp.Description("Project name. If not provided, auto-detects from git repo or directory name."),
	),
)
