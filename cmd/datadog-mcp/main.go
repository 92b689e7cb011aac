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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fanki/datadog-mcp/internal/config"
	"github.com/fanki/datadog-mcp/internal/ddmcp"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "datadog-mcp",
	Short:   "Datadog MCP Server",
	Long:    `A Model Context Protocol server that turns Datadog error traces and logs into test scenarios.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("api-key", "", "Datadog API key (env "+config.EnvAPIKey+")")
	flags.String("app-key", "", "Datadog application key (env "+config.EnvAppKey+")")
	flags.String("site", config.DefaultSite, "Datadog site (env "+config.EnvSite+")")
	flags.String("env", config.DefaultEnv, "Default environment tag (env "+config.EnvDefaultEnv+")")
	flags.String("filter-config", "", "Path of the stack-trace filter configuration (env "+config.EnvFilterConfig+")")
	flags.Bool("read-only", false, "Restrict the server to read-only operations")
	flags.String("log-file", "", "Path to log file")
	flags.Bool("log-command", false, "When true, log commands")
	flags.Int64("cache-size", config.DefaultCacheSize, "Number of traces kept in memory, 0 disables the cache")

	_ = viper.BindPFlag("api-key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("app-key", flags.Lookup("app-key"))
	_ = viper.BindPFlag("site", flags.Lookup("site"))
	_ = viper.BindPFlag("env-default", flags.Lookup("env"))
	_ = viper.BindPFlag("filter-config", flags.Lookup("filter-config"))
	_ = viper.BindPFlag("read-only", flags.Lookup("read-only"))
	_ = viper.BindPFlag("log-file", flags.Lookup("log-file"))
	_ = viper.BindPFlag("log-command", flags.Lookup("log-command"))
	_ = viper.BindPFlag("cache-size", flags.Lookup("cache-size"))

	rootCmd.AddCommand(ddmcp.NewStdioServer())
	rootCmd.AddCommand(ddmcp.NewStreamable())
}

// initConfig maps DATADOG_API_KEY and friends onto the flag keys.
func initConfig() {
	viper.SetEnvPrefix("datadog")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
