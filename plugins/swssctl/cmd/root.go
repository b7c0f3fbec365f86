// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssctl/cmdimpl"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssctl/remote"
)

var (
	httpConfig string
	dbConfig   string
)

var cmdTables = &cobra.Command{
	Use:   "tables",
	Short: "Show the ACL tables of the agent",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := remote.CreateHTTPClient(httpConfig)
		if err != nil {
			return err
		}
		return cmdimpl.PrintTables(client)
	},
}

var cmdRules = &cobra.Command{
	Use:   "rules [table]",
	Short: "Show the ACL rules of the agent, optionally of a single table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := ""
		if len(args) == 1 {
			table = args[0]
		}
		client, err := remote.CreateHTTPClient(httpConfig)
		if err != nil {
			return err
		}
		return cmdimpl.PrintRules(client, table)
	},
}

var cmdTableTypes = &cobra.Command{
	Use:   "table-types",
	Short: "Show the ACL table types known to the agent",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := remote.CreateHTTPClient(httpConfig)
		if err != nil {
			return err
		}
		return cmdimpl.PrintTableTypes(client)
	},
}

var cmdDump = &cobra.Command{
	Use:   "dump database table",
	Short: "Dump one table of one switch database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdimpl.DumpTable(dbConfig, args[0], args[1])
	},
}

var cmdLoad = &cobra.Command{
	Use:   "load file",
	Short: "Load a YAML configuration snapshot into the switch databases",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdimpl.LoadFile(dbConfig, args[0])
	},
}

// Execute will execute the command swssctl
func Execute() {
	var rootCmd = &cobra.Command{
		Use:           "swssctl",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&httpConfig, "http-config", "",
		"YAML file with the agent REST client configuration")
	rootCmd.PersistentFlags().StringVar(&dbConfig, "db-config", "",
		"YAML file with the switch database connection configuration")
	rootCmd.AddCommand(cmdTables)
	rootCmd.AddCommand(cmdRules)
	rootCmd.AddCommand(cmdTableTypes)
	rootCmd.AddCommand(cmdDump)
	rootCmd.AddCommand(cmdLoad)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
