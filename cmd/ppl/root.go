/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package ppl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dburkart/ppl/cmd/ppl/explain"
	"github.com/dburkart/ppl/cmd/ppl/query"
	"github.com/dburkart/ppl/cmd/ppl/shell"
)

var (
	Version        = "develop"
	CommitHash     = "n/a"
	BuildTimestamp = "n/a"

	rootCmd = &cobra.Command{
		Use:   "ppl",
		Short: "ppl runs piped processing language queries over local datasets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initLogging()
			initLogLevel()
			initConfig(cmd.Root().PersistentFlags().Lookup("config").Value.String())
			initLogLevel()
			traceConfig()
			return validateConfig()
		},
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

func init() {
	// Configure the root binary options
	rootCmd.PersistentFlags().CountP("verbose", "v", "-v for debug logs (-vv for trace)")
	rootCmd.PersistentFlags().Bool("local", true, "Configures the logger to print readable logs")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the ppl config file (default ./config.toml)")
	rootCmd.PersistentFlags().StringP("data", "d", "", "Dataset file (yaml or json) to load tables from")
	rootCmd.PersistentFlags().StringP("format", "f", "table", "Output format of results [table, csv, json]")
	rootCmd.PersistentFlags().Int("workers", 0, "Number of queries executed at once (default one per CPU)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Maximum time a single query may run (default unlimited)")
	rootCmd.PersistentFlags().Int("metrics-port", 0, "Serve prometheus metrics on this port")

	// Bind viper config to the root flags
	viper.BindPFlag("ppl.local", rootCmd.PersistentFlags().Lookup("local"))
	viper.BindPFlag("ppl.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("query.format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("executor.workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("executor.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("metrics.port", rootCmd.PersistentFlags().Lookup("metrics-port"))

	rootCmd.SetVersionTemplate(fmt.Sprintf("ppl version: %s git_commit: %s build_time: %s\n", Version, CommitHash, BuildTimestamp))

	// Bind viper flags to ENV variables
	viper.AutomaticEnv()

	// Register commands on the root binary command
	query.Command.Version = rootCmd.Version
	explain.Command.Version = rootCmd.Version
	shell.Command.Version = rootCmd.Version
	rootCmd.AddCommand(query.Command)
	rootCmd.AddCommand(explain.Command)
	rootCmd.AddCommand(shell.Command)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
