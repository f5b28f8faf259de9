// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package cli wires the si command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	si "github.com/rigzba21/si"
)

var rootCmd = &cobra.Command{
	Use:           "si",
	Short:         "si CLI",
	Long:          "si: a versioned property graph with change sets, attribute functions and portable packages",
	Version:       si.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default "+DefaultConfigPath+")")
	rootCmd.PersistentFlags().String("db", "", "Path to the sqlite database, overrides the config")
	rootCmd.PersistentFlags().String("workspace", "", "Workspace id, overrides the config")

	rootCmd.AddCommand(InitDBCmd())
	rootCmd.AddCommand(InstallCmd())
	rootCmd.AddCommand(ExportCmd())
	rootCmd.AddCommand(ChangeSetCmd())
}

func Start() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
