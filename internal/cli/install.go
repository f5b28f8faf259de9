// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/pkgimport"
	"github.com/rigzba21/si/internal/events"
	"github.com/rigzba21/si/pkg/sipkg"
)

// InstallCmd imports a package file into the workspace.
func InstallCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "install <package file>",
		Short: "Install a package into the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			app, err := appFromCmd(command)
			if err != nil {
				return err
			}
			defer app.Store.Close()

			pkg, err := sipkg.ReadFile(args[0])
			if err != nil {
				return err
			}

			schemas, _ := command.Flags().GetStringSlice("schema")
			allowUpgrades, _ := command.Flags().GetBool("allow-builtin-upgrades")
			noRecord, _ := command.Flags().GetBool("no-record")
			builtin, _ := command.Flags().GetBool("builtin")
			changeSetName, _ := command.Flags().GetString("change-set")

			ctx := command.Context()
			tx, err := app.begin(ctx, changeSetName)
			if err != nil {
				return err
			}
			if err := funcs.Seed(ctx, tx); err != nil {
				tx.Rollback()
				return err
			}

			importer := pkgimport.NewImporter(funcs.NopExecutor{}, events.LogPublisher{}, pkgimport.Options{
				Schemas:              schemas,
				NoRecord:             noRecord,
				IsBuiltin:            builtin,
				AllowBuiltinUpgrades: allowUpgrades,
			})
			result, err := importer.ImportPkg(ctx, tx, pkg)
			if err != nil {
				tx.Rollback()
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}

			fmt.Printf("installed %s: %d schema variant(s)\n", pkg.Metadata().Name, len(result.SchemaVariantIDs))
			for _, s := range result.Skips.Attributes {
				fmt.Printf("skipped attribute %s on component %s: %s\n", s.PropPath, s.ComponentUniqueID, s.Reason)
			}
			for _, s := range result.Skips.Edges {
				fmt.Printf("skipped edge %s at socket %s: %s\n", s.EdgeUniqueID, s.SocketName, s.Reason)
			}
			return nil
		},
	}

	command.Flags().String("change-set", "", "Import into the named change set instead of head")
	command.Flags().StringSlice("schema", nil, "Restrict the import to the named schemas")
	command.Flags().Bool("allow-builtin-upgrades", false, "Let a newer package replace installed builtin variants")
	command.Flags().Bool("no-record", false, "Skip the installed-package ledger")
	command.Flags().Bool("builtin", false, "Mark imported schemas and funcs as builtin")
	return command
}
