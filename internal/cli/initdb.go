// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
)

// InitDBCmd creates the database, runs migrations and seeds the
// intrinsic functions. A fresh workspace id is generated unless one is
// configured.
func InitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database and seed intrinsic functions",
		RunE: func(command *cobra.Command, args []string) error {
			app, err := appFromCmd(command)
			if err != nil {
				return err
			}
			defer app.Store.Close()

			if app.Tenancy.WorkspaceID.IsNone() || app.Tenancy.WorkspaceID == "" {
				app.Tenancy.WorkspaceID = model.NewID()
				fmt.Printf("workspace id: %s\n", app.Tenancy.WorkspaceID)
				fmt.Println("add it to your config as workspace-id to reuse this workspace")
			}

			ctx := command.Context()
			tx, err := app.begin(ctx, "")
			if err != nil {
				return err
			}
			if err := funcs.Seed(ctx, tx); err != nil {
				tx.Rollback()
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			fmt.Println("database initialized")
			return nil
		},
	}
}
