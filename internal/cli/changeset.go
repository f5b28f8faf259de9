// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rigzba21/si/internal/dal/changeset"
	"github.com/rigzba21/si/internal/dal/model"
)

// ChangeSetCmd groups change set management.
func ChangeSetCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "change-set",
		Aliases: []string{"cs"},
		Short:   "Manage change sets",
	}
	command.AddCommand(changeSetListCmd(), changeSetNewCmd(), changeSetStatusCmd("apply", model.ChangeSetStatusApplied), changeSetStatusCmd("abandon", model.ChangeSetStatusAbandoned))
	return command
}

func changeSetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List change sets",
		RunE: func(command *cobra.Command, args []string) error {
			app, err := appFromCmd(command)
			if err != nil {
				return err
			}
			defer app.Store.Close()

			ctx := command.Context()
			tx, err := app.begin(ctx, "")
			if err != nil {
				return err
			}
			defer tx.Rollback()

			sets, err := changeset.List(ctx, tx)
			if err != nil {
				return err
			}
			for _, cs := range sets {
				fmt.Printf("%s  %-10s  %s\n", cs.ID, cs.Status, cs.Name)
			}
			return nil
		},
	}
}

func changeSetNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <name>",
		Short: "Create a change set",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			app, err := appFromCmd(command)
			if err != nil {
				return err
			}
			defer app.Store.Close()

			ctx := command.Context()
			tx, err := app.begin(ctx, "")
			if err != nil {
				return err
			}
			cs, err := changeset.New(ctx, tx, args[0])
			if err != nil {
				tx.Rollback()
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			fmt.Printf("created change set %q (%s)\n", cs.Name, cs.ID)
			return nil
		},
	}
}

func changeSetStatusCmd(verb string, status model.ChangeSetStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <name>",
		Short: verb + " a change set",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			app, err := appFromCmd(command)
			if err != nil {
				return err
			}
			defer app.Store.Close()

			ctx := command.Context()
			tx, err := app.begin(ctx, "")
			if err != nil {
				return err
			}
			cs, err := changeset.FindByName(ctx, tx, args[0])
			if err != nil {
				tx.Rollback()
				return err
			}
			if cs == nil {
				tx.Rollback()
				return fmt.Errorf("change set %q not found", args[0])
			}
			if err := changeset.SetStatus(ctx, tx, cs.ID, status); err != nil {
				tx.Rollback()
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			fmt.Printf("change set %q is now %s\n", cs.Name, status)
			return nil
		},
	}
}
