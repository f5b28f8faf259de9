// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rigzba21/si/internal/dal/changeset"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/logging"
)

// App bundles what every command needs: the loaded config, an open
// store and the resolved tenancy.
type App struct {
	Config  *Config
	Store   *datastore.Store
	Tenancy model.Tenancy
}

// appFromCmd loads config, sets up logging and opens the datastore.
// The caller closes the store.
func appFromCmd(command *cobra.Command) (*App, error) {
	configPath, _ := command.Flags().GetString("config")
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if dbPath, _ := command.Flags().GetString("db"); dbPath != "" {
		cfg.Datastore.FilePath = dbPath
	}
	if ws, _ := command.Flags().GetString("workspace"); ws != "" {
		cfg.WorkspaceID = ws
	}

	logging.Setup(cfg.Logging)

	store, err := datastore.Open(command.Context(), cfg.Datastore)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:  cfg,
		Store:   store,
		Tenancy: model.Tenancy{WorkspaceID: model.ID(cfg.WorkspaceID)},
	}, nil
}

// begin opens a transaction, resolving an optional change set name to
// its visibility.
func (a *App) begin(ctx context.Context, changeSetName string) (*datastore.Tx, error) {
	tx, err := a.Store.Begin(ctx, a.Tenancy, model.NewHeadVisibility())
	if err != nil {
		return nil, err
	}
	if changeSetName == "" {
		return tx, nil
	}

	cs, err := changeset.FindByName(ctx, tx, changeSetName)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if cs == nil {
		cs, err = changeset.New(ctx, tx, changeSetName)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		fmt.Printf("created change set %q (%s)\n", changeSetName, cs.ID)
	}
	return tx.WithVisibility(model.NewChangeSetVisibility(cs.ID)), nil
}
