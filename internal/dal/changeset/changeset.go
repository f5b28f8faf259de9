// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package changeset manages the named overlays writes can target. The
// overlay mechanics themselves live in the datastore; a ChangeSet row
// is bookkeeping.
package changeset

import (
	"context"
	"time"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

// New creates an open change set. The row itself lives on head so
// every visibility can enumerate change sets.
func New(ctx context.Context, tx *datastore.Tx, name string) (*model.ChangeSet, error) {
	head := tx.WithVisibility(model.NewHeadVisibility())
	cs := model.ChangeSet{
		ID:        model.NewID(),
		Tenancy:   tx.Tenancy(),
		Timestamp: model.NewTimestamp(time.Now().UTC()),
		Name:      name,
		Status:    model.ChangeSetStatusOpen,
	}
	if err := datastore.Insert(ctx, head, datastore.KindChangeSet, cs.ID, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

// Get loads a change set by id.
func Get(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.ChangeSet, error) {
	head := tx.WithVisibility(model.NewHeadVisibility())
	return datastore.Get[model.ChangeSet](ctx, head, datastore.KindChangeSet, id)
}

// FindByName returns the change set with the given name, or nil.
func FindByName(ctx context.Context, tx *datastore.Tx, name string) (*model.ChangeSet, error) {
	head := tx.WithVisibility(model.NewHeadVisibility())
	css, err := datastore.List[model.ChangeSet](ctx, head, datastore.KindChangeSet, datastore.Eq("name", name))
	if err != nil {
		return nil, err
	}
	if len(css) == 0 {
		return nil, nil
	}
	return &css[0], nil
}

// List returns every change set in the workspace.
func List(ctx context.Context, tx *datastore.Tx) ([]model.ChangeSet, error) {
	head := tx.WithVisibility(model.NewHeadVisibility())
	return datastore.List[model.ChangeSet](ctx, head, datastore.KindChangeSet)
}

// SetStatus transitions a change set's lifecycle state.
func SetStatus(ctx context.Context, tx *datastore.Tx, id model.ID, status model.ChangeSetStatus) error {
	head := tx.WithVisibility(model.NewHeadVisibility())
	cs, err := datastore.Get[model.ChangeSet](ctx, head, datastore.KindChangeSet, id)
	if err != nil {
		return err
	}
	cs.Status = status
	cs.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, head, datastore.KindChangeSet, cs.ID, cs)
}
