// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package changeset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

func prepareTx(t *testing.T, visibility model.Visibility) *datastore.Tx {
	t.Helper()
	store, err := datastore.Open(context.Background(), datastore.Config{FilePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tx, err := store.Begin(context.Background(), model.Tenancy{WorkspaceID: model.NewID()}, visibility)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func TestNew_RowLandsOnHead(t *testing.T) {
	// Creating from a change-set scoped transaction must not bury the
	// bookkeeping row inside the overlay.
	tx := prepareTx(t, model.NewChangeSetVisibility(model.NewID()))
	ctx := context.Background()

	cs, err := New(ctx, tx, "feature-1")
	require.NoError(t, err)
	assert.Equal(t, model.ChangeSetStatusOpen, cs.Status)

	head := tx.WithVisibility(model.NewHeadVisibility())
	got, err := Get(ctx, head, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, "feature-1", got.Name)
}

func TestFindByName(t *testing.T) {
	tx := prepareTx(t, model.NewHeadVisibility())
	ctx := context.Background()

	created, err := New(ctx, tx, "feature-1")
	require.NoError(t, err)

	found, err := FindByName(ctx, tx, "feature-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := FindByName(ctx, tx, "feature-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSetStatus_Lifecycle(t *testing.T) {
	tx := prepareTx(t, model.NewHeadVisibility())
	ctx := context.Background()

	cs, err := New(ctx, tx, "feature-1")
	require.NoError(t, err)

	require.NoError(t, SetStatus(ctx, tx, cs.ID, model.ChangeSetStatusApplied))
	got, err := Get(ctx, tx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChangeSetStatusApplied, got.Status)
}

func TestList_ReturnsEveryChangeSet(t *testing.T) {
	tx := prepareTx(t, model.NewHeadVisibility())
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := New(ctx, tx, name)
		require.NoError(t, err)
	}

	css, err := List(ctx, tx)
	require.NoError(t, err)
	assert.Len(t, css, 3)
}
