// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package prop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

func prepareTx(t *testing.T) *datastore.Tx {
	t.Helper()
	store, err := datastore.Open(context.Background(), datastore.Config{FilePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tx, err := store.Begin(context.Background(), model.Tenancy{WorkspaceID: model.NewID()}, model.NewHeadVisibility())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func TestNew_DerivesPathFromParent(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	variantID := model.NewID()

	root, err := New(ctx, tx, model.Prop{SchemaVariantID: variantID, Name: "root", Kind: model.PropKindObject})
	require.NoError(t, err)
	assert.Equal(t, model.PropPath("root"), root.Path)

	domain, err := New(ctx, tx, model.Prop{ParentPropID: root.ID, Name: "domain", Kind: model.PropKindObject})
	require.NoError(t, err)
	assert.Equal(t, model.PropPath("root/domain"), domain.Path)
	assert.Equal(t, variantID, domain.SchemaVariantID)

	color, err := New(ctx, tx, model.Prop{ParentPropID: domain.ID, Name: "color", Kind: model.PropKindString})
	require.NoError(t, err)
	assert.Equal(t, model.PropPath("root/domain/color"), color.Path)
	assert.Equal(t, "text", color.WidgetKind)
}

func TestNew_RejectsDuplicatePath(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	variantID := model.NewID()

	root, err := New(ctx, tx, model.Prop{SchemaVariantID: variantID, Name: "root", Kind: model.PropKindObject})
	require.NoError(t, err)

	_, err = New(ctx, tx, model.Prop{ParentPropID: root.ID, Name: "domain", Kind: model.PropKindObject})
	require.NoError(t, err)

	_, err = New(ctx, tx, model.Prop{ParentPropID: root.ID, Name: "domain", Kind: model.PropKindString})
	var dup *DuplicatePathError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, model.PropPath("root/domain"), dup.Path)
}

func TestNew_RejectsChildOfLeaf(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	leaf, err := New(ctx, tx, model.Prop{SchemaVariantID: model.NewID(), Name: "size", Kind: model.PropKindInteger})
	require.NoError(t, err)

	_, err = New(ctx, tx, model.Prop{ParentPropID: leaf.ID, Name: "nested", Kind: model.PropKindString})
	var leafErr *ChildOfLeafError
	require.ErrorAs(t, err, &leafErr)
	assert.Equal(t, model.PropKindInteger, leafErr.ParentKind)
}

func TestFindByPath(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	variantID := model.NewID()

	root, err := New(ctx, tx, model.Prop{SchemaVariantID: variantID, Name: "root", Kind: model.PropKindObject})
	require.NoError(t, err)
	_, err = New(ctx, tx, model.Prop{ParentPropID: root.ID, Name: "domain", Kind: model.PropKindObject})
	require.NoError(t, err)

	found, err := FindByPath(ctx, tx, variantID, model.NewPropPath("root", "domain"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "domain", found.Name)

	missing, err := FindByPath(ctx, tx, variantID, model.NewPropPath("root", "nope"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	otherVariant, err := FindByPath(ctx, tx, model.NewID(), model.NewPropPath("root", "domain"))
	require.NoError(t, err)
	assert.Nil(t, otherVariant)
}

func TestChildren_CreationOrder(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	root, err := New(ctx, tx, model.Prop{SchemaVariantID: model.NewID(), Name: "root", Kind: model.PropKindObject})
	require.NoError(t, err)

	for _, name := range []string{"alpha", "beta", "gamma"} {
		_, err := New(ctx, tx, model.Prop{ParentPropID: root.ID, Name: name, Kind: model.PropKindString})
		require.NoError(t, err)
	}

	children, err := Children(ctx, tx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "alpha", children[0].Name)
	assert.Equal(t, "beta", children[1].Name)
	assert.Equal(t, "gamma", children[2].Name)
}
