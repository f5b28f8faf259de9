// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package component_test

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/component"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/prop"
	"github.com/rigzba21/si/internal/dal/schema"
	"github.com/rigzba21/si/internal/events"
)

func prepareTx(t *testing.T) *datastore.Tx {
	t.Helper()
	store, err := datastore.Open(context.Background(), datastore.Config{FilePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tx, err := store.Begin(context.Background(), model.Tenancy{WorkspaceID: model.NewID()}, model.NewHeadVisibility())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })

	require.NoError(t, funcs.Seed(context.Background(), tx))
	return tx
}

func prepareVariant(t *testing.T, tx *datastore.Tx) *model.SchemaVariant {
	t.Helper()
	ctx := context.Background()

	v, err := schema.NewVariant(ctx, tx, model.SchemaVariant{SchemaID: model.NewID(), Name: "v1"})
	require.NoError(t, err)
	domain, err := prop.FindByPath(ctx, tx, v.ID, model.RootPropChildDomain.Path())
	require.NoError(t, err)
	_, err = prop.New(ctx, tx, model.Prop{ParentPropID: domain.ID, Name: "color", Kind: model.PropKindString})
	require.NoError(t, err)
	require.NoError(t, schema.Finalize(ctx, tx, funcs.NopExecutor{}, v.ID))
	return v
}

func TestNew_RequiresFinalizedVariant(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	v, err := schema.NewVariant(ctx, tx, model.SchemaVariant{SchemaID: model.NewID(), Name: "v1"})
	require.NoError(t, err)

	_, err = component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	var notFinalized *component.VariantNotFinalizedError
	require.ErrorAs(t, err, &notFinalized)
	assert.Equal(t, v.ID, notFinalized.SchemaVariantID)
}

func TestNew_SetsNameAndRendersView(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	require.NoError(t, err)

	name, err := component.Name(ctx, tx, c)
	require.NoError(t, err)
	assert.Equal(t, "web", name)

	colorProp, err := prop.FindByPath(ctx, tx, v.ID, model.RootPropChildDomain.Path().Join("color"))
	require.NoError(t, err)
	_, err = attribute.UpdateForContextOrCreate(ctx, tx, funcs.NopExecutor{},
		model.AttributeContext{PropID: colorProp.ID, ComponentID: c.ID}, json.RawMessage(`"blue"`), "")
	require.NoError(t, err)

	doc, err := component.View(ctx, tx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "web", gjson.GetBytes(doc, "si.name").String())
	assert.Equal(t, "blue", gjson.GetBytes(doc, "domain.color").String())
}

func TestSetName_RenamesExistingComponent(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "old", v.ID)
	require.NoError(t, err)
	require.NoError(t, component.SetName(ctx, tx, funcs.NopExecutor{}, c, "new"))

	name, err := component.Name(ctx, tx, c)
	require.NoError(t, err)
	assert.Equal(t, "new", name)
}

func TestPosition_RoundTrip(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	require.NoError(t, err)

	pos, err := component.GetPosition(ctx, tx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, pos)

	require.NoError(t, component.SetPosition(ctx, tx, c.ID, model.ComponentPosition{X: "100", Y: "250"}))
	pos, err = component.GetPosition(ctx, tx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, "100", pos.X)
	assert.Equal(t, "250", pos.Y)
}

func TestResource_RoundTrip(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	require.NoError(t, err)

	empty, err := component.GetResource(ctx, tx, c)
	require.NoError(t, err)
	assert.Empty(t, empty.Status)

	require.NoError(t, component.SetResource(ctx, tx, funcs.NopExecutor{}, c, model.Resource{
		Status:  model.ResourceStatusOK,
		Payload: json.RawMessage(`{"arn": "abc"}`),
	}))
	r, err := component.GetResource(ctx, tx, c)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceStatusOK, r.Status)
	assert.JSONEq(t, `{"arn": "abc"}`, string(r.Payload))
}

func TestNewEdge_MaterializesHeadSocket(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	out, _, err := schema.NewOutputSocket(ctx, tx, v.ID, "data", model.SocketArityOne)
	require.NoError(t, err)
	in, err := schema.NewInputSocket(ctx, tx, v.ID, "feed", model.SocketArityOne)
	require.NoError(t, err)

	tail, err := component.New(ctx, tx, funcs.NopExecutor{}, "tail", v.ID)
	require.NoError(t, err)
	head, err := component.New(ctx, tx, funcs.NopExecutor{}, "head", v.ID)
	require.NoError(t, err)

	// The tail emits through its output socket.
	_, err = attribute.UpdateForContextOrCreate(ctx, tx, funcs.NopExecutor{},
		model.AttributeContext{ExternalProviderID: out.ID, ComponentID: tail.ID}, json.RawMessage(`"signal"`), "")
	require.NoError(t, err)

	_, err = component.NewEdge(ctx, tx, funcs.NopExecutor{}, model.Edge{
		TailComponentID:        tail.ID,
		TailExternalProviderID: out.ID,
		TailSocketName:         "data",
		HeadComponentID:        head.ID,
		HeadInternalProviderID: in.ID,
		HeadSocketName:         "feed",
	})
	require.NoError(t, err)

	socketCtx := model.AttributeContext{InternalProviderID: in.ID, ComponentID: head.ID}
	sv, err := attribute.FindValueForContext(ctx, tx, socketCtx, "")
	require.NoError(t, err)
	assert.Equal(t, head.ID, sv.Context.ComponentID)
	doc, err := attribute.Materialize(ctx, tx, sv)
	require.NoError(t, err)
	assert.JSONEq(t, `"signal"`, string(doc))

	// New emissions flow across the standing edge.
	_, err = attribute.UpdateForContextOrCreate(ctx, tx, funcs.NopExecutor{},
		model.AttributeContext{ExternalProviderID: out.ID, ComponentID: tail.ID}, json.RawMessage(`"fresh"`), "")
	require.NoError(t, err)
	sv, err = attribute.FindValueForContext(ctx, tx, socketCtx, "")
	require.NoError(t, err)
	doc, err = attribute.Materialize(ctx, tx, sv)
	require.NoError(t, err)
	assert.JSONEq(t, `"fresh"`, string(doc))
}

func TestNewEdge_DeletedEdgeFeedsNothing(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	out, _, err := schema.NewOutputSocket(ctx, tx, v.ID, "data", model.SocketArityOne)
	require.NoError(t, err)
	in, err := schema.NewInputSocket(ctx, tx, v.ID, "feed", model.SocketArityOne)
	require.NoError(t, err)

	tail, err := component.New(ctx, tx, funcs.NopExecutor{}, "tail", v.ID)
	require.NoError(t, err)
	head, err := component.New(ctx, tx, funcs.NopExecutor{}, "head", v.ID)
	require.NoError(t, err)

	deletedAt := time.Now().UTC()
	_, err = component.NewEdge(ctx, tx, funcs.NopExecutor{}, model.Edge{
		TailComponentID:        tail.ID,
		TailExternalProviderID: out.ID,
		TailSocketName:         "data",
		HeadComponentID:        head.ID,
		HeadInternalProviderID: in.ID,
		HeadSocketName:         "feed",
		DeletedAt:              &deletedAt,
	})
	require.NoError(t, err)

	// No component-specific socket value was materialized.
	sv, err := attribute.FindValueForContext(ctx, tx,
		model.AttributeContext{InternalProviderID: in.ID, ComponentID: head.ID}, "")
	require.NoError(t, err)
	assert.True(t, sv.Context.ComponentID.IsNone())
}

func TestSetCode_WritesEntryAndPublishes(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	require.NoError(t, err)

	rec := &events.Recorder{}
	err = component.SetCode(ctx, tx, funcs.NopExecutor{}, rec, c.ID, "codegenAwsCli", `{"Name":"web"}`, "json")
	require.NoError(t, err)

	views, err := component.ListCodeGenerated(ctx, tx, c.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "codegenAwsCli", views[0].Name)
	assert.Equal(t, `{"Name":"web"}`, views[0].Code)
	assert.Equal(t, "json", views[0].Format)
	assert.False(t, views[0].NotYetGenerated)

	require.Len(t, rec.Events, 1)
	assert.Equal(t, events.KindCodeGenerated, rec.Events[0].Kind)
}

func TestListCodeGenerated_FlagsPendingEntries(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	require.NoError(t, err)

	require.NoError(t, component.SetCode(ctx, tx, funcs.NopExecutor{}, nil, c.ID, "codegenPending", "", ""))

	views, err := component.ListCodeGenerated(ctx, tx, c.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].NotYetGenerated)
}
