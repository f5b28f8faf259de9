// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package action_test

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigzba21/si/internal/dal/action"
	"github.com/rigzba21/si/internal/dal/component"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
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
	v, err := schema.NewVariant(context.Background(), tx, model.SchemaVariant{SchemaID: model.NewID(), Name: "v1"})
	require.NoError(t, err)
	require.NoError(t, schema.Finalize(context.Background(), tx, funcs.NopExecutor{}, v.ID))
	return v
}

func newActionFunc(t *testing.T, tx *datastore.Tx, name string) *model.Func {
	t.Helper()
	fn, err := funcs.New(context.Background(), tx, model.Func{
		Name:         name,
		BackendKind:  model.FuncBackendKindJsAction,
		ResponseType: model.FuncResponseTypeAction,
	})
	require.NoError(t, err)
	return fn
}

func TestNewPrototype_UniquePerKind(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	fn := newActionFunc(t, tx, "aws:createInstance")
	_, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
		SchemaVariantID: v.ID, FuncID: fn.ID, Kind: model.ActionKindCreate,
	})
	require.NoError(t, err)

	other := newActionFunc(t, tx, "aws:createInstanceAgain")
	_, err = action.NewPrototype(ctx, tx, model.ActionPrototype{
		SchemaVariantID: v.ID, FuncID: other.ID, Kind: model.ActionKindCreate,
	})
	var dup *action.MultipleOfSameKindError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, model.ActionKindCreate, dup.Kind)

	// "other" prototypes are unrestricted.
	for _, name := range []string{"aws:reboot", "aws:resize"} {
		fn := newActionFunc(t, tx, name)
		_, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
			SchemaVariantID: v.ID, FuncID: fn.ID, Kind: model.ActionKindOther,
		})
		require.NoError(t, err)
	}
}

func TestSetKind_HoldsUniqueness(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	first, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
		SchemaVariantID: v.ID, FuncID: newActionFunc(t, tx, "aws:a").ID, Kind: model.ActionKindOther,
	})
	require.NoError(t, err)
	require.NoError(t, action.SetKind(ctx, tx, first, model.ActionKindRefresh))
	assert.Equal(t, model.ActionKindRefresh, first.Kind)

	second, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
		SchemaVariantID: v.ID, FuncID: newActionFunc(t, tx, "aws:b").ID, Kind: model.ActionKindOther,
	})
	require.NoError(t, err)
	var dup *action.MultipleOfSameKindError
	require.ErrorAs(t, action.SetKind(ctx, tx, second, model.ActionKindRefresh), &dup)
}

func TestRun_WritesResourceAndPublishes(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	proto, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
		SchemaVariantID: v.ID, FuncID: newActionFunc(t, tx, "aws:create").ID, Kind: model.ActionKindCreate,
	})
	require.NoError(t, err)

	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	require.NoError(t, err)

	exec := funcs.StaticExecutor{Value: json.RawMessage(`{
		"status": "ok",
		"message": "created",
		"payload": {"arn": "abc"}
	}`)}
	rec := &events.Recorder{}

	result, err := action.Run(ctx, tx, exec, rec, proto.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceStatusOK, result.Status)

	r, err := component.GetResource(ctx, tx, c)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceStatusOK, r.Status)
	assert.Equal(t, "created", r.Message)
	assert.JSONEq(t, `{"arn": "abc"}`, string(r.Payload))
	assert.NotEmpty(t, r.Logs)

	require.Len(t, rec.Events, 1)
	assert.Equal(t, events.KindResourceRefreshed, rec.Events[0].Kind)
	assert.Equal(t, tx.Tenancy().WorkspaceID, rec.Events[0].WorkspaceID)
}

func TestRun_ClearsNeedsDestroyWhenResourceGone(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	proto, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
		SchemaVariantID: v.ID, FuncID: newActionFunc(t, tx, "aws:delete").ID, Kind: model.ActionKindDelete,
	})
	require.NoError(t, err)

	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	require.NoError(t, err)
	require.NoError(t, component.SetNeedsDestroy(ctx, tx, c, true))

	exec := funcs.StaticExecutor{Value: json.RawMessage(`{"status": "ok"}`)}
	_, err = action.Run(ctx, tx, exec, events.NopPublisher{}, proto.ID, c.ID)
	require.NoError(t, err)

	c, err = component.Get(ctx, tx, c.ID)
	require.NoError(t, err)
	assert.False(t, c.NeedsDestroy)
}

func TestRun_RejectsComponentFromOtherVariant(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v1 := prepareVariant(t, tx)
	v2 := prepareVariant(t, tx)

	proto, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
		SchemaVariantID: v1.ID, FuncID: newActionFunc(t, tx, "aws:create").ID, Kind: model.ActionKindCreate,
	})
	require.NoError(t, err)

	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v2.ID)
	require.NoError(t, err)

	_, err = action.Run(ctx, tx, funcs.StaticExecutor{}, events.NopPublisher{}, proto.ID, c.ID)
	var mismatch *action.ComponentVariantMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, v1.ID, mismatch.PrototypeVariantID)
	assert.Equal(t, v2.ID, mismatch.ComponentVariantID)
}

func TestRun_MalformedResult(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	proto, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
		SchemaVariantID: v.ID, FuncID: newActionFunc(t, tx, "aws:create").ID, Kind: model.ActionKindCreate,
	})
	require.NoError(t, err)
	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	require.NoError(t, err)

	exec := funcs.StaticExecutor{Value: json.RawMessage(`["not", "an", "object"]`)}
	_, err = action.Run(ctx, tx, exec, events.NopPublisher{}, proto.ID, c.ID)
	var malformed *action.MalformedResultError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, proto.ID, malformed.PrototypeID)
}

func TestAuthPrototypes_RunAsBeforeFuncs(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()
	v := prepareVariant(t, tx)

	auth, err := funcs.New(ctx, tx, model.Func{
		Name:         "aws:assumeRole",
		BackendKind:  model.FuncBackendKindJsAuth,
		ResponseType: model.FuncResponseTypeJson,
	})
	require.NoError(t, err)
	_, err = action.NewAuthPrototype(ctx, tx, model.AuthPrototype{SchemaVariantID: v.ID, FuncID: auth.ID})
	require.NoError(t, err)

	found, err := action.FindAuthPrototypeForFunc(ctx, tx, v.ID, auth.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	proto, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
		SchemaVariantID: v.ID, FuncID: newActionFunc(t, tx, "aws:refresh").ID, Kind: model.ActionKindRefresh,
	})
	require.NoError(t, err)
	c, err := component.New(ctx, tx, funcs.NopExecutor{}, "web", v.ID)
	require.NoError(t, err)

	exec := funcs.StaticExecutor{Value: json.RawMessage(`{"status": "ok"}`)}
	result, err := action.Run(ctx, tx, exec, events.NopPublisher{}, proto.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceStatusOK, result.Status)
}
