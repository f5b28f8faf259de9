// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package pkgimport_test

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigzba21/si/internal/dal/action"
	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/changeset"
	"github.com/rigzba21/si/internal/dal/component"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/pkgimport"
	"github.com/rigzba21/si/internal/dal/prop"
	"github.com/rigzba21/si/internal/dal/schema"
	"github.com/rigzba21/si/internal/events"
	"github.com/rigzba21/si/pkg/sipkg"
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

func mustPkg(t *testing.T, spec sipkg.PkgSpec) *sipkg.Pkg {
	t.Helper()
	pkg, err := sipkg.New(spec)
	require.NoError(t, err)
	return pkg
}

func widgetSpec() sipkg.PkgSpec {
	return sipkg.PkgSpec{
		Metadata: sipkg.PkgMetadata{
			Name:      "widget",
			Version:   "1.0.0",
			Kind:      sipkg.PkgKindModule,
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Funcs: []sipkg.FuncSpec{{
			UniqueID:     "fn-create",
			Name:         "widget:create",
			BackendKind:  string(model.FuncBackendKindJsAction),
			ResponseType: string(model.FuncResponseTypeAction),
			CodeBase64:   "Y3JlYXRl",
		}},
		Schemas: []sipkg.SchemaSpec{{
			UniqueID: "sch-widget",
			Name:     "Widget",
			Variants: []sipkg.SchemaVariantSpec{{
				UniqueID: "var-widget-1",
				Name:     "v1",
				Domain: &sipkg.PropSpec{
					Name: "domain",
					Kind: "object",
					Children: []sipkg.PropSpec{{
						Name:         "color",
						Kind:         "string",
						DefaultValue: json.RawMessage(`"red"`),
					}},
				},
				Sockets: []sipkg.SocketSpec{
					{UniqueID: "sock-out", Name: "data", Kind: sipkg.SocketOutput, Arity: "one"},
					{UniqueID: "sock-in", Name: "feed", Kind: sipkg.SocketInput, Arity: "one"},
				},
				ActionFuncs: []sipkg.ActionFuncSpec{{
					FuncUniqueID: "fn-create",
					Kind:         string(model.ActionKindCreate),
				}},
			}},
		}},
		Components: []sipkg.ComponentSpec{
			{
				UniqueID:    "comp-1",
				Name:        "first",
				SchemaName:  "Widget",
				VariantName: "v1",
				Attributes: []sipkg.AttributeValueSpec{{
					PropPath: "root/domain/color",
					Value:    json.RawMessage(`"blue"`),
				}},
				Position: &sipkg.ComponentPosition{X: "10", Y: "20"},
			},
			{
				UniqueID:    "comp-2",
				Name:        "second",
				SchemaName:  "Widget",
				VariantName: "v1",
			},
		},
		Edges: []sipkg.EdgeSpec{{
			UniqueID:              "edge-1",
			FromComponentUniqueID: "comp-1",
			FromSocketName:        "data",
			ToComponentUniqueID:   "comp-2",
			ToSocketName:          "feed",
		}},
	}
}

func componentByName(t *testing.T, tx *datastore.Tx, name string) *model.Component {
	t.Helper()
	comps, err := component.List(context.Background(), tx)
	require.NoError(t, err)
	for i := range comps {
		n, err := component.Name(context.Background(), tx, &comps[i])
		require.NoError(t, err)
		if n == name {
			return &comps[i]
		}
	}
	t.Fatalf("no component named %q", name)
	return nil
}

func TestImportPkg_FullModule(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{})
	result, err := im.ImportPkg(ctx, tx, mustPkg(t, widgetSpec()))
	require.NoError(t, err)
	require.Len(t, result.SchemaVariantIDs, 1)
	assert.Empty(t, result.Skips.Attributes)
	assert.Empty(t, result.Skips.Edges)

	sch, err := schema.FindByName(ctx, tx, "Widget")
	require.NoError(t, err)
	require.NotNil(t, sch)
	assert.Equal(t, result.SchemaVariantIDs[0], sch.DefaultVariantID)

	variant, err := schema.GetVariant(ctx, tx, sch.DefaultVariantID)
	require.NoError(t, err)
	assert.True(t, variant.Finalized)

	// The packaged prop landed with its default.
	color, err := prop.FindByPath(ctx, tx, variant.ID, model.NewPropPath("root", "domain", "color"))
	require.NoError(t, err)
	require.NotNil(t, color)
	defVal, err := attribute.FindValueForContext(ctx, tx, model.AttributeContext{PropID: color.ID}, "")
	require.NoError(t, err)
	doc, err := attribute.Materialize(ctx, tx, defVal)
	require.NoError(t, err)
	assert.JSONEq(t, `"red"`, string(doc))

	// The action function and its prototype came along.
	fn, err := funcs.FindByName(ctx, tx, "widget:create")
	require.NoError(t, err)
	require.NotNil(t, fn)
	protos, err := action.ListForVariantAndKind(ctx, tx, variant.ID, model.ActionKindCreate)
	require.NoError(t, err)
	require.Len(t, protos, 1)
	assert.Equal(t, fn.ID, protos[0].FuncID)

	// Both components restored, one with a component-level write.
	first := componentByName(t, tx, "first")
	second := componentByName(t, tx, "second")
	firstColor, err := attribute.FindValueForContext(ctx, tx,
		model.AttributeContext{PropID: color.ID, ComponentID: first.ID}, "")
	require.NoError(t, err)
	doc, err = attribute.Materialize(ctx, tx, firstColor)
	require.NoError(t, err)
	assert.JSONEq(t, `"blue"`, string(doc))

	pos, err := component.GetPosition(ctx, tx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, "10", pos.X)

	edges, err := component.ListEdges(ctx, tx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, first.ID, edges[0].TailComponentID)
	assert.Equal(t, second.ID, edges[0].HeadComponentID)
	assert.Equal(t, "data", edges[0].TailSocketName)
	assert.Equal(t, "feed", edges[0].HeadSocketName)
}

func TestImportPkg_SchemaOnlyPackage(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	spec := sipkg.PkgSpec{
		Metadata: sipkg.PkgMetadata{Name: "widget-schema", Version: "1.0.0", Kind: sipkg.PkgKindModule},
		Schemas: []sipkg.SchemaSpec{{
			UniqueID: "sch-widget",
			Name:     "Widget",
			Variants: []sipkg.SchemaVariantSpec{{
				UniqueID: "var-widget-1",
				Name:     "v1",
				Domain: &sipkg.PropSpec{
					Name: "domain",
					Kind: "object",
					Children: []sipkg.PropSpec{{
						Name:         "color",
						Kind:         "string",
						DefaultValue: json.RawMessage(`"red"`),
					}},
				},
			}},
		}},
	}

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{})
	result, err := im.ImportPkg(ctx, tx, mustPkg(t, spec))
	require.NoError(t, err)
	require.Len(t, result.SchemaVariantIDs, 1)

	color, err := prop.FindByPath(ctx, tx, result.SchemaVariantIDs[0], model.NewPropPath("root", "domain", "color"))
	require.NoError(t, err)
	require.NotNil(t, color)
	defVal, err := attribute.FindValueForContext(ctx, tx, model.AttributeContext{PropID: color.ID}, "")
	require.NoError(t, err)
	doc, err := attribute.Materialize(ctx, tx, defVal)
	require.NoError(t, err)
	assert.JSONEq(t, `"red"`, string(doc))

	comps, err := component.List(ctx, tx)
	require.NoError(t, err)
	assert.Empty(t, comps)

	sch, err := schema.FindByName(ctx, tx, "Widget")
	require.NoError(t, err)
	require.NotNil(t, sch)
	schemaHash, err := spec.Schemas[0].Hash()
	require.NoError(t, err)
	assets, err := datastore.List[model.InstalledPkgAsset](ctx, tx, datastore.KindInstalledPkgAsset,
		datastore.Eq("kind", string(model.InstalledPkgAssetKindSchema)),
		datastore.Eq("hash", schemaHash))
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, sch.ID, assets[0].AssetID)
}

func TestImportPkg_BuiltinFuncsConvergeByName(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	fnSpec := sipkg.FuncSpec{
		UniqueID:      "fn-1",
		Name:          "widget:create",
		BackendKind:   string(model.FuncBackendKindJsAction),
		ResponseType:  string(model.FuncResponseTypeAction),
		CodeBase64:    "djE=",
		IsFromBuiltin: true,
	}
	first := sipkg.PkgSpec{
		Metadata: sipkg.PkgMetadata{Name: "widget-funcs", Version: "1.0.0", Kind: sipkg.PkgKindModule},
		Funcs:    []sipkg.FuncSpec{fnSpec},
	}

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{})
	_, err := im.ImportPkg(ctx, tx, mustPkg(t, first))
	require.NoError(t, err)

	installed, err := funcs.FindByName(ctx, tx, "widget:create")
	require.NoError(t, err)
	require.NotNil(t, installed)

	// A second package ships the same builtin with new code. The live
	// function is matched by name and kept, never duplicated.
	fnSpec.UniqueID = "fn-2"
	fnSpec.CodeBase64 = "djI="
	fnSpec.DisplayName = "Create Widget"
	second := sipkg.PkgSpec{
		Metadata: sipkg.PkgMetadata{Name: "widget-funcs-v2", Version: "2.0.0", Kind: sipkg.PkgKindModule},
		Funcs:    []sipkg.FuncSpec{fnSpec},
	}
	_, err = im.ImportPkg(ctx, tx, mustPkg(t, second))
	require.NoError(t, err)

	fns, err := datastore.List[model.Func](ctx, tx, datastore.KindFunc, datastore.Eq("name", "widget:create"))
	require.NoError(t, err)
	require.Len(t, fns, 1)
	assert.Equal(t, installed.ID, fns[0].ID)
	assert.Equal(t, "Create Widget", fns[0].DisplayName)
}

func TestImportPkg_SecondInstallFails(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{})
	_, err := im.ImportPkg(ctx, tx, mustPkg(t, widgetSpec()))
	require.NoError(t, err)

	_, err = im.ImportPkg(ctx, tx, mustPkg(t, widgetSpec()))
	var installed *pkgimport.PackageAlreadyInstalledError
	require.ErrorAs(t, err, &installed)
	assert.Equal(t, "widget", installed.Name)
}

func TestImportPkg_SchemaFilter(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	spec := widgetSpec()
	spec.Components = nil
	spec.Edges = nil
	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{
		Schemas: []string{"SomethingElse"},
	})
	result, err := im.ImportPkg(ctx, tx, mustPkg(t, spec))
	require.NoError(t, err)
	assert.Empty(t, result.SchemaVariantIDs)

	sch, err := schema.FindByName(ctx, tx, "Widget")
	require.NoError(t, err)
	assert.Nil(t, sch)
}

func TestImportPkg_CollectsAttributeSkips(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	spec := widgetSpec()
	spec.Edges = nil
	spec.Components = []sipkg.ComponentSpec{{
		UniqueID:    "comp-1",
		Name:        "first",
		SchemaName:  "Widget",
		VariantName: "v1",
		Attributes: []sipkg.AttributeValueSpec{
			{PropPath: "root/domain/removed", Value: json.RawMessage(`"x"`)},
			{PropPath: "root/domain/color", Value: json.RawMessage(`42`)},
		},
	}}

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{})
	result, err := im.ImportPkg(ctx, tx, mustPkg(t, spec))
	require.NoError(t, err)
	require.Len(t, result.Skips.Attributes, 2)
	assert.Equal(t, pkgimport.SkipMissingProp, result.Skips.Attributes[0].Reason)
	assert.Equal(t, pkgimport.SkipKindMismatch, result.Skips.Attributes[1].Reason)

	// The component itself still imported.
	componentByName(t, tx, "first")
}

func TestImportPkg_CollectsEdgeSkips(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	spec := widgetSpec()
	spec.Edges[0].FromSocketName = "gone"

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{})
	result, err := im.ImportPkg(ctx, tx, mustPkg(t, spec))
	require.NoError(t, err)
	require.Len(t, result.Skips.Edges, 1)
	assert.Equal(t, pkgimport.EdgeSkipMissingOutputSocket, result.Skips.Edges[0].Reason)
	assert.Equal(t, "gone", result.Skips.Edges[0].SocketName)

	edges, err := component.ListEdges(ctx, tx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestImportPkg_IntrinsicSpecsRefreshMetadataOnly(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	spec := sipkg.PkgSpec{
		Metadata: sipkg.PkgMetadata{Name: "intrinsics", Version: "1", Kind: sipkg.PkgKindModule},
		Funcs: []sipkg.FuncSpec{{
			UniqueID:    "fn-identity",
			Name:        "si:identity",
			DisplayName: "Identity",
			BackendKind: string(model.FuncBackendKindIdentity),
		}},
	}
	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{})
	_, err := im.ImportPkg(ctx, tx, mustPkg(t, spec))
	require.NoError(t, err)

	fns, err := datastore.List[model.Func](ctx, tx, datastore.KindFunc, datastore.Eq("name", "si:identity"))
	require.NoError(t, err)
	require.Len(t, fns, 1)
	assert.Equal(t, "Identity", fns[0].DisplayName)
}

func TestImportPkg_SkipImportFuncsUseLiveFunction(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	live, err := funcs.New(ctx, tx, model.Func{
		Name:         "widget:createPatched",
		BackendKind:  model.FuncBackendKindJsAction,
		ResponseType: model.FuncResponseTypeAction,
	})
	require.NoError(t, err)

	spec := widgetSpec()
	spec.Components = nil
	spec.Edges = nil
	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{
		SkipImportFuncs: map[string]model.ID{"fn-create": live.ID},
	})
	result, err := im.ImportPkg(ctx, tx, mustPkg(t, spec))
	require.NoError(t, err)
	require.Len(t, result.SchemaVariantIDs, 1)

	// The packaged function body never landed.
	packaged, err := funcs.FindByName(ctx, tx, "widget:create")
	require.NoError(t, err)
	assert.Nil(t, packaged)

	protos, err := action.ListForVariantAndKind(ctx, tx, result.SchemaVariantIDs[0], model.ActionKindCreate)
	require.NoError(t, err)
	require.Len(t, protos, 1)
	assert.Equal(t, live.ID, protos[0].FuncID)
}

func TestImportPkg_WorkspaceBackupImportsOverlays(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	spec := widgetSpec()
	spec.Metadata.Name = "workspace-backup"
	spec.Metadata.Kind = sipkg.PkgKindWorkspaceBackup
	spec.Components = nil
	spec.Edges = nil
	spec.ChangeSets = []sipkg.ChangeSetSpec{{
		Name: "feature-1",
		Components: []sipkg.ComponentSpec{{
			UniqueID:    "comp-draft",
			Name:        "draft",
			SchemaName:  "Widget",
			VariantName: "v1",
		}},
	}}

	rec := &events.Recorder{}
	im := pkgimport.NewImporter(funcs.NopExecutor{}, rec, pkgimport.Options{})
	_, err := im.ImportPkg(ctx, tx, mustPkg(t, spec))
	require.NoError(t, err)

	cs, err := changeset.FindByName(ctx, tx, "feature-1")
	require.NoError(t, err)
	require.NotNil(t, cs)

	// The drafted component lives only inside the overlay.
	headComps, err := component.List(ctx, tx)
	require.NoError(t, err)
	assert.Empty(t, headComps)

	overlay := tx.WithVisibility(model.NewChangeSetVisibility(cs.ID))
	overlayComps, err := component.List(ctx, overlay)
	require.NoError(t, err)
	require.Len(t, overlayComps, 1)
	name, err := component.Name(ctx, overlay, &overlayComps[0])
	require.NoError(t, err)
	assert.Equal(t, "draft", name)

	require.Len(t, rec.Events, 1)
	assert.Equal(t, events.KindChangeSetImported, rec.Events[0].Kind)
	assert.Equal(t, cs.ID, rec.Events[0].ChangeSetID)
}

func TestImportPkg_BuiltinUpgradeCarriesComponents(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{IsBuiltin: true})
	first, err := im.ImportPkg(ctx, tx, mustPkg(t, widgetSpec()))
	require.NoError(t, err)
	oldVariantID := first.SchemaVariantIDs[0]

	upgraded := widgetSpec()
	upgraded.Metadata.Version = "2.0.0"
	upgraded.Metadata.CreatedAt = time.Now().Add(time.Hour)
	upgraded.Schemas[0].Variants[0].Domain.Children = append(
		upgraded.Schemas[0].Variants[0].Domain.Children,
		sipkg.PropSpec{Name: "size", Kind: "integer"},
	)
	upgraded.Components = nil
	upgraded.Edges = nil

	up := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{
		IsBuiltin:            true,
		AllowBuiltinUpgrades: true,
	})
	second, err := up.ImportPkg(ctx, tx, mustPkg(t, upgraded))
	require.NoError(t, err)
	require.Len(t, second.SchemaVariantIDs, 1)
	newVariantID := second.SchemaVariantIDs[0]
	assert.NotEqual(t, oldVariantID, newVariantID)

	// The new shape exists.
	size, err := prop.FindByPath(ctx, tx, newVariantID, model.NewPropPath("root", "domain", "size"))
	require.NoError(t, err)
	require.NotNil(t, size)

	// Live components moved over with their values.
	comps, err := component.ListForVariant(ctx, tx, newVariantID)
	require.NoError(t, err)
	require.Len(t, comps, 2)

	first2 := componentByName(t, tx, "first")
	assert.Equal(t, newVariantID, first2.SchemaVariantID)
	color, err := prop.FindByPath(ctx, tx, newVariantID, model.NewPropPath("root", "domain", "color"))
	require.NoError(t, err)
	cv, err := attribute.FindValueForContext(ctx, tx,
		model.AttributeContext{PropID: color.ID, ComponentID: first2.ID}, "")
	require.NoError(t, err)
	doc, err := attribute.Materialize(ctx, tx, cv)
	require.NoError(t, err)
	assert.JSONEq(t, `"blue"`, string(doc))

	edges, err := component.ListEdges(ctx, tx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, first2.ID, edges[0].TailComponentID)
}

func TestImportPkg_KeyedAttributeEntries(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	spec := widgetSpec()
	spec.Edges = nil
	spec.Schemas[0].Variants[0].Domain.Children = append(spec.Schemas[0].Variants[0].Domain.Children,
		sipkg.PropSpec{Name: "tags", Kind: "map", Entry: &sipkg.PropSpec{Name: "tag", Kind: "string"}})
	spec.Components = []sipkg.ComponentSpec{{
		UniqueID:    "comp-1",
		Name:        "first",
		SchemaName:  "Widget",
		VariantName: "v1",
		Attributes: []sipkg.AttributeValueSpec{{
			PropPath: "root/domain/tags/tag",
			Key:      "env",
			Value:    json.RawMessage(`"prod"`),
		}},
	}}

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{})
	result, err := im.ImportPkg(ctx, tx, mustPkg(t, spec))
	require.NoError(t, err)
	assert.Empty(t, result.Skips.Attributes)

	first := componentByName(t, tx, "first")
	element, err := prop.FindByPath(ctx, tx, result.SchemaVariantIDs[0], model.NewPropPath("root", "domain", "tags", "tag"))
	require.NoError(t, err)
	require.NotNil(t, element)
	entry, err := attribute.FindValueForContext(ctx, tx,
		model.AttributeContext{PropID: element.ID, ComponentID: first.ID}, "env")
	require.NoError(t, err)
	doc, err := attribute.Materialize(ctx, tx, entry)
	require.NoError(t, err)
	assert.JSONEq(t, `"prod"`, string(doc))
}

func TestImportPkg_WorkspaceBackupReusesHeadEdges(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	spec := widgetSpec()
	spec.Metadata.Name = "backup-edges"
	spec.Metadata.Kind = sipkg.PkgKindWorkspaceBackup
	// The overlay repeats the head edge, as backups of open change sets do.
	spec.ChangeSets = []sipkg.ChangeSetSpec{{
		Name:  "feature-1",
		Edges: []sipkg.EdgeSpec{spec.Edges[0]},
	}}

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{})
	_, err := im.ImportPkg(ctx, tx, mustPkg(t, spec))
	require.NoError(t, err)

	headEdges, err := component.ListEdges(ctx, tx)
	require.NoError(t, err)
	require.Len(t, headEdges, 1)

	cs, err := changeset.FindByName(ctx, tx, "feature-1")
	require.NoError(t, err)
	require.NotNil(t, cs)
	overlay := tx.WithVisibility(model.NewChangeSetVisibility(cs.ID))
	overlayEdges, err := component.ListEdges(ctx, overlay)
	require.NoError(t, err)
	require.Len(t, overlayEdges, 1)
	assert.Equal(t, headEdges[0].ID, overlayEdges[0].ID)
}

func TestImportPkg_BuiltinUpgradeKeepsCrossSchemaEdges(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	bridge := sipkg.PkgSpec{
		Metadata: sipkg.PkgMetadata{
			Name:      "bridge",
			Version:   "1.0.0",
			Kind:      sipkg.PkgKindModule,
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Schemas: []sipkg.SchemaSpec{
			{
				UniqueID: "sch-widget",
				Name:     "Widget",
				Variants: []sipkg.SchemaVariantSpec{{
					UniqueID: "var-widget-1",
					Name:     "v1",
					Domain: &sipkg.PropSpec{
						Name:     "domain",
						Kind:     "object",
						Children: []sipkg.PropSpec{{Name: "color", Kind: "string"}},
					},
					Sockets: []sipkg.SocketSpec{{UniqueID: "sock-out", Name: "data", Kind: sipkg.SocketOutput, Arity: "one"}},
				}},
			},
			{
				UniqueID: "sch-gadget",
				Name:     "Gadget",
				Variants: []sipkg.SchemaVariantSpec{{
					UniqueID: "var-gadget-1",
					Name:     "v1",
					Domain: &sipkg.PropSpec{
						Name:     "domain",
						Kind:     "object",
						Children: []sipkg.PropSpec{{Name: "input", Kind: "string"}},
					},
					Sockets: []sipkg.SocketSpec{{UniqueID: "sock-in", Name: "feed", Kind: sipkg.SocketInput, Arity: "one"}},
				}},
			},
		},
		Components: []sipkg.ComponentSpec{
			{UniqueID: "comp-w", Name: "emitter", SchemaName: "Widget", VariantName: "v1"},
			{UniqueID: "comp-g", Name: "receiver", SchemaName: "Gadget", VariantName: "v1"},
		},
		Edges: []sipkg.EdgeSpec{{
			UniqueID:              "edge-1",
			FromComponentUniqueID: "comp-w",
			FromSocketName:        "data",
			ToComponentUniqueID:   "comp-g",
			ToSocketName:          "feed",
		}},
	}

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{IsBuiltin: true})
	_, err := im.ImportPkg(ctx, tx, mustPkg(t, bridge))
	require.NoError(t, err)

	receiver := componentByName(t, tx, "receiver")
	oldEmitterID := componentByName(t, tx, "emitter").ID

	upgraded := bridge
	upgraded.Metadata.Version = "2.0.0"
	upgraded.Metadata.CreatedAt = time.Now().Add(time.Hour)
	upgraded.Schemas[0].Variants[0].Domain.Children = append(
		upgraded.Schemas[0].Variants[0].Domain.Children,
		sipkg.PropSpec{Name: "size", Kind: "integer"},
	)
	upgraded.Components = nil
	upgraded.Edges = nil

	up := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{
		IsBuiltin:            true,
		AllowBuiltinUpgrades: true,
	})
	_, err = up.ImportPkg(ctx, tx, mustPkg(t, upgraded))
	require.NoError(t, err)

	// The edge to the untouched schema's component survived the upgrade,
	// repointed at the rebuilt emitter.
	emitter := componentByName(t, tx, "emitter")
	assert.NotEqual(t, oldEmitterID, emitter.ID)
	edges, err := component.ListEdges(ctx, tx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, emitter.ID, edges[0].TailComponentID)
	assert.Equal(t, receiver.ID, edges[0].HeadComponentID)
}

func TestImportPkg_WithoutUpgradePolicyReusesVariant(t *testing.T) {
	tx := prepareTx(t)
	ctx := context.Background()

	im := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{IsBuiltin: true})
	first, err := im.ImportPkg(ctx, tx, mustPkg(t, widgetSpec()))
	require.NoError(t, err)

	changed := widgetSpec()
	changed.Metadata.Version = "2.0.0"
	changed.Metadata.CreatedAt = time.Now().Add(time.Hour)
	changed.Schemas[0].Variants[0].Domain.Children[0].Name = "shade"
	changed.Components = nil
	changed.Edges = nil

	again := pkgimport.NewImporter(funcs.NopExecutor{}, events.NopPublisher{}, pkgimport.Options{IsBuiltin: true})
	second, err := again.ImportPkg(ctx, tx, mustPkg(t, changed))
	require.NoError(t, err)
	require.Len(t, second.SchemaVariantIDs, 1)
	assert.Equal(t, first.SchemaVariantIDs[0], second.SchemaVariantIDs[0])

	// The diverged prop was not imported.
	shade, err := prop.FindByPath(ctx, tx, first.SchemaVariantIDs[0], model.NewPropPath("root", "domain", "shade"))
	require.NoError(t, err)
	assert.Nil(t, shade)
}
