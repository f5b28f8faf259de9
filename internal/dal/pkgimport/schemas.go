// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pkgimport

import (
	"context"
	"log/slog"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/component"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/prop"
	"github.com/rigzba21/si/internal/dal/schema"
	"github.com/rigzba21/si/pkg/sipkg"
)

// importSchema resolves a schema spec and imports each of its
// variants.
func (im *Importer) importSchema(ctx context.Context, tx *datastore.Tx, st *importState, spec sipkg.SchemaSpec) error {
	changeSetID := tx.Visibility().ChangeSetID

	if spec.Deleted {
		return im.deleteSchema(ctx, tx, spec)
	}

	hash, err := spec.Hash()
	if err != nil {
		return err
	}

	var sch *model.Schema
	if id, found, err := ledgerLookup(ctx, tx, model.InstalledPkgAssetKindSchema, hash); err != nil {
		return err
	} else if found {
		sch, err = schema.Get(ctx, tx, id)
		if err != nil {
			return err
		}
	}
	if sch == nil {
		if t, ok := st.thingMap.Get(changeSetID, spec.UniqueID); ok && t.Schema != nil {
			sch = t.Schema
		}
	}
	if sch == nil {
		existing, err := schema.FindByName(ctx, tx, spec.Name)
		if err != nil {
			return err
		}
		sch = existing
	}
	if sch == nil {
		sch, err = schema.New(ctx, tx, model.Schema{
			Name:          spec.Name,
			ComponentKind: model.ComponentKind(spec.ComponentKind),
			UIHidden:      spec.UIHidden,
			IsBuiltin:     im.opts.IsBuiltin || spec.IsBuiltin,
		})
		if err != nil {
			return err
		}
	}
	st.thingMap.Insert(changeSetID, spec.UniqueID, Thing{Schema: sch})
	if err := im.recordAsset(ctx, tx, st, model.InstalledPkgAssetKindSchema, hash, sch.ID); err != nil {
		return err
	}

	for _, vs := range spec.Variants {
		if vs.Deleted {
			if err := im.deleteVariantByName(ctx, tx, sch, vs.Name); err != nil {
				return err
			}
			continue
		}
		variantID, err := im.importSchemaVariant(ctx, tx, st, sch, vs)
		if err != nil {
			return err
		}
		st.result.SchemaVariantIDs = append(st.result.SchemaVariantIDs, variantID)

		if sch.DefaultVariantID.IsNone() {
			sch.DefaultVariantID = variantID
			if err := schema.Update(ctx, tx, sch); err != nil {
				return err
			}
		}
	}
	return nil
}

// importSchemaVariant runs the three-tier lookup for one variant and
// builds it when nothing matches. An installed builtin variant whose
// content changed goes down the upgrade path when policy allows.
func (im *Importer) importSchemaVariant(ctx context.Context, tx *datastore.Tx, st *importState, sch *model.Schema, vs sipkg.SchemaVariantSpec) (model.ID, error) {
	changeSetID := tx.Visibility().ChangeSetID

	hash, err := vs.Hash()
	if err != nil {
		return model.IDNone, err
	}
	if id, found, err := ledgerLookup(ctx, tx, model.InstalledPkgAssetKindSchemaVariant, hash); err != nil {
		return model.IDNone, err
	} else if found {
		v, err := schema.GetVariant(ctx, tx, id)
		if err != nil {
			return model.IDNone, err
		}
		st.thingMap.Insert(changeSetID, vs.UniqueID, Thing{SchemaVariant: v})
		return v.ID, nil
	}

	if v := st.thingMap.GetSchemaVariant(changeSetID, vs.UniqueID); v != nil {
		return v.ID, nil
	}

	existing, err := schema.FindVariantByName(ctx, tx, sch.ID, vs.Name)
	if err != nil {
		return model.IDNone, err
	}
	if existing != nil {
		upgrade, err := im.shouldUpgrade(ctx, tx, st, sch, existing)
		if err != nil {
			return model.IDNone, err
		}
		if !upgrade {
			st.thingMap.Insert(changeSetID, vs.UniqueID, Thing{SchemaVariant: existing})
			if err := im.recordAsset(ctx, tx, st, model.InstalledPkgAssetKindSchemaVariant, hash, existing.ID); err != nil {
				return model.IDNone, err
			}
			return existing.ID, nil
		}
		return im.upgradeVariant(ctx, tx, st, sch, existing, vs)
	}

	v, err := im.buildVariant(ctx, tx, st, sch, vs)
	if err != nil {
		return model.IDNone, err
	}
	st.thingMap.Insert(changeSetID, vs.UniqueID, Thing{SchemaVariant: v})
	if err := im.recordAsset(ctx, tx, st, model.InstalledPkgAssetKindSchemaVariant, hash, v.ID); err != nil {
		return model.IDNone, err
	}
	return v.ID, nil
}

// shouldUpgrade decides whether an existing variant gives way to the
// package's version: only for builtins, only when policy allows, and
// only when this package is newer than the one that installed the
// variant.
func (im *Importer) shouldUpgrade(ctx context.Context, tx *datastore.Tx, st *importState, sch *model.Schema, existing *model.SchemaVariant) (bool, error) {
	if !im.opts.AllowBuiltinUpgrades || !sch.IsBuiltin {
		return false, nil
	}

	assets, err := datastore.List[model.InstalledPkgAsset](ctx, tx, datastore.KindInstalledPkgAsset,
		datastore.Eq("kind", string(model.InstalledPkgAssetKindSchemaVariant)),
		datastore.Eq("asset_id", existing.ID.String()))
	if err != nil {
		return false, err
	}
	if len(assets) == 0 {
		return true, nil
	}
	installer, err := datastore.Get[model.InstalledPkg](ctx, tx, datastore.KindInstalledPkg, assets[0].InstalledPkgID)
	if err != nil {
		var nf *datastore.NotFoundError
		if errorsAs(err, &nf) {
			return true, nil
		}
		return false, err
	}
	return st.pkg.Metadata().CreatedAt.After(installer.Timestamp.CreatedAt), nil
}

// upgradeVariant swaps an installed builtin variant for the package's
// version: live components and their edges are exported, the old
// variant and schema are deleted, the schema and variant import fresh,
// and the captured components and edges re-import against the new
// variant.
func (im *Importer) upgradeVariant(ctx context.Context, tx *datastore.Tx, st *importState, sch *model.Schema, old *model.SchemaVariant, vs sipkg.SchemaVariantSpec) (model.ID, error) {
	slog.Info("upgrading builtin schema variant", "schema", sch.Name, "variant", old.Name)

	componentSpecs, edgeSpecs, err := ExportVariantComponents(ctx, tx, sch, old)
	if err != nil {
		return model.IDNone, err
	}

	comps, err := component.ListForVariant(ctx, tx, old.ID)
	if err != nil {
		return model.IDNone, err
	}
	for _, c := range comps {
		if err := component.Delete(ctx, tx, c.ID); err != nil {
			return model.IDNone, err
		}
	}
	if err := im.deleteVariant(ctx, tx, old); err != nil {
		return model.IDNone, err
	}
	if err := schema.Delete(ctx, tx, sch.ID); err != nil {
		return model.IDNone, err
	}

	fresh, err := schema.New(ctx, tx, model.Schema{
		Name:          sch.Name,
		ComponentKind: sch.ComponentKind,
		UIHidden:      sch.UIHidden,
		IsBuiltin:     true,
	})
	if err != nil {
		return model.IDNone, err
	}
	st.thingMap.Insert(tx.Visibility().ChangeSetID, vs.UniqueID+":schema", Thing{Schema: fresh})

	v, err := im.buildVariant(ctx, tx, st, fresh, vs)
	if err != nil {
		return model.IDNone, err
	}
	fresh.DefaultVariantID = v.ID
	if err := schema.Update(ctx, tx, fresh); err != nil {
		return model.IDNone, err
	}

	hash, err := vs.Hash()
	if err != nil {
		return model.IDNone, err
	}
	st.thingMap.Insert(tx.Visibility().ChangeSetID, vs.UniqueID, Thing{SchemaVariant: v})
	if err := im.recordAsset(ctx, tx, st, model.InstalledPkgAssetKindSchemaVariant, hash, v.ID); err != nil {
		return model.IDNone, err
	}

	for _, cspec := range componentSpecs {
		// The fresh variant may carry a new name.
		cspec.VariantName = v.Name
		if err := im.importComponent(ctx, tx, st, cspec); err != nil {
			return model.IDNone, err
		}
	}
	for _, espec := range edgeSpecs {
		if err := im.importEdge(ctx, tx, st, espec); err != nil {
			return model.IDNone, err
		}
	}
	return v.ID, nil
}

// deleteVariant removes a variant and its attached graph pieces under
// the current visibility.
func (im *Importer) deleteVariant(ctx context.Context, tx *datastore.Tx, v *model.SchemaVariant) error {
	props, err := prop.ListForVariant(ctx, tx, v.ID)
	if err != nil {
		return err
	}
	for _, p := range props {
		if err := prop.Delete(ctx, tx, p.ID); err != nil {
			return err
		}
	}
	internals, err := attribute.ListInternalProviders(ctx, tx, v.ID)
	if err != nil {
		return err
	}
	for _, p := range internals {
		if err := datastore.Delete(ctx, tx, datastore.KindInternalProvider, p.ID); err != nil {
			return err
		}
	}
	externals, err := attribute.ListExternalProviders(ctx, tx, v.ID)
	if err != nil {
		return err
	}
	for _, p := range externals {
		if err := datastore.Delete(ctx, tx, datastore.KindExternalProvider, p.ID); err != nil {
			return err
		}
	}
	return schema.DeleteVariant(ctx, tx, v.ID)
}

func (im *Importer) deleteVariantByName(ctx context.Context, tx *datastore.Tx, sch *model.Schema, name string) error {
	v, err := schema.FindVariantByName(ctx, tx, sch.ID, name)
	if err != nil || v == nil {
		return err
	}
	return im.deleteVariant(ctx, tx, v)
}

func (im *Importer) deleteSchema(ctx context.Context, tx *datastore.Tx, spec sipkg.SchemaSpec) error {
	sch, err := schema.FindByName(ctx, tx, spec.Name)
	if err != nil || sch == nil {
		return err
	}
	variants, err := schema.ListVariants(ctx, tx, sch.ID)
	if err != nil {
		return err
	}
	for i := range variants {
		if err := im.deleteVariant(ctx, tx, &variants[i]); err != nil {
			return err
		}
	}
	return schema.Delete(ctx, tx, sch.ID)
}
