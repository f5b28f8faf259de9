// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pkgimport

import (
	"context"
	"strings"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/pkg/sipkg"
)

// importFunc resolves a function spec: deleted specs remove the live
// function, intrinsics and builtins match by name and only refresh
// metadata, everything else goes hash ledger, then thing map, then
// create.
func (im *Importer) importFunc(ctx context.Context, tx *datastore.Tx, st *importState, spec sipkg.FuncSpec) (*model.Func, error) {
	changeSetID := tx.Visibility().ChangeSetID

	if spec.Deleted {
		return nil, im.deleteFunc(ctx, tx, st, spec)
	}

	if liveID, ok := im.opts.SkipImportFuncs[spec.UniqueID]; ok {
		fn, err := funcs.Get(ctx, tx, liveID)
		if err != nil {
			return nil, err
		}
		st.thingMap.Insert(changeSetID, spec.UniqueID, Thing{Func: fn})
		return fn, nil
	}

	// Intrinsics and builtins already exist; a package only carries
	// fresher metadata for them, never replacement code.
	if isIntrinsicName(spec.Name) || spec.IsFromBuiltin {
		existing, err := funcs.FindByName(ctx, tx, spec.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if refreshFuncMetadata(existing, spec) {
				if err := funcs.Update(ctx, tx, existing); err != nil {
					return nil, err
				}
			}
			st.thingMap.Insert(changeSetID, spec.UniqueID, Thing{Func: existing})
			hash, err := spec.Hash()
			if err != nil {
				return nil, err
			}
			if err := im.recordAsset(ctx, tx, st, model.InstalledPkgAssetKindFunc, hash, existing.ID); err != nil {
				return nil, err
			}
			return existing, nil
		}
	}

	hash, err := spec.Hash()
	if err != nil {
		return nil, err
	}
	if id, found, err := ledgerLookup(ctx, tx, model.InstalledPkgAssetKindFunc, hash); err != nil {
		return nil, err
	} else if found {
		fn, err := funcs.Get(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		st.thingMap.Insert(changeSetID, spec.UniqueID, Thing{Func: fn})
		if err := im.recordAsset(ctx, tx, st, model.InstalledPkgAssetKindFunc, hash, fn.ID); err != nil {
			return nil, err
		}
		return fn, nil
	}

	if existing := st.thingMap.GetFunc(changeSetID, spec.UniqueID); existing != nil {
		return existing, nil
	}

	fn, err := funcs.New(ctx, tx, model.Func{
		Name:         spec.Name,
		DisplayName:  spec.DisplayName,
		Description:  spec.Description,
		Link:         spec.Link,
		Hidden:       spec.Hidden,
		Builtin:      im.opts.IsBuiltin,
		BackendKind:  model.FuncBackendKind(spec.BackendKind),
		ResponseType: model.FuncBackendResponseType(spec.ResponseType),
		Handler:      spec.Handler,
		CodeBase64:   spec.CodeBase64,
	})
	if err != nil {
		return nil, err
	}
	st.thingMap.Insert(changeSetID, spec.UniqueID, Thing{Func: fn})

	if err := im.importFuncArguments(ctx, tx, st, fn, spec.Arguments); err != nil {
		return nil, err
	}
	if err := im.recordAsset(ctx, tx, st, model.InstalledPkgAssetKindFunc, hash, fn.ID); err != nil {
		return nil, err
	}
	return fn, nil
}

// importFuncArguments reconciles declared arguments by name: update in
// place, create the missing, delete the flagged.
func (im *Importer) importFuncArguments(ctx context.Context, tx *datastore.Tx, st *importState, fn *model.Func, specs []sipkg.FuncArgumentSpec) error {
	changeSetID := tx.Visibility().ChangeSetID

	for _, as := range specs {
		existing, err := funcs.FindArgument(ctx, tx, fn.ID, as.Name)
		if err != nil {
			return err
		}

		if as.Deleted {
			if existing != nil {
				if err := funcs.DeleteArgument(ctx, tx, existing.ID); err != nil {
					return err
				}
			}
			continue
		}

		if existing != nil {
			if existing.Kind != model.FuncArgumentKind(as.Kind) ||
				existing.ElementKind != model.FuncArgumentKind(as.ElementKind) {
				existing.Kind = model.FuncArgumentKind(as.Kind)
				existing.ElementKind = model.FuncArgumentKind(as.ElementKind)
				if err := funcs.UpdateArgument(ctx, tx, existing); err != nil {
					return err
				}
			}
			st.thingMap.Insert(changeSetID, as.UniqueID, Thing{FuncArgument: existing})
			continue
		}

		arg, err := funcs.NewArgument(ctx, tx, model.FuncArgument{
			FuncID:      fn.ID,
			Name:        as.Name,
			Kind:        model.FuncArgumentKind(as.Kind),
			ElementKind: model.FuncArgumentKind(as.ElementKind),
		})
		if err != nil {
			return err
		}
		st.thingMap.Insert(changeSetID, as.UniqueID, Thing{FuncArgument: arg})
	}
	return nil
}

// deleteFunc removes the live function a deleted spec points at, when
// it resolves at all.
func (im *Importer) deleteFunc(ctx context.Context, tx *datastore.Tx, st *importState, spec sipkg.FuncSpec) error {
	changeSetID := tx.Visibility().ChangeSetID

	var fn *model.Func
	if existing := st.thingMap.GetFunc(changeSetID, spec.UniqueID); existing != nil {
		fn = existing
	} else {
		hash, err := spec.Hash()
		if err != nil {
			return err
		}
		if id, found, err := ledgerLookup(ctx, tx, model.InstalledPkgAssetKindFunc, hash); err != nil {
			return err
		} else if found {
			fn, err = funcs.Get(ctx, tx, id)
			if err != nil {
				return err
			}
		}
	}
	if fn == nil {
		return nil
	}

	args, err := funcs.ListArguments(ctx, tx, fn.ID)
	if err != nil {
		return err
	}
	for _, a := range args {
		if err := funcs.DeleteArgument(ctx, tx, a.ID); err != nil {
			return err
		}
	}
	return funcs.Delete(ctx, tx, fn.ID)
}

// resolveFunc looks up a function reference from a variant or
// component spec: skip overrides, then the thing map, then live
// functions by name.
func (im *Importer) resolveFunc(ctx context.Context, tx *datastore.Tx, st *importState, uniqueID, where string) (*model.Func, error) {
	changeSetID := tx.Visibility().ChangeSetID

	if liveID, ok := im.opts.SkipImportFuncs[uniqueID]; ok {
		return funcs.Get(ctx, tx, liveID)
	}
	if fn := st.thingMap.GetFunc(changeSetID, uniqueID); fn != nil {
		return fn, nil
	}
	if changeSetID != model.IDNone {
		if fn := st.thingMap.GetFunc(model.IDNone, uniqueID); fn != nil {
			return fn, nil
		}
	}
	// Intrinsics are referenced by their well-known names without a
	// shipped spec, and exported components reference live functions
	// by name.
	fn, err := funcs.FindByName(ctx, tx, uniqueID)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn, nil
	}
	return nil, &MissingFuncReferenceError{UniqueID: uniqueID, Where: where}
}

func refreshFuncMetadata(fn *model.Func, spec sipkg.FuncSpec) bool {
	changed := false
	if spec.DisplayName != "" && fn.DisplayName != spec.DisplayName {
		fn.DisplayName = spec.DisplayName
		changed = true
	}
	if spec.Description != "" && fn.Description != spec.Description {
		fn.Description = spec.Description
		changed = true
	}
	if spec.Link != "" && fn.Link != spec.Link {
		fn.Link = spec.Link
		changed = true
	}
	if fn.Hidden != spec.Hidden {
		fn.Hidden = spec.Hidden
		changed = true
	}
	return changed
}

func isIntrinsicName(name string) bool {
	return strings.HasPrefix(name, "si:")
}
