// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pkgimport

import (
	"context"
	"log/slog"
	"time"

	"github.com/rigzba21/si/internal/dal/changeset"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/events"
	"github.com/rigzba21/si/pkg/sipkg"
)

// Options tune one import run.
type Options struct {
	// Schemas restricts the run to the named schemas. Empty imports
	// everything.
	Schemas []string
	// SkipImportFuncs maps package-local func unique ids to live
	// functions that should be used as-is instead of imported.
	SkipImportFuncs map[string]model.ID
	// NoRecord suppresses the installed-package ledger rows.
	NoRecord bool
	// IsBuiltin marks imported schemas and funcs as builtin.
	IsBuiltin bool
	// AllowBuiltinUpgrades lets a newer package replace an installed
	// builtin schema variant, exporting and re-importing its live
	// components. Policy sits with the caller, not the engine.
	AllowBuiltinUpgrades bool
}

// Importer drives package imports. One Importer can run many imports.
type Importer struct {
	exec funcs.Executor
	pub  events.Publisher
	opts Options
}

func NewImporter(exec funcs.Executor, pub events.Publisher, opts Options) *Importer {
	if exec == nil {
		exec = funcs.NopExecutor{}
	}
	return &Importer{exec: exec, pub: pub, opts: opts}
}

// importState is the bookkeeping threaded through one run. The thing
// map spans every overlay the run touches.
type importState struct {
	pkg            *sipkg.Pkg
	installedPkgID model.ID
	thingMap       *ThingMap
	result         *Result
}

// ImportPkg reconciles a package into the workspace under the
// transaction's visibility. Module packages import once; workspace
// backups import head content first and then each named overlay
// through a fresh change set. The returned result lists the variants
// touched and everything skipped; the transaction boundary makes the
// run all-or-nothing beyond those skips.
func (im *Importer) ImportPkg(ctx context.Context, tx *datastore.Tx, pkg *sipkg.Pkg) (*Result, error) {
	st := &importState{
		pkg:      pkg,
		thingMap: NewThingMap(),
		result:   &Result{},
	}

	installed, err := datastore.List[model.InstalledPkg](ctx, tx, datastore.KindInstalledPkg,
		datastore.Eq("root_hash", pkg.Hash()))
	if err != nil {
		return nil, err
	}
	if len(installed) > 0 {
		return nil, &PackageAlreadyInstalledError{Name: pkg.Metadata().Name, Hash: pkg.Hash()}
	}

	if !im.opts.NoRecord {
		rec := model.InstalledPkg{
			ID:        model.NewID(),
			Tenancy:   tx.Tenancy(),
			Timestamp: model.NewTimestamp(time.Now().UTC()),
			Name:      pkg.Metadata().Name,
			RootHash:  pkg.Hash(),
		}
		if err := datastore.Insert(ctx, tx, datastore.KindInstalledPkg, rec.ID, &rec); err != nil {
			return nil, err
		}
		st.installedPkgID = rec.ID
	}

	spec := pkg.Spec()
	if err := im.importContent(ctx, tx, st, spec.Funcs, spec.Schemas, spec.Components, spec.Edges); err != nil {
		return nil, err
	}

	if pkg.IsWorkspaceBackup() {
		for _, csSpec := range pkg.ChangeSets() {
			cs, err := changeset.New(ctx, tx, csSpec.Name)
			if err != nil {
				return nil, err
			}
			overlay := tx.WithVisibility(model.NewChangeSetVisibility(cs.ID))
			if err := im.importContent(ctx, overlay, st, csSpec.Funcs, csSpec.Schemas, csSpec.Components, csSpec.Edges); err != nil {
				return nil, err
			}
			events.Publish(ctx, im.pub, events.KindChangeSetImported, tx.Tenancy(), overlay.Visibility(), map[string]string{"name": csSpec.Name})
		}
	}

	return st.result, nil
}

// importContent runs the fixed stage order for one visibility: funcs,
// then schemas, then components, then edges. Later stages assume the
// earlier ones resolved their references.
func (im *Importer) importContent(ctx context.Context, tx *datastore.Tx, st *importState, fnSpecs []sipkg.FuncSpec, schemaSpecs []sipkg.SchemaSpec, componentSpecs []sipkg.ComponentSpec, edgeSpecs []sipkg.EdgeSpec) error {
	for _, fs := range fnSpecs {
		if _, err := im.importFunc(ctx, tx, st, fs); err != nil {
			return err
		}
	}

	for _, ss := range schemaSpecs {
		if !im.wantsSchema(ss.Name) {
			continue
		}
		if err := im.importSchema(ctx, tx, st, ss); err != nil {
			return err
		}
	}

	for _, cs := range componentSpecs {
		if err := im.importComponent(ctx, tx, st, cs); err != nil {
			return err
		}
	}

	for _, es := range edgeSpecs {
		if err := im.importEdge(ctx, tx, st, es); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) wantsSchema(name string) bool {
	if len(im.opts.Schemas) == 0 {
		return true
	}
	for _, s := range im.opts.Schemas {
		if s == name {
			return true
		}
	}
	return false
}

// ledgerLookup resolves a content hash through the installed-asset
// ledger, the first tier of reference resolution.
func ledgerLookup(ctx context.Context, tx *datastore.Tx, kind model.InstalledPkgAssetKind, hash string) (model.ID, bool, error) {
	assets, err := datastore.List[model.InstalledPkgAsset](ctx, tx, datastore.KindInstalledPkgAsset,
		datastore.Eq("kind", string(kind)),
		datastore.Eq("hash", hash))
	if err != nil {
		return model.IDNone, false, err
	}
	if len(assets) == 0 {
		return model.IDNone, false, nil
	}
	return assets[0].AssetID, true, nil
}

// recordAsset writes a hash ledger row unless the run is NoRecord.
func (im *Importer) recordAsset(ctx context.Context, tx *datastore.Tx, st *importState, kind model.InstalledPkgAssetKind, hash string, assetID model.ID) error {
	if im.opts.NoRecord || st.installedPkgID.IsNone() {
		return nil
	}
	asset := model.InstalledPkgAsset{
		ID:             model.NewID(),
		Tenancy:        tx.Tenancy(),
		Timestamp:      model.NewTimestamp(time.Now().UTC()),
		InstalledPkgID: st.installedPkgID,
		Kind:           kind,
		Hash:           hash,
		AssetID:        assetID,
	}
	if err := datastore.Insert(ctx, tx, datastore.KindInstalledPkgAsset, asset.ID, &asset); err != nil {
		return err
	}
	slog.Debug("recorded installed asset", "kind", kind, "hash", hash, "asset", assetID)
	return nil
}
