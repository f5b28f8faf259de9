// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package schema

import (
	"context"
	"time"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/prop"
)

// NewVariant persists a schema variant together with its fixed root
// prop subtree. Every variant root carries the same eight children;
// package imports only ever add below domain, secrets and
// resource_value.
func NewVariant(ctx context.Context, tx *datastore.Tx, v model.SchemaVariant) (*model.SchemaVariant, error) {
	v.ID = model.NewID()
	v.Tenancy = tx.Tenancy()
	v.Timestamp = model.NewTimestamp(time.Now().UTC())

	root, err := prop.New(ctx, tx, model.Prop{
		SchemaVariantID: v.ID,
		Name:            "root",
		Kind:            model.PropKindObject,
		Hidden:          true,
	})
	if err != nil {
		return nil, err
	}
	v.RootPropID = root.ID

	if err := createSiTree(ctx, tx, v.ID, root.ID); err != nil {
		return nil, err
	}
	for _, name := range []model.RootPropChild{model.RootPropChildDomain, model.RootPropChildSecrets} {
		if _, err := prop.New(ctx, tx, model.Prop{
			SchemaVariantID: v.ID,
			ParentPropID:    root.ID,
			Name:            string(name),
			Kind:            model.PropKindObject,
		}); err != nil {
			return nil, err
		}
	}
	if err := createResourceTree(ctx, tx, v.ID, root.ID); err != nil {
		return nil, err
	}
	if _, err := prop.New(ctx, tx, model.Prop{
		SchemaVariantID: v.ID,
		ParentPropID:    root.ID,
		Name:            string(model.RootPropChildResourceValue),
		Kind:            model.PropKindObject,
		Hidden:          true,
		LooselyTyped:    true,
	}); err != nil {
		return nil, err
	}
	if err := createLeafMap(ctx, tx, v.ID, root.ID, model.RootPropChildCode, []string{"code", "message", "format"}); err != nil {
		return nil, err
	}
	if err := createLeafMap(ctx, tx, v.ID, root.ID, model.RootPropChildQualification, []string{"result", "message"}); err != nil {
		return nil, err
	}
	if _, err := prop.New(ctx, tx, model.Prop{
		SchemaVariantID: v.ID,
		ParentPropID:    root.ID,
		Name:            string(model.RootPropChildDeletedAt),
		Kind:            model.PropKindString,
		Hidden:          true,
	}); err != nil {
		return nil, err
	}

	if err := datastore.Insert(ctx, tx, datastore.KindSchemaVariant, v.ID, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func createSiTree(ctx context.Context, tx *datastore.Tx, variantID, rootID model.ID) error {
	si, err := prop.New(ctx, tx, model.Prop{
		SchemaVariantID: variantID,
		ParentPropID:    rootID,
		Name:            string(model.RootPropChildSi),
		Kind:            model.PropKindObject,
	})
	if err != nil {
		return err
	}
	children := []struct {
		name model.SiPropChild
		kind model.PropKind
	}{
		{model.SiPropChildName, model.PropKindString},
		{model.SiPropChildProtected, model.PropKindBoolean},
		{model.SiPropChildType, model.PropKindString},
		{model.SiPropChildColor, model.PropKindString},
	}
	for _, c := range children {
		if _, err := prop.New(ctx, tx, model.Prop{
			SchemaVariantID: variantID,
			ParentPropID:    si.ID,
			Name:            string(c.name),
			Kind:            c.kind,
		}); err != nil {
			return err
		}
	}
	return nil
}

// createResourceTree builds root/resource. Payload mirrors whatever
// the provider returns, so it is loosely typed.
func createResourceTree(ctx context.Context, tx *datastore.Tx, variantID, rootID model.ID) error {
	res, err := prop.New(ctx, tx, model.Prop{
		SchemaVariantID: variantID,
		ParentPropID:    rootID,
		Name:            string(model.RootPropChildResource),
		Kind:            model.PropKindObject,
		Hidden:          true,
		LooselyTyped:    true,
	})
	if err != nil {
		return err
	}
	leaves := []struct {
		name string
		kind model.PropKind
	}{
		{"status", model.PropKindString},
		{"message", model.PropKindString},
		{"payload", model.PropKindObject},
		{"last_synced", model.PropKindString},
	}
	for _, l := range leaves {
		if _, err := prop.New(ctx, tx, model.Prop{
			SchemaVariantID: variantID,
			ParentPropID:    res.ID,
			Name:            l.name,
			Kind:            l.kind,
			Hidden:          true,
			LooselyTyped:    true,
		}); err != nil {
			return err
		}
	}
	logs, err := prop.New(ctx, tx, model.Prop{
		SchemaVariantID: variantID,
		ParentPropID:    res.ID,
		Name:            "logs",
		Kind:            model.PropKindArray,
		Hidden:          true,
		LooselyTyped:    true,
	})
	if err != nil {
		return err
	}
	_, err = prop.New(ctx, tx, model.Prop{
		SchemaVariantID: variantID,
		ParentPropID:    logs.ID,
		Name:            "log",
		Kind:            model.PropKindString,
		Hidden:          true,
		LooselyTyped:    true,
	})
	return err
}

// createLeafMap builds a hidden map of objects, the shape shared by
// root/code and root/qualification.
func createLeafMap(ctx context.Context, tx *datastore.Tx, variantID, rootID model.ID, name model.RootPropChild, fields []string) error {
	m, err := prop.New(ctx, tx, model.Prop{
		SchemaVariantID: variantID,
		ParentPropID:    rootID,
		Name:            string(name),
		Kind:            model.PropKindMap,
		Hidden:          true,
	})
	if err != nil {
		return err
	}
	item, err := prop.New(ctx, tx, model.Prop{
		SchemaVariantID: variantID,
		ParentPropID:    m.ID,
		Name:            string(name) + "Item",
		Kind:            model.PropKindObject,
		Hidden:          true,
	})
	if err != nil {
		return err
	}
	for _, f := range fields {
		if _, err := prop.New(ctx, tx, model.Prop{
			SchemaVariantID: variantID,
			ParentPropID:    item.ID,
			Name:            f,
			Kind:            model.PropKindString,
			Hidden:          true,
		}); err != nil {
			return err
		}
	}
	return nil
}
