// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package action manages action prototypes and runs them against the
// real world.
package action

import (
	"context"
	"time"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

// NewPrototype attaches an action function to a schema variant. Create,
// delete and refresh prototypes are unique per variant.
func NewPrototype(ctx context.Context, tx *datastore.Tx, p model.ActionPrototype) (*model.ActionPrototype, error) {
	if err := checkKindUnique(ctx, tx, p.SchemaVariantID, p.Kind, model.IDNone); err != nil {
		return nil, err
	}
	p.ID = model.NewID()
	p.Tenancy = tx.Tenancy()
	p.Timestamp = model.NewTimestamp(time.Now().UTC())
	if err := datastore.Insert(ctx, tx, datastore.KindActionPrototype, p.ID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPrototype loads an action prototype by id.
func GetPrototype(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.ActionPrototype, error) {
	return datastore.Get[model.ActionPrototype](ctx, tx, datastore.KindActionPrototype, id)
}

// UpdatePrototype writes a prototype back.
func UpdatePrototype(ctx context.Context, tx *datastore.Tx, p *model.ActionPrototype) error {
	p.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindActionPrototype, p.ID, p)
}

// DeletePrototype removes a prototype under the current visibility.
func DeletePrototype(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	return datastore.Delete(ctx, tx, datastore.KindActionPrototype, id)
}

// SetKind changes a prototype's kind, holding the uniqueness rule.
func SetKind(ctx context.Context, tx *datastore.Tx, p *model.ActionPrototype, kind model.ActionKind) error {
	if p.Kind == kind {
		return nil
	}
	if err := checkKindUnique(ctx, tx, p.SchemaVariantID, kind, p.ID); err != nil {
		return err
	}
	p.Kind = kind
	return UpdatePrototype(ctx, tx, p)
}

func checkKindUnique(ctx context.Context, tx *datastore.Tx, variantID model.ID, kind model.ActionKind, selfID model.ID) error {
	if !kind.Unique() {
		return nil
	}
	existing, err := ListForVariantAndKind(ctx, tx, variantID, kind)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ID != selfID {
			return &MultipleOfSameKindError{SchemaVariantID: variantID, Kind: kind}
		}
	}
	return nil
}

// ListForVariant returns a variant's action prototypes.
func ListForVariant(ctx context.Context, tx *datastore.Tx, variantID model.ID) ([]model.ActionPrototype, error) {
	return datastore.List[model.ActionPrototype](ctx, tx, datastore.KindActionPrototype,
		datastore.Eq("schema_variant_id", variantID.String()))
}

// ListForVariantAndKind returns a variant's prototypes of one kind.
func ListForVariantAndKind(ctx context.Context, tx *datastore.Tx, variantID model.ID, kind model.ActionKind) ([]model.ActionPrototype, error) {
	return datastore.List[model.ActionPrototype](ctx, tx, datastore.KindActionPrototype,
		datastore.Eq("schema_variant_id", variantID.String()),
		datastore.Eq("kind", string(kind)))
}

// FindForVariantAndFunc returns the prototype binding a function to a
// variant, or nil.
func FindForVariantAndFunc(ctx context.Context, tx *datastore.Tx, variantID, funcID model.ID) (*model.ActionPrototype, error) {
	ps, err := datastore.List[model.ActionPrototype](ctx, tx, datastore.KindActionPrototype,
		datastore.Eq("schema_variant_id", variantID.String()),
		datastore.Eq("func_id", funcID.String()))
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

// NewAuthPrototype attaches an authentication function to a variant.
func NewAuthPrototype(ctx context.Context, tx *datastore.Tx, p model.AuthPrototype) (*model.AuthPrototype, error) {
	p.ID = model.NewID()
	p.Tenancy = tx.Tenancy()
	p.Timestamp = model.NewTimestamp(time.Now().UTC())
	if err := datastore.Insert(ctx, tx, datastore.KindAuthPrototype, p.ID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAuthPrototypes returns a variant's auth prototypes in creation
// order, which is also their execution order.
func ListAuthPrototypes(ctx context.Context, tx *datastore.Tx, variantID model.ID) ([]model.AuthPrototype, error) {
	return datastore.List[model.AuthPrototype](ctx, tx, datastore.KindAuthPrototype,
		datastore.Eq("schema_variant_id", variantID.String()))
}

// FindAuthPrototypeForFunc returns the auth binding for a function on
// a variant, or nil.
func FindAuthPrototypeForFunc(ctx context.Context, tx *datastore.Tx, variantID, funcID model.ID) (*model.AuthPrototype, error) {
	ps, err := datastore.List[model.AuthPrototype](ctx, tx, datastore.KindAuthPrototype,
		datastore.Eq("schema_variant_id", variantID.String()),
		datastore.Eq("func_id", funcID.String()))
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}
