// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package schema manages schemas and schema variants: prop tree roots,
// sockets, finalization.
package schema

import (
	"context"
	"time"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

// New persists a schema.
func New(ctx context.Context, tx *datastore.Tx, s model.Schema) (*model.Schema, error) {
	if s.ComponentKind == "" {
		s.ComponentKind = model.ComponentKindStandard
	}
	s.ID = model.NewID()
	s.Tenancy = tx.Tenancy()
	s.Timestamp = model.NewTimestamp(time.Now().UTC())
	if err := datastore.Insert(ctx, tx, datastore.KindSchema, s.ID, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get loads a schema by id.
func Get(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.Schema, error) {
	return datastore.Get[model.Schema](ctx, tx, datastore.KindSchema, id)
}

// Update writes a schema back.
func Update(ctx context.Context, tx *datastore.Tx, s *model.Schema) error {
	s.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindSchema, s.ID, s)
}

// Delete removes a schema under the current visibility.
func Delete(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	return datastore.Delete(ctx, tx, datastore.KindSchema, id)
}

// FindByName returns the visible schema with the given name, or nil.
func FindByName(ctx context.Context, tx *datastore.Tx, name string) (*model.Schema, error) {
	ss, err := datastore.List[model.Schema](ctx, tx, datastore.KindSchema, datastore.Eq("name", name))
	if err != nil {
		return nil, err
	}
	if len(ss) == 0 {
		return nil, nil
	}
	return &ss[0], nil
}

// GetVariant loads a schema variant by id.
func GetVariant(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.SchemaVariant, error) {
	return datastore.Get[model.SchemaVariant](ctx, tx, datastore.KindSchemaVariant, id)
}

// UpdateVariant writes a variant back.
func UpdateVariant(ctx context.Context, tx *datastore.Tx, v *model.SchemaVariant) error {
	v.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindSchemaVariant, v.ID, v)
}

// DeleteVariant removes a variant under the current visibility.
func DeleteVariant(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	return datastore.Delete(ctx, tx, datastore.KindSchemaVariant, id)
}

// FindVariantByName returns a schema's variant with the given name, or
// nil.
func FindVariantByName(ctx context.Context, tx *datastore.Tx, schemaID model.ID, name string) (*model.SchemaVariant, error) {
	vs, err := datastore.List[model.SchemaVariant](ctx, tx, datastore.KindSchemaVariant,
		datastore.Eq("schema_id", schemaID.String()),
		datastore.Eq("name", name))
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, nil
	}
	return &vs[0], nil
}

// ListVariants returns a schema's variants.
func ListVariants(ctx context.Context, tx *datastore.Tx, schemaID model.ID) ([]model.SchemaVariant, error) {
	return datastore.List[model.SchemaVariant](ctx, tx, datastore.KindSchemaVariant,
		datastore.Eq("schema_id", schemaID.String()))
}
