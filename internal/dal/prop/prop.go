// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package prop manages the typed property trees attached to schema
// variants.
package prop

import (
	"context"
	"fmt"
	"time"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

// DuplicatePathError reports a second prop at an existing path within
// one schema variant.
type DuplicatePathError struct {
	SchemaVariantID model.ID
	Path            model.PropPath
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("prop path %q already exists on schema variant %s", e.Path, e.SchemaVariantID)
}

// ChildOfLeafError reports a child attached to a non-container prop.
type ChildOfLeafError struct {
	ParentID   model.ID
	ParentKind model.PropKind
}

func (e *ChildOfLeafError) Error() string {
	return fmt.Sprintf("prop %s of kind %s cannot have children", e.ParentID, e.ParentKind)
}

// New persists a prop. The path is derived from the parent; passing a
// parent of a leaf kind or a duplicate path is an error.
func New(ctx context.Context, tx *datastore.Tx, p model.Prop) (*model.Prop, error) {
	if p.ParentPropID.IsSome() {
		parent, err := Get(ctx, tx, p.ParentPropID)
		if err != nil {
			return nil, err
		}
		if !parent.Kind.IsContainer() {
			return nil, &ChildOfLeafError{ParentID: parent.ID, ParentKind: parent.Kind}
		}
		p.Path = parent.Path.Join(p.Name)
		p.SchemaVariantID = parent.SchemaVariantID
	} else if p.Path == "" {
		p.Path = model.NewPropPath(p.Name)
	}

	existing, err := FindByPath(ctx, tx, p.SchemaVariantID, p.Path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicatePathError{SchemaVariantID: p.SchemaVariantID, Path: p.Path}
	}

	if p.WidgetKind == "" {
		p.WidgetKind = defaultWidget(p.Kind)
	}
	p.ID = model.NewID()
	p.Tenancy = tx.Tenancy()
	p.Timestamp = model.NewTimestamp(time.Now().UTC())
	if err := datastore.Insert(ctx, tx, datastore.KindProp, p.ID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func defaultWidget(kind model.PropKind) string {
	switch kind {
	case model.PropKindArray:
		return "array"
	case model.PropKindBoolean:
		return "checkbox"
	case model.PropKindMap:
		return "map"
	case model.PropKindObject:
		return "header"
	default:
		return "text"
	}
}

// Get loads a prop by id.
func Get(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.Prop, error) {
	return datastore.Get[model.Prop](ctx, tx, datastore.KindProp, id)
}

// Update writes a prop back under the current visibility.
func Update(ctx context.Context, tx *datastore.Tx, p *model.Prop) error {
	p.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindProp, p.ID, p)
}

// Delete removes the prop under the current visibility.
func Delete(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	return datastore.Delete(ctx, tx, datastore.KindProp, id)
}

// FindByPath returns the prop at a path within a variant, or nil.
func FindByPath(ctx context.Context, tx *datastore.Tx, variantID model.ID, path model.PropPath) (*model.Prop, error) {
	props, err := datastore.List[model.Prop](ctx, tx, datastore.KindProp,
		datastore.Eq("schema_variant_id", variantID.String()),
		datastore.Eq("path", string(path)))
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, nil
	}
	return &props[0], nil
}

// Children returns the direct children of a prop in creation order.
func Children(ctx context.Context, tx *datastore.Tx, propID model.ID) ([]model.Prop, error) {
	return datastore.List[model.Prop](ctx, tx, datastore.KindProp,
		datastore.Eq("parent_prop_id", propID.String()))
}

// ListForVariant returns every prop of a variant in creation order,
// which is also parent-before-child order since ids sort.
func ListForVariant(ctx context.Context, tx *datastore.Tx, variantID model.ID) ([]model.Prop, error) {
	return datastore.List[model.Prop](ctx, tx, datastore.KindProp,
		datastore.Eq("schema_variant_id", variantID.String()))
}
