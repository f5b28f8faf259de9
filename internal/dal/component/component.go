// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package component manages schema variant instances: their attribute
// values, rendered views, resource state and edges.
package component

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/schema"
)

// VariantNotFinalizedError reports an instantiation of a variant that
// never had Finalize run.
type VariantNotFinalizedError struct {
	SchemaVariantID model.ID
}

func (e *VariantNotFinalizedError) Error() string {
	return fmt.Sprintf("schema variant %s is not finalized", e.SchemaVariantID)
}

// New instantiates a component from a finalized variant and writes its
// name into root/si/name.
func New(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, name string, variantID model.ID) (*model.Component, error) {
	variant, err := schema.GetVariant(ctx, tx, variantID)
	if err != nil {
		return nil, err
	}
	if !variant.Finalized {
		return nil, &VariantNotFinalizedError{SchemaVariantID: variantID}
	}

	c := model.Component{
		ID:              model.NewID(),
		Tenancy:         tx.Tenancy(),
		Timestamp:       model.NewTimestamp(time.Now().UTC()),
		SchemaID:        variant.SchemaID,
		SchemaVariantID: variant.ID,
	}
	if err := datastore.Insert(ctx, tx, datastore.KindComponent, c.ID, &c); err != nil {
		return nil, err
	}

	if name != "" {
		if err := SetName(ctx, tx, exec, &c, name); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Get loads a component by id.
func Get(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.Component, error) {
	return datastore.Get[model.Component](ctx, tx, datastore.KindComponent, id)
}

// Update writes a component back under the current visibility.
func Update(ctx context.Context, tx *datastore.Tx, c *model.Component) error {
	c.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindComponent, c.ID, c)
}

// Delete removes a component and any edge touching it under the
// current visibility.
func Delete(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	// Edges cannot outlive either endpoint.
	edges, err := ListEdges(ctx, tx)
	if err != nil {
		return err
	}
	for i := range edges {
		if edges[i].TailComponentID != id && edges[i].HeadComponentID != id {
			continue
		}
		if err := datastore.Delete(ctx, tx, datastore.KindEdge, edges[i].ID); err != nil {
			return err
		}
	}
	return datastore.Delete(ctx, tx, datastore.KindComponent, id)
}

// List returns the visible components of the workspace.
func List(ctx context.Context, tx *datastore.Tx) ([]model.Component, error) {
	return datastore.List[model.Component](ctx, tx, datastore.KindComponent)
}

// ListForVariant returns the visible components built from a variant.
func ListForVariant(ctx context.Context, tx *datastore.Tx, variantID model.ID) ([]model.Component, error) {
	return datastore.List[model.Component](ctx, tx, datastore.KindComponent,
		datastore.Eq("schema_variant_id", variantID.String()))
}

// SetName writes root/si/name for the component.
func SetName(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, c *model.Component, name string) error {
	return writeProp(ctx, tx, exec, c, model.SiPropChildName.Path(), quote(name))
}

// Name reads root/si/name for the component.
func Name(ctx context.Context, tx *datastore.Tx, c *model.Component) (string, error) {
	raw, err := readProp(ctx, tx, c, model.SiPropChildName.Path())
	if err != nil {
		return "", err
	}
	return unquote(raw), nil
}

// SetNeedsDestroy flags or clears the destroy marker.
func SetNeedsDestroy(ctx context.Context, tx *datastore.Tx, c *model.Component, needsDestroy bool) error {
	if c.NeedsDestroy == needsDestroy {
		return nil
	}
	c.NeedsDestroy = needsDestroy
	return Update(ctx, tx, c)
}

// SetPosition stores diagram placement for the component.
func SetPosition(ctx context.Context, tx *datastore.Tx, componentID model.ID, pos model.ComponentPosition) error {
	return datastore.Update(ctx, tx, datastore.KindComponentPosition, componentID, &pos)
}

// GetPosition returns diagram placement, or nil when never placed.
func GetPosition(ctx context.Context, tx *datastore.Tx, componentID model.ID) (*model.ComponentPosition, error) {
	pos, err := datastore.Get[model.ComponentPosition](ctx, tx, datastore.KindComponentPosition, componentID)
	if err != nil {
		var nf *datastore.NotFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return pos, nil
}
