// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package component

import (
	"context"
	"time"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
)

// NewEdge connects an output socket on the tail component to an input
// socket on the head component, materializes the head socket's value
// for the component and propagates downstream.
func NewEdge(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, e model.Edge) (*model.Edge, error) {
	e.ID = model.NewID()
	e.Tenancy = tx.Tenancy()
	e.Timestamp = model.NewTimestamp(time.Now().UTC())
	if err := datastore.Insert(ctx, tx, datastore.KindEdge, e.ID, &e); err != nil {
		return nil, err
	}

	// Edges restored in a deleted state feed nothing.
	if e.DeletedAt == nil {
		if err := materializeHeadSocket(ctx, tx, exec, &e); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// GetEdge loads an edge by id.
func GetEdge(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.Edge, error) {
	return datastore.Get[model.Edge](ctx, tx, datastore.KindEdge, id)
}

// UpdateEdge writes an edge back under the current visibility.
func UpdateEdge(ctx context.Context, tx *datastore.Tx, e *model.Edge) error {
	e.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindEdge, e.ID, e)
}

// ListEdges returns the visible edges of the workspace.
func ListEdges(ctx context.Context, tx *datastore.Tx) ([]model.Edge, error) {
	return datastore.List[model.Edge](ctx, tx, datastore.KindEdge)
}

// materializeHeadSocket gives the head component its own socket value
// row and recomputes it from the new edge set.
func materializeHeadSocket(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, e *model.Edge) error {
	socketCtx := model.AttributeContext{
		InternalProviderID: e.HeadInternalProviderID,
		ComponentID:        e.HeadComponentID,
	}

	v, err := attribute.FindValueForContext(ctx, tx, socketCtx, "")
	if err != nil {
		var nf *attribute.NotFoundForReadContextError
		if !attribute.AsNotFoundForReadContext(err, &nf) {
			return err
		}
		v = nil
	}

	// The source value kicks off propagation through the edge.
	tailCtx := model.AttributeContext{
		ExternalProviderID: e.TailExternalProviderID,
		ComponentID:        e.TailComponentID,
	}
	raw, err := socketSource(ctx, tx, tailCtx)
	if err != nil {
		return err
	}

	if v == nil || v.Context.ComponentID != e.HeadComponentID {
		_, err = attribute.UpdateForContextOrCreate(ctx, tx, exec, socketCtx, raw, "")
		return err
	}
	_, err = attribute.UpdateForContext(ctx, tx, exec, v.ID, socketCtx, raw, "")
	return err
}

func socketSource(ctx context.Context, tx *datastore.Tx, tailCtx model.AttributeContext) ([]byte, error) {
	v, err := attribute.FindValueForContext(ctx, tx, tailCtx, "")
	if err != nil {
		var nf *attribute.NotFoundForReadContextError
		if attribute.AsNotFoundForReadContext(err, &nf) {
			return []byte("null"), nil
		}
		return nil, err
	}
	return attribute.Materialize(ctx, tx, v)
}
