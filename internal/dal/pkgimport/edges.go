// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pkgimport

import (
	"context"
	"time"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/component"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/pkg/sipkg"
)

// importEdge restores one packaged connection. An edge the run already
// produced is reused by unique id; endpoints resolve through the thing
// map and then the live graph, since exported edges carry component
// ids. A socket the current variant no longer exposes becomes a skip.
func (im *Importer) importEdge(ctx context.Context, tx *datastore.Tx, st *importState, es sipkg.EdgeSpec) error {
	changeSetID := tx.Visibility().ChangeSetID

	if existing := im.lookupEdge(st, changeSetID, es.UniqueID); existing != nil {
		if es.Deleted && existing.DeletedAt == nil {
			now := time.Now().UTC()
			existing.DeletedAt = &now
			existing.DeletedBy = es.DeletedBy
			if err := component.UpdateEdge(ctx, tx, existing); err != nil {
				return err
			}
		}
		st.thingMap.Insert(changeSetID, es.UniqueID, Thing{Edge: existing})
		return nil
	}

	tail, err := im.resolveEndpoint(ctx, tx, st, changeSetID, es.FromComponentUniqueID)
	if err != nil {
		return err
	}
	if tail == nil {
		return &MissingComponentReferenceError{EdgeUniqueID: es.UniqueID, ComponentUniqueID: es.FromComponentUniqueID}
	}
	head, err := im.resolveEndpoint(ctx, tx, st, changeSetID, es.ToComponentUniqueID)
	if err != nil {
		return err
	}
	if head == nil {
		return &MissingComponentReferenceError{EdgeUniqueID: es.UniqueID, ComponentUniqueID: es.ToComponentUniqueID}
	}

	out, err := attribute.FindExternalProviderByName(ctx, tx, tail.SchemaVariantID, es.FromSocketName)
	if err != nil {
		return err
	}
	if out == nil {
		st.result.Skips.addEdge(EdgeSkip{
			EdgeUniqueID: es.UniqueID,
			SocketName:   es.FromSocketName,
			Reason:       EdgeSkipMissingOutputSocket,
		})
		return nil
	}
	in, err := attribute.FindInternalProviderByName(ctx, tx, head.SchemaVariantID, es.ToSocketName)
	if err != nil {
		return err
	}
	if in == nil {
		st.result.Skips.addEdge(EdgeSkip{
			EdgeUniqueID: es.UniqueID,
			SocketName:   es.ToSocketName,
			Reason:       EdgeSkipMissingInputSocket,
		})
		return nil
	}

	edge := model.Edge{
		TailComponentID:        tail.ID,
		TailExternalProviderID: out.ID,
		TailSocketName:         es.FromSocketName,
		HeadComponentID:        head.ID,
		HeadInternalProviderID: in.ID,
		HeadSocketName:         es.ToSocketName,
		CreatedBy:              es.CreatedBy,
	}
	if es.Deleted {
		now := time.Now().UTC()
		edge.DeletedBy = es.DeletedBy
		edge.DeletedAt = &now
	}

	created, err := component.NewEdge(ctx, tx, im.exec, edge)
	if err != nil {
		return err
	}
	st.thingMap.Insert(changeSetID, es.UniqueID, Thing{Edge: created})
	return nil
}

// lookupComponent resolves a package-local unique id against the thing
// map, falling back to the head pass for overlay content.
func (im *Importer) lookupComponent(st *importState, changeSetID model.ID, uniqueID string) *model.Component {
	if c := st.thingMap.GetComponent(changeSetID, uniqueID); c != nil {
		return c
	}
	if changeSetID != model.IDNone {
		return st.thingMap.GetComponent(model.IDNone, uniqueID)
	}
	return nil
}

// lookupEdge resolves an edge unique id against the thing map with the
// same head fallback lookupComponent uses.
func (im *Importer) lookupEdge(st *importState, changeSetID model.ID, uniqueID string) *model.Edge {
	if e := st.thingMap.GetEdge(changeSetID, uniqueID); e != nil {
		return e
	}
	if changeSetID != model.IDNone {
		return st.thingMap.GetEdge(model.IDNone, uniqueID)
	}
	return nil
}

// resolveEndpoint finds an edge endpoint: a component this run touched,
// or a live one whose id the exported spec carries as the unique id.
func (im *Importer) resolveEndpoint(ctx context.Context, tx *datastore.Tx, st *importState, changeSetID model.ID, uniqueID string) (*model.Component, error) {
	if c := im.lookupComponent(st, changeSetID, uniqueID); c != nil {
		return c, nil
	}
	c, err := component.Get(ctx, tx, model.ID(uniqueID))
	if err != nil {
		var nf *datastore.NotFoundError
		if errorsAs(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}
