// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package attribute

import (
	"context"
	"time"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

// NewInternalProvider persists an internal provider. Implicit ones
// (PropID set) emit their prop's value; explicit ones are input
// sockets.
func NewInternalProvider(ctx context.Context, tx *datastore.Tx, p model.InternalProvider) (*model.InternalProvider, error) {
	p.ID = model.NewID()
	p.Tenancy = tx.Tenancy()
	p.Timestamp = model.NewTimestamp(time.Now().UTC())
	if p.Arity == "" {
		p.Arity = model.SocketArityMany
	}
	if err := datastore.Insert(ctx, tx, datastore.KindInternalProvider, p.ID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetInternalProvider loads an internal provider by id.
func GetInternalProvider(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.InternalProvider, error) {
	return datastore.Get[model.InternalProvider](ctx, tx, datastore.KindInternalProvider, id)
}

// ImplicitProviderForProp returns the implicit internal provider of a
// prop, or nil before the variant is finalized.
func ImplicitProviderForProp(ctx context.Context, tx *datastore.Tx, propID model.ID) (*model.InternalProvider, error) {
	ps, err := datastore.List[model.InternalProvider](ctx, tx, datastore.KindInternalProvider,
		datastore.Eq("prop_id", propID.String()))
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

// FindInternalProviderByName returns a variant's named input socket,
// or nil.
func FindInternalProviderByName(ctx context.Context, tx *datastore.Tx, variantID model.ID, name string) (*model.InternalProvider, error) {
	ps, err := datastore.List[model.InternalProvider](ctx, tx, datastore.KindInternalProvider,
		datastore.Eq("schema_variant_id", variantID.String()),
		datastore.Eq("name", name))
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

// ListInternalProviders returns a variant's internal providers.
func ListInternalProviders(ctx context.Context, tx *datastore.Tx, variantID model.ID) ([]model.InternalProvider, error) {
	return datastore.List[model.InternalProvider](ctx, tx, datastore.KindInternalProvider,
		datastore.Eq("schema_variant_id", variantID.String()))
}

// NewExternalProvider persists an output socket provider.
func NewExternalProvider(ctx context.Context, tx *datastore.Tx, p model.ExternalProvider) (*model.ExternalProvider, error) {
	p.ID = model.NewID()
	p.Tenancy = tx.Tenancy()
	p.Timestamp = model.NewTimestamp(time.Now().UTC())
	if p.Arity == "" {
		p.Arity = model.SocketArityMany
	}
	if err := datastore.Insert(ctx, tx, datastore.KindExternalProvider, p.ID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetExternalProvider loads an external provider by id.
func GetExternalProvider(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.ExternalProvider, error) {
	return datastore.Get[model.ExternalProvider](ctx, tx, datastore.KindExternalProvider, id)
}

// FindExternalProviderByName returns a variant's named output socket,
// or nil.
func FindExternalProviderByName(ctx context.Context, tx *datastore.Tx, variantID model.ID, name string) (*model.ExternalProvider, error) {
	ps, err := datastore.List[model.ExternalProvider](ctx, tx, datastore.KindExternalProvider,
		datastore.Eq("schema_variant_id", variantID.String()),
		datastore.Eq("name", name))
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

// ListExternalProviders returns a variant's external providers.
func ListExternalProviders(ctx context.Context, tx *datastore.Tx, variantID model.ID) ([]model.ExternalProvider, error) {
	return datastore.List[model.ExternalProvider](ctx, tx, datastore.KindExternalProvider,
		datastore.Eq("schema_variant_id", variantID.String()))
}
