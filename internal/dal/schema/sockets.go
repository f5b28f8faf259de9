// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package schema

import (
	"context"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
)

// NewInputSocket creates an explicit internal provider backed by the
// identity function, with a variant-level default value of null.
func NewInputSocket(ctx context.Context, tx *datastore.Tx, variantID model.ID, name string, arity model.SocketArity) (*model.InternalProvider, error) {
	provider, err := attribute.NewInternalProvider(ctx, tx, model.InternalProvider{
		SchemaVariantID: variantID,
		Name:            name,
		Arity:           arity,
	})
	if err != nil {
		return nil, err
	}
	if err := socketScaffolding(ctx, tx, model.AttributeContext{InternalProviderID: provider.ID}); err != nil {
		return nil, err
	}
	return provider, nil
}

// NewOutputSocket creates an external provider backed by the identity
// function. The caller wires the identity argument to the providing
// prop afterwards.
func NewOutputSocket(ctx context.Context, tx *datastore.Tx, variantID model.ID, name string, arity model.SocketArity) (*model.ExternalProvider, *model.AttributePrototype, error) {
	provider, err := attribute.NewExternalProvider(ctx, tx, model.ExternalProvider{
		SchemaVariantID: variantID,
		Name:            name,
		Arity:           arity,
	})
	if err != nil {
		return nil, nil, err
	}
	attrCtx := model.AttributeContext{ExternalProviderID: provider.ID}
	if err := socketScaffolding(ctx, tx, attrCtx); err != nil {
		return nil, nil, err
	}
	proto, err := attribute.FindPrototypeForContext(ctx, tx, attrCtx, "")
	if err != nil {
		return nil, nil, err
	}
	return provider, proto, nil
}

// socketScaffolding gives a socket its identity prototype and an empty
// default value row.
func socketScaffolding(ctx context.Context, tx *datastore.Tx, attrCtx model.AttributeContext) error {
	identity, err := funcs.Identity(ctx, tx)
	if err != nil {
		return err
	}
	proto, err := attribute.NewPrototype(ctx, tx, attrCtx, identity.ID, "")
	if err != nil {
		return err
	}
	binding, rv, _, err := funcs.CreateAndExecute(ctx, tx, funcs.NopExecutor{}, identity.ID, nil, nil)
	if err != nil {
		return err
	}
	_, err = attribute.NewValue(ctx, tx, model.AttributeValue{
		Context:                  attrCtx,
		AttributePrototypeID:     proto.ID,
		FuncBindingID:            binding.ID,
		FuncBindingReturnValueID: rv.ID,
	})
	return err
}
