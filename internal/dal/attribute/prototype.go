// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package attribute implements the attribute value graph: prototypes
// binding contexts to functions, materialized values, the
// most-specific-wins read path and dependency propagation.
package attribute

import (
	"context"
	"time"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

// NewPrototype persists a prototype for a context. One prototype per
// (context, key); callers resolve conflicts with FindPrototypeForContext
// first.
func NewPrototype(ctx context.Context, tx *datastore.Tx, attrCtx model.AttributeContext, funcID model.ID, key string) (*model.AttributePrototype, error) {
	if err := attrCtx.Validate(); err != nil {
		return nil, err
	}
	p := model.AttributePrototype{
		ID:        model.NewID(),
		Tenancy:   tx.Tenancy(),
		Timestamp: model.NewTimestamp(time.Now().UTC()),
		Context:   attrCtx,
		FuncID:    funcID,
		Key:       key,
	}
	if err := datastore.Insert(ctx, tx, datastore.KindAttributePrototype, p.ID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPrototype loads a prototype by id.
func GetPrototype(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.AttributePrototype, error) {
	return datastore.Get[model.AttributePrototype](ctx, tx, datastore.KindAttributePrototype, id)
}

// UpdatePrototype writes a prototype back under the current visibility.
func UpdatePrototype(ctx context.Context, tx *datastore.Tx, p *model.AttributePrototype) error {
	p.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindAttributePrototype, p.ID, p)
}

// DeletePrototype removes a prototype and its arguments.
func DeletePrototype(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	args, err := PrototypeArguments(ctx, tx, id)
	if err != nil {
		return err
	}
	for _, a := range args {
		if err := datastore.Delete(ctx, tx, datastore.KindAttributePrototypeArgument, a.ID); err != nil {
			return err
		}
	}
	return datastore.Delete(ctx, tx, datastore.KindAttributePrototype, id)
}

// FindPrototypeForContext returns the prototype matching the context
// exactly on all four axes, or nil. Context matching for prototypes is
// never fuzzy; fallback to the variant default happens on the value
// read path.
func FindPrototypeForContext(ctx context.Context, tx *datastore.Tx, attrCtx model.AttributeContext, key string) (*model.AttributePrototype, error) {
	protos, err := datastore.List[model.AttributePrototype](ctx, tx, datastore.KindAttributePrototype,
		datastore.Eq("context.prop_id", attrCtx.PropID.String()),
		datastore.Eq("context.internal_provider_id", attrCtx.InternalProviderID.String()),
		datastore.Eq("context.external_provider_id", attrCtx.ExternalProviderID.String()),
		datastore.Eq("context.component_id", attrCtx.ComponentID.String()),
	)
	if err != nil {
		return nil, err
	}
	for i := range protos {
		if protos[i].Key == key {
			return &protos[i], nil
		}
	}
	return nil, nil
}

// SetPrototypeFunc repoints a prototype at another function. When the
// prototype is a shared variant default and the new function differs,
// a component-specific prototype is created instead so siblings keep
// the default.
func SetPrototypeFunc(ctx context.Context, tx *datastore.Tx, p *model.AttributePrototype, funcID model.ID, componentID model.ID) (*model.AttributePrototype, error) {
	if p.FuncID == funcID {
		return p, nil
	}
	if p.Context.LeastSpecific() && componentID.IsSome() {
		specific := p.Context
		specific.ComponentID = componentID
		return NewPrototype(ctx, tx, specific, funcID, p.Key)
	}
	p.FuncID = funcID
	if err := UpdatePrototype(ctx, tx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPrototypeArgument binds a function argument of a prototype to an
// internal provider source.
func NewPrototypeArgument(ctx context.Context, tx *datastore.Tx, arg model.AttributePrototypeArgument) (*model.AttributePrototypeArgument, error) {
	arg.ID = model.NewID()
	arg.Tenancy = tx.Tenancy()
	arg.Timestamp = model.NewTimestamp(time.Now().UTC())
	if err := datastore.Insert(ctx, tx, datastore.KindAttributePrototypeArgument, arg.ID, &arg); err != nil {
		return nil, err
	}
	return &arg, nil
}

// UpdatePrototypeArgument writes an argument binding back.
func UpdatePrototypeArgument(ctx context.Context, tx *datastore.Tx, arg *model.AttributePrototypeArgument) error {
	arg.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindAttributePrototypeArgument, arg.ID, arg)
}

// DeletePrototypeArgument removes an argument binding.
func DeletePrototypeArgument(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	return datastore.Delete(ctx, tx, datastore.KindAttributePrototypeArgument, id)
}

// PrototypeArguments lists the argument bindings of a prototype.
func PrototypeArguments(ctx context.Context, tx *datastore.Tx, prototypeID model.ID) ([]model.AttributePrototypeArgument, error) {
	return datastore.List[model.AttributePrototypeArgument](ctx, tx, datastore.KindAttributePrototypeArgument,
		datastore.Eq("attribute_prototype_id", prototypeID.String()))
}

// ArgumentsForProvider lists every argument binding sourced from the
// given internal provider. This is the fan-out edge of dependency
// propagation.
func ArgumentsForProvider(ctx context.Context, tx *datastore.Tx, internalProviderID model.ID) ([]model.AttributePrototypeArgument, error) {
	return datastore.List[model.AttributePrototypeArgument](ctx, tx, datastore.KindAttributePrototypeArgument,
		datastore.Eq("internal_provider_id", internalProviderID.String()))
}
