// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package attribute

import (
	"context"
	"time"

	json "github.com/goccy/go-json"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
)

// NewValue persists an attribute value row.
func NewValue(ctx context.Context, tx *datastore.Tx, v model.AttributeValue) (*model.AttributeValue, error) {
	if err := v.Context.Validate(); err != nil {
		return nil, err
	}
	v.ID = model.NewID()
	v.Tenancy = tx.Tenancy()
	v.Timestamp = model.NewTimestamp(time.Now().UTC())
	if err := datastore.Insert(ctx, tx, datastore.KindAttributeValue, v.ID, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetValue loads a value by id.
func GetValue(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.AttributeValue, error) {
	return datastore.Get[model.AttributeValue](ctx, tx, datastore.KindAttributeValue, id)
}

// UpdateValue writes a value row back under the current visibility.
func UpdateValue(ctx context.Context, tx *datastore.Tx, v *model.AttributeValue) error {
	v.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindAttributeValue, v.ID, v)
}

// DeleteValue removes a value under the current visibility.
func DeleteValue(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	return datastore.Delete(ctx, tx, datastore.KindAttributeValue, id)
}

func listForExactContext(ctx context.Context, tx *datastore.Tx, attrCtx model.AttributeContext) ([]model.AttributeValue, error) {
	return datastore.List[model.AttributeValue](ctx, tx, datastore.KindAttributeValue,
		datastore.Eq("context.prop_id", attrCtx.PropID.String()),
		datastore.Eq("context.internal_provider_id", attrCtx.InternalProviderID.String()),
		datastore.Eq("context.external_provider_id", attrCtx.ExternalProviderID.String()),
		datastore.Eq("context.component_id", attrCtx.ComponentID.String()),
	)
}

// FindValueForContext resolves a read context to its winning value:
// the exact context with the component set wins; otherwise the
// component axis is cleared and the variant default is returned. The
// prop or provider axis never falls back.
func FindValueForContext(ctx context.Context, tx *datastore.Tx, attrCtx model.AttributeContext, key string) (*model.AttributeValue, error) {
	if err := attrCtx.Validate(); err != nil {
		return nil, err
	}

	vals, err := listForExactContext(ctx, tx, attrCtx)
	if err != nil {
		return nil, err
	}
	if v := pickByKey(vals, key); v != nil {
		return v, nil
	}

	if attrCtx.ComponentID.IsSome() {
		vals, err = listForExactContext(ctx, tx, attrCtx.WithoutComponent())
		if err != nil {
			return nil, err
		}
		if v := pickByKey(vals, key); v != nil {
			return v, nil
		}
	}

	return nil, &NotFoundForReadContextError{Context: attrCtx, Key: key}
}

func pickByKey(vals []model.AttributeValue, key string) *model.AttributeValue {
	for i := range vals {
		if vals[i].Key == key {
			return &vals[i]
		}
	}
	return nil
}

// ChildValues returns the values whose parent is the given value,
// ordered by id.
func ChildValues(ctx context.Context, tx *datastore.Tx, parentValueID model.ID) ([]model.AttributeValue, error) {
	return datastore.List[model.AttributeValue](ctx, tx, datastore.KindAttributeValue,
		datastore.Eq("parent_value_id", parentValueID.String()))
}

// ValuesForPrototype returns the materialized values driven by a
// prototype.
func ValuesForPrototype(ctx context.Context, tx *datastore.Tx, prototypeID model.ID) ([]model.AttributeValue, error) {
	return datastore.List[model.AttributeValue](ctx, tx, datastore.KindAttributeValue,
		datastore.Eq("attribute_prototype_id", prototypeID.String()))
}

// Materialize decodes the current content of a value through its
// persisted function return value. A value without a return value
// reads as JSON null.
func Materialize(ctx context.Context, tx *datastore.Tx, v *model.AttributeValue) (json.RawMessage, error) {
	if v.FuncBindingReturnValueID.IsNone() {
		return json.RawMessage("null"), nil
	}
	rv, err := funcs.ReturnValue(ctx, tx, v.FuncBindingReturnValueID)
	if err != nil {
		return nil, err
	}
	if len(rv.Value) == 0 {
		return json.RawMessage("null"), nil
	}
	return rv.Value, nil
}
