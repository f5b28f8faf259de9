// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package component

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
)

// SetResource writes the last-known resource state into the
// component's root/resource subtree.
func SetResource(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, c *model.Component, r model.Resource) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return writeProp(ctx, tx, exec, c, model.RootPropChildResource.Path(), raw)
}

// GetResource reads the component's persisted resource state. A
// component that never ran an action has an empty resource.
func GetResource(ctx context.Context, tx *datastore.Tx, c *model.Component) (*model.Resource, error) {
	raw, err := readProp(ctx, tx, c, model.RootPropChildResource.Path())
	if err != nil {
		return nil, err
	}
	var r model.Resource
	if string(raw) == "null" {
		return &r, nil
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// AttachResourcePayload feeds the raw payload into root/resource_value
// so attribute functions can consume live state. The payload flows
// through si:resourcePayloadToValue.
func AttachResourcePayload(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, c *model.Component, payload json.RawMessage) error {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	fn, err := funcs.FindByName(ctx, tx, funcs.NameResourcePayloadToValue)
	if err != nil {
		return err
	}
	if fn == nil {
		return &funcs.MissingIntrinsicError{Name: funcs.NameResourcePayloadToValue}
	}
	args, err := json.Marshal(map[string]json.RawMessage{"payload": payload})
	if err != nil {
		return err
	}
	_, rv, _, err := funcs.CreateAndExecute(ctx, tx, exec, fn.ID, args, nil)
	if err != nil {
		return err
	}
	return writeProp(ctx, tx, exec, c, model.RootPropChildResourceValue.Path(), rv.Value)
}
