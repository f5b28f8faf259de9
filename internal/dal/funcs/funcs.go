// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package funcs manages executable functions, their declared arguments
// and the content-addressed binding cache in front of the function
// runtime.
package funcs

import (
	"context"
	"time"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

// Well-known intrinsic function names. Packages refer to these by name
// and expect them to exist in every workspace.
const (
	NameIdentity               = "si:identity"
	NameUnset                  = "si:unset"
	NameNormalizeToArray       = "si:normalizeToArray"
	NameResourcePayloadToValue = "si:resourcePayloadToValue"
	NameSetArray               = "si:setArray"
	NameSetBoolean             = "si:setBoolean"
	NameSetInteger             = "si:setInteger"
	NameSetMap                 = "si:setMap"
	NameSetObject              = "si:setObject"
	NameSetString              = "si:setString"
)

// IdentityArgName is the single declared argument of si:identity.
const IdentityArgName = "identity"

// New persists a function.
func New(ctx context.Context, tx *datastore.Tx, fn model.Func) (*model.Func, error) {
	fn.ID = model.NewID()
	fn.Tenancy = tx.Tenancy()
	fn.Timestamp = model.NewTimestamp(time.Now().UTC())
	if err := datastore.Insert(ctx, tx, datastore.KindFunc, fn.ID, &fn); err != nil {
		return nil, err
	}
	return &fn, nil
}

// Get fetches a function by id.
func Get(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.Func, error) {
	return datastore.Get[model.Func](ctx, tx, datastore.KindFunc, id)
}

// Update writes the function back under the current visibility.
func Update(ctx context.Context, tx *datastore.Tx, fn *model.Func) error {
	fn.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindFunc, fn.ID, fn)
}

// Delete removes the function under the current visibility.
func Delete(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	return datastore.Delete(ctx, tx, datastore.KindFunc, id)
}

// FindByName returns the visible function with the given name, or nil
// when none exists. Function names are unique per workspace.
func FindByName(ctx context.Context, tx *datastore.Tx, name string) (*model.Func, error) {
	fns, err := datastore.List[model.Func](ctx, tx, datastore.KindFunc, datastore.Eq("name", name))
	if err != nil {
		return nil, err
	}
	if len(fns) == 0 {
		return nil, nil
	}
	return &fns[0], nil
}

// NewArgument persists a declared argument for a function.
func NewArgument(ctx context.Context, tx *datastore.Tx, arg model.FuncArgument) (*model.FuncArgument, error) {
	arg.ID = model.NewID()
	arg.Tenancy = tx.Tenancy()
	arg.Timestamp = model.NewTimestamp(time.Now().UTC())
	if err := datastore.Insert(ctx, tx, datastore.KindFuncArgument, arg.ID, &arg); err != nil {
		return nil, err
	}
	return &arg, nil
}

// UpdateArgument writes the argument back.
func UpdateArgument(ctx context.Context, tx *datastore.Tx, arg *model.FuncArgument) error {
	arg.Timestamp.UpdatedAt = time.Now().UTC()
	return datastore.Update(ctx, tx, datastore.KindFuncArgument, arg.ID, arg)
}

// DeleteArgument removes a declared argument.
func DeleteArgument(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	return datastore.Delete(ctx, tx, datastore.KindFuncArgument, id)
}

// ListArguments returns a function's declared arguments.
func ListArguments(ctx context.Context, tx *datastore.Tx, funcID model.ID) ([]model.FuncArgument, error) {
	return datastore.List[model.FuncArgument](ctx, tx, datastore.KindFuncArgument,
		datastore.Eq("func_id", funcID.String()))
}

// FindArgument returns a function argument by name, or nil when the
// function does not declare it.
func FindArgument(ctx context.Context, tx *datastore.Tx, funcID model.ID, name string) (*model.FuncArgument, error) {
	args, err := datastore.List[model.FuncArgument](ctx, tx, datastore.KindFuncArgument,
		datastore.Eq("func_id", funcID.String()), datastore.Eq("name", name))
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}
	return &args[0], nil
}

// Identity returns the identity function, which must exist.
func Identity(ctx context.Context, tx *datastore.Tx) (*model.Func, error) {
	fn, err := FindByName(ctx, tx, NameIdentity)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, &MissingIntrinsicError{Name: NameIdentity}
	}
	return fn, nil
}

// Seed ensures the intrinsic functions exist in the workspace. It is
// idempotent and runs on workspace bootstrap.
func Seed(ctx context.Context, tx *datastore.Tx) error {
	intrinsics := []struct {
		name     string
		backend  model.FuncBackendKind
		response model.FuncBackendResponseType
		argName  string
		argKind  model.FuncArgumentKind
	}{
		{NameIdentity, model.FuncBackendKindIdentity, model.FuncResponseTypeIdentity, IdentityArgName, model.FuncArgumentKindAny},
		{NameUnset, model.FuncBackendKindUnset, model.FuncResponseTypeUnset, "", ""},
		{NameNormalizeToArray, model.FuncBackendKindArray, model.FuncResponseTypeArray, "value", model.FuncArgumentKindAny},
		{NameResourcePayloadToValue, model.FuncBackendKindObject, model.FuncResponseTypeObject, "payload", model.FuncArgumentKindObject},
		{NameSetArray, model.FuncBackendKindArray, model.FuncResponseTypeArray, "value", model.FuncArgumentKindArray},
		{NameSetBoolean, model.FuncBackendKindBoolean, model.FuncResponseTypeBoolean, "value", model.FuncArgumentKindBoolean},
		{NameSetInteger, model.FuncBackendKindInteger, model.FuncResponseTypeInteger, "value", model.FuncArgumentKindInteger},
		{NameSetMap, model.FuncBackendKindMap, model.FuncResponseTypeMap, "value", model.FuncArgumentKindMap},
		{NameSetObject, model.FuncBackendKindObject, model.FuncResponseTypeObject, "value", model.FuncArgumentKindObject},
		{NameSetString, model.FuncBackendKindString, model.FuncResponseTypeString, "value", model.FuncArgumentKindString},
	}

	for _, in := range intrinsics {
		existing, err := FindByName(ctx, tx, in.name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		fn, err := New(ctx, tx, model.Func{
			Name:         in.name,
			Builtin:      true,
			BackendKind:  in.backend,
			ResponseType: in.response,
		})
		if err != nil {
			return err
		}
		if in.argName != "" {
			if _, err := NewArgument(ctx, tx, model.FuncArgument{
				FuncID: fn.ID,
				Name:   in.argName,
				Kind:   in.argKind,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetterForPropKind maps a prop kind to the intrinsic that writes
// values of that kind.
func SetterForPropKind(kind model.PropKind) string {
	switch kind {
	case model.PropKindArray:
		return NameSetArray
	case model.PropKindBoolean:
		return NameSetBoolean
	case model.PropKindInteger:
		return NameSetInteger
	case model.PropKindMap:
		return NameSetMap
	case model.PropKindObject:
		return NameSetObject
	default:
		return NameSetString
	}
}
