// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package funcs

import (
	"context"
	"encoding/hex"
	"time"

	json "github.com/goccy/go-json"
	"lukechampine.com/blake3"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/model"
)

// bindingFingerprint is the canonical input to the content hash. Two
// executions with the same fingerprint are interchangeable, except for
// action backends which always re-run.
type bindingFingerprint struct {
	FuncID      model.ID              `json:"func_id"`
	BackendKind model.FuncBackendKind `json:"backend_kind"`
	CodeBase64  string                `json:"code_base64,omitempty"`
	Args        json.RawMessage       `json:"args"`
	Before      []BeforeResult        `json:"before,omitempty"`
}

// ContentHash computes the cache key for one execution request.
func ContentHash(fn model.Func, args json.RawMessage, before []BeforeResult) (string, error) {
	if len(args) == 0 {
		args = null
	}
	payload, err := json.Marshal(bindingFingerprint{
		FuncID:      fn.ID,
		BackendKind: fn.BackendKind,
		CodeBase64:  fn.CodeBase64,
		Args:        args,
		Before:      before,
	})
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// CreateAndExecute runs a function through the binding cache. A cache
// hit returns the persisted return value without touching the
// executor; a miss executes, persists binding and return value, and
// returns the captured logs. Action backends bypass the cache on read
// so repeated runs always hit the real world.
func CreateAndExecute(ctx context.Context, tx *datastore.Tx, exec Executor, funcID model.ID, args json.RawMessage, before []BeforeResult) (*model.FuncBinding, *model.FuncBindingReturnValue, []model.OutputLine, error) {
	fn, err := Get(ctx, tx, funcID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(args) == 0 {
		args = null
	}

	hash, err := ContentHash(*fn, args, before)
	if err != nil {
		return nil, nil, nil, err
	}

	if !fn.BackendKind.IsAction() {
		binding, rv, err := lookup(ctx, tx, hash)
		if err != nil {
			return nil, nil, nil, err
		}
		if binding != nil {
			return binding, rv, nil, nil
		}
	}

	var result *Result
	if isInProcess(*fn) {
		result, err = runIntrinsic(*fn, args)
	} else {
		result, err = exec.Execute(ctx, *fn, args, before)
	}
	if err != nil {
		return nil, nil, nil, &ExecutionError{FuncID: fn.ID, FuncName: fn.Name, Err: err}
	}

	now := time.Now().UTC()
	binding := model.FuncBinding{
		ID:          model.NewID(),
		Tenancy:     tx.Tenancy(),
		Timestamp:   model.NewTimestamp(now),
		FuncID:      fn.ID,
		BackendKind: fn.BackendKind,
		Args:        args,
		ContentHash: hash,
	}
	if err := datastore.Insert(ctx, tx, datastore.KindFuncBinding, binding.ID, &binding); err != nil {
		return nil, nil, nil, err
	}

	rv := model.FuncBindingReturnValue{
		ID:               model.NewID(),
		Tenancy:          tx.Tenancy(),
		Timestamp:        model.NewTimestamp(now),
		FuncID:           fn.ID,
		FuncBindingID:    binding.ID,
		UnprocessedValue: result.Unprocessed,
		Value:            result.Value,
	}
	if err := datastore.Insert(ctx, tx, datastore.KindFuncBindingReturnValue, rv.ID, &rv); err != nil {
		return nil, nil, nil, err
	}

	return &binding, &rv, result.Logs, nil
}

func lookup(ctx context.Context, tx *datastore.Tx, hash string) (*model.FuncBinding, *model.FuncBindingReturnValue, error) {
	bindings, err := datastore.List[model.FuncBinding](ctx, tx, datastore.KindFuncBinding,
		datastore.Eq("content_hash", hash))
	if err != nil {
		return nil, nil, err
	}
	if len(bindings) == 0 {
		return nil, nil, nil
	}
	binding := bindings[0]

	rvs, err := datastore.List[model.FuncBindingReturnValue](ctx, tx, datastore.KindFuncBindingReturnValue,
		datastore.Eq("func_binding_id", binding.ID.String()))
	if err != nil {
		return nil, nil, err
	}
	if len(rvs) == 0 {
		// Binding without a return value means a prior run failed
		// mid-write; treat as a miss.
		return nil, nil, nil
	}
	return &binding, &rvs[0], nil
}

// ReturnValue loads a persisted return value by id.
func ReturnValue(ctx context.Context, tx *datastore.Tx, id model.ID) (*model.FuncBindingReturnValue, error) {
	return datastore.Get[model.FuncBindingReturnValue](ctx, tx, datastore.KindFuncBindingReturnValue, id)
}
