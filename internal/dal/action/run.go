// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package action

import (
	"context"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/rigzba21/si/internal/dal/component"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/events"
)

// Run executes an action prototype against a component: the component
// view goes in, the function runs with the variant's auth results as
// before-funcs, and the outcome lands in the component's resource
// subtree. Nothing persists when any step before the resource write
// fails. Action executions never come from the binding cache.
func Run(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, pub events.Publisher, prototypeID, componentID model.ID) (*model.ActionRunResult, error) {
	proto, err := GetPrototype(ctx, tx, prototypeID)
	if err != nil {
		return nil, err
	}
	c, err := component.Get(ctx, tx, componentID)
	if err != nil {
		return nil, err
	}
	if c.SchemaVariantID != proto.SchemaVariantID {
		return nil, &ComponentVariantMismatchError{
			PrototypeID: proto.ID, ComponentID: c.ID,
			PrototypeVariantID: proto.SchemaVariantID, ComponentVariantID: c.SchemaVariantID,
		}
	}

	view, err := component.View(ctx, tx, componentID)
	if err != nil {
		return nil, err
	}

	before, err := runBeforeFuncs(ctx, tx, exec, proto.SchemaVariantID, view)
	if err != nil {
		return nil, err
	}

	args, err := json.Marshal(map[string]json.RawMessage{"properties": view})
	if err != nil {
		return nil, err
	}
	_, rv, logs, err := funcs.CreateAndExecute(ctx, tx, exec, proto.FuncID, args, before)
	if err != nil {
		return nil, err
	}

	var result model.ActionRunResult
	if len(rv.Value) > 0 && string(rv.Value) != "null" {
		if err := json.Unmarshal(rv.Value, &result); err != nil {
			return nil, &MalformedResultError{PrototypeID: proto.ID, Err: err}
		}
	}

	// Runtimes interleave streams; presentation order is wall clock.
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.Before(logs[j].Timestamp)
	})
	logLines := result.Logs
	for _, l := range logs {
		logLines = append(logLines, l.Message)
	}

	if c.NeedsDestroy && !result.HasPayload() {
		if err := component.SetNeedsDestroy(ctx, tx, c, false); err != nil {
			return nil, err
		}
	}

	resource := model.Resource{
		Status:     result.Status,
		Message:    result.Message,
		Payload:    result.Payload,
		Logs:       logLines,
		LastSynced: result.LastSynced,
	}
	if err := component.SetResource(ctx, tx, exec, c, resource); err != nil {
		return nil, err
	}
	if result.HasPayload() {
		if err := component.AttachResourcePayload(ctx, tx, exec, c, result.Payload); err != nil {
			return nil, err
		}
	}

	events.Publish(ctx, pub, events.KindResourceRefreshed, tx.Tenancy(), tx.Visibility(), events.ResourceRefreshed{
		ComponentID: c.ID,
		Status:      result.Status,
	})
	return &result, nil
}

// runBeforeFuncs executes the variant's auth prototypes in creation
// order and collects their results for the main run.
func runBeforeFuncs(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, variantID model.ID, view json.RawMessage) ([]funcs.BeforeResult, error) {
	auths, err := ListAuthPrototypes(ctx, tx, variantID)
	if err != nil {
		return nil, err
	}
	var out []funcs.BeforeResult
	for _, a := range auths {
		fn, err := funcs.Get(ctx, tx, a.FuncID)
		if err != nil {
			return nil, err
		}
		args, err := json.Marshal(map[string]json.RawMessage{"properties": view})
		if err != nil {
			return nil, err
		}
		res, err := exec.Execute(ctx, *fn, args, nil)
		if err != nil {
			return nil, &funcs.ExecutionError{FuncID: fn.ID, FuncName: fn.Name, Err: err}
		}
		out = append(out, funcs.BeforeResult{Name: fn.Name, Value: res.Value})
	}
	return out, nil
}
