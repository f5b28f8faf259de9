// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package funcs

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/rigzba21/si/internal/dal/model"
)

// BeforeResult carries the output of an authentication or setup
// function that ran ahead of the main function.
type BeforeResult struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Result is what an execution produced. Unprocessed is the raw runtime
// output before response-type post-processing.
type Result struct {
	Value       json.RawMessage
	Unprocessed json.RawMessage
	Logs        []model.OutputLine
}

// Executor runs non-intrinsic functions, normally in the sandboxed
// function runtime on the other side of a transport.
type Executor interface {
	Execute(ctx context.Context, fn model.Func, args json.RawMessage, before []BeforeResult) (*Result, error)
}

var null = json.RawMessage("null")

// runIntrinsic executes the in-process function kinds. The setter
// backends read their "value" argument; identity reads "identity";
// unset always yields null.
func runIntrinsic(fn model.Func, args json.RawMessage) (*Result, error) {
	switch fn.Name {
	case NameNormalizeToArray:
		return normalizeToArray(args), nil
	case NameResourcePayloadToValue:
		return extractArg(args, "payload"), nil
	}

	switch fn.BackendKind {
	case model.FuncBackendKindIdentity:
		return extractArg(args, IdentityArgName), nil
	case model.FuncBackendKindUnset:
		return &Result{Value: null, Unprocessed: null}, nil
	case model.FuncBackendKindArray, model.FuncBackendKindBoolean,
		model.FuncBackendKindInteger, model.FuncBackendKindMap,
		model.FuncBackendKindObject, model.FuncBackendKindString:
		return extractArg(args, "value"), nil
	}
	return nil, &NotIntrinsicError{Name: fn.Name, BackendKind: fn.BackendKind}
}

func extractArg(args json.RawMessage, name string) *Result {
	v := gjson.GetBytes(args, name)
	if !v.Exists() || v.Type == gjson.Null {
		return &Result{Value: null, Unprocessed: null}
	}
	raw := json.RawMessage(v.Raw)
	return &Result{Value: raw, Unprocessed: raw}
}

func normalizeToArray(args json.RawMessage) *Result {
	v := gjson.GetBytes(args, "value")
	if !v.Exists() || v.Type == gjson.Null {
		return &Result{Value: null, Unprocessed: null}
	}
	if v.IsArray() {
		raw := json.RawMessage(v.Raw)
		return &Result{Value: raw, Unprocessed: raw}
	}
	wrapped := json.RawMessage("[" + v.Raw + "]")
	return &Result{Value: wrapped, Unprocessed: wrapped}
}

// isInProcess reports whether the function never leaves the process.
func isInProcess(fn model.Func) bool {
	return fn.IsIntrinsic()
}

// NopExecutor rejects every execution. Useful where only intrinsics
// are expected to run.
type NopExecutor struct{}

func (NopExecutor) Execute(_ context.Context, fn model.Func, _ json.RawMessage, _ []BeforeResult) (*Result, error) {
	return nil, &NoRuntimeError{Name: fn.Name}
}

// StaticExecutor returns a fixed value for every run, with one log
// line per run. Tests and dry-runs use it in place of the runtime.
type StaticExecutor struct {
	Value json.RawMessage
}

func (e StaticExecutor) Execute(_ context.Context, fn model.Func, _ json.RawMessage, _ []BeforeResult) (*Result, error) {
	v := e.Value
	if len(v) == 0 {
		v = null
	}
	return &Result{
		Value:       v,
		Unprocessed: v,
		Logs: []model.OutputLine{{
			Stream:    "output",
			Level:     "info",
			Message:   "executed " + fn.Name,
			Timestamp: time.Now().UTC(),
		}},
	}, nil
}
