// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package funcs

import (
	"fmt"

	"github.com/rigzba21/si/internal/dal/model"
)

// MissingIntrinsicError reports an unseeded workspace.
type MissingIntrinsicError struct {
	Name string
}

func (e *MissingIntrinsicError) Error() string {
	return fmt.Sprintf("intrinsic function %q not found; workspace not seeded", e.Name)
}

// NotIntrinsicError reports an in-process dispatch for a function the
// process cannot run.
type NotIntrinsicError struct {
	Name        string
	BackendKind model.FuncBackendKind
}

func (e *NotIntrinsicError) Error() string {
	return fmt.Sprintf("function %q (backend %s) is not intrinsic", e.Name, e.BackendKind)
}

// NoRuntimeError reports an execution attempted without a runtime.
type NoRuntimeError struct {
	Name string
}

func (e *NoRuntimeError) Error() string {
	return fmt.Sprintf("no function runtime available to execute %q", e.Name)
}

// ExecutionError wraps a failure from the executor or an intrinsic.
type ExecutionError struct {
	FuncID   model.ID
	FuncName string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %q (%s): %v", e.FuncName, e.FuncID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
