// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package action

import (
	"fmt"

	"github.com/rigzba21/si/internal/dal/model"
)

// MultipleOfSameKindError reports a second create, delete or refresh
// prototype on one schema variant.
type MultipleOfSameKindError struct {
	SchemaVariantID model.ID
	Kind            model.ActionKind
}

func (e *MultipleOfSameKindError) Error() string {
	return fmt.Sprintf("schema variant %s already has an action prototype of kind %s", e.SchemaVariantID, e.Kind)
}

// ComponentVariantMismatchError reports a run against a component
// built from a different variant than the prototype's.
type ComponentVariantMismatchError struct {
	PrototypeID        model.ID
	ComponentID        model.ID
	PrototypeVariantID model.ID
	ComponentVariantID model.ID
}

func (e *ComponentVariantMismatchError) Error() string {
	return fmt.Sprintf("action prototype %s belongs to variant %s but component %s is built from %s",
		e.PrototypeID, e.PrototypeVariantID, e.ComponentID, e.ComponentVariantID)
}

// MalformedResultError reports an action function result that does not
// decode.
type MalformedResultError struct {
	PrototypeID model.ID
	Err         error
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("action prototype %s returned a malformed result: %v", e.PrototypeID, e.Err)
}

func (e *MalformedResultError) Unwrap() error {
	return e.Err
}
