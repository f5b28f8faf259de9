// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package attribute

import (
	"errors"
	"fmt"

	"github.com/rigzba21/si/internal/dal/model"
)

// NotFoundForReadContextError reports that neither a component-specific
// value nor a variant default exists for a read context.
type NotFoundForReadContextError struct {
	Context model.AttributeContext
	Key     string
}

func (e *NotFoundForReadContextError) Error() string {
	return fmt.Sprintf("attribute value not found for read context prop=%s internal=%s external=%s component=%s key=%q",
		e.Context.PropID, e.Context.InternalProviderID, e.Context.ExternalProviderID, e.Context.ComponentID, e.Key)
}

// ValueKindMismatchError reports a write whose JSON shape does not
// match the prop's declared kind.
type ValueKindMismatchError struct {
	PropID   model.ID
	PropPath model.PropPath
	Kind     model.PropKind
}

func (e *ValueKindMismatchError) Error() string {
	return fmt.Sprintf("value for prop %s (%s) does not match kind %s", e.PropPath, e.PropID, e.Kind)
}

// AsNotFoundForReadContext matches the read-miss error so callers can
// treat "no value yet" differently from real failures.
func AsNotFoundForReadContext(err error, target **NotFoundForReadContextError) bool {
	return errors.As(err, target)
}

func asNotFound(err error, target **NotFoundForReadContextError) bool {
	return AsNotFoundForReadContext(err, target)
}
