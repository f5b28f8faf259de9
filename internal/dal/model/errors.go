// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import "fmt"

// InvalidAttributeContextError reports a context that violates the
// axis rules.
type InvalidAttributeContextError struct {
	Context AttributeContext
	Reason  string
}

func (e *InvalidAttributeContextError) Error() string {
	return fmt.Sprintf("invalid attribute context (%s): prop=%s internal=%s external=%s component=%s",
		e.Reason, e.Context.PropID, e.Context.InternalProviderID, e.Context.ExternalProviderID, e.Context.ComponentID)
}
