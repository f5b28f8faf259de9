// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package datastore

import (
	"fmt"

	"github.com/rigzba21/si/internal/dal/model"
)

// NotFoundError reports that no visible row version exists for the key.
type NotFoundError struct {
	Kind Kind
	ID   model.ID
}

func (e *NotFoundError) Error() string {
	if e.ID.IsNone() {
		return fmt.Sprintf("no visible %s matched", e.Kind)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// MissingTenancyError reports a transaction opened without a workspace.
type MissingTenancyError struct{}

func (e *MissingTenancyError) Error() string {
	return "transaction requires a workspace tenancy"
}
