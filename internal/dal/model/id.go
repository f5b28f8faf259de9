// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import (
	"github.com/segmentio/ksuid"
)

// ID is an opaque, globally unique, monotonically sortable identifier.
// Lexicographic order on the string form matches creation order.
type ID string

// IDNone is the unset sentinel. In an AttributeContext it means
// "any / least specific" on that axis, never "missing row".
var IDNone = ID(ksuid.Nil.String())

// NewID mints a fresh sortable identifier.
func NewID() ID {
	return ID(ksuid.New().String())
}

func (id ID) IsNone() bool {
	return id == IDNone || id == ""
}

func (id ID) IsSome() bool {
	return !id.IsNone()
}

func (id ID) String() string {
	return string(id)
}
