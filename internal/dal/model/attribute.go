// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import (
	json "github.com/goccy/go-json"
)

// AttributeContext locates where in the graph a value or prototype
// applies. Exactly one of PropID and ExternalProviderID may be set; a
// context with ComponentID set is strictly more specific than the same
// context without it.
type AttributeContext struct {
	PropID             ID `json:"prop_id"`
	InternalProviderID ID `json:"internal_provider_id"`
	ExternalProviderID ID `json:"external_provider_id"`
	ComponentID        ID `json:"component_id"`
}

// Validate rejects contexts that set both the prop and the external
// provider axis, or neither axis at all.
func (c AttributeContext) Validate() error {
	if c.PropID.IsSome() && c.ExternalProviderID.IsSome() {
		return &InvalidAttributeContextError{Context: c, Reason: "prop and external provider are mutually exclusive"}
	}
	if c.PropID.IsNone() && c.ExternalProviderID.IsNone() && c.InternalProviderID.IsNone() {
		return &InvalidAttributeContextError{Context: c, Reason: "no axis set"}
	}
	return nil
}

// LeastSpecific reports whether the context carries no component, i.e.
// it is a schema-variant level default.
func (c AttributeContext) LeastSpecific() bool {
	return c.ComponentID.IsNone()
}

// WithoutComponent strips the component axis, producing the default
// lookup context.
func (c AttributeContext) WithoutComponent() AttributeContext {
	c.ComponentID = IDNone
	return c
}

// MatchesExactly compares all four axes.
func (c AttributeContext) MatchesExactly(other AttributeContext) bool {
	return c.PropID == other.PropID &&
		c.InternalProviderID == other.InternalProviderID &&
		c.ExternalProviderID == other.ExternalProviderID &&
		c.ComponentID == other.ComponentID
}

// AttributePrototype binds a context to the function that produces
// values there. One prototype per (context, key).
type AttributePrototype struct {
	ID        ID               `json:"id"`
	Tenancy   Tenancy          `json:"tenancy"`
	Timestamp Timestamp        `json:"timestamp"`
	Context   AttributeContext `json:"context"`
	FuncID    ID               `json:"func_id"`
	Key       string           `json:"key,omitempty"`
}

// AttributePrototypeArgument feeds a named function argument from an
// internal provider, optionally crossing a component boundary.
type AttributePrototypeArgument struct {
	ID                   ID        `json:"id"`
	Tenancy              Tenancy   `json:"tenancy"`
	Timestamp            Timestamp `json:"timestamp"`
	AttributePrototypeID ID        `json:"attribute_prototype_id"`
	FuncArgumentID       ID        `json:"func_argument_id"`
	InternalProviderID   ID        `json:"internal_provider_id"`
	ExternalProviderID   ID        `json:"external_provider_id"`
	// For inter-component arguments the tail emits, the head consumes.
	TailComponentID ID `json:"tail_component_id"`
	HeadComponentID ID `json:"head_component_id"`
}

// AttributeValue is the materialized result of running a prototype's
// function in a context. Values for object trees mirror the prop tree
// through ParentValueID; map and array entries carry a Key.
type AttributeValue struct {
	ID                       ID               `json:"id"`
	Tenancy                  Tenancy          `json:"tenancy"`
	Timestamp                Timestamp        `json:"timestamp"`
	Context                  AttributeContext `json:"context"`
	Key                      string           `json:"key,omitempty"`
	ParentValueID            ID               `json:"parent_value_id"`
	AttributePrototypeID     ID               `json:"attribute_prototype_id"`
	FuncBindingID            ID               `json:"func_binding_id"`
	FuncBindingReturnValueID ID               `json:"func_binding_return_value_id"`
}

// Materialized is a decoded view of a value's current content.
type Materialized struct {
	ValueID ID
	Value   json.RawMessage
}
