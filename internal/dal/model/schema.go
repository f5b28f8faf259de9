// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

// ComponentKind tells the UI layer what a schema models. Everything in
// this tree is "standard" except credential-bearing schemas.
type ComponentKind string

const (
	ComponentKindStandard   ComponentKind = "standard"
	ComponentKindCredential ComponentKind = "credential"
)

// Schema names a kind of thing that can exist in a workspace.
type Schema struct {
	ID                 ID            `json:"id"`
	Tenancy            Tenancy       `json:"tenancy"`
	Timestamp          Timestamp     `json:"timestamp"`
	Name               string        `json:"name"`
	ComponentKind      ComponentKind `json:"component_kind"`
	UIHidden           bool          `json:"ui_hidden"`
	DefaultVariantID   ID            `json:"default_variant_id"`
	IsBuiltin          bool          `json:"is_builtin"`
}

// SchemaVariant is one concrete shape of a schema: a prop tree, sockets
// and action prototypes. Components are always built from a variant.
type SchemaVariant struct {
	ID         ID        `json:"id"`
	Tenancy    Tenancy   `json:"tenancy"`
	Timestamp  Timestamp `json:"timestamp"`
	SchemaID   ID        `json:"schema_id"`
	Name       string    `json:"name"`
	RootPropID ID        `json:"root_prop_id"`
	Color      string    `json:"color,omitempty"`
	Link       string    `json:"link,omitempty"`
	// Finalized flips once default prototypes, default values and
	// implicit providers exist for every prop in the tree.
	Finalized bool `json:"finalized"`
}

// RootPropChild enumerates the fixed children of every variant root.
type RootPropChild string

const (
	RootPropChildSi            RootPropChild = "si"
	RootPropChildDomain        RootPropChild = "domain"
	RootPropChildSecrets       RootPropChild = "secrets"
	RootPropChildResource      RootPropChild = "resource"
	RootPropChildResourceValue RootPropChild = "resource_value"
	RootPropChildCode          RootPropChild = "code"
	RootPropChildQualification RootPropChild = "qualification"
	RootPropChildDeletedAt     RootPropChild = "deleted_at"
)

func (c RootPropChild) Path() PropPath {
	return NewPropPath("root", string(c))
}

// SiPropChild enumerates the children of root/si.
type SiPropChild string

const (
	SiPropChildName      SiPropChild = "name"
	SiPropChildProtected SiPropChild = "protected"
	SiPropChildType      SiPropChild = "type"
	SiPropChildColor     SiPropChild = "color"
)

func (c SiPropChild) Path() PropPath {
	return NewPropPath("root", "si", string(c))
}
