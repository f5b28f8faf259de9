// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import (
	"time"

	json "github.com/goccy/go-json"
)

// Component is an instance of a schema variant with its own attribute
// values layered over the variant defaults.
type Component struct {
	ID              ID        `json:"id"`
	Tenancy         Tenancy   `json:"tenancy"`
	Timestamp       Timestamp `json:"timestamp"`
	SchemaID        ID        `json:"schema_id"`
	SchemaVariantID ID        `json:"schema_variant_id"`
	// NeedsDestroy is set while a deleted component still has a live
	// resource behind it.
	NeedsDestroy bool       `json:"needs_destroy"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// ComponentPosition is diagram placement, round-tripped by packages.
type ComponentPosition struct {
	X      string `json:"x"`
	Y      string `json:"y"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// Resource is the persisted last-known state of the thing a component
// manages.
type Resource struct {
	Status     ResourceStatus  `json:"status"`
	Message    string          `json:"message,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Logs       []string        `json:"logs,omitempty"`
	LastSynced string          `json:"last_synced,omitempty"`
}

// Edge connects an external provider socket on the tail component to an
// internal provider socket on the head component.
type Edge struct {
	ID        ID        `json:"id"`
	Tenancy   Tenancy   `json:"tenancy"`
	Timestamp Timestamp `json:"timestamp"`

	TailComponentID        ID     `json:"tail_component_id"`
	TailExternalProviderID ID     `json:"tail_external_provider_id"`
	TailSocketName         string `json:"tail_socket_name"`
	HeadComponentID        ID     `json:"head_component_id"`
	HeadInternalProviderID ID     `json:"head_internal_provider_id"`
	HeadSocketName         string `json:"head_socket_name"`

	CreatedBy string     `json:"created_by,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
