// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import (
	json "github.com/goccy/go-json"
)

// ActionKind classifies what an action does to the real world. A schema
// variant may hold at most one create, one delete and one refresh
// prototype; "other" is unrestricted.
type ActionKind string

const (
	ActionKindCreate  ActionKind = "create"
	ActionKindDelete  ActionKind = "delete"
	ActionKindRefresh ActionKind = "refresh"
	ActionKindOther   ActionKind = "other"
)

func (k ActionKind) Unique() bool {
	return k != ActionKindOther
}

// ActionPrototype attaches an action function to a schema variant.
type ActionPrototype struct {
	ID              ID         `json:"id"`
	Tenancy         Tenancy    `json:"tenancy"`
	Timestamp       Timestamp  `json:"timestamp"`
	SchemaVariantID ID         `json:"schema_variant_id"`
	FuncID          ID         `json:"func_id"`
	Kind            ActionKind `json:"kind"`
	Name            string     `json:"name,omitempty"`
}

// AuthPrototype attaches an authentication function to a schema
// variant. Auth functions run ahead of every action as before-funcs.
type AuthPrototype struct {
	ID              ID        `json:"id"`
	Tenancy         Tenancy   `json:"tenancy"`
	Timestamp       Timestamp `json:"timestamp"`
	SchemaVariantID ID        `json:"schema_variant_id"`
	FuncID          ID        `json:"func_id"`
}

// ResourceStatus is the outcome of the most recent action run against
// a component's backing resource.
type ResourceStatus string

const (
	ResourceStatusOK      ResourceStatus = "ok"
	ResourceStatusWarning ResourceStatus = "warning"
	ResourceStatusError   ResourceStatus = "error"
)

// ActionRunResult is the decoded payload an action function returns.
type ActionRunResult struct {
	Status     ResourceStatus  `json:"status"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Message    string          `json:"message,omitempty"`
	LastSynced string          `json:"last_synced,omitempty"`
	Logs       []string        `json:"logs,omitempty"`
}

// HasPayload reports whether the run produced a live resource payload.
func (r ActionRunResult) HasPayload() bool {
	t := string(r.Payload)
	return t != "" && t != "null"
}
