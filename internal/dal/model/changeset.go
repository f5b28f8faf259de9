// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

// ChangeSetStatus tracks the lifecycle of a change set.
type ChangeSetStatus string

const (
	ChangeSetStatusOpen      ChangeSetStatus = "open"
	ChangeSetStatusApplied   ChangeSetStatus = "applied"
	ChangeSetStatusAbandoned ChangeSetStatus = "abandoned"
)

// ChangeSet is a named copy-on-write overlay. Writes made under it are
// invisible to head until the change set is applied.
type ChangeSet struct {
	ID        ID              `json:"id"`
	Tenancy   Tenancy         `json:"tenancy"`
	Timestamp Timestamp       `json:"timestamp"`
	Name      string          `json:"name"`
	Status    ChangeSetStatus `json:"status"`
}
