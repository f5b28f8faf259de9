// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import "time"

// Tenancy scopes every row to a workspace. No query crosses it.
type Tenancy struct {
	WorkspaceID ID `json:"workspace_id"`
}

func NewTenancy(workspaceID ID) Tenancy {
	return Tenancy{WorkspaceID: workspaceID}
}

// Visibility selects which row versions a transaction can see. A head
// visibility (ChangeSetID == IDNone) sees only rows written on head.
// A change-set visibility prefers the change set's own row version over
// the head version of the same entity.
type Visibility struct {
	ChangeSetID ID   `json:"change_set_id"`
	Deleted     bool `json:"deleted"`
}

func NewHeadVisibility() Visibility {
	return Visibility{ChangeSetID: IDNone}
}

func NewChangeSetVisibility(changeSetID ID) Visibility {
	return Visibility{ChangeSetID: changeSetID}
}

func (v Visibility) IsHead() bool {
	return v.ChangeSetID.IsNone()
}

// Timestamp is embedded in every persisted entity.
type Timestamp struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewTimestamp(now time.Time) Timestamp {
	return Timestamp{CreatedAt: now, UpdatedAt: now}
}
