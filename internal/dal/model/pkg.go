// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

// InstalledPkg records that a package with a given root hash has been
// installed into the workspace.
type InstalledPkg struct {
	ID        ID        `json:"id"`
	Tenancy   Tenancy   `json:"tenancy"`
	Timestamp Timestamp `json:"timestamp"`
	Name      string    `json:"name"`
	RootHash  string    `json:"root_hash"`
}

// InstalledPkgAssetKind tags what a ledger entry maps to.
type InstalledPkgAssetKind string

const (
	InstalledPkgAssetKindFunc          InstalledPkgAssetKind = "func"
	InstalledPkgAssetKindSchema        InstalledPkgAssetKind = "schema"
	InstalledPkgAssetKindSchemaVariant InstalledPkgAssetKind = "schemaVariant"
)

// InstalledPkgAsset is one row of the hash ledger: a content hash from
// a package spec mapped to the entity it produced in this workspace.
type InstalledPkgAsset struct {
	ID             ID                    `json:"id"`
	Tenancy        Tenancy               `json:"tenancy"`
	Timestamp      Timestamp             `json:"timestamp"`
	InstalledPkgID ID                    `json:"installed_pkg_id"`
	Kind           InstalledPkgAssetKind `json:"kind"`
	Hash           string                `json:"hash"`
	AssetID        ID                    `json:"asset_id"`
}
