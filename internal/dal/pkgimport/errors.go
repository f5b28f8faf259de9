// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pkgimport

import (
	"errors"
	"fmt"
)

func errorsAs(err error, target any) bool {
	return errors.As(err, target)
}

// PackageAlreadyInstalledError reports an import of a package whose
// root hash is already in the ledger.
type PackageAlreadyInstalledError struct {
	Name string
	Hash string
}

func (e *PackageAlreadyInstalledError) Error() string {
	return fmt.Sprintf("package %q (hash %s) is already installed", e.Name, e.Hash)
}

// MissingFuncReferenceError reports a spec pointing at a function
// unique id the package never defined.
type MissingFuncReferenceError struct {
	UniqueID string
	Where    string
}

func (e *MissingFuncReferenceError) Error() string {
	return fmt.Sprintf("%s references unknown function unique id %q", e.Where, e.UniqueID)
}

// MissingVariantReferenceError reports a component pointing at a
// schema or variant the import cannot resolve.
type MissingVariantReferenceError struct {
	ComponentUniqueID string
	SchemaName        string
	VariantName       string
}

func (e *MissingVariantReferenceError) Error() string {
	return fmt.Sprintf("component %q references unknown variant %s/%s",
		e.ComponentUniqueID, e.SchemaName, e.VariantName)
}

// MissingComponentReferenceError reports an edge endpoint that neither
// this run nor the live graph can resolve.
type MissingComponentReferenceError struct {
	EdgeUniqueID      string
	ComponentUniqueID string
}

func (e *MissingComponentReferenceError) Error() string {
	return fmt.Sprintf("edge %q references component %q which this import did not touch",
		e.EdgeUniqueID, e.ComponentUniqueID)
}
