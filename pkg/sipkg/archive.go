// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package sipkg

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// Pkg is a loaded package: the decoded spec plus its memoized root
// hash.
type Pkg struct {
	spec PkgSpec
	hash string
}

// New wraps a spec, computing the root hash once.
func New(spec PkgSpec) (*Pkg, error) {
	hash, err := hashOf(spec)
	if err != nil {
		return nil, err
	}
	return &Pkg{spec: spec, hash: hash}, nil
}

// Hash is the root hash over the whole canonical document. Two
// packages with equal hashes are byte-equal in content.
func (p *Pkg) Hash() string { return p.hash }

func (p *Pkg) Metadata() PkgMetadata { return p.spec.Metadata }

func (p *Pkg) Funcs() []FuncSpec { return p.spec.Funcs }

func (p *Pkg) Schemas() []SchemaSpec { return p.spec.Schemas }

func (p *Pkg) Components() []ComponentSpec { return p.spec.Components }

func (p *Pkg) Edges() []EdgeSpec { return p.spec.Edges }

func (p *Pkg) ChangeSets() []ChangeSetSpec { return p.spec.ChangeSets }

// IsWorkspaceBackup reports whether the package carries per-change-set
// content.
func (p *Pkg) IsWorkspaceBackup() bool {
	return p.spec.Metadata.Kind == PkgKindWorkspaceBackup
}

// Spec returns the underlying document.
func (p *Pkg) Spec() PkgSpec { return p.spec }

// Encode writes the package as zstd-compressed JSON.
func (p *Pkg) Encode(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(p.spec); err != nil {
		zw.Close()
		return fmt.Errorf("encode package: %w", err)
	}
	return zw.Close()
}

// Decode reads a package from zstd-compressed JSON.
func Decode(r io.Reader) (*Pkg, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var spec PkgSpec
	if err := json.NewDecoder(zr).Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode package: %w", err)
	}
	return New(spec)
}

// WriteFile stores the package at path.
func (p *Pkg) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.Encode(f)
}

// ReadFile loads a package from path.
func ReadFile(path string) (*Pkg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
