// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package sipkg

import (
	"encoding/hex"

	json "github.com/goccy/go-json"
	"lukechampine.com/blake3"
)

// hashOf content-addresses any spec through its canonical JSON form.
// Struct field order is fixed, so equal specs hash equal.
func hashOf(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Hash content-addresses the function spec.
func (s FuncSpec) Hash() (string, error) { return hashOf(s) }

// Hash content-addresses the schema spec including its variants.
func (s SchemaSpec) Hash() (string, error) { return hashOf(s) }

// Hash content-addresses one variant spec.
func (s SchemaVariantSpec) Hash() (string, error) { return hashOf(s) }

// Hash content-addresses the component spec.
func (s ComponentSpec) Hash() (string, error) { return hashOf(s) }

// Hash content-addresses the edge spec.
func (s EdgeSpec) Hash() (string, error) { return hashOf(s) }
