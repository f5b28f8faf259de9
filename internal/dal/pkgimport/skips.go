// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pkgimport

import (
	"github.com/rigzba21/si/internal/dal/model"
)

// AttributeSkipReason names why a component attribute was not written.
type AttributeSkipReason string

const (
	SkipMissingProp         AttributeSkipReason = "missingProp"
	SkipKindMismatch        AttributeSkipReason = "kindMismatch"
	SkipMissingFunc         AttributeSkipReason = "missingFunc"
	SkipMissingInputSocket  AttributeSkipReason = "missingInputSocket"
	SkipMissingOutputSocket AttributeSkipReason = "missingOutputSocket"
)

// AttributeSkip records one attribute left untouched during a
// component import. Skips are results, not errors; the rest of the
// component still imports.
type AttributeSkip struct {
	ComponentUniqueID string              `json:"component_unique_id"`
	PropPath          string              `json:"prop_path"`
	Reason            AttributeSkipReason `json:"reason"`
	Detail            string              `json:"detail,omitempty"`
}

// EdgeSkipReason names why an edge could not be restored.
type EdgeSkipReason string

const (
	EdgeSkipMissingInputSocket  EdgeSkipReason = "missingInputSocket"
	EdgeSkipMissingOutputSocket EdgeSkipReason = "missingOutputSocket"
)

// EdgeSkip records one edge left unrestored.
type EdgeSkip struct {
	EdgeUniqueID string         `json:"edge_unique_id"`
	SocketName   string         `json:"socket_name"`
	Reason       EdgeSkipReason `json:"reason"`
}

// Skips aggregates everything an import stepped over.
type Skips struct {
	Attributes []AttributeSkip `json:"attributes,omitempty"`
	Edges      []EdgeSkip      `json:"edges,omitempty"`
}

func (s *Skips) addAttribute(skip AttributeSkip) {
	s.Attributes = append(s.Attributes, skip)
}

func (s *Skips) addEdge(skip EdgeSkip) {
	s.Edges = append(s.Edges, skip)
}

// Result is what an import returns: the variants it created or reused
// and the skips it collected.
type Result struct {
	SchemaVariantIDs []model.ID `json:"schema_variant_ids"`
	Skips            Skips      `json:"skips"`
}
