// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import (
	"strings"

	json "github.com/goccy/go-json"
)

// PropKind is the type of a prop node. Object, array and map are the
// only kinds allowed to have children; array and map carry exactly one
// synthetic element child describing their entries.
type PropKind string

const (
	PropKindObject  PropKind = "object"
	PropKindArray   PropKind = "array"
	PropKindMap     PropKind = "map"
	PropKindString  PropKind = "string"
	PropKindBoolean PropKind = "boolean"
	PropKindInteger PropKind = "integer"
)

func (k PropKind) IsContainer() bool {
	return k == PropKindObject || k == PropKindArray || k == PropKindMap
}

// MatchesValue reports whether a raw JSON value is acceptable for this
// prop kind. Used by the importer to detect stale typed data.
func (k PropKind) MatchesValue(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	if t == "" || t == "null" {
		return true
	}
	switch k {
	case PropKindObject, PropKindMap:
		return strings.HasPrefix(t, "{")
	case PropKindArray:
		return strings.HasPrefix(t, "[")
	case PropKindString:
		return strings.HasPrefix(t, `"`)
	case PropKindBoolean:
		return t == "true" || t == "false"
	case PropKindInteger:
		c := t[0]
		return c == '-' || (c >= '0' && c <= '9')
	}
	return false
}

// PropPathSeparator joins path segments. Prop names never contain it.
const PropPathSeparator = "/"

// PropPath is a slash joined path from the variant root, e.g.
// "root/domain/color". It is unique within a schema variant.
type PropPath string

func NewPropPath(segments ...string) PropPath {
	return PropPath(strings.Join(segments, PropPathSeparator))
}

func (p PropPath) Join(segment string) PropPath {
	return PropPath(string(p) + PropPathSeparator + segment)
}

func (p PropPath) Parent() PropPath {
	idx := strings.LastIndex(string(p), PropPathSeparator)
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

func (p PropPath) Name() string {
	idx := strings.LastIndex(string(p), PropPathSeparator)
	return string(p[idx+1:])
}

// IsDescendantOf reports whether p sits strictly below ancestor.
func (p PropPath) IsDescendantOf(ancestor PropPath) bool {
	return strings.HasPrefix(string(p), string(ancestor)+PropPathSeparator)
}

func (p PropPath) Segments() []string {
	return strings.Split(string(p), PropPathSeparator)
}

// Prop is a node in a schema variant's typed property tree.
type Prop struct {
	ID              ID              `json:"id"`
	Tenancy         Tenancy         `json:"tenancy"`
	Timestamp       Timestamp       `json:"timestamp"`
	SchemaVariantID ID              `json:"schema_variant_id"`
	ParentPropID    ID              `json:"parent_prop_id"`
	Name            string          `json:"name"`
	Kind            PropKind        `json:"kind"`
	Path            PropPath        `json:"path"`
	WidgetKind      string          `json:"widget_kind"`
	WidgetOptions   json.RawMessage `json:"widget_options,omitempty"`
	Hidden          bool            `json:"hidden"`
	DocLink         string          `json:"doc_link,omitempty"`
	Documentation   string          `json:"documentation,omitempty"`
	DefaultValue    json.RawMessage `json:"default_value,omitempty"`
	// LooselyTyped suppresses kind checking for values written beneath
	// this prop. Set on props that mirror arbitrary provider payloads.
	LooselyTyped bool `json:"loosely_typed"`
}
