// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package pkgimport reconciles package content into a workspace:
// three-tier lookup against the hash ledger, the in-flight thing map
// and the live graph, with skips collected instead of thrown.
package pkgimport

import (
	"github.com/rigzba21/si/internal/dal/model"
)

// Thing is the closed union of entities an import can have produced.
// Exactly one field is set.
type Thing struct {
	Func             *model.Func
	FuncArgument     *model.FuncArgument
	Schema           *model.Schema
	SchemaVariant    *model.SchemaVariant
	Component        *model.Component
	Edge             *model.Edge
	ActionPrototype  *model.ActionPrototype
	AuthPrototype    *model.AuthPrototype
	InternalProvider *model.InternalProvider
	ExternalProvider *model.ExternalProvider
}

type thingKey struct {
	changeSetID model.ID
	uniqueID    string
}

// ThingMap remembers what each package-local unique id resolved to,
// per change set. One map spans an entire import, including every
// overlay of a workspace backup.
type ThingMap struct {
	things map[thingKey]Thing
}

func NewThingMap() *ThingMap {
	return &ThingMap{things: map[thingKey]Thing{}}
}

func (tm *ThingMap) Insert(changeSetID model.ID, uniqueID string, t Thing) {
	if uniqueID == "" {
		return
	}
	tm.things[thingKey{changeSetID: changeSetID, uniqueID: uniqueID}] = t
}

func (tm *ThingMap) Get(changeSetID model.ID, uniqueID string) (Thing, bool) {
	t, ok := tm.things[thingKey{changeSetID: changeSetID, uniqueID: uniqueID}]
	return t, ok
}

func (tm *ThingMap) GetFunc(changeSetID model.ID, uniqueID string) *model.Func {
	if t, ok := tm.Get(changeSetID, uniqueID); ok {
		return t.Func
	}
	return nil
}

func (tm *ThingMap) GetComponent(changeSetID model.ID, uniqueID string) *model.Component {
	if t, ok := tm.Get(changeSetID, uniqueID); ok {
		return t.Component
	}
	return nil
}

func (tm *ThingMap) GetEdge(changeSetID model.ID, uniqueID string) *model.Edge {
	if t, ok := tm.Get(changeSetID, uniqueID); ok {
		return t.Edge
	}
	return nil
}

func (tm *ThingMap) GetSchemaVariant(changeSetID model.ID, uniqueID string) *model.SchemaVariant {
	if t, ok := tm.Get(changeSetID, uniqueID); ok {
		return t.SchemaVariant
	}
	return nil
}
