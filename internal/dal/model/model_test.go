// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package model

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestID_NoneAndSome(t *testing.T) {
	assert.True(t, IDNone.IsNone())
	assert.False(t, IDNone.IsSome())

	id := NewID()
	assert.True(t, id.IsSome())
	assert.False(t, id.IsNone())
}

func TestIDs_SortInCreationOrder(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.True(t, a.String() <= b.String())
}

func TestVisibility_Head(t *testing.T) {
	assert.True(t, NewHeadVisibility().IsHead())
	assert.False(t, NewChangeSetVisibility(NewID()).IsHead())
}

func TestAttributeContext_Validate(t *testing.T) {
	prop := NewID()
	ext := NewID()

	assert.NoError(t, AttributeContext{PropID: prop}.Validate())
	assert.NoError(t, AttributeContext{ExternalProviderID: ext}.Validate())
	assert.NoError(t, AttributeContext{InternalProviderID: NewID()}.Validate())

	var invalid *InvalidAttributeContextError
	assert.ErrorAs(t, AttributeContext{PropID: prop, ExternalProviderID: ext}.Validate(), &invalid)
	assert.ErrorAs(t, AttributeContext{}.Validate(), &invalid)
}

func TestAttributeContext_Specificity(t *testing.T) {
	base := AttributeContext{PropID: NewID()}
	assert.True(t, base.LeastSpecific())

	specific := base
	specific.ComponentID = NewID()
	assert.False(t, specific.LeastSpecific())
	assert.True(t, specific.WithoutComponent().MatchesExactly(base))
	assert.False(t, specific.MatchesExactly(base))
}

func TestPropKind_MatchesValue(t *testing.T) {
	cases := []struct {
		kind PropKind
		raw  string
		ok   bool
	}{
		{PropKindString, `"hello"`, true},
		{PropKindString, `5`, false},
		{PropKindInteger, `5`, true},
		{PropKindInteger, `-3`, true},
		{PropKindInteger, `"5"`, false},
		{PropKindBoolean, `true`, true},
		{PropKindBoolean, `"true"`, false},
		{PropKindObject, `{"a": 1}`, true},
		{PropKindObject, `[1]`, false},
		{PropKindArray, `[1]`, true},
		{PropKindMap, `{"k": "v"}`, true},
		{PropKindString, `null`, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.kind.MatchesValue(json.RawMessage(c.raw)), "%s against %s", c.kind, c.raw)
	}
}

func TestPropPath_Navigation(t *testing.T) {
	p := NewPropPath("root", "domain", "color")
	assert.Equal(t, PropPath("root/domain/color"), p)
	assert.Equal(t, PropPath("root/domain"), p.Parent())
	assert.Equal(t, "color", p.Name())
	assert.True(t, p.IsDescendantOf(NewPropPath("root", "domain")))
	assert.True(t, p.IsDescendantOf(NewPropPath("root")))
	assert.False(t, p.IsDescendantOf(NewPropPath("root", "secrets")))
	assert.False(t, NewPropPath("root", "domainx").IsDescendantOf(NewPropPath("root", "domain")))
}

func TestRootPropChild_Paths(t *testing.T) {
	assert.Equal(t, PropPath("root/domain"), RootPropChildDomain.Path())
	assert.Equal(t, PropPath("root/si/name"), SiPropChildName.Path())
}
