// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build property

package model

import (
	"testing"

	"pgregory.net/rapid"
)

func segmentGen() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-zA-Z0-9_-]{1,16}`)
}

func TestPropPath_PropertyRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		segments := rapid.SliceOfN(segmentGen(), 1, 8).Draw(rt, "segments")

		p := NewPropPath(segments...)
		if got := p.Segments(); len(got) != len(segments) {
			rt.Fatalf("segment count changed: %v -> %v", segments, got)
		} else {
			for i := range segments {
				if got[i] != segments[i] {
					rt.Fatalf("segment %d changed: %q -> %q", i, segments[i], got[i])
				}
			}
		}

		if p.Name() != segments[len(segments)-1] {
			rt.Fatalf("name %q does not match last segment %q", p.Name(), segments[len(segments)-1])
		}

		if len(segments) > 1 {
			parent := p.Parent()
			if parent.Join(p.Name()) != p {
				rt.Fatalf("parent+join does not reconstruct %q", p)
			}
			if !p.IsDescendantOf(parent) {
				rt.Fatalf("%q should descend from %q", p, parent)
			}
		}

		// A path never descends from a stranger sharing only a name prefix.
		sibling := NewPropPath(segments...).Parent().Join(p.Name() + "x")
		if p.IsDescendantOf(sibling) {
			rt.Fatalf("%q should not descend from %q", p, sibling)
		}
	})
}
