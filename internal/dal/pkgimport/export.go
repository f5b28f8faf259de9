// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pkgimport

import (
	"context"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/component"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/prop"
	"github.com/rigzba21/si/pkg/sipkg"
)

// ExportVariantComponents renders a variant's live components and the
// edges between them back into specs. The component id doubles as the
// spec unique id, so exported edges resolve after a re-import.
func ExportVariantComponents(ctx context.Context, tx *datastore.Tx, sch *model.Schema, variant *model.SchemaVariant) ([]sipkg.ComponentSpec, []sipkg.EdgeSpec, error) {
	comps, err := component.ListForVariant(ctx, tx, variant.ID)
	if err != nil {
		return nil, nil, err
	}

	ids := make(map[model.ID]bool, len(comps))
	var componentSpecs []sipkg.ComponentSpec
	for i := range comps {
		spec, err := ExportComponent(ctx, tx, sch, variant, &comps[i])
		if err != nil {
			return nil, nil, err
		}
		componentSpecs = append(componentSpecs, *spec)
		ids[comps[i].ID] = true
	}

	edges, err := component.ListEdges(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	var edgeSpecs []sipkg.EdgeSpec
	for i := range edges {
		e := &edges[i]
		if !ids[e.TailComponentID] && !ids[e.HeadComponentID] {
			continue
		}
		edgeSpecs = append(edgeSpecs, ExportEdge(e))
	}
	return componentSpecs, edgeSpecs, nil
}

// ExportComponent captures one component: its rendered value document,
// its component-specific function bindings, placement and lifecycle
// flags.
func ExportComponent(ctx context.Context, tx *datastore.Tx, sch *model.Schema, variant *model.SchemaVariant, c *model.Component) (*sipkg.ComponentSpec, error) {
	name, err := component.Name(ctx, tx, c)
	if err != nil {
		return nil, err
	}
	doc, err := component.View(ctx, tx, c.ID)
	if err != nil {
		return nil, err
	}

	spec := &sipkg.ComponentSpec{
		UniqueID:      c.ID.String(),
		Name:          name,
		SchemaName:    sch.Name,
		VariantName:   variant.Name,
		NeedsDestroy:  c.NeedsDestroy,
		Deleted:       c.DeletedAt != nil,
		ImplicitValue: doc,
	}

	pos, err := component.GetPosition(ctx, tx, c.ID)
	if err != nil {
		return nil, err
	}
	if pos != nil {
		spec.Position = &sipkg.ComponentPosition{X: pos.X, Y: pos.Y, Width: pos.Width, Height: pos.Height}
	}

	props, err := prop.ListForVariant(ctx, tx, variant.ID)
	if err != nil {
		return nil, err
	}
	for i := range props {
		p := &props[i]
		attrCtx := model.AttributeContext{PropID: p.ID, ComponentID: c.ID}
		proto, err := attribute.FindPrototypeForContext(ctx, tx, attrCtx, "")
		if err != nil {
			return nil, err
		}
		if proto == nil {
			continue
		}
		fn, err := funcs.Get(ctx, tx, proto.FuncID)
		if err != nil {
			return nil, err
		}
		if fn.IsIntrinsic() {
			continue
		}
		inputs, err := exportPrototypeInputs(ctx, tx, proto)
		if err != nil {
			return nil, err
		}
		spec.Attributes = append(spec.Attributes, sipkg.AttributeValueSpec{
			PropPath:     string(p.Path),
			FuncUniqueID: fn.Name,
			Inputs:       inputs,
		})
	}
	return spec, nil
}

// ExportEdge captures an edge's endpoints by component unique id and
// socket name.
func ExportEdge(e *model.Edge) sipkg.EdgeSpec {
	return sipkg.EdgeSpec{
		UniqueID:              e.ID.String(),
		FromComponentUniqueID: e.TailComponentID.String(),
		FromSocketName:        e.TailSocketName,
		ToComponentUniqueID:   e.HeadComponentID.String(),
		ToSocketName:          e.HeadSocketName,
		CreatedBy:             e.CreatedBy,
		DeletedBy:             e.DeletedBy,
		Deleted:               e.DeletedAt != nil,
	}
}

// exportPrototypeInputs renders a prototype's argument bindings back
// into input declarations.
func exportPrototypeInputs(ctx context.Context, tx *datastore.Tx, proto *model.AttributePrototype) ([]sipkg.AttrFuncInput, error) {
	args, err := attribute.PrototypeArguments(ctx, tx, proto.ID)
	if err != nil {
		return nil, err
	}

	var out []sipkg.AttrFuncInput
	for i := range args {
		apa := &args[i]
		funcArg, err := datastore.Get[model.FuncArgument](ctx, tx, datastore.KindFuncArgument, apa.FuncArgumentID)
		if err != nil {
			return nil, err
		}
		in := sipkg.AttrFuncInput{Name: funcArg.Name, UniqueID: apa.ID.String()}

		switch {
		case apa.ExternalProviderID.IsSome():
			provider, err := attribute.GetExternalProvider(ctx, tx, apa.ExternalProviderID)
			if err != nil {
				return nil, err
			}
			in.Kind = sipkg.AttrFuncInputOutputSocket
			in.SocketName = provider.Name

		case apa.InternalProviderID.IsSome():
			provider, err := attribute.GetInternalProvider(ctx, tx, apa.InternalProviderID)
			if err != nil {
				return nil, err
			}
			if provider.IsImplicit() {
				srcProp, err := prop.Get(ctx, tx, provider.PropID)
				if err != nil {
					return nil, err
				}
				in.Kind = sipkg.AttrFuncInputProp
				in.PropPath = string(srcProp.Path)
			} else {
				in.Kind = sipkg.AttrFuncInputInputSocket
				in.SocketName = provider.Name
			}

		default:
			continue
		}
		out = append(out, in)
	}
	return out, nil
}
