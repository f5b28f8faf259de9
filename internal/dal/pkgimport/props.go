// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pkgimport

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/rigzba21/si/internal/dal/action"
	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/prop"
	"github.com/rigzba21/si/internal/dal/schema"
	"github.com/rigzba21/si/pkg/sipkg"
)

// sideEffects accumulates everything the prop walk defers: the walk
// only creates props, and the queued work flushes after finalize in a
// fixed order. Two phases, one goroutine, no shared mutable state.
type sideEffects struct {
	defaults      []pendingDefault
	siPropFuncs   []pendingAttrFunc
	rootPropFuncs []pendingAttrFunc
	propAttrFuncs []pendingAttrFunc
	mapKeyFuncs   []pendingMapKeyFunc
}

type pendingDefault struct {
	propID model.ID
	value  json.RawMessage
}

type pendingAttrFunc struct {
	target       model.AttributeContext
	funcUniqueID string
	inputs       []sipkg.AttrFuncInput
}

type pendingMapKeyFunc struct {
	propID       model.ID
	key          string
	funcUniqueID string
	inputs       []sipkg.AttrFuncInput
}

// buildVariant creates a variant from its spec: prop trees under
// domain, secrets and resource_value, sockets, action and auth
// attachments, then finalize, then the deferred side effects in order
// (defaults, the name default, si prop funcs, root prop funcs, prop
// attribute funcs, map key funcs).
func (im *Importer) buildVariant(ctx context.Context, tx *datastore.Tx, st *importState, sch *model.Schema, vs sipkg.SchemaVariantSpec) (*model.SchemaVariant, error) {
	v, err := schema.NewVariant(ctx, tx, model.SchemaVariant{
		SchemaID: sch.ID,
		Name:     vs.Name,
		Color:    vs.Color,
		Link:     vs.Link,
	})
	if err != nil {
		return nil, err
	}

	acc := &sideEffects{}
	trees := []struct {
		root model.RootPropChild
		spec *sipkg.PropSpec
	}{
		{model.RootPropChildDomain, vs.Domain},
		{model.RootPropChildSecrets, vs.Secrets},
		{model.RootPropChildResourceValue, vs.ResourceValue},
	}
	for _, t := range trees {
		if t.spec == nil {
			continue
		}
		parent, err := prop.FindByPath(ctx, tx, v.ID, t.root.Path())
		if err != nil {
			return nil, err
		}
		for i := range t.spec.Children {
			if err := createPropTree(ctx, tx, v.ID, parent, &t.spec.Children[i], acc); err != nil {
				return nil, err
			}
		}
		// A function on the tree root itself drives the whole child
		// document.
		if t.spec.FuncUniqueID != "" {
			acc.rootPropFuncs = append(acc.rootPropFuncs, pendingAttrFunc{
				target:       model.AttributeContext{PropID: parent.ID},
				funcUniqueID: t.spec.FuncUniqueID,
				inputs:       t.spec.Inputs,
			})
		}
	}

	if err := im.createSockets(ctx, tx, st, v, vs.Sockets, acc); err != nil {
		return nil, err
	}
	if err := im.attachActionFuncs(ctx, tx, st, v, vs.ActionFuncs); err != nil {
		return nil, err
	}
	if err := im.attachAuthFuncs(ctx, tx, st, v, vs.AuthFuncs); err != nil {
		return nil, err
	}
	if err := im.collectSiPropFuncs(ctx, tx, v, vs.SiPropFuncs, acc); err != nil {
		return nil, err
	}
	if err := im.collectRootPropFuncs(ctx, tx, v, vs.RootPropFuncs, acc); err != nil {
		return nil, err
	}

	if err := schema.Finalize(ctx, tx, im.exec, v.ID); err != nil {
		return nil, err
	}
	if err := im.flushSideEffects(ctx, tx, st, sch, v, acc); err != nil {
		return nil, err
	}
	return v, nil
}

// createPropTree visits one PropSpec node depth-first, creating the
// prop and queueing its deferred work.
func createPropTree(ctx context.Context, tx *datastore.Tx, variantID model.ID, parent *model.Prop, spec *sipkg.PropSpec, acc *sideEffects) error {
	p, err := prop.New(ctx, tx, model.Prop{
		SchemaVariantID: variantID,
		ParentPropID:    parent.ID,
		Name:            spec.Name,
		Kind:            model.PropKind(spec.Kind),
		WidgetKind:      spec.WidgetKind,
		WidgetOptions:   spec.WidgetOptions,
		Hidden:          spec.Hidden,
		DocLink:         spec.DocLink,
		Documentation:   spec.Documentation,
		LooselyTyped:    spec.LooselyTyped,
	})
	if err != nil {
		return err
	}

	if len(spec.DefaultValue) > 0 {
		acc.defaults = append(acc.defaults, pendingDefault{propID: p.ID, value: spec.DefaultValue})
	}
	if spec.FuncUniqueID != "" {
		acc.propAttrFuncs = append(acc.propAttrFuncs, pendingAttrFunc{
			target:       model.AttributeContext{PropID: p.ID},
			funcUniqueID: spec.FuncUniqueID,
			inputs:       spec.Inputs,
		})
	}
	for _, mk := range spec.MapKeyFuncs {
		acc.mapKeyFuncs = append(acc.mapKeyFuncs, pendingMapKeyFunc{
			propID:       p.ID,
			key:          mk.Key,
			funcUniqueID: mk.FuncUniqueID,
			inputs:       mk.Inputs,
		})
	}

	if spec.Entry != nil {
		if err := createPropTree(ctx, tx, variantID, p, spec.Entry, acc); err != nil {
			return err
		}
	}
	for i := range spec.Children {
		if err := createPropTree(ctx, tx, variantID, p, &spec.Children[i], acc); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) createSockets(ctx context.Context, tx *datastore.Tx, st *importState, v *model.SchemaVariant, specs []sipkg.SocketSpec, acc *sideEffects) error {
	changeSetID := tx.Visibility().ChangeSetID

	for _, ss := range specs {
		arity := model.SocketArity(ss.Arity)
		switch ss.Kind {
		case sipkg.SocketInput:
			existing, err := attribute.FindInternalProviderByName(ctx, tx, v.ID, ss.Name)
			if err != nil {
				return err
			}
			if existing == nil {
				existing, err = schema.NewInputSocket(ctx, tx, v.ID, ss.Name, arity)
				if err != nil {
					return err
				}
			}
			st.thingMap.Insert(changeSetID, ss.UniqueID, Thing{InternalProvider: existing})

		case sipkg.SocketOutput:
			existing, err := attribute.FindExternalProviderByName(ctx, tx, v.ID, ss.Name)
			if err != nil {
				return err
			}
			if existing == nil {
				existing, _, err = schema.NewOutputSocket(ctx, tx, v.ID, ss.Name, arity)
				if err != nil {
					return err
				}
			}
			st.thingMap.Insert(changeSetID, ss.UniqueID, Thing{ExternalProvider: existing})

			if ss.FuncUniqueID != "" {
				acc.propAttrFuncs = append(acc.propAttrFuncs, pendingAttrFunc{
					target:       model.AttributeContext{ExternalProviderID: existing.ID},
					funcUniqueID: ss.FuncUniqueID,
					inputs:       ss.Inputs,
				})
			}
		}
	}
	return nil
}

// attachActionFuncs reconciles a variant's action prototypes: update
// the kind in place, create the missing, delete the flagged.
func (im *Importer) attachActionFuncs(ctx context.Context, tx *datastore.Tx, st *importState, v *model.SchemaVariant, specs []sipkg.ActionFuncSpec) error {
	changeSetID := tx.Visibility().ChangeSetID

	for _, as := range specs {
		fn, err := im.resolveFunc(ctx, tx, st, as.FuncUniqueID, "action func on variant "+v.Name)
		if err != nil {
			return err
		}

		existing, err := action.FindForVariantAndFunc(ctx, tx, v.ID, fn.ID)
		if err != nil {
			return err
		}

		if as.Deleted {
			if existing != nil {
				if err := action.DeletePrototype(ctx, tx, existing.ID); err != nil {
					return err
				}
			}
			continue
		}

		if existing != nil {
			if err := action.SetKind(ctx, tx, existing, model.ActionKind(as.Kind)); err != nil {
				return err
			}
			st.thingMap.Insert(changeSetID, as.UniqueID, Thing{ActionPrototype: existing})
			continue
		}

		created, err := action.NewPrototype(ctx, tx, model.ActionPrototype{
			SchemaVariantID: v.ID,
			FuncID:          fn.ID,
			Kind:            model.ActionKind(as.Kind),
			Name:            as.Name,
		})
		if err != nil {
			return err
		}
		st.thingMap.Insert(changeSetID, as.UniqueID, Thing{ActionPrototype: created})
	}
	return nil
}

func (im *Importer) attachAuthFuncs(ctx context.Context, tx *datastore.Tx, st *importState, v *model.SchemaVariant, specs []sipkg.AuthFuncSpec) error {
	changeSetID := tx.Visibility().ChangeSetID

	for _, as := range specs {
		fn, err := im.resolveFunc(ctx, tx, st, as.FuncUniqueID, "auth func on variant "+v.Name)
		if err != nil {
			return err
		}
		existing, err := action.FindAuthPrototypeForFunc(ctx, tx, v.ID, fn.ID)
		if err != nil {
			return err
		}

		if as.Deleted {
			if existing != nil {
				if err := datastore.Delete(ctx, tx, datastore.KindAuthPrototype, existing.ID); err != nil {
					return err
				}
			}
			continue
		}
		if existing != nil {
			st.thingMap.Insert(changeSetID, as.UniqueID, Thing{AuthPrototype: existing})
			continue
		}
		created, err := action.NewAuthPrototype(ctx, tx, model.AuthPrototype{
			SchemaVariantID: v.ID,
			FuncID:          fn.ID,
		})
		if err != nil {
			return err
		}
		st.thingMap.Insert(changeSetID, as.UniqueID, Thing{AuthPrototype: created})
	}
	return nil
}

func (im *Importer) collectSiPropFuncs(ctx context.Context, tx *datastore.Tx, v *model.SchemaVariant, specs []sipkg.SiPropFuncSpec, acc *sideEffects) error {
	for _, ss := range specs {
		p, err := prop.FindByPath(ctx, tx, v.ID, model.SiPropChild(ss.Kind).Path())
		if err != nil {
			return err
		}
		if p == nil {
			continue
		}
		acc.siPropFuncs = append(acc.siPropFuncs, pendingAttrFunc{
			target:       model.AttributeContext{PropID: p.ID},
			funcUniqueID: ss.FuncUniqueID,
			inputs:       ss.Inputs,
		})
	}
	return nil
}

func (im *Importer) collectRootPropFuncs(ctx context.Context, tx *datastore.Tx, v *model.SchemaVariant, specs []sipkg.RootPropFuncSpec, acc *sideEffects) error {
	for _, rs := range specs {
		p, err := prop.FindByPath(ctx, tx, v.ID, model.RootPropChild(rs.Prop).Path())
		if err != nil {
			return err
		}
		if p == nil {
			continue
		}
		inputs := rs.Inputs
		// A resource_value transform with no declared inputs feeds on
		// the live resource payload.
		if len(inputs) == 0 && rs.FuncUniqueID == funcs.NameResourcePayloadToValue {
			inputs = []sipkg.AttrFuncInput{{
				Name:     "payload",
				Kind:     sipkg.AttrFuncInputProp,
				PropPath: string(model.RootPropChildResource.Path().Join("payload")),
			}}
		}
		acc.rootPropFuncs = append(acc.rootPropFuncs, pendingAttrFunc{
			target:       model.AttributeContext{PropID: p.ID},
			funcUniqueID: rs.FuncUniqueID,
			inputs:       inputs,
		})
	}
	return nil
}

// flushSideEffects drains the accumulator after finalize: default
// values first so attribute functions see them, then the function
// attachments from the most generic surface inward.
func (im *Importer) flushSideEffects(ctx context.Context, tx *datastore.Tx, st *importState, sch *model.Schema, v *model.SchemaVariant, acc *sideEffects) error {
	for _, d := range acc.defaults {
		if err := schema.SetDefaultValue(ctx, tx, im.exec, d.propID, d.value); err != nil {
			return err
		}
	}

	// New components start out named after their schema.
	namePath := model.SiPropChildName.Path()
	nameProp, err := prop.FindByPath(ctx, tx, v.ID, namePath)
	if err != nil {
		return err
	}
	if nameProp != nil && len(nameProp.DefaultValue) == 0 {
		defaultName, err := json.Marshal(sch.Name)
		if err != nil {
			return err
		}
		if err := schema.SetDefaultValue(ctx, tx, im.exec, nameProp.ID, defaultName); err != nil {
			return err
		}
	}

	for _, group := range [][]pendingAttrFunc{acc.siPropFuncs, acc.rootPropFuncs, acc.propAttrFuncs} {
		for _, af := range group {
			if err := im.applyAttrFunc(ctx, tx, st, v, af, ""); err != nil {
				return err
			}
		}
	}
	for _, mk := range acc.mapKeyFuncs {
		af := pendingAttrFunc{
			target:       model.AttributeContext{PropID: mk.propID},
			funcUniqueID: mk.funcUniqueID,
			inputs:       mk.inputs,
		}
		if err := im.applyAttrFunc(ctx, tx, st, v, af, mk.key); err != nil {
			return err
		}
	}
	return nil
}

// applyAttrFunc binds a function to a variant-level context, wires its
// arguments to providers and refreshes the affected value.
func (im *Importer) applyAttrFunc(ctx context.Context, tx *datastore.Tx, st *importState, v *model.SchemaVariant, af pendingAttrFunc, key string) error {
	fn, err := im.resolveFunc(ctx, tx, st, af.funcUniqueID, "attribute func on variant "+v.Name)
	if err != nil {
		return err
	}

	proto, err := attribute.FindPrototypeForContext(ctx, tx, af.target, key)
	if err != nil {
		return err
	}
	if proto == nil {
		proto, err = attribute.NewPrototype(ctx, tx, af.target, fn.ID, key)
		if err != nil {
			return err
		}
	} else if proto.FuncID != fn.ID {
		proto.FuncID = fn.ID
		if err := attribute.UpdatePrototype(ctx, tx, proto); err != nil {
			return err
		}
	}

	if err := im.wirePrototypeInputs(ctx, tx, v, proto, fn, af.inputs); err != nil {
		return err
	}

	target, err := attribute.FindValueForContext(ctx, tx, af.target, key)
	if err != nil {
		var nf *attribute.NotFoundForReadContextError
		if !attribute.AsNotFoundForReadContext(err, &nf) {
			return err
		}
		target, err = attribute.NewValue(ctx, tx, model.AttributeValue{
			Context:              af.target,
			Key:                  key,
			AttributePrototypeID: proto.ID,
		})
		if err != nil {
			return err
		}
	}
	if target.AttributePrototypeID != proto.ID {
		target.AttributePrototypeID = proto.ID
		if err := attribute.UpdateValue(ctx, tx, target); err != nil {
			return err
		}
	}
	return attribute.RefreshValue(ctx, tx, im.exec, target)
}

// wirePrototypeInputs reconciles a prototype's argument bindings to
// the inputs the package declares.
func (im *Importer) wirePrototypeInputs(ctx context.Context, tx *datastore.Tx, v *model.SchemaVariant, proto *model.AttributePrototype, fn *model.Func, inputs []sipkg.AttrFuncInput) error {
	existing, err := attribute.PrototypeArguments(ctx, tx, proto.ID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if err := attribute.DeletePrototypeArgument(ctx, tx, e.ID); err != nil {
			return err
		}
	}

	for _, in := range inputs {
		if in.Deleted {
			continue
		}
		funcArg, err := funcs.FindArgument(ctx, tx, fn.ID, in.Name)
		if err != nil {
			return err
		}
		if funcArg == nil {
			return &MissingFuncReferenceError{UniqueID: in.Name, Where: "argument of " + fn.Name}
		}

		apa := model.AttributePrototypeArgument{
			AttributePrototypeID: proto.ID,
			FuncArgumentID:       funcArg.ID,
		}
		switch in.Kind {
		case sipkg.AttrFuncInputProp:
			p, err := prop.FindByPath(ctx, tx, v.ID, model.PropPath(in.PropPath))
			if err != nil {
				return err
			}
			if p == nil {
				return &MissingFuncReferenceError{UniqueID: in.PropPath, Where: "prop input of " + fn.Name}
			}
			provider, err := attribute.ImplicitProviderForProp(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			if provider == nil {
				return &MissingFuncReferenceError{UniqueID: in.PropPath, Where: "implicit provider of " + fn.Name}
			}
			apa.InternalProviderID = provider.ID

		case sipkg.AttrFuncInputInputSocket:
			provider, err := attribute.FindInternalProviderByName(ctx, tx, v.ID, in.SocketName)
			if err != nil {
				return err
			}
			if provider == nil {
				return &MissingFuncReferenceError{UniqueID: in.SocketName, Where: "input socket of " + fn.Name}
			}
			apa.InternalProviderID = provider.ID

		case sipkg.AttrFuncInputOutputSocket:
			provider, err := attribute.FindExternalProviderByName(ctx, tx, v.ID, in.SocketName)
			if err != nil {
				return err
			}
			if provider == nil {
				return &MissingFuncReferenceError{UniqueID: in.SocketName, Where: "output socket of " + fn.Name}
			}
			apa.ExternalProviderID = provider.ID
		}

		if _, err := attribute.NewPrototypeArgument(ctx, tx, apa); err != nil {
			return err
		}
	}
	return nil
}
