// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pkgimport

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/component"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/prop"
	"github.com/rigzba21/si/internal/dal/schema"
	"github.com/rigzba21/si/pkg/sipkg"
)

// importComponent restores one packaged component under the current
// visibility. Unresolvable attributes become skips; a missing schema
// or variant fails the run, since nothing sensible can be restored
// without one.
func (im *Importer) importComponent(ctx context.Context, tx *datastore.Tx, st *importState, cs sipkg.ComponentSpec) error {
	changeSetID := tx.Visibility().ChangeSetID

	// Overlays update components the head pass already restored.
	existing := im.lookupComponent(st, changeSetID, cs.UniqueID)

	if cs.Deleted {
		if existing != nil {
			now := time.Now().UTC()
			existing.DeletedAt = &now
			existing.NeedsDestroy = cs.NeedsDestroy
			if err := component.Update(ctx, tx, existing); err != nil {
				return err
			}
		}
		return nil
	}

	sch, err := schema.FindByName(ctx, tx, cs.SchemaName)
	if err != nil {
		return err
	}
	var variant *model.SchemaVariant
	if sch != nil {
		variant, err = schema.FindVariantByName(ctx, tx, sch.ID, cs.VariantName)
		if err != nil {
			return err
		}
	}
	if variant == nil {
		return &MissingVariantReferenceError{
			ComponentUniqueID: cs.UniqueID,
			SchemaName:        cs.SchemaName,
			VariantName:       cs.VariantName,
		}
	}

	c := existing
	if c == nil {
		c, err = component.New(ctx, tx, im.exec, cs.Name, variant.ID)
		if err != nil {
			return err
		}
	} else {
		if c.DeletedAt != nil {
			c.DeletedAt = nil
			if err := component.Update(ctx, tx, c); err != nil {
				return err
			}
		}
		if err := component.SetName(ctx, tx, im.exec, c, cs.Name); err != nil {
			return err
		}
	}
	st.thingMap.Insert(changeSetID, cs.UniqueID, Thing{Component: c})

	if err := im.writeImplicitValue(ctx, tx, c, cs.ImplicitValue); err != nil {
		return err
	}
	for _, as := range cs.Attributes {
		if err := im.importAttribute(ctx, tx, st, c, variant, cs.UniqueID, as); err != nil {
			return err
		}
	}

	if err := component.SetNeedsDestroy(ctx, tx, c, cs.NeedsDestroy); err != nil {
		return err
	}
	if cs.Position != nil {
		pos := model.ComponentPosition{
			X:      cs.Position.X,
			Y:      cs.Position.Y,
			Width:  cs.Position.Width,
			Height: cs.Position.Height,
		}
		if err := component.SetPosition(ctx, tx, c.ID, pos); err != nil {
			return err
		}
	}
	return nil
}

// writeImplicitValue applies the packaged value document, one root
// child at a time. Resource state only restores onto head; change set
// overlays never carry their own live resource.
func (im *Importer) writeImplicitValue(ctx context.Context, tx *datastore.Tx, c *model.Component, doc json.RawMessage) error {
	if len(doc) == 0 {
		return nil
	}
	var outer error
	gjson.ParseBytes(doc).ForEach(func(key, value gjson.Result) bool {
		child := model.RootPropChild(key.String())
		if child == model.RootPropChildResource && !tx.Visibility().IsHead() {
			return true
		}
		if err := writeComponentProp(ctx, tx, im.exec, c, child.Path(), json.RawMessage(value.Raw)); err != nil {
			outer = err
			return false
		}
		return true
	})
	return outer
}

// importAttribute applies one packaged attribute write, collecting a
// skip instead of failing when the target variant diverged from the
// one the package was built against.
func (im *Importer) importAttribute(ctx context.Context, tx *datastore.Tx, st *importState, c *model.Component, variant *model.SchemaVariant, componentUniqueID string, as sipkg.AttributeValueSpec) error {
	p, err := prop.FindByPath(ctx, tx, variant.ID, model.PropPath(as.PropPath))
	if err != nil {
		return err
	}
	if p == nil {
		st.result.Skips.addAttribute(AttributeSkip{
			ComponentUniqueID: componentUniqueID,
			PropPath:          as.PropPath,
			Reason:            SkipMissingProp,
		})
		return nil
	}
	if len(as.Value) > 0 && !p.LooselyTyped && !p.Kind.MatchesValue(as.Value) {
		st.result.Skips.addAttribute(AttributeSkip{
			ComponentUniqueID: componentUniqueID,
			PropPath:          as.PropPath,
			Reason:            SkipKindMismatch,
			Detail:            "value does not match prop kind " + string(p.Kind),
		})
		return nil
	}

	attrCtx := model.AttributeContext{PropID: p.ID, ComponentID: c.ID}

	if as.FuncUniqueID != "" {
		return im.importAttributeFunc(ctx, tx, st, c, variant, componentUniqueID, as, attrCtx)
	}

	// Keyed map and array entries have no pre-existing row to resolve;
	// the write creates one.
	_, err = attribute.UpdateForContextOrCreate(ctx, tx, im.exec, attrCtx, as.Value, as.Key)
	return err
}

// importAttributeFunc repoints the attribute's prototype at a packaged
// function and rewires its inputs, refreshing the value afterwards.
func (im *Importer) importAttributeFunc(ctx context.Context, tx *datastore.Tx, st *importState, c *model.Component, variant *model.SchemaVariant, componentUniqueID string, as sipkg.AttributeValueSpec, attrCtx model.AttributeContext) error {
	fn, err := im.resolveFunc(ctx, tx, st, as.FuncUniqueID, "attribute of component "+componentUniqueID)
	if err != nil {
		var missing *MissingFuncReferenceError
		if errorsAs(err, &missing) {
			st.result.Skips.addAttribute(AttributeSkip{
				ComponentUniqueID: componentUniqueID,
				PropPath:          as.PropPath,
				Reason:            SkipMissingFunc,
				Detail:            as.FuncUniqueID,
			})
			return nil
		}
		return err
	}

	target, err := attribute.FindValueForContext(ctx, tx, attrCtx, as.Key)
	if err != nil {
		return err
	}
	proto, err := attribute.GetPrototype(ctx, tx, target.AttributePrototypeID)
	if err != nil {
		return err
	}
	proto, err = attribute.SetPrototypeFunc(ctx, tx, proto, fn.ID, c.ID)
	if err != nil {
		return err
	}
	if target.AttributePrototypeID != proto.ID {
		target.AttributePrototypeID = proto.ID
		if err := attribute.UpdateValue(ctx, tx, target); err != nil {
			return err
		}
	}

	wired, err := im.wireComponentInputs(ctx, tx, st, variant, proto, fn, componentUniqueID, as)
	if err != nil {
		return err
	}
	if !wired {
		return nil
	}
	return attribute.RefreshValue(ctx, tx, im.exec, target)
}

// wireComponentInputs reconciles a component-level prototype's
// arguments. A socket the variant no longer has becomes a skip and
// leaves the prototype unwired, reported via the false return.
func (im *Importer) wireComponentInputs(ctx context.Context, tx *datastore.Tx, st *importState, variant *model.SchemaVariant, proto *model.AttributePrototype, fn *model.Func, componentUniqueID string, as sipkg.AttributeValueSpec) (bool, error) {
	type resolved struct {
		funcArgumentID     model.ID
		internalProviderID model.ID
		externalProviderID model.ID
	}
	var pending []resolved

	for _, in := range as.Inputs {
		if in.Deleted {
			continue
		}
		funcArg, err := funcs.FindArgument(ctx, tx, fn.ID, in.Name)
		if err != nil {
			return false, err
		}
		if funcArg == nil {
			st.result.Skips.addAttribute(AttributeSkip{
				ComponentUniqueID: componentUniqueID,
				PropPath:          as.PropPath,
				Reason:            SkipMissingFunc,
				Detail:            "no argument " + in.Name + " on " + fn.Name,
			})
			return false, nil
		}

		r := resolved{funcArgumentID: funcArg.ID}
		switch in.Kind {
		case sipkg.AttrFuncInputProp:
			srcProp, err := prop.FindByPath(ctx, tx, variant.ID, model.PropPath(in.PropPath))
			if err != nil {
				return false, err
			}
			if srcProp == nil {
				st.result.Skips.addAttribute(AttributeSkip{
					ComponentUniqueID: componentUniqueID,
					PropPath:          as.PropPath,
					Reason:            SkipMissingProp,
					Detail:            in.PropPath,
				})
				return false, nil
			}
			provider, err := attribute.ImplicitProviderForProp(ctx, tx, srcProp.ID)
			if err != nil {
				return false, err
			}
			if provider == nil {
				st.result.Skips.addAttribute(AttributeSkip{
					ComponentUniqueID: componentUniqueID,
					PropPath:          as.PropPath,
					Reason:            SkipMissingProp,
					Detail:            in.PropPath,
				})
				return false, nil
			}
			r.internalProviderID = provider.ID

		case sipkg.AttrFuncInputInputSocket:
			provider, err := attribute.FindInternalProviderByName(ctx, tx, variant.ID, in.SocketName)
			if err != nil {
				return false, err
			}
			if provider == nil {
				st.result.Skips.addAttribute(AttributeSkip{
					ComponentUniqueID: componentUniqueID,
					PropPath:          as.PropPath,
					Reason:            SkipMissingInputSocket,
					Detail:            in.SocketName,
				})
				return false, nil
			}
			r.internalProviderID = provider.ID

		case sipkg.AttrFuncInputOutputSocket:
			provider, err := attribute.FindExternalProviderByName(ctx, tx, variant.ID, in.SocketName)
			if err != nil {
				return false, err
			}
			if provider == nil {
				st.result.Skips.addAttribute(AttributeSkip{
					ComponentUniqueID: componentUniqueID,
					PropPath:          as.PropPath,
					Reason:            SkipMissingOutputSocket,
					Detail:            in.SocketName,
				})
				return false, nil
			}
			r.externalProviderID = provider.ID
		}
		pending = append(pending, r)
	}

	existing, err := attribute.PrototypeArguments(ctx, tx, proto.ID)
	if err != nil {
		return false, err
	}
	for _, e := range existing {
		if err := attribute.DeletePrototypeArgument(ctx, tx, e.ID); err != nil {
			return false, err
		}
	}
	for _, r := range pending {
		apa := model.AttributePrototypeArgument{
			AttributePrototypeID: proto.ID,
			FuncArgumentID:       r.funcArgumentID,
			InternalProviderID:   r.internalProviderID,
			ExternalProviderID:   r.externalProviderID,
		}
		if _, err := attribute.NewPrototypeArgument(ctx, tx, apa); err != nil {
			return false, err
		}
	}
	return true, nil
}

// writeComponentProp sets a prop's value for a component by path.
func writeComponentProp(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, c *model.Component, path model.PropPath, value json.RawMessage) error {
	p, err := prop.FindByPath(ctx, tx, c.SchemaVariantID, path)
	if err != nil {
		return err
	}
	if p == nil {
		return &datastore.NotFoundError{Kind: datastore.KindProp}
	}
	attrCtx := model.AttributeContext{PropID: p.ID, ComponentID: c.ID}
	v, err := attribute.FindValueForContext(ctx, tx, attrCtx, "")
	if err != nil {
		return err
	}
	_, err = attribute.UpdateForContext(ctx, tx, exec, v.ID, attrCtx, value, "")
	return err
}
