// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package schema

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/prop"
)

// Finalize makes a variant usable: every prop gets an implicit
// internal provider, a component-less default prototype and, outside
// map and array elements, a default value row mirroring the tree.
// Finalize is idempotent; imports call it again after adding props.
func Finalize(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, variantID model.ID) error {
	unset, err := funcs.FindByName(ctx, tx, funcs.NameUnset)
	if err != nil {
		return err
	}
	if unset == nil {
		return &funcs.MissingIntrinsicError{Name: funcs.NameUnset}
	}

	props, err := prop.ListForVariant(ctx, tx, variantID)
	if err != nil {
		return err
	}

	// Creation order is parent-before-child, so parent value ids are
	// always known by the time a child needs one.
	valueByProp := map[model.ID]model.ID{}
	kindByProp := map[model.ID]model.PropKind{}
	for _, p := range props {
		kindByProp[p.ID] = p.Kind
	}

	for _, p := range props {
		if err := ensureImplicitProvider(ctx, tx, &p); err != nil {
			return err
		}

		attrCtx := model.AttributeContext{PropID: p.ID}
		proto, err := attribute.FindPrototypeForContext(ctx, tx, attrCtx, "")
		if err != nil {
			return err
		}
		if proto == nil {
			proto, err = attribute.NewPrototype(ctx, tx, attrCtx, unset.ID, "")
			if err != nil {
				return err
			}
		}

		// Entries of maps and arrays only exist per key.
		if parentKind, ok := kindByProp[p.ParentPropID]; ok &&
			(parentKind == model.PropKindMap || parentKind == model.PropKindArray) {
			continue
		}

		existing, err := attribute.FindValueForContext(ctx, tx, attrCtx, "")
		if err == nil {
			valueByProp[p.ID] = existing.ID
			continue
		}
		var nf *attribute.NotFoundForReadContextError
		if !attribute.AsNotFoundForReadContext(err, &nf) {
			return err
		}

		binding, rv, _, err := funcs.CreateAndExecute(ctx, tx, funcs.NopExecutor{}, unset.ID, nil, nil)
		if err != nil {
			return err
		}
		v, err := attribute.NewValue(ctx, tx, model.AttributeValue{
			Context:                  attrCtx,
			ParentValueID:            valueByProp[p.ParentPropID],
			AttributePrototypeID:     proto.ID,
			FuncBindingID:            binding.ID,
			FuncBindingReturnValueID: rv.ID,
		})
		if err != nil {
			return err
		}
		valueByProp[p.ID] = v.ID
	}

	variant, err := GetVariant(ctx, tx, variantID)
	if err != nil {
		return err
	}
	if !variant.Finalized {
		variant.Finalized = true
		if err := UpdateVariant(ctx, tx, variant); err != nil {
			return err
		}
	}

	// Defaults recorded on props apply after the graph exists.
	for _, p := range props {
		if len(p.DefaultValue) == 0 {
			continue
		}
		if err := SetDefaultValue(ctx, tx, exec, p.ID, p.DefaultValue); err != nil {
			return err
		}
	}
	return nil
}

func ensureImplicitProvider(ctx context.Context, tx *datastore.Tx, p *model.Prop) error {
	existing, err := attribute.ImplicitProviderForProp(ctx, tx, p.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = attribute.NewInternalProvider(ctx, tx, model.InternalProvider{
		SchemaVariantID: p.SchemaVariantID,
		PropID:          p.ID,
		Name:            string(p.Path),
		Hidden:          true,
	})
	return err
}

// SetDefaultValue writes a variant-level default for a prop and
// records it on the prop itself so re-finalization keeps it.
func SetDefaultValue(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, propID model.ID, value json.RawMessage) error {
	p, err := prop.Get(ctx, tx, propID)
	if err != nil {
		return err
	}

	attrCtx := model.AttributeContext{PropID: p.ID}
	v, err := attribute.FindValueForContext(ctx, tx, attrCtx, "")
	if err != nil {
		return err
	}
	if _, err := attribute.UpdateForContext(ctx, tx, exec, v.ID, attrCtx, value, ""); err != nil {
		return err
	}

	if string(p.DefaultValue) != string(value) {
		p.DefaultValue = value
		if err := prop.Update(ctx, tx, p); err != nil {
			return err
		}
	}
	return nil
}
