// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package attribute

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
)

// UpdateForContext writes a value into the graph at the given context.
// The write resolves to the right row version on its own: a change set
// shadows head through the store, and writing a component context over
// a variant default promotes the value to a component-specific one
// without touching the default. Writing a container prop writes the
// subtree found in the JSON. Returns the id of the value now carrying
// the content.
func UpdateForContext(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, valueID model.ID, attrCtx model.AttributeContext, value json.RawMessage, key string) (model.ID, error) {
	if err := attrCtx.Validate(); err != nil {
		return model.IDNone, err
	}

	av, err := GetValue(ctx, tx, valueID)
	if err != nil {
		return model.IDNone, err
	}

	setterName, argName, err := setterFor(ctx, tx, attrCtx, value)
	if err != nil {
		return model.IDNone, err
	}
	setter, err := funcs.FindByName(ctx, tx, setterName)
	if err != nil {
		return model.IDNone, err
	}
	if setter == nil {
		return model.IDNone, &funcs.MissingIntrinsicError{Name: setterName}
	}

	args, err := singleArg(argName, value)
	if err != nil {
		return model.IDNone, err
	}
	binding, rv, _, err := funcs.CreateAndExecute(ctx, tx, exec, setter.ID, args, nil)
	if err != nil {
		return model.IDNone, err
	}

	proto, err := FindPrototypeForContext(ctx, tx, attrCtx, key)
	if err != nil {
		return model.IDNone, err
	}
	if proto == nil {
		proto, err = NewPrototype(ctx, tx, attrCtx, setter.ID, key)
		if err != nil {
			return model.IDNone, err
		}
	} else if proto.FuncID != setter.ID {
		proto.FuncID = setter.ID
		if err := UpdatePrototype(ctx, tx, proto); err != nil {
			return model.IDNone, err
		}
	}

	if !av.Context.MatchesExactly(attrCtx) {
		// Promote: the resolved value was a less specific default.
		parentID, err := resolveParentForContext(ctx, tx, av, attrCtx)
		if err != nil {
			return model.IDNone, err
		}
		av, err = NewValue(ctx, tx, model.AttributeValue{
			Context:                  attrCtx,
			Key:                      key,
			ParentValueID:            parentID,
			AttributePrototypeID:     proto.ID,
			FuncBindingID:            binding.ID,
			FuncBindingReturnValueID: rv.ID,
		})
		if err != nil {
			return model.IDNone, err
		}
	} else {
		av.AttributePrototypeID = proto.ID
		av.FuncBindingID = binding.ID
		av.FuncBindingReturnValueID = rv.ID
		if err := UpdateValue(ctx, tx, av); err != nil {
			return model.IDNone, err
		}
	}

	if attrCtx.PropID.IsSome() {
		if err := writeSubtree(ctx, tx, exec, av, attrCtx, value); err != nil {
			return model.IDNone, err
		}
	}

	if err := Propagate(ctx, tx, exec, av); err != nil {
		return model.IDNone, err
	}
	return av.ID, nil
}

// UpdateForContextOrCreate resolves the context's current value first,
// creating a bare row when nothing exists at any specificity, and then
// writes through UpdateForContext.
func UpdateForContextOrCreate(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, attrCtx model.AttributeContext, value json.RawMessage, key string) (model.ID, error) {
	v, err := FindValueForContext(ctx, tx, attrCtx, key)
	if err != nil {
		var nf *NotFoundForReadContextError
		if !asNotFound(err, &nf) {
			return model.IDNone, err
		}
		v, err = NewValue(ctx, tx, model.AttributeValue{Context: attrCtx, Key: key})
		if err != nil {
			return model.IDNone, err
		}
	}
	return UpdateForContext(ctx, tx, exec, v.ID, attrCtx, value, key)
}

// setterFor picks the intrinsic that writes a value at the context:
// unset for nulls, the prop kind's setter for props, identity for
// provider contexts.
func setterFor(ctx context.Context, tx *datastore.Tx, attrCtx model.AttributeContext, value json.RawMessage) (name string, argName string, err error) {
	if len(value) == 0 || string(value) == "null" {
		return funcs.NameUnset, "value", nil
	}
	if attrCtx.PropID.IsNone() {
		return funcs.NameIdentity, funcs.IdentityArgName, nil
	}
	prop, err := datastore.Get[model.Prop](ctx, tx, datastore.KindProp, attrCtx.PropID)
	if err != nil {
		return "", "", err
	}
	if !prop.LooselyTyped && !prop.Kind.MatchesValue(value) {
		return "", "", &ValueKindMismatchError{PropID: prop.ID, PropPath: prop.Path, Kind: prop.Kind}
	}
	return funcs.SetterForPropKind(prop.Kind), "value", nil
}

func singleArg(name string, value json.RawMessage) (json.RawMessage, error) {
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	return json.Marshal(map[string]json.RawMessage{name: value})
}

// resolveParentForContext finds the parent value a promoted value
// should hang off: the component-specific version of the default's
// parent when one exists, the shared parent otherwise.
func resolveParentForContext(ctx context.Context, tx *datastore.Tx, av *model.AttributeValue, attrCtx model.AttributeContext) (model.ID, error) {
	if av.ParentValueID.IsNone() || attrCtx.ComponentID.IsNone() {
		return av.ParentValueID, nil
	}
	parent, err := GetValue(ctx, tx, av.ParentValueID)
	if err != nil {
		return model.IDNone, err
	}
	if parent.Context.ComponentID == attrCtx.ComponentID {
		return parent.ID, nil
	}
	parentCtx := parent.Context
	parentCtx.ComponentID = attrCtx.ComponentID
	specific, err := FindValueForContext(ctx, tx, parentCtx, parent.Key)
	if err != nil {
		var nf *NotFoundForReadContextError
		if asNotFound(err, &nf) {
			return parent.ID, nil
		}
		return model.IDNone, err
	}
	if specific.Context.ComponentID == attrCtx.ComponentID {
		return specific.ID, nil
	}
	return parent.ID, nil
}

// writeSubtree pushes a container value's JSON down the prop tree so
// child values match the document that was written.
func writeSubtree(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, av *model.AttributeValue, attrCtx model.AttributeContext, value json.RawMessage) error {
	if len(value) == 0 || string(value) == "null" {
		return nil
	}
	prop, err := datastore.Get[model.Prop](ctx, tx, datastore.KindProp, attrCtx.PropID)
	if err != nil {
		return err
	}
	if !prop.Kind.IsContainer() {
		return nil
	}

	children, err := datastore.List[model.Prop](ctx, tx, datastore.KindProp,
		datastore.Eq("parent_prop_id", prop.ID.String()))
	if err != nil {
		return err
	}

	switch prop.Kind {
	case model.PropKindObject:
		for i := range children {
			child := children[i]
			field := gjson.GetBytes(value, escapeGjsonKey(child.Name))
			if !field.Exists() {
				// The document is the whole object; an omitted field
				// reads as unset.
				if err := writeChild(ctx, tx, exec, av, attrCtx, child, nil, ""); err != nil {
					return err
				}
				continue
			}
			if err := writeChild(ctx, tx, exec, av, attrCtx, child, json.RawMessage(field.Raw), ""); err != nil {
				return err
			}
		}
	case model.PropKindMap:
		if len(children) == 0 {
			return nil
		}
		element := children[0]
		seen := map[string]bool{}
		var iterErr error
		gjson.ParseBytes(value).ForEach(func(k, v gjson.Result) bool {
			seen[k.String()] = true
			if err := writeChild(ctx, tx, exec, av, attrCtx, element, json.RawMessage(v.Raw), k.String()); err != nil {
				iterErr = err
				return false
			}
			return true
		})
		if iterErr != nil {
			return iterErr
		}
		return pruneStaleEntries(ctx, tx, exec, element, attrCtx, seen)
	case model.PropKindArray:
		if len(children) == 0 {
			return nil
		}
		element := children[0]
		seen := map[string]bool{}
		var iterErr error
		idx := 0
		gjson.ParseBytes(value).ForEach(func(_, v gjson.Result) bool {
			key := fmt.Sprintf("%d", idx)
			seen[key] = true
			if err := writeChild(ctx, tx, exec, av, attrCtx, element, json.RawMessage(v.Raw), key); err != nil {
				iterErr = err
				return false
			}
			idx++
			return true
		})
		if iterErr != nil {
			return iterErr
		}
		return pruneStaleEntries(ctx, tx, exec, element, attrCtx, seen)
	}
	return nil
}

// pruneStaleEntries drops keyed entries the rewritten document no
// longer carries. Rows at the write's own specificity are deleted
// outright; defaults under a component write are shadowed with an
// unset so the key stops resolving for that component.
func pruneStaleEntries(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, element model.Prop, parentCtx model.AttributeContext, seen map[string]bool) error {
	childCtx := model.AttributeContext{PropID: element.ID, ComponentID: parentCtx.ComponentID}
	rows, err := listForExactContext(ctx, tx, childCtx)
	if err != nil {
		return err
	}
	for i := range rows {
		if rows[i].Key == "" || seen[rows[i].Key] {
			continue
		}
		if err := deleteValueSubtree(ctx, tx, rows[i].ID); err != nil {
			return err
		}
	}

	if childCtx.ComponentID.IsNone() {
		return nil
	}
	defaults, err := listForExactContext(ctx, tx, childCtx.WithoutComponent())
	if err != nil {
		return err
	}
	for i := range defaults {
		k := defaults[i].Key
		if k == "" || seen[k] {
			continue
		}
		if _, err := UpdateForContextOrCreate(ctx, tx, exec, childCtx, nil, k); err != nil {
			return err
		}
	}
	return nil
}

// deleteValueSubtree removes a value row together with every row
// hanging off it.
func deleteValueSubtree(ctx context.Context, tx *datastore.Tx, id model.ID) error {
	kids, err := ChildValues(ctx, tx, id)
	if err != nil {
		return err
	}
	for i := range kids {
		if err := deleteValueSubtree(ctx, tx, kids[i].ID); err != nil {
			return err
		}
	}
	return DeleteValue(ctx, tx, id)
}

func writeChild(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, parent *model.AttributeValue, parentCtx model.AttributeContext, child model.Prop, value json.RawMessage, key string) error {
	childCtx := model.AttributeContext{
		PropID:      child.ID,
		ComponentID: parentCtx.ComponentID,
	}

	existing, err := FindValueForContext(ctx, tx, childCtx, key)
	if err != nil {
		var nf *NotFoundForReadContextError
		if !asNotFound(err, &nf) {
			return err
		}
		existing, err = NewValue(ctx, tx, model.AttributeValue{
			Context:       childCtx,
			Key:           key,
			ParentValueID: parent.ID,
		})
		if err != nil {
			return err
		}
	}
	_, err = UpdateForContext(ctx, tx, exec, existing.ID, childCtx, value, key)
	return err
}

// escapeGjsonKey protects literal dots in prop names from gjson path
// syntax.
func escapeGjsonKey(k string) string {
	out := make([]byte, 0, len(k))
	for i := 0; i < len(k); i++ {
		if k[i] == '.' || k[i] == '*' || k[i] == '?' || k[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, k[i])
	}
	return string(out)
}
