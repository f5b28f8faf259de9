// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package component

import (
	"context"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/sjson"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/prop"
	"github.com/rigzba21/si/internal/dal/schema"
)

// View renders a component's full property document: variant defaults
// overlaid with the component's own values, parents before children so
// deeper writes refine shallower ones. The returned object is keyed by
// the root's children (si, domain, resource, ...).
func View(ctx context.Context, tx *datastore.Tx, componentID model.ID) (json.RawMessage, error) {
	c, err := Get(ctx, tx, componentID)
	if err != nil {
		return nil, err
	}
	variant, err := schema.GetVariant(ctx, tx, c.SchemaVariantID)
	if err != nil {
		return nil, err
	}
	props, err := prop.ListForVariant(ctx, tx, variant.ID)
	if err != nil {
		return nil, err
	}

	kindByID := map[model.ID]model.PropKind{}
	for _, p := range props {
		kindByID[p.ID] = p.Kind
	}

	doc := []byte("{}")
	for _, p := range props {
		if p.ID == variant.RootPropID {
			continue
		}
		// Keyed entries are rendered under their container below.
		if parentKind, ok := kindByID[p.ParentPropID]; ok &&
			(parentKind == model.PropKindMap || parentKind == model.PropKindArray) {
			entries, err := keyedEntries(ctx, tx, p.ID, c.ID)
			if err != nil {
				return nil, err
			}
			parentPath := sjsonPath(p.Path.Parent())
			for _, e := range entries {
				doc, err = sjson.SetRawBytes(doc, parentPath+"."+escapeSjsonKey(e.key), e.raw)
				if err != nil {
					return nil, err
				}
			}
			continue
		}

		raw, err := propValue(ctx, tx, p.ID, c.ID)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		doc, err = sjson.SetRawBytes(doc, sjsonPath(p.Path), raw)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

type keyedEntry struct {
	key string
	raw json.RawMessage
}

// keyedEntries collects the map or array entries for an element prop,
// component rows shadowing variant defaults per key.
func keyedEntries(ctx context.Context, tx *datastore.Tx, elementPropID, componentID model.ID) ([]keyedEntry, error) {
	byKey := map[string]json.RawMessage{}
	var order []string

	collect := func(compID model.ID) error {
		vals, err := datastore.List[model.AttributeValue](ctx, tx, datastore.KindAttributeValue,
			datastore.Eq("context.prop_id", elementPropID.String()),
			datastore.Eq("context.component_id", compID.String()))
		if err != nil {
			return err
		}
		for i := range vals {
			if vals[i].Key == "" {
				continue
			}
			raw, err := attribute.Materialize(ctx, tx, &vals[i])
			if err != nil {
				return err
			}
			if string(raw) == "null" {
				// A component-level unset hides the default entry.
				delete(byKey, vals[i].Key)
				continue
			}
			if _, seen := byKey[vals[i].Key]; !seen {
				order = append(order, vals[i].Key)
			}
			byKey[vals[i].Key] = raw
		}
		return nil
	}

	// Defaults first so component rows win.
	if err := collect(model.IDNone); err != nil {
		return nil, err
	}
	if err := collect(componentID); err != nil {
		return nil, err
	}

	out := make([]keyedEntry, 0, len(order))
	for _, k := range order {
		raw, ok := byKey[k]
		if !ok {
			continue
		}
		out = append(out, keyedEntry{key: k, raw: raw})
	}
	return out, nil
}

// propValue resolves a prop's value for a component, nil when unset.
func propValue(ctx context.Context, tx *datastore.Tx, propID, componentID model.ID) (json.RawMessage, error) {
	attrCtx := model.AttributeContext{PropID: propID, ComponentID: componentID}
	v, err := attribute.FindValueForContext(ctx, tx, attrCtx, "")
	if err != nil {
		var nf *attribute.NotFoundForReadContextError
		if attribute.AsNotFoundForReadContext(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	raw, err := attribute.Materialize(ctx, tx, v)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}

// sjsonPath maps a prop path below root to an sjson set path.
func sjsonPath(p model.PropPath) string {
	segs := p.Segments()
	if len(segs) > 0 && segs[0] == "root" {
		segs = segs[1:]
	}
	for i := range segs {
		segs[i] = escapeSjsonKey(segs[i])
	}
	return strings.Join(segs, ".")
}

func escapeSjsonKey(k string) string {
	r := strings.NewReplacer(".", "\\.", "*", "\\*", "?", "\\?")
	return r.Replace(k)
}

func quote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return strings.Trim(string(raw), `"`)
	}
	return s
}

// writeProp sets a prop's value for the component by path.
func writeProp(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, c *model.Component, path model.PropPath, value json.RawMessage) error {
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

// readProp resolves a prop's value for the component by path.
func readProp(ctx context.Context, tx *datastore.Tx, c *model.Component, path model.PropPath) (json.RawMessage, error) {
	p, err := prop.FindByPath(ctx, tx, c.SchemaVariantID, path)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return json.RawMessage("null"), nil
	}
	raw, err := propValue(ctx, tx, p.ID, c.ID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return json.RawMessage("null"), nil
	}
	return raw, nil
}
