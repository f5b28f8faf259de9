// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package component

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/rigzba21/si/internal/dal/attribute"
	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
	"github.com/rigzba21/si/internal/dal/prop"
	"github.com/rigzba21/si/internal/events"
)

// CodeView is one generated artifact from the component's root/code
// map.
type CodeView struct {
	Name   string `json:"name"`
	Code   string `json:"code,omitempty"`
	Format string `json:"format,omitempty"`
	// NotYetGenerated marks entries whose generation function has not
	// produced output yet.
	NotYetGenerated bool `json:"not_yet_generated"`
}

// SetCode writes one generated artifact into the component's root/code
// map under the given name and publishes a code-generated event.
func SetCode(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, pub events.Publisher, componentID model.ID, name, code, format string) error {
	c, err := Get(ctx, tx, componentID)
	if err != nil {
		return err
	}
	codeMap, err := prop.FindByPath(ctx, tx, c.SchemaVariantID, model.RootPropChildCode.Path())
	if err != nil {
		return err
	}
	if codeMap == nil {
		return &datastore.NotFoundError{Kind: datastore.KindProp}
	}
	elements, err := prop.Children(ctx, tx, codeMap.ID)
	if err != nil {
		return err
	}
	if len(elements) == 0 {
		return fmt.Errorf("code map %s has no element prop", codeMap.ID)
	}

	entry, err := json.Marshal(map[string]string{"code": code, "format": format})
	if err != nil {
		return err
	}
	attrCtx := model.AttributeContext{PropID: elements[0].ID, ComponentID: c.ID}
	if _, err := attribute.UpdateForContextOrCreate(ctx, tx, exec, attrCtx, entry, name); err != nil {
		return err
	}

	events.Publish(ctx, pub, events.KindCodeGenerated, tx.Tenancy(), tx.Visibility(), events.CodeGenerated{
		ComponentID: c.ID,
		Name:        name,
	})
	return nil
}

// ListCodeGenerated assembles the code views of a component. Map
// entries exist as soon as a generation prototype is bound, so entries
// without code yet are reported but flagged.
func ListCodeGenerated(ctx context.Context, tx *datastore.Tx, componentID model.ID) ([]CodeView, error) {
	c, err := Get(ctx, tx, componentID)
	if err != nil {
		return nil, err
	}
	codeMap, err := prop.FindByPath(ctx, tx, c.SchemaVariantID, model.RootPropChildCode.Path())
	if err != nil {
		return nil, err
	}
	if codeMap == nil {
		return nil, nil
	}
	elements, err := prop.Children(ctx, tx, codeMap.ID)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}

	entries, err := keyedEntries(ctx, tx, elements[0].ID, c.ID)
	if err != nil {
		return nil, err
	}

	views := make([]CodeView, 0, len(entries))
	for _, e := range entries {
		parsed := gjson.ParseBytes(e.raw)
		code := parsed.Get("code").String()
		format := parsed.Get("format").String()
		views = append(views, CodeView{
			Name:            e.key,
			Code:            code,
			Format:          format,
			NotYetGenerated: code == "" || format == "",
		})
	}
	return views, nil
}
