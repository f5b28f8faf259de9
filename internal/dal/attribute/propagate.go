// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package attribute

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/dal/funcs"
	"github.com/rigzba21/si/internal/dal/model"
)

// Propagate recomputes everything downstream of a changed value:
// values whose prototypes take an argument from a provider the change
// feeds, socket values across edges, and so on breadth-first. Each
// dependent is visited at most once per propagation; recomputation
// goes through the binding cache, so an unchanged input is a cache
// hit and a no-op write.
func Propagate(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, start *model.AttributeValue) error {
	visited := map[model.ID]bool{start.ID: true}
	queue := []model.AttributeValue{*start}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		deps, err := dependentsOf(ctx, tx, &v)
		if err != nil {
			return err
		}
		for i := range deps {
			d := deps[i]
			if visited[d.ID] {
				continue
			}
			visited[d.ID] = true
			if err := recompute(ctx, tx, exec, &d); err != nil {
				return err
			}
			queue = append(queue, d)
		}
	}
	return nil
}

// RefreshValue re-runs a value's own prototype function with freshly
// gathered arguments, then propagates downstream. Imports use it after
// rewiring a prototype.
func RefreshValue(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, v *model.AttributeValue) error {
	if err := recompute(ctx, tx, exec, v); err != nil {
		return err
	}
	return Propagate(ctx, tx, exec, v)
}

// dependentsOf finds the existing value rows one hop downstream of v.
func dependentsOf(ctx context.Context, tx *datastore.Tx, v *model.AttributeValue) ([]model.AttributeValue, error) {
	switch {
	case v.Context.PropID.IsSome():
		provider, err := ImplicitProviderForProp(ctx, tx, v.Context.PropID)
		if err != nil {
			return nil, err
		}
		if provider == nil {
			return nil, nil
		}
		return dependentsThroughProvider(ctx, tx, provider.ID, v.Context.ComponentID)

	case v.Context.InternalProviderID.IsSome():
		return dependentsThroughProvider(ctx, tx, v.Context.InternalProviderID, v.Context.ComponentID)

	case v.Context.ExternalProviderID.IsSome():
		return dependentsThroughEdges(ctx, tx, v.Context.ExternalProviderID, v.Context.ComponentID)
	}
	return nil, nil
}

func dependentsThroughProvider(ctx context.Context, tx *datastore.Tx, providerID model.ID, componentID model.ID) ([]model.AttributeValue, error) {
	apas, err := ArgumentsForProvider(ctx, tx, providerID)
	if err != nil {
		return nil, err
	}

	var out []model.AttributeValue
	for _, apa := range apas {
		if apa.TailComponentID.IsSome() && apa.TailComponentID != componentID {
			continue
		}
		proto, err := GetPrototype(ctx, tx, apa.AttributePrototypeID)
		if err != nil {
			var nf *datastore.NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return nil, err
		}

		target := componentID
		if apa.HeadComponentID.IsSome() {
			target = apa.HeadComponentID
		}
		if proto.Context.ComponentID.IsSome() {
			target = proto.Context.ComponentID
		}

		vals, err := ValuesForPrototype(ctx, tx, proto.ID)
		if err != nil {
			return nil, err
		}
		for i := range vals {
			c := vals[i].Context.ComponentID
			if c.IsNone() || c == target {
				out = append(out, vals[i])
			}
		}
	}
	return out, nil
}

// dependentsThroughEdges crosses component boundaries: values on input
// sockets wired to the changed output socket.
func dependentsThroughEdges(ctx context.Context, tx *datastore.Tx, externalProviderID model.ID, componentID model.ID) ([]model.AttributeValue, error) {
	edges, err := datastore.List[model.Edge](ctx, tx, datastore.KindEdge,
		datastore.Eq("tail_external_provider_id", externalProviderID.String()))
	if err != nil {
		return nil, err
	}

	var out []model.AttributeValue
	for _, e := range edges {
		if e.DeletedAt != nil {
			continue
		}
		if componentID.IsSome() && e.TailComponentID != componentID {
			continue
		}
		socketCtx := model.AttributeContext{
			InternalProviderID: e.HeadInternalProviderID,
			ComponentID:        e.HeadComponentID,
		}
		v, err := FindValueForContext(ctx, tx, socketCtx, "")
		if err != nil {
			var nf *NotFoundForReadContextError
			if asNotFound(err, &nf) {
				continue
			}
			return nil, err
		}
		if v.Context.ComponentID == e.HeadComponentID {
			out = append(out, *v)
		}
	}
	return out, nil
}

// recompute re-runs a dependent's function with freshly gathered
// arguments and stores the new binding on the value row.
func recompute(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, v *model.AttributeValue) error {
	if v.Context.InternalProviderID.IsSome() {
		provider, err := GetInternalProvider(ctx, tx, v.Context.InternalProviderID)
		if err != nil {
			return err
		}
		if !provider.IsImplicit() {
			return recomputeSocket(ctx, tx, exec, v, provider)
		}
	}

	proto, err := GetPrototype(ctx, tx, v.AttributePrototypeID)
	if err != nil {
		return err
	}
	args, err := gatherArgs(ctx, tx, proto, v.Context.ComponentID)
	if err != nil {
		return err
	}
	binding, rv, _, err := funcs.CreateAndExecute(ctx, tx, exec, proto.FuncID, args, nil)
	if err != nil {
		return err
	}
	v.FuncBindingID = binding.ID
	v.FuncBindingReturnValueID = rv.ID
	return UpdateValue(ctx, tx, v)
}

// recomputeSocket rebuilds an input socket value from its inbound
// edges: one source for arity one, an array for arity many.
func recomputeSocket(ctx context.Context, tx *datastore.Tx, exec funcs.Executor, v *model.AttributeValue, provider *model.InternalProvider) error {
	edges, err := datastore.List[model.Edge](ctx, tx, datastore.KindEdge,
		datastore.Eq("head_internal_provider_id", provider.ID.String()),
		datastore.Eq("head_component_id", v.Context.ComponentID.String()))
	if err != nil {
		return err
	}

	var sources []json.RawMessage
	for _, e := range edges {
		if e.DeletedAt != nil {
			continue
		}
		raw, err := emittedValue(ctx, tx, model.AttributeContext{
			ExternalProviderID: e.TailExternalProviderID,
			ComponentID:        e.TailComponentID,
		})
		if err != nil {
			return err
		}
		sources = append(sources, raw)
	}

	var value json.RawMessage
	switch {
	case len(sources) == 0:
		value = json.RawMessage("null")
	case provider.Arity == model.SocketArityOne:
		value = sources[0]
	default:
		joined, err := json.Marshal(sources)
		if err != nil {
			return err
		}
		value = joined
	}

	identity, err := funcs.Identity(ctx, tx)
	if err != nil {
		return err
	}
	args, err := json.Marshal(map[string]json.RawMessage{funcs.IdentityArgName: value})
	if err != nil {
		return err
	}
	binding, rv, _, err := funcs.CreateAndExecute(ctx, tx, exec, identity.ID, args, nil)
	if err != nil {
		return err
	}
	v.FuncBindingID = binding.ID
	v.FuncBindingReturnValueID = rv.ID
	return UpdateValue(ctx, tx, v)
}

// gatherArgs assembles a prototype's function arguments from its
// provider bindings. Two bindings on the same argument name collect
// into an array.
func gatherArgs(ctx context.Context, tx *datastore.Tx, proto *model.AttributePrototype, componentID model.ID) (json.RawMessage, error) {
	apas, err := PrototypeArguments(ctx, tx, proto.ID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(apas))
	collected := map[string][]json.RawMessage{}
	for _, apa := range apas {
		funcArg, err := datastore.Get[model.FuncArgument](ctx, tx, datastore.KindFuncArgument, apa.FuncArgumentID)
		if err != nil {
			return nil, err
		}

		source := componentID
		if apa.TailComponentID.IsSome() {
			source = apa.TailComponentID
		}

		var srcCtx model.AttributeContext
		switch {
		case apa.InternalProviderID.IsSome():
			provider, err := GetInternalProvider(ctx, tx, apa.InternalProviderID)
			if err != nil {
				return nil, err
			}
			if provider.IsImplicit() {
				srcCtx = model.AttributeContext{PropID: provider.PropID, ComponentID: source}
			} else {
				srcCtx = model.AttributeContext{InternalProviderID: provider.ID, ComponentID: source}
			}
		case apa.ExternalProviderID.IsSome():
			srcCtx = model.AttributeContext{ExternalProviderID: apa.ExternalProviderID, ComponentID: source}
		default:
			continue
		}

		raw, err := emittedValue(ctx, tx, srcCtx)
		if err != nil {
			return nil, err
		}
		if _, seen := collected[funcArg.Name]; !seen {
			names = append(names, funcArg.Name)
		}
		collected[funcArg.Name] = append(collected[funcArg.Name], raw)
	}

	out := map[string]json.RawMessage{}
	for _, name := range names {
		vals := collected[name]
		if len(vals) == 1 {
			out[name] = vals[0]
			continue
		}
		joined, err := json.Marshal(vals)
		if err != nil {
			return nil, err
		}
		out[name] = joined
	}
	return json.Marshal(out)
}

// emittedValue materializes what a context currently emits, null when
// nothing is set.
func emittedValue(ctx context.Context, tx *datastore.Tx, srcCtx model.AttributeContext) (json.RawMessage, error) {
	v, err := FindValueForContext(ctx, tx, srcCtx, "")
	if err != nil {
		var nf *NotFoundForReadContextError
		if asNotFound(err, &nf) {
			return json.RawMessage("null"), nil
		}
		return nil, err
	}
	return Materialize(ctx, tx, v)
}
