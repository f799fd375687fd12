package check

import "github.com/emberlang/ember/internal/types"

// tvRoot is one union-find root: the type it currently resolves to (nil
// until something has constrained it) plus where it was first introduced,
// for "unbound type variable" diagnostics.
type tvRoot struct {
	resolved types.Ty // nil if still free
	span     baseErr  // origin, reused as a span/file carrier
	parent   uint32
	isRoot   bool
}

// TypeState owns one union-find forest of inference variables for a
// single function body being checked. Ids are allocated
// densely from 0 so the backing slice never needs a map.
type TypeState struct {
	roots []tvRoot
}

// NewTypeState returns an empty inference state.
func NewTypeState() *TypeState { return &TypeState{} }

// Fresh allocates a new, unconstrained type variable.
func (ts *TypeState) Fresh(origin baseErr) types.TypeVar {
	id := uint32(len(ts.roots))
	ts.roots = append(ts.roots, tvRoot{span: origin, isRoot: true})
	return types.TypeVar{Id: id}
}

func (ts *TypeState) find(id uint32) uint32 {
	if ts.roots[id].isRoot {
		return id
	}
	root := ts.find(ts.roots[id].parent)
	ts.roots[id].parent = root // path compression
	return root
}

// Resolve follows t to its current binding, recursively unwrapping any
// TypeVar chains. Non-TypeVar types are returned unchanged.
func (ts *TypeState) Resolve(t types.Ty) types.Ty {
	tv, ok := t.(types.TypeVar)
	if !ok {
		return t
	}
	root := ts.find(tv.Id)
	if r := ts.roots[root].resolved; r != nil {
		return ts.Resolve(r)
	}
	return types.TypeVar{Id: root}
}

// Bind constrains the type variable at id to resolved. Binding a variable
// that already resolves to something re-binds the root, which is only
// safe to call after a caller has confirmed compatibility (subtype.go).
func (ts *TypeState) Bind(tv types.TypeVar, resolved types.Ty) {
	root := ts.find(tv.Id)
	ts.roots[root].resolved = resolved
}

// Union merges two type variables into the same class, e.g. when a
// generic parameter is used in two argument positions and both produce
// fresh, still-unconstrained variables.
func (ts *TypeState) Union(a, b types.TypeVar) {
	ra, rb := ts.find(a.Id), ts.find(b.Id)
	if ra == rb {
		return
	}
	ts.roots[ra].parent = rb
	ts.roots[ra].isRoot = false
	if ts.roots[rb].resolved == nil {
		ts.roots[rb].resolved = ts.roots[ra].resolved
	}
}

// ResolveDeep resolves every type variable reachable anywhere inside t,
// for rendering types in diagnostics after inference has run.
func (ts *TypeState) ResolveDeep(t types.Ty) types.Ty {
	switch v := ts.Resolve(t).(type) {
	case types.Named:
		args := make([]types.Ty, len(v.Args))
		for i, a := range v.Args {
			args[i] = ts.ResolveDeep(a)
		}
		return types.Named{Name: v.Name, Args: args}
	case types.Meta:
		return types.Meta{Of: ts.ResolveDeep(v.Of)}
	case types.Function:
		out := types.FuncTy{Ret: ts.ResolveDeep(v.Func.Ret)}
		if v.Func.Receiver != nil {
			out.Receiver = ts.ResolveDeep(v.Func.Receiver)
		}
		for _, a := range v.Func.Args {
			out.Args = append(out.Args, ts.ResolveDeep(a))
		}
		return types.Function{Func: out}
	case types.Tuple:
		elems := make([]types.Ty, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = ts.ResolveDeep(e)
		}
		return types.Tuple{Elems: elems}
	case types.Sum:
		tys := make([]types.Ty, len(v.Tys))
		for i, e := range v.Tys {
			tys[i] = ts.ResolveDeep(e)
		}
		return types.Sum{Tys: tys}
	default:
		return v
	}
}

// Unbound returns every type variable whose root is still unconstrained,
// in allocation order, for the UnboundTypeVar diagnostic.
func (ts *TypeState) Unbound() []types.TypeVar {
	var out []types.TypeVar
	for id, r := range ts.roots {
		if r.isRoot && r.resolved == nil {
			out = append(out, types.TypeVar{Id: uint32(id)})
		}
	}
	return out
}
