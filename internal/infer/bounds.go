package infer

import (
	"fmt"

	"github.com/funvibe/jinfer/internal/types"
)

// BoundKind partitions the bounds of an inference variable.
type BoundKind int

const (
	// BoundEq: the ivar denotes exactly this type.
	BoundEq BoundKind = iota
	// BoundLower: the ivar is a supertype of this type.
	BoundLower
	// BoundUpper: the ivar is a subtype of this type.
	BoundUpper
)

func (k BoundKind) String() string {
	switch k {
	case BoundEq:
		return "="
	case BoundLower:
		return ">:"
	default:
		return "<:"
	}
}

// Format renders a bound the way the trace prints it.
func (k BoundKind) Format(ivar types.TIvar, bound types.Type) string {
	return fmt.Sprintf("%s %s %s", ivar, k, bound)
}

// Bound is one constraint on an inference variable.
type Bound struct {
	Kind BoundKind
	Type types.Type
}

// ivar is one arena record. "Merged" is a delegate index stored inline:
// once set, the record is transparent and all queries and updates are
// redirected to the delegate (with path compression at lookup).
type ivar struct {
	id       int
	owner    int // owning context id
	tparam   string
	declared types.Type // declared bound of the originating type parameter
	bounds   []Bound
	delegate int // -1 when not merged
	inst     types.Type
}

// Graph is the arena of inference variables for one call-site
// resolution. All contexts of the resolution, including those of nested
// poly expressions, allocate from the same arena so that ownership
// transfer (propagate-and-abort) is a plain re-homing of indices.
// It is not safe for concurrent mutation; one resolution is sequential.
type Graph struct {
	h    types.Hierarchy
	vars []*ivar
}

func NewGraph(h types.Hierarchy) *Graph {
	return &Graph{h: h}
}

// NewIvar allocates a fresh inference variable owned by ctx.
func (g *Graph) NewIvar(ctxID int, tparam string, declared types.Type) types.TIvar {
	v := &ivar{
		id:       len(g.vars),
		owner:    ctxID,
		tparam:   tparam,
		declared: declared,
		delegate: -1,
	}
	g.vars = append(g.vars, v)
	return types.TIvar{ID: v.id}
}

// find resolves delegation with path compression.
func (g *Graph) find(id int) *ivar {
	v := g.vars[id]
	for v.delegate >= 0 {
		root := g.find(v.delegate)
		v.delegate = root.id
		v = root
	}
	return v
}

// Owner returns the owning context id of an ivar's merge group.
func (g *Graph) Owner(id int) int { return g.find(id).owner }

// setOwner re-homes an ivar group to another context.
func (g *Graph) setOwner(id, ctxID int) { g.find(id).owner = ctxID }

// Instantiation returns the solved type of an ivar, nil if unsolved.
func (g *Graph) Instantiation(id int) types.Type { return g.find(id).inst }

// AddBound appends a bound to an ivar. An equality bound between two
// ivars merges them instead; other ivar-valued bounds stay symbolic and
// are chased at solve time. Inconsistency is not detected here: bounds
// accumulate incrementally and must tolerate provisional contradictions
// while deferred arguments interleave.
func (g *Graph) AddBound(ctx *InferenceContext, iv types.TIvar, kind BoundKind, t types.Type, obs Observer) {
	root := g.find(iv.ID)
	if other, ok := t.(types.TIvar); ok {
		otherRoot := g.find(other.ID)
		if otherRoot.id == root.id {
			return
		}
		if kind == BoundEq {
			g.Merge(ctx, iv, other, obs)
			return
		}
		t = types.TIvar{ID: otherRoot.id}
	}
	b := Bound{Kind: kind, Type: t}
	for _, have := range root.bounds {
		if have.Kind == b.Kind && types.Equal(have.Type, b.Type) {
			return
		}
	}
	root.bounds = append(root.bounds, b)
	obs.BoundAdded(ctx, types.TIvar{ID: root.id}, kind, t)
}

// Merge makes two ivars denote the same type: b's group is absorbed
// into a's, transferring all bounds to the delegate.
func (g *Graph) Merge(ctx *InferenceContext, a, b types.TIvar, obs Observer) {
	ra, rb := g.find(a.ID), g.find(b.ID)
	if ra.id == rb.id {
		return
	}
	ra.bounds = append(ra.bounds, rb.bounds...)
	rb.bounds = nil
	rb.delegate = ra.id
	obs.IvarMerged(ctx, types.TIvar{ID: rb.id}, types.TIvar{ID: ra.id})
}

// Ground substitutes solved ivars into t; unsolved ones remain.
func (g *Graph) Ground(t types.Type) types.Type {
	if t == nil {
		return nil
	}
	sub := types.IvarSubst{}
	for _, id := range types.CollectIvars(t) {
		root := g.find(id)
		if root.inst != nil {
			sub[id] = root.inst
		} else if root.id != id {
			sub[id] = types.TIvar{ID: root.id}
		}
	}
	if len(sub) == 0 {
		return t
	}
	return t.ApplyIvars(sub)
}

// Solve computes and caches the instantiation of an ivar. An equality
// bound wins outright; otherwise the least upper bound of the lower
// bounds, the greatest lower bound of the upper bounds, or the declared
// bound of the originating type parameter (Object if none). Solving
// fails with BoundConflictError if a lower/upper-derived candidate
// violates a remaining upper bound. Repeated calls are idempotent.
func (g *Graph) Solve(ctx *InferenceContext, iv types.TIvar, obs Observer) (types.Type, error) {
	return g.solve(ctx, iv.ID, map[int]bool{}, obs)
}

func (g *Graph) solve(ctx *InferenceContext, id int, visiting map[int]bool, obs Observer) (types.Type, error) {
	root := g.find(id)
	if root.inst != nil {
		return root.inst, nil
	}
	if visiting[root.id] {
		// Dependency cycle between unmerged ivars: break it with the
		// declared bound so transitive closure still terminates.
		if root.declared != nil {
			return g.Ground(root.declared), nil
		}
		return types.Object(), nil
	}
	visiting[root.id] = true
	defer delete(visiting, root.id)

	// Ground each bound, solving referenced ivars transitively.
	grounded := make([]Bound, 0, len(root.bounds))
	for _, b := range root.bounds {
		t, err := g.groundSolving(ctx, b.Type, visiting, obs)
		if err != nil {
			return nil, err
		}
		grounded = append(grounded, Bound{Kind: b.Kind, Type: t})
	}

	var inst types.Type
	var fromEq bool
	var lowers, uppers []types.Type
	for _, b := range grounded {
		switch b.Kind {
		case BoundEq:
			if inst == nil {
				inst = b.Type
				fromEq = true
			}
		case BoundLower:
			lowers = append(lowers, b.Type)
		case BoundUpper:
			uppers = append(uppers, b.Type)
		}
	}

	if inst == nil {
		switch {
		case len(lowers) > 0:
			inst = types.Lub(lowers, g.h)
		case len(uppers) > 0:
			inst = types.Glb(uppers, g.h)
		case root.declared != nil:
			inst = g.Ground(root.declared)
		default:
			inst = types.Object()
		}
	}

	// An equality bound is returned verbatim regardless of other
	// bounds; a computed candidate must still satisfy the uppers.
	if !fromEq {
		for _, b := range grounded {
			if b.Kind != BoundUpper || types.ContainsIvars(b.Type) {
				continue
			}
			if !types.IsSubtype(inst, b.Type, g.h) {
				return nil, &BoundConflictError{
					Ivar:      types.TIvar{ID: root.id},
					Candidate: inst,
					Violated:  b,
				}
			}
		}
	}

	root.inst = inst
	obs.IvarInstantiated(ctx, types.TIvar{ID: root.id}, inst)
	return inst, nil
}

// groundSolving grounds a bound type, recursively solving any ivars it
// mentions (the transitive-closure step for symbolic ivar-ivar bounds).
func (g *Graph) groundSolving(ctx *InferenceContext, t types.Type, visiting map[int]bool, obs Observer) (types.Type, error) {
	ids := types.CollectIvars(t)
	if len(ids) == 0 {
		return t, nil
	}
	sub := types.IvarSubst{}
	for _, id := range ids {
		inst, err := g.solve(ctx, id, visiting, obs)
		if err != nil {
			return nil, err
		}
		sub[id] = inst
	}
	return t.ApplyIvars(sub), nil
}
