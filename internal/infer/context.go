package infer

import (
	"sort"

	"github.com/funvibe/jinfer/internal/types"
)

// InferenceContext scopes the inference variables of one resolution
// attempt for one candidate. Contexts are created per (candidate,
// phase) attempt and discarded when the attempt fails; the winning
// context survives until instantiation completes. A context may have a
// parent: nested poly expressions re-home their free variables into the
// enclosing invocation's context so that both are solved as one joint
// constraint system.
type InferenceContext struct {
	id     int
	graph  *Graph
	parent *InferenceContext
	obs    Observer

	// vars maps type-parameter names to the fresh ivars allocated for
	// them; order keeps iteration deterministic.
	vars  map[string]types.TIvar
	order []string

	aborted bool
}

func newContext(id int, graph *Graph, parent *InferenceContext, obs Observer) *InferenceContext {
	return &InferenceContext{
		id:     id,
		graph:  graph,
		parent: parent,
		obs:    obs,
		vars:   map[string]types.TIvar{},
	}
}

// ID is the context's unique identifier within one site resolution.
func (c *InferenceContext) ID() int { return c.id }

// Aborted reports whether this context propagated its variables away.
func (c *InferenceContext) Aborted() bool { return c.aborted }

// MapToIvars substitutes every type parameter of the candidate (and,
// for constructors, of its declaring class) with a fresh inference
// variable, returning a signature shaped identically but with ivars in
// place of type variables. Declared bounds become upper bounds on the
// fresh ivars.
func (c *InferenceContext) MapToIvars(sig *types.Signature) *types.Signature {
	tparams := sig.TypeParams
	if sig.IsCtor() {
		tparams = append(append([]types.TypeParam{}, sig.ClassParams...), sig.TypeParams...)
	}
	if len(tparams) == 0 {
		return sig
	}

	sub := types.Subst{}
	for _, tp := range tparams {
		if _, dup := c.vars[tp.Name]; dup {
			continue
		}
		iv := c.graph.NewIvar(c.id, tp.Name, tp.Bound)
		c.vars[tp.Name] = iv
		c.order = append(c.order, tp.Name)
		sub[tp.Name] = iv
	}

	// Declared bounds may mention sibling type parameters; substitute
	// before registering them as upper bounds.
	for _, tp := range tparams {
		if tp.Bound == nil {
			continue
		}
		c.graph.AddBound(c, c.vars[tp.Name], BoundUpper, tp.Bound.Apply(sub), c.obs)
	}

	return sig.Apply(sub)
}

// IvarFor returns the ivar allocated for a type parameter name.
func (c *InferenceContext) IvarFor(name string) (types.TIvar, bool) {
	iv, ok := c.vars[name]
	return iv, ok
}

// FreeVars returns the ivars owned by this context that have no
// instantiation yet, in ascending id order. The set shrinks as solving
// succeeds and grows when a child context propagates into this one.
func (c *InferenceContext) FreeVars() []types.TIvar {
	seen := map[int]bool{}
	var out []types.TIvar
	for _, v := range c.graph.vars {
		root := c.graph.find(v.id)
		if root.owner != c.id || root.inst != nil || seen[root.id] {
			continue
		}
		seen[root.id] = true
		out = append(out, types.TIvar{ID: root.id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PropagateAndAbort re-homes all free ivars of this context into the
// parent and marks this context aborted. Bound accumulation from the
// nested expression thereby becomes visible to, and solvable together
// with, the enclosing invocation. The aborted context is provably empty
// afterwards and is discarded by its creator.
func (c *InferenceContext) PropagateAndAbort(parent *InferenceContext) {
	for _, iv := range c.FreeVars() {
		c.graph.setOwner(iv.ID, parent.id)
	}
	c.aborted = true
	c.obs.PropagateAndAbort(c, parent)
}

// SolveAll solves every ivar allocated by this context and returns the
// substitution from ivar ids (including merged ones) to instantiations.
func (c *InferenceContext) SolveAll() (types.IvarSubst, error) {
	sub := types.IvarSubst{}
	for _, name := range c.order {
		iv := c.vars[name]
		inst, err := c.graph.Solve(c, iv, c.obs)
		if err != nil {
			return nil, err
		}
		sub[iv.ID] = inst
	}
	return sub, nil
}
