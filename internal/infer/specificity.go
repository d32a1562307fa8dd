package infer

import (
	"github.com/funvibe/jinfer/internal/types"
)

// moreSpecific reports whether a is strictly more specific than b:
// every formal parameter type of a is a subtype of (or, for generic
// parameters, unifiable within) the corresponding parameter of b.
// Non-varargs signatures beat varargs ones; identical-after-erasure
// signatures are never comparable.
func (r *resolution) moreSpecific(a, b *types.Signature) bool {
	if sameErasure(a, b) {
		return false
	}
	if a.Varargs != b.Varargs {
		return !a.Varargs
	}
	if a.Arity() != b.Arity() {
		return false
	}
	strictlyBelow := false
	for i := range a.Params {
		pa, pb := a.Params[i], b.Params[i]
		if paramFits(pa, pb, r.eng.env) {
			if !paramFits(pb, pa, r.eng.env) {
				strictlyBelow = true
			}
			continue
		}
		return false
	}
	return strictlyBelow
}

// paramFits is the per-position specificity test. A type variable
// accepts anything its bound accepts, so a concrete parameter fits a
// generic one.
func paramFits(pa, pb types.Type, h types.Hierarchy) bool {
	if tv, ok := pb.(types.TTypeVar); ok {
		bound := tv.Bound
		if bound == nil {
			return true
		}
		return types.IsSubtype(types.Erasure(pa), types.Erasure(bound), h)
	}
	if types.IsSubtype(pa, pb, h) {
		return true
	}
	return types.IsSubtype(types.Erasure(pa), types.Erasure(pb), h)
}

func sameErasure(a, b *types.Signature) bool {
	if a.Arity() != b.Arity() || a.Varargs != b.Varargs {
		return false
	}
	for i := range a.Params {
		if !types.Equal(types.Erasure(a.Params[i]), types.Erasure(b.Params[i])) {
			return false
		}
	}
	return true
}

// maximalElements returns the indices of the applicable signatures that
// no other applicable signature is strictly more specific than. The set
// is computed over all pairs, so its membership does not depend on
// candidate order; only the best-effort pick (the first maximal element
// encountered) does.
func (r *resolution) maximalElements(sigs []*types.Signature) []int {
	var maximal []int
	for i, a := range sigs {
		dominated := false
		for j, b := range sigs {
			if i != j && r.moreSpecific(b, a) {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, i)
		}
	}
	return maximal
}
