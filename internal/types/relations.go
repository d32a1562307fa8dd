package types

import (
	"reflect"
	"sort"

	"github.com/funvibe/jinfer/internal/config"
)

// Hierarchy lets the relations look up supertype information without
// owning a symbol table (same pattern as a resolver injected into
// unification). Implementations must be safe for concurrent reads.
type Hierarchy interface {
	// SupertypesOf returns the direct supertypes of a class type with
	// the class's type arguments already substituted. Unknown classes
	// yield only Object.
	SupertypesOf(t TClass) []Type
}

// Equal reports structural equality of two mirrors.
func Equal(a, b Type) bool {
	return reflect.DeepEqual(a, b)
}

// Box returns the wrapper class for a primitive.
func Box(p TPrimitive) TClass {
	if name, ok := config.BoxedNames[p.Name]; ok {
		return TClass{Name: name}
	}
	return Object()
}

// Unbox returns the primitive for a wrapper class, if t is one.
func Unbox(t Type) (TPrimitive, bool) {
	c, ok := t.(TClass)
	if !ok || len(c.Args) != 0 {
		return TPrimitive{}, false
	}
	for prim, boxed := range config.BoxedNames {
		if boxed == c.Name {
			return TPrimitive{Name: prim}, true
		}
	}
	return TPrimitive{}, false
}

// WidensTo reports whether primitive `from` widens to primitive `to`.
func WidensTo(from, to TPrimitive) bool {
	if from.Name == to.Name {
		return true
	}
	for _, w := range config.PrimitiveWidening[from.Name] {
		if w == to.Name {
			return true
		}
	}
	return false
}

// IsSubtype reports whether sub is a subtype of sup. The unresolved
// marker is compatible in both directions: no ground truth exists, and
// the engine must stay best-effort on incomplete code.
func IsSubtype(sub, sup Type, h Hierarchy) bool {
	if sub == nil || sup == nil {
		return false
	}
	if IsUnresolved(sub) || IsUnresolved(sup) {
		return true
	}
	if Equal(sub, sup) {
		return true
	}

	// A type variable is a subtype of whatever its declared bound is.
	if tv, ok := sub.(TTypeVar); ok {
		bound := tv.Bound
		if bound == nil {
			bound = Object()
		}
		return IsSubtype(bound, sup, h)
	}

	// Intersections: every member individually.
	if in, ok := sub.(TIntersection); ok {
		for _, m := range in.Types {
			if IsSubtype(m, sup, h) {
				return true
			}
		}
		return false
	}
	if in, ok := sup.(TIntersection); ok {
		for _, m := range in.Types {
			if !IsSubtype(sub, m, h) {
				return false
			}
		}
		return true
	}

	switch sup := sup.(type) {
	case TPrimitive:
		// Primitive subtyping is identity; widening belongs to the
		// loose conversion check, not here.
		p, ok := sub.(TPrimitive)
		return ok && p.Name == sup.Name
	case TArray:
		if a, ok := sub.(TArray); ok {
			// Arrays of primitives are invariant, reference arrays covariant.
			if _, prim := a.Elem.(TPrimitive); prim {
				return Equal(a.Elem, sup.Elem)
			}
			return IsSubtype(a.Elem, sup.Elem, h)
		}
		return false
	case TClass:
		if IsObject(sup) {
			_, prim := sub.(TPrimitive)
			return !prim
		}
		switch sub := sub.(type) {
		case TArray:
			// Arrays implement Cloneable and Serializable.
			return sup.Name == config.CloneableName || sup.Name == config.SerializableName
		case TClass:
			return classSubtype(sub, sup, h)
		}
		return false
	case TTypeVar:
		// Nothing but itself (handled by Equal above) is below a tvar.
		return false
	default:
		return false
	}
}

// classSubtype walks the supertype closure of sub looking for sup.
func classSubtype(sub, sup TClass, h Hierarchy) bool {
	for _, s := range SupertypeClosure(sub, h) {
		c, ok := s.(TClass)
		if !ok || c.Name != sup.Name {
			continue
		}
		if len(sup.Args) == 0 {
			// Raw supertype: erasure match suffices.
			return true
		}
		if len(c.Args) != len(sup.Args) {
			continue
		}
		if argsContained(c.Args, sup.Args, h) {
			return true
		}
	}
	return false
}

// argsContained checks type-argument containment: invariance, except
// that wildcard arguments of the supertype contain a range of types.
func argsContained(actual, formal []Type, h Hierarchy) bool {
	for i := range formal {
		w, ok := formal[i].(TWildcard)
		if !ok {
			if !Equal(actual[i], formal[i]) {
				return false
			}
			continue
		}
		switch {
		case w.Upper != nil:
			if !IsSubtype(actual[i], w.Upper, h) {
				return false
			}
		case w.Lower != nil:
			if !IsSubtype(w.Lower, actual[i], h) {
				return false
			}
		}
	}
	return true
}

// IsConvertible reports whether an argument of type sub is acceptable
// for a formal of type sup in the given conversion regime. The strict
// regime is plain subtyping; the loose regime adds boxing, unboxing and
// primitive widening.
func IsConvertible(sub, sup Type, h Hierarchy, loose bool) bool {
	if IsSubtype(sub, sup, h) {
		return true
	}
	if !loose {
		return false
	}
	if p, ok := sub.(TPrimitive); ok {
		if sp, ok := sup.(TPrimitive); ok {
			return WidensTo(p, sp)
		}
		// Boxing, then reference widening.
		return IsSubtype(Box(p), sup, h)
	}
	if sp, ok := sup.(TPrimitive); ok {
		// Unboxing, then primitive widening.
		if p, ok := Unbox(sub); ok {
			return WidensTo(p, sp)
		}
	}
	return false
}

// Erasure computes the erased form of a type.
func Erasure(t Type) Type {
	switch t := t.(type) {
	case TClass:
		return TClass{Name: t.Name}
	case TArray:
		return TArray{Elem: Erasure(t.Elem)}
	case TTypeVar:
		if t.Bound == nil {
			return Object()
		}
		return Erasure(t.Bound)
	case TIntersection:
		if len(t.Types) > 0 {
			return Erasure(t.Types[0])
		}
		return Object()
	case TWildcard:
		if t.Upper != nil {
			return Erasure(t.Upper)
		}
		return Object()
	case TIvar:
		return Object()
	default:
		return t
	}
}

// SupertypeClosure returns t and all its supertypes in BFS order,
// which makes the first Lub hit the most specific common supertype.
func SupertypeClosure(t TClass, h Hierarchy) []Type {
	var out []Type
	seen := map[string]bool{}
	queue := []Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		key := cur.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, cur)
		if c, ok := cur.(TClass); ok && !IsObject(c) {
			supers := h.SupertypesOf(c)
			if len(supers) == 0 {
				supers = []Type{Object()}
			}
			queue = append(queue, supers...)
		}
	}
	return out
}

// Lub computes the least upper bound of a set of types. Incomparable
// sets with no common supertype besides Object resolve to Object: the
// engine is best-effort and must not fail here.
func Lub(ts []Type, h Hierarchy) Type {
	// Drop unresolved members: they carry no information.
	var kept []Type
	for _, t := range ts {
		if t != nil && !IsUnresolved(t) {
			kept = append(kept, t)
		}
	}
	kept = dedupe(kept)
	if len(kept) == 0 {
		return Object()
	}
	if len(kept) == 1 {
		return kept[0]
	}

	// Mixed sets with primitives go through boxing first.
	for i, t := range kept {
		if p, ok := t.(TPrimitive); ok {
			kept[i] = Box(p)
		}
	}
	kept = dedupe(kept)
	if len(kept) == 1 {
		return kept[0]
	}

	first, ok := kept[0].(TClass)
	if !ok {
		// Arrays, tvars, intersections: fall back to Object unless all equal.
		return Object()
	}
	for _, cand := range SupertypeClosure(first, h) {
		all := true
		for _, other := range kept[1:] {
			if !IsSubtype(other, cand, h) {
				all = false
				break
			}
		}
		if all {
			return cand
		}
	}
	return Object()
}

// Glb computes the greatest lower bound of a set of upper bounds.
func Glb(ts []Type, h Hierarchy) Type {
	var kept []Type
	for _, t := range ts {
		if t == nil || IsUnresolved(t) || IsObject(t) {
			continue
		}
		kept = append(kept, t)
	}
	kept = dedupe(kept)

	// Drop members that are supertypes of another member.
	var minimal []Type
	for i, t := range kept {
		redundant := false
		for j, other := range kept {
			if i != j && IsSubtype(other, t, h) && !Equal(other, t) {
				redundant = true
				break
			}
		}
		if !redundant {
			minimal = append(minimal, t)
		}
	}

	switch len(minimal) {
	case 0:
		return Object()
	case 1:
		return minimal[0]
	default:
		sort.Slice(minimal, func(i, j int) bool {
			return minimal[i].String() < minimal[j].String()
		})
		return TIntersection{Types: minimal}
	}
}

func dedupe(ts []Type) []Type {
	seen := map[string]bool{}
	var out []Type
	for _, t := range ts {
		s := t.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, t)
		}
	}
	return out
}
