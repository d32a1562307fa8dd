package types

import (
	"fmt"
	"strings"

	"github.com/funvibe/jinfer/internal/config"
)

// Type is the interface for all type mirrors in the system.
// Mirrors are immutable values; substitution returns a new mirror.
type Type interface {
	String() string
	Apply(Subst) Type
	ApplyIvars(IvarSubst) Type
}

// Subst maps declared type-parameter names to types.
// It is used once per resolution attempt, to replace a candidate's
// type parameters with fresh inference variables.
type Subst map[string]Type

// IvarSubst maps inference-variable ids to their instantiations.
type IvarSubst map[int]Type

// TClass is a class or interface type, possibly parameterized.
// Supertype information is not stored here; it is looked up through
// a Hierarchy (see relations.go).
type TClass struct {
	Name string
	Args []Type
}

func (t TClass) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Name, strings.Join(args, ", "))
}

func (t TClass) Apply(s Subst) Type {
	if len(t.Args) == 0 {
		return t
	}
	return TClass{Name: t.Name, Args: applySlice(t.Args, s)}
}

func (t TClass) ApplyIvars(s IvarSubst) Type {
	if len(t.Args) == 0 {
		return t
	}
	return TClass{Name: t.Name, Args: applyIvarsSlice(t.Args, s)}
}

// TPrimitive is a primitive type (int, boolean, ...).
type TPrimitive struct {
	Name string
}

func (t TPrimitive) String() string { return t.Name }
func (t TPrimitive) Apply(Subst) Type { return t }
func (t TPrimitive) ApplyIvars(IvarSubst) Type { return t }

// TArray is an array type.
type TArray struct {
	Elem Type
}

func (t TArray) String() string { return t.Elem.String() + "[]" }

func (t TArray) Apply(s Subst) Type { return TArray{Elem: t.Elem.Apply(s)} }

func (t TArray) ApplyIvars(s IvarSubst) Type { return TArray{Elem: t.Elem.ApplyIvars(s)} }

// TTypeVar is an occurrence of a declared type parameter (T, E, ...).
// Bound is the declared upper bound, nil meaning Object.
type TTypeVar struct {
	Name  string
	Bound Type
}

func (t TTypeVar) String() string { return t.Name }

func (t TTypeVar) Apply(s Subst) Type {
	if r, ok := s[t.Name]; ok {
		// Direct self-reference keeps the variable as-is.
		if tv, isVar := r.(TTypeVar); isVar && tv.Name == t.Name {
			return t
		}
		return r
	}
	return t
}

func (t TTypeVar) ApplyIvars(IvarSubst) Type { return t }

// TIvar is an occurrence of an inference variable. The variable's bounds
// and instantiation live in the arena of the resolution that allocated it;
// the mirror only carries the arena index.
type TIvar struct {
	ID int
}

func (t TIvar) String() string { return fmt.Sprintf("α%d", t.ID) }

func (t TIvar) Apply(Subst) Type { return t }

func (t TIvar) ApplyIvars(s IvarSubst) Type {
	if r, ok := s[t.ID]; ok {
		return r
	}
	return t
}

// TWildcard is a wildcard type argument.
// Upper non-nil: "? extends Upper". Lower non-nil: "? super Lower".
// Both nil: the unbounded wildcard.
type TWildcard struct {
	Upper Type
	Lower Type
}

func (t TWildcard) String() string {
	switch {
	case t.Upper != nil:
		return "? extends " + t.Upper.String()
	case t.Lower != nil:
		return "? super " + t.Lower.String()
	default:
		return "?"
	}
}

func (t TWildcard) Apply(s Subst) Type {
	w := TWildcard{}
	if t.Upper != nil {
		w.Upper = t.Upper.Apply(s)
	}
	if t.Lower != nil {
		w.Lower = t.Lower.Apply(s)
	}
	return w
}

func (t TWildcard) ApplyIvars(s IvarSubst) Type {
	w := TWildcard{}
	if t.Upper != nil {
		w.Upper = t.Upper.ApplyIvars(s)
	}
	if t.Lower != nil {
		w.Lower = t.Lower.ApplyIvars(s)
	}
	return w
}

// TIntersection is an intersection type (A & B), produced by greatest
// lower bound computation. Members are kept sorted for determinism.
type TIntersection struct {
	Types []Type
}

func (t TIntersection) String() string {
	parts := make([]string, len(t.Types))
	for i, m := range t.Types {
		parts[i] = m.String()
	}
	return strings.Join(parts, " & ")
}

func (t TIntersection) Apply(s Subst) Type {
	return TIntersection{Types: applySlice(t.Types, s)}
}

func (t TIntersection) ApplyIvars(s IvarSubst) Type {
	return TIntersection{Types: applyIvarsSlice(t.Types, s)}
}

// TUnresolved is the marker type for symbols that could not be loaded.
// The engine treats it as compatible with everything and suppresses
// diagnostics that would rest on it (no ground truth exists).
type TUnresolved struct{}

func (t TUnresolved) String() string { return config.UnresolvedName }
func (t TUnresolved) Apply(Subst) Type { return t }
func (t TUnresolved) ApplyIvars(IvarSubst) Type { return t }

// Object returns the universal top reference type.
func Object() TClass {
	return TClass{Name: config.ObjectName}
}

// IsObject reports whether t is the top reference type.
func IsObject(t Type) bool {
	c, ok := t.(TClass)
	return ok && c.Name == config.ObjectName && len(c.Args) == 0
}

// IsUnresolved reports whether t is the unresolved marker.
func IsUnresolved(t Type) bool {
	_, ok := t.(TUnresolved)
	return ok
}

// ContainsIvars reports whether any inference variable occurs in t.
func ContainsIvars(t Type) bool {
	return len(CollectIvars(t)) > 0
}

// CollectIvars returns the ids of all inference variables occurring in t,
// in first-occurrence order.
func CollectIvars(t Type) []int {
	var ids []int
	seen := map[int]bool{}
	var walk func(Type)
	walk = func(t Type) {
		switch t := t.(type) {
		case TIvar:
			if !seen[t.ID] {
				seen[t.ID] = true
				ids = append(ids, t.ID)
			}
		case TClass:
			for _, a := range t.Args {
				walk(a)
			}
		case TArray:
			walk(t.Elem)
		case TWildcard:
			if t.Upper != nil {
				walk(t.Upper)
			}
			if t.Lower != nil {
				walk(t.Lower)
			}
		case TIntersection:
			for _, m := range t.Types {
				walk(m)
			}
		}
	}
	if t != nil {
		walk(t)
	}
	return ids
}

func applySlice(ts []Type, s Subst) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = t.Apply(s)
	}
	return out
}

func applyIvarsSlice(ts []Type, s IvarSubst) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = t.ApplyIvars(s)
	}
	return out
}
