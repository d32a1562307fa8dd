package types

import (
	"fmt"
	"strings"

	"github.com/funvibe/jinfer/internal/config"
)

// TypeParam is a declared type parameter of a method or class.
// Bound is the declared upper bound, nil meaning Object.
type TypeParam struct {
	Name  string
	Bound Type
}

// Signature is a method or constructor signature. Once obtained from a
// provider a signature is immutable; substitution returns a copy.
type Signature struct {
	Name  string
	Owner string // declaring class

	// TypeParams are the method's own type parameters. ClassParams are
	// the declaring class's type parameters; they participate in
	// inference for constructor and static contexts.
	TypeParams  []TypeParam
	ClassParams []TypeParam

	Params  []Type
	Return  Type
	Varargs bool

	// Unresolved marks best-effort fallback signatures. Downstream
	// consumers must not trust an unresolved signature's types.
	Unresolved bool
}

// NewUnresolvedSignature builds the placeholder signature returned when
// no compile-time declaration could be determined at all.
func NewUnresolvedSignature(name string, arity int) *Signature {
	params := make([]Type, arity)
	for i := range params {
		params[i] = TUnresolved{}
	}
	return &Signature{
		Name:       name,
		Owner:      config.UnresolvedName,
		Params:     params,
		Return:     TUnresolved{},
		Unresolved: true,
	}
}

// IsCtor reports whether this signature is a constructor.
func (s *Signature) IsCtor() bool { return s.Name == config.CtorName }

// Arity returns the number of formal parameters.
func (s *Signature) Arity() int { return len(s.Params) }

// IsGeneric reports whether any type parameter takes part in inference.
func (s *Signature) IsGeneric() bool {
	return len(s.TypeParams) > 0 || (s.IsCtor() && len(s.ClassParams) > 0)
}

// Apply substitutes declared type parameters in the parameter and return
// types. Type parameter declarations themselves are not rewritten.
func (s *Signature) Apply(sub Subst) *Signature {
	out := *s
	out.Params = applySlice(s.Params, sub)
	if s.Return != nil {
		out.Return = s.Return.Apply(sub)
	}
	return &out
}

// ApplyIvars substitutes inference variables by their instantiations.
func (s *Signature) ApplyIvars(sub IvarSubst) *Signature {
	out := *s
	out.Params = applyIvarsSlice(s.Params, sub)
	if s.Return != nil {
		out.Return = s.Return.ApplyIvars(sub)
	}
	return &out
}

func (s *Signature) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.String()
	}
	if s.Varargs && len(params) > 0 {
		params[len(params)-1] = strings.TrimSuffix(params[len(params)-1], "[]") + "..."
	}
	ret := ""
	if s.Return != nil && !s.IsCtor() {
		ret = " -> " + s.Return.String()
	}
	tparams := ""
	if len(s.TypeParams) > 0 {
		names := make([]string, len(s.TypeParams))
		for i, tp := range s.TypeParams {
			names[i] = tp.Name
		}
		tparams = "<" + strings.Join(names, ", ") + "> "
	}
	return fmt.Sprintf("%s%s.%s(%s)%s", tparams, s.Owner, s.Name, strings.Join(params, ", "), ret)
}
