package infer

import (
	"github.com/funvibe/jinfer/internal/types"
)

// ArgExpr is the engine's view of one argument expression. The engine
// does not own expressions; it only needs their syntactic shape (poly
// or not), their location for diagnostics, and, for expressions
// pertinent to applicability, their static type.
type ArgExpr interface {
	Location() string

	// IsPoly reports whether the expression's own type depends on its
	// target type, which forces deferred checking.
	IsPoly() bool

	// StaticType is the eagerly computable type of a non-poly
	// expression, nil for poly expressions.
	StaticType() types.Type
}

// TypedArg is an expression whose type is known up front: a literal, a
// variable reference, a field access. Always pertinent to applicability.
type TypedArg struct {
	Type types.Type
	Loc  string
}

func (a *TypedArg) Location() string { return a.Loc }
func (a *TypedArg) IsPoly() bool { return false }
func (a *TypedArg) StaticType() types.Type { return a.Type }

// LambdaArg is a lambda expression. Its checking is deferred: during
// applicability only the parameter count is compared against the
// formal's functional method. Result, if non-nil, is the mirror of the
// body's result expression, checked once a candidate is chosen.
type LambdaArg struct {
	NParams int
	Result  ArgExpr
	Loc     string
}

func (a *LambdaArg) Location() string { return a.Loc }
func (a *LambdaArg) IsPoly() bool { return true }
func (a *LambdaArg) StaticType() types.Type { return nil }

// MethodRefArg is a method reference. Like a lambda it is poly; the
// formal must be a functional interface.
type MethodRefArg struct {
	Loc string
}

func (a *MethodRefArg) Location() string { return a.Loc }
func (a *MethodRefArg) IsPoly() bool { return true }
func (a *MethodRefArg) StaticType() types.Type { return nil }

// ConditionalArg is a conditional expression. It is poly iff either
// branch is poly; otherwise its static type is the least upper bound of
// the branch types (computed by the checker, which owns a hierarchy).
type ConditionalArg struct {
	Then ArgExpr
	Else ArgExpr
	Loc  string
}

func (a *ConditionalArg) Location() string { return a.Loc }

func (a *ConditionalArg) IsPoly() bool {
	return a.Then.IsPoly() || a.Else.IsPoly()
}

func (a *ConditionalArg) StaticType() types.Type { return nil }

// NestedCallArg is a method or constructor invocation used as an
// argument. If any candidate of the nested site is generic, the nested
// call's type depends on its target type and checking is deferred; the
// driver then resolves the nested site recursively with the formal
// parameter type as target, sharing inference variables with the
// enclosing invocation.
type NestedCallArg struct {
	Site *CallSite
	Loc  string
}

func (a *NestedCallArg) Location() string { return a.Loc }

func (a *NestedCallArg) IsPoly() bool {
	for _, c := range a.Site.Candidates {
		if c.IsGeneric() {
			return true
		}
	}
	return false
}

func (a *NestedCallArg) StaticType() types.Type { return nil }
