package infer

import (
	"fmt"

	"github.com/funvibe/jinfer/internal/types"
)

// shapeCompatible reports whether a candidate's parameter-list shape
// fits the phase: exact arity for the fixed-arity phases, trailing
// expansion for the varargs phases.
func shapeCompatible(sig *types.Signature, nargs int, phase Phase) bool {
	if phase.IsVarargs() {
		if !sig.Varargs {
			return false
		}
		return nargs >= sig.Arity()-1
	}
	return nargs == sig.Arity()
}

// formalAt returns the formal type for argument position i under a
// phase. In the varargs phases, trailing positions check against the
// component type of the last formal.
func formalAt(sig *types.Signature, i int, phase Phase) types.Type {
	last := sig.Arity() - 1
	if phase.IsVarargs() && sig.Varargs && i >= last {
		if arr, ok := sig.Params[last].(types.TArray); ok {
			return arr.Elem
		}
		return sig.Params[last]
	}
	return sig.Params[i]
}

// checkApplicability decides whether a candidate, under a context,
// accepts the call site's arguments in the given phase. In the
// applicability phases poly arguments are deferred: only their shape is
// checked, breaking the circularity between "is this candidate
// applicable" and "what type does this lambda have". In the invocation
// phases every argument is checked eagerly.
func (r *resolution) checkApplicability(ctx *InferenceContext, mapped *types.Signature, site *CallSite, phase Phase) error {
	obs := r.eng.obs
	obs.StartArgsChecks()
	defer obs.EndArgsChecks()

	for i, arg := range site.Args {
		formal := formalAt(mapped, i, phase)

		if arg.IsPoly() && !phase.IsInvocation() {
			obs.SkipArgAsNonPertinent(i, arg)
			if err := r.checkShape(arg, formal); err != nil {
				return err
			}
			continue
		}

		obs.StartArg(i, arg, formal)
		err := r.checkArg(ctx, arg, i, mapped, site, phase, formal)
		obs.EndArg()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *resolution) checkArg(ctx *InferenceContext, arg ArgExpr, i int, mapped *types.Signature, site *CallSite, phase Phase, formal types.Type) error {
	if arg.IsPoly() {
		return r.checkPolyArg(ctx, arg, formal, phase)
	}

	at := r.staticTypeOf(arg)

	// A single trailing array argument may match the varargs parameter
	// itself rather than its component type.
	last := mapped.Arity() - 1
	if phase.IsVarargs() && mapped.Varargs && i == last && len(site.Args) == mapped.Arity() {
		if err := r.checkCompat(ctx, at, mapped.Params[last], phase); err == nil {
			return nil
		}
	}
	return r.checkCompat(ctx, at, formal, phase)
}

// staticTypeOf computes the eager type of an expression pertinent to
// applicability. Conditionals take the least upper bound of their
// branches; non-generic nested calls are resolved independently.
func (r *resolution) staticTypeOf(arg ArgExpr) types.Type {
	switch a := arg.(type) {
	case *ConditionalArg:
		return types.Lub([]types.Type{r.staticTypeOf(a.Then), r.staticTypeOf(a.Else)}, r.eng.env)
	case *NestedCallArg:
		return r.resolve(a.Site, nil, nil).Signature.Return
	default:
		if t := arg.StaticType(); t != nil {
			return t
		}
		return types.TUnresolved{}
	}
}

// checkCompat adds the compatibility constraint "actual acceptable for
// formal". If the formal mentions no inference variable it is a direct
// conversion check; otherwise bounds are accumulated on the ivars.
func (r *resolution) checkCompat(ctx *InferenceContext, actual, formal types.Type, phase Phase) error {
	if actual == nil {
		actual = types.TUnresolved{}
	}
	formal = r.graph.Ground(formal)
	if !types.ContainsIvars(formal) {
		if types.ContainsIvars(actual) {
			// Partially inferred nested result: its bounds were
			// accumulated during the nested return check.
			return nil
		}
		if types.IsConvertible(actual, formal, r.eng.env, phase.IsLoose()) {
			return nil
		}
		return fmt.Errorf("argument of type %s does not conform to %s", actual, formal)
	}
	return r.addCompatBounds(ctx, actual, formal)
}

// addCompatBounds records "actual <: formal" where formal contains
// ivars. A bare ivar takes a lower bound; parameterized formals descend
// structurally through the actual type's supertype closure.
func (r *resolution) addCompatBounds(ctx *InferenceContext, actual, formal types.Type) error {
	if types.IsUnresolved(actual) {
		return nil
	}
	switch f := formal.(type) {
	case types.TIvar:
		r.graph.AddBound(ctx, f, BoundLower, actual, r.eng.obs)
		return nil
	case types.TArray:
		if aa, ok := actual.(types.TArray); ok {
			return r.addCompatBounds(ctx, aa.Elem, f.Elem)
		}
		return fmt.Errorf("argument of type %s does not conform to %s", actual, formal)
	case types.TClass:
		if p, ok := actual.(types.TPrimitive); ok {
			return r.addCompatBounds(ctx, types.Box(p), formal)
		}
		ac, ok := actual.(types.TClass)
		if !ok {
			return fmt.Errorf("argument of type %s does not conform to %s", actual, formal)
		}
		for _, s := range types.SupertypeClosure(ac, r.eng.env) {
			sc, ok := s.(types.TClass)
			if !ok || sc.Name != f.Name || len(sc.Args) != len(f.Args) {
				continue
			}
			for i := range f.Args {
				if err := r.addArgumentBounds(ctx, sc.Args[i], f.Args[i]); err != nil {
					return err
				}
			}
			return nil
		}
		return fmt.Errorf("argument of type %s does not conform to %s", actual, formal)
	case types.TWildcard:
		if f.Upper != nil {
			return r.addCompatBounds(ctx, actual, f.Upper)
		}
		return nil
	default:
		return fmt.Errorf("argument of type %s does not conform to %s", actual, formal)
	}
}

// addArgumentBounds matches one type-argument position. Generic type
// arguments are invariant, so a bare ivar gets an equality bound;
// wildcards relax the position to an upper or lower bound.
func (r *resolution) addArgumentBounds(ctx *InferenceContext, actual, formal types.Type) error {
	if fiv, ok := formal.(types.TIvar); ok {
		r.graph.AddBound(ctx, fiv, BoundEq, actual, r.eng.obs)
		return nil
	}
	if aiv, ok := actual.(types.TIvar); ok {
		r.graph.AddBound(ctx, aiv, BoundEq, formal, r.eng.obs)
		return nil
	}
	if fw, ok := formal.(types.TWildcard); ok {
		switch {
		case fw.Upper != nil:
			if iv, ok := fw.Upper.(types.TIvar); ok {
				r.graph.AddBound(ctx, iv, BoundLower, actual, r.eng.obs)
				return nil
			}
			return r.addCompatBounds(ctx, actual, fw.Upper)
		case fw.Lower != nil:
			if iv, ok := fw.Lower.(types.TIvar); ok {
				r.graph.AddBound(ctx, iv, BoundUpper, actual, r.eng.obs)
				return nil
			}
		}
		return nil
	}
	if !types.ContainsIvars(formal) {
		if types.Equal(actual, formal) || types.IsUnresolved(actual) || types.IsUnresolved(formal) {
			return nil
		}
		return fmt.Errorf("type argument %s does not match %s", actual, formal)
	}
	// Structural descent: the ivars sit deeper.
	switch f := formal.(type) {
	case types.TClass:
		if ac, ok := actual.(types.TClass); ok && ac.Name == f.Name && len(ac.Args) == len(f.Args) {
			for i := range f.Args {
				if err := r.addArgumentBounds(ctx, ac.Args[i], f.Args[i]); err != nil {
					return err
				}
			}
			return nil
		}
	case types.TArray:
		if aa, ok := actual.(types.TArray); ok {
			return r.addArgumentBounds(ctx, aa.Elem, f.Elem)
		}
	}
	return fmt.Errorf("type argument %s does not match %s", actual, formal)
}

// checkShape verifies arity/kind compatibility of a deferred argument
// without computing its type. Formals still containing ivars cannot be
// judged yet and pass.
func (r *resolution) checkShape(arg ArgExpr, formal types.Type) error {
	formal = r.graph.Ground(formal)
	if types.ContainsIvars(formal) || types.IsUnresolved(formal) {
		return nil
	}
	switch a := arg.(type) {
	case *LambdaArg:
		fm, known, err := r.functionalMethodOf(formal)
		if err != nil || !known {
			return err
		}
		if fm.Arity() != a.NParams {
			return fmt.Errorf("lambda with %d parameters does not fit %s", a.NParams, formal)
		}
		return nil
	case *MethodRefArg:
		_, _, err := r.functionalMethodOf(formal)
		return err
	case *ConditionalArg:
		if a.Then.IsPoly() {
			if err := r.checkShape(a.Then, formal); err != nil {
				return err
			}
		}
		if a.Else.IsPoly() {
			return r.checkShape(a.Else, formal)
		}
		return nil
	default:
		return nil
	}
}

// functionalMethodOf returns the functional interface method of a
// grounded formal. known is false when the class is an unresolved stub,
// in which case no judgement is possible.
func (r *resolution) functionalMethodOf(formal types.Type) (*types.Signature, bool, error) {
	fc, ok := formal.(types.TClass)
	if !ok {
		return nil, false, fmt.Errorf("%s is not a functional interface", formal)
	}
	if r.eng.env.Resolve(fc.Name).Unresolved {
		return nil, false, nil
	}
	fm := r.eng.env.FunctionalMethod(fc)
	if fm == nil {
		return nil, false, fmt.Errorf("%s is not a functional interface", formal)
	}
	return fm, true, nil
}

// checkPolyArg re-checks a deferred argument eagerly, in an invocation
// phase. Nested generic calls recurse into the driver with the formal
// as target type, sharing this resolution's ivar arena.
func (r *resolution) checkPolyArg(ctx *InferenceContext, arg ArgExpr, formal types.Type, phase Phase) error {
	switch a := arg.(type) {
	case *NestedCallArg:
		res := r.resolve(a.Site, formal, ctx)
		if res.Signature.Unresolved {
			return fmt.Errorf("nested invocation of %s could not be resolved", a.Site.Name)
		}
		return nil
	case *LambdaArg:
		grounded := r.graph.Ground(formal)
		if types.ContainsIvars(grounded) {
			// Target type still undetermined: nothing to constrain.
			return nil
		}
		fm, known, err := r.functionalMethodOf(grounded)
		if err != nil || !known {
			return err
		}
		if fm.Arity() != a.NParams {
			return fmt.Errorf("lambda with %d parameters does not fit %s", a.NParams, grounded)
		}
		if a.Result != nil && fm.Return != nil {
			if a.Result.IsPoly() {
				return r.checkPolyArg(ctx, a.Result, fm.Return, phase)
			}
			return r.checkCompat(ctx, r.staticTypeOf(a.Result), fm.Return, phase)
		}
		return nil
	case *MethodRefArg:
		grounded := r.graph.Ground(formal)
		if types.ContainsIvars(grounded) {
			return nil
		}
		_, _, err := r.functionalMethodOf(grounded)
		return err
	case *ConditionalArg:
		for _, branch := range []ArgExpr{a.Then, a.Else} {
			var err error
			if branch.IsPoly() {
				err = r.checkPolyArg(ctx, branch, formal, phase)
			} else {
				err = r.checkCompat(ctx, r.staticTypeOf(branch), formal, phase)
			}
			if err != nil {
				return err
			}
		}
		return nil
	default:
		return r.checkCompat(ctx, r.staticTypeOf(arg), formal, phase)
	}
}

// checkReturn folds in the compatibility bound between the candidate's
// return type and the call site's target type. Skipped entirely when
// the invocation's result is used in an untyped context.
func (r *resolution) checkReturn(ctx *InferenceContext, mapped *types.Signature, expected types.Type) error {
	if expected == nil || mapped.Return == nil {
		return nil
	}
	obs := r.eng.obs
	obs.StartReturnChecks()
	defer obs.EndReturnChecks()

	ret := r.graph.Ground(mapped.Return)
	expected = r.graph.Ground(expected)

	if riv, ok := ret.(types.TIvar); ok {
		r.graph.AddBound(ctx, riv, BoundUpper, expected, r.eng.obs)
		return nil
	}
	if eiv, ok := expected.(types.TIvar); ok {
		// The target is an enclosing context's ivar: the nested result
		// flows into it as a lower bound.
		r.graph.AddBound(ctx, eiv, BoundLower, ret, r.eng.obs)
		return nil
	}
	if types.ContainsIvars(ret) || types.ContainsIvars(expected) {
		return r.addReturnBounds(ctx, ret, expected)
	}
	if types.IsConvertible(ret, expected, r.eng.env, true) {
		return nil
	}
	return fmt.Errorf("return type %s does not conform to target type %s", ret, expected)
}

// addReturnBounds matches a structured return type against a structured
// target where either side may mention ivars.
func (r *resolution) addReturnBounds(ctx *InferenceContext, ret, expected types.Type) error {
	ec, eok := expected.(types.TClass)
	rc, rok := ret.(types.TClass)
	if eok && rok {
		if !types.ContainsIvars(ret) {
			// Concrete result against a target with ivar arguments:
			// walk up to the target's class.
			return r.addCompatBounds(ctx, ret, expected)
		}
		if rc.Name == ec.Name && len(rc.Args) == len(ec.Args) {
			for i := range rc.Args {
				if err := r.addArgumentBounds(ctx, rc.Args[i], ec.Args[i]); err != nil {
					return err
				}
			}
			return nil
		}
		return nil
	}
	if ra, ok := ret.(types.TArray); ok {
		if ea, ok := expected.(types.TArray); ok {
			return r.addReturnBounds(ctx, ra.Elem, ea.Elem)
		}
	}
	return nil
}
