package infer

import (
	"testing"

	"github.com/funvibe/jinfer/internal/config"
	"github.com/funvibe/jinfer/internal/symbols"
	"github.com/funvibe/jinfer/internal/types"
)

func strT() types.TClass { return types.TClass{Name: "java.lang.String"} }
func numberT() types.TClass { return types.TClass{Name: "java.lang.Number"} }
func integerT() types.TClass { return types.TClass{Name: "java.lang.Integer"} }
func longT() types.TClass { return types.TClass{Name: "java.lang.Long"} }
func intP() types.TPrimitive { return types.TPrimitive{Name: "int"} }

func listT(arg types.Type) types.TClass {
	return types.TClass{Name: "java.util.List", Args: []types.Type{arg}}
}

func funcT(t, r types.Type) types.TClass {
	return types.TClass{Name: "java.util.function.Function", Args: []types.Type{t, r}}
}

func typed(t types.Type) ArgExpr { return &TypedArg{Type: t} }

// testTable builds the class universe shared by the engine tests.
func testTable() *symbols.Table {
	tbl := symbols.NewTable()
	tbl.Define(&symbols.ClassDef{Name: "java.lang.String"})
	tbl.Define(&symbols.ClassDef{Name: "java.lang.Number"})
	tbl.Define(&symbols.ClassDef{Name: "java.lang.Integer", Supertypes: []types.Type{numberT()}})
	tbl.Define(&symbols.ClassDef{Name: "java.lang.Long", Supertypes: []types.Type{numberT()}})
	tbl.Define(&symbols.ClassDef{
		Name:       "java.util.Collection",
		TypeParams: []types.TypeParam{{Name: "E"}},
	})
	tbl.Define(&symbols.ClassDef{
		Name:       "java.util.List",
		TypeParams: []types.TypeParam{{Name: "E"}},
		Supertypes: []types.Type{
			types.TClass{Name: "java.util.Collection", Args: []types.Type{types.TTypeVar{Name: "E"}}},
		},
	})
	tbl.Define(&symbols.ClassDef{
		Name:       "java.util.ArrayList",
		TypeParams: []types.TypeParam{{Name: "E"}},
		Supertypes: []types.Type{listT(types.TTypeVar{Name: "E"})},
	})
	tbl.Define(&symbols.ClassDef{
		Name:       "java.util.function.Function",
		TypeParams: []types.TypeParam{{Name: "T"}, {Name: "R"}},
		Functional: &types.Signature{
			Name:   "apply",
			Owner:  "java.util.function.Function",
			Params: []types.Type{types.TTypeVar{Name: "T"}},
			Return: types.TTypeVar{Name: "R"},
		},
	})
	return tbl
}

func testEngine(tbl *symbols.Table) *Engine {
	return NewEngine(tbl, Noop{}, config.DefaultOptions())
}

func method(name string, ret types.Type, params ...types.Type) *types.Signature {
	return &types.Signature{Name: name, Owner: "demo.Util", Params: params, Return: ret}
}

func genericMethod(name string, tparams []types.TypeParam, ret types.Type, params ...types.Type) *types.Signature {
	sig := method(name, ret, params...)
	sig.TypeParams = tparams
	return sig
}

func TestResolvePicksExactMatch(t *testing.T) {
	eng := testEngine(testTable())
	cands := []*types.Signature{
		method("m", nil, numberT()),
		method("m", nil, integerT()),
	}
	site := NewCallSite("m", nil, nil, []ArgExpr{typed(integerT())}, cands)

	res := eng.Resolve(site)
	if res.Signature.Unresolved {
		t.Fatalf("resolution failed: %v", res.Failures)
	}
	if res.Phase != PhaseStrict {
		t.Errorf("phase = %s, want STRICT", res.Phase)
	}
	if !types.Equal(res.Signature.Params[0], integerT()) {
		t.Errorf("picked %s, want the java.lang.Integer overload", res.Signature)
	}
}

func TestLoosePhaseOnlyWhenStrictFails(t *testing.T) {
	eng := testEngine(testTable())

	t.Run("widening needs the loose phase", func(t *testing.T) {
		site := NewCallSite("m", nil, nil,
			[]ArgExpr{typed(intP())},
			[]*types.Signature{method("m", nil, types.TPrimitive{Name: "long"})})
		res := eng.Resolve(site)
		if res.Signature.Unresolved {
			t.Fatalf("resolution failed: %v", res.Failures)
		}
		if res.Phase != PhaseLoose {
			t.Errorf("phase = %s, want LOOSE", res.Phase)
		}
	})

	t.Run("int literal picks int over Integer without boxing", func(t *testing.T) {
		cands := []*types.Signature{
			method("m", nil, intP()),
			method("m", nil, integerT()),
		}
		site := NewCallSite("m", nil, nil, []ArgExpr{typed(intP())}, cands)
		res := eng.Resolve(site)
		if res.Phase != PhaseStrict {
			t.Errorf("phase = %s, want STRICT", res.Phase)
		}
		if !types.Equal(res.Signature.Params[0], intP()) {
			t.Errorf("picked %s, want the int overload", res.Signature)
		}
	})

	t.Run("strict match hides the widening overload", func(t *testing.T) {
		cands := []*types.Signature{
			method("m", nil, types.TPrimitive{Name: "long"}),
			method("m", nil, intP()),
		}
		site := NewCallSite("m", nil, nil, []ArgExpr{typed(intP())}, cands)
		res := eng.Resolve(site)
		if res.Phase != PhaseStrict {
			t.Errorf("phase = %s, want STRICT", res.Phase)
		}
		if !types.Equal(res.Signature.Params[0], intP()) {
			t.Errorf("picked %s, want the int overload", res.Signature)
		}
	})
}

func TestVarargsResolution(t *testing.T) {
	eng := testEngine(testTable())
	varargs := method("m", nil, types.TArray{Elem: intP()})
	varargs.Varargs = true

	t.Run("expansion happens in the varargs phase", func(t *testing.T) {
		site := NewCallSite("m", nil, nil,
			[]ArgExpr{typed(intP()), typed(intP()), typed(intP())},
			[]*types.Signature{varargs})
		res := eng.Resolve(site)
		if res.Signature.Unresolved {
			t.Fatalf("resolution failed: %v", res.Failures)
		}
		if res.Phase != PhaseVarargs {
			t.Errorf("phase = %s, want VARARGS", res.Phase)
		}
	})

	t.Run("array argument passes without expansion", func(t *testing.T) {
		site := NewCallSite("m", nil, nil,
			[]ArgExpr{typed(types.TArray{Elem: intP()})},
			[]*types.Signature{varargs})
		res := eng.Resolve(site)
		if res.Phase != PhaseStrict {
			t.Errorf("phase = %s, want STRICT (array matches the parameter itself)", res.Phase)
		}
	})

	t.Run("fixed arity overload wins over expansion", func(t *testing.T) {
		fixed := method("m", nil, intP(), intP())
		site := NewCallSite("m", nil, nil,
			[]ArgExpr{typed(intP()), typed(intP())},
			[]*types.Signature{varargs, fixed})
		res := eng.Resolve(site)
		if res.Signature.Varargs {
			t.Errorf("picked the varargs overload over the fixed one")
		}
	})

	t.Run("zero varargs arguments", func(t *testing.T) {
		site := NewCallSite("m", nil, nil, nil, []*types.Signature{varargs})
		res := eng.Resolve(site)
		if res.Signature.Unresolved {
			t.Fatalf("empty expansion should apply: %v", res.Failures)
		}
	})
}

func TestGenericInferenceFromArgument(t *testing.T) {
	eng := testEngine(testTable())
	first := genericMethod("first",
		[]types.TypeParam{{Name: "T"}},
		types.TTypeVar{Name: "T"},
		listT(types.TTypeVar{Name: "T"}))
	site := NewCallSite("first", nil, nil,
		[]ArgExpr{typed(listT(strT()))},
		[]*types.Signature{first})

	res := eng.Resolve(site)
	if res.Signature.Unresolved {
		t.Fatalf("resolution failed: %v", res.Failures)
	}
	if !types.Equal(res.Signature.Return, strT()) {
		t.Errorf("inferred return %s, want java.lang.String", res.Signature.Return)
	}
}

func TestGenericInferenceThroughSupertype(t *testing.T) {
	// The actual argument is ArrayList<String> against a List<T> formal:
	// the bound comes from walking the supertype closure.
	eng := testEngine(testTable())
	first := genericMethod("first",
		[]types.TypeParam{{Name: "T"}},
		types.TTypeVar{Name: "T"},
		listT(types.TTypeVar{Name: "T"}))
	site := NewCallSite("first", nil, nil,
		[]ArgExpr{typed(types.TClass{Name: "java.util.ArrayList", Args: []types.Type{strT()}})},
		[]*types.Signature{first})

	res := eng.Resolve(site)
	if !types.Equal(res.Signature.Return, strT()) {
		t.Errorf("inferred return %s, want java.lang.String", res.Signature.Return)
	}
}

func TestGenericIdentity(t *testing.T) {
	eng := testEngine(testTable())
	identity := genericMethod("identity",
		[]types.TypeParam{{Name: "T"}},
		types.TTypeVar{Name: "T"},
		types.TTypeVar{Name: "T"})
	site := NewCallSite("identity", nil, nil,
		[]ArgExpr{typed(strT())},
		[]*types.Signature{identity})

	res := eng.Resolve(site)
	if !types.Equal(res.Signature.Return, strT()) {
		t.Errorf("identity(String) inferred %s, want java.lang.String", res.Signature.Return)
	}
}

func TestGenericInferenceIncomparableArguments(t *testing.T) {
	// accept(String, Integer): the two occurrences of T share one ivar;
	// the lower bounds have no common supertype below Object.
	eng := testEngine(testTable())
	accept := genericMethod("accept",
		[]types.TypeParam{{Name: "T"}},
		nil,
		types.TTypeVar{Name: "T"}, types.TTypeVar{Name: "T"})
	site := NewCallSite("accept", nil, nil,
		[]ArgExpr{typed(strT()), typed(integerT())},
		[]*types.Signature{accept})

	res := eng.Resolve(site)
	if res.Signature.Unresolved {
		t.Fatalf("resolution failed: %v", res.Failures)
	}
	if !types.IsObject(res.Signature.Params[0]) {
		t.Errorf("inferred %s, want java.lang.Object", res.Signature.Params[0])
	}
}

func TestGenericInferenceLubOfArguments(t *testing.T) {
	eng := testEngine(testTable())
	pick := genericMethod("pick",
		[]types.TypeParam{{Name: "T"}},
		types.TTypeVar{Name: "T"},
		types.TTypeVar{Name: "T"}, types.TTypeVar{Name: "T"})
	site := NewCallSite("pick", nil, nil,
		[]ArgExpr{typed(integerT()), typed(longT())},
		[]*types.Signature{pick})

	res := eng.Resolve(site)
	if res.Signature.Unresolved {
		t.Fatalf("resolution failed: %v", res.Failures)
	}
	if !types.Equal(res.Signature.Return, numberT()) {
		t.Errorf("inferred return %s, want java.lang.Number (lub of the lower bounds)", res.Signature.Return)
	}
}

func TestDeclaredBoundViolationFailsCandidate(t *testing.T) {
	eng := testEngine(testTable())
	m := genericMethod("m",
		[]types.TypeParam{{Name: "T", Bound: numberT()}},
		types.TTypeVar{Name: "T"},
		types.TTypeVar{Name: "T"})
	site := NewCallSite("m", nil, nil,
		[]ArgExpr{typed(strT())},
		[]*types.Signature{m})

	res := eng.Resolve(site)
	if !res.Signature.Unresolved {
		t.Fatalf("String against T extends Number should not resolve, got %s", res.Signature)
	}
	found := false
	for _, f := range site.AllFailures() {
		if f.Kind == FailBoundConflict {
			found = true
		}
	}
	if !found {
		t.Errorf("ledger %v does not record the bound conflict", site.AllFailures())
	}
}

func TestReturnTargetInference(t *testing.T) {
	eng := testEngine(testTable())
	empty := genericMethod("empty",
		[]types.TypeParam{{Name: "T"}},
		listT(types.TTypeVar{Name: "T"}))
	site := NewCallSite("empty", nil, listT(strT()), nil, []*types.Signature{empty})

	res := eng.Resolve(site)
	if res.Signature.Unresolved {
		t.Fatalf("resolution failed: %v", res.Failures)
	}
	if !types.Equal(res.Signature.Return, listT(strT())) {
		t.Errorf("inferred return %s, want java.util.List<java.lang.String>", res.Signature.Return)
	}
}

func TestNoTargetFallsBackToDeclaredBound(t *testing.T) {
	eng := testEngine(testTable())
	empty := genericMethod("empty",
		[]types.TypeParam{{Name: "T", Bound: numberT()}},
		listT(types.TTypeVar{Name: "T"}))
	site := NewCallSite("empty", nil, nil, nil, []*types.Signature{empty})

	res := eng.Resolve(site)
	if !types.Equal(res.Signature.Return, listT(numberT())) {
		t.Errorf("inferred return %s, want java.util.List<java.lang.Number>", res.Signature.Return)
	}
}

func TestSpecificityPicksNarrowerOverload(t *testing.T) {
	eng := testEngine(testTable())
	cands := []*types.Signature{
		method("f", nil, types.Object()),
		method("f", nil, strT()),
	}
	site := NewCallSite("f", nil, nil, []ArgExpr{typed(strT())}, cands)

	res := eng.Resolve(site)
	if len(res.Ambiguous) > 0 {
		t.Fatalf("unexpected ambiguity: %v", res.Ambiguous)
	}
	if !types.Equal(res.Signature.Params[0], strT()) {
		t.Errorf("picked %s, want the java.lang.String overload", res.Signature)
	}
}

func TestAmbiguityIsOrderIndependent(t *testing.T) {
	a := method("f", nil, numberT(), integerT())
	b := method("f", nil, integerT(), numberT())
	args := []ArgExpr{typed(integerT()), typed(integerT())}

	run := func(cands []*types.Signature) *Result {
		eng := testEngine(testTable())
		return eng.Resolve(NewCallSite("f", nil, nil, args, cands))
	}

	fwd := run([]*types.Signature{a, b})
	rev := run([]*types.Signature{b, a})

	if len(fwd.Ambiguous) != 2 || len(rev.Ambiguous) != 2 {
		t.Fatalf("ambiguous sets: %v and %v, want two members each", fwd.Ambiguous, rev.Ambiguous)
	}
	// Same set either way; only the best-effort pick follows input order.
	set := func(sigs []*types.Signature) map[string]bool {
		m := map[string]bool{}
		for _, s := range sigs {
			m[s.String()] = true
		}
		return m
	}
	fs, rs := set(fwd.Ambiguous), set(rev.Ambiguous)
	for k := range fs {
		if !rs[k] {
			t.Errorf("ambiguous sets differ: %v vs %v", fwd.Ambiguous, rev.Ambiguous)
		}
	}
	if fwd.Signature == nil || fwd.Signature.Unresolved {
		t.Errorf("ambiguity must still produce a best-effort pick, got %v", fwd.Signature)
	}
}

func TestNoApplicableCandidates(t *testing.T) {
	eng := testEngine(testTable())
	site := NewCallSite("ghost", strT(), nil, []ArgExpr{typed(intP())}, nil)

	res := eng.Resolve(site)
	if !res.Signature.Unresolved {
		t.Fatal("want an unresolved placeholder")
	}
	if res.Signature.Name != "ghost" || res.Signature.Arity() != 1 {
		t.Errorf("placeholder should keep name and arity, got %s", res.Signature)
	}
	if len(res.Failures) != 1 || res.Failures[0].Kind != FailNoApplicable {
		t.Errorf("surfaced failures = %v, want one NoApplicableCandidates", res.Failures)
	}
}

func TestUnresolvedReceiverSuppressesDiagnostics(t *testing.T) {
	eng := testEngine(testTable())
	site := NewCallSite("ghost", types.TClass{Name: "com.example.Gone"}, nil, nil, nil)

	res := eng.Resolve(site)
	if !res.Signature.Unresolved {
		t.Fatal("want an unresolved placeholder")
	}
	if len(res.Failures) != 0 {
		t.Errorf("diagnostics on an unresolved receiver must be suppressed, got %v", res.Failures)
	}
	// The ledger still records what happened.
	if len(site.AllFailures()) == 0 {
		t.Error("ledger should keep the suppressed failure")
	}
}

func TestFallbackCompileTimeDecl(t *testing.T) {
	eng := testEngine(testTable())
	cand := method("f", nil, strT())
	site := NewCallSite("f", nil, nil, []ArgExpr{typed(listT(strT()))}, []*types.Signature{cand})

	res := eng.Resolve(site)
	if !res.Signature.Unresolved {
		t.Fatal("want the fallback flagged unresolved")
	}
	if res.Signature.Name != "f" || !types.Equal(res.Signature.Params[0], strT()) {
		t.Errorf("fallback should copy the first candidate, got %s", res.Signature)
	}
	if cand.Unresolved {
		t.Error("the candidate itself must not be mutated")
	}
	if len(res.Failures) != 1 || res.Failures[0].Kind != FailNoCTDecl {
		t.Errorf("surfaced failures = %v, want one NoCompileTimeDeclaration", res.Failures)
	}
}

func TestResolutionIsDeterministic(t *testing.T) {
	build := func() *CallSite {
		pick := genericMethod("pick",
			[]types.TypeParam{{Name: "T"}},
			types.TTypeVar{Name: "T"},
			types.TTypeVar{Name: "T"}, types.TTypeVar{Name: "T"})
		return NewCallSite("pick", nil, nil,
			[]ArgExpr{typed(integerT()), typed(longT())},
			[]*types.Signature{pick})
	}

	eng := testEngine(testTable())
	first := eng.Resolve(build())
	for i := 0; i < 10; i++ {
		again := eng.Resolve(build())
		if again.Signature.String() != first.Signature.String() || again.Phase != first.Phase {
			t.Fatalf("run %d differed: %s [%s] vs %s [%s]",
				i, again.Signature, again.Phase, first.Signature, first.Phase)
		}
	}
}

func TestLambdaArgument(t *testing.T) {
	eng := testEngine(testTable())
	m := method("m", nil, funcT(strT(), integerT()))

	t.Run("matching arity and result", func(t *testing.T) {
		lambda := &LambdaArg{NParams: 1, Result: typed(integerT())}
		site := NewCallSite("m", nil, nil, []ArgExpr{lambda}, []*types.Signature{m})
		res := eng.Resolve(site)
		if res.Signature.Unresolved {
			t.Fatalf("resolution failed: %v", res.Failures)
		}
	})

	t.Run("wrong arity rejects the candidate", func(t *testing.T) {
		lambda := &LambdaArg{NParams: 2}
		site := NewCallSite("m", nil, nil, []ArgExpr{lambda}, []*types.Signature{m})
		res := eng.Resolve(site)
		if !res.Signature.Unresolved {
			t.Fatalf("two-parameter lambda should not fit %s", m)
		}
	})

	t.Run("incompatible body result rejects the candidate", func(t *testing.T) {
		lambda := &LambdaArg{NParams: 1, Result: typed(listT(strT()))}
		site := NewCallSite("m", nil, nil, []ArgExpr{lambda}, []*types.Signature{m})
		res := eng.Resolve(site)
		if !res.Signature.Unresolved {
			t.Fatal("body returning List<String> should not fit Function<String, Integer>")
		}
	})
}

func TestNestedGenericCallInference(t *testing.T) {
	eng := testEngine(testTable())
	emptyList := genericMethod("emptyList",
		[]types.TypeParam{{Name: "E"}},
		listT(types.TTypeVar{Name: "E"}))
	wrap := method("wrap", nil, listT(strT()))

	inner := NewCallSite("emptyList", nil, nil, nil, []*types.Signature{emptyList})
	site := NewCallSite("wrap", nil, nil,
		[]ArgExpr{&NestedCallArg{Site: inner}},
		[]*types.Signature{wrap})

	res := eng.Resolve(site)
	if res.Signature.Unresolved {
		t.Fatalf("resolution failed: %v", res.Failures)
	}
	if res.Phase != PhaseStrict {
		t.Errorf("phase = %s, want STRICT", res.Phase)
	}
}

func TestNestedPolyPropagatesIntoOuter(t *testing.T) {
	// make(emptyList()) with target String: the nested E and the outer T
	// merge, and the outer target drives both.
	eng := testEngine(testTable())
	emptyList := genericMethod("emptyList",
		[]types.TypeParam{{Name: "E"}},
		listT(types.TTypeVar{Name: "E"}))
	make_ := genericMethod("make",
		[]types.TypeParam{{Name: "T"}},
		types.TTypeVar{Name: "T"},
		listT(types.TTypeVar{Name: "T"}))

	inner := NewCallSite("emptyList", nil, nil, nil, []*types.Signature{emptyList})
	site := NewCallSite("make", nil, strT(),
		[]ArgExpr{&NestedCallArg{Site: inner}},
		[]*types.Signature{make_})

	res := eng.Resolve(site)
	if res.Signature.Unresolved {
		t.Fatalf("resolution failed: %v", res.Failures)
	}
	if !types.Equal(res.Signature.Return, strT()) {
		t.Errorf("inferred return %s, want java.lang.String from the outer target", res.Signature.Return)
	}
}

func TestRecursionLimit(t *testing.T) {
	tbl := testTable()
	eng := NewEngine(tbl, Noop{}, config.Options{MaxRecursionDepth: 1})

	emptyList := genericMethod("emptyList",
		[]types.TypeParam{{Name: "E"}},
		listT(types.TTypeVar{Name: "E"}))
	wrap := method("wrap", nil, listT(strT()))

	inner := NewCallSite("emptyList", nil, nil, nil, []*types.Signature{emptyList})
	site := NewCallSite("wrap", nil, nil,
		[]ArgExpr{&NestedCallArg{Site: inner}},
		[]*types.Signature{wrap})

	res := eng.Resolve(site)
	if !res.Signature.Unresolved {
		t.Fatal("nested resolution beyond the depth limit should fall back")
	}
	found := false
	for _, f := range inner.AllFailures() {
		if f.Kind == FailRecursionLimit {
			found = true
		}
	}
	if !found {
		t.Errorf("nested site ledger %v does not record the recursion limit", inner.AllFailures())
	}
}

func TestCtorResolutionInfersClassParams(t *testing.T) {
	tbl := testTable()
	boxT := func(arg types.Type) types.TClass {
		return types.TClass{Name: "demo.Box", Args: []types.Type{arg}}
	}
	ctor := &types.Signature{
		Name:        config.CtorName,
		Owner:       "demo.Box",
		ClassParams: []types.TypeParam{{Name: "T"}},
		Params:      []types.Type{types.TTypeVar{Name: "T"}},
		Return:      boxT(types.TTypeVar{Name: "T"}),
	}
	tbl.Define(&symbols.ClassDef{
		Name:       "demo.Box",
		TypeParams: []types.TypeParam{{Name: "T"}},
		Ctors:      []*types.Signature{ctor},
	})
	eng := testEngine(tbl)

	site := NewCtorCallSite(types.TClass{Name: "demo.Box"}, nil,
		[]ArgExpr{typed(strT())}, tbl.Ctors("demo.Box"))

	res := eng.Resolve(site)
	if res.Signature.Unresolved {
		t.Fatalf("resolution failed: %v", res.Failures)
	}
	if !types.Equal(res.Signature.Return, boxT(strT())) {
		t.Errorf("inferred %s, want demo.Box<java.lang.String>", res.Signature.Return)
	}
}

func TestConditionalArgumentUsesLub(t *testing.T) {
	eng := testEngine(testTable())
	m := method("m", nil, numberT())
	cond := &ConditionalArg{Then: typed(integerT()), Else: typed(longT())}
	site := NewCallSite("m", nil, nil, []ArgExpr{cond}, []*types.Signature{m})

	res := eng.Resolve(site)
	if res.Signature.Unresolved {
		t.Fatalf("Integer/Long conditional should fit a Number formal: %v", res.Failures)
	}
}

func TestLedgerKeepsPerPhaseOrder(t *testing.T) {
	eng := testEngine(testTable())
	cand := method("f", nil, strT())
	site := NewCallSite("f", nil, nil, []ArgExpr{typed(listT(strT()))}, []*types.Signature{cand})

	eng.Resolve(site)

	phases := site.FailurePhases()
	if len(phases) == 0 {
		t.Fatal("expected ledger entries")
	}
	// Applicability failures come before the terminal fallback entry.
	if phases[0] != PhaseStrict {
		t.Errorf("first ledger phase = %s, want STRICT", phases[0])
	}
	if phases[len(phases)-1] != PhaseFallback {
		t.Errorf("last ledger phase = %s, want FALLBACK", phases[len(phases)-1])
	}
}
