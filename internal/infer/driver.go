package infer

import (
	"fmt"

	"github.com/funvibe/jinfer/internal/config"
	"github.com/funvibe/jinfer/internal/symbols"
	"github.com/funvibe/jinfer/internal/types"
)

// Env is everything the engine consumes without owning: the symbol/type
// provider and the hierarchy queries built on it. Implementations must
// be safe for concurrent reads; symbols.Table is the usual one.
type Env interface {
	types.Hierarchy
	Resolve(name string) *symbols.ClassDef
	FunctionalMethod(c types.TClass) *types.Signature
}

// Engine resolves call sites. It holds only immutable configuration, so
// one Engine may resolve many call sites from independent goroutines;
// each Resolve call owns its own arena and contexts.
type Engine struct {
	env      Env
	obs      Observer
	maxDepth int
}

func NewEngine(env Env, obs Observer, opts config.Options) *Engine {
	if obs == nil {
		obs = Noop{}
	}
	depth := opts.MaxRecursionDepth
	if depth <= 0 {
		depth = config.DefaultMaxRecursionDepth
	}
	return &Engine{env: env, obs: obs, maxDepth: depth}
}

// Result is the outcome of resolving one call site. Signature is always
// non-nil: terminal failures yield a placeholder flagged Unresolved.
type Result struct {
	Signature *types.Signature
	Phase     Phase

	// Failures are the surfaced (site-level) failures only; routine
	// per-candidate rejections stay in the call site's ledger.
	Failures []*ResolutionFailure

	// Ambiguous lists the maximally specific signatures when more than
	// one existed. The first one is the best-effort pick.
	Ambiguous []*types.Signature
}

// Resolve selects the applicable, most specific candidate for the call
// site and returns its fully instantiated signature. It never panics
// and never returns an absent result: on terminal failure a placeholder
// flagged as unresolved is produced.
func (e *Engine) Resolve(site *CallSite) *Result {
	r := &resolution{eng: e, graph: NewGraph(e.env)}
	return r.resolve(site, site.Expected, nil)
}

// resolution is the per-call-site state: the ivar arena shared by all
// contexts of the site (nested poly expressions included), the context
// id sequence, and the recursion depth guard.
type resolution struct {
	eng    *Engine
	graph  *Graph
	ctxSeq int
	depth  int
}

func (r *resolution) newContext(parent *InferenceContext) *InferenceContext {
	r.ctxSeq++
	return newContext(r.ctxSeq, r.graph, parent, r.eng.obs)
}

// attempt is one applicable (candidate, context) pair within a phase.
type attempt struct {
	sig    *types.Signature
	mapped *types.Signature
	ctx    *InferenceContext
}

func (r *resolution) resolve(site *CallSite, expected types.Type, parent *InferenceContext) *Result {
	obs := r.eng.obs

	if r.depth >= r.eng.maxDepth {
		f := &ResolutionFailure{
			Kind:   FailRecursionLimit,
			Reason: fmt.Sprintf("nested inference exceeded %d levels", r.eng.maxDepth),
			Site:   site,
		}
		site.AcceptFailure(PhaseFallback, f)
		obs.ResolutionFailed(f)
		return r.fallbackResult(site, f)
	}
	r.depth++
	defer func() { r.depth-- }()

	for _, phase := range ApplicabilityPhases {
		applicable := r.tryPhase(site, phase, parent)
		if len(applicable) == 0 {
			continue
		}
		// A phase produced applicable candidates: later, looser phases
		// are never attempted for this site.
		return r.selectAndInstantiate(site, phase, applicable, expected, parent)
	}
	return r.allPhasesFailed(site)
}

// tryPhase runs the applicability check for every shape-compatible
// candidate in a fresh context, collecting the applicable subset.
func (r *resolution) tryPhase(site *CallSite, phase Phase, parent *InferenceContext) []attempt {
	obs := r.eng.obs
	var applicable []attempt
	for _, sig := range site.Candidates {
		if !shapeCompatible(sig, len(site.Args), phase) {
			continue
		}
		obs.StartInference(sig, site, phase)
		ctx := r.newContext(parent)
		mapped := ctx.MapToIvars(sig)
		obs.CtxInitialization(ctx, sig)

		if err := r.checkApplicability(ctx, mapped, site, phase); err != nil {
			f := &ResolutionFailure{
				Kind:      FailApplicability,
				Candidate: sig,
				Reason:    err.Error(),
				Site:      site,
			}
			site.AcceptFailure(phase, f)
			obs.ResolutionFailed(f)
			obs.EndInference(nil)
			continue
		}
		obs.EndInference(mapped)
		applicable = append(applicable, attempt{sig: sig, mapped: mapped, ctx: ctx})
	}
	return applicable
}

// selectAndInstantiate picks the most specific applicable candidate,
// re-runs the full argument and return checks in the invocation phase
// (deferred arguments included), and solves the winning context's
// bounds. Failed winners fall back to the next applicable candidate of
// the same phase.
func (r *resolution) selectAndInstantiate(site *CallSite, phase Phase, applicable []attempt, expected types.Type, parent *InferenceContext) *Result {
	obs := r.eng.obs
	result := &Result{Phase: phase}

	sigs := make([]*types.Signature, len(applicable))
	for i, a := range applicable {
		sigs[i] = a.sig
	}
	maximal := r.maximalElements(sigs)
	if len(maximal) > 1 {
		for _, idx := range maximal {
			result.Ambiguous = append(result.Ambiguous, sigs[idx])
		}
		f := &ResolutionFailure{
			Kind:      FailAmbiguity,
			Candidate: sigs[maximal[0]],
			Reason:    fmt.Sprintf("both %s and %s are maximally specific", sigs[maximal[0]], sigs[maximal[1]]),
			Site:      site,
		}
		site.AcceptFailure(phase, f)
		result.Failures = append(result.Failures, f)
		obs.AmbiguityError(site, sigs[maximal[0]], sigs[maximal[1]])
	}

	// Invocation attempts: the best-effort pick first, then the
	// remaining applicable candidates of this phase in encounter order.
	order := append([]int{}, maximal...)
	for i := range applicable {
		dup := false
		for _, m := range maximal {
			if m == i {
				dup = true
				break
			}
		}
		if !dup {
			order = append(order, i)
		}
	}

	invPhase := phase.AsInvocation()
	for _, idx := range order {
		att := applicable[idx]
		sig, err := r.invoke(site, att, invPhase, expected, parent)
		if err != nil {
			kind := FailApplicability
			var conflict *BoundConflictError
			if asBoundConflict(err, &conflict) {
				kind = FailBoundConflict
			}
			f := &ResolutionFailure{
				Kind:      kind,
				Candidate: att.sig,
				Reason:    err.Error(),
				Site:      site,
			}
			site.AcceptFailure(invPhase, f)
			obs.ResolutionFailed(f)
			continue
		}
		result.Signature = sig
		return result
	}
	return r.allPhasesFailed(site)
}

// invoke performs the full re-check and instantiation of one chosen
// candidate in an invocation phase.
func (r *resolution) invoke(site *CallSite, att attempt, invPhase Phase, expected types.Type, parent *InferenceContext) (*types.Signature, error) {
	obs := r.eng.obs
	obs.StartInference(att.sig, site, invPhase)

	if err := r.checkApplicability(att.ctx, att.mapped, site, invPhase); err != nil {
		obs.EndInference(nil)
		return nil, err
	}
	if err := r.checkReturn(att.ctx, att.mapped, expected); err != nil {
		obs.EndInference(nil)
		return nil, err
	}

	if !att.sig.IsGeneric() {
		obs.SkipInstantiation(att.mapped, site)
		obs.EndInference(att.mapped)
		return att.mapped, nil
	}

	// When the target type mentions an enclosing invocation's ivars,
	// this attempt's free variables are re-homed into the parent and
	// solved jointly with it; instantiation is left partial here.
	if parent != nil && expected != nil && types.ContainsIvars(r.graph.Ground(expected)) {
		att.ctx.PropagateAndAbort(parent)
		partial := att.mapped.ApplyIvars(r.instantiations())
		obs.EndInference(partial)
		return partial, nil
	}

	sub, err := att.ctx.SolveAll()
	if err != nil {
		obs.EndInference(nil)
		return nil, err
	}
	final := att.mapped.ApplyIvars(sub)
	obs.EndInference(final)
	return final, nil
}

// instantiations snapshots every solved ivar in the arena.
func (r *resolution) instantiations() types.IvarSubst {
	sub := types.IvarSubst{}
	for _, v := range r.graph.vars {
		if inst := r.graph.Instantiation(v.id); inst != nil {
			sub[v.id] = inst
		}
	}
	return sub
}

// allPhasesFailed reports the terminal failure for the site and builds
// the best-effort placeholder signature. Unresolved receivers suppress
// the no-applicable-candidates report: the true candidate set is
// unknowable, so no diagnostic rests on it.
func (r *resolution) allPhasesFailed(site *CallSite) *Result {
	obs := r.eng.obs
	result := &Result{Phase: PhaseFallback}

	if len(site.Candidates) == 0 {
		f := &ResolutionFailure{
			Kind:   FailNoApplicable,
			Reason: fmt.Sprintf("no potentially applicable declarations of %s", site.Name),
			Site:   site,
		}
		site.AcceptFailure(PhaseFallback, f)
		if !r.receiverUnresolved(site) {
			obs.NoApplicableCandidates(site)
			result.Failures = append(result.Failures, f)
		}
		result.Signature = types.NewUnresolvedSignature(site.Name, len(site.Args))
		return result
	}

	f := &ResolutionFailure{
		Kind:   FailNoCTDecl,
		Reason: fmt.Sprintf("no compile-time declaration for %s", site.Name),
		Site:   site,
	}
	site.AcceptFailure(PhaseFallback, f)
	if !r.receiverUnresolved(site) {
		obs.NoCompileTimeDeclaration(site)
		result.Failures = append(result.Failures, f)
	}

	// Best-effort fallback: the first syntactically visible candidate,
	// flagged so downstream consumers know it may be wrong.
	fallback := *site.Candidates[0]
	fallback.Unresolved = true
	obs.FallbackCompileTimeDecl(&fallback, site)
	result.Signature = &fallback
	return result
}

func (r *resolution) fallbackResult(site *CallSite, f *ResolutionFailure) *Result {
	result := &Result{Phase: PhaseFallback, Failures: []*ResolutionFailure{f}}
	if len(site.Candidates) > 0 {
		fallback := *site.Candidates[0]
		fallback.Unresolved = true
		result.Signature = &fallback
	} else {
		result.Signature = types.NewUnresolvedSignature(site.Name, len(site.Args))
	}
	return result
}

func (r *resolution) receiverUnresolved(site *CallSite) bool {
	if site.Receiver == nil {
		return false
	}
	if types.IsUnresolved(site.Receiver) {
		return true
	}
	if c, ok := site.Receiver.(types.TClass); ok {
		return r.eng.env.Resolve(c.Name).Unresolved
	}
	return false
}

func asBoundConflict(err error, target **BoundConflictError) bool {
	if bc, ok := err.(*BoundConflictError); ok {
		*target = bc
		return true
	}
	return false
}
