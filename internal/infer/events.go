package infer

import (
	"github.com/funvibe/jinfer/internal/types"
)

// Observer receives the engine's structured events, in emission order.
// It is purely a sink: it must not alter engine behavior, and the
// engine's outcome with any observer is identical to its outcome with
// Noop (only side-channel output differs).
type Observer interface {
	// Site-level events.
	NoApplicableCandidates(site *CallSite)
	NoCompileTimeDeclaration(site *CallSite)
	FallbackCompileTimeDecl(sig *types.Signature, site *CallSite)
	AmbiguityError(site *CallSite, m1, m2 *types.Signature)

	// Per-attempt events.
	StartInference(sig *types.Signature, site *CallSite, phase Phase)
	EndInference(result *types.Signature) // nil on failure
	CtxInitialization(ctx *InferenceContext, sig *types.Signature)
	SkipInstantiation(sig *types.Signature, site *CallSite)

	// Argument and return checks.
	StartArgsChecks()
	StartArg(i int, expr ArgExpr, formal types.Type)
	SkipArgAsNonPertinent(i int, expr ArgExpr)
	EndArg()
	EndArgsChecks()
	StartReturnChecks()
	EndReturnChecks()

	// Ivar events.
	BoundAdded(ctx *InferenceContext, ivar types.TIvar, kind BoundKind, bound types.Type)
	IvarMerged(ctx *InferenceContext, ivar, delegate types.TIvar)
	IvarInstantiated(ctx *InferenceContext, ivar types.TIvar, inst types.Type)
	PropagateAndAbort(ctx, parent *InferenceContext)

	// Failures. Routine in applicability phases, compile-time errors in
	// invocation phases.
	ResolutionFailed(f *ResolutionFailure)

	IsNoop() bool
}

// Noop is the zero-cost default observer.
type Noop struct{}

func (Noop) NoApplicableCandidates(*CallSite) {}
func (Noop) NoCompileTimeDeclaration(*CallSite) {}
func (Noop) FallbackCompileTimeDecl(*types.Signature, *CallSite) {}
func (Noop) AmbiguityError(*CallSite, *types.Signature, *types.Signature) {}
func (Noop) StartInference(*types.Signature, *CallSite, Phase) {}
func (Noop) EndInference(*types.Signature) {}
func (Noop) CtxInitialization(*InferenceContext, *types.Signature) {}
func (Noop) SkipInstantiation(*types.Signature, *CallSite) {}
func (Noop) StartArgsChecks() {}
func (Noop) StartArg(int, ArgExpr, types.Type) {}
func (Noop) SkipArgAsNonPertinent(int, ArgExpr) {}
func (Noop) EndArg() {}
func (Noop) EndArgsChecks() {}
func (Noop) StartReturnChecks() {}
func (Noop) EndReturnChecks() {}
func (Noop) BoundAdded(*InferenceContext, types.TIvar, BoundKind, types.Type) {}
func (Noop) IvarMerged(*InferenceContext, types.TIvar, types.TIvar) {}
func (Noop) IvarInstantiated(*InferenceContext, types.TIvar, types.Type) {}
func (Noop) PropagateAndAbort(*InferenceContext, *InferenceContext) {}
func (Noop) ResolutionFailed(*ResolutionFailure) {}
func (Noop) IsNoop() bool { return true }
