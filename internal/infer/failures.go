package infer

import (
	"fmt"

	"github.com/funvibe/jinfer/internal/types"
)

// FailureKind classifies resolution failures. Only some kinds are
// surfaced to the caller; see the taxonomy on Result.
type FailureKind int

const (
	// FailApplicability: a candidate was rejected in some phase.
	// Routine, recorded, surfaced only in aggregate.
	FailApplicability FailureKind = iota
	// FailBoundConflict: the bound graph had no satisfying
	// instantiation for a candidate. Same handling as applicability.
	FailBoundConflict
	// FailAmbiguity: two or more maximally specific applicable
	// candidates. Surfaced; a best-effort pick is still made.
	FailAmbiguity
	// FailNoApplicable: no candidate applied in any phase.
	FailNoApplicable
	// FailNoCTDecl: no compile-time declaration could be determined.
	FailNoCTDecl
	// FailRecursionLimit: nested poly-expression inference exceeded the
	// configured depth guard.
	FailRecursionLimit
)

func (k FailureKind) String() string {
	switch k {
	case FailApplicability:
		return "ApplicabilityFailure"
	case FailBoundConflict:
		return "BoundConflict"
	case FailAmbiguity:
		return "AmbiguityError"
	case FailNoApplicable:
		return "NoApplicableCandidates"
	case FailNoCTDecl:
		return "NoCompileTimeDeclaration"
	case FailRecursionLimit:
		return "RecursionLimitExceeded"
	default:
		return "Unknown"
	}
}

// ResolutionFailure is an immutable record of one failed attempt.
// Candidate is nil for site-level failures.
type ResolutionFailure struct {
	Kind      FailureKind
	Candidate *types.Signature
	Reason    string
	Site      *CallSite
}

func (f *ResolutionFailure) Error() string {
	if f.Candidate != nil {
		return fmt.Sprintf("%s: %s (candidate %s)", f.Kind, f.Reason, f.Candidate)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

// BoundConflictError reports that an ivar's computed instantiation
// violates one of its remaining bounds. It fails the enclosing
// candidate attempt, not the whole site resolution.
type BoundConflictError struct {
	Ivar      types.TIvar
	Candidate types.Type
	Violated  Bound
}

func (e *BoundConflictError) Error() string {
	return fmt.Sprintf("no instantiation for %s: %s violates bound %s",
		e.Ivar, e.Candidate, e.Violated.Kind.Format(e.Ivar, e.Violated.Type))
}
