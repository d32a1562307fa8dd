package infer

// Phase is one applicability regime of overload resolution. The three
// applicability phases are tried in order; a looser phase is attempted
// only if no candidate applied in a stricter one. Each applicability
// phase has an invocation counterpart used to re-check the chosen
// candidate: failures there are real compile-time errors, while
// failures in the applicability phases are routine control flow.
type Phase int

const (
	PhaseStrict Phase = iota
	PhaseLoose
	PhaseVarargs
	PhaseInvocStrict
	PhaseInvocLoose
	PhaseInvocVarargs

	// PhaseFallback is the pseudo-phase under which site-level failures
	// (no applicable candidates, recursion limit) are recorded.
	PhaseFallback
)

// ApplicabilityPhases in their fixed search order.
var ApplicabilityPhases = []Phase{PhaseStrict, PhaseLoose, PhaseVarargs}

func (p Phase) String() string {
	switch p {
	case PhaseStrict:
		return "STRICT"
	case PhaseLoose:
		return "LOOSE"
	case PhaseVarargs:
		return "VARARGS"
	case PhaseInvocStrict:
		return "INVOC_STRICT"
	case PhaseInvocLoose:
		return "INVOC_LOOSE"
	case PhaseInvocVarargs:
		return "INVOC_VARARGS"
	default:
		return "FALLBACK"
	}
}

// IsInvocation reports whether failures in this phase are compile-time
// errors rather than expected candidate rejections.
func (p Phase) IsInvocation() bool {
	return p == PhaseInvocStrict || p == PhaseInvocLoose || p == PhaseInvocVarargs
}

// AsInvocation returns the invocation counterpart of an applicability phase.
func (p Phase) AsInvocation() Phase {
	switch p {
	case PhaseStrict:
		return PhaseInvocStrict
	case PhaseLoose:
		return PhaseInvocLoose
	case PhaseVarargs:
		return PhaseInvocVarargs
	default:
		return p
	}
}

// IsLoose reports whether the phase admits boxing, unboxing and
// primitive widening conversions.
func (p Phase) IsLoose() bool {
	return p != PhaseStrict && p != PhaseInvocStrict
}

// IsVarargs reports whether the phase admits trailing array expansion.
func (p Phase) IsVarargs() bool {
	return p == PhaseVarargs || p == PhaseInvocVarargs
}
