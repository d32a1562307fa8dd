package infer

import (
	"github.com/google/uuid"

	"github.com/funvibe/jinfer/internal/config"
	"github.com/funvibe/jinfer/internal/types"
)

// CallSite is one method or constructor invocation under resolution.
// It is created once per invocation expression and mutated only by the
// driver, which appends to its failure ledger; after resolution
// completes it is read-only.
type CallSite struct {
	// ID correlates ledger entries and trace output for this site.
	ID uuid.UUID

	// Name is the invoked method name, or "<init>" for constructors.
	Name string

	// Receiver is the erased receiver type (the constructed type for
	// constructors). May be the unresolved marker, which suppresses
	// no-applicable-candidates diagnostics.
	Receiver types.Type

	// Expected is the target type when the invocation's result is
	// itself target-typed, nil in untyped contexts.
	Expected types.Type

	Args       []ArgExpr
	Candidates []*types.Signature
	Location   string

	// Append-only per-phase failure ledger, insertion-ordered.
	failures   map[Phase][]*ResolutionFailure
	phaseOrder []Phase
}

// NewCallSite builds a method call site.
func NewCallSite(name string, receiver, expected types.Type, args []ArgExpr, candidates []*types.Signature) *CallSite {
	return &CallSite{
		ID:         uuid.New(),
		Name:       name,
		Receiver:   receiver,
		Expected:   expected,
		Args:       args,
		Candidates: candidates,
	}
}

// NewCtorCallSite builds a constructor call site for the given class type.
func NewCtorCallSite(newType types.Type, expected types.Type, args []ArgExpr, candidates []*types.Signature) *CallSite {
	site := NewCallSite(config.CtorName, newType, expected, args, candidates)
	return site
}

// IsCtor reports whether this is a constructor invocation.
func (s *CallSite) IsCtor() bool { return s.Name == config.CtorName }

// AcceptFailure appends a failure to the ledger under the given phase.
// Records are never mutated after creation.
func (s *CallSite) AcceptFailure(phase Phase, f *ResolutionFailure) {
	if s.failures == nil {
		s.failures = map[Phase][]*ResolutionFailure{}
	}
	if _, seen := s.failures[phase]; !seen {
		s.phaseOrder = append(s.phaseOrder, phase)
	}
	s.failures[phase] = append(s.failures[phase], f)
}

// Failures returns the ledger entries for one phase, in insertion order.
func (s *CallSite) Failures(phase Phase) []*ResolutionFailure {
	return s.failures[phase]
}

// FailurePhases returns the phases that recorded at least one failure,
// in first-insertion order. Deterministic diagnostics depend on this.
func (s *CallSite) FailurePhases() []Phase {
	return s.phaseOrder
}

// AllFailures returns every ledger entry in (phase, insertion) order.
func (s *CallSite) AllFailures() []*ResolutionFailure {
	var out []*ResolutionFailure
	for _, p := range s.phaseOrder {
		out = append(out, s.failures[p]...)
	}
	return out
}
