package symbols

import (
	"sync"

	"github.com/funvibe/jinfer/internal/types"
)

// ClassDef describes one class or interface as the engine sees it.
// Supertypes, method and constructor signatures are expressed in terms
// of the class's own type parameters. A ClassDef is immutable once it
// has been handed out by a Provider.
type ClassDef struct {
	Name       string
	TypeParams []types.TypeParam

	// Supertypes are the direct supertypes, with type arguments written
	// in terms of TypeParams. Empty means just Object.
	Supertypes []types.Type

	Methods []*types.Signature
	Ctors   []*types.Signature

	// Functional is the single abstract method for functional
	// interfaces, nil otherwise. Lambda arguments are checked against it.
	Functional *types.Signature

	// Unresolved marks stub definitions for classes that could not be
	// loaded. The engine suppresses diagnostics for such receivers.
	Unresolved bool
}

// Provider resolves class names to definitions. Resolve never returns
// nil: unknown names produce an unresolved stub. Implementations must be
// safe for concurrent reads.
type Provider interface {
	Resolve(name string) *ClassDef
}

type entry struct {
	once sync.Once
	load func() *ClassDef
	def  *ClassDef
}

// Table is an in-memory Provider with lazy, exactly-once class
// materialization: a definition registered with DefineLazy is built at
// most once even under concurrent Resolve calls, and a partially built
// definition is never observable.
type Table struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewTable() *Table {
	return &Table{entries: map[string]*entry{}}
}

// Define registers an already materialized definition.
func (t *Table) Define(def *ClassDef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := &entry{def: def}
	e.once.Do(func() {}) // already materialized
	t.entries[def.Name] = e
}

// DefineLazy registers a definition that is built on first Resolve.
func (t *Table) DefineLazy(name string, load func() *ClassDef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[name] = &entry{load: load}
}

// Resolve returns the definition for name, materializing it if needed.
// Unknown names yield an unresolved stub, never nil.
func (t *Table) Resolve(name string) *ClassDef {
	t.mu.RLock()
	e, ok := t.entries[name]
	t.mu.RUnlock()
	if !ok {
		return &ClassDef{Name: name, Unresolved: true}
	}
	e.once.Do(func() {
		if e.load != nil {
			e.def = e.load()
			e.load = nil
		}
	})
	if e.def == nil {
		return &ClassDef{Name: name, Unresolved: true}
	}
	return e.def
}

// SupertypesOf implements types.Hierarchy: the direct supertypes of c
// with c's type arguments substituted for the class's type parameters.
func (t *Table) SupertypesOf(c types.TClass) []types.Type {
	def := t.Resolve(c.Name)
	if def.Unresolved {
		return []types.Type{types.Object()}
	}
	if len(def.Supertypes) == 0 {
		return []types.Type{types.Object()}
	}
	sub := classSubst(def, c.Args)
	out := make([]types.Type, len(def.Supertypes))
	for i, s := range def.Supertypes {
		out[i] = s.Apply(sub)
	}
	return out
}

// FunctionalMethod returns the functional interface method of c, with
// c's type arguments substituted, or nil if c is not functional.
func (t *Table) FunctionalMethod(c types.TClass) *types.Signature {
	def := t.Resolve(c.Name)
	if def.Functional == nil {
		return nil
	}
	return def.Functional.Apply(classSubst(def, c.Args))
}

// Candidates returns the syntactically visible method signatures named
// name on the receiver type, walking the supertype closure. The
// receiver's type arguments are substituted into inherited signatures;
// method-level type parameters are left for inference.
func (t *Table) Candidates(recv types.Type, name string) []*types.Signature {
	c, ok := recv.(types.TClass)
	if !ok {
		return nil
	}
	var out []*types.Signature
	seen := map[string]bool{}
	for _, s := range types.SupertypeClosure(c, t) {
		sc, ok := s.(types.TClass)
		if !ok {
			continue
		}
		def := t.Resolve(sc.Name)
		sub := classSubst(def, sc.Args)
		for _, m := range def.Methods {
			if m.Name != name {
				continue
			}
			inst := m.Apply(sub)
			// An override shadows the supertype declaration.
			key := inst.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, inst)
		}
	}
	return out
}

// Ctors returns the constructor signatures of the named class. Class
// type parameters stay unsubstituted: for constructor call sites they
// take part in inference.
func (t *Table) Ctors(name string) []*types.Signature {
	return t.Resolve(name).Ctors
}

// classSubst maps a definition's type parameters to concrete arguments.
// Raw usage (no arguments) substitutes erasures of the declared bounds.
func classSubst(def *ClassDef, args []types.Type) types.Subst {
	sub := types.Subst{}
	for i, tp := range def.TypeParams {
		if i < len(args) {
			sub[tp.Name] = args[i]
		} else {
			sub[tp.Name] = types.Erasure(types.TTypeVar{Name: tp.Name, Bound: tp.Bound})
		}
	}
	return sub
}
