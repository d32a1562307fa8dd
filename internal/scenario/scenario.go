// Package scenario loads resolution scenarios from YAML files: class
// definitions, candidate signatures and call sites. Scenarios feed the
// CLI and the integration tests with reproducible inputs.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/jinfer/internal/config"
	"github.com/funvibe/jinfer/internal/infer"
	"github.com/funvibe/jinfer/internal/symbols"
	"github.com/funvibe/jinfer/internal/types"
)

// File is the top-level YAML document.
type File struct {
	Options config.Options `yaml:"options"`
	Classes []ClassSpec    `yaml:"classes"`
	Calls   []CallSpec     `yaml:"calls"`
}

// ClassSpec declares one class or interface.
type ClassSpec struct {
	Name       string          `yaml:"name"`
	TypeParams []TypeParamSpec `yaml:"typeParams,omitempty"`
	Supertypes []string        `yaml:"supertypes,omitempty"`
	Methods    []MethodSpec    `yaml:"methods,omitempty"`
	Ctors      []MethodSpec    `yaml:"ctors,omitempty"`

	// Functional names the single abstract method making this class a
	// functional interface.
	Functional *MethodSpec `yaml:"functional,omitempty"`
}

// TypeParamSpec is a declared type parameter with an optional bound.
type TypeParamSpec struct {
	Name  string `yaml:"name"`
	Bound string `yaml:"bound,omitempty"`
}

// MethodSpec declares one method or constructor signature. Types are
// written in source-like syntax, e.g. "java.util.List<T>" or "int[]".
type MethodSpec struct {
	Name       string          `yaml:"name"`
	TypeParams []TypeParamSpec `yaml:"typeParams,omitempty"`
	Params     []string        `yaml:"params,omitempty"`
	Return     string          `yaml:"return,omitempty"`
	Varargs    bool            `yaml:"varargs,omitempty"`
}

// CallSpec is one call site. Exactly one of Method or Ctor is set.
type CallSpec struct {
	Method   string    `yaml:"method,omitempty"`
	Ctor     string    `yaml:"ctor,omitempty"`
	Receiver string    `yaml:"receiver,omitempty"`
	Expected string    `yaml:"expected,omitempty"`
	Args     []ArgSpec `yaml:"args,omitempty"`
	Loc      string    `yaml:"loc,omitempty"`
}

// ArgSpec is one argument expression. Exactly one field is set.
type ArgSpec struct {
	Type        string      `yaml:"type,omitempty"`
	Lambda      *LambdaSpec `yaml:"lambda,omitempty"`
	MethodRef   bool        `yaml:"methodRef,omitempty"`
	Conditional *CondSpec   `yaml:"conditional,omitempty"`
	Call        *CallSpec   `yaml:"call,omitempty"`
	Loc         string      `yaml:"loc,omitempty"`
}

type LambdaSpec struct {
	Params int      `yaml:"params"`
	Result *ArgSpec `yaml:"result,omitempty"`
}

type CondSpec struct {
	Then ArgSpec `yaml:"then"`
	Else ArgSpec `yaml:"else"`
}

// Scenario is a loaded, materialized scenario.
type Scenario struct {
	Options config.Options
	Table   *symbols.Table
	Sites   []*infer.CallSite
}

// Load reads and materializes a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return Build(&file)
}

// Build materializes a parsed file into a symbol table and call sites.
func Build(file *File) (*Scenario, error) {
	sc := &Scenario{Options: file.Options, Table: symbols.NewTable()}
	if sc.Options.MaxRecursionDepth <= 0 {
		sc.Options.MaxRecursionDepth = config.DefaultMaxRecursionDepth
	}

	// Classes are registered lazily: definitions refer to each other
	// and materialize on first resolution.
	for _, cs := range file.Classes {
		cs := cs
		sc.Table.DefineLazy(cs.Name, func() *symbols.ClassDef {
			def, err := buildClass(&cs)
			if err != nil {
				return &symbols.ClassDef{Name: cs.Name, Unresolved: true}
			}
			return def
		})
	}

	for i := range file.Calls {
		site, err := sc.buildSite(&file.Calls[i])
		if err != nil {
			return nil, fmt.Errorf("call #%d: %w", i, err)
		}
		sc.Sites = append(sc.Sites, site)
	}
	return sc, nil
}

func buildTypeParams(specs []TypeParamSpec, scope map[string]types.Type) ([]types.TypeParam, error) {
	var out []types.TypeParam
	// Names first, so bounds can refer to sibling parameters.
	for _, tp := range specs {
		scope[tp.Name] = types.TTypeVar{Name: tp.Name}
	}
	for _, tp := range specs {
		var bound types.Type
		if tp.Bound != "" {
			var err error
			bound, err = ParseType(tp.Bound, scope)
			if err != nil {
				return nil, fmt.Errorf("bound of %s: %w", tp.Name, err)
			}
		}
		scope[tp.Name] = types.TTypeVar{Name: tp.Name, Bound: bound}
		out = append(out, types.TypeParam{Name: tp.Name, Bound: bound})
	}
	return out, nil
}

func buildClass(cs *ClassSpec) (*symbols.ClassDef, error) {
	classScope := map[string]types.Type{}
	classParams, err := buildTypeParams(cs.TypeParams, classScope)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", cs.Name, err)
	}

	def := &symbols.ClassDef{Name: cs.Name, TypeParams: classParams}
	for _, s := range cs.Supertypes {
		t, err := ParseType(s, classScope)
		if err != nil {
			return nil, fmt.Errorf("class %s supertype: %w", cs.Name, err)
		}
		def.Supertypes = append(def.Supertypes, t)
	}
	for i := range cs.Methods {
		sig, err := buildSignature(cs.Name, classParams, &cs.Methods[i], classScope, false)
		if err != nil {
			return nil, err
		}
		def.Methods = append(def.Methods, sig)
	}
	for i := range cs.Ctors {
		sig, err := buildSignature(cs.Name, classParams, &cs.Ctors[i], classScope, true)
		if err != nil {
			return nil, err
		}
		def.Ctors = append(def.Ctors, sig)
	}
	if cs.Functional != nil {
		sig, err := buildSignature(cs.Name, classParams, cs.Functional, classScope, false)
		if err != nil {
			return nil, err
		}
		def.Functional = sig
	}
	return def, nil
}

func buildSignature(owner string, classParams []types.TypeParam, ms *MethodSpec, classScope map[string]types.Type, ctor bool) (*types.Signature, error) {
	scope := map[string]types.Type{}
	for k, v := range classScope {
		scope[k] = v
	}
	tparams, err := buildTypeParams(ms.TypeParams, scope)
	if err != nil {
		return nil, fmt.Errorf("method %s.%s: %w", owner, ms.Name, err)
	}

	sig := &types.Signature{
		Owner:       owner,
		TypeParams:  tparams,
		ClassParams: classParams,
		Varargs:     ms.Varargs,
	}
	if ctor {
		sig.Name = config.CtorName
		// A constructor produces the declaring class, parameterized by
		// its own type parameters.
		args := make([]types.Type, len(classParams))
		for i, tp := range classParams {
			args[i] = types.TTypeVar{Name: tp.Name, Bound: tp.Bound}
		}
		if len(args) > 0 {
			sig.Return = types.TClass{Name: owner, Args: args}
		} else {
			sig.Return = types.TClass{Name: owner}
		}
	} else {
		sig.Name = ms.Name
		if ms.Return != "" {
			ret, err := ParseType(ms.Return, scope)
			if err != nil {
				return nil, fmt.Errorf("method %s.%s return: %w", owner, ms.Name, err)
			}
			sig.Return = ret
		}
	}
	for _, p := range ms.Params {
		t, err := ParseType(p, scope)
		if err != nil {
			return nil, fmt.Errorf("method %s.%s param: %w", owner, ms.Name, err)
		}
		sig.Params = append(sig.Params, t)
	}
	if sig.Varargs && len(sig.Params) > 0 {
		if _, ok := sig.Params[len(sig.Params)-1].(types.TArray); !ok {
			return nil, fmt.Errorf("method %s.%s: varargs parameter must be an array type", owner, ms.Name)
		}
	}
	return sig, nil
}

func (sc *Scenario) buildSite(cs *CallSpec) (*infer.CallSite, error) {
	args, err := sc.buildArgs(cs.Args)
	if err != nil {
		return nil, err
	}

	var expected types.Type
	if cs.Expected != "" {
		expected, err = ParseType(cs.Expected, nil)
		if err != nil {
			return nil, fmt.Errorf("expected type: %w", err)
		}
	}

	var site *infer.CallSite
	if cs.Ctor != "" {
		newType, err := ParseType(cs.Ctor, nil)
		if err != nil {
			return nil, fmt.Errorf("ctor type: %w", err)
		}
		c, ok := newType.(types.TClass)
		if !ok {
			return nil, fmt.Errorf("ctor type %s is not a class type", newType)
		}
		site = infer.NewCtorCallSite(c, expected, args, sc.Table.Ctors(c.Name))
	} else {
		recv, err := ParseType(cs.Receiver, nil)
		if err != nil {
			return nil, fmt.Errorf("receiver type: %w", err)
		}
		site = infer.NewCallSite(cs.Method, recv, expected, args, sc.Table.Candidates(recv, cs.Method))
	}
	site.Location = cs.Loc
	return site, nil
}

func (sc *Scenario) buildArgs(specs []ArgSpec) ([]infer.ArgExpr, error) {
	var out []infer.ArgExpr
	for i := range specs {
		arg, err := sc.buildArg(&specs[i])
		if err != nil {
			return nil, fmt.Errorf("arg #%d: %w", i, err)
		}
		out = append(out, arg)
	}
	return out, nil
}

func (sc *Scenario) buildArg(spec *ArgSpec) (infer.ArgExpr, error) {
	switch {
	case spec.Type != "":
		t, err := ParseType(spec.Type, nil)
		if err != nil {
			return nil, err
		}
		return &infer.TypedArg{Type: t, Loc: spec.Loc}, nil
	case spec.Lambda != nil:
		l := &infer.LambdaArg{NParams: spec.Lambda.Params, Loc: spec.Loc}
		if spec.Lambda.Result != nil {
			result, err := sc.buildArg(spec.Lambda.Result)
			if err != nil {
				return nil, err
			}
			l.Result = result
		}
		return l, nil
	case spec.MethodRef:
		return &infer.MethodRefArg{Loc: spec.Loc}, nil
	case spec.Conditional != nil:
		thenArg, err := sc.buildArg(&spec.Conditional.Then)
		if err != nil {
			return nil, err
		}
		elseArg, err := sc.buildArg(&spec.Conditional.Else)
		if err != nil {
			return nil, err
		}
		return &infer.ConditionalArg{Then: thenArg, Else: elseArg, Loc: spec.Loc}, nil
	case spec.Call != nil:
		site, err := sc.buildSite(spec.Call)
		if err != nil {
			return nil, err
		}
		return &infer.NestedCallArg{Site: site, Loc: spec.Loc}, nil
	default:
		return nil, fmt.Errorf("empty argument spec")
	}
}
