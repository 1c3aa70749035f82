// Package semantic builds per-file symbol tables: scopes, symbol
// declaration/binding sets, and statement reachability. The class model
// consumes it when resolving names in base lists and scanning class bodies.
package semantic

import (
	"typewalk/internal/syntax"
)

type ScopeKind int

const (
	ModuleScope ScopeKind = iota
	ClassScope
	FunctionScope
)

type Scope struct {
	Kind   ScopeKind
	Name   string
	Parent *Scope

	symbols map[string]*Symbol
	order   []string
}

func NewScope(kind ScopeKind, name string, parent *Scope) *Scope {
	return &Scope{
		Kind:    kind,
		Name:    name,
		Parent:  parent,
		symbols: make(map[string]*Symbol),
	}
}

// Symbol returns the symbol declared or bound in this scope, or nil.
func (s *Scope) Symbol(name string) *Symbol {
	return s.symbols[name]
}

// Lookup walks this scope and its parents. Class scopes are skipped when
// resolving from a nested function scope, matching the host language's
// scoping rules.
func (s *Scope) Lookup(name string) (*Symbol, *Scope) {
	skipClass := false
	for scope := s; scope != nil; scope = scope.Parent {
		if skipClass && scope.Kind == ClassScope {
			continue
		}
		if sym, ok := scope.symbols[name]; ok {
			return sym, scope
		}
		if scope.Kind == FunctionScope {
			skipClass = true
		}
	}
	return nil, nil
}

// Names returns the symbol names declared in this scope, in declaration order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Scope) ensure(name string) *Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name}
	s.symbols[name] = sym
	s.order = append(s.order, name)
	return sym
}

// Symbol is one name in one scope, with its declaration and binding sets.
type Symbol struct {
	Name         string
	Declarations []Declaration
	Bindings     []Binding
}

// Declaration is an annotated declaration site (`x: T` with or without value).
type Declaration struct {
	Node       syntax.Stmt
	Annotation syntax.Expr
	Reachable  bool
}

// Binding is a value-binding site. Exactly one of Value/Func is set.
type Binding struct {
	Node      syntax.Stmt
	Value     syntax.Expr          // RHS expression, nil for def bindings
	Func      *syntax.FunctionDef  // set when the binding is a function definition
	Class     *syntax.ClassDef     // set when the binding is a class definition
	Reachable bool
	// Conditional marks bindings nested under control flow; a symbol whose
	// reachable bindings are all conditional is only possibly bound.
	Conditional bool
}

// DefinitelyBound reports whether the symbol has an unconditional reachable
// binding.
func (sym *Symbol) DefinitelyBound() bool {
	for _, b := range sym.Bindings {
		if b.Reachable && !b.Conditional {
			return true
		}
	}
	return false
}

// PossiblyUnbound reports whether the symbol has reachable bindings but none
// unconditional.
func (sym *Symbol) PossiblyUnbound() bool {
	reachable := false
	for _, b := range sym.Bindings {
		if b.Reachable {
			if !b.Conditional {
				return false
			}
			reachable = true
		}
	}
	return reachable
}

// Annotation returns the annotation of the first reachable declaration, if any.
func (sym *Symbol) Annotation() syntax.Expr {
	for _, d := range sym.Declarations {
		if d.Reachable && d.Annotation != nil {
			return d.Annotation
		}
	}
	return nil
}
