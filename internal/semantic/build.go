package semantic

import (
	"typewalk/internal/syntax"
)

// Index is the semantic index of one parsed module.
type Index struct {
	Module      *syntax.Module
	ModuleScope *Scope

	scopes  map[syntax.Node]*Scope
	classes []*syntax.ClassDef
}

// Build constructs the semantic index for a module.
func Build(mod *syntax.Module) *Index {
	idx := &Index{
		Module:      mod,
		ModuleScope: NewScope(ModuleScope, mod.Path, nil),
		scopes:      make(map[syntax.Node]*Scope),
	}
	b := &builder{idx: idx}
	b.walkBody(mod.Body, idx.ModuleScope, flow{reachable: true})
	return idx
}

// ScopeOf maps a class or function definition to its body scope.
func (x *Index) ScopeOf(node syntax.Node) *Scope {
	return x.scopes[node]
}

// Classes returns every class definition in the module, in source order,
// including nested ones.
func (x *Index) Classes() []*syntax.ClassDef {
	return x.classes
}

type builder struct {
	idx *Index
}

// flow tracks per-branch liveness while walking one suite of statements.
type flow struct {
	reachable   bool
	conditional bool
}

// walkBody records declarations and bindings for one statement suite and
// returns whether control can fall off its end.
func (b *builder) walkBody(body []syntax.Stmt, scope *Scope, f flow) bool {
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *syntax.ClassDef:
			b.enterClass(s, scope, f)
		case *syntax.FunctionDef:
			b.enterFunction(s, scope, f)
		case *syntax.Assign:
			for _, target := range s.Targets {
				b.bindTarget(target, scope, s, s.Value, f)
			}
		case *syntax.AnnAssign:
			if name, ok := s.Target.(*syntax.Name); ok {
				sym := scope.ensure(name.ID)
				sym.Declarations = append(sym.Declarations, Declaration{
					Node:       s,
					Annotation: s.Annotation,
					Reachable:  f.reachable,
				})
				if s.Value != nil {
					sym.Bindings = append(sym.Bindings, Binding{
						Node:        s,
						Value:       s.Value,
						Reachable:   f.reachable,
						Conditional: f.conditional,
					})
				}
			}
		case *syntax.AugAssign:
			// Augmented assignment requires an existing binding; it neither
			// declares nor contributes a type.
		case *syntax.If:
			branch := flow{reachable: f.reachable, conditional: true}
			thenFalls := b.walkBody(s.Body, scope, b.narrow(branch, s.Cond, true))
			elseFalls := b.walkBody(s.Else, scope, b.narrow(branch, s.Cond, false))
			if !thenFalls && !elseFalls && len(s.Else) > 0 {
				f.reachable = false
			}
		case *syntax.For:
			b.bindTarget(s.Target, scope, s, nil, flow{reachable: f.reachable, conditional: true})
			b.walkBody(s.Body, scope, flow{reachable: f.reachable, conditional: true})
			b.walkBody(s.Else, scope, flow{reachable: f.reachable, conditional: true})
		case *syntax.While:
			b.walkBody(s.Body, scope, flow{reachable: f.reachable, conditional: true})
			b.walkBody(s.Else, scope, flow{reachable: f.reachable, conditional: true})
		case *syntax.With:
			for _, item := range s.Items {
				if item.Vars != nil {
					b.bindTarget(item.Vars, scope, s, item.Context, f)
				}
			}
			if !b.walkBody(s.Body, scope, f) {
				f.reachable = false
			}
		case *syntax.Try:
			b.walkBody(s.Body, scope, flow{reachable: f.reachable, conditional: true})
			for _, handler := range s.Handlers {
				b.walkBody(handler, scope, flow{reachable: f.reachable, conditional: true})
			}
			b.walkBody(s.Else, scope, flow{reachable: f.reachable, conditional: true})
			if !b.walkBody(s.Finally, scope, f) {
				f.reachable = false
			}
		case *syntax.Return, *syntax.Raise, *syntax.Break, *syntax.Continue:
			f.reachable = false
		}
	}
	return f.reachable
}

// narrow handles statically-false branches (`if True:` / `if False:`) so
// assignments only reachable through dead code are excluded.
func (b *builder) narrow(f flow, cond syntax.Expr, branch bool) flow {
	if lit, ok := cond.(*syntax.BoolLit); ok {
		if lit.Value != branch {
			f.reachable = false
		} else {
			// the taken branch of a constant condition is unconditional
			f.conditional = false
		}
	}
	return f
}

func (b *builder) bindTarget(target syntax.Expr, scope *Scope, stmt syntax.Stmt, value syntax.Expr, f flow) {
	switch t := target.(type) {
	case *syntax.Name:
		sym := scope.ensure(t.ID)
		sym.Bindings = append(sym.Bindings, Binding{
			Node:        stmt,
			Value:       value,
			Reachable:   f.reachable,
			Conditional: f.conditional,
		})
	case *syntax.TupleExpr:
		for _, elt := range t.Elts {
			b.bindTarget(elt, scope, stmt, nil, f)
		}
	case *syntax.ListExpr:
		for _, elt := range t.Elts {
			b.bindTarget(elt, scope, stmt, nil, f)
		}
	case *syntax.Starred:
		b.bindTarget(t.Value, scope, stmt, nil, f)
	}
	// Attribute/Subscript targets bind no scope symbol.
}

func (b *builder) enterClass(s *syntax.ClassDef, scope *Scope, f flow) {
	sym := scope.ensure(s.Name)
	sym.Bindings = append(sym.Bindings, Binding{
		Node:        s,
		Class:       s,
		Reachable:   f.reachable,
		Conditional: f.conditional,
	})

	classScope := NewScope(ClassScope, s.Name, scope)
	b.idx.scopes[s] = classScope
	b.idx.classes = append(b.idx.classes, s)
	b.walkBody(s.Body, classScope, flow{reachable: true})
}

func (b *builder) enterFunction(s *syntax.FunctionDef, scope *Scope, f flow) {
	sym := scope.ensure(s.Name)
	sym.Bindings = append(sym.Bindings, Binding{
		Node:        s,
		Func:        s,
		Reachable:   f.reachable,
		Conditional: f.conditional,
	})

	fnScope := NewScope(FunctionScope, s.Name, scope)
	b.idx.scopes[s] = fnScope
	for _, p := range s.Params {
		if p.Name != "" {
			psym := fnScope.ensure(p.Name)
			psym.Bindings = append(psym.Bindings, Binding{
				Node:      s,
				Reachable: true,
			})
		}
	}
	b.walkBody(s.Body, fnScope, flow{reachable: true})
}

// Reachability answers liveness for statements inside one function body: a
// per-statement map computed the same way the builder tracks flow. The member
// resolver uses it when scanning methods for implicit attribute assignments.
type Reachability struct {
	reachable map[syntax.Stmt]bool
}

// ComputeReachability walks a function body and records, for each statement,
// whether it can execute.
func ComputeReachability(fn *syntax.FunctionDef) *Reachability {
	r := &Reachability{reachable: make(map[syntax.Stmt]bool)}
	r.walk(fn.Body, true)
	return r
}

// Reachable reports whether the statement can execute. Statements the walk
// never saw report false.
func (r *Reachability) Reachable(stmt syntax.Stmt) bool {
	return r.reachable[stmt]
}

func (r *Reachability) walk(body []syntax.Stmt, live bool) bool {
	for _, stmt := range body {
		r.reachable[stmt] = live
		switch s := stmt.(type) {
		case *syntax.If:
			thenLive, elseLive := live, live
			if lit, ok := s.Cond.(*syntax.BoolLit); ok {
				if lit.Value {
					elseLive = false
				} else {
					thenLive = false
				}
			}
			thenFalls := r.walk(s.Body, thenLive)
			elseFalls := r.walk(s.Else, elseLive)
			if len(s.Else) > 0 && !thenFalls && !elseFalls {
				live = false
			}
		case *syntax.For:
			r.walk(s.Body, live)
			r.walk(s.Else, live)
		case *syntax.While:
			r.walk(s.Body, live)
			r.walk(s.Else, live)
		case *syntax.With:
			if !r.walk(s.Body, live) {
				live = false
			}
		case *syntax.Try:
			r.walk(s.Body, live)
			for _, handler := range s.Handlers {
				r.walk(handler, live)
			}
			r.walk(s.Else, live)
			if !r.walk(s.Finally, live) {
				live = false
			}
		case *syntax.Return, *syntax.Raise, *syntax.Break, *syntax.Continue:
			live = false
		}
	}
	return live
}
