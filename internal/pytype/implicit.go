package pytype

import (
	"typewalk/internal/semantic"
	"typewalk/internal/syntax"
)

// implicitMode selects which receiver an implicit-attribute scan follows:
// self assignments for instance attributes, cls assignments inside
// classmethods for class attributes.
type implicitMode int

const (
	implicitInstanceLevel implicitMode = iota
	implicitClassLevel
)

// implicitAttribute infers an attribute that is never declared in the class
// body from assignment-like constructs to self.<name> / cls.<name> inside
// the class's methods. An annotated assignment found anywhere is trusted as
// the attribute's type and ends the scan. Otherwise the result is the union
// of Unknown (the attribute may be mutated from outside the class) with
// every reachable right-hand side's type; nil when no reachable assignment
// exists.
func (m *Model) implicitAttribute(lit *ClassLiteral, name string, mode implicitMode) Type {
	if lit.Def == nil {
		return nil
	}

	var rhs []Type
	found := false
	for _, fn := range classMethods(lit.Def.Body) {
		if mode == implicitClassLevel && !hasDecorator(fn, "classmethod") {
			continue
		}
		recv := receiverName(fn)
		if recv == "" {
			continue
		}
		scan := &implicitScanner{
			model: m,
			attr:  name,
			recv:  recv,
			scope: m.methodScope(lit, fn),
			reach: semantic.ComputeReachability(fn),
		}
		scan.walk(fn.Body, false)
		if scan.annotated != nil {
			return scan.annotated
		}
		if scan.found {
			found = true
			rhs = append(rhs, scan.values...)
		}
	}
	if !found {
		return nil
	}
	return NewUnion(append([]Type{Unknown}, rhs...)...)
}

// implicitDefinitelyBound reports whether some method assigns the attribute
// unconditionally, so it is bound by the end of that method.
func (m *Model) implicitDefinitelyBound(lit *ClassLiteral, name string) bool {
	if lit.Def == nil {
		return false
	}
	for _, fn := range classMethods(lit.Def.Body) {
		recv := receiverName(fn)
		if recv == "" {
			continue
		}
		scan := &implicitScanner{
			model: m,
			attr:  name,
			recv:  recv,
			scope: m.methodScope(lit, fn),
			reach: semantic.ComputeReachability(fn),
		}
		scan.walk(fn.Body, false)
		if scan.unconditional {
			return true
		}
	}
	return false
}

func (m *Model) methodScope(lit *ClassLiteral, fn *syntax.FunctionDef) *semantic.Scope {
	if lit.index != nil {
		if s := lit.index.ScopeOf(fn); s != nil {
			return s
		}
	}
	return lit.Body
}

// classMethods lists the function definitions in a class body, including
// ones nested under top-level conditionals.
func classMethods(body []syntax.Stmt) []*syntax.FunctionDef {
	var out []*syntax.FunctionDef
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *syntax.FunctionDef:
			out = append(out, s)
		case *syntax.If:
			out = append(out, classMethods(s.Body)...)
			out = append(out, classMethods(s.Else)...)
		}
	}
	return out
}

func hasDecorator(fn *syntax.FunctionDef, name string) bool {
	for _, dec := range fn.Decorators {
		if _, n := decoratorParts(dec); n == name {
			return true
		}
	}
	return false
}

// receiverName is the first positional parameter, empty for staticmethods
// and parameter-less methods.
func receiverName(fn *syntax.FunctionDef) string {
	if hasDecorator(fn, "staticmethod") {
		return ""
	}
	for _, p := range fn.Params {
		if p.Star != syntax.StarNone {
			return ""
		}
		return p.Name
	}
	return ""
}

type implicitScanner struct {
	model *Model
	attr  string
	recv  string
	scope *semantic.Scope
	reach *semantic.Reachability

	found         bool
	unconditional bool
	annotated     Type
	values        []Type
}

// walk visits the method body tracking per-branch liveness; conditional is
// true inside any control-flow construct.
func (sc *implicitScanner) walk(body []syntax.Stmt, conditional bool) {
	for _, stmt := range body {
		if sc.annotated != nil {
			return
		}
		if !sc.reach.Reachable(stmt) {
			continue
		}
		switch s := stmt.(type) {
		case *syntax.Assign:
			for _, target := range s.Targets {
				sc.matchTarget(target, s.Value, conditional)
			}
		case *syntax.AnnAssign:
			if sc.isReceiverAttr(s.Target) {
				sc.annotated = sc.model.inferAnnotation(sc.scope, s.Annotation)
				return
			}
		case *syntax.AugAssign:
			if sc.isReceiverAttr(s.Target) {
				// counts as an assignment but contributes no type
				sc.record(nil, conditional)
			}
		case *syntax.For:
			sc.matchTarget(s.Target, nil, true)
			sc.walk(s.Body, true)
			sc.walk(s.Else, true)
		case *syntax.While:
			sc.walk(s.Body, true)
			sc.walk(s.Else, true)
		case *syntax.If:
			sc.walk(s.Body, true)
			sc.walk(s.Else, true)
		case *syntax.With:
			for _, item := range s.Items {
				if item.Vars != nil {
					sc.matchTarget(item.Vars, nil, conditional)
				}
			}
			sc.walk(s.Body, conditional)
		case *syntax.Try:
			sc.walk(s.Body, true)
			for _, h := range s.Handlers {
				sc.walk(h, true)
			}
			sc.walk(s.Else, true)
			sc.walk(s.Finally, conditional)
		case *syntax.ExprStmt:
			sc.scanExpr(s.Value)
		}
	}
}

// matchTarget handles direct attribute targets and unpacking targets; an
// attribute inside an unpacking pattern contributes an assignment with no
// usable type.
func (sc *implicitScanner) matchTarget(target syntax.Expr, value syntax.Expr, conditional bool) {
	switch t := target.(type) {
	case *syntax.Attribute:
		if sc.isReceiverAttr(t) {
			var v Type
			if value != nil {
				v = sc.model.inferValue(sc.scope, value, 0)
			}
			sc.record(v, conditional)
		}
	case *syntax.TupleExpr:
		for _, el := range t.Elts {
			sc.matchTarget(el, nil, conditional)
		}
	case *syntax.ListExpr:
		for _, el := range t.Elts {
			sc.matchTarget(el, nil, conditional)
		}
	case *syntax.Starred:
		sc.matchTarget(t.Value, nil, conditional)
	}
}

// scanExpr finds comprehension-target assignments inside expression
// statements.
func (sc *implicitScanner) scanExpr(e syntax.Expr) {
	comp, ok := e.(*syntax.Comp)
	if !ok {
		return
	}
	for _, clause := range comp.Clauses {
		sc.matchTarget(clause.Target, nil, true)
	}
}

func (sc *implicitScanner) isReceiverAttr(e syntax.Expr) bool {
	attr, ok := e.(*syntax.Attribute)
	if !ok || attr.Attr != sc.attr {
		return false
	}
	name, ok := attr.Value.(*syntax.Name)
	return ok && name.ID == sc.recv
}

func (sc *implicitScanner) record(v Type, conditional bool) {
	sc.found = true
	if !conditional {
		sc.unconditional = true
	}
	if v != nil {
		sc.values = append(sc.values, v)
	}
}
