package pytype

import (
	"typewalk/internal/semantic"
	"typewalk/internal/syntax"
)

// inferDepthLimit bounds recursion through chains of name bindings so a
// self-referential assignment cannot loop the resolver.
const inferDepthLimit = 16

// ResolveName resolves a bare name in a scope chain to the type of the value
// it is bound to, falling back to the builtin surface and finally Unknown.
func (m *Model) ResolveName(scope *semantic.Scope, name string) Type {
	return m.resolveName(scope, name, 0)
}

func (m *Model) resolveName(scope *semantic.Scope, name string, depth int) Type {
	if scope != nil {
		if sym, defScope := scope.Lookup(name); sym != nil {
			return m.resolveSymbol(defScope, sym, depth)
		}
	}
	if lit := m.lookupBuiltin(name); lit != nil {
		return lit.AsClass()
	}
	return Unknown
}

// resolveSymbol picks the last reachable binding. Conditional reassignment
// keeps only the latest value; member resolution accounts for boundness
// separately through the symbol itself.
func (m *Model) resolveSymbol(scope *semantic.Scope, sym *semantic.Symbol, depth int) Type {
	if depth > inferDepthLimit {
		return Unknown
	}
	for i := len(sym.Bindings) - 1; i >= 0; i-- {
		b := sym.Bindings[i]
		if !b.Reachable {
			continue
		}
		switch {
		case b.Class != nil:
			if lit := m.ClassFor(b.Class); lit != nil {
				return lit.AsClass()
			}
			return Unknown
		case b.Func != nil:
			return m.callableForFunction(scope, b.Func)
		case b.Value != nil:
			if tv := m.typeVarFromCall(scope, b.Node, sym.Name, b.Value); tv != nil {
				return &TypeVarType{Var: tv}
			}
			return m.inferValue(scope, b.Value, depth+1)
		}
	}
	return Unknown
}

// typeVarFromCall recognizes the legacy TypeVar("T", ...) declaration form.
// The resulting variable is interned by declaration site so every use of the
// name sees the same identity.
func (m *Model) typeVarFromCall(scope *semantic.Scope, site syntax.Node, name string, value syntax.Expr) *TypeVar {
	call, ok := value.(*syntax.Call)
	if !ok {
		return nil
	}
	callee, ok := call.Func.(*syntax.Name)
	if !ok || callee.ID != "TypeVar" {
		return nil
	}
	m.mu.Lock()
	if tv, ok := m.typeVars[site]; ok {
		m.mu.Unlock()
		return tv
	}
	m.mu.Unlock()

	tv := &TypeVar{Name: name, Variance: Invariant}
	for _, kw := range call.Keywords {
		truthy := false
		if b, ok := kw.Value.(*syntax.BoolLit); ok {
			truthy = b.Value
		}
		switch kw.Name {
		case "covariant":
			if truthy {
				tv.Variance = Covariant
			}
		case "contravariant":
			if truthy {
				tv.Variance = Contravariant
			}
		case "bound":
			tv.Bound = m.inferAnnotation(scope, kw.Value)
		case "default":
			tv.Default = m.inferAnnotation(scope, kw.Value)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.typeVars[site]; ok {
		return existing
	}
	m.typeVars[site] = tv
	return tv
}

// typeVarForParam interns the type variable for one PEP 695 declaration.
func (m *Model) typeVarForParam(scope *semantic.Scope, tp *syntax.TypeParam, index int) *TypeVar {
	m.mu.Lock()
	if tv, ok := m.typeVars[tp]; ok {
		m.mu.Unlock()
		return tv
	}
	m.mu.Unlock()

	tv := &TypeVar{Name: tp.Name, Variance: Invariant, Index: index}
	if tp.Bound != nil {
		tv.Bound = m.inferAnnotation(scope, tp.Bound)
	}
	if tp.Default != nil {
		tv.Default = m.inferAnnotation(scope, tp.Default)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.typeVars[tp]; ok {
		return existing
	}
	m.typeVars[tp] = tv
	return tv
}

// inferValue infers the type of a value expression (right-hand side of an
// assignment, call argument, and the like).
func (m *Model) inferValue(scope *semantic.Scope, e syntax.Expr, depth int) Type {
	if depth > inferDepthLimit {
		return Unknown
	}
	switch ex := e.(type) {
	case *syntax.Name:
		return m.resolveName(scope, ex.ID, depth)
	case *syntax.IntLit:
		return IntLiteral(ex.Value)
	case *syntax.FloatLit:
		return &LiteralType{Kind: LiteralFloat, Float: ex.Value}
	case *syntax.StringLit:
		return StringLiteral(ex.Value)
	case *syntax.BoolLit:
		return BoolLiteral(ex.Value)
	case *syntax.NoneLit:
		return NoneValue
	case *syntax.EllipsisLit:
		return EllipsisValue
	case *syntax.TupleExpr:
		return InstanceOf(m.KnownClass(KnownTuple))
	case *syntax.ListExpr:
		return InstanceOf(m.KnownClass(KnownList))
	case *syntax.Call:
		return m.inferCall(scope, ex, depth)
	case *syntax.Subscript:
		base := m.inferValue(scope, ex.Value, depth+1)
		if ct, ok := base.(ClassType); ok && ct.IsGeneric() {
			return m.specializeExplicit(scope, ct, ex.Indexes)
		}
		return Unknown
	case *syntax.Attribute:
		return Unknown
	default:
		return Unknown
	}
}

// inferCall resolves calling a class object to an instance of that class,
// and calling a known callable to its return type.
func (m *Model) inferCall(scope *semantic.Scope, call *syntax.Call, depth int) Type {
	callee := m.inferValue(scope, call.Func, depth+1)
	switch c := callee.(type) {
	case ClassType:
		if !c.IsZero() {
			return InstanceOf(c)
		}
	case *CallableType:
		if len(c.Signatures) == 1 && c.Signatures[0].Return != nil {
			return c.Signatures[0].Return
		}
	}
	return Unknown
}

// inferAnnotation maps an annotation expression to the type it denotes: a
// class name denotes an instance of the class, None denotes the None value,
// a subscripted generic denotes a specialized instance.
func (m *Model) inferAnnotation(scope *semantic.Scope, e syntax.Expr) Type {
	switch ex := e.(type) {
	case *syntax.Name:
		switch ex.ID {
		case "None":
			return NoneValue
		case "Any":
			return Any
		}
		switch t := m.resolveName(scope, ex.ID, 0).(type) {
		case ClassType:
			return InstanceOf(t)
		case *TypeVarType:
			return t
		}
		return Unknown
	case *syntax.NoneLit:
		return NoneValue
	case *syntax.StringLit:
		// forward reference: resolve the quoted name in the same scope
		return m.inferAnnotation(scope, &syntax.Name{ID: ex.Value})
	case *syntax.Subscript:
		base := m.inferValue(scope, ex.Value, 0)
		ct, ok := base.(ClassType)
		if !ok || ct.IsZero() {
			return Unknown
		}
		if lit := ct.Literal(); lit != nil {
			switch lit.Known {
			case KnownNoneType:
				return Unknown
			}
		}
		if ct.IsGeneric() {
			return InstanceOf(m.specializeExplicit(scope, ct, ex.Indexes))
		}
		return InstanceOf(ct)
	case *syntax.EllipsisLit:
		return Unknown
	default:
		return Unknown
	}
}

// specializeExplicit builds the explicit specialization of a generic class
// from subscript arguments. Missing trailing arguments take the variable's
// default when present, Unknown otherwise.
func (m *Model) specializeExplicit(scope *semantic.Scope, ct ClassType, indexes []syntax.Expr) ClassType {
	lit := ct.Literal()
	if lit == nil {
		return ct
	}
	ctx := m.GenericContextOf(lit)
	if ctx == nil {
		return ct
	}
	args := make([]Type, ctx.Len())
	for i := range args {
		switch {
		case i < len(indexes):
			args[i] = m.inferAnnotation(scope, indexes[i])
		case ctx.Vars[i].Default != nil:
			args[i] = ctx.Vars[i].Default
		default:
			args[i] = Unknown
		}
	}
	if len(indexes) != ctx.Len() {
		m.report("invalid-specialization",
			"wrong number of type arguments for "+lit.Name,
			spanOfExprs(indexes))
	}
	return m.internAlias(lit, ctx.Specialize(args))
}

// callableForFunction converts a function definition into a callable type.
func (m *Model) callableForFunction(scope *semantic.Scope, fn *syntax.FunctionDef) *CallableType {
	sig := &Signature{}
	for _, p := range fn.Params {
		param := Parameter{
			Name:            p.Name,
			KeywordOnly:     p.KeywordOnly,
			Variadic:        p.Star == syntax.StarArgs,
			KeywordVariadic: p.Star == syntax.StarKwargs,
		}
		if p.Annotation != nil {
			param.Type = m.inferAnnotation(scope, p.Annotation)
		} else {
			param.Type = Unknown
		}
		if p.Default != nil {
			param.Default = m.inferValue(scope, p.Default, 0)
		}
		sig.Params = append(sig.Params, param)
	}
	if fn.Returns != nil {
		sig.Return = m.inferAnnotation(scope, fn.Returns)
	} else {
		sig.Return = Unknown
	}
	return NewCallable(sig)
}

func spanOfExprs(exprs []syntax.Expr) syntax.Span {
	if len(exprs) == 0 {
		return syntax.Span{}
	}
	sp := exprs[0].Span()
	last := exprs[len(exprs)-1].Span()
	sp.EndLine, sp.EndCol = last.EndLine, last.EndCol
	return sp
}
