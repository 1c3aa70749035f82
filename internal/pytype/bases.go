package pytype

import (
	"typewalk/internal/syntax"
)

// Bases resolves a class's explicit base expressions into ClassBase entries.
// Resolution is lazy and memoized; a class whose base list yields no usable
// class gets the root class appended so every hierarchy stays rooted.
func (m *Model) Bases(lit *ClassLiteral) []ClassBase {
	return m.bases.Get(lit, m.computeBases)
}

func (m *Model) computeBases(lit *ClassLiteral) []ClassBase {
	if lit.Def == nil {
		out := make([]ClassBase, 0, len(lit.synthBases))
		for _, b := range lit.synthBases {
			if ct, ok := b.(ClassType); ok {
				out = append(out, ClassBaseOf(ct))
			}
		}
		return out
	}

	var out []ClassBase
	rooted := false
	for _, be := range lit.Def.Bases {
		b := m.resolveBase(lit, be)
		if _, ok := b.AsClass(); ok {
			rooted = true
		}
		if _, ok := b.AsDynamic(); ok {
			// a dynamic base may be any class, including the root
			rooted = true
		}
		out = append(out, b)
	}
	if !rooted && lit.Known != KnownObject {
		out = append(out, ClassBaseOf(m.KnownClass(KnownObject)))
	}
	return out
}

// resolveBase evaluates one base-list expression. Protocol and Generic heads
// become markers; subscripted generic classes become specialized classes;
// anything unresolvable becomes a dynamic base.
func (m *Model) resolveBase(lit *ClassLiteral, e syntax.Expr) ClassBase {
	if sub, ok := e.(*syntax.Subscript); ok {
		head := m.inferValue(lit.Scope, sub.Value, 0)
		ct, ok := head.(ClassType)
		if !ok || ct.IsZero() {
			return DynamicBase(Unknown)
		}
		switch ct.Literal().Known {
		case KnownProtocol:
			return ProtocolMarker
		case KnownGeneric:
			return GenericMarker
		}
		if m.GenericContextOf(ct.Literal()) != nil {
			return ClassBaseOf(m.specializeExplicit(lit.Scope, ct, sub.Indexes))
		}
		return ClassBaseOf(ct)
	}

	switch t := m.inferValue(lit.Scope, e, 0).(type) {
	case ClassType:
		if t.IsZero() {
			return DynamicBase(Unknown)
		}
		switch t.Literal().Known {
		case KnownProtocol:
			return ProtocolMarker
		case KnownGeneric:
			return GenericMarker
		}
		return ClassBaseOf(t)
	case *DynamicType:
		return DynamicBase(t)
	default:
		return DynamicBase(Unknown)
	}
}

// GenericContextOf returns the class's generic context, or nil when the
// class is not generic. The context comes from exactly one source: explicit
// syntactic type parameters win over a legacy Generic[...]/Protocol[...]
// base, which wins over inference from specialized generic bases. A class
// with more than one source keeps the highest-precedence one and gets a
// diagnostic.
func (m *Model) GenericContextOf(lit *ClassLiteral) *GenericContext {
	return m.contexts.Get(lit, m.computeContext)
}

func (m *Model) computeContext(lit *ClassLiteral) *GenericContext {
	if lit.Def == nil {
		return nil
	}

	syntactic := m.syntacticVars(lit)
	legacy := m.legacyVars(lit)
	inferred := m.inferredVars(lit)

	sources := 0
	for _, vars := range [][]*TypeVar{syntactic, legacy, inferred} {
		if len(vars) > 0 {
			sources++
		}
	}
	if sources > 1 {
		m.report("generic-context-conflict",
			"class "+lit.Name+" declares type parameters from more than one source",
			lit.HeaderSpan())
	}

	switch {
	case len(syntactic) > 0:
		return &GenericContext{Vars: syntactic, Source: SourceSyntactic}
	case len(legacy) > 0:
		return &GenericContext{Vars: legacy, Source: SourceLegacyBase}
	case len(inferred) > 0:
		return &GenericContext{Vars: inferred, Source: SourceInferred}
	default:
		return nil
	}
}

func (m *Model) syntacticVars(lit *ClassLiteral) []*TypeVar {
	if len(lit.Def.TypeParams) == 0 {
		return nil
	}
	vars := make([]*TypeVar, 0, len(lit.Def.TypeParams))
	seen := make(map[string]bool)
	for i := range lit.Def.TypeParams {
		tp := &lit.Def.TypeParams[i]
		if seen[tp.Name] {
			m.report("duplicate-type-parameter",
				"duplicate type parameter "+tp.Name+" on class "+lit.Name,
				tp.Pos)
			continue
		}
		seen[tp.Name] = true
		vars = append(vars, m.typeVarForParam(lit.Scope, tp, len(vars)))
	}
	return vars
}

// legacyVars collects the arguments of a Generic[...] or Protocol[...] base.
func (m *Model) legacyVars(lit *ClassLiteral) []*TypeVar {
	var vars []*TypeVar
	seen := make(map[*TypeVar]bool)
	for _, be := range lit.Def.Bases {
		sub, ok := be.(*syntax.Subscript)
		if !ok {
			continue
		}
		head, ok := m.inferValue(lit.Scope, sub.Value, 0).(ClassType)
		if !ok || head.IsZero() {
			continue
		}
		if k := head.Literal().Known; k != KnownGeneric && k != KnownProtocol {
			continue
		}
		for _, idx := range sub.Indexes {
			tvt, ok := m.inferAnnotation(lit.Scope, idx).(*TypeVarType)
			if !ok {
				m.report("invalid-type-parameter",
					"type argument in Generic base of "+lit.Name+" is not a type variable",
					idx.Span())
				continue
			}
			if !seen[tvt.Var] {
				seen[tvt.Var] = true
				vars = append(vars, tvt.Var)
			}
		}
	}
	return vars
}

// inferredVars collects type variables appearing in specialized generic
// bases, in first-appearance order.
func (m *Model) inferredVars(lit *ClassLiteral) []*TypeVar {
	var vars []*TypeVar
	seen := make(map[*TypeVar]bool)
	for _, be := range lit.Def.Bases {
		sub, ok := be.(*syntax.Subscript)
		if !ok {
			continue
		}
		head, ok := m.inferValue(lit.Scope, sub.Value, 0).(ClassType)
		if !ok || head.IsZero() {
			continue
		}
		if k := head.Literal().Known; k == KnownGeneric || k == KnownProtocol {
			continue
		}
		for _, idx := range sub.Indexes {
			t := m.inferAnnotation(lit.Scope, idx)
			collectTypeVars(t, seen, &vars)
		}
	}
	return vars
}

func collectTypeVars(t Type, seen map[*TypeVar]bool, out *[]*TypeVar) {
	switch t := t.(type) {
	case *TypeVarType:
		if !seen[t.Var] {
			seen[t.Var] = true
			*out = append(*out, t.Var)
		}
	case *UnionType:
		for _, mem := range t.Members {
			collectTypeVars(mem, seen, out)
		}
	case *IntersectionType:
		for _, mem := range t.Members {
			collectTypeVars(mem, seen, out)
		}
	case *InstanceType:
		if alias := t.Class.Alias(); alias != nil {
			for _, a := range alias.Spec.Args {
				collectTypeVars(a, seen, out)
			}
		}
	case ClassType:
		if alias := t.Alias(); alias != nil {
			for _, a := range alias.Spec.Args {
				collectTypeVars(a, seen, out)
			}
		}
	}
}
