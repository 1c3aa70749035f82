package pytype

import (
	"fmt"

	"typewalk/internal/observability"
	"typewalk/internal/syntax"
)

type MetaclassErrorKind int

const (
	// MetaclassConflict means two candidate metaclasses with no subclass
	// relation between them.
	MetaclassConflict MetaclassErrorKind = iota
	// MetaclassNotCallable means the resolved metaclass value cannot be
	// invoked as a constructor.
	MetaclassNotCallable
	// MetaclassPartlyNotCallable means a union where only some members are
	// callable.
	MetaclassPartlyNotCallable
	// MetaclassCycle means resolution depends on an unresolved inheritance
	// cycle; expected during incremental recomputation, not a user error.
	MetaclassCycle
)

func (k MetaclassErrorKind) String() string {
	switch k {
	case MetaclassConflict:
		return "conflict"
	case MetaclassNotCallable:
		return "not-callable"
	case MetaclassPartlyNotCallable:
		return "partly-not-callable"
	default:
		return "cycle"
	}
}

// MetaclassError carries the provenance of both candidates on a conflict so
// the diagnostic can name them.
type MetaclassError struct {
	Kind MetaclassErrorKind

	// Conflict details.
	Candidate            ClassType
	CandidateFromKeyword bool
	Conflicting          ClassType
	ConflictingBase      *ClassLiteral

	// NotCallable details.
	Value Type
}

func (e *MetaclassError) Error() string {
	switch e.Kind {
	case MetaclassConflict:
		return fmt.Sprintf("metaclass conflict between %s and %s",
			e.Candidate.Name(), e.Conflicting.Name())
	case MetaclassNotCallable:
		return fmt.Sprintf("metaclass %s is not callable", e.Value)
	case MetaclassPartlyNotCallable:
		return fmt.Sprintf("metaclass %s is only partly callable", e.Value)
	default:
		return "metaclass resolution hit an inheritance cycle"
	}
}

type metaclassResult struct {
	meta   Type
	params *DataclassParams
	err    *MetaclassError
}

// TryMetaclass resolves the class's metaclass: the explicit metaclass=
// argument, otherwise the first base's metaclass, otherwise type; then
// reconciled against every remaining base's metaclass with the most derived
// candidate winning. The winning metaclass's dataclass-transformer
// parameters, when present, come back alongside it.
func (m *Model) TryMetaclass(lit *ClassLiteral) (Type, *DataclassParams, *MetaclassError) {
	res := m.metaclasses.Get(lit, m.computeMetaclass)
	return res.meta, res.params, res.err
}

// Metaclass returns the resolved metaclass, Unknown on any failure.
func (m *Model) Metaclass(lit *ClassLiteral) Type {
	meta, _, err := m.TryMetaclass(lit)
	if err != nil && err.Kind != MetaclassCycle {
		return Unknown
	}
	return meta
}

// MetaclassInstanceType is the type of the class object itself: an instance
// of its metaclass.
func (m *Model) MetaclassInstanceType(lit *ClassLiteral) Type {
	switch meta := m.Metaclass(lit).(type) {
	case ClassType:
		return InstanceOf(meta)
	default:
		return Unknown
	}
}

func (m *Model) computeMetaclass(lit *ClassLiteral) metaclassResult {
	if m.InheritanceCycleOf(lit) != NoCycle {
		return metaclassResult{meta: Unknown, err: &MetaclassError{Kind: MetaclassCycle}}
	}

	bases := m.Bases(lit)

	candidate, fromKeyword, err := m.candidateMetaclass(lit, bases)
	if err != nil {
		m.report("invalid-metaclass", err.Error(), lit.HeaderSpan())
		return metaclassResult{meta: Unknown, err: err}
	}

	cct, concrete := candidate.(ClassType)
	start := 0
	if !fromKeyword {
		// the candidate already came from the first class base
		start = 1
	}
	seen := 0
	for _, b := range bases {
		bc, ok := b.AsClass()
		if !ok {
			continue
		}
		seen++
		if seen <= start {
			continue
		}
		bm, ok := m.metaclassOfClass(bc).(ClassType)
		if !ok || !concrete {
			continue
		}
		switch {
		case m.IsSubclassOf(bm, cct):
			// more specific wins
			cct = bm
			candidate = bm
		case m.IsSubclassOf(cct, bm):
			// keep the running candidate
		default:
			observability.MetaclassConflicts.Inc()
			conflict := &MetaclassError{
				Kind:                 MetaclassConflict,
				Candidate:            cct,
				CandidateFromKeyword: fromKeyword,
				Conflicting:          bm,
				ConflictingBase:      bc.Literal(),
			}
			m.report("metaclass-conflict", conflict.Error(), lit.HeaderSpan())
			return metaclassResult{meta: Unknown, err: conflict}
		}
	}

	res := metaclassResult{meta: candidate}
	if concrete {
		res.params = m.dataclassTransformerParams(cct)
	}
	return res
}

// candidateMetaclass picks the starting candidate: explicit keyword, first
// class base's metaclass, or type.
func (m *Model) candidateMetaclass(lit *ClassLiteral, bases []ClassBase) (Type, bool, *MetaclassError) {
	if kw := metaclassKeyword(lit); kw != nil {
		t, err := m.evalMetaclassValue(m.inferValue(lit.Scope, kw, 0))
		return t, true, err
	}
	for _, b := range bases {
		if bc, ok := b.AsClass(); ok {
			return m.metaclassOfClass(bc), false, nil
		}
		if _, ok := b.AsDynamic(); ok {
			return Unknown, false, nil
		}
	}
	return m.KnownClass(KnownType), false, nil
}

func metaclassKeyword(lit *ClassLiteral) syntax.Expr {
	if lit.Def == nil {
		return nil
	}
	for _, kw := range lit.Def.Keywords {
		if kw.Name == "metaclass" {
			return kw.Value
		}
	}
	return nil
}

// metaclassOfClass resolves a base entry's metaclass, recursing through the
// memoized table; the well-known builtins all answer type.
func (m *Model) metaclassOfClass(ct ClassType) Type {
	lit := ct.Literal()
	if lit.Def == nil {
		return m.KnownClass(KnownType)
	}
	res := m.metaclasses.Get(lit, m.computeMetaclass)
	return res.meta
}

// evalMetaclassValue turns the metaclass= value into a usable class type. A
// value that is not a class is evaluated as a call and its return type used;
// callables that are not, or are only partly, invokable produce errors.
func (m *Model) evalMetaclassValue(v Type) (Type, *MetaclassError) {
	switch t := v.(type) {
	case ClassType:
		if t.IsZero() {
			return Unknown, nil
		}
		return t, nil
	case *DynamicType:
		return Unknown, nil
	case *CallableType:
		var rets []Type
		for _, sig := range t.Signatures {
			if sig.Return != nil {
				rets = append(rets, sig.Return)
			}
		}
		if len(rets) == 0 {
			return Unknown, nil
		}
		ret := NewUnion(rets...)
		if ct, ok := ret.(ClassType); ok {
			return ct, nil
		}
		if inst, ok := ret.(*InstanceType); ok {
			// a factory returning instances of a metaclass
			return inst.Class, nil
		}
		return Unknown, nil
	case *UnionType:
		var out []Type
		failed := 0
		for _, mem := range t.Members {
			r, err := m.evalMetaclassValue(mem)
			if err != nil {
				failed++
				continue
			}
			out = append(out, r)
		}
		switch {
		case failed == len(t.Members):
			return Unknown, &MetaclassError{Kind: MetaclassNotCallable, Value: v}
		case failed > 0:
			return Unknown, &MetaclassError{Kind: MetaclassPartlyNotCallable, Value: v}
		default:
			return NewUnion(out...), nil
		}
	default:
		return Unknown, &MetaclassError{Kind: MetaclassNotCallable, Value: v}
	}
}

// dataclassTransformerParams inspects a metaclass for a dataclass_transform
// decoration and translates it into code-generation switches for classes
// constructed through it.
func (m *Model) dataclassTransformerParams(meta ClassType) *DataclassParams {
	lit := meta.Literal()
	if lit == nil || lit.Def == nil {
		return nil
	}
	for _, dec := range lit.Decorators() {
		call, name := decoratorParts(dec)
		if name != "dataclass_transform" {
			continue
		}
		params := DefaultDataclassParams()
		if call != nil {
			for _, kw := range call.Keywords {
				truthy := false
				if b, ok := kw.Value.(*syntax.BoolLit); ok {
					truthy = b.Value
				}
				switch kw.Name {
				case "eq_default":
					params.Eq = truthy
				case "order_default":
					params.Order = truthy
				case "kw_only_default":
					params.KwOnly = truthy
				case "frozen_default":
					params.Frozen = truthy
				}
			}
		}
		return &params
	}
	return nil
}

// decoratorParts splits a decorator expression into its optional call and
// the trailing name, so @dataclass, @dataclasses.dataclass and
// @dataclass(...) all answer "dataclass".
func decoratorParts(dec syntax.Expr) (*syntax.Call, string) {
	var call *syntax.Call
	e := dec
	if c, ok := e.(*syntax.Call); ok {
		call = c
		e = c.Func
	}
	switch n := e.(type) {
	case *syntax.Name:
		return call, n.ID
	case *syntax.Attribute:
		return call, n.Attr
	default:
		return call, ""
	}
}
