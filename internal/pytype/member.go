package pytype

import (
	"typewalk/internal/syntax"
)

// Boundness classifies whether a resolved member is present on a code path.
type Boundness int

const (
	DefinitelyBound Boundness = iota
	PossiblyUnbound
	Unbound
)

func (b Boundness) String() string {
	switch b {
	case DefinitelyBound:
		return "bound"
	case PossiblyUnbound:
		return "possibly-unbound"
	default:
		return "unbound"
	}
}

// Qualifiers is the set of declaration qualifiers attached to a member.
type Qualifiers uint8

const (
	QualClassVar Qualifiers = 1 << iota
	QualFinal
)

func (q Qualifiers) Has(flag Qualifiers) bool { return q&flag != 0 }

// Place is the result of every member lookup: the resolved type (nil when
// unbound), its boundness, and the declaration qualifiers. An unbound place
// never carries qualifiers.
type Place struct {
	Type       Type
	Boundness  Boundness
	Qualifiers Qualifiers
}

// UnboundPlace is the lookup miss.
func UnboundPlace() Place {
	return Place{Boundness: Unbound}
}

// IsUnbound reports a definite miss.
func (p Place) IsUnbound() bool { return p.Boundness == Unbound }

// MemberPolicy controls which universal MRO entries a class-member walk
// skips, so lookups can avoid the object/type fallbacks that would otherwise
// match everything.
type MemberPolicy uint8

const (
	PolicyDefault MemberPolicy = 0
	// SkipObjectBase leaves out the root class's members.
	SkipObjectBase MemberPolicy = 1 << iota
	// SkipTypeBase leaves out the metaclass root's members.
	SkipTypeBase
)

// ClassMember resolves an attribute on the class object itself by walking
// the MRO. Markers never define members; dynamic bases contribute an
// intersection with whatever a later concrete base defines, or stand alone
// when nothing does. Possibly-unbound definitions union with later ones
// until a definitely-bound definition ends the walk.
func (m *Model) ClassMember(ct ClassType, name string, policy MemberPolicy) Place {
	var dynamics []Type
	var partial []Type
	sawPartial := false

	for _, b := range m.IterMro(ct) {
		if b.IsMarker() {
			continue
		}
		if d, ok := b.AsDynamic(); ok {
			dynamics = append(dynamics, d)
			continue
		}
		bc, _ := b.AsClass()
		if policy.Has(SkipObjectBase) && bc.IsKnown(KnownObject) {
			continue
		}
		if policy.Has(SkipTypeBase) && bc.IsKnown(KnownType) {
			continue
		}
		own := m.OwnClassMember(bc, name)
		switch own.Boundness {
		case DefinitelyBound:
			t := own.Type
			if sawPartial {
				t = NewUnion(append(partial, t)...)
			}
			if len(dynamics) > 0 {
				t = NewIntersection(append(dynamics, t)...)
			}
			return Place{Type: t, Boundness: DefinitelyBound, Qualifiers: own.Qualifiers}
		case PossiblyUnbound:
			sawPartial = true
			partial = append(partial, own.Type)
		}
	}

	if len(dynamics) > 0 {
		t := NewIntersection(dynamics...)
		if sawPartial {
			t = NewUnion(append(partial, t)...)
		}
		return Place{Type: t, Boundness: DefinitelyBound}
	}
	if sawPartial {
		return Place{Type: NewUnion(partial...), Boundness: PossiblyUnbound}
	}
	return UnboundPlace()
}

func (p MemberPolicy) Has(flag MemberPolicy) bool { return p&flag != 0 }

// OwnClassMember resolves an attribute against a single class's own body:
// declared symbols first, then synthesized members, then implicit
// class-level attributes assigned through cls inside classmethods. The two
// constructor methods additionally see the enclosing class's type
// parameters, so a specialized lookup substitutes its arguments through
// their signatures.
func (m *Model) OwnClassMember(ct ClassType, name string) Place {
	lit := ct.Literal()
	if lit == nil {
		return UnboundPlace()
	}

	place := m.ownDeclaredMember(lit, name)
	if place.IsUnbound() {
		if t := m.synthesizedMember(lit, name); t != nil {
			place = Place{Type: t, Boundness: DefinitelyBound}
		}
	}
	if place.IsUnbound() {
		if t := m.implicitAttribute(lit, name, implicitClassLevel); t != nil {
			place = Place{Type: t, Boundness: PossiblyUnbound}
		}
	}
	if place.IsUnbound() {
		return place
	}
	if spec := ct.Specialization(); spec != nil && place.Type != nil {
		place.Type = spec.ApplyTypeMapping(place.Type)
	}
	return place
}

// ownDeclaredMember reads one class body's symbol table.
func (m *Model) ownDeclaredMember(lit *ClassLiteral, name string) Place {
	if lit.Body == nil {
		if t, ok := lit.synthMembers[name]; ok {
			return Place{Type: t, Boundness: DefinitelyBound}
		}
		return UnboundPlace()
	}
	sym := lit.Body.Symbol(name)
	if sym == nil {
		return UnboundPlace()
	}

	var quals Qualifiers
	var t Type
	if ann := sym.Annotation(); ann != nil {
		inner, q := unwrapQualifiers(ann)
		quals = q
		t = m.inferAnnotation(lit.Body, inner)
	} else {
		t = m.resolveSymbol(lit.Body, sym, 0)
	}

	switch {
	case sym.DefinitelyBound():
		return Place{Type: t, Boundness: DefinitelyBound, Qualifiers: quals}
	case sym.PossiblyUnbound():
		return Place{Type: t, Boundness: PossiblyUnbound, Qualifiers: quals}
	case sym.Annotation() != nil:
		// bare declaration without a value still types the member
		return Place{Type: t, Boundness: PossiblyUnbound, Qualifiers: quals}
	default:
		return UnboundPlace()
	}
}

// unwrapQualifiers peels ClassVar[...] and Final[...] wrappers off an
// annotation, collecting the corresponding qualifier bits.
func unwrapQualifiers(ann syntax.Expr) (syntax.Expr, Qualifiers) {
	var quals Qualifiers
	for {
		switch ex := ann.(type) {
		case *syntax.Subscript:
			name := qualifierName(ex.Value)
			switch name {
			case "ClassVar":
				quals |= QualClassVar
			case "Final":
				quals |= QualFinal
			default:
				return ann, quals
			}
			if len(ex.Indexes) == 1 {
				ann = ex.Indexes[0]
				continue
			}
			return nil, quals
		case *syntax.Name:
			switch ex.ID {
			case "ClassVar":
				quals |= QualClassVar
			case "Final":
				quals |= QualFinal
			default:
				return ann, quals
			}
			// bare ClassVar/Final without an inner type
			return nil, quals
		default:
			return ann, quals
		}
	}
}

func qualifierName(e syntax.Expr) string {
	switch ex := e.(type) {
	case *syntax.Name:
		return ex.ID
	case *syntax.Attribute:
		return ex.Attr
	default:
		return ""
	}
}

// InstanceMember resolves an attribute on instances of the class, unioning
// every base's own instance member across the full MRO. A definitely-bound
// member ends the walk; a dynamic base anywhere makes the member
// unanalyzable immediately.
func (m *Model) InstanceMember(ct ClassType, name string) Place {
	var partial []Type
	sawPartial := false

	for _, b := range m.IterMro(ct) {
		if b.IsMarker() {
			continue
		}
		if d, ok := b.AsDynamic(); ok {
			// a dynamic base may define anything
			return Place{Type: d, Boundness: DefinitelyBound}
		}
		bc, _ := b.AsClass()
		own := m.OwnInstanceMember(bc, name)
		switch own.Boundness {
		case DefinitelyBound:
			t := own.Type
			if sawPartial {
				t = NewUnion(append(partial, t)...)
			}
			return Place{Type: t, Boundness: DefinitelyBound, Qualifiers: own.Qualifiers}
		case PossiblyUnbound:
			sawPartial = true
			partial = append(partial, own.Type)
		}
	}

	if sawPartial {
		return Place{Type: NewUnion(partial...), Boundness: PossiblyUnbound}
	}
	return UnboundPlace()
}

// OwnInstanceMember resolves an attribute against one class's own
// instance-level surface: body declarations that are not class variables,
// synthesized fields, and attributes assigned through self inside methods.
func (m *Model) OwnInstanceMember(ct ClassType, name string) Place {
	lit := ct.Literal()
	if lit == nil {
		return UnboundPlace()
	}

	place := m.ownDeclaredMember(lit, name)
	if place.Qualifiers.Has(QualClassVar) {
		place = UnboundPlace()
	}
	if !place.IsUnbound() {
		// a method bound on the class is visible on the instance
		if spec := ct.Specialization(); spec != nil && place.Type != nil {
			place.Type = spec.ApplyTypeMapping(place.Type)
		}
		return place
	}

	if t := m.synthesizedMember(lit, name); t != nil {
		if spec := ct.Specialization(); spec != nil {
			t = spec.ApplyTypeMapping(t)
		}
		return Place{Type: t, Boundness: DefinitelyBound}
	}

	if t := m.implicitAttribute(lit, name, implicitInstanceLevel); t != nil {
		if spec := ct.Specialization(); spec != nil {
			t = spec.ApplyTypeMapping(t)
		}
		bound := PossiblyUnbound
		if m.implicitDefinitelyBound(lit, name) {
			bound = DefinitelyBound
		}
		return Place{Type: t, Boundness: bound}
	}
	return UnboundPlace()
}
