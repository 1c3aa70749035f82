package pytype

import (
	"typewalk/internal/syntax"
)

// SolidBaseReason records why a class has a non-default memory layout.
type SolidBaseReason int

const (
	SolidBaseBuiltin SolidBaseReason = iota
	SolidBaseSlots
)

// SolidBase is a class whose instances carry a non-default memory layout;
// two unrelated solid bases can never appear in one subclass's MRO.
type SolidBase struct {
	Class  *ClassLiteral
	Reason SolidBaseReason
}

// ownSolidBase reports whether the class itself is solid: a hard-coded
// builtin with special layout, or a class declaring non-empty, non-dynamic
// __slots__.
func (m *Model) ownSolidBase(lit *ClassLiteral) (SolidBase, bool) {
	if lit.Known.IsSolidBase() {
		return SolidBase{Class: lit, Reason: SolidBaseBuiltin}, true
	}
	if declaresNonEmptySlots(lit) {
		return SolidBase{Class: lit, Reason: SolidBaseSlots}, true
	}
	return SolidBase{}, false
}

func declaresNonEmptySlots(lit *ClassLiteral) bool {
	if lit.Def == nil {
		return false
	}
	for _, stmt := range lit.Def.Body {
		assign, ok := stmt.(*syntax.Assign)
		if !ok {
			continue
		}
		for _, target := range assign.Targets {
			name, ok := target.(*syntax.Name)
			if !ok || name.ID != "__slots__" {
				continue
			}
			switch v := assign.Value.(type) {
			case *syntax.TupleExpr:
				return len(v.Elts) > 0
			case *syntax.ListExpr:
				return len(v.Elts) > 0
			case *syntax.StringLit:
				// a single slot named by a bare string
				return v.Value != ""
			default:
				// dynamic __slots__ value: not usable as layout evidence
				return false
			}
		}
	}
	return false
}

// NearestSolidBase walks the MRO and returns the first solid entry.
func (m *Model) NearestSolidBase(ct ClassType) (SolidBase, bool) {
	for _, b := range m.IterMro(ct) {
		bc, ok := b.AsClass()
		if !ok {
			continue
		}
		if sb, ok := m.ownSolidBase(bc.Literal()); ok {
			return sb, true
		}
	}
	return SolidBase{}, false
}

// IsFinalClass reports the class cannot be subclassed.
func (m *Model) IsFinalClass(lit *ClassLiteral) bool {
	if lit.Known.IsFinal() {
		return true
	}
	for _, dec := range lit.Decorators() {
		if _, name := decoratorParts(dec); name == "final" {
			return true
		}
	}
	return false
}

// IsProtocolClass consults hard-coded knowledge for well-known classes
// first, then inspects the last three explicit bases for the protocol
// marker: a valid protocol declaration places the marker at, or within two
// positions of, the end of the bases list.
func (m *Model) IsProtocolClass(lit *ClassLiteral) bool {
	if lit.Known != KnownNone {
		return lit.Known.IsProtocol()
	}
	bases := m.Bases(lit)
	start := len(bases) - 3
	if start < 0 {
		start = 0
	}
	for _, b := range bases[start:] {
		if b == ProtocolMarker {
			return true
		}
	}
	return false
}

// CouldCoexistInMroWith reports whether a and b could both appear in some
// class's MRO: either is a subclass of the other, or their nearest solid
// bases are compatible by the same rule and their metaclasses are not
// provably disjoint. Final classes admit only the subclass test.
func (m *Model) CouldCoexistInMroWith(a, b ClassType) bool {
	if a.IsZero() || b.IsZero() {
		return true
	}
	if m.IsSubclassOf(a, b) || m.IsSubclassOf(b, a) {
		return true
	}
	if m.IsFinalClass(a.Literal()) || m.IsFinalClass(b.Literal()) {
		// a final class cannot gain new subclasses, so only the subclass
		// relation above could have related them
		return false
	}

	sa, hasA := m.NearestSolidBase(a)
	sb, hasB := m.NearestSolidBase(b)
	if hasA && hasB && sa.Class != sb.Class {
		ca := NonGenericClass(sa.Class)
		cb := NonGenericClass(sb.Class)
		if !m.IsSubclassOf(ca, cb) && !m.IsSubclassOf(cb, ca) {
			return false
		}
	}

	return !m.metaclassesDisjoint(a, b)
}

// metaclassesDisjoint reports whether instances of the two classes'
// metaclasses are provably incompatible. The type metaclass is always
// compatible, avoiding infinite regress at the root.
func (m *Model) metaclassesDisjoint(a, b ClassType) bool {
	ma, okA := m.Metaclass(a.Literal()).(ClassType)
	mb, okB := m.Metaclass(b.Literal()).(ClassType)
	if !okA || !okB {
		return false
	}
	if ma.IsKnown(KnownType) || mb.IsKnown(KnownType) {
		return false
	}
	if ma.Literal() == mb.Literal() {
		return false
	}
	return !m.IsSubclassOf(ma, mb) && !m.IsSubclassOf(mb, ma)
}
