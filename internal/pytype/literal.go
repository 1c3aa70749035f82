package pytype

import (
	"fmt"

	"typewalk/internal/semantic"
	"typewalk/internal/syntax"
)

// ClassLiteral is the class exactly as declared: identity is (name,
// declaring scope). Explicit bases are resolved lazily; a literal is never
// mutated after creation — new revisions produce new literals.
type ClassLiteral struct {
	Name  string
	Def   *syntax.ClassDef // nil for synthetic builtin classes
	Scope *semantic.Scope  // declaring scope
	Body  *semantic.Scope  // class body scope, nil for synthetic classes
	Known KnownClass       // KnownNone when not a recognized stdlib class

	model *Model
	index *semantic.Index // nil for synthetic classes

	// Synthetic classes (the bootstrap builtins) carry their members and
	// bases directly instead of a parsed body.
	synthMembers map[string]Type
	synthBases   []Type
}

func (cl *ClassLiteral) String() string {
	return fmt.Sprintf("<class %s>", cl.Name)
}

// Decorators returns the declared decorator expressions.
func (cl *ClassLiteral) Decorators() []syntax.Expr {
	if cl.Def == nil {
		return nil
	}
	return cl.Def.Decorators
}

// HeaderSpan is the diagnostic anchor: the class name through its argument
// list.
func (cl *ClassLiteral) HeaderSpan() syntax.Span {
	if cl.Def == nil {
		return syntax.Span{}
	}
	return cl.Def.HeaderSpan
}

// AsClass returns the literal as a usable class value, specialized with
// defaults when generic.
func (cl *ClassLiteral) AsClass() ClassType {
	return cl.model.ApplySpecialization(cl, func(gc *GenericContext) *Specialization {
		return gc.DefaultSpecialization()
	})
}

// AsUnknownClass is like AsClass but maps every parameter to Unknown.
func (cl *ClassLiteral) AsUnknownClass() ClassType {
	return cl.model.ApplySpecialization(cl, func(gc *GenericContext) *Specialization {
		return gc.UnknownSpecialization()
	})
}

// InheritanceCycle distinguishes a class that directly participates in a
// cycle from one that merely inherits from a participant.
type InheritanceCycle int

const (
	NoCycle InheritanceCycle = iota
	CycleParticipant
	CycleInherited
)

// DataclassParams are the code-generation switches of a dataclass-style
// class, whether they come from a decorator or a metaclass transformer.
type DataclassParams struct {
	Init   bool
	Eq     bool
	Order  bool
	Frozen bool
	KwOnly bool
}

// DefaultDataclassParams mirrors the decorator's defaults.
func DefaultDataclassParams() DataclassParams {
	return DataclassParams{Init: true, Eq: true}
}

// CodegenKind classifies how a class gets synthesized members.
type CodegenKind int

const (
	CodegenNone CodegenKind = iota
	CodegenDataclass
	CodegenNamedTuple
)

// GenericAlias pairs a generic class literal with a specialization. Aliases
// are interned: repeated construction with equal inputs yields the same
// identity.
type GenericAlias struct {
	Origin *ClassLiteral
	Spec   *Specialization
}

func (ga *GenericAlias) String() string {
	return ga.Origin.Name + ga.Spec.String()
}

// ClassType is a usable class value: a plain class literal, or a literal
// paired with a specialization. Equality is by identity of the underlying
// literal (and alias), not by structural value.
type ClassType struct {
	literal *ClassLiteral
	alias   *GenericAlias
}

// NonGenericClass wraps a literal with no specialization.
func NonGenericClass(lit *ClassLiteral) ClassType {
	return ClassType{literal: lit}
}

// GenericClass wraps an interned alias.
func GenericClass(alias *GenericAlias) ClassType {
	return ClassType{literal: alias.Origin, alias: alias}
}

// IsZero reports whether this is the zero ClassType.
func (c ClassType) IsZero() bool { return c.literal == nil }

// Literal returns the underlying (origin) class literal.
func (c ClassType) Literal() *ClassLiteral { return c.literal }

// Alias returns the generic alias, or nil for a non-generic class.
func (c ClassType) Alias() *GenericAlias { return c.alias }

// IsGeneric reports whether the class carries a specialization.
func (c ClassType) IsGeneric() bool { return c.alias != nil }

// Specialization returns the alias's specialization, or nil.
func (c ClassType) Specialization() *Specialization {
	if c.alias == nil {
		return nil
	}
	return c.alias.Spec
}

func (c ClassType) Name() string {
	if c.literal == nil {
		return "<nil class>"
	}
	if c.alias != nil {
		return c.alias.String()
	}
	return c.literal.Name
}

func (c ClassType) String() string { return "type[" + c.Name() + "]" }
func (c ClassType) typeNode()      {}

// Equals is identity equality: two separately-constructed but value-equal
// aliases are distinct until interned to the same identity.
func (c ClassType) Equals(other Type) bool {
	o, ok := other.(ClassType)
	return ok && c == o
}

// EquivalentTo is the structural counterpart to Equals: same literal and
// pairwise-equivalent specializations.
func (c ClassType) EquivalentTo(o ClassType) bool {
	if c.literal != o.literal {
		return false
	}
	if (c.alias == nil) != (o.alias == nil) {
		return false
	}
	if c.alias == nil {
		return true
	}
	return c.alias.Spec.EquivalentTo(o.alias.Spec)
}

// IsKnown reports whether the class is the given hard-coded stdlib class.
func (c ClassType) IsKnown(k KnownClass) bool {
	return c.literal != nil && c.literal.Known == k
}
