// Package pytype is the class model and attribute-resolution engine: MRO
// linearization, metaclass computation, generic specialization, and
// class/instance member lookup for Python-like class semantics, evaluated
// statically and re-evaluated incrementally as sources change.
package pytype

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the interface implemented by all type representations.
type Type interface {
	// String returns a representation suitable for diagnostics and debugging.
	String() string
	// Equals checks structural equivalence with another type.
	Equals(other Type) bool

	// typeNode is a marker so the set of types stays closed to this package.
	typeNode()
}

// --- Dynamic types ---

type DynamicKind int

const (
	// DynamicUnknown marks a type the analyzer could not determine.
	DynamicUnknown DynamicKind = iota
	// DynamicAny is the explicit gradual type.
	DynamicAny
)

// DynamicType is the open/unanalyzable placeholder: it is compatible with
// everything and may define any member.
type DynamicType struct {
	Kind DynamicKind
}

func (d *DynamicType) String() string {
	if d.Kind == DynamicAny {
		return "Any"
	}
	return "Unknown"
}
func (d *DynamicType) typeNode() {}
func (d *DynamicType) Equals(other Type) bool {
	o, ok := other.(*DynamicType)
	return ok && d.Kind == o.Kind
}

// Singletons for the common dynamic types.
var (
	Unknown = &DynamicType{Kind: DynamicUnknown}
	Any     = &DynamicType{Kind: DynamicAny}
)

// IsDynamic reports whether t is a dynamic placeholder.
func IsDynamic(t Type) bool {
	_, ok := t.(*DynamicType)
	return ok
}

// --- Never ---

type NeverType struct{}

func (n *NeverType) String() string { return "Never" }
func (n *NeverType) typeNode()      {}
func (n *NeverType) Equals(other Type) bool {
	_, ok := other.(*NeverType)
	return ok
}

var Never = &NeverType{}

// --- Literal types ---

type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralBool
	LiteralNone
	LiteralEllipsis
)

// LiteralType is a specific literal value used as a type; it appears mostly
// as a synthesized field default.
type LiteralType struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

func (lt *LiteralType) String() string {
	switch lt.Kind {
	case LiteralInt:
		return fmt.Sprintf("Literal[%d]", lt.Int)
	case LiteralFloat:
		return fmt.Sprintf("Literal[%g]", lt.Float)
	case LiteralString:
		return fmt.Sprintf("Literal[%q]", lt.Str)
	case LiteralBool:
		if lt.Bool {
			return "Literal[True]"
		}
		return "Literal[False]"
	case LiteralNone:
		return "None"
	default:
		return "EllipsisType"
	}
}
func (lt *LiteralType) typeNode() {}
func (lt *LiteralType) Equals(other Type) bool {
	o, ok := other.(*LiteralType)
	if !ok || lt.Kind != o.Kind {
		return false
	}
	switch lt.Kind {
	case LiteralInt:
		return lt.Int == o.Int
	case LiteralFloat:
		return lt.Float == o.Float
	case LiteralString:
		return lt.Str == o.Str
	case LiteralBool:
		return lt.Bool == o.Bool
	default:
		return true
	}
}

func IntLiteral(v int64) *LiteralType     { return &LiteralType{Kind: LiteralInt, Int: v} }
func StringLiteral(v string) *LiteralType { return &LiteralType{Kind: LiteralString, Str: v} }
func BoolLiteral(v bool) *LiteralType     { return &LiteralType{Kind: LiteralBool, Bool: v} }

// NoneValue is the None singleton value type.
var NoneValue = &LiteralType{Kind: LiteralNone}

// EllipsisValue is the Ellipsis singleton value type.
var EllipsisValue = &LiteralType{Kind: LiteralEllipsis}

// --- Instances ---

// InstanceType is an instance of a (possibly specialized) class.
type InstanceType struct {
	Class ClassType
}

func (it *InstanceType) String() string { return it.Class.Name() }
func (it *InstanceType) typeNode()      {}
func (it *InstanceType) Equals(other Type) bool {
	o, ok := other.(*InstanceType)
	return ok && it.Class.EquivalentTo(o.Class)
}

// InstanceOf builds the instance type of a class.
func InstanceOf(c ClassType) *InstanceType {
	return &InstanceType{Class: c}
}

// --- Type variables ---

// TypeVarType is a reference to a formal type parameter inside a generic
// class body.
type TypeVarType struct {
	Var *TypeVar
}

func (t *TypeVarType) String() string { return t.Var.Name }
func (t *TypeVarType) typeNode()      {}
func (t *TypeVarType) Equals(other Type) bool {
	o, ok := other.(*TypeVarType)
	// two references are equal only when they name the same parameter
	return ok && t.Var == o.Var
}

// --- Unions ---

// UnionType represents a union of multiple types (A | B).
type UnionType struct {
	Members []Type
}

func (ut *UnionType) String() string {
	parts := make([]string, len(ut.Members))
	for i, m := range ut.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
func (ut *UnionType) typeNode() {}
func (ut *UnionType) Equals(other Type) bool {
	o, ok := other.(*UnionType)
	if !ok || len(ut.Members) != len(o.Members) {
		return false
	}
	// set equality regardless of order
	matched := make([]bool, len(o.Members))
	for _, t1 := range ut.Members {
		found := false
		for j, t2 := range o.Members {
			if !matched[j] && t1.Equals(t2) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// NewUnion builds a union, flattening nested unions and dropping duplicates.
// Never is absorbed; a single remaining member is returned directly.
func NewUnion(ts ...Type) Type {
	var members []Type
	var collect func(t Type)
	collect = func(t Type) {
		switch t := t.(type) {
		case nil:
			return
		case *NeverType:
			return
		case *UnionType:
			for _, m := range t.Members {
				collect(m)
			}
		default:
			members = append(members, t)
		}
	}
	for _, t := range ts {
		collect(t)
	}

	unique := make([]Type, 0, len(members))
	for _, m := range members {
		dup := false
		for _, u := range unique {
			if m.Equals(u) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, m)
		}
	}

	switch len(unique) {
	case 0:
		return Never
	case 1:
		return unique[0]
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})
	return &UnionType{Members: unique}
}

// --- Intersections ---

// IntersectionType represents a type satisfying all members at once; it shows
// up when a dynamic base shadows a concrete member definition.
type IntersectionType struct {
	Members []Type
}

func (it *IntersectionType) String() string {
	parts := make([]string, len(it.Members))
	for i, m := range it.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " & ")
}
func (it *IntersectionType) typeNode() {}
func (it *IntersectionType) Equals(other Type) bool {
	o, ok := other.(*IntersectionType)
	if !ok || len(it.Members) != len(o.Members) {
		return false
	}
	matched := make([]bool, len(o.Members))
	for _, t1 := range it.Members {
		found := false
		for j, t2 := range o.Members {
			if !matched[j] && t1.Equals(t2) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// NewIntersection flattens and deduplicates; Any absorbs, Never propagates.
func NewIntersection(ts ...Type) Type {
	var members []Type
	var collect func(t Type)
	collect = func(t Type) {
		switch t := t.(type) {
		case nil:
			return
		case *IntersectionType:
			for _, m := range t.Members {
				collect(m)
			}
		default:
			members = append(members, t)
		}
	}
	for _, t := range ts {
		collect(t)
	}

	unique := make([]Type, 0, len(members))
	for _, m := range members {
		if m == Any {
			return Any
		}
		if _, never := m.(*NeverType); never {
			return Never
		}
		dup := false
		for _, u := range unique {
			if m.Equals(u) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, m)
		}
	}

	switch len(unique) {
	case 0:
		return Any
	case 1:
		return unique[0]
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})
	return &IntersectionType{Members: unique}
}

// --- Callables ---

// Parameter is one parameter of a callable signature.
type Parameter struct {
	Name            string
	Type            Type
	Default         Type // nil when the parameter is required
	KeywordOnly     bool
	Variadic        bool // *args
	KeywordVariadic bool // **kwargs
}

// Signature is a single callable signature.
type Signature struct {
	Params []Parameter
	Return Type
}

func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Variadic {
			b.WriteString("*")
		}
		if p.KeywordVariadic {
			b.WriteString("**")
		}
		b.WriteString(p.Name)
		if p.Type != nil {
			b.WriteString(": ")
			b.WriteString(p.Type.String())
		}
		if p.Default != nil {
			b.WriteString(" = ")
			b.WriteString(p.Default.String())
		}
	}
	b.WriteString(") -> ")
	if s.Return != nil {
		b.WriteString(s.Return.String())
	} else {
		b.WriteString("None")
	}
	return b.String()
}

func (s *Signature) equals(o *Signature) bool {
	if len(s.Params) != len(o.Params) {
		return false
	}
	for i, p := range s.Params {
		q := o.Params[i]
		if p.Name != q.Name || p.KeywordOnly != q.KeywordOnly ||
			p.Variadic != q.Variadic || p.KeywordVariadic != q.KeywordVariadic {
			return false
		}
		if !typesEqual(p.Type, q.Type) || !typesEqual(p.Default, q.Default) {
			return false
		}
	}
	return typesEqual(s.Return, o.Return)
}

// CallableType is a callable value, possibly overloaded.
type CallableType struct {
	Signatures []*Signature
}

func (ct *CallableType) String() string {
	if len(ct.Signatures) == 1 {
		return ct.Signatures[0].String()
	}
	parts := make([]string, len(ct.Signatures))
	for i, sig := range ct.Signatures {
		parts[i] = sig.String()
	}
	return "Overload[" + strings.Join(parts, ", ") + "]"
}
func (ct *CallableType) typeNode() {}
func (ct *CallableType) Equals(other Type) bool {
	o, ok := other.(*CallableType)
	if !ok || len(ct.Signatures) != len(o.Signatures) {
		return false
	}
	for i, sig := range ct.Signatures {
		if !sig.equals(o.Signatures[i]) {
			return false
		}
	}
	return true
}

// NewCallable wraps one signature.
func NewCallable(sig *Signature) *CallableType {
	return &CallableType{Signatures: []*Signature{sig}}
}

func typesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equals(b)
}

// WidenLiteral converts a literal type to the instance type of its class.
// Other types are returned unchanged.
func (m *Model) WidenLiteral(t Type) Type {
	lt, ok := t.(*LiteralType)
	if !ok {
		return t
	}
	switch lt.Kind {
	case LiteralInt:
		return InstanceOf(m.KnownClass(KnownInt))
	case LiteralFloat:
		return InstanceOf(m.KnownClass(KnownFloat))
	case LiteralString:
		return InstanceOf(m.KnownClass(KnownStr))
	case LiteralBool:
		return InstanceOf(m.KnownClass(KnownBool))
	case LiteralNone:
		return InstanceOf(m.KnownClass(KnownNoneType))
	case LiteralEllipsis:
		return InstanceOf(m.KnownClass(KnownEllipsisType))
	}
	return t
}
