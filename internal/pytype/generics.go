package pytype

import (
	"strings"
)

type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// TypeVar is one formal type parameter of a generic class.
type TypeVar struct {
	Name     string
	Variance Variance
	Bound    Type // nil when unconstrained
	Default  Type // nil when absent
	Index    int  // position in the context
}

func (tv *TypeVar) String() string { return tv.Name }

// ContextSource records where a class's generic context came from. At most
// one source defines the context; explicit syntax wins over the legacy
// Generic[...] base, which wins over inference from specialized bases.
type ContextSource int

const (
	SourceNone ContextSource = iota
	SourceSyntactic
	SourceLegacyBase
	SourceInferred
)

// GenericContext is the ordered formal type-parameter list of one class.
// Parameter names are unique within a context.
type GenericContext struct {
	Vars   []*TypeVar
	Source ContextSource
}

func (gc *GenericContext) Len() int { return len(gc.Vars) }

func (gc *GenericContext) String() string {
	names := make([]string, len(gc.Vars))
	for i, v := range gc.Vars {
		names[i] = v.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// DefaultSpecialization maps each parameter to its default, or Unknown when
// it has none.
func (gc *GenericContext) DefaultSpecialization() *Specialization {
	args := make([]Type, len(gc.Vars))
	for i, v := range gc.Vars {
		if v.Default != nil {
			args[i] = v.Default
		} else {
			args[i] = Unknown
		}
	}
	return &Specialization{Context: gc, Args: args}
}

// UnknownSpecialization maps every parameter to Unknown.
func (gc *GenericContext) UnknownSpecialization() *Specialization {
	args := make([]Type, len(gc.Vars))
	for i := range gc.Vars {
		args[i] = Unknown
	}
	return &Specialization{Context: gc, Args: args}
}

// Specialize builds an explicit specialization. Missing trailing arguments
// fall back to defaults (or Unknown); excess arguments are dropped.
func (gc *GenericContext) Specialize(args []Type) *Specialization {
	out := make([]Type, len(gc.Vars))
	for i, v := range gc.Vars {
		switch {
		case i < len(args) && args[i] != nil:
			out[i] = args[i]
		case v.Default != nil:
			out[i] = v.Default
		default:
			out[i] = Unknown
		}
	}
	return &Specialization{Context: gc, Args: out}
}

// Specialization assigns one type argument to each formal parameter of a
// context. Its length always equals the context's parameter count.
type Specialization struct {
	Context *GenericContext
	Args    []Type
}

func (s *Specialization) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Get returns the argument bound to the given parameter, or nil if the
// parameter belongs to another context.
func (s *Specialization) Get(v *TypeVar) Type {
	for i, p := range s.Context.Vars {
		if p == v {
			return s.Args[i]
		}
	}
	return nil
}

// EquivalentTo requires pairwise equivalence of every argument.
func (s *Specialization) EquivalentTo(o *Specialization) bool {
	if s.Context != o.Context || len(s.Args) != len(o.Args) {
		return false
	}
	for i, a := range s.Args {
		if !a.Equals(o.Args[i]) {
			return false
		}
	}
	return true
}

// ApplyTypeMapping substitutes type arguments through a type: every
// TypeVarType bound by this specialization's context is replaced by its
// argument. Used when propagating a specialization through nested generic
// uses.
func (s *Specialization) ApplyTypeMapping(t Type) Type {
	return substitute(t, s)
}

func substitute(t Type, s *Specialization) Type {
	switch t := t.(type) {
	case nil:
		return nil
	case *TypeVarType:
		if arg := s.Get(t.Var); arg != nil {
			return arg
		}
		return t
	case *UnionType:
		members := make([]Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = substitute(m, s)
		}
		return NewUnion(members...)
	case *IntersectionType:
		members := make([]Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = substitute(m, s)
		}
		return NewIntersection(members...)
	case *InstanceType:
		if alias := t.Class.alias; alias != nil {
			args := make([]Type, len(alias.Spec.Args))
			changed := false
			for i, a := range alias.Spec.Args {
				args[i] = substitute(a, s)
				if args[i] != a {
					changed = true
				}
			}
			if changed {
				spec := &Specialization{Context: alias.Spec.Context, Args: args}
				return InstanceOf(alias.Origin.model.internAlias(alias.Origin, spec))
			}
		}
		return t
	case ClassType:
		if alias := t.alias; alias != nil {
			args := make([]Type, len(alias.Spec.Args))
			changed := false
			for i, a := range alias.Spec.Args {
				args[i] = substitute(a, s)
				if args[i] != a {
					changed = true
				}
			}
			if changed {
				spec := &Specialization{Context: alias.Spec.Context, Args: args}
				return alias.Origin.model.internAlias(alias.Origin, spec)
			}
		}
		return t
	case *CallableType:
		sigs := make([]*Signature, len(t.Signatures))
		for i, sig := range t.Signatures {
			sigs[i] = substituteSignature(sig, s)
		}
		return &CallableType{Signatures: sigs}
	default:
		return t
	}
}

func substituteSignature(sig *Signature, s *Specialization) *Signature {
	out := &Signature{
		Params: make([]Parameter, len(sig.Params)),
		Return: substitute(sig.Return, s),
	}
	for i, p := range sig.Params {
		q := p
		q.Type = substitute(p.Type, s)
		q.Default = substitute(p.Default, s)
		out.Params[i] = q
	}
	return out
}

// Materialize widens a specialization's arguments per parameter variance:
// covariant parameters widen literals to their instance types, invariant and
// contravariant parameters are kept exact.
func (m *Model) Materialize(s *Specialization) *Specialization {
	args := make([]Type, len(s.Args))
	for i, a := range s.Args {
		if s.Context.Vars[i].Variance == Covariant {
			args[i] = m.WidenLiteral(a)
		} else {
			args[i] = a
		}
	}
	return &Specialization{Context: s.Context, Args: args}
}
