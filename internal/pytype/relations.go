package pytype

// AssignableTo reports whether a value of type a is usable where b is
// expected. Dynamic types are compatible in both directions; two generic
// instances of the same origin reduce to the pairwise relation of their
// arguments under each parameter's variance; aliases of different origins
// relate only through the subclass relation of their classes.
func (m *Model) AssignableTo(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}
	if IsDynamic(a) || IsDynamic(b) {
		return true
	}
	if a.Equals(b) {
		return true
	}
	if _, ok := a.(*NeverType); ok {
		return true
	}

	switch bt := b.(type) {
	case *UnionType:
		for _, mem := range bt.Members {
			if m.AssignableTo(a, mem) {
				return true
			}
		}
		return false
	case *IntersectionType:
		for _, mem := range bt.Members {
			if !m.AssignableTo(a, mem) {
				return false
			}
		}
		return true
	}

	switch at := a.(type) {
	case *UnionType:
		for _, mem := range at.Members {
			if !m.AssignableTo(mem, b) {
				return false
			}
		}
		return true
	case *IntersectionType:
		for _, mem := range at.Members {
			if m.AssignableTo(mem, b) {
				return true
			}
		}
		return false
	case *LiteralType:
		return m.AssignableTo(m.WidenLiteral(at), b)
	case *TypeVarType:
		if at.Var.Bound != nil {
			return m.AssignableTo(at.Var.Bound, b)
		}
		return false
	case *InstanceType:
		bi, ok := b.(*InstanceType)
		if !ok {
			return false
		}
		return m.classRelated(at.Class, bi.Class)
	case ClassType:
		bc, ok := b.(ClassType)
		if !ok {
			return false
		}
		return m.classRelated(at, bc)
	case *CallableType:
		bc, ok := b.(*CallableType)
		if !ok {
			return false
		}
		return m.callableAssignable(at, bc)
	default:
		return false
	}
}

// classRelated relates two class values: same-origin generics compare their
// arguments under variance, otherwise the subclass relation decides.
func (m *Model) classRelated(a, b ClassType) bool {
	if a.Literal() == b.Literal() && a.Alias() != nil && b.Alias() != nil {
		return m.specializationRelated(a.Specialization(), b.Specialization())
	}
	if b.Alias() == nil {
		return m.IsSubclassOf(a, b)
	}
	// b is specialized: find the matching specialized entry in a's MRO
	for _, e := range m.IterMro(a) {
		ec, ok := e.AsClass()
		if !ok || ec.Literal() != b.Literal() {
			continue
		}
		if ec.Alias() == nil {
			return false
		}
		return m.specializationRelated(ec.Specialization(), b.Specialization())
	}
	return false
}

func (m *Model) specializationRelated(a, b *Specialization) bool {
	if a.Context != b.Context || len(a.Args) != len(b.Args) {
		return false
	}
	for i, v := range a.Context.Vars {
		x, y := a.Args[i], b.Args[i]
		switch v.Variance {
		case Covariant:
			if !m.AssignableTo(x, y) {
				return false
			}
		case Contravariant:
			if !m.AssignableTo(y, x) {
				return false
			}
		default:
			if !(x.Equals(y) || IsDynamic(x) || IsDynamic(y)) {
				return false
			}
		}
	}
	return true
}

// callableAssignable checks parameters contravariantly and the return type
// covariantly, positionally and without overload matching.
func (m *Model) callableAssignable(a, b *CallableType) bool {
	for _, bs := range b.Signatures {
		matched := false
		for _, as := range a.Signatures {
			if m.signatureAssignable(as, bs) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (m *Model) signatureAssignable(a, b *Signature) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Type == nil || b.Params[i].Type == nil {
			continue
		}
		if !m.AssignableTo(b.Params[i].Type, a.Params[i].Type) {
			return false
		}
	}
	if a.Return == nil || b.Return == nil {
		return true
	}
	return m.AssignableTo(a.Return, b.Return)
}
