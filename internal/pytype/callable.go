package pytype

// IntoCallable produces the signature of instantiating the class: the
// metaclass __call__ when a custom metaclass defines one, otherwise the
// union of the __new__ and __init__ signatures (declared or synthesized),
// each bound to the class so the receiver parameter disappears and the
// return type is an instance of the class.
func (m *Model) IntoCallable(ct ClassType) *CallableType {
	lit := ct.Literal()
	if lit == nil {
		return NewCallable(fallbackConstructor(Unknown))
	}
	instance := InstanceOf(ct)

	if meta, ok := m.Metaclass(lit).(ClassType); ok && !meta.IsKnown(KnownType) {
		place := m.ClassMember(meta, "__call__", SkipObjectBase|SkipTypeBase)
		if call, ok := place.Type.(*CallableType); ok && !place.IsUnbound() {
			return &CallableType{Signatures: bindSignatures(call.Signatures, nil)}
		}
	}

	var sigs []*Signature
	if place := m.ClassMember(ct, "__new__", SkipObjectBase); !place.IsUnbound() {
		if call, ok := place.Type.(*CallableType); ok {
			sigs = append(sigs, bindSignatures(call.Signatures, instance)...)
		}
	}
	if place := m.ClassMember(ct, "__init__", SkipObjectBase); !place.IsUnbound() {
		if call, ok := place.Type.(*CallableType); ok {
			sigs = append(sigs, bindSignatures(call.Signatures, instance)...)
		}
	}
	if len(sigs) == 0 {
		sigs = []*Signature{fallbackConstructor(instance)}
	}
	return &CallableType{Signatures: sigs}
}

// bindSignatures drops the receiver parameter of each signature; ret, when
// non-nil, overrides missing or None returns with the constructed instance.
func bindSignatures(sigs []*Signature, ret Type) []*Signature {
	out := make([]*Signature, 0, len(sigs))
	for _, sig := range sigs {
		bound := &Signature{Return: sig.Return}
		if len(sig.Params) > 0 {
			bound.Params = append([]Parameter(nil), sig.Params[1:]...)
		}
		if ret != nil {
			if bound.Return == nil || bound.Return.Equals(NoneValue) {
				bound.Return = ret
			}
		}
		out = append(out, bound)
	}
	return out
}

func fallbackConstructor(ret Type) *Signature {
	return &Signature{
		Params: []Parameter{
			{Name: "args", Type: Unknown, Variadic: true},
			{Name: "kwargs", Type: Unknown, KeywordVariadic: true},
		},
		Return: ret,
	}
}
