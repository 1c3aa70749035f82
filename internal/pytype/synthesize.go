package pytype

import (
	"typewalk/internal/syntax"
)

// Field is one synthesized-constructor field of a code-generator class.
type Field struct {
	Name        string
	Type        Type
	Default     Type // nil when the field is mandatory
	KeywordOnly bool
}

// codegenOf classifies a class as a code-generator class: dataclass-style
// decoration, a metaclass-provided dataclass transformer, or a tuple-record
// base.
func (m *Model) codegenOf(lit *ClassLiteral) (CodegenKind, DataclassParams) {
	if lit.Def == nil {
		return CodegenNone, DataclassParams{}
	}

	for _, dec := range lit.Decorators() {
		call, name := decoratorParts(dec)
		if name != "dataclass" {
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
				case "init":
					params.Init = truthy
				case "eq":
					params.Eq = truthy
				case "order":
					params.Order = truthy
				case "frozen":
					params.Frozen = truthy
				case "kw_only":
					params.KwOnly = truthy
				}
			}
		}
		return CodegenDataclass, params
	}

	for _, b := range m.Bases(lit) {
		if bc, ok := b.AsClass(); ok && bc.IsKnown(KnownNamedTuple) {
			return CodegenNamedTuple, DataclassParams{Init: true, Eq: true}
		}
	}

	if _, params, _ := m.TryMetaclass(lit); params != nil {
		p := *params
		p.Init = true
		return CodegenDataclass, p
	}
	return CodegenNone, DataclassParams{}
}

// Fields returns the ordered, name-deduplicated constructor fields of a
// code-generator class, nil for ordinary classes. Dataclass fields are
// collected most-base-first so a subclass redeclaration overrides the base
// field in place; tuple records use only their own declarations.
func (m *Model) Fields(ct ClassType) []Field {
	lit := ct.Literal()
	if lit == nil {
		return nil
	}
	kind, params := m.codegenOf(lit)
	switch kind {
	case CodegenNamedTuple:
		return m.ownFields(lit, params)
	case CodegenDataclass:
		var out []Field
		index := make(map[string]int)
		mro := m.IterMro(NonGenericClass(lit))
		for i := len(mro) - 1; i >= 0; i-- {
			bc, ok := mro[i].AsClass()
			if !ok {
				continue
			}
			bl := bc.Literal()
			if bl != lit {
				if k, _ := m.codegenOf(bl); k != CodegenDataclass {
					continue
				}
			}
			for _, f := range m.ownFields(bl, params) {
				if at, ok := index[f.Name]; ok {
					out[at] = f
					continue
				}
				index[f.Name] = len(out)
				out = append(out, f)
			}
		}
		if spec := ct.Specialization(); spec != nil {
			for i := range out {
				out[i].Type = spec.ApplyTypeMapping(out[i].Type)
				out[i].Default = spec.ApplyTypeMapping(out[i].Default)
			}
		}
		return out
	default:
		return nil
	}
}

// ownFields collects one class body's annotated field declarations in
// source order. A KW_ONLY marker field toggles every following field to
// keyword-only without itself becoming a field. A field whose type is a
// data descriptor takes the descriptor's __set__ value type, and its
// default comes from simulating __get__ on a null instance.
func (m *Model) ownFields(lit *ClassLiteral, params DataclassParams) []Field {
	if lit.Def == nil {
		return nil
	}
	var out []Field
	kwOnly := params.KwOnly
	for _, stmt := range lit.Def.Body {
		ann, ok := stmt.(*syntax.AnnAssign)
		if !ok {
			continue
		}
		target, ok := ann.Target.(*syntax.Name)
		if !ok {
			continue
		}
		if isKwOnlyMarker(ann.Annotation) {
			kwOnly = true
			continue
		}
		inner, quals := unwrapQualifiers(ann.Annotation)
		if quals.Has(QualClassVar) {
			continue
		}
		f := Field{Name: target.ID, KeywordOnly: kwOnly}
		f.Type = m.inferAnnotation(lit.Body, inner)
		if ann.Value != nil {
			f.Default = m.inferValue(lit.Body, ann.Value, 0)
		}

		if setType, isDescriptor := m.descriptorSetType(f.Type); isDescriptor {
			if ann.Value != nil {
				f.Default = m.descriptorGetResult(f.Type)
			}
			f.Type = setType
		}
		out = append(out, f)
	}
	return out
}

func isKwOnlyMarker(ann syntax.Expr) bool {
	switch ex := ann.(type) {
	case *syntax.Name:
		return ex.ID == "KW_ONLY"
	case *syntax.Attribute:
		return ex.Attr == "KW_ONLY"
	default:
		return false
	}
}

// descriptorSetType reports whether the annotated type is a data descriptor
// and, if so, returns the union of the __set__ value-parameter types across
// all overloads, Unknown for gradual overloads.
func (m *Model) descriptorSetType(t Type) (Type, bool) {
	inst, ok := t.(*InstanceType)
	if !ok {
		return nil, false
	}
	place := m.ClassMember(inst.Class, "__set__", SkipObjectBase|SkipTypeBase)
	if place.IsUnbound() {
		return nil, false
	}
	call, ok := place.Type.(*CallableType)
	if !ok {
		return Unknown, true
	}
	var values []Type
	for _, sig := range call.Signatures {
		// (self, instance, value)
		if len(sig.Params) >= 3 && sig.Params[2].Type != nil {
			values = append(values, sig.Params[2].Type)
		} else {
			values = append(values, Unknown)
		}
	}
	return NewUnion(values...), true
}

// descriptorGetResult simulates descriptor.__get__(None, owner).
func (m *Model) descriptorGetResult(t Type) Type {
	inst, ok := t.(*InstanceType)
	if !ok {
		return Unknown
	}
	place := m.ClassMember(inst.Class, "__get__", SkipObjectBase|SkipTypeBase)
	call, ok := place.Type.(*CallableType)
	if !ok {
		return Unknown
	}
	var rets []Type
	for _, sig := range call.Signatures {
		if sig.Return != nil {
			rets = append(rets, sig.Return)
		} else {
			rets = append(rets, Unknown)
		}
	}
	return NewUnion(rets...)
}

// synthesizedMember produces the generated members of a code-generator
// class: the constructor, the equality operator, and the ordering operators
// when enabled.
func (m *Model) synthesizedMember(lit *ClassLiteral, name string) Type {
	kind, params := m.codegenOf(lit)
	if kind == CodegenNone {
		return nil
	}
	self := InstanceOf(lit.AsClass())

	// a tuple record constructs through __new__, a dataclass through __init__
	ctor := "__init__"
	if kind == CodegenNamedTuple {
		ctor = "__new__"
	}

	switch name {
	case ctor:
		if !params.Init {
			return nil
		}
		var fields []Field
		if kind == CodegenNamedTuple {
			fields = m.ownFields(lit, params)
		} else {
			fields = m.Fields(NonGenericClass(lit))
		}
		sig := &Signature{Return: NoneValue}
		first := Parameter{Name: "self", Type: self}
		if name == "__new__" {
			first = Parameter{Name: "cls", Type: lit.AsClass()}
			sig.Return = self
		}
		sig.Params = append(sig.Params, first)
		for _, f := range fields {
			sig.Params = append(sig.Params, Parameter{
				Name:        f.Name,
				Type:        f.Type,
				Default:     f.Default,
				KeywordOnly: f.KeywordOnly,
			})
		}
		return NewCallable(sig)

	case "__eq__":
		if !params.Eq {
			return nil
		}
		return comparisonMethod(self, m)

	case "__lt__", "__le__", "__gt__", "__ge__":
		if !params.Order {
			return nil
		}
		return comparisonMethod(self, m)
	}
	return nil
}

func comparisonMethod(self Type, m *Model) Type {
	return NewCallable(&Signature{
		Params: []Parameter{
			{Name: "self", Type: self},
			{Name: "other", Type: self},
		},
		Return: InstanceOf(m.KnownClass(KnownBool)),
	})
}
