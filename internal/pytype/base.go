package pytype

type baseKind int

const (
	baseClass baseKind = iota
	baseDynamic
	baseProtocol
	baseGeneric
)

// ClassBase is one entry in an MRO: a concrete class, a dynamic placeholder,
// or one of the two non-class markers (Protocol, Generic) that participate
// in declarations but never in runtime attribute lookup.
type ClassBase struct {
	kind    baseKind
	class   ClassType
	dynamic *DynamicType
}

// ClassBaseOf wraps a concrete class.
func ClassBaseOf(c ClassType) ClassBase {
	return ClassBase{kind: baseClass, class: c}
}

// DynamicBase wraps a dynamic placeholder base.
func DynamicBase(d *DynamicType) ClassBase {
	return ClassBase{kind: baseDynamic, dynamic: d}
}

// The two synthetic markers.
var (
	ProtocolMarker = ClassBase{kind: baseProtocol}
	GenericMarker  = ClassBase{kind: baseGeneric}
)

// AsClass returns the wrapped class, if this entry is one.
func (b ClassBase) AsClass() (ClassType, bool) {
	return b.class, b.kind == baseClass
}

// AsDynamic returns the wrapped dynamic type, if this entry is one.
func (b ClassBase) AsDynamic() (*DynamicType, bool) {
	return b.dynamic, b.kind == baseDynamic
}

// IsMarker reports whether this entry is the Protocol or Generic marker.
func (b ClassBase) IsMarker() bool {
	return b.kind == baseProtocol || b.kind == baseGeneric
}

func (b ClassBase) String() string {
	switch b.kind {
	case baseClass:
		return b.class.Name()
	case baseDynamic:
		return b.dynamic.String()
	case baseProtocol:
		return "Protocol"
	default:
		return "Generic"
	}
}
