package pytype

import (
	"log/slog"
	"sync"
)

// KnownClass enumerates the fixed set of builtin/stdlib classes the engine
// has hard-coded semantic facts for.
type KnownClass int

const (
	KnownNone KnownClass = iota
	KnownObject
	KnownType
	KnownStr
	KnownInt
	KnownFloat
	KnownBool
	KnownBytes
	KnownList
	KnownTuple
	KnownDict
	KnownSet
	KnownFrozenSet
	KnownSlice
	KnownRange
	KnownBaseException
	KnownNoneType
	KnownEllipsisType
	KnownNamedTuple
	KnownProperty
	KnownClassmethod
	KnownStaticmethod
	KnownProtocol
	KnownGeneric
	KnownSized
)

// Truthiness of instances of a known class when no __bool__/__len__ analysis
// applies.
type Truthiness int

const (
	TruthAmbiguous Truthiness = iota
	TruthAlwaysTrue
	TruthAlwaysFalse
)

type knownFact struct {
	name      string
	module    string
	minMajor  int
	minMinor  int
	solidBase bool
	singleton bool
	protocol  bool
	final     bool
	truthy    Truthiness
}

// knownFacts is the hard-coded knowledge table. The module and availability
// columns depend on the configured language version; EllipsisType for
// example only exists under `types` from 3.10.
var knownFacts = map[KnownClass]knownFact{
	KnownObject:        {name: "object", module: "builtins"},
	KnownType:          {name: "type", module: "builtins", solidBase: true},
	KnownStr:           {name: "str", module: "builtins", solidBase: true},
	KnownInt:           {name: "int", module: "builtins", solidBase: true},
	KnownFloat:         {name: "float", module: "builtins", solidBase: true},
	KnownBool:          {name: "bool", module: "builtins", final: true},
	KnownBytes:         {name: "bytes", module: "builtins", solidBase: true},
	KnownList:          {name: "list", module: "builtins", solidBase: true},
	KnownTuple:         {name: "tuple", module: "builtins", solidBase: true},
	KnownDict:          {name: "dict", module: "builtins", solidBase: true},
	KnownSet:           {name: "set", module: "builtins", solidBase: true},
	KnownFrozenSet:     {name: "frozenset", module: "builtins", solidBase: true},
	KnownSlice:         {name: "slice", module: "builtins", solidBase: true, final: true},
	KnownRange:         {name: "range", module: "builtins", solidBase: true, final: true},
	KnownBaseException: {name: "BaseException", module: "builtins", solidBase: true, truthy: TruthAlwaysTrue},
	KnownNoneType:      {name: "NoneType", module: "types", singleton: true, final: true, truthy: TruthAlwaysFalse},
	KnownEllipsisType:  {name: "EllipsisType", module: "types", minMajor: 3, minMinor: 10, singleton: true, final: true, truthy: TruthAlwaysTrue},
	KnownNamedTuple:    {name: "NamedTuple", module: "typing"},
	KnownProperty:      {name: "property", module: "builtins"},
	KnownClassmethod:   {name: "classmethod", module: "builtins"},
	KnownStaticmethod:  {name: "staticmethod", module: "builtins"},
	KnownProtocol:      {name: "Protocol", module: "typing", protocol: true},
	KnownGeneric:       {name: "Generic", module: "typing"},
	KnownSized:         {name: "Sized", module: "typing", protocol: true},
}

// knownClassFor maps a stdlib module and class name back to the registry
// entry, if any.
func knownClassFor(module, name string) (KnownClass, bool) {
	for k, f := range knownFacts {
		if f.module == module && f.name == name {
			return k, true
		}
	}
	return KnownNone, false
}

// DisplayName returns the class's unqualified stdlib name.
func (k KnownClass) DisplayName() string {
	if f, ok := knownFacts[k]; ok {
		return f.name
	}
	return "<unknown>"
}

// Module returns the stdlib module the class lives in.
func (k KnownClass) Module() string {
	if f, ok := knownFacts[k]; ok {
		return f.module
	}
	return ""
}

// IsSolidBase reports a hard-coded non-default memory layout.
func (k KnownClass) IsSolidBase() bool { return knownFacts[k].solidBase }

// IsSingleton reports the class has exactly one instance.
func (k KnownClass) IsSingleton() bool { return knownFacts[k].singleton }

// IsProtocol reports hard-coded protocol-ness, consulted before any base
// inspection to avoid early-bootstrap circularity.
func (k KnownClass) IsProtocol() bool { return knownFacts[k].protocol }

// IsFinal reports the class cannot be subclassed.
func (k KnownClass) IsFinal() bool { return knownFacts[k].final }

// InstanceTruthiness returns the hard-coded truthiness of instances.
func (k KnownClass) InstanceTruthiness() Truthiness { return knownFacts[k].truthy }

// availableIn reports whether the class exists under the configured version.
func (k KnownClass) availableIn(major, minor int) bool {
	f, ok := knownFacts[k]
	if !ok {
		return false
	}
	if f.minMajor == 0 {
		return true
	}
	if major != f.minMajor {
		return major > f.minMajor
	}
	return minor >= f.minMinor
}

// KnownClassLookupErrorKind classifies failures when resolving a known class
// against the actual stdlib surface.
type KnownClassLookupErrorKind int

const (
	ClassNotFound KnownClassLookupErrorKind = iota
	SymbolNotAClass
	ClassPossiblyUnbound
)

type KnownClassLookupError struct {
	Kind  KnownClassLookupErrorKind
	Class KnownClass
}

func (e *KnownClassLookupError) message() string {
	switch e.Kind {
	case SymbolNotAClass:
		return "symbol is not a class"
	case ClassPossiblyUnbound:
		return "class is possibly unbound"
	default:
		return "class not found"
	}
}

// One-time-warning deduplication for recurring known-class lookup failures.
// Process-wide, mutex-guarded, cleared only at process restart; it gates
// logging only and never influences resolution results.
var (
	knownWarnMu   sync.Mutex
	knownWarnSeen = make(map[string]bool)
)

func warnKnownClassOnce(k KnownClass, err *KnownClassLookupError) {
	key := k.Module() + "." + k.DisplayName()
	knownWarnMu.Lock()
	seen := knownWarnSeen[key]
	knownWarnSeen[key] = true
	knownWarnMu.Unlock()
	if seen {
		return
	}
	slog.Warn("known class lookup failed, falling back",
		"class", key, "reason", err.message())
}
