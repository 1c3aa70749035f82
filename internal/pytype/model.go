package pytype

import (
	"fmt"
	"sync"

	"typewalk/internal/config"
	"typewalk/internal/memo"
	"typewalk/internal/observability"
	"typewalk/internal/semantic"
	"typewalk/internal/syntax"
)

// Model is the class model of one analyzed program at one revision. All
// queries are pure functions of (class identity, revision), memoized through
// internal/memo; failures recover locally into conservative fallbacks so
// analysis never aborts.
type Model struct {
	version config.PythonVersion

	mu       sync.Mutex
	modules  []*semantic.Index
	litByDef map[*syntax.ClassDef]*ClassLiteral
	stdlib   map[string]*semantic.Index

	known         map[KnownClass]*ClassLiteral
	knownFallback map[KnownClass]*ClassLiteral
	builtinNames  map[string]*ClassLiteral

	typeVars map[any]*TypeVar

	aliases *memo.Interner[aliasKey, *GenericAlias]

	bases       *memo.Table[*ClassLiteral, []ClassBase]
	contexts    *memo.Table[*ClassLiteral, *GenericContext]
	mros        *memo.Table[*ClassLiteral, mroResult]
	metaclasses *memo.Table[*ClassLiteral, metaclassResult]

	diagMu      sync.Mutex
	diagnostics []Diagnostic
}

type aliasKey struct {
	origin *ClassLiteral
	spec   string
}

// Diagnostic is a user-visible finding anchored to a source span.
type Diagnostic struct {
	Kind    string
	Message string
	Span    syntax.Span
}

// NewModel creates a model for the given target language version and
// bootstraps the synthetic builtin classes.
func NewModel(version config.PythonVersion) *Model {
	m := &Model{
		version:       version,
		litByDef:      make(map[*syntax.ClassDef]*ClassLiteral),
		stdlib:        make(map[string]*semantic.Index),
		known:         make(map[KnownClass]*ClassLiteral),
		knownFallback: make(map[KnownClass]*ClassLiteral),
		builtinNames:  make(map[string]*ClassLiteral),
		typeVars:      make(map[any]*TypeVar),
		aliases:       memo.NewInterner[aliasKey, *GenericAlias](),
	}
	m.bases = memo.NewTable[*ClassLiteral, []ClassBase]("bases",
		func(*ClassLiteral) []ClassBase { return nil },
		classBasesEqual)
	m.contexts = memo.NewTable[*ClassLiteral, *GenericContext]("contexts",
		func(*ClassLiteral) *GenericContext { return nil },
		contextsEqual)
	m.mros = memo.NewTable[*ClassLiteral, mroResult]("mros",
		func(lit *ClassLiteral) mroResult { return cycleFallbackMro(lit) },
		mroResultsEqual)
	m.metaclasses = memo.NewTable[*ClassLiteral, metaclassResult]("metaclasses",
		func(*ClassLiteral) metaclassResult {
			return metaclassResult{meta: Unknown, err: &MetaclassError{Kind: MetaclassCycle}}
		},
		metaclassResultsEqual)
	m.bootstrap()
	return m
}

// SetRevision moves every memo table to a new snapshot.
func (m *Model) SetRevision(rev memo.Revision) {
	m.bases.SetRevision(rev)
	m.contexts.SetRevision(rev)
	m.mros.SetRevision(rev)
	m.metaclasses.SetRevision(rev)
	observability.RevisionGauge.Set(float64(rev))
}

// AddModule registers a parsed module's classes with the model.
func (m *Model) AddModule(idx *semantic.Index) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules = append(m.modules, idx)
	for _, def := range idx.Classes() {
		scope := m.owningScope(idx, def)
		m.litByDef[def] = &ClassLiteral{
			Name:  def.Name,
			Def:   def,
			Scope: scope,
			Body:  idx.ScopeOf(def),
			model: m,
			index: idx,
		}
	}
	observability.ClassesIndexed.Set(float64(len(m.litByDef)))
}

// SetStdlibModule registers an indexed stdlib stub under a module name
// (builtins, types, typing); known-class resolution consults it before the
// synthetic bootstrap classes.
func (m *Model) SetStdlibModule(name string, idx *semantic.Index) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stdlib[name] = idx
	m.modules = append(m.modules, idx)
	for _, def := range idx.Classes() {
		lit := &ClassLiteral{
			Name:  def.Name,
			Def:   def,
			Scope: idx.ModuleScope,
			Body:  idx.ScopeOf(def),
			model: m,
			index: idx,
		}
		// Registry tagging happens here so a literal's identity never
		// changes after creation; version-gated classes stay untagged.
		if k, ok := knownClassFor(name, def.Name); ok && k.availableIn(m.version.Major, m.version.Minor) {
			lit.Known = k
		}
		m.litByDef[def] = lit
	}
}

// owningScope finds the scope a class definition appears in: the body scope
// of the innermost enclosing class/function, or the module scope.
func (m *Model) owningScope(idx *semantic.Index, def *syntax.ClassDef) *semantic.Scope {
	var find func(body []syntax.Stmt, scope *semantic.Scope) *semantic.Scope
	find = func(body []syntax.Stmt, scope *semantic.Scope) *semantic.Scope {
		for _, stmt := range body {
			switch s := stmt.(type) {
			case *syntax.ClassDef:
				if s == def {
					return scope
				}
				if found := find(s.Body, idx.ScopeOf(s)); found != nil {
					return found
				}
			case *syntax.FunctionDef:
				if found := find(s.Body, idx.ScopeOf(s)); found != nil {
					return found
				}
			case *syntax.If:
				if found := find(s.Body, scope); found != nil {
					return found
				}
				if found := find(s.Else, scope); found != nil {
					return found
				}
			}
		}
		return nil
	}
	if scope := find(idx.Module.Body, idx.ModuleScope); scope != nil {
		return scope
	}
	return idx.ModuleScope
}

// ClassFor returns the literal for a class definition, or nil when the
// definition was never registered.
func (m *Model) ClassFor(def *syntax.ClassDef) *ClassLiteral {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.litByDef[def]
}

// Classes returns all registered user-class literals in registration order.
func (m *Model) Classes() []*ClassLiteral {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ClassLiteral
	for _, idx := range m.modules {
		for _, def := range idx.Classes() {
			if lit := m.litByDef[def]; lit != nil {
				out = append(out, lit)
			}
		}
	}
	return out
}

func (m *Model) report(kind, message string, span syntax.Span) {
	m.diagMu.Lock()
	m.diagnostics = append(m.diagnostics, Diagnostic{Kind: kind, Message: message, Span: span})
	m.diagMu.Unlock()
	observability.DiagnosticsEmitted.WithLabelValues(kind).Inc()
}

// Diagnostics returns the findings collected so far.
func (m *Model) Diagnostics() []Diagnostic {
	m.diagMu.Lock()
	defer m.diagMu.Unlock()
	out := make([]Diagnostic, len(m.diagnostics))
	copy(out, m.diagnostics)
	return out
}

// ResetDiagnostics clears collected findings between evaluation passes.
func (m *Model) ResetDiagnostics() {
	m.diagMu.Lock()
	m.diagnostics = nil
	m.diagMu.Unlock()
}

// RemoveModule forgets a module's classes ahead of a re-parse. Memoized
// entries keyed by the dropped literals go stale but are never queried
// again; the revision bump after replacement invalidates the rest.
func (m *Model) RemoveModule(idx *semantic.Index) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, mod := range m.modules {
		if mod == idx {
			m.modules = append(m.modules[:i], m.modules[i+1:]...)
			break
		}
	}
	for _, def := range idx.Classes() {
		delete(m.litByDef, def)
	}
	observability.ClassesIndexed.Set(float64(len(m.litByDef)))
}

// --- Generic alias interning ---

func (m *Model) internAlias(origin *ClassLiteral, spec *Specialization) ClassType {
	key := aliasKey{origin: origin, spec: spec.String()}
	alias := m.aliases.Intern(key, func() *GenericAlias {
		return &GenericAlias{Origin: origin, Spec: spec}
	})
	return GenericClass(alias)
}

// ApplySpecialization returns a non-generic ClassType for non-generic
// classes; otherwise f chooses the specialization for the class's context.
func (m *Model) ApplySpecialization(lit *ClassLiteral, f func(*GenericContext) *Specialization) ClassType {
	ctx := m.GenericContextOf(lit)
	if ctx == nil {
		return NonGenericClass(lit)
	}
	return m.internAlias(lit, f(ctx))
}

// --- Known classes ---

// KnownClassType resolves a hard-coded stdlib class to a usable class value.
func (m *Model) KnownClass(k KnownClass) ClassType {
	return NonGenericClass(m.knownLiteral(k))
}

func (m *Model) knownLiteral(k KnownClass) *ClassLiteral {
	m.mu.Lock()
	if lit, ok := m.known[k]; ok {
		m.mu.Unlock()
		return lit
	}
	m.mu.Unlock()

	lit, lookupErr := m.resolveKnown(k)
	if lookupErr != nil {
		warnKnownClassOnce(k, lookupErr)
		if lookupErr.Kind != ClassPossiblyUnbound {
			lit = m.fallbackKnown(k)
		}
	}

	m.mu.Lock()
	m.known[k] = lit
	m.mu.Unlock()
	return lit
}

// resolveKnown checks the registered stdlib surface. When no stub module is
// registered the synthetic bootstrap class stands in for the stdlib and no
// error is reported.
func (m *Model) resolveKnown(k KnownClass) (*ClassLiteral, *KnownClassLookupError) {
	if !k.availableIn(m.version.Major, m.version.Minor) {
		return nil, &KnownClassLookupError{Kind: ClassNotFound, Class: k}
	}

	m.mu.Lock()
	idx, hasStub := m.stdlib[k.Module()]
	m.mu.Unlock()
	if !hasStub {
		return m.fallbackKnown(k), nil
	}

	sym := idx.ModuleScope.Symbol(k.DisplayName())
	if sym == nil {
		return nil, &KnownClassLookupError{Kind: ClassNotFound, Class: k}
	}
	var def *syntax.ClassDef
	for _, b := range sym.Bindings {
		if b.Class != nil && b.Reachable {
			def = b.Class
			break
		}
	}
	if def == nil {
		return nil, &KnownClassLookupError{Kind: SymbolNotAClass, Class: k}
	}
	lit := m.ClassFor(def)
	if lit == nil {
		return nil, &KnownClassLookupError{Kind: ClassNotFound, Class: k}
	}
	if sym.PossiblyUnbound() {
		// non-fatal: the found class is still used
		return lit, &KnownClassLookupError{Kind: ClassPossiblyUnbound, Class: k}
	}
	return lit, nil
}

func (m *Model) fallbackKnown(k KnownClass) *ClassLiteral {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lit, ok := m.knownFallback[k]; ok {
		return lit
	}
	lit := &ClassLiteral{Name: k.DisplayName(), Known: k, model: m}
	m.knownFallback[k] = lit
	return lit
}

// lookupBuiltin resolves a bare name against the synthetic builtin surface.
func (m *Model) lookupBuiltin(name string) *ClassLiteral {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builtinNames[name]
}

// --- Bootstrap of the synthetic builtin hierarchy ---

func (m *Model) bootstrap() {
	synth := func(k KnownClass, bases ...KnownClass) *ClassLiteral {
		lit := &ClassLiteral{Name: k.DisplayName(), Known: k, model: m}
		m.knownFallback[k] = lit
		m.builtinNames[k.DisplayName()] = lit
		for _, b := range bases {
			lit.synthBases = append(lit.synthBases, NonGenericClass(m.knownFallback[b]))
		}
		return lit
	}

	object := synth(KnownObject)
	object.synthMembers = map[string]Type{
		"__init__": NewCallable(&Signature{
			Params: []Parameter{{Name: "self", Type: InstanceOf(NonGenericClass(object))}},
			Return: NoneValue,
		}),
		"__new__": NewCallable(&Signature{
			Params: []Parameter{{Name: "cls", Type: NonGenericClass(object)}},
			Return: InstanceOf(NonGenericClass(object)),
		}),
	}

	typ := synth(KnownType, KnownObject)
	typ.synthMembers = map[string]Type{
		"__call__": NewCallable(&Signature{
			Params: []Parameter{
				{Name: "cls", Type: NonGenericClass(typ)},
				{Name: "args", Type: Unknown, Variadic: true},
				{Name: "kwargs", Type: Unknown, KeywordVariadic: true},
			},
			Return: Unknown,
		}),
	}

	for _, k := range []KnownClass{
		KnownStr, KnownFloat, KnownBytes, KnownList, KnownTuple, KnownDict,
		KnownSet, KnownFrozenSet, KnownSlice, KnownRange, KnownBaseException,
		KnownNoneType, KnownEllipsisType, KnownSized,
		KnownProtocol, KnownGeneric,
	} {
		synth(k, KnownObject)
	}
	synth(KnownInt, KnownObject)
	synth(KnownBool, KnownInt)

	// Tuple-record subclasses inherit the collections.namedtuple surface;
	// everything except the generated constructor resolves here.
	ntup := synth(KnownNamedTuple, KnownObject)
	ntupSelf := InstanceOf(NonGenericClass(ntup))
	tupleInst := InstanceOf(NonGenericClass(m.knownFallback[KnownTuple]))
	dictInst := InstanceOf(NonGenericClass(m.knownFallback[KnownDict]))
	intInst := InstanceOf(NonGenericClass(m.knownFallback[KnownInt]))
	ntup.synthMembers = map[string]Type{
		"_fields":         tupleInst,
		"_field_defaults": dictInst,
		"_replace": NewCallable(&Signature{
			Params: []Parameter{
				{Name: "self", Type: ntupSelf},
				{Name: "kwargs", Type: Unknown, KeywordVariadic: true},
			},
			Return: ntupSelf,
		}),
		"_asdict": NewCallable(&Signature{
			Params: []Parameter{{Name: "self", Type: ntupSelf}},
			Return: dictInst,
		}),
		"_make": NewCallable(&Signature{
			Params: []Parameter{
				{Name: "cls", Type: NonGenericClass(ntup)},
				{Name: "iterable", Type: Unknown},
			},
			Return: ntupSelf,
		}),
		"count": NewCallable(&Signature{
			Params: []Parameter{
				{Name: "self", Type: ntupSelf},
				{Name: "value", Type: Unknown},
			},
			Return: intInst,
		}),
		"index": NewCallable(&Signature{
			Params: []Parameter{
				{Name: "self", Type: ntupSelf},
				{Name: "value", Type: Unknown},
			},
			Return: intInst,
		}),
	}

	prop := synth(KnownProperty, KnownObject)
	prop.synthMembers = map[string]Type{
		"__get__": NewCallable(&Signature{
			Params: []Parameter{
				{Name: "self", Type: InstanceOf(NonGenericClass(prop))},
				{Name: "instance", Type: Unknown},
				{Name: "owner", Type: Unknown, Default: NoneValue},
			},
			Return: Unknown,
		}),
		"__set__": NewCallable(&Signature{
			Params: []Parameter{
				{Name: "self", Type: InstanceOf(NonGenericClass(prop))},
				{Name: "instance", Type: Unknown},
				{Name: "value", Type: Unknown},
			},
			Return: NoneValue,
		}),
	}
	synth(KnownClassmethod, KnownObject)
	synth(KnownStaticmethod, KnownObject)
}

// --- memo value equality ---

func classBasesEqual(a, b []ClassBase) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contextsEqual(a, b *GenericContext) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Source != b.Source || len(a.Vars) != len(b.Vars) {
		return false
	}
	for i := range a.Vars {
		if a.Vars[i].Name != b.Vars[i].Name {
			return false
		}
	}
	return true
}

func mroResultsEqual(a, b mroResult) bool {
	if (a.err == nil) != (b.err == nil) {
		return false
	}
	if a.err != nil && a.err.Kind != b.err.Kind {
		return false
	}
	return classBasesEqual(a.mro.entries, b.mro.entries)
}

func metaclassResultsEqual(a, b metaclassResult) bool {
	if (a.err == nil) != (b.err == nil) {
		return false
	}
	if a.err != nil && a.err.Kind != b.err.Kind {
		return false
	}
	return typesEqual(a.meta, b.meta)
}

// DebugString renders the class table; used by tests and the CLI dump mode.
func (m *Model) DebugString() string {
	var out string
	for _, lit := range m.Classes() {
		out += fmt.Sprintf("%s\n", lit)
	}
	return out
}
