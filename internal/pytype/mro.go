package pytype

import (
	"fmt"

	"typewalk/internal/observability"
)

type MroErrorKind int

const (
	// MroCycle means the class's own bases loop back to it.
	MroCycle MroErrorKind = iota
	// MroInconsistent means the bases' linearizations cannot be merged into
	// one order.
	MroInconsistent
)

func (k MroErrorKind) String() string {
	if k == MroCycle {
		return "cycle"
	}
	return "inconsistent"
}

// MroError describes why a class has no consistent linearization. It always
// leaves callers enough to build the fallback MRO (the class directly based
// on unknown).
type MroError struct {
	Kind  MroErrorKind
	Class *ClassLiteral
}

func (e *MroError) Error() string {
	return fmt.Sprintf("mro of %s: %s", e.Class.Name, e.Kind)
}

// Mro is an ordered, duplicate-free linearization. The first entry is the
// class itself; the last is the root class unless the hierarchy is broken.
type Mro struct {
	entries []ClassBase
}

func (mr Mro) Entries() []ClassBase { return mr.entries }
func (mr Mro) Len() int             { return len(mr.entries) }
func (mr Mro) At(i int) ClassBase   { return mr.entries[i] }

type mroResult struct {
	mro Mro
	err *MroError
}

func cycleFallbackMro(lit *ClassLiteral) mroResult {
	return mroResult{
		mro: Mro{entries: []ClassBase{
			ClassBaseOf(NonGenericClass(lit)),
			DynamicBase(Unknown),
		}},
		err: &MroError{Kind: MroCycle, Class: lit},
	}
}

// TryMro returns the class's linearization or the error explaining why none
// exists. On error the returned Mro is still a usable fallback.
func (m *Model) TryMro(ct ClassType) (Mro, *MroError) {
	res := m.mros.Get(ct.Literal(), m.computeMro)
	if ct.Alias() == nil {
		return res.mro, res.err
	}
	// Specialized view: substitute the alias's type arguments through every
	// inherited entry.
	spec := ct.Specialization()
	entries := make([]ClassBase, len(res.mro.entries))
	for i, b := range res.mro.entries {
		if i == 0 {
			entries[i] = ClassBaseOf(ct)
			continue
		}
		if bc, ok := b.AsClass(); ok {
			if sub, ok := spec.ApplyTypeMapping(bc).(ClassType); ok {
				entries[i] = ClassBaseOf(sub)
				continue
			}
		}
		entries[i] = b
	}
	return Mro{entries: entries}, res.err
}

// IterMro returns the linearization entries, falling back to the minimal
// sequence when the hierarchy is broken. The result is never empty and
// always starts with the class itself.
func (m *Model) IterMro(ct ClassType) []ClassBase {
	mro, _ := m.TryMro(ct)
	return mro.Entries()
}

// IsSubclassOf reports whether sub's MRO contains sup. For a specialized
// sup, the matching entry's specialization must be equivalent.
func (m *Model) IsSubclassOf(sub, sup ClassType) bool {
	if sub.IsZero() || sup.IsZero() {
		return false
	}
	for _, b := range m.IterMro(sub) {
		bc, ok := b.AsClass()
		if !ok || bc.Literal() != sup.Literal() {
			continue
		}
		if sup.Alias() == nil {
			return true
		}
		if bc.EquivalentTo(sup) {
			return true
		}
	}
	return false
}

// InheritanceCycleOf distinguishes a class on an inheritance cycle from one
// that merely inherits from a participant.
func (m *Model) InheritanceCycleOf(lit *ClassLiteral) InheritanceCycle {
	if m.basesReach(lit, lit, make(map[*ClassLiteral]bool)) {
		return CycleParticipant
	}
	seen := make(map[*ClassLiteral]bool)
	if m.anyAncestorCycles(lit, seen) {
		return CycleInherited
	}
	return NoCycle
}

// basesReach walks resolved bases with an explicit visited set, reporting
// whether target is reachable from cur's bases.
func (m *Model) basesReach(target, cur *ClassLiteral, visited map[*ClassLiteral]bool) bool {
	for _, b := range m.Bases(cur) {
		bc, ok := b.AsClass()
		if !ok {
			continue
		}
		next := bc.Literal()
		if next == target {
			return true
		}
		if visited[next] {
			continue
		}
		visited[next] = true
		if m.basesReach(target, next, visited) {
			return true
		}
	}
	return false
}

func (m *Model) anyAncestorCycles(lit *ClassLiteral, seen map[*ClassLiteral]bool) bool {
	for _, b := range m.Bases(lit) {
		bc, ok := b.AsClass()
		if !ok {
			continue
		}
		next := bc.Literal()
		if seen[next] {
			continue
		}
		seen[next] = true
		if m.basesReach(next, next, make(map[*ClassLiteral]bool)) {
			return true
		}
		if m.anyAncestorCycles(next, seen) {
			return true
		}
	}
	return false
}

func (m *Model) computeMro(lit *ClassLiteral) mroResult {
	observability.MroComputations.Inc()

	if m.basesReach(lit, lit, make(map[*ClassLiteral]bool)) {
		observability.MroErrors.WithLabelValues(MroCycle.String()).Inc()
		return cycleFallbackMro(lit)
	}

	self := ClassBaseOf(lit.AsClass())
	bases := m.Bases(lit)
	if len(bases) == 0 {
		return mroResult{mro: Mro{entries: []ClassBase{self}}}
	}

	// C3: merge each base's own linearization plus the local precedence
	// order of the explicit bases.
	seqs := make([][]ClassBase, 0, len(bases)+1)
	var inherited *MroError
	for _, b := range bases {
		switch {
		case b.IsMarker():
			seqs = append(seqs, []ClassBase{b})
		default:
			if bc, ok := b.AsClass(); ok {
				inner := m.mros.Get(bc.Literal(), m.computeMro)
				if inner.err != nil && inherited == nil {
					inherited = inner.err
				}
				seqs = append(seqs, m.specializedEntries(bc, inner.mro.entries))
			} else {
				// dynamic stand-in still roots the hierarchy
				seqs = append(seqs, []ClassBase{b, ClassBaseOf(m.KnownClass(KnownObject))})
			}
		}
	}
	seqs = append(seqs, bases)

	if inherited != nil {
		observability.MroErrors.WithLabelValues(inherited.Kind.String()).Inc()
		res := cycleFallbackMro(lit)
		res.err = &MroError{Kind: inherited.Kind, Class: lit}
		return res
	}

	merged, ok := c3Merge(seqs)
	if !ok {
		observability.MroErrors.WithLabelValues(MroInconsistent.String()).Inc()
		res := cycleFallbackMro(lit)
		res.err = &MroError{Kind: MroInconsistent, Class: lit}
		return res
	}
	return mroResult{mro: Mro{entries: append([]ClassBase{self}, merged...)}}
}

// specializedEntries maps a base's memoized MRO through the base's own
// specialization so inherited generic entries carry the right arguments.
func (m *Model) specializedEntries(base ClassType, entries []ClassBase) []ClassBase {
	spec := base.Specialization()
	out := make([]ClassBase, len(entries))
	for i, b := range entries {
		if i == 0 {
			out[i] = ClassBaseOf(base)
			continue
		}
		if bc, ok := b.AsClass(); ok && spec != nil {
			if sub, ok := spec.ApplyTypeMapping(bc).(ClassType); ok {
				out[i] = ClassBaseOf(sub)
				continue
			}
		}
		out[i] = b
	}
	return out
}

// c3Merge computes the unique linearization that places every class before
// its ancestors and preserves local precedence, or reports that none exists.
// Dynamic entries and the Protocol/Generic markers never block a candidate:
// they are retained in the output but skipped during the tail checks.
func c3Merge(seqs [][]ClassBase) ([]ClassBase, bool) {
	work := make([][]ClassBase, len(seqs))
	for i, s := range seqs {
		work[i] = append([]ClassBase(nil), s...)
	}

	var out []ClassBase
	for {
		remaining := false
		var picked ClassBase
		found := false
		for _, s := range work {
			if len(s) == 0 {
				continue
			}
			remaining = true
			head := s[0]
			if mergeBlocks(head) && inAnyTail(head, work) {
				continue
			}
			picked = head
			found = true
			break
		}
		if !remaining {
			return out, true
		}
		if !found {
			return nil, false
		}
		if !containsBase(out, picked) {
			out = append(out, picked)
		}
		for i, s := range work {
			if len(s) > 0 && s[0] == picked {
				work[i] = s[1:]
			}
		}
	}
}

// mergeBlocks reports whether an entry participates in ordering constraints.
func mergeBlocks(b ClassBase) bool {
	_, isClass := b.AsClass()
	return isClass
}

func inAnyTail(b ClassBase, seqs [][]ClassBase) bool {
	for _, s := range seqs {
		for i := 1; i < len(s); i++ {
			if s[i] == b {
				return true
			}
		}
	}
	return false
}

func containsBase(entries []ClassBase, b ClassBase) bool {
	for _, e := range entries {
		if e == b {
			return true
		}
	}
	return false
}
