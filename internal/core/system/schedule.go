package system

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/tickforge/tickforge/pkg/sequence"
)

// Group names one of the scheduler's execution phases within a tick.
type Group string

const (
	// GroupUpdate runs once per tick with the frame's variable delta.
	GroupUpdate Group = "update"
	// GroupFixed runs zero or more times per tick, each step with exactly
	// the configured fixed delta.
	GroupFixed Group = "fixed"
	// GroupRender runs once per tick after the fixed steps.
	GroupRender Group = "render"
)

var groupOrder = []Group{GroupUpdate, GroupFixed, GroupRender}

type entry struct {
	sys   System
	group Group
	order int // registration sequence, the final tie-breaker
}

// schedule is the derived execution plan for one registration state: a
// total order consistent with every dependency edge, plus per-group wave
// partitions. It is cached under a fingerprint of the registration
// sequence and rebuilt whenever that changes.
type schedule struct {
	order       []*entry
	waves       map[Group][][]*entry
	fingerprint uint64
}

// fingerprintOf hashes the registration sequence: names, priorities,
// groups and declared dependencies in order. Matching fingerprints mean
// the cached schedule is still valid.
func fingerprintOf(entries []*entry) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, e := range entries {
		_, _ = d.WriteString(e.sys.Name())
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(e.sys.Priority())))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(string(e.group))
		for _, dep := range e.sys.Dependencies() {
			_, _ = d.WriteString("<")
			_, _ = d.WriteString(dep)
		}
		_, _ = d.WriteString(";")
	}
	return d.Sum64()
}

const (
	markWhite = iota
	markGrey
	markBlack
)

// buildSchedule resolves the dependency graph into a deterministic total
// order and per-group waves. Ties between unconstrained systems break by
// ascending priority, then by registration order, so an unchanged
// registration sequence always resolves identically.
func buildSchedule(entries []*entry) (*schedule, error) {
	byName := make(map[string]*entry, len(entries))
	for _, e := range entries {
		byName[e.sys.Name()] = e
	}

	roots := append([]*entry(nil), entries...)
	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].sys.Priority() != roots[j].sys.Priority() {
			return roots[i].sys.Priority() < roots[j].sys.Priority()
		}
		return roots[i].order < roots[j].order
	})

	marks := make(map[string]int, len(entries))
	var stack []string
	var order []*entry

	var visit func(e *entry) error
	visit = func(e *entry) error {
		name := e.sys.Name()
		marks[name] = markGrey
		stack = append(stack, name)

		for _, dep := range e.sys.Dependencies() {
			target, ok := byName[dep]
			if !ok {
				return &UnknownDependencyError{System: name, Dependency: dep}
			}
			switch marks[dep] {
			case markGrey:
				return &CyclicDependencyError{Cycle: cycleFrom(stack, dep)}
			case markWhite:
				if err := visit(target); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		marks[name] = markBlack
		order = append(order, e)
		return nil
	}

	for _, e := range roots {
		if marks[e.sys.Name()] == markWhite {
			if err := visit(e); err != nil {
				return nil, err
			}
		}
	}

	waves := make(map[Group][][]*entry, len(groupOrder))
	for _, g := range groupOrder {
		waves[g] = buildWaves(entries, byName, g)
	}

	return &schedule{
		order:       order,
		waves:       waves,
		fingerprint: fingerprintOf(entries),
	}, nil
}

// cycleFrom cuts the portion of the DFS stack that forms the cycle and
// closes it with the revisited name.
func cycleFrom(stack []string, dep string) []string {
	start := 0
	for i, name := range stack {
		if name == dep {
			start = i
			break
		}
	}
	cycle := append([]string(nil), stack[start:]...)
	return append(cycle, dep)
}

// buildWaves partitions one group's systems into dependency levels: wave 0
// holds systems with no unresolved in-group dependency, wave k+1 those
// whose in-group dependencies all sit in waves 0..k. Dependencies on
// systems in other groups are satisfied by the tick's group sequencing.
// Within a wave, systems order by priority then registration.
func buildWaves(entries []*entry, byName map[string]*entry, g Group) [][]*entry {
	remaining := make(map[string]*entry)
	for _, e := range entries {
		if e.group == g {
			remaining[e.sys.Name()] = e
		}
	}

	var waves [][]*entry
	placed := make(map[string]struct{}, len(remaining))
	for len(remaining) > 0 {
		ready := sequence.FromMap(remaining).
			Filter(func(e *entry) bool {
				for _, dep := range e.sys.Dependencies() {
					target, ok := byName[dep]
					if !ok || target.group != g {
						continue
					}
					if _, done := placed[dep]; !done {
						return false
					}
				}
				return true
			}).
			Sort(func(a, b *entry) bool {
				if a.sys.Priority() != b.sys.Priority() {
					return a.sys.Priority() < b.sys.Priority()
				}
				return a.order < b.order
			}).
			Collect()
		if len(ready) == 0 {
			// In-group cycle; the global sort already rejected it.
			break
		}
		for _, e := range ready {
			placed[e.sys.Name()] = struct{}{}
			delete(remaining, e.sys.Name())
		}
		waves = append(waves, ready)
	}
	return waves
}
