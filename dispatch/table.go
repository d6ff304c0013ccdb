package dispatch

import (
	"cmp"
	"slices"

	"github.com/exascience/forall"
	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
)

// A Key selects a handler: the kind of a policy, whether it has a trailing
// barrier, and the kind of iteration space.
type Key struct {
	Policy policy.Kind
	NoWait bool
	Space  iterspace.Kind
}

// leaf runs one loop over a non-segmented space on an executor.
type leaf func(x forall.Executor, l forall.Loop, s iterspace.Space) forall.Join

type handler struct {
	name string
	run  leaf // nil for segmented spaces
}

var table = make(map[Key]handler)

func register(kinds []policy.Kind, noWait bool, spaces []iterspace.Kind, name string, run leaf) {
	for _, k := range kinds {
		for _, s := range spaces {
			key := Key{Policy: k, NoWait: noWait, Space: s}
			if _, ok := table[key]; ok {
				panic("dispatch: handler registered twice")
			}
			table[key] = handler{name: name, run: run}
		}
	}
}

var (
	leafSpaces  = []iterspace.Kind{iterspace.KindRange, iterspace.KindStrided, iterspace.KindIndirection}
	segmented   = []iterspace.Kind{iterspace.KindSegmented}
	worksharing = []policy.Kind{policy.Auto, policy.Static, policy.Dynamic, policy.Guided}
)

func init() {
	serial := []policy.Kind{policy.Serial}
	register(serial, false, leafSpaces, "serial", visit)
	register(serial, false, segmented, "segments-serial", nil)
	register(worksharing, false, leafSpaces, "parallel-for", visit)
	register(worksharing, true, leafSpaces, "parallel-for-nowait", visit)
	register(worksharing, false, segmented, "segments-parallel", nil)
	register([]policy.Kind{policy.Runtime}, false, leafSpaces, "parallel-for-runtime", visit)
	register([]policy.Kind{policy.NestedTeam}, false, leafSpaces, "nested-team", visitNested)
}

// nestedInner are the kinds allowed as the inner policy of a nested team.
var nestedInner = []policy.Kind{policy.Auto, policy.Static, policy.Dynamic, policy.Guided, policy.Runtime}

func visit(x forall.Executor, l forall.Loop, s iterspace.Space) forall.Join {
	if ind, ok := s.(interface{ Indices() []int }); ok {
		return x.ExecuteIndirect(l, ind.Indices())
	}
	stride := 1
	if st, ok := s.(interface{ Stride() int }); ok {
		stride = st.Stride()
	}
	return x.ExecuteRange(l, s.Begin(), stride)
}

func visitNested(x forall.Executor, l forall.Loop, s iterspace.Space) forall.Join {
	return x.ExecuteNested(l, s)
}

// An Entry is one row of the dispatch table.
type Entry struct {
	Key
	Handler string
}

// Table returns the registered handlers, ordered by policy kind, barrier
// and space kind.
func Table() []Entry {
	entries := make([]Entry, 0, len(table))
	for key, h := range table {
		entries = append(entries, Entry{Key: key, Handler: h.name})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.Policy, b.Policy); c != 0 {
			return c
		}
		if a.NoWait != b.NoWait {
			if a.NoWait {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.Space, b.Space)
	})
	return entries
}

// NestedInner returns the policy kinds allowed inside a nested team.
func NestedInner() []policy.Kind { return slices.Clone(nestedInner) }
