// Package policy provides execution policies: immutable tags that select
// how the indices of an iteration space are divided among workers.
//
// The scheduling disciplines follow OpenMP worksharing loops. A chunk size
// <= 0 selects the default chunking of a discipline, a chunk size > 0 is
// used as a fixed block size.
package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the scheduling discipline of a Policy.
type Kind int

const (
	// Serial runs the loop on a single worker, in order.
	Serial Kind = iota

	// Auto lets the executor choose the division of work.
	Auto

	// Static divides the loop into contiguous blocks that are dealt to
	// workers round-robin before the loop starts.
	Static

	// Dynamic hands out blocks from a shared cursor as workers become idle.
	Dynamic

	// Guided hands out blocks whose size shrinks with the remaining work.
	Guided

	// Runtime defers the choice of discipline to the configured default.
	Runtime

	// NestedTeam establishes an outer team and runs an inner policy inside it.
	NestedTeam
)

var kindNames = [...]string{
	Serial:     "serial",
	Auto:       "auto",
	Static:     "static",
	Dynamic:    "dynamic",
	Guided:     "guided",
	Runtime:    "runtime",
	NestedTeam: "nested",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Kinds returns all known kinds in declaration order.
func Kinds() []Kind {
	return []Kind{Serial, Auto, Static, Dynamic, Guided, Runtime, NestedTeam}
}

/*
A Policy is an immutable execution policy. Policies are values: they carry
no mutable state and can be reused across any number of dispatches.

The zero Policy is Serial.
*/
type Policy struct {
	kind   Kind
	chunk  int
	noWait bool
	inner  *Policy
}

// SerialPolicy returns the serial policy.
func SerialPolicy() Policy { return Policy{kind: Serial} }

// AutoPolicy returns the auto-scheduled parallel policy.
func AutoPolicy() Policy { return Policy{kind: Auto} }

// StaticPolicy returns a static schedule with the given chunk size.
func StaticPolicy(chunk int) Policy { return Policy{kind: Static, chunk: chunk} }

// DynamicPolicy returns a dynamic schedule with the given chunk size.
func DynamicPolicy(chunk int) Policy { return Policy{kind: Dynamic, chunk: chunk} }

// GuidedPolicy returns a guided schedule with the given minimum chunk size.
func GuidedPolicy(chunk int) Policy { return Policy{kind: Guided, chunk: chunk} }

// RuntimePolicy returns the policy that uses the configured default schedule.
func RuntimePolicy() Policy { return Policy{kind: Runtime} }

// NestedTeamPolicy returns a policy that establishes a team and then runs
// inner inside it.
func NestedTeamPolicy(inner Policy) Policy {
	return Policy{kind: NestedTeam, inner: &inner}
}

// NoWait returns a copy of p without a trailing barrier.
//
// A dispatch with a NoWait policy may return before all indices have been
// visited. Reduction results must not be read before the returned
// completion token has been waited for.
func (p Policy) NoWait() Policy {
	p.noWait = true
	return p
}

// WithBarrier returns a copy of p with a trailing barrier.
func (p Policy) WithBarrier() Policy {
	p.noWait = false
	return p
}

// Kind returns the scheduling discipline of p.
func (p Policy) Kind() Kind { return p.kind }

// Chunk returns the chunk size of p, <= 0 for default chunking.
func (p Policy) Chunk() int { return p.chunk }

// Barrier reports whether p ends with an implicit barrier.
func (p Policy) Barrier() bool { return !p.noWait }

// Inner returns the inner policy of a NestedTeam policy.
func (p Policy) Inner() (Policy, bool) {
	if p.inner == nil {
		return Policy{}, false
	}
	return *p.inner, true
}

// Parallel reports whether p may execute the loop body concurrently.
func (p Policy) Parallel() bool { return p.kind != Serial }

// Equal reports whether p and q describe the same policy.
func (p Policy) Equal(q Policy) bool {
	if p.kind != q.kind || p.chunk != q.chunk || p.noWait != q.noWait {
		return false
	}
	pi, pok := p.Inner()
	qi, qok := q.Inner()
	if pok != qok {
		return false
	}
	return !pok || pi.Equal(qi)
}

// String renders p in the syntax accepted by Parse.
func (p Policy) String() string {
	var b strings.Builder
	switch p.kind {
	case Static, Dynamic, Guided:
		b.WriteString(p.kind.String())
		if p.chunk > 0 {
			b.WriteString("," + strconv.Itoa(p.chunk))
		}
	case NestedTeam:
		b.WriteString("nested:")
		if inner, ok := p.Inner(); ok {
			b.WriteString(inner.String())
		}
		return b.String()
	default:
		b.WriteString(p.kind.String())
	}
	if p.noWait {
		b.WriteString(",nowait")
	}
	return b.String()
}

/*
Parse parses a policy in the OMP_SCHEDULE-like syntax

	serial | auto | runtime
	static[,chunk] | dynamic[,chunk] | guided[,chunk]

optionally followed by ",nowait", or "nested:" followed by an inner
policy. Parse does not decide whether a policy is usable with a given
iteration space; that happens when a dispatch is composed.
*/
func Parse(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(s, "nested:"); ok {
		inner, err := Parse(rest)
		if err != nil {
			return Policy{}, err
		}
		return NestedTeamPolicy(inner), nil
	}
	fields := strings.Split(s, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	var noWait bool
	if n := len(fields); n > 1 && fields[n-1] == "nowait" {
		noWait = true
		fields = fields[:n-1]
	}
	var p Policy
	switch fields[0] {
	case "serial":
		p = SerialPolicy()
	case "auto":
		p = AutoPolicy()
	case "runtime":
		p = RuntimePolicy()
	case "static":
		p = StaticPolicy(0)
	case "dynamic":
		p = DynamicPolicy(0)
	case "guided":
		p = GuidedPolicy(0)
	default:
		return Policy{}, fmt.Errorf("unknown policy %q", s)
	}
	switch len(fields) {
	case 1:
	case 2:
		if p.kind != Static && p.kind != Dynamic && p.kind != Guided {
			return Policy{}, fmt.Errorf("policy %q does not take a chunk size", fields[0])
		}
		chunk, err := strconv.Atoi(fields[1])
		if err != nil {
			return Policy{}, fmt.Errorf("invalid chunk size in %q: %w", s, err)
		}
		p.chunk = chunk
	default:
		return Policy{}, fmt.Errorf("invalid policy %q", s)
	}
	if noWait {
		p = p.NoWait()
	}
	return p, nil
}
