package dispatch

import (
	"fmt"
	"slices"
	"strings"

	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
)

/*
A Plan is a validated composition of a policy and an iteration space. For
a segmented space, the plan holds one sub-plan per segment.

Plans are immutable, and can be run any number of times.
*/
type Plan struct {
	policy   policy.Policy
	space    iterspace.Space
	handler  handler
	segments []*Plan
}

// Policy returns the policy of the plan.
func (pl *Plan) Policy() policy.Policy { return pl.policy }

// Space returns the iteration space of the plan.
func (pl *Plan) Space() iterspace.Space { return pl.space }

// Handler returns the name of the handler that runs the plan.
func (pl *Plan) Handler() string { return pl.handler.name }

// Segments returns the sub-plans of a segmented plan.
func (pl *Plan) Segments() []*Plan { return pl.segments }

func (pl *Plan) String() string {
	s := fmt.Sprintf("%v(%v over %v)", pl.handler.name, pl.policy, pl.space.Kind())
	if len(pl.segments) == 0 {
		return s
	}
	subs := make([]string, len(pl.segments))
	for i, sub := range pl.segments {
		subs[i] = sub.String()
	}
	return s + "[" + strings.Join(subs, " ") + "]"
}

// Compose validates the pair of p and s, including every segment of a
// segmented space, and returns the plan that runs it. If the pair cannot
// be composed, the error is a *CompositionError.
func Compose(p policy.Policy, s iterspace.Space) (*Plan, error) {
	if s == nil {
		panic("dispatch: nil iteration space")
	}
	return compose(p, s, NoSegment)
}

func compose(p policy.Policy, s iterspace.Space, segment int) (*Plan, error) {
	h, ok := table[Key{Policy: p.Kind(), NoWait: !p.Barrier(), Space: s.Kind()}]
	if !ok {
		return nil, &CompositionError{Policy: p, Space: s.Kind(), Segment: segment, Err: ErrNoHandler}
	}
	if inner, ok := p.Inner(); ok {
		// the inner loop may skip its barrier; the team region always joins
		_, ok := table[Key{Policy: inner.Kind(), Space: s.Kind()}]
		if !ok || !slices.Contains(nestedInner, inner.Kind()) {
			return nil, &CompositionError{Policy: p, Space: s.Kind(), Segment: segment, Err: ErrNoHandler}
		}
	}
	pl := &Plan{policy: p, space: s, handler: h}
	if s.Kind() != iterspace.KindSegmented {
		return pl, nil
	}
	seg, ok := s.(*iterspace.Segmented)
	if !ok {
		return nil, &CompositionError{Policy: p, Space: s.Kind(), Segment: segment, Err: ErrUnknownSegment}
	}
	pl.segments = make([]*Plan, seg.SegmentCount())
	for i := range pl.segments {
		sg := seg.SegmentAt(i)
		if !slices.Contains(leafSpaces, sg.Kind) || sg.Space.Kind() != sg.Kind {
			return nil, &CompositionError{Policy: sg.Policy, Space: sg.Kind, Segment: i, Err: ErrUnknownSegment}
		}
		sub, err := compose(sg.Policy, sg.Space, i)
		if err != nil {
			return nil, err
		}
		pl.segments[i] = sub
	}
	return pl, nil
}
