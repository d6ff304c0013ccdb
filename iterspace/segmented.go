package iterspace

import (
	"fmt"
	"sort"

	"github.com/exascience/forall/policy"
)

// A Segment is one homogeneous part of a Segmented space, executed with its
// own policy.
type Segment struct {
	// Kind is the kind of Space. It is recorded when the segment is added
	// and checked against the space before a dispatch runs.
	Kind   Kind
	Space  Space
	Policy policy.Policy
}

/*
A Segmented space is an ordered sequence of segments. Its indices are the
indices of its segments, in segment order.

Build a Segmented space with NewSegmented or by calling Push on the zero
value. Once a dispatch has started the space must not be modified.
*/
type Segmented struct {
	segments []Segment
	offsets  []int // offsets[i] is the position of segment i's first index
	length   int
}

// NewSegmented returns a segmented space made of the given segments.
func NewSegmented(segments ...Segment) *Segmented {
	s := &Segmented{}
	for _, seg := range segments {
		s.add(seg)
	}
	return s
}

// Push appends a segment that visits space with policy p, and returns s.
func (s *Segmented) Push(space Space, p policy.Policy) *Segmented {
	s.add(Segment{Kind: space.Kind(), Space: space, Policy: p})
	return s
}

func (s *Segmented) add(seg Segment) {
	if seg.Space == nil {
		panic("iterspace: segment without space")
	}
	s.offsets = append(s.offsets, s.length)
	s.segments = append(s.segments, seg)
	s.length += seg.Space.Len()
}

func (s *Segmented) Kind() Kind { return KindSegmented }

// Len returns the sum of the lengths of all segments.
func (s *Segmented) Len() int { return s.length }

// SegmentCount returns the number of segments.
func (s *Segmented) SegmentCount() int { return len(s.segments) }

// SegmentAt returns segment i, with 0 <= i < SegmentCount().
func (s *Segmented) SegmentAt(i int) Segment { return s.segments[i] }

// Offset returns the position of the first index of segment i.
func (s *Segmented) Offset(i int) int { return s.offsets[i] }

// Begin returns the first index of the first segment, or 0 if there are no
// segments.
func (s *Segmented) Begin() int {
	if len(s.segments) == 0 {
		return 0
	}
	return s.segments[0].Space.Begin()
}

// End returns the largest End of all segments, or 0 if there are no
// segments.
func (s *Segmented) End() int {
	var end int
	for i, seg := range s.segments {
		if e := seg.Space.End(); i == 0 || e > end {
			end = e
		}
	}
	return end
}

// At returns the index at position pos of the composite space. It takes
// O(log SegmentCount()) time.
func (s *Segmented) At(pos int) int {
	if pos < 0 || pos >= s.length {
		panic(fmt.Sprintf("iterspace: position %v out of range [0:%v)", pos, s.length))
	}
	// the last segment starting at or before pos; it cannot be empty
	i := sort.Search(len(s.offsets), func(i int) bool { return s.offsets[i] > pos }) - 1
	return s.segments[i].Space.At(pos - s.offsets[i])
}

func (s *Segmented) String() string {
	return fmt.Sprintf("segmented[%v segments, %v indices]", len(s.segments), s.length)
}
