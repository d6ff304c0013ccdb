// Package iterspace provides iteration spaces: ordered, finite domains of
// indices that a loop visits.
//
// All spaces support O(1) random access by position, so that executors can
// split work by position range rather than by walking a cursor. Segmented
// spaces combine other spaces, each segment carrying its own execution
// policy.
//
// Spaces are immutable once constructed. Dispatching a loop only borrows a
// space; the caller keeps ownership.
package iterspace

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidRange is returned for ranges with end < begin.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidStride is returned for strided ranges with a stride <= 0.
	ErrInvalidStride = errors.New("invalid stride")
)

// Kind identifies the variant of a Space.
type Kind int

const (
	// KindRange is a contiguous range.
	KindRange Kind = iota + 1

	// KindStrided is a range with a positive stride.
	KindStrided

	// KindIndirection is an explicit list of indices.
	KindIndirection

	// KindSegmented is a sequence of segments.
	KindSegmented
)

func (k Kind) String() string {
	switch k {
	case KindRange:
		return "range"
	case KindStrided:
		return "strided"
	case KindIndirection:
		return "indirection"
	case KindSegmented:
		return "segmented"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// A Space is an ordered, finite domain of indices.
type Space interface {
	// Kind returns the variant of the space.
	Kind() Kind

	// Len returns the number of indices in the space.
	Len() int

	// Begin returns the first index, or the lower bound of an empty range.
	Begin() int

	// End returns the exclusive upper bound of the space.
	End() int

	// At returns the index at position pos, with 0 <= pos < Len().
	At(pos int) int
}

// A Range is the contiguous range of indices from begin to end, including
// begin but excluding end.
type Range struct {
	begin, end int
}

// NewRange returns the range from begin to end, with begin <= end.
func NewRange(begin, end int) (Range, error) {
	if end < begin {
		return Range{}, fmt.Errorf("%w: %v:%v", ErrInvalidRange, begin, end)
	}
	return Range{begin: begin, end: end}, nil
}

// MustRange is like NewRange but panics on invalid input.
func MustRange(begin, end int) Range {
	r, err := NewRange(begin, end)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Range) Kind() Kind { return KindRange }
func (r Range) Len() int { return r.end - r.begin }
func (r Range) Begin() int { return r.begin }
func (r Range) End() int { return r.end }
func (r Range) At(pos int) int { return r.begin + pos }
func (r Range) String() string { return fmt.Sprintf("range[%v:%v)", r.begin, r.end) }

// A Strided range visits begin, begin+stride, begin+2*stride, ... while the
// index is below end.
type Strided struct {
	begin, end, stride int
}

// NewStrided returns a strided range, with begin <= end and stride > 0.
func NewStrided(begin, end, stride int) (Strided, error) {
	if stride <= 0 {
		return Strided{}, fmt.Errorf("%w: %v", ErrInvalidStride, stride)
	}
	if end < begin {
		return Strided{}, fmt.Errorf("%w: %v:%v", ErrInvalidRange, begin, end)
	}
	return Strided{begin: begin, end: end, stride: stride}, nil
}

// MustStrided is like NewStrided but panics on invalid input.
func MustStrided(begin, end, stride int) Strided {
	s, err := NewStrided(begin, end, stride)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Strided) Kind() Kind { return KindStrided }
func (s Strided) Begin() int { return s.begin }
func (s Strided) End() int { return s.end }
func (s Strided) Stride() int { return s.stride }

func (s Strided) Len() int {
	if s.end <= s.begin {
		return 0
	}
	return ((s.end - s.begin - 1) / s.stride) + 1
}

func (s Strided) At(pos int) int { return s.begin + pos*s.stride }

func (s Strided) String() string {
	return fmt.Sprintf("strided[%v:%v:%v)", s.begin, s.end, s.stride)
}

// An Indirection visits an explicit list of indices, in list order. The
// indices need not be sorted or unique.
type Indirection struct {
	indices []int
}

// NewIndirection returns an indirection over indices. The slice is
// borrowed, not copied, and must not be modified while the space is in use.
func NewIndirection(indices ...int) Indirection {
	return Indirection{indices: indices}
}

func (x Indirection) Kind() Kind { return KindIndirection }
func (x Indirection) Len() int { return len(x.indices) }
func (x Indirection) At(pos int) int { return x.indices[pos] }

// Indices returns the underlying index list.
func (x Indirection) Indices() []int { return x.indices }

// Begin returns the first index in list order, or 0 for an empty list.
func (x Indirection) Begin() int {
	if len(x.indices) == 0 {
		return 0
	}
	return x.indices[0]
}

// End returns one past the largest index, or 0 for an empty list.
func (x Indirection) End() int {
	if len(x.indices) == 0 {
		return 0
	}
	m := x.indices[0]
	for _, i := range x.indices[1:] {
		m = max(m, i)
	}
	return m + 1
}

func (x Indirection) String() string {
	return fmt.Sprintf("indirection[%v]", len(x.indices))
}
