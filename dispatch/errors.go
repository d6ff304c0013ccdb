package dispatch

import (
	"errors"
	"fmt"

	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
)

var (
	// ErrNoHandler means that no handler is registered for a policy and
	// an iteration space.
	ErrNoHandler = errors.New("no handler registered")

	// ErrUnknownSegment means that a segment of a segmented space has a
	// kind the segment dispatcher cannot drive.
	ErrUnknownSegment = errors.New("unknown segment kind")
)

// NoSegment is the Segment of a CompositionError for the top-level pair.
const NoSegment = -1

/*
A CompositionError reports a policy and iteration space that cannot be
composed. It is returned before any index is visited.

Err is ErrNoHandler or ErrUnknownSegment. Segment is the position of the
offending segment in a segmented space, or NoSegment.
*/
type CompositionError struct {
	Policy  policy.Policy
	Space   iterspace.Kind
	Segment int
	Err     error
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	if e.Segment != NoSegment {
		return fmt.Sprintf("dispatch: %v (policy=%v, space=%v, segment=%v)", e.Err, e.Policy, e.Space, e.Segment)
	}
	return fmt.Sprintf("dispatch: %v (policy=%v, space=%v)", e.Err, e.Policy, e.Space)
}

// Unwrap returns Err.
func (e *CompositionError) Unwrap() error { return e.Err }

// IsCompositionError reports whether err is, or wraps, a CompositionError.
func IsCompositionError(err error) bool {
	var ce *CompositionError
	return errors.As(err, &ce)
}
