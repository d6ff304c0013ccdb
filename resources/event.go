package resources

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

/*
An Event is the completion token of a dispatch.

A completed event is returned when all indices have been visited and all
reduction parameters have been resolved by the time the dispatch returns.
Otherwise the event is pending: Wait blocks until the loop has completed,
and then resolves the reduction parameters. Reduction results must not be
read before Wait has returned.

If the loop panicked, Wait panics with the recovered panic value, every
time it is called.
*/
type Event struct {
	id       uuid.UUID
	resource Resource

	once     sync.Once
	complete func()
	done     atomic.Bool
	pv       interface{}
}

// NewEvent returns a pending event for a loop on res. The first call to
// Wait calls complete, which must wait for the loop and then resolve its
// reduction parameters.
func NewEvent(res Resource, complete func()) *Event {
	return &Event{id: uuid.New(), resource: res, complete: complete}
}

// Completed returns an event for a loop on res that has already completed.
func Completed(res Resource) *Event {
	e := &Event{id: uuid.New(), resource: res}
	e.once.Do(func() {})
	e.done.Store(true)
	return e
}

// ID returns the unique identifier of the event.
func (e *Event) ID() uuid.UUID { return e.id }

// Resource returns the resource the loop ran on.
func (e *Event) Resource() Resource { return e.resource }

// Done reports whether the event has completed, either because it was
// returned completed or because Wait has returned.
func (e *Event) Done() bool { return e.done.Load() }

// Wait blocks until the loop has completed and its reduction parameters
// have been resolved. Calling Wait more than once is allowed.
func (e *Event) Wait() {
	e.once.Do(func() {
		defer func() {
			e.pv = recover()
			e.done.Store(true)
		}()
		e.complete()
	})
	if e.pv != nil {
		panic(e.pv)
	}
}
