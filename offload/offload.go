/*
Package offload provides an asynchronous executor that models an offload
target: loops are submitted to an in-order stream, and run on the
device's own team of goroutines while the submitting goroutine continues.

Every Execute method returns immediately. The returned Join waits for the
loop, and must be called before the results of the loop are used.
Loops submitted to the same device complete in submission order.
*/
package offload

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/exascience/forall"
	"github.com/exascience/forall/internal"
	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/parallel"
	"github.com/exascience/forall/policy"
)

// ErrClosed is the panic value when a loop is submitted to a closed device.
var ErrClosed = errors.New("offload: device is closed")

// streamDepth is the number of loops that can be queued before Submit blocks.
const streamDepth = 64

// A Device is an offload target with its own worker team and stream.
type Device struct {
	name    string
	workers int
	host    parallel.Executor

	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup
}

// NewDevice returns a device with the given name and number of workers,
// and starts its stream. If workers is <= 0, runtime.GOMAXPROCS(0) is used.
// Runtime-policy loops use the runtime schedule, and debug records go to
// logger, which may be nil.
func NewDevice(name string, workers int, runtimeSchedule policy.Policy, logger *slog.Logger) *Device {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	d := &Device{
		name:    name,
		workers: min(workers, internal.DefaultMaxWorkers),
		host:    parallel.Executor{Runtime: runtimeSchedule, Logger: logger},
		tasks:   make(chan func(), streamDepth),
	}
	go d.stream()
	return d
}

func (d *Device) stream() {
	for task := range d.tasks {
		task()
		d.wg.Done()
	}
}

// Name returns the name of the device.
func (d *Device) Name() string { return d.name }

// Workers returns the size of the device's team.
func (d *Device) Workers() int { return d.workers }

// Schedule resolves a runtime policy to the device's runtime schedule.
func (d *Device) Schedule(p policy.Policy) policy.Policy { return d.host.Schedule(p) }

// Submit appends task to the stream and returns a join that waits for it.
// A panic in task is recovered on the stream and re-raised by the join.
func (d *Device) Submit(task func()) forall.Join {
	done := make(chan struct{})
	var pv interface{}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		panic(ErrClosed)
	}
	d.wg.Add(1)
	d.tasks <- func() {
		defer close(done)
		defer func() {
			pv = internal.WrapPanic(recover())
		}()
		task()
	}
	return func() {
		<-done
		if pv != nil {
			panic(pv)
		}
	}
}

// Synchronize waits for all loops submitted so far.
func (d *Device) Synchronize() {
	d.wg.Wait()
}

// Close waits for the stream to drain and stops it. Close is idempotent.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.tasks)
	d.wg.Wait()
}

// on the device, loops always keep their barrier; asynchrony comes from
// the stream
func barrier(l forall.Loop) forall.Loop {
	l.Policy = l.Policy.WithBarrier()
	return l
}

// ExecuteRange submits a loop over begin, begin+stride, ...
func (d *Device) ExecuteRange(l forall.Loop, begin, stride int) forall.Join {
	l = barrier(l)
	return d.Submit(func() { d.host.ExecuteRange(l, begin, stride)() })
}

// ExecuteIndirect submits a loop over indices[0:l.Len].
func (d *Device) ExecuteIndirect(l forall.Loop, indices []int) forall.Join {
	l = barrier(l)
	return d.Submit(func() { d.host.ExecuteIndirect(l, indices)() })
}

// ExecuteNested submits a nested-team loop over s.
func (d *Device) ExecuteNested(l forall.Loop, s iterspace.Space) forall.Join {
	l = barrier(l)
	return d.Submit(func() { d.host.ExecuteNested(l, s)() })
}

var _ forall.Executor = (*Device)(nil)
