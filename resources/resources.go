// Package resources provides target resources, the places where a
// dispatched loop runs, and the completion token returned by every
// dispatch.
package resources

import (
	"log/slog"

	"github.com/exascience/forall"
	"github.com/exascience/forall/internal"
	"github.com/exascience/forall/offload"
	"github.com/exascience/forall/parallel"
	"github.com/exascience/forall/policy"
	"github.com/exascience/forall/sequential"
)

// A Resource is a target on which loops run.
type Resource interface {
	// Name identifies the resource in logs, traces and metrics.
	Name() string

	// TeamSize returns the number of workers for a loop over n indices,
	// never more than n.
	TeamSize(n int) int

	// ExecutorFor returns the executor for loops with policies of kind k.
	ExecutorFor(k policy.Kind) forall.Executor

	// Async reports whether loops on the resource complete
	// asynchronously even when their policy has a trailing barrier.
	Async() bool
}

/*
Host is the host resource: loops run on goroutine teams of the calling
process.

Workers is the team size for parallel policies, runtime.GOMAXPROCS(0) if
it is 0. MaxWorkers bounds the team size, internal.DefaultMaxWorkers if it
is 0. The zero Host is ready to use.
*/
type Host struct {
	Workers    int
	MaxWorkers int
	Logger     *slog.Logger
}

// Name returns "host".
func (Host) Name() string { return "host" }

// TeamSize returns the team size for a loop over n indices.
func (h Host) TeamSize(n int) int {
	maxWorkers := h.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = internal.DefaultMaxWorkers
	}
	return internal.ComputeTeamSize(0, n, h.Workers, maxWorkers)
}

// ExecutorFor returns the serial executor for serial loops, and the
// parallel executor for all others.
func (h Host) ExecutorFor(k policy.Kind) forall.Executor {
	if k == policy.Serial {
		return sequential.Executor{}
	}
	return &parallel.Executor{Logger: h.Logger}
}

// Async returns false.
func (Host) Async() bool { return false }

// Offload is a resource backed by an offload device. Every loop on an
// Offload resource returns a pending completion token.
type Offload struct {
	Device *offload.Device
}

// Name returns the name of the device.
func (o Offload) Name() string { return o.Device.Name() }

// TeamSize returns the team size for a loop over n indices.
func (o Offload) TeamSize(n int) int {
	return internal.ComputeTeamSize(0, n, o.Device.Workers(), internal.DefaultMaxWorkers)
}

// ExecutorFor returns the device, whatever the kind.
func (o Offload) ExecutorFor(policy.Kind) forall.Executor { return o.Device }

// Async returns true.
func (Offload) Async() bool { return true }

var (
	_ Resource = Host{}
	_ Resource = Offload{}
)
