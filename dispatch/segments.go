package dispatch

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/exascience/forall"
	"github.com/exascience/forall/internal"
	"github.com/exascience/forall/parallel"
	"github.com/exascience/forall/sequential"
)

/*
segments drives a segmented plan.

The segments are shared among an outer team with the plan's policy: one
worker for the serial policy, a host team otherwise. Each outer worker o
owns a block of scratch slots, large enough for the largest segment team.
For every segment it runs, the outer worker gives the block fresh slots,
runs the segment with its own plan on the resource, waits for it even if
the segment's policy has no trailing barrier, and folds the block into its
accumulator. The accumulators are merged when the dispatch finishes.

On an asynchronous resource the whole segment loop runs in the
background, and the returned join waits for it.
*/
func (d *run) segments(pl *Plan) forall.Join {
	n := len(pl.segments)
	inner := 0
	for _, sub := range pl.segments {
		inner = max(inner, d.teamSize(sub))
	}
	outer := 0
	if n > 0 {
		if pl.policy.Parallel() {
			outer = min(d.res.TeamSize(n), d.engine.config.MaxWorkers)
		} else {
			outer = 1
		}
	}
	d.team = outer
	d.pack.InitSegments(outer, inner)

	segment := func(o, i int) {
		sub := pl.segments[i]
		_, span := d.engine.tracer.Start(d.ctx, "forall.Segment", trace.WithAttributes(
			attribute.Int("forall.segment", i),
			attribute.String("forall.policy", sub.policy.String()),
			attribute.String("forall.space", sub.space.Kind().String()),
			attribute.Int("forall.len", sub.space.Len()),
		))
		defer span.End()
		d.pack.ResetBlock(o)
		d.leaf(sub, d.teamSize(sub), o*inner)()
		d.pack.FoldBlock(o)
	}

	var x forall.Executor = sequential.Executor{}
	if pl.policy.Parallel() {
		x = &parallel.Executor{Logger: d.engine.logger}
	}
	l := forall.Loop{Len: n, Team: outer, Policy: pl.policy, Body: func(w forall.Worker, i int) {
		segment(w.ID(), i)
	}}
	if !d.res.Async() {
		return x.ExecuteRange(l, 0, 1)
	}
	return background(func() { x.ExecuteRange(l, 0, 1)() })
}

// background runs f in its own goroutine, and returns a join for it.
func background(f func()) forall.Join {
	done := make(chan struct{})
	var pv interface{}
	go func() {
		defer close(done)
		defer func() {
			pv = internal.WrapPanic(recover())
		}()
		f()
	}()
	return func() {
		<-done
		if pv != nil {
			panic(pv)
		}
	}
}
