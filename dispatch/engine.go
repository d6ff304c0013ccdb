/*
Package dispatch provides the dispatch engine: it composes an execution
policy with an iteration space, runs the loop body on a target resource,
and drives the lifecycle of the reduction parameters of the loop.

Policies and spaces are paired through an explicit dispatch table; see
Table for the registered pairs. A pair without a handler is rejected with
a *CompositionError before any index is visited. Segmented spaces are
validated recursively: every segment must itself be a registered pair.

Every dispatch returns a completion token. On the host, a policy with a
trailing barrier returns a completed token, and reduction results can be
read immediately. A policy without a trailing barrier, or any loop on an
offload resource, returns a pending token, and reduction results must not
be read before the token has been waited for:

	sum := reduce.NewSum[float64]()
	ev, err := dispatch.Forall(resources.Host{}, policy.StaticPolicy(0).NoWait(), space,
		func(w forall.Worker, i int) { sum.Add(w, x[i]) }, sum)
	if err != nil {
		return err
	}
	ev.Wait()
	fmt.Println(sum.Get())
*/
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/exascience/forall"
	"github.com/exascience/forall/config"
	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/metrics"
	"github.com/exascience/forall/policy"
	"github.com/exascience/forall/reduce"
	"github.com/exascience/forall/resources"
	"github.com/exascience/forall/sequential"
)

const tracerName = "github.com/exascience/forall/dispatch"

// An Engine dispatches loops. It is safe for concurrent use.
type Engine struct {
	config   config.Config
	schedule policy.Policy
	logger   *slog.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
}

// An Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger of the engine. By default, an engine logs
// nothing, or debug records to standard error if the configuration
// enables debugging.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics collector of the engine.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithTracerProvider sets the tracer provider of the engine. By default,
// the global tracer provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

// New returns an engine for the given configuration.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{config: cfg, schedule: cfg.Schedule()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		if cfg.Debug {
			e.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		} else {
			e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e, nil
}

var defaultEngine = sync.OnceValue(func() *Engine {
	cfg, err := config.Load(os.Getenv("FORALL_CONFIG"))
	if err != nil {
		slog.Warn("forall: invalid configuration, using defaults", slog.Any("error", err))
		cfg = config.Default()
	}
	e, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return e
})

// Default returns the engine used by the package-level functions. It is
// configured from the file named by FORALL_CONFIG, if any, and from the
// environment, see package config.
func Default() *Engine { return defaultEngine() }

// Config returns the configuration of the engine.
func (e *Engine) Config() config.Config { return e.config }

// Host returns the host resource as configured for the engine.
func (e *Engine) Host() resources.Host {
	return resources.Host{Workers: e.config.NumWorkers, MaxWorkers: e.config.MaxWorkers, Logger: e.logger}
}

// Schedule resolves a runtime policy to the configured runtime schedule,
// keeping the barrier of p, and the inner policy of a nested policy
// likewise. Other policies are returned unchanged.
func (e *Engine) Schedule(p policy.Policy) policy.Policy {
	switch p.Kind() {
	case policy.Runtime:
		if p.Barrier() {
			return e.schedule.WithBarrier()
		}
		return e.schedule.NoWait()
	case policy.NestedTeam:
		inner, _ := p.Inner()
		return policy.NestedTeamPolicy(e.Schedule(inner))
	default:
		return p
	}
}

// Compose is like the package-level Compose, and additionally records
// rejected pairs.
func (e *Engine) Compose(p policy.Policy, s iterspace.Space) (*Plan, error) {
	pl, err := Compose(p, s)
	if err != nil {
		e.metrics.Rejected(p.Kind().String(), s.Kind().String())
		e.logger.Debug("composition rejected", slog.String("policy", p.String()), slog.String("space", s.Kind().String()), slog.Any("error", err))
	}
	return pl, err
}

// Forall runs body for every index of s under policy p on res, and returns
// its completion token. If res is nil, the engine's host resource is used.
// Forall is ForallContext with a background context.
func (e *Engine) Forall(res resources.Resource, p policy.Policy, s iterspace.Space, body forall.Body, params ...reduce.Param) (*resources.Event, error) {
	return e.ForallContext(context.Background(), res, p, s, body, params...)
}

// ForallContext is like Forall. The context is only used as the parent of
// the dispatch's trace span; loops cannot be canceled.
func (e *Engine) ForallContext(ctx context.Context, res resources.Resource, p policy.Policy, s iterspace.Space, body forall.Body, params ...reduce.Param) (*resources.Event, error) {
	pl, err := e.Compose(p, s)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, res, pl, body, params...)
}

// Run runs a composed plan. Every reduction parameter must be passed at
// most once, and must not be part of another dispatch that is in flight.
func (e *Engine) Run(ctx context.Context, res resources.Resource, pl *Plan, body forall.Body, params ...reduce.Param) (ev *resources.Event, err error) {
	if body == nil {
		panic("dispatch: nil loop body")
	}
	if res == nil {
		res = e.Host()
	}
	d := &run{
		engine: e,
		res:    res,
		body:   body,
		pack:   reduce.NewPack(e.config.MaxWorkers, params...),
	}
	d.ctx, d.span = e.tracer.Start(ctx, "forall.Dispatch", trace.WithAttributes(
		attribute.String("forall.policy", pl.policy.String()),
		attribute.String("forall.space", pl.space.Kind().String()),
		attribute.Int("forall.len", pl.space.Len()),
		attribute.String("forall.resource", res.Name()),
		attribute.Int("forall.params", d.pack.Len()),
	))
	start := time.Now()
	e.logger.Debug("dispatch", slog.String("plan", pl.String()), slog.String("resource", res.Name()), slog.Int("len", pl.space.Len()))

	defer func() {
		if pv := recover(); pv != nil {
			d.pack.Release()
			d.fail(pv)
			panic(pv)
		}
	}()

	join := d.start(pl)
	finish := func() {
		d.pack.Finish()
		d.span.SetAttributes(attribute.Int("forall.team", d.team))
		d.span.End()
		e.metrics.Dispatched(pl.policy.Kind().String(), pl.space.Kind().String(), res.Name(), d.team, time.Since(start))
	}

	if pl.policy.Barrier() && !res.Async() {
		join()
		finish()
		return resources.Completed(res), nil
	}
	ev = resources.NewEvent(res, func() {
		defer func() {
			if pv := recover(); pv != nil {
				d.pack.Release()
				d.fail(pv)
				panic(pv)
			}
		}()
		join()
		finish()
	})
	d.span.AddEvent("pending", trace.WithAttributes(attribute.String("forall.event", ev.ID().String())))
	return ev, nil
}

// run is the state of one dispatch.
type run struct {
	engine *Engine
	res    resources.Resource
	body   forall.Body
	pack   reduce.Pack
	team   int // team size of the top-level loop, or outer team of segments

	ctx  context.Context
	span trace.Span
}

func (d *run) fail(pv interface{}) {
	d.engine.metrics.Panicked()
	d.span.SetStatus(codes.Error, "loop body panicked")
	d.span.RecordError(fmt.Errorf("%v", pv))
	d.span.End()
}

// teamSize returns the size of the team that runs pl, never larger than
// the configured maximum.
func (d *run) teamSize(pl *Plan) int {
	n := pl.space.Len()
	if !pl.policy.Parallel() {
		return sequential.Team(n)
	}
	return min(d.res.TeamSize(n), d.engine.config.MaxWorkers)
}

// loop returns the loop for a non-segmented plan whose workers own the
// scratch slots from base.
func (d *run) loop(pl *Plan, team, base int) forall.Loop {
	p := d.engine.Schedule(pl.policy)
	if inner, ok := p.Inner(); ok {
		p = inner
	}
	return forall.Loop{Len: pl.space.Len(), Team: team, Policy: p, Base: base, Body: d.body}
}

// start initializes the reduction parameters and starts the top-level
// loop of pl.
func (d *run) start(pl *Plan) forall.Join {
	if pl.handler.run == nil {
		return d.segments(pl)
	}
	d.team = d.teamSize(pl)
	d.pack.Init(d.team)
	return d.leaf(pl, d.team, 0)
}

func (d *run) leaf(pl *Plan, team, base int) forall.Join {
	l := d.loop(pl, team, base)
	x := d.res.ExecutorFor(d.engine.Schedule(pl.policy).Kind())
	return pl.handler.run(x, l, pl.space)
}
