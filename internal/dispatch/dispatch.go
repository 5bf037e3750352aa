// Package dispatch implements the top-level state machine that orchestrates
// route parsing, the global and per-server filter layers, the handler
// registry, and the cross-process forward decision for a single request.
package dispatch

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/gamemesh/internal/corelog"
	"github.com/stacklok/gamemesh/internal/corerr"
	"github.com/stacklok/gamemesh/internal/cron"
	"github.com/stacklok/gamemesh/internal/filter"
	"github.com/stacklok/gamemesh/internal/handler"
	"github.com/stacklok/gamemesh/internal/message"
	"github.com/stacklok/gamemesh/internal/metrics"
	"github.com/stacklok/gamemesh/internal/route"
	"github.com/stacklok/gamemesh/internal/serverconfig"
	"github.com/stacklok/gamemesh/internal/session"
	"github.com/stacklok/gamemesh/internal/sysrpc"
)

// State is the dispatch server's lifecycle state. Transitions are
// monotonic: INITED -> STARTED -> STOPPED, with no resurrection.
type State int32

const (
	StateInited State = iota
	StateStarted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInited:
		return "INITED"
	case StateStarted:
		return "STARTED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

var tracer = otel.Tracer("github.com/stacklok/gamemesh/internal/dispatch")

// Dispatcher is the per-process dispatch core: it owns the lifecycle state
// machine and orchestrates route parsing, the filter chains, the handler
// registry, and the cross-process forward decision for every request.
type Dispatcher struct {
	cfg serverconfig.Config

	state atomic.Int32

	globalChain *filter.Chain
	serverChain *filter.Chain

	handlers     *handler.Registry
	cronHandlers *cron.HandlerRegistry
	scheduler    *cron.Scheduler
	mesh         *sysrpc.Mesh
	metrics      *metrics.Collector

	cronEntries []cron.Entry
}

// New constructs a Dispatcher in the INITED state. handlers must already be
// populated by the caller's loading step (walking a conventional handlers
// directory is outside this core's concern); cronHandlers likewise.
func New(
	cfg serverconfig.Config,
	handlers *handler.Registry,
	cronHandlers *cron.HandlerRegistry,
	mesh *sysrpc.Mesh,
	mc *metrics.Collector,
) *Dispatcher {
	return &Dispatcher{
		cfg:          cfg,
		handlers:     handlers,
		cronHandlers: cronHandlers,
		mesh:         mesh,
		metrics:      mc,
	}
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Start transitions INITED -> STARTED: it builds the global and per-server
// filter chains from configuration, freezes them, marks the handler
// registry loaded, and loads (but does not arm) the configured crons. A
// second call from any later state is a no-op, making start idempotent.
func (d *Dispatcher) Start() error {
	if d.State() != StateInited {
		return nil
	}

	d.globalChain = filter.New()
	for _, f := range d.cfg.GlobalBeforeFilters {
		d.globalChain.AddBefore(f)
	}
	for _, f := range d.cfg.GlobalAfterFilters {
		d.globalChain.AddAfter(f)
	}
	d.globalChain.Freeze()

	d.serverChain = filter.New()
	for _, f := range d.cfg.BeforeFilters {
		d.serverChain.AddBefore(f)
	}
	for _, f := range d.cfg.AfterFilters {
		d.serverChain.AddAfter(f)
	}
	d.serverChain.Freeze()

	d.handlers.MarkLoaded()

	d.scheduler = cron.NewScheduler(d.cronHandlers, d.metrics)
	if d.cfg.Crons != nil {
		admitted := d.scheduler.Admit(d.cfg.Crons, d.cfg.ServerID)
		d.cronEntries = admitted
	}

	d.state.Store(int32(StateStarted))
	return nil
}

// AfterStart arms all crons loaded during Start. Separating this from Start
// avoids firing cron actions before the rest of the process is ready.
func (d *Dispatcher) AfterStart(ctx context.Context) error {
	if d.scheduler == nil {
		return nil
	}
	return d.scheduler.ArmAll(ctx)
}

// Stop transitions to STOPPED. Crons and in-flight requests are not
// forcibly cancelled: cancellation is the surrounding collaborator's
// responsibility.
func (d *Dispatcher) Stop() {
	d.state.Store(int32(StateStopped))
}

// Scheduler exposes the cron scheduler directly, for diagnostics.
func (d *Dispatcher) Scheduler() *cron.Scheduler {
	return d.scheduler
}

// AddCrons admits and immediately schedules entries for this process's
// server id, for runtime mutation by the host application.
func (d *Dispatcher) AddCrons(entries []cron.Entry) {
	if d.scheduler == nil {
		return
	}
	d.scheduler.AddCrons(entries, d.cfg.ServerID)
}

// RemoveCrons cancels the scheduled jobs for the given ids, for runtime
// mutation by the host application.
func (d *Dispatcher) RemoveCrons(ids []string) {
	if d.scheduler == nil {
		return
	}
	d.scheduler.RemoveCrons(ids)
}

// Stats returns a point-in-time snapshot of the dispatch counters, for
// admin and debug surfaces that want a Go value rather than a Prometheus
// scrape.
func (d *Dispatcher) Stats() metrics.Snapshot {
	if d.metrics == nil {
		return metrics.Snapshot{}
	}
	return d.metrics.Snapshot()
}

// Handle is the non-dispatched path: used when the caller (typically the
// RPC layer delivering an already-forwarded message) already knows the
// target is local. It runs no filters other than those the handler service
// itself embeds.
func (d *Dispatcher) Handle(ctx context.Context, msg *message.Message, sess session.Session) (any, error) {
	if d.State() != StateStarted {
		return nil, corerr.New(corerr.ErrNotStarted, "server not started", nil)
	}

	rr, ok := route.Parse(msg.Route)
	if !ok {
		return nil, corerr.New(corerr.ErrInvalidRoute, "unknown route "+msg.Route, nil)
	}

	resp, err := d.handlers.Handle(ctx, rr, msg, sess)
	if err != nil && d.cfg.ErrorHandler != nil {
		return d.cfg.ErrorHandler(ctx, err, msg, sess, resp)
	}
	return resp, err
}

// GlobalHandle is the full dispatch path: global before filters, then
// either a cross-process forward or a local handle (per-server before
// filters, handler, per-server after filters), then the response, with
// global after filters run fire-and-forget once the response is already
// on its way to the caller.
func (d *Dispatcher) GlobalHandle(ctx context.Context, msg *message.Message, sess session.Session) (any, error) {
	if d.State() != StateStarted {
		return nil, corerr.New(corerr.ErrNotStarted, "server not started", nil)
	}

	rr, ok := route.Parse(msg.Route)
	if !ok {
		return nil, corerr.New(corerr.ErrInvalidRoute, "unknown route "+msg.Route, nil)
	}

	ctx, span := tracer.Start(ctx, "dispatch.globalHandle",
		trace.WithAttributes(attribute.String("gamemesh.route", msg.Route)))
	defer span.End()

	resp, err := d.globalChain.RunBefore(ctx, msg, sess)

	local := rr.ServerType == d.cfg.ServerType

	switch {
	case err != nil:
		// Global before-filter error: routed through the error handler
		// hook, never reaches the forward path or the handler.
		resp, err = d.applyErrorHandler(ctx, err, msg, sess, resp)
		if local {
			err = d.serverChain.RunAfter(ctx, err, msg, sess, resp)
		}

	case !local:
		resp, err = d.forward(ctx, rr.ServerType, msg, sess)
		if d.metrics != nil {
			d.metrics.Forwarded.Inc()
		}
		// Forwarding errors bypass filters and the error handler
		// entirely and reach the caller directly.

	default:
		resp, err = d.serverChain.RunBefore(ctx, msg, sess)
		if err == nil {
			resp, err = d.handlers.Handle(ctx, rr, msg, sess)
			if d.metrics != nil {
				d.metrics.Handled.Inc()
			}
		}
		if err != nil {
			resp, err = d.applyErrorHandler(ctx, err, msg, sess, resp)
		}
		err = d.serverChain.RunAfter(ctx, err, msg, sess, resp)
	}

	if err != nil {
		span.RecordError(err)
		if d.metrics != nil {
			d.metrics.Errored.WithLabelValues(stage(local)).Inc()
		}
	}

	// Respond to the caller first, then run global afters fire-and-forget:
	// their errors do not reach the caller.
	go d.runGlobalAfterFireAndForget(msg, sess, resp, err)

	return resp, err
}

func stage(local bool) string {
	if local {
		return "local"
	}
	return "forward"
}

func (d *Dispatcher) applyErrorHandler(ctx context.Context, err error, msg *message.Message, sess session.Session, resp any) (any, error) {
	if d.cfg.GlobalErrorHandler == nil {
		corelog.Errorf("unhandled dispatch error for route %s: %v", msg.Route, err)
		return resp, err
	}
	return d.cfg.GlobalErrorHandler(ctx, err, msg, sess, resp)
}

// runGlobalAfterFireAndForget runs the global after chain on a background
// context once the response has already been handed to the caller. Its
// errors are logged, never returned: global after filters are
// fire-and-forget post-response.
func (d *Dispatcher) runGlobalAfterFireAndForget(msg *message.Message, sess session.Session, resp any, err error) {
	if afterErr := d.globalChain.RunAfter(context.Background(), err, msg, sess, resp); afterErr != nil {
		corelog.Errorf("global after filter error for route %s (swallowed): %v", msg.Route, afterErr)
	}
}

// forward invokes the external RPC facade. sysrpc.Mesh.Forward is
// synchronous from this call's point of view, so there is no risk of the
// response being reported back to the caller more than once.
func (d *Dispatcher) forward(ctx context.Context, serverType string, msg *message.Message, sess session.Session) (any, error) {
	resp, err := d.mesh.Forward(ctx, serverType, msg, sess.Export())
	if err != nil {
		corelog.Errorf("forwarding route %s to %s failed: %v", msg.Route, serverType, err)
		return resp, corerr.New(corerr.ErrForward, "forwarding to "+serverType, err)
	}
	return resp, nil
}
