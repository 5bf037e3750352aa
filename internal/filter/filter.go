// Package filter implements the bidirectional, short-circuitable,
// error-aware filter chain that runs before and after every handler
// invocation.
package filter

import (
	"context"

	"github.com/stacklok/gamemesh/internal/corelog"
	"github.com/stacklok/gamemesh/internal/corerr"
	"github.com/stacklok/gamemesh/internal/message"
	"github.com/stacklok/gamemesh/internal/session"
)

// BeforeFunc is the plain-callable form of a before filter.
type BeforeFunc func(ctx context.Context, msg *message.Message, sess session.Session) (resp any, err error)

// BeforeHandler is the record form of a before filter: an object exposing a
// Before method with the same signature as BeforeFunc.
type BeforeHandler interface {
	Before(ctx context.Context, msg *message.Message, sess session.Session) (resp any, err error)
}

// AfterFunc is the plain-callable form of an after filter. Only the error it
// returns propagates to the next stage.
type AfterFunc func(ctx context.Context, err error, msg *message.Message, sess session.Session, resp any) error

// AfterHandler is the record form of an after filter.
type AfterHandler interface {
	After(ctx context.Context, err error, msg *message.Message, sess session.Session, resp any) error
}

// Chain is a pair of ordered filter lists. Befores append at the tail;
// afters prepend at the head, so the most recently registered after runs
// first. Chain is safe for concurrent reads once Freeze has been called;
// registration before that must be serialised by the caller, per the
// invariant that chain contents are immutable once the server is STARTED.
type Chain struct {
	befores []any
	afters  []any
	frozen  bool
}

// New returns an empty Chain.
func New() *Chain {
	return &Chain{}
}

// AddBefore appends f to the before chain. f must be a BeforeFunc, a
// function of the same underlying signature, or a BeforeHandler; shape is
// not validated until the chain runs, matching the duck-typed contract this
// component implements.
func (c *Chain) AddBefore(f any) {
	if c.frozen {
		corelog.Warn("AddBefore called on a frozen filter chain; ignoring")
		return
	}
	c.befores = append(c.befores, f)
}

// AddAfter prepends f to the after chain, so it runs before any
// previously-registered after filter.
func (c *Chain) AddAfter(f any) {
	if c.frozen {
		corelog.Warn("AddAfter called on a frozen filter chain; ignoring")
		return
	}
	c.afters = append([]any{f}, c.afters...)
}

// Freeze snapshots the chain's contents, making subsequent registration a
// no-op. Called at the INITED -> STARTED transition.
func (c *Chain) Freeze() {
	c.frozen = true
}

func invokeBefore(ctx context.Context, f any, msg *message.Message, sess session.Session) (any, error, bool) {
	switch v := f.(type) {
	case BeforeFunc:
		resp, err := v(ctx, msg, sess)
		return resp, err, true
	case func(context.Context, *message.Message, session.Session) (any, error):
		resp, err := v(ctx, msg, sess)
		return resp, err, true
	case BeforeHandler:
		resp, err := v.Before(ctx, msg, sess)
		return resp, err, true
	default:
		return nil, nil, false
	}
}

func invokeAfter(ctx context.Context, f any, curErr error, msg *message.Message, sess session.Session, resp any) (error, bool) {
	switch v := f.(type) {
	case AfterFunc:
		return v(ctx, curErr, msg, sess, resp), true
	case func(context.Context, error, *message.Message, session.Session, any) error:
		return v(ctx, curErr, msg, sess, resp), true
	case AfterHandler:
		return v.After(ctx, curErr, msg, sess, resp), true
	default:
		return nil, false
	}
}

// RunBefore walks the before chain in registration order. A filter that
// returns a non-nil error short-circuits the remainder of the chain; its
// (err, resp) become the result. A malformed filter entry is an invalid
// filter error: fatal to this call, logged at ERROR, but it does not affect
// the server.
func (c *Chain) RunBefore(ctx context.Context, msg *message.Message, sess session.Session) (any, error) {
	var resp any
	for _, f := range c.befores {
		r, err, ok := invokeBefore(ctx, f, msg, sess)
		if !ok {
			ferr := corerr.New(corerr.ErrInvalidFilter, "before filter is neither a callable nor a Before method", nil)
			corelog.Errorf("invalid before filter: %v", ferr)
			return nil, ferr
		}
		resp = r
		if err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// RunAfter walks the after chain in registration order (i.e. most recently
// registered first, since AddAfter prepends). Every after filter runs
// regardless of whether a prior one returned an error: afters are cleanup
// handlers and are guaranteed to run. Each filter sees the error produced by
// the previous stage and may replace it by returning its own.
func (c *Chain) RunAfter(ctx context.Context, inErr error, msg *message.Message, sess session.Session, resp any) error {
	curErr := inErr
	for _, f := range c.afters {
		newErr, ok := invokeAfter(ctx, f, curErr, msg, sess, resp)
		if !ok {
			ferr := corerr.New(corerr.ErrInvalidFilter, "after filter is neither a callable nor an After method", nil)
			corelog.Errorf("invalid after filter: %v", ferr)
			curErr = ferr
			break
		}
		curErr = newErr
	}
	return curErr
}
