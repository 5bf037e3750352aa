package sysrpc

import (
	"context"

	"github.com/stacklok/gamemesh/internal/handler"
	"github.com/stacklok/gamemesh/internal/message"
	"github.com/stacklok/gamemesh/internal/route"
	"github.com/stacklok/gamemesh/internal/session"
)

// LocalFacade implements Facade by invoking a handler.Registry directly,
// in-process. It stands in for a real network transport in tests and in
// single-process deployments where "forwarding" to another server type
// still happens to be reachable without leaving the process.
type LocalFacade struct {
	Handlers *handler.Registry
	RPC      session.FrontendRPC
}

var _ Facade = (*LocalFacade)(nil)

// ForwardMessage implements Facade.
func (l *LocalFacade) ForwardMessage(ctx context.Context, msg *message.Message, exp session.Export) (any, error) {
	rr, ok := route.Parse(msg.Route)
	if !ok {
		return nil, &routeError{route: msg.Route}
	}
	sess := session.NewBackendSession(exp, l.RPC)
	return l.Handlers.Handle(ctx, rr, msg, sess)
}

type routeError struct{ route string }

func (e *routeError) Error() string { return "sysrpc: invalid route " + e.route }
