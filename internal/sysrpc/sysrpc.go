// Package sysrpc defines the boundary contract to the external RPC mesh
// that forwards a message to a peer server type. The wire transport itself
// lives outside this package; it only shapes the call and adds tracing
// around it.
package sysrpc

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/gamemesh/internal/message"
	"github.com/stacklok/gamemesh/internal/session"
)

// Facade is sysrpc[serverType].msgRemote: it forwards a message to whatever
// process services serverType and returns the reply (or an error) once the
// RPC completes.
type Facade interface {
	ForwardMessage(ctx context.Context, msg *message.Message, exp session.Export) (resp any, err error)
}

var tracer = otel.Tracer("github.com/stacklok/gamemesh/internal/sysrpc")

// Mesh holds one Facade per peer server type and forwards calls to
// whichever one the target route names.
type Mesh struct {
	mu      sync.RWMutex
	facades map[string]Facade
}

// NewMesh returns an empty Mesh.
func NewMesh() *Mesh {
	return &Mesh{facades: make(map[string]Facade)}
}

// Register binds a Facade to a peer server type.
func (m *Mesh) Register(serverType string, f Facade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facades[serverType] = f
}

// Forward dispatches to sysrpc[serverType].msgRemote.forwardMessage,
// wrapping the call in a child span so a forwarded hop shows up in traces
// alongside the originating request.
func (m *Mesh) Forward(ctx context.Context, serverType string, msg *message.Message, exp session.Export) (any, error) {
	m.mu.RLock()
	f, ok := m.facades[serverType]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("sysrpc: no facade registered for server type %q", serverType)
	}

	ctx, span := tracer.Start(ctx, "sysrpc.forwardMessage",
		trace.WithAttributes(
			attribute.String("gamemesh.route", msg.Route),
			attribute.String("gamemesh.target_server_type", serverType),
		))
	defer span.End()

	resp, err := f.ForwardMessage(ctx, msg, exp)
	if err != nil {
		span.RecordError(err)
	}
	return resp, err
}
