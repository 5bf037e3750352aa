package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/gamemesh/internal/message"
	"github.com/stacklok/gamemesh/internal/route"
	"github.com/stacklok/gamemesh/internal/session"
)

type fakeSession struct{}

func (fakeSession) ID() string             { return "s1" }
func (fakeSession) Export() session.Export { return session.Export{ID: "s1"} }

func TestRegistry_HandleFound(t *testing.T) {
	r := NewRegistry()
	r.Register("player", "login", func(_ context.Context, msg *message.Message, _ session.Session) (any, error) {
		return "ok:" + msg.Route, nil
	})
	r.MarkLoaded()

	rr := &route.Record{Route: "area.player.login", ServerType: "area", Handler: "player", Method: "login"}
	resp, err := r.Handle(context.Background(), rr, &message.Message{Route: rr.Route}, fakeSession{})
	require.NoError(t, err)
	assert.Equal(t, "ok:area.player.login", resp)
}

func TestRegistry_HandleNotFound(t *testing.T) {
	r := NewRegistry()
	rr := &route.Record{Route: "area.player.login", ServerType: "area", Handler: "player", Method: "login"}
	_, err := r.Handle(context.Background(), rr, &message.Message{}, fakeSession{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler_not_found")
}
