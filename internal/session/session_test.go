package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendSession_SetGetDoesNotTouchFrontend(t *testing.T) {
	reg := NewRegistry()
	fs := NewFrontendSession("frontend-1", nil)
	reg.Put(fs)

	bs := NewBackendSession(fs.Export(), &LocalFrontendRPC{Registry: reg})
	bs.Set("score", "42")

	v, ok := bs.Get("score")
	require.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok = fs.Get("score")
	assert.False(t, ok, "frontend must be unchanged until an explicit push")
}

func TestBackendSession_Push(t *testing.T) {
	reg := NewRegistry()
	fs := NewFrontendSession("frontend-1", nil)
	reg.Put(fs)

	bs := NewBackendSession(fs.Export(), &LocalFrontendRPC{Registry: reg})
	bs.Set("score", "42")

	require.NoError(t, bs.Push(context.Background(), "score"))

	v, ok := fs.Get("score")
	require.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestBackendSession_PushAll(t *testing.T) {
	reg := NewRegistry()
	fs := NewFrontendSession("frontend-1", nil)
	reg.Put(fs)

	bs := NewBackendSession(fs.Export(), &LocalFrontendRPC{Registry: reg})
	bs.Set("score", "42")
	bs.Set("level", "3")

	require.NoError(t, bs.PushAll(context.Background()))

	v, _ := fs.Get("score")
	assert.Equal(t, "42", v)
	v, _ = fs.Get("level")
	assert.Equal(t, "3", v)
}

func TestBackendSession_BindUnbind(t *testing.T) {
	reg := NewRegistry()
	fs := NewFrontendSession("frontend-1", nil)
	reg.Put(fs)

	bs := NewBackendSession(fs.Export(), &LocalFrontendRPC{Registry: reg})
	require.NoError(t, bs.Bind(context.Background(), "user-1"))
	assert.Equal(t, "user-1", fs.UID())
	assert.Equal(t, "user-1", bs.UID())

	require.NoError(t, bs.Unbind(context.Background()))
	assert.Equal(t, "", fs.UID())
}

func TestBackendSession_ExportRoundTrip(t *testing.T) {
	reg := NewRegistry()
	fs := NewFrontendSession("frontend-1", nil)
	fs.Bind("user-1")
	fs.Set("k", "v")
	reg.Put(fs)

	bs := NewBackendSession(fs.Export(), &LocalFrontendRPC{Registry: reg})
	exp := bs.Export()

	bs2 := NewBackendSession(exp, &LocalFrontendRPC{Registry: reg})
	assert.Equal(t, bs.ID(), bs2.ID())
	assert.Equal(t, bs.FrontendID(), bs2.FrontendID())
	assert.Equal(t, bs.UID(), bs2.UID())
	v1, _ := bs.Get("k")
	v2, _ := bs2.Get("k")
	assert.Equal(t, v1, v2)
}

func TestBackendSession_PushUnknownSession(t *testing.T) {
	reg := NewRegistry()
	fs := NewFrontendSession("frontend-1", nil)
	exp := fs.Export()
	// Not registered: simulates the frontend having dropped the session.
	bs := NewBackendSession(exp, &LocalFrontendRPC{Registry: reg})
	bs.Set("score", "1")
	err := bs.Push(context.Background(), "score")
	assert.Error(t, err)
}
