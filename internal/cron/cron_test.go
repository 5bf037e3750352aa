package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/gamemesh/internal/metrics"
)

func newTestCollector() *metrics.Collector {
	return metrics.NewCollector(prometheus.NewRegistry())
}

func TestParseConfig_ServerIDPresenceDistinguished(t *testing.T) {
	data := []byte(`{
		"area": [
			{"id": "1", "time": "* * * * * *", "action": "daily.tick"},
			{"id": "2", "time": "0 0 * * * *", "action": "hourly.tick", "serverId": ""},
			{"id": "3", "time": "0 0 * * * *", "action": "hourly.tick", "serverId": "area-1"}
		]
	}`)

	entries, err := parseConfig(data, "area")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.False(t, entries[0].HasServerID)
	assert.True(t, entries[1].HasServerID)
	assert.Equal(t, "", entries[1].ServerID)
	assert.True(t, entries[2].HasServerID)
	assert.Equal(t, "area-1", entries[2].ServerID)
}

func TestParseConfig_UnknownServerType(t *testing.T) {
	data := []byte(`{"area": []}`)
	entries, err := parseConfig(data, "chat")
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestScheduler_AdmitDeduplicatesByID(t *testing.T) {
	s := NewScheduler(NewHandlerRegistry(), newTestCollector())
	entries := []Entry{
		{ID: "1", Time: "* * * * * *", Action: "daily.tick"},
		{ID: "1", Time: "0 0 * * * *", Action: "hourly.tick"},
	}

	admitted := s.Admit(entries, "")
	require.Len(t, admitted, 1)
	assert.Equal(t, "daily.tick", admitted[0].Action)
}

func TestScheduler_AdmitRespectsServerID(t *testing.T) {
	s := NewScheduler(NewHandlerRegistry(), newTestCollector())
	entries := []Entry{
		{ID: "1", Time: "* * * * * *", Action: "daily.tick", HasServerID: true, ServerID: "area-2"},
		{ID: "2", Time: "* * * * * *", Action: "daily.tick"},
	}

	admitted := s.Admit(entries, "area-1")
	require.Len(t, admitted, 1)
	assert.Equal(t, "2", admitted[0].ID)
}

func TestScheduler_AddCronsThenRemoveCrons(t *testing.T) {
	var fired int32
	handlers := NewHandlerRegistry()
	handlers.Register("daily", "tick", func(context.Context) error {
		atomic.AddInt32(&fired, 1)
		return nil
	})

	s := NewScheduler(handlers, newTestCollector())
	s.AddCrons([]Entry{{ID: "1", Time: "* * * * * *", Action: "daily.tick"}}, "")
	require.Len(t, s.JobIDs(), 1)

	s.RemoveCrons([]string{"1"})
	assert.Len(t, s.JobIDs(), 0)
}

func TestScheduler_RemoveCronsUnknownIDWarnsOnly(t *testing.T) {
	s := NewScheduler(NewHandlerRegistry(), newTestCollector())
	// Must not panic.
	s.RemoveCrons([]string{"does-not-exist"})
}

func TestScheduler_MissingHandlerSkipsSchedule(t *testing.T) {
	mc := newTestCollector()
	s := NewScheduler(NewHandlerRegistry(), mc)
	s.AddCrons([]Entry{{ID: "1", Time: "* * * * * *", Action: "missing.tick"}}, "")
	assert.Len(t, s.JobIDs(), 0)
	assert.Equal(t, float64(1), testutil.ToFloat64(mc.CronSkipped.WithLabelValues("no_handler")))
}

func TestScheduler_MalformedActionSkipsSchedule(t *testing.T) {
	mc := newTestCollector()
	s := NewScheduler(NewHandlerRegistry(), mc)
	s.AddCrons([]Entry{{ID: "1", Time: "* * * * * *", Action: "notdotted"}}, "")
	assert.Len(t, s.JobIDs(), 0)
	assert.Equal(t, float64(1), testutil.ToFloat64(mc.CronSkipped.WithLabelValues("malformed_action")))
}

func TestScheduler_ArmAllFires(t *testing.T) {
	done := make(chan struct{}, 1)
	handlers := NewHandlerRegistry()
	handlers.Register("daily", "tick", func(context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})

	mc := newTestCollector()
	s := NewScheduler(handlers, mc)
	s.Admit([]Entry{{ID: "1", Time: "* * * * * *", Action: "daily.tick"}}, "")
	require.NoError(t, s.ArmAll(context.Background()))
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("cron did not fire within 3s")
	}

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(mc.CronFired) >= 1
	}, time.Second, 10*time.Millisecond)
}
