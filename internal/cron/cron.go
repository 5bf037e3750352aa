// Package cron implements the time-triggered scheduler that synthesises
// handler-like invocations from a cron configuration.
package cron

import (
	"context"
	"fmt"
	"strings"
	"sync"

	robfigcron "github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/gamemesh/internal/corelog"
	"github.com/stacklok/gamemesh/internal/corerr"
	"github.com/stacklok/gamemesh/internal/metrics"
)

// Func is a cron action: a parameterless, session-less invocation.
type Func func(ctx context.Context) error

// HandlerRegistry is a {handlerName -> {methodName -> Func}} map exposing
// the parameterless cron contract rather than handler.Func. It does no
// directory loading of its own: the host application fills it via Register
// before handing it to the dispatch server.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Func
}

// NewHandlerRegistry returns an empty HandlerRegistry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]map[string]Func)}
}

// Register binds a cron-callable method.
func (h *HandlerRegistry) Register(handlerName, method string, fn Func) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handlers[handlerName] == nil {
		h.handlers[handlerName] = make(map[string]Func)
	}
	h.handlers[handlerName][method] = fn
}

// Lookup returns the Func bound to handlerName.method.
func (h *HandlerRegistry) Lookup(handlerName, method string) (Func, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.handlers[handlerName]
	if !ok {
		return nil, false
	}
	fn, ok := m[method]
	return fn, ok
}

// Scheduler owns the admitted cron list and the JobTable of scheduler
// handles. It is exclusively owned by the dispatch server.
type Scheduler struct {
	mu       sync.Mutex
	engine   *robfigcron.Cron
	handlers *HandlerRegistry
	metrics  *metrics.Collector

	admitted map[string]Entry              // id -> admitted Entry
	jobs     map[string]robfigcron.EntryID // id -> scheduler handle (JobTable)
	armed    bool
}

// NewScheduler creates a Scheduler bound to the given cron-handler registry.
// The underlying robfig/cron engine runs its own goroutine once Start is
// called (by afterStart, per the dispatch server's lifecycle). mc may be
// nil, in which case cron fires/skips are simply not counted.
func NewScheduler(handlers *HandlerRegistry, mc *metrics.Collector) *Scheduler {
	return &Scheduler{
		engine:   robfigcron.New(robfigcron.WithSeconds()),
		handlers: handlers,
		metrics:  mc,
		admitted: make(map[string]Entry),
		jobs:     make(map[string]robfigcron.EntryID),
	}
}

func (s *Scheduler) skipped(reason string) {
	if s.metrics != nil {
		s.metrics.CronSkipped.WithLabelValues(reason).Inc()
	}
}

// Admit filters entries down to the ones this process should run (matching
// server type has already been applied by the caller via LoadConfig) and
// rejects duplicates by id, keeping the first admission and logging a
// warning for the rest.
func (s *Scheduler) Admit(entries []Entry, serverID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var admitted []Entry
	for _, e := range entries {
		if e.HasServerID && e.ServerID != serverID {
			continue
		}
		if _, dup := s.admitted[e.ID]; dup {
			corelog.Warnf("cron id %q already admitted; dropping duplicate", e.ID)
			continue
		}
		s.admitted[e.ID] = e
		admitted = append(admitted, e)
	}
	return admitted
}

// schedule registers a single admitted entry with the scheduling primitive.
// Malformed actions, missing handlers, missing methods, and time expressions
// the engine rejects leave the entry unscheduled and are returned as ErrCron
// errors, which the callers log before moving on: a bad cron entry must not
// prevent the rest of the configuration from loading.
func (s *Scheduler) schedule(e Entry) error {
	handlerName, method, ok := splitAction(e.Action)
	if !ok {
		s.skipped("malformed_action")
		return corerr.New(corerr.ErrCron, fmt.Sprintf("cron %s: malformed action %q", e.ID, e.Action), nil)
	}

	fn, ok := s.handlers.Lookup(handlerName, method)
	if !ok {
		s.skipped("no_handler")
		return corerr.New(corerr.ErrCron, fmt.Sprintf("cron %s: no handler for %s.%s", e.ID, handlerName, method), nil)
	}

	entryID, err := s.engine.AddFunc(e.Time, func() {
		if s.metrics != nil {
			s.metrics.CronFired.Inc()
		}
		if err := fn(context.Background()); err != nil {
			corelog.Errorf("cron %s (%s) fired with error: %v", e.ID, e.Action, err)
		}
	})
	if err != nil {
		s.skipped("schedule_error")
		return corerr.New(corerr.ErrCron, fmt.Sprintf("cron %s: scheduling %q", e.ID, e.Time), err)
	}

	s.mu.Lock()
	s.jobs[e.ID] = entryID
	s.mu.Unlock()
	return nil
}

func splitAction(action string) (handlerName, method string, ok bool) {
	i := strings.IndexByte(action, '.')
	if i < 0 {
		return "", "", false
	}
	handlerName, method = action[:i], action[i+1:]
	if handlerName == "" || method == "" {
		return "", "", false
	}
	return handlerName, method, true
}

// ArmAll schedules every admitted cron concurrently, logging per-cron
// errors without one failing registration blocking another; it always
// returns nil. It is called
// once, from afterStart, separating arming from start so nothing fires
// before the rest of the process is ready.
func (s *Scheduler) ArmAll(ctx context.Context) error {
	s.mu.Lock()
	pending := make([]Entry, 0, len(s.admitted))
	for _, e := range s.admitted {
		if _, already := s.jobs[e.ID]; !already {
			pending = append(pending, e)
		}
	}
	armed := s.armed
	s.armed = true
	s.mu.Unlock()

	if armed {
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	for _, e := range pending {
		e := e
		g.Go(func() error {
			if err := s.schedule(e); err != nil {
				corelog.Errorf("%v", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	s.engine.Start()
	return nil
}

// AddCrons admits and immediately schedules each entry, for runtime
// mutation via ADD_CRONS events.
func (s *Scheduler) AddCrons(entries []Entry, serverID string) {
	for _, e := range s.Admit(entries, serverID) {
		if err := s.schedule(e); err != nil {
			corelog.Errorf("%v", err)
		}
	}
}

// RemoveCrons cancels the scheduler handle for each entry's id, logging a
// warning for any id with no JobTable entry. The id is looked up verbatim
// as the string it was admitted under, matching how it is stored in
// JobTable on admission (see DESIGN.md for why this core never parses the
// id back to an integer).
func (s *Scheduler) RemoveCrons(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		entryID, ok := s.jobs[id]
		if !ok {
			corelog.Warnf("removeCrons: no job scheduled for id %q", id)
			continue
		}
		s.engine.Remove(entryID)
		delete(s.jobs, id)
		delete(s.admitted, id)
	}
}

// JobIDs returns the ids currently present in the JobTable, for diagnostics.
func (s *Scheduler) JobIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	return ids
}

// Entries returns a snapshot of every admitted entry together with whether
// it currently has a JobTable handle, for admin/debug surfaces.
func (s *Scheduler) Entries() []EntryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make([]EntryStatus, 0, len(s.admitted))
	for id, e := range s.admitted {
		_, scheduled := s.jobs[id]
		statuses = append(statuses, EntryStatus{Entry: e, Scheduled: scheduled})
	}
	return statuses
}

// EntryStatus pairs an admitted Entry with whether it is currently armed.
type EntryStatus struct {
	Entry     Entry
	Scheduled bool
}

// Stop stops the underlying scheduling engine. In-flight cron invocations
// are not forcibly cancelled.
func (s *Scheduler) Stop() {
	s.engine.Stop()
}
