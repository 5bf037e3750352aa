// Package serverconfig is the explicit configuration record a Dispatcher
// consumes: filter chains, error handlers, and cron entries as named,
// typed fields rather than an untyped options bag.
package serverconfig

import (
	"context"

	"github.com/stacklok/gamemesh/internal/cron"
	"github.com/stacklok/gamemesh/internal/message"
	"github.com/stacklok/gamemesh/internal/session"
)

// ErrorHandler is called whenever an error escapes the before filters or
// the handler: handler(ctx, err, msg, sess, resp).
type ErrorHandler func(ctx context.Context, err error, msg *message.Message, sess session.Session, resp any) (any, error)

// Config is everything a Dispatcher needs from its host application, aside
// from the session/handler-code wiring supplied separately.
type Config struct {
	ServerType string
	ServerID   string
	Env        string

	// CronBasePath is the base crons.json path; if absent cron.LoadConfig
	// falls back to config/<Env>/crons.json.
	CronBasePath string
	// Crons is the set of cron entries for this process's server type,
	// already filtered from the loaded configuration file.
	Crons []cron.Entry

	GlobalBeforeFilters []any
	GlobalAfterFilters  []any
	BeforeFilters       []any
	AfterFilters        []any

	GlobalErrorHandler ErrorHandler
	ErrorHandler       ErrorHandler
}
