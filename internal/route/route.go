// Package route parses the three-segment logical address that identifies a
// handler method: "serverType.handler.method".
package route

import "strings"

// Record is the product of parsing a route string. All four fields are
// required and non-empty.
type Record struct {
	Route      string
	ServerType string
	Handler    string
	Method     string
}

// Parse splits s into a Record. It returns nil, false if s does not consist
// of exactly three non-empty dot-separated segments. Parse is total and
// side-effect free: it never mutates its input, never logs, and never
// returns an error value — callers distinguish failure via the bool.
func Parse(s string) (*Record, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return nil, false
	}
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return &Record{
		Route:      s,
		ServerType: parts[0],
		Handler:    parts[1],
		Method:     parts[2],
	}, true
}
