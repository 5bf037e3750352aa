// Package message defines the opaque request envelope that flows through
// the dispatch core.
package message

// Message carries the logical address of a handler method and the payload
// passed to user code. Route is the dot-separated "serverType.handler.method"
// address; Body is opaque to the dispatch core.
type Message struct {
	Route string
	Body  any
}
