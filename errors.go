package irc

import "github.com/pkg/errors"

// Sentinel errors for the taxonomy of failures the client can produce. Argument and
// ArgumentNull are raised at API boundaries for caller mistakes; InvalidOperation and
// ProtocolViolation are raised (and usually only logged, never returned to the caller)
// when the remote server sends something that doesn't make sense; Transport wraps
// socket-level failures surfaced via the connection_error event.
//
// Use errors.Is to test for a specific kind after unwrapping a wrapped error, e.g.:
//
//	if errors.Is(err, irc.ErrProtocolViolation) { ... }
var (
	ErrArgumentNull      = errors.New("argument required")
	ErrArgument          = errors.New("argument invalid")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrTransport         = errors.New("transport error")
)
