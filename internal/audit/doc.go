// Package audit relays lifecycle events (login, info, renew, logout and
// suppressed role refreshes) to a sink without blocking the request path.
//
// [Dispatcher] buffers events and hands them to a [Sink] on its own
// goroutine. When the buffer is full it either drops the event and counts
// the drop, or waits for room, depending on [Config.DropIfFull].
//
// This package decides nothing about which events exist; the engine and the
// flows do. It must not import couchjwt.
package audit
