// Package transport carries frames from a running simulation to a renderer
// and control messages back.
//
// Every transport exposes the simulation side as a Poll/Send pair: Poll
// never blocks, Send delivers frames in order and applies whatever
// backpressure the underlying channel has.
//
//   - [Pipe]: in-process channels, used by the terminal viewer
//   - [Stream]: JSON lines on a writer, control lines from a reader
//   - [WebSocket]: a single renderer connected through [Listener]
//   - [Discard]: no renderer at all
package transport

import "errors"

// ErrClosed indicates the other side of a transport went away.
var ErrClosed = errors.New("transport: closed")
