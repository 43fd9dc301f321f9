package transport

import (
	"context"
	"sync"

	"github.com/san-kum/orrery/internal/frame"
)

// Pipe is an in-process duplex channel between a simulation and a renderer.
type Pipe struct {
	frames  chan frame.Frame
	control chan string
	once    sync.Once
}

// NewPipe creates a pipe whose frame channel holds up to buffer frames.
// A buffer of zero makes every Send wait for the renderer.
func NewPipe(buffer int) *Pipe {
	return &Pipe{
		frames:  make(chan frame.Frame, buffer),
		control: make(chan string, 16),
	}
}

// Poll returns a pending control message without blocking.
func (p *Pipe) Poll() (string, bool, error) {
	select {
	case msg := <-p.control:
		return msg, true, nil
	default:
		return "", false, nil
	}
}

// Send blocks until the renderer has room for f or ctx is done.
func (p *Pipe) Send(ctx context.Context, f frame.Frame) error {
	select {
	case p.frames <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseFrames tells the renderer no more frames will follow. Only the
// simulation side may call it, once its loop has returned.
func (p *Pipe) CloseFrames() {
	p.once.Do(func() { close(p.frames) })
}

// Frames is the renderer side of the frame channel.
func (p *Pipe) Frames() <-chan frame.Frame {
	return p.frames
}

// Post sends a control message to the simulation.
func (p *Pipe) Post(ctx context.Context, msg string) error {
	select {
	case p.control <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
