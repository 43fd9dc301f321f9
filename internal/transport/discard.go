package transport

import (
	"context"

	"github.com/san-kum/orrery/internal/frame"
)

// Discard drops every frame and never has a control message. Recording and
// benchmarking runs use it when no renderer is attached.
type Discard struct{}

func (Discard) Poll() (string, bool, error) { return "", false, nil }

func (Discard) Send(ctx context.Context, _ frame.Frame) error {
	return ctx.Err()
}
