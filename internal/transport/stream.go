package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/san-kum/orrery/internal/frame"
)

// Stream writes each frame as one JSON line and reads control messages one
// per line from r. Reaching EOF on r is not an error; it only means no more
// control messages will arrive.
type Stream struct {
	mu      sync.Mutex
	w       *bufio.Writer
	enc     *json.Encoder
	control chan string
	err     error
}

func NewStream(r io.Reader, w io.Writer) *Stream {
	bw := bufio.NewWriter(w)
	s := &Stream{
		w:       bw,
		enc:     json.NewEncoder(bw),
		control: make(chan string, 16),
	}
	if r != nil {
		go s.read(r)
	}
	return s
}

func (s *Stream) read(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		s.control <- line
	}
	if err := sc.Err(); err != nil {
		s.err = err
		close(s.control)
	}
}

func (s *Stream) Poll() (string, bool, error) {
	select {
	case msg, ok := <-s.control:
		if !ok {
			return "", false, fmt.Errorf("read control: %w", s.err)
		}
		return msg, true, nil
	default:
		return "", false, nil
	}
}

// Send encodes f and flushes it so renderers see every frame immediately.
func (s *Stream) Send(ctx context.Context, f frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(f); err != nil {
		return err
	}
	return s.w.Flush()
}
