package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/san-kum/orrery/internal/frame"
)

const writeWait = 5 * time.Second

// WebSocket streams frames to one connected renderer as JSON arrays. Text
// messages from the renderer are control messages.
type WebSocket struct {
	conn    *websocket.Conn
	control chan string
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	err     error
	mu      sync.Mutex
}

// NewWebSocket wraps an established connection and starts reading control
// messages from it.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	ws := &WebSocket{
		conn:    conn,
		control: make(chan string, 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go ws.read()
	return ws
}

// read runs until the connection fails or Close is called.
func (ws *WebSocket) read() {
	defer close(ws.stopped)
	for {
		kind, data, err := ws.conn.ReadMessage()
		if err != nil {
			ws.err = err
			close(ws.control)
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		select {
		case ws.control <- string(data):
		case <-ws.done:
			return
		}
	}
}

func (ws *WebSocket) Poll() (string, bool, error) {
	select {
	case msg, ok := <-ws.control:
		if !ok {
			return "", false, fmt.Errorf("%w: %w", ErrClosed, ws.err)
		}
		return msg, true, nil
	default:
		return "", false, nil
	}
}

func (ws *WebSocket) Send(ctx context.Context, f frame.Frame) error {
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := ws.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return ws.conn.WriteJSON(f)
}

// Close sends a close frame and closes the connection.
func (ws *WebSocket) Close() error {
	ws.once.Do(func() { close(ws.done) })
	ws.mu.Lock()
	defer ws.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "simulation finished")
	_ = ws.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return ws.conn.Close()
}

// Listener upgrades HTTP requests to websocket connections and hands them to
// Accept. At most one connection waits to be accepted; others are refused.
type Listener struct {
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
	errs     chan error
	logger   *log.Logger
}

func NewListener(logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns:  make(chan *websocket.Conn, 1),
		errs:   make(chan error, 1),
		logger: logger,
	}
}

func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	select {
	case l.conns <- conn:
		l.logger.Info("renderer connected", "remote", r.RemoteAddr)
	default:
		l.logger.Warn("renderer refused, already connected", "remote", r.RemoteAddr)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "renderer already connected")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
	}
}

// Accept waits for a renderer to connect.
func (l *Listener) Accept(ctx context.Context) (*WebSocket, error) {
	select {
	case conn := <-l.conns:
		return NewWebSocket(conn), nil
	case err := <-l.errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Server serves a Listener on a bound TCP address.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and serves l on it in the background. A bind failure is
// returned here; a later serve failure is returned by the next Accept.
func (l *Listener) Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	s := &Server{srv: &http.Server{Handler: l}, ln: ln}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("websocket server failed", "err", err)
			select {
			case l.errs <- fmt.Errorf("serve %s: %w", addr, err):
			default:
			}
		}
	}()
	return s, nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

func (s *Server) Close() error { return s.srv.Close() }
