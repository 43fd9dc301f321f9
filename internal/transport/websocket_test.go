package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/san-kum/orrery/internal/frame"
)

func dialListener(t *testing.T) (*WebSocket, *websocket.Conn, func()) {
	t.Helper()
	l := NewListener(log.New(io.Discard))
	srv := httptest.NewServer(l)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ws, err := l.Accept(ctx)
	if err != nil {
		client.Close()
		srv.Close()
		t.Fatalf("accept failed: %v", err)
	}
	return ws, client, func() {
		client.Close()
		ws.Close()
		srv.Close()
	}
}

func TestWebSocket_FramesReachRenderer(t *testing.T) {
	ws, client, done := dialListener(t)
	defer done()

	for i := 0; i < 3; i++ {
		if err := ws.Send(context.Background(), frame.Frame{{float64(i), 0, 0, 0.1}}); err != nil {
			t.Fatal(err)
		}
	}

	client.SetReadDeadline(time.Now().Add(time.Second))
	for i := 0; i < 3; i++ {
		var f frame.Frame
		if err := client.ReadJSON(&f); err != nil {
			t.Fatalf("read frame %d: %v", i, err)
		}
		if f[0][0] != float64(i) {
			t.Errorf("frame %d arrived out of order: %v", i, f)
		}
	}
}

func TestWebSocket_ControlMessages(t *testing.T) {
	ws, client, done := dialListener(t)
	defer done()

	if err := client.WriteMessage(websocket.TextMessage, []byte("END")); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		msg, ok, err := ws.Poll()
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			if msg != "END" {
				t.Errorf("got %q, want END", msg)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("control message never arrived")
}

func TestWebSocket_DisconnectIsError(t *testing.T) {
	ws, client, done := dialListener(t)
	defer done()

	client.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, _, err := ws.Poll(); err != nil {
			if !errors.Is(err, ErrClosed) {
				t.Errorf("expected ErrClosed, got %v", err)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("disconnect never surfaced")
}

func TestListener_AcceptCancelled(t *testing.T) {
	l := NewListener(log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Accept(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWebSocket_CloseStopsFullReader(t *testing.T) {
	ws, client, done := dialListener(t)
	defer done()

	for i := 0; i < cap(ws.control)+8; i++ {
		if err := client.WriteMessage(websocket.TextMessage, []byte("noise")); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for len(ws.control) < cap(ws.control) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(ws.control) < cap(ws.control) {
		t.Fatal("control buffer never filled")
	}

	ws.Close()
	select {
	case <-ws.stopped:
	case <-time.After(time.Second):
		t.Fatal("reader still running after Close")
	}
}

func TestListener_ListenAndAccept(t *testing.T) {
	l := NewListener(log.New(io.Discard))
	srv, err := l.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr().String(), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ws, err := l.Accept(ctx)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	ws.Close()
}

func TestListener_ListenAddressInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	l := NewListener(log.New(io.Discard))
	srv, err := l.Listen(busy.Addr().String())
	if err == nil {
		srv.Close()
		t.Fatal("expected bind failure on an occupied address")
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("bind failure must not look like an interrupt: %v", err)
	}
}
