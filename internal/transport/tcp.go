package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// ErrClosed is returned by TCP after Close.
var ErrClosed = errors.New("transport: closed")

// TCP is a raw TCP byte source that redials with exponential backoff.
// Read and Write block across reconnects until ctx is done or Close is
// called, so a caller sees one continuous stream.
type TCP struct {
	Addr       string
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// OnState, when set, is called after every connect and disconnect.
	OnState func(up bool, err error)

	dial   func(ctx context.Context, network, addr string) (net.Conn, error)
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	conn net.Conn
}

func DialTCP(ctx context.Context, addr string) *TCP {
	cctx, cancel := context.WithCancel(ctx)
	var d net.Dialer
	t := &TCP{
		Addr:       addr,
		MinBackoff: 250 * time.Millisecond,
		MaxBackoff: 10 * time.Second,
		dial:       d.DialContext,
		ctx:        cctx,
		cancel:     cancel,
	}
	// Unblock a pending Read once ctx ends.
	context.AfterFunc(cctx, func() { _ = t.closeConn() })
	return t
}

func (t *TCP) Read(p []byte) (int, error) {
	for {
		conn, err := t.connect()
		if err != nil {
			return 0, err
		}
		n, err := conn.Read(p)
		if err != nil {
			t.drop(conn, err)
		}
		if n > 0 {
			return n, nil
		}
	}
}

func (t *TCP) Write(p []byte) (int, error) {
	conn, err := t.connect()
	if err != nil {
		return 0, err
	}
	n, err := conn.Write(p)
	if err != nil {
		t.drop(conn, err)
		return n, fmt.Errorf("tcp write %s: %w", t.Addr, err)
	}
	return n, nil
}

// Close stops redialling and closes the active connection.
func (t *TCP) Close() error {
	t.cancel()
	return t.closeConn()
}

func (t *TCP) closeConn() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (t *TCP) connect() (net.Conn, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		return conn, nil
	}

	backoff := t.MinBackoff
	for {
		if t.ctx.Err() != nil {
			return nil, ErrClosed
		}
		conn, err := t.dial(t.ctx, "tcp", t.Addr)
		if err == nil {
			t.mu.Lock()
			if t.ctx.Err() != nil {
				t.mu.Unlock()
				_ = conn.Close()
				return nil, ErrClosed
			}
			t.conn = conn
			t.mu.Unlock()
			t.state(true, nil)
			return conn, nil
		}
		t.state(false, err)

		select {
		case <-t.ctx.Done():
			return nil, ErrClosed
		case <-time.After(backoff):
		}
		if backoff < t.MaxBackoff {
			backoff *= 2
			if backoff > t.MaxBackoff {
				backoff = t.MaxBackoff
			}
		}
	}
}

func (t *TCP) drop(conn net.Conn, err error) {
	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	t.mu.Unlock()
	_ = conn.Close()
	if t.ctx.Err() == nil {
		t.state(false, err)
	}
}

func (t *TCP) state(up bool, err error) {
	if t.OnState != nil {
		t.OnState(up, err)
	}
}
