package wsdial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gridsync-logstream/internal/domain"
	"gridsync-logstream/internal/usecase"
)

const (
	DefaultHandshakeTimeout = 10 * time.Second
	closeGrace              = 2 * time.Second
)

type Options struct {
	HandshakeTimeout time.Duration
	// PingInterval > 0 enables keepalive pings; a peer that does not answer
	// within PongTimeout is treated as gone.
	PingInterval time.Duration
	PongTimeout  time.Duration
	// ReadLimit caps a single message in bytes (0 = gorilla default, unlimited).
	ReadLimit int64
	Header    http.Header
}

// Dialer opens log-stream subscriptions over gorilla/websocket.
type Dialer struct {
	opts Options
	net  *net.Dialer
	ws   websocket.Dialer
}

func New(opts Options) *Dialer {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.PingInterval > 0 && opts.PongTimeout <= 0 {
		opts.PongTimeout = 2 * opts.PingInterval
	}
	return &Dialer{
		opts: opts,
		net:  &net.Dialer{Timeout: opts.HandshakeTimeout},
		ws: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
	}
}

func (d *Dialer) Dial(ctx context.Context, addr domain.EndpointAddress) (usecase.Conn, error) {
	target := addr.URL()
	hdr := http.Header{}
	for k, vs := range d.opts.Header {
		for _, v := range vs {
			hdr.Add(k, v)
		}
	}
	// Some upstreams require Origin; synthesize from target host
	if hdr.Get("Origin") == "" {
		origin := "http://" + addr.HostPort()
		if addr.Scheme == "wss" {
			origin = "https://" + addr.HostPort()
		}
		hdr.Set("Origin", origin)
	}

	// gorilla stops watching ctx once TCP is up, so the socket is bound to
	// ctx here until the upgrade completes.
	var (
		mu  sync.Mutex
		raw net.Conn
	)
	ws := d.ws
	ws.NetDialContext = func(dctx context.Context, network, address string) (net.Conn, error) {
		nc, err := d.net.DialContext(dctx, network, address)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		raw = nc
		mu.Unlock()
		if ctx.Err() != nil {
			_ = nc.Close()
			return nil, ctx.Err()
		}
		return nc, nil
	}
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		if raw != nil {
			_ = raw.Close()
		}
	})

	c, resp, err := ws.DialContext(ctx, target, hdr)
	if !stop() && err == nil {
		// cancelled right after the upgrade; the socket is already closed
		_ = c.Close()
		return nil, fmt.Errorf("dial %s: %w", target, ctx.Err())
	}
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("dial %s: %w", target, ctxErr)
		}
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake with %s: %s: %w", target, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	if d.opts.ReadLimit > 0 {
		c.SetReadLimit(d.opts.ReadLimit)
	}
	wc := &conn{c: c, done: make(chan struct{})}
	if d.opts.PingInterval > 0 {
		_ = c.SetReadDeadline(time.Now().Add(d.opts.PongTimeout))
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(d.opts.PongTimeout))
		})
		go wc.pingLoop(d.opts.PingInterval)
	}
	return wc, nil
}

type conn struct {
	c         *websocket.Conn
	closeOnce sync.Once
	done      chan struct{}
}

func (w *conn) ReadMessage() (bool, []byte, error) {
	mt, data, err := w.c.ReadMessage()
	if err != nil {
		if isRemoteClose(err) {
			return false, nil, fmt.Errorf("%w: %v", domain.ErrRemoteClosed, err)
		}
		return false, nil, err
	}
	return mt == websocket.BinaryMessage, data, nil
}

// Close sends a best-effort close frame and releases the socket.
func (w *conn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		_ = w.c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace))
		err = w.c.Close()
	})
	return err
}

func (w *conn) pingLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if err := w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(every)); err != nil {
				return
			}
		}
	}
}

func isRemoteClose(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

var _ usecase.Dialer = (*Dialer)(nil)
