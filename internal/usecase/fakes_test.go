package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gridsync-logstream/internal/domain"
	"gridsync-logstream/internal/usecase"
)

type fakeMsg struct {
	binary  bool
	payload []byte
	err     error
}

// fakeConn is a scripted connection: tests push messages or failures into it.
type fakeConn struct {
	msgs      chan fakeMsg
	closed    chan struct{}
	closeOnce sync.Once
	// Close blocks on gate when set, like a close frame to a slow peer
	gate chan struct{}
}

func newFakeConn(gate chan struct{}) *fakeConn {
	return &fakeConn{msgs: make(chan fakeMsg, 64), closed: make(chan struct{}), gate: gate}
}

func (c *fakeConn) ReadMessage() (bool, []byte, error) {
	select {
	case m := <-c.msgs:
		return m.binary, m.payload, m.err
	case <-c.closed:
		return false, nil, errors.New("use of closed network connection")
	}
}

func (c *fakeConn) Close() error {
	if c.gate != nil {
		<-c.gate
	}
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) deliver(payload string) { c.msgs <- fakeMsg{payload: []byte(payload)} }

func (c *fakeConn) remoteClose() {
	c.msgs <- fakeMsg{err: fmt.Errorf("%w: websocket: close 1000 (normal)", domain.ErrRemoteClosed)}
}

func (c *fakeConn) abort() {
	c.msgs <- fakeMsg{err: errors.New("read tcp: connection reset by peer")}
}

type fakeDialer struct {
	mu       sync.Mutex
	dials    []domain.EndpointAddress
	conns    []*fakeConn
	failures int // fail this many upcoming dials
	failAll  bool
	// when set, Dial waits for it; ignoreCtx makes the wait deaf to cancellation
	block     chan struct{}
	ignoreCtx bool
	closeGate chan struct{} // handed to every new conn
}

func (d *fakeDialer) Dial(ctx context.Context, addr domain.EndpointAddress) (usecase.Conn, error) {
	d.mu.Lock()
	d.dials = append(d.dials, addr)
	fail := d.failAll || d.failures > 0
	if d.failures > 0 {
		d.failures--
	}
	block, ignoreCtx, gate := d.block, d.ignoreCtx, d.closeGate
	d.mu.Unlock()

	if block != nil {
		if ignoreCtx {
			<-block
		} else {
			select {
			case <-block:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if fail {
		return nil, errors.New("websocket: bad handshake")
	}
	c := newFakeConn(gate)
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	return c, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func (d *fakeDialer) dial(i int) domain.EndpointAddress {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[i]
}

func (d *fakeDialer) connCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

func (d *fakeDialer) setFailAll(v bool) {
	d.mu.Lock()
	d.failAll = v
	d.mu.Unlock()
}

// stateRecorder keeps every transition the controller reports.
type stateRecorder struct {
	mu          sync.Mutex
	transitions []domain.ControllerState
	ended       []domain.EndReason
}

func (r *stateRecorder) StateChanged(from, to domain.ControllerState) {
	r.mu.Lock()
	r.transitions = append(r.transitions, to)
	r.mu.Unlock()
}

func (r *stateRecorder) AttemptStarted(domain.EndpointAddress) {}

func (r *stateRecorder) SessionEnded(reason domain.EndReason, _ error) {
	r.mu.Lock()
	r.ended = append(r.ended, reason)
	r.mu.Unlock()
}

func (r *stateRecorder) RecordReceived(domain.LogRecord) {}

func (r *stateRecorder) count(s domain.ControllerState) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.transitions {
		if t == s {
			n++
		}
	}
	return n
}
