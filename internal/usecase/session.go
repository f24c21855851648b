package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"gridsync-logstream/internal/domain"
)

// SessionCallbacks are invoked from the session's I/O goroutine.
// OnRecord calls for a session always happen before its single OnEnded call.
type SessionCallbacks struct {
	OnOpen   func(s *Session)
	OnRecord func(s *Session, binary bool, payload []byte)
	OnEnded  func(s *Session, reason domain.EndReason, err error)
}

// Session owns one transport connection from dial to close. It is single-use.
type Session struct {
	id     string
	dialer Dialer
	cb     SessionCallbacks

	mu      sync.Mutex
	state   domain.SessionState
	target  domain.EndpointAddress
	conn    Conn
	cancel  context.CancelFunc
	stopped bool

	endOnce sync.Once
	done    chan struct{}
}

func NewSession(dialer Dialer, cb SessionCallbacks) *Session {
	return &Session{
		id:     uuid.NewString(),
		dialer: dialer,
		cb:     cb,
		state:  domain.SessionIdle,
		done:   make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Target() domain.EndpointAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Done is closed once the session has reported its end.
func (s *Session) Done() <-chan struct{} { return s.done }

// Open starts dialing addr in the background and returns immediately.
// Opening a session twice is a programming error.
func (s *Session) Open(addr domain.EndpointAddress) {
	s.mu.Lock()
	if s.state != domain.SessionIdle {
		s.mu.Unlock()
		panic("usecase: Open on a session that is " + string(s.state))
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.state = domain.SessionConnecting
	s.target = addr
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx, addr)
}

// Close terminates the session whatever its state. OnEnded still fires, once,
// with EndStopped unless the session had already ended on its own.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == domain.SessionClosed || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	state := s.state
	conn := s.conn
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if state == domain.SessionIdle {
		go s.finish(domain.EndStopped, nil)
	}
}

func (s *Session) run(ctx context.Context, addr domain.EndpointAddress) {
	conn, err := s.dialer.Dial(ctx, addr)
	if err != nil {
		s.finish(domain.EndHandshakeFailed, err)
		return
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = conn.Close()
		s.finish(domain.EndStopped, nil)
		return
	}
	s.conn = conn
	s.state = domain.SessionConnected
	s.mu.Unlock()

	if s.cb.OnOpen != nil {
		s.cb.OnOpen(s)
	}

	for {
		binary, payload, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			if errors.Is(err, domain.ErrRemoteClosed) {
				s.finish(domain.EndRemoteClosed, err)
			} else {
				s.finish(domain.EndTransportError, err)
			}
			return
		}
		if s.isStopped() {
			continue
		}
		if s.cb.OnRecord != nil {
			s.cb.OnRecord(s, binary, payload)
		}
	}
}

func (s *Session) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// finish reports the terminal event. A caller-initiated close always wins
// over whatever error the transport produced while being torn down.
func (s *Session) finish(reason domain.EndReason, err error) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		if s.stopped {
			reason, err = domain.EndStopped, nil
		}
		s.state = domain.SessionClosed
		s.conn = nil
		cancel := s.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if s.cb.OnEnded != nil {
			s.cb.OnEnded(s, reason, err)
		}
		close(s.done)
	})
}
