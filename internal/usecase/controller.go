package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"gridsync-logstream/internal/domain"
)

type ControllerDeps struct {
	Node       NodeURLSource
	Dialer     Dialer
	Scheduler  Scheduler
	Records    RecordRepository
	Logger     *zerolog.Logger
	Observers  []Observer
	StreamPath string
	Retry      RetryPolicy
}

// Controller keeps one node's log stream subscribed. It opens at most one
// session at a time and, until Stop, replaces every session that ends with a
// new one after the retry delay. All transitions happen under mu.
type Controller struct {
	node       NodeURLSource
	dialer     Dialer
	sched      Scheduler
	records    RecordRepository
	observers  []Observer
	logger     *zerolog.Logger
	streamPath string

	mu          sync.Mutex
	state       domain.ControllerState
	policy      *backoff.ExponentialBackOff
	session     *Session
	closing     *Session // stopped but not yet ended
	retry       Timer
	retryGen    uint64
	nextRetryAt time.Time
	attempts    uint64
	failures    int
	target      *domain.EndpointAddress
	lastReason  domain.EndReason
	lastErr     error
	connectedAt time.Time
}

func NewController(d ControllerDeps) *Controller {
	logger := d.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	streamPath := d.StreamPath
	if streamPath == "" {
		streamPath = DefaultStreamPath
	}
	return &Controller{
		node:       d.Node,
		dialer:     d.Dialer,
		sched:      d.Scheduler,
		records:    d.Records,
		observers:  d.Observers,
		logger:     logger,
		streamPath: streamPath,
		state:      domain.StateStopped,
		policy:     d.Retry.newBackOff(),
	}
}

// Start begins monitoring. It never blocks on the network and is a no-op
// unless the controller is stopped.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateStopped {
		return
	}
	c.failures = 0
	c.policy.Reset()
	c.setStateLocked(domain.StateConnecting)
	if c.closing != nil {
		// connect once the previous session reports its end
		c.logger.Debug().Str("session", c.closing.ID()).Msg("logstream: waiting for previous session to close")
		return
	}
	c.connectLocked()
}

// Stop halts monitoring: the pending retry is cancelled and the live session
// closed. No further attempts happen until Start is called again.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == domain.StateStopped {
		c.mu.Unlock()
		return
	}
	c.cancelRetryLocked()
	s := c.session
	if s != nil {
		c.session = nil
		c.closing = s
	}
	c.connectedAt = time.Time{}
	c.setStateLocked(domain.StateStopped)
	c.mu.Unlock()

	// closing may write a close frame; status readers must not wait on it
	if s != nil {
		s.Close()
	}
}

// Shutdown stops the controller and waits for the last session to end.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.Stop()
	c.mu.Lock()
	s := c.closing
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) State() domain.ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts counts every connection attempt since the controller was created.
func (c *Controller) Attempts() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *Controller) Status() domain.StreamStatus {
	c.mu.Lock()
	st := domain.StreamStatus{
		State:               c.state,
		NodeURL:             c.node.NodeURL(),
		Attempts:            c.attempts,
		ConsecutiveFailures: c.failures,
		LastEndReason:       c.lastReason,
	}
	if c.target != nil {
		t := *c.target
		st.Target = &t
	}
	if c.session != nil {
		st.SessionID = c.session.ID()
	}
	if c.lastErr != nil {
		msg := c.lastErr.Error()
		st.LastError = &msg
	}
	if !c.connectedAt.IsZero() {
		ts := c.connectedAt
		st.ConnectedAt = &ts
	}
	if !c.nextRetryAt.IsZero() {
		ts := c.nextRetryAt
		st.NextRetryAt = &ts
	}
	c.mu.Unlock()

	stats := c.records.Stats()
	st.Records = stats.Retained
	st.Evicted = stats.Evicted
	return st
}

// Records returns every retained record in arrival order.
func (c *Controller) Records() []domain.LogRecord {
	out, err := c.records.Snapshot(context.Background())
	if err != nil {
		c.logger.Error().Err(err).Msg("logstream: snapshot records")
		return nil
	}
	return out
}

func (c *Controller) ListRecords(ctx context.Context, afterSeq uint64, limit int) ([]domain.LogRecord, uint64, error) {
	return c.records.ListRecords(ctx, afterSeq, limit)
}

func (c *Controller) ClearRecords(ctx context.Context) error {
	return c.records.Clear(ctx)
}

func (c *Controller) connectLocked() {
	c.attempts++
	target, err := ResolveEndpoint(c.node.NodeURL(), c.streamPath)
	if err != nil {
		c.lastErr = err
		c.logger.Warn().Err(err).Uint64("attempt", c.attempts).Msg("logstream: node address not usable yet")
		c.scheduleRetryLocked()
		return
	}
	c.target = &target
	s := NewSession(c.dialer, SessionCallbacks{
		OnOpen:   c.sessionOpened,
		OnRecord: c.sessionRecord,
		OnEnded:  c.sessionEnded,
	})
	c.session = s
	for _, o := range c.observers {
		o.AttemptStarted(target)
	}
	c.logger.Info().Str("session", s.ID()).Str("target", target.URL()).Uint64("attempt", c.attempts).Msg("logstream: connecting")
	s.Open(target)
}

func (c *Controller) scheduleRetryLocked() {
	c.failures++
	delay := c.policy.NextBackOff()
	c.retryGen++
	gen := c.retryGen
	c.nextRetryAt = c.sched.Now().Add(delay)
	c.setStateLocked(domain.StateAwaitingRetry)
	c.logger.Info().Dur("delay", delay).Int("failures", c.failures).Msg("logstream: retry scheduled")
	c.retry = c.sched.AfterFunc(delay, func() { c.retryFired(gen) })
}

func (c *Controller) cancelRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	// a timer that already fired sees a newer generation and does nothing
	c.retryGen++
	c.nextRetryAt = time.Time{}
}

func (c *Controller) retryFired(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateAwaitingRetry || gen != c.retryGen {
		return
	}
	c.retry = nil
	c.nextRetryAt = time.Time{}
	c.setStateLocked(domain.StateConnecting)
	c.connectLocked()
}

func (c *Controller) sessionOpened(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s || c.state != domain.StateConnecting {
		return
	}
	c.failures = 0
	c.policy.Reset()
	c.lastErr = nil
	c.connectedAt = c.sched.Now().UTC()
	c.logger.Info().Str("session", s.ID()).Msg("logstream: connected")
	c.setStateLocked(domain.StateConnected)
}

func (c *Controller) sessionRecord(s *Session, binary bool, payload []byte) {
	rec := domain.LogRecord{
		SessionID:  s.ID(),
		ReceivedAt: c.sched.Now().UTC(),
		Binary:     binary,
		Payload:    string(payload),
	}
	stored, err := c.records.AppendRecord(context.Background(), rec)
	if err != nil {
		c.logger.Error().Err(err).Str("session", s.ID()).Msg("logstream: append record")
		return
	}
	for _, o := range c.observers {
		o.RecordReceived(stored)
	}
}

func (c *Controller) sessionEnded(s *Session, reason domain.EndReason, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range c.observers {
		o.SessionEnded(reason, err)
	}
	lvl := zerolog.InfoLevel
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	c.logger.WithLevel(lvl).Err(err).Str("session", s.ID()).Str("reason", string(reason)).Msg("logstream: session ended")

	if s == c.closing {
		c.closing = nil
		if c.state == domain.StateConnecting && c.session == nil {
			c.connectLocked()
		}
		return
	}
	if s != c.session {
		return
	}
	c.session = nil
	c.connectedAt = time.Time{}
	c.lastReason = reason
	c.lastErr = err
	if !reason.Retryable() {
		c.cancelRetryLocked()
		c.setStateLocked(domain.StateStopped)
		return
	}
	c.scheduleRetryLocked()
}

func (c *Controller) setStateLocked(to domain.ControllerState) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("logstream: state")
	for _, o := range c.observers {
		o.StateChanged(from, to)
	}
}
