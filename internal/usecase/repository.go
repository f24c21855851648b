package usecase

import (
	"context"
	"time"

	"gridsync-logstream/internal/domain"
)

type RecordRepository interface {
	AppendRecord(ctx context.Context, rec domain.LogRecord) (domain.LogRecord, error)
	Snapshot(ctx context.Context) ([]domain.LogRecord, error)
	ListRecords(ctx context.Context, afterSeq uint64, limit int) ([]domain.LogRecord, uint64, error)
	Clear(ctx context.Context) error
	Stats() RecordStats
}

type RecordStats struct {
	Retained int    `json:"retained"`
	Evicted  uint64 `json:"evicted"`
	NextSeq  uint64 `json:"nextSeq"`
}

// NodeURLSource yields the node's current base address. It is read on every
// connection attempt and never cached, since the node may move.
type NodeURLSource interface {
	NodeURL() string
}

// Conn is one established message-stream connection.
type Conn interface {
	// ReadMessage blocks until the next whole message arrives.
	ReadMessage() (binary bool, payload []byte, err error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, addr domain.EndpointAddress) (Conn, error)
}

// Timer is a cancellable one-shot callback.
type Timer interface {
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	Now() time.Time
}

// Observer receives controller lifecycle notifications. Implementations must
// not block and must not call back into the controller.
type Observer interface {
	StateChanged(from, to domain.ControllerState)
	AttemptStarted(target domain.EndpointAddress)
	SessionEnded(reason domain.EndReason, err error)
	RecordReceived(rec domain.LogRecord)
}
