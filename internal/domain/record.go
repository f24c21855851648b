package domain

import "time"

// LogRecord is one message received from the node's log stream.
// Payload is kept verbatim; nothing here interprets it.
type LogRecord struct {
	Seq        uint64    `json:"seq"`
	SessionID  string    `json:"sessionId"`
	ReceivedAt time.Time `json:"receivedAt"`
	Binary     bool      `json:"binary,omitempty"`
	Payload    string    `json:"payload"`
}
