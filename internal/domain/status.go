package domain

import "time"

// StreamStatus is a point-in-time view of a stream controller.
type StreamStatus struct {
	State               ControllerState  `json:"state"`
	NodeURL             string           `json:"nodeUrl"`
	Target              *EndpointAddress `json:"target,omitempty"`
	SessionID           string           `json:"sessionId,omitempty"`
	Attempts            uint64           `json:"attempts"`
	ConsecutiveFailures int              `json:"consecutiveFailures"`
	LastEndReason       EndReason        `json:"lastEndReason,omitempty"`
	LastError           *string          `json:"lastError"`
	ConnectedAt         *time.Time       `json:"connectedAt"`
	NextRetryAt         *time.Time       `json:"nextRetryAt"`
	Records             int              `json:"records"`
	Evicted             uint64           `json:"evicted"`
}
