package domain

type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionConnecting SessionState = "connecting"
	SessionConnected  SessionState = "connected"
	SessionClosed     SessionState = "closed"
)

type ControllerState string

const (
	StateStopped       ControllerState = "stopped"
	StateConnecting    ControllerState = "connecting"
	StateConnected     ControllerState = "connected"
	StateAwaitingRetry ControllerState = "awaiting_retry"
)

// ControllerStates lists every controller state, in lifecycle order.
var ControllerStates = []ControllerState{StateStopped, StateConnecting, StateConnected, StateAwaitingRetry}

// EndReason explains why a session ended. Only EndStopped is caller initiated.
type EndReason string

const (
	EndHandshakeFailed EndReason = "handshake_failed"
	EndRemoteClosed    EndReason = "remote_closed"
	EndTransportError  EndReason = "transport_error"
	EndStopped         EndReason = "stopped"
)

// Retryable reports whether the controller should schedule another attempt.
func (r EndReason) Retryable() bool { return r != EndStopped }
