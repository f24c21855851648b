package domain

import "errors"

var (
	// ErrInvalidAddress marks a base address that cannot yield a stream endpoint.
	ErrInvalidAddress = errors.New("invalid node address")
	// ErrRemoteClosed marks a read failure caused by the peer closing the stream.
	ErrRemoteClosed = errors.New("remote closed")
)
