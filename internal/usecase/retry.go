package usecase

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultRetryDelay    = 2 * time.Second
	DefaultRetryMaxDelay = 30 * time.Second
)

// RetryPolicy decides the delay before each reconnect attempt. With the
// default multiplier of 1 every delay equals Initial; larger multipliers give
// a capped exponential schedule. Retries never give up on their own.
type RetryPolicy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Initial: DefaultRetryDelay, Max: DefaultRetryMaxDelay, Multiplier: 1}
}

func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	if b.InitialInterval <= 0 {
		b.InitialInterval = DefaultRetryDelay
	}
	b.MaxInterval = p.Max
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.Multiplier = p.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
