package scheduler

import (
	"time"

	"github.com/benbjohnson/clock"

	"gridsync-logstream/internal/usecase"
)

// Clock adapts a clock.Clock to usecase.Scheduler. Production code passes
// clock.New(); tests pass clock.NewMock() and advance it by hand.
type Clock struct {
	c clock.Clock
}

func New(c clock.Clock) *Clock {
	if c == nil {
		c = clock.New()
	}
	return &Clock{c: c}
}

func (s *Clock) AfterFunc(d time.Duration, fn func()) usecase.Timer {
	return s.c.AfterFunc(d, fn)
}

func (s *Clock) Now() time.Time { return s.c.Now() }

var _ usecase.Scheduler = (*Clock)(nil)
