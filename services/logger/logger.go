// Package logger moves log lines from any goroutine to the HAL log sink.
// Producers never block: a line is dropped when the queue is full.
package logger

import (
	"context"
	"fmt"
	"gpi/hal"
	"gpi/kernel"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// DrainInterval is how often Run empties the queue.
const DrainInterval = 10 * time.Millisecond

type Service struct {
	log     hal.Logger
	mb      kernel.Mailbox
	dropped atomic.Uint32
}

func New(log hal.Logger) *Service {
	return &Service{log: log}
}

// Printf formats a line and queues it. Lines longer than
// kernel.MaxMessageBytes are truncated.
func (s *Service) Printf(format string, args ...any) {
	s.Log(fmt.Sprintf(format, args...))
}

// Log queues line.
func (s *Service) Log(line string) {
	if s == nil {
		return
	}
	if !s.mb.TrySend(kernel.NewMessage(kernel.MsgLog, []byte(line))) {
		s.dropped.Add(1)
	}
}

// Dropped returns the number of lines lost to a full queue.
func (s *Service) Dropped() uint32 { return s.dropped.Load() }

// Step writes one queued line to the sink. It reports false when the queue
// was empty.
func (s *Service) Step() bool {
	msg, ok := s.mb.TryRecv()
	if !ok {
		return false
	}
	if s.log == nil || msg.Kind != kernel.MsgLog {
		return true
	}
	s.log.WriteLineBytes(msg.Payload())
	return true
}

// Flush writes every queued line, then reports lines dropped since the last
// report.
func (s *Service) Flush() {
	for s.Step() {
	}
	if n := s.dropped.Swap(0); n > 0 && s.log != nil {
		s.log.WriteLineString("logger: dropped " + strconv.FormatUint(uint64(n), 10) + " lines")
	}
}

// Run drains the queue until ctx is done, then flushes what is left.
func (s *Service) Run(ctx context.Context, clock clockwork.Clock) error {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	for {
		s.Flush()
		select {
		case <-ctx.Done():
			s.Flush()
			return ctx.Err()
		case <-clock.After(DrainInterval):
		}
	}
}
