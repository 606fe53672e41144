package logger

import (
	"context"
	"fmt"
	"gpi/kernel"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gotest.tools/assert"
)

type sink struct {
	mu    sync.Mutex
	lines []string
}

func (s *sink) WriteLineString(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *sink) WriteLineBytes(b []byte) { s.WriteLineString(string(b)) }

func (s *sink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func TestPrintfOrder(t *testing.T) {
	out := &sink{}
	s := New(out)
	for i := 0; i < 5; i++ {
		s.Printf("line %d", i)
	}
	s.Flush()
	assert.DeepEqual(t, out.all(), []string{"line 0", "line 1", "line 2", "line 3", "line 4"})
}

func TestDropWhenFull(t *testing.T) {
	out := &sink{}
	s := New(out)
	for i := 0; i < 20; i++ {
		s.Printf("line %d", i)
	}
	assert.Equal(t, s.Dropped(), uint32(4))

	s.Flush()
	lines := out.all()
	assert.Equal(t, len(lines), 17)
	assert.Equal(t, lines[15], "line 15")
	assert.Equal(t, lines[16], "logger: dropped 4 lines")
	assert.Equal(t, s.Dropped(), uint32(0))
}

func TestTruncate(t *testing.T) {
	out := &sink{}
	s := New(out)
	s.Log(strings.Repeat("x", 200))
	s.Flush()
	assert.Equal(t, len(out.all()[0]), kernel.MaxMessageBytes)
}

func TestNilService(t *testing.T) {
	var s *Service
	s.Printf("ignored %d", 1)
}

func TestRun(t *testing.T) {
	out := &sink{}
	s := New(out)
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, clock) }()

	clock.BlockUntil(1)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Log(fmt.Sprint("from ", i))
		}(i)
	}
	wg.Wait()
	clock.Advance(DrainInterval)
	clock.BlockUntil(1)
	assert.Equal(t, len(out.all()), 3)

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
