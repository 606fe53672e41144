package kernel

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSchedulerStep(t *testing.T) {
	var n int
	s := NewScheduler(func() { n++ })
	for i := 0; i < 5; i++ {
		s.Step()
	}
	if n != 5 || s.Ticks() != 5 {
		t.Fatalf("n = %d ticks = %d, want 5 and 5", n, s.Ticks())
	}
}

func TestCriticalSectionExcludesTick(t *testing.T) {
	var mu sync.Mutex
	inside := false
	overlap := false

	s := NewScheduler(func() {
		mu.Lock()
		if inside {
			overlap = true
		}
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := s.StartTick(ctx, 50*time.Microsecond)

	cs := s.Critical()
	for i := 0; i < 200; i++ {
		cs.Lock()
		mu.Lock()
		inside = true
		mu.Unlock()
		time.Sleep(20 * time.Microsecond)
		mu.Lock()
		inside = false
		mu.Unlock()
		cs.Unlock()
	}

	cancel()
	<-done
	if overlap {
		t.Fatal("tick ran inside the critical section")
	}
	if s.Ticks() == 0 {
		t.Fatal("tick never ran")
	}
}

func TestSharedRoundTrip(t *testing.T) {
	var b Shared

	if _, seq := b.Read(); seq != 0 {
		t.Fatalf("initial seq = %d, want 0", seq)
	}

	in := [8]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF}
	if seq := b.Write(in); seq != 1 {
		t.Fatalf("Write seq = %d, want 1", seq)
	}
	out, seq := b.Read()
	if out != in || seq != 1 {
		t.Fatalf("Read() = %x seq %d, want %x seq 1", out, seq, in)
	}
}
