package kernel

import "sync/atomic"

// Shared is an 8-byte single-producer/single-consumer snapshot. The producer
// replaces the whole value at once, so a reader never sees a torn mix of two
// writes.
type Shared struct {
	seq atomic.Uint32
	v   atomic.Uint64
}

// Write stores data and bumps the sequence counter.
func (b *Shared) Write(data [8]byte) uint32 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	b.v.Store(v)
	return b.seq.Add(1)
}

// Read returns the last written data and its sequence number.
func (b *Shared) Read() (data [8]byte, seq uint32) {
	seq = b.seq.Load()
	v := b.v.Load()
	for i := range data {
		data[i] = byte(v)
		v >>= 8
	}
	return data, seq
}
