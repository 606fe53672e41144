package kernel

import (
	"runtime"
	"sync/atomic"
)

// MaxMessageBytes is the maximum payload size for queued messages.
const MaxMessageBytes = 96

// Message is a fixed-size message envelope.
type Message struct {
	Kind uint8
	Len  uint8
	Data [MaxMessageBytes]byte
}

// Payload returns the valid part of Data.
func (m *Message) Payload() []byte { return m.Data[:m.Len] }

const (
	MsgLog uint8 = iota + 1
	MsgEvent
)

const mailboxSlots = 16

// Mailbox is a fixed-size multi-producer, single-consumer queue.
// It is designed for bare-metal use: no allocations, busy-wait with Gosched().
type Mailbox struct {
	_     [0]func() // prevent accidental copying.
	head  atomic.Uint32
	tail  atomic.Uint32
	ready [mailboxSlots]atomic.Bool
	slots [mailboxSlots]Message
}

// NewMessage copies payload (truncated to MaxMessageBytes) into a message.
func NewMessage(kind uint8, payload []byte) Message {
	var msg Message
	msg.Kind = kind
	if len(payload) > MaxMessageBytes {
		payload = payload[:MaxMessageBytes]
	}
	msg.Len = uint8(len(payload))
	copy(msg.Data[:], payload)
	return msg
}

// TrySend attempts to enqueue a message, returning false if the mailbox is full.
func (mb *Mailbox) TrySend(msg Message) bool {
	for {
		head := mb.head.Load()
		tail := mb.tail.Load()
		if head-tail >= mailboxSlots {
			return false
		}

		// Reserve a slot.
		if !mb.head.CompareAndSwap(head, head+1) {
			continue
		}

		i := head % mailboxSlots
		mb.slots[i] = msg
		mb.ready[i].Store(true)
		return true
	}
}

// Send enqueues a message, blocking until it succeeds.
func (mb *Mailbox) Send(msg Message) {
	for !mb.TrySend(msg) {
		runtime.Gosched()
	}
}

// TryRecv attempts to dequeue one message, returning false if empty.
func (mb *Mailbox) TryRecv() (Message, bool) {
	tail := mb.tail.Load()
	i := tail % mailboxSlots
	if !mb.ready[i].Load() {
		return Message{}, false
	}

	msg := mb.slots[i]
	mb.ready[i].Store(false)
	mb.tail.Store(tail + 1)
	return msg, true
}

// Recv blocks until one message is available.
func (mb *Mailbox) Recv() Message {
	for {
		msg, ok := mb.TryRecv()
		if ok {
			return msg
		}
		runtime.Gosched()
	}
}

// Len returns the number of queued messages.
func (mb *Mailbox) Len() int {
	return int(mb.head.Load() - mb.tail.Load())
}
