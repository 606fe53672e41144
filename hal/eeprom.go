package hal

import (
	"fmt"
	"os"
	"sync"
)

// MemEEPROM is an EEPROM held in RAM. Fresh cells read 0xFF.
type MemEEPROM struct {
	mu  sync.Mutex
	mem []byte
}

// NewMemEEPROM returns an erased EEPROM of size bytes.
func NewMemEEPROM(size uint32) *MemEEPROM {
	m := &MemEEPROM{mem: make([]byte, size)}
	for i := range m.mem {
		m.mem[i] = 0xFF
	}
	return m
}

func (m *MemEEPROM) SizeBytes() uint32 { return uint32(len(m.mem)) }

func (m *MemEEPROM) ReadAt(p []byte, off uint32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off >= uint32(len(m.mem)) {
		return 0, fmt.Errorf("eeprom read at %d: %w", off, os.ErrInvalid)
	}
	return copy(p, m.mem[off:]), nil
}

func (m *MemEEPROM) WriteAt(p []byte, off uint32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off >= uint32(len(m.mem)) {
		return 0, fmt.Errorf("eeprom write at %d: %w", off, os.ErrInvalid)
	}
	return copy(m.mem[off:], p), nil
}

// Bytes returns a copy of the whole memory.
func (m *MemEEPROM) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.mem...)
}
