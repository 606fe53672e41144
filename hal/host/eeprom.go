//go:build !tinygo

package host

import (
	"errors"
	"fmt"
	"gpi/hal"
	"io"
	"os"
	"sync"
)

const (
	DefaultEEPROMPath = "gpi.eeprom"
	EEPROMSize        = 512
)

// EEPROMPath returns $GPI_EEPROM_PATH, or DefaultEEPROMPath when unset.
func EEPROMPath() string {
	if p := os.Getenv("GPI_EEPROM_PATH"); p != "" {
		return p
	}
	return DefaultEEPROMPath
}

// FileEEPROM keeps the EEPROM contents in a file so settings survive a
// restart of the simulator. Files shorter than EEPROMSize are padded with
// erased cells.
type FileEEPROM struct {
	mu   sync.Mutex
	f    *os.File
	size uint32
}

// OpenEEPROM opens or creates the EEPROM file at path.
func OpenEEPROM(path string) (*FileEEPROM, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	size := uint32(EEPROMSize)
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	switch {
	case st.Size() > int64(^uint32(0)):
		_ = f.Close()
		return nil, fmt.Errorf("eeprom file %s: too large", path)
	case st.Size() >= int64(size):
		size = uint32(st.Size())
	default:
		pad := make([]byte, int64(size)-st.Size())
		for i := range pad {
			pad[i] = 0xFF
		}
		if _, err := f.WriteAt(pad, st.Size()); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &FileEEPROM{f: f, size: size}, nil
}

func (e *FileEEPROM) SizeBytes() uint32 { return e.size }

func (e *FileEEPROM) ReadAt(p []byte, off uint32) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		return 0, hal.ErrNotImplemented
	}
	if off >= e.size {
		return 0, fmt.Errorf("eeprom read at %d: %w", off, os.ErrInvalid)
	}
	if maxN := int(e.size - off); len(p) > maxN {
		p = p[:maxN]
	}
	n, err := e.f.ReadAt(p, int64(off))
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

func (e *FileEEPROM) WriteAt(p []byte, off uint32) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		return 0, hal.ErrNotImplemented
	}
	if off >= e.size {
		return 0, fmt.Errorf("eeprom write at %d: %w", off, os.ErrInvalid)
	}
	if maxN := int(e.size - off); len(p) > maxN {
		p = p[:maxN]
	}
	return e.f.WriteAt(p, int64(off))
}

func (e *FileEEPROM) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		return nil
	}
	err := e.f.Close()
	e.f = nil
	return err
}
