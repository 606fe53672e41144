//go:build !tinygo

package host

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/assert"
)

func TestFileEEPROMPadsErased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.bin")
	assert.NilError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	e, err := OpenEEPROM(path)
	assert.NilError(t, err)
	defer e.Close()
	assert.Equal(t, e.SizeBytes(), uint32(EEPROMSize))

	buf := make([]byte, 5)
	n, err := e.ReadAt(buf, 0)
	assert.NilError(t, err)
	assert.Equal(t, n, 5)
	assert.DeepEqual(t, buf, []byte{1, 2, 3, 0xFF, 0xFF})
}

func TestFileEEPROMBounds(t *testing.T) {
	e, err := OpenEEPROM(filepath.Join(t.TempDir(), "e.bin"))
	assert.NilError(t, err)
	defer e.Close()

	n, err := e.WriteAt([]byte{9, 9, 9, 9}, EEPROMSize-2)
	assert.NilError(t, err)
	assert.Equal(t, n, 2)

	_, err = e.ReadAt(make([]byte, 1), EEPROMSize)
	assert.ErrorContains(t, err, "eeprom read")

	buf := make([]byte, 4)
	n, err = e.ReadAt(buf, EEPROMSize-2)
	assert.NilError(t, err)
	assert.Equal(t, n, 2)
	assert.DeepEqual(t, buf[:2], []byte{9, 9})
}

func TestFileEEPROMClosed(t *testing.T) {
	e, err := OpenEEPROM(filepath.Join(t.TempDir(), "e.bin"))
	assert.NilError(t, err)
	assert.NilError(t, e.Close())
	assert.NilError(t, e.Close())
	_, err = e.WriteAt([]byte{0}, 0)
	assert.ErrorContains(t, err, "not implemented")
}

func TestEEPROMPathFromEnv(t *testing.T) {
	t.Setenv("GPI_EEPROM_PATH", "")
	assert.Equal(t, EEPROMPath(), DefaultEEPROMPath)
	t.Setenv("GPI_EEPROM_PATH", "/tmp/x.eeprom")
	assert.Equal(t, EEPROMPath(), "/tmp/x.eeprom")
}
