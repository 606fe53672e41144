package config

import (
	"errors"
	"gpi/firmware/display"
	"gpi/firmware/scroll"
	"gpi/hal"
	"testing"
	"time"

	"gotest.tools/assert"
	"periph.io/x/conn/v3/onewire"
)

func TestLoadEmptyRestoresDefaults(t *testing.T) {
	ee := hal.NewMemEEPROM(512)
	s := NewStore(ee)

	err := s.Load()
	assert.Assert(t, errors.Is(err, ErrCorrupt))
	assert.Equal(t, s.Get(), Default())

	// The defaults were written back with a valid checksum.
	img := ee.Bytes()
	assert.Assert(t, onewire.CheckCRC(img[:CRCOffset+1]))
	assert.NilError(t, NewStore(ee).Load())

	msg, err := s.Message()
	assert.NilError(t, err)
	assert.Equal(t, string(msg), DefaultMessage)
}

func TestSaveLoad(t *testing.T) {
	ee := hal.NewMemEEPROM(512)
	s := NewStore(ee)

	c := Default()
	c.TempFahrenheit = 1
	c.Rotation = 2
	c.MinBrightness = 3
	c.GearLevel[5] = 240
	assert.NilError(t, s.Save(c))

	got := NewStore(ee)
	assert.NilError(t, got.Load())
	assert.Equal(t, got.Get(), c)
}

func TestCorruptRecord(t *testing.T) {
	ee := hal.NewMemEEPROM(512)
	s := NewStore(ee)
	c := Default()
	c.ScrollSpeed = ScrollFast
	assert.NilError(t, s.Save(c))
	assert.NilError(t, s.SetMessage([]byte("KEEP")))

	_, err := ee.WriteAt([]byte{0x55}, 3)
	assert.NilError(t, err)

	fresh := NewStore(ee)
	assert.Assert(t, errors.Is(fresh.Load(), ErrCorrupt))
	assert.Equal(t, fresh.Get(), Default())

	// A programmed message survives.
	msg, err := fresh.Message()
	assert.NilError(t, err)
	assert.Equal(t, string(msg), "KEEP")
}

func TestEncodeLayout(t *testing.T) {
	c := Config{
		TempFahrenheit:    1,
		TempShortFormat:   2,
		TempTimeout:       3,
		ScrollSpeed:       4,
		GearAnimation:     5,
		AutoBrightnessOff: 6,
		Rotation:          7,
		MinBrightness:     8,
		UseComma:          9,
		StartupMessage:    10,
		MaxGear:           11,
		UnknownLevel:      12,
		GearLevel:         [MaxGears]uint8{13, 14, 15, 16, 17, 18},
	}
	b := c.Encode()
	for i := range b {
		assert.Equal(t, b[i], uint8(i+1), "byte %d", i)
	}
	d, err := Decode(b[:])
	assert.NilError(t, err)
	assert.Equal(t, d, c)

	_, err = Decode(b[:5])
	assert.ErrorContains(t, err, "short record")
}

func TestImage(t *testing.T) {
	img := Image(Default(), []byte("HELLO"))
	assert.Equal(t, len(img), ImageSize)

	ee := hal.NewMemEEPROM(512)
	_, err := ee.WriteAt(img, 0)
	assert.NilError(t, err)

	s := NewStore(ee)
	assert.NilError(t, s.Load())
	msg, err := s.Message()
	assert.NilError(t, err)
	assert.Equal(t, string(msg), "HELLO")
}

func TestMessageTruncated(t *testing.T) {
	s := NewStore(hal.NewMemEEPROM(512))
	long := make([]byte, MessageSize+10)
	for i := range long {
		long[i] = 'x'
	}
	assert.NilError(t, s.SetMessage(long))
	msg, err := s.Message()
	assert.NilError(t, err)
	assert.Equal(t, len(msg), MessageSize)
}

func TestAccessors(t *testing.T) {
	s := NewStore(hal.NewMemEEPROM(512))
	c := Default()
	c.Rotation = 1
	c.MinBrightness = 2
	c.AutoBrightnessOff = 1
	c.GearAnimation = 1
	c.ScrollSpeed = ScrollSlow
	c.TempTimeout = TimeoutOff
	assert.NilError(t, s.Save(c))

	assert.Equal(t, s.DisplaySettings(), display.Settings{
		Rotation:          display.Rotate90,
		MinBrightness:     2,
		AutoBrightnessOff: true,
	})
	assert.Equal(t, s.AnimationMode(), scroll.AnimateHorizontal)
	assert.Equal(t, s.ScrollDelay(), 40*time.Millisecond)
	assert.Equal(t, s.TempTimeout(), time.Duration(0))

	c.TempTimeout = TimeoutNormal
	c.ScrollSpeed = ScrollNormal
	assert.NilError(t, s.Save(c))
	assert.Equal(t, s.TempTimeout(), 30*time.Second)
	assert.Equal(t, s.ScrollDelay(), 25*time.Millisecond)
}

type failingEEPROM struct{}

func (failingEEPROM) SizeBytes() uint32 { return 0 }
func (failingEEPROM) ReadAt(p []byte, off uint32) (int, error) {
	return 0, hal.ErrNotImplemented
}
func (failingEEPROM) WriteAt(p []byte, off uint32) (int, error) {
	return 0, hal.ErrNotImplemented
}

func TestLoadReadError(t *testing.T) {
	err := NewStore(failingEEPROM{}).Load()
	assert.Assert(t, errors.Is(err, hal.ErrNotImplemented))
	assert.Assert(t, !errors.Is(err, ErrCorrupt))
}
