// Package config keeps the device settings in EEPROM behind a CRC8 check.
package config

import (
	"errors"
	"fmt"
	"gpi/firmware/display"
	"gpi/firmware/scroll"
	"gpi/hal"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/onewire"
)

// EEPROM layout.
const (
	RecordSize    = 18
	CRCOffset     = RecordSize
	MessageOffset = CRCOffset + 1
	MessageSize   = 64
	ImageSize     = MessageOffset + MessageSize
)

// MaxGears is the number of gear thresholds in the record.
const MaxGears = 6

// DefaultMessage is the startup text of a freshly programmed device.
const DefaultMessage = " AQUATICUS.INFO"

// Scroll speeds.
const (
	ScrollNormal uint8 = iota
	ScrollSlow
	ScrollFast
)

// Auto temperature timeouts.
const (
	TimeoutNormal uint8 = iota
	TimeoutShort
	TimeoutLong
	TimeoutOff
)

// ErrCorrupt reports that the stored record failed its checksum and the
// defaults were written in its place.
var ErrCorrupt = errors.New("config: checksum mismatch, defaults restored")

// Config is the persistent record. Field order is the on-EEPROM order.
type Config struct {
	TempFahrenheit    uint8
	TempShortFormat   uint8
	TempTimeout       uint8
	ScrollSpeed       uint8
	GearAnimation     uint8
	AutoBrightnessOff uint8
	Rotation          uint8
	MinBrightness     uint8 // 0..3, scaled by 3 by the display
	UseComma          uint8
	StartupMessage    uint8
	MaxGear           uint8
	UnknownLevel      uint8 // gear ADC reading while between gears
	GearLevel         [MaxGears]uint8
}

// Default returns the factory settings.
func Default() Config {
	return Config{
		MaxGear:      MaxGears,
		UnknownLevel: 254,
		GearLevel:    [MaxGears]uint8{77, 97, 136, 174, 210, 236},
	}
}

// Encode returns the record bytes.
func (c Config) Encode() [RecordSize]byte {
	var b [RecordSize]byte
	b[0] = c.TempFahrenheit
	b[1] = c.TempShortFormat
	b[2] = c.TempTimeout
	b[3] = c.ScrollSpeed
	b[4] = c.GearAnimation
	b[5] = c.AutoBrightnessOff
	b[6] = c.Rotation
	b[7] = c.MinBrightness
	b[8] = c.UseComma
	b[9] = c.StartupMessage
	b[10] = c.MaxGear
	b[11] = c.UnknownLevel
	copy(b[12:], c.GearLevel[:])
	return b
}

// Decode parses a record.
func Decode(b []byte) (Config, error) {
	if len(b) < RecordSize {
		return Config{}, fmt.Errorf("config: short record: %d bytes", len(b))
	}
	c := Config{
		TempFahrenheit:    b[0],
		TempShortFormat:   b[1],
		TempTimeout:       b[2],
		ScrollSpeed:       b[3],
		GearAnimation:     b[4],
		AutoBrightnessOff: b[5],
		Rotation:          b[6],
		MinBrightness:     b[7],
		UseComma:          b[8],
		StartupMessage:    b[9],
		MaxGear:           b[10],
		UnknownLevel:      b[11],
	}
	copy(c.GearLevel[:], b[12:RecordSize])
	return c, nil
}

// Image returns a complete EEPROM image for c and msg.
func Image(c Config, msg []byte) []byte {
	img := make([]byte, ImageSize)
	rec := c.Encode()
	copy(img, rec[:])
	img[CRCOffset] = onewire.CalcCRC(rec[:])
	copy(img[MessageOffset:], encodeMessage(msg))
	return img
}

func encodeMessage(msg []byte) []byte {
	b := make([]byte, MessageSize)
	copy(b, msg)
	return b
}

// Store is the live configuration. Reads are lock-free and safe from the
// display tick; writes go through to the EEPROM.
type Store struct {
	ee  hal.EEPROM
	cur atomic.Pointer[Config]
}

// NewStore returns a store holding the defaults. Call Load to read ee.
func NewStore(ee hal.EEPROM) *Store {
	s := &Store{ee: ee}
	d := Default()
	s.cur.Store(&d)
	return s
}

// Load reads the record. When the checksum does not match, the defaults are
// applied and written back and ErrCorrupt is returned.
func (s *Store) Load() error {
	var img [RecordSize + 1]byte
	if _, err := s.ee.ReadAt(img[:], 0); err != nil {
		return fmt.Errorf("config: read: %w", err)
	}
	if onewire.CheckCRC(img[:CRCOffset+1]) {
		c, err := Decode(img[:RecordSize])
		if err != nil {
			return err
		}
		s.cur.Store(&c)
		return nil
	}

	if err := s.Save(Default()); err != nil {
		return err
	}
	var first [1]byte
	if _, err := s.ee.ReadAt(first[:], MessageOffset); err == nil && first[0] == 0xFF {
		if err := s.SetMessage([]byte(DefaultMessage)); err != nil {
			return err
		}
	}
	return ErrCorrupt
}

// Save stores c and writes it with its checksum.
func (s *Store) Save(c Config) error {
	rec := c.Encode()
	if _, err := s.ee.WriteAt(rec[:], 0); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	if _, err := s.ee.WriteAt([]byte{onewire.CalcCRC(rec[:])}, CRCOffset); err != nil {
		return fmt.Errorf("config: write crc: %w", err)
	}
	s.cur.Store(&c)
	return nil
}

// Get returns a copy of the live configuration.
func (s *Store) Get() Config { return *s.cur.Load() }

// Message returns the startup message up to its 0x00 or 0xFF terminator.
func (s *Store) Message() ([]byte, error) {
	b := make([]byte, MessageSize)
	if _, err := s.ee.ReadAt(b, MessageOffset); err != nil {
		return nil, fmt.Errorf("config: read message: %w", err)
	}
	for i, c := range b {
		if c == 0x00 || c == 0xFF {
			return b[:i], nil
		}
	}
	return b, nil
}

// SetMessage writes the startup message, truncated to MessageSize bytes.
func (s *Store) SetMessage(msg []byte) error {
	if _, err := s.ee.WriteAt(encodeMessage(msg), MessageOffset); err != nil {
		return fmt.Errorf("config: write message: %w", err)
	}
	return nil
}

// DisplaySettings implements display.SettingsSource.
func (s *Store) DisplaySettings() display.Settings {
	c := s.cur.Load()
	return display.Settings{
		Rotation:          display.Rotation(c.Rotation),
		MinBrightness:     c.MinBrightness,
		AutoBrightnessOff: c.AutoBrightnessOff != 0,
	}
}

// AnimationMode implements scroll.ModeSource.
func (s *Store) AnimationMode() scroll.Animation {
	return scroll.Animation(s.cur.Load().GearAnimation)
}

// ScrollDelay implements scroll.ModeSource.
func (s *Store) ScrollDelay() time.Duration {
	switch s.cur.Load().ScrollSpeed {
	case ScrollSlow:
		return 40 * time.Millisecond
	case ScrollFast:
		return 15 * time.Millisecond
	default:
		return 25 * time.Millisecond
	}
}

// TempTimeout returns how long the gear display waits in neutral or top gear
// before switching to the temperature. Zero disables the switch.
func (s *Store) TempTimeout() time.Duration {
	switch s.cur.Load().TempTimeout {
	case TimeoutShort:
		return 10 * time.Second
	case TimeoutLong:
		return 60 * time.Second
	case TimeoutOff:
		return 0
	default:
		return 30 * time.Second
	}
}
