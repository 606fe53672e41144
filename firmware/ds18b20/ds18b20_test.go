package ds18b20

import (
	"errors"
	"gpi/firmware/onewire"
	"gpi/internal/wiresim"
	"testing"

	"gotest.tools/assert"
)

func newSim(raw int16) (*Sensor, *wiresim.Bus, *wiresim.DS18B20) {
	dev := wiresim.NewDS18B20(raw)
	sim := wiresim.NewBus(dev)
	return New(onewire.New(sim.Pin(), sim, nil)), sim, dev
}

func TestDecode(t *testing.T) {
	tests := []struct {
		raw  uint16
		want Temperature
	}{
		{0x07D0, 1250},  // +125
		{0x0550, 850},   // +85
		{0x0191, 250},   // +25.0625
		{0x00A2, 101},   // +10.125
		{0x0008, 5},     // +0.5
		{0x0000, 0},     // 0
		{0xFFF8, -5},    // -0.5
		{0xFF5E, -101},  // -10.125
		{0xFE6F, -250},  // -25.0625
		{0xFC90, -550},  // -55
	}
	for _, tt := range tests {
		got := Decode(byte(tt.raw), byte(tt.raw>>8))
		if got != tt.want {
			t.Fatalf("Decode(%#04x) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestConversionAndRead(t *testing.T) {
	s, sim, dev := newSim(0x0191)

	assert.Equal(t, s.Last(), Invalid)

	start := sim.Now()
	assert.NilError(t, s.StartConversion())
	assert.Equal(t, dev.Conversions(), 1)
	// Reset plus two command bytes, no waiting for the conversion itself.
	assert.Assert(t, sim.Now()-start < 2200)

	got, err := s.ReadResult()
	assert.NilError(t, err)
	assert.Equal(t, got, Temperature(250))
	assert.Equal(t, s.Last(), Temperature(250))
}

func TestReadBeforeConversionReturnsPowerOnValue(t *testing.T) {
	s, _, _ := newSim(0x0191)

	got, err := s.ReadResult()
	assert.NilError(t, err)
	assert.Equal(t, got, Temperature(850))
}

func TestChecksumErrorKeepsLastReading(t *testing.T) {
	s, _, dev := newSim(0x0191)
	assert.NilError(t, s.StartConversion())
	_, err := s.ReadResult()
	assert.NilError(t, err)

	dev.SetRaw(-162) // 0xFF5E, -10.125
	dev.CorruptCRC(true)
	assert.NilError(t, s.StartConversion())

	got, err := s.ReadResult()
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("ReadResult err = %v, want ErrChecksum", err)
	}
	assert.Assert(t, IsSensorError(err))
	assert.Equal(t, got, Invalid)
	assert.Equal(t, s.Last(), Temperature(250))
}

func TestBusErrorsPropagate(t *testing.T) {
	sim := wiresim.NewBus()
	s := New(onewire.New(sim.Pin(), sim, nil))

	err := s.StartConversion()
	if !errors.Is(err, onewire.ErrNoPresence) {
		t.Fatalf("StartConversion err = %v, want ErrNoPresence", err)
	}

	sim.SetShorted(true)
	_, err = s.ReadResult()
	if !errors.Is(err, onewire.ErrShortCircuit) {
		t.Fatalf("ReadResult err = %v, want ErrShortCircuit", err)
	}
	assert.Equal(t, s.Last(), Invalid)
}

func TestRefreshSubstitutesInvalid(t *testing.T) {
	s, sim, _ := newSim(0x0191)
	assert.NilError(t, s.StartConversion())
	_, err := s.Refresh()
	assert.NilError(t, err)
	assert.Equal(t, s.Last(), Temperature(250))

	sim.SetShorted(true)
	got, err := s.Refresh()
	assert.Assert(t, err != nil)
	assert.Equal(t, got, Invalid)
	assert.Equal(t, s.Last(), Invalid)
}
