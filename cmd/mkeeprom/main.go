//go:build !tinygo

// Command mkeeprom writes a settings image the indicator and the simulator
// boot from.
package main

import (
	"flag"
	"fmt"
	"gpi/firmware/config"
	"gpi/hal/host"
	"os"
	"strconv"
	"strings"
)

type settings struct {
	fahrenheit     bool
	short          bool
	timeout        string
	scroll         string
	animation      string
	autoBrightness bool
	rotation       string
	minBrightness  uint
	comma          bool
	startup        bool
	maxGear        uint
	unknownLevel   uint
	gearLevels     string
	message        string
}

func defaultSettings() settings {
	d := config.Default()
	levels := make([]string, len(d.GearLevel))
	for i, v := range d.GearLevel {
		levels[i] = strconv.Itoa(int(v))
	}
	return settings{
		timeout:        "normal",
		scroll:         "normal",
		animation:      "vertical",
		autoBrightness: true,
		rotation:       "0",
		maxGear:        uint(d.MaxGear),
		unknownLevel:   uint(d.UnknownLevel),
		gearLevels:     strings.Join(levels, ","),
		message:        config.DefaultMessage,
	}
}

// choice returns the index of v among opts.
func choice(name, v string, opts ...string) (uint8, error) {
	for i, o := range opts {
		if strings.EqualFold(v, o) {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("-%s: %q is not one of %s", name, v, strings.Join(opts, ", "))
}

func flag01(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (s settings) config() (config.Config, error) {
	c := config.Config{
		TempFahrenheit:    flag01(s.fahrenheit),
		TempShortFormat:   flag01(s.short),
		AutoBrightnessOff: flag01(!s.autoBrightness),
		UseComma:          flag01(s.comma),
		StartupMessage:    flag01(s.startup),
	}

	var err error
	if c.TempTimeout, err = choice("timeout", s.timeout, "normal", "short", "long", "off"); err != nil {
		return c, err
	}
	if c.ScrollSpeed, err = choice("scroll", s.scroll, "normal", "slow", "fast"); err != nil {
		return c, err
	}
	if c.GearAnimation, err = choice("animation", s.animation, "vertical", "horizontal", "none"); err != nil {
		return c, err
	}
	if c.Rotation, err = choice("rotation", s.rotation, "0", "90", "180", "270"); err != nil {
		return c, err
	}

	if s.minBrightness > 3 {
		return c, fmt.Errorf("-min-brightness: %d is above 3", s.minBrightness)
	}
	c.MinBrightness = uint8(s.minBrightness)
	if s.maxGear < 1 || s.maxGear > config.MaxGears {
		return c, fmt.Errorf("-max-gear: %d is outside 1..%d", s.maxGear, config.MaxGears)
	}
	c.MaxGear = uint8(s.maxGear)
	if s.unknownLevel > 255 {
		return c, fmt.Errorf("-unknown-level: %d is above 255", s.unknownLevel)
	}
	c.UnknownLevel = uint8(s.unknownLevel)

	fields := strings.Split(s.gearLevels, ",")
	if len(fields) != config.MaxGears {
		return c, fmt.Errorf("-gear-levels: want %d values, got %d", config.MaxGears, len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return c, fmt.Errorf("-gear-levels: %w", err)
		}
		c.GearLevel[i] = uint8(v)
	}
	return c, nil
}

// image returns the EEPROM contents, padded to size with erased cells.
func (s settings) image(size int) ([]byte, error) {
	c, err := s.config()
	if err != nil {
		return nil, err
	}
	if len(s.message) > config.MessageSize {
		return nil, fmt.Errorf("-message: longer than %d bytes", config.MessageSize)
	}
	img := config.Image(c, []byte(s.message))
	if size < len(img) {
		return nil, fmt.Errorf("-size: %d is below the %d byte image", size, len(img))
	}
	out := make([]byte, size)
	for i := copy(out, img); i < size; i++ {
		out[i] = 0xFF
	}
	return out, nil
}

func main() {
	s := defaultSettings()
	var outPath string
	var size uint
	flag.StringVar(&outPath, "out", host.EEPROMPath(), "Output EEPROM image path.")
	flag.UintVar(&size, "size", host.EEPROMSize, "EEPROM size (bytes).")
	flag.BoolVar(&s.fahrenheit, "fahrenheit", s.fahrenheit, "Show degrees Fahrenheit.")
	flag.BoolVar(&s.short, "short", s.short, "Show whole degrees.")
	flag.StringVar(&s.timeout, "timeout", s.timeout, "Temperature timeout: normal, short, long or off.")
	flag.StringVar(&s.scroll, "scroll", s.scroll, "Scroll speed: normal, slow or fast.")
	flag.StringVar(&s.animation, "animation", s.animation, "Gear change: vertical, horizontal or none.")
	flag.BoolVar(&s.autoBrightness, "auto-brightness", s.autoBrightness, "Follow the light sensor.")
	flag.StringVar(&s.rotation, "rotation", s.rotation, "Panel rotation: 0, 90, 180 or 270.")
	flag.UintVar(&s.minBrightness, "min-brightness", s.minBrightness, "Lowest brightness step, 0..3.")
	flag.BoolVar(&s.comma, "comma", s.comma, "Use a decimal comma.")
	flag.BoolVar(&s.startup, "startup", s.startup, "Scroll the message at power-up.")
	flag.UintVar(&s.maxGear, "max-gear", s.maxGear, "Number of gears.")
	flag.UintVar(&s.unknownLevel, "unknown-level", s.unknownLevel, "Gear sensor reading between gears.")
	flag.StringVar(&s.gearLevels, "gear-levels", s.gearLevels, "Gear sensor thresholds, comma separated.")
	flag.StringVar(&s.message, "message", s.message, "Startup message.")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "error: -out is required")
		os.Exit(2)
	}

	img, err := s.image(int(size))
	if err == nil {
		err = os.WriteFile(outPath, img, 0o644)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", outPath, len(img))
}
