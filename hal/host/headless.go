//go:build !tinygo

package host

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	// Hz is the panel sampling rate.
	Hz int
	// Ticks stops the run after that many samples. Zero runs until ctx is
	// done.
	Ticks uint64
}

// RunHeadless runs fw against s without a window and logs the panel each
// time the picture changes.
func RunHeadless(ctx context.Context, s *Sim, fw Firmware, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := runFirmware(fctx, s, fw)

	t := time.NewTicker(d)
	defer t.Stop()

	var (
		tick uint64
		last string
	)
	for {
		select {
		case <-ctx.Done():
			cancel()
			<-done
			return ctx.Err()
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			return err
		case <-t.C:
			if pic := s.Panel().Snapshot().String(); pic != last {
				last = pic
				s.log.WriteLineString(s.inputs().Status() + "\n" + pic)
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				cancel()
				if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}
		}
	}
}
