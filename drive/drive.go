// Package drive runs the encoder and decoder state machines against real
// time: a fixed-interval ticker stands in for the sample clock an audio or
// GPIO front end would otherwise provide, calling Step once per tick the
// way direwolf's audio device loop pulls one sample per tick from ALSA.
package drive

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/silentbicycle/spooky/decoder"
	"github.com/silentbicycle/spooky/encoder"
	"github.com/silentbicycle/spooky/gpio"
)

// Run drives enc at period, writing each tick's line command to line, until
// ctx is canceled or the encoder goes idle with nothing queued.
func Run(ctx context.Context, enc *encoder.Encoder, line gpio.OutputLine, period time.Duration) error {
	logger := log.WithPrefix("drive")
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		switch encoder.Step(enc) {
		case encoder.StepOKLow:
			if err := line.Set(false); err != nil {
				return err
			}
		case encoder.StepOKHigh:
			if err := line.Set(true); err != nil {
				return err
			}
		case encoder.StepOKDone:
			logger.Debug("frame complete, line idle")
			return nil
		case encoder.StepErrNull:
			return context.Canceled
		}
	}
}

// Sample drives dec at period, reading line once per tick, until ctx is
// canceled. Every validated frame is delivered through dec's own callback.
// If edges is non-nil, every sample that differs from the previous one is
// sent on it (dropped rather than blocking if there's no receiver ready),
// for a monitor listening to channel activity by ear.
func Sample(ctx context.Context, dec *decoder.Decoder, line gpio.InputLine, period time.Duration, edges chan<- bool) error {
	logger := log.WithPrefix("drive")
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	havePrev := false
	var prev bool
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		bit, err := line.Value()
		if err != nil {
			logger.Error("line read failed", "err", err)
			return err
		}

		if edges != nil && (!havePrev || bit != prev) {
			select {
			case edges <- bit:
			default:
			}
		}
		havePrev, prev = true, bit

		if decoder.Step(dec, bit) == decoder.StepDone {
			logger.Debug("frame delivered")
		}
	}
}
