// Package loopback wires an encoder straight to a decoder in process, the
// harness cmd/spookyloop uses to exercise a full round trip without real
// hardware. It's grounded on the same pseudo-terminal trick direwolf's
// kiss.go uses to simulate a TNC: a creack/pty pair is opened alongside
// the link, but the line levels pass from encoder to decoder in process
// (with optional injected noise) and nothing is written to the pty.
package loopback

import (
	"errors"
	"math/rand"
	"os"

	"github.com/creack/pty"

	"github.com/silentbicycle/spooky/decoder"
	"github.com/silentbicycle/spooky/encoder"
)

var errNullEncoder = errors.New("loopback: nil encoder")

// Link is a software-only encoder/decoder pairing plus its simulated line.
// The pseudo-terminal pair exists so an operator can `cat` the slave side
// while Run drives the link; it carries no bits of its own.
type Link struct {
	ptmx, pts   *os.File
	noiseChance float64
	rng         *rand.Rand
}

// Open creates a new loopback link. noiseChance is the probability, per
// sample, that Run flips the sampled bit before handing it to the
// decoder, simulating a noisy channel.
func Open(noiseChance float64, seed int64) (*Link, error) {
	ptmx, pts, err := pty.Open()
	if err != nil {
		return nil, err
	}
	return &Link{
		ptmx:        ptmx,
		pts:         pts,
		noiseChance: noiseChance,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// SlaveName reports the pseudo-terminal's slave device path, for an
// operator who wants to `cat` or `screen` the other end of the link.
func (l *Link) SlaveName() string { return l.pts.Name() }

// Close releases the pseudo-terminal pair.
func (l *Link) Close() error {
	err := l.ptmx.Close()
	if e := l.pts.Close(); err == nil {
		err = e
	}
	return err
}

// Run ticks enc and dec together until enc goes idle, feeding every line
// level enc emits into dec (after optionally flipping it per
// noiseChance). Every validated frame is delivered through dec's own
// callback.
func (l *Link) Run(enc *encoder.Encoder, dec *decoder.Decoder) error {
	if enc == nil {
		return errNullEncoder
	}

	level := false
	for {
		switch encoder.Step(enc) {
		case encoder.StepOKLow:
			level = false
		case encoder.StepOKHigh:
			level = true
		case encoder.StepOKDone:
			return nil
		case encoder.StepErrNull:
			return errNullEncoder
		}

		sample := level
		if l.noiseChance > 0 && l.rng.Float64() < l.noiseChance {
			sample = !sample
		}
		decoder.Step(dec, sample)
	}
}
