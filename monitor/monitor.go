// Package monitor plays a short click through the default audio output on
// every line edge, letting an operator listen to channel activity by ear
// the way an amateur-radio operator monitors a repeater. It's grounded on
// direwolf's gen_tone.go, which synthesizes AFSK tones sample by sample;
// here the synthesis is reduced to a single short click burst per edge.
package monitor

import (
	"context"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate  = 44100
	clickHz     = 1200
	clickFrames = sampleRate / 50 // 20ms click
)

// Click opens the default audio output and plays a short click every time
// a value arrives on edges, until ctx is canceled or edges is closed.
func Click(ctx context.Context, edges <-chan bool) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	click := make([]float32, clickFrames)
	for i := range click {
		phase := float64(i) / float64(sampleRate) * clickHz * 2 * 3.14159265
		click[i] = float32(0.3 * sine(phase))
	}

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), clickFrames, &click)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-edges:
			if !ok {
				return nil
			}
			if err := stream.Write(); err != nil {
				return err
			}
		}
	}
}

func sine(x float64) float64 {
	// A small fixed-point sine approximation would do here too, but the
	// click is short enough that a direct series works fine once the phase
	// is folded into [-pi, pi).
	x = x - tau*float64(int(x/tau))
	if x >= tau/2 {
		x -= tau
	}
	return x - x*x*x/6 + x*x*x*x*x/120
}

const tau = 6.283185307179586
