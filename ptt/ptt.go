// Package ptt keys a transmitter: asserts push-to-talk before a frame
// starts driving the line and releases it once the encoder reports
// OK_DONE, the way direwolf's ptt.go straddles a plain GPIO pin and a
// rig-control daemon depending on what hardware is on the other end.
package ptt

import (
	"github.com/charmbracelet/log"
	hamlib "github.com/xylo04/goHamlib"

	"github.com/silentbicycle/spooky/gpio"
)

// Keyer asserts or releases push-to-talk.
type Keyer interface {
	Key() error
	Unkey() error
	Close() error
}

// GPIOKeyer drives a dedicated output line, active-high by default.
type GPIOKeyer struct {
	line   gpio.OutputLine
	invert bool
	logger *log.Logger
}

// NewGPIOKeyer wraps an already-open output line as a keyer. invert flips
// the active sense, for front ends that key on a logic low.
func NewGPIOKeyer(line gpio.OutputLine, invert bool) *GPIOKeyer {
	return &GPIOKeyer{line: line, invert: invert, logger: log.WithPrefix("ptt")}
}

func (k *GPIOKeyer) Key() error {
	k.logger.Debug("ptt on")
	return k.line.Set(!k.invert)
}

func (k *GPIOKeyer) Unkey() error {
	k.logger.Debug("ptt off")
	return k.line.Set(k.invert)
}

func (k *GPIOKeyer) Close() error { return k.line.Close() }

// HamlibKeyer keys PTT through a rig-control daemon via goHamlib, for
// installations where the RF front end is a real amateur-radio
// transceiver rather than a bare ASK/OOK module.
type HamlibKeyer struct {
	rig    *hamlib.Rig
	logger *log.Logger
}

// NewHamlibKeyer opens and initializes a rig of the given hamlib model
// number on the named serial port.
func NewHamlibKeyer(model int, port string) (*HamlibKeyer, error) {
	rig := hamlib.NewRig(model)
	if err := rig.SetConf("rig_pathname", port); err != nil {
		return nil, err
	}
	if err := rig.Open(); err != nil {
		return nil, err
	}
	return &HamlibKeyer{rig: rig, logger: log.WithPrefix("ptt")}, nil
}

func (k *HamlibKeyer) Key() error {
	k.logger.Debug("hamlib ptt on")
	return k.rig.SetPTT(hamlib.VFOCurrent, hamlib.PTTOn)
}

func (k *HamlibKeyer) Unkey() error {
	k.logger.Debug("hamlib ptt off")
	return k.rig.SetPTT(hamlib.VFOCurrent, hamlib.PTTOff)
}

func (k *HamlibKeyer) Close() error {
	k.rig.Close()
	return nil
}
