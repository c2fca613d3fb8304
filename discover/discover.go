// Package discover watches for the GPIO character device backing a link
// to appear, so a harness process can be started before the RF front end
// is plugged in rather than requiring it already be present, the same
// concern direwolf's serial and CM108 device enumeration (kissserial.go,
// cm108.go) solves for USB-attached radios.
package discover

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// WaitForChip blocks until a gpiochip device node matching name appears,
// or ctx is canceled. It returns the device node path.
func WaitForChip(ctx context.Context, name string) (string, error) {
	if path, ok := existingChip(name); ok {
		return path, nil
	}

	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("gpio"); err != nil {
		return "", fmt.Errorf("discover: filter: %w", err)
	}

	ch, stop, err := mon.DeviceChan(ctx)
	if err != nil {
		return "", fmt.Errorf("discover: monitor: %w", err)
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case dev := <-ch:
			if dev == nil {
				continue
			}
			if dev.Sysname() == name && dev.Action() == "add" {
				return dev.Devnode(), nil
			}
		}
	}
}

func existingChip(name string) (string, bool) {
	u := udev.Udev{}
	enum := u.NewEnumerate()
	enum.AddMatchSubsystem("gpio")
	enum.AddMatchSysname(name)

	devices, err := enum.Devices()
	if err != nil || len(devices) == 0 {
		return "", false
	}
	return devices[0].Devnode(), true
}
