// Command spookytx reads lines from stdin and transmits each one as a
// framed payload over a GPIO output line, keying PTT around the frame.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/silentbicycle/spooky/capture"
	"github.com/silentbicycle/spooky/discover"
	"github.com/silentbicycle/spooky/drive"
	"github.com/silentbicycle/spooky/encoder"
	"github.com/silentbicycle/spooky/gpio"
	"github.com/silentbicycle/spooky/ptt"
)

func main() {
	chip := pflag.StringP("chip", "c", "gpiochip0", "GPIO chip device")
	line := pflag.IntP("line", "l", 17, "GPIO line offset to drive")
	pttChip := pflag.String("ptt-chip", "", "GPIO chip device for PTT (empty uses --chip)")
	pttLine := pflag.Int("ptt-line", -1, "GPIO line offset for PTT (-1 to disable)")
	pttInvert := pflag.Bool("ptt-invert", false, "key PTT active-low instead of active-high")
	pttMethod := pflag.String("ptt-method", "gpio", `PTT backend: "gpio" or "hamlib"`)
	hamlibModel := pflag.Int("hamlib-model", 0, "hamlib rig model number (with --ptt-method hamlib)")
	hamlibPort := pflag.String("hamlib-port", "", "hamlib rig control port (with --ptt-method hamlib)")
	txRate := pflag.IntP("tx-rate", "r", 4, "encoder step() calls per half-bit cell")
	bufSize := pflag.IntP("buffer-size", "b", 64, "maximum payload size in bytes")
	period := pflag.Duration("period", time.Millisecond, "driver tick interval")
	configPath := pflag.String("config", "", "load link settings from a YAML config file (overrides flag defaults)")
	waitForChip := pflag.Bool("wait-for-chip", false, "wait for the GPIO chip device to appear instead of failing immediately")
	help := pflag.BoolP("help", "h", false, "show this help text")
	pflag.Parse()

	if *help {
		fmt.Fprintf(os.Stderr, "%s - transmit lines of stdin as spooky frames over GPIO\n\n", os.Args[0])
		pflag.PrintDefaults()
		return
	}

	logger := log.WithPrefix("spookytx")

	if *configPath != "" {
		cfg, err := capture.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("load config", "err", err)
		}
		*chip, *line = cfg.Chip, cfg.LineOffset
		*pttChip, *pttLine, *pttInvert, *pttMethod = cfg.PTTChip, cfg.PTTOffset, cfg.PTTInvert, cfg.PTTMethod
		*hamlibModel, *hamlibPort = cfg.HamlibModel, cfg.HamlibPort
		*txRate, *bufSize = cfg.TxRate, cfg.BufferSize
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *waitForChip {
		if _, err := discover.WaitForChip(ctx, *chip); err != nil {
			logger.Fatal("wait for chip", "err", err)
		}
	}

	out, err := gpio.OpenOutput(*chip, *line)
	if err != nil {
		logger.Fatal("open output line", "err", err)
	}
	defer out.Close()

	var keyer ptt.Keyer
	switch {
	case *pttMethod == "hamlib":
		hamKeyer, err := ptt.NewHamlibKeyer(*hamlibModel, *hamlibPort)
		if err != nil {
			logger.Fatal("open hamlib rig", "err", err)
		}
		keyer = hamKeyer
		defer keyer.Close()
	case *pttLine >= 0:
		pc := *pttChip
		if pc == "" {
			pc = *chip
		}
		pttOut, err := gpio.OpenOutput(pc, *pttLine)
		if err != nil {
			logger.Fatal("open ptt line", "err", err)
		}
		keyer = ptt.NewGPIOKeyer(pttOut, *pttInvert)
		defer keyer.Close()
	}

	var enc encoder.Encoder
	buf := make([]byte, *bufSize)
	if res := encoder.Init(&enc, buf, *bufSize, *txRate); res != encoder.InitOK {
		logger.Fatal("encoder init failed", "result", res)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		msg := scanner.Bytes()
		if len(msg) > *bufSize {
			logger.Warn("line too long, dropping", "len", len(msg))
			continue
		}

		if keyer != nil {
			keyer.Key()
		}

		if res := encoder.Enqueue(&enc, msg, len(msg)); res != encoder.EnqueueOK {
			logger.Error("enqueue failed", "result", res)
			continue
		}

		if err := drive.Run(ctx, &enc, out, *period); err != nil {
			logger.Error("drive failed", "err", err)
		}

		if keyer != nil {
			keyer.Unkey()
		}
	}
}
