// Command spookyrx samples a GPIO input line and prints every validated
// frame it decodes, optionally forwarding them to network clients and
// a timestamped capture log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/silentbicycle/spooky/capture"
	"github.com/silentbicycle/spooky/decoder"
	"github.com/silentbicycle/spooky/discover"
	"github.com/silentbicycle/spooky/drive"
	"github.com/silentbicycle/spooky/gateway"
	"github.com/silentbicycle/spooky/gpio"
	"github.com/silentbicycle/spooky/monitor"
)

func main() {
	chip := pflag.StringP("chip", "c", "gpiochip0", "GPIO chip device")
	line := pflag.IntP("line", "l", 27, "GPIO line offset to sample")
	bufSize := pflag.IntP("buffer-size", "b", 64, "maximum payload size in bytes")
	period := pflag.Duration("period", time.Millisecond, "sampler tick interval")
	gatewayAddr := pflag.String("gateway", "", "address to serve decoded frames on (empty disables)")
	captureDir := pflag.String("capture-dir", "", "directory to log raw frames (empty disables)")
	configPath := pflag.String("config", "", "load link settings from a YAML config file (overrides flag defaults)")
	waitForChip := pflag.Bool("wait-for-chip", false, "wait for the GPIO chip device to appear instead of failing immediately")
	click := pflag.Bool("click", false, "play an audible click on every line edge")
	help := pflag.BoolP("help", "h", false, "show this help text")
	pflag.Parse()

	if *help {
		fmt.Fprintf(os.Stderr, "%s - decode spooky frames sampled from GPIO\n\n", os.Args[0])
		pflag.PrintDefaults()
		return
	}

	logger := log.WithPrefix("spookyrx")

	if *configPath != "" {
		cfg, err := capture.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("load config", "err", err)
		}
		*chip, *line = cfg.Chip, cfg.LineOffset
		*bufSize = cfg.BufferSize
		if cfg.CaptureDir != "" {
			*captureDir = cfg.CaptureDir
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *waitForChip {
		if _, err := discover.WaitForChip(ctx, *chip); err != nil {
			logger.Fatal("wait for chip", "err", err)
		}
	}

	in, err := gpio.OpenInput(*chip, *line)
	if err != nil {
		logger.Fatal("open input line", "err", err)
	}
	defer in.Close()

	var captureFile *os.File
	if *captureDir != "" {
		captureFile, err = capture.Open(*captureDir)
		if err != nil {
			logger.Fatal("open capture file", "err", err)
		}
		defer captureFile.Close()
	}

	srv := gateway.NewServer()

	var dec decoder.Decoder
	buf := make([]byte, *bufSize)
	sink := func(data []byte, udata any) {
		logger.Info("frame received", "len", len(data))
		fmt.Printf("% x\n", data)
		if captureFile != nil {
			fmt.Fprintf(captureFile, "%s % x\n", time.Now().Format(time.RFC3339Nano), data)
		}
		if *gatewayAddr != "" {
			srv.Sink(data, udata)
		}
	}
	if res := decoder.Init(&dec, buf, *bufSize, sink, nil); res != decoder.InitOK {
		logger.Fatal("decoder init failed", "result", res)
	}

	if *gatewayAddr != "" {
		go func() {
			if err := srv.Serve(ctx, *gatewayAddr); err != nil && ctx.Err() == nil {
				logger.Error("gateway serve failed", "err", err)
			}
		}()
	}

	var edges chan bool
	if *click {
		edges = make(chan bool, 1)
		go func() {
			if err := monitor.Click(ctx, edges); err != nil && ctx.Err() == nil {
				logger.Warn("click monitor stopped", "err", err)
			}
		}()
	}

	if err := drive.Sample(ctx, &dec, in, *period, edges); err != nil && ctx.Err() == nil {
		logger.Fatal("sample loop failed", "err", err)
	}
}
