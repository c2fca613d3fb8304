// Command spookyloop exercises a full encoder/decoder round trip without
// real hardware, optionally injecting noise, and optionally reading each
// outgoing message interactively from the console.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/silentbicycle/spooky/console"
	"github.com/silentbicycle/spooky/decoder"
	"github.com/silentbicycle/spooky/encoder"
	"github.com/silentbicycle/spooky/loopback"
)

func main() {
	txRate := pflag.IntP("tx-rate", "r", 1, "encoder step() calls per half-bit cell")
	bufSize := pflag.IntP("buffer-size", "b", 64, "maximum payload size in bytes")
	noise := pflag.Float64P("noise", "n", 0, "probability of flipping a sampled bit (0..1)")
	seed := pflag.Int64P("seed", "s", 1, "noise RNG seed")
	interactive := pflag.BoolP("interactive", "i", false, "read messages from the console instead of stdin lines")
	help := pflag.BoolP("help", "h", false, "show this help text")
	pflag.Parse()

	if *help {
		fmt.Fprintf(os.Stderr, "%s - loop spooky frames through a simulated noisy line\n\n", os.Args[0])
		pflag.PrintDefaults()
		return
	}

	logger := log.WithPrefix("spookyloop")

	link, err := loopback.Open(*noise, *seed)
	if err != nil {
		logger.Fatal("open loopback link", "err", err)
	}
	defer link.Close()
	logger.Info("loopback ready", "slave", link.SlaveName())

	var enc encoder.Encoder
	encBuf := make([]byte, *bufSize)
	if res := encoder.Init(&enc, encBuf, *bufSize, *txRate); res != encoder.InitOK {
		logger.Fatal("encoder init failed", "result", res)
	}

	var dec decoder.Decoder
	decBuf := make([]byte, *bufSize)
	sink := func(data []byte, _ any) {
		fmt.Printf("received: % x %q\n", data, string(data))
	}
	if res := decoder.Init(&dec, decBuf, *bufSize, sink, nil); res != decoder.InitOK {
		logger.Fatal("decoder init failed", "result", res)
	}

	readLine := stdinReader()
	if *interactive {
		cons, err := console.Open()
		if err != nil {
			logger.Fatal("open console", "err", err)
		}
		defer cons.Close()
		readLine = cons.ReadLine
	}

	for {
		msg, err := readLine()
		if err != nil {
			return
		}
		msg = strings.TrimRight(msg, "\r\n")
		if len(msg) > *bufSize {
			logger.Warn("message too long, dropping", "len", len(msg))
			continue
		}

		if res := encoder.Enqueue(&enc, []byte(msg), len(msg)); res != encoder.EnqueueOK {
			logger.Error("enqueue failed", "result", res)
			continue
		}
		if err := link.Run(&enc, &dec); err != nil {
			logger.Error("loopback run failed", "err", err)
		}
	}
}

func stdinReader() func() (string, error) {
	scanner := bufio.NewScanner(os.Stdin)
	return func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("spookyloop: end of input")
		}
		return scanner.Text(), nil
	}
}
