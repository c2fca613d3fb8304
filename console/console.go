// Package console reads a line of operator input from the controlling
// terminal in raw mode, grounded on the pkg/term usage in direwolf's
// kissserial.go and dwgpsnmea.go (both open a *term.Term for line-
// oriented device I/O). Here the "device" is the operator's own console,
// for cmd/spookyloop's interactive send mode.
package console

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/term"
)

// Reader reads operator-typed lines from the controlling terminal,
// echoing each character as it's typed.
type Reader struct {
	t *term.Term
	r *bufio.Reader
}

// Open puts the controlling terminal into raw mode and returns a Reader.
// Close must be called to return the terminal to its prior state.
func Open() (*Reader, error) {
	t, err := term.Open("/dev/tty")
	if err != nil {
		return nil, fmt.Errorf("console: open tty: %w", err)
	}
	if err := term.RawMode(t); err != nil {
		t.Close()
		return nil, fmt.Errorf("console: raw mode: %w", err)
	}
	return &Reader{t: t, r: bufio.NewReader(t)}, nil
}

// ReadLine reads one line of input, echoing each byte to stdout and
// returning on a carriage return or newline.
func (c *Reader) ReadLine() (string, error) {
	var line []byte
	for {
		b, err := c.r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\r' || b == '\n' {
			fmt.Fprintln(os.Stdout)
			return string(line), nil
		}
		fmt.Fprintf(os.Stdout, "%c", b)
		line = append(line, b)
	}
}

// Close restores the terminal's prior mode.
func (c *Reader) Close() error {
	c.t.Restore()
	return c.t.Close()
}
