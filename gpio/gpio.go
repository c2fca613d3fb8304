// Package gpio drives and samples a single line of hardware, the boundary
// collaborator the wire protocol's encoder and decoder never touch
// directly: an OutputLine turns an encoder's OK_LOW/OK_HIGH/OK_DONE
// commands into a physical pin state, and an InputLine turns a physical
// pin's level into the boolean sample the decoder expects every tick.
package gpio

import (
	"fmt"
	"os"
	"strconv"

	gpiocdev "github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

// OutputLine is a single boolean-level output.
type OutputLine interface {
	Set(high bool) error
	Close() error
}

// InputLine is a single boolean-level input.
type InputLine interface {
	Value() (bool, error)
	Close() error
}

// cdevOutput and cdevInput wrap a gpio-cdev character device line, the
// preferred backend on any Linux system with the modern uAPI.
type cdevOutput struct{ line *gpiocdev.Line }
type cdevInput struct{ line *gpiocdev.Line }

// OpenOutput requests offset on chip as an output line, initially low.
func OpenOutput(chip string, offset int) (OutputLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(0), gpiocdev.WithConsumer("spooky"))
	if err != nil {
		return openSysfsOutput(chip, offset)
	}
	return &cdevOutput{line: line}, nil
}

// OpenInput requests offset on chip as an input line.
func OpenInput(chip string, offset int) (InputLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput, gpiocdev.WithConsumer("spooky"))
	if err != nil {
		return openSysfsInput(chip, offset)
	}
	return &cdevInput{line: line}, nil
}

func (o *cdevOutput) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	return o.line.SetValue(v)
}

func (o *cdevOutput) Close() error { return o.line.Close() }

func (i *cdevInput) Value() (bool, error) {
	v, err := i.line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (i *cdevInput) Close() error { return i.line.Close() }

// sysfsLine is the /sys/class/gpio fallback for systems without the
// gpio-cdev uAPI, exported once on open and unexported on close, matching
// the export/unexport dance direwolf's ptt.go performs for its own GPIO
// backend.
type sysfsLine struct {
	num   int
	value *os.File
}

func openSysfsOutput(chip string, offset int) (OutputLine, error) {
	l, err := openSysfs(chip, offset, "out")
	if err != nil {
		return nil, err
	}
	return l, nil
}

func openSysfsInput(chip string, offset int) (InputLine, error) {
	l, err := openSysfs(chip, offset, "in")
	if err != nil {
		return nil, err
	}
	return l, nil
}

func openSysfs(chip string, offset int, direction string) (*sysfsLine, error) {
	num, err := lineNumber(chip, offset)
	if err != nil {
		return nil, err
	}

	// Ignore the export error: "already exported" is the common case on a
	// line that was used before, and any real failure surfaces below when
	// we try to open direction/value.
	_ = writeFile("/sys/class/gpio/export", strconv.Itoa(num))

	base := fmt.Sprintf("/sys/class/gpio/gpio%d", num)
	if err := writeFile(base+"/direction", direction); err != nil {
		return nil, fmt.Errorf("gpio: set direction: %w", err)
	}

	f, err := os.OpenFile(base+"/value", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("gpio: open value: %w", err)
	}
	return &sysfsLine{num: num, value: f}, nil
}

// lineNumber resolves a gpiochip name plus line offset into the flat
// /sys/class/gpio numbering space. It first checks with unix.Stat that
// the chip's /dev node exists, then reads the chip's base from
// /sys/class/gpio/<chip>/base, using 0 if that file cannot be read.
func lineNumber(chip string, offset int) (int, error) {
	var st unix.Stat_t
	if err := unix.Stat("/dev/"+chip, &st); err != nil {
		return 0, fmt.Errorf("gpio: stat %s: %w", chip, err)
	}
	base, err := readInt(fmt.Sprintf("/sys/class/gpio/%s/base", chip))
	if err != nil {
		base = 0
	}
	return base + offset, nil
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(trimNewline(b)))
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0200)
}

func (l *sysfsLine) Set(high bool) error {
	v := "0"
	if high {
		v = "1"
	}
	_, err := l.value.WriteAt([]byte(v), 0)
	return err
}

func (l *sysfsLine) Value() (bool, error) {
	buf := make([]byte, 1)
	if _, err := l.value.ReadAt(buf, 0); err != nil {
		return false, err
	}
	return buf[0] == '1', nil
}

func (l *sysfsLine) Close() error {
	err := l.value.Close()
	_ = writeFile("/sys/class/gpio/unexport", strconv.Itoa(l.num))
	return err
}
