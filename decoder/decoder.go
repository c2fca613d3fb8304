// Package decoder recovers framed payloads from a stream of boolean line
// samples. It re-synchronizes its bit clock from a fresh preamble every
// time, and silently drops anything that fails a length or checksum check.
package decoder

import "github.com/silentbicycle/spooky/wire"

// InitResult is returned by Init.
type InitResult int

const (
	InitOK InitResult = iota
	InitErrNull
	InitErrBadArgument
)

// StepResult is returned by Step.
type StepResult int

const (
	// StepOK means no frame was completed on this tick.
	StepOK StepResult = iota
	// StepDone means a checksum-valid frame was delivered to the
	// callback during this call.
	StepDone
	StepErrNull
)

type mode int

const (
	modeHeader mode = iota
	modeLength
	modeChecksum
	modePayload
)

// Sink is invoked once per successfully validated frame, synchronously from
// within Step, before Step returns StepDone.
type Sink func(data []byte, udata any)

// noLevel is neither 0 nor 1; it seeds Decoder.last so that the very first
// sample is always treated as an edge.
const noLevel = 2

// Decoder is the receive-side state machine described in the wire
// protocol. The zero value is not usable; call Init first.
type Decoder struct {
	buffer     []byte
	bufferSize int

	mode mode

	last     int
	ticks    int
	preTicks int
	interval int

	bitAccum byte
	bitIndex byte

	payloadLength int
	chksum        byte

	index int

	cb      Sink
	cbUdata any
}

// Init prepares dec to decode into buffer (of length bufferSize, which
// must be in 16..=255) and to invoke cb once per validated frame. The
// buffer is used both as the edge-interval ring during clock recovery and
// as the payload accumulator once a frame is underway.
func Init(dec *Decoder, buffer []byte, bufferSize int, cb Sink, udata any) InitResult {
	if dec == nil || buffer == nil || cb == nil {
		return InitErrNull
	}
	if bufferSize < wire.MinBufferSize || bufferSize > wire.MaxBufferSize {
		return InitErrBadArgument
	}

	for i := range buffer {
		buffer[i] = 0
	}

	*dec = Decoder{
		buffer:     buffer,
		bufferSize: bufferSize,
		last:       noLevel,
		bitIndex:   0x80,
		cb:         cb,
		cbUdata:    udata,
	}
	return InitOK
}

// Step samples one new bit of line level. If a complete, checksum-valid
// frame was delivered to the callback on this tick, it returns StepDone.
func Step(dec *Decoder, bit bool) StepResult {
	if dec == nil {
		return StepErrNull
	}

	if dec.ticks < 255 {
		dec.ticks++
	}

	switch dec.mode {
	case modeHeader:
		dec.stepHeader(bit)
	case modeLength:
		if dec.sinkBit(bit, true, dec.lengthByte) {
			return StepDone
		}
	case modeChecksum:
		if dec.sinkBit(bit, true, dec.checksumByte) {
			return StepDone
		}
	case modePayload:
		if dec.sinkBit(bit, false, dec.payloadByte) {
			return StepDone
		}
	}
	return StepOK
}

// level converts a boolean line sample to 0/1 for comparison against last.
func level(bit bool) int {
	if bit {
		return 1
	}
	return 0
}

// approxEq reports whether a is within tolerance of b, where the
// tolerance is b/4 clamped to a floor of 1 tick for small b.
func approxEq(a, b int) bool {
	tol := b / 4
	if b < 4 {
		tol = 1
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tol
}

// appendRing records the most recent inter-edge tick count in the 16-entry
// ring buffer that shares storage with the payload accumulator. The very
// first edge records the sentinel 255 ("unknown / max possible") rather
// than an actual measurement.
func (dec *Decoder) appendRing(offset int) {
	var val byte
	if dec.index == 0 {
		val = 255
	} else {
		val = byte(dec.ticks - offset)
	}
	dec.buffer[dec.index%wire.RingBufferSize] = val
	dec.index++
}

// stepHeader looks for a fast-then-slow preamble in the incoming edge
// stream, using the ring buffer of recent inter-edge intervals to recover
// the bit clock.
func (dec *Decoder) stepHeader(bit bool) {
	b := level(bit)
	if b == dec.last {
		return
	}

	dec.appendRing(0)
	dec.ticks = 0
	dec.last = b

	var total, avg int
	var longCount int
	for i := 0; i < wire.RingBufferSize; i++ {
		idx := (dec.index + i) % wire.RingBufferSize
		val := int(dec.buffer[idx])
		if val == 255 {
			return
		}

		if i < wire.RingBufferSize-8 {
			total += val
			if i == wire.RingBufferSize-8-1 {
				avg = total / (wire.RingBufferSize - 8)
			}
		} else if avg > 0 {
			if approxEq(val, 2*avg) {
				longCount++
			}
		}
	}

	if longCount == 8 && avg > 0 {
		dec.mode = modeLength
		dec.ticks = 0
		dec.interval = avg
	}
}

// quietTooLong reports whether the line has gone without a transition for
// longer than the frame-boundary timeout: more than 2*interval+interval/4
// ticks since the most recent setup or bit edge.
func quietTooLong(elapsed, interval int) bool {
	return elapsed > 2*interval+interval/4
}

// byteHandler is invoked once a full byte has been demodulated in LENGTH,
// CHECKSUM, or PAYLOAD mode. It returns whether a checksum-valid frame was
// just delivered (only ever true for PAYLOAD, on the final byte).
type byteHandler func() bool

// sinkBit runs one tick of Manchester demodulation. saveRing controls
// whether edges also update the interval ring buffer — true in LENGTH and
// CHECKSUM (which share storage with HEADER's clock-recovery history),
// false in PAYLOAD (where the same storage is the payload accumulator).
func (dec *Decoder) sinkBit(bit bool, saveRing bool, onByte byteHandler) bool {
	b := level(bit)
	if b == dec.last {
		if quietTooLong(dec.ticks-dec.preTicks, dec.interval) {
			dec.reset()
		}
		return false
	}
	dec.last = b

	switch {
	case dec.preTicks == 0 && approxEq(dec.ticks, dec.interval):
		if saveRing {
			dec.appendRing(0)
		}
		dec.preTicks = dec.ticks
	case approxEq(dec.ticks, 2*dec.interval):
		if saveRing {
			dec.appendRing(dec.preTicks)
		}
		dec.preTicks = 0
		dec.ticks = 0

		if dec.sinkAccum(b) {
			done := onByte()
			dec.bitAccum = 0
			return done
		}
	}
	return false
}

// sinkAccum folds one demodulated bit (MSB-first) into the byte
// accumulator and reports whether a full byte has just completed.
func (dec *Decoder) sinkAccum(bit int) bool {
	if bit == 1 {
		dec.bitAccum |= dec.bitIndex
	}
	dec.bitIndex >>= 1
	if dec.bitIndex == 0 {
		dec.bitIndex = 0x80
		return true
	}
	return false
}

func (dec *Decoder) lengthByte() bool {
	dec.payloadLength = int(dec.bitAccum)
	if dec.payloadLength == 0 || dec.payloadLength > dec.bufferSize {
		dec.reset()
		return false
	}
	dec.mode = modeChecksum
	return false
}

func (dec *Decoder) checksumByte() bool {
	dec.chksum = dec.bitAccum
	dec.index = 0
	dec.mode = modePayload
	return false
}

func (dec *Decoder) payloadByte() bool {
	dec.buffer[dec.index] = dec.bitAccum
	dec.index++
	if dec.index != dec.payloadLength {
		return false
	}

	done := wire.Checksum(dec.buffer[:dec.payloadLength]) == dec.chksum
	if done {
		dec.cb(dec.buffer[:dec.payloadLength], dec.cbUdata)
	}
	dec.reset()
	// reset intentionally leaves the ring/payload buffer and index
	// alone elsewhere, but a finished frame always restarts at index 0.
	dec.index = 0
	return done
}

// reset returns the decoder to HEADER, discarding any in-flight frame but
// deliberately leaving the ring buffer and last untouched so that a real
// preamble overlapping a false header is still recoverable.
func (dec *Decoder) reset() {
	dec.mode = modeHeader
	dec.ticks = 0
	dec.interval = 0
	dec.bitIndex = 0x80
	dec.bitAccum = 0
	dec.payloadLength = 0
	dec.preTicks = 0
}
