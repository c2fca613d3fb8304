// Package encoder turns a queued payload into a Manchester-coded stream of
// line-level transitions. It is driven one tick at a time by a caller-owned
// loop; it never blocks, allocates, or touches a buffer it wasn't given.
package encoder

import "github.com/silentbicycle/spooky/wire"

// InitResult is returned by Init.
type InitResult int

const (
	InitOK InitResult = iota
	InitErrNull
	InitErrBadArgument
)

// EnqueueResult is returned by Enqueue.
type EnqueueResult int

const (
	EnqueueOK EnqueueResult = iota
	EnqueueErrSize
	EnqueueErrFull
)

// ClearResult is returned by Clear.
type ClearResult int

const (
	ClearOK ClearResult = iota
	ClearErrNull
)

// StepResult is returned by Step.
type StepResult int

const (
	// StepOK means the line level should stay unchanged this tick.
	StepOK StepResult = iota
	// StepOKLow means the caller should drive the line low.
	StepOKLow
	// StepOKHigh means the caller should drive the line high.
	StepOKHigh
	// StepOKDone means transmission has finished; the encoder is IDLE.
	StepOKDone
	StepErrNull
)

type mode int

const (
	modeIdle mode = iota
	modePreambleFast
	modePreambleSlow
	modeLength
	modeChecksum
	modePayload
)

// Encoder is the transmit-side state machine described in the wire
// protocol. The zero value is not usable; call Init first.
type Encoder struct {
	buffer     []byte
	bufferSize int
	inputSize  int
	txRate     int

	ticks  int
	mode   mode
	index  int
	chksum byte
}

// Init prepares enc to use buffer (of length bufferSize) for outgoing
// payloads, ticking tx_rate step calls per half-bit cell. buffer is not
// copied; enc keeps a reference to it and the caller must not touch it
// until the encoder is IDLE again.
func Init(enc *Encoder, buffer []byte, bufferSize int, txRate int) InitResult {
	if enc == nil || buffer == nil {
		return InitErrNull
	}
	if bufferSize == 0 || txRate == 0 {
		return InitErrBadArgument
	}

	*enc = Encoder{
		buffer:     buffer,
		bufferSize: bufferSize,
		txRate:     txRate,
		mode:       modeIdle,
	}
	return InitOK
}

// Enqueue copies input into the encoder's buffer and begins transmitting a
// new frame. It fails if a frame is already in flight, or if input is
// larger than the encoder's buffer.
func Enqueue(enc *Encoder, input []byte, inputSize int) EnqueueResult {
	if enc.mode != modeIdle {
		return EnqueueErrFull
	}
	if inputSize > enc.bufferSize {
		return EnqueueErrSize
	}

	copy(enc.buffer, input[:inputSize])
	enc.inputSize = inputSize
	enc.mode = modePreambleFast
	enc.index = 0
	enc.ticks = 0
	return EnqueueOK
}

// Clear aborts any frame in flight and returns the encoder to IDLE.
func Clear(enc *Encoder) ClearResult {
	if enc == nil {
		return ClearErrNull
	}
	enc.mode = modeIdle
	return ClearOK
}

// Step advances the encoder by one tick. Only every tx_rate-th call
// actually advances the bit sequence; the rest return StepOK so that a
// caller can poll much faster than the bit rate without wasting cycles.
func Step(enc *Encoder) StepResult {
	if enc == nil {
		return StepErrNull
	}

	enc.ticks++
	if enc.ticks%enc.txRate != 0 {
		return StepOK
	}
	enc.ticks = 0

	switch enc.mode {
	case modeIdle:
		return StepOKDone
	case modePreambleFast:
		return enc.stepPreambleFast()
	case modePreambleSlow:
		return enc.stepPreambleSlow()
	case modeLength:
		return enc.stepLength()
	case modeChecksum:
		return enc.stepChecksum()
	case modePayload:
		return enc.stepPayload()
	default:
		return StepOK
	}
}

// encodeBit returns the line transition for cell index's half-cell of
// logical bit bit, per the Manchester convention in wire.ManchesterHalf.
func encodeBit(bit int, index int) StepResult {
	if wire.ManchesterHalf(bit, index%2) == wire.Low {
		return StepOKLow
	}
	return StepOKHigh
}

const (
	preambleFastCells = 2 * wire.PreambleFastBits
	preambleSlowCells = 2 * wire.PreambleSlowBits
	lengthCells       = 16
	checksumCells     = 16
)

func (enc *Encoder) stepPreambleFast() StepResult {
	res := encodeBit(1, enc.index)
	enc.index++
	if enc.index == preambleFastCells {
		enc.mode = modePreambleSlow
		enc.index = 0
	}
	return res
}

func (enc *Encoder) stepPreambleSlow() StepResult {
	bit := wire.BitAt(wire.PreambleSlowByte, enc.index/2)
	res := encodeBit(bit, enc.index)
	enc.index++
	if enc.index == preambleSlowCells {
		enc.mode = modeLength
		enc.index = 0
		enc.chksum = wire.Checksum(enc.buffer[:enc.inputSize])
	}
	return res
}

func (enc *Encoder) stepLength() StepResult {
	bit := wire.BitAt(byte(enc.inputSize), enc.index/2)
	res := encodeBit(bit, enc.index)
	enc.index++
	if enc.index == lengthCells {
		enc.mode = modeChecksum
		enc.index = 0
	}
	return res
}

func (enc *Encoder) stepChecksum() StepResult {
	bit := wire.BitAt(enc.chksum, enc.index/2)
	res := encodeBit(bit, enc.index)
	enc.index++
	if enc.index == checksumCells {
		enc.mode = modePayload
		enc.index = 0
	}
	return res
}

func (enc *Encoder) stepPayload() StepResult {
	byteIdx := enc.index / 16
	bitIdx := (enc.index % 16) / 2
	res := encodeBit(wire.BitAt(enc.buffer[byteIdx], bitIdx), enc.index)
	enc.index++
	if enc.index == 16*enc.inputSize {
		enc.mode = modeIdle
	}
	return res
}
