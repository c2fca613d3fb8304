package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/silentbicycle/spooky/wire"
	"pgregory.net/rapid"
)

const bufSize = 32

func TestInitRejectsBadArguments(t *testing.T) {
	var enc Encoder
	var buf [bufSize]byte

	assert.Equal(t, InitErrNull, Init(&enc, nil, bufSize, 10))
	assert.Equal(t, InitErrBadArgument, Init(&enc, buf[:], 0, 10))
	assert.Equal(t, InitErrBadArgument, Init(&enc, buf[:], bufSize, 0))
	assert.Equal(t, InitOK, Init(&enc, buf[:], bufSize, 5))
}

func TestEnqueueAcceptsOutgoingInput(t *testing.T) {
	var enc Encoder
	var buf [bufSize]byte
	Init(&enc, buf[:], bufSize, 1)

	input := make([]byte, 10)
	for i := range input {
		input[i] = byte(i)
	}
	assert.Equal(t, EnqueueOK, Enqueue(&enc, input, 10))
}

func TestEnqueueRejectsOversizeInput(t *testing.T) {
	var enc Encoder
	var buf [bufSize]byte
	Init(&enc, buf[:], bufSize, 1)

	input := make([]byte, bufSize+1)
	assert.Equal(t, EnqueueErrSize, Enqueue(&enc, input, bufSize+1))
}

func TestEnqueueRejectsWhenBusy(t *testing.T) {
	var enc Encoder
	var buf [bufSize]byte
	Init(&enc, buf[:], bufSize, 1)

	input := make([]byte, 8)
	assert.Equal(t, EnqueueOK, Enqueue(&enc, input, 8))
	assert.Equal(t, EnqueueErrFull, Enqueue(&enc, input, 8))
}

func TestClearAbortsInFlightFrame(t *testing.T) {
	var enc Encoder
	var buf [bufSize]byte
	Init(&enc, buf[:], bufSize, 1)

	input := make([]byte, 10)
	assert.Equal(t, EnqueueOK, Enqueue(&enc, input, 10))
	assert.Equal(t, EnqueueErrFull, Enqueue(&enc, input, 10))

	assert.Equal(t, ClearOK, Clear(&enc))
	assert.Equal(t, EnqueueOK, Enqueue(&enc, input, 10))
}

func TestIdleReturnsDoneUntilEnqueue(t *testing.T) {
	var enc Encoder
	var buf [bufSize]byte
	Init(&enc, buf[:], bufSize, 1)

	for i := 0; i < 5; i++ {
		assert.Equal(t, StepOKDone, Step(&enc))
	}
}

// byteEdges expands a single MSB-first byte into its 16 expected Manchester
// line-level commands, used as an independent test oracle for the
// per-phase byte sequences emitted by Step.
func byteEdges(b byte) []StepResult {
	edges := make([]StepResult, 0, 16)
	for i := 0; i < 8; i++ {
		if wire.BitAt(b, i) == 1 {
			edges = append(edges, StepOKLow, StepOKHigh)
		} else {
			edges = append(edges, StepOKHigh, StepOKLow)
		}
	}
	return edges
}

func expectedFrame(length, chksum byte, payload []byte) []StepResult {
	var want []StepResult
	want = append(want, byteEdges(0xFF)...)
	want = append(want, byteEdges(0x55)...)
	want = append(want, byteEdges(length)...)
	want = append(want, byteEdges(chksum)...)
	for _, b := range payload {
		want = append(want, byteEdges(b)...)
	}
	want = append(want, StepOKDone)
	return want
}

func TestStepEmitsHeaderFooterAndChecksum(t *testing.T) {
	var enc Encoder
	var buf [bufSize]byte
	Init(&enc, buf[:], bufSize, 1)

	data := []byte{0xaa, 0x00}
	assert.Equal(t, EnqueueOK, Enqueue(&enc, data, len(data)))

	want := expectedFrame(byte(len(data)), wire.Checksum(data), data)
	for i, w := range want {
		assert.Equalf(t, w, Step(&enc), "edge %d", i)
	}
}

func TestStepEmitsBitsSlowerWithLongerTxRate(t *testing.T) {
	var enc Encoder
	var buf [bufSize]byte
	Init(&enc, buf[:], bufSize, 10)

	data := []byte{0xaa, 0x00}
	assert.Equal(t, EnqueueOK, Enqueue(&enc, data, len(data)))

	want := expectedFrame(byte(len(data)), wire.Checksum(data), data)
	for _, w := range want {
		for tick := 0; tick < 9; tick++ {
			assert.Equal(t, StepOK, Step(&enc))
		}
		assert.Equal(t, w, Step(&enc))
	}
}

// Minimum-payload boundary scenario from the spec: a single-byte payload of
// 0x7a, tx_rate 1.
func TestMinimumPayloadBoundaryScenario(t *testing.T) {
	var enc Encoder
	var buf [bufSize]byte
	Init(&enc, buf[:], bufSize, 1)

	data := []byte{0x7a}
	assert.Equal(t, EnqueueOK, Enqueue(&enc, data, len(data)))
	assert.Equal(t, byte(0x85), wire.Checksum(data))

	want := expectedFrame(1, 0x85, data)
	for i, w := range want {
		assert.Equalf(t, w, Step(&enc), "edge %d", i)
	}
}

// Property: regardless of tx_rate, the encoder emits exactly
// 64 + 16*input_size non-OK edge commands before StepOKDone.
func TestNonOKEdgeCountIsIndependentOfTxRate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, bufSize).Draw(t, "size")
		txRate := rapid.IntRange(1, 8).Draw(t, "txRate")

		var enc Encoder
		var buf [bufSize]byte
		Init(&enc, buf[:], bufSize, txRate)

		input := make([]byte, size)
		for i := range input {
			input[i] = byte(i * 7)
		}
		Enqueue(&enc, input, size)

		nonOK := 0
		for {
			res := Step(&enc)
			if res == StepOKDone {
				break
			}
			if res != StepOK {
				nonOK++
			}
		}
		assert.Equal(t, 64+16*size, nonOK)
	})
}
