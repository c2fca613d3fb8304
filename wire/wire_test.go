package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0x85), Checksum([]byte{0x7a}))
	assert.Equal(t, byte(0x55), Checksum([]byte{0xaa, 0x00}))
	assert.Equal(t, byte(0xff), Checksum(nil))
}

func TestBitAt(t *testing.T) {
	assert.Equal(t, 1, BitAt(0x80, 0))
	assert.Equal(t, 0, BitAt(0x80, 1))
	assert.Equal(t, 1, BitAt(0x01, 7))
	assert.Equal(t, 1, BitAt(0x55, 1))
	assert.Equal(t, 0, BitAt(0x55, 0))
}

func TestManchesterHalf(t *testing.T) {
	assert.Equal(t, Low, ManchesterHalf(1, 0))
	assert.Equal(t, High, ManchesterHalf(1, 1))
	assert.Equal(t, High, ManchesterHalf(0, 0))
	assert.Equal(t, Low, ManchesterHalf(0, 1))
}
