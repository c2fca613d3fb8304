package ptt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLine is a test double for gpio.OutputLine that records calls without
// requiring GPIO hardware.
type mockLine struct {
	value  bool
	closed bool
}

func (m *mockLine) Set(high bool) error {
	m.value = high
	return nil
}

func (m *mockLine) Close() error {
	m.closed = true
	return nil
}

func TestGPIOKeyer_Key(t *testing.T) {
	mock := new(mockLine)
	k := NewGPIOKeyer(mock, false)

	require.NoError(t, k.Key())

	assert.True(t, mock.value, "line should be high when PTT is active")
}

func TestGPIOKeyer_Unkey(t *testing.T) {
	mock := new(mockLine)
	k := NewGPIOKeyer(mock, false)

	require.NoError(t, k.Unkey())

	assert.False(t, mock.value, "line should be low when PTT is inactive")
}

func TestGPIOKeyer_Invert_Key(t *testing.T) {
	mock := new(mockLine)
	k := NewGPIOKeyer(mock, true)

	require.NoError(t, k.Key())

	assert.False(t, mock.value, "inverted line should be low when PTT is active")
}

func TestGPIOKeyer_Invert_Unkey(t *testing.T) {
	mock := new(mockLine)
	k := NewGPIOKeyer(mock, true)

	require.NoError(t, k.Unkey())

	assert.True(t, mock.value, "inverted line should be high when PTT is inactive")
}

func TestGPIOKeyer_Close(t *testing.T) {
	mock := new(mockLine)
	k := NewGPIOKeyer(mock, false)

	require.NoError(t, k.Close())

	assert.True(t, mock.closed, "Close should close the underlying line")
}
