package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "link.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "chip: gpiochip0\nline_offset: 17\n")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "gpiochip0", cfg.Chip)
	assert.Equal(t, 17, cfg.LineOffset)
	assert.Equal(t, 32, cfg.BufferSize, "zero buffer_size should fall back to the default")
	assert.Equal(t, 1, cfg.TxRate, "zero tx_rate should fall back to the default")
}

func TestLoadConfig_ExplicitValues(t *testing.T) {
	path := writeConfig(t, "chip: gpiochip1\nline_offset: 4\nbuffer_size: 128\ntx_rate: 8\nptt_method: hamlib\nhamlib_model: 1035\nhamlib_port: /dev/ttyUSB0\n")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 128, cfg.BufferSize, "non-zero buffer_size should be kept as-is")
	assert.Equal(t, 8, cfg.TxRate, "non-zero tx_rate should be kept as-is")
	assert.Equal(t, "hamlib", cfg.PTTMethod)
	assert.Equal(t, 1035, cfg.HamlibModel)
	assert.Equal(t, "/dev/ttyUSB0", cfg.HamlibPort)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfig(t, "chip: [this is not a scalar\n")

	_, err := LoadConfig(path)

	assert.Error(t, err)
}
