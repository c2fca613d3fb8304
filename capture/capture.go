// Package capture holds link configuration and timestamped raw-bit log
// files, grounded on deviceid.go's YAML data-file loading and xmit.go's
// strftime-based timestamp formatting.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
	"gopkg.in/yaml.v3"
)

// Config describes one RF link end to end: which GPIO pins carry it, how
// fast the bit clock runs, and where captured frames are logged.
type Config struct {
	Chip        string `yaml:"chip"`
	LineOffset  int    `yaml:"line_offset"`
	PTTChip     string `yaml:"ptt_chip"`
	PTTOffset   int    `yaml:"ptt_offset"`
	PTTInvert   bool   `yaml:"ptt_invert"`
	TxRate      int    `yaml:"tx_rate"`
	BufferSize  int    `yaml:"buffer_size"`
	PTTMethod   string `yaml:"ptt_method"` // "gpio" or "hamlib"
	HamlibModel int    `yaml:"hamlib_model"`
	HamlibPort  string `yaml:"hamlib_port"`
	CaptureDir  string `yaml:"capture_dir"`
}

// LoadConfig reads and parses a link configuration from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture: read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("capture: parse config: %w", err)
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 32
	}
	if cfg.TxRate == 0 {
		cfg.TxRate = 1
	}
	return &cfg, nil
}

const captureNamePattern = "spooky-%Y%m%d-%H%M%S.log"

// Open creates a new timestamped capture file in dir, named per
// captureNamePattern, and returns it ready for appending raw-bit records.
func Open(dir string) (*os.File, error) {
	f, err := strftime.New(captureNamePattern)
	if err != nil {
		return nil, fmt.Errorf("capture: compile name pattern: %w", err)
	}

	name := f.FormatString(time.Now())
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	return file, nil
}
