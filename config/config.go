// Package config loads the settings of the synth. The defaults are embedded in
// the binary; a YAML or TOML file only needs to list what it changes.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vsariola/polysynth"
	"github.com/vsariola/polysynth/player"
	"github.com/vsariola/polysynth/synth"
	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		SampleRate    int                   `yaml:"sample_rate" toml:"sample_rate"`
		BufferSize    int                   `yaml:"buffer_size" toml:"buffer_size"` // samples per channel per audio callback
		Channels      int                   `yaml:"channels" toml:"channels"`
		Backend       Backend               `yaml:"backend" toml:"backend"`
		SampleFormat  SampleFormat          `yaml:"sample_format" toml:"sample_format"` // only used by the oto backend
		MaxVoices     int                   `yaml:"max_voices" toml:"max_voices"`
		MaxChain      int                   `yaml:"max_chain" toml:"max_chain"`
		StealPolicy   synth.StealPolicy     `yaml:"steal_policy" toml:"steal_policy"`
		MixMode       synth.MixMode         `yaml:"mix_mode" toml:"mix_mode"`
		Volume        float64               `yaml:"volume" toml:"volume"`
		QueueSize     int                   `yaml:"queue_size" toml:"queue_size"`
		QueueOverflow player.OverflowPolicy `yaml:"queue_overflow" toml:"queue_overflow"`
		ScopeLength   int                   `yaml:"scope_length" toml:"scope_length"`
		Patch         polysynth.Patch       `yaml:"patch" toml:"patch"`
	}

	Backend      string
	SampleFormat string
)

const (
	BackendOto       Backend = "oto"
	BackendPortAudio Backend = "portaudio"
	BackendHeadless  Backend = "headless"
)

const (
	Float32 SampleFormat = "float32"
	Int16   SampleFormat = "int16"
)

// Limits for Validate.
const (
	MinSampleRate = 8000
	MaxSampleRate = 384000
	MinBufferSize = 16
	MaxBufferSize = 16384
	MaxChannels   = 8
	MaxVoices     = 256
	MaxChain      = 64
)

var ErrInvalidConfig = errors.New("invalid config")

//go:embed default.yml
var defaultConfigYaml []byte

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	if err := decodeYAML(defaultConfigYaml, &cfg); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return cfg
}

// Load reads the file at path on top of the defaults. Files ending in .toml
// are read as TOML, everything else as YAML. Unknown keys are an error. The
// result is validated and its patch clamped.
func Load(path string) (Config, error) {
	cfg := Default()
	bs, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config at %q: %w", path, err)
	}
	if err := Parse(bs, filepath.Ext(path), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	cfg.Patch = cfg.Patch.Clamped()
	return cfg, nil
}

// Parse decodes data on top of cfg. ext selects the format like a file
// extension: ".toml" for TOML, anything else for YAML.
func Parse(data []byte, ext string, cfg *Config) error {
	if strings.EqualFold(ext, ".toml") {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown key %q", undecoded[0].String())
		}
		return nil
	}
	return decodeYAML(data, cfg)
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// UserPath returns where the user's own config file is looked for.
func UserPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "polysynth", "config.yml"), nil
}

// LoadUser loads the user's config file if there is one, and the defaults
// otherwise. A file that exists but cannot be read is an error.
func LoadUser() (cfg Config, exists bool, err error) {
	path, err := UserPath()
	if err != nil {
		return Default(), false, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), false, nil
	} else if err != nil {
		return Default(), false, fmt.Errorf("failed to stat config at %q: %w", path, err)
	}
	cfg, err = Load(path)
	return cfg, true, err
}

// Validate checks that the synth can run with cfg. Out of range volume and
// patch parameters are not errors; they are clamped where used.
func (c *Config) Validate() error {
	if c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample_rate %d not in [%d,%d]", ErrInvalidConfig, c.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.BufferSize < MinBufferSize || c.BufferSize > MaxBufferSize {
		return fmt.Errorf("%w: buffer_size %d not in [%d,%d]", ErrInvalidConfig, c.BufferSize, MinBufferSize, MaxBufferSize)
	}
	if c.Channels < 1 || c.Channels > MaxChannels {
		return fmt.Errorf("%w: channels %d not in [1,%d]", ErrInvalidConfig, c.Channels, MaxChannels)
	}
	switch c.Backend {
	case BackendOto, BackendPortAudio, BackendHeadless:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	switch c.SampleFormat {
	case Float32, Int16:
	default:
		return fmt.Errorf("%w: unknown sample_format %q", ErrInvalidConfig, c.SampleFormat)
	}
	if c.MaxVoices < 1 || c.MaxVoices > MaxVoices {
		return fmt.Errorf("%w: max_voices %d not in [1,%d]", ErrInvalidConfig, c.MaxVoices, MaxVoices)
	}
	if c.MaxChain < 1 || c.MaxChain > MaxChain {
		return fmt.Errorf("%w: max_chain %d not in [1,%d]", ErrInvalidConfig, c.MaxChain, MaxChain)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size %d must be positive", ErrInvalidConfig, c.QueueSize)
	}
	if c.ScopeLength < 1 {
		return fmt.Errorf("%w: scope_length %d must be positive", ErrInvalidConfig, c.ScopeLength)
	}
	if err := c.Patch.Validate(c.MaxChain); err != nil {
		return fmt.Errorf("%w: patch: %w", ErrInvalidConfig, err)
	}
	return nil
}
