package gpures

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/gpures/program"
	"github.com/gogpu/gpures/resource"
)

// Configuration defaults.
const (
	// DefaultFramesInFlight is the number of frames the CPU may run ahead.
	DefaultFramesInFlight = 2

	// MaxFramesInFlight bounds FramesInFlight.
	MaxFramesInFlight = 4

	// DefaultLabel prefixes debug labels when Config.Label is empty.
	DefaultLabel = "gpures"
)

// Config configures a Context.
type Config struct {
	// Backend selects the hal backend by name: "auto" (or empty), "vulkan",
	// "metal", "dx12", "gl" or "noop". Ignored by FromProvider and FromDevice.
	Backend string `toml:"backend"`

	// MaxMemoryMB is the allocator budget. Values below resource.MinMemoryMB
	// select resource.DefaultMaxMemoryMB.
	MaxMemoryMB int `toml:"max_memory_mb"`

	// FramesInFlight sizes per-frame resources. Clamped to [1, MaxFramesInFlight].
	FramesInFlight int `toml:"frames_in_flight"`

	// ProgramCacheSize is the soft limit of program caches created by the
	// context. Zero selects program.DefaultLimit.
	ProgramCacheSize int `toml:"program_cache_size"`

	// Label prefixes debug labels of every device object.
	Label string `toml:"label"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Backend:          "auto",
		MaxMemoryMB:      resource.DefaultMaxMemoryMB,
		FramesInFlight:   DefaultFramesInFlight,
		ProgramCacheSize: program.DefaultLimit,
		Label:            DefaultLabel,
	}
}

// withDefaults fills zero values and clamps out-of-range ones.
func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = "auto"
	}
	if c.MaxMemoryMB < resource.MinMemoryMB {
		c.MaxMemoryMB = resource.DefaultMaxMemoryMB
	}
	switch {
	case c.FramesInFlight <= 0:
		c.FramesInFlight = DefaultFramesInFlight
	case c.FramesInFlight > MaxFramesInFlight:
		c.FramesInFlight = MaxFramesInFlight
	}
	if c.ProgramCacheSize <= 0 {
		c.ProgramCacheSize = program.DefaultLimit
	}
	if c.Label == "" {
		c.Label = DefaultLabel
	}
	return c
}

// LoadConfig reads a TOML configuration file. Missing keys keep their
// defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("gpures: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a TOML configuration. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("gpures: parse config: %w", err)
	}
	if _, _, err := ParseBackend(cfg.Backend); err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}

// ParseBackend maps a backend name to a hal backend variant. auto is true
// when the best available backend should be selected instead.
func ParseBackend(name string) (b gputypes.Backend, auto bool, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return gputypes.BackendEmpty, true, nil
	case "noop", "empty":
		return gputypes.BackendEmpty, false, nil
	case "vulkan":
		return gputypes.BackendVulkan, false, nil
	case "metal":
		return gputypes.BackendMetal, false, nil
	case "dx12":
		return gputypes.BackendDX12, false, nil
	case "gl":
		return gputypes.BackendGL, false, nil
	}
	return gputypes.BackendEmpty, false, fmt.Errorf("%w: unknown backend %q", ErrNoBackend, name)
}
