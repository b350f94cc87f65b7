package fixedarena

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// Backing selects where the arena bytes live.
type Backing string

const (
	// BackingHeap allocates the arena as one Go byte slice.
	BackingHeap Backing = "heap"
	// BackingMmap maps the arena as anonymous private memory outside the Go heap.
	BackingMmap Backing = "mmap"
)

// Config holds the allocator's fixed dimensions.
type Config struct {
	Capacity     int     `toml:"capacity"`
	TableSlots   int     `toml:"table_slots"`
	HistorySlots int     `toml:"history_slots"`
	Backing      Backing `toml:"backing"`
}

// DefaultConfig returns the default dimensions.
func DefaultConfig() Config {
	return Config{
		Capacity:     DefaultCapacity,
		TableSlots:   DefaultTableSlots,
		HistorySlots: DefaultHistorySlots,
		Backing:      BackingHeap,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, c.Capacity)
	}
	if c.TableSlots <= 0 {
		return fmt.Errorf("fixedarena: table_slots must be positive, got %d", c.TableSlots)
	}
	if c.HistorySlots < 0 {
		return fmt.Errorf("fixedarena: history_slots must not be negative, got %d", c.HistorySlots)
	}
	switch c.Backing {
	case BackingHeap, BackingMmap, "":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBacking, c.Backing)
	}
	return nil
}

// LoadConfig reads a TOML file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("fixedarena: load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("fixedarena: load config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteTOML encodes the configuration as TOML.
func (c Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
