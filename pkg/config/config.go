package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/docqa/pkg/dotdir"
)

const (
	configFile   = "config.toml"
	documentsDir = "documents"

	// CurrentV is the only config.toml schema version docqa reads.
	CurrentV = 0
)

// Configer reads and writes config.toml inside a resolved .docqa/ directory.
type Configer struct {
	path string
}

// NewConfiger resolves the .docqa/ directory (creating it if needed) and
// points at its config.toml. The file itself may not exist yet.
func NewConfiger(override string) (*Configer, error) {
	dir, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return &Configer{}, nil
	}

	path := filepath.Join(dir, configFile)
	if _, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return &Configer{path: path}, nil
}

// GetTarget returns the config.toml path, or "" when none was resolved.
func (c *Configer) GetTarget() string {
	return c.path
}

// ValidConfigKeys returns every settable key in config.toml section order.
func ValidConfigKeys() []string {
	return slices.Clone(orderedKeys)
}

func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// LoadConfig reads config.toml and fills unset fields from
// NewDefaultConfig. A missing file yields the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.path == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return NewDefaultConfig(), nil
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg, NewDefaultConfig())
	return cfg, nil
}

func orDefault[T comparable](field *T, def T) {
	var zero T
	if *field == zero {
		*field = def
	}
}

func applyDefaults(cfg, d *Config) {
	orDefault(&cfg.Version, d.Version)

	// An explicit overlap of 0 is meaningful once a size is chosen.
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = d.Chunking.Size
		orDefault(&cfg.Chunking.Overlap, d.Chunking.Overlap)
	}

	orDefault(&cfg.Embedding.Provider, d.Embedding.Provider)
	orDefault(&cfg.Embedding.Target, d.Embedding.Target)
	orDefault(&cfg.Embedding.Model, d.Embedding.Model)
	orDefault(&cfg.Embedding.Dimensions, d.Embedding.Dimensions)
	orDefault(&cfg.VectorIndex.Provider, d.VectorIndex.Provider)
	orDefault(&cfg.Index.MaxResident, d.Index.MaxResident)
	orDefault(&cfg.API.Listen, d.API.Listen)
	orDefault(&cfg.Client.APITarget, d.Client.APITarget)
	orDefault(&cfg.Ingest.Workers, d.Ingest.Workers)
	orDefault(&cfg.Ingest.QueueSize, d.Ingest.QueueSize)
	orDefault(&cfg.Events.Provider, d.Events.Provider)
	orDefault(&cfg.Events.Topic, d.Events.Topic)
}

// SaveConfig writes cfg to config.toml through a temp file and rename so a
// crash never leaves a truncated config behind.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}
	if c.path == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SetConfigValue parses value into key and saves the result.
func (c *Configer) SetConfigValue(key, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}
	if err := info.set(cfg, value); err != nil {
		return err
	}
	return c.SaveConfig(cfg)
}

// GetConfigValue returns the effective file value of key, defaults applied.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}
	return info.get(cfg), nil
}

// ParseConfigTOML decodes config.toml bytes. A version other than CurrentV
// is rejected.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	if cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}
	return cfg, nil
}
