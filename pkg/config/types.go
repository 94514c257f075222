package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent docqa configuration stored as config.toml
// in the .docqa/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	VectorIndex VectorIndexConfig `toml:"vector_index"`
	Index       IndexConfig       `toml:"index"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Ingest      IngestConfig      `toml:"ingest"`
	Events      EventsConfig      `toml:"events"`
}

// StorageConfig holds where document artifacts live. An empty Root means
// the documents/ directory inside the resolved .docqa/ directory.
type StorageConfig struct {
	Root string `toml:"root,omitempty"`
}

// ChunkingConfig holds chunk window settings. Overlap is only defaulted
// together with Size, so an explicit overlap of 0 survives a load.
type ChunkingConfig struct {
	Size    uint `toml:"size,omitempty"`
	Overlap uint `toml:"overlap"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// VectorIndexConfig selects the per-document vector index implementation.
type VectorIndexConfig struct {
	Provider string `toml:"provider,omitempty"`
}

// IndexConfig holds index manager settings.
type IndexConfig struct {
	MaxResident uint `toml:"max_resident,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// API server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// IngestConfig holds async ingest pool settings.
type IngestConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// EventsConfig holds event stream settings. Brokers is a comma-separated list.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.root":          stringKey(func(c *Config) *string { return &c.Storage.Root }),
	"chunking.size":         uintKey("chunking.size", func(c *Config) *uint { return &c.Chunking.Size }),
	"chunking.overlap":      uintKey("chunking.overlap", func(c *Config) *uint { return &c.Chunking.Overlap }),
	"embedding.provider":    stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":      stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":       stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions":  uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"vector_index.provider": stringKey(func(c *Config) *string { return &c.VectorIndex.Provider }),
	"index.max_resident":    uintKey("index.max_resident", func(c *Config) *uint { return &c.Index.MaxResident }),
	"api.listen":            stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target":     stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"ingest.workers":        uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),
	"ingest.queue_size":     uintKey("ingest.queue_size", func(c *Config) *uint { return &c.Ingest.QueueSize }),
	"events.provider":       stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":        stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":          stringKey(func(c *Config) *string { return &c.Events.Topic }),
}

// orderedKeys lists configKeys in TOML section order.
var orderedKeys = []string{
	"storage.root",
	"chunking.size",
	"chunking.overlap",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.dimensions",
	"vector_index.provider",
	"index.max_resident",
	"api.listen",
	"client.api_target",
	"ingest.workers",
	"ingest.queue_size",
	"events.provider",
	"events.brokers",
	"events.topic",
}
