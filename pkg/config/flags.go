package config

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// FlagKind is the value type of a registered flag.
type FlagKind int

const (
	StringFlag FlagKind = iota
	UintFlag
)

// Flag describes one CLI flag and the config key it overrides. Commands
// refer to flags by registry key so that --chunk-size means the same thing
// on index, search and serve.
type Flag struct {
	Name        string
	Shorthand   string
	ViperKey    string
	Kind        FlagKind
	Description string
}

// FlagSet maps registry keys to flag definitions.
type FlagSet map[string]Flag

// Registry keys.
const (
	FlagStorageRoot     = "storage-root"
	FlagChunkSize       = "chunk-size"
	FlagChunkOverlap    = "chunk-overlap"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagIndexProvider   = "index-provider"
	FlagMaxResident     = "max-resident"
	FlagAPIListen       = "listen"
	FlagAPITarget       = "api-target"
	FlagIngestWorkers   = "workers"
	FlagIngestQueueSize = "queue-size"
	FlagEventsProvider  = "events-provider"
	FlagEventsBrokers   = "events-brokers"
	FlagEventsTopic     = "events-topic"
)

// Flags is the registry shared by every docqa command.
var Flags = FlagSet{
	FlagStorageRoot:     {Name: "storage-root", ViperKey: "storage.root", Description: "Directory holding indexed documents (default: <config-dir>/documents)"},
	FlagChunkSize:       {Name: "chunk-size", ViperKey: "chunking.size", Kind: UintFlag, Description: "Chunk window size in characters"},
	FlagChunkOverlap:    {Name: "chunk-overlap", ViperKey: "chunking.overlap", Kind: UintFlag, Description: "Characters shared by consecutive chunks"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, openai, hashing, none)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Kind: UintFlag, Description: "Embedding dimensionality"},
	FlagIndexProvider:   {Name: "index-provider", ViperKey: "vector_index.provider", Description: "Vector index provider (flat, sqlite, none)"},
	FlagMaxResident:     {Name: "max-resident", ViperKey: "index.max_resident", Kind: UintFlag, Description: "Maximum documents held in memory (0 for no limit)"},
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
	FlagAPITarget:       {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "docqa API server URL"},
	FlagIngestWorkers:   {Name: "workers", ViperKey: "ingest.workers", Kind: UintFlag, Description: "Number of background index workers"},
	FlagIngestQueueSize: {Name: "queue-size", ViperKey: "ingest.queue_size", Kind: UintFlag, Description: "Capacity of the background index queue"},
	FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Index event publisher (none, kafka)"},
	FlagEventsBrokers:   {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma-separated Kafka broker addresses"},
	FlagEventsTopic:     {Name: "events-topic", ViperKey: "events.topic", Description: "Kafka topic for index events"},
}

// Register adds the flags named by keys to cmd, defaulting each from
// NewDefaultConfig. Flags already on cmd are left alone so overlapping
// groups can be registered together. Values are read back through viper
// after Bind, not from the flag variables.
func (fs FlagSet) Register(cmd *cobra.Command, keys ...string) error {
	defaults := viper.New()
	setViperDefaults(defaults)

	flags := cmd.Flags()
	for _, key := range keys {
		def, ok := fs[key]
		if !ok {
			return fmt.Errorf("unknown flag registry key %q", key)
		}
		if flags.Lookup(def.Name) != nil {
			continue
		}

		switch def.Kind {
		case UintFlag:
			flags.UintP(def.Name, def.Shorthand, defaults.GetUint(def.ViperKey), def.Description)
		default:
			flags.StringP(def.Name, def.Shorthand, defaults.GetString(def.ViperKey), def.Description)
		}
	}
	return nil
}

// Bind connects the registered flags named by keys to their viper keys so
// that a flag set on the command line wins over env, file and defaults.
// Keys whose flag is not on cmd are skipped.
func (fs FlagSet) Bind(v *viper.Viper, cmd *cobra.Command, keys ...string) error {
	var errs []error
	for _, key := range keys {
		def, ok := fs[key]
		if !ok {
			continue
		}
		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(def.ViperKey, f); err != nil {
			errs = append(errs, fmt.Errorf("binding --%s: %w", def.Name, err))
		}
	}
	return errors.Join(errs...)
}
