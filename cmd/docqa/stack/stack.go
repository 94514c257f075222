// Package stack assembles the index manager and its optional semantic and
// event backends from the effective docqa configuration.
package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/pkg/capability"
	"github.com/papercomputeco/docqa/pkg/config"
	"github.com/papercomputeco/docqa/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/docqa/pkg/embeddings/utils"
	"github.com/papercomputeco/docqa/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/docqa/pkg/eventstream/utils"
	"github.com/papercomputeco/docqa/pkg/index"
	"github.com/papercomputeco/docqa/pkg/vector"
	vectorutils "github.com/papercomputeco/docqa/pkg/vector/utils"
)

// Flag groups shared by the docqa commands.
var (
	StorageFlags = []string{
		config.FlagStorageRoot,
	}

	IndexFlags = []string{
		config.FlagStorageRoot,
		config.FlagChunkSize,
		config.FlagChunkOverlap,
		config.FlagEmbeddingProv,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingModel,
		config.FlagEmbeddingDims,
		config.FlagIndexProvider,
		config.FlagMaxResident,
	}

	EventFlags = []string{
		config.FlagEventsProvider,
		config.FlagEventsBrokers,
		config.FlagEventsTopic,
	}
)

// AddFlags registers the named flag groups on cmd. Their values are read
// back through viper by LoadConfig.
func AddFlags(cmd *cobra.Command, groups ...[]string) {
	for _, group := range groups {
		// Groups hold registry constants, so an error here is a programming bug.
		if err := config.Flags.Register(cmd, group...); err != nil {
			panic(err)
		}
	}
}

// LoadConfig resolves the effective configuration for cmd: flags over
// DOCQA_ environment variables over config.toml over defaults.
func LoadConfig(cmd *cobra.Command, keys ...[]string) (*config.Config, string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, "", err
	}
	for _, group := range keys {
		if err := config.Flags.Bind(v, cmd, group...); err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, "", err
	}
	return cfg, configDir, nil
}

// Options selects which parts of the stack Open builds.
type Options struct {
	Config    *config.Config
	ConfigDir string

	// Semantic runs the capability probe. Without it every document is
	// read and written in keyword mode.
	Semantic bool

	// Events wires the configured index event publisher.
	Events bool

	Logger *slog.Logger
}

// Stack owns everything Open built and releases it on Close.
type Stack struct {
	Root       string
	Manager    *index.Manager
	Capability *capability.Capability
	Publisher  eventstream.Publisher
}

// Open builds the index manager described by o.
func Open(ctx context.Context, o Options) (*Stack, error) {
	cfg := o.Config

	root, err := config.StorageRoot(cfg.Storage.Root, o.ConfigDir)
	if err != nil {
		return nil, err
	}

	s := &Stack{Root: root}

	if o.Semantic {
		s.Capability = capability.Detect(ctx, capability.Probe{
			NewEmbedder: func() (embeddings.Embedder, error) {
				return embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
					ProviderType: cfg.Embedding.Provider,
					TargetURL:    cfg.Embedding.Target,
					Model:        cfg.Embedding.Model,
					Dimensions:   cfg.Embedding.Dimensions,
				})
			},
			NewProvider: func() (vector.Provider, error) {
				return vectorutils.NewProvider(&vectorutils.NewProviderOpts{
					ProviderType: cfg.VectorIndex.Provider,
					Logger:       o.Logger,
				})
			},
			EmbeddingProvider: cfg.Embedding.Provider,
			IndexProvider:     cfg.VectorIndex.Provider,
			Logger:            o.Logger,
		})
	}

	if o.Events {
		s.Publisher, err = eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
			ProviderType: cfg.Events.Provider,
			Brokers:      SplitBrokers(cfg.Events.Brokers),
			Topic:        cfg.Events.Topic,
			Logger:       o.Logger,
		})
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("creating event publisher: %w", err)
		}
	}

	s.Manager, err = index.NewManager(index.Config{
		Root:         root,
		Capability:   s.Capability,
		ChunkSize:    int(cfg.Chunking.Size),
		ChunkOverlap: int(cfg.Chunking.Overlap),
		MaxResident:  int(cfg.Index.MaxResident),
		Publisher:    s.Publisher,
		Logger:       o.Logger,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating index manager: %w", err)
	}

	return s, nil
}

// Close releases the manager, the semantic backends and the publisher.
func (s *Stack) Close() error {
	var errs []error
	if s.Manager != nil {
		errs = append(errs, s.Manager.Close())
	}
	if s.Capability != nil {
		errs = append(errs, s.Capability.Close())
	}
	if s.Publisher != nil {
		errs = append(errs, s.Publisher.Close())
	}
	return errors.Join(errs...)
}

// SplitBrokers parses a comma-separated broker list, dropping blanks.
func SplitBrokers(brokers string) []string {
	out := []string{}
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ParseDocumentID parses a document id argument.
func ParseDocumentID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("document id must be an integer, got %q", arg)
	}
	return id, nil
}
