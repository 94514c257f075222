package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/docqa/pkg/eventstream"
	"github.com/papercomputeco/docqa/pkg/eventstream/kafka"
	"github.com/papercomputeco/docqa/pkg/eventstream/nop"
)

const (
	ProviderNone  = "none"
	ProviderKafka = "kafka"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *slog.Logger
}

// NewPublisher returns the configured event publisher. An empty provider
// disables publishing.
func NewPublisher(opts *NewPublisherOpts) (eventstream.Publisher, error) {
	switch opts.ProviderType {
	case "", ProviderNone:
		return nop.NewPublisher(), nil
	case ProviderKafka:
		return kafka.NewPublisher(kafka.PublisherConfig{
			Brokers: opts.Brokers,
			Topic:   opts.Topic,
			Logger:  opts.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported event provider: %s", opts.ProviderType)
	}
}
