// Package nop provides a publisher that validates and drops index events.
// It backs the "none" event provider.
package nop

import (
	"context"
	"sync/atomic"

	"github.com/papercomputeco/docqa/pkg/eventstream"
)

// Publisher discards events after validating them.
type Publisher struct {
	dropped atomic.Int64
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) PublishIndexEvent(_ context.Context, event *eventstream.IndexEvent) error {
	if err := eventstream.Validate(event); err != nil {
		return err
	}
	p.dropped.Add(1)
	return nil
}

// Dropped reports how many valid events were discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) Close() error {
	return nil
}
