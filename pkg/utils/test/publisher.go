package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/docqa/pkg/eventstream"
)

// ErrMockPublish is returned by RecordingPublisher when Fail is set.
var ErrMockPublish = errors.New("mock publish failure")

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	Fail bool

	mu     sync.Mutex
	events []*eventstream.IndexEvent
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) PublishIndexEvent(_ context.Context, event *eventstream.IndexEvent) error {
	if err := eventstream.Validate(event); err != nil {
		return err
	}
	if p.Fail {
		return ErrMockPublish
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the published events in order.
func (p *RecordingPublisher) Events() []*eventstream.IndexEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.IndexEvent(nil), p.events...)
}

func (p *RecordingPublisher) Close() error {
	return nil
}
