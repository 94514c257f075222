package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/eventstream"
	"github.com/papercomputeco/docqa/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	var p *nop.Publisher

	BeforeEach(func() {
		p = nop.NewPublisher()
	})

	It("satisfies eventstream.Publisher", func() {
		var _ eventstream.Publisher = p
	})

	It("counts valid events it drops", func() {
		ctx := context.Background()
		Expect(p.PublishIndexEvent(ctx, eventstream.NewIndexEvent(eventstream.EventTypeDocumentIndexed, 1))).To(Succeed())
		Expect(p.PublishIndexEvent(ctx, eventstream.NewIndexEvent(eventstream.EventTypeDocumentDeleted, 1))).To(Succeed())
		Expect(p.Dropped()).To(Equal(int64(2)))
	})

	It("rejects invalid events without counting them", func() {
		ctx := context.Background()
		Expect(p.PublishIndexEvent(ctx, nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(p.PublishIndexEvent(ctx, eventstream.NewIndexEvent("bogus", 1))).To(MatchError(eventstream.ErrUnknownEventType))
		Expect(p.Dropped()).To(BeZero())
	})

	It("closes cleanly", func() {
		Expect(p.Close()).To(Succeed())
	})
})
