package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals IndexEvent with expected top-level keys", func() {
		event := eventstream.IndexEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeDocumentIndexed,
			EventID:       "evt_123",
			EmittedAt:     time.Unix(1735689600, 0).UTC(),
			DocumentID:    42,
			Mode:          "semantic",
			Chunks:        3,
			Dimensions:    256,
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		for _, key := range []string{
			"schema_version", "event_type", "event_id", "emitted_at",
			"document_id", "mode", "chunks", "dimensions",
		} {
			Expect(got).To(HaveKey(key))
		}
		Expect(got["document_id"]).To(BeNumerically("==", 42))
	})

	It("omits mode and dimensions for deletions", func() {
		event := eventstream.NewIndexEvent(eventstream.EventTypeDocumentDeleted, 7)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).NotTo(HaveKey("mode"))
		Expect(got).NotTo(HaveKey("dimensions"))
	})

	It("stamps new events with an id and time", func() {
		a := eventstream.NewIndexEvent(eventstream.EventTypeDocumentIndexed, 1)
		b := eventstream.NewIndexEvent(eventstream.EventTypeDocumentIndexed, 1)

		Expect(a.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(a.EventID).NotTo(BeEmpty())
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(a.EmittedAt).NotTo(BeZero())
		Expect(a.DocumentID).To(Equal(int64(1)))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeDocumentIndexed).To(Equal("docqa.document.indexed"))
		Expect(eventstream.EventTypeDocumentDeleted).To(Equal("docqa.document.deleted"))
	})

})

var _ = Describe("Validate", func() {
	It("rejects nil events", func() {
		Expect(eventstream.Validate(nil)).To(MatchError(eventstream.ErrNilEvent))
	})

	It("rejects unknown event types", func() {
		err := eventstream.Validate(eventstream.NewIndexEvent("docqa.document.renamed", 1))
		Expect(err).To(MatchError(eventstream.ErrUnknownEventType))
		Expect(err).To(MatchError(ContainSubstring("docqa.document.renamed")))
	})

	It("accepts the events docqa emits", func() {
		Expect(eventstream.Validate(eventstream.NewIndexEvent(eventstream.EventTypeDocumentIndexed, -3))).To(Succeed())
		Expect(eventstream.Validate(eventstream.NewIndexEvent(eventstream.EventTypeDocumentDeleted, 0))).To(Succeed())
	})
})
