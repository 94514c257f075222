package hashing_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/embeddings"
	"github.com/papercomputeco/docqa/pkg/embeddings/hashing"
)

func sqDist(a, b []float32) float64 {
	var d float64
	for i := range a {
		x := float64(a[i] - b[i])
		d += x * x
	}
	return d
}

var _ = Describe("Embedder", func() {
	var (
		e   *hashing.Embedder
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		e, err = hashing.NewEmbedder(hashing.EmbedderConfig{Dimensions: 64})
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	It("defaults the dimension", func() {
		d, err := hashing.NewEmbedder(hashing.EmbedderConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Dimensions()).To(Equal(hashing.DefaultDimensions))
	})

	It("returns vectors of the configured dimension", func() {
		vec, err := e.Embed(ctx, "The dog ran.")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(HaveLen(64))
	})

	It("is deterministic", func() {
		a, err := e.Embed(ctx, "The dog ran.")
		Expect(err).NotTo(HaveOccurred())
		b, err := e.Embed(ctx, "the DOG ran")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("normalizes to unit length", func() {
		vec, err := e.Embed(ctx, "alpha beta gamma delta")
		Expect(err).NotTo(HaveOccurred())
		var sum float64
		for _, v := range vec {
			sum += float64(v) * float64(v)
		}
		Expect(math.Sqrt(sum)).To(BeNumerically("~", 1.0, 1e-5))
	})

	It("returns a zero vector for text without words", func() {
		vec, err := e.Embed(ctx, " ... ")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(HaveEach(BeZero()))
	})

	It("places texts sharing words closer together", func() {
		query, _ := e.Embed(ctx, "dog")
		near, _ := e.Embed(ctx, "The dog ran.")
		far, _ := e.Embed(ctx, "The bird flew.")
		Expect(sqDist(query, near)).To(BeNumerically("<", sqDist(query, far)))
	})

	It("fails on a cancelled context", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Embed(cctx, "text")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})
