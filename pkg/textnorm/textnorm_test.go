package textnorm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/textnorm"
)

var _ = Describe("Normalize", func() {
	It("returns empty output for empty input", func() {
		Expect(textnorm.Normalize("")).To(Equal(""))
	})

	It("returns empty output for whitespace only input", func() {
		Expect(textnorm.Normalize(" \t\r\n \n")).To(Equal(""))
	})

	It("removes NUL bytes", func() {
		Expect(textnorm.Normalize("ab\x00c")).To(Equal("abc"))
	})

	It("does not join words separated only by a NUL byte and whitespace", func() {
		Expect(textnorm.Normalize("one\x00 two")).To(Equal("one two"))
	})

	It("collapses line endings and whitespace runs into single spaces", func() {
		Expect(textnorm.Normalize("first line\r\nsecond\rthird\n\n\tfourth")).
			To(Equal("first line second third fourth"))
	})

	It("trims leading and trailing whitespace", func() {
		Expect(textnorm.Normalize("   padded text  \n")).To(Equal("padded text"))
	})

	It("is idempotent", func() {
		once := textnorm.Normalize("  a\r\n b \x00 c  ")
		Expect(textnorm.Normalize(once)).To(Equal(once))
	})
})
