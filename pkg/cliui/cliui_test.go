package cliui_test

import (
	"bytes"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/cliui"
)

var _ = Describe("cliui", func() {
	Describe("Step", func() {
		It("reports success with a check mark", func() {
			var buf bytes.Buffer
			err := cliui.Step(&buf, "Indexing", func() error { return nil })
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("✓"))
			Expect(buf.String()).To(ContainSubstring("Indexing"))
		})

		It("returns the step's error with a cross", func() {
			var buf bytes.Buffer
			boom := errors.New("boom")
			err := cliui.Step(&buf, "Indexing", func() error { return boom })
			Expect(err).To(MatchError(boom))
			Expect(buf.String()).To(ContainSubstring("✗"))
		})

		It("writes a single line when the writer is not a terminal", func() {
			var buf bytes.Buffer
			Expect(cliui.Step(&buf, "Indexing", func() error {
				time.Sleep(200 * time.Millisecond)
				return nil
			})).To(Succeed())
			Expect(strings.Count(buf.String(), "Indexing")).To(Equal(1))
			Expect(buf.String()).To(HaveSuffix("\n"))
		})
	})

	DescribeTable("FormatDuration",
		func(d time.Duration, want string) {
			Expect(cliui.FormatDuration(d)).To(Equal(want))
		},
		Entry("milliseconds", 12*time.Millisecond, "12ms"),
		Entry("zero", time.Duration(0), "0ms"),
		Entry("just under a second", 999*time.Millisecond, "999ms"),
		Entry("seconds", 3200*time.Millisecond, "3.2s"),
	)

	It("marks errors", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("x"))).To(Equal(cliui.FailMark))
	})

	It("renders markdown", func() {
		out, err := cliui.RenderMarkdown("# Results\n\n1. **sat.** The dog ran.")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Results"))
		Expect(out).To(ContainSubstring("dog"))
	})
})
