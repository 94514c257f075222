package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = DescribeTable("Truncate",
	func(in string, limit int, want string) {
		Expect(Truncate(in, limit)).To(Equal(want))
	},
	Entry("under the limit", "The cat sat.", 20, "The cat sat."),
	Entry("at the limit", "The cat sat.", 12, "The cat sat."),
	Entry("over the limit", "The cat sat. The dog ran.", 12, "The cat sat...."),
	Entry("accented text counts runes", "héllo wörld", 5, "héllo..."),
	Entry("CJK text counts runes", "日本語の文書", 3, "日本語..."),
	Entry("negative limit", "abc", -1, "..."),
	Entry("empty input", "", 0, ""),
)
