package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/logger"
)

func decodeLine(buf *bytes.Buffer) map[string]any {
	var record map[string]any
	ExpectWithOffset(1, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record)).To(Succeed())
	return record
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

var _ = Describe("New", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("writes text records by default", func() {
		logger.New(logger.WithWriter(buf)).Info("indexed", "document_id", 7)
		Expect(buf.String()).To(ContainSubstring("msg=indexed"))
		Expect(buf.String()).To(ContainSubstring("document_id=7"))
	})

	It("writes JSON records", func() {
		logger.New(logger.WithWriter(buf), logger.WithJSON(true)).Info("indexed", "chunks", 3)
		record := decodeLine(buf)
		Expect(record["msg"]).To(Equal("indexed"))
		Expect(record["chunks"]).To(BeNumerically("==", 3))
	})

	It("writes pretty records", func() {
		logger.New(logger.WithWriter(buf), logger.WithPretty(true)).Info("ready")
		Expect(buf.String()).To(ContainSubstring("ready"))
	})

	It("lets a later format option win", func() {
		logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithJSON(false)).Info("plain")
		Expect(buf.String()).To(ContainSubstring("msg=plain"))
	})

	It("fans out to repeated writers", func() {
		other := &bytes.Buffer{}
		logger.New(logger.WithWriter(buf), logger.WithWriter(other)).Info("both")
		Expect(buf.String()).To(ContainSubstring("both"))
		Expect(other.String()).To(ContainSubstring("both"))
	})

	DescribeTable("level filtering",
		func(opt logger.Option, debugVisible, infoVisible bool) {
			l := logger.New(logger.WithWriter(buf), opt)
			l.Debug("dbg")
			l.Info("inf")
			if debugVisible {
				Expect(buf.String()).To(ContainSubstring("dbg"))
			} else {
				Expect(buf.String()).NotTo(ContainSubstring("dbg"))
			}
			if infoVisible {
				Expect(buf.String()).To(ContainSubstring("inf"))
			} else {
				Expect(buf.String()).NotTo(ContainSubstring("inf"))
			}
		},
		Entry("debug on", logger.WithDebug(true), true, true),
		Entry("debug off", logger.WithDebug(false), false, true),
		Entry("level name", logger.WithLevel("debug"), true, true),
		Entry("upper-case level", logger.WithLevel("WARN"), false, false),
		Entry("unknown level", logger.WithLevel("chatty"), false, true),
	)
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		Expect(h.Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		Expect(func() { logger.Nop().With("k", "v").WithGroup("g").Info("msg") }).NotTo(Panic())
	})
})

var _ = Describe("Tee", func() {
	It("writes every record to each branch", func() {
		console := &bytes.Buffer{}
		file := &bytes.Buffer{}
		l := logger.Tee(
			logger.New(logger.WithWriter(console)),
			logger.New(logger.WithWriter(file), logger.WithJSON(true)),
		)
		l.Info("search", "mode", "keyword")

		Expect(console.String()).To(ContainSubstring("mode=keyword"))
		Expect(decodeLine(file)["mode"]).To(Equal("keyword"))
	})

	It("respects each branch's level", func() {
		quiet := &bytes.Buffer{}
		loud := &bytes.Buffer{}
		l := logger.Tee(
			logger.New(logger.WithWriter(quiet)),
			logger.New(logger.WithWriter(loud), logger.WithDebug(true)),
		)
		Expect(l.Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
		l.Debug("detail")

		Expect(quiet.String()).To(BeEmpty())
		Expect(loud.String()).To(ContainSubstring("detail"))
	})

	It("carries attrs and groups into each branch", func() {
		file := &bytes.Buffer{}
		logger.Tee(logger.New(logger.WithWriter(file), logger.WithJSON(true))).
			With("component", "ingest").
			WithGroup("job").
			Info("done", "document_id", 4)

		record := decodeLine(file)
		Expect(record["component"]).To(Equal("ingest"))
		Expect(record["job"]).To(HaveKeyWithValue("document_id", BeNumerically("==", 4)))
	})

	It("keeps writing after a branch fails and reports the error", func() {
		good := &bytes.Buffer{}
		goodLogger := logger.New(logger.WithWriter(good))
		bad := slog.New(failingHandler{goodLogger.Handler()})

		l := logger.Tee(bad, goodLogger, nil)
		var r slog.Record
		r.Message = "still here"
		err := l.Handler().Handle(context.Background(), r)

		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(good.String()).To(ContainSubstring("still here"))
	})
})
