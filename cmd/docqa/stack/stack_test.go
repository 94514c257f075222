package stack_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/stack"
	"github.com/papercomputeco/docqa/pkg/config"
	docqalogger "github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/retrieval"
)

var _ = Describe("stack", func() {
	var (
		ctx       context.Context
		configDir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		configDir = GinkgoT().TempDir()
	})

	Describe("AddFlags and LoadConfig", func() {
		newCmd := func() *cobra.Command {
			cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
			cmd.Flags().String("config-dir", "", "")
			stack.AddFlags(cmd, stack.IndexFlags, stack.StorageFlags)
			return cmd
		}

		It("registers each flag once", func() {
			cmd := newCmd()
			Expect(cmd.Flags().Lookup("storage-root")).NotTo(BeNil())
			Expect(cmd.Flags().Lookup("chunk-size")).NotTo(BeNil())
			Expect(cmd.Flags().Lookup("embedding-provider")).NotTo(BeNil())
			Expect(cmd.Flags().Lookup("listen")).To(BeNil())
		})

		It("prefers flags over defaults", func() {
			cmd := newCmd()
			Expect(cmd.ParseFlags([]string{
				"--config-dir", configDir,
				"--chunk-size", "300",
				"--chunk-overlap", "30",
				"--embedding-provider", "none",
			})).To(Succeed())

			cfg, dir, err := stack.LoadConfig(cmd, stack.IndexFlags)
			Expect(err).NotTo(HaveOccurred())
			Expect(dir).To(Equal(configDir))
			Expect(cfg.Chunking.Size).To(Equal(uint(300)))
			Expect(cfg.Chunking.Overlap).To(Equal(uint(30)))
			Expect(cfg.Embedding.Provider).To(Equal("none"))
			Expect(cfg.VectorIndex.Provider).To(Equal("flat"))
		})

		It("reads values saved to config.toml", func() {
			cfger, err := config.NewConfiger(configDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfger.SetConfigValue("index.max_resident", "7")).To(Succeed())

			cmd := newCmd()
			Expect(cmd.ParseFlags([]string{"--config-dir", configDir})).To(Succeed())

			cfg, _, err := stack.LoadConfig(cmd, stack.IndexFlags)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Index.MaxResident).To(Equal(uint(7)))
		})
	})

	Describe("Open", func() {
		It("builds a keyword-only manager under the config dir", func() {
			cfg := config.NewDefaultConfig()
			s, err := stack.Open(ctx, stack.Options{
				Config:    cfg,
				ConfigDir: configDir,
				Logger:    docqalogger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(s.Close)

			Expect(s.Root).To(Equal(filepath.Join(configDir, "documents")))
			Expect(s.Capability).To(BeNil())
			Expect(s.Manager.Semantic()).To(BeFalse())
		})

		It("probes the semantic stack when asked", func() {
			cfg := config.NewDefaultConfig()
			cfg.Storage.Root = GinkgoT().TempDir()
			cfg.Embedding.Provider = "hashing"
			cfg.Embedding.Dimensions = 64

			s, err := stack.Open(ctx, stack.Options{
				Config:    cfg,
				ConfigDir: configDir,
				Semantic:  true,
				Events:    true,
				Logger:    docqalogger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(s.Close)

			Expect(s.Root).To(Equal(cfg.Storage.Root))
			Expect(s.Capability.Semantic).To(BeTrue())
			Expect(s.Capability.Dimensions).To(Equal(64))
			Expect(s.Manager.Semantic()).To(BeTrue())

			result, err := s.Manager.Build(ctx, 1, "The cat sat. The dog ran.")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Mode).To(Equal(retrieval.ModeSemantic))
		})

		It("falls back to keyword mode when embeddings are off", func() {
			cfg := config.NewDefaultConfig()
			cfg.Embedding.Provider = "none"

			s, err := stack.Open(ctx, stack.Options{
				Config:    cfg,
				ConfigDir: configDir,
				Semantic:  true,
				Logger:    docqalogger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(s.Close)

			Expect(s.Capability.Semantic).To(BeFalse())
			Expect(s.Capability.Reason).NotTo(BeEmpty())
		})

		It("rejects an unknown event provider", func() {
			cfg := config.NewDefaultConfig()
			cfg.Events.Provider = "carrier-pigeon"

			_, err := stack.Open(ctx, stack.Options{
				Config:    cfg,
				ConfigDir: configDir,
				Events:    true,
				Logger:    docqalogger.Nop(),
			})
			Expect(err).To(MatchError(ContainSubstring("unsupported event provider")))
		})
	})

	DescribeTable("SplitBrokers",
		func(in string, want []string) {
			Expect(stack.SplitBrokers(in)).To(Equal(want))
		},
		Entry("empty", "", []string{}),
		Entry("single", "localhost:9092", []string{"localhost:9092"}),
		Entry("spaced with blanks", " a:9092, ,b:9092 ", []string{"a:9092", "b:9092"}),
	)
})

var _ = Describe("ParseDocumentID", func() {
	It("parses integers", func() {
		id, err := stack.ParseDocumentID("42")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(42)))
	})

	It("rejects anything else", func() {
		_, err := stack.ParseDocumentID("forty-two")
		Expect(err).To(MatchError(ContainSubstring("document id must be an integer")))
	})
})
