package indexcmder

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/pkg/index"
	"github.com/papercomputeco/docqa/pkg/logger"
)

var _ = Describe("indexCommander", func() {
	var (
		m    *index.Manager
		path string
		c    *indexCommander
	)

	texts := func() string {
		parts := []string{}
		for _, ch := range m.Chunks(context.Background(), c.id) {
			parts = append(parts, ch.Text)
		}
		return strings.Join(parts, "|")
	}

	BeforeEach(func() {
		var err error
		m, err = index.NewManager(index.Config{
			Root:         GinkgoT().TempDir(),
			ChunkSize:    15,
			ChunkOverlap: 0,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(m.Close)

		path = filepath.Join(GinkgoT().TempDir(), "pets.txt")
		Expect(os.WriteFile(path, []byte("The cat sat. The dog ran."), 0o600)).To(Succeed())
		c = &indexCommander{id: 2, path: path}
	})

	Describe("build", func() {
		It("extracts the file and reports chunks and mode", func() {
			out := gbytes.NewBuffer()
			Expect(c.build(context.Background(), out, m)).To(Succeed())

			Expect(texts()).To(Equal("The cat sat.|The dog ran."))
			Expect(out).To(gbytes.Say("Indexing pets.txt as document 2"))
			Expect(out).To(gbytes.Say("chunks:"))
			Expect(out).To(gbytes.Say("keyword"))
		})

		It("fails when the file is missing", func() {
			c.path = filepath.Join(filepath.Dir(path), "gone.txt")
			Expect(c.build(context.Background(), gbytes.NewBuffer(), m)).To(HaveOccurred())
		})
	})

	Describe("watchFile", func() {
		It("re-indexes when the file changes and stops on cancel", func() {
			ctx, cancel := context.WithCancel(context.Background())
			out := gbytes.NewBuffer()
			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				done <- c.watchFile(ctx, out, m, logger.Nop())
			}()

			Eventually(out).Should(gbytes.Say("Watching for changes"))
			Eventually(func() string {
				Expect(os.WriteFile(path, []byte("A bird flew."), 0o600)).To(Succeed())
				return texts()
			}).Should(Equal("A bird flew."))

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})

		It("ignores other files in the directory", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			out := gbytes.NewBuffer()
			go func() {
				defer GinkgoRecover()
				_ = c.watchFile(ctx, out, m, logger.Nop())
			}()

			Eventually(out).Should(gbytes.Say("Watching for changes"))
			other := filepath.Join(filepath.Dir(path), "other.txt")
			Expect(os.WriteFile(other, []byte("Unrelated."), 0o600)).To(Succeed())
			Consistently(func() string { return texts() }).Should(BeEmpty())
		})
	})
})

var _ = Describe("NewIndexCmd", func() {
	It("rejects unsupported file types before loading config", func() {
		parent := &cobra.Command{Use: "docqa"}
		parent.PersistentFlags().BoolP("debug", "d", false, "")
		parent.AddCommand(NewIndexCmd())
		parent.SetArgs([]string{"index", "1", "picture.png"})
		parent.SilenceErrors = true
		parent.SilenceUsage = true
		Expect(parent.Execute()).To(MatchError(ContainSubstring("unsupported file type")))
	})
})
