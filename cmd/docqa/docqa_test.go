package docqacmder_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	docqacmder "github.com/papercomputeco/docqa/cmd/docqa"
	"github.com/papercomputeco/docqa/pkg/chunker"
)

var _ = Describe("NewDocqaCmd", func() {
	It("has the expected subcommands", func() {
		cmd := docqacmder.NewDocqaCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"serve", "index", "search", "chunks", "delete", "status", "config", "version",
		))
	})

	It("has the expected persistent flags", func() {
		cmd := docqacmder.NewDocqaCmd()
		debug := cmd.PersistentFlags().Lookup("debug")
		Expect(debug).NotTo(BeNil())
		Expect(debug.Shorthand).To(Equal("d"))
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	DescribeTable("subcommands have the expected flags",
		func(sub string, flags []string) {
			cmd, _, err := docqacmder.NewDocqaCmd().Find([]string{sub})
			Expect(err).NotTo(HaveOccurred())
			for _, f := range flags {
				Expect(cmd.Flags().Lookup(f)).NotTo(BeNil(), "missing --%s on %s", f, sub)
			}
		},
		Entry("serve", "serve", []string{"listen", "workers", "queue-size", "storage-root", "embedding-provider", "index-provider", "events-provider", "events-brokers"}),
		Entry("index", "index", []string{"watch", "storage-root", "chunk-size", "chunk-overlap", "embedding-model"}),
		Entry("search", "search", []string{"top", "markdown", "storage-root", "embedding-target"}),
		Entry("chunks", "chunks", []string{"json", "storage-root"}),
		Entry("delete", "delete", []string{"storage-root"}),
		Entry("status", "status", []string{"api-target"}),
	)
})

var _ = Describe("local document workflow", func() {
	var (
		configDir string
		docPath   string
		stdout    *bytes.Buffer
		stderr    *bytes.Buffer
	)

	run := func(args ...string) error {
		stdout.Reset()
		cmd := docqacmder.NewDocqaCmd()
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		cmd.SilenceErrors = true
		cmd.SetArgs(append([]string{"--config-dir", configDir}, args...))
		return cmd.Execute()
	}

	BeforeEach(func() {
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		configDir = GinkgoT().TempDir()

		docPath = filepath.Join(GinkgoT().TempDir(), "pets.txt")
		Expect(os.WriteFile(docPath, []byte("The cat sat. The dog ran."), 0o600)).To(Succeed())
	})

	It("indexes, lists, searches and deletes a document", func() {
		Expect(run("index", "5", docPath,
			"--embedding-provider", "none",
			"--chunk-size", "15",
			"--chunk-overlap", "0",
		)).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("keyword"))
		Expect(filepath.Join(configDir, "documents")).To(BeADirectory())

		Expect(run("chunks", "5", "--json")).To(Succeed())
		var chunks []chunker.Chunk
		Expect(json.Unmarshal(stdout.Bytes(), &chunks)).To(Succeed())
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[1].Text).To(Equal("The dog ran."))

		Expect(run("search", "5", "dog", "-k", "1", "--embedding-provider", "none")).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("The dog ran."))
		Expect(stdout.String()).NotTo(ContainSubstring("The cat sat."))

		Expect(run("delete", "5")).To(Succeed())

		Expect(run("search", "5", "dog", "--embedding-provider", "none")).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("No results found."))
	})

	It("renders search results as markdown", func() {
		Expect(run("index", "6", docPath, "--embedding-provider", "none")).To(Succeed())
		Expect(run("search", "6", "dog", "--markdown", "--embedding-provider", "none")).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("dog"))
	})

	It("rejects a non-integer document id", func() {
		err := run("chunks", "five")
		Expect(err).To(MatchError(ContainSubstring("document id must be an integer")))
	})

	It("rejects unsupported file types", func() {
		other := filepath.Join(GinkgoT().TempDir(), "image.png")
		Expect(os.WriteFile(other, []byte{0x89}, 0o600)).To(Succeed())

		err := run("index", "1", other, "--embedding-provider", "none")
		Expect(err).To(MatchError(ContainSubstring("unsupported file type")))
	})

	It("rejects a non-positive --top", func() {
		err := run("search", "1", "dog", "-k", "0")
		Expect(err).To(MatchError(ContainSubstring("--top must be a positive integer")))
	})

	It("treats deleting an unknown document as success", func() {
		Expect(run("delete", "404")).To(Succeed())
	})
})
