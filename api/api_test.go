package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/capability"
	"github.com/papercomputeco/docqa/pkg/index"
	"github.com/papercomputeco/docqa/pkg/ingest"
	docqalogger "github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/retrieval"
)

// blockingBuilder holds every build until release is closed.
type blockingBuilder struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingBuilder) Build(_ context.Context, id int64, _ string) (index.BuildResult, error) {
	b.started <- struct{}{}
	<-b.release
	return index.BuildResult{DocumentID: id}, nil
}

// recordingBuilder records the text of every build. Builds of document 0
// wait for gate so later jobs pile up in the queue.
type recordingBuilder struct {
	gate  chan struct{}
	mu    sync.Mutex
	texts []string
}

func (b *recordingBuilder) Build(_ context.Context, id int64, raw string) (index.BuildResult, error) {
	if id == 0 {
		<-b.gate
		return index.BuildResult{}, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.texts = append(b.texts, raw)
	return index.BuildResult{DocumentID: id}, nil
}

// gatedManager holds reserved builds until gate is closed.
type gatedManager struct {
	*index.Manager
	gate chan struct{}
}

func (g *gatedManager) BuildReserved(ctx context.Context, id int64, raw string, ticket uint64) (index.BuildResult, error) {
	<-g.gate
	return g.Manager.BuildReserved(ctx, id, raw, ticket)
}

func doFormRequest(server *Server, method, target string, form url.Values) *http.Response {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := server.app.Test(req)
	Expect(err).NotTo(HaveOccurred())
	Expect(resp.Body.Close()).To(Succeed())
	return resp
}

func doRequest(server *Server, method, target, body string) (*http.Response, []byte) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := server.app.Test(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, data
}

var _ = Describe("Server", func() {
	var (
		server  *Server
		manager *index.Manager
	)

	BeforeEach(func() {
		var err error
		manager, err = index.NewManager(index.Config{
			Root:         GinkgoT().TempDir(),
			ChunkSize:    15,
			ChunkOverlap: 0,
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(manager.Close)

		server, err = NewServer(Config{
			ListenAddr: ":0",
			Capability: &capability.Capability{
				EmbeddingProvider: "ollama",
				IndexProvider:     "flat",
				Reason:            "connection refused",
			},
		}, manager, docqalogger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("requires a manager", func() {
			_, err := NewServer(Config{}, nil, docqalogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("index manager is required")))
		})

		It("requires a logger", func() {
			_, err := NewServer(Config{}, manager, nil)
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})
	})

	It("answers pings", func() {
		resp, body := doRequest(server, http.MethodGet, "/ping", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal(`"pong"`))
	})

	It("reports the capability", func() {
		resp, body := doRequest(server, http.MethodGet, "/v1/capability", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var got CapabilityResponse
		Expect(json.Unmarshal(body, &got)).To(Succeed())
		Expect(got.Semantic).To(BeFalse())
		Expect(got.EmbeddingProvider).To(Equal("ollama"))
		Expect(got.IndexProvider).To(Equal("flat"))
		Expect(got.Reason).To(Equal("connection refused"))
	})

	Context("with an indexed document", func() {
		BeforeEach(func() {
			resp, body := doRequest(server, http.MethodPut, "/v1/documents/1", `{"text":"The cat sat. The dog ran."}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result index.BuildResult
			Expect(json.Unmarshal(body, &result)).To(Succeed())
			Expect(result.DocumentID).To(Equal(int64(1)))
			Expect(result.Chunks).To(Equal(2))
			Expect(result.Mode).To(Equal(retrieval.ModeKeyword))
		})

		It("describes the document", func() {
			resp, body := doRequest(server, http.MethodGet, "/v1/documents/1", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var info index.DocumentInfo
			Expect(json.Unmarshal(body, &info)).To(Succeed())
			Expect(info.Chunks).To(Equal(2))
		})

		It("lists its chunks", func() {
			resp, body := doRequest(server, http.MethodGet, "/v1/documents/1/chunks", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var got ChunksResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Count).To(Equal(2))
			Expect(got.Chunks[1].Text).To(Equal("The dog ran."))
		})

		It("searches it", func() {
			resp, body := doRequest(server, http.MethodGet, "/v1/documents/1/search?query=dog&top_k=1", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var got SearchResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.DocumentID).To(Equal(int64(1)))
			Expect(got.Query).To(Equal("dog"))
			Expect(got.Mode).To(Equal(retrieval.ModeKeyword))
			Expect(got.Count).To(Equal(1))
			Expect(got.Results[0].Text).To(Equal("The dog ran."))
		})

		It("defaults top_k to 5", func() {
			_, body := doRequest(server, http.MethodGet, "/v1/documents/1/search?query=the", "")

			var got SearchResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Count).To(Equal(2))
		})

		It("deletes it", func() {
			resp, _ := doRequest(server, http.MethodDelete, "/v1/documents/1", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp, _ = doRequest(server, http.MethodGet, "/v1/documents/1", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			_, body := doRequest(server, http.MethodGet, "/v1/documents/1/search?query=dog", "")
			var got SearchResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Count).To(BeZero())
		})
	})

	Describe("errors", func() {
		It("returns 404 for an unknown document", func() {
			resp, body := doRequest(server, http.MethodGet, "/v1/documents/42", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			var got ErrorResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Error).To(Equal("document not found"))
		})

		It("returns 204 when deleting an unknown document", func() {
			resp, _ := doRequest(server, http.MethodDelete, "/v1/documents/42", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		})

		DescribeTable("returns 400 for bad requests",
			func(method, target, body string) {
				resp, data := doRequest(server, method, target, body)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var got ErrorResponse
				Expect(json.Unmarshal(data, &got)).To(Succeed())
				Expect(got.Error).NotTo(BeEmpty())
			},
			Entry("non-integer id", http.MethodGet, "/v1/documents/abc", ""),
			Entry("non-integer id on search", http.MethodGet, "/v1/documents/abc/search?query=dog", ""),
			Entry("missing query", http.MethodGet, "/v1/documents/1/search", ""),
			Entry("blank query", http.MethodGet, "/v1/documents/1/search?query=%20", ""),
			Entry("zero top_k", http.MethodGet, "/v1/documents/1/search?query=dog&top_k=0", ""),
			Entry("non-numeric top_k", http.MethodGet, "/v1/documents/1/search?query=dog&top_k=many", ""),
			Entry("malformed body", http.MethodPut, "/v1/documents/1", `{"text":`),
		)

		It("refuses async builds without a pool", func() {
			resp, _ := doRequest(server, http.MethodPut, "/v1/documents/1?async=true", `{"text":"x"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("async indexing", func() {
		It("queues the build and returns 202", func() {
			pool, err := ingest.NewPool(&ingest.Config{Builder: manager, NumWorkers: 1})
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(pool.Close)
			server.config.Pool = pool

			resp, body := doRequest(server, http.MethodPut, "/v1/documents/3?async=true", `{"text":"The cat sat. The dog ran."}`)
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			var got QueuedResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.DocumentID).To(Equal(int64(3)))
			Expect(got.Status).To(Equal("queued"))

			Eventually(func() int {
				resp, _ := doRequest(server, http.MethodGet, "/v1/documents/3", "")
				return resp.StatusCode
			}).Should(Equal(http.StatusOK))
		})

		It("keeps each queued form body intact", func() {
			builder := &recordingBuilder{gate: make(chan struct{})}
			pool, err := ingest.NewPool(&ingest.Config{Builder: builder, NumWorkers: 1})
			Expect(err).NotTo(HaveOccurred())
			server.config.Pool = pool

			Expect(pool.Enqueue(ingest.Job{DocumentID: 0})).To(BeTrue())

			first := strings.Repeat("A", 20)
			second := strings.Repeat("B", 20)
			resp := doFormRequest(server, http.MethodPut, "/v1/documents/1?async=true", url.Values{"text": {first}})
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
			resp = doFormRequest(server, http.MethodPut, "/v1/documents/1?async=true", url.Values{"text": {second}})
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			close(builder.gate)
			pool.Close()

			Expect(builder.texts).To(Equal([]string{first, second}))
		})

		It("does not bring back a document deleted while its build was queued", func() {
			gated := &gatedManager{Manager: manager, gate: make(chan struct{})}
			pool, err := ingest.NewPool(&ingest.Config{Builder: gated, NumWorkers: 1})
			Expect(err).NotTo(HaveOccurred())
			server.config.Pool = pool

			resp, _ := doRequest(server, http.MethodPut, "/v1/documents/7?async=true", `{"text":"The cat sat. The dog ran."}`)
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
			resp, _ = doRequest(server, http.MethodDelete, "/v1/documents/7", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			close(gated.gate)
			pool.Close()

			Expect(manager.Search(context.Background(), 7, "dog", 5).Texts()).To(BeEmpty())
			resp, _ = doRequest(server, http.MethodGet, "/v1/documents/7", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("returns 503 when the queue is full", func() {
			builder := &blockingBuilder{
				started: make(chan struct{}, 1),
				release: make(chan struct{}),
			}
			pool, err := ingest.NewPool(&ingest.Config{Builder: builder, NumWorkers: 1, QueueSize: 1})
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(pool.Close)
			DeferCleanup(func() { close(builder.release) })
			server.config.Pool = pool

			resp, _ := doRequest(server, http.MethodPut, "/v1/documents/1?async=true", `{"text":"a"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
			Eventually(builder.started).Should(Receive())

			resp, _ = doRequest(server, http.MethodPut, "/v1/documents/2?async=true", `{"text":"b"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			resp, body := doRequest(server, http.MethodPut, "/v1/documents/3?async=true", `{"text":"c"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))

			var got ErrorResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Error).To(Equal("ingest queue is full"))
		})
	})
})
