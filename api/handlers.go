package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/docqa/pkg/chunker"
	"github.com/papercomputeco/docqa/pkg/ingest"
	"github.com/papercomputeco/docqa/pkg/retrieval"
)

const defaultTopK = 5

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CapabilityResponse reports whether semantic retrieval is available.
type CapabilityResponse struct {
	Semantic          bool   `json:"semantic"`
	EmbeddingProvider string `json:"embedding_provider,omitempty"`
	IndexProvider     string `json:"index_provider,omitempty"`
	Dimensions        int    `json:"dimensions,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// IndexRequest is the body of PUT /v1/documents/:id.
type IndexRequest struct {
	Text string `json:"text" form:"text"`
}

// QueuedResponse acknowledges an asynchronous build.
type QueuedResponse struct {
	DocumentID int64  `json:"document_id"`
	Status     string `json:"status"`
}

// ChunksResponse lists a document's chunks.
type ChunksResponse struct {
	DocumentID int64           `json:"document_id"`
	Chunks     []chunker.Chunk `json:"chunks"`
	Count      int             `json:"count"`
}

// SearchResponse holds the ranked chunks for a query.
type SearchResponse struct {
	DocumentID int64           `json:"document_id"`
	Query      string          `json:"query"`
	Mode       retrieval.Mode  `json:"mode"`
	Results    []retrieval.Hit `json:"results"`
	Count      int             `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCapability reports the outcome of the startup probe.
func (s *Server) handleCapability(c *fiber.Ctx) error {
	resp := CapabilityResponse{Semantic: s.manager.Semantic()}
	if cp := s.config.Capability; cp != nil {
		resp.EmbeddingProvider = cp.EmbeddingProvider
		resp.IndexProvider = cp.IndexProvider
		resp.Dimensions = cp.Dimensions
		resp.Reason = cp.Reason
	}
	return c.JSON(resp)
}

// handleIndex builds the document from the request text. With ?async=true
// the build is queued and 202 is returned.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return badDocumentID(c)
	}

	var req IndexRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if c.QueryBool("async") {
		if s.config.Pool == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "async indexing is not enabled"})
		}
		// Parsed form values alias the request buffer, which is reused once
		// the handler returns.
		if !s.config.Pool.Enqueue(ingest.Job{DocumentID: id, Text: strings.Clone(req.Text)}) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "ingest queue is full"})
		}
		return c.Status(fiber.StatusAccepted).JSON(QueuedResponse{DocumentID: id, Status: "queued"})
	}

	result, err := s.manager.Build(c.Context(), id, req.Text)
	if err != nil {
		s.logger.Error("index build failed", "document_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(result)
}

// handleInfo describes a stored document.
func (s *Server) handleInfo(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return badDocumentID(c)
	}

	info, ok := s.manager.Info(c.Context(), id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "document not found"})
	}

	return c.JSON(info)
}

// handleChunks lists a document's chunks. Unknown documents have none.
func (s *Server) handleChunks(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return badDocumentID(c)
	}

	chunks := s.manager.Chunks(c.Context(), id)
	return c.JSON(ChunksResponse{
		DocumentID: id,
		Chunks:     chunks,
		Count:      len(chunks),
	})
}

// handleDelete removes a document. Deleting an unknown document succeeds.
func (s *Server) handleDelete(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return badDocumentID(c)
	}

	s.manager.Delete(c.Context(), id)
	return c.SendStatus(fiber.StatusNoContent)
}

// handleSearch handles GET /v1/documents/:id/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional, default 5): number of results to return
func (s *Server) handleSearch(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return badDocumentID(c)
	}

	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK := defaultTopK
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	results := s.manager.Search(c.Context(), id, query, topK)

	return c.JSON(SearchResponse{
		DocumentID: id,
		Query:      query,
		Mode:       results.Mode,
		Results:    results.Hits,
		Count:      results.Len(),
	})
}

func documentID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil
}

func badDocumentID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "document id must be an integer"})
}
