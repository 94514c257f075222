package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/docqa/pkg/retrieval"
)

const defaultTopK = 5

var (
	searchToolName    = "search_document"
	searchDescription = "Search one indexed document for the chunks most relevant to a query. Uses semantic search when the document has a vector index and keyword overlap otherwise."
)

// SearchInput represents the input arguments for the search_document tool.
type SearchInput struct {
	DocumentID int64  `json:"document_id" jsonschema:"the id of the document to search"`
	Query      string `json:"query" jsonschema:"the search query text"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of chunks to return (default: 5)"`
}

// SearchOutput represents the output of the search_document tool.
type SearchOutput struct {
	Results []retrieval.Hit `json:"results"`
	Count   int             `json:"count"`
	Mode    retrieval.Mode  `json:"mode"`
}

// handleSearch processes a search_document request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), SearchOutput{}, nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	logger.Debug("MCP search request",
		"document_id", input.DocumentID,
		"query", input.Query,
		"top_k", topK,
	)

	results := s.config.Index.Search(ctx, input.DocumentID, input.Query, topK)
	output := SearchOutput{
		Results: results.Hits,
		Count:   results.Len(),
		Mode:    results.Mode,
	}

	return jsonResult(logger, output)
}

// jsonResult wraps structured output with its JSON serialization in a text
// block for clients that ignore structured content.
func jsonResult[T any](logger *slog.Logger, output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal tool output", "error", err)
		var zero T
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
