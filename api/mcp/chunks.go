package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/docqa/pkg/chunker"
)

var (
	chunksToolName    = "document_chunks"
	chunksDescription = "List every chunk of an indexed document in order, with character offsets into the normalized text."
)

// ChunksInput represents the input arguments for the document_chunks tool.
type ChunksInput struct {
	DocumentID int64 `json:"document_id" jsonschema:"the id of the document"`
}

// ChunksOutput represents the output of the document_chunks tool.
type ChunksOutput struct {
	Chunks []chunker.Chunk `json:"chunks"`
	Count  int             `json:"count"`
}

func (s *Server) handleChunks(ctx context.Context, _ *mcp.CallToolRequest, input ChunksInput) (*mcp.CallToolResult, ChunksOutput, error) {
	chunks := s.config.Index.Chunks(ctx, input.DocumentID)
	return jsonResult(s.config.Logger, ChunksOutput{
		Chunks: chunks,
		Count:  len(chunks),
	})
}
