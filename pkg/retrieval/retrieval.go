// Package retrieval ranks a document's chunks against a query, either by
// nearest-neighbour search over chunk embeddings or by keyword overlap.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/papercomputeco/docqa/pkg/chunker"
	"github.com/papercomputeco/docqa/pkg/embeddings"
	"github.com/papercomputeco/docqa/pkg/vector"
)

// Mode names the path that produced a result set.
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
)

// substringBonus is added to a chunk's keyword score when it contains the
// whole query.
const substringBonus = 10

// Hit is one ranked chunk. For semantic hits Score is the squared L2
// distance (lower is closer); for keyword hits it is the overlap score
// (higher is better).
type Hit struct {
	ChunkID int     `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// Results is an ordered result set, most relevant first.
type Results struct {
	Mode Mode  `json:"mode"`
	Hits []Hit `json:"results"`
}

// Texts returns the chunk texts in rank order.
func (r Results) Texts() []string {
	texts := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		texts[i] = h.Text
	}
	return texts
}

// Len returns the number of hits.
func (r Results) Len() int {
	return len(r.Hits)
}

// Keyword ranks chunks by how many distinct query words they contain, with a
// bonus for containing the full query. Chunks with no overlap are dropped and
// ties keep chunk order.
func Keyword(chunks []chunker.Chunk, query string, k int) []Hit {
	if k <= 0 || len(chunks) == 0 {
		return []Hit{}
	}

	lowered := strings.ToLower(query)
	words := wordSet(lowered)
	if len(words) == 0 {
		return []Hit{}
	}

	hits := make([]Hit, 0, len(chunks))
	for _, c := range chunks {
		text := strings.ToLower(c.Text)

		score := 0
		for w := range wordSet(text) {
			if _, ok := words[w]; ok {
				score++
			}
		}
		if strings.Contains(text, lowered) {
			score += substringBonus
		}
		if score == 0 {
			continue
		}

		hits = append(hits, Hit{ChunkID: c.ID, Text: c.Text, Score: float64(score)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Semantic embeds the query and returns the k chunks nearest to it in idx.
// A panic from the embedder or index is returned as an error.
func Semantic(
	ctx context.Context,
	embedder embeddings.Embedder,
	idx vector.Index,
	chunks []chunker.Chunk,
	query string,
	k int,
) (hits []Hit, err error) {
	defer func() {
		if r := recover(); r != nil {
			hits = nil
			err = fmt.Errorf("semantic search panicked: %v", r)
		}
	}()

	if embedder == nil || idx == nil {
		return nil, errors.New("semantic search requires an embedder and an index")
	}
	if k <= 0 || len(chunks) == 0 {
		return []Hit{}, nil
	}

	q, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	neighbors, err := idx.Search(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	hits = make([]Hit, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Row < 0 || n.Row >= len(chunks) {
			return nil, fmt.Errorf("%w: index row %d outside %d chunks", vector.ErrCorrupt, n.Row, len(chunks))
		}
		c := chunks[n.Row]
		hits = append(hits, Hit{ChunkID: c.ID, Text: c.Text, Score: float64(n.Distance)})
	}

	return hits, nil
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
