// Package store persists a document's chunks, embedding matrix and vector
// index under a per-document directory. Each artifact is written atomically
// and loaded independently; a document whose index artifact is missing is in
// keyword mode.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/papercomputeco/docqa/pkg/chunker"
	"github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/vector"
)

const (
	dirPrefix = "doc_"

	// ChunksFile holds the chunk sequence as JSON.
	ChunksFile = "chunks.json"

	// EmbeddingsFile holds the embedding matrix.
	EmbeddingsFile = "embeddings.bin"

	// IndexFile holds the vector index. Its presence marks a semantic document.
	IndexFile = "index.vec"

	chunksVersion   = 1
	embeddingsMagic = "DQEM"
	tmpSuffix       = ".tmp"
)

// Semantic is the embedding matrix and the index built over it. The two are
// only ever stored, loaded and discarded together.
type Semantic struct {
	Embeddings [][]float32
	Index      vector.Index
}

// Close releases the index.
func (s *Semantic) Close() error {
	if s == nil || s.Index == nil {
		return nil
	}
	return s.Index.Close()
}

// Document is the persisted state of one document.
type Document struct {
	Chunks []chunker.Chunk

	// Semantic is nil for documents in keyword mode.
	Semantic *Semantic
}

// Close releases any index held by the document.
func (d *Document) Close() error {
	if d == nil {
		return nil
	}
	return d.Semantic.Close()
}

type chunksArtifact struct {
	Version    int             `json:"version"`
	DocumentID int64           `json:"document_id"`
	Chunks     []chunker.Chunk `json:"chunks"`
}

// Config holds configuration for a Store.
type Config struct {
	// Root is the directory holding one subdirectory per document.
	Root string

	// Indexes loads index artifacts. When nil, persisted indexes are
	// ignored and every document loads in keyword mode.
	Indexes vector.Provider

	// Logger is the configured logger. Defaults to a no-op logger.
	Logger *slog.Logger
}

// Store reads and writes per-document artifacts below a root directory.
type Store struct {
	root    string
	indexes vector.Provider
	logger  *slog.Logger
}

// New creates the root directory if needed and returns a Store.
func New(c Config) (*Store, error) {
	if c.Root == "" {
		return nil, errors.New("store root is required")
	}
	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating store root %s: %w", c.Root, err)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Store{
		root:    c.Root,
		indexes: c.Indexes,
		logger:  log,
	}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the storage directory for a document.
func (s *Store) Dir(id int64) string {
	return filepath.Join(s.root, dirPrefix+strconv.FormatInt(id, 10))
}

// Save writes doc for id. The previous index artifact is removed before any
// other file changes and the new one, if any, is renamed into place last, so
// an interrupted save leaves the document in keyword mode rather than pairing
// an index with the wrong chunks. A save that fails after the embeddings were
// written removes them again, so they never outlive a missing index.
func (s *Store) Save(_ context.Context, id int64, doc *Document) (err error) {
	if doc == nil {
		return errors.New("cannot save nil document")
	}

	dir := s.Dir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating document dir: %w", err)
	}

	if err := removeFile(filepath.Join(dir, IndexFile)); err != nil {
		return err
	}

	wroteEmbeddings := false
	defer func() {
		if err != nil && wroteEmbeddings {
			if rmErr := removeFile(filepath.Join(dir, EmbeddingsFile)); rmErr != nil {
				err = errors.Join(err, rmErr)
			}
		}
	}()

	if doc.Semantic == nil {
		if err := removeFile(filepath.Join(dir, EmbeddingsFile)); err != nil {
			return err
		}
	} else {
		data, err := vector.EncodeMatrix(embeddingsMagic, doc.Semantic.Embeddings)
		if err != nil {
			return fmt.Errorf("encoding embeddings: %w", err)
		}
		if err := writeAtomic(dir, EmbeddingsFile, writeBytes(data)); err != nil {
			return err
		}
		wroteEmbeddings = true
	}

	chunks := doc.Chunks
	if chunks == nil {
		chunks = []chunker.Chunk{}
	}
	data, err := json.Marshal(chunksArtifact{
		Version:    chunksVersion,
		DocumentID: id,
		Chunks:     chunks,
	})
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}
	if err := writeAtomic(dir, ChunksFile, writeBytes(data)); err != nil {
		return err
	}

	if doc.Semantic != nil {
		if err := writeAtomic(dir, IndexFile, doc.Semantic.Index.Save); err != nil {
			return err
		}
	}

	s.logger.Debug("saved document",
		"document_id", id,
		"chunks", len(chunks),
		"semantic", doc.Semantic != nil,
	)

	return nil
}

// Load reads the persisted state for id. It reports false when nothing is
// stored for the document. Damaged artifacts never fail the load: unreadable
// chunks yield an empty chunk list, a malformed chunk truncates the list to
// the chunks before it, and any problem with the embeddings or index leaves
// the document in keyword mode.
func (s *Store) Load(ctx context.Context, id int64) (*Document, bool) {
	dir := s.Dir(id)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("could not stat document dir", "document_id", id, "error", err)
		}
		return nil, false
	}

	doc := &Document{Chunks: []chunker.Chunk{}}

	chunks, err := readChunks(filepath.Join(dir, ChunksFile))
	if err != nil {
		s.logger.Warn("chunks artifact damaged, keeping the chunks before the damage",
			"document_id", id,
			"kept", len(chunks),
			"error", err,
		)
	}
	if chunks != nil {
		doc.Chunks = chunks
	}

	sem, err := s.loadSemantic(ctx, dir, len(doc.Chunks))
	if err != nil {
		s.logger.Warn("semantic artifacts unusable, falling back to keyword mode",
			"document_id", id,
			"error", err,
		)
	}
	doc.Semantic = sem

	s.logger.Debug("loaded document",
		"document_id", id,
		"chunks", len(doc.Chunks),
		"semantic", doc.Semantic != nil,
	)

	return doc, true
}

// Delete removes everything stored for id. Deleting an unknown id is a no-op.
func (s *Store) Delete(id int64) error {
	if err := os.RemoveAll(s.Dir(id)); err != nil {
		return fmt.Errorf("removing document dir: %w", err)
	}
	return nil
}

// List returns the ids of all stored documents in ascending order.
func (s *Store) List() ([]int64, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading store root: %w", err)
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), dirPrefix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(e.Name(), dirPrefix), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

func (s *Store) loadSemantic(ctx context.Context, dir string, chunks int) (*Semantic, error) {
	indexPath := filepath.Join(dir, IndexFile)
	if _, err := os.Stat(indexPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat index artifact: %w", err)
	}

	if s.indexes == nil {
		s.logger.Debug("index artifact present without an index provider, using keyword mode", "dir", dir)
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, EmbeddingsFile))
	if err != nil {
		return nil, fmt.Errorf("reading embeddings: %w", err)
	}
	embeddings, err := vector.DecodeMatrix(embeddingsMagic, data)
	if err != nil {
		return nil, fmt.Errorf("decoding embeddings: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings) != chunks {
		return nil, fmt.Errorf("%w: %d embedding rows for %d chunks", ErrCorrupt, len(embeddings), chunks)
	}

	idx, err := s.indexes.Load(ctx, indexPath)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	if idx.Len() != chunks || idx.Dimensions() != len(embeddings[0]) {
		_ = idx.Close()
		return nil, fmt.Errorf("%w: index has %d rows of dimension %d, expected %d of %d",
			ErrCorrupt, idx.Len(), idx.Dimensions(), chunks, len(embeddings[0]))
	}

	return &Semantic{Embeddings: embeddings, Index: idx}, nil
}

func readChunks(path string) ([]chunker.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}

	var artifact chunksArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: decoding chunks: %v", ErrCorrupt, err)
	}
	if artifact.Version != chunksVersion {
		return nil, fmt.Errorf("%w: unsupported chunks version %d", ErrCorrupt, artifact.Version)
	}

	for i, c := range artifact.Chunks {
		if c.ID != i || c.EndPos <= c.StartPos {
			return artifact.Chunks[:i:i], fmt.Errorf("%w: chunk %d is malformed", ErrCorrupt, i)
		}
	}

	if artifact.Chunks == nil {
		artifact.Chunks = []chunker.Chunk{}
	}
	return artifact.Chunks, nil
}

// writeAtomic calls write with a fresh temporary path in dir, syncs the
// result and renames it to name.
func writeAtomic(dir, name string, write func(path string) error) error {
	tmp := filepath.Join(dir, name+"."+uuid.NewString()+tmpSuffix)
	final := filepath.Join(dir, name)

	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", name, err)
	}

	if err := syncFile(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("syncing %s: %w", name, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", name, err)
	}
	return nil
}

func writeBytes(data []byte) func(string) error {
	return func(path string) error {
		return os.WriteFile(path, data, 0o600)
	}
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
	}
	return nil
}
