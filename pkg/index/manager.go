// Package index owns every document's chunks and optional vector index. It
// builds documents from raw text, keeps a bounded set of them in memory,
// persists them through the store and answers top-k queries, degrading to
// keyword search whenever semantic retrieval is unavailable.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/papercomputeco/docqa/pkg/capability"
	"github.com/papercomputeco/docqa/pkg/chunker"
	"github.com/papercomputeco/docqa/pkg/embeddings"
	"github.com/papercomputeco/docqa/pkg/eventstream"
	"github.com/papercomputeco/docqa/pkg/eventstream/nop"
	"github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/retrieval"
	"github.com/papercomputeco/docqa/pkg/store"
	"github.com/papercomputeco/docqa/pkg/textnorm"
	"github.com/papercomputeco/docqa/pkg/vector"
)

// ErrSuperseded is returned by BuildReserved when a later build or delete of
// the same document has replaced the reservation.
var ErrSuperseded = errors.New("build superseded by a later write")

// Config holds configuration for a Manager.
type Config struct {
	// Root is the storage root holding one directory per document.
	Root string

	// Capability carries the embedder and vector provider when semantic
	// retrieval is available. Nil, or a capability with Semantic false,
	// puts every document in keyword mode.
	Capability *capability.Capability

	// ChunkSize and ChunkOverlap default to the chunker defaults when zero.
	ChunkSize    int
	ChunkOverlap int

	// MaxResident caps the number of documents held in memory. Zero means
	// no limit.
	MaxResident int

	// Publisher receives index events. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	Logger *slog.Logger
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	DocumentID int64          `json:"document_id"`
	Chunks     int            `json:"chunks"`
	Mode       retrieval.Mode `json:"mode"`
	Dimensions int            `json:"dimensions,omitempty"`
}

// DocumentInfo describes a known document.
type DocumentInfo struct {
	DocumentID int64          `json:"document_id"`
	Chunks     int            `json:"chunks"`
	Mode       retrieval.Mode `json:"mode"`
	Dimensions int            `json:"dimensions,omitempty"`
}

// Manager is safe for concurrent use. Operations on the same document are
// serialized; different documents proceed in parallel.
type Manager struct {
	store       *store.Store
	embedder    embeddings.Embedder
	provider    vector.Provider
	size        int
	overlap     int
	maxResident int
	publisher   eventstream.Publisher
	logger      *slog.Logger

	locks    *keyedMutex
	resident *residentSet

	// pending maps a document to its newest reservation. Builds and
	// deletes drop the entry, so older reservations no longer match.
	pendingMu sync.Mutex
	pending   map[int64]uint64
	seq       uint64
}

// NewManager validates the chunking options and opens the store. It returns
// chunker.ErrInvalidSize or chunker.ErrInvalidOverlap for bad chunking options.
func NewManager(c Config) (*Manager, error) {
	size := c.ChunkSize
	if size == 0 {
		size = chunker.DefaultSize
	}
	overlap := c.ChunkOverlap
	if overlap == 0 && c.ChunkSize == 0 {
		overlap = chunker.DefaultOverlap
	}
	if err := chunker.Validate(size, overlap); err != nil {
		return nil, err
	}
	if c.MaxResident < 0 {
		return nil, fmt.Errorf("max resident must not be negative, got %d", c.MaxResident)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	m := &Manager{
		size:        size,
		overlap:     overlap,
		maxResident: c.MaxResident,
		publisher:   c.Publisher,
		logger:      log,
		locks:       newKeyedMutex(),
		resident:    newResidentSet(),
		pending:     make(map[int64]uint64),
	}
	if m.publisher == nil {
		m.publisher = nop.NewPublisher()
	}
	if c.Capability != nil && c.Capability.Semantic {
		m.embedder = c.Capability.Embedder
		m.provider = c.Capability.Provider
	}

	s, err := store.New(store.Config{
		Root:    c.Root,
		Indexes: m.provider,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	m.store = s

	return m, nil
}

// Semantic reports whether this manager builds and queries vector indexes.
func (m *Manager) Semantic() bool {
	return m.embedder != nil && m.provider != nil
}

// Build replaces the document's state with one built from raw. Failures to
// embed, index or persist are logged and never fail the build; the only
// errors are chunking precondition errors. Build supersedes any outstanding
// reservation for id.
func (m *Manager) Build(ctx context.Context, id int64, raw string) (BuildResult, error) {
	return m.buildText(ctx, id, raw, 0)
}

// Reserve claims the next write to id for a deferred build. The reservation
// is lost if Build, Delete or another Reserve touches id first.
func (m *Manager) Reserve(id int64) uint64 {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()

	m.seq++
	m.pending[id] = m.seq
	return m.seq
}

// BuildReserved builds like Build, but only while ticket is still the newest
// reservation for id. Otherwise it returns ErrSuperseded and leaves the
// document untouched.
func (m *Manager) BuildReserved(ctx context.Context, id int64, raw string, ticket uint64) (BuildResult, error) {
	if ticket == 0 {
		return BuildResult{}, fmt.Errorf("building document %d: %w", id, ErrSuperseded)
	}
	return m.buildText(ctx, id, raw, ticket)
}

func (m *Manager) buildText(ctx context.Context, id int64, raw string, ticket uint64) (BuildResult, error) {
	chunks, err := chunker.Split(textnorm.Normalize(raw), m.size, m.overlap)
	if err != nil {
		return BuildResult{}, fmt.Errorf("chunking document %d: %w", id, err)
	}

	result, ok := m.build(ctx, id, chunks, ticket)
	if !ok {
		return BuildResult{DocumentID: id}, fmt.Errorf("building document %d: %w", id, ErrSuperseded)
	}

	event := eventstream.NewIndexEvent(eventstream.EventTypeDocumentIndexed, id)
	event.Mode = string(result.Mode)
	event.Chunks = result.Chunks
	event.Dimensions = result.Dimensions
	m.publish(ctx, event)

	return result, nil
}

// claim settles id's reservation for a write. A zero ticket always wins and
// cancels whatever is pending. The caller holds id's lock.
func (m *Manager) claim(id int64, ticket uint64) bool {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()

	if ticket != 0 && m.pending[id] != ticket {
		return false
	}
	delete(m.pending, id)
	return true
}

func (m *Manager) build(ctx context.Context, id int64, chunks []chunker.Chunk, ticket uint64) (BuildResult, bool) {
	unlock := m.locks.Lock(id)
	defer unlock()

	if !m.claim(id, ticket) {
		m.logger.Debug("skipping superseded build", "document_id", id)
		return BuildResult{}, false
	}

	doc := &store.Document{Chunks: chunks}
	if len(chunks) > 0 && m.Semantic() {
		sem, err := m.buildSemantic(ctx, chunks)
		if err != nil {
			m.logger.Warn("semantic index build failed, document will use keyword search",
				"document_id", id,
				"error", err,
			)
		} else {
			doc.Semantic = sem
		}
	}

	if err := m.store.Save(ctx, id, doc); err != nil {
		m.logger.Error("could not persist document",
			"document_id", id,
			"error", err,
		)
	}

	if prev := m.resident.put(id, doc); prev != nil && prev != doc {
		m.closeDoc(id, prev)
	}
	m.evict(id)

	result := BuildResult{
		DocumentID: id,
		Chunks:     len(chunks),
		Mode:       modeOf(doc),
		Dimensions: dimensionsOf(doc),
	}
	m.logger.Info("document indexed",
		"document_id", id,
		"chunks", result.Chunks,
		"mode", result.Mode,
	)
	return result, true
}

// buildSemantic embeds every chunk and indexes the embeddings. All vectors
// must be non-empty and share one dimension.
func (m *Manager) buildSemantic(ctx context.Context, chunks []chunker.Chunk) (sem *store.Semantic, err error) {
	defer func() {
		if r := recover(); r != nil {
			sem = nil
			err = fmt.Errorf("semantic build panicked: %v", r)
		}
	}()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	rows, err := embeddings.EmbedAll(ctx, m.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	for i, v := range rows {
		if len(v) == 0 {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, vector.ErrEmptyMatrix)
		}
		if len(v) != len(rows[0]) {
			return nil, fmt.Errorf("embedding chunk %d: %w: got %d, want %d",
				i, vector.ErrDimensionMismatch, len(v), len(rows[0]))
		}
	}

	idx, err := m.provider.Build(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	return &store.Semantic{Embeddings: rows, Index: idx}, nil
}

// EnsureResident loads the document into memory if it is not already there.
// It reports false when nothing is stored for id.
func (m *Manager) EnsureResident(ctx context.Context, id int64) bool {
	unlock := m.locks.Lock(id)
	defer unlock()

	_, ok := m.residentDoc(ctx, id)
	return ok
}

// residentDoc returns the in-memory state for id, loading it from the store
// on a miss. The caller holds id's lock.
func (m *Manager) residentDoc(ctx context.Context, id int64) (*store.Document, bool) {
	if doc, ok := m.resident.get(id); ok {
		return doc, true
	}

	doc, ok := m.store.Load(ctx, id)
	if !ok {
		return nil, false
	}

	m.resident.put(id, doc)
	m.evict(id)
	return doc, true
}

// Delete removes the document from memory and disk and cancels any
// outstanding reservation. Unknown ids are ignored.
func (m *Manager) Delete(ctx context.Context, id int64) {
	unlock := m.locks.Lock(id)
	m.claim(id, 0)
	if doc := m.resident.remove(id); doc != nil {
		m.closeDoc(id, doc)
	}
	if err := m.store.Delete(id); err != nil {
		m.logger.Error("could not delete document", "document_id", id, "error", err)
	}
	unlock()

	m.logger.Info("document deleted", "document_id", id)
	m.publish(ctx, eventstream.NewIndexEvent(eventstream.EventTypeDocumentDeleted, id))
}

// Search returns up to k chunks of the document ranked by relevance to
// query. Semantic documents are searched by embedding distance; keyword
// overlap is used for every other document and whenever the semantic path
// fails.
func (m *Manager) Search(ctx context.Context, id int64, query string, k int) retrieval.Results {
	unlock := m.locks.Lock(id)
	defer unlock()

	empty := retrieval.Results{Mode: retrieval.ModeKeyword, Hits: []retrieval.Hit{}}

	doc, ok := m.residentDoc(ctx, id)
	if !ok || len(doc.Chunks) == 0 {
		return empty
	}

	k = min(k, len(doc.Chunks))
	if k <= 0 {
		empty.Mode = modeOf(doc)
		return empty
	}

	if doc.Semantic != nil && m.embedder != nil {
		hits, err := retrieval.Semantic(ctx, m.embedder, doc.Semantic.Index, doc.Chunks, query, k)
		if err == nil {
			return retrieval.Results{Mode: retrieval.ModeSemantic, Hits: hits}
		}
		m.logger.Warn("semantic search failed, falling back to keyword search",
			"document_id", id,
			"error", err,
		)
	}

	return retrieval.Results{
		Mode: retrieval.ModeKeyword,
		Hits: retrieval.Keyword(doc.Chunks, query, k),
	}
}

// Chunks returns a copy of the document's chunks, empty when it is unknown.
func (m *Manager) Chunks(ctx context.Context, id int64) []chunker.Chunk {
	unlock := m.locks.Lock(id)
	defer unlock()

	doc, ok := m.residentDoc(ctx, id)
	if !ok {
		return []chunker.Chunk{}
	}
	return slices.Clone(doc.Chunks)
}

// Info describes the document, reporting false when it is unknown.
func (m *Manager) Info(ctx context.Context, id int64) (DocumentInfo, bool) {
	unlock := m.locks.Lock(id)
	defer unlock()

	doc, ok := m.residentDoc(ctx, id)
	if !ok {
		return DocumentInfo{}, false
	}
	return DocumentInfo{
		DocumentID: id,
		Chunks:     len(doc.Chunks),
		Mode:       modeOf(doc),
		Dimensions: dimensionsOf(doc),
	}, true
}

// List returns the ids of all stored documents.
func (m *Manager) List() ([]int64, error) {
	return m.store.List()
}

// Evict drops the in-memory copy of a document. Its persisted state is
// untouched and it is reloaded on next use.
func (m *Manager) Evict(id int64) {
	unlock := m.locks.Lock(id)
	defer unlock()

	if doc := m.resident.remove(id); doc != nil {
		m.closeDoc(id, doc)
	}
}

// Resident returns the number of documents held in memory.
func (m *Manager) Resident() int {
	return m.resident.len()
}

// Close evicts every resident document. The capability's embedder and
// provider belong to the caller and stay open.
func (m *Manager) Close() error {
	var errs []error
	for _, id := range m.resident.oldest() {
		unlock := m.locks.Lock(id)
		if doc := m.resident.remove(id); doc != nil {
			errs = append(errs, doc.Close())
		}
		unlock()
	}
	return errors.Join(errs...)
}

// evict trims the resident set down to maxResident, oldest first. Documents
// that are busy are skipped, as is keep, whose lock the caller holds.
func (m *Manager) evict(keep int64) {
	if m.maxResident <= 0 {
		return
	}

	for _, id := range m.resident.oldest() {
		if m.resident.len() <= m.maxResident {
			return
		}
		if id == keep {
			continue
		}

		unlock, ok := m.locks.TryLock(id)
		if !ok {
			continue
		}
		if doc := m.resident.remove(id); doc != nil {
			m.closeDoc(id, doc)
			m.logger.Debug("evicted document", "document_id", id)
		}
		unlock()
	}
}

func (m *Manager) closeDoc(id int64, doc *store.Document) {
	if err := doc.Close(); err != nil {
		m.logger.Warn("could not close document index", "document_id", id, "error", err)
	}
}

func (m *Manager) publish(ctx context.Context, event *eventstream.IndexEvent) {
	if err := m.publisher.PublishIndexEvent(ctx, event); err != nil {
		m.logger.Warn("could not publish index event",
			"event_type", event.EventType,
			"document_id", event.DocumentID,
			"error", err,
		)
	}
}

func modeOf(doc *store.Document) retrieval.Mode {
	if doc != nil && doc.Semantic != nil {
		return retrieval.ModeSemantic
	}
	return retrieval.ModeKeyword
}

func dimensionsOf(doc *store.Document) int {
	if doc == nil || doc.Semantic == nil || len(doc.Semantic.Embeddings) == 0 {
		return 0
	}
	return len(doc.Semantic.Embeddings[0])
}
