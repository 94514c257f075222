// Package sqlitevec provides a vector.Provider whose indexes live in a SQLite
// database using the sqlite-vec vec0 virtual table.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/vector"
)

// ProviderName identifies the sqlite-vec provider in configuration.
const ProviderName = "sqlite"

// Config holds configuration for the sqlite-vec provider.
type Config struct {
	// Logger is the configured logger. Defaults to a no-op logger.
	Logger *slog.Logger
}

// Provider builds vec0-backed indexes in memory and loads persisted ones
// read-only.
type Provider struct {
	logger     *slog.Logger
	vecVersion string
}

// NewProvider registers sqlite-vec with the driver and verifies the
// extension loads.
func NewProvider(c Config) (*Provider, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	log.Debug("sqlite-vec index provider initialized", "vec_version", vecVersion)

	return &Provider{logger: log, vecVersion: vecVersion}, nil
}

func (p *Provider) Name() string { return ProviderName }

// Version reports the loaded sqlite-vec version.
func (p *Provider) Version() string { return p.vecVersion }

// Build creates an in-memory database holding rows as vec0 entries. Row i is
// stored under rowid i+1.
func (p *Provider) Build(ctx context.Context, rows [][]float32) (vector.Index, error) {
	dim, err := vector.Dimensions(rows)
	if err != nil {
		return nil, err
	}

	db, err := openDB(":memory:")
	if err != nil {
		return nil, err
	}

	if err := populate(ctx, db, rows, dim); err != nil {
		db.Close()
		return nil, err
	}

	p.logger.Debug("built sqlite-vec index", "rows", len(rows), "dimensions", dim)

	return &Index{db: db, rows: len(rows), dim: dim}, nil
}

// Load opens a database written by Index.Save in read-only mode.
func (p *Provider) Load(ctx context.Context, path string) (vector.Index, error) {
	dsn := (&url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}).String()
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}

	idx, err := readMeta(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", vector.ErrCorrupt, err)
	}

	return idx, nil
}

func (p *Provider) Close() error { return nil }

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// an in-memory database lives only as long as its single connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

func populate(ctx context.Context, db *sql.DB, rows [][]float32, dim int) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE index_meta (
			row_count INTEGER NOT NULL,
			dimensions INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating meta table: %w", err)
	}

	createVec := fmt.Sprintf(`CREATE VIRTUAL TABLE vec_chunks USING vec0(embedding float[%d])`, dim)
	if _, err := db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vec_chunks(rowid, embedding) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, int64(i+1), serializeFloat32(row)); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_meta(row_count, dimensions) VALUES (?, ?)`, len(rows), dim,
	); err != nil {
		return fmt.Errorf("inserting meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func readMeta(ctx context.Context, db *sql.DB) (*Index, error) {
	var rows, dim int
	if err := db.QueryRowContext(ctx,
		`SELECT row_count, dimensions FROM index_meta LIMIT 1`,
	).Scan(&rows, &dim); err != nil {
		return nil, fmt.Errorf("reading index meta: %w", err)
	}
	if rows <= 0 || dim <= 0 {
		return nil, fmt.Errorf("invalid index meta: %d rows, %d dimensions", rows, dim)
	}

	var stored int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM vec_chunks`).Scan(&stored); err != nil {
		return nil, fmt.Errorf("counting vectors: %w", err)
	}
	if stored != rows {
		return nil, fmt.Errorf("index meta lists %d rows, table holds %d", rows, stored)
	}

	return &Index{db: db, rows: rows, dim: dim}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB
// format sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Index is a vec0 table in an open SQLite database.
type Index struct {
	db   *sql.DB
	rows int
	dim  int
}

// Search runs a vec0 KNN query. vec0 reports L2 distance, which is squared
// before returning.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if i.db == nil {
		return nil, vector.ErrClosed
	}

	k, err := vector.CheckQuery(i, query, k)
	if err != nil {
		return nil, err
	}
	if k == 0 {
		return []vector.Neighbor{}, nil
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT rowid, distance
		FROM vec_chunks
		WHERE embedding MATCH ?
			AND k = ?
		ORDER BY distance
	`, serializeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	hits := make([]vector.Neighbor, 0, k)
	for rows.Next() {
		var rowID int64
		var distance float64
		if err := rows.Scan(&rowID, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		if rowID < 1 || rowID > int64(i.rows) {
			return nil, fmt.Errorf("%w: rowid %d out of range", vector.ErrCorrupt, rowID)
		}
		hits = append(hits, vector.Neighbor{
			Row:      int(rowID - 1),
			Distance: float32(distance * distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	vector.SortNeighbors(hits)
	return hits, nil
}

func (i *Index) Len() int { return i.rows }

func (i *Index) Dimensions() int { return i.dim }

// Save copies the database to path with VACUUM INTO. path must not exist.
func (i *Index) Save(path string) error {
	if i.db == nil {
		return vector.ErrClosed
	}
	if _, err := i.db.Exec(`VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("writing sqlite-vec index: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	if i.db == nil {
		return nil
	}
	err := i.db.Close()
	i.db = nil
	if err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("closing sqlite-vec index: %w", err)
	}
	return nil
}

var (
	_ vector.Provider = (*Provider)(nil)
	_ vector.Index    = (*Index)(nil)
)
