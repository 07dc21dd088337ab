package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Store persists knowledge-base chunks in Postgres. The vector index is
// in-memory only; at startup it is rebuilt from the rows kept here.
type Store struct {
	DB *sql.DB
}

// ChunkRecord is one persisted knowledge-base chunk. Seq is the chunk's
// position within its ingestion batch.
type ChunkRecord struct {
	ID        int64
	Source    string
	Seq       int
	Content   string
	HasImage  bool
	ImageID   string
	CreatedAt time.Time
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// InsertChunks appends a batch of chunks inside a single transaction.
func (s *Store) InsertChunks(ctx context.Context, recs []ChunkRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if strings.TrimSpace(rec.Source) == "" {
			tx.Rollback()
			return fmt.Errorf("source required")
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO kb_chunks (source, seq, content, has_image, image_id)
VALUES ($1,$2,$3,$4,$5)
`, rec.Source, rec.Seq, rec.Content, rec.HasImage, nullableString(rec.ImageID)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListChunks returns every persisted chunk in insertion order.
func (s *Store) ListChunks(ctx context.Context) ([]ChunkRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, source, seq, content, has_image, COALESCE(image_id,''), created_at
FROM kb_chunks
ORDER BY id ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChunkRecord
	for rows.Next() {
		var rec ChunkRecord
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Seq, &rec.Content, &rec.HasImage, &rec.ImageID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountChunks returns the number of persisted chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM kb_chunks`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteChunksBySource removes all chunks ingested under a source tag.
func (s *Store) DeleteChunksBySource(ctx context.Context, source string) (int64, error) {
	if strings.TrimSpace(source) == "" {
		return 0, fmt.Errorf("source required")
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM kb_chunks WHERE source=$1`, source)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
