package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/caldera-ai/recall/internal/models"
)

// SQLiteStore implements VectorStore using SQLite with embeddings stored as
// little-endian float32 BLOBs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS knowledge_vectors (
		id TEXT PRIMARY KEY,
		tenant TEXT NOT NULL,
		title TEXT,
		content TEXT NOT NULL,
		category TEXT,
		source_type TEXT,
		source_url TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		dimensions INTEGER NOT NULL,
		embedding BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vectors_tenant ON knowledge_vectors(tenant);
	CREATE INDEX IF NOT EXISTS idx_vectors_tenant_source ON knowledge_vectors(tenant, source_url);
	`
	_, err := db.Exec(schema)
	return err
}

// GetAllVectors returns every knowledge record for tenant.
func (s *SQLiteStore) GetAllVectors(ctx context.Context, tenant string) ([]*models.KnowledgeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, category, source_type, source_url, updated_at, embedding
		 FROM knowledge_vectors WHERE tenant = ?`, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var records []*models.KnowledgeRecord
	for rows.Next() {
		var rec models.KnowledgeRecord
		var blob []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.Metadata.Title,
			&rec.Metadata.Content,
			&rec.Metadata.Category,
			&rec.Metadata.SourceType,
			&rec.Metadata.SourceURL,
			&rec.Metadata.UpdatedAt,
			&blob,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		rec.Embedding = DecodeVector(blob)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// StoreVectors inserts or replaces records for tenant. Records without an ID
// get a freshly minted one.
func (s *SQLiteStore) StoreVectors(ctx context.Context, tenant string, records []*models.KnowledgeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO knowledge_vectors
		 (id, tenant, title, content, category, source_type, source_url, updated_at, dimensions, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if rec.Metadata.UpdatedAt.IsZero() {
			rec.Metadata.UpdatedAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, tenant,
			rec.Metadata.Title, rec.Metadata.Content,
			rec.Metadata.Category, rec.Metadata.SourceType, rec.Metadata.SourceURL,
			rec.Metadata.UpdatedAt,
			len(rec.Embedding), EncodeVector(rec.Embedding),
		); err != nil {
			return fmt.Errorf("failed to store vector %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteBySource removes all of tenant's records with the given source URL
// and returns how many were deleted.
func (s *SQLiteStore) DeleteBySource(ctx context.Context, tenant, sourceURL string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM knowledge_vectors WHERE tenant = ? AND source_url = ?`, tenant, sourceURL)
	if err != nil {
		return 0, fmt.Errorf("failed to delete by source: %w", err)
	}
	return res.RowsAffected()
}

// CountVectors returns the number of records stored for tenant.
func (s *SQLiteStore) CountVectors(ctx context.Context, tenant string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM knowledge_vectors WHERE tenant = ?`, tenant).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
