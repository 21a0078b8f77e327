package draftlib

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// FallbackStore is the local durable fallback for draft content. Every
// save attempt writes the draft here before the network call is issued,
// so an abandoned attempt (crash, lost connectivity, stale session) is
// recoverable on the next launch.
type FallbackStore struct {
	db *sql.DB
}

// OpenFallbackStore opens (and if needed creates) the draft database at
// the given path. An empty path uses the default location inside the
// config directory.
func OpenFallbackStore(path string) (*FallbackStore, error) {
	if path == "" {
		path = DraftDBPath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error: cannot open draft database: %w", err)
	}
	// Single writer; the scheduler serializes save attempts per document.
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS drafts (
            document_id TEXT PRIMARY KEY,
            content     BLOB NOT NULL,
            saved_at    TIMESTAMP NOT NULL
        )`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error: cannot initialize draft database: %w", err)
	}
	return &FallbackStore{db: db}, nil
}

// WriteDraft stores (or replaces) the draft for a document together with
// the write timestamp.
func (f *FallbackStore) WriteDraft(ctx context.Context, documentID, content string) error {
	_, err := f.db.ExecContext(ctx, `
        INSERT INTO drafts (document_id, content, saved_at)
        VALUES (?, ?, ?)
        ON CONFLICT(document_id) DO UPDATE SET
            content  = excluded.content,
            saved_at = excluded.saved_at`,
		documentID, []byte(content), time.Now().UTC())
	return err
}

// LoadDraft returns the stored draft and its write time, or
// ErrDraftNotFound when no draft exists for the document.
func (f *FallbackStore) LoadDraft(ctx context.Context, documentID string) (string, time.Time, error) {
	var content []byte
	var savedAt time.Time
	err := f.db.QueryRowContext(ctx,
		`SELECT content, saved_at FROM drafts WHERE document_id = ?`,
		documentID).Scan(&content, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrDraftNotFound
	}
	if err != nil {
		return "", time.Time{}, err
	}
	return string(content), savedAt, nil
}

// DeleteDraft removes the stored draft for a document. Deleting a missing
// draft is a no-op.
func (f *FallbackStore) DeleteDraft(ctx context.Context, documentID string) error {
	_, err := f.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE document_id = ?`, documentID)
	return err
}

// Close closes the underlying database.
func (f *FallbackStore) Close() error {
	return f.db.Close()
}
