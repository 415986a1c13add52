// Package sqlitestore persists artifacts in a single-file SQLite database.
// It suits single-host deployments; the compare-and-swap guard is a
// conditional UPDATE, atomic under SQLite's writer serialization.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Store implements engine.Store on a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying artifact schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const artifactColumns = `id, conversation_id, message_id, title, type, language,
	content, version, display_order, group_id, checksum, sync_status,
	created_at, updated_at`

// GetByKey returns the artifact stored under id, or engine.ErrNotFound.
func (s *Store) GetByKey(ctx context.Context, id uuid.UUID) (*artifact.Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id.String())
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", id, err)
	}
	return a, nil
}

// CreateIfAbsent inserts a, or returns engine.ErrAlreadyExists if its ID is
// taken. The absence check rides on the primary key constraint.
func (s *Store) CreateIfAbsent(ctx context.Context, a *artifact.Artifact) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (`+artifactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		insertArgs(a)...)
	if err != nil {
		return fmt.Errorf("inserting artifact %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting artifact %s: %w", a.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("artifact %s: %w", a.ID, engine.ErrAlreadyExists)
	}
	return nil
}

// CompareAndSwap replaces the document under id iff the stored checksum
// equals expectedChecksum. The guard lives in the UPDATE's WHERE clause, so
// compare and write are one statement.
func (s *Store) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedChecksum string, doc *artifact.Artifact) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE artifacts SET
			conversation_id = ?, message_id = ?, title = ?, type = ?,
			language = ?, content = ?, version = ?, display_order = ?,
			group_id = ?, checksum = ?, sync_status = ?, updated_at = ?
		WHERE id = ? AND checksum = ?`,
		doc.ConversationID.String(), nullableUUID(doc.MessageID), doc.Title,
		string(doc.Type), doc.Language, doc.Content, doc.Version, doc.Order,
		nullableUUID(doc.GroupID), doc.Checksum, string(doc.SyncStatus),
		doc.UpdatedAt, id.String(), expectedChecksum)
	if err != nil {
		return fmt.Errorf("swapping artifact %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("swapping artifact %s: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	// The guard rejected; distinguish a missing row from a checksum race.
	var one int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM artifacts WHERE id = ?`, id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("artifact %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking artifact %s after swap rejection: %w", id, err)
	}
	return fmt.Errorf("artifact %s: %w", id, engine.ErrPreconditionFailed)
}

// Delete removes the artifact under id. Absent keys are a no-op.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM artifacts WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("deleting artifact %s: %w", id, err)
	}
	return nil
}

// QueryByConversation returns all artifacts of a conversation.
func (s *Store) QueryByConversation(ctx context.Context, conversationID uuid.UUID) ([]*artifact.Artifact, error) {
	return s.query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE conversation_id = ?`,
		conversationID.String())
}

// QueryByMessage returns all artifacts attached to a message.
func (s *Store) QueryByMessage(ctx context.Context, messageID uuid.UUID) ([]*artifact.Artifact, error) {
	return s.query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE message_id = ?`,
		messageID.String())
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*artifact.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var out []*artifact.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artifact row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating artifact rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*artifact.Artifact, error) {
	var (
		a                          artifact.Artifact
		idRaw, convRaw             string
		msgRaw, groupRaw           sql.NullString
		typeRaw, statusRaw         string
		createdAtRaw, updatedAtRaw time.Time
	)
	if err := row.Scan(&idRaw, &convRaw, &msgRaw, &a.Title, &typeRaw,
		&a.Language, &a.Content, &a.Version, &a.Order, &groupRaw,
		&a.Checksum, &statusRaw, &createdAtRaw, &updatedAtRaw); err != nil {
		return nil, err
	}

	var err error
	if a.ID, err = uuid.Parse(idRaw); err != nil {
		return nil, fmt.Errorf("parsing artifact id %q: %w", idRaw, err)
	}
	if a.ConversationID, err = uuid.Parse(convRaw); err != nil {
		return nil, fmt.Errorf("parsing conversation id %q: %w", convRaw, err)
	}
	if a.MessageID, err = parseNullableUUID(msgRaw); err != nil {
		return nil, err
	}
	if a.GroupID, err = parseNullableUUID(groupRaw); err != nil {
		return nil, err
	}
	a.Type = artifact.Type(typeRaw)
	a.SyncStatus = artifact.SyncStatus(statusRaw)
	a.CreatedAt = createdAtRaw.UTC()
	a.UpdatedAt = updatedAtRaw.UTC()
	return &a, nil
}

func insertArgs(a *artifact.Artifact) []any {
	return []any{
		a.ID.String(), a.ConversationID.String(), nullableUUID(a.MessageID),
		a.Title, string(a.Type), a.Language, a.Content, a.Version, a.Order,
		nullableUUID(a.GroupID), a.Checksum, string(a.SyncStatus),
		a.CreatedAt, a.UpdatedAt,
	}
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func parseNullableUUID(raw sql.NullString) (*uuid.UUID, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw.String)
	if err != nil {
		return nil, fmt.Errorf("parsing uuid %q: %w", raw.String, err)
	}
	return &id, nil
}
