// Package pgstore persists artifacts in PostgreSQL via pgx. It is the
// backend for multi-instance deployments: the compare-and-swap guard is a
// conditional UPDATE, atomic under Postgres row locking, so any number of
// stateless engine instances can share one database.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/engine"
)

// uniqueViolation is the Postgres error code for duplicate-key inserts.
const uniqueViolation = "23505"

// Store implements engine.Store on a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store over pool. nil logger selects slog.Default(). The
// caller owns the pool's lifecycle.
func New(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Open connects to connURL, verifies the connection, and runs pending
// migrations.
func Open(ctx context.Context, connURL string, logger *slog.Logger) (*Store, error) {
	if err := Migrate(connURL, logger); err != nil {
		return nil, fmt.Errorf("migrating artifact schema: %w", err)
	}
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return New(pool, logger)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const artifactColumns = `id, conversation_id, message_id, title, type, language,
	content, version, display_order, group_id, checksum, sync_status,
	created_at, updated_at`

// GetByKey returns the artifact stored under id, or engine.ErrNotFound.
func (s *Store) GetByKey(ctx context.Context, id uuid.UUID) (*artifact.Artifact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE id = $1`, id)
	a, err := scanArtifact(row)
	if errors.Is(err, pgx.ErrNoRows) {
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO artifacts (`+artifactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.ConversationID, pgUUID(a.MessageID), a.Title, string(a.Type),
		a.Language, a.Content, a.Version, a.Order, pgUUID(a.GroupID),
		a.Checksum, string(a.SyncStatus), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("artifact %s: %w", a.ID, engine.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting artifact %s: %w", a.ID, err)
	}
	return nil
}

// CompareAndSwap replaces the document under id iff the stored checksum
// equals expectedChecksum. The guard lives in the UPDATE's WHERE clause, so
// compare and write are one statement.
func (s *Store) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedChecksum string, doc *artifact.Artifact) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE artifacts SET
			conversation_id = $1, message_id = $2, title = $3, type = $4,
			language = $5, content = $6, version = $7, display_order = $8,
			group_id = $9, checksum = $10, sync_status = $11, updated_at = $12
		WHERE id = $13 AND checksum = $14`,
		doc.ConversationID, pgUUID(doc.MessageID), doc.Title, string(doc.Type),
		doc.Language, doc.Content, doc.Version, doc.Order, pgUUID(doc.GroupID),
		doc.Checksum, string(doc.SyncStatus), doc.UpdatedAt,
		id, expectedChecksum)
	if err != nil {
		return fmt.Errorf("swapping artifact %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// The guard rejected; distinguish a missing row from a checksum race.
	var one int
	err = s.pool.QueryRow(ctx,
		`SELECT 1 FROM artifacts WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("artifact %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking artifact %s after swap rejection: %w", id, err)
	}
	return fmt.Errorf("artifact %s: %w", id, engine.ErrPreconditionFailed)
}

// Delete removes the artifact under id. Absent keys are a no-op.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM artifacts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting artifact %s: %w", id, err)
	}
	return nil
}

// QueryByConversation returns all artifacts of a conversation.
func (s *Store) QueryByConversation(ctx context.Context, conversationID uuid.UUID) ([]*artifact.Artifact, error) {
	return s.query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE conversation_id = $1`,
		conversationID)
}

// QueryByMessage returns all artifacts attached to a message.
func (s *Store) QueryByMessage(ctx context.Context, messageID uuid.UUID) ([]*artifact.Artifact, error) {
	return s.query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE message_id = $1`,
		messageID)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*artifact.Artifact, error) {
	rows, err := s.pool.Query(ctx, q, args...)
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
		a                    artifact.Artifact
		msgID, groupID       pgtype.UUID
		typeRaw, statusRaw   string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&a.ID, &a.ConversationID, &msgID, &a.Title, &typeRaw,
		&a.Language, &a.Content, &a.Version, &a.Order, &groupID,
		&a.Checksum, &statusRaw, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	a.MessageID = fromPgUUID(msgID)
	a.GroupID = fromPgUUID(groupID)
	a.Type = artifact.Type(typeRaw)
	a.SyncStatus = artifact.SyncStatus(statusRaw)
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updatedAt.UTC()
	return &a, nil
}

func pgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func fromPgUUID(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}
