package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/koopa0/canvas/internal/artifact"
)

// Sentinel errors a Store implementation must surface. The coordinator
// distinguishes compare-and-swap rejection from generic I/O failure; a
// store that cannot make that distinction cannot host this engine.
var (
	// ErrNotFound is returned when no artifact exists under the key.
	ErrNotFound = errors.New("artifact not found in store")

	// ErrAlreadyExists is returned by CreateIfAbsent when the key is taken.
	ErrAlreadyExists = errors.New("artifact already exists in store")

	// ErrPreconditionFailed is returned by CompareAndSwap when the stored
	// checksum no longer matches the expected checksum. This is the
	// conflict signal, distinct from any I/O error.
	ErrPreconditionFailed = errors.New("stored checksum does not match expected checksum")
)

// Store is the durable-store contract the coordinator runs against.
//
// Implementations are shared by multiple stateless engine instances; all
// cross-instance correctness derives from CompareAndSwap being atomic
// per key. Every call honors ctx cancellation and deadlines.
type Store interface {
	// GetByKey returns the artifact stored under id, or ErrNotFound.
	GetByKey(ctx context.Context, id uuid.UUID) (*artifact.Artifact, error)

	// CreateIfAbsent stores a new artifact keyed by its ID, or returns
	// ErrAlreadyExists without modifying the stored document.
	CreateIfAbsent(ctx context.Context, a *artifact.Artifact) error

	// CompareAndSwap atomically replaces the document under id if and only
	// if the stored checksum equals expectedChecksum. Returns
	// ErrPreconditionFailed when another writer got there first, and
	// ErrNotFound when the key does not exist. The compare and the write
	// are one atomic operation inside the store; callers must never
	// emulate this with a read followed by an unconditional write.
	CompareAndSwap(ctx context.Context, id uuid.UUID, expectedChecksum string, doc *artifact.Artifact) error

	// Delete removes the artifact under id. Deleting an absent key is not
	// an error (idempotent).
	Delete(ctx context.Context, id uuid.UUID) error

	// QueryByConversation returns all artifacts of a conversation, in no
	// guaranteed order.
	QueryByConversation(ctx context.Context, conversationID uuid.UUID) ([]*artifact.Artifact, error)

	// QueryByMessage returns all artifacts attached to a message, in no
	// guaranteed order.
	QueryByMessage(ctx context.Context, messageID uuid.UUID) ([]*artifact.Artifact, error)
}
