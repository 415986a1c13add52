// Package memstore provides an in-memory artifact store with the same
// compare-and-swap contract as the durable backends. It backs tests and
// the CLI's default, zero-setup mode; nothing survives process exit.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/engine"
)

// Store holds artifacts keyed by ID behind one mutex, which makes every
// operation, compare-and-swap included, trivially atomic. Documents are
// cloned on the way in and out so callers can never alias stored state.
type Store struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*artifact.Artifact
}

// New creates an empty Store.
func New() *Store {
	return &Store{docs: make(map[uuid.UUID]*artifact.Artifact)}
}

// GetByKey returns the artifact stored under id, or engine.ErrNotFound.
func (s *Store) GetByKey(ctx context.Context, id uuid.UUID) (*artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", id, engine.ErrNotFound)
	}
	return a.Clone(), nil
}

// CreateIfAbsent stores a, or returns engine.ErrAlreadyExists if its ID is
// taken.
func (s *Store) CreateIfAbsent(ctx context.Context, a *artifact.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[a.ID]; ok {
		return fmt.Errorf("artifact %s: %w", a.ID, engine.ErrAlreadyExists)
	}
	s.docs[a.ID] = a.Clone()
	return nil
}

// CompareAndSwap replaces the document under id iff the stored checksum
// equals expectedChecksum.
func (s *Store) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedChecksum string, doc *artifact.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("artifact %s: %w", id, engine.ErrNotFound)
	}
	if current.Checksum != expectedChecksum {
		return fmt.Errorf("artifact %s: %w", id, engine.ErrPreconditionFailed)
	}
	s.docs[id] = doc.Clone()
	return nil
}

// Delete removes the artifact under id. Absent keys are a no-op.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, id)
	return nil
}

// QueryByConversation returns all artifacts of a conversation, in no
// guaranteed order.
func (s *Store) QueryByConversation(ctx context.Context, conversationID uuid.UUID) ([]*artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*artifact.Artifact
	for _, a := range s.docs {
		if a.ConversationID == conversationID {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

// QueryByMessage returns all artifacts attached to a message, in no
// guaranteed order.
func (s *Store) QueryByMessage(ctx context.Context, messageID uuid.UUID) ([]*artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*artifact.Artifact
	for _, a := range s.docs {
		if a.MessageID != nil && *a.MessageID == messageID {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}
