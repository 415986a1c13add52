// Package index maintains the per-message view of a conversation's
// artifacts: stable display ordering, cyclic next/previous navigation, and
// all-or-nothing reorder validation. The index is derived from stored
// artifacts and never re-runs detection.
package index

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/koopa0/canvas/internal/artifact"
)

// DefaultCacheSize bounds the number of message lists kept hot.
const DefaultCacheSize = 256

// ErrInvalidReorder is returned when a reorder mapping is not a complete
// permutation of a message's existing orders. Invalid requests are
// rejected as a whole; nothing is applied partially.
var ErrInvalidReorder = errors.New("invalid reorder mapping")

// List is the ordered artifact set of one message.
type List struct {
	messageID uuid.UUID
	artifacts []*artifact.Artifact
}

// NewList builds the ordered list for messageID from artifacts. Entries
// belonging to other messages are ignored. Ordering is by Order ascending,
// ties broken by CreatedAt then ID so the result is total and
// deterministic.
func NewList(messageID uuid.UUID, artifacts []*artifact.Artifact) *List {
	own := make([]*artifact.Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		if a.MessageID != nil && *a.MessageID == messageID {
			own = append(own, a)
		}
	}
	sort.Slice(own, func(i, j int) bool {
		if own[i].Order != own[j].Order {
			return own[i].Order < own[j].Order
		}
		if !own[i].CreatedAt.Equal(own[j].CreatedAt) {
			return own[i].CreatedAt.Before(own[j].CreatedAt)
		}
		return own[i].ID.String() < own[j].ID.String()
	})
	return &List{messageID: messageID, artifacts: own}
}

// MessageID returns the message this list belongs to.
func (l *List) MessageID() uuid.UUID { return l.messageID }

// Len returns the number of artifacts in the list.
func (l *List) Len() int { return len(l.artifacts) }

// At returns the artifact at display position i, or nil out of range.
func (l *List) At(i int) *artifact.Artifact {
	if i < 0 || i >= len(l.artifacts) {
		return nil
	}
	return l.artifacts[i]
}

// All returns the artifacts in display order. The slice is shared; callers
// must not mutate it.
func (l *List) All() []*artifact.Artifact { return l.artifacts }

// Next returns the position after current, wrapping to the first artifact
// past the end. Navigation is cyclic, not clamped.
func (l *List) Next(current int) int {
	if len(l.artifacts) == 0 {
		return 0
	}
	return ((current + 1) % len(l.artifacts) + len(l.artifacts)) % len(l.artifacts)
}

// Previous returns the position before current, wrapping to the last
// artifact before the start.
func (l *List) Previous(current int) int {
	if len(l.artifacts) == 0 {
		return 0
	}
	return ((current-1)%len(l.artifacts) + len(l.artifacts)) % len(l.artifacts)
}

// ValidateReorder checks that mapping assigns a new order to exactly the
// artifacts in the list and that the new orders are a permutation of the
// existing ones. Returns ErrInvalidReorder otherwise. Nothing is mutated.
func (l *List) ValidateReorder(mapping map[uuid.UUID]int) error {
	if len(mapping) != len(l.artifacts) {
		return fmt.Errorf("%w: mapping covers %d of %d artifacts",
			ErrInvalidReorder, len(mapping), len(l.artifacts))
	}

	existing := make(map[int]int, len(l.artifacts)) // order -> count
	for _, a := range l.artifacts {
		existing[a.Order]++
		if _, ok := mapping[a.ID]; !ok {
			return fmt.Errorf("%w: artifact %s missing from mapping", ErrInvalidReorder, a.ID)
		}
	}
	for id, order := range mapping {
		if existing[order] == 0 {
			return fmt.Errorf("%w: order %d for %s is not an existing order", ErrInvalidReorder, order, id)
		}
		existing[order]--
	}
	return nil
}

// Reorder returns a new list with mapping applied. The receiver and its
// artifacts are unchanged; reordered artifacts are clones. Fails as a
// whole on an invalid mapping.
func (l *List) Reorder(mapping map[uuid.UUID]int) (*List, error) {
	if err := l.ValidateReorder(mapping); err != nil {
		return nil, err
	}
	clones := make([]*artifact.Artifact, len(l.artifacts))
	for i, a := range l.artifacts {
		c := a.Clone()
		c.Order = mapping[a.ID]
		clones[i] = c
	}
	return NewList(l.messageID, clones), nil
}

// Index caches built message lists so navigation does not re-query or
// re-sort per keypress. Entries are invalidated on any write to the
// message's artifact set.
type Index struct {
	cache  *lru.Cache[uuid.UUID, *List]
	logger *slog.Logger
}

// New creates an Index. size <= 0 selects DefaultCacheSize; nil logger
// selects slog.Default().
func New(size int, logger *slog.Logger) (*Index, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[uuid.UUID, *List](size)
	if err != nil {
		return nil, fmt.Errorf("creating index cache: %w", err)
	}
	return &Index{cache: cache, logger: logger}, nil
}

// Build constructs, caches, and returns the list for messageID.
func (ix *Index) Build(messageID uuid.UUID, artifacts []*artifact.Artifact) *List {
	l := NewList(messageID, artifacts)
	ix.cache.Add(messageID, l)
	ix.logger.Debug("indexed message artifacts", "message_id", messageID, "count", l.Len())
	return l
}

// Get returns the cached list for messageID, if present.
func (ix *Index) Get(messageID uuid.UUID) (*List, bool) {
	return ix.cache.Get(messageID)
}

// Invalidate drops the cached list for messageID. Call after any create,
// delete, or reorder touching the message.
func (ix *Index) Invalidate(messageID uuid.UUID) {
	ix.cache.Remove(messageID)
}
