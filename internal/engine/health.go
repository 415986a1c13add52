package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/fingerprint"
)

// Health is the audit view over one conversation's artifacts.
type Health struct {
	ConversationID uuid.UUID
	Total          int
	ByStatus       map[artifact.SyncStatus]int

	// CorruptIDs lists artifacts whose stored checksum does not match a
	// freshly computed fingerprint of their stored content. This signals
	// data corruption, distinct from a sync conflict, and is never
	// auto-repaired; repair requires an explicit Reconcile.
	CorruptIDs []uuid.UUID
}

// Health reports totals, counts by sync status, and integrity mismatches
// for a conversation.
func (c *Coordinator) Health(ctx context.Context, conversationID uuid.UUID) (*Health, error) {
	artifacts, err := c.store.QueryByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying conversation %s for health: %w", conversationID, err)
	}

	h := &Health{
		ConversationID: conversationID,
		Total:          len(artifacts),
		ByStatus:       make(map[artifact.SyncStatus]int),
	}
	for _, a := range artifacts {
		h.ByStatus[a.SyncStatus]++
		if fingerprint.Checksum(a.Content) != a.Checksum {
			h.CorruptIDs = append(h.CorruptIDs, a.ID)
			c.logger.Warn("checksum mismatch on stored artifact",
				"id", a.ID, "stored_checksum", a.Checksum)
		}
	}
	sort.Slice(h.CorruptIDs, func(i, j int) bool {
		return h.CorruptIDs[i].String() < h.CorruptIDs[j].String()
	})
	return h, nil
}
