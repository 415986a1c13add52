package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/index"
)

// Reorder applies a new display order to a message's artifacts. mapping
// must assign an order to every artifact of the message and the new orders
// must be a permutation of the existing ones; anything else fails with
// index.ErrInvalidReorder before the first write.
//
// Each changed artifact is written under its content checksum guard. If a
// concurrent content edit lands mid-reorder the affected write reports a
// conflict and every order already written is reverted, so the message
// never ends up with a half-applied ordering.
func (c *Coordinator) Reorder(ctx context.Context, messageID uuid.UUID, mapping map[uuid.UUID]int) ([]*artifact.Artifact, *Conflict, error) {
	stored, err := c.store.QueryByMessage(ctx, messageID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying message %s for reorder: %w", messageID, err)
	}

	list := index.NewList(messageID, stored)
	if err := list.ValidateReorder(mapping); err != nil {
		return nil, nil, err
	}

	now := c.now().UTC()
	applied := make([]*artifact.Artifact, 0, list.Len())
	written := make([]*artifact.Artifact, 0, list.Len()) // originals to restore on rollback
	for _, prev := range list.All() {
		if mapping[prev.ID] == prev.Order {
			applied = append(applied, prev)
			continue
		}
		doc := prev.Clone()
		doc.Order = mapping[prev.ID]
		doc.UpdatedAt = now

		switch err := c.store.CompareAndSwap(ctx, prev.ID, prev.Checksum, doc); {
		case err == nil:
			applied = append(applied, doc)
			written = append(written, prev)

		case errors.Is(err, ErrPreconditionFailed):
			winner, readErr := c.store.GetByKey(ctx, prev.ID)
			if readErr != nil {
				return nil, nil, fmt.Errorf("reading artifact %s after reorder conflict: %w", prev.ID, readErr)
			}
			c.rollbackOrders(ctx, messageID, written)
			c.logger.Debug("reorder lost race to concurrent edit",
				"message_id", messageID, "id", prev.ID)
			return nil, &Conflict{
				ID:               prev.ID,
				ExpectedChecksum: prev.Checksum,
				ActualChecksum:   winner.Checksum,
				AttemptedContent: doc.Content,
				Current:          winner,
			}, nil

		default:
			c.rollbackOrders(ctx, messageID, written)
			return nil, nil, fmt.Errorf("reordering artifact %s: %w", prev.ID, err)
		}
	}

	c.logger.Debug("reordered message artifacts", "message_id", messageID, "count", len(applied))
	return applied, nil, nil
}

// rollbackOrders restores the original order of artifacts whose reorder
// write already landed. Reordering never changes the content checksum, so
// the restore uses the same guard; a restore that itself loses to a content
// edit is logged and skipped, leaving that artifact to the editing writer.
func (c *Coordinator) rollbackOrders(ctx context.Context, messageID uuid.UUID, written []*artifact.Artifact) {
	for i := len(written) - 1; i >= 0; i-- {
		prev := written[i]
		if err := c.store.CompareAndSwap(ctx, prev.ID, prev.Checksum, prev); err != nil {
			c.logger.Warn("could not revert order during reorder rollback",
				"message_id", messageID, "id", prev.ID, "error", err)
		}
	}
}
