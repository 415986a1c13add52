package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/fingerprint"
)

// ResolutionStrategy selects how a conflicted artifact is resolved. The
// coordinator is strategy-agnostic: the caller (a human, or an automated
// merge policy) supplies the decision.
type ResolutionStrategy string

const (
	// ResolutionServerWins keeps the stored content and clears the
	// conflict status.
	ResolutionServerWins ResolutionStrategy = "server-wins"

	// ResolutionClientWins replaces the stored content with the caller's
	// content.
	ResolutionClientWins ResolutionStrategy = "client-wins"

	// ResolutionMerged replaces the stored content with fully-specified
	// merged content.
	ResolutionMerged ResolutionStrategy = "merged"
)

// ErrInvalidResolution is returned when a resolution is malformed: unknown
// strategy, or client-wins/merged without content.
var ErrInvalidResolution = errors.New("invalid conflict resolution")

// Resolution is a caller-supplied conflict decision.
type Resolution struct {
	Strategy ResolutionStrategy

	// Content is required for ResolutionClientWins and ResolutionMerged,
	// ignored for ResolutionServerWins.
	Content string
}

func (r Resolution) validate() error {
	switch r.Strategy {
	case ResolutionServerWins:
		return nil
	case ResolutionClientWins, ResolutionMerged:
		if r.Content == "" {
			return fmt.Errorf("%w: %s requires content", ErrInvalidResolution, r.Strategy)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidResolution, r.Strategy)
	}
}

// Reconcile resolves a conflicted artifact with the supplied resolution.
// The write is guarded by the current stored checksum, so resolution itself
// is race-safe: if yet another writer intervenes, the result re-enters
// conflict instead of clobbering the newest content.
func (c *Coordinator) Reconcile(ctx context.Context, id uuid.UUID, res Resolution) (*UpdateResult, error) {
	if err := res.validate(); err != nil {
		return nil, err
	}

	current, err := c.store.GetByKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s for reconcile: %w", id, err)
	}

	doc := current.Clone()
	switch res.Strategy {
	case ResolutionServerWins:
		// Content stays. The checksum is recomputed from it: a no-op on
		// a consistent document, and the explicit repair path for a
		// stored checksum that no longer matches the stored content.
		doc.Checksum = fingerprint.Checksum(doc.Content)
	case ResolutionClientWins, ResolutionMerged:
		doc.Content = res.Content
		doc.Checksum = fingerprint.Checksum(res.Content)
	}
	doc.SyncStatus = artifact.StatusSynced
	doc.UpdatedAt = c.now().UTC()

	switch err := c.store.CompareAndSwap(ctx, id, current.Checksum, doc); {
	case err == nil:
		c.logger.Debug("reconciled artifact", "id", id, "strategy", res.Strategy)
		return &UpdateResult{Status: artifact.StatusSynced, Artifact: doc}, nil

	case errors.Is(err, ErrPreconditionFailed):
		winner, readErr := c.store.GetByKey(ctx, id)
		if readErr != nil {
			return nil, fmt.Errorf("reading artifact %s after reconcile conflict: %w", id, readErr)
		}
		return conflictResult(id, current.Checksum, doc.Content, winner), nil

	default:
		return nil, fmt.Errorf("reconciling artifact %s: %w", id, err)
	}
}
