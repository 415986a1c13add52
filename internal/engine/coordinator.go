// Package engine owns the artifact lifecycle against the shared durable
// store: create, update, delete, conflict detection and resolution, and the
// per-conversation health view.
//
// The engine is stateless. Any number of instances may run the same
// operations concurrently against one store; correctness derives entirely
// from the store's per-key compare-and-swap. A conflicting write is never
// silently dropped: the loser receives both its attempted content and the
// now-current document and decides via Reconcile.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/detect"
	"github.com/koopa0/canvas/internal/fingerprint"
)

// Conflict carries everything the losing writer needs to resolve a race:
// its own attempted content and the document that won.
type Conflict struct {
	ID               uuid.UUID
	ExpectedChecksum string
	ActualChecksum   string
	AttemptedContent string

	// Current is the stored document at the time the conflict was
	// detected. The store still holds this version.
	Current *artifact.Artifact
}

// UpdateResult is the outcome of Update or Reconcile. Conflicts are a
// first-class result, not an error: Err is reserved for store I/O failure.
type UpdateResult struct {
	// Status is synced on success, conflict when the write lost a race.
	Status artifact.SyncStatus

	// Artifact is the document now held by the store.
	Artifact *artifact.Artifact

	// Conflict is non-nil iff Status is conflict.
	Conflict *Conflict
}

// Config holds coordinator tuning. Zero values select defaults.
type Config struct {
	// MinContentSize rejects drafts with smaller content before any store
	// mutation.
	MinContentSize int
}

func (c Config) withDefaults() Config {
	if c.MinContentSize <= 0 {
		c.MinContentSize = detect.DefaultMinContentSize
	}
	return c
}

// Coordinator drives artifact state transitions:
//
//	pending -> synced    (write confirmed durable)
//	pending -> error     (store failure, retryable)
//	synced  -> conflict  (concurrent write detected)
//	conflict -> synced   (explicit reconcile)
//
// Coordinator performs no automatic retries; store failures surface
// verbatim so the caller decides retry, resolution, or abandonment.
type Coordinator struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Coordinator. nil logger selects slog.Default().
func New(store Store, cfg Config, logger *slog.Logger) (*Coordinator, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, cfg: cfg.withDefaults(), logger: logger, now: time.Now}, nil
}

// Create commits one draft as a new artifact: assigns identity, checksum,
// and the version derived from its conversation title group, then writes
// with create-if-absent semantics. The stored version is a snapshot of the
// rank at creation time; Get and List recompute it from the live
// population.
//
// The returned artifact is StatusSynced on success. On store failure the
// artifact (StatusError) is returned alongside the error so the caller can
// retry with the same identity.
func (c *Coordinator) Create(ctx context.Context, conversationID uuid.UUID, messageID *uuid.UUID, draft detect.Draft) (*artifact.Artifact, error) {
	now := c.now().UTC()
	a := &artifact.Artifact{
		ID:             uuid.New(),
		ConversationID: conversationID,
		MessageID:      messageID,
		Title:          draft.Title,
		Type:           draft.Type,
		Language:       draft.Language,
		Content:        draft.Content,
		Order:          draft.Order,
		GroupID:        draft.GroupID,
		Checksum:       fingerprint.Checksum(draft.Content),
		SyncStatus:     artifact.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.Validate(c.cfg.MinContentSize); err != nil {
		return nil, err
	}

	population, err := c.store.QueryByConversation(ctx, conversationID)
	if err != nil {
		a.SyncStatus = artifact.StatusError
		return a, fmt.Errorf("querying conversation %s for versioning: %w", conversationID, err)
	}
	a.Version = artifact.ResolveVersion(a, append(population, a))

	a.SyncStatus = artifact.StatusSynced
	if err := c.store.CreateIfAbsent(ctx, a); err != nil {
		a.SyncStatus = artifact.StatusError
		return a, fmt.Errorf("creating artifact %s: %w", a.ID, err)
	}

	c.logger.Debug("created artifact",
		"id", a.ID, "conversation_id", conversationID,
		"title", a.Title, "version", a.Version)
	return a, nil
}

// CreateFromMessage commits every draft of a grouped message in detection
// order. Drafts are validated as a batch before the first write; a store
// failure mid-batch returns the artifacts committed so far with the error.
func (c *Coordinator) CreateFromMessage(ctx context.Context, conversationID, messageID uuid.UUID, group *detect.GroupResult) ([]*artifact.Artifact, error) {
	for _, d := range group.Drafts {
		probe := &artifact.Artifact{Title: d.Title, Type: d.Type, Content: d.Content}
		if err := probe.Validate(c.cfg.MinContentSize); err != nil {
			return nil, fmt.Errorf("draft %q: %w", d.Title, err)
		}
	}

	created := make([]*artifact.Artifact, 0, len(group.Drafts))
	for _, d := range group.Drafts {
		a, err := c.Create(ctx, conversationID, &messageID, d)
		if err != nil {
			return created, err
		}
		created = append(created, a)
	}
	return created, nil
}

// Update edits an artifact's content under optimistic concurrency.
// expectedChecksum is the checksum the caller last observed.
//
// If the stored checksum already differs at read time, Update reports a
// conflict immediately without attempting the write. Otherwise it performs
// a single compare-and-swap; a guard rejection means another instance won
// the race and the result carries both the attempted content and the
// now-current document. The stored content is never overwritten on
// conflict.
func (c *Coordinator) Update(ctx context.Context, id uuid.UUID, newContent, expectedChecksum string) (*UpdateResult, error) {
	current, err := c.store.GetByKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s for update: %w", id, err)
	}

	if current.Checksum != expectedChecksum {
		c.logger.Debug("update rejected at read time",
			"id", id, "expected", expectedChecksum, "actual", current.Checksum)
		return conflictResult(id, expectedChecksum, newContent, current), nil
	}

	doc := current.Clone()
	doc.Content = newContent
	doc.Checksum = fingerprint.Checksum(newContent)
	doc.SyncStatus = artifact.StatusSynced
	doc.UpdatedAt = c.now().UTC()

	switch err := c.store.CompareAndSwap(ctx, id, expectedChecksum, doc); {
	case err == nil:
		c.logger.Debug("updated artifact", "id", id, "checksum", doc.Checksum)
		return &UpdateResult{Status: artifact.StatusSynced, Artifact: doc}, nil

	case errors.Is(err, ErrPreconditionFailed):
		// Another instance won between our read and the swap. Re-read so
		// the caller sees what actually won.
		winner, readErr := c.store.GetByKey(ctx, id)
		if readErr != nil {
			return nil, fmt.Errorf("reading artifact %s after conflict: %w", id, readErr)
		}
		return conflictResult(id, expectedChecksum, newContent, winner), nil

	default:
		return nil, fmt.Errorf("updating artifact %s (expected checksum %s): %w", id, expectedChecksum, err)
	}
}

// Get returns the stored artifact under id. Version is recomputed from
// the conversation's live title group, not read from the stored stamp:
// a delete or insert of an older same-title sibling shifts the versions
// of artifacts created later, and Get reflects that immediately.
func (c *Coordinator) Get(ctx context.Context, id uuid.UUID) (*artifact.Artifact, error) {
	a, err := c.store.GetByKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", id, err)
	}
	population, err := c.store.QueryByConversation(ctx, a.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("querying conversation %s for versioning: %w", a.ConversationID, err)
	}
	a.Version = artifact.ResolveVersion(a, population)
	return a, nil
}

// List returns all artifacts of a conversation, in no guaranteed order.
// Versions are recomputed over the returned population.
func (c *Coordinator) List(ctx context.Context, conversationID uuid.UUID) ([]*artifact.Artifact, error) {
	artifacts, err := c.store.QueryByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying conversation %s: %w", conversationID, err)
	}
	artifact.ResolveVersions(artifacts)
	return artifacts, nil
}

// Delete hard-deletes an artifact. Deleting an absent artifact is not an
// error; deletion is idempotent and safe to retry after a timeout.
func (c *Coordinator) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("deleting artifact %s: %w", id, err)
	}
	c.logger.Debug("deleted artifact", "id", id)
	return nil
}

// conflictResult builds the UpdateResult for a detected conflict. The
// attempted view mirrors the caller's content with StatusConflict so a
// renderer can present both sides.
func conflictResult(id uuid.UUID, expected, attempted string, current *artifact.Artifact) *UpdateResult {
	return &UpdateResult{
		Status:   artifact.StatusConflict,
		Artifact: current,
		Conflict: &Conflict{
			ID:               id,
			ExpectedChecksum: expected,
			ActualChecksum:   current.Checksum,
			AttemptedContent: attempted,
			Current:          current,
		},
	}
}
