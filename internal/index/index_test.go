package index_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/index"
	"github.com/koopa0/canvas/internal/log"
)

func indexedArtifact(messageID uuid.UUID, order int, createdAt time.Time) *artifact.Artifact {
	return &artifact.Artifact{
		ID:        uuid.New(),
		MessageID: &messageID,
		Title:     "Artifact",
		Type:      artifact.TypeCode,
		Content:   "content body long enough",
		Order:     order,
		CreatedAt: createdAt,
	}
}

func TestNewListOrdering(t *testing.T) {
	t.Parallel()

	messageID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := indexedArtifact(messageID, 2, base)
	b := indexedArtifact(messageID, 0, base.Add(time.Minute))
	c := indexedArtifact(messageID, 1, base.Add(2*time.Minute))

	otherMessage := uuid.New()
	stranger := indexedArtifact(otherMessage, 0, base)

	l := index.NewList(messageID, []*artifact.Artifact{a, b, c, stranger})
	require.Equal(t, 3, l.Len(), "artifacts of other messages must be excluded")
	assert.Equal(t, b.ID, l.At(0).ID)
	assert.Equal(t, c.ID, l.At(1).ID)
	assert.Equal(t, a.ID, l.At(2).ID)
	assert.Nil(t, l.At(3))
	assert.Nil(t, l.At(-1))
}

func TestListCyclicNavigation(t *testing.T) {
	t.Parallel()

	messageID := uuid.New()
	base := time.Now().UTC()
	l := index.NewList(messageID, []*artifact.Artifact{
		indexedArtifact(messageID, 0, base),
		indexedArtifact(messageID, 1, base),
		indexedArtifact(messageID, 2, base),
	})

	// Next wraps past the end rather than clamping.
	assert.Equal(t, 1, l.Next(0))
	assert.Equal(t, 2, l.Next(1))
	assert.Equal(t, 0, l.Next(2))

	// Previous wraps before the start.
	assert.Equal(t, 2, l.Previous(0))
	assert.Equal(t, 0, l.Previous(1))
}

func TestListNavigationEmpty(t *testing.T) {
	t.Parallel()

	l := index.NewList(uuid.New(), nil)
	assert.Equal(t, 0, l.Next(0))
	assert.Equal(t, 0, l.Previous(0))
}

func TestValidateReorder(t *testing.T) {
	t.Parallel()

	messageID := uuid.New()
	base := time.Now().UTC()
	a := indexedArtifact(messageID, 0, base)
	b := indexedArtifact(messageID, 1, base)
	c := indexedArtifact(messageID, 2, base)
	l := index.NewList(messageID, []*artifact.Artifact{a, b, c})

	tests := []struct {
		name    string
		mapping map[uuid.UUID]int
		wantErr bool
	}{
		{
			name:    "full permutation",
			mapping: map[uuid.UUID]int{a.ID: 2, b.ID: 0, c.ID: 1},
		},
		{
			name:    "identity",
			mapping: map[uuid.UUID]int{a.ID: 0, b.ID: 1, c.ID: 2},
		},
		{
			name:    "missing one artifact",
			mapping: map[uuid.UUID]int{a.ID: 1, b.ID: 0},
			wantErr: true,
		},
		{
			name:    "unknown artifact",
			mapping: map[uuid.UUID]int{a.ID: 2, b.ID: 0, uuid.New(): 1},
			wantErr: true,
		},
		{
			name:    "order not in existing set",
			mapping: map[uuid.UUID]int{a.ID: 0, b.ID: 1, c.ID: 7},
			wantErr: true,
		},
		{
			name:    "duplicated order",
			mapping: map[uuid.UUID]int{a.ID: 0, b.ID: 0, c.ID: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.ValidateReorder(tt.mapping)
			if tt.wantErr {
				require.ErrorIs(t, err, index.ErrInvalidReorder)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestReorder(t *testing.T) {
	t.Parallel()

	messageID := uuid.New()
	base := time.Now().UTC()
	a := indexedArtifact(messageID, 0, base)
	b := indexedArtifact(messageID, 1, base)
	l := index.NewList(messageID, []*artifact.Artifact{a, b})

	swapped, err := l.Reorder(map[uuid.UUID]int{a.ID: 1, b.ID: 0})
	require.NoError(t, err)
	assert.Equal(t, b.ID, swapped.At(0).ID)
	assert.Equal(t, a.ID, swapped.At(1).ID)

	// The source list and its artifacts are untouched.
	assert.Equal(t, a.ID, l.At(0).ID)
	assert.Equal(t, 0, a.Order)

	// An invalid mapping changes nothing and returns no list.
	bad, err := l.Reorder(map[uuid.UUID]int{a.ID: 1})
	require.ErrorIs(t, err, index.ErrInvalidReorder)
	assert.Nil(t, bad)
	assert.Equal(t, a.ID, l.At(0).ID)
}

func TestIndexCache(t *testing.T) {
	t.Parallel()

	ix, err := index.New(8, log.NewNop())
	require.NoError(t, err)

	messageID := uuid.New()
	base := time.Now().UTC()
	artifacts := []*artifact.Artifact{
		indexedArtifact(messageID, 0, base),
		indexedArtifact(messageID, 1, base),
	}

	_, ok := ix.Get(messageID)
	assert.False(t, ok, "cache must start cold")

	built := ix.Build(messageID, artifacts)
	cached, ok := ix.Get(messageID)
	require.True(t, ok)
	assert.Equal(t, built, cached)

	ix.Invalidate(messageID)
	_, ok = ix.Get(messageID)
	assert.False(t, ok, "invalidated entry must be gone")
}
