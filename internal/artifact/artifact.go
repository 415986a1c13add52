package artifact

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type represents the artifact content type.
type Type string

const (
	TypeText     Type = "text"
	TypeCode     Type = "code"
	TypeHTML     Type = "html"
	TypeReact    Type = "react"
	TypeSVG      Type = "svg"
	TypeMermaid  Type = "mermaid"
	TypeJSON     Type = "json"
	TypeCSV      Type = "csv"
	TypeMarkdown Type = "markdown"
)

// Valid reports whether t is one of the known artifact types.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeCode, TypeHTML, TypeReact, TypeSVG, TypeMermaid, TypeJSON, TypeCSV, TypeMarkdown:
		return true
	default:
		return false
	}
}

// SyncStatus is the lifecycle state of an artifact with respect to the
// shared durable store.
type SyncStatus string

const (
	// StatusPending marks an artifact created or updated locally but not
	// yet confirmed durable.
	StatusPending SyncStatus = "pending"

	// StatusSynced marks an artifact durably stored with a verified checksum.
	StatusSynced SyncStatus = "synced"

	// StatusConflict marks an artifact whose last write lost a race against
	// another instance. Terminal until an explicit reconcile.
	StatusConflict SyncStatus = "conflict"

	// StatusError marks an artifact whose last store operation failed.
	// Distinct from conflict; the operation is retryable.
	StatusError SyncStatus = "error"
)

// Artifact is a structured, independently versioned unit of content
// extracted from chat output.
//
// Identity: ID is assigned at creation, globally unique, and never reused.
// Title (normalized) is the dedup/version grouping key within a
// conversation. Checksum always equals the content fingerprint; any content
// mutation recomputes it atomically with the mutation.
//
// Zero values:
//   - ID: uuid.Nil (invalid, assigned by the coordinator)
//   - MessageID: nil (legacy or manually created artifact)
//   - Language: "" (only set for TypeCode)
//   - GroupID: nil (not part of an explicit detector group)
//   - Version: 0 (invalid, resolved to >= 1 on create)
type Artifact struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	MessageID      *uuid.UUID
	Title          string
	Type           Type
	Language       string
	Content        string
	Version        int
	Order          int
	GroupID        *uuid.UUID
	Checksum       string
	SyncStatus     SyncStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the artifact. Pointer fields are copied so
// the clone shares no mutable state with the original.
func (a *Artifact) Clone() *Artifact {
	c := *a
	if a.MessageID != nil {
		id := *a.MessageID
		c.MessageID = &id
	}
	if a.GroupID != nil {
		id := *a.GroupID
		c.GroupID = &id
	}
	return &c
}

// NormalizeTitle lowercases, trims, and collapses inner whitespace so that
// "My Script", " my  script " and "MY SCRIPT" resolve to one version group.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
