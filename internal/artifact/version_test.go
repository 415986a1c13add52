package artifact

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func mkArtifact(title string, createdAt time.Time) *Artifact {
	return &Artifact{
		ID:             uuid.New(),
		ConversationID: uuid.Nil,
		Title:          title,
		Type:           TypeCode,
		Content:        "content",
		CreatedAt:      createdAt,
	}
}

func TestResolveVersionMonotonic(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := mkArtifact("Script", base)
	b := mkArtifact("Script", base.Add(time.Minute))
	c := mkArtifact("Script", base.Add(2*time.Minute))
	population := []*Artifact{c, a, b} // deliberately unsorted

	for i, art := range []*Artifact{a, b, c} {
		want := i + 1
		if got := ResolveVersion(art, population); got != want {
			t.Errorf("ResolveVersion(%q created %s) = %d, want %d",
				art.Title, art.CreatedAt, got, want)
		}
	}
}

func TestResolveVersionOlderSiblingInsertion(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := mkArtifact("Script", base)
	b := mkArtifact("Script", base.Add(time.Minute))
	c := mkArtifact("Script", base.Add(2*time.Minute))

	// A fourth same-title artifact created before A shifts everyone up.
	older := mkArtifact("Script", base.Add(-time.Hour))
	population := []*Artifact{a, b, c, older}

	wants := map[*Artifact]int{older: 1, a: 2, b: 3, c: 4}
	for art, want := range wants {
		if got := ResolveVersion(art, population); got != want {
			t.Errorf("ResolveVersion(created %s) = %d, want %d", art.CreatedAt, got, want)
		}
	}
}

func TestResolveVersionTitleGroups(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	script1 := mkArtifact("My Script", base)
	script2 := mkArtifact("my  script", base.Add(time.Minute)) // same group after normalization
	other := mkArtifact("Other Doc", base.Add(2*time.Minute))
	population := []*Artifact{script1, script2, other}

	if got := ResolveVersion(script2, population); got != 2 {
		t.Errorf("ResolveVersion(normalized sibling) = %d, want 2", got)
	}
	if got := ResolveVersion(other, population); got != 1 {
		t.Errorf("ResolveVersion(distinct title) = %d, want 1", got)
	}
}

func TestResolveVersionCreatedAtTie(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := mkArtifact("Script", base)
	b := mkArtifact("Script", base) // identical CreatedAt
	population := []*Artifact{a, b}

	va := ResolveVersion(a, population)
	vb := ResolveVersion(b, population)
	if va == vb {
		t.Fatalf("tied artifacts share version %d; ID tie-break must make ranks distinct", va)
	}
	// The ID tie-break is lexicographic, so the ordering is stable across
	// recomputations.
	if a.ID.String() < b.ID.String() && va != 1 {
		t.Errorf("ResolveVersion(lower ID) = %d, want 1", va)
	}
}

func TestResolveVersionAbsentTarget(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := mkArtifact("Script", base)
	stranger := mkArtifact("Script", base.Add(time.Minute))

	if got := ResolveVersion(stranger, []*Artifact{a}); got != 0 {
		t.Errorf("ResolveVersion(target not in population) = %d, want 0", got)
	}
}

func TestResolveVersions(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := mkArtifact("Script", base)
	b := mkArtifact("Script", base.Add(time.Minute))
	doc := mkArtifact("Doc", base.Add(30*time.Second))

	ResolveVersions([]*Artifact{b, doc, a})
	if a.Version != 1 || b.Version != 2 {
		t.Errorf("ResolveVersions: script versions = %d,%d, want 1,2", a.Version, b.Version)
	}
	if doc.Version != 1 {
		t.Errorf("ResolveVersions: doc version = %d, want 1", doc.Version)
	}
}
