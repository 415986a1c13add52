package detect

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/log"
	"github.com/koopa0/canvas/internal/similarity"
)

func newTestGrouper(cfg GroupConfig) *Grouper {
	return NewGrouper(cfg, similarity.New(0), log.NewNop())
}

func codeCandidate(lang, content string) Candidate {
	return Candidate{
		Type:       artifact.TypeCode,
		Language:   lang,
		Title:      capitalize(lang) + " Code",
		Content:    content,
		Confidence: 0.8,
	}
}

func TestGroupIdenticalFences(t *testing.T) {
	// Two identical fenced blocks in one message collapse to one artifact
	// with one suppression record at similarity 1.0.
	d := New(Config{MinContentSize: 5}, nil, log.NewNop())
	res := d.Detect("```python\nprint(1)\n```\n\n```python\nprint(1)\n```\n")
	if len(res.Candidates) != 2 {
		t.Fatalf("detector found %d candidates, want 2", len(res.Candidates))
	}

	g := newTestGrouper(GroupConfig{DuplicateMinLength: 1})
	group, err := g.GroupAndDedupe(res)
	if err != nil {
		t.Fatalf("GroupAndDedupe() error = %v", err)
	}

	if len(group.Drafts) != 1 {
		t.Fatalf("got %d drafts, want 1", len(group.Drafts))
	}
	want := []Suppressed{{Index: 1, DuplicateOfIndex: 0, Similarity: 1.0}}
	if !reflect.DeepEqual(group.DuplicatesSuppressed, want) {
		t.Errorf("DuplicatesSuppressed = %+v, want %+v", group.DuplicatesSuppressed, want)
	}
}

func TestGroupTooManyCandidates(t *testing.T) {
	g := newTestGrouper(GroupConfig{MaxPerMessage: 2})

	res := Result{Candidates: []Candidate{
		codeCandidate("go", "package a"),
		codeCandidate("go", "package b"),
		codeCandidate("go", "package c"),
	}}
	_, err := g.GroupAndDedupe(res)
	if !errors.Is(err, ErrTooManyCandidates) {
		t.Fatalf("GroupAndDedupe() error = %v, want ErrTooManyCandidates", err)
	}
}

func TestGroupDedupIdempotent(t *testing.T) {
	g := newTestGrouper(GroupConfig{DuplicateMinLength: 10})

	long := strings.Repeat("func handler() { return }\n", 5)
	near := strings.Replace(long, "return }", "return  }", 1)
	res := Result{Candidates: []Candidate{
		codeCandidate("go", long),
		codeCandidate("go", near),
		codeCandidate("go", "completely different content that shares nothing"),
	}}

	first, err := g.GroupAndDedupe(res)
	if err != nil {
		t.Fatalf("GroupAndDedupe() error = %v", err)
	}
	second, err := g.GroupAndDedupe(res)
	if err != nil {
		t.Fatalf("GroupAndDedupe() second run error = %v", err)
	}

	if !reflect.DeepEqual(first.Drafts, second.Drafts) {
		t.Errorf("drafts differ across runs:\n%+v\n%+v", first.Drafts, second.Drafts)
	}
	if !reflect.DeepEqual(first.DuplicatesSuppressed, second.DuplicatesSuppressed) {
		t.Errorf("suppressions differ across runs")
	}
	if len(first.Drafts) != 2 {
		t.Errorf("got %d drafts, want 2 (near-duplicate suppressed)", len(first.Drafts))
	}
}

func TestGroupDifferentTypesNotDeduped(t *testing.T) {
	g := newTestGrouper(GroupConfig{DuplicateMinLength: 1})

	content := strings.Repeat("shared content line\n", 5)
	res := Result{Candidates: []Candidate{
		{Type: artifact.TypeCode, Title: "Code", Content: content},
		{Type: artifact.TypeMarkdown, Title: "Doc", Content: content},
	}}

	group, err := g.GroupAndDedupe(res)
	if err != nil {
		t.Fatalf("GroupAndDedupe() error = %v", err)
	}
	if len(group.Drafts) != 2 {
		t.Errorf("got %d drafts, want 2: identical content across types is not a duplicate", len(group.Drafts))
	}
}

func TestGroupShortContentNotDeduped(t *testing.T) {
	// Below the duplicate minimum even identical spans both survive.
	g := newTestGrouper(GroupConfig{DuplicateMinLength: 50})

	res := Result{Candidates: []Candidate{
		codeCandidate("python", "print(1)"),
		codeCandidate("python", "print(1)"),
	}}
	group, err := g.GroupAndDedupe(res)
	if err != nil {
		t.Fatalf("GroupAndDedupe() error = %v", err)
	}
	if len(group.Drafts) != 2 {
		t.Errorf("got %d drafts, want 2 (below duplicate minimum)", len(group.Drafts))
	}
}

func TestGroupOrderAssignment(t *testing.T) {
	g := newTestGrouper(GroupConfig{DuplicateMinLength: 1})

	long := strings.Repeat("shared line of content\n", 5)
	res := Result{Candidates: []Candidate{
		codeCandidate("go", long+"first"),
		codeCandidate("go", long+"first "), // near-duplicate of 0
		codeCandidate("rust", "a totally different implementation here"),
	}}
	group, err := g.GroupAndDedupe(res)
	if err != nil {
		t.Fatalf("GroupAndDedupe() error = %v", err)
	}
	if len(group.Drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(group.Drafts))
	}
	// Orders are dense over survivors, not over raw candidate indexes.
	for i, d := range group.Drafts {
		if d.Order != i {
			t.Errorf("draft %d has Order %d, want %d", i, d.Order, i)
		}
	}
}

func TestGroupExplicitSeparatorAssignsGroupID(t *testing.T) {
	g := newTestGrouper(GroupConfig{})

	res := Result{
		Strategy: "explicit-separator",
		Candidates: []Candidate{
			{Type: artifact.TypeCode, Language: "go", Title: "main.go", Content: "package main\nfunc main() {}"},
			{Type: artifact.TypeCode, Language: "go", Title: "helper.go", Content: "package main\nfunc helper() {}"},
		},
	}
	group, err := g.GroupAndDedupe(res)
	if err != nil {
		t.Fatalf("GroupAndDedupe() error = %v", err)
	}
	if group.Strategy != GroupByExplicitSeparator {
		t.Errorf("Strategy = %q, want explicit-separator", group.Strategy)
	}
	if group.Drafts[0].GroupID == nil || group.Drafts[1].GroupID == nil {
		t.Fatal("explicit-separator drafts missing GroupID")
	}
	if *group.Drafts[0].GroupID != *group.Drafts[1].GroupID {
		t.Error("drafts of one layout carry different GroupIDs")
	}
}

func TestGroupStrategyClassification(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		want       GroupingStrategy
	}{
		{
			name: "single draft",
			candidates: []Candidate{
				codeCandidate("go", "package main with enough content"),
			},
			want: GroupBySequence,
		},
		{
			name: "mixed types",
			candidates: []Candidate{
				{Type: artifact.TypeCode, Language: "go", Title: "Code", Content: "package main content"},
				{Type: artifact.TypeHTML, Title: "Page", Content: "<html><body>page</body></html>"},
			},
			want: GroupByType,
		},
		{
			name: "mixed languages",
			candidates: []Candidate{
				codeCandidate("go", "package main some content"),
				codeCandidate("python", "import os and some content"),
			},
			want: GroupByLanguage,
		},
		{
			name: "size spread",
			candidates: []Candidate{
				codeCandidate("go", "tiny bit"),
				codeCandidate("go", strings.Repeat("a much longer block of code\n", 10)),
			},
			want: GroupBySize,
		},
		{
			name: "homogeneous",
			candidates: []Candidate{
				codeCandidate("go", "package one with some lines"),
				codeCandidate("go", "package two with more lines"),
			},
			want: GroupBySequence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGrouper(GroupConfig{DuplicateMinLength: 1000}) // no dedup noise
			group, err := g.GroupAndDedupe(Result{Candidates: tt.candidates})
			if err != nil {
				t.Fatalf("GroupAndDedupe() error = %v", err)
			}
			if group.Strategy != tt.want {
				t.Errorf("Strategy = %q, want %q", group.Strategy, tt.want)
			}
		})
	}
}

func TestGroupTitleDisambiguation(t *testing.T) {
	g := newTestGrouper(GroupConfig{DuplicateMinLength: 1000})

	res := Result{Candidates: []Candidate{
		{Type: artifact.TypeCode, Language: "go", Title: "Code Block", Content: "package one content"},
		{Type: artifact.TypeCode, Language: "go", Title: "Code Block", Content: "package two content"},
		{Type: artifact.TypeCode, Language: "go", Title: "Unique", Content: "package три content"},
	}}
	group, err := g.GroupAndDedupe(res)
	if err != nil {
		t.Fatalf("GroupAndDedupe() error = %v", err)
	}

	if got := group.Drafts[0].Title; got != "Go Code Block (1 of 2)" {
		t.Errorf("first title = %q, want %q", got, "Go Code Block (1 of 2)")
	}
	if got := group.Drafts[1].Title; got != "Go Code Block (2 of 2)" {
		t.Errorf("second title = %q, want %q", got, "Go Code Block (2 of 2)")
	}
	if got := group.Drafts[2].Title; got != "Unique" {
		t.Errorf("unique title = %q, want untouched", got)
	}
}

func TestGroupEmptyResult(t *testing.T) {
	g := newTestGrouper(GroupConfig{})
	group, err := g.GroupAndDedupe(Result{})
	if err != nil {
		t.Fatalf("GroupAndDedupe(empty) error = %v", err)
	}
	if len(group.Drafts) != 0 || len(group.DuplicatesSuppressed) != 0 {
		t.Errorf("empty input produced drafts or suppressions")
	}
}
