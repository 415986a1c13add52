package detect

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/similarity"
)

// Grouping defaults. Configurable, not load-bearing; see config package.
const (
	// DefaultMaxPerMessage caps artifacts created from a single message.
	DefaultMaxPerMessage = 10

	// DefaultSimilarityThreshold marks a same-type pair as duplicates.
	DefaultSimilarityThreshold = 0.95

	// DefaultDuplicateMinLength is the smallest content compared for
	// duplicates. Shorter spans false-positive too easily.
	DefaultDuplicateMinLength = 50
)

// ErrTooManyCandidates is returned when a message yields more candidates
// than the configured maximum. Excess is a validation error, never a silent
// truncation.
var ErrTooManyCandidates = errors.New("too many artifact candidates in message")

// GroupingStrategy names the heuristic that decided which candidates
// constitute distinct artifacts. Recorded per result for auditability.
type GroupingStrategy string

const (
	GroupByExplicitSeparator GroupingStrategy = "explicit-separator"
	GroupByLanguage          GroupingStrategy = "language-based"
	GroupByType              GroupingStrategy = "type-based"
	GroupBySize              GroupingStrategy = "size-based"
	GroupBySequence          GroupingStrategy = "sequence-based"
)

// Draft is a deduplicated candidate ready for the coordinator to commit.
type Draft struct {
	Type     artifact.Type
	Language string
	Title    string
	Content  string
	Order    int
	GroupID  *uuid.UUID
}

// Suppressed records one duplicate suppression for observability.
type Suppressed struct {
	// Index is the candidate marked duplicate.
	Index int

	// DuplicateOfIndex is the earlier candidate it duplicates.
	DuplicateOfIndex int

	// Similarity is the score that crossed the threshold.
	Similarity float64
}

// GroupResult is the outcome of grouping one message's candidates.
type GroupResult struct {
	Drafts               []Draft
	DuplicatesSuppressed []Suppressed
	Strategy             GroupingStrategy
}

// GroupConfig holds grouping tuning. Zero values select defaults.
type GroupConfig struct {
	MaxPerMessage       int
	SimilarityThreshold float64
	DuplicateMinLength  int
}

func (c GroupConfig) withDefaults() GroupConfig {
	if c.MaxPerMessage <= 0 {
		c.MaxPerMessage = DefaultMaxPerMessage
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.DuplicateMinLength <= 0 {
		c.DuplicateMinLength = DefaultDuplicateMinLength
	}
	return c
}

// Grouper decides which candidates are distinct artifacts versus
// near-duplicates of each other.
//
// Grouper is deterministic: the same candidate list always yields the same
// surviving drafts in the same order.
type Grouper struct {
	scorer *similarity.Scorer
	cfg    GroupConfig
	logger *slog.Logger
}

// NewGrouper creates a Grouper. nil scorer selects a default-configured
// scorer; nil logger selects slog.Default().
func NewGrouper(cfg GroupConfig, scorer *similarity.Scorer, logger *slog.Logger) *Grouper {
	if scorer == nil {
		scorer = similarity.New(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Grouper{scorer: scorer, cfg: cfg.withDefaults(), logger: logger}
}

// GroupAndDedupe validates the candidate count, suppresses near-duplicate
// same-type candidates, assigns stable order, disambiguates repeated
// titles, and records the grouping strategy used.
//
// Only candidates of the same type with content at or above the duplicate
// minimum are compared; the later-indexed of a duplicate pair is
// suppressed and recorded.
func (g *Grouper) GroupAndDedupe(detected Result) (*GroupResult, error) {
	candidates := detected.Candidates
	if len(candidates) > g.cfg.MaxPerMessage {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyCandidates, len(candidates), g.cfg.MaxPerMessage)
	}
	if len(candidates) == 0 {
		return &GroupResult{Strategy: GroupBySequence}, nil
	}

	duplicateOf := make([]int, len(candidates))
	for i := range duplicateOf {
		duplicateOf[i] = -1
	}

	var suppressed []Suppressed
	for i := 0; i < len(candidates); i++ {
		if duplicateOf[i] != -1 {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			if duplicateOf[j] != -1 {
				continue
			}
			if candidates[i].Type != candidates[j].Type {
				continue
			}
			if len(candidates[i].Content) < g.cfg.DuplicateMinLength ||
				len(candidates[j].Content) < g.cfg.DuplicateMinLength {
				continue
			}
			score := g.scorer.Score(candidates[i].Content, candidates[j].Content)
			if score >= g.cfg.SimilarityThreshold {
				duplicateOf[j] = i
				suppressed = append(suppressed, Suppressed{
					Index:            j,
					DuplicateOfIndex: i,
					Similarity:       score,
				})
				g.logger.Debug("suppressed duplicate candidate",
					"index", j, "duplicate_of", i, "similarity", score)
			}
		}
	}

	var drafts []Draft
	for i, c := range candidates {
		if duplicateOf[i] != -1 {
			continue
		}
		drafts = append(drafts, Draft{
			Type:     c.Type,
			Language: c.Language,
			Title:    c.Title,
			Content:  c.Content,
			Order:    len(drafts),
		})
	}

	strategy := g.classifyStrategy(detected, drafts)
	if strategy == GroupByExplicitSeparator && len(drafts) > 1 {
		gid := uuid.New()
		for i := range drafts {
			drafts[i].GroupID = &gid
		}
	}

	disambiguateTitles(drafts)

	return &GroupResult{
		Drafts:               drafts,
		DuplicatesSuppressed: suppressed,
		Strategy:             strategy,
	}, nil
}

// classifyStrategy records which heuristic shaped the final grouping.
func (g *Grouper) classifyStrategy(detected Result, drafts []Draft) GroupingStrategy {
	if detected.Strategy == "explicit-separator" {
		return GroupByExplicitSeparator
	}
	if len(drafts) < 2 {
		return GroupBySequence
	}

	types := map[string]bool{}
	langs := map[string]bool{}
	for _, d := range drafts {
		types[string(d.Type)] = true
		if d.Language != "" {
			langs[d.Language] = true
		}
	}
	switch {
	case len(types) > 1:
		return GroupByType
	case len(langs) > 1:
		return GroupByLanguage
	case sizeSpread(drafts) >= 4:
		return GroupBySize
	default:
		return GroupBySequence
	}
}

// sizeSpread returns the ratio between the largest and smallest draft
// content. Homogeneous drafts separated only by bulk are size-grouped.
func sizeSpread(drafts []Draft) int {
	min, max := len(drafts[0].Content), len(drafts[0].Content)
	for _, d := range drafts[1:] {
		if len(d.Content) < min {
			min = len(d.Content)
		}
		if len(d.Content) > max {
			max = len(d.Content)
		}
	}
	if min == 0 {
		return 0
	}
	return max / min
}

// disambiguateTitles rewrites repeated base titles as
// "<Language> <BaseTitle> (i of N)". A unique title is preserved untouched.
func disambiguateTitles(drafts []Draft) {
	byTitle := map[string][]int{}
	for i, d := range drafts {
		byTitle[d.Title] = append(byTitle[d.Title], i)
	}

	titles := make([]string, 0, len(byTitle))
	for t := range byTitle {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	for _, t := range titles {
		idxs := byTitle[t]
		if len(idxs) < 2 {
			continue
		}
		for pos, i := range idxs {
			base := drafts[i].Title
			if lang := drafts[i].Language; lang != "" && !hasPrefixFold(base, lang) {
				base = capitalize(lang) + " " + base
			}
			drafts[i].Title = fmt.Sprintf("%s (%d of %d)", base, pos+1, len(idxs))
		}
	}
}

// hasPrefixFold reports whether s begins with prefix, case-insensitively.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
