// Package detect scans raw assistant messages for artifact-worthy spans.
//
// Detection strategies run in priority order (explicit separators, fenced
// code blocks, full-document heuristics). The first strategy yielding at
// least one candidate above the confidence threshold wins; lower-priority
// strategies only run as fallback when the primary yields zero candidates.
//
// The detector never fails on malformed input. Worst case it returns zero
// candidates and the caller treats the whole message as prose.
package detect

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/koopa0/canvas/internal/artifact"
)

// DefaultConfidenceThreshold is the minimum confidence a candidate needs to
// count toward a strategy's result.
const DefaultConfidenceThreshold = 0.5

// DefaultMinContentSize rejects trivially small spans outright. Below this
// the span is not artifact-worthy; it is dropped, not created with a warning.
const DefaultMinContentSize = 20

// Candidate is a detected-but-not-yet-committed artifact span.
type Candidate struct {
	Type       artifact.Type
	Language   string
	Title      string
	Content    string
	Start      int // byte offset of the span in the raw text, inclusive
	End        int // byte offset of the span in the raw text, exclusive
	Confidence float64
}

// Result is the outcome of scanning one message.
type Result struct {
	// Candidates are ordered by appearance in the raw text.
	Candidates []Candidate

	// Strategy names the winning detection strategy, "" when no candidates.
	Strategy string

	// ProcessedText is the raw text with detected spans elided, for
	// prose-only display. Derived and lossy, never authoritative.
	ProcessedText string
}

// Strategy detects candidates using one heuristic. Implementations must be
// pure: no I/O, no retained state between calls.
type Strategy interface {
	// Name identifies the strategy in results and logs.
	Name() string

	// Priority orders strategies; lower runs first.
	Priority() int

	// Detect returns candidates found in text, ordered by offset.
	Detect(text string) []Candidate
}

// Classification is a best-guess type assignment for a text span.
type Classification struct {
	Type       artifact.Type
	Language   string
	Confidence float64
}

// Classifier assigns a type and language to an ambiguous span. Classifier
// failures degrade to low-confidence text, never to a detection failure.
type Classifier interface {
	Classify(span string) Classification
}

// Config holds detection tuning. Zero values select defaults.
type Config struct {
	// MinContentSize rejects candidates with smaller content.
	MinContentSize int

	// ConfidenceThreshold is the minimum candidate confidence.
	ConfidenceThreshold float64
}

func (c Config) withDefaults() Config {
	if c.MinContentSize <= 0 {
		c.MinContentSize = DefaultMinContentSize
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	return c
}

// Detector runs registered strategies over raw messages.
//
// Detector is safe for concurrent use: it holds no mutable state after
// construction.
type Detector struct {
	strategies []Strategy
	cfg        Config
	logger     *slog.Logger
}

// New creates a Detector with the default strategy set: explicit separators,
// fenced code blocks, then full-document heuristics. classifier resolves
// ambiguous spans; nil selects the built-in heuristic classifier. nil logger
// selects slog.Default().
func New(cfg Config, classifier Classifier, logger *slog.Logger) *Detector {
	if classifier == nil {
		classifier = HeuristicClassifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return NewWithStrategies(cfg, logger,
		&separatorStrategy{classifier: classifier},
		&fenceStrategy{},
		&documentStrategy{classifier: classifier},
	)
}

// NewWithStrategies creates a Detector with an explicit strategy set. New
// artifact kinds are added by registering a strategy, not by editing the
// detector.
func NewWithStrategies(cfg Config, logger *slog.Logger, strategies ...Strategy) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	sorted := make([]Strategy, len(strategies))
	copy(sorted, strategies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Detector{strategies: sorted, cfg: cfg.withDefaults(), logger: logger}
}

// Detect scans rawText and returns detection candidates plus the prose-only
// rendering of the message. Never fails: malformed input yields zero
// candidates.
func (d *Detector) Detect(rawText string) Result {
	if strings.TrimSpace(rawText) == "" {
		return Result{ProcessedText: rawText}
	}

	for _, s := range d.strategies {
		candidates := d.filter(s.Detect(rawText))
		if len(candidates) == 0 {
			continue
		}
		d.logger.Debug("detection strategy matched",
			"strategy", s.Name(), "candidates", len(candidates))
		return Result{
			Candidates:    candidates,
			Strategy:      s.Name(),
			ProcessedText: elideSpans(rawText, candidates),
		}
	}

	return Result{ProcessedText: rawText}
}

// filter drops candidates below the size minimum or confidence threshold
// and orders survivors by offset.
func (d *Detector) filter(candidates []Candidate) []Candidate {
	kept := candidates[:0:0]
	for _, c := range candidates {
		if len(c.Content) < d.cfg.MinContentSize {
			continue
		}
		if c.Confidence < d.cfg.ConfidenceThreshold {
			continue
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// elideSpans removes candidate spans from text and collapses the leftover
// blank runs, producing the prose-only view.
func elideSpans(text string, candidates []Candidate) string {
	var b strings.Builder
	last := 0
	for _, c := range candidates {
		if c.Start < last || c.End > len(text) {
			// Overlapping or out-of-range span; skip rather than corrupt.
			continue
		}
		b.WriteString(text[last:c.Start])
		last = c.End
	}
	b.WriteString(text[last:])

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
