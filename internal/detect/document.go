package detect

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/fingerprint"
)

// documentStrategy is the lowest-priority fallback: it fires when the whole
// message body is itself a structured document (HTML page, SVG, JSON, CSV,
// mermaid diagram) with no prose framing.
type documentStrategy struct {
	classifier Classifier
}

func (documentStrategy) Name() string  { return "full-document" }
func (documentStrategy) Priority() int { return 30 }

func (s *documentStrategy) Detect(text string) []Candidate {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	cls := s.classifier.Classify(trimmed)
	if cls.Type == artifact.TypeText || cls.Type == artifact.TypeCode {
		// Prose or unlabeled code with no structural signal; not a document.
		return nil
	}

	start := len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
	return []Candidate{{
		Type:       cls.Type,
		Language:   cls.Language,
		Title:      documentTitle(cls.Type),
		Content:    trimmed,
		Start:      start,
		End:        start + len(trimmed),
		Confidence: cls.Confidence,
	}}
}

func documentTitle(t artifact.Type) string {
	switch t {
	case artifact.TypeHTML:
		return "HTML Document"
	case artifact.TypeSVG:
		return "SVG Image"
	case artifact.TypeJSON:
		return "JSON Document"
	case artifact.TypeCSV:
		return "CSV Data"
	case artifact.TypeMermaid:
		return "Mermaid Diagram"
	case artifact.TypeMarkdown:
		return "Markdown Document"
	default:
		return "Document"
	}
}

// HeuristicClassifier assigns types from structural fingerprint patterns.
// It is the default Classifier; deployments plug in stronger classifiers
// (language models, linguistic heuristics) behind the same interface.
type HeuristicClassifier struct{}

// Classify inspects span structure. JSON is verified by an actual parse;
// the rest rely on fingerprint pattern hints. Never fails: an
// unclassifiable span is low-confidence text.
func (HeuristicClassifier) Classify(span string) Classification {
	trimmed := strings.TrimSpace(span)
	fp := fingerprint.Compute(trimmed)

	has := func(p string) bool {
		for _, got := range fp.Patterns {
			if got == p {
				return true
			}
		}
		return false
	}

	switch {
	case has(fingerprint.PatternSVG) && strings.HasPrefix(trimmed, "<"):
		return Classification{Type: artifact.TypeSVG, Confidence: 0.9}
	case has(fingerprint.PatternHTMLTag) && strings.HasPrefix(trimmed, "<"):
		return Classification{Type: artifact.TypeHTML, Confidence: 0.85}
	case has(fingerprint.PatternJSON) && json.Valid([]byte(trimmed)):
		return Classification{Type: artifact.TypeJSON, Confidence: 0.9}
	case has(fingerprint.PatternMermaid):
		return Classification{Type: artifact.TypeMermaid, Confidence: 0.8}
	case has(fingerprint.PatternCSV):
		return Classification{Type: artifact.TypeCSV, Confidence: 0.7}
	case looksLikeMarkdownDoc(trimmed):
		return Classification{Type: artifact.TypeMarkdown, Confidence: 0.6}
	default:
		return Classification{Type: artifact.TypeText, Confidence: 0.3}
	}
}

// looksLikeMarkdownDoc reports whether the span opens with a markdown
// heading and carries further markdown structure.
func looksLikeMarkdownDoc(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "# ") && !strings.HasPrefix(trimmed, "## ") {
		return false
	}
	markers := 0
	for _, line := range strings.Split(trimmed, "\n") {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "#") || strings.HasPrefix(l, "- ") || strings.HasPrefix(l, "* ") {
			markers++
		}
	}
	return markers >= 3
}
