package detect

import (
	"regexp"
	"strings"
)

const separatorConfidence = 0.9

// fileMarkerRe matches explicit file separators such as "File 1: main.go"
// or "file 2 - helper.py" at the start of a line.
var fileMarkerRe = regexp.MustCompile(`(?mi)^\s*(?:\*\*)?file\s+(\d+)\s*[:\-]\s*(.*?)(?:\*\*)?\s*$`)

// numberedSectionRe matches numbered section headers ("1. Server setup",
// "### 2. Client"). Only sections that contain a fenced block are treated
// as artifact separators; plain numbered lists stay prose.
var numberedSectionRe = regexp.MustCompile(`(?m)^\s*(?:#{1,6}\s*)?(\d+)[.)]\s+(.+?)\s*$`)

// hruleRe matches a horizontal-rule line used as a section terminator.
var hruleRe = regexp.MustCompile(`(?m)^-{3,}\s*$`)

// separatorStrategy splits a message on explicit separators. This is the
// highest-priority strategy: when an author labels output "File 1:" the
// labels beat any fence-level heuristic.
type separatorStrategy struct {
	classifier Classifier
}

func (separatorStrategy) Name() string  { return "explicit-separator" }
func (separatorStrategy) Priority() int { return 10 }

func (s *separatorStrategy) Detect(text string) []Candidate {
	if c := s.detectMarked(text, fileMarkerRe, false); len(c) > 0 {
		return c
	}
	return s.detectMarked(text, numberedSectionRe, true)
}

// detectMarked extracts one candidate per marker section. The section body
// runs from the end of the marker line to the next marker, a horizontal
// rule, or end of text. When requireFence is set, sections without a fenced
// block are skipped.
func (s *separatorStrategy) detectMarked(text string, re *regexp.Regexp, requireFence bool) []Candidate {
	markers := re.FindAllStringSubmatchIndex(text, -1)
	if len(markers) < 2 {
		// A single marker is not a multi-file layout; let the fence
		// strategy handle it.
		return nil
	}

	var candidates []Candidate
	for i, m := range markers {
		title := strings.TrimSpace(text[m[4]:m[5]])

		bodyStart := m[1]
		if bodyStart < len(text) && text[bodyStart] == '\n' {
			bodyStart++
		}
		bodyEnd := len(text)
		if i+1 < len(markers) {
			bodyEnd = markers[i+1][0]
		}
		if hr := hruleRe.FindStringIndex(text[bodyStart:bodyEnd]); hr != nil {
			bodyEnd = bodyStart + hr[0]
		}

		body := text[bodyStart:bodyEnd]
		content, lang := sectionContent(body)
		if content == "" {
			continue
		}
		if requireFence && !strings.Contains(body, "```") {
			continue
		}

		cls := s.classifier.Classify(content)
		if lang != "" {
			cls = Classification{Type: typeForLanguage(lang), Language: languageFor(lang), Confidence: 1}
		}
		if title == "" {
			title = fenceTitle(cls.Language)
		}

		candidates = append(candidates, Candidate{
			Type:       cls.Type,
			Language:   cls.Language,
			Title:      title,
			Content:    content,
			Start:      m[0],
			End:        bodyEnd,
			Confidence: separatorConfidence,
		})
	}
	return candidates
}

// sectionContent returns the artifact content of a separator section: the
// inside of its first fenced block when present, otherwise the trimmed body.
func sectionContent(body string) (content, lang string) {
	open := strings.Index(body, "```")
	if open == -1 {
		return strings.TrimSpace(body), ""
	}
	infoEnd := strings.IndexByte(body[open:], '\n')
	if infoEnd == -1 {
		return strings.TrimSpace(body), ""
	}
	infoEnd += open
	lang = strings.TrimSpace(body[open+3 : infoEnd])

	rest := body[infoEnd+1:]
	if close := strings.Index(rest, "```"); close != -1 {
		rest = rest[:close]
	}
	return strings.TrimRight(rest, "\n"), lang
}
