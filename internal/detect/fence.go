package detect

import (
	"strings"

	"github.com/koopa0/canvas/internal/artifact"
)

// fenceConfidence applies to well-formed fenced blocks; unterminated fences
// score lower but still above the default threshold.
const (
	fenceConfidence         = 0.8
	danglingFenceConfidence = 0.6
)

// fenceStrategy extracts fenced code blocks (``` ... ```).
//
// An unterminated fence extends to the end of the text rather than being
// dropped; models frequently truncate mid-block.
type fenceStrategy struct{}

func (fenceStrategy) Name() string  { return "code-fence" }
func (fenceStrategy) Priority() int { return 20 }

func (fenceStrategy) Detect(text string) []Candidate {
	var candidates []Candidate

	pos := 0
	for {
		open := strings.Index(text[pos:], "```")
		if open == -1 {
			break
		}
		open += pos

		// Info string runs to the end of the opening line.
		infoEnd := strings.IndexByte(text[open:], '\n')
		if infoEnd == -1 {
			// Fence with no newline after it; nothing to capture.
			break
		}
		infoEnd += open
		lang := strings.TrimSpace(text[open+3 : infoEnd])

		contentStart := infoEnd + 1
		confidence := fenceConfidence

		contentEnd := len(text)
		spanEnd := len(text)
		if close := strings.Index(text[contentStart:], "```"); close != -1 {
			contentEnd = contentStart + close
			spanEnd = contentEnd + 3
			if nl := strings.IndexByte(text[spanEnd:], '\n'); nl != -1 {
				spanEnd += nl + 1
			} else {
				spanEnd = len(text)
			}
		} else {
			confidence = danglingFenceConfidence
		}

		content := strings.TrimRight(text[contentStart:contentEnd], "\n")
		candidates = append(candidates, Candidate{
			Type:       typeForLanguage(lang),
			Language:   languageFor(lang),
			Title:      fenceTitle(lang),
			Content:    content,
			Start:      open,
			End:        spanEnd,
			Confidence: confidence,
		})

		if spanEnd <= pos {
			break
		}
		pos = spanEnd
	}

	return candidates
}

// typeForLanguage maps a fence info string to an artifact type. Unknown
// languages stay code; prose-like fences become their document type.
func typeForLanguage(lang string) artifact.Type {
	switch strings.ToLower(lang) {
	case "html":
		return artifact.TypeHTML
	case "svg":
		return artifact.TypeSVG
	case "json":
		return artifact.TypeJSON
	case "csv":
		return artifact.TypeCSV
	case "markdown", "md":
		return artifact.TypeMarkdown
	case "mermaid":
		return artifact.TypeMermaid
	case "jsx", "tsx":
		return artifact.TypeReact
	case "":
		return artifact.TypeCode
	default:
		return artifact.TypeCode
	}
}

// languageFor returns the language tag for code artifacts, "" for document
// types that carry the language in their Type.
func languageFor(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch typeForLanguage(lang) {
	case artifact.TypeCode, artifact.TypeReact:
		return lang
	default:
		return ""
	}
}

// fenceTitle synthesizes a display title for an untitled fenced block.
func fenceTitle(lang string) string {
	if lang == "" {
		return "Code Block"
	}
	return capitalize(lang) + " Code"
}

// capitalize upper-cases the first ASCII letter of s.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
