// Package fingerprint produces deterministic content fingerprints used for
// integrity verification and change detection.
//
// Compute is a pure function: identical content always yields an identical
// checksum, and any single-byte difference yields a different checksum with
// overwhelming probability (SHA-256).
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// Structural pattern markers. Coarse hints for downstream classification,
// never used for correctness.
const (
	PatternCodeFence = "has-code-fence"
	PatternHTMLTag   = "has-html-tag"
	PatternSVG       = "has-svg"
	PatternJSON      = "has-json"
	PatternCSV       = "has-csv"
	PatternMermaid   = "has-mermaid"
)

// Fingerprint describes the exact byte content of a string.
type Fingerprint struct {
	// Checksum is the SHA-256 hex digest of the content bytes.
	Checksum string

	// Length is the content length in bytes.
	Length int

	// Patterns holds coarse structural markers detected in the content,
	// in a fixed order.
	Patterns []string

	// Encoding is "utf-8" for valid UTF-8 content, "binary" otherwise.
	Encoding string
}

// Compute fingerprints content. Deterministic, no I/O, no shared state.
func Compute(content string) Fingerprint {
	sum := sha256.Sum256([]byte(content))

	fp := Fingerprint{
		Checksum: hex.EncodeToString(sum[:]),
		Length:   len(content),
		Encoding: "utf-8",
	}
	if !utf8.ValidString(content) {
		fp.Encoding = "binary"
	}
	fp.Patterns = detectPatterns(content)
	return fp
}

// Checksum returns only the SHA-256 hex digest of content. Convenience for
// callers that do not need patterns.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// detectPatterns scans for coarse structural markers. Order is fixed so the
// result is deterministic.
func detectPatterns(content string) []string {
	var patterns []string
	trimmed := strings.TrimSpace(content)

	if strings.Contains(content, "```") {
		patterns = append(patterns, PatternCodeFence)
	}
	if containsHTMLTag(content) {
		patterns = append(patterns, PatternHTMLTag)
	}
	if strings.Contains(content, "<svg") {
		patterns = append(patterns, PatternSVG)
	}
	if looksLikeJSON(trimmed) {
		patterns = append(patterns, PatternJSON)
	}
	if looksLikeCSV(trimmed) {
		patterns = append(patterns, PatternCSV)
	}
	if looksLikeMermaid(trimmed) {
		patterns = append(patterns, PatternMermaid)
	}
	return patterns
}

// containsHTMLTag reports whether content carries common HTML structure tags.
func containsHTMLTag(content string) bool {
	lower := strings.ToLower(content)
	for _, tag := range []string{"<!doctype html", "<html", "<head", "<body", "<div", "<span", "<p>"} {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}

// looksLikeJSON reports whether trimmed content is bracketed like a JSON
// document. A hint only; no parse is attempted here.
func looksLikeJSON(trimmed string) bool {
	if len(trimmed) < 2 {
		return false
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

// looksLikeCSV reports whether the first lines share a consistent comma
// count greater than zero.
func looksLikeCSV(trimmed string) bool {
	lines := strings.SplitN(trimmed, "\n", 4)
	if len(lines) < 2 {
		return false
	}
	commas := strings.Count(lines[0], ",")
	if commas == 0 {
		return false
	}
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		if strings.Count(line, ",") != commas {
			return false
		}
	}
	return true
}

// mermaidPrefixes are the diagram kinds a mermaid document may open with.
var mermaidPrefixes = []string{
	"graph ", "graph\t", "flowchart ", "sequencediagram", "classdiagram",
	"statediagram", "erdiagram", "gantt", "pie", "journey", "mindmap",
}

func looksLikeMermaid(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	for _, p := range mermaidPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
