package fingerprint

import (
	"fmt"
	"strings"
	"testing"
)

func TestChecksumDeterministic(t *testing.T) {
	inputs := []string{
		"",
		"print(1)",
		strings.Repeat("x", 100_000),
		"snowman ☃ and friends",
	}
	for _, input := range inputs {
		first := Checksum(input)
		for i := 0; i < 3; i++ {
			if got := Checksum(input); got != first {
				t.Errorf("Checksum(%.20q) not deterministic: %s vs %s", input, got, first)
			}
		}
		if len(first) != 64 {
			t.Errorf("Checksum(%.20q) length = %d, want 64 hex chars", input, len(first))
		}
	}
}

func TestChecksumDistinguishesContent(t *testing.T) {
	// Not a collision-resistance proof, just a sanity sweep over a small
	// randomized corpus.
	seen := make(map[string]string)
	for i := 0; i < 500; i++ {
		content := fmt.Sprintf("artifact content %d %s", i, strings.Repeat("z", i%7))
		sum := Checksum(content)
		if prev, ok := seen[sum]; ok && prev != content {
			t.Fatalf("checksum collision: %q and %q both map to %s", prev, content, sum)
		}
		seen[sum] = content
	}
}

func TestComputePatterns(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "code fence",
			content: "```python\nprint(1)\n```",
			want:    []string{PatternCodeFence},
		},
		{
			name:    "html tag",
			content: "<!DOCTYPE html><html><body>hi</body></html>",
			want:    []string{PatternHTMLTag},
		},
		{
			name:    "svg",
			content: `<svg xmlns="http://www.w3.org/2000/svg"><rect/></svg>`,
			want:    []string{PatternSVG},
		},
		{
			name:    "json object",
			content: `{"key": "value", "n": 1}`,
			want:    []string{PatternJSON},
		},
		{
			name:    "csv",
			content: "name,age,city\nalice,30,berlin\nbob,25,paris",
			want:    []string{PatternCSV},
		},
		{
			name:    "mermaid",
			content: "graph TD\n  A --> B",
			want:    []string{PatternMermaid},
		},
		{
			name:    "plain prose",
			content: "Nothing structured here, just a sentence.",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := Compute(tt.content)
			if fp.Checksum != Checksum(tt.content) {
				t.Errorf("Compute().Checksum disagrees with Checksum()")
			}
			if fp.Length != len(tt.content) {
				t.Errorf("Compute().Length = %d, want %d", fp.Length, len(tt.content))
			}
			for _, want := range tt.want {
				if !hasPattern(fp.Patterns, want) {
					t.Errorf("Compute(%q).Patterns = %v, missing %q", tt.name, fp.Patterns, want)
				}
			}
			if tt.want == nil && len(fp.Patterns) != 0 {
				t.Errorf("Compute(%q).Patterns = %v, want none", tt.name, fp.Patterns)
			}
		})
	}
}

func hasPattern(patterns []string, want string) bool {
	for _, p := range patterns {
		if p == want {
			return true
		}
	}
	return false
}
