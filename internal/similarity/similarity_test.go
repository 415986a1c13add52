package similarity

import (
	"fmt"
	"strings"
	"testing"
)

func TestScoreIdentical(t *testing.T) {
	s := New(0)
	for _, input := range []string{"", "x", "print(1)", strings.Repeat("long ", 1000)} {
		if got := s.Score(input, input); got != 1.0 {
			t.Errorf("Score(identical %.20q) = %v, want 1.0", input, got)
		}
	}
}

func TestScoreEmptyVsNonEmpty(t *testing.T) {
	s := New(0)
	if got := s.Score("", "content"); got != 0.0 {
		t.Errorf("Score(empty, non-empty) = %v, want 0.0", got)
	}
	if got := s.Score("content", ""); got != 0.0 {
		t.Errorf("Score(non-empty, empty) = %v, want 0.0", got)
	}
}

func TestScoreSymmetric(t *testing.T) {
	s := New(0)
	pairs := [][2]string{
		{"print(1)", "print(2)"},
		{"hello world", "hello there"},
		{"completely different", "nothing alike at all here"},
		{"short", strings.Repeat("long", 100)},
	}
	for _, p := range pairs {
		ab, ba := s.Score(p[0], p[1]), s.Score(p[1], p[0])
		if ab != ba {
			t.Errorf("Score(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	s := New(0)
	for i := 0; i < 50; i++ {
		a := fmt.Sprintf("content variant %d", i)
		b := fmt.Sprintf("content variant %d", 49-i)
		got := s.Score(a, b)
		if got < 0.0 || got > 1.0 {
			t.Errorf("Score(%q, %q) = %v, out of [0,1]", a, b, got)
		}
	}
}

func TestScoreNearDuplicates(t *testing.T) {
	s := New(0)

	// One changed character in a long string stays above the auto-merge
	// threshold.
	a := strings.Repeat("def handler(event):\n    return event\n", 20)
	b := strings.Replace(a, "return event", "return None ", 1)
	if got := s.Score(a, b); got < 0.95 {
		t.Errorf("Score(near-duplicate long) = %v, want >= 0.95", got)
	}

	// Unrelated content scores low.
	if got := s.Score("SELECT * FROM users;", "<html><body>hi</body></html>"); got > 0.5 {
		t.Errorf("Score(unrelated) = %v, want <= 0.5", got)
	}
}

func TestScoreTruncation(t *testing.T) {
	s := New(10)

	// Identical oversized inputs still score exactly 1.0.
	long := strings.Repeat("same content ", 10)
	if got := s.Score(long, long); got != 1.0 {
		t.Errorf("Score(identical oversized) = %v, want 1.0", got)
	}

	// Unequal inputs sharing the capped prefix score high but never 1.0:
	// exact equality is the only way to reach 1.0. Ten runes survive the
	// cap, so the score lands at 1 - 1/10.
	a := "0123456789-tail-one"
	b := "0123456789-tail-two"
	got := s.Score(a, b)
	if got < 0.89 || got >= 1.0 {
		t.Errorf("Score(equal within cap, unequal overall) = %v, want 0.9", got)
	}
}

func TestScoreUnicode(t *testing.T) {
	s := New(0)

	// Multi-byte runes count once, so one changed rune in a ten-rune string
	// costs exactly 0.1.
	a := "☃☃☃☃☃☃☃☃☃☃"
	b := "☃☃☃☃☃☃☃☃☃x"
	got := s.Score(a, b)
	if got < 0.89 || got > 0.91 {
		t.Errorf("Score(one rune of ten changed) = %v, want 0.9", got)
	}
}
