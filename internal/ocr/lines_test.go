package ocr

import (
	"strings"
	"testing"
)

// wordAt builds a scored word with a rectangular box for grouping tests.
func wordAt(text string, x, y, w, h, confidence int) Word {
	return Word{
		Text:       text,
		Confidence: confidence,
		Scored:     true,
		Box: &BoundingBox{Vertices: [4]Vertex{
			{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h},
		}},
	}
}

func TestGroupWordsIntoLines_Empty(t *testing.T) {
	lines := GroupWordsIntoLines([]Word{})
	if lines == nil {
		t.Fatal("want empty slice, got nil")
	}
	if len(lines) != 0 {
		t.Errorf("got %d lines, want 0", len(lines))
	}
}

func TestGroupWordsIntoLines_UnboxedWordsExcluded(t *testing.T) {
	words := []Word{
		{Text: "ghost", Confidence: 99, Scored: true}, // no box
		{Text: "another"},
	}
	if lines := GroupWordsIntoLines(words); len(lines) != 0 {
		t.Errorf("unboxed words produced %d lines, want 0", len(lines))
	}

	// Mixed: only the boxed word forms a line.
	words = append(words, wordAt("real", 0, 0, 40, 12, 80))
	lines := GroupWordsIntoLines(words)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if len(lines[0].Words) != 1 || lines[0].Words[0].Text != "real" {
		t.Errorf("line contains %v, want only the boxed word", lines[0].Text)
	}
}

func TestGroupWordsIntoLines_ReadingOrder(t *testing.T) {
	// Two lines of a menu; words supplied out of order.
	words := []Word{
		wordAt("12.50", 200, 52, 40, 12, 90),
		wordAt("salad", 60, 50, 50, 12, 95),
		wordAt("greek", 0, 51, 50, 12, 92),
		wordAt("soup", 0, 100, 40, 12, 88),
		wordAt("9.00", 200, 101, 35, 12, 85),
	}

	lines := GroupWordsIntoLines(words)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Text != "greek salad 12.50" {
		t.Errorf("first line: got %q, want %q", lines[0].Text, "greek salad 12.50")
	}
	if lines[1].Text != "soup 9.00" {
		t.Errorf("second line: got %q, want %q", lines[1].Text, "soup 9.00")
	}
}

func TestGroupWordsIntoLines_Confidence(t *testing.T) {
	words := []Word{
		wordAt("grilled", 0, 0, 60, 14, 95),
		wordAt("octopus", 70, 1, 60, 14, 90),
	}
	lines := GroupWordsIntoLines(words)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Confidence != 93 {
		t.Errorf("line confidence: got %d, want 93", lines[0].Confidence)
	}
}

func TestGroupWordsIntoLines_AdjacentBandsMerge(t *testing.T) {
	// Slight vertical jitter within one physical line: boxes overlap by
	// a pixel or sit within the adjacency gap.
	words := []Word{
		wordAt("tonno", 0, 20, 50, 12, 80),
		wordAt("e", 60, 22, 10, 12, 80),
		wordAt("cipolla", 80, 19, 55, 13, 80),
	}
	lines := GroupWordsIntoLines(words)
	if len(lines) != 1 {
		t.Fatalf("jittered words split into %d lines, want 1", len(lines))
	}
	if !strings.HasPrefix(lines[0].Text, "tonno") {
		t.Errorf("line order wrong: %q", lines[0].Text)
	}
}

func TestGroupWordsIntoLines_SeparatedBandsSplit(t *testing.T) {
	words := []Word{
		wordAt("antipasti", 0, 0, 80, 14, 90),
		wordAt("primi", 0, 60, 50, 14, 90),
		wordAt("dolci", 0, 120, 45, 14, 90),
	}
	lines := GroupWordsIntoLines(words)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, want := range []string{"antipasti", "primi", "dolci"} {
		if lines[i].Text != want {
			t.Errorf("line %d: got %q, want %q", i, lines[i].Text, want)
		}
	}
}
