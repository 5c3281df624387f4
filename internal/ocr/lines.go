package ocr

import (
	"sort"
	"strings"
)

// GroupWordsIntoLines clusters words into reading-order lines by the
// vertical proximity of their bounding boxes.
//
// Two words belong to the same line when their vertical ranges overlap or
// sit within a small adjacency gap of each other. Within a line, words are
// ordered left to right by their leftmost X coordinate; lines are ordered
// top to bottom by their topmost Y coordinate.
//
// Words without a bounding box are excluded entirely: they never start a
// line and never join one. If no word carries a box, the result is empty.
//
// Each line's Confidence is the rounded mean of its member words'
// confidences, and its Text is the member words joined by single spaces.
func GroupWordsIntoLines(words []Word) []Line {
	boxed := make([]Word, 0, len(words))
	for _, w := range words {
		if w.Box != nil {
			boxed = append(boxed, w)
		}
	}
	if len(boxed) == 0 {
		return []Line{}
	}

	sort.SliceStable(boxed, func(i, j int) bool {
		return boxed[i].Box.Top() < boxed[j].Box.Top()
	})

	// Greedy clustering: a word joins the current cluster while its
	// vertical range overlaps the cluster's running band, extended by an
	// adjacency gap proportional to the cluster's band height.
	type cluster struct {
		words    []Word
		top, bot int
	}

	clusters := []*cluster{}
	for _, w := range boxed {
		top, bot := w.Box.Top(), w.Box.Bottom()
		var joined *cluster
		for _, c := range clusters {
			gap := adjacencyGap(c.bot - c.top)
			if top <= c.bot+gap && bot >= c.top-gap {
				joined = c
				break
			}
		}
		if joined == nil {
			clusters = append(clusters, &cluster{words: []Word{w}, top: top, bot: bot})
			continue
		}
		joined.words = append(joined.words, w)
		if top < joined.top {
			joined.top = top
		}
		if bot > joined.bot {
			joined.bot = bot
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].top < clusters[j].top
	})

	lines := make([]Line, 0, len(clusters))
	for _, c := range clusters {
		sort.SliceStable(c.words, func(i, j int) bool {
			return c.words[i].Box.Left() < c.words[j].Box.Left()
		})
		texts := make([]string, len(c.words))
		for i, w := range c.words {
			texts[i] = w.Text
		}
		lines = append(lines, Line{
			Words:      c.words,
			Text:       strings.Join(texts, " "),
			Confidence: MeanConfidence(c.words),
		})
	}
	return lines
}

// adjacencyGap is the vertical slack allowed between a cluster band and a
// candidate word: a quarter of the band height, with a one-pixel floor so
// degenerate boxes can still merge with touching neighbors.
func adjacencyGap(bandHeight int) int {
	gap := bandHeight / 4
	if gap < 1 {
		gap = 1
	}
	return gap
}
