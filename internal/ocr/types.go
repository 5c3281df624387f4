package ocr

import (
	"math"
	"time"
)

// Source identifies which recognition path produced a Result.
type Source string

const (
	// SourceCloud marks a cloud result that cleared the confidence floor.
	SourceCloud Source = "cloud"

	// SourceCloudPrimary marks a low-confidence cloud result that still won
	// arbitration against the local backup attempt.
	SourceCloudPrimary Source = "cloud_primary"

	// SourceLocalBackup marks a local result that beat a low-confidence
	// cloud result during arbitration.
	SourceLocalBackup Source = "local_backup"

	// SourceLocalFallback marks a local result produced after the cloud
	// attempt failed outright.
	SourceLocalFallback Source = "local_fallback"

	// SourceLocalOnly marks a local result for a request that never
	// attempted the cloud path (no credential, or forced local).
	SourceLocalOnly Source = "local_only"

	// SourceLocal is the tag a local engine puts on its raw output before
	// the coordinator re-tags it with the path that was actually taken.
	SourceLocal Source = "local"
)

// Vertex is one corner of a word's bounding polygon, in source-image
// pixel coordinates with the origin at the top-left.
type Vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BoundingBox is the four-corner polygon around a recognized word, in the
// order top-left, top-right, bottom-right, bottom-left.
type BoundingBox struct {
	Vertices [4]Vertex `json:"vertices"`
}

// Top returns the smallest Y coordinate of the box.
func (b BoundingBox) Top() int {
	min := b.Vertices[0].Y
	for _, v := range b.Vertices[1:] {
		if v.Y < min {
			min = v.Y
		}
	}
	return min
}

// Bottom returns the largest Y coordinate of the box.
func (b BoundingBox) Bottom() int {
	max := b.Vertices[0].Y
	for _, v := range b.Vertices[1:] {
		if v.Y > max {
			max = v.Y
		}
	}
	return max
}

// Left returns the smallest X coordinate of the box.
func (b BoundingBox) Left() int {
	min := b.Vertices[0].X
	for _, v := range b.Vertices[1:] {
		if v.X < min {
			min = v.X
		}
	}
	return min
}

// Word is a single recognized token.
type Word struct {
	// Text is the recognized token content.
	Text string `json:"text"`

	// Confidence is the recognition confidence from 0 to 100. Only
	// meaningful when Scored is true.
	Confidence int `json:"confidence"`

	// Scored reports whether the engine supplied a confidence value for
	// this word. Unscored words are excluded from confidence aggregates.
	Scored bool `json:"scored"`

	// Box is the bounding polygon around the word in source-image pixels.
	// Nil when the engine did not report a location; such words are
	// excluded from line grouping.
	Box *BoundingBox `json:"box,omitempty"`
}

// Line is an ordered group of words sharing a vertical band. Lines are
// derived from word bounding boxes and never persisted independently.
type Line struct {
	// Words are the member words, left to right.
	Words []Word `json:"words"`

	// Text is the member words joined by single spaces.
	Text string `json:"text"`

	// Confidence is the rounded mean of the member words' confidences.
	Confidence int `json:"confidence"`
}

// Result contains the complete output of one recognition request.
type Result struct {
	// FullText is all recognized text, with the engine's original line
	// breaks where available.
	FullText string `json:"full_text"`

	// Words are the individual recognized words in reading order.
	Words []Word `json:"words"`

	// Confidence is the rounded mean confidence of the scored words,
	// or 0 when no word carries a score.
	Confidence int `json:"confidence"`

	// WordCount is len(Words), duplicated for serialization convenience.
	WordCount int `json:"word_count"`

	// Source identifies the path that produced this result.
	Source Source `json:"source"`

	// ElapsedMs is the wall-clock processing time in milliseconds.
	ElapsedMs int64 `json:"elapsed_ms"`

	// FallbackReason carries the original cloud error message when the
	// result was produced by a fallback path. Nil otherwise.
	FallbackReason *string `json:"fallback_reason"`

	// CloudAvailable snapshots whether the cloud path was configured at
	// the time of the request.
	CloudAvailable bool `json:"cloud_available"`

	// Timestamp is the completion time in RFC 3339 format.
	Timestamp string `json:"timestamp"`

	lines []Line
}

// Lines groups the result's words into reading-order lines. The grouping
// is computed on first use and cached; words without bounding boxes are
// excluded, so a result whose words all lack boxes yields zero lines.
func (r *Result) Lines() []Line {
	if r.lines == nil {
		r.lines = GroupWordsIntoLines(r.Words)
	}
	return r.lines
}

// Stamp fills in the processing metadata shared by every completed result.
func (r *Result) Stamp(source Source, elapsed time.Duration, cloudAvailable bool) {
	r.Source = source
	r.ElapsedMs = elapsed.Milliseconds()
	r.CloudAvailable = cloudAvailable
	r.Timestamp = time.Now().UTC().Format(time.RFC3339)
}

// MeanConfidence returns the rounded mean confidence of the scored words,
// or 0 when none are scored.
func MeanConfidence(words []Word) int {
	sum, n := 0, 0
	for _, w := range words {
		if w.Scored {
			sum += w.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// ClampConfidence forces a confidence value into the valid 0..100 range.
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// EngineStatus describes the lifecycle state of one recognition engine.
type EngineStatus struct {
	// Initialized reports whether the engine is ready to process images.
	Initialized bool `json:"initialized"`

	// HasCredential reports whether a credential is currently stored.
	// Always false for engines that need no credential.
	HasCredential bool `json:"has_credential"`

	// CredentialValid reports the outcome of the most recent credential
	// check. False until a check has run.
	CredentialValid bool `json:"credential_valid"`

	// LastProcessingTimeMs is the duration of the engine's most recent
	// completed request. Zero before the first request.
	LastProcessingTimeMs int64 `json:"last_processing_time_ms"`
}
