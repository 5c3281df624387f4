package vision

import (
	"math"

	"github.com/menulens/menu-ocr-mcp/internal/ocr"
)

// Wire types for the images:annotate request.

type annotateRequest struct {
	Requests []annotateRequestItem `json:"requests"`
}

type annotateRequestItem struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	// Content is the base64-encoded photo payload.
	Content string `json:"content"`
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// Wire types for the images:annotate response.

type annotateResponse struct {
	Responses []annotateResponseItem `json:"responses"`
}

type annotateResponseItem struct {
	TextAnnotations []textAnnotation `json:"textAnnotations"`
	Error           *annotateError   `json:"error"`
}

type annotateError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type textAnnotation struct {
	Description  string        `json:"description"`
	BoundingPoly *boundingPoly `json:"boundingPoly,omitempty"`

	// Confidence is the optional per-word score from 0 to 1. A nil value
	// means the service supplied no score for this annotation.
	Confidence *float64 `json:"confidence,omitempty"`
}

type boundingPoly struct {
	Vertices []wireVertex `json:"vertices"`
}

type wireVertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// parseAnnotations converts one image's annotation list into the shared
// recognition model.
//
// The first annotation is the whole-text block; every subsequent
// annotation is an individual word with an optional bounding polygon and
// an optional score. Scores are scaled from [0,1] to 0..100 and rounded;
// words without a score are kept in the word list but excluded from the
// confidence aggregate. An empty or absent annotation list yields an
// empty result with confidence 0.
func parseAnnotations(annotations []textAnnotation) *ocr.Result {
	result := &ocr.Result{Words: []ocr.Word{}}
	if len(annotations) == 0 {
		return result
	}

	result.FullText = annotations[0].Description

	for _, ann := range annotations[1:] {
		word := ocr.Word{Text: ann.Description}
		if ann.Confidence != nil {
			word.Scored = true
			word.Confidence = ocr.ClampConfidence(int(math.Round(*ann.Confidence * 100)))
		}
		if box := polyToBox(ann.BoundingPoly); box != nil {
			word.Box = box
		}
		result.Words = append(result.Words, word)
	}

	result.WordCount = len(result.Words)
	result.Confidence = ocr.MeanConfidence(result.Words)
	return result
}

// polyToBox converts a wire bounding polygon into the four-corner model
// box. Polygons without exactly four vertices are treated as absent; the
// word is then excluded from line grouping.
func polyToBox(poly *boundingPoly) *ocr.BoundingBox {
	if poly == nil || len(poly.Vertices) != 4 {
		return nil
	}
	var box ocr.BoundingBox
	for i, v := range poly.Vertices {
		box.Vertices[i] = ocr.Vertex{X: v.X, Y: v.Y}
	}
	return &box
}
