package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/lucasb-eyer/go-colorful"
)

// Quality thresholds for menu captures. Derived from what the recognition
// engines tolerate: very dark or washed-out photos recognize poorly, and
// anything under ~500 px on the long edge loses small menu print.
const (
	minMeanLuminance = 0.15
	maxMeanLuminance = 0.95
	minContrastSpan  = 0.20
	minUsableEdge    = 500
)

// QualityReport describes whether a capture is good enough to recognize.
type QualityReport struct {
	// Width and Height are the capture dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// MeanLuminance is the average Lab lightness across the sample grid,
	// from 0 (black) to 1 (white).
	MeanLuminance float64 `json:"mean_luminance"`

	// ContrastSpan is the spread between the brightest and darkest
	// sampled luminances. Text needs contrast to recognize.
	ContrastSpan float64 `json:"contrast_span"`

	// SuitableForOCR is the aggregate verdict.
	SuitableForOCR bool `json:"suitable_for_ocr"`

	// Issues lists the specific problems found, empty when suitable.
	Issues []string `json:"issues"`
}

// AssessQuality estimates whether a photographed menu is worth sending to
// a recognition engine. It samples the capture on a fixed grid, converts
// samples to Lab space, and checks exposure, contrast, and resolution.
//
// The verdict is advisory: callers may still submit an unsuitable capture,
// and the engines will do what they can with it.
func AssessQuality(img image.Image) *QualityReport {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	const grid = 24
	stepX, stepY := w/grid, h/grid
	if stepX < 1 {
		stepX = 1
	}
	if stepY < 1 {
		stepY = 1
	}

	var sum float64
	minL, maxL := 1.0, 0.0
	samples := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			col, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue // fully transparent pixel
			}
			l, _, _ := col.Lab()
			sum += l
			if l < minL {
				minL = l
			}
			if l > maxL {
				maxL = l
			}
			samples++
		}
	}

	report := &QualityReport{Width: w, Height: h, Issues: []string{}}
	if samples == 0 {
		report.Issues = append(report.Issues, "image has no opaque pixels")
		return report
	}

	report.MeanLuminance = sum / float64(samples)
	report.ContrastSpan = maxL - minL

	if report.MeanLuminance < minMeanLuminance {
		report.Issues = append(report.Issues, "capture is too dark")
	}
	if report.MeanLuminance > maxMeanLuminance {
		report.Issues = append(report.Issues, "capture is overexposed")
	}
	if report.ContrastSpan < minContrastSpan {
		report.Issues = append(report.Issues, "capture has too little contrast")
	}
	longEdge := w
	if h > longEdge {
		longEdge = h
	}
	if longEdge < minUsableEdge {
		report.Issues = append(report.Issues, "capture resolution is too low for small print")
	}

	report.SuitableForOCR = len(report.Issues) == 0
	return report
}

// PrepareForLocalOCR applies the preprocessing pipeline the local engine
// prefers: grayscale conversion, a mild contrast stretch, and sharpening.
// The source image is never mutated.
func PrepareForLocalOCR(img image.Image) image.Image {
	gray := effect.Grayscale(img)
	stretched := adjust.Contrast(gray, 0.2)
	return effect.Sharpen(stretched)
}
