package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"math"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/menulens/menu-ocr-mcp/internal/imaging"
	"github.com/menulens/menu-ocr-mcp/internal/ocr"
)

// Engine recognizes text with a local Tesseract installation. It
// implements the ocr.Engine capability set.
//
// Each recognition request uses its own gosseract client, so concurrent
// ProcessImage calls do not share native state. Initialize only verifies
// that the installation and language data are usable.
type Engine struct {
	language string

	mu             sync.Mutex
	initialized    bool
	lastProcessing time.Duration

	// newClient is swapped by tests to avoid requiring a native
	// Tesseract installation.
	newClient func() *gosseract.Client
}

// NewEngine creates an uninitialized local engine for the given language
// ("eng" when empty).
func NewEngine(language string) *Engine {
	if language == "" {
		language = "eng"
	}
	return &Engine{
		language:  language,
		newClient: gosseract.NewClient,
	}
}

// Initialize verifies the local Tesseract installation by opening a
// client and applying the configured language. Progress is reported at
// the start and completion of the check. Safe to call more than once.
func (e *Engine) Initialize(ctx context.Context, onProgress ocr.ProgressFunc) error {
	report(onProgress, 0, "loading local recognition engine")

	if err := ctx.Err(); err != nil {
		return err
	}

	client := e.newClient()
	defer client.Close()
	if err := client.SetLanguage(e.language); err != nil {
		return fmt.Errorf("tesseract language %q unavailable: %w", e.language, err)
	}

	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()

	report(onProgress, 100, "local recognition engine ready")
	return nil
}

// ProcessImage recognizes text in one encoded photo.
//
// The photo is decoded, optionally preprocessed for handheld captures,
// re-encoded as PNG, and handed to Tesseract. Word-level results come
// from the RIL_WORD iterator with confidences already on the 0..100
// scale; every word carries a bounding box, so local results always
// participate fully in line grouping.
func (e *Engine) ProcessImage(ctx context.Context, photo []byte, opts ocr.ProcessOptions) (*ocr.Result, error) {
	e.mu.Lock()
	ready := e.initialized
	e.mu.Unlock()
	if !ready {
		return nil, ocr.NewStateError("local engine not initialized")
	}

	start := time.Now()
	report(opts.OnProgress, 0, "preparing capture")

	decoded, err := imaging.DecodePhoto(photo)
	if err != nil {
		return nil, err
	}

	input := photo
	if opts.PreprocessImage {
		prepared := imaging.PrepareForLocalOCR(decoded.Image)
		var buf bytes.Buffer
		if err := png.Encode(&buf, prepared); err != nil {
			return nil, fmt.Errorf("failed to encode preprocessed capture: %w", err)
		}
		input = buf.Bytes()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report(opts.OnProgress, 30, "recognizing text")

	client := e.newClient()
	defer client.Close()

	language := e.language
	if opts.Language != "" {
		language = opts.Language
	}
	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(input); err != nil {
		return nil, ocr.NewValidationError(fmt.Sprintf("tesseract rejected the capture: %v", err))
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("local recognition failed: %w", err)
	}

	report(opts.OnProgress, 80, "collecting word detail")

	result := &ocr.Result{
		FullText: text,
		Words:    []ocr.Word{},
		Source:   ocr.SourceLocal,
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil {
		for _, box := range boxes {
			if box.Word == "" {
				continue
			}
			result.Words = append(result.Words, ocr.Word{
				Text:       box.Word,
				Confidence: ocr.ClampConfidence(int(math.Round(box.Confidence))),
				Scored:     true,
				Box:        rectToBox(box.Box.Min.X, box.Box.Min.Y, box.Box.Max.X, box.Box.Max.Y),
			})
		}
	}
	// If box extraction failed the full text is still returned; words
	// stay empty and the aggregate confidence is 0.

	result.WordCount = len(result.Words)
	result.Confidence = ocr.MeanConfidence(result.Words)

	elapsed := time.Since(start)
	e.mu.Lock()
	e.lastProcessing = elapsed
	e.mu.Unlock()

	report(opts.OnProgress, 100, "local recognition complete")
	return result, nil
}

// Status reports the engine's lifecycle state. A local engine holds no
// credential, so the credential fields are always false.
func (e *Engine) Status() ocr.EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ocr.EngineStatus{
		Initialized:          e.initialized,
		LastProcessingTimeMs: e.lastProcessing.Milliseconds(),
	}
}

// Cleanup releases the engine. Idempotent; a cleaned-up engine can be
// re-initialized.
func (e *Engine) Cleanup() error {
	e.mu.Lock()
	e.initialized = false
	e.lastProcessing = 0
	e.mu.Unlock()
	return nil
}

// rectToBox converts an axis-aligned rectangle into the four-corner
// polygon model, top-left first, clockwise.
func rectToBox(x1, y1, x2, y2 int) *ocr.BoundingBox {
	return &ocr.BoundingBox{Vertices: [4]ocr.Vertex{
		{X: x1, Y: y1},
		{X: x2, Y: y1},
		{X: x2, Y: y2},
		{X: x1, Y: y2},
	}}
}

func report(fn ocr.ProgressFunc, progress int, message string) {
	if fn != nil {
		fn(progress, message)
	}
}
