package ocr

import "context"

// ProgressFunc receives engine initialization and processing progress as a
// value from 0 to 100 with a short status message. Engines call it from
// the goroutine running the operation; implementations must be fast.
type ProgressFunc func(progress int, message string)

// ProcessOptions tunes a single recognition request.
type ProcessOptions struct {
	// Language is the recognition language hint (e.g. "eng").
	// Empty means the engine default.
	Language string

	// PreprocessImage controls whether the engine may resize and re-encode
	// the photo before recognition. Defaults to true.
	PreprocessImage bool

	// OnProgress, when non-nil, receives progress callbacks scaled to the
	// engine's own 0..100 range.
	OnProgress ProgressFunc
}

// DefaultProcessOptions returns the options applied when a caller passes
// the zero value.
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{PreprocessImage: true}
}

// Engine is the capability set shared by every recognition backend. The
// orchestration coordinator works exclusively through this interface, so
// engines are interchangeable with test doubles.
type Engine interface {
	// Initialize prepares the engine for processing. Safe to call more
	// than once; later calls re-initialize.
	Initialize(ctx context.Context, onProgress ProgressFunc) error

	// ProcessImage recognizes text in one encoded photo and returns a
	// Result tagged with the engine's own source.
	ProcessImage(ctx context.Context, photo []byte, opts ProcessOptions) (*Result, error)

	// Status reports the engine's lifecycle state.
	Status() EngineStatus

	// Cleanup releases any worker or native resources. Idempotent.
	Cleanup() error
}
