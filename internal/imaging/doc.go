// Package imaging prepares photographed menu images for text recognition.
//
// It provides three groups of functionality:
//
//   - Sizing and encoding: OptimalSize computes transmission dimensions for
//     the cloud recognition service, and OptimizeForAPI re-renders a photo
//     at those dimensions. ToBase64 converts raw bytes or data-URL strings
//     into the base64 payload the wire format requires.
//
//   - Loading: PhotoCache decodes photos from disk once and caches them,
//     and DecodePhoto/DecodeDataURL accept inline payloads so callers can
//     submit either a file path or a captured image directly.
//
//   - Diagnostics and preprocessing: AssessQuality estimates whether a
//     capture is good enough to recognize, and PrepareForLocalOCR applies
//     the grayscale/contrast/sharpen pipeline the local engine prefers.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner:
// X increases rightward, Y increases downward.
//
// # Thread Safety
//
// PhotoCache is safe for concurrent use. The remaining functions are pure
// and never mutate their input images.
package imaging
