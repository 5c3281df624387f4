// Package tesseract implements the local recognition engine on top of the
// Tesseract OCR library (via gosseract/v2).
//
// The engine is always initializable without network access, which makes
// it the fallback path of the orchestration layer: when the cloud client
// is unconfigured or fails, recognition still happens here.
//
// # Prerequisites
//
// Tesseract must be installed on the system together with the language
// data for the configured recognition language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Preprocessing
//
// Menu photos are taken handheld in restaurant lighting, so by default
// each capture runs through the grayscale/contrast/sharpen pipeline in
// the imaging package before recognition. Disable with
// ProcessOptions.PreprocessImage=false.
package tesseract
