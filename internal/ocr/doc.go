// Package ocr defines the shared text-recognition data model used by both
// the cloud and local recognition engines.
//
// The central types are Word, Line, and Result. A Result is produced by one
// engine per photographed image and carries the recognized text, word-level
// detail, an aggregate confidence score, and processing metadata describing
// which path produced it (see Source).
//
// # Confidence
//
// Confidence values are integers from 0 to 100. A word may arrive without a
// score (Scored=false); such words are kept in the word list but excluded
// from every confidence aggregate. The result-level confidence is the
// rounded mean of the scored words' confidences, or 0 when no word carries
// a score.
//
// # Reading Order
//
// Words are stored in reading order: left-to-right within a line,
// top-to-bottom across lines. Line grouping (see GroupWordsIntoLines) is
// derived from word bounding boxes and preserves that order; words without
// a bounding box never participate in grouping.
//
// # Errors
//
// The package also defines the closed error taxonomy shared by the engines
// and the orchestration layer. Every recognition failure is an *Error with
// one of the Code constants; HTTP responses from the cloud service are
// mapped to codes through a single status table (see FromHTTPStatus).
package ocr
