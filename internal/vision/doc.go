// Package vision implements the cloud recognition client against the
// Google Vision images:annotate endpoint.
//
// One Client wraps one request/response cycle per processed photo:
// credential handling, payload sizing and base64 encoding, the
// TEXT_DETECTION feature request, and parsing of the annotation list into
// the shared recognition model. Transport and HTTP failures are mapped
// into the closed error taxonomy defined by the ocr package, so the
// orchestration layer dispatches on error codes, never on message text.
//
// The client is constructed without a credential and becomes usable only
// after Initialize succeeds; Cleanup returns it to the unconfigured state
// and is safe to call repeatedly.
package vision
