// Package server implements the MCP (Model Context Protocol) server that
// exposes the recognition engine over JSON-RPC 2.0 on stdin/stdout.
//
// The server speaks newline-delimited JSON-RPC: one request per line on
// stdin, one response per line on stdout. Logging goes to stderr so the
// protocol stream stays clean.
//
// # Protocol Methods
//
//   - initialize: handshake, returns server info and capabilities
//   - tools/list: returns the tool catalog with JSON schemas
//   - tools/call: executes one tool
//   - ping: liveness check
//
// # Tools
//
// The recognition tools accept a photo either as an absolute file path
// or as an inline base64 data URL:
//
//   - ocr_process: run the hybrid cloud/local recognition pipeline
//   - ocr_compare_engines: run both engines and report the deltas
//   - ocr_status: engine lifecycle state and usage statistics
//   - ocr_recommendation: advisory engine choice for device conditions
//   - ocr_update_credential: set, replace, or clear the cloud credential
//   - ocr_test_credential: probe the configured credential
//   - image_optimize: compute and apply transmission sizing
//   - image_quality: capture-quality diagnostics
//
// Progress events from the coordinator are forwarded to the client as
// notifications/progress messages.
package server
