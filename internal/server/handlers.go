package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/menulens/menu-ocr-mcp/internal/hybrid"
	"github.com/menulens/menu-ocr-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ocr_process").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recognition
	case "ocr_process":
		return s.handleOCRProcess(args)
	case "ocr_compare_engines":
		return s.handleOCRCompareEngines(args)

	// Engine management
	case "ocr_status":
		return s.handleOCRStatus(args)
	case "ocr_recommendation":
		return s.handleOCRRecommendation(args)
	case "ocr_update_credential":
		return s.handleOCRUpdateCredential(args)
	case "ocr_test_credential":
		return s.handleOCRTestCredential(args)

	// Capture diagnostics
	case "image_optimize":
		return s.handleImageOptimize(args)
	case "image_quality":
		return s.handleImageQuality(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// photoArgs is the shared photo-source fragment: a file path or an
// inline base64 data URL. Exactly one must be supplied.
type photoArgs struct {
	Path    string `json:"path"`
	DataURL string `json:"data_url"`
}

// loadPhoto resolves a photo from either source. File loads go through
// the cache; inline payloads are decoded fresh each time.
func (s *Server) loadPhoto(a photoArgs) (*imaging.Photo, error) {
	switch {
	case a.Path != "" && a.DataURL != "":
		return nil, fmt.Errorf("supply either path or data_url, not both")
	case a.Path != "":
		return s.cache.Load(a.Path)
	case a.DataURL != "":
		return imaging.DecodeDataURL(a.DataURL)
	default:
		return nil, fmt.Errorf("supply a photo as path or data_url")
	}
}

// === Recognition Handlers ===

type ocrProcessArgs struct {
	photoArgs
	ForceLocal      bool   `json:"force_local"`
	ConfidenceFloor int    `json:"confidence_floor"`
	MaxTimeMs       int    `json:"max_time_ms"`
	Language        string `json:"language"`
	SkipPreprocess  bool   `json:"skip_preprocess"`
}

func (s *Server) handleOCRProcess(args json.RawMessage) (interface{}, error) {
	var a ocrProcessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	photo, err := s.loadPhoto(a.photoArgs)
	if err != nil {
		return nil, err
	}

	opts := hybrid.ProcessOptions{
		ForceLocal:      a.ForceLocal,
		ConfidenceFloor: a.ConfidenceFloor,
		MaxTime:         time.Duration(a.MaxTimeMs) * time.Millisecond,
		Language:        a.Language,
		SkipPreprocess:  a.SkipPreprocess,
	}
	result, err := s.coordinator.ProcessImage(context.Background(), photo.Data, opts)
	if err != nil {
		return nil, err
	}

	// Force line derivation so the serialized result carries lines.
	return struct {
		Result interface{} `json:"result"`
		Lines  interface{} `json:"lines"`
	}{Result: result, Lines: result.Lines()}, nil
}

func (s *Server) handleOCRCompareEngines(args json.RawMessage) (interface{}, error) {
	var a ocrProcessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	photo, err := s.loadPhoto(a.photoArgs)
	if err != nil {
		return nil, err
	}
	opts := hybrid.ProcessOptions{Language: a.Language, SkipPreprocess: a.SkipPreprocess}
	return s.coordinator.CompareEngines(context.Background(), photo.Data, opts)
}

// === Engine Management Handlers ===

func (s *Server) handleOCRStatus(json.RawMessage) (interface{}, error) {
	return s.coordinator.Status(), nil
}

type ocrRecommendationArgs struct {
	Offline      bool     `json:"offline"`
	LowPowerMode bool     `json:"low_power_mode"`
	BatteryLevel *float64 `json:"battery_level"`
}

func (s *Server) handleOCRRecommendation(args json.RawMessage) (interface{}, error) {
	var a ocrRecommendationArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}
	cond := hybrid.DefaultConditions()
	cond.Offline = a.Offline
	cond.LowPowerMode = a.LowPowerMode
	if a.BatteryLevel != nil {
		cond.BatteryLevel = *a.BatteryLevel
	}
	return s.coordinator.Recommendation(cond), nil
}

type ocrUpdateCredentialArgs struct {
	Credential string `json:"credential"`
}

func (s *Server) handleOCRUpdateCredential(args json.RawMessage) (interface{}, error) {
	var a ocrUpdateCredentialArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}
	if err := s.coordinator.UpdateCredential(a.Credential); err != nil {
		return nil, err
	}
	return s.coordinator.Status(), nil
}

func (s *Server) handleOCRTestCredential(json.RawMessage) (interface{}, error) {
	ok, err := s.coordinator.TestCredential(context.Background())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"credential_valid": ok}, nil
}

// === Capture Diagnostics Handlers ===

type imageOptimizeArgs struct {
	photoArgs
	Quality      int    `json:"quality"`
	Format       string `json:"format"`
	MaxImageSize int    `json:"max_image_size"`
}

func (s *Server) handleImageOptimize(args json.RawMessage) (interface{}, error) {
	var a imageOptimizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	photo, err := s.loadPhoto(a.photoArgs)
	if err != nil {
		return nil, err
	}
	return imaging.OptimizeForAPI(photo.Image, imaging.Options{
		Quality:      a.Quality,
		Format:       a.Format,
		MaxImageSize: a.MaxImageSize,
	})
}

func (s *Server) handleImageQuality(args json.RawMessage) (interface{}, error) {
	var a photoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	photo, err := s.loadPhoto(a)
	if err != nil {
		return nil, err
	}
	return imaging.AssessQuality(photo.Image), nil
}
