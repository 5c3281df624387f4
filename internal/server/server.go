package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/menulens/menu-ocr-mcp/internal/hybrid"
	"github.com/menulens/menu-ocr-mcp/internal/imaging"
)

// Server handles MCP protocol communication
type Server struct {
	coordinator *hybrid.Coordinator
	cache       *imaging.PhotoCache

	// encMu serializes writes to the output stream: responses from the
	// request loop and progress notifications from in-flight requests.
	encMu   sync.Mutex
	encoder *json.Encoder
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server around an initialized coordinator. The
// server subscribes to the coordinator's progress events and forwards
// them as notifications/progress messages.
func New(coordinator *hybrid.Coordinator) *Server {
	s := &Server{
		coordinator: coordinator,
		cache:       imaging.NewPhotoCache(),
	}
	coordinator.Subscribe(hybrid.ProgressListenerFunc(s.forwardProgress))
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.serve(os.Stdin, os.Stdout)
}

// serve is the transport-agnostic request loop, split out so tests can
// drive the server over in-memory pipes.
func (s *Server) serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Inline data-URL photos make requests large
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	s.encMu.Lock()
	s.encoder = json.NewEncoder(out)
	s.encMu.Unlock()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.write(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "menu-ocr-mcp",
				"version": "0.1.0",
			},
		},
	}
}

// handleToolsList responds to the tools/list request
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// forwardProgress relays coordinator progress events to the client.
func (s *Server) forwardProgress(event hybrid.ProgressEvent) {
	s.write(&MCPNotification{
		JSONRPC: "2.0",
		Method:  "notifications/progress",
		Params:  event,
	})
}

// write encodes one message to the output stream under the encoder lock.
func (s *Server) write(msg interface{}) {
	s.encMu.Lock()
	defer s.encMu.Unlock()
	if s.encoder == nil {
		return
	}
	if err := s.encoder.Encode(msg); err != nil {
		log.Printf("Failed to encode message: %v", err)
	}
}
