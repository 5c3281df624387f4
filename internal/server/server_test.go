package server

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// runRequests drives the request loop over in-memory pipes and returns
// the decoded output messages in order.
func runRequests(t *testing.T, s *Server, requests ...string) []map[string]interface{} {
	t.Helper()
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	var out bytes.Buffer
	if err := s.serve(in, &out); err != nil {
		t.Fatalf("serve failed: %v", err)
	}

	var messages []map[string]interface{}
	dec := json.NewDecoder(&out)
	for dec.More() {
		var m map[string]interface{}
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("failed to decode output: %v", err)
		}
		messages = append(messages, m)
	}
	return messages
}

func TestServeInitialize(t *testing.T) {
	s := newTestServer(t, &stubEngine{result: stubResult()})

	msgs := runRequests(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if len(msgs) != 1 {
		t.Fatalf("message count: got %d, want 1", len(msgs))
	}

	result := msgs[0]["result"].(map[string]interface{})
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != "menu-ocr-mcp" {
		t.Errorf("server name: got %v", info["name"])
	}
}

func TestServePing(t *testing.T) {
	s := newTestServer(t, &stubEngine{result: stubResult()})

	msgs := runRequests(t, s, `{"jsonrpc":"2.0","id":7,"method":"ping"}`)
	if len(msgs) != 1 {
		t.Fatalf("message count: got %d, want 1", len(msgs))
	}
	if msgs[0]["id"].(float64) != 7 {
		t.Errorf("id: got %v", msgs[0]["id"])
	}
	if msgs[0]["error"] != nil {
		t.Errorf("ping returned error: %v", msgs[0]["error"])
	}
}

func TestServeToolsList(t *testing.T) {
	s := newTestServer(t, &stubEngine{result: stubResult()})

	msgs := runRequests(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	result := msgs[0]["result"].(map[string]interface{})
	tools := result["tools"].([]interface{})
	if len(tools) != 8 {
		t.Errorf("tool count: got %d, want 8", len(tools))
	}
}

func TestServeUnknownMethod(t *testing.T) {
	s := newTestServer(t, &stubEngine{result: stubResult()})

	msgs := runRequests(t, s, `{"jsonrpc":"2.0","id":3,"method":"resources/list"}`)
	errObj := msgs[0]["error"].(map[string]interface{})
	if errObj["code"].(float64) != -32601 {
		t.Errorf("error code: got %v, want -32601", errObj["code"])
	}
}

func TestServeInitializedNotificationIsSilent(t *testing.T) {
	s := newTestServer(t, &stubEngine{result: stubResult()})

	msgs := runRequests(t, s,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":4,"method":"ping"}`,
	)
	if len(msgs) != 1 {
		t.Fatalf("message count: got %d, want 1 (notification must not be answered)", len(msgs))
	}
}

func TestServeSkipsMalformedLines(t *testing.T) {
	s := newTestServer(t, &stubEngine{result: stubResult()})

	msgs := runRequests(t, s,
		`this is not json`,
		``,
		`{"jsonrpc":"2.0","id":5,"method":"ping"}`,
	)
	if len(msgs) != 1 {
		t.Fatalf("message count: got %d, want 1", len(msgs))
	}
}

func TestServeToolsCallEmitsProgressNotifications(t *testing.T) {
	s := newTestServer(t, &stubEngine{result: stubResult()})

	params := map[string]interface{}{
		"name":      "ocr_process",
		"arguments": map[string]interface{}{"data_url": photoDataURL(t, 64)},
	}
	raw, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0", "id": 6, "method": "tools/call", "params": params,
	})

	msgs := runRequests(t, s, string(raw))
	if len(msgs) < 2 {
		t.Fatalf("expected progress notifications plus a response, got %d messages", len(msgs))
	}

	var sawProgress bool
	for _, m := range msgs[:len(msgs)-1] {
		if m["method"] == "notifications/progress" {
			sawProgress = true
			params := m["params"].(map[string]interface{})
			if params["request_id"] == "" {
				t.Error("progress event missing request_id")
			}
		}
	}
	if !sawProgress {
		t.Error("no progress notification emitted")
	}

	final := msgs[len(msgs)-1]
	if final["id"].(float64) != 6 {
		t.Errorf("final message is not the response: %v", final)
	}
	content := final["result"].(map[string]interface{})["content"].([]interface{})
	text := content[0].(map[string]interface{})["text"].(string)
	if !strings.Contains(text, "local_only") {
		t.Errorf("response text missing source tag: %s", text)
	}
}

func TestServeToolsCallInvalidParams(t *testing.T) {
	s := newTestServer(t, &stubEngine{result: stubResult()})

	msgs := runRequests(t, s, `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":"garbage"}`)
	errObj := msgs[0]["error"].(map[string]interface{})
	if errObj["code"].(float64) != -32602 {
		t.Errorf("error code: got %v, want -32602", errObj["code"])
	}
}

func TestServeToolsCallExecutionFailure(t *testing.T) {
	s := newTestServer(t, &stubEngine{result: stubResult()})

	msgs := runRequests(t, s,
		`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"ocr_process","arguments":{}}}`)
	final := msgs[len(msgs)-1]
	errObj := final["error"].(map[string]interface{})
	if errObj["code"].(float64) != -32000 {
		t.Errorf("error code: got %v, want -32000", errObj["code"])
	}
	if !strings.Contains(errObj["data"].(string), "supply a photo") {
		t.Errorf("error data: got %v", errObj["data"])
	}
}
