package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/menulens/menu-ocr-mcp/internal/ocr"
)

// testCredential is shaped like a real API key: 39 characters.
var testCredential = "AIzaSy" + strings.Repeat("A", 33)

// newTestClient points a client at a stub annotate endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := New(Config{
		Endpoint:          srv.URL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
	})
	return client, srv
}

// annotateReply builds a JSON response with the given annotations.
func annotateReply(annotations ...map[string]interface{}) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"responses": []map[string]interface{}{
			{"textAnnotations": annotations},
		},
	})
	return body
}

func testPhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestClient_Initialize(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		wantErr    bool
		wantInMsg  string
	}{
		{"empty credential", "", true, "empty"},
		{"whitespace only", "   \t", true, "empty"},
		{"too short", "short", true, "too short"},
		{"39 character key", testCredential, false, ""},
		{"key with surrounding whitespace", "  " + testCredential + "\n", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(Config{})
			err := client.Initialize(tt.credential)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				if ocr.CodeOf(err) != ocr.CodeConfiguration {
					t.Errorf("error code: got %s, want CONFIGURATION", ocr.CodeOf(err))
				}
				if !strings.Contains(err.Error(), tt.wantInMsg) {
					t.Errorf("error %q does not mention %q", err.Error(), tt.wantInMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
			status := client.Status()
			if !status.Initialized || !status.HasCredential {
				t.Errorf("status after init: %+v", status)
			}
		})
	}
}

func TestClient_ProcessImageBeforeInitialize(t *testing.T) {
	client := New(Config{})
	_, err := client.ProcessImage(context.Background(), []byte("x"), ocr.ProcessOptions{})
	if err == nil {
		t.Fatal("expected error, got none")
	}
	if ocr.CodeOf(err) != ocr.CodeState {
		t.Errorf("error code: got %s, want STATE", ocr.CodeOf(err))
	}
}

func TestClient_ProcessImage(t *testing.T) {
	var gotRequest annotateRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != testCredential {
			t.Errorf("key query parameter: got %q", r.URL.Query().Get("key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Write(annotateReply(
			map[string]interface{}{"description": "greek salad"},
			map[string]interface{}{
				"description": "greek",
				"confidence":  0.95,
				"boundingPoly": map[string]interface{}{
					"vertices": []map[string]int{{"x": 0, "y": 0}, {"x": 50, "y": 0}, {"x": 50, "y": 14}, {"x": 0, "y": 14}},
				},
			},
			map[string]interface{}{"description": "salad", "confidence": 0.90},
		))
	})

	if err := client.Initialize(testCredential); err != nil {
		t.Fatal(err)
	}

	result, err := client.ProcessImage(context.Background(), testPhoto(t), ocr.ProcessOptions{PreprocessImage: false})
	if err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}

	if result.FullText != "greek salad" {
		t.Errorf("FullText: got %q", result.FullText)
	}
	if result.Confidence != 93 {
		t.Errorf("Confidence: got %d, want 93", result.Confidence)
	}
	if result.Source != ocr.SourceCloud {
		t.Errorf("Source: got %s, want cloud", result.Source)
	}
	if result.WordCount != 2 {
		t.Errorf("WordCount: got %d, want 2", result.WordCount)
	}

	// Wire contract: one request, base64 content, TEXT_DETECTION feature.
	if len(gotRequest.Requests) != 1 {
		t.Fatalf("request count: got %d, want 1", len(gotRequest.Requests))
	}
	if gotRequest.Requests[0].Image.Content == "" {
		t.Error("request carried no image content")
	}
	if gotRequest.Requests[0].Features[0].Type != featureTextDetection {
		t.Errorf("feature: got %s", gotRequest.Requests[0].Features[0].Type)
	}

	status := client.Status()
	if !status.CredentialValid {
		t.Error("credential not marked valid after success")
	}
}

func TestClient_ProcessImageWithPreprocess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req annotateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Requests[0].Image.Content == "" {
			t.Error("optimized request carried no content")
		}
		w.Write(annotateReply(map[string]interface{}{"description": "menu"}))
	})
	if err := client.Initialize(testCredential); err != nil {
		t.Fatal(err)
	}

	result, err := client.ProcessImage(context.Background(), testPhoto(t), ocr.ProcessOptions{PreprocessImage: true})
	if err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}
	if result.FullText != "menu" {
		t.Errorf("FullText: got %q", result.FullText)
	}
}

func TestClient_ProcessImageErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode ocr.Code
		wantMsg  string
	}{
		{"forbidden", 403, "denied", ocr.CodeAuth, "authentication failed"},
		{"rate limited", 429, "slow down", ocr.CodeQuota, "quota exceeded"},
		{"bad request echoes body", 400, "image exceeds limit", ocr.CodeValidation, "image exceeds limit"},
		{"internal error", 500, "oops", ocr.CodeService, "500"},
		{"bad gateway", 502, "", ocr.CodeService, "502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			if err := client.Initialize(testCredential); err != nil {
				t.Fatal(err)
			}

			_, err := client.ProcessImage(context.Background(), testPhoto(t), ocr.ProcessOptions{PreprocessImage: false})
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if ocr.CodeOf(err) != tt.wantCode {
				t.Errorf("code: got %s, want %s", ocr.CodeOf(err), tt.wantCode)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("message %q does not contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestClient_ProcessImageNetworkFailure(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if err := client.Initialize(testCredential); err != nil {
		t.Fatal(err)
	}
	srv.Close()

	_, err := client.ProcessImage(context.Background(), testPhoto(t), ocr.ProcessOptions{PreprocessImage: false})
	if err == nil {
		t.Fatal("expected error, got none")
	}
	if ocr.CodeOf(err) != ocr.CodeNetwork {
		t.Errorf("code: got %s, want NETWORK", ocr.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "check your internet connection") {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestClient_ProcessImageNoAnnotations(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{}]}`))
	})
	if err := client.Initialize(testCredential); err != nil {
		t.Fatal(err)
	}

	result, err := client.ProcessImage(context.Background(), testPhoto(t), ocr.ProcessOptions{PreprocessImage: false})
	if err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}
	if result.FullText != "" || result.Confidence != 0 || result.WordCount != 0 || len(result.Words) != 0 {
		t.Errorf("empty annotation list produced %+v", result)
	}
}

func TestClient_ProcessImageResponseError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{"error":{"code":7,"message":"feature not enabled"}}]}`))
	})
	if err := client.Initialize(testCredential); err != nil {
		t.Fatal(err)
	}

	_, err := client.ProcessImage(context.Background(), testPhoto(t), ocr.ProcessOptions{PreprocessImage: false})
	if err == nil {
		t.Fatal("expected error, got none")
	}
	if !strings.Contains(err.Error(), "feature not enabled") {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestClient_TestCredential(t *testing.T) {
	t.Run("before initialize", func(t *testing.T) {
		client := New(Config{})
		_, err := client.TestCredential(context.Background())
		if err == nil || ocr.CodeOf(err) != ocr.CodeState {
			t.Errorf("want STATE error, got %v", err)
		}
	})

	t.Run("valid credential", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write(annotateReply())
		})
		if err := client.Initialize(testCredential); err != nil {
			t.Fatal(err)
		}
		ok, err := client.TestCredential(context.Background())
		if err != nil {
			t.Fatalf("TestCredential returned error: %v", err)
		}
		if !ok {
			t.Error("valid credential reported invalid")
		}
	})

	t.Run("rejected credential suppresses the error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(403)
		})
		if err := client.Initialize(testCredential); err != nil {
			t.Fatal(err)
		}
		ok, err := client.TestCredential(context.Background())
		if err != nil {
			t.Fatalf("TestCredential returned error: %v", err)
		}
		if ok {
			t.Error("rejected credential reported valid")
		}
		if client.Status().CredentialValid {
			t.Error("credential still marked valid after rejection")
		}
	})
}

func TestClient_Cleanup(t *testing.T) {
	client := New(Config{})
	if err := client.Initialize(testCredential); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := client.Cleanup(); err != nil {
			t.Fatalf("Cleanup call %d failed: %v", i+1, err)
		}
	}

	status := client.Status()
	if status.Initialized || status.HasCredential || status.CredentialValid || status.LastProcessingTimeMs != 0 {
		t.Errorf("status not reset: %+v", status)
	}

	// A cleaned-up client can be configured again.
	if err := client.Initialize(testCredential); err != nil {
		t.Fatalf("re-initialize failed: %v", err)
	}
	if !client.Status().Initialized {
		t.Error("client not initialized after re-configure")
	}
}
