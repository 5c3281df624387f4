package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/menulens/menu-ocr-mcp/internal/imaging"
	"github.com/menulens/menu-ocr-mcp/internal/ocr"
)

// DefaultEndpoint is the Google Vision annotate endpoint.
const DefaultEndpoint = "https://vision.googleapis.com/v1/images:annotate"

// minCredentialLength rejects credentials that cannot possibly be valid
// API keys. Google API keys are 39 characters; anything under 20 is a
// paste error, not a key.
const minCredentialLength = 20

// featureTextDetection is the annotate feature requested for menu photos.
const featureTextDetection = "TEXT_DETECTION"

// Config holds construction-time settings for a Client.
type Config struct {
	// Endpoint overrides the annotate URL. Empty means DefaultEndpoint.
	Endpoint string

	// Timeout bounds one request/response cycle. Zero means 30 seconds.
	Timeout time.Duration

	// RequestsPerSecond throttles outbound calls to protect the account
	// quota. Zero means 5.
	RequestsPerSecond float64

	// Quality is the JPEG quality used when optimizing payloads.
	// Zero means 85.
	Quality int

	// MaxImageSize is the soft byte budget for optimized payloads.
	// Zero means no budget.
	MaxImageSize int
}

// Client wraps the remote text-detection service. It is constructed
// unconfigured and becomes usable after Initialize stores a credential.
//
// Credential state is guarded by a mutex so Initialize and Cleanup can be
// called at runtime, but callers should not run ProcessImage concurrently
// with a credential swap: the request that is already in flight keeps the
// credential it started with.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	quality    int
	maxBytes   int

	mu              sync.Mutex
	apiKey          string
	initialized     bool
	credentialValid bool
	lastProcessing  time.Duration
}

// New creates an unconfigured client. Initialize must succeed before any
// recognition call.
func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 85
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		quality:    cfg.Quality,
		maxBytes:   cfg.MaxImageSize,
	}
}

// Initialize stores the credential and marks the client ready.
//
// The credential is trimmed of surrounding whitespace. An empty result
// fails with a configuration error; a result below the minimum plausible
// key length fails with a distinct "too short" configuration error.
// Initialize may be called again at any time to replace the credential.
func (c *Client) Initialize(credential string) error {
	trimmed := strings.TrimSpace(credential)
	if trimmed == "" {
		return ocr.NewConfigurationError("credential is empty")
	}
	if len(trimmed) < minCredentialLength {
		return ocr.NewConfigurationError("credential is too short to be a valid API key")
	}

	c.mu.Lock()
	c.apiKey = trimmed
	c.initialized = true
	c.credentialValid = false
	c.mu.Unlock()
	return nil
}

// ProcessImage sends one photo to the text-detection endpoint and parses
// the response into the shared recognition model.
//
// Fails with a state error when called before Initialize. Unless
// opts.PreprocessImage is false, the photo is resized and re-encoded at
// its optimal transmission size first. The returned result carries
// source "cloud"; the orchestration layer re-tags it with the path that
// was actually taken.
func (c *Client) ProcessImage(ctx context.Context, photo []byte, opts ocr.ProcessOptions) (*ocr.Result, error) {
	c.mu.Lock()
	key := c.apiKey
	ready := c.initialized
	c.mu.Unlock()
	if !ready {
		return nil, ocr.NewStateError("cloud client not initialized: supply a credential first")
	}

	start := time.Now()

	content, err := c.payloadContent(photo, opts)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(annotateRequest{
		Requests: []annotateRequestItem{{
			Image:    annotateImage{Content: content},
			Features: []annotateFeature{{Type: featureTextDetection}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build annotate request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ocr.NewNetworkError("check your internet connection", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+key, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ocr.NewNetworkError("check your internet connection", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, ocr.FromHTTPStatus(resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var parsed annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, ocr.NewServiceError("failed to decode annotate response", err)
	}

	var annotations []textAnnotation
	if len(parsed.Responses) > 0 {
		item := parsed.Responses[0]
		if item.Error != nil {
			return nil, ocr.NewServiceError(item.Error.Message, nil)
		}
		annotations = item.TextAnnotations
	}

	result := parseAnnotations(annotations)
	result.Source = ocr.SourceCloud

	elapsed := time.Since(start)
	c.mu.Lock()
	c.lastProcessing = elapsed
	c.credentialValid = true
	c.mu.Unlock()

	return result, nil
}

// payloadContent produces the base64 content for the annotate request,
// optimizing the photo first unless preprocessing is disabled.
func (c *Client) payloadContent(photo []byte, opts ocr.ProcessOptions) (string, error) {
	if !opts.PreprocessImage {
		return imaging.ToBase64(photo)
	}
	decoded, err := imaging.DecodePhoto(photo)
	if err != nil {
		return "", err
	}
	optimized, err := imaging.OptimizeForAPI(decoded.Image, imaging.Options{
		Quality:      c.quality,
		MaxImageSize: c.maxBytes,
	})
	if err != nil {
		return "", err
	}
	return imaging.ToBase64(optimized.Data)
}

// TestCredential performs a minimal recognition call against a generated
// probe image and reports whether it succeeded. Any processing error is
// swallowed and reported as false. Fails with a state error when called
// before Initialize.
func (c *Client) TestCredential(ctx context.Context) (bool, error) {
	c.mu.Lock()
	ready := c.initialized
	c.mu.Unlock()
	if !ready {
		return false, ocr.NewStateError("cloud client not initialized: supply a credential first")
	}

	probe, err := probeImage()
	if err != nil {
		return false, nil
	}
	_, err = c.ProcessImage(ctx, probe, ocr.ProcessOptions{PreprocessImage: false})
	if err != nil {
		c.mu.Lock()
		c.credentialValid = false
		c.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Status reports the client's lifecycle state.
func (c *Client) Status() ocr.EngineStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ocr.EngineStatus{
		Initialized:          c.initialized,
		HasCredential:        c.apiKey != "",
		CredentialValid:      c.credentialValid,
		LastProcessingTimeMs: c.lastProcessing.Milliseconds(),
	}
}

// Cleanup resets every mutable field to its unconfigured value. Safe to
// call repeatedly; a cleaned-up client can be re-initialized later.
func (c *Client) Cleanup() error {
	c.mu.Lock()
	c.apiKey = ""
	c.initialized = false
	c.credentialValid = false
	c.lastProcessing = 0
	c.mu.Unlock()
	return nil
}

// probeImage renders the tiny white PNG used by TestCredential.
func probeImage() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
