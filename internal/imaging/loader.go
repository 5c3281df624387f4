package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"strings"
	"sync"

	"github.com/menulens/menu-ocr-mcp/internal/ocr"
)

// PhotoCache provides thread-safe caching of decoded photos to avoid
// redundant disk reads when the same capture is processed repeatedly
// (recognize, then compare engines, then assess quality).
//
// Cached photos remain in memory until explicitly removed via Evict() or
// Clear(). PhotoCache is safe for concurrent use by multiple goroutines.
type PhotoCache struct {
	mu     sync.RWMutex
	photos map[string]*Photo
}

// Photo is a decoded capture together with its original encoded bytes.
// The encoded form is kept because both recognition engines consume
// encoded payloads, while quality assessment needs the decoded pixels.
type Photo struct {
	// Image is the decoded image.
	Image image.Image

	// Data is the original encoded payload.
	Data []byte

	// Format is the detected encoding ("jpeg", "png", "gif").
	Format string
}

// NewPhotoCache creates an empty photo cache ready for concurrent use.
func NewPhotoCache() *PhotoCache {
	return &PhotoCache{
		photos: make(map[string]*Photo),
	}
}

// Load retrieves a photo from the cache or reads and decodes it from disk.
//
// The photo is cached using the exact path string provided; different
// paths to the same file produce separate entries.
func (c *PhotoCache) Load(path string) (*Photo, error) {
	c.mu.RLock()
	if p, ok := c.photos[path]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}

	photo, err := DecodePhoto(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.photos[path] = photo
	c.mu.Unlock()

	return photo, nil
}

// Clear removes all photos from the cache, freeing the associated memory.
func (c *PhotoCache) Clear() {
	c.mu.Lock()
	c.photos = make(map[string]*Photo)
	c.mu.Unlock()
}

// Evict removes a specific photo from the cache by its path. If the path
// is not cached, Evict does nothing.
func (c *PhotoCache) Evict(path string) {
	c.mu.Lock()
	delete(c.photos, path)
	c.mu.Unlock()
}

// DecodePhoto decodes an encoded image payload into a Photo.
func DecodePhoto(data []byte) (*Photo, error) {
	if len(data) == 0 {
		return nil, ocr.NewValidationError("empty image payload")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ocr.NewValidationError(fmt.Sprintf("failed to decode image: %v", err))
	}
	return &Photo{Image: img, Data: data, Format: format}, nil
}

// DecodeDataURL decodes a base64 data-URL string into a Photo. The input
// must carry one of the recognized image prefixes; anything else fails
// with a validation error.
func DecodeDataURL(dataURL string) (*Photo, error) {
	payload, err := ToBase64(dataURL)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, ocr.NewValidationError(fmt.Sprintf("malformed base64 payload: %v", err))
	}
	return DecodePhoto(raw)
}
