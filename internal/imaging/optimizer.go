package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/menulens/menu-ocr-mcp/internal/ocr"
)

// Sizing limits for images sent to the cloud recognition service. The
// service recognizes small text poorly below minLongEdge and rejects
// payloads whose long edge exceeds maxLongEdge.
const (
	minLongEdge = 1024
	maxLongEdge = 4096
)

// bytesPerPixel estimates the encoded payload cost of one pixel when
// applying a byte budget. JPEG at transmission quality compresses well
// below 3 bytes/pixel; 1.5 is a conservative planning figure.
const bytesPerPixel = 1.5

// SizeResult describes the computed transmission dimensions for a photo.
type SizeResult struct {
	// Width is the target width in pixels. Always even.
	Width int `json:"width"`

	// Height is the target height in pixels. Always even.
	Height int `json:"height"`

	// Scale is the linear scale factor applied to the source dimensions.
	Scale float64 `json:"scale"`
}

// OptimalSize computes the dimensions at which a photo should be
// transmitted to the cloud recognition service.
//
// The computation is pure and deterministic:
//
//   - Aspect ratio is preserved within 1%.
//   - Photos whose long edge is below 1024 px are upscaled to 1024.
//   - Photos whose long edge exceeds 4096 px are downscaled to 4096.
//   - A positive maxBytes applies a soft byte budget that may shrink the
//     photo further, but never below the 1024 px long-edge floor.
//   - Both output dimensions are forced even, as required by the
//     downstream encoders.
//
// Returns an error when either input dimension is not positive.
func OptimalSize(width, height, maxBytes int) (SizeResult, error) {
	if width <= 0 || height <= 0 {
		return SizeResult{}, ocr.NewValidationError(
			fmt.Sprintf("invalid image dimensions %dx%d", width, height))
	}

	longEdge := width
	if height > longEdge {
		longEdge = height
	}

	scale := 1.0
	switch {
	case longEdge < minLongEdge:
		scale = float64(minLongEdge) / float64(longEdge)
	case longEdge > maxLongEdge:
		scale = float64(maxLongEdge) / float64(longEdge)
	}

	if maxBytes > 0 {
		estimated := float64(width) * scale * float64(height) * scale * bytesPerPixel
		if estimated > float64(maxBytes) {
			scale *= math.Sqrt(float64(maxBytes) / estimated)
		}
		// The byte budget never pushes the long edge below the floor.
		if floor := float64(minLongEdge) / float64(longEdge); scale < floor {
			scale = floor
		}
	}

	w := evenDimension(float64(width) * scale)
	h := evenDimension(float64(height) * scale)

	return SizeResult{Width: w, Height: h, Scale: scale}, nil
}

// evenDimension rounds a scaled dimension to the nearest even integer,
// with a floor of 2 so degenerate inputs still produce an encodable size.
func evenDimension(v float64) int {
	n := int(math.Round(v/2.0)) * 2
	if n < 2 {
		n = 2
	}
	return n
}

// dataURLPrefixes are the payload headers accepted by ToBase64 for
// string input. Anything else is rejected as malformed.
var dataURLPrefixes = []string{
	"data:image/jpeg;base64,",
	"data:image/png;base64,",
	"data:image/gif;base64,",
	"data:image/webp;base64,",
}

// ToBase64 converts a photo payload into the base64 content string the
// cloud wire format expects.
//
// Raw bytes are encoded directly. A string payload must already be a
// base64 data URL with a recognized image prefix; the header is stripped
// and the remainder returned unchanged. Any other string input fails with
// a validation error.
func ToBase64(payload interface{}) (string, error) {
	switch p := payload.(type) {
	case []byte:
		if len(p) == 0 {
			return "", ocr.NewValidationError("empty image payload")
		}
		return base64.StdEncoding.EncodeToString(p), nil
	case string:
		for _, prefix := range dataURLPrefixes {
			if strings.HasPrefix(p, prefix) {
				return strings.TrimPrefix(p, prefix), nil
			}
		}
		return "", ocr.NewValidationError("image string is not a recognized base64 data URL")
	default:
		return "", ocr.NewValidationError(fmt.Sprintf("unsupported image payload type %T", payload))
	}
}

// Options controls re-encoding in OptimizeForAPI.
type Options struct {
	// Quality is the JPEG quality from 1 to 100. Zero means 85.
	Quality int `json:"quality"`

	// Format is the target encoding: "jpeg" or "png". Empty means "jpeg".
	Format string `json:"format"`

	// MaxImageSize is the soft byte budget passed through to OptimalSize.
	// Zero means no budget.
	MaxImageSize int `json:"max_image_size"`
}

// OptimizeResult is the re-encoded photo plus the sizing decision that
// produced it.
type OptimizeResult struct {
	// Data is the re-encoded photo bytes.
	Data []byte `json:"-"`

	// Size is the sizing decision applied before re-encoding.
	Size SizeResult `json:"size"`

	// Format is the encoding actually used.
	Format string `json:"format"`

	// EncodedBytes is len(Data).
	EncodedBytes int `json:"encoded_bytes"`
}

// OptimizeForAPI re-renders a photo at its optimal transmission size and
// re-encodes it at the requested quality and format. The source image is
// never mutated; the result is always a new payload.
func OptimizeForAPI(img image.Image, opts Options) (*OptimizeResult, error) {
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	if opts.Format == "" {
		opts.Format = "jpeg"
	}

	bounds := img.Bounds()
	size, err := OptimalSize(bounds.Dx(), bounds.Dy(), opts.MaxImageSize)
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, size.Width, size.Height, imaging.Lanczos)

	var format imaging.Format
	switch opts.Format {
	case "jpeg":
		format = imaging.JPEG
	case "png":
		format = imaging.PNG
	default:
		return nil, ocr.NewValidationError(fmt.Sprintf("unsupported target format %q", opts.Format))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode optimized image: %w", err)
	}

	return &OptimizeResult{
		Data:         buf.Bytes(),
		Size:         size,
		Format:       opts.Format,
		EncodedBytes: buf.Len(),
	}, nil
}
