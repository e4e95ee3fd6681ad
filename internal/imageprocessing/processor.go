package imageprocessing

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"net/http"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ProcessingOptions controls how a source image is prepared for the engine
type ProcessingOptions struct {
	Width   int
	Height  int
	Resize  ResizeMode
	Timeout time.Duration
}

// DefaultProcessingOptions keeps the source size
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		Resize:  ResizeNone,
		Timeout: 30 * time.Second,
	}
}

// Prepare resizes img per options.
func Prepare(img image.Image, options ProcessingOptions) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	return Resize(img, options.Width, options.Height, options.Resize)
}

// LoadImage decodes an image file from disk.
func LoadImage(path string) (image.Image, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes an image from a reader.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// LoadImageFromURL downloads and decodes an image after checking it against policy
func LoadImageFromURL(ctx context.Context, rawURL string, timeout time.Duration, policy URLPolicy) (image.Image, string, error) {
	if err := policy.Validate(rawURL); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := policy.client(timeout).Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if policy.MaxBytes > 0 {
		if resp.ContentLength > policy.MaxBytes {
			return nil, "", fmt.Errorf("remote image is %d bytes, limit is %d", resp.ContentLength, policy.MaxBytes)
		}
		body = io.LimitReader(resp.Body, policy.MaxBytes)
	}
	return DecodeImage(body)
}
