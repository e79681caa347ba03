// Package imageio downloads and decodes the images a batch refers to.
package imageio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 20 << 20 // 20MB
)

// Stage names the step at which loading an image failed.
type Stage string

const (
	StageDownload Stage = "download"
	StageDecode   Stage = "decode"
)

// LoadError is returned by Load. Stage tells the caller whether the image
// could not be fetched or could not be decoded.
type LoadError struct {
	Stage Stage
	URL   string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrTooLarge is returned when a response body exceeds the configured limit.
var ErrTooLarge = errors.New("image exceeds size limit")

// Image is a downloaded and decoded image.
type Image struct {
	Name    string
	Data    []byte
	Decoded image.Image
	Format  string
}

// Width returns the decoded width in pixels.
func (i *Image) Width() int {
	return i.Decoded.Bounds().Dx()
}

// Height returns the decoded height in pixels.
func (i *Image) Height() int {
	return i.Decoded.Bounds().Dy()
}

// Fetcher downloads images over HTTP.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// NewFetcher creates a fetcher. Zero values select the defaults.
func NewFetcher(client *http.Client, timeout time.Duration, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: client, timeout: timeout, maxBytes: maxBytes}
}

// Fetch downloads url and returns the body. Anything other than 200 OK is an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, errors.New("empty response body")
	}
	return data, nil
}

// Load fetches and decodes one image. Failures are returned as *LoadError.
func (f *Fetcher) Load(ctx context.Context, name, url string) (*Image, error) {
	data, err := f.Fetch(ctx, url)
	if err != nil {
		slog.Debug("imageio: download failed", "name", name, "url", url, "error", err)
		return nil, &LoadError{Stage: StageDownload, URL: url, Err: err}
	}

	img, format, err := Decode(data)
	if err != nil {
		slog.Debug("imageio: decode failed", "name", name, "url", url, "error", err)
		return nil, &LoadError{Stage: StageDecode, URL: url, Err: err}
	}

	return &Image{Name: name, Data: data, Decoded: img, Format: format}, nil
}

// Decode decodes JPEG, PNG, GIF, BMP, TIFF or WebP data.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", errors.New("image has no pixels")
	}
	return img, format, nil
}
