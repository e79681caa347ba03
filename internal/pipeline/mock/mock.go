// Package mock provides mock implementations of the pipeline collaborators
// for testing.
package mock

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/kozaktomas/photo-analyzer/internal/annotate"
	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/fingerprint"
	"github.com/kozaktomas/photo-analyzer/internal/imageio"
	"github.com/kozaktomas/photo-analyzer/internal/vectors"
)

// UniformImage returns a w x h image filled with one gray level.
func UniformImage(w, h int, level uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

// CheckerImage returns a w x h black and white checkerboard with 1px cells.
func CheckerImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// MockLoader is a mock implementation of pipeline.Loader keyed by URL.
type MockLoader struct {
	mu     sync.Mutex
	images map[string]image.Image
	errors map[string]error
	calls  []string
}

// NewMockLoader creates a new mock loader
func NewMockLoader() *MockLoader {
	return &MockLoader{
		images: make(map[string]image.Image),
		errors: make(map[string]error),
	}
}

// AddImage registers the decoded image served for url
func (m *MockLoader) AddImage(url string, img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[url] = img
}

// FailDownload makes url fail at the download stage
func (m *MockLoader) FailDownload(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[url] = &imageio.LoadError{Stage: imageio.StageDownload, URL: url, Err: fmt.Errorf("status 404")}
}

// FailDecode makes url fail at the decode stage
func (m *MockLoader) FailDecode(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[url] = &imageio.LoadError{Stage: imageio.StageDecode, URL: url, Err: fmt.Errorf("unknown format")}
}

// Calls returns the requested URLs in order
func (m *MockLoader) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Load returns the registered image. Unknown URLs fail to download.
func (m *MockLoader) Load(_ context.Context, name, url string) (*imageio.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	if err, ok := m.errors[url]; ok {
		return nil, err
	}
	img, ok := m.images[url]
	if !ok {
		return nil, &imageio.LoadError{Stage: imageio.StageDownload, URL: url, Err: fmt.Errorf("not found")}
	}
	return &imageio.Image{Name: name, Data: []byte(url), Decoded: img, Format: "mock"}, nil
}

// MockFaceExtractor is a mock implementation of pipeline.FaceExtractor keyed
// by image name.
type MockFaceExtractor struct {
	mu    sync.Mutex
	faces map[string][]facematch.FaceRecord

	// Error injection
	Error      error
	ErrorFor   map[string]error
	PanicValue any
}

// NewMockFaceExtractor creates a new mock face extractor
func NewMockFaceExtractor() *MockFaceExtractor {
	return &MockFaceExtractor{
		faces:    make(map[string][]facematch.FaceRecord),
		ErrorFor: make(map[string]error),
	}
}

// SetFaces sets the faces detected in the image called name
func (m *MockFaceExtractor) SetFaces(name string, faces ...facematch.FaceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces[name] = faces
}

// ExtractFaces returns the faces set for img.Name
func (m *MockFaceExtractor) ExtractFaces(_ context.Context, img *imageio.Image) ([]facematch.FaceRecord, error) {
	if m.PanicValue != nil {
		panic(m.PanicValue)
	}
	if m.Error != nil {
		return nil, m.Error
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ErrorFor[img.Name]; err != nil {
		return nil, err
	}
	return m.faces[img.Name], nil
}

// MockObjectDetector is a mock implementation of pipeline.ObjectDetector
// keyed by image name.
type MockObjectDetector struct {
	mu      sync.Mutex
	objects map[string][]fingerprint.Object
	opts    []fingerprint.DetectOptions

	// Error injection
	Error error
}

// NewMockObjectDetector creates a new mock object detector
func NewMockObjectDetector() *MockObjectDetector {
	return &MockObjectDetector{objects: make(map[string][]fingerprint.Object)}
}

// SetObjects sets the objects detected in the image called name
func (m *MockObjectDetector) SetObjects(name string, objects ...fingerprint.Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = objects
}

// Options returns the detection options of every call
func (m *MockObjectDetector) Options() []fingerprint.DetectOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fingerprint.DetectOptions(nil), m.opts...)
}

// DetectObjects returns the objects set for img.Name
func (m *MockObjectDetector) DetectObjects(_ context.Context, img *imageio.Image, opts fingerprint.DetectOptions) ([]fingerprint.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = append(m.opts, opts)
	if m.Error != nil {
		return nil, m.Error
	}
	return m.objects[img.Name], nil
}

// MockEmbedder is a mock implementation of pipeline.ImageEmbedder keyed by
// image name.
type MockEmbedder struct {
	mu         sync.Mutex
	embeddings map[string]vectors.Embedding

	// Error injection
	ErrorFor map[string]error
}

// NewMockEmbedder creates a new mock embedder
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		embeddings: make(map[string]vectors.Embedding),
		ErrorFor:   make(map[string]error),
	}
}

// SetEmbedding sets the embedding of the image called name
func (m *MockEmbedder) SetEmbedding(name string, emb vectors.Embedding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings[name] = emb
}

// EmbedImage returns the embedding set for img.Name
func (m *MockEmbedder) EmbedImage(_ context.Context, img *imageio.Image) (vectors.Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ErrorFor[img.Name]; err != nil {
		return nil, err
	}
	emb, ok := m.embeddings[img.Name]
	if !ok {
		return nil, fmt.Errorf("no embedding for %s", img.Name)
	}
	return emb, nil
}

// RenderCall records one Render invocation.
type RenderCall struct {
	ImageName   string
	Annotations annotate.Annotations
	WithBase64  bool
}

// MockRenderer is a mock implementation of pipeline.Renderer
type MockRenderer struct {
	mu    sync.Mutex
	calls []RenderCall

	// Error injection
	Error error
}

// Calls returns every Render invocation in order
func (m *MockRenderer) Calls() []RenderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RenderCall(nil), m.calls...)
}

// Render records the call and returns a fake output
func (m *MockRenderer) Render(imageName string, _ image.Image, a annotate.Annotations, withBase64 bool) (*annotate.Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, RenderCall{ImageName: imageName, Annotations: a, WithBase64: withBase64})
	if m.Error != nil {
		return nil, m.Error
	}
	out := &annotate.Output{
		Path:     "/tmp/" + annotate.FileName(imageName),
		Filename: annotate.FileName(imageName),
	}
	if withBase64 {
		out.Base64 = "base64:" + imageName
	}
	return out, nil
}

// Event is one recorded job status transition.
type Event struct {
	Status    string
	Message   string
	Total     int
	Processed int
	Result    any
}

// MockReporter is a mock implementation of pipeline.ProgressReporter
type MockReporter struct {
	mu     sync.Mutex
	events []Event

	// Error injection, returned from every call
	Error error
}

// Events returns the recorded transitions in order
func (m *MockReporter) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func (m *MockReporter) record(e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.Error
}

// Start records a STARTED event
func (m *MockReporter) Start(_ context.Context, message string, total int) error {
	return m.record(Event{Status: "STARTED", Message: message, Total: total})
}

// Progress records a PROCESSING event
func (m *MockReporter) Progress(_ context.Context, message string, total, processed int) error {
	return m.record(Event{Status: "PROCESSING", Message: message, Total: total, Processed: processed})
}

// Complete records a COMPLETED event
func (m *MockReporter) Complete(_ context.Context, message string, total, processed int, result any) error {
	return m.record(Event{Status: "COMPLETED", Message: message, Total: total, Processed: processed, Result: result})
}

// Fail records a FAILED event
func (m *MockReporter) Fail(_ context.Context, message string) error {
	return m.record(Event{Status: "FAILED", Message: message})
}
