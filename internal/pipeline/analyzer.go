// Package pipeline runs analysis batches: identity tagging with object
// detection and blur screening, near-duplicate grouping, standalone blur
// screening and registration photo validation. Images in a batch are
// processed one at a time in input order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/kozaktomas/photo-analyzer/internal/annotate"
	"github.com/kozaktomas/photo-analyzer/internal/config"
	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/fingerprint"
	"github.com/kozaktomas/photo-analyzer/internal/imageio"
	"github.com/kozaktomas/photo-analyzer/internal/vectors"
)

var (
	// ErrNoReferences is returned when references are required and none of
	// the target faces could be recognised.
	ErrNoReferences = errors.New("target faces could not be recognized")
	// ErrPanic wraps a panic recovered at the batch boundary.
	ErrPanic = errors.New("panic during analysis")
)

// Loader fetches and decodes one image.
type Loader interface {
	Load(ctx context.Context, name, url string) (*imageio.Image, error)
}

// FaceExtractor detects faces and computes their embeddings.
type FaceExtractor interface {
	ExtractFaces(ctx context.Context, img *imageio.Image) ([]facematch.FaceRecord, error)
}

// ObjectDetector detects labelled objects.
type ObjectDetector interface {
	DetectObjects(ctx context.Context, img *imageio.Image, opts fingerprint.DetectOptions) ([]fingerprint.Object, error)
}

// ImageEmbedder computes whole-image embeddings.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, img *imageio.Image) (vectors.Embedding, error)
}

// Renderer saves annotated copies of images.
type Renderer interface {
	Render(imageName string, src image.Image, a annotate.Annotations, withBase64 bool) (*annotate.Output, error)
}

// ProgressReporter receives job lifecycle updates. *jobstatus.Reporter
// satisfies it.
type ProgressReporter interface {
	Start(ctx context.Context, message string, total int) error
	Progress(ctx context.Context, message string, total, processed int) error
	Complete(ctx context.Context, message string, total, processed int, result any) error
	Fail(ctx context.Context, message string) error
}

// Deps are the collaborators of an Analyzer. Objects and Renderer may be nil.
type Deps struct {
	Loader   Loader
	Faces    FaceExtractor
	Objects  ObjectDetector
	Embedder ImageEmbedder
	Renderer Renderer
}

// Analyzer runs analysis batches against its collaborators. It holds no
// per-batch state and can serve several jobs at once.
type Analyzer struct {
	loader   Loader
	faces    FaceExtractor
	objects  ObjectDetector
	embedder ImageEmbedder
	renderer Renderer
	defaults config.AnalysisDefaults
}

// New creates an analyzer. A nil object detector detects nothing.
func New(deps Deps, defaults config.AnalysisDefaults) *Analyzer {
	objects := deps.Objects
	if objects == nil {
		objects = fingerprint.NoopDetector{}
	}
	return &Analyzer{
		loader:   deps.Loader,
		faces:    deps.Faces,
		objects:  objects,
		embedder: deps.Embedder,
		renderer: deps.Renderer,
		defaults: defaults,
	}
}

// Defaults returns the thresholds requests fall back to.
func (a *Analyzer) Defaults() config.AnalysisDefaults {
	return a.defaults
}

type noopReporter struct{}

func (noopReporter) Start(context.Context, string, int) error { return nil }

func (noopReporter) Progress(context.Context, string, int, int) error { return nil }

func (noopReporter) Complete(context.Context, string, int, int, any) error { return nil }

func (noopReporter) Fail(context.Context, string) error { return nil }

func reporterOrNoop(rep ProgressReporter) ProgressReporter {
	if rep == nil {
		return noopReporter{}
	}
	return rep
}

// logReport logs tracker write failures. They never abort a batch.
func logReport(err error) {
	if err != nil {
		slog.Warn("pipeline: failed to record job status", "error", err)
	}
}

// recoverPanic turns a collaborator panic into a batch-level error.
func recoverPanic(err *error) {
	if r := recover(); r != nil {
		slog.Error("pipeline: recovered panic", "panic", r)
		*err = fmt.Errorf("%w: %v", ErrPanic, r)
	}
}

// imageName returns name, or image_{idx} when it is empty.
func imageName(name string, idx int) string {
	if name == "" {
		return fmt.Sprintf("image_%d", idx)
	}
	return name
}
