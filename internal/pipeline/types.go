package pipeline

import (
	"encoding/json"

	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/fingerprint"
	"github.com/kozaktomas/photo-analyzer/internal/grouping"
)

// StatusSuccess is the status field of every successful batch result.
const StatusSuccess = "success"

// Per-image error reasons recorded in results.
const (
	ErrMsgURLRequired    = "URL is required"
	ErrMsgDownloadFailed = "image download failed"
	ErrMsgLoadFailed     = "image load failed"
)

// ImageRef points at one remote image.
type ImageRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// IntegrationRequest describes one identity tagging batch with object
// detection and blur screening.
type IntegrationRequest struct {
	TargetFaces        []ImageRef
	SourceImages       []ImageRef
	DistanceThreshold  float64
	BlurThreshold      float64
	Detection          fingerprint.DetectOptions
	ReturnTaggedImages bool

	// FacesOnly skips object detection and blur screening.
	FacesOnly bool
	// RequireReferences fails the batch with ErrNoReferences when no
	// reference face could be recognised.
	RequireReferences bool
}

// ImageAnalysis is the result for one source image. When Error is set the
// image could not be loaded and only ImageName and Error are serialized.
type ImageAnalysis struct {
	ImageName    string                  `json:"image_name"`
	FoundFaces   []facematch.MatchResult `json:"found_faces"`
	TotalFaces   int                     `json:"total_faces"`
	Objects      []fingerprint.Object    `json:"objects"`
	IsBlur       bool                    `json:"is_blur"`
	Sharpness    float64                 `json:"laplacian_variance"`
	HasFace      bool                    `json:"has_face"`
	TaggedPath   string                  `json:"tagged_image_path,omitempty"`
	TaggedFile   string                  `json:"tagged_image_filename,omitempty"`
	TaggedBase64 string                  `json:"tagged_image_base64,omitempty"`
	Error        string                  `json:"error,omitempty"`

	facesOnly bool
}

type errorEntry struct {
	ImageName string `json:"image_name"`
	Error     string `json:"error"`
}

type facesOnlyEntry struct {
	ImageName    string                  `json:"image_name"`
	FoundFaces   []facematch.MatchResult `json:"found_faces"`
	TotalFaces   int                     `json:"total_faces"`
	TaggedPath   string                  `json:"tagged_image_path,omitempty"`
	TaggedFile   string                  `json:"tagged_image_filename,omitempty"`
	TaggedBase64 string                  `json:"tagged_image_base64,omitempty"`
}

// MarshalJSON emits the error shape for failed images and leaves out the
// detection and quality fields for face-only runs.
func (a ImageAnalysis) MarshalJSON() ([]byte, error) {
	if a.Error != "" {
		return json.Marshal(errorEntry{ImageName: a.ImageName, Error: a.Error})
	}
	if a.facesOnly {
		return json.Marshal(facesOnlyEntry{
			ImageName:    a.ImageName,
			FoundFaces:   a.FoundFaces,
			TotalFaces:   a.TotalFaces,
			TaggedPath:   a.TaggedPath,
			TaggedFile:   a.TaggedFile,
			TaggedBase64: a.TaggedBase64,
		})
	}
	type plain ImageAnalysis
	return json.Marshal(plain(a))
}

// BatchSummary totals an integration batch.
type BatchSummary struct {
	TotalSourceImages int `json:"total_source_images"`
	ImagesWithFaces   int `json:"images_with_faces"`
	TotalMatchedFaces int `json:"total_matched_faces"`
}

// BatchResult is the outcome of an integration batch. TaggedImages mirrors
// TaggedImagesByPerson for older clients.
type BatchResult struct {
	Status               string              `json:"status"`
	DistanceThreshold    float64             `json:"distance_threshold"`
	TargetPersons        []string            `json:"target_persons"`
	Results              []ImageAnalysis     `json:"results"`
	TaggedImagesByPerson map[string][]string `json:"tagged_images_by_person"`
	TaggedImages         map[string][]string `json:"tagged_images"`
	Summary              BatchSummary        `json:"summary"`
}

// Summarize counts images with at least one match and the total number of
// matches over results. Error entries count towards the total only.
func Summarize(results []ImageAnalysis) BatchSummary {
	s := BatchSummary{TotalSourceImages: len(results)}
	for _, r := range results {
		if len(r.FoundFaces) > 0 {
			s.ImagesWithFaces++
		}
		s.TotalMatchedFaces += len(r.FoundFaces)
	}
	return s
}

// GroupingRequest describes one near-duplicate grouping batch.
type GroupingRequest struct {
	Images              []ImageRef
	SimilarityThreshold float64
}

// GroupingResult is the outcome of a grouping batch.
type GroupingResult struct {
	Status              string           `json:"status"`
	SimilarityThreshold float64          `json:"similarity_threshold"`
	Groups              []grouping.Group `json:"groups"`
	Summary             grouping.Summary `json:"summary"`
}

// BlurAnalysis is the blur verdict for one image, or an error entry.
type BlurAnalysis struct {
	Name      string  `json:"name"`
	IsBlur    bool    `json:"is_blur"`
	Sharpness float64 `json:"laplacian_variance"`
	HasFace   bool    `json:"has_face"`
	Error     string  `json:"error,omitempty"`
}

// MarshalJSON emits only name and error for failed images.
func (b BlurAnalysis) MarshalJSON() ([]byte, error) {
	if b.Error != "" {
		return json.Marshal(struct {
			Name  string `json:"name"`
			Error string `json:"error"`
		}{b.Name, b.Error})
	}
	type plain BlurAnalysis
	return json.Marshal(plain(b))
}

// BlurSummary totals a blur screening batch.
type BlurSummary struct {
	TotalImages int `json:"total_images"`
	BlurImages  int `json:"blur_images"`
}

// BlurResult is the outcome of a blur screening batch.
type BlurResult struct {
	Status        string         `json:"status"`
	BlurThreshold float64        `json:"blur_threshold"`
	Results       []BlurAnalysis `json:"results"`
	Summary       BlurSummary    `json:"summary"`
}
