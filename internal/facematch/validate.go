package facematch

import (
	"fmt"

	"github.com/kozaktomas/photo-analyzer/internal/vectors"
)

// ValidationCode classifies the outcome of a face registration check.
type ValidationCode string

const (
	CodeSuccess            ValidationCode = "SUCCESS"
	CodeDownloadFailed     ValidationCode = "DOWNLOAD_FAILED"
	CodeImageLoadFailed    ValidationCode = "IMAGE_LOAD_FAILED"
	CodeFaceDetectionError ValidationCode = "FACE_DETECTION_ERROR"
	CodeNoFaceDetected     ValidationCode = "NO_FACE_DETECTED"
	CodeMultipleFaces      ValidationCode = "MULTIPLE_FACES_DETECTED"
	CodeNoEmbedding        ValidationCode = "NO_EMBEDDING"
	CodeFaceTooSmall       ValidationCode = "FACE_TOO_SMALL"
	CodeInvalidEmbedding   ValidationCode = "INVALID_EMBEDDING"
)

// DefaultMinFaceSize is the smallest accepted face width and height in pixels.
const DefaultMinFaceSize = 50

// Validation is the result of checking a photo submitted to register a person.
type Validation struct {
	IsValid   bool              `json:"is_valid"`
	FaceCount int               `json:"face_count"`
	Embedding vectors.Embedding `json:"embedding,omitempty"`
	FaceBBox  *BBox             `json:"face_bbox"`
	ErrorCode ValidationCode    `json:"error_code"`
	Message   string            `json:"message"`
}

// ValidationFailure builds a failed validation for errors raised before any
// face was inspected (download, decode, detection).
func ValidationFailure(code ValidationCode, message string) Validation {
	return Validation{ErrorCode: code, Message: message}
}

// ValidateRegistration checks that faces holds exactly one face large enough
// to register, with a usable embedding. On success the returned embedding is
// L2-normalized.
func ValidateRegistration(faces []FaceRecord, minFaceSize int) Validation {
	if minFaceSize <= 0 {
		minFaceSize = DefaultMinFaceSize
	}

	switch {
	case len(faces) == 0:
		return Validation{
			ErrorCode: CodeNoFaceDetected,
			Message:   "no face detected, use a photo where the face is clearly visible",
		}
	case len(faces) > 1:
		return Validation{
			FaceCount: len(faces),
			ErrorCode: CodeMultipleFaces,
			Message:   fmt.Sprintf("%d faces detected, use a photo with exactly one person", len(faces)),
		}
	}

	face := faces[0]
	if len(face.Embedding) == 0 {
		return Validation{
			FaceCount: 1,
			ErrorCode: CodeNoEmbedding,
			Message:   "face features could not be extracted",
		}
	}

	bbox := face.BBox
	width, height := bbox[2]-bbox[0], bbox[3]-bbox[1]
	if width < minFaceSize || height < minFaceSize {
		return Validation{
			FaceCount: 1,
			FaceBBox:  &bbox,
			ErrorCode: CodeFaceTooSmall,
			Message:   fmt.Sprintf("face is too small (%dx%d), use a photo with a larger face", width, height),
		}
	}

	normalized := vectors.Normalize(face.Embedding)
	if !vectors.Valid(face.Embedding) || !vectors.Valid(normalized) {
		return Validation{
			FaceCount: 1,
			FaceBBox:  &bbox,
			ErrorCode: CodeInvalidEmbedding,
			Message:   "face feature vector is invalid",
		}
	}

	return Validation{
		IsValid:   true,
		FaceCount: 1,
		Embedding: normalized,
		FaceBBox:  &bbox,
		ErrorCode: CodeSuccess,
		Message:   fmt.Sprintf("face can be registered, face size: %dx%d", width, height),
	}
}
