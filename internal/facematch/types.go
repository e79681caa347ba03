// Package facematch matches detected faces against reference identities and
// validates faces submitted for registration.
package facematch

import "github.com/kozaktomas/photo-analyzer/internal/vectors"

// DefaultPersonName is used for references submitted without a name.
const DefaultPersonName = "unknown"

// FaceRecord is one detected face with its embedding.
type FaceRecord struct {
	Embedding vectors.Embedding `json:"embedding"`
	BBox      BBox              `json:"bbox"`
	DetScore  float64           `json:"det_score,omitempty"`
}

// ReferenceIdentity is a named face embedding that probes are matched against.
type ReferenceIdentity struct {
	Name      string            `json:"name"`
	Embedding vectors.Embedding `json:"-"`
}

// MatchResult is an accepted match for a single probe face.
type MatchResult struct {
	PersonName string  `json:"person_name"`
	Distance   float64 `json:"distance"`
	BBox       BBox    `json:"bbox"`
}
