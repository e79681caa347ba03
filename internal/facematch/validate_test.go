package facematch

import (
	"math"
	"testing"

	"github.com/kozaktomas/photo-analyzer/internal/vectors"
)

func TestValidateRegistration(t *testing.T) {
	big := BBox{0, 0, 100, 120}
	small := BBox{0, 0, 40, 100}

	tests := []struct {
		name      string
		faces     []FaceRecord
		code      ValidationCode
		valid     bool
		faceCount int
	}{
		{
			name:  "no faces",
			faces: nil,
			code:  CodeNoFaceDetected,
		},
		{
			name: "two faces",
			faces: []FaceRecord{
				{Embedding: vectors.Embedding{1, 0}, BBox: big},
				{Embedding: vectors.Embedding{0, 1}, BBox: big},
			},
			code:      CodeMultipleFaces,
			faceCount: 2,
		},
		{
			name:      "missing embedding",
			faces:     []FaceRecord{{BBox: big}},
			code:      CodeNoEmbedding,
			faceCount: 1,
		},
		{
			name:      "face too small",
			faces:     []FaceRecord{{Embedding: vectors.Embedding{1, 0}, BBox: small}},
			code:      CodeFaceTooSmall,
			faceCount: 1,
		},
		{
			name:      "nan embedding",
			faces:     []FaceRecord{{Embedding: vectors.Embedding{float32(math.NaN()), 1}, BBox: big}},
			code:      CodeInvalidEmbedding,
			faceCount: 1,
		},
		{
			name:      "valid",
			faces:     []FaceRecord{{Embedding: vectors.Embedding{3, 4}, BBox: big}},
			code:      CodeSuccess,
			valid:     true,
			faceCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateRegistration(tt.faces, 50)
			if v.ErrorCode != tt.code {
				t.Errorf("ErrorCode = %s, want %s", v.ErrorCode, tt.code)
			}
			if v.IsValid != tt.valid {
				t.Errorf("IsValid = %v, want %v", v.IsValid, tt.valid)
			}
			if v.FaceCount != tt.faceCount {
				t.Errorf("FaceCount = %d, want %d", v.FaceCount, tt.faceCount)
			}
			if v.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestValidateRegistration_NormalizesEmbedding(t *testing.T) {
	v := ValidateRegistration([]FaceRecord{{Embedding: vectors.Embedding{3, 4}, BBox: BBox{10, 10, 80, 90}}}, 0)
	if !v.IsValid {
		t.Fatalf("expected valid, got %s: %s", v.ErrorCode, v.Message)
	}
	if math.Abs(v.Embedding.Norm()-1) > 1e-6 {
		t.Errorf("expected unit embedding, norm = %v", v.Embedding.Norm())
	}
	if v.FaceBBox == nil || *v.FaceBBox != (BBox{10, 10, 80, 90}) {
		t.Errorf("unexpected bbox %v", v.FaceBBox)
	}
}
