package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/pipeline/mock"
)

func TestDetectBlur(t *testing.T) {
	a, f := newTestAnalyzer()
	f.loader.AddImage("http://img/sharp.jpg", mock.CheckerImage(30, 30))
	f.loader.AddImage("http://img/flat.jpg", mock.UniformImage(30, 30, 200))
	f.loader.AddImage("http://img/face.jpg", mock.CheckerImage(30, 30))
	f.loader.AddImage("http://img/crash.jpg", mock.CheckerImage(30, 30))
	f.loader.FailDecode("http://img/broken.jpg")
	f.faces.SetFaces("face", faceAt(facematch.BBox{5, 5, 25, 25}, 1, 0))
	f.faces.ErrorFor["crash"] = errors.New("model crashed")

	result, err := a.DetectBlur(context.Background(), []ImageRef{
		{URL: "http://img/sharp.jpg", Name: "sharp"},
		{URL: "http://img/flat.jpg", Name: "flat"},
		{URL: "http://img/face.jpg", Name: "face"},
		{URL: "http://img/broken.jpg", Name: "broken"},
		{URL: ""},
		{URL: "http://img/crash.jpg", Name: "crash"},
	}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Summary != (BlurSummary{TotalImages: 6, BlurImages: 1}) {
		t.Errorf("summary = %+v", result.Summary)
	}
	if result.BlurThreshold != 100 {
		t.Errorf("threshold = %v", result.BlurThreshold)
	}

	tests := []struct {
		idx     int
		name    string
		blur    bool
		hasFace bool
		errMsg  string
	}{
		{0, "sharp", false, false, ""},
		{1, "flat", true, false, ""},
		{2, "face", false, true, ""},
		{3, "broken", false, false, ErrMsgLoadFailed},
		{4, "image_4", false, false, ErrMsgURLRequired},
		{5, "crash", false, false, ErrMsgFaceDetectionFailed},
	}
	for _, tt := range tests {
		got := result.Results[tt.idx]
		if got.Name != tt.name || got.IsBlur != tt.blur || got.HasFace != tt.hasFace || got.Error != tt.errMsg {
			t.Errorf("result[%d] = %+v", tt.idx, got)
		}
	}
}

func TestDetectBlur_NoImages(t *testing.T) {
	a, _ := newTestAnalyzer()
	result, err := a.DetectBlur(context.Background(), []ImageRef{}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusSuccess || len(result.Results) != 0 || result.Summary != (BlurSummary{}) {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestBlurAnalysis_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(BlurAnalysis{Name: "x", IsBlur: true, Error: ErrMsgDownloadFailed})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"name":"x","error":"image download failed"}` {
		t.Errorf("got %s", data)
	}

	data, err = json.Marshal(BlurAnalysis{Name: "y", IsBlur: true, Sharpness: 1.5})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"name":"y","is_blur":true,"laplacian_variance":1.5,"has_face":false}` {
		t.Errorf("got %s", data)
	}
}
