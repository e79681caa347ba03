package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/pipeline/mock"
)

func TestValidateFace(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		setup     func(f *fixture)
		wantValid bool
		wantCode  facematch.ValidationCode
	}{
		{
			name:     "download failed",
			url:      "http://img/404.jpg",
			setup:    func(*fixture) {},
			wantCode: facematch.CodeDownloadFailed,
		},
		{
			name: "decode failed",
			url:  "http://img/broken.jpg",
			setup: func(f *fixture) {
				f.loader.FailDecode("http://img/broken.jpg")
			},
			wantCode: facematch.CodeImageLoadFailed,
		},
		{
			name: "detector error",
			url:  "http://img/me.jpg",
			setup: func(f *fixture) {
				f.loader.AddImage("http://img/me.jpg", mock.UniformImage(200, 200, 100))
				f.faces.Error = errors.New("boom")
			},
			wantCode: facematch.CodeFaceDetectionError,
		},
		{
			name: "no face",
			url:  "http://img/me.jpg",
			setup: func(f *fixture) {
				f.loader.AddImage("http://img/me.jpg", mock.UniformImage(200, 200, 100))
			},
			wantCode: facematch.CodeNoFaceDetected,
		},
		{
			name: "valid",
			url:  "http://img/me.jpg",
			setup: func(f *fixture) {
				f.loader.AddImage("http://img/me.jpg", mock.UniformImage(200, 200, 100))
				f.faces.SetFaces("jana", faceAt(facematch.BBox{10, 10, 150, 160}, 3, 4))
			},
			wantValid: true,
			wantCode:  facematch.CodeSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, f := newTestAnalyzer()
			tt.setup(f)

			v := a.ValidateFace(context.Background(), tt.url, "jana", 50)
			if v.IsValid != tt.wantValid || v.ErrorCode != tt.wantCode {
				t.Errorf("got valid=%v code=%s (%s), want valid=%v code=%s",
					v.IsValid, v.ErrorCode, v.Message, tt.wantValid, tt.wantCode)
			}
		})
	}
}
