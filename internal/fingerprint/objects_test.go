package fingerprint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/photo-analyzer/internal/facematch"
)

func TestObjectClient_DetectObjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse form: %v", err)
			return
		}
		if got := r.FormValue("conf"); got != "0.4" {
			t.Errorf("conf = %q, want 0.4", got)
		}
		if got := r.FormValue("imgsz"); got != "640" {
			t.Errorf("imgsz = %q, want 640", got)
		}
		_, _ = w.Write([]byte(`{"objects":[{"label":"dog","conf":0.87,"bbox":[5.5,6,50,60]}]}`))
	}))
	defer srv.Close()

	objects, err := NewObjectClient(srv.URL, srv.Client(), 0).DetectObjects(context.Background(), testImage(), DetectOptions{Conf: -1})
	if err != nil {
		t.Fatalf("DetectObjects failed: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
	want := Object{Label: "dog", Conf: 0.87, BBox: facematch.BBox{5, 6, 50, 60}}
	if objects[0] != want {
		t.Errorf("object = %+v, want %+v", objects[0], want)
	}
}

func TestDetectOptions_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   DetectOptions
		want DetectOptions
	}{
		{"explicit values kept", DetectOptions{Conf: 0.25, ImgSize: 320}, DetectOptions{Conf: 0.25, ImgSize: 320}},
		{"zero confidence kept", DetectOptions{Conf: 0, ImgSize: 320}, DetectOptions{Conf: 0, ImgSize: 320}},
		{"negative confidence replaced", DetectOptions{Conf: -1, ImgSize: 320}, DetectOptions{Conf: DefaultDetectionConf, ImgSize: 320}},
		{"zero size replaced", DetectOptions{Conf: 0.5}, DetectOptions{Conf: 0.5, ImgSize: DefaultDetectionImgSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestObjectClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	start := time.Now()
	_, err := NewObjectClient(srv.URL, srv.Client(), 50*time.Millisecond).DetectObjects(context.Background(), testImage(), DetectOptions{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("call took %v", elapsed)
	}
}

func TestObjectClient_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "detector down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewObjectClient(srv.URL, srv.Client(), 0).DetectObjects(context.Background(), testImage(), DetectOptions{Conf: 0.5, ImgSize: 320}); err == nil {
		t.Error("expected error")
	}
}

func TestNoopDetector(t *testing.T) {
	objects, err := NoopDetector{}.DetectObjects(context.Background(), testImage(), DetectOptions{})
	if err != nil || objects == nil || len(objects) != 0 {
		t.Errorf("NoopDetector = %v, %v", objects, err)
	}
}
