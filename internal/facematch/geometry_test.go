package facematch

import (
	"math"
	"testing"
)

func TestBBox_IoU(t *testing.T) {
	tests := []struct {
		name     string
		bbox1    BBox
		bbox2    BBox
		expected float64
	}{
		{
			name:     "identical boxes",
			bbox1:    BBox{0, 0, 10, 10},
			bbox2:    BBox{0, 0, 10, 10},
			expected: 1.0,
		},
		{
			name:     "no overlap",
			bbox1:    BBox{0, 0, 10, 10},
			bbox2:    BBox{20, 20, 30, 30},
			expected: 0.0,
		},
		{
			name:     "partial overlap",
			bbox1:    BBox{0, 0, 10, 10},
			bbox2:    BBox{5, 5, 15, 15},
			expected: 25.0 / 175.0, // intersection=25, union=100+100-25=175
		},
		{
			name:     "one inside other",
			bbox1:    BBox{0, 0, 20, 20},
			bbox2:    BBox{5, 5, 15, 15},
			expected: 100.0 / 400.0,
		},
		{
			name:     "zero boxes",
			bbox1:    BBox{},
			bbox2:    BBox{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.bbox1.IoU(tt.bbox2)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("IoU(%v, %v) = %v, want %v", tt.bbox1, tt.bbox2, result, tt.expected)
			}
		})
	}
}

func TestBBox_Clip(t *testing.T) {
	tests := []struct {
		name     string
		bbox     BBox
		width    int
		height   int
		expected BBox
		area     int
	}{
		{"inside", BBox{10, 10, 20, 30}, 100, 100, BBox{10, 10, 20, 30}, 200},
		{"overflowing", BBox{-5, -5, 120, 50}, 100, 40, BBox{0, 0, 100, 40}, 4000},
		{"fully outside", BBox{150, 150, 200, 200}, 100, 100, BBox{100, 100, 100, 100}, 0},
		{"inverted", BBox{30, 30, 10, 10}, 100, 100, BBox{30, 30, 10, 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clipped := tt.bbox.Clip(tt.width, tt.height)
			if clipped != tt.expected {
				t.Errorf("Clip = %v, want %v", clipped, tt.expected)
			}
			if clipped.Area() != tt.area {
				t.Errorf("Area = %d, want %d", clipped.Area(), tt.area)
			}
		})
	}
}

func TestBBoxFromFloats(t *testing.T) {
	if got := BBoxFromFloats([]float64{10.9, 20.1, 30.5, 40.99}); got != (BBox{10, 20, 30, 40}) {
		t.Errorf("unexpected truncation: %v", got)
	}
	if got := BBoxFromFloats([]float64{1, 2, 3}); got != (BBox{}) {
		t.Errorf("expected zero box for short input, got %v", got)
	}
}

func TestLargest(t *testing.T) {
	faces := []FaceRecord{
		{BBox: BBox{0, 0, 10, 10}},
		{BBox: BBox{0, 0, 50, 50}},
		{BBox: BBox{50, 50, 100, 100}},
	}

	// The second and third faces tie at 2500 px; the earlier one wins.
	if got := Largest(faces, 200, 200); got != 1 {
		t.Errorf("Largest = %d, want 1", got)
	}

	// Clipping shrinks the third face below the first.
	clipped := []FaceRecord{
		{BBox: BBox{0, 0, 20, 20}},
		{BBox: BBox{95, 95, 300, 300}},
	}
	if got := Largest(clipped, 100, 100); got != 0 {
		t.Errorf("Largest after clipping = %d, want 0", got)
	}

	if got := Largest(nil, 100, 100); got != -1 {
		t.Errorf("Largest(nil) = %d, want -1", got)
	}
}
