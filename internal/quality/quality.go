// Package quality scores image sharpness with the variance of the Laplacian.
package quality

import (
	"image"
	"math"

	"github.com/kozaktomas/photo-analyzer/internal/facematch"
)

// DefaultBlurThreshold is the sharpness below which an image counts as blurred.
const DefaultBlurThreshold = 100.0

// Result is the quality verdict for one image.
type Result struct {
	Sharpness float64 `json:"laplacian_variance"`
	IsBlur    bool    `json:"is_blur"`
	HasFace   bool    `json:"has_face"`
}

// Score measures the sharpness of the largest face (after clipping to the
// image) or of the whole image when there are no faces. A face box that is
// empty after clipping scores 0.
func Score(img image.Image, faces []facematch.FaceRecord, blurThreshold float64) Result {
	bounds := img.Bounds()
	region := bounds

	if len(faces) > 0 {
		idx := facematch.Largest(faces, bounds.Dx(), bounds.Dy())
		box := faces[idx].BBox.Clip(bounds.Dx(), bounds.Dy())
		region = image.Rect(box[0], box[1], box[2], box[3]).Add(bounds.Min)
	}

	sharpness := 0.0
	if !region.Empty() {
		sharpness = LaplacianVariance(grayRegion(img, region))
	}

	return Result{
		Sharpness: sharpness,
		IsBlur:    sharpness < blurThreshold,
		HasFace:   len(faces) > 0,
	}
}

// LaplacianVariance returns the population variance of the 3x3 Laplacian
// response of gray. Borders are mirrored without repeating the edge pixel.
func LaplacianVariance(gray *image.Gray) float64 {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		x, y = reflect101(x, w), reflect101(y, h)
		return float64(gray.Pix[y*gray.Stride+x])
	}

	n := float64(w * h)
	response := make([]float64, 0, w*h)
	var sum float64
	for y := range h {
		for x := range w {
			v := at(x, y-1) + at(x-1, y) - 4*at(x, y) + at(x+1, y) + at(x, y+1)
			response = append(response, v)
			sum += v
		}
	}

	mean := sum / n
	var sq float64
	for _, v := range response {
		d := v - mean
		sq += d * d
	}
	return sq / n
}

// grayRegion converts r of img to 8-bit luma (BT.601), rebased to the origin.
func grayRegion(img image.Image, r image.Rectangle) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			red, green, blue, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(red>>8) + 0.587*float64(green>>8) + 0.114*float64(blue>>8)
			gray.Pix[(y-r.Min.Y)*gray.Stride+(x-r.Min.X)] = uint8(min(255, math.Round(luma)))
		}
	}
	return gray
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - 2 - i
	}
	return i
}
