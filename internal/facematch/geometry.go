package facematch

// BBox is a pixel bounding box in [x1, y1, x2, y2] corner format.
type BBox [4]int

// BBoxFromFloats truncates a float bounding box as reported by the embedding
// server. Anything other than four coordinates yields the zero box.
func BBoxFromFloats(f []float64) BBox {
	if len(f) != 4 {
		return BBox{}
	}
	return BBox{int(f[0]), int(f[1]), int(f[2]), int(f[3])}
}

// Width returns x2-x1, never negative.
func (b BBox) Width() int {
	return max(0, b[2]-b[0])
}

// Height returns y2-y1, never negative.
func (b BBox) Height() int {
	return max(0, b[3]-b[1])
}

// Area returns the box area in pixels. Inverted boxes have zero area.
func (b BBox) Area() int {
	return b.Width() * b.Height()
}

// Clip clamps the box to an image of the given dimensions.
func (b BBox) Clip(width, height int) BBox {
	return BBox{
		clamp(b[0], 0, width),
		clamp(b[1], 0, height),
		clamp(b[2], 0, width),
		clamp(b[3], 0, height),
	}
}

// IoU calculates Intersection over Union between two boxes.
func (b BBox) IoU(other BBox) float64 {
	x1 := max(b[0], other[0])
	y1 := max(b[1], other[1])
	x2 := min(b[2], other[2])
	y2 := min(b[3], other[3])

	if x2 <= x1 || y2 <= y1 {
		return 0 // No intersection
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := b.Area() + other.Area() - intersection
	if union <= 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// Largest returns the index of the face with the largest box area after
// clipping to the image bounds. Ties keep the earlier face. Returns -1 when
// faces is empty.
func Largest(faces []FaceRecord, width, height int) int {
	best, bestArea := -1, -1
	for i, f := range faces {
		if area := f.BBox.Clip(width, height).Area(); area > bestArea {
			best, bestArea = i, area
		}
	}
	return best
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
