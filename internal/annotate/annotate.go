// Package annotate draws detection results onto a copy of an image and saves
// it as a JPEG.
package annotate

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kozaktomas/photo-analyzer/internal/facematch"
)

const jpegQuality = 90

var (
	objectColor = color.RGBA{R: 0, G: 128, B: 255, A: 255}
	faceColor   = color.RGBA{R: 0, G: 220, B: 0, A: 255}
	blurColor   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	white       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Label is one box to draw with a caption above it.
type Label struct {
	BBox    facematch.BBox
	Caption string
}

// Annotations lists everything drawn on one image.
type Annotations struct {
	Objects []Label
	Faces   []Label
	Blurred bool
}

// Empty reports whether there is nothing to draw.
func (a Annotations) Empty() bool {
	return len(a.Objects) == 0 && len(a.Faces) == 0 && !a.Blurred
}

// Output describes a saved annotated image.
type Output struct {
	Path     string
	Filename string
	Base64   string
}

// Renderer writes annotated images into a directory.
type Renderer struct {
	dir string
}

// NewRenderer creates the output directory if needed.
func NewRenderer(dir string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Renderer{dir: dir}, nil
}

// Dir returns the output directory.
func (r *Renderer) Dir() string {
	return r.dir
}

// FileName returns the output file name used for an image.
func FileName(imageName string) string {
	return "tagged_" + facematch.SafeFileName(imageName) + ".jpg"
}

// Render draws a onto a copy of src and saves it as tagged_<name>.jpg. When
// withBase64 is set the JPEG is also returned base64 encoded.
func (r *Renderer) Render(imageName string, src image.Image, a Annotations, withBase64 bool) (*Output, error) {
	canvas := Draw(src, a)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}

	filename := FileName(imageName)
	path := filepath.Join(r.dir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write annotated image: %w", err)
	}

	out := &Output{Path: path, Filename: filename}
	if withBase64 {
		out.Base64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	return out, nil
}

// Draw returns an RGBA copy of src with a drawn on it.
func Draw(src image.Image, a Annotations) *image.RGBA {
	b := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Src)

	for _, o := range a.Objects {
		strokeRect(canvas, o.BBox, objectColor, 2)
		caption(canvas, o.BBox, o.Caption, objectColor, 6)
	}
	for _, f := range a.Faces {
		strokeRect(canvas, f.BBox, faceColor, 2)
		caption(canvas, f.BBox, f.Caption, faceColor, 10)
	}
	if a.Blurred {
		draw.Draw(canvas, image.Rect(8, 8, 90, 36).Intersect(canvas.Bounds()), image.NewUniform(blurColor), image.Point{}, draw.Src)
		drawText(canvas, 14, 28, "BLUR", white)
	}
	return canvas
}

func strokeRect(dst *image.RGBA, box facematch.BBox, c color.Color, thickness int) {
	r := image.Rect(box[0], box[1], box[2], box[3]).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), u, image.Point{}, draw.Src)
	}
}

func caption(dst *image.RGBA, box facematch.BBox, text string, c color.Color, offset int) {
	if text == "" {
		return
	}
	y := max(basicfont.Face7x13.Ascent, box[1]-offset)
	drawText(dst, box[0], y, text, c)
}

func drawText(dst *image.RGBA, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
