package pipeline

import (
	"context"
	"log/slog"

	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/quality"
)

// ErrMsgFaceDetectionFailed is recorded when the face extractor fails on an
// image during blur screening.
const ErrMsgFaceDetectionFailed = "face detection failed"

// DetectBlur scores every image for blur. Failures are recorded per image.
// It returns an error only when ctx is done.
func (a *Analyzer) DetectBlur(ctx context.Context, images []ImageRef, blurThreshold float64) (*BlurResult, error) {
	results := make([]BlurAnalysis, 0, len(images))
	blurred := 0
	for idx, ref := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := a.screen(ctx, imageName(ref.Name, idx), ref.URL, blurThreshold)
		if entry.Error == "" && entry.IsBlur {
			blurred++
		}
		results = append(results, entry)
	}

	return &BlurResult{
		Status:        StatusSuccess,
		BlurThreshold: blurThreshold,
		Results:       results,
		Summary: BlurSummary{
			TotalImages: len(images),
			BlurImages:  blurred,
		},
	}, nil
}

func (a *Analyzer) screen(ctx context.Context, name, url string, blurThreshold float64) BlurAnalysis {
	if url == "" {
		return BlurAnalysis{Name: name, Error: ErrMsgURLRequired}
	}

	img, err := a.loader.Load(ctx, name, url)
	if err != nil {
		return BlurAnalysis{Name: name, Error: loadErrorMessage(err)}
	}

	var faces []facematch.FaceRecord
	if a.faces != nil {
		faces, err = a.faces.ExtractFaces(ctx, img)
		if err != nil {
			slog.Warn("pipeline: face detection failed", "image", name, "error", err)
			return BlurAnalysis{Name: name, Error: ErrMsgFaceDetectionFailed}
		}
	}

	q := quality.Score(img.Decoded, faces, blurThreshold)
	return BlurAnalysis{
		Name:      name,
		IsBlur:    q.IsBlur,
		Sharpness: q.Sharpness,
		HasFace:   q.HasFace,
	}
}
