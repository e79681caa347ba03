package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/imageio"
)

// ValidateFace checks whether the photo at url can be used to register
// personName. Every failure is reported through the returned Validation.
func (a *Analyzer) ValidateFace(ctx context.Context, url, personName string, minFaceSize int) facematch.Validation {
	if personName == "" {
		personName = "user"
	}

	img, err := a.loader.Load(ctx, personName, url)
	if err != nil {
		var loadErr *imageio.LoadError
		if errors.As(err, &loadErr) && loadErr.Stage == imageio.StageDecode {
			return facematch.ValidationFailure(facematch.CodeImageLoadFailed, "the image could not be read")
		}
		return facematch.ValidationFailure(facematch.CodeDownloadFailed, "failed to download the image")
	}

	faces, err := a.faces.ExtractFaces(ctx, img)
	if err != nil {
		slog.Warn("pipeline: face detection failed", "person", personName, "error", err)
		return facematch.ValidationFailure(facematch.CodeFaceDetectionError,
			fmt.Sprintf("face detection failed: %v", err))
	}

	v := facematch.ValidateRegistration(faces, minFaceSize)
	slog.Debug("pipeline: face validation", "person", personName, "valid", v.IsValid, "code", v.ErrorCode)
	return v
}
