package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/photo-analyzer/internal/annotate"
	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/fingerprint"
	"github.com/kozaktomas/photo-analyzer/internal/imageio"
	"github.com/kozaktomas/photo-analyzer/internal/quality"
)

// Integration runs one tagging batch as a tracked job: STARTED, a PROCESSING
// update per analyzed image, then COMPLETED with the result or FAILED with
// the batch-level error.
func (a *Analyzer) Integration(ctx context.Context, req IntegrationRequest, rep ProgressReporter) (*BatchResult, error) {
	rep = reporterOrNoop(rep)
	total := len(req.SourceImages)
	logReport(rep.Start(ctx, "job started", total))

	result, processed, err := a.RunIntegration(ctx, req, rep)
	if err != nil {
		slog.Error("pipeline: integration failed", "error", err)
		logReport(rep.Fail(context.WithoutCancel(ctx), err.Error()))
		return nil, err
	}

	logReport(rep.Complete(ctx, "job completed", total, processed, result))
	return result, nil
}

// RunIntegration builds the reference identities from req.TargetFaces and
// analyzes every source image in order. Images that cannot be fetched or
// decoded become error entries and do not count as processed. Failures of the
// face extractor abort the batch. It returns the batch result and the number
// of successfully analyzed images.
func (a *Analyzer) RunIntegration(ctx context.Context, req IntegrationRequest, rep ProgressReporter) (result *BatchResult, processed int, err error) {
	rep = reporterOrNoop(rep)
	defer recoverPanic(&err)

	refs, err := a.loadReferences(ctx, req.TargetFaces)
	if err != nil {
		return nil, 0, err
	}

	total := len(req.SourceImages)
	if len(refs) == 0 {
		if req.RequireReferences {
			return nil, 0, ErrNoReferences
		}
		logReport(rep.Progress(ctx, ErrNoReferences.Error(), total, 0))
	}

	matcher := facematch.NewMatcher(refs, req.DistanceThreshold)
	results := make([]ImageAnalysis, 0, total)

	for idx, src := range req.SourceImages {
		if err := ctx.Err(); err != nil {
			return nil, processed, err
		}

		analysis, ok, err := a.analyzeSource(ctx, req, matcher, idx, src)
		if err != nil {
			return nil, processed, err
		}
		results = append(results, analysis)
		if !ok {
			continue
		}

		processed++
		logReport(rep.Progress(ctx, fmt.Sprintf("image %d/%d analyzed", idx+1, total), total, processed))
	}

	tagged := matcher.TaggedImages()
	return &BatchResult{
		Status:               StatusSuccess,
		DistanceThreshold:    req.DistanceThreshold,
		TargetPersons:        matcher.Names(),
		Results:              results,
		TaggedImagesByPerson: tagged,
		TaggedImages:         tagged,
		Summary:              Summarize(results),
	}, processed, nil
}

// loadReferences skips targets without a URL, targets that fail to load and
// targets without faces.
func (a *Analyzer) loadReferences(ctx context.Context, targets []ImageRef) ([]facematch.ReferenceIdentity, error) {
	var refs []facematch.ReferenceIdentity
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if target.URL == "" {
			continue
		}

		name := target.Name
		if name == "" {
			name = facematch.DefaultPersonName
		}

		img, err := a.loader.Load(ctx, name, target.URL)
		if err != nil {
			slog.Info("pipeline: skipping target face", "name", name, "error", err)
			continue
		}

		faces, err := a.faces.ExtractFaces(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("face extraction failed for target %s: %w", name, err)
		}
		if len(faces) == 0 {
			slog.Info("pipeline: no face in target image", "name", name)
			continue
		}

		refs = append(refs, facematch.BuildReferences(name, faces)...)
	}
	return refs, nil
}

// analyzeSource returns ok=false for error entries.
func (a *Analyzer) analyzeSource(ctx context.Context, req IntegrationRequest, matcher *facematch.Matcher, idx int, src ImageRef) (ImageAnalysis, bool, error) {
	name := imageName(src.Name, idx)
	if src.URL == "" {
		return ImageAnalysis{ImageName: name, Error: ErrMsgURLRequired}, false, nil
	}

	img, err := a.loader.Load(ctx, name, src.URL)
	if err != nil {
		return ImageAnalysis{ImageName: name, Error: loadErrorMessage(err)}, false, nil
	}

	objects := []fingerprint.Object{}
	if !req.FacesOnly {
		detected, err := a.objects.DetectObjects(ctx, img, req.Detection)
		if err != nil {
			slog.Warn("pipeline: object detection failed", "image", name, "error", err)
		} else if detected != nil {
			objects = detected
		}
	}

	faces, err := a.faces.ExtractFaces(ctx, img)
	if err != nil {
		return ImageAnalysis{}, false, fmt.Errorf("face extraction failed for %s: %w", name, err)
	}

	matches := []facematch.MatchResult{}
	if len(faces) > 0 && matcher.Len() > 0 {
		matches = matcher.MatchImage(name, faces)
	}

	analysis := ImageAnalysis{
		ImageName:  name,
		FoundFaces: matches,
		TotalFaces: len(faces),
		Objects:    objects,
		facesOnly:  req.FacesOnly,
	}
	if !req.FacesOnly {
		q := quality.Score(img.Decoded, faces, req.BlurThreshold)
		analysis.IsBlur = q.IsBlur
		analysis.Sharpness = q.Sharpness
		analysis.HasFace = q.HasFace
	}

	a.render(&analysis, img, req.ReturnTaggedImages)
	return analysis, true, nil
}

// render saves an annotated copy when the image has anything to show.
// Failures are logged and leave the analysis without tagged image fields.
func (a *Analyzer) render(analysis *ImageAnalysis, img *imageio.Image, withBase64 bool) {
	if a.renderer == nil {
		return
	}

	var ann annotate.Annotations
	for _, obj := range analysis.Objects {
		ann.Objects = append(ann.Objects, annotate.Label{
			BBox:    obj.BBox,
			Caption: fmt.Sprintf("%s %.2f", obj.Label, obj.Conf),
		})
	}
	for _, match := range analysis.FoundFaces {
		ann.Faces = append(ann.Faces, annotate.Label{
			BBox:    match.BBox,
			Caption: fmt.Sprintf("%s (%.2f)", match.PersonName, match.Distance),
		})
	}
	ann.Blurred = analysis.IsBlur
	if ann.Empty() {
		return
	}

	out, err := a.renderer.Render(analysis.ImageName, img.Decoded, ann, withBase64)
	if err != nil {
		slog.Warn("pipeline: failed to render tagged image", "image", analysis.ImageName, "error", err)
		return
	}
	analysis.TaggedPath = out.Path
	analysis.TaggedFile = out.Filename
	analysis.TaggedBase64 = out.Base64
}

func loadErrorMessage(err error) string {
	var loadErr *imageio.LoadError
	if errors.As(err, &loadErr) && loadErr.Stage == imageio.StageDecode {
		return ErrMsgLoadFailed
	}
	return ErrMsgDownloadFailed
}
