package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/photo-analyzer/internal/grouping"
)

// Grouping runs one grouping batch as a tracked job.
func (a *Analyzer) Grouping(ctx context.Context, req GroupingRequest, rep ProgressReporter) (*GroupingResult, error) {
	rep = reporterOrNoop(rep)
	logReport(rep.Start(ctx, "job started", len(req.Images)))

	result, err := a.RunGrouping(ctx, req, rep)
	if err != nil {
		slog.Error("pipeline: grouping failed", "error", err)
		logReport(rep.Fail(context.WithoutCancel(ctx), err.Error()))
		return nil, err
	}

	n := result.Summary.TotalImages
	logReport(rep.Complete(ctx, "job completed", n, n, result))
	return result, nil
}

// RunGrouping embeds every image and groups near-duplicates. Images that
// cannot be loaded or embedded are logged and left out of the batch.
func (a *Analyzer) RunGrouping(ctx context.Context, req GroupingRequest, rep ProgressReporter) (result *GroupingResult, err error) {
	rep = reporterOrNoop(rep)
	defer recoverPanic(&err)

	items := make([]grouping.Item, 0, len(req.Images))
	for idx, ref := range req.Images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := imageName(ref.Name, idx)
		if ref.URL == "" {
			slog.Info("pipeline: skipping image without url", "image", name)
			continue
		}

		img, err := a.loader.Load(ctx, name, ref.URL)
		if err != nil {
			slog.Info("pipeline: skipping image", "image", name, "error", err)
			continue
		}

		emb, err := a.embedder.EmbedImage(ctx, img)
		if err != nil {
			slog.Warn("pipeline: embedding failed", "image", name, "error", err)
			continue
		}
		items = append(items, grouping.Item{Name: name, Embedding: emb})
	}

	total := len(items)
	logReport(rep.Progress(ctx, "image embeddings created", total, 0))

	groups := grouping.Cluster(items, req.SimilarityThreshold, grouping.WithProgress(func(seed, total int) {
		logReport(rep.Progress(ctx, fmt.Sprintf("image %d/%d grouped", seed+1, total), total, seed+1))
	}))

	return &GroupingResult{
		Status:              StatusSuccess,
		SimilarityThreshold: req.SimilarityThreshold,
		Groups:              groups,
		Summary:             grouping.Summarize(groups, total),
	}, nil
}
