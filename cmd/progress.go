package cmd

import (
	"context"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/kozaktomas/photo-analyzer/internal/pipeline"
)

// barReporter draws batch progress on stderr and forwards every update to
// next when set.
type barReporter struct {
	bar   *progressbar.ProgressBar
	quiet bool
	next  pipeline.ProgressReporter
}

func newBarReporter(quiet bool, next pipeline.ProgressReporter) *barReporter {
	return &barReporter{quiet: quiet, next: next}
}

func (r *barReporter) Start(ctx context.Context, message string, total int) error {
	if !r.quiet {
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(message),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}
	if r.next != nil {
		return r.next.Start(ctx, message, total)
	}
	return nil
}

func (r *barReporter) Progress(ctx context.Context, message string, total, processed int) error {
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Set(processed)
	}
	if r.next != nil {
		return r.next.Progress(ctx, message, total, processed)
	}
	return nil
}

func (r *barReporter) Complete(ctx context.Context, message string, total, processed int, result any) error {
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Set(processed)
		_ = r.bar.Finish()
	}
	if r.next != nil {
		return r.next.Complete(ctx, message, total, processed, result)
	}
	return nil
}

func (r *barReporter) Fail(ctx context.Context, message string) error {
	if r.bar != nil {
		_ = r.bar.Clear()
	}
	if r.next != nil {
		return r.next.Fail(ctx, message)
	}
	return nil
}
