package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-analyzer/internal/config"
	"github.com/kozaktomas/photo-analyzer/internal/jobstatus"
	"github.com/kozaktomas/photo-analyzer/internal/pipeline"
)

// commandContext is cancelled on Ctrl+C or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// parseImageRefs turns flag values into image references. A value may be a
// bare URL or name=URL. Query strings are not split because the name part
// may not contain a slash.
func parseImageRefs(values []string) []pipeline.ImageRef {
	refs := make([]pipeline.ImageRef, 0, len(values))
	for _, v := range values {
		if idx := strings.Index(v, "="); idx > 0 && !strings.Contains(v[:idx], "/") {
			refs = append(refs, pipeline.ImageRef{Name: v[:idx], URL: v[idx+1:]})
			continue
		}
		refs = append(refs, pipeline.ImageRef{URL: v})
	}
	return refs
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// addProgressFlags registers the flags shared by the batch commands.
func addProgressFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("quiet", false, "Do not draw a progress bar")
	cmd.Flags().String("job-id", "", "Also record progress in the job status store under this id")
}

// batchReporter builds the reporter for a batch command. With --job-id the
// progress bar also writes to the job status store; the returned close
// function releases the store.
func batchReporter(ctx context.Context, cmd *cobra.Command, cfg *config.Config, jobType jobstatus.Type) (pipeline.ProgressReporter, func(), error) {
	quiet := mustGetBool(cmd, "quiet")
	jobID := mustGetString(cmd, "job-id")
	if jobID == "" {
		return newBarReporter(quiet, nil), func() {}, nil
	}

	tracker, closeTracker, err := openTracker(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return newBarReporter(quiet, jobstatus.NewReporter(tracker, jobID, jobType)), closeTracker, nil
}

var errNoImages = errors.New("at least one image is required")

// requireImages rejects an empty image list for the named flag.
func requireImages(flag string, refs []pipeline.ImageRef) error {
	if len(refs) == 0 {
		return fmt.Errorf("--%s: %w", flag, errNoImages)
	}
	return nil
}
