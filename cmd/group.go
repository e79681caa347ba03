package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-analyzer/internal/config"
	"github.com/kozaktomas/photo-analyzer/internal/jobstatus"
	"github.com/kozaktomas/photo-analyzer/internal/pipeline"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group near-duplicate images",
	Long: `Group near-duplicate images by cosine similarity of their embeddings.

Images that cannot be downloaded or embedded are skipped. Only groups with
at least two members are printed.

Examples:
  photo-analyzer group --image a=https://example.com/a.jpg --image b=https://example.com/b.jpg
  photo-analyzer group --threshold 0.9 --image ... --image ...`,
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)

	groupCmd.Flags().StringSlice("image", nil, "Image as [name=]URL (repeatable)")
	groupCmd.Flags().Float64("threshold", config.Defaults().SimilarityThreshold, "Minimum cosine similarity to join a group")
	addProgressFlags(groupCmd)
}

func runGroup(cmd *cobra.Command, args []string) error {
	images := parseImageRefs(mustGetStringSlice(cmd, "image"))
	if err := requireImages("image", images); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	cfg := config.Load()
	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	rep, closeReporter, err := batchReporter(ctx, cmd, cfg, jobstatus.TypeSimilarGrouping)
	if err != nil {
		return err
	}
	defer closeReporter()

	result, err := analyzer.Grouping(ctx, pipeline.GroupingRequest{
		Images:              images,
		SimilarityThreshold: mustGetFloat64(cmd, "threshold"),
	}, rep)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
