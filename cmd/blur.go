package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-analyzer/internal/config"
)

var blurCmd = &cobra.Command{
	Use:   "blur",
	Short: "Screen images for blur",
	Long: `Screen images for blur using the Laplacian variance of the largest face,
or of the whole picture when no face is found.

Example:
  photo-analyzer blur --image https://example.com/a.jpg --threshold 80`,
	RunE: runBlur,
}

func init() {
	rootCmd.AddCommand(blurCmd)

	blurCmd.Flags().StringSlice("image", nil, "Image as [name=]URL (repeatable)")
	blurCmd.Flags().Float64("threshold", config.Defaults().BlurThreshold, "Laplacian variance below which an image is blurry")
}

func runBlur(cmd *cobra.Command, args []string) error {
	images := parseImageRefs(mustGetStringSlice(cmd, "image"))
	if err := requireImages("image", images); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	analyzer, err := newAnalyzer(config.Load())
	if err != nil {
		return err
	}

	result, err := analyzer.DetectBlur(ctx, images, mustGetFloat64(cmd, "threshold"))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
