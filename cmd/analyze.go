package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-analyzer/internal/config"
	"github.com/kozaktomas/photo-analyzer/internal/fingerprint"
	"github.com/kozaktomas/photo-analyzer/internal/jobstatus"
	"github.com/kozaktomas/photo-analyzer/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Tag known people in source images and detect objects and blur",
	Long: `Tag known people in a batch of source images.

Each --target is a reference picture of one person, named after the part
before '='. Every --source image is matched
against the references, run through object detection and screened for blur.

Examples:
  photo-analyzer analyze --target alice=https://example.com/alice.jpg \
    --source https://example.com/party1.jpg --source https://example.com/party2.jpg

  # Faces only, fail when no reference face is recognised
  photo-analyzer analyze --faces-only --target bob=https://example.com/bob.jpg --source ...

  # Keep annotated copies and record progress under a job id
  photo-analyzer analyze --tagged --job-id batch-42 --target ... --source ...`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	d := config.Defaults()
	analyzeCmd.Flags().StringSlice("target", nil, "Reference face image as [name=]URL (repeatable)")
	analyzeCmd.Flags().StringSlice("source", nil, "Source image as [name=]URL (repeatable)")
	analyzeCmd.Flags().Float64("threshold", d.FaceDistanceThreshold, "Maximum cosine distance for a face match")
	analyzeCmd.Flags().Float64("blur-threshold", d.BlurThreshold, "Laplacian variance below which an image is blurry")
	analyzeCmd.Flags().Float64("conf", d.Detection.Conf, "Object detection confidence")
	analyzeCmd.Flags().Int("imgsz", d.Detection.ImgSize, "Object detection input size")
	analyzeCmd.Flags().Bool("tagged", false, "Save annotated copies and include them as base64")
	analyzeCmd.Flags().Bool("faces-only", false, "Only match faces; fail when no reference is recognised")
	addProgressFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	targets := parseImageRefs(mustGetStringSlice(cmd, "target"))
	sources := parseImageRefs(mustGetStringSlice(cmd, "source"))
	if err := requireImages("target", targets); err != nil {
		return err
	}
	if err := requireImages("source", sources); err != nil {
		return err
	}

	facesOnly := mustGetBool(cmd, "faces-only")
	req := pipeline.IntegrationRequest{
		TargetFaces:       targets,
		SourceImages:      sources,
		DistanceThreshold: mustGetFloat64(cmd, "threshold"),
		BlurThreshold:     mustGetFloat64(cmd, "blur-threshold"),
		Detection: fingerprint.DetectOptions{
			Conf:    mustGetFloat64(cmd, "conf"),
			ImgSize: mustGetInt(cmd, "imgsz"),
		},
		ReturnTaggedImages: mustGetBool(cmd, "tagged"),
		FacesOnly:          facesOnly,
		RequireReferences:  facesOnly,
	}

	ctx, cancel := commandContext()
	defer cancel()

	cfg := config.Load()
	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	rep, closeReporter, err := batchReporter(ctx, cmd, cfg, jobstatus.TypeIntegration)
	if err != nil {
		return err
	}
	defer closeReporter()

	result, err := analyzer.Integration(ctx, req, rep)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
