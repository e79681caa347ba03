package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-analyzer/internal/config"
	"github.com/kozaktomas/photo-analyzer/internal/constants"
)

var validateCmd = &cobra.Command{
	Use:   "validate [image-url]",
	Short: "Check that an image holds exactly one usable face",
	Long: `Check that an image is suitable as a reference face: exactly one face,
large enough to embed. Prints the validation result and exits non-zero when
the image is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("name", constants.DefaultValidatePersonName, "Person name used in messages")
	validateCmd.Flags().Int("min-face-size", config.Defaults().MinFaceSize, "Minimum face width and height in pixels")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	analyzer, err := newAnalyzer(config.Load())
	if err != nil {
		return err
	}

	v := analyzer.ValidateFace(ctx, args[0], mustGetString(cmd, "name"), mustGetInt(cmd, "min-face-size"))
	if err := writeJSON(cmd.OutOrStdout(), v); err != nil {
		return err
	}
	if !v.IsValid {
		return fmt.Errorf("face validation failed: %s", v.ErrorCode)
	}
	return nil
}
