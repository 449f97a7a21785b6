package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gridmask/pkg/extract"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the structure mask against point tests",
	Long: `Builds the binary mask on the image grid and point-tests every voxel
within validation.margin voxels of it. Fails when more than
validation.maxErrorPercent of the tested voxels disagree.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	g := s.image.Grid
	sa := extract.NewStructureAdapter(s.structure, s.scanOptions()...)

	m, err := sa.Mask(g)
	if err != nil {
		return fmt.Errorf("mask failed: %w", err)
	}
	rep, err := sa.Validate(g, m, s.cfg.Validation.Margin, s.cfg.Validation.MaxErrorPercent)
	cmd.Printf("Checked %d voxels, %d mismatches (%.3f%%)\n", rep.Checked, rep.Mismatches, rep.ErrorPercent)
	if err != nil {
		return err
	}
	cmd.Println("Mask validation passed.")
	return nil
}
