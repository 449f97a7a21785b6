package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gridmask/pkg/extract"
	"gridmask/pkg/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dose statistics of the structure",
	Long: `Samples the dose on the image grid and reports dose statistics over
the structure, weighting boundary voxels by their partial volume when
sampling.subSamples is 2 or more.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	g := s.image.Grid
	opts := s.scanOptions()

	occ, err := extract.NewStructureAdapter(s.structure, opts...).MaskLike(g, s.cfg.Sampling.SubSamples)
	if err != nil {
		return fmt.Errorf("mask failed: %w", err)
	}
	dose, err := extract.NewDoseAdapter(s.dose, opts...).ArrayLike(g)
	if err != nil {
		return fmt.Errorf("dose extraction failed: %w", err)
	}

	dv, err := stats.Collect(g, dose, occ)
	if err != nil {
		return err
	}
	sum := dv.Summary()

	cmd.Printf("Dose statistics for %s:\n", s.structure.ID())
	cmd.Printf("======================\n")
	cmd.Printf("Volume: %.2f cc (%d voxels)\n", sum.Volume, sum.Voxels)
	cmd.Printf("Mean: %.3f\n", sum.Mean)
	cmd.Printf("Std dev: %.3f\n", sum.StdDev)
	cmd.Printf("Min: %.3f\n", sum.Min)
	cmd.Printf("Max: %.3f\n", sum.Max)
	cmd.Printf("Median: %.3f\n", dv.Median())
	for _, p := range []float64{98, 95, 50, 2} {
		d, err := dv.DoseAtVolume(p)
		if err != nil {
			return err
		}
		cmd.Printf("D%.0f: %.3f\n", p, d)
	}
	return nil
}
