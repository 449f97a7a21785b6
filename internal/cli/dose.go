package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"gridmask/pkg/extract"
	"gridmask/pkg/volume"
)

var doseOnImage bool

var doseCmd = &cobra.Command{
	Use:   "dose",
	Short: "Extract the calibrated dose array",
	Long: `Reads every dose plane, converts raw voxel values to dose with the
grid's linear calibration and writes the result. With --on-image the dose is
instead sampled along the columns of the image grid.`,
	RunE: runDose,
}

func init() {
	doseCmd.Flags().BoolVar(&doseOnImage, "on-image", false, "sample the dose on the image grid")
	rootCmd.AddCommand(doseCmd)
}

func runDose(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	da := extract.NewDoseAdapter(s.dose, s.scanOptions()...)

	cal, err := da.Calibration()
	if err != nil {
		return fmt.Errorf("dose calibration failed: %w", err)
	}
	cmd.Printf("Calibration: scale %g, offset %g\n", cal.Scale, cal.Offset)

	var (
		name = "dose.gmv"
		arr  *volume.Array[float64]
	)
	if doseOnImage {
		name = "dose_on_image.gmv"
		arr, err = da.ArrayLike(s.image.Grid)
	} else {
		arr, err = da.Array()
	}
	if err != nil {
		return fmt.Errorf("dose extraction failed: %w", err)
	}
	cmd.Printf("Dose range: %.3f to %.3f\n", floats.Min(arr.Data), floats.Max(arr.Data))
	return saveVolume(cmd, s, name, arr)
}
