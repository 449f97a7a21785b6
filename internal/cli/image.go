package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gridmask/pkg/extract"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Extract the image voxels",
	RunE:  runImage,
}

func init() {
	rootCmd.AddCommand(imageCmd)
}

func runImage(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	ia := extract.NewImageAdapter(s.image, s.scanOptions()...)
	vox, err := ia.Voxels()
	if err != nil {
		return fmt.Errorf("image extraction failed: %w", err)
	}
	return saveVolume(cmd, s, "image.gmv", vox)
}
