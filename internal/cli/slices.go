package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gridmask/pkg/store"
	"gridmask/pkg/visualization"
)

var slicesAxis string

var slicesCmd = &cobra.Command{
	Use:   "slices <volume-file>",
	Short: "Render a volume file as JPEG slices",
	Args:  cobra.ExactArgs(1),
	RunE:  runSlices,
}

func init() {
	slicesCmd.Flags().StringVar(&slicesAxis, "axis", "", "only render slices along x, y or z")
	rootCmd.AddCommand(slicesCmd)
}

func runSlices(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	vol, h, err := store.LoadFloat64(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	cmd.Printf("Loaded %s volume %dx%dx%d\n", h.Kind, h.XSize, h.YSize, h.ZSize)

	base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	dir := filepath.Join(s.cfg.Output.Dir, "slices", base)
	viewer := visualization.NewViewer(vol)

	if slicesAxis == "" {
		writeSlices(cmd, s.log, viewer, dir)
		return nil
	}
	axisDir := filepath.Join(dir, slicesAxis)
	if err := viewer.SaveSliceSequence(slicesAxis, axisDir); err != nil {
		return err
	}
	cmd.Printf("Saved %s-axis slices to %s\n", slicesAxis, axisDir)
	return nil
}
