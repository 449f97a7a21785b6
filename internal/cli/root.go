// Package cli implements the gridmask command line.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:   "gridmask",
	Short: "Sample structures, doses and images onto voxel grids",
	Long: `gridmask extracts planning data onto dense voxel grids: binary and
partial-volume structure masks, calibrated dose arrays, image intensities
and dose statistics. Commands operate on the synthetic patient described in
the configuration file and write compressed volume files to the output
directory.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "gridmask.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides output.dir)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
