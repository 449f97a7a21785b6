package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"gridmask/internal/logger"
	"gridmask/pkg/config"
	"gridmask/pkg/grid"
	"gridmask/pkg/phantom"
	"gridmask/pkg/scan"
	"gridmask/pkg/store"
	"gridmask/pkg/visualization"
	"gridmask/pkg/volume"
)

// session holds the configuration and the synthetic patient a command
// works on.
type session struct {
	cfg   *config.Config
	log   *logger.Logger
	codec store.Codec

	image     *phantom.Image
	dose      *phantom.Dose
	structure *phantom.Structure
}

func loadSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	codec, err := store.ParseCodec(cfg.Output.Codec)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose || cfg.Output.Verbose {
		level = slog.LevelDebug
	}

	s := &session{
		cfg:   cfg,
		log:   logger.NewText(cmd.ErrOrStderr(), level),
		codec: codec,
	}
	s.build()
	return s, nil
}

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

func (s *session) build() {
	p := s.cfg.Phantom
	center := vec(p.Center)

	var shape phantom.Shape
	switch p.Structure {
	case "box":
		half := r3.Vec{X: p.Radius, Y: p.Radius, Z: p.Radius}
		shape = phantom.Box{Min: r3.Sub(center, half), Max: r3.Add(center, half)}
	default:
		shape = phantom.Sphere{Center: center, Radius: p.Radius}
	}
	s.structure = &phantom.Structure{Name: "PTV", Shape: shape}

	imageGrid := grid.AxisAligned(vec(p.Origin), p.Resolution, p.Size)
	s.image = &phantom.Image{Grid: imageGrid, Field: func(q r3.Vec) int32 {
		if shape.Contains(q) {
			return 60
		}
		return 0
	}}

	k := p.DoseScale
	var size [3]int
	var res [3]float64
	for i := range size {
		size[i] = (p.Size[i] + k - 1) / k
		res[i] = p.Resolution[i] * float64(k)
	}
	s.dose = &phantom.Dose{
		Grid:  grid.AxisAligned(vec(p.Origin), res, size),
		Field: phantom.RadialDose(center, p.Dose.Peak, p.Dose.Radius),
		Base:  p.Dose.Base,
		Step:  p.Dose.Step,
	}
}

func (s *session) scanOptions() []scan.Option {
	return []scan.Option{
		scan.WithWorkers(s.cfg.Sampling.Workers),
		scan.WithVerify(s.cfg.Sampling.VerifyCopies),
		scan.WithLogger(s.log),
	}
}

// saveVolume writes a to the output directory and, when configured, its
// slices next to it.
func saveVolume[T volume.Element](cmd *cobra.Command, s *session, name string, a *volume.Array[T]) error {
	path := filepath.Join(s.cfg.Output.Dir, name)
	if err := store.Save(path, a, s.codec); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	cmd.Printf("Saved %s (%s, %dx%dx%d)\n", path, s.codec, a.XSize, a.YSize, a.ZSize)

	if s.cfg.Output.SaveSlices {
		dir := filepath.Join(s.cfg.Output.Dir, "slices", strings.TrimSuffix(name, filepath.Ext(name)))
		writeSlices(cmd, s.log, visualization.NewViewer(volume.ToFloat64(a)), dir)
	}
	return nil
}

func writeSlices(cmd *cobra.Command, log *logger.Logger, viewer *visualization.Viewer, dir string) {
	for _, axis := range []string{"x", "y", "z"} {
		axisDir := filepath.Join(dir, axis)
		if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
			log.Warn("failed to save slices", "axis", axis, "dir", axisDir, "error", err)
			continue
		}
		cmd.Printf("Saved %s-axis slices to %s\n", axis, axisDir)
	}
}
